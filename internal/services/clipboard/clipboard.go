// Package clipboard copies text to the system clipboard, preferring a primary writer and
// falling back to a legacy selection-based command.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

const defaultPrimaryTimeout = 2 * time.Second

// Copier copies textual data to the clipboard.
type Copier interface {
	Copy(ctx context.Context, request Request) Result
}

// Options configures a Service.
type Options struct {
	Primary        PrimaryWriter
	Legacy         LegacyCommand
	Surfaces       SurfaceProvider
	PrimaryTimeout time.Duration
	Logger         *zap.Logger
}

// Service implements Copier with a primary writer and a legacy fallback.
type Service struct {
	primary        PrimaryWriter
	legacy         LegacyCommand
	surfaces       SurfaceProvider
	primaryTimeout time.Duration
	logger         *zap.Logger
}

// NewService constructs a Service, applying defaults for unset options.
func NewService(options Options) *Service {
	surfaces := options.Surfaces
	if surfaces == nil {
		surfaces = NewFileSurfaceProvider(nil, "")
	}
	primaryTimeout := options.PrimaryTimeout
	if primaryTimeout <= 0 {
		primaryTimeout = defaultPrimaryTimeout
	}
	logger := options.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		primary:        options.Primary,
		legacy:         options.Legacy,
		surfaces:       surfaces,
		primaryTimeout: primaryTimeout,
		logger:         logger,
	}
}

// Start begins a copy and returns a task resolving to its result.
func (service *Service) Start(ctx context.Context, request Request) *Task[Result] {
	return StartTask(ctx, func(taskContext context.Context) (Result, error) {
		return service.Copy(taskContext, request), nil
	})
}

// Copy writes request.Text to the clipboard. It never returns an error; failures are reported in the Result.
func (service *Service) Copy(ctx context.Context, request Request) Result {
	primaryErr := service.copyWithPrimary(ctx, request.Text)
	if primaryErr == nil {
		service.logger.Debug("copied with primary clipboard", zap.String("target", request.TargetID), zap.String("mechanism", service.primary.Name()))
		return successResult(service.primary.Name())
	}
	service.logger.Debug("primary clipboard failed, using fallback", zap.String("target", request.TargetID), zap.Error(primaryErr))
	result := service.copyWithLegacy(ctx, request.Text)
	if !result.Succeeded() {
		service.logger.Warn("copy failed", zap.String("target", request.TargetID), zap.String("reason", result.Reason), zap.Error(result.Err))
	}
	return result
}

func (service *Service) copyWithPrimary(ctx context.Context, text string) error {
	if service.primary == nil {
		return NewCopyError(KindClipboardAPIUnavailable, "no primary clipboard configured", nil)
	}
	if !service.primary.Available() {
		return NewCopyError(KindClipboardAPIUnavailable, fmt.Sprintf("%s unavailable", service.primary.Name()), nil)
	}
	primaryContext, cancel := context.WithTimeout(ctx, service.primaryTimeout)
	defer cancel()
	writeTask := StartTask(primaryContext, func(taskContext context.Context) (struct{}, error) {
		return struct{}{}, service.primary.Write(taskContext, text)
	})
	_, writeErr := writeTask.Wait(primaryContext)
	if writeErr == nil {
		return nil
	}
	writeTask.Cancel()
	var copyError *CopyError
	if errors.As(writeErr, &copyError) {
		return writeErr
	}
	return NewCopyError(KindPermissionDenied, fmt.Sprintf("%s write", service.primary.Name()), writeErr)
}

func (service *Service) copyWithLegacy(ctx context.Context, text string) (result Result) {
	if service.legacy == nil {
		return failureResult(MechanismNone, ReasonNotSupported, NewCopyError(KindLegacyCommandUnsupported, "no fallback configured", nil))
	}
	mechanism := service.legacy.Name()
	surface, acquireErr := service.surfaces.Acquire()
	if acquireErr != nil {
		return failureResult(mechanism, ReasonNotSupported, NewCopyError(KindLegacyCommandUnsupported, "acquire surface", acquireErr))
	}
	defer func() {
		if releaseErr := surface.Release(); releaseErr != nil {
			service.logger.Warn("release copy surface", zap.Error(releaseErr))
		}
	}()
	defer func() {
		if recovered := recover(); recovered != nil {
			result = failureResult(mechanism, ReasonNotSupported, NewCopyError(KindLegacyCommandUnsupported, fmt.Sprintf("%s panicked: %v", mechanism, recovered), nil))
		}
	}()

	if err := surface.SetContent(text); err != nil {
		return failureResult(mechanism, ReasonNotSupported, NewCopyError(KindLegacyCommandUnsupported, "load surface", err))
	}
	selection, selectErr := surface.Select()
	if selectErr != nil {
		return failureResult(mechanism, ReasonNotSupported, NewCopyError(KindLegacyCommandUnsupported, "select surface", selectErr))
	}
	copied, executeErr := service.legacy.Execute(ctx, selection)
	if executeErr != nil {
		var copyError *CopyError
		if !errors.As(executeErr, &copyError) {
			executeErr = NewCopyError(KindLegacyCommandUnsupported, mechanism, executeErr)
		}
		return failureResult(mechanism, ReasonNotSupported, executeErr)
	}
	if !copied {
		return failureResult(mechanism, ReasonFailed, NewCopyError(KindLegacyCommandFailed, fmt.Sprintf("%s reported failure", mechanism), nil))
	}
	return successResult(mechanism)
}

var _ Copier = (*Service)(nil)
