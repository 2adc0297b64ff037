package clipboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/atotto/clipboard"
	nativeclipboard "golang.design/x/clipboard"
)

const (
	// PrimarySystem selects github.com/atotto/clipboard.
	PrimarySystem = "system"
	// PrimaryNative selects golang.design/x/clipboard.
	PrimaryNative = "native"
	// PrimaryNone disables the primary writer.
	PrimaryNone = "none"

	systemMechanismName = "system-clipboard"
	nativeMechanismName = "native-clipboard"
)

// PrimaryWriter is the preferred clipboard mechanism.
type PrimaryWriter interface {
	Name() string
	Available() bool
	Write(ctx context.Context, text string) error
}

// NewPrimaryWriter returns the writer registered under name; PrimaryNone yields nil.
func NewPrimaryWriter(name string) (PrimaryWriter, error) {
	switch name {
	case "", PrimarySystem:
		return NewSystemWriter(), nil
	case PrimaryNative:
		return NewNativeWriter(), nil
	case PrimaryNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("unsupported primary clipboard %q", name)
	}
}

// SystemWriter writes through github.com/atotto/clipboard.
type SystemWriter struct{}

// NewSystemWriter constructs a SystemWriter.
func NewSystemWriter() *SystemWriter {
	return &SystemWriter{}
}

// Name identifies the mechanism.
func (writer *SystemWriter) Name() string {
	return systemMechanismName
}

// Available reports whether the platform has a usable clipboard utility.
func (writer *SystemWriter) Available() bool {
	return !clipboard.Unsupported
}

// Write copies text to the system clipboard.
func (writer *SystemWriter) Write(ctx context.Context, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := clipboard.WriteAll(text); err != nil {
		return NewCopyError(KindPermissionDenied, "system clipboard rejected write", err)
	}
	return nil
}

// NativeWriter writes through golang.design/x/clipboard.
type NativeWriter struct {
	initializeOnce  sync.Once
	initializeError error
}

// NewNativeWriter constructs a NativeWriter. Initialization is deferred until first use.
func NewNativeWriter() *NativeWriter {
	return &NativeWriter{}
}

// Name identifies the mechanism.
func (writer *NativeWriter) Name() string {
	return nativeMechanismName
}

// Available initializes the native clipboard once and reports whether it succeeded.
func (writer *NativeWriter) Available() bool {
	writer.initializeOnce.Do(func() {
		writer.initializeError = nativeclipboard.Init()
	})
	return writer.initializeError == nil
}

// Write copies text to the native clipboard. A nil change channel means the platform refused it.
func (writer *NativeWriter) Write(ctx context.Context, text string) error {
	if !writer.Available() {
		return NewCopyError(KindClipboardAPIUnavailable, "native clipboard not initialized", writer.initializeError)
	}
	changed := nativeclipboard.Write(nativeclipboard.FmtText, []byte(text))
	if changed == nil {
		return NewCopyError(KindPermissionDenied, "native clipboard rejected write", nil)
	}
	return ctx.Err()
}
