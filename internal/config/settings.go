package config

import (
	"fmt"
	"time"

	"github.com/tyemirov/codecopy/internal/services/clipboard"
	"github.com/tyemirov/codecopy/internal/services/feedback"
	"github.com/tyemirov/codecopy/internal/trigger"
	"github.com/tyemirov/codecopy/internal/utils"
)

const (
	// DefaultServerAddress is where the bridge listens unless configured otherwise.
	DefaultServerAddress = "127.0.0.1:8765"
	// DefaultPrimaryTimeout bounds how long the primary clipboard may take before falling back.
	DefaultPrimaryTimeout = 2 * time.Second
	// DefaultShutdownTimeout bounds graceful bridge shutdown.
	DefaultShutdownTimeout = 5 * time.Second
)

var (
	primaryWriterNames = []string{clipboard.PrimarySystem, clipboard.PrimaryNative, clipboard.PrimaryNone}
	fallbackNames      = []string{clipboard.FallbackAuto, clipboard.FallbackCommand, clipboard.FallbackOSC52, clipboard.FallbackNone}
)

// Settings is the fully resolved configuration with defaults applied.
type Settings struct {
	SuccessDuration time.Duration
	FailureDuration time.Duration
	SuccessMessage  string
	FailurePrefix   string
	FailureMode     string
	StatusPrefix    string
	Wait            bool
	Primary         string
	Fallback        string
	PrimaryTimeout  time.Duration
	SurfaceDir      string
	ServerAddress   string
	AllowedOrigins  []string
	ShutdownTimeout time.Duration
}

// Resolve validates the configuration and fills in defaults.
func (config ApplicationConfiguration) Resolve() (Settings, error) {
	var settings Settings
	var err error
	if settings.SuccessDuration, err = ParseDurationOrDefault("feedback.success_duration", config.Feedback.SuccessDuration, feedback.DefaultSuccessDuration); err != nil {
		return Settings{}, err
	}
	if settings.FailureDuration, err = ParseDurationOrDefault("feedback.failure_duration", config.Feedback.FailureDuration, feedback.DefaultFailureDuration); err != nil {
		return Settings{}, err
	}
	if settings.PrimaryTimeout, err = ParseDurationOrDefault("clipboard.primary_timeout", config.Clipboard.PrimaryTimeout, DefaultPrimaryTimeout); err != nil {
		return Settings{}, err
	}
	if settings.ShutdownTimeout, err = ParseDurationOrDefault("server.shutdown_timeout", config.Server.ShutdownTimeout, DefaultShutdownTimeout); err != nil {
		return Settings{}, err
	}
	if settings.FailureMode, err = feedback.ParseFailureMode(config.Feedback.FailureMode); err != nil {
		return Settings{}, err
	}

	settings.Primary = overrideString(clipboard.PrimarySystem, config.Clipboard.Primary)
	if !utils.ContainsString(primaryWriterNames, settings.Primary) {
		return Settings{}, fmt.Errorf("unsupported clipboard.primary %q", settings.Primary)
	}
	settings.Fallback = overrideString(clipboard.FallbackAuto, config.Clipboard.Fallback)
	if !utils.ContainsString(fallbackNames, settings.Fallback) {
		return Settings{}, fmt.Errorf("unsupported clipboard.fallback %q", settings.Fallback)
	}

	settings.SuccessMessage = overrideString(feedback.DefaultSuccessMessage, config.Feedback.SuccessMessage)
	settings.FailurePrefix = overrideString(feedback.DefaultFailurePrefix, config.Feedback.FailurePrefix)
	settings.StatusPrefix = overrideString(trigger.DefaultStatusPrefix, config.Feedback.StatusPrefix)
	settings.Wait = true
	if config.Feedback.Wait != nil {
		settings.Wait = *config.Feedback.Wait
	}
	settings.SurfaceDir = config.Clipboard.SurfaceDir
	settings.ServerAddress = overrideString(DefaultServerAddress, config.Server.Address)
	settings.AllowedOrigins = append([]string{}, config.Server.AllowedOrigins...)
	if len(settings.AllowedOrigins) == 0 {
		settings.AllowedOrigins = []string{"*"}
	}
	return settings, nil
}
