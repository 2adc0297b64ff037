// Package config loads codecopy configuration from global and local YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/tyemirov/codecopy/internal/utils"
)

// LoadOptions controls how application configuration is discovered.
type LoadOptions struct {
	WorkingDirectory string
	ExplicitFilePath string
}

// ApplicationConfiguration holds configuration as read from disk; unset values stay nil or empty.
type ApplicationConfiguration struct {
	Feedback  FeedbackConfiguration  `mapstructure:"feedback"`
	Clipboard ClipboardConfiguration `mapstructure:"clipboard"`
	Server    ServerConfiguration    `mapstructure:"server"`
}

// FeedbackConfiguration controls status messages and their reversion.
type FeedbackConfiguration struct {
	SuccessDuration string `mapstructure:"success_duration"`
	FailureDuration string `mapstructure:"failure_duration"`
	SuccessMessage  string `mapstructure:"success_message"`
	FailurePrefix   string `mapstructure:"failure_prefix"`
	FailureMode     string `mapstructure:"failure_mode"`
	StatusPrefix    string `mapstructure:"status_prefix"`
	Wait            *bool  `mapstructure:"wait"`
}

// ClipboardConfiguration selects the copy mechanisms.
type ClipboardConfiguration struct {
	Primary        string `mapstructure:"primary"`
	Fallback       string `mapstructure:"fallback"`
	PrimaryTimeout string `mapstructure:"primary_timeout"`
	SurfaceDir     string `mapstructure:"surface_dir"`
}

// ServerConfiguration configures the HTTP bridge.
type ServerConfiguration struct {
	Address         string   `mapstructure:"address"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	ShutdownTimeout string   `mapstructure:"shutdown_timeout"`
}

// LoadApplicationConfiguration loads configuration from global and local files.
func LoadApplicationConfiguration(options LoadOptions) (ApplicationConfiguration, error) {
	workingDirectory := options.WorkingDirectory
	if workingDirectory == "" {
		currentDirectory, err := os.Getwd()
		if err != nil {
			return ApplicationConfiguration{}, fmt.Errorf("determine working directory: %w", err)
		}
		workingDirectory = currentDirectory
	}

	var merged ApplicationConfiguration

	if homeDirectory, err := os.UserHomeDir(); err == nil && homeDirectory != "" {
		globalPath := filepath.Join(homeDirectory, utils.GlobalConfigDirectoryName, utils.ConfigFileName)
		globalConfig, loadErr := loadConfigurationFromPath(globalPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(globalConfig)
	}

	localPath, resolveErr := resolveLocalConfigPath(workingDirectory, options.ExplicitFilePath)
	if resolveErr != nil {
		return ApplicationConfiguration{}, resolveErr
	}
	if localPath != "" {
		localConfig, loadErr := loadConfigurationFromPath(localPath)
		if loadErr != nil {
			return ApplicationConfiguration{}, loadErr
		}
		merged = merged.Merge(localConfig)
	}

	merged.Server.AllowedOrigins = utils.DeduplicateStrings(merged.Server.AllowedOrigins)

	return merged, nil
}

func resolveLocalConfigPath(workingDirectory, explicitPath string) (string, error) {
	if explicitPath != "" {
		if filepath.IsAbs(explicitPath) {
			return explicitPath, nil
		}
		if workingDirectory == "" {
			absolute, err := filepath.Abs(explicitPath)
			if err != nil {
				return "", fmt.Errorf("resolve configuration path %s: %w", explicitPath, err)
			}
			return absolute, nil
		}
		return filepath.Join(workingDirectory, explicitPath), nil
	}
	if workingDirectory == "" {
		return "", nil
	}
	return filepath.Join(workingDirectory, utils.ConfigFileName), nil
}

func loadConfigurationFromPath(path string) (ApplicationConfiguration, error) {
	if path == "" {
		return ApplicationConfiguration{}, nil
	}
	info, statErr := os.Stat(path)
	if statErr != nil {
		if os.IsNotExist(statErr) {
			return ApplicationConfiguration{}, nil
		}
		return ApplicationConfiguration{}, fmt.Errorf("stat configuration %s: %w", path, statErr)
	}
	if info.IsDir() {
		return ApplicationConfiguration{}, fmt.Errorf("configuration path %s is a directory", path)
	}

	reader := viper.New()
	reader.SetConfigFile(path)
	if readErr := reader.ReadInConfig(); readErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("read configuration from %s: %w", path, readErr)
	}
	var config ApplicationConfiguration
	if decodeErr := reader.Unmarshal(&config); decodeErr != nil {
		return ApplicationConfiguration{}, fmt.Errorf("decode configuration from %s: %w", path, decodeErr)
	}
	return config, nil
}

// Merge overlays override onto the receiver returning the combined configuration.
func (config ApplicationConfiguration) Merge(override ApplicationConfiguration) ApplicationConfiguration {
	result := config
	result.Feedback = result.Feedback.merge(override.Feedback)
	result.Clipboard = result.Clipboard.merge(override.Clipboard)
	result.Server = result.Server.merge(override.Server)
	return result
}

func (config FeedbackConfiguration) merge(override FeedbackConfiguration) FeedbackConfiguration {
	result := config
	result.SuccessDuration = overrideString(result.SuccessDuration, override.SuccessDuration)
	result.FailureDuration = overrideString(result.FailureDuration, override.FailureDuration)
	result.SuccessMessage = overrideString(result.SuccessMessage, override.SuccessMessage)
	result.FailurePrefix = overrideString(result.FailurePrefix, override.FailurePrefix)
	result.FailureMode = overrideString(result.FailureMode, override.FailureMode)
	result.StatusPrefix = overrideString(result.StatusPrefix, override.StatusPrefix)
	if override.Wait != nil {
		result.Wait = cloneBool(override.Wait)
	}
	return result
}

func (config ClipboardConfiguration) merge(override ClipboardConfiguration) ClipboardConfiguration {
	result := config
	result.Primary = overrideString(result.Primary, override.Primary)
	result.Fallback = overrideString(result.Fallback, override.Fallback)
	result.PrimaryTimeout = overrideString(result.PrimaryTimeout, override.PrimaryTimeout)
	result.SurfaceDir = overrideString(result.SurfaceDir, override.SurfaceDir)
	return result
}

func (config ServerConfiguration) merge(override ServerConfiguration) ServerConfiguration {
	result := config
	result.Address = overrideString(result.Address, override.Address)
	result.ShutdownTimeout = overrideString(result.ShutdownTimeout, override.ShutdownTimeout)
	if len(override.AllowedOrigins) > 0 {
		result.AllowedOrigins = append([]string{}, utils.DeduplicateStrings(override.AllowedOrigins)...)
	}
	return result
}

func overrideString(current string, override string) string {
	if override != "" {
		return override
	}
	return current
}

func cloneBool(value *bool) *bool {
	if value == nil {
		return nil
	}
	cloned := *value
	return &cloned
}

// ParseDurationOrDefault parses value, returning fallback when value is empty.
func ParseDurationOrDefault(key string, value string, fallback time.Duration) (time.Duration, error) {
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s %q: %w", key, value, err)
	}
	if parsed <= 0 {
		return 0, fmt.Errorf("%s must be positive, got %s", key, value)
	}
	return parsed, nil
}
