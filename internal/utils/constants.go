package utils

const (
	// ConfigFileName is the configuration file name looked up locally and globally.
	ConfigFileName = "config.yaml"
	// GlobalConfigDirectoryName is the directory under the user's home holding global configuration.
	GlobalConfigDirectoryName = ".codecopy"
	// GitDirectoryName is the name of the Git repository directory.
	GitDirectoryName = ".git"
	// VerboseEnvironmentVariable enables debug logging when set to a non-empty value.
	VerboseEnvironmentVariable = "CODECOPY_VERBOSE"

	// LoggerInitializationFailedMessageFormat reports a logger construction failure.
	LoggerInitializationFailedMessageFormat = "initialize logger: %w"
	// ApplicationExecutionFailedMessage prefixes fatal command errors.
	ApplicationExecutionFailedMessage = "codecopy failed"
)
