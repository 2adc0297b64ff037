// Package cli provides the command line interface.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/codecopy/internal/clock"
	"github.com/tyemirov/codecopy/internal/config"
	"github.com/tyemirov/codecopy/internal/services/clipboard"
	"github.com/tyemirov/codecopy/internal/utils"
)

const (
	configFlagName       = "config"
	versionFlagName      = "version"
	versionTemplate      = "codecopy version: %s\n"
	rootUse              = "codecopy"
	rootShortDescription = "copy codes to the clipboard with feedback"
	rootLongDescription  = `codecopy copies codes (coupon codes, tokens, identifiers) to the system clipboard.
It tries the system clipboard first and falls back to a legacy copy command or an OSC52 terminal sequence.
Outcomes are shown as transient status messages that revert after a short delay.`
	configFlagDescription  = "path to a configuration file (defaults to ./config.yaml)"
	versionFlagDescription = "display application version"

	loadConfigurationErrorFormat    = "load configuration: %w"
	resolveConfigurationErrorFormat = "resolve configuration: %w"
	buildCopierErrorFormat          = "build clipboard copier: %w"
)

// dependencies holds everything commands need from the outside world.
type dependencies struct {
	logger           *zap.Logger
	output           io.Writer
	errorOutput      io.Writer
	alertInput       io.Reader
	clock            clock.Clock
	workingDirectory string
	newCopier        func(settings config.Settings, logger *zap.Logger) (clipboard.Copier, error)
}

func defaultDependencies(logger *zap.Logger) dependencies {
	var alertInput io.Reader
	if clipboard.IsTerminal(os.Stdin) {
		alertInput = os.Stdin
	}
	return dependencies{
		logger:      logger,
		output:      os.Stdout,
		errorOutput: os.Stderr,
		alertInput:  alertInput,
		clock:       clock.System{},
		newCopier:   newSystemCopier,
	}
}

// newSystemCopier wires the configured primary writer, legacy command and surfaces.
func newSystemCopier(settings config.Settings, logger *zap.Logger) (clipboard.Copier, error) {
	primary, primaryErr := clipboard.NewPrimaryWriter(settings.Primary)
	if primaryErr != nil {
		return nil, primaryErr
	}
	legacy, legacyErr := clipboard.NewLegacyCommand(settings.Fallback, os.Stderr)
	if legacyErr != nil {
		return nil, legacyErr
	}
	return clipboard.NewService(clipboard.Options{
		Primary:        primary,
		Legacy:         legacy,
		Surfaces:       clipboard.NewFileSurfaceProvider(nil, settings.SurfaceDir),
		PrimaryTimeout: settings.PrimaryTimeout,
		Logger:         logger,
	}), nil
}

// Execute runs the codecopy application.
func Execute(logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	rootCommand := createRootCommand(defaultDependencies(logger))
	rootCommand.SetArgs(joinToggleArguments(rootCommand, os.Args[1:]))
	return rootCommand.Execute()
}

// createRootCommand builds the root Cobra command.
func createRootCommand(deps dependencies) *cobra.Command {
	var showVersion bool
	var configurationPath string

	rootCommand := &cobra.Command{
		Use:           rootUse,
		Short:         rootShortDescription,
		Long:          rootLongDescription,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(command *cobra.Command, arguments []string) error {
			if showVersion {
				_, err := fmt.Fprintf(command.OutOrStdout(), versionTemplate, utils.GetApplicationVersion())
				return err
			}
			return command.Help()
		},
	}
	rootCommand.SetOut(deps.output)
	rootCommand.SetErr(deps.errorOutput)
	registerToggleFlag(rootCommand.Flags(), &showVersion, versionFlagName, false, versionFlagDescription)
	rootCommand.PersistentFlags().StringVar(&configurationPath, configFlagName, "", configFlagDescription)

	loadSettings := func() (config.Settings, error) {
		loaded, loadErr := config.LoadApplicationConfiguration(config.LoadOptions{
			WorkingDirectory: deps.workingDirectory,
			ExplicitFilePath: configurationPath,
		})
		if loadErr != nil {
			return config.Settings{}, fmt.Errorf(loadConfigurationErrorFormat, loadErr)
		}
		settings, resolveErr := loaded.Resolve()
		if resolveErr != nil {
			return config.Settings{}, fmt.Errorf(resolveConfigurationErrorFormat, resolveErr)
		}
		return settings, nil
	}

	rootCommand.AddCommand(
		createCopyCommand(deps, loadSettings),
		createScanCommand(deps, loadSettings),
		createServeCommand(deps, loadSettings),
		createInitCommand(deps),
	)
	rootCommand.InitDefaultHelpCmd()
	rootCommand.InitDefaultCompletionCmd()
	return rootCommand
}

func buildCopier(deps dependencies, settings config.Settings) (clipboard.Copier, error) {
	copier, err := deps.newCopier(settings, deps.logger)
	if err != nil {
		return nil, fmt.Errorf(buildCopierErrorFormat, err)
	}
	return copier, nil
}
