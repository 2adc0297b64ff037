package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tyemirov/codecopy/internal/config"
	"github.com/tyemirov/codecopy/internal/services/bridge"
	"github.com/tyemirov/codecopy/internal/services/feedback"
)

const (
	serveUse              = "serve"
	serveShortDescription = "run the local HTTP copy bridge"
	serveLongDescription  = `Run a local HTTP bridge so admin pages can request copies and read feedback state.
POST /commands/copy with {"text": "...", "target": "..."} and poll GET /status/<target>.`
	addressFlagName        = "address"
	addressFlagDescription = "listen address for the bridge"
	listeningMessageFormat = "codecopy bridge listening on http://%s\n"
)

// createServeCommand returns the serve subcommand.
func createServeCommand(deps dependencies, loadSettings func() (config.Settings, error)) *cobra.Command {
	var address string
	var mechanisms copyOptions

	serveCommand := &cobra.Command{
		Use:   serveUse,
		Short: serveShortDescription,
		Long:  serveLongDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if settings, err = mechanisms.applyOverrides(command, settings); err != nil {
				return err
			}
			if command.Flags().Changed(addressFlagName) {
				settings.ServerAddress = address
			}
			ctx, stop := signal.NotifyContext(command.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, deps, settings)
		},
	}

	serveCommand.Flags().StringVar(&address, addressFlagName, config.DefaultServerAddress, addressFlagDescription)
	addMechanismFlags(serveCommand, &mechanisms)
	return serveCommand
}

func runServe(ctx context.Context, deps dependencies, settings config.Settings) error {
	copier, err := buildCopier(deps, settings)
	if err != nil {
		return err
	}
	board := feedback.NewBoard(feedback.BoardOptions{
		Clock:           deps.clock,
		Renderer:        feedback.NewTerminalRenderer(deps.errorOutput),
		SuccessDuration: settings.SuccessDuration,
		FailureDuration: settings.FailureDuration,
		SuccessMessage:  settings.SuccessMessage,
		FailurePrefix:   settings.FailurePrefix,
		MaxRegions:      bridge.DefaultMaxRegions,
	})
	server := bridge.NewServer(bridge.Config{
		Address:         settings.ServerAddress,
		AllowedOrigins:  settings.AllowedOrigins,
		ShutdownTimeout: settings.ShutdownTimeout,
		StatusPrefix:    settings.StatusPrefix,
		Copier:          copier,
		Board:           board,
		Deliverer:       feedback.NewDispatcher(board, nil, feedback.FailureModeInline, deps.logger),
		Logger:          deps.logger,
	})
	return server.Run(ctx, func(boundAddress string) {
		deps.logger.Info("bridge started", zap.String("address", boundAddress))
		_, _ = fmt.Fprintf(deps.output, listeningMessageFormat, boundAddress)
	})
}
