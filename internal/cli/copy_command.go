package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/codecopy/internal/config"
	"github.com/tyemirov/codecopy/internal/services/clipboard"
	"github.com/tyemirov/codecopy/internal/services/feedback"
	"github.com/tyemirov/codecopy/internal/trigger"
)

const (
	copyUse              = "copy <code>"
	copyAlias            = "cp"
	copyShortDescription = "copy a code to the clipboard (" + copyAlias + ")"
	copyLongDescription  = `Copy a code to the clipboard and show a transient status message.
The status region defaults to copy-status-<code>; use --target to name another one.
Use --failure-mode alert to ask for a manual copy when every mechanism fails.`
	copyUsageExample = `  # Copy a coupon code and wait for the status to clear
  codecopy copy SAVE20

  # Copy without waiting, reporting failures with an alert
  codecopy copy SAVE20 --wait=false --failure-mode alert`

	targetFlagName             = "target"
	buttonFlagName             = "button"
	buttonLabelFlagName        = "button-label"
	failureModeFlagName        = "failure-mode"
	waitFlagName               = "wait"
	primaryFlagName            = "primary"
	fallbackFlagName           = "fallback"
	targetFlagDescription      = "status region to update (defaults to the status prefix plus the code)"
	buttonFlagDescription      = "button region to flash on success (defaults to copy-button-<code> when --button-label is set)"
	buttonLabelFlagDescription = "button label restored after the success message"
	failureModeFlagDescription = "how failures are reported: inline or alert"
	waitFlagDescription        = "wait until the status message reverts"
	primaryFlagDescription     = "primary clipboard: system, native or none"
	fallbackFlagDescription    = "fallback copy mechanism: auto, command, osc52 or none"

	emptyCodeMessage    = "code must not be empty"
	copyFailedMessage   = "copy %s failed: %s"
	copySucceededFormat = "copied %s using %s\n"
)

var errCopyFailed = errors.New("copy failed")

type copyOptions struct {
	target      string
	button      string
	buttonLabel string
	failureMode string
	wait        bool
	primary     string
	fallback    string
}

// applyOverrides lets explicitly provided flags replace configured values.
func (options copyOptions) applyOverrides(command *cobra.Command, settings config.Settings) (config.Settings, error) {
	flags := command.Flags()
	if flags.Changed(failureModeFlagName) {
		mode, err := feedback.ParseFailureMode(options.failureMode)
		if err != nil {
			return config.Settings{}, err
		}
		settings.FailureMode = mode
	}
	if flags.Changed(waitFlagName) {
		settings.Wait = options.wait
	}
	if flags.Changed(primaryFlagName) {
		settings.Primary = options.primary
	}
	if flags.Changed(fallbackFlagName) {
		settings.Fallback = options.fallback
	}
	return settings, nil
}

func addMechanismFlags(command *cobra.Command, options *copyOptions) {
	command.Flags().StringVar(&options.primary, primaryFlagName, clipboard.PrimarySystem, primaryFlagDescription)
	command.Flags().StringVar(&options.fallback, fallbackFlagName, clipboard.FallbackAuto, fallbackFlagDescription)
}

// createCopyCommand returns the copy subcommand.
func createCopyCommand(deps dependencies, loadSettings func() (config.Settings, error)) *cobra.Command {
	var options copyOptions

	copyCommand := &cobra.Command{
		Use:     copyUse,
		Aliases: []string{copyAlias},
		Short:   copyShortDescription,
		Long:    copyLongDescription,
		Example: copyUsageExample,
		Args:    cobra.ExactArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			code := strings.TrimSpace(arguments[0])
			if code == "" {
				return errors.New(emptyCodeMessage)
			}
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if settings, err = options.applyOverrides(command, settings); err != nil {
				return err
			}
			return runCopy(command.Context(), deps, settings, clipboard.Request{
				Text:        code,
				TargetID:    options.target,
				ButtonID:    options.button,
				ButtonLabel: options.buttonLabel,
			})
		},
	}

	copyCommand.Flags().StringVar(&options.target, targetFlagName, "", targetFlagDescription)
	copyCommand.Flags().StringVar(&options.button, buttonFlagName, "", buttonFlagDescription)
	copyCommand.Flags().StringVar(&options.buttonLabel, buttonLabelFlagName, "", buttonLabelFlagDescription)
	copyCommand.Flags().StringVar(&options.failureMode, failureModeFlagName, feedback.FailureModeInline, failureModeFlagDescription)
	registerToggleFlag(copyCommand.Flags(), &options.wait, waitFlagName, true, waitFlagDescription)
	addMechanismFlags(copyCommand, &options)
	return copyCommand
}

// runCopy copies request.Text, presents the outcome and optionally waits for the status to revert.
func runCopy(ctx context.Context, deps dependencies, settings config.Settings, request clipboard.Request) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if request.TargetID == "" {
		request.TargetID = trigger.StatusTargetID(settings.StatusPrefix, request.Text)
	}
	if request.ButtonID == "" && request.ButtonLabel != "" {
		request.ButtonID = trigger.ButtonTargetID(request.Text)
	}
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
	})
	board.Register(request.TargetID, "")
	if request.ButtonID != "" {
		board.Register(request.ButtonID, request.ButtonLabel)
	}
	dispatcher := feedback.NewDispatcher(board, feedback.NewAlert(deps.errorOutput, deps.alertInput), settings.FailureMode, deps.logger)

	result := copier.Copy(ctx, request)
	dispatcher.Deliver(request, result)

	if settings.Wait {
		for _, regionID := range []string{request.TargetID, request.ButtonID} {
			select {
			case <-board.Idle(regionID):
			case <-ctx.Done():
			}
		}
	}
	if !result.Succeeded() {
		return fmt.Errorf("%w: "+copyFailedMessage, errCopyFailed, request.Text, result.Reason)
	}
	_, writeErr := fmt.Fprintf(deps.output, copySucceededFormat, request.Text, result.Mechanism)
	return writeErr
}
