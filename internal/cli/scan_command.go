package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tyemirov/codecopy/internal/config"
	"github.com/tyemirov/codecopy/internal/services/clipboard"
	"github.com/tyemirov/codecopy/internal/services/feedback"
	"github.com/tyemirov/codecopy/internal/trigger"
)

const (
	scanUse              = "scan <files...>"
	scanShortDescription = "list copy buttons found in HTML pages"
	scanLongDescription  = `Scan HTML pages for copy buttons: elements with class copy-coupon-btn and a data-coupon
attribute, or elements whose onclick handler writes a literal code to the clipboard.
Use --copy to place the discovered codes on the clipboard, one per line.`
	scanUsageExample = `  # List codes found in a saved admin page
  codecopy scan coupons.html

  # Emit JSON and copy all codes
  codecopy scan --format json --copy coupons.html`

	formatFlagName        = "format"
	copyFlagName          = "copy"
	formatRaw             = "raw"
	formatJSON            = "json"
	formatFlagDescription = "output format: raw or json"
	copyFlagDescription   = "copy the discovered codes to the clipboard"
	invalidFormatMessage  = "invalid format value '%s'"
	rawTriggerLineFormat  = "%s\t%s\t%s\t%s\n"
	noTriggersFoundFormat = "no copy buttons found in %d file(s)\n"
	scanTargetID          = "scan-results"
)

type scanRecord struct {
	trigger.Trigger
	StatusTarget string `json:"status_target"`
}

// createScanCommand returns the scan subcommand.
func createScanCommand(deps dependencies, loadSettings func() (config.Settings, error)) *cobra.Command {
	var outputFormat string
	var copyEnabled bool
	var mechanisms copyOptions

	scanCommand := &cobra.Command{
		Use:     scanUse,
		Short:   scanShortDescription,
		Long:    scanLongDescription,
		Example: scanUsageExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(command *cobra.Command, arguments []string) error {
			normalizedFormat := strings.ToLower(strings.TrimSpace(outputFormat))
			if normalizedFormat != formatRaw && normalizedFormat != formatJSON {
				return fmt.Errorf(invalidFormatMessage, outputFormat)
			}
			settings, err := loadSettings()
			if err != nil {
				return err
			}
			if settings, err = mechanisms.applyOverrides(command, settings); err != nil {
				return err
			}
			return runScan(command.Context(), deps, settings, arguments, normalizedFormat, copyEnabled)
		},
	}

	scanCommand.Flags().StringVar(&outputFormat, formatFlagName, formatRaw, formatFlagDescription)
	registerToggleFlag(scanCommand.Flags(), &copyEnabled, copyFlagName, false, copyFlagDescription)
	addMechanismFlags(scanCommand, &mechanisms)
	return scanCommand
}

func runScan(ctx context.Context, deps dependencies, settings config.Settings, paths []string, format string, copyEnabled bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	triggers, err := trigger.ScanFiles(ctx, paths)
	if err != nil {
		return err
	}
	records := make([]scanRecord, 0, len(triggers))
	codes := make([]string, 0, len(triggers))
	for _, found := range triggers {
		records = append(records, scanRecord{Trigger: found, StatusTarget: trigger.StatusTargetID(settings.StatusPrefix, found.Code)})
		codes = append(codes, found.Code)
	}
	if renderErr := renderScanRecords(deps.output, records, format, len(paths)); renderErr != nil {
		return renderErr
	}
	if !copyEnabled || len(codes) == 0 {
		return nil
	}
	settings.Wait = false
	return runCopyWithoutTarget(ctx, deps, settings, strings.Join(codes, "\n"))
}

// runCopyWithoutTarget copies text with no status region, so failures degrade to the alert.
func runCopyWithoutTarget(ctx context.Context, deps dependencies, settings config.Settings, text string) error {
	copier, err := buildCopier(deps, settings)
	if err != nil {
		return err
	}
	request := clipboard.Request{Text: text, TargetID: scanTargetID}
	result := copier.Copy(ctx, request)
	dispatcher := feedback.NewDispatcher(nil, feedback.NewAlert(deps.errorOutput, deps.alertInput), settings.FailureMode, deps.logger)
	dispatcher.Deliver(request, result)
	if !result.Succeeded() {
		return fmt.Errorf("%w: %s", errCopyFailed, result.Reason)
	}
	return nil
}

func renderScanRecords(writer io.Writer, records []scanRecord, format string, fileCount int) error {
	if format == formatJSON {
		encoder := json.NewEncoder(writer)
		encoder.SetIndent("", "  ")
		return encoder.Encode(records)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintf(writer, noTriggersFoundFormat, fileCount)
		return err
	}
	for _, record := range records {
		if _, err := fmt.Fprintf(writer, rawTriggerLineFormat, record.Code, record.Source, record.StatusTarget, record.Path); err != nil {
			return err
		}
	}
	return nil
}
