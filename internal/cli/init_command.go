package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tyemirov/codecopy/internal/config"
)

const (
	initUse                = "init"
	initShortDescription   = "write a default configuration file"
	globalFlagName         = "global"
	forceFlagName          = "force"
	globalFlagDescription  = "write to ~/.codecopy/config.yaml instead of the working directory"
	forceFlagDescription   = "overwrite an existing configuration file"
	configurationWrittenAt = "configuration written to %s\n"
)

// createInitCommand returns the init subcommand.
func createInitCommand(deps dependencies) *cobra.Command {
	var global bool
	var force bool

	initCommand := &cobra.Command{
		Use:   initUse,
		Short: initShortDescription,
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, arguments []string) error {
			target := config.InitTargetLocal
			if global {
				target = config.InitTargetGlobal
			}
			path, err := config.InitializeConfiguration(config.InitOptions{
				Target:           target,
				Force:            force,
				WorkingDirectory: deps.workingDirectory,
			})
			if err != nil {
				return err
			}
			_, writeErr := fmt.Fprintf(command.OutOrStdout(), configurationWrittenAt, path)
			return writeErr
		},
	}

	registerToggleFlag(initCommand.Flags(), &global, globalFlagName, false, globalFlagDescription)
	registerToggleFlag(initCommand.Flags(), &force, forceFlagName, false, forceFlagDescription)
	return initCommand
}
