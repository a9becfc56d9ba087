// Package cli wires configuration, storage and transport into the
// conference-central commands.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/conference-central/internal/config"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose bool

	// cfg is loaded once in PersistentPreRunE.
	cfg config.Config
}

// NewRootCommand creates the conference-central command tree.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "conference-central",
		Short: "Conference registration and capacity service",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if opts.Verbose {
				cfg.Log.Level = "debug"
			}
			opts.cfg = cfg
			return nil
		},
		SilenceUsage: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewWorkerCommand(opts))
	cmd.AddCommand(NewRefreshAnnouncementCommand(opts))
	cmd.AddCommand(NewIssueTokenCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))

	return cmd
}
