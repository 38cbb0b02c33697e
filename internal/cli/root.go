package cli

import (
	"os"

	"github.com/spf13/cobra"
)

type rootFlags struct {
	ConfigPath  string
	Profile     string
	Project     string
	ConfigDir   string
	Type        string
	Donor       string
	Clone       string
	HistoryPath string
	NoHistory   bool
	NoPrompt    bool
	Debug       bool
	Output      string
}

// NewRootCmd builds the root command and wires subcommands.
func NewRootCmd() *cobra.Command {
	var rf rootFlags

	cmd := &cobra.Command{
		Use:           "catclone",
		Short:         "Clone a catalog inside a configuration XML export",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return validateOutput(rf.Output)
		},
	}

	cmd.PersistentFlags().StringVar(&rf.ConfigPath, "config", "", "Config file path (default: $XDG_CONFIG_HOME/catclone/config.json, or set CATCLONE_CONFIG)")
	cmd.PersistentFlags().StringVar(&rf.Profile, "profile", "", "Config profile to use (or set CATCLONE_PROFILE)")
	cmd.PersistentFlags().StringVar(&rf.Project, "project", "", "Project directory holding the export (or set CATCLONE_PROJECT)")
	cmd.PersistentFlags().StringVar(&rf.ConfigDir, "config-dir", "", "Subdirectory of the project used when present (or set CATCLONE_CONFIG_DIR)")
	cmd.PersistentFlags().StringVar(&rf.Type, "type", "", "Metadata type of the donor (or set CATCLONE_TYPE)")
	cmd.PersistentFlags().StringVar(&rf.Donor, "donor", "", "Name of the object to copy (or set CATCLONE_DONOR)")
	cmd.PersistentFlags().StringVar(&rf.Clone, "clone", "", "Name of the new object (or set CATCLONE_CLONE)")
	cmd.PersistentFlags().StringVar(&rf.HistoryPath, "history", "", "Run history database (default: $XDG_CACHE_HOME/catclone/history.sqlite, or set CATCLONE_HISTORY)")
	cmd.PersistentFlags().BoolVar(&rf.NoHistory, "no-history", false, "Do not record this run in the history database")
	cmd.PersistentFlags().BoolVar(&rf.NoPrompt, "no-prompt", false, "Never prompt for missing names")
	cmd.PersistentFlags().StringVar(&rf.Output, "output", "text", "Output format: text|json|yaml")
	cmd.PersistentFlags().BoolVar(&rf.Debug, "debug", false, "Enable debug logging")

	cmd.SetOut(os.Stdout)
	cmd.SetErr(os.Stderr)

	cmd.AddCommand(NewVersionCmd())
	cmd.AddCommand(NewConfigCmd(&rf))
	cmd.AddCommand(NewProfilesCmd(&rf))
	cmd.AddCommand(NewRunCmd(&rf))
	cmd.AddCommand(NewCleanupCmd(&rf))
	cmd.AddCommand(NewVerifyCmd(&rf))
	cmd.AddCommand(NewHistoryCmd(&rf))

	return cmd
}
