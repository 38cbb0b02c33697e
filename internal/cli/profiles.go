package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// NewProfilesCmd provides ergonomic top-level profile management commands.
//
// This intentionally overlaps with `catclone config profiles ...` as a convenience.
func NewProfilesCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage named profiles",
	}

	cmd.AddCommand(newProfilesListCmd(rf))
	cmd.AddCommand(newProfilesAddCmd(rf))
	cmd.AddCommand(newProfilesPathCmd(rf))
	return cmd
}

func newProfilesListCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfilesList(cmd, rf)
		},
	}
	return cmd
}

func newProfilesPathCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Print the config file path where profiles are stored",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveConfigPath(rf.ConfigPath)
			if err != nil {
				return err
			}

			exists := true
			if _, err := os.Stat(p); err != nil {
				if errors.Is(err, os.ErrNotExist) {
					exists = false
				} else {
					return err
				}
			}

			if rf.Output != "text" {
				return writeStructured(cmd.OutOrStdout(), rf.Output, map[string]any{
					"config_path": p,
					"exists":      exists,
				})
			}

			fmt.Fprintln(cmd.OutOrStdout(), p)
			if !exists {
				fmt.Fprintln(cmd.ErrOrStderr(), "config file does not exist yet (run: catclone config init or catclone profiles add)")
			}
			return nil
		},
	}
	return cmd
}

func newProfilesAddCmd(rf *rootFlags) *cobra.Command {
	var keep bool

	cmd := &cobra.Command{
		Use:   "add [PROFILE]",
		Short: "Add (or update) a profile from the target flags",
		Args:  cobra.MaximumNArgs(1),
		Example: strings.TrimSpace(`
  catclone profiles add trade --project ./trade-xml --donor Номенклатура --clone Номенклатура_Копия
  catclone profiles add   # prompt for profile name
`),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) == 1 {
				name = strings.TrimSpace(args[0])
			}

			if name == "" && !rf.NoPrompt && canPrompt(cmd) {
				s, err := newPrompter(cmd).String("Profile", firstNonEmpty(rf.Profile, envFirst("", "CATCLONE_PROFILE"), "default"))
				if err != nil {
					return err
				}
				name = strings.TrimSpace(s)
			}

			if name == "" {
				return errors.New("profile is empty")
			}
			if strings.ContainsAny(name, " \t") {
				return fmt.Errorf("profile name must not contain spaces")
			}

			p, err := resolveConfigPath(rf.ConfigPath)
			if err != nil {
				return err
			}
			cf, err := loadConfig(p)
			if err != nil {
				if !errors.Is(err, os.ErrNotExist) {
					return err
				}
				cf = ConfigFile{Profiles: map[string]Config{}}
			}

			// Updating an existing profile keeps its fields unless overridden.
			base, ok := cf.Profiles[name]
			if !ok {
				base = defaultsConfig()
			}
			cf.Profiles[name] = applyOverrides(base, *rf)
			if !keep || cf.CurrentProfile == "" {
				cf.CurrentProfile = name
			}
			if err := writeConfig(p, cf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved profile %s in %s\n", name, p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&keep, "keep-current", false, "Do not make the new profile the current one")
	return cmd
}
