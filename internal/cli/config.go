package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// Compiled defaults, used when neither flags, env nor the config file say otherwise.
const (
	defaultProject   = "1c-test-xml-7"
	defaultConfigDir = "Configuration"
	defaultType      = "Catalog"
	defaultDonor     = "Предметы"
	defaultClone     = "УТО_Тест"
)

// Config is one profile: where the export lives and what to clone.
type Config struct {
	Project     string `json:"project,omitempty" yaml:"project,omitempty"`
	ConfigDir   string `json:"config_dir,omitempty" yaml:"config_dir,omitempty"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Donor       string `json:"donor,omitempty" yaml:"donor,omitempty"`
	Clone       string `json:"clone,omitempty" yaml:"clone,omitempty"`
	HistoryPath string `json:"history_path,omitempty" yaml:"history_path,omitempty"`
}

// ConfigFile is the on-disk config format. It supports named profiles.
type ConfigFile struct {
	CurrentProfile string            `json:"current_profile,omitempty"`
	Profiles       map[string]Config `json:"profiles,omitempty"`
}

func defaultsConfig() Config {
	return Config{
		Project:   defaultProject,
		ConfigDir: defaultConfigDir,
		Type:      defaultType,
		Donor:     defaultDonor,
		Clone:     defaultClone,
	}
}

func defaultConfigPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "catclone", "config.json"), nil
}

func loadConfig(path string) (ConfigFile, error) {
	var cfg ConfigFile
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}
	normalizeConfigFile(&cfg)
	return cfg, nil
}

func writeConfig(path string, cfg ConfigFile) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	normalizeConfigFile(&cfg)
	b, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return os.WriteFile(path, b, 0o644)
}

func normalizeConfigFile(cfg *ConfigFile) {
	if cfg.Profiles == nil {
		cfg.Profiles = map[string]Config{}
	}
	if strings.TrimSpace(cfg.CurrentProfile) == "" && len(cfg.Profiles) > 0 {
		// Prefer default if present, otherwise the first name in sort order.
		if _, ok := cfg.Profiles["default"]; ok {
			cfg.CurrentProfile = "default"
		} else {
			names := make([]string, 0, len(cfg.Profiles))
			for n := range cfg.Profiles {
				names = append(names, n)
			}
			sort.Strings(names)
			cfg.CurrentProfile = names[0]
		}
	}
}

func resolveConfigPath(flagPath string) (string, error) {
	if flagPath != "" {
		return flagPath, nil
	}
	if v := envFirst("", "CATCLONE_CONFIG"); v != "" {
		return v, nil
	}
	return defaultConfigPath()
}

func NewConfigCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage local CLI config",
	}

	cmd.AddCommand(newConfigInitCmd(rf))
	cmd.AddCommand(newConfigViewCmd(rf))
	cmd.AddCommand(newConfigUseCmd(rf))
	cmd.AddCommand(newConfigProfilesCmd(rf))

	return cmd
}

func newConfigUseCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "use PROFILE",
		Short: "Set the default profile in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveConfigPath(rf.ConfigPath)
			if err != nil {
				return err
			}
			cf, err := loadConfig(p)
			if err != nil {
				return err
			}
			name := strings.TrimSpace(args[0])
			if name == "" {
				return errors.New("profile name is empty")
			}
			if _, ok := cf.Profiles[name]; !ok {
				return fmt.Errorf("profile %q not found in %s", name, p)
			}
			cf.CurrentProfile = name
			if err := writeConfig(p, cf); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "current profile: %s\n", name)
			return nil
		},
	}
	return cmd
}

func newConfigProfilesCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage named profiles",
	}
	cmd.AddCommand(newConfigProfilesListCmd(rf))
	return cmd
}

func newConfigProfilesListCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List profiles in the config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runProfilesList(cmd, rf)
		},
	}
	return cmd
}

func runProfilesList(cmd *cobra.Command, rf *rootFlags) error {
	p, err := resolveConfigPath(rf.ConfigPath)
	if err != nil {
		return err
	}
	cf, err := loadConfig(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			// Empty config: just list nothing.
			cf = ConfigFile{Profiles: map[string]Config{}}
		} else {
			return err
		}
	}
	normalizeConfigFile(&cf)

	names := make([]string, 0, len(cf.Profiles))
	for n := range cf.Profiles {
		names = append(names, n)
	}
	sort.Strings(names)

	if rf.Output != "text" {
		type profileView struct {
			Name    string `json:"name" yaml:"name"`
			Current bool   `json:"current" yaml:"current"`
		}
		profiles := make([]profileView, 0, len(names))
		for _, n := range names {
			profiles = append(profiles, profileView{Name: n, Current: n == cf.CurrentProfile})
		}
		return writeStructured(cmd.OutOrStdout(), rf.Output, map[string]any{
			"current_profile": cf.CurrentProfile,
			"profiles":        profiles,
		})
	}

	out := cmd.OutOrStdout()
	for _, n := range names {
		marker := " "
		if n == cf.CurrentProfile {
			marker = "*"
		}
		fmt.Fprintf(out, "%s %s\n", marker, n)
	}
	return nil
}

func newConfigInitCmd(rf *rootFlags) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a default config file",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := resolveConfigPath(rf.ConfigPath)
			if err != nil {
				return err
			}
			if !force {
				if _, err := os.Stat(p); err == nil {
					return fmt.Errorf("config already exists at %s (use --force to overwrite)", p)
				}
			}

			cfg := ConfigFile{
				CurrentProfile: "default",
				Profiles: map[string]Config{
					"default": applyOverrides(defaultsConfig(), *rf),
				},
			}
			if err := writeConfig(p, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite if config already exists")
	return cmd
}

func newConfigViewCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Print the effective config (defaults + file + env + flags)",
		RunE: func(cmd *cobra.Command, args []string) error {
			profileName, ecfg, err := effectiveProfileConfig(*rf)
			if err != nil {
				return err
			}
			format := rf.Output
			if format == "text" {
				format = "json"
			}
			return writeStructured(cmd.OutOrStdout(), format, struct {
				Profile string `json:"profile" yaml:"profile"`
				Config  `yaml:",inline"`
			}{
				Profile: profileName,
				Config:  ecfg,
			})
		},
	}
	return cmd
}

func effectiveConfig(rf rootFlags) (Config, error) {
	_, cfg, err := effectiveProfileConfig(rf)
	return cfg, err
}

// effectiveProfileConfig layers compiled defaults, the selected profile, env and
// flags, in increasing precedence. A missing config file only drops the profile
// layer; a profile explicitly selected but absent is an error.
func effectiveProfileConfig(rf rootFlags) (string, Config, error) {
	p, err := resolveConfigPath(rf.ConfigPath)
	if err != nil {
		return "", Config{}, err
	}

	cf, err := loadConfig(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return "", Config{}, err
		}
		cf = ConfigFile{Profiles: map[string]Config{}}
	}

	explicit := firstNonEmpty(rf.Profile, envFirst("", "CATCLONE_PROFILE"))
	profileName := firstNonEmpty(explicit, cf.CurrentProfile, "default")
	profile, ok := cf.Profiles[profileName]
	if !ok && explicit != "" {
		return "", Config{}, fmt.Errorf("profile %q not found in %s", profileName, p)
	}

	cfg := mergeConfig(defaultsConfig(), profile)
	return profileName, applyOverrides(cfg, rf), nil
}

// applyOverrides applies env then flags on top of cfg.
func applyOverrides(cfg Config, rf rootFlags) Config {
	cfg = mergeConfig(cfg, Config{
		Project:     envFirst("", "CATCLONE_PROJECT"),
		ConfigDir:   envFirst("", "CATCLONE_CONFIG_DIR"),
		Type:        envFirst("", "CATCLONE_TYPE"),
		Donor:       envFirst("", "CATCLONE_DONOR"),
		Clone:       envFirst("", "CATCLONE_CLONE"),
		HistoryPath: envFirst("", "CATCLONE_HISTORY"),
	})
	return mergeConfig(cfg, Config{
		Project:     rf.Project,
		ConfigDir:   rf.ConfigDir,
		Type:        rf.Type,
		Donor:       rf.Donor,
		Clone:       rf.Clone,
		HistoryPath: rf.HistoryPath,
	})
}

// mergeConfig returns base with every non-empty field of over applied.
func mergeConfig(base, over Config) Config {
	set := func(dst *string, v string) {
		if strings.TrimSpace(v) != "" {
			*dst = v
		}
	}
	set(&base.Project, over.Project)
	set(&base.ConfigDir, over.ConfigDir)
	set(&base.Type, over.Type)
	set(&base.Donor, over.Donor)
	set(&base.Clone, over.Clone)
	set(&base.HistoryPath, over.HistoryPath)
	return base
}

func envFirst(def string, keys ...string) string {
	for _, k := range keys {
		if v, ok := os.LookupEnv(k); ok {
			return v
		}
	}
	return def
}
