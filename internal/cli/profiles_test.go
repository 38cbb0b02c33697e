package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
)

func TestProfilesAddWritesNamedProfile(t *testing.T) {
	clearEnv(t)
	td := t.TempDir()
	cfgPath := filepath.Join(td, "config.json")

	out, errOut, err := execute(t,
		"profiles", "add", "work",
		"--no-prompt",
		"--config", cfgPath,
		"--project", "/data/trade",
		"--donor", "Номенклатура",
		"--clone", "Номенклатура_Копия",
	)
	if err != nil {
		t.Fatalf("execute: %v (stderr=%q)", err, errOut)
	}
	if !strings.Contains(out, "saved profile work") {
		t.Fatalf("unexpected output %q", out)
	}

	cf, err := loadConfig(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cf.CurrentProfile != "work" {
		t.Fatalf("current_profile = %q", cf.CurrentProfile)
	}
	p := cf.Profiles["work"]
	if p.Project != "/data/trade" {
		t.Fatalf("project = %q", p.Project)
	}
	if p.Donor != "Номенклатура" || p.Clone != "Номенклатура_Копия" {
		t.Fatalf("donor/clone = %q/%q", p.Donor, p.Clone)
	}
	if p.Type != defaultType || p.ConfigDir != defaultConfigDir {
		t.Fatalf("defaults not applied: %+v", p)
	}
}

func TestProfilesAddUpdatesExistingProfile(t *testing.T) {
	clearEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	orig := ConfigFile{
		CurrentProfile: "a",
		Profiles: map[string]Config{
			"a": {Project: "/a", Donor: "Валюты", Clone: "Валюты2"},
		},
	}
	if err := writeConfig(cfgPath, orig); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, errOut, err := execute(t, "profiles", "add", "a", "--no-prompt", "--config", cfgPath, "--clone", "Валюты3"); err != nil {
		t.Fatalf("execute: %v (stderr=%q)", err, errOut)
	}
	cf, err := loadConfig(cfgPath)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	p := cf.Profiles["a"]
	if p.Project != "/a" || p.Donor != "Валюты" || p.Clone != "Валюты3" {
		t.Fatalf("profile = %+v", p)
	}
}

func TestProfilesAddWithoutNameFails(t *testing.T) {
	clearEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	_, _, err := execute(t, "profiles", "add", "--no-prompt", "--config", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "profile is empty") {
		t.Fatalf("expected empty profile error, got %v", err)
	}
}

func TestProfilesListJSON(t *testing.T) {
	clearEnv(t)
	td := t.TempDir()
	cfgPath := filepath.Join(td, "config.json")

	orig := ConfigFile{
		CurrentProfile: "b",
		Profiles: map[string]Config{
			"a": {Project: "/a"},
			"b": {Project: "/b"},
		},
	}
	if err := writeConfig(cfgPath, orig); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, errOut, err := execute(t, "profiles", "list", "--config", cfgPath, "--output", "json")
	if err != nil {
		t.Fatalf("execute: %v (stderr=%q)", err, errOut)
	}
	if !bytes.Contains([]byte(got), []byte(`"current_profile": "b"`)) {
		t.Fatalf("expected current_profile in output, got=%q", got)
	}
	if !bytes.Contains([]byte(got), []byte(`"name": "a"`)) || !bytes.Contains([]byte(got), []byte(`"name": "b"`)) {
		t.Fatalf("expected both profiles in output, got=%q", got)
	}
}

func TestProfilesListText(t *testing.T) {
	clearEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "config.json")
	if err := writeConfig(cfgPath, ConfigFile{
		CurrentProfile: "b",
		Profiles:       map[string]Config{"a": {}, "b": {}},
	}); err != nil {
		t.Fatalf("write config: %v", err)
	}

	got, _, err := execute(t, "config", "profiles", "list", "--config", cfgPath)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if got != "  a\n* b\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestProfilesPathReportsMissingFile(t *testing.T) {
	clearEnv(t)
	cfgPath := filepath.Join(t.TempDir(), "nested", "config.json")

	out, errOut, err := execute(t, "profiles", "path", "--config", cfgPath)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if strings.TrimSpace(out) != cfgPath {
		t.Fatalf("path = %q", out)
	}
	if !strings.Contains(errOut, "does not exist yet") {
		t.Fatalf("expected hint on stderr, got %q", errOut)
	}
}
