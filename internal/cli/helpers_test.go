package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const (
	testDonor = "Предметы"
	testClone = "УТО_Тест"
)

// clearEnv hides any CATCLONE_* variables set in the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"CATCLONE_CONFIG", "CATCLONE_PROFILE", "CATCLONE_PROJECT", "CATCLONE_CONFIG_DIR",
		"CATCLONE_TYPE", "CATCLONE_DONOR", "CATCLONE_CLONE", "CATCLONE_HISTORY",
	} {
		t.Setenv(k, "")
	}
}

// copyExport copies the clone package fixtures to <tmp>/project/Configuration
// and returns the project directory.
func copyExport(t *testing.T) string {
	t.Helper()
	project := filepath.Join(t.TempDir(), "project")
	for _, rel := range []string{
		"Configuration.xml",
		"ConfigDumpInfo.xml",
		filepath.Join("Catalogs", testDonor+".xml"),
	} {
		b, err := os.ReadFile(filepath.Join("..", "clone", "testdata", rel))
		if err != nil {
			t.Fatalf("read fixture: %v", err)
		}
		dst := filepath.Join(project, "Configuration", rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
		if err := os.WriteFile(dst, b, 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}
	}
	return project
}

// execute runs the root command with args and a non-interactive stdin.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetIn(strings.NewReader(""))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errBuf.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(b)
}
