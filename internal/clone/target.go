package clone

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const (
	// ConfigurationFile enumerates every metadata object of the configuration.
	ConfigurationFile = "Configuration.xml"
	// DumpInfoFile pairs every metadata object with its identifier.
	DumpInfoFile = "ConfigDumpInfo.xml"

	// DefaultType is the only metadata type the tool is exercised against.
	DefaultType = "Catalog"
)

var (
	ErrConfigNotFound = errors.New("config files not found")
	ErrDonorNotFound  = errors.New("donor file not found")
	ErrNoAnchor       = errors.New("no insertion anchor found")
	ErrVerifyFailed   = errors.New("clone verification failed")
)

// Target names the donor and the clone inside one configuration export. Base
// is the directory holding Configuration.xml; an empty Type means Catalog.
type Target struct {
	Base  string `json:"base" yaml:"base"`
	Type  string `json:"type" yaml:"type"`
	Donor string `json:"donor" yaml:"donor"`
	Clone string `json:"clone" yaml:"clone"`
}

func (t Target) typ() string {
	if strings.TrimSpace(t.Type) == "" {
		return DefaultType
	}
	return t.Type
}

// Validate reports missing or unusable names.
func (t Target) Validate() error {
	if strings.TrimSpace(t.Base) == "" {
		return errors.New("base directory is empty")
	}
	if strings.TrimSpace(t.Donor) == "" {
		return errors.New("donor name is empty")
	}
	if strings.TrimSpace(t.Clone) == "" {
		return errors.New("clone name is empty")
	}
	if t.Donor == t.Clone {
		return fmt.Errorf("donor and clone are both %q", t.Donor)
	}
	for _, n := range []string{t.typ(), t.Donor, t.Clone} {
		if strings.ContainsAny(n, `/\<>.`) {
			return fmt.Errorf("invalid name %q", n)
		}
	}
	return nil
}

// QualifiedName returns "<Type>.<name>".
func (t Target) QualifiedName(name string) string {
	return t.typ() + "." + name
}

// DefinitionDir is the directory holding one XML file per object of the type.
func (t Target) DefinitionDir() string {
	return filepath.Join(t.Base, t.typ()+"s")
}

func (t Target) DonorPath() string {
	return filepath.Join(t.DefinitionDir(), t.Donor+".xml")
}

func (t Target) ClonePath() string {
	return filepath.Join(t.DefinitionDir(), t.Clone+".xml")
}

func (t Target) ConfigurationPath() string {
	return filepath.Join(t.Base, ConfigurationFile)
}

func (t Target) DumpInfoPath() string {
	return filepath.Join(t.Base, DumpInfoFile)
}

// ResolveBase picks <project>/<configDir> when that directory exists and
// falls back to <project>. The chosen base must contain Configuration.xml.
func ResolveBase(fs afero.Fs, project, configDir string) (string, error) {
	base := project
	if configDir != "" {
		candidate := filepath.Join(project, configDir)
		if ok, _ := afero.DirExists(fs, candidate); ok {
			base = candidate
		}
	}
	if _, err := fs.Stat(filepath.Join(base, ConfigurationFile)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: no %s under %s", ErrConfigNotFound, ConfigurationFile, base)
		}
		return "", err
	}
	return base, nil
}

func readFile(fs afero.Fs, path string) (string, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func writeFile(fs afero.Fs, path, content string) error {
	return afero.WriteFile(fs, path, []byte(content), 0o644)
}
