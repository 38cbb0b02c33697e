package clone

import (
	"fmt"
	"log/slog"

	"github.com/spf13/afero"
)

// Runner executes the clone phases against one filesystem.
type Runner struct {
	Fs       afero.Fs
	IDs      IDSource
	Reporter Reporter
	Logger   *slog.Logger

	// SkipVerify disables the post-run Verify pass.
	SkipVerify bool
}

// Result gathers the reports of a full run.
type Result struct {
	Target    Target          `json:"target" yaml:"target"`
	Cleanup   CleanupReport   `json:"cleanup" yaml:"cleanup"`
	Clone     CloneReport     `json:"clone" yaml:"clone"`
	Integrate IntegrateReport `json:"integrate" yaml:"integrate"`
	Verify    *VerifyReport   `json:"verify,omitempty" yaml:"verify,omitempty"`
}

func (r *Runner) fs() afero.Fs {
	if r.Fs == nil {
		return afero.NewOsFs()
	}
	return r.Fs
}

func (r *Runner) ids() IDSource {
	if r.IDs == nil {
		return RandomIDs()
	}
	return r.IDs
}

// Run cleans up any previous clone, clones the donor and integrates the
// clone into both index files, strictly in that order. There is no rollback:
// an error after the definition file was written leaves it in place, and a
// later Run or Cleanup removes it.
func (r *Runner) Run(t Target) (Result, error) {
	res := Result{Target: t}
	if err := t.Validate(); err != nil {
		return res, err
	}
	log := orDefault(r.Logger).With("donor", t.Donor, "clone", t.Clone, "base", t.Base)
	fs := r.fs()

	var err error
	if res.Cleanup, err = Cleanup(fs, t, r.Reporter); err != nil {
		return res, fmt.Errorf("cleanup: %w", err)
	}
	log.Debug("cleanup done", "changed", res.Cleanup.Changed())

	if res.Clone, err = CloneDefinition(fs, t, r.ids(), r.Reporter); err != nil {
		return res, fmt.Errorf("clone: %w", err)
	}
	log.Debug("definition cloned", "path", res.Clone.Path, "identifiers", res.Clone.RegeneratedIdentifiers)

	if res.Integrate, err = Integrate(fs, t, r.ids(), r.Reporter); err != nil {
		return res, fmt.Errorf("integrate: %w", err)
	}
	log.Debug("integrated", "configuration", res.Integrate.Configuration, "dump_info", res.Integrate.DumpInfo)

	if r.SkipVerify {
		return res, nil
	}
	v, err := Verify(fs, t, res.Clone.DonorIdentifiers)
	res.Verify = &v
	if err != nil {
		return res, err
	}
	log.Debug("verified", "checks", len(v.Checks))
	return res, nil
}

// Cleanup runs only the cleanup phase.
func (r *Runner) Cleanup(t Target) (CleanupReport, error) {
	if err := t.Validate(); err != nil {
		return CleanupReport{}, err
	}
	rep, err := Cleanup(r.fs(), t, r.Reporter)
	if err != nil {
		return rep, fmt.Errorf("cleanup: %w", err)
	}
	orDefault(r.Logger).Debug("cleanup done", "clone", t.Clone, "changed", rep.Changed())
	return rep, nil
}
