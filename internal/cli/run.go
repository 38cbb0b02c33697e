package cli

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"catclone/internal/clone"
)

// session carries what every target-bound command needs.
type session struct {
	cfg      Config
	target   clone.Target
	fs       afero.Fs
	log      *slog.Logger
	reporter clone.Reporter
}

func newSession(cmd *cobra.Command, rf *rootFlags) (*session, error) {
	cfg, err := effectiveConfig(*rf)
	if err != nil {
		return nil, err
	}

	if !rf.NoPrompt && canPrompt(cmd) {
		p := newPrompter(cmd)
		if rf.Donor == "" {
			if cfg.Donor, err = p.String("Donor", cfg.Donor); err != nil {
				return nil, err
			}
		}
		if rf.Clone == "" {
			if cfg.Clone, err = p.String("Clone", cfg.Clone); err != nil {
				return nil, err
			}
		}
	}

	s := &session{
		cfg: cfg,
		fs:  afero.NewOsFs(),
		log: newLogger(cmd.ErrOrStderr(), rf.Debug),
	}

	base, err := clone.ResolveBase(s.fs, cfg.Project, cfg.ConfigDir)
	if err != nil {
		return nil, err
	}
	s.target = clone.Target{Base: base, Type: cfg.Type, Donor: cfg.Donor, Clone: cfg.Clone}
	if err := s.target.Validate(); err != nil {
		return nil, err
	}
	s.log.Debug("target resolved", "base", base, "type", cfg.Type, "donor", cfg.Donor, "clone", cfg.Clone)

	// Structured output owns stdout; progress lines move to stderr.
	if rf.Output == "text" {
		s.reporter = consoleReporter{w: cmd.OutOrStdout()}
	} else {
		s.reporter = consoleReporter{w: cmd.ErrOrStderr()}
	}
	return s, nil
}

// record journals a finished run unless history is disabled.
func (s *session) record(rf *rootFlags, command string, started time.Time, regenerated int, runErr error) {
	if rf.NoHistory {
		return
	}
	path, err := historyPath(s.cfg)
	if err != nil {
		s.log.Warn("history path unavailable", "err", err)
		return
	}
	e := newHistoryEntry(command, s.target, started)
	e.RegeneratedIDs = regenerated
	if runErr != nil {
		e.Status = statusFailed
		e.Error = runErr.Error()
	}
	tryRecordRun(s.log, path, e)
}

func NewRunCmd(rf *rootFlags) *cobra.Command {
	var dryRun bool
	var noVerify bool
	var diffContext int

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Clean up, clone the donor and integrate the clone",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rf)
			if err != nil {
				return err
			}

			runner := &clone.Runner{
				Fs:         s.fs,
				Reporter:   s.reporter,
				Logger:     s.log,
				SkipVerify: noVerify,
			}
			var dr *clone.DryRun
			if dryRun {
				if dr, err = clone.NewDryRun(s.fs, s.target); err != nil {
					return err
				}
				runner.Fs = dr.Fs()
			}

			started := time.Now()
			res, runErr := runner.Run(s.target)
			if !dryRun {
				s.record(rf, "run", started, res.Clone.RegeneratedIdentifiers, runErr)
			}
			if runErr != nil {
				if res.Verify != nil && rf.Output == "text" {
					writeChecks(cmd.ErrOrStderr(), *res.Verify)
				}
				return runErr
			}

			if dryRun {
				return writeChanges(cmd.OutOrStdout(), rf.Output, dr, diffContext, res)
			}
			if rf.Output != "text" {
				return writeStructured(cmd.OutOrStdout(), rf.Output, res)
			}
			printBanner(cmd.OutOrStdout())
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the changes without writing them")
	cmd.Flags().BoolVar(&noVerify, "no-verify", false, "Skip the post-run verification")
	cmd.Flags().IntVar(&diffContext, "diff-context", 3, "Unchanged lines shown around each --dry-run hunk")
	return cmd
}

func NewCleanupCmd(rf *rootFlags) *cobra.Command {
	var dryRun bool
	var diffContext int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove every trace of the clone from the export",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rf)
			if err != nil {
				return err
			}

			runner := &clone.Runner{Fs: s.fs, Reporter: s.reporter, Logger: s.log}
			var dr *clone.DryRun
			if dryRun {
				if dr, err = clone.NewDryRun(s.fs, s.target); err != nil {
					return err
				}
				runner.Fs = dr.Fs()
			}

			started := time.Now()
			rep, runErr := runner.Cleanup(s.target)
			if !dryRun {
				s.record(rf, "cleanup", started, 0, runErr)
			}
			if runErr != nil {
				return runErr
			}

			if dryRun {
				return writeChanges(cmd.OutOrStdout(), rf.Output, dr, diffContext, rep)
			}
			if rf.Output != "text" {
				return writeStructured(cmd.OutOrStdout(), rf.Output, rep)
			}
			if !rep.Changed() {
				fmt.Fprintf(cmd.OutOrStdout(), "nothing to clean up for '%s'\n", s.target.Clone)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Show the changes without writing them")
	cmd.Flags().IntVar(&diffContext, "diff-context", 3, "Unchanged lines shown around each --dry-run hunk")
	return cmd
}

func NewVerifyCmd(rf *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check an existing clone against its donor",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, rf)
			if err != nil {
				return err
			}
			rep, err := clone.Verify(s.fs, s.target, nil)
			if err != nil && !errors.Is(err, clone.ErrVerifyFailed) {
				return err
			}
			if rf.Output != "text" {
				if werr := writeStructured(cmd.OutOrStdout(), rf.Output, rep); werr != nil {
					return werr
				}
				return err
			}
			writeChecks(cmd.OutOrStdout(), rep)
			return err
		},
	}
	return cmd
}

func writeChecks(w io.Writer, rep clone.VerifyReport) {
	for _, c := range rep.Checks {
		mark := "+"
		if !c.OK {
			mark = "!"
		}
		if c.Detail != "" {
			fmt.Fprintf(w, "[%s] %s: %s\n", mark, c.Name, c.Detail)
		} else {
			fmt.Fprintf(w, "[%s] %s\n", mark, c.Name)
		}
	}
}

// writeChanges prints what a dry run would do: unified-style diffs for text
// output, or the change list next to the phase report for json/yaml.
func writeChanges(w io.Writer, format string, dr *clone.DryRun, context int, report any) error {
	changes, err := dr.Changes()
	if err != nil {
		return err
	}
	if format != "text" {
		if changes == nil {
			changes = []clone.Change{}
		}
		return writeStructured(w, format, map[string]any{
			"dry_run": true,
			"changes": changes,
			"report":  report,
		})
	}
	if len(changes) == 0 {
		fmt.Fprintln(w, "dry run: no changes")
		return nil
	}
	fmt.Fprintln(w)
	for _, c := range changes {
		fmt.Fprintf(w, "# %s %s\n", c.Kind, c.Path)
		fmt.Fprint(w, c.Diff(context))
	}
	return nil
}
