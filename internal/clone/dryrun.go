package clone

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/afero"
)

// ChangeKind classifies a dry-run change.
type ChangeKind string

const (
	Created  ChangeKind = "created"
	Modified ChangeKind = "modified"
	Deleted  ChangeKind = "deleted"
)

// Change is one file a run would create, modify or delete.
type Change struct {
	Path   string     `json:"path" yaml:"path"`
	Kind   ChangeKind `json:"kind" yaml:"kind"`
	Before string     `json:"-" yaml:"-"`
	After  string     `json:"-" yaml:"-"`
}

// DryRun is an in-memory copy of every file a run can touch. Running the
// phases against Fs() leaves the source filesystem untouched; Changes then
// compares the copy with the source.
type DryRun struct {
	src   afero.Fs
	mem   afero.Fs
	paths []string
}

// NewDryRun snapshots the files of t found on src.
func NewDryRun(src afero.Fs, t Target) (*DryRun, error) {
	d := &DryRun{
		src: src,
		mem: afero.NewMemMapFs(),
		paths: []string{
			t.ConfigurationPath(),
			t.DumpInfoPath(),
			t.DonorPath(),
			t.ClonePath(),
		},
	}
	if err := d.mem.MkdirAll(t.DefinitionDir(), 0o755); err != nil {
		return nil, err
	}
	for _, p := range d.paths {
		b, err := afero.ReadFile(src, p)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, err
		}
		if err := afero.WriteFile(d.mem, p, b, 0o644); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// Fs returns the in-memory filesystem the phases should run against.
func (d *DryRun) Fs() afero.Fs { return d.mem }

// Changes lists every snapshotted path whose content differs between the
// source filesystem and the in-memory copy.
func (d *DryRun) Changes() ([]Change, error) {
	var out []Change
	for _, p := range d.paths {
		before, hadBefore, err := readOptional(d.src, p)
		if err != nil {
			return nil, err
		}
		after, hasAfter, err := readOptional(d.mem, p)
		if err != nil {
			return nil, err
		}
		c := Change{Path: p, Before: before, After: after}
		switch {
		case !hadBefore && hasAfter:
			c.Kind = Created
		case hadBefore && !hasAfter:
			c.Kind = Deleted
		case hadBefore && hasAfter && before != after:
			c.Kind = Modified
		default:
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func readOptional(fs afero.Fs, path string) (string, bool, error) {
	b, err := afero.ReadFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", false, nil
		}
		return "", false, err
	}
	return string(b), true, nil
}

// Diff renders the change as whole-line hunks: "-" for removed lines, "+" for
// added lines and up to context unchanged lines around each hunk.
func (c Change) Diff(context int) string {
	dmp := diffmatchpatch.New()
	a, b, lines := dmp.DiffLinesToChars(c.Before, c.After)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	var sb strings.Builder
	fmt.Fprintf(&sb, "--- %s\n+++ %s\n", c.Path, c.Path)
	for i, d := range diffs {
		ls := splitLines(d.Text)
		switch d.Type {
		case diffmatchpatch.DiffDelete:
			for _, l := range ls {
				sb.WriteString("-" + l + "\n")
			}
		case diffmatchpatch.DiffInsert:
			for _, l := range ls {
				sb.WriteString("+" + l + "\n")
			}
		case diffmatchpatch.DiffEqual:
			writeContext(&sb, ls, context, i > 0, i < len(diffs)-1)
		}
	}
	return sb.String()
}

func writeContext(sb *strings.Builder, ls []string, n int, afterChange, beforeChange bool) {
	head, tail := 0, 0
	if afterChange {
		head = n
	}
	if beforeChange {
		tail = n
	}
	if head+tail >= len(ls) {
		head, tail = len(ls), 0
	}
	for _, l := range ls[:head] {
		sb.WriteString(" " + l + "\n")
	}
	if tail > 0 {
		sb.WriteString("@@\n")
		for _, l := range ls[len(ls)-tail:] {
			sb.WriteString(" " + l + "\n")
		}
	}
}

func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(strings.TrimSuffix(s, "\n"), "\n")
}
