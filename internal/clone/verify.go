package clone

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Check is one verification outcome.
type Check struct {
	Name   string `json:"name" yaml:"name"`
	OK     bool   `json:"ok" yaml:"ok"`
	Detail string `json:"detail,omitempty" yaml:"detail,omitempty"`
}

// VerifyReport collects the outcome of every check run by Verify.
type VerifyReport struct {
	Checks []Check `json:"checks" yaml:"checks"`
}

// OK reports whether every check passed.
func (v VerifyReport) OK() bool {
	for _, c := range v.Checks {
		if !c.OK {
			return false
		}
	}
	return true
}

// Failed lists the names of the failed checks.
func (v VerifyReport) Failed() []string {
	var out []string
	for _, c := range v.Checks {
		if !c.OK {
			out = append(out, c.Name)
		}
	}
	return out
}

func (v *VerifyReport) add(name string, ok bool, format string, args ...any) {
	c := Check{Name: name, OK: ok}
	if format != "" {
		c.Detail = fmt.Sprintf(format, args...)
	}
	v.Checks = append(v.Checks, c)
}

// Verify inspects a finished clone. donorIDs are the identifiers found in the
// donor before cloning; when nil they are read from the donor file, which only
// works while the donor is still present. The returned error wraps
// ErrVerifyFailed when any check fails.
func Verify(fs afero.Fs, t Target, donorIDs []string) (VerifyReport, error) {
	var rep VerifyReport

	donor, err := readFile(fs, t.DonorPath())
	if err != nil {
		return rep, fmt.Errorf("read donor: %w", err)
	}
	if donorIDs == nil {
		donorIDs = FindIdentifiers(donor)
	}

	clone, err := readFile(fs, t.ClonePath())
	if err != nil {
		rep.add("definition-exists", false, "%v", err)
		return rep, fmt.Errorf("%w: %s", ErrVerifyFailed, strings.Join(rep.Failed(), ", "))
	}
	rep.add("definition-exists", true, "")

	donorFQN := t.QualifiedName(t.Donor)
	n := countQualified(clone, donorFQN)
	rep.add("no-donor-references", n == 0, "%d occurrence(s) of %s", n, donorFQN)

	seen := map[string]struct{}{}
	for _, id := range donorIDs {
		seen[strings.ToLower(id)] = struct{}{}
	}
	cloneIDs := FindIdentifiers(clone)
	reused := 0
	for _, id := range cloneIDs {
		if _, ok := seen[strings.ToLower(id)]; ok {
			reused++
		}
	}
	rep.add("no-donor-identifiers", reused == 0, "%d donor identifier(s) kept", reused)
	rep.add("identifier-count", len(cloneIDs) == len(donorIDs), "donor %d, clone %d", len(donorIDs), len(cloneIDs))

	fqn := t.QualifiedName(t.Clone)
	if content, err := readFile(fs, t.ConfigurationPath()); err != nil {
		rep.add("configuration-reference", false, "%v", err)
	} else {
		n := len(exactReferenceLinePattern(t.typ(), fqn).FindAllStringIndex(content, -1))
		rep.add("configuration-reference", n == 1, "%d reference(s) to %s", n, fqn)
	}
	if content, err := readFile(fs, t.DumpInfoPath()); err != nil {
		rep.add("dump-info-block", false, "%v", err)
	} else {
		n := 0
		for _, b := range metadataBlocks(content) {
			if b.name == fqn {
				n++
			}
		}
		rep.add("dump-info-block", n == 1, "%d block(s) named %s", n, fqn)
	}

	if !rep.OK() {
		return rep, fmt.Errorf("%w: %s", ErrVerifyFailed, strings.Join(rep.Failed(), ", "))
	}
	return rep, nil
}

// countQualified counts fqn occurrences that are not a prefix of a longer
// name, so "Catalog.A" does not match inside "Catalog.AB".
func countQualified(s, fqn string) int {
	n := 0
	for i := 0; ; {
		j := strings.Index(s[i:], fqn)
		if j < 0 {
			return n
		}
		end := i + j + len(fqn)
		if end >= len(s) || !isNameByte(s[end]) {
			n++
		}
		i = end
	}
}

func isNameByte(c byte) bool {
	return c == '_' || c >= 0x80 || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
