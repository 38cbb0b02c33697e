package clone

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// CloneReport describes the new definition file.
type CloneReport struct {
	Path                   string   `json:"path" yaml:"path"`
	RenamedReferences      int      `json:"renamed_references" yaml:"renamed_references"`
	RenamedNames           int      `json:"renamed_names" yaml:"renamed_names"`
	RegeneratedIdentifiers int      `json:"regenerated_identifiers" yaml:"regenerated_identifiers"`
	DonorIdentifiers       []string `json:"-" yaml:"-"`
}

// CloneDefinition copies the donor definition file to the clone's path,
// renaming the donor and giving every identifier in it a new value. The text is
// otherwise copied byte for byte; it is never parsed as XML.
func CloneDefinition(fs afero.Fs, t Target, ids IDSource, r Reporter) (CloneReport, error) {
	r = orNop(r)
	if ids == nil {
		ids = RandomIDs()
	}
	rep := CloneReport{Path: t.ClonePath()}
	r.Step("Cloning '%s' to '%s' via text manipulation...", t.Donor, t.Clone)

	content, err := readFile(fs, t.DonorPath())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rep, fmt.Errorf("%w: %s", ErrDonorNotFound, t.DonorPath())
		}
		return rep, err
	}
	rep.DonorIdentifiers = FindIdentifiers(content)

	content, rep.RenamedReferences, rep.RenamedNames = renameDonor(content, t.Donor, t.Clone)
	r.Success("Performed genetic string replacement.")

	content, rep.RegeneratedIdentifiers = regenerateIdentifiers(content, ids)
	r.Success("Regenerated all UUIDs in the file.")

	if err := writeFile(fs, rep.Path, content); err != nil {
		return rep, err
	}
	r.Success("Saved new clone file to: %s", rep.Path)
	return rep, nil
}

// renameDonor rewrites qualified references (".Donor") first and bare element
// values (">Donor<") second, across the whole text.
func renameDonor(content, donor, clone string) (string, int, int) {
	refOld, refNew := "."+donor, "."+clone
	refs := strings.Count(content, refOld)
	content = strings.ReplaceAll(content, refOld, refNew)

	nameOld, nameNew := ">"+donor+"<", ">"+clone+"<"
	names := strings.Count(content, nameOld)
	content = strings.ReplaceAll(content, nameOld, nameNew)
	return content, refs, names
}
