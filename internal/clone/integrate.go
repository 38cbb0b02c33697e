package clone

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
)

// Placement says where Integrate put the new reference.
type Placement string

const (
	AfterLastOfType     Placement = "after-last"
	BeforeFirstDocument Placement = "before-first-document"
	EndOfContainer      Placement = "end-of-container"
)

// IntegrateReport records the placement chosen in each index file and the
// identifier assigned to the new metadata block.
type IntegrateReport struct {
	Configuration Placement `json:"configuration" yaml:"configuration"`
	DumpInfo      Placement `json:"dump_info" yaml:"dump_info"`
	MetadataID    string    `json:"metadata_id" yaml:"metadata_id"`
}

// Integrate registers the clone in Configuration.xml and ConfigDumpInfo.xml.
// In each file the new entry goes after the last entry of the same type, else
// before the first document, else at the end of the container. Both files must
// exist; a failure here leaves the definition file from CloneDefinition behind.
func Integrate(fs afero.Fs, t Target, ids IDSource, r Reporter) (IntegrateReport, error) {
	r = orNop(r)
	if ids == nil {
		ids = RandomIDs()
	}
	var rep IntegrateReport
	fqn := t.QualifiedName(t.Clone)
	r.Step("Integrating clone into configuration topology via robust text insertion...")

	path := t.ConfigurationPath()
	content, err := readFile(fs, path)
	if err != nil {
		return rep, fmt.Errorf("open %s: %w", path, err)
	}
	content, rep.Configuration, err = insertReferenceLine(content, t.typ(), fqn)
	if err != nil {
		return rep, fmt.Errorf("%s: %w", path, err)
	}
	if err := writeFile(fs, path, content); err != nil {
		return rep, err
	}
	r.Success("Injected %s in %s", describe(rep.Configuration, t.typ()), path)

	path = t.DumpInfoPath()
	content, err = readFile(fs, path)
	if err != nil {
		return rep, fmt.Errorf("open %s: %w", path, err)
	}
	rep.MetadataID = ids.NewID()
	content, rep.DumpInfo, err = insertMetadataBlock(content, t.typ(), fqn, rep.MetadataID)
	if err != nil {
		return rep, fmt.Errorf("%s: %w", path, err)
	}
	if err := writeFile(fs, path, content); err != nil {
		return rep, err
	}
	r.Success("Injected metadata %s in %s", describe(rep.DumpInfo, t.typ()), path)
	return rep, nil
}

func describe(p Placement, typ string) string {
	switch p {
	case AfterLastOfType:
		return "after last " + typ
	case BeforeFirstDocument:
		return "before first " + documentType
	default:
		return "at end of ChildObjects"
	}
}

// insertReferenceLine adds the reference to fqn as a line of its own. The new
// line takes the line break of the line it is anchored to.
func insertReferenceLine(content, typ, fqn string) (string, Placement, error) {
	line := referenceLine(typ, fqn)

	if locs := referenceLinePattern(typ).FindAllStringIndex(content, -1); len(locs) > 0 {
		end := locs[len(locs)-1][1]
		return insertLine(content, end, line, lineEnding(content, end)), AfterLastOfType, nil
	}
	if loc := referenceLinePattern(documentType).FindStringIndex(content); loc != nil {
		return insertAt(content, loc[0], line+lineEnding(content, loc[0])), BeforeFirstDocument, nil
	}
	if loc := configContainerClose.FindStringIndex(content); loc != nil {
		return insertAt(content, loc[0], line+lineEnding(content, loc[0])), EndOfContainer, nil
	}
	return content, "", fmt.Errorf("%w: no %s, %s or </cfg:ChildObjects> line", ErrNoAnchor, typ, documentType)
}

func insertMetadataBlock(content, typ, fqn, id string) (string, Placement, error) {
	blocks := metadataBlocks(content)

	lastOfType := -1
	firstDocument := -1
	for i, b := range blocks {
		if strings.HasPrefix(b.name, typ+".") {
			lastOfType = i
		}
		if firstDocument < 0 && strings.HasPrefix(b.name, documentType+".") {
			firstDocument = i
		}
	}

	if lastOfType >= 0 {
		end := blocks[lastOfType].end
		eol := lineEnding(content, end)
		return insertLine(content, end, metadataBlock(fqn, id, eol), eol), AfterLastOfType, nil
	}
	if firstDocument >= 0 {
		start := lineStart(content, blocks[firstDocument].start)
		eol := lineEnding(content, start)
		return insertAt(content, start, metadataBlock(fqn, id, eol)+eol), BeforeFirstDocument, nil
	}
	if loc := dumpContainerClose.FindStringIndex(content); loc != nil {
		eol := lineEnding(content, loc[0])
		return insertAt(content, loc[0], metadataBlock(fqn, id, eol)+eol), EndOfContainer, nil
	}
	return content, "", fmt.Errorf("%w: no %s, %s or </xr:ChildObjects> block", ErrNoAnchor, typ, documentType)
}
