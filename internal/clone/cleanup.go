package clone

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/afero"
)

// CleanupReport lists what a cleanup actually changed.
type CleanupReport struct {
	ConfigurationLinesRemoved int  `json:"configuration_lines_removed" yaml:"configuration_lines_removed"`
	DumpBlocksRemoved         int  `json:"dump_blocks_removed" yaml:"dump_blocks_removed"`
	DefinitionRemoved         bool `json:"definition_removed" yaml:"definition_removed"`
}

// Changed reports whether any file was touched.
func (c CleanupReport) Changed() bool {
	return c.ConfigurationLinesRemoved > 0 || c.DumpBlocksRemoved > 0 || c.DefinitionRemoved
}

// Cleanup removes every trace of t.Clone: its reference line in
// Configuration.xml, its metadata block in ConfigDumpInfo.xml and its
// definition file. Missing files are skipped and unchanged files are not
// rewritten, so running it on a clean export is a no-op.
func Cleanup(fs afero.Fs, t Target, r Reporter) (CleanupReport, error) {
	r = orNop(r)
	var rep CleanupReport
	fqn := t.QualifiedName(t.Clone)
	r.Step("Ensuring idempotency by cleaning up traces of '%s'...", t.Clone)

	n, err := rewriteIfChanged(fs, t.ConfigurationPath(), func(content string) (string, int) {
		return removeReferenceLines(content, t.typ(), fqn)
	})
	if err != nil {
		return rep, err
	}
	if n > 0 {
		rep.ConfigurationLinesRemoved = n
		r.Success("Removed entry for '%s' from %s", fqn, ConfigurationFile)
	}

	n, err = rewriteIfChanged(fs, t.DumpInfoPath(), func(content string) (string, int) {
		return removeMetadataBlocks(content, fqn)
	})
	if err != nil {
		return rep, err
	}
	if n > 0 {
		rep.DumpBlocksRemoved = n
		r.Success("Removed entry for '%s' from %s", fqn, DumpInfoFile)
	}

	path := t.ClonePath()
	if ok, err := afero.Exists(fs, path); err != nil {
		return rep, err
	} else if ok {
		if err := fs.Remove(path); err != nil {
			return rep, err
		}
		rep.DefinitionRemoved = true
		r.Success("Removed old file: %s", path)
	}
	return rep, nil
}

// rewriteIfChanged applies edit to the file at path and writes it back only
// when edit reports at least one change. An absent file is skipped.
func rewriteIfChanged(fs afero.Fs, path string, edit func(string) (string, int)) (int, error) {
	content, err := readFile(fs, path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, nil
		}
		return 0, err
	}
	updated, n := edit(content)
	if n == 0 || updated == content {
		return 0, nil
	}
	if err := writeFile(fs, path, updated); err != nil {
		return 0, err
	}
	return n, nil
}

func removeReferenceLines(content, typ, fqn string) (string, int) {
	re := exactReferenceLinePattern(typ, fqn)
	n := len(re.FindAllStringIndex(content, -1))
	if n == 0 {
		return content, 0
	}
	return re.ReplaceAllLiteralString(content, ""), n
}

// removeMetadataBlocks drops every block named fqn together with its own
// lines, so a block inserted by Integrate is removed without disturbing the
// indentation of its neighbours.
func removeMetadataBlocks(content, fqn string) (string, int) {
	var b strings.Builder
	last, n := 0, 0
	for _, blk := range metadataBlocks(content) {
		if blk.name != fqn {
			continue
		}
		start := lineStart(content, blk.start)
		if start < last {
			continue
		}
		b.WriteString(content[last:start])
		last = lineEnd(content, blk.end)
		n++
	}
	if n == 0 {
		return content, 0
	}
	b.WriteString(content[last:])
	return b.String(), n
}
