package clone

import (
	"fmt"
	"regexp"
	"strings"
)

// The configuration export is edited as raw text. Anchors are single lines in
// Configuration.xml and <xr:Metadata> blocks in ConfigDumpInfo.xml; nothing
// else in either file is touched, so the rest of the formatting survives.

const documentType = "Document"

var (
	metadataBlockPattern = regexp.MustCompile(`<xr:Metadata>[\s\S]*?</xr:Metadata>`)
	metadataNamePattern  = regexp.MustCompile(`<xr:name>([^<]*)</xr:name>`)
	dumpContainerClose   = regexp.MustCompile(`(?m)^[ \t]*</xr:ChildObjects>`)
	configContainerClose = regexp.MustCompile(`(?m)^[ \t]*</cfg:ChildObjects>`)
)

// referenceLinePattern matches a line carrying <cfg:typ>...</cfg:typ>, from
// the start of the line to the last closing tag on it.
func referenceLinePattern(typ string) *regexp.Regexp {
	tag := regexp.QuoteMeta("cfg:" + typ)
	return regexp.MustCompile(fmt.Sprintf(`(?m)^.*<%s>.*</%s>`, tag, tag))
}

// exactReferenceLinePattern matches the whole line referencing fqn, with its
// line break.
func exactReferenceLinePattern(typ, fqn string) *regexp.Regexp {
	tag := regexp.QuoteMeta("cfg:" + typ)
	return regexp.MustCompile(fmt.Sprintf(`(?m)^.*<%s>%s</%s>.*\n?`, tag, regexp.QuoteMeta(fqn), tag))
}

func referenceLine(typ, fqn string) string {
	return fmt.Sprintf("\t\t\t<cfg:%s>%s</cfg:%s>", typ, fqn, typ)
}

func metadataBlock(fqn, id, eol string) string {
	return strings.Join([]string{
		"\t\t<xr:Metadata>",
		"\t\t\t<xr:name>" + fqn + "</xr:name>",
		"\t\t\t<xr:id>" + id + "</xr:id>",
		"\t\t</xr:Metadata>",
	}, eol)
}

// lineEnding returns the line break used by the line holding content[i]:
// "\r\n" or "\n". A last line without a break borrows the file's first one.
func lineEnding(content string, i int) string {
	j := strings.IndexByte(content[i:], '\n')
	if j < 0 {
		j = strings.IndexByte(content, '\n')
		if j < 0 {
			return "\n"
		}
	} else {
		j += i
	}
	if j > 0 && content[j-1] == '\r' {
		return "\r\n"
	}
	return "\n"
}

// nextLine returns the index just past the line break that ends the line
// holding content[i], or -1 when that line is the last one and has no break.
func nextLine(content string, i int) int {
	j := strings.IndexByte(content[i:], '\n')
	if j < 0 {
		return -1
	}
	return i + j + 1
}

// insertLine puts text on a line of its own right after the line holding
// content[i].
func insertLine(content string, i int, text, eol string) string {
	if next := nextLine(content, i); next >= 0 {
		return insertAt(content, next, text+eol)
	}
	return content + eol + text
}

type span struct {
	start, end int
	name       string
}

// metadataBlocks lists every <xr:Metadata> block with its <xr:name> value.
// A block ends at the first closing tag after it opens.
func metadataBlocks(content string) []span {
	var out []span
	for _, loc := range metadataBlockPattern.FindAllStringIndex(content, -1) {
		s := span{start: loc[0], end: loc[1]}
		if m := metadataNamePattern.FindStringSubmatch(content[loc[0]:loc[1]]); m != nil {
			s.name = m[1]
		}
		out = append(out, s)
	}
	return out
}

// lineStart moves i back to the start of its line when only blanks precede it.
func lineStart(content string, i int) int {
	j := i
	for j > 0 && (content[j-1] == ' ' || content[j-1] == '\t') {
		j--
	}
	if j == 0 || content[j-1] == '\n' {
		return j
	}
	return i
}

// lineEnd moves i past trailing blanks and at most one line break.
func lineEnd(content string, i int) int {
	j := i
	for j < len(content) && (content[j] == ' ' || content[j] == '\t' || content[j] == '\r') {
		j++
	}
	if j < len(content) && content[j] == '\n' {
		return j + 1
	}
	if j == len(content) {
		return j
	}
	return i
}

func insertAt(content string, i int, text string) string {
	var b strings.Builder
	b.Grow(len(content) + len(text))
	b.WriteString(content[:i])
	b.WriteString(text)
	b.WriteString(content[i:])
	return b.String()
}
