package clone

import (
	"regexp"

	"github.com/google/uuid"
)

// identifierPattern matches canonical hyphenated identifiers in any case.
var identifierPattern = regexp.MustCompile(`(?i)[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

// IDSource hands out new identifiers. Every call must return a fresh value.
type IDSource interface {
	NewID() string
}

type randomIDs struct{}

func (randomIDs) NewID() string { return uuid.NewString() }

// RandomIDs returns the version 4 identifier source used for real runs.
func RandomIDs() IDSource { return randomIDs{} }

// FindIdentifiers returns every identifier-shaped substring of s, in order.
func FindIdentifiers(s string) []string {
	return identifierPattern.FindAllString(s, -1)
}

func regenerateIdentifiers(s string, ids IDSource) (string, int) {
	n := 0
	out := identifierPattern.ReplaceAllStringFunc(s, func(string) string {
		n++
		return ids.NewID()
	})
	return out, n
}
