package core

import (
	"strings"

	"github.com/zeebo/xxh3"
	"golang.org/x/text/cases"
)

// KeyHash hashes an ordered list of names, ignoring case.
func KeyHash(parts ...string) uint64 {
	return xxh3.HashString(cases.Fold().String(strings.Join(parts, "\x00")))
}
