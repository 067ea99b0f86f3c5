// Package toml provides a parser for the jstable TOML schema format.
// It reads table definitions from a .toml file and converts them into the
// canonical core.SchemaSet the rest of the toolchain operates on.
package toml

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"jstable/internal/core"
)

// schemaFile is the top-level TOML document.
type schemaFile struct {
	Tables []tomlTable `toml:"tables"`
}

// Parser reads jstable TOML schema files.
type Parser struct{}

// NewParser creates a new TOML schema parser.
func NewParser() *Parser {
	return &Parser{}
}

// ParseFile opens the file at the given path and parses it as a TOML schema.
func (p *Parser) ParseFile(path string) (*core.SchemaSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("toml: open file %q: %w", path, err)
	}
	defer f.Close()

	return p.Parse(f)
}

// Parse reads TOML content from reader and returns the corresponding schema
// set. Unknown keys are rejected, so that a typo such as "primarykey" does
// not silently produce a nullable column.
func (p *Parser) Parse(r io.Reader) (*core.SchemaSet, error) {
	var sf schemaFile
	md, err := toml.NewDecoder(r).Decode(&sf)
	if err != nil {
		return nil, fmt.Errorf("toml: decode error: %w: %w", err, core.ErrInvalidSchema)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("toml: unknown keys %s: %w", strings.Join(keys, ", "), core.ErrInvalidSchema)
	}

	ss := &core.SchemaSet{Tables: core.NewOrderedMap[*core.Schema]()}
	for i := range sf.Tables {
		t := &sf.Tables[i]
		s, err := t.convert()
		if err != nil {
			return nil, fmt.Errorf("toml: table %q: %w", t.Name, err)
		}
		if _, ok := ss.Tables.Get(t.Name); ok {
			return nil, fmt.Errorf("toml: duplicate table name %q: %w", t.Name, core.ErrInvalidSchema)
		}
		ss.Tables.Set(t.Name, s)
	}
	return ss, nil
}
