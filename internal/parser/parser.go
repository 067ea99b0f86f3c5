// Package parser provides the Parser interface for reading schema files in
// the supported formats (JSON Schema and TOML) and converting them to the
// canonical core.SchemaSet representation.
package parser

import (
	"io"
	"path/filepath"
	"strings"

	"jstable/internal/core"
	jsonparser "jstable/internal/parser/json"
	"jstable/internal/parser/toml"
)

type Parser interface {
	Parse(r io.Reader) (*core.SchemaSet, error)
	ParseFile(path string) (*core.SchemaSet, error)
}

var (
	_ Parser = (*jsonparser.Parser)(nil)
	_ Parser = (*toml.Parser)(nil)
)

// ParseFile picks a parser from the file extension, parses the file and
// validates the result.
func ParseFile(path string) (*core.SchemaSet, error) {
	p, err := ForFile(path)
	if err != nil {
		return nil, err
	}
	ss, err := p.ParseFile(path)
	if err != nil {
		return nil, err
	}
	if err := ss.Validate(); err != nil {
		return nil, err
	}
	return ss, nil
}

// ForFile returns the parser matching the extension of path.
func ForFile(path string) (Parser, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return jsonparser.NewParser(""), nil
	case ".toml":
		return toml.NewParser(), nil
	default:
		return nil, &UnsupportedFormatError{Path: path}
	}
}

type UnsupportedFormatError struct {
	Path string
}

func (e *UnsupportedFormatError) Error() string {
	return "unsupported file format: " + e.Path
}
