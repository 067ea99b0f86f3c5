// Package json reads JSON Schema documents. A document either lists many
// tables under "definitions", the way $ref pointers expect, or describes a
// single table with a top-level "properties" object.
package json

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"jstable/internal/core"
)

// document is the top-level JSON value. Properties and Definitions are
// decoded lazily so that the shape can be told apart first.
type document struct {
	Definitions core.OrderedMap[*core.Schema] `json:"definitions"`
	Properties  json.RawMessage               `json:"properties"`
}

// Parser reads JSON schema documents. Name is the table name given to a
// single-table document.
type Parser struct {
	Name string
}

// NewParser creates a parser naming single-table documents name.
func NewParser(name string) *Parser {
	return &Parser{Name: name}
}

// ParseFile parses the document at path. Unless the parser was given a name,
// a single-table document is named after the file.
func (p *Parser) ParseFile(path string) (*core.SchemaSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("json: open file %q: %w", path, err)
	}
	defer f.Close()

	name := p.Name
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return (&Parser{Name: name}).Parse(f)
}

func (p *Parser) Parse(r io.Reader) (*core.SchemaSet, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("json: read: %w", err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("json: decode error: %w: %w", err, core.ErrInvalidSchema)
	}

	switch {
	case doc.Definitions.Len() > 0:
		if len(doc.Properties) > 0 {
			return nil, fmt.Errorf("json: document has both definitions and properties: %w", core.ErrInvalidSchema)
		}
		return &core.SchemaSet{Tables: doc.Definitions}, nil
	case len(doc.Properties) > 0:
		if p.Name == "" {
			return nil, fmt.Errorf("json: single table document needs a table name: %w", core.ErrInvalidSchema)
		}
		var s core.Schema
		dec := json.NewDecoder(bytes.NewReader(data))
		if err := dec.Decode(&s); err != nil {
			return nil, fmt.Errorf("json: table %q: %w: %w", p.Name, err, core.ErrInvalidSchema)
		}
		ss := &core.SchemaSet{Tables: core.NewOrderedMap[*core.Schema]()}
		ss.Tables.Set(p.Name, &s)
		return ss, nil
	default:
		return nil, fmt.Errorf("json: document has neither definitions nor properties: %w", core.ErrInvalidSchema)
	}
}
