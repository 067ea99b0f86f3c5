package json

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jstable/internal/core"
)

const definitionsDoc = `{
	"definitions": {
		"client": {
			"properties": {
				"clientId": {"type": "integer", "primaryKey": true},
				"person": {"$ref": "#/definitions/person", "field": "personId"}
			}
		},
		"person": {
			"properties": {
				"personId": {"type": "integer", "primaryKey": true},
				"name": {"type": "string", "maxLength": 50}
			}
		}
	}
}`

func TestParseDefinitions(t *testing.T) {
	ss, err := NewParser("").Parse(strings.NewReader(definitionsDoc))
	require.NoError(t, err)
	assert.Equal(t, []string{"client", "person"}, ss.Tables.Keys())
	assert.Equal(t, []string{"person", "client"}, ss.DependencyOrder())

	person, _ := ss.Tables.Get("person")
	assert.Equal(t, []string{"personId", "name"}, person.Properties.Keys())
}

func TestParseSingleTable(t *testing.T) {
	doc := `{"properties": {"id": {"type": "integer"}}, "required": ["id"]}`
	ss, err := NewParser("person").Parse(strings.NewReader(doc))
	require.NoError(t, err)
	s, ok := ss.Tables.Get("person")
	require.True(t, ok)
	assert.Equal(t, []string{"id"}, s.Required)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		parser *Parser
		doc    string
		msg    string
	}{
		{"malformed", NewParser("x"), `{"properties": `, "decode error"},
		{"not an object", NewParser("x"), `[]`, "decode error"},
		{"empty", NewParser("x"), `{}`, "neither definitions nor properties"},
		{"both shapes", NewParser("x"), `{"definitions": {"a": {"properties": {}}}, "properties": {"id": {}}}`, "both definitions and properties"},
		{"unnamed single table", NewParser(""), `{"properties": {"id": {"type": "integer"}}}`, "needs a table name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.parser.Parse(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, core.ErrInvalidSchema)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseFileNamesSingleTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "invoice.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"properties": {"id": {"type": "integer"}}}`), 0o600))

	ss, err := NewParser("").ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"invoice"}, ss.Tables.Keys())

	ss, err = NewParser("bill").ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"bill"}, ss.Tables.Keys())
}
