package toml

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jstable/internal/core"
)

const clientsToml = `
[[tables]]
name = "person"

  [[tables.properties]]
  name = "personId"
  type = "integer"
  primary_key = true
  auto_increment = true

  [[tables.properties]]
  name = "name"
  type = "string"
  max_length = 50
  required = true

[[tables]]
name = "client"
unique = [["email"]]

  [[tables.properties]]
  name = "clientId"
  type = "integer"
  primary_key = true

  [[tables.properties]]
  name = "email"
  type = "string"
  field = "emailAddress"
  max_length = 120

  [[tables.properties]]
  name = "person"
  ref = "#/definitions/person"
  field = "personId"

  [[tables.properties]]
  name = "tax"
  schema = { ref = "#/definitions/tax", key = "UK__tax__code" }

  [[tables.foreign_keys]]
  table = "tax"
  columns = ["taxCity", "taxState"]
  references = ["city", "state"]
`

func TestParse(t *testing.T) {
	ss, err := NewParser().Parse(strings.NewReader(clientsToml))
	require.NoError(t, err)
	assert.Equal(t, []string{"person", "client"}, ss.Tables.Keys())

	person, _ := ss.Tables.Get("person")
	assert.Equal(t, []string{"personId", "name"}, person.Properties.Keys())
	id, _ := person.Properties.Get("personId")
	assert.Equal(t, &core.Property{Type: core.TypeInteger, PrimaryKey: true, AutoIncrement: true}, id)
	name, _ := person.Properties.Get("name")
	assert.Equal(t, &core.Property{Type: core.TypeString, MaxLength: 50, Required: true}, name)

	client, _ := ss.Tables.Get("client")
	assert.Equal(t, [][]string{{"email"}}, client.Unique)
	ref, _ := client.Properties.Get("person")
	assert.Equal(t, "#/definitions/person", ref.Reference())
	assert.Equal(t, "personId", ref.Field)
	tax, _ := client.Properties.Get("tax")
	assert.Equal(t, "#/definitions/tax", tax.Reference())
	assert.Equal(t, "UK__tax__code", tax.ReferenceKey())

	keys, ok := client.ForeignKeys.Get("tax")
	require.True(t, ok)
	assert.Equal(t, []string{"taxCity", "taxState"}, keys.Keys())
	city, _ := keys.Get("taxCity")
	assert.Equal(t, "city", city)

	require.NoError(t, ss.Validate())
	assert.Equal(t, []string{"person", "client"}, ss.DependencyOrder())
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		msg  string
	}{
		{"invalid toml", `[[tables]`, "decode error"},
		{"unknown key", "[[tables]]\nname = \"a\"\nprimarykey = [\"id\"]\n", "unknown keys tables.primarykey"},
		{"missing table name", "[[tables]]\n[[tables.properties]]\nname = \"id\"\n", "table name is required"},
		{"missing property name", "[[tables]]\nname = \"a\"\n[[tables.properties]]\ntype = \"integer\"\n", "property #1 has no name"},
		{
			"duplicate property",
			"[[tables]]\nname = \"a\"\n[[tables.properties]]\nname = \"id\"\n[[tables.properties]]\nname = \"id\"\n",
			`duplicate property "id"`,
		},
		{"duplicate table", "[[tables]]\nname = \"a\"\n[[tables]]\nname = \"a\"\n", `duplicate table name "a"`},
		{
			"uneven foreign key",
			"[[tables]]\nname = \"a\"\n[[tables.foreign_keys]]\ntable = \"b\"\ncolumns = [\"x\", \"y\"]\nreferences = [\"x\"]\n",
			"needs as many columns as references",
		},
		{
			"foreign key without table",
			"[[tables]]\nname = \"a\"\n[[tables.foreign_keys]]\ncolumns = [\"x\"]\nreferences = [\"x\"]\n",
			"foreign key without table",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewParser().Parse(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, core.ErrInvalidSchema)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestParseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.toml")
	require.NoError(t, os.WriteFile(path, []byte(clientsToml), 0o600))

	ss, err := NewParser().ParseFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ss.Tables.Len())

	_, err = NewParser().ParseFile(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "toml: open file")
}
