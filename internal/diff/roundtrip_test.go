package diff_test

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jstable/internal/core"
	"jstable/internal/dialect"
	"jstable/internal/dialect/mssql"
	"jstable/internal/dialect/postgres"
	"jstable/internal/diff"
)

// nativeColumn turns a rendered column type into the row the catalog would
// report for it.
func nativeColumn(typ string) dialect.NativeColumn {
	typ = strings.ToLower(strings.TrimSuffix(typ, " IDENTITY(1,1)"))
	col := dialect.NativeColumn{Name: "c", Nullable: true}

	name, args, _ := strings.Cut(typ, "(")
	col.DataType = name
	if args != "" {
		parts := strings.Split(strings.TrimSuffix(args, ")"), ",")
		switch {
		case parts[0] == "max":
			col.MaxLength = -1
		case name == "decimal" || name == "numeric":
			col.Precision, _ = strconv.Atoi(parts[0])
			col.Scale, _ = strconv.Atoi(parts[1])
		default:
			col.MaxLength, _ = strconv.Atoi(parts[0])
		}
	}

	switch col.DataType {
	case "serial":
		col.DataType = "integer"
	case "bigserial":
		col.DataType = "bigint"
	case "varchar":
		col.DataType = "character varying"
	}
	return col
}

var roundTripProperties = map[string]core.Property{
	"integer":          {Type: core.TypeInteger},
	"identity":         {Type: core.TypeInteger, AutoIncrement: true},
	"float":            {Type: core.TypeNumber},
	"sized number":     {Type: core.TypeNumber, MaxLength: 9},
	"decimal":          {Type: core.TypeNumber, MaxLength: 12, Decimals: 2},
	"string":           {Type: core.TypeString, MaxLength: 50},
	"unbounded string": {Type: core.TypeString},
	"date-time string": {Type: core.TypeString, Format: core.FormatDateTime},
	"text":             {Type: core.TypeText},
	"date":             {Type: core.TypeDate},
	"time":             {Type: core.TypeTime},
	"datetime":         {Type: core.TypeDatetime},
	"naive datetime":   {Type: core.TypeDatetime, Timezone: core.TimezoneIgnore},
	"boolean":          {Type: core.TypeBoolean},
	"blob":             {Type: core.TypeBlob},
}

func TestColumnTypesRoundTrip(t *testing.T) {
	dialects := []dialect.Dialect{
		mssql.New(dialect.Flags{}),
		mssql.New(dialect.Flags{BigInt: true, DoubleFloats: true, LegacyDatetime: true}),
		postgres.New(dialect.Flags{}),
		postgres.New(dialect.Flags{BigInt: true, DoubleFloats: true}),
	}
	for _, d := range dialects {
		for name, p := range roundTripProperties {
			t.Run(string(d.Name())+"/"+name, func(t *testing.T) {
				typ, ok, err := d.ColumnType(name, &p)
				require.NoError(t, err)
				require.True(t, ok)

				info, err := d.ColumnInfo(nativeColumn(typ))
				require.NoError(t, err, typ)
				assert.True(t, diff.EqualDefinitions(info, &p), "%s read back as %+v", typ, info)
			})
		}
	}
}
