package diff

import "jstable/internal/core"

// EqualDefinitions reports whether an existing column already satisfies the
// desired property. Besides exact matches it accepts an integer column for a
// number without decimals, a datetime column for a date or a date-time
// string, and a text column for a string without maximum length.
func EqualDefinitions(was *core.ColumnInfo, is *core.Property) bool {
	switch {
	case was.Type == is.Type && was.MaxLength == is.MaxLength && was.Decimals == is.Decimals:
		return true
	case was.Type == core.TypeInteger && is.Type == core.TypeNumber && is.Decimals == 0:
		return true
	case was.Type == core.TypeDatetime &&
		(is.Type == core.TypeDate || (is.Type == core.TypeString && is.Format == core.FormatDateTime)):
		return true
	case was.Type == core.TypeText && is.Type == core.TypeString && is.MaxLength == 0:
		return true
	default:
		return false
	}
}

// CanAlterColumn reports whether changing from to the desired property only
// widens the column: longer strings, numbers gaining precision without losing
// integer digits or decimals, or a string becoming unbounded text.
func CanAlterColumn(from *core.ColumnInfo, to *core.Property) bool {
	switch {
	case from.Type == core.TypeString && to.Type == core.TypeString:
		return from.MaxLength < to.MaxLength
	case from.Type == core.TypeNumber && to.Type == core.TypeNumber:
		return from.MaxLength < to.MaxLength &&
			from.Decimals <= to.Decimals &&
			to.MaxLength-from.MaxLength >= to.Decimals-from.Decimals
	case from.Type == core.TypeString && to.Type == core.TypeText:
		return true
	default:
		return false
	}
}
