package address

import "strings"

// MapRecord extracts the known address fields and the configured ID columns
// from a raw row. Whitespace-only cells are treated as absent. Columns that
// are neither address fields nor ID columns are ignored here; the batch
// stage preserves them in the output unchanged.
//
// Pure function: the input map is never modified.
func MapRecord(row map[string]string, idColumns []string) (Record, []IDField) {
	rec := Record{
		Firm:             clean(row["firm"]),
		StreetAddress:    clean(row["streetAddress"]),
		SecondaryAddress: clean(row["secondaryAddress"]),
		City:             clean(row["city"]),
		State:            clean(row["state"]),
		Urbanization:     clean(row["urbanization"]),
		ZIPCode:          CleanZIP(row["ZIPCode"]),
		ZIPPlus4:         CleanZIP(row["ZIPPlus4"]),
	}

	// ID values are copied verbatim, padding and all: they are opaque
	// identifiers for the caller, not fields we interpret.
	ids := make([]IDField, 0, len(idColumns))
	for _, name := range idColumns {
		ids = append(ids, IDField{Name: name, Value: row[name]})
	}
	return rec, ids
}

// CleanZIP normalizes a ZIP cell to a digit string. Spreadsheet tools store
// numeric ZIPs as floats, so "63146.0" must come back as "63146".
func CleanZIP(val string) string {
	s := strings.TrimSpace(val)
	if s == "" {
		return ""
	}
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		frac := s[dot+1:]
		if frac == strings.Repeat("0", len(frac)) {
			s = s[:dot]
		}
	}
	return s
}

func clean(val string) string {
	return strings.TrimSpace(val)
}
