// Package dataset holds the local, pre-upload view of a tabular file: the
// extension gate and a best-effort preview. The backend performs the
// authoritative parse; nothing here may influence analysis correctness.
package dataset

import "strings"

// previewRows is header + 5 data rows, matching what fits above the fold.
const previewRows = 6

// ErrNotCSV is the fixed message for files rejected before any network call.
const ErrNotCSV = "Only CSV files are supported."

// ValidName reports whether the filename carries the exact, case-sensitive
// .csv extension. "data.CSV" is rejected on purpose: the backend applies the
// same check and would refuse the upload anyway.
func ValidName(name string) bool {
	return strings.HasSuffix(name, ".csv")
}

// Preview splits raw file text into at most 6 rows (1 header + 5 data rows)
// on newlines, then each row on commas. Pure and best-effort: quoted fields,
// embedded commas and alternate line endings are not handled, because the
// result is only ever shown, never analyzed.
func Preview(text string) [][]string {
	if text == "" {
		return nil
	}
	lines := strings.Split(text, "\n")
	if len(lines) > previewRows {
		lines = lines[:previewRows]
	}
	rows := make([][]string, 0, len(lines))
	for _, line := range lines {
		rows = append(rows, strings.Split(line, ","))
	}
	return rows
}
