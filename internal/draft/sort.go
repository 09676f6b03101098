package draft

import (
	"slices"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// SortEntries orders entries by display suffix, descending. Digit runs compare
// numerically and case or accents are ignored, so "10" sorts before "2".
// Equal suffixes fall back to the raw id, also descending.
func SortEntries(entries []Entry) {
	col := collate.New(language.German, collate.Numeric, collate.Loose)
	slices.SortStableFunc(entries, func(a, b Entry) int {
		if c := col.CompareString(DisplaySuffix(b.ID), DisplaySuffix(a.ID)); c != 0 {
			return c
		}
		return strings.Compare(b.ID, a.ID)
	})
}
