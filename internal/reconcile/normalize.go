// Package reconcile compares fields read off a document image against the
// reference record and reports which of them disagree.
package reconcile

import (
	"regexp"
	"strings"
)

var slashDate = regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`)

// NormalizeText trims, lower-cases and collapses interior whitespace runs so
// "Ramesh   Kumar " and "ramesh kumar" compare equal.
func NormalizeText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}

// NormalizeDOB rewrites DD/MM/YYYY as YYYY-MM-DD. Any other input, including
// an already normalized date, is returned unchanged.
func NormalizeDOB(s string) string {
	m := slashDate.FindStringSubmatch(s)
	if m == nil {
		return s
	}
	return m[3] + "-" + m[2] + "-" + m[1]
}
