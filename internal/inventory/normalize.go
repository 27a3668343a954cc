// Package inventory implements the product-matching core: code
// normalization, catalog construction from spreadsheet rows, scan
// resolution against the working set, and quantity reconciliation.
package inventory

import (
	"regexp"
	"strings"
)

// Spreadsheet cells often bury the product code inside a longer description
// ("Toner CF280A compatible"). Codes between 5 and 20 characters cover the
// usual OEM part numbers.
var codePattern = regexp.MustCompile(`[A-Za-z0-9\-.]{5,20}`)

// Normalize extracts the most code-like token from a raw cell or scanned
// string. It returns the leftmost run of code characters, falling back to the
// first whitespace-delimited token. The result may still be shorter than the
// catalog's minimum length; dropping those rows is the caller's job.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}

	if match := codePattern.FindString(s); match != "" {
		return match
	}

	return strings.Fields(s)[0]
}
