package reshape

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Clean returns s in Unicode NFKC form with surrounding white space removed.
// Full-width and half-width forms, and composed and decomposed accents, of the
// same label compare equal after Clean.
func Clean(s string) string {
	return strings.TrimSpace(norm.NFKC.String(s))
}
