package utils

import (
	"html"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugcPolicy    = bluemonday.UGCPolicy()
	strictPolicy = bluemonday.StrictPolicy()
)

// SanitizeHTML keeps the safe subset of HTML allowed in post and comment bodies.
func SanitizeHTML(input string) string {
	return ugcPolicy.Sanitize(input)
}

// StripTags removes all markup from single-line values such as titles and names.
func StripTags(input string) string {
	// The strict policy escapes entities; titles are stored as plain text.
	return html.UnescapeString(strictPolicy.Sanitize(input))
}
