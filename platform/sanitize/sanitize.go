// Package sanitize cleans free text typed by agents or uploaded by supervisors
// before it is stored and shown back on the dialer console.
package sanitize

import (
	"regexp"
	"strings"
	"unicode"
)

var markupTag = regexp.MustCompile(`<[^>]*>`)

var entities = strings.NewReplacer(
	"&lt;", "<",
	"&gt;", ">",
	"&amp;", "&",
	"&quot;", `"`,
	"&#39;", "'",
)

// Text strips markup and control characters and trims the result.
// Newlines and tabs survive so multi-line notes keep their shape.
func Text(s string) string {
	out := markupTag.ReplaceAllString(s, "")
	out = entities.Replace(out)
	// decoded entities can form new tags
	out = markupTag.ReplaceAllString(out, "")
	out = strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, out)
	return strings.TrimSpace(out)
}

// TextPtr applies Text to an optional value. nil stays nil.
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	out := Text(*s)
	return &out
}
