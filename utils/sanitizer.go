package utils

import (
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// StrictPolicy removes every element; generated email bodies are sent as plain text
var StrictPolicy = bluemonday.StrictPolicy()

var (
	blockBreaks = regexp.MustCompile(`(?i)<\s*(br\s*/?|/p|/div|/li|/h[1-6])\s*>`)
	extraBlank  = regexp.MustCompile(`\n{3,}`)
)

// StripHTML removes all markup from s and decodes entities, keeping
// line breaks that block elements implied.
func StripHTML(s string) string {
	s = blockBreaks.ReplaceAllString(s, "$0\n")
	s = StrictPolicy.Sanitize(s)
	s = html.UnescapeString(s)
	return s
}

// CleanEmailBody turns model output into a plain-text email body.
func CleanEmailBody(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = StripHTML(s)
	s = extraBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// NormalizeEmail trims an address and lower-cases its domain part.
func NormalizeEmail(addr string) string {
	addr = strings.TrimSpace(addr)
	at := strings.LastIndex(addr, "@")
	if at < 0 {
		return addr
	}
	return addr[:at+1] + strings.ToLower(addr[at+1:])
}
