package util

import (
	"crypto/rand"
	"regexp"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// NewID returns a prefixed ULID, e.g. NewID("cmp") -> "cmp_01J...".
// ULIDs sort by creation time (nice for DB indexes and dashboards).
func NewID(prefix string) string {
	t := time.Now().UTC()
	return prefix + "_" + ulid.MustNew(ulid.Timestamp(t), rand.Reader).String()
}

func NowUTC() time.Time {
	return time.Now().UTC()
}

var (
	htmlTagRe    = regexp.MustCompile(`(?s)<[^>]*>`)
	htmlBreakRe  = regexp.MustCompile(`(?i)<(?:br|/p|/div|/li|/tr|/h[1-6])[^>]*>`)
	multiSpaceRe = regexp.MustCompile(`[ \t]+`)
)

// StripHTML reduces an HTML body to the plain text that compliance
// checks run against. Block-level closers become newlines so that
// "<p>a</p><p>b</p>" does not collapse into "ab".
func StripHTML(html string) string {
	s := htmlBreakRe.ReplaceAllString(html, "\n")
	s = htmlTagRe.ReplaceAllString(s, "")
	s = strings.NewReplacer("&nbsp;", " ", "&amp;", "&", "&lt;", "<", "&gt;", ">", "&quot;", `"`, "&#39;", "'").Replace(s)
	s = multiSpaceRe.ReplaceAllString(s, " ")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if trimmed := strings.TrimSpace(line); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return strings.Join(out, "\n")
}

// NormalizeEmail lowercases and trims an address for comparison keys.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
