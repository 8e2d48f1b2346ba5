package classifier

import (
	"net/url"
	"strings"
	"unicode"
)

// Normalize turns a raw filename into its canonical form. An empty or
// whitespace-only input yields the zero value; no error is ever returned.
func Normalize(raw string) NormalizedName {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NormalizedName{}
	}

	// Take the final path segment first, then cut query/fragment, so a '?' or
	// '#' inside a directory component cannot swallow the file name.
	base := raw
	if i := strings.LastIndexAny(base, `/\`); i >= 0 {
		base = base[i+1:]
	}
	if i := strings.IndexByte(base, '?'); i >= 0 {
		base = base[:i]
	}
	if i := strings.IndexByte(base, '#'); i >= 0 {
		base = base[:i]
	}
	// Malformed percent-encoding is absorbed: keep the pre-decode value.
	if decoded, err := url.PathUnescape(base); err == nil {
		base = decoded
	}

	normalized, tokens := cleanText(base)
	return NormalizedName{
		Base:       base,
		Normalized: normalized,
		Compact:    strings.Join(tokens, ""),
		Tokens:     tokens,
	}
}

// cleanText lowercases s, turns runs of '_', '-', '.' and whitespace into
// single spaces, and drops every other character that is not a lowercase
// letter or digit. Keywords are cleaned with the same rule so token matching
// compares like with like.
func cleanText(s string) (string, []string) {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '_' || r == '-' || r == '.' || unicode.IsSpace(r):
			b.WriteByte(' ')
		}
	}
	tokens := strings.Fields(b.String())
	return strings.Join(tokens, " "), tokens
}

// compactKeyword lowercases a keyword and strips every non-alphanumeric
// character, matching the construction of NormalizedName.Compact.
func compactKeyword(k string) string {
	var b strings.Builder
	b.Grow(len(k))
	for _, r := range strings.ToLower(k) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
