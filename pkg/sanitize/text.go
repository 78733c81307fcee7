// Package sanitize normalizes and rejects dangerous free-text and filename
// input. It is a literal-matching, defense-in-depth layer: it is not a parser
// and must never be the sole boundary against injection. The store adapter
// still uses parameterized access for everything it persists.
package sanitize

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrInvalidInput marks a sanitizer constraint violation. Callers reject the
// request before any I/O happens.
var ErrInvalidInput = errors.New("invalid input")

// TextOptions tunes Text. The zero value enforces the defaults: no HTML, no
// special characters, 1000-rune limit.
type TextOptions struct {
	MaxLength         int
	AllowHTML         bool
	AllowSpecialChars bool

	// Whitelist, when non-empty, is the full set of runes the input may
	// contain (beyond letters and digits, which are always allowed).
	Whitelist string
}

const defaultMaxLength = 1000

// xssTokens are stripped before entity encoding when HTML is disallowed.
var xssTokens = []string{
	"<script", "</script", "javascript:", "vbscript:", "onerror=", "onload=",
	"onclick=", "onmouseover=", "<iframe", "<object", "<embed", "srcdoc=",
	"expression(",
}

// sqlTokens are literal-stripped when special characters are disallowed.
var sqlTokens = []string{
	"--", "/*", "*/", ";--", "';", "\";",
	"drop", "delete", "insert", "update", "union", "select", "exec", "execute",
	"xp_", "sp_",
}

// traversalTokens cover plain and percent-encoded path traversal variants.
var traversalTokens = []string{
	"../", "..\\", "%2e%2e%2f", "%2e%2e/", "..%2f", "%2e%2e%5c", "..%5c",
}

var shellTokens = []string{
	"$(", "`", "&&", "||", "|", ">>", "<<",
}

var nosqlTokens = []string{
	"$where", "$ne", "$gt", "$lt", "$gte", "$lte", "$regex", "$or", "$and",
	"$exists", "$in", "$nin",
}

// finalGateTokens fail the input outright if they survive every stripping
// pass; at that point the input is adversarial, not merely messy.
var finalGateTokens = []string{
	"eval(", "function(", "return ", "alert(", "confirm(", "prompt(",
	"window.", "document.", "globalthis",
}

// Text runs the full sanitation pipeline in fixed order and returns the
// cleaned string, or an error wrapping ErrInvalidInput when a hard constraint
// is violated.
func Text(input string, opts TextOptions) (string, error) {
	maxLen := opts.MaxLength
	if maxLen <= 0 {
		maxLen = defaultMaxLength
	}

	out := strings.TrimSpace(input)

	if len([]rune(out)) > maxLen {
		return "", fmt.Errorf("%w: exceeds maximum length %d", ErrInvalidInput, maxLen)
	}

	if opts.Whitelist != "" {
		for _, r := range out {
			if !isAlphanumeric(r) && !strings.ContainsRune(opts.Whitelist, r) {
				return "", fmt.Errorf("%w: character %q is not allowed", ErrInvalidInput, r)
			}
		}
	}

	if !opts.AllowHTML {
		out = stripTokensFold(out, xssTokens)
		out = encodeReserved(out)
	}

	if !opts.AllowSpecialChars {
		out = stripTokensFold(out, sqlTokens)
	}

	out = stripTokensFold(out, traversalTokens)
	out = stripTokens(out, shellTokens)
	out = stripTokensFold(out, nosqlTokens)

	out = norm.NFC.String(out)

	lower := strings.ToLower(out)
	for _, tok := range finalGateTokens {
		if strings.Contains(lower, tok) {
			return "", fmt.Errorf("%w: suspicious token %q remains after sanitation", ErrInvalidInput, tok)
		}
	}

	if !opts.AllowSpecialChars && nonAlphanumericRatio(out) > 0.30 {
		return "", fmt.Errorf("%w: too many non-alphanumeric characters", ErrInvalidInput)
	}

	return out, nil
}

// stripTokensFold removes every case-insensitive occurrence of each token,
// repeating until none remain so nested payloads (<scr<scriptipt) cannot
// reassemble themselves.
func stripTokensFold(s string, tokens []string) string {
	for _, tok := range tokens {
		for {
			idx := indexFold(s, tok)
			if idx < 0 {
				break
			}
			s = s[:idx] + s[idx+len(tok):]
		}
	}
	return s
}

func stripTokens(s string, tokens []string) string {
	for _, tok := range tokens {
		for strings.Contains(s, tok) {
			s = strings.ReplaceAll(s, tok, "")
		}
	}
	return s
}

func indexFold(s, substr string) int {
	return strings.Index(strings.ToLower(s), strings.ToLower(substr))
}

// encodeReserved entity-encodes the five HTML reserved characters.
func encodeReserved(s string) string {
	replacer := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&#39;",
	)
	return replacer.Replace(s)
}

func isAlphanumeric(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func nonAlphanumericRatio(s string) float64 {
	runes := []rune(s)
	if len(runes) == 0 {
		return 0
	}
	other := 0
	for _, r := range runes {
		if !isAlphanumeric(r) && r != ' ' {
			other++
		}
	}
	return float64(other) / float64(len(runes))
}
