package sanitize

import (
	"errors"
	"strings"
	"testing"
)

func TestTextStripsScriptTags(t *testing.T) {
	inputs := []string{
		"<script>alert(1)</script>",
		"<SCRIPT SRC=x></SCRIPT>",
		"<sCrIpT>payload",
		"<scr<scriptipt>nested",
		"benign text with no markup",
	}

	for _, in := range inputs {
		out, err := Text(in, TextOptions{})
		if err != nil {
			continue // outright rejection also satisfies the guarantee
		}
		if strings.Contains(strings.ToLower(out), "<script") {
			t.Fatalf("Text(%q) = %q still contains <script", in, out)
		}
	}
}

func TestTextEncodesReservedCharacters(t *testing.T) {
	out, err := Text("tom & jerry", TextOptions{AllowSpecialChars: true})
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if out != "tom &amp; jerry" {
		t.Fatalf("Text() = %q, want entity-encoded ampersand", out)
	}
}

func TestTextStripsSQLTokens(t *testing.T) {
	out, err := Text("1; DROP TABLE users;--", TextOptions{})
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	lower := strings.ToLower(out)
	if strings.Contains(lower, "--") {
		t.Fatalf("Text() = %q still contains comment token", out)
	}
	if strings.Contains(lower, "drop") {
		t.Fatalf("Text() = %q still contains drop keyword", out)
	}
}

func TestTextStripsTraversalAndShellTokens(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		banned []string
	}{
		{"plain traversal", "see ../../etc config", []string{"../"}},
		{"encoded traversal", "path %2e%2e%2fsecret", []string{"%2e%2e%2f"}},
		{"command substitution", "run $(id) now", []string{"$("}},
		{"nosql operator", "filter $where true", []string{"$where"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Text(tt.input, TextOptions{AllowSpecialChars: true})
			if err != nil {
				t.Fatalf("Text() error = %v", err)
			}
			for _, tok := range tt.banned {
				if strings.Contains(strings.ToLower(out), tok) {
					t.Fatalf("Text(%q) = %q still contains %q", tt.input, out, tok)
				}
			}
		})
	}
}

func TestTextConstraintViolations(t *testing.T) {
	tests := []struct {
		name  string
		input string
		opts  TextOptions
	}{
		{"over max length", strings.Repeat("a", 20), TextOptions{MaxLength: 10}},
		{"outside whitelist", "abc!", TextOptions{Whitelist: " "}},
		{"surviving eval", "please eval(code) now", TextOptions{AllowHTML: true, AllowSpecialChars: true}},
		{"surviving dom global", "touch document.location here", TextOptions{AllowHTML: true, AllowSpecialChars: true}},
		{"excessive symbols", "@@@@!!!!####$$$$%%%%", TextOptions{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Text(tt.input, tt.opts); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("Text(%q) error = %v, want ErrInvalidInput", tt.input, err)
			}
		})
	}
}

func TestTextTrimsAndNormalizes(t *testing.T) {
	// U+0065 U+0301 composes to U+00E9 under NFC.
	out, err := Text("  café  ", TextOptions{AllowSpecialChars: true})
	if err != nil {
		t.Fatalf("Text() error = %v", err)
	}
	if out != "café" {
		t.Fatalf("Text() = %q, want NFC-composed café", out)
	}
}
