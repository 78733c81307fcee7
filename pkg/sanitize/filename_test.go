package sanitize

import (
	"strings"
	"testing"
)

func TestFilename(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"plain name", "report.pdf", "report.pdf"},
		{"unix path stripped", "/var/tmp/report.pdf", "report.pdf"},
		{"windows path stripped", `C:\Users\bob\report.pdf`, "report.pdf"},
		{"traversal collapses to basename", "../../etc/passwd.txt", "passwd.txt"},
		{"control characters removed", "re\x00po\x1frt.pdf", "report.pdf"},
		{"reserved characters removed", `re<po>rt?.pdf`, "report.pdf"},
		{"dot runs collapse", "archive...tar", "archive.tar"},
		{"leading and trailing dots trimmed", "..hidden.", "hidden"},
		{"device name prefixed", "CON.txt", "file_CON.txt"},
		{"lowercase device name prefixed", "nul", "file_nul"},
		{"empty input", "", "unnamed"},
		{"only separators", "////", "unnamed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Filename(tt.input); got != tt.want {
				t.Fatalf("Filename(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFilenameTruncatesPreservingExtension(t *testing.T) {
	got := Filename(strings.Repeat("a", 300) + ".pdf")
	if len(got) > 255 {
		t.Fatalf("Filename() length = %d, want <= 255", len(got))
	}
	if !strings.HasSuffix(got, ".pdf") {
		t.Fatalf("Filename() = %q, extension not preserved", got)
	}
}

func TestFilenameIsIdempotent(t *testing.T) {
	inputs := []string{
		"report.pdf",
		"../../etc/passwd.txt",
		`C:\CON.txt`,
		"weird...name..tar.gz",
		"..  spaced  ..",
		strings.Repeat("x", 400) + ".docx",
		"", "////", "\x00\x01\x02",
		"файл.txt",
	}

	for _, in := range inputs {
		once := Filename(in)
		twice := Filename(once)
		if once != twice {
			t.Fatalf("Filename not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestFilenameOutputHasNoSeparators(t *testing.T) {
	inputs := []string{
		"../../etc/passwd.txt",
		"a/b/c/d.txt",
		`..\..\windows\system32\cmd`,
	}
	for _, in := range inputs {
		got := Filename(in)
		if strings.ContainsAny(got, `/\`) || strings.Contains(got, "..") {
			t.Fatalf("Filename(%q) = %q contains separator or traversal", in, got)
		}
	}
}
