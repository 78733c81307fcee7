package validate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"
)

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestValidateAcceptsCleanPDF(t *testing.T) {
	content := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{'a'}, 200)...)

	v := New(Policy{})
	got := v.Validate(context.Background(), Input{
		Content:      bytes.NewReader(content),
		DeclaredType: "application/pdf",
		Filename:     "report.pdf",
		ReportedSize: int64(len(content)),
	})

	if !got.Valid {
		t.Fatalf("Validate() rejected clean pdf: %s %s", got.Reason, got.Details)
	}
	if got.Risk != RiskNone {
		t.Fatalf("risk = %s, want NONE", got.Risk)
	}

	sum := sha256.Sum256(content)
	if got.ContentHash != hex.EncodeToString(sum[:]) {
		t.Fatalf("content hash mismatch: got %s", got.ContentHash)
	}
	if got.DetectedType != "application/pdf" {
		t.Fatalf("detected type = %q, want application/pdf", got.DetectedType)
	}
}

func TestValidateRejectsMislabeledPDF(t *testing.T) {
	// Declared application/pdf but the first four bytes are not 25 50 44 46.
	content := []byte("GIF89a not a pdf at all")

	v := New(Policy{})
	got := v.Validate(context.Background(), Input{
		Content:      bytes.NewReader(content),
		DeclaredType: "application/pdf",
		Filename:     "report.pdf",
		ReportedSize: int64(len(content)),
	})

	if got.Valid {
		t.Fatal("Validate() admitted a mislabeled pdf")
	}
	if got.Reason != ReasonSignatureMismatch {
		t.Fatalf("reason = %s, want %s", got.Reason, ReasonSignatureMismatch)
	}
	if got.Risk != RiskHigh {
		t.Fatalf("risk = %s, want HIGH", got.Risk)
	}
}

func TestValidateSizeConsistency(t *testing.T) {
	content := append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte{'b'}, 100)...)

	tests := []struct {
		name     string
		reported int64
		ok       bool
	}{
		{"exact", int64(len(content)), true},
		{"within tolerance over", int64(len(content)) + 1024, true},
		{"within tolerance under", int64(len(content)) - 1024, true},
		{"over tolerance", int64(len(content)) + 1025, false},
		{"under tolerance", int64(len(content)) - 1025, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := New(Policy{})
			got := v.Validate(context.Background(), Input{
				Content:      bytes.NewReader(content),
				DeclaredType: "application/pdf",
				Filename:     "a.pdf",
				ReportedSize: tt.reported,
			})
			if got.Valid != tt.ok {
				t.Fatalf("valid = %v, want %v (%s)", got.Valid, tt.ok, got.Details)
			}
			if !tt.ok && got.Reason != ReasonSizeInconsistency {
				t.Fatalf("reason = %s, want %s", got.Reason, ReasonSizeInconsistency)
			}
		})
	}
}

func TestValidateFailsClosed(t *testing.T) {
	v := New(Policy{})
	got := v.Validate(context.Background(), Input{
		Content:      failingReader{},
		DeclaredType: "text/plain",
		Filename:     "notes.txt",
		ReportedSize: 10,
	})

	if got.Valid {
		t.Fatal("Validate() admitted content it could not read")
	}
	if got.Reason != ReasonValidationError {
		t.Fatalf("reason = %s, want %s", got.Reason, ReasonValidationError)
	}
	if got.Risk != RiskHigh {
		t.Fatalf("risk = %s, want HIGH", got.Risk)
	}
}

func TestValidatePolicyLimits(t *testing.T) {
	content := []byte("plain enough")

	t.Run("type not allowed", func(t *testing.T) {
		v := New(Policy{AllowedTypes: []string{"application/pdf"}})
		got := v.Validate(context.Background(), Input{
			Content:      bytes.NewReader(content),
			DeclaredType: "text/plain",
			Filename:     "notes.txt",
			ReportedSize: int64(len(content)),
		})
		if got.Valid || got.Reason != ReasonTypeNotAllowed {
			t.Fatalf("got valid=%v reason=%s, want rejection %s", got.Valid, got.Reason, ReasonTypeNotAllowed)
		}
	})

	t.Run("reported size over limit", func(t *testing.T) {
		v := New(Policy{MaxContentBytes: 8})
		got := v.Validate(context.Background(), Input{
			Content:      bytes.NewReader(content),
			DeclaredType: "text/plain",
			Filename:     "notes.txt",
			ReportedSize: 9,
		})
		if got.Valid || got.Reason != ReasonContentTooLarge {
			t.Fatalf("got valid=%v reason=%s, want rejection %s", got.Valid, got.Reason, ReasonContentTooLarge)
		}
	})
}

func TestValidateBytesScansPastHeaderWindow(t *testing.T) {
	docx := "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// Macro indicator placed well past the 1 KiB header window.
	content := append([]byte{0x50, 0x4B, 0x03, 0x04}, bytes.Repeat([]byte{'0'}, 2048)...)
	content = append(content, []byte("vbaProject.bin")...)

	v := New(Policy{})
	got := v.ValidateBytes(context.Background(), content, docx, "memo.docx", int64(len(content)))

	if got.Valid {
		t.Fatal("ValidateBytes() missed a macro indicator beyond the header window")
	}
	if got.Reason != ReasonEmbeddedExecutable {
		t.Fatalf("reason = %s, want %s", got.Reason, ReasonEmbeddedExecutable)
	}
}

func TestLoadPolicy(t *testing.T) {
	t.Run("empty path yields zero policy", func(t *testing.T) {
		p, err := LoadPolicy("")
		if err != nil {
			t.Fatalf("LoadPolicy() error = %v", err)
		}
		if p.maxContentBytes() != defaultMaxContentBytes {
			t.Fatalf("max bytes = %d, want default", p.maxContentBytes())
		}
		if p.tolerance() != sizeTolerance {
			t.Fatalf("tolerance = %d, want default", p.tolerance())
		}
	})

	t.Run("missing file is an error", func(t *testing.T) {
		if _, err := LoadPolicy("/does/not/exist.yaml"); err == nil {
			t.Fatal("LoadPolicy() expected error for missing file")
		}
	})
}
