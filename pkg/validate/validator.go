package validate

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Policy bounds what the validator will admit. The zero value applies the
// built-in defaults. A policy is constructed once at process start and never
// mutated afterwards.
type Policy struct {
	// MaxContentBytes rejects anything larger before deeper inspection.
	MaxContentBytes int64 `yaml:"max_content_bytes"`

	// AllowedTypes restricts declared MIME types. Empty means any type that
	// survives the signature and threat checks.
	AllowedTypes []string `yaml:"allowed_types"`

	// SizeToleranceBytes is the allowed drift between reported and actual
	// sizes. Zero means the 1 KiB default.
	SizeToleranceBytes int64 `yaml:"size_tolerance_bytes"`
}

const defaultMaxContentBytes = 100 << 20

// LoadPolicy reads a YAML policy file. A missing path returns the zero policy.
func LoadPolicy(path string) (Policy, error) {
	if path == "" {
		return Policy{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Policy{}, fmt.Errorf("read policy: %w", err)
	}
	var p Policy
	if err := yaml.Unmarshal(raw, &p); err != nil {
		return Policy{}, fmt.Errorf("parse policy: %w", err)
	}
	return p, nil
}

func (p Policy) maxContentBytes() int64 {
	if p.MaxContentBytes > 0 {
		return p.MaxContentBytes
	}
	return defaultMaxContentBytes
}

func (p Policy) tolerance() int64 {
	if p.SizeToleranceBytes > 0 {
		return p.SizeToleranceBytes
	}
	return sizeTolerance
}

func (p Policy) typeAllowed(declared string) bool {
	if len(p.AllowedTypes) == 0 {
		return true
	}
	for _, t := range p.AllowedTypes {
		if t == declared {
			return true
		}
	}
	return false
}

// Input describes one upload attempt. Content must deliver the exact bytes
// that will be stored; the verdict's hash is computed over it.
type Input struct {
	Content      io.Reader
	DeclaredType string
	Filename     string
	ReportedSize int64
}

// Validator sequences the scanner, size and policy checks, and content
// hashing into a single pass/fail verdict. Any internal read failure is
// fail-closed: the content is rejected rather than admitted uninspected.
type Validator struct {
	scanner *Scanner
	policy  Policy
}

// New returns a Validator enforcing the given policy.
func New(policy Policy) *Validator {
	return &Validator{scanner: NewScanner(), policy: policy}
}

// Validate inspects in fixed order: policy type allow-list, byte-level scans
// over the header window, full-content hash, and size consistency. It never
// panics past its boundary and never returns a valid verdict for content it
// could not fully read.
func (v *Validator) Validate(ctx context.Context, in Input) Verdict {
	if err := ctx.Err(); err != nil {
		return reject(ReasonValidationError, RiskHigh, "validation cancelled")
	}
	if in.Content == nil {
		return reject(ReasonValidationError, RiskHigh, "no content to validate")
	}

	if !v.policy.typeAllowed(in.DeclaredType) {
		return reject(ReasonTypeNotAllowed, RiskMedium,
			fmt.Sprintf("declared type %s is not permitted by policy", in.DeclaredType))
	}
	if in.ReportedSize > v.policy.maxContentBytes() {
		return reject(ReasonContentTooLarge, RiskMedium,
			fmt.Sprintf("reported size %d exceeds limit %d", in.ReportedSize, v.policy.maxContentBytes()))
	}

	header := make([]byte, headerWindow)
	n, err := io.ReadFull(in.Content, header)
	if err != nil && err != io.EOF && err != io.ErrUnexpectedEOF {
		return reject(ReasonValidationError, RiskHigh, "failed to read file header")
	}
	header = header[:n]

	// The office deep scan wants the whole buffer; everything else stops at
	// the header window. Reading the remainder also feeds the hash.
	hash := sha256.New()
	hash.Write(header)
	rest, err := io.Copy(hash, in.Content)
	if err != nil {
		return reject(ReasonValidationError, RiskHigh, "failed to read file content")
	}
	actualSize := int64(n) + rest

	if actualSize > v.policy.maxContentBytes() {
		return reject(ReasonContentTooLarge, RiskMedium,
			fmt.Sprintf("content size %d exceeds limit %d", actualSize, v.policy.maxContentBytes()))
	}

	if verdict := v.scanner.Scan(header, in.DeclaredType, in.Filename); !verdict.Valid {
		return verdict
	}

	if diff := in.ReportedSize - actualSize; diff > v.policy.tolerance() || diff < -v.policy.tolerance() {
		return reject(ReasonSizeInconsistency, RiskMedium,
			fmt.Sprintf("reported size %d disagrees with actual size %d", in.ReportedSize, actualSize))
	}

	return Verdict{
		Valid:        true,
		Risk:         RiskNone,
		DetectedType: detectType(header),
		ContentHash:  hex.EncodeToString(hash.Sum(nil)),
	}
}

// ValidateBytes is a convenience for callers that already buffered the
// content, which the office deep scan needs anyway.
func (v *Validator) ValidateBytes(ctx context.Context, content []byte, declaredType, filename string, reportedSize int64) Verdict {
	verdict := v.Validate(ctx, Input{
		Content:      bytes.NewReader(content),
		DeclaredType: declaredType,
		Filename:     filename,
		ReportedSize: reportedSize,
	})
	if !verdict.Valid {
		return verdict
	}

	// With the full buffer in hand, extend the container scan past the header
	// window; macro indicators rarely sit in the first kilobyte.
	if zipContainerTypes[declaredType] || oleContainerTypes[declaredType] {
		if deep := v.scanner.deepScanContainer(content, declaredType); !deep.Valid {
			return deep
		}
	}
	return verdict
}
