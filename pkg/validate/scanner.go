package validate

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Scanner classifies raw file bytes against a declared content type and looks
// for malicious indicators. It holds no mutable state and is safe for
// concurrent use.
type Scanner struct{}

// NewScanner returns a Scanner backed by the package's static tables.
func NewScanner() *Scanner {
	return &Scanner{}
}

// Scan runs the byte-level checks in fixed order, short-circuiting on the
// first failure: signature match, threat-pattern scan, filename check, and the
// container deep scan for office formats. Size consistency and hashing are the
// Validator's job.
func (s *Scanner) Scan(header []byte, declaredType, filename string) Verdict {
	if v := s.checkSignature(header, declaredType); !v.Valid {
		return v
	}
	if v := s.checkThreatPatterns(header); !v.Valid {
		return v
	}
	if v := s.checkFilename(filename); !v.Valid {
		return v
	}
	if v := s.deepScanContainer(header, declaredType); !v.Valid {
		return v
	}
	return Verdict{Valid: true, Risk: RiskNone}
}

func (s *Scanner) checkSignature(header []byte, declaredType string) Verdict {
	prefixes, ok := signatures[declaredType]
	if !ok {
		// Plain text, CSV, JSON and friends carry no magic bytes.
		return Verdict{Valid: true}
	}
	for _, prefix := range prefixes {
		if hasPrefix(header, prefix) {
			return Verdict{Valid: true}
		}
	}
	return reject(ReasonSignatureMismatch, RiskHigh,
		fmt.Sprintf("content does not match declared type %s", declaredType))
}

func (s *Scanner) checkThreatPatterns(header []byte) Verdict {
	window := header
	if len(window) > headerWindow {
		window = window[:headerWindow]
	}

	for _, p := range threatPatterns {
		if bytes.Contains(window, p.bytes) {
			return reject(ReasonSuspiciousContent, RiskCritical,
				fmt.Sprintf("%s marker found in file header", p.name))
		}
	}

	ascii := strings.ToLower(string(window))
	for _, kw := range scriptKeywords {
		if strings.Contains(ascii, kw) {
			return reject(ReasonSuspiciousContent, RiskCritical,
				fmt.Sprintf("script injection keyword %q found in file header", kw))
		}
	}

	return Verdict{Valid: true}
}

func (s *Scanner) checkFilename(name string) Verdict {
	if name == "" {
		return reject(ReasonInvalidFilename, RiskMedium, "empty filename")
	}
	if utf8.RuneCountInString(name) > maxFilenameLen {
		return reject(ReasonInvalidFilename, RiskMedium, "filename exceeds 255 characters")
	}
	if strings.ContainsRune(name, 0) {
		return reject(ReasonInvalidFilename, RiskMedium, "filename contains null byte")
	}
	if strings.Contains(name, "..") || strings.ContainsAny(name, "/\\") {
		return reject(ReasonInvalidFilename, RiskMedium, "filename contains path traversal sequence")
	}

	// Every dot-separated segment counts as an extension, so a payload hidden
	// behind a second extension is still caught.
	lower := strings.ToLower(name)
	for _, ext := range executableExtensions {
		if strings.HasSuffix(lower, ext) || strings.Contains(lower, ext+".") {
			return reject(ReasonInvalidFilename, RiskMedium,
				fmt.Sprintf("executable extension %s is not allowed", ext))
		}
	}

	return Verdict{Valid: true}
}

func (s *Scanner) deepScanContainer(content []byte, declaredType string) Verdict {
	if !zipContainerTypes[declaredType] && !oleContainerTypes[declaredType] {
		return Verdict{Valid: true}
	}

	ascii := strings.ToLower(string(content))
	for _, kw := range macroKeywords {
		if strings.Contains(ascii, kw) {
			return reject(ReasonEmbeddedExecutable, RiskHigh,
				fmt.Sprintf("macro indicator %q found in office container", kw))
		}
	}

	// A ZIP entry naming an executable means the document smuggles a binary.
	if strings.Contains(ascii, "pk") {
		for _, ext := range executableExtensions {
			if strings.Contains(ascii, ext) {
				return reject(ReasonEmbeddedExecutable, RiskHigh,
					fmt.Sprintf("embedded %s entry found in office container", ext))
			}
		}
	}

	return Verdict{Valid: true}
}
