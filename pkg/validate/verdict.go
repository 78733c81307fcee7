package validate

// Risk grades the severity of a validation outcome.
type Risk int

const (
	RiskNone Risk = iota
	RiskLow
	RiskMedium
	RiskHigh
	RiskCritical
)

func (r Risk) String() string {
	switch r {
	case RiskNone:
		return "NONE"
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	case RiskCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText lets Risk render as its name in JSON responses and audit records.
func (r Risk) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// Reason identifies why a file was rejected.
type Reason string

const (
	ReasonSignatureMismatch  Reason = "FILE_SIGNATURE_MISMATCH"
	ReasonSuspiciousContent  Reason = "SUSPICIOUS_CONTENT_DETECTED"
	ReasonInvalidFilename    Reason = "INVALID_FILENAME"
	ReasonEmbeddedExecutable Reason = "EMBEDDED_EXECUTABLE_DETECTED"
	ReasonSizeInconsistency  Reason = "FILE_SIZE_INCONSISTENCY"
	ReasonContentTooLarge    Reason = "FILE_TOO_LARGE"
	ReasonTypeNotAllowed     Reason = "FILE_TYPE_NOT_ALLOWED"
	ReasonValidationError    Reason = "VALIDATION_ERROR"
)

// Verdict is the result of one validation pass over an upload attempt. It is
// produced exactly once per attempt and never persisted here; the audit sink
// may log it.
type Verdict struct {
	Valid        bool   `json:"valid"`
	Reason       Reason `json:"reason,omitempty"`
	Risk         Risk   `json:"risk"`
	Details      string `json:"details,omitempty"`
	DetectedType string `json:"detected_type,omitempty"`
	ContentHash  string `json:"content_hash,omitempty"`
}

func reject(reason Reason, risk Risk, details string) Verdict {
	return Verdict{Valid: false, Reason: reason, Risk: risk, Details: details}
}
