package ingest

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config controls runtime behaviour for the ingest service.
type Config struct {
	// Addr is the HTTP listen address.
	Addr string

	// ContentBucket is the S3 bucket holding staged upload bytes.
	ContentBucket string

	// PolicyPath optionally points at a YAML validation policy file.
	PolicyPath string

	// MaxUploadBytes caps the multipart body before validation even starts.
	MaxUploadBytes int64
}

const defaultMaxUploadBytes = 200 << 20

// LoadConfig builds a Config from the environment.
func LoadConfig() (Config, error) {
	cfg := Config{
		Addr:           getEnv("REDACTD_ADDR", ":8080"),
		ContentBucket:  strings.TrimSpace(os.Getenv("S3_BUCKET")),
		PolicyPath:     strings.TrimSpace(os.Getenv("REDACTD_POLICY_FILE")),
		MaxUploadBytes: defaultMaxUploadBytes,
	}

	if cfg.ContentBucket == "" {
		return Config{}, fmt.Errorf("S3_BUCKET is required")
	}

	if raw := os.Getenv("REDACTD_MAX_UPLOAD_BYTES"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("invalid REDACTD_MAX_UPLOAD_BYTES: %q", raw)
		}
		cfg.MaxUploadBytes = limit
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
