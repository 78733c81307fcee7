package ingest

import "testing"

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("S3_BUCKET", "redactd-content")
	t.Setenv("REDACTD_ADDR", "")
	t.Setenv("REDACTD_POLICY_FILE", "")
	t.Setenv("REDACTD_MAX_UPLOAD_BYTES", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":8080" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.ContentBucket != "redactd-content" {
		t.Errorf("bucket = %q", cfg.ContentBucket)
	}
	if cfg.MaxUploadBytes != defaultMaxUploadBytes {
		t.Errorf("max upload bytes = %d", cfg.MaxUploadBytes)
	}
}

func TestLoadConfigRequiresBucket(t *testing.T) {
	t.Setenv("S3_BUCKET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error when S3_BUCKET is unset")
	}
}

func TestLoadConfigRejectsBadUploadLimit(t *testing.T) {
	t.Setenv("S3_BUCKET", "redactd-content")

	for _, raw := range []string{"abc", "-1", "0"} {
		t.Setenv("REDACTD_MAX_UPLOAD_BYTES", raw)
		if _, err := LoadConfig(); err == nil {
			t.Errorf("expected error for limit %q", raw)
		}
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("S3_BUCKET", "redactd-content")
	t.Setenv("REDACTD_ADDR", ":9090")
	t.Setenv("REDACTD_MAX_UPLOAD_BYTES", "1048576")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Addr != ":9090" {
		t.Errorf("addr = %q", cfg.Addr)
	}
	if cfg.MaxUploadBytes != 1<<20 {
		t.Errorf("max upload bytes = %d", cfg.MaxUploadBytes)
	}
}
