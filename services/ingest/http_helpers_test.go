package ingest

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"redactd/pkg/sanitize"
)

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("load item: %w", ErrNotFound), http.StatusNotFound},
		{ErrInvalidState, http.StatusConflict},
		{sanitize.ErrInvalidInput, http.StatusBadRequest},
		{fmt.Errorf("name: %w", sanitize.ErrInvalidInput), http.StatusBadRequest},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		if got := errorStatus(tc.err); got != tc.want {
			t.Errorf("errorStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}

func TestPrincipalID(t *testing.T) {
	want := uuid.New()

	r := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	r.Header.Set(principalHeader, want.String())

	got, err := principalID(r)
	if err != nil {
		t.Fatalf("principalID: %v", err)
	}
	if got != want {
		t.Fatalf("principal = %s, want %s", got, want)
	}
}

func TestPrincipalIDMissingHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	if _, err := principalID(r); err == nil {
		t.Fatal("expected error for missing header")
	}
}

func TestPrincipalIDMalformedHeader(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/v1/items", nil)
	r.Header.Set(principalHeader, "not-a-uuid")
	if _, err := principalID(r); err == nil {
		t.Fatal("expected error for malformed header")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := map[string]bool{
		ItemFailed:     true,
		ItemCancelled:  true,
		ItemUploaded:   false,
		ItemPending:    false,
		ItemProcessing: false,
		ItemCompleted:  false,
	}
	for status, want := range retryable {
		if got := isRetryable(status); got != want {
			t.Errorf("isRetryable(%s) = %v, want %v", status, got, want)
		}
	}
}
