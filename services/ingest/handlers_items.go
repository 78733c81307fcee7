package ingest

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"redactd/pkg/sanitize"
)

const (
	uploadMemoryLimit = 32 << 20
	downloadURLExpiry = 15 * time.Minute
)

func (a *API) handleUpload(w http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err)
		return
	}
	if a.store.S3 == nil {
		respondError(w, http.StatusFailedDependency, errors.New("s3 client not configured"))
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(uploadMemoryLimit); err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("parse multipart form: %w", err))
		return
	}

	projectID, err := uuid.Parse(strings.TrimSpace(r.FormValue("project_id")))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid project_id is required"))
		return
	}
	policyID := strings.TrimSpace(r.FormValue("policy_id"))
	process, _ := strconv.ParseBool(r.FormValue("process"))

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("file part is required"))
		return
	}
	defer file.Close()

	// Free-text metadata goes through the sanitizer before anything touches
	// the store; a violation rejects the request outright.
	name, err := sanitize.Text(r.FormValue("name"), sanitize.TextOptions{
		MaxLength:         200,
		AllowSpecialChars: true,
	})
	if err != nil {
		respondError(w, errorStatus(err), err)
		return
	}

	safeFilename := sanitize.Filename(header.Filename)
	if name == "" {
		name = safeFilename
	}

	declaredType := header.Header.Get("Content-Type")
	if declaredType == "" {
		declaredType = "application/octet-stream"
	}

	reportedSize := header.Size
	if raw := strings.TrimSpace(r.FormValue("reported_size_bytes")); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			reportedSize = parsed
		}
	}

	content, err := io.ReadAll(file)
	if err != nil {
		respondError(w, http.StatusBadRequest, fmt.Errorf("read upload: %w", err))
		return
	}

	ctx := r.Context()

	// The validator sees the original filename; only the sanitized one is
	// ever persisted or used as a storage key component.
	verdict := a.validator.ValidateBytes(ctx, content, declaredType, header.Filename, reportedSize)
	if !verdict.Valid {
		uploadsRejected.WithLabelValues(string(verdict.Reason)).Inc()
		a.auditor.Record(ctx, principal.String(), "upload_rejected", projectID.String(), map[string]any{
			"reason":   string(verdict.Reason),
			"risk":     verdict.Risk.String(),
			"filename": safeFilename,
			"details":  verdict.Details,
		})
		respondJSON(w, http.StatusUnprocessableEntity, map[string]any{"verdict": verdict})
		return
	}

	key := fmt.Sprintf("projects/%s/%s%s", projectID, uuid.New(), filepath.Ext(safeFilename))
	if err := a.store.S3.PutObject(ctx, a.config.ContentBucket, key, bytes.NewReader(content), int64(len(content)), verdict.ContentHash); err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Errorf("stage content: %w", err))
		return
	}

	item, job, err := a.lifecycle.CreateItem(ctx, CreateInput{
		ProjectID:          projectID,
		PrincipalID:        principal,
		PolicyID:           policyID,
		Name:               name,
		SanitizedFilename:  safeFilename,
		DeclaredType:       declaredType,
		SizeBytes:          int64(len(content)),
		StoragePath:        key,
		ContentHash:        verdict.ContentHash,
		ProcessImmediately: process,
	})
	if err != nil {
		respondError(w, errorStatus(err), err)
		return
	}

	uploadsAdmitted.Inc()
	a.auditor.Record(ctx, principal.String(), "item_created", item.ID.String(), map[string]any{
		"project_id":    projectID.String(),
		"detected_type": verdict.DetectedType,
		"content_hash":  verdict.ContentHash,
		"queued":        job != nil,
	})

	payload := map[string]any{"item": item}
	if job != nil {
		payload["job"] = job
	}
	respondJSON(w, http.StatusCreated, payload)
}

func (a *API) handleListItems(w http.ResponseWriter, r *http.Request) {
	principal, err := principalID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err)
		return
	}

	filter := ItemFilter{OwnerID: principal}
	if raw := strings.TrimSpace(r.URL.Query().Get("project_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, errors.New("invalid project_id"))
			return
		}
		filter.ProjectID = id
	}
	filter.Status = strings.TrimSpace(r.URL.Query().Get("status"))
	if raw := r.URL.Query().Get("limit"); raw != "" {
		filter.Limit, _ = strconv.Atoi(raw)
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		filter.Offset, _ = strconv.Atoi(raw)
	}

	items, err := a.lifecycle.List(r.Context(), filter)
	if err != nil {
		respondError(w, errorStatus(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"items": items})
}

func (a *API) handleGetItem(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := a.itemRequest(w, r)
	if !ok {
		return
	}
	item, err := a.lifecycle.Get(r.Context(), id, principal)
	if err != nil {
		respondError(w, errorStatus(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"item": item})
}

func (a *API) handleItemJobs(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := a.itemRequest(w, r)
	if !ok {
		return
	}
	jobs, err := a.lifecycle.Jobs(r.Context(), id, principal)
	if err != nil {
		respondError(w, errorStatus(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"jobs": jobs})
}

func (a *API) handleItemProgress(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := a.itemRequest(w, r)
	if !ok {
		return
	}
	progress, err := a.lifecycle.Progress(r.Context(), id, principal)
	if err != nil {
		respondError(w, errorStatus(err), err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"progress": progress})
}

func (a *API) handleDownload(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := a.itemRequest(w, r)
	if !ok {
		return
	}
	if a.store.S3 == nil {
		respondError(w, http.StatusFailedDependency, errors.New("s3 client not configured"))
		return
	}

	item, err := a.lifecycle.Get(r.Context(), id, principal)
	if err != nil {
		respondError(w, errorStatus(err), err)
		return
	}

	url, err := a.store.S3.PresignGet(r.Context(), a.config.ContentBucket, item.StoragePath, downloadURLExpiry)
	if err != nil {
		respondError(w, http.StatusInternalServerError, fmt.Errorf("presign get: %w", err))
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"download_url": url})
}

func (a *API) handleRetry(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := a.itemRequest(w, r)
	if !ok {
		return
	}
	policyID := strings.TrimSpace(r.URL.Query().Get("policy_id"))

	item, job, err := a.lifecycle.Retry(r.Context(), id, principal, policyID)
	if err != nil {
		respondError(w, errorStatus(err), err)
		return
	}

	retriesTotal.Inc()
	a.auditor.Record(r.Context(), principal.String(), "item_retried", item.ID.String(), map[string]any{
		"job_id":   job.ID.String(),
		"metadata": job.Metadata,
	})
	respondJSON(w, http.StatusOK, map[string]any{"item": item, "job": job})
}

func (a *API) handleDeleteItem(w http.ResponseWriter, r *http.Request) {
	principal, id, ok := a.itemRequest(w, r)
	if !ok {
		return
	}

	if err := a.lifecycle.SoftDelete(r.Context(), id, principal); err != nil {
		respondError(w, errorStatus(err), err)
		return
	}

	a.auditor.Record(r.Context(), principal.String(), "item_deleted", id.String(), nil)
	respondJSON(w, http.StatusOK, map[string]any{"status": ItemCancelled})
}

func (a *API) itemRequest(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	principal, err := principalID(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, err)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, errors.New("valid item id is required"))
		return uuid.Nil, uuid.Nil, false
	}
	return principal, id, true
}
