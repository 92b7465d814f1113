package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/stashapp/stego/pkg/logger"
	"github.com/stashapp/stego/pkg/stego"
)

var errForbidden = errors.New("admin PIN required")

const maxUploadMemory = 32 << 20 // 32MB held in memory; the rest spills to a temp file

// postValidate accepts a multipart upload, runs ValidateFile against a
// spooled copy, persists the report, and returns it as JSON.
func (h *RESTHandler) postValidate(w http.ResponseWriter, r *http.Request) {
	tmpPath, originalName, err := spoolUpload(r, "file")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	defer os.Remove(tmpPath)

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	report, err := stego.ValidateFile(ctx, tmpPath, originalName)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	hash, err := stego.CalculateFileHash(tmpPath)
	if err != nil {
		logger.Warnf("api: hashing %s failed: %v", originalName, err)
	} else if h.history != nil {
		if err := h.history.Save(ctx, hash, originalName, report); err != nil {
			logger.Warnf("api: saving report history for %s failed: %v", hash, err)
		}
	}

	h.progress.publish(fmt.Sprintf("validated %s", originalName))

	respondJSON(w, http.StatusOK, report)
}

// postSanitize accepts a multipart upload, sanitizes it, and streams the
// sanitized file back.
func (h *RESTHandler) postSanitize(w http.ResponseWriter, r *http.Request) {
	tmpPath, originalName, err := spoolUpload(r, "file")
	if err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	defer os.Remove(tmpPath)

	outPath := filepath.Join(h.cfg.SanitizedOutDir, originalName+".sanitized.jpg")
	if err := os.MkdirAll(h.cfg.SanitizedOutDir, 0o755); err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	ok, err := stego.SanitizeImage(tmpPath, outPath)
	if err != nil || !ok {
		respondError(w, http.StatusUnprocessableEntity, fmt.Errorf("sanitize failed: %w", err))
		return
	}
	defer os.Remove(outPath)

	w.Header().Set("Content-Type", "image/jpeg")
	f, err := os.Open(outPath)
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	defer f.Close()
	if _, err := io.Copy(w, f); err != nil {
		logger.Warnf("api: streaming sanitized file failed: %v", err)
	}
}

// getReport looks up a previously computed report by its file hash.
func (h *RESTHandler) getReport(w http.ResponseWriter, r *http.Request) {
	hash := chi.URLParam(r, "hash")
	if h.history == nil {
		respondError(w, http.StatusNotImplemented, errors.New("report history not configured"))
		return
	}
	record, err := h.history.Get(r.Context(), hash)
	if err != nil {
		respondError(w, http.StatusNotFound, err)
		return
	}
	respondJSON(w, http.StatusOK, record)
}

// postRescan is admin-only. It does not re-validate anything: a report's
// source file cannot be recovered from history alone, so this endpoint
// marks every stored entry stale for client-driven re-upload.
func (h *RESTHandler) postRescan(w http.ResponseWriter, r *http.Request) {
	if h.history == nil {
		respondError(w, http.StatusNotImplemented, errors.New("report history not configured"))
		return
	}
	count, err := h.history.MarkAllStale(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"marked_stale": count})
}

func spoolUpload(r *http.Request, field string) (tmpPath, originalName string, err error) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		return "", "", fmt.Errorf("parsing upload: %w", err)
	}
	file, header, err := r.FormFile(field)
	if err != nil {
		return "", "", fmt.Errorf("reading form file %q: %w", field, err)
	}
	defer file.Close()

	tmp, err := os.CreateTemp("", "stego-upload-*")
	if err != nil {
		return "", "", fmt.Errorf("creating temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, file); err != nil {
		os.Remove(tmp.Name())
		return "", "", fmt.Errorf("spooling upload: %w", err)
	}

	return tmp.Name(), header.Filename, nil
}
