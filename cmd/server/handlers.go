package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"time"

	emrdash "github.com/simerusm/emr-dashboard"
)

// maxUploadBytes caps the multipart upload size (50 MB).
const maxUploadBytes = 50 << 20

// analyzeTimeout bounds one pipeline invocation end to end.
const analyzeTimeout = 15 * time.Minute

type handler struct {
	analyzer emrdash.Analyzer
}

func newHandler(a emrdash.Analyzer) *handler {
	return &handler{analyzer: a}
}

// POST /analyze
// Multipart upload ("file" part, optional "fileId" form value). Returns
// {fileId, data} on success or {error} with a non-2xx status.
func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	data, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	var opts []emrdash.AnalyzeOption
	if id := r.FormValue("fileId"); id != "" {
		opts = append(opts, emrdash.WithFileID(id))
	}

	result, err := h.analyzer.Analyze(ctx, data, filename, opts...)
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// POST /correct
// Same upload contract; returns the flat correction surface
// {fileId, original_text, cleaned_text}.
func (h *handler) handleCorrect(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), analyzeTimeout)
	defer cancel()

	data, filename, ok := h.readUpload(w, r)
	if !ok {
		return
	}

	result, err := h.analyzer.CorrectPlain(ctx, data, filename)
	if err != nil {
		writeAnalyzeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// GET /health
func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readUpload pulls the "file" part fully into memory. The pipeline never
// touches disk; uploads live only for the invocation.
func (h *handler) readUpload(w http.ResponseWriter, r *http.Request) (data []byte, filename string, ok bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "expected multipart upload with a 'file' part")
		return nil, "", false
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file part in the request")
		return nil, "", false
	}
	defer file.Close()

	if header.Filename == "" {
		writeError(w, http.StatusBadRequest, "no file selected")
		return nil, "", false
	}

	data, err = io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		slog.Error("reading upload", "error", err)
		return nil, "", false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, "uploaded file is empty")
		return nil, "", false
	}

	// Path separators in declared filenames are clients misbehaving.
	return data, filepath.Base(header.Filename), true
}

// writeAnalyzeError maps pipeline error categories onto HTTP statuses. The
// body carries the full error text, which names the failing stage category.
func writeAnalyzeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, emrdash.ErrUnsupportedFormat):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, emrdash.ErrExtraction):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, emrdash.ErrCorrection):
		status = http.StatusBadGateway
	}
	writeError(w, status, err.Error())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encoding response", "error", err)
	}
}
