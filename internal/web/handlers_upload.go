package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/slate/internal/core"
	"github.com/JonMunkholm/slate/internal/web/templates"
)

// handleUpload ingests exactly one file from the multipart field "file".
// Optional form fields: type (roster|projections|analysis) and sport.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	limit := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartMemory)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.respondError(w, r, fmt.Errorf("%w: exceeds %d bytes", core.ErrFileTooLarge, limit))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %w", errBadRequestBody, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	files := r.MultipartForm.File["file"]
	switch {
	case len(files) == 0:
		s.respondError(w, r, errNoFile)
		return
	case len(files) > 1:
		s.respondError(w, r, errMultipleFiles)
		return
	}
	header := files[0]
	if header.Size > limit {
		s.respondError(w, r, fmt.Errorf("%w: %d bytes exceeds %d", core.ErrFileTooLarge, header.Size, limit))
		return
	}

	f, err := header.Open()
	if err != nil {
		s.respondError(w, r, fmt.Errorf("open upload: %w", err))
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	result, err := s.service.Ingest(r.Context(), core.IngestRequest{
		Filename: header.Filename,
		Data:     data,
		Type:     r.FormValue("type"),
		Sport:    r.FormValue("sport"),
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if isHTMX(r) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = templates.UploadSummary(result.FileName, result.Merged, result.Dropped).Render(r.Context(), w)
		return
	}
	writeJSONStatus(w, http.StatusCreated, result)
}

func (s *Server) handleListUploads(w http.ResponseWriter, r *http.Request) {
	uploads, err := s.service.ListUploads(r.Context(), parseIntParam(r, "limit", core.DefaultLedgerListLimit))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"uploads": uploads})
}

func (s *Server) handleGetUpload(w http.ResponseWriter, r *http.Request) {
	upload, err := s.service.GetUpload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, upload)
}

func (s *Server) handleDeleteUpload(w http.ResponseWriter, r *http.Request) {
	if err := s.service.RemoveUpload(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
