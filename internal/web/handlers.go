package web

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/modelcsv/internal/core"
	"github.com/JonMunkholm/modelcsv/internal/logging"
	"github.com/JonMunkholm/modelcsv/internal/web/templates"
)

// multipartMemory is how much of a multipart upload is held in memory before
// spilling to temporary files.
const multipartMemory = 8 << 20

// ============================================================================
// Pages
// ============================================================================

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	docs, err := s.service.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, templates.Page("Documents", templates.DocumentList(docs)))
}

func (s *Server) handleDocumentPage(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	render(w, r, templates.Page(doc.Name, templates.DocumentDetail(doc)))
}

// handleHealth reports import capacity. It bypasses the request timeout.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, struct {
		Status  string                   `json:"status"`
		Imports core.ImportLimiterStatus `json:"imports"`
	}{
		Status:  "ok",
		Imports: s.service.Limiter().Status(),
	})
}

// ============================================================================
// API
// ============================================================================

// handleImport stores an uploaded model file. The file is taken from the
// multipart "file" field, or from the raw request body otherwise.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	body, name, cleanup, err := s.uploadSource(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cleanup()

	ctx := WithRequestMetadata(r.Context(), r)
	info, err := s.service.Import(ctx, name, body)
	if err != nil {
		s.respondError(w, r, uploadError(err))
		return
	}

	if !wantsJSON(r) {
		http.Redirect(w, r, "/documents/"+info.ID, http.StatusSeeOther)
		return
	}
	w.Header().Set("Location", "/api/documents/"+info.ID)
	writeJSON(w, r, http.StatusCreated, info)
}

// handleParse decodes an uploaded file without storing it.
func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	body, _, cleanup, err := s.uploadSource(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	defer cleanup()

	doc, err := s.service.Parse(r.Context(), body)
	if err != nil {
		s.respondError(w, r, uploadError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, doc.View())
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	docs, err := s.service.List(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if docs == nil {
		docs = []core.DocumentInfo{}
	}
	writeJSON(w, r, http.StatusOK, docs)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	doc, err := s.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, doc.View())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "text/csv; charset=utf-8", ".csv", s.service.ExportCSV)
}

func (s *Server) handleExportArrow(w http.ResponseWriter, r *http.Request) {
	s.export(w, r, "application/vnd.apache.arrow.stream", ".arrow", s.service.ExportArrow)
}

// export streams a document download. The document is looked up first so
// a missing id still gets a proper error response.
func (s *Server) export(w http.ResponseWriter, r *http.Request, contentType, ext string,
	write func(ctx context.Context, id string, w io.Writer) error) {
	id := chi.URLParam(r, "id")
	doc, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+downloadName(doc.Name, ext)+`"`)
	if err := write(r.Context(), id, w); err != nil {
		// Headers are gone; all that is left is to log.
		logging.FromContext(r.Context()).Error("export failed", "id", id, "error", err)
	}
}

// updateElementRequest is the body of PUT /api/documents/{id}/elements/{role}/{index}.
type updateElementRequest struct {
	Attribute string `json:"attribute"`
	Value     string `json:"value"`
}

func (s *Server) handleUpdateElement(w http.ResponseWriter, r *http.Request) {
	isInput, ok := core.ParseRole(chi.URLParam(r, "role"))
	if !ok {
		s.badRequest(w, r, "role must be input or output")
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.badRequest(w, r, "index must be an integer")
		return
	}

	var req updateElementRequest
	if err := decodeJSON(r, &req); err != nil {
		s.badRequest(w, r, "invalid request body")
		return
	}
	if req.Attribute == "" {
		s.badRequest(w, r, "attribute is required")
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	doc, err := s.service.UpdateElement(ctx, chi.URLParam(r, "id"), isInput, index, req.Attribute, req.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, doc.View())
}

// handleAudit lists audit entries. Query parameters: document, action,
// since (RFC 3339), limit and offset.
func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	s.audit(w, r, r.URL.Query().Get("document"))
}

func (s *Server) handleDocumentAudit(w http.ResponseWriter, r *http.Request) {
	s.audit(w, r, chi.URLParam(r, "id"))
}

func (s *Server) audit(w http.ResponseWriter, r *http.Request, documentID string) {
	filter, msg := auditFilter(r.URL.Query())
	if msg != "" {
		s.badRequest(w, r, msg)
		return
	}
	filter.DocumentID = documentID

	entries, err := s.service.AuditLog(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []core.AuditEntry{}
	}
	writeJSON(w, r, http.StatusOK, entries)
}

// auditFilter parses the audit query parameters. msg describes the first
// invalid parameter.
func auditFilter(q url.Values) (filter core.AuditFilter, msg string) {
	if v := q.Get("action"); v != "" {
		a, ok := core.ParseAuditAction(v)
		if !ok {
			return filter, "action must be import, element_update or delete"
		}
		filter.Action = a
	}
	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return filter, "since must be an RFC 3339 timestamp"
		}
		filter.Since = t
	}
	var ok bool
	if filter.Limit, ok = intParam(q, "limit"); !ok {
		return filter, "limit must be a non-negative integer"
	}
	if filter.Offset, ok = intParam(q, "offset"); !ok {
		return filter, "offset must be a non-negative integer"
	}
	return filter, ""
}

func intParam(q url.Values, name string) (int, bool) {
	v := q.Get(name)
	if v == "" {
		return 0, true
	}
	n, err := strconv.Atoi(v)
	return n, err == nil && n >= 0
}

// ============================================================================
// Helpers
// ============================================================================

// uploadSource returns the uploaded file and its display name. cleanup must
// be called once the body has been consumed.
func (s *Server) uploadSource(w http.ResponseWriter, r *http.Request) (io.Reader, string, func(), error) {
	// Leave room for multipart framing around a file of the maximum size.
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Import.MaxFileSize+multipartMemory)
	noop := func() {}

	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(ct, "multipart/form-data") {
		name := r.URL.Query().Get("name")
		if name == "" {
			name = "upload.csv"
		}
		return r.Body, name, noop, nil
	}

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		return nil, "", noop, uploadError(err)
	}
	cleanup := func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		cleanup()
		if errors.Is(err, http.ErrMissingFile) {
			return nil, "", noop, core.ErrNoFile
		}
		return nil, "", noop, uploadError(err)
	}

	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		name = filepath.Base(header.Filename)
	}
	return file, name, func() { closeFile(file); cleanup() }, nil
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func closeFile(f multipart.File) {
	_ = f.Close()
}

// uploadError converts a body size overflow into core.ErrFileTooLarge.
func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return core.ErrFileTooLarge
	}
	return err
}

// downloadName turns a document name into a safe attachment file name.
func downloadName(name, ext string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			return r
		}
		return '_'
	}, base)
	if base == "" || base == "." {
		base = "document"
	}
	return base + ext
}

// clientIP is the address part of RemoteAddr.
func clientIP(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
