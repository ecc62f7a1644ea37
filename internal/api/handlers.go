package api

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/marcus-grant/depo/internal/apperr"
	"github.com/marcus-grant/depo/internal/ingest"
	"github.com/marcus-grant/depo/internal/models"
	"github.com/marcus-grant/depo/internal/selector"
)

// Handler holds the route handlers and their collaborators.
type Handler struct {
	orch    *ingest.Orchestrator
	sel     *selector.Selector
	maxBody int64
}

// NewHandler creates route handlers bound to the write and read paths.
func NewHandler(orch *ingest.Orchestrator, sel *selector.Selector, maxBodyBytes int64) *Handler {
	return &Handler{orch: orch, sel: sel, maxBody: maxBodyBytes}
}

// Upload handles POST /upload and POST /.
//
// One of three request shapes, checked in order: an explicit link via
// the url query or form value, a multipart "file" field, or the raw
// request body. An optional format query value overrides classification.
// Responds with the short code as plain text: 201 when created, 200 on
// a dedup hit.
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	// One byte of slack so an at-limit payload reaches the service's own
	// size check instead of tripping MaxBytesReader.
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody+1)

	req, ok := h.parseUpload(w, r)
	if !ok {
		return
	}

	result, err := h.orch.Ingest(r.Context(), req)
	if err != nil {
		writeIngestError(w, err)
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("X-Depo-Code", result.Item.Code)
	w.Header().Set("X-Depo-Kind", string(result.Item.Kind))
	w.Header().Set("X-Depo-Created", boolString(result.Created))
	w.WriteHeader(status)
	_, _ = io.WriteString(w, result.Item.Code)
}

func (h *Handler) parseUpload(w http.ResponseWriter, r *http.Request) (ingest.Request, bool) {
	req := ingest.Request{Visibility: visibilityParam(r)}
	if f, ok := models.ParseFormat(r.URL.Query().Get("format")); ok {
		req.RequestedFormat = f
	}

	if u := r.URL.Query().Get("url"); u != "" {
		req.LinkURL = u
		return req, true
	}

	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxBody); err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
			return ingest.Request{}, false
		}
		if u := r.FormValue("url"); u != "" {
			req.LinkURL = u
			return req, true
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("missing 'file' field in multipart form"))
			return ingest.Request{}, false
		}
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("failed to read file"))
			return ingest.Request{}, false
		}
		req.PayloadBytes = data
		req.Filename = header.Filename
		req.DeclaredMIME = header.Header.Get("Content-Type")
		return req, true
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload too large"))
		return ingest.Request{}, false
	}
	req.PayloadBytes = body
	req.DeclaredMIME = ct
	return req, true
}

// Raw handles GET /{code}: the payload bytes with their MIME type, or a
// redirect for link items.
func (h *Handler) Raw(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rc, item, err := h.sel.GetRaw(r.Context(), code)
	if err != nil {
		writeLookupError(w, code, err)
		return
	}
	if rc == nil {
		http.Redirect(w, r, item.Link.URL, http.StatusFound)
		return
	}
	defer rc.Close()

	format, _ := item.PayloadFormat()
	mime, err := models.MIMEForFormat(format)
	if err != nil {
		mime = "application/octet-stream"
	}
	w.Header().Set("Content-Type", mime)
	if _, err := io.Copy(w, rc); err != nil {
		slog.Error("raw: stream failed", slog.String("code", item.Code), slog.String("error", err.Error()))
	}
}

// Info handles GET /{code}/info: the item metadata as JSON.
func (h *Handler) Info(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	item, err := h.sel.GetInfo(r.Context(), code)
	if err != nil {
		writeLookupError(w, code, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func writeIngestError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("payload too large"))
	case errors.Is(err, apperr.ErrValidation),
		errors.Is(err, apperr.ErrUnclassified),
		errors.Is(err, apperr.ErrImageDecode):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	default:
		slog.Error("upload failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func writeLookupError(w http.ResponseWriter, code string, err error) {
	switch {
	case errors.Is(err, apperr.ErrValidation):
		writeJSON(w, http.StatusBadRequest, errorBody("invalid code"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	default:
		slog.Error("lookup failed", slog.String("code", code), slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}

func visibilityParam(r *http.Request) models.Visibility {
	if v, ok := models.ParseVisibility(r.URL.Query().Get("perm")); ok {
		return v
	}
	return models.VisibilityPublic
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
