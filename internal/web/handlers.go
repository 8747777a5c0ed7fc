package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/importer"
	"github.com/JonMunkholm/translocations/internal/schema"
)

// maxJSONBody bounds create and update payloads.
const maxJSONBody = 1 << 20

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": "Wildlife Conservation Dashboard API"})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]any{
		"status":  "ok",
		"imports": s.service.Limiter().Status(),
	}
	if err := s.service.Ping(r.Context()); err != nil {
		status["status"] = "unavailable"
		status["error"] = err.Error()
		writeJSONStatus(w, http.StatusServiceUnavailable, status)
		return
	}
	writeJSON(w, status)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	recs, err := s.service.List(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, recs)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.service.Stats(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, stats)
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.service.Create(r.Context(), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, rec)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	in, err := decodeInput(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	rec, err := s.service.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.service.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]string{"message": "Translocation deleted successfully"})
}

func (s *Server) handleAudit(w http.ResponseWriter, r *http.Request) {
	f, err := parseAuditFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, s.service.Audit(f))
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	s.serveImport(w, r, s.service.Import)
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	s.serveImport(w, r, s.service.PreviewImport)
}

type importFunc func(ctx context.Context, fileName string, data []byte) (*importer.Summary, error)

func (s *Server) serveImport(w http.ResponseWriter, r *http.Request, run importFunc) {
	fileName, data, err := s.readUpload(w, r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	summary, err := run(r.Context(), fileName, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, summary)
}

// readUpload reads the multipart "file" field. The extension is checked
// before the body is read so unsupported files fail fast.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, error) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+1<<20)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return "", nil, fmt.Errorf("%w: %w", errBadUpload, err)
	}

	file, header, err := r.FormFile("file")
	if errors.Is(err, http.ErrMissingFile) {
		return "", nil, errNoFile
	}
	if err != nil {
		return "", nil, fmt.Errorf("%w: %w", errBadUpload, err)
	}
	defer file.Close()

	if _, err := importer.DetectFormat(header.Filename); err != nil {
		return "", nil, err
	}

	data, err := io.ReadAll(io.LimitReader(file, maxSize+1))
	if err != nil {
		return "", nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) > maxSize {
		return "", nil, fmt.Errorf("%w: %s exceeds %d bytes", importer.ErrFileTooLarge, header.Filename, maxSize)
	}
	return header.Filename, data, nil
}

func decodeInput(w http.ResponseWriter, r *http.Request) (schema.TranslocationInput, error) {
	var in schema.TranslocationInput

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&in); err != nil {
		return in, fmt.Errorf("%w: %w", errInvalidBody, err)
	}
	return in, nil
}

// parseAuditFilter reads action, since (RFC 3339) and limit. limit
// defaults to 100.
func parseAuditFilter(r *http.Request) (core.AuditFilter, error) {
	q := r.URL.Query()
	f := core.AuditFilter{Action: core.AuditAction(q.Get("action")), Limit: 100}

	if v := q.Get("since"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return f, fmt.Errorf("%w: filter: since %q is not an RFC 3339 time", core.ErrInvalidRecord, v)
		}
		f.Since = t
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return f, fmt.Errorf("%w: filter: limit %q must be a positive number", core.ErrInvalidRecord, v)
		}
		f.Limit = n
	}
	return f, nil
}

// parseFilter reads the list query. special_project also accepts the
// camelCase specialProject used by older dashboards.
func parseFilter(r *http.Request) (schema.Filter, error) {
	q := r.URL.Query()
	var f schema.Filter

	if v := q.Get("species"); v != "" {
		sp, err := schema.ParseSpecies(v)
		if err != nil {
			return f, fmt.Errorf("%w: filter: %v", core.ErrInvalidRecord, err)
		}
		f.Species = sp
	}
	if v := q.Get("year"); v != "" {
		year, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return f, fmt.Errorf("%w: filter: year %q is not a number", core.ErrInvalidRecord, v)
		}
		f.Year = year
	}
	if v := q.Get("transport"); v != "" {
		t, err := schema.ParseTransport(v)
		if err != nil {
			return f, fmt.Errorf("%w: filter: %v", core.ErrInvalidRecord, err)
		}
		f.Transport = t
	}

	sp := q.Get("special_project")
	if sp == "" {
		sp = q.Get("specialProject")
	}
	if sp != "" {
		p, err := schema.ParseSpecialProject(sp)
		if err != nil {
			return f, fmt.Errorf("%w: filter: %v", core.ErrInvalidRecord, err)
		}
		f.SpecialProject = p
	}
	return f, nil
}
