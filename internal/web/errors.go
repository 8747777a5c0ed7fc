package web

// errors.go turns service errors into JSON responses.
//
// Every error is logged with the request id and the technical message, and
// the client receives the catalogued user message from core.MapError. The
// "detail" field carries the same message for clients written against the
// earlier API.

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/translocations/internal/core"
	"github.com/JonMunkholm/translocations/internal/importer"
	"github.com/JonMunkholm/translocations/internal/logging"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Detail  string   `json:"detail"`
	Message string   `json:"message"`
	Action  string   `json:"action,omitempty"`
	Code    string   `json:"code"`
	Fields  []string `json:"fields,omitempty"`

	// AvailableColumns lists the file's headers when required columns are missing.
	AvailableColumns []string `json:"available_columns,omitempty"`
}

var (
	errNoFile      = errors.New("no file provided")
	errBadUpload   = errors.New("malformed multipart upload")
	errInvalidBody = fmt.Errorf("%w: request body is not valid JSON", core.ErrInvalidRecord)
	errRateLimited = core.MapError(errors.New("rate limit exceeded"))
)

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var (
		mce      *importer.MissingColumnsError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.As(err, &tooLarge), errors.Is(err, importer.ErrFileTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrInvalidRecord),
		errors.Is(err, importer.ErrUnsupportedFormat),
		errors.Is(err, importer.ErrEmptyFile),
		errors.As(err, &mce),
		errors.Is(err, errNoFile),
		errors.Is(err, errBadUpload):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes the mapped user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	userMsg := core.MapError(err)

	level := slog.LevelWarn
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	resp := newErrorResponse(userMsg)
	var verrs core.ValidationErrors
	if errors.As(err, &verrs) {
		for _, v := range verrs {
			resp.Fields = append(resp.Fields, v.Error())
		}
	}
	var mce *importer.MissingColumnsError
	if errors.As(err, &mce) {
		resp.Fields = mce.Missing
		resp.AvailableColumns = mce.Available
	}

	writeJSONStatus(w, status, resp)
}

func newErrorResponse(msg core.UserMessage) ErrorResponse {
	return ErrorResponse{
		Error:   msg.Message,
		Detail:  msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	}
}

// respondErrorJSON writes a catalogued message without logging.
func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, status int) {
	writeJSONStatus(w, status, newErrorResponse(msg))
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
