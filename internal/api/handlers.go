package api

import (
	"net/http"
	"strconv"

	"github.com/jspencer/lens/internal/domain"
	"github.com/jspencer/lens/internal/source"
)

// DefaultWindow is how many lines GET /lines returns when count is absent
const DefaultWindow = 500

// MaxWindow caps a single lines request
const MaxWindow = 10000

// Handlers holds the dependencies for API endpoints
type Handlers struct {
	view source.LogSource
}

// NewHandlers creates API handlers over the terminal view
func NewHandlers(view source.LogSource) *Handlers {
	return &Handlers{view: view}
}

// Health handles GET /api/v1/healthz
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetProperties handles GET /api/v1/properties
func (h *Handlers) GetProperties(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toPropertiesResponse(h.view))
}

// GetLines handles GET /api/v1/lines?offset=N&count=M
func (h *Handlers) GetLines(w http.ResponseWriter, r *http.Request) {
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "offset must be a non-negative integer",
			Code:  domain.ErrCodeInvalidArgument,
		})
		return
	}
	count, err := queryInt(r, "count", DefaultWindow)
	if err != nil || count < 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error: "count must be a non-negative integer",
			Code:  domain.ErrCodeInvalidArgument,
		})
		return
	}
	if count > MaxWindow {
		count = MaxWindow
	}

	lines, err := fetchLines(h.view, offset, count)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error: err.Error(),
			Code:  domain.ErrorCode(err),
		})
		return
	}
	writeJSON(w, http.StatusOK, LinesResponse{
		Offset: offset,
		Total:  source.Count(h.view),
		Lines:  lines,
	})
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
