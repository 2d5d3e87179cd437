package handlers

import (
	"net/http"
	"time"

	"github.com/porticodesk/portico/internal/common"
	"github.com/ternarybob/arbor"
)

// APIHandler serves the service-level endpoints: version, health, 404.
type APIHandler struct {
	startedAt time.Time
	logger    arbor.ILogger
}

func NewAPIHandler() *APIHandler {
	return &APIHandler{
		startedAt: time.Now(),
		logger:    common.GetLogger(),
	}
}

// VersionHandler reports the running build.
func (h *APIHandler) VersionHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{
		"service":    "portico",
		"version":    common.GetVersion(),
		"build":      common.GetBuild(),
		"git_commit": common.GetGitCommit(),
	})
}

// HealthHandler reports liveness. Readiness of individual tenants is
// exposed per tenant via the status endpoint instead.
func (h *APIHandler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]any{
		"status":         "ok",
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// NotFoundHandler answers unmatched API paths with a JSON 404.
func (h *APIHandler) NotFoundHandler(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("Unmatched API path")

	WriteError(w, http.StatusNotFound, "unknown endpoint: "+r.URL.Path)
}
