package handlers

import (
	"net/http"

	"github.com/pvolek/facegate/internal/gallery"
	"github.com/pvolek/facegate/internal/loader"
	"github.com/pvolek/facegate/internal/monitor"
	"github.com/pvolek/facegate/internal/recognizer"
)

// StatusHandler reports service readiness and counters.
type StatusHandler struct {
	loader   *loader.Loader
	matcher  *recognizer.Matcher
	registry *gallery.Registry
	monitor  *monitor.Monitor // nil without a camera
}

func NewStatusHandler(ld *loader.Loader, matcher *recognizer.Matcher, registry *gallery.Registry, mon *monitor.Monitor) *StatusHandler {
	return &StatusHandler{
		loader:   ld,
		matcher:  matcher,
		registry: registry,
		monitor:  mon,
	}
}

// StatusResponse is the GET /api/status payload.
type StatusResponse struct {
	Ready         bool           `json:"ready"`
	OptionalReady bool           `json:"optionalReady"`
	ActiveSource  string         `json:"activeSource,omitempty"`
	People        int            `json:"people"`
	MatcherSize   int            `json:"matcherSize"`
	Monitor       *monitor.Stats `json:"monitor,omitempty"`
}

// Get returns loader tiers, the active model source and matcher and
// monitor counters.
func (h *StatusHandler) Get(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Ready:         h.loader.Ready(),
		OptionalReady: h.loader.OptionalReady(),
		ActiveSource:  h.loader.ActiveSource(),
		People:        len(h.registry.People()),
		MatcherSize:   h.matcher.GetOrBuild().Size(),
	}
	if h.monitor != nil {
		stats := h.monitor.Stats()
		resp.Monitor = &stats
	}

	respondJSON(w, http.StatusOK, resp)
}
