package handler

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/config"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/health"
	"github.com/marlonbarreto-git/nimbus-gateway-router/internal/orchestrator"
)

//go:embed templates/dashboard.html
var templateFS embed.FS

var dashboardTemplate = template.Must(template.New("dashboard.html").Funcs(template.FuncMap{
	"percent": func(v float64) string {
		return fmt.Sprintf("%.1f%%", v*100)
	},
	"formatTime": func(t time.Time) string {
		return t.UTC().Format(time.RFC3339)
	},
}).ParseFS(templateFS, "templates/dashboard.html"))

type dashboardData struct {
	Service      string
	Version      string
	AllUnhealthy bool
	Gateways     []health.HealthView
	Stats        orchestrator.Stats
	GeneratedAt  time.Time
}

// Dashboard handles GET /.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orch.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, http.StatusInternalServerError, "Failed to compute transaction stats", err.Error())
		return
	}

	views := h.registry.SnapshotAll()
	gateways := make([]health.HealthView, 0, len(views))
	for _, name := range h.registry.Names() {
		if v, ok := views[name]; ok {
			gateways = append(gateways, v)
		}
	}

	data := dashboardData{
		Service:      config.ServiceName,
		Version:      config.Version,
		AllUnhealthy: h.registry.AllUnhealthy(),
		Gateways:     gateways,
		Stats:        stats,
		GeneratedAt:  h.clock.Now(),
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, data); err != nil {
		slog.ErrorContext(r.Context(), "dashboard_render_failed", "error", err)
		h.writeError(w, r, http.StatusInternalServerError, "Failed to render dashboard", "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
