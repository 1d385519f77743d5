package web

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JonMunkholm/slate/internal/core"
)

const healthTimeout = 2 * time.Second

// HealthResponse reports store reachability and upload slot usage.
type HealthResponse struct {
	Status  string                   `json:"status"`
	Store   string                   `json:"store"`
	Uploads core.UploadLimiterStatus `json:"uploads"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Store: "ok", Uploads: s.service.Limiter().Status()}
	status := http.StatusOK
	if err := s.service.Ping(ctx); err != nil {
		resp.Status, resp.Store = "degraded", err.Error()
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, resp)
}

func (s *Server) handleListPlayers(w http.ResponseWriter, r *http.Request) {
	filter, err := parsePlayerFilter(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	players, err := s.service.ListPlayers(r.Context(), filter)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]any{"players": players, "count": len(players)})
}

func (s *Server) handleGetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.service.GetPlayer(r.Context(), chi.URLParam(r, "partnerID"))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, p)
}

// handleClearPlayers hard-deletes the pool. It is the only route that
// removes players.
func (s *Server) handleClearPlayers(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.ClearPlayers(r.Context())
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, map[string]int64{"deleted": n})
}

func (s *Server) handleValidateSettings(w http.ResponseWriter, r *http.Request) {
	var req core.OptimizationSettings
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	settings, err := s.service.ValidateSettings(req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, settings)
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req core.OptimizationSettings
	if err := decodeJSON(w, r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Optimizer.Timeout)
	defer cancel()

	res, err := s.service.Generate(ctx, req)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, res)
}

// handleExport streams lineups as the contest platform's bulk-entry CSV.
// Lineups are selected by repeated or comma-separated ?lineup= ids, or by
// ?settings= to export everything one generation produced.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	sport := strings.ToLower(chi.URLParam(r, "sport"))
	lineupIDs := parseListParam(r, "lineup")
	settingsID := strings.TrimSpace(r.URL.Query().Get("settings"))

	var buf bytes.Buffer
	switch {
	case settingsID != "":
		got, err := s.service.ExportSettingsLineups(r.Context(), &buf, settingsID)
		if err != nil {
			s.respondError(w, r, err)
			return
		}
		if got != sport {
			s.respondError(w, r, fmt.Errorf("%w: settings %s are for sport %q, not %q", errBadQuery, settingsID, got, sport))
			return
		}
	case len(lineupIDs) > 0:
		if err := s.service.ExportLineups(r.Context(), &buf, sport, lineupIDs); err != nil {
			s.respondError(w, r, err)
			return
		}
	default:
		s.respondError(w, r, fmt.Errorf("%w: pass lineup or settings", errBadQuery))
		return
	}

	w.Header().Set("Content-Type", core.ExportContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename=%q`, core.ExportFilename(sport, time.Now())))
	_, _ = w.Write(buf.Bytes())
}
