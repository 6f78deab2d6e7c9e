package httpserver

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// AdminStatsHandler serves submission aggregates for the admin dashboard.
func (s *Server) AdminStatsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := s.Analytics.AdminStats(r.Context())
		if err != nil {
			LoggerFrom(r).Error("admin stats aggregation failed", slog.Any("error", err))
			writeError(w, r, fmt.Errorf("%w: failed to compute stats", domain.ErrInternal), nil)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	}
}

// SystemHealthHandler serves request-level health aggregates.
func (s *Server) SystemHealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health, err := s.Analytics.SystemHealth(r.Context())
		if err != nil {
			LoggerFrom(r).Error("system health aggregation failed", slog.Any("error", err))
			writeError(w, r, fmt.Errorf("%w: failed to compute health", domain.ErrInternal), nil)
			return
		}
		writeJSON(w, http.StatusOK, health)
	}
}

// ModerateUserHandler applies ban/unban/promote/demote to a target user.
func (s *Server) ModerateUserHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		targetID := chi.URLParam(r, "id")
		if targetID == "" {
			writeError(w, r, fmt.Errorf("%w: id missing", domain.ErrInvalidArgument), nil)
			return
		}
		var req struct {
			Action string `json:"action"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}

		actor, _ := UserFrom(r.Context())
		u, err := s.Admin.ModerateUser(r.Context(), actor.ID, targetID, req.Action)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		LoggerFrom(r).Info("user moderated",
			slog.String("actor_id", actor.ID),
			slog.String("target_id", targetID),
			slog.String("action", req.Action))
		writeJSON(w, http.StatusOK, map[string]any{
			"user": map[string]any{
				"id":     u.ID,
				"email":  u.Email,
				"name":   u.Name,
				"role":   u.Role,
				"banned": u.Banned,
			},
		})
	}
}
