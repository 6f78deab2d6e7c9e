package httpserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
	"github.com/pathfinderhq/pathfinder-backend/pkg/textx"
)

// SignupHandler registers a new account and opens a session. Accounts on an
// allowlisted email domain are created as admins.
func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		var req struct {
			Email    string `json:"email" validate:"required,email,max=254"`
			Password string `json:"password" validate:"required,min=8,max=128"`
			Name     string `json:"name" validate:"required,max=100"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}

		hash, err := HashPassword(req.Password)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		role := domain.RoleUser
		if s.Cfg.IsAdminDomain(req.Email) {
			role = domain.RoleAdmin
		}
		now := time.Now().UTC()
		u := domain.User{
			Email:        strings.ToLower(strings.TrimSpace(req.Email)),
			PasswordHash: hash,
			Name:         textx.SanitizeText(req.Name),
			Role:         role,
			Provider:     "credentials",
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		id, err := s.Users.Create(r.Context(), u)
		if err != nil {
			if errors.Is(err, domain.ErrConflict) {
				writeError(w, r, fmt.Errorf("%w: email already registered", domain.ErrConflict), nil)
				return
			}
			writeError(w, r, err, nil)
			return
		}
		u.ID = id

		s.openSession(w, r, u)
		LoggerFrom(r).Info("user signed up", slog.String("user_id", id), slog.String("role", role))
		writeJSON(w, http.StatusCreated, map[string]any{"user": publicUser(u)})
	}
}

// LoginHandler verifies credentials and opens a session. Banned accounts
// get 403 so the client can distinguish suspension from a bad password.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
		var req struct {
			Email    string `json:"email" validate:"required,email"`
			Password string `json:"password" validate:"required"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}
		if err := getValidator().Struct(req); err != nil {
			writeError(w, r, fmt.Errorf("%w: validation failed", domain.ErrInvalidArgument), validationDetails(err))
			return
		}

		u, err := s.Users.GetByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
		if err != nil || !VerifyPassword(req.Password, u.PasswordHash) {
			writeError(w, r, fmt.Errorf("%w: invalid credentials", domain.ErrUnauthorized), nil)
			return
		}
		if u.Banned {
			writeError(w, r, fmt.Errorf("%w: account suspended", domain.ErrForbidden), nil)
			return
		}

		s.openSession(w, r, u)
		LoggerFrom(r).Info("user logged in", slog.String("user_id", u.ID))
		writeJSON(w, http.StatusOK, map[string]any{"user": publicUser(u)})
	}
}

// LogoutHandler clears the session cookie.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		s.Sessions.ClearSessionCookie(w)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	}
}

// MeHandler returns the current session user, or null when anonymous.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFrom(r.Context())
		if !ok {
			writeJSON(w, http.StatusOK, map[string]any{"user": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"user": u})
	}
}

func (s *Server) openSession(w http.ResponseWriter, r *http.Request, u domain.User) {
	value, err := s.Sessions.CreateSession(SessionUser{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role})
	if err != nil {
		LoggerFrom(r).Error("failed to create session", slog.Any("error", err))
		return
	}
	s.Sessions.SetSessionCookie(w, value)
}

func publicUser(u domain.User) map[string]any {
	return map[string]any{
		"id":    u.ID,
		"email": u.Email,
		"name":  u.Name,
		"role":  u.Role,
	}
}

func validationDetails(err error) map[string]string {
	verrs := map[string]string{}
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		for _, fe := range ve {
			verrs[strings.ToLower(fe.Field())] = fe.Tag()
		}
	}
	return verrs
}
