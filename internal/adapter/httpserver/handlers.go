package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
	"github.com/pathfinderhq/pathfinder-backend/internal/usecase"
)

// Server aggregates handler dependencies.
type Server struct {
	Cfg        config.Config
	Submit     usecase.SubmitService
	Results    usecase.ResultService
	Analytics  usecase.AnalyticsService
	Admin      usecase.AdminService
	Users      domain.UserRepository
	Sessions   *SessionManager
	DBCheck    func(ctx context.Context) error
	RedisCheck func(ctx context.Context) error
	KafkaCheck func(ctx context.Context) error
}

// NewServer constructs an HTTP server with all handlers and checks wired.
func NewServer(
	cfg config.Config,
	submit usecase.SubmitService,
	results usecase.ResultService,
	analytics usecase.AnalyticsService,
	admin usecase.AdminService,
	users domain.UserRepository,
	sessions *SessionManager,
	dbCheck, redisCheck, kafkaCheck func(context.Context) error,
) *Server {
	return &Server{
		Cfg: cfg, Submit: submit, Results: results, Analytics: analytics,
		Admin: admin, Users: users, Sessions: sessions,
		DBCheck: dbCheck, RedisCheck: redisCheck, KafkaCheck: kafkaCheck,
	}
}

var (
	vldOnce sync.Once
	vld     *validator.Validate
)

func getValidator() *validator.Validate {
	vldOnce.Do(func() { vld = validator.New() })
	return vld
}

// SubmitHandler accepts a quiz answer payload, stores it pending, and
// enqueues the analysis task.
func (s *Server) SubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB
		var raw map[string]any
		if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
			writeError(w, r, fmt.Errorf("%w: invalid json", domain.ErrInvalidArgument), nil)
			return
		}

		receipt, fieldErrs, err := s.Submit.Submit(r.Context(), raw, ClientIP(r), r.UserAgent())
		if err != nil {
			if len(fieldErrs) > 0 {
				writeError(w, r, err, fieldErrs)
				return
			}
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{
			"sessionId": receipt.SessionID,
			"quizId":    receipt.QuizID,
			"status":    "submitted",
		})
	}
}

// ResultsHandler returns the submission status and, when completed, the
// recommendation envelope. Clients poll it with sessionId or quizId.
func (s *Server) ResultsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sessionID := r.URL.Query().Get("sessionId")
		quizID := r.URL.Query().Get("quizId")
		status, body, err := s.Results.Fetch(r.Context(), sessionID, quizID)
		if err != nil {
			writeError(w, r, err, nil)
			return
		}
		writeJSON(w, status, body)
	}
}

// HealthzHandler reports process liveness.
func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// ReadyzHandler probes the external dependencies.
func (s *Server) ReadyzHandler() http.HandlerFunc {
	type check struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		checks := make([]check, 0, 3)
		probe := func(name string, fn func(context.Context) error) {
			if fn == nil {
				return
			}
			if err := fn(ctx); err != nil {
				checks = append(checks, check{Name: name, OK: false, Details: err.Error()})
				return
			}
			checks = append(checks, check{Name: name, OK: true})
		}
		probe("mongo", s.DBCheck)
		probe("redis", s.RedisCheck)
		probe("kafka", s.KafkaCheck)

		ok := true
		for _, c := range checks {
			if !c.OK {
				ok = false
				break
			}
		}
		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		writeJSON(w, st, map[string]any{"checks": checks})
	}
}
