package app_test

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/httpserver"
	"github.com/pathfinderhq/pathfinder-backend/internal/app"
	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
	"github.com/pathfinderhq/pathfinder-backend/internal/usecase"
)

type routerSubRepo struct{}

func (routerSubRepo) Create(_ domain.Context, _ domain.Submission) (string, error) {
	return "quiz-1", nil
}

func (routerSubRepo) Get(_ domain.Context, _ string) (domain.Submission, error) {
	return domain.Submission{}, domain.ErrNotFound
}

func (routerSubRepo) GetBySessionID(_ domain.Context, _ string) (domain.Submission, error) {
	return domain.Submission{}, domain.ErrNotFound
}

func (routerSubRepo) Complete(_ domain.Context, _ string, _ map[string]any) error { return nil }

func (routerSubRepo) Fail(_ domain.Context, _ string, _ string) error { return nil }

func (routerSubRepo) StatusCounts(_ domain.Context) (map[domain.SubmissionStatus]int64, error) {
	return map[domain.SubmissionStatus]int64{}, nil
}

func (routerSubRepo) SubmissionsPerDay(_ domain.Context, _ int) ([]domain.DayCount, error) {
	return nil, nil
}

func (routerSubRepo) TopCareerPaths(_ domain.Context, _ int) ([]domain.LabelCount, error) {
	return nil, nil
}

func (routerSubRepo) AverageTimeSpent(_ domain.Context) (float64, error) { return 0, nil }

type routerQueue struct{}

func (routerQueue) EnqueueAnalyze(_ domain.Context, p domain.AnalyzeTaskPayload) (string, error) {
	return p.QuizID, nil
}

type routerUserRepo struct{}

func (routerUserRepo) Create(_ domain.Context, _ domain.User) (string, error) { return "u1", nil }

func (routerUserRepo) GetByEmail(_ domain.Context, _ string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (routerUserRepo) Get(_ domain.Context, _ string) (domain.User, error) {
	return domain.User{}, domain.ErrNotFound
}

func (routerUserRepo) SetRole(_ domain.Context, _, _ string) error { return nil }

func (routerUserRepo) SetBanned(_ domain.Context, _ string, _ bool) error { return nil }

type captureInteractionRepo struct {
	inserted chan domain.Interaction
}

func (c *captureInteractionRepo) Insert(_ domain.Context, in domain.Interaction) error {
	c.inserted <- in
	return nil
}

func (c *captureInteractionRepo) HourlyStats(_ domain.Context, _ time.Time) ([]domain.BucketStats, error) {
	return nil, nil
}

func (c *captureInteractionRepo) TopRoutes(_ domain.Context, _ time.Time, _ int) ([]domain.LabelCount, error) {
	return nil, nil
}

func (c *captureInteractionRepo) Durations(_ domain.Context, _ time.Time) ([]int64, error) {
	return nil, nil
}

func newRouter(t *testing.T, inter domain.InteractionRepository) http.Handler {
	t.Helper()
	cfg := config.Config{
		AppEnv:          "test",
		SessionSecret:   "unit-test-secret-0123456789abcdef",
		RateLimitPerMin: 1000,
	}
	repo := routerSubRepo{}
	users := routerUserRepo{}
	srv := httpserver.NewServer(
		cfg,
		usecase.NewSubmitService(repo, routerQueue{}),
		usecase.NewResultService(repo, false),
		usecase.NewAnalyticsService(repo, nil),
		usecase.NewAdminService(users),
		users,
		httpserver.NewSessionManager(cfg),
		nil, nil, nil,
	)
	return app.BuildRouter(cfg, srv, inter, nil)
}

func TestParseOrigins(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"*"}, app.ParseOrigins(""))
	assert.Equal(t, []string{"*"}, app.ParseOrigins("*"))
	assert.Equal(t, []string{"*"}, app.ParseOrigins(" , "))
	assert.Equal(t,
		[]string{"https://pathfinder.example", "http://localhost:3000"},
		app.ParseOrigins(" https://pathfinder.example , http://localhost:3000 "))
}

func TestRouter_HealthAndMetricsMounted(t *testing.T) {
	t.Parallel()
	r := newRouter(t, nil)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_AdminRoutesGuarded(t *testing.T) {
	t.Parallel()
	r := newRouter(t, nil)

	for _, target := range []string{"/api/analytics/admin-stats", "/api/analytics/system-health"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, target)
	}

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodPatch, "/api/admin/users/u2", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRouter_QuizEndpoints(t *testing.T) {
	t.Parallel()
	r := newRouter(t, nil)

	body := []byte(`{
		"currentGrade": "12th", "stream": "Arts",
		"enjoyedSubjects": ["History"], "strongSubjects": ["History"],
		"hobbies": ["Reading"], "motivators": ["Stability"],
		"workStyle": "flexible", "teamPreference": "solo",
		"techComfort": 2, "creativeInterest": 5,
		"careerGoals": "teach", "preferredWorkEnvironment": "school",
		"learningStyle": "reading", "problemSolvingApproach": "reflective",
		"higherStudiesPlan": "yes", "budgetConstraint": "low"
	}`)
	req := httptest.NewRequest(http.MethodPost, "/api/quiz/submit", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/quiz/results?sessionId=ghost", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_InteractionsCarrySessionUser(t *testing.T) {
	t.Parallel()
	inter := &captureInteractionRepo{inserted: make(chan domain.Interaction, 1)}
	r := newRouter(t, inter)

	sm := httpserver.NewSessionManager(config.Config{SessionSecret: "unit-test-secret-0123456789abcdef"})
	value, err := sm.CreateSession(httpserver.SessionUser{ID: "user-7", Email: "pat@example.com", Role: "user"})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.AddCookie(&http.Cookie{Name: "pf_session", Value: value})
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	select {
	case in := <-inter.inserted:
		assert.Equal(t, "user-7", in.UserID)
		assert.Equal(t, http.MethodGet, in.Method)
	case <-time.After(2 * time.Second):
		t.Fatal("interaction was not recorded")
	}
}

func TestRouter_CORSPreflight(t *testing.T) {
	t.Parallel()
	r := newRouter(t, nil)

	req := httptest.NewRequest(http.MethodOptions, "/api/quiz/submit", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}
