package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
	"github.com/pathfinderhq/pathfinder-backend/internal/usecase"
)

type fakeInteractionRepo struct {
	hourly    []domain.BucketStats
	topRoutes []domain.LabelCount
	durations []int64
}

func (f *fakeInteractionRepo) Insert(_ domain.Context, _ domain.Interaction) error { return nil }

func (f *fakeInteractionRepo) HourlyStats(_ domain.Context, _ time.Time) ([]domain.BucketStats, error) {
	return f.hourly, nil
}

func (f *fakeInteractionRepo) TopRoutes(_ domain.Context, _ time.Time, _ int) ([]domain.LabelCount, error) {
	return f.topRoutes, nil
}

func (f *fakeInteractionRepo) Durations(_ domain.Context, _ time.Time) ([]int64, error) {
	return f.durations, nil
}

func TestAdminStats(t *testing.T) {
	t.Parallel()
	repo := newFakeSubmissionRepo()
	repo.statusCnts = map[domain.SubmissionStatus]int64{
		domain.SubmissionPending:   2,
		domain.SubmissionCompleted: 6,
		domain.SubmissionFailed:    2,
	}
	repo.perDay = []domain.DayCount{{Day: "2026-08-30", Count: 4}, {Day: "2026-08-31", Count: 6}}
	repo.topPaths = []domain.LabelCount{{Label: "Software Engineer", Count: 5}}
	repo.avgTime = 131.5

	svc := usecase.NewAnalyticsService(repo, &fakeInteractionRepo{})
	stats, err := svc.AdminStats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(10), stats["totalSubmissions"])
	assert.InDelta(t, 0.6, stats["completionRate"], 1e-9)
	assert.Equal(t, map[string]int64{"pending": 2, "completed": 6, "failed": 2}, stats["statusCounts"])
	assert.Equal(t, repo.perDay, stats["submissionsPerDay"])
	assert.Equal(t, repo.topPaths, stats["topCareerPaths"])
	assert.Equal(t, 131.5, stats["avgTimeSpentSeconds"])
}

func TestAdminStats_Empty(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAnalyticsService(newFakeSubmissionRepo(), &fakeInteractionRepo{})

	stats, err := svc.AdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats["totalSubmissions"])
	assert.Equal(t, 0.0, stats["completionRate"])
}

func TestSystemHealth(t *testing.T) {
	t.Parallel()
	inter := &fakeInteractionRepo{
		hourly: []domain.BucketStats{
			{Bucket: "2026-08-31T09", Requests: 60, Errors: 3},
			{Bucket: "2026-08-31T10", Requests: 40, Errors: 2},
		},
		topRoutes: []domain.LabelCount{{Label: "/api/quiz/submit", Count: 70}},
		durations: []int64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
	}
	svc := usecase.NewAnalyticsService(newFakeSubmissionRepo(), inter)

	health, err := svc.SystemHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(100), health["requests"])
	assert.Equal(t, int64(5), health["errors"])
	assert.InDelta(t, 0.95, health["successRate"], 1e-9)
	assert.Equal(t, int64(50), health["p50LatencyMs"])
	assert.Equal(t, int64(90), health["p95LatencyMs"])
	assert.Equal(t, inter.topRoutes, health["topRoutes"])
}

func TestSystemHealth_NoTraffic(t *testing.T) {
	t.Parallel()
	svc := usecase.NewAnalyticsService(newFakeSubmissionRepo(), &fakeInteractionRepo{})

	health, err := svc.SystemHealth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, health["successRate"])
	assert.Equal(t, int64(0), health["p95LatencyMs"])
}
