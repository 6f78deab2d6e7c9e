package usecase

import (
	"sort"
	"time"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// AnalyticsService aggregates submission and interaction data for the admin
// dashboard endpoints.
type AnalyticsService struct {
	Subs  domain.SubmissionRepository
	Inter domain.InteractionRepository
}

// NewAnalyticsService constructs an AnalyticsService.
func NewAnalyticsService(s domain.SubmissionRepository, i domain.InteractionRepository) AnalyticsService {
	return AnalyticsService{Subs: s, Inter: i}
}

// AdminStats assembles the admin-stats response: status counts with a
// completion rate, daily submission counts, top recommended career paths,
// and average quiz duration.
func (s AnalyticsService) AdminStats(ctx domain.Context) (map[string]any, error) {
	counts, err := s.Subs.StatusCounts(ctx)
	if err != nil {
		return nil, err
	}
	perDay, err := s.Subs.SubmissionsPerDay(ctx, 14)
	if err != nil {
		return nil, err
	}
	topPaths, err := s.Subs.TopCareerPaths(ctx, 5)
	if err != nil {
		return nil, err
	}
	avgTime, err := s.Subs.AverageTimeSpent(ctx)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	completionRate := 0.0
	if total > 0 {
		completionRate = float64(counts[domain.SubmissionCompleted]) / float64(total)
	}

	return map[string]any{
		"totalSubmissions": total,
		"statusCounts": map[string]int64{
			string(domain.SubmissionPending):   counts[domain.SubmissionPending],
			string(domain.SubmissionCompleted): counts[domain.SubmissionCompleted],
			string(domain.SubmissionFailed):    counts[domain.SubmissionFailed],
		},
		"completionRate":      completionRate,
		"submissionsPerDay":   perDay,
		"topCareerPaths":      topPaths,
		"avgTimeSpentSeconds": avgTime,
	}, nil
}

// SystemHealth assembles the system-health response over the trailing 24
// hours of logged interactions: hourly request/error buckets, the busiest
// routes, and request latency percentiles.
func (s AnalyticsService) SystemHealth(ctx domain.Context) (map[string]any, error) {
	since := time.Now().UTC().Add(-24 * time.Hour)

	hourly, err := s.Inter.HourlyStats(ctx, since)
	if err != nil {
		return nil, err
	}
	topRoutes, err := s.Inter.TopRoutes(ctx, since, 5)
	if err != nil {
		return nil, err
	}
	durations, err := s.Inter.Durations(ctx, since)
	if err != nil {
		return nil, err
	}

	var requests, errors int64
	for _, b := range hourly {
		requests += b.Requests
		errors += b.Errors
	}
	successRate := 1.0
	if requests > 0 {
		successRate = float64(requests-errors) / float64(requests)
	}

	return map[string]any{
		"windowHours":  24,
		"requests":     requests,
		"errors":       errors,
		"successRate":  successRate,
		"hourly":       hourly,
		"topRoutes":    topRoutes,
		"p50LatencyMs": percentile(durations, 0.50),
		"p95LatencyMs": percentile(durations, 0.95),
	}, nil
}

// percentile sorts the samples in memory and picks the nearest-rank value.
// Interaction volume over a 24h window is small enough that this beats the
// complexity of a database-side percentile pipeline.
func percentile(samples []int64, p float64) int64 {
	if len(samples) == 0 {
		return 0
	}
	sorted := make([]int64, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	idx := int(float64(len(sorted)-1) * p)
	return sorted[idx]
}
