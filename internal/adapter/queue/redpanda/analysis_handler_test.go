package redpanda_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/queue/redpanda"
	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

type fakeRepo struct {
	sub         domain.Submission
	getErr      error
	completed   map[string]any
	failedMsg   string
	completeErr error
	failErr     error
}

func (f *fakeRepo) Create(_ domain.Context, _ domain.Submission) (string, error) {
	return "", errors.New("not implemented")
}

func (f *fakeRepo) Get(_ domain.Context, _ string) (domain.Submission, error) {
	if f.getErr != nil {
		return domain.Submission{}, f.getErr
	}
	return f.sub, nil
}

func (f *fakeRepo) GetBySessionID(_ domain.Context, _ string) (domain.Submission, error) {
	return f.sub, nil
}

func (f *fakeRepo) Complete(_ domain.Context, _ string, rec map[string]any) error {
	if f.completeErr != nil {
		return f.completeErr
	}
	f.completed = rec
	return nil
}

func (f *fakeRepo) Fail(_ domain.Context, _ string, msg string) error {
	if f.failErr != nil {
		return f.failErr
	}
	f.failedMsg = msg
	return nil
}

func (f *fakeRepo) StatusCounts(_ domain.Context) (map[domain.SubmissionStatus]int64, error) {
	return nil, nil
}

func (f *fakeRepo) SubmissionsPerDay(_ domain.Context, _ int) ([]domain.DayCount, error) {
	return nil, nil
}

func (f *fakeRepo) TopCareerPaths(_ domain.Context, _ int) ([]domain.LabelCount, error) {
	return nil, nil
}

func (f *fakeRepo) AverageTimeSpent(_ domain.Context) (float64, error) { return 0, nil }

type fakeAI struct {
	response string
	err      error
	prompts  []string
}

func (f *fakeAI) ChatJSON(_ domain.Context, _ string, userPrompt string, _ int) (string, error) {
	f.prompts = append(f.prompts, userPrompt)
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func pendingSubmission() domain.Submission {
	return domain.Submission{
		ID:        "quiz-1",
		SessionID: "sess-1",
		Status:    domain.SubmissionPending,
		Answers: domain.Answers{
			CurrentGrade:    "12th",
			Stream:          "Science",
			EnjoyedSubjects: []string{"Math"},
			TechComfort:     4,
		},
	}
}

const goodResponse = `{
	"topCareerPath": [{"title": "Software Engineer", "description": "Builds software.", "matchScore": 90}],
	"domainFit": ["Technology"],
	"whyItFits": ["Comfort with technology"],
	"recommendedSkills": ["Programming"],
	"learningResources": ["freeCodeCamp"],
	"alternativePaths": ["QA Engineer"]
}`

func TestHandleAnalyze_Success(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{sub: pendingSubmission()}
	ai := &fakeAI{response: goodResponse}

	err := redpanda.HandleAnalyze(context.Background(), repo, ai, config.Config{}, domain.AnalyzeTaskPayload{QuizID: "quiz-1", SessionID: "sess-1"})
	require.NoError(t, err)
	require.NotNil(t, repo.completed)
	assert.Empty(t, repo.failedMsg)

	norm := domain.NormalizeRecommendation(repo.completed)
	assert.Equal(t, "Software Engineer", norm.PrimaryCareer())
	require.Len(t, ai.prompts, 1)
	assert.Contains(t, ai.prompts[0], "Science")
}

func TestHandleAnalyze_BackfillsOptionalKeys(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{sub: pendingSubmission()}
	ai := &fakeAI{response: `{"topCareerPath": [{"title": "Chef", "matchScore": 70}], "whyItFits": ["Loves cooking"]}`}

	err := redpanda.HandleAnalyze(context.Background(), repo, ai, config.Config{}, domain.AnalyzeTaskPayload{QuizID: "quiz-1"})
	require.NoError(t, err)
	require.NotNil(t, repo.completed)
	for _, key := range []string{"domainFit", "recommendedSkills", "learningResources", "alternativePaths"} {
		assert.Contains(t, repo.completed, key)
	}
}

func TestHandleAnalyze_MissingRequiredKeyFails(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{sub: pendingSubmission()}
	ai := &fakeAI{response: `{"domainFit": ["Technology"]}`}

	err := redpanda.HandleAnalyze(context.Background(), repo, ai, config.Config{}, domain.AnalyzeTaskPayload{QuizID: "quiz-1"})
	require.NoError(t, err)
	assert.Nil(t, repo.completed)
	assert.Contains(t, repo.failedMsg, "topCareerPath")
}

func TestHandleAnalyze_AIFailure_MarksFailed(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{sub: pendingSubmission()}
	ai := &fakeAI{err: fmt.Errorf("model overloaded: %w", domain.ErrUnavailable)}

	err := redpanda.HandleAnalyze(context.Background(), repo, ai, config.Config{}, domain.AnalyzeTaskPayload{QuizID: "quiz-1"})
	require.NoError(t, err)
	assert.Nil(t, repo.completed)
	assert.Contains(t, repo.failedMsg, "model overloaded")
}

func TestHandleAnalyze_AIFailure_DemoFallsBack(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{sub: pendingSubmission()}
	ai := &fakeAI{err: errors.New("model overloaded")}

	err := redpanda.HandleAnalyze(context.Background(), repo, ai, config.Config{DemoMode: true}, domain.AnalyzeTaskPayload{QuizID: "quiz-1"})
	require.NoError(t, err)
	assert.Empty(t, repo.failedMsg)
	require.NotNil(t, repo.completed)

	norm := domain.NormalizeRecommendation(repo.completed)
	assert.NotEmpty(t, norm.PrimaryCareer())
}

func TestHandleAnalyze_TerminalSubmissionSkipped(t *testing.T) {
	t.Parallel()
	sub := pendingSubmission()
	sub.Status = domain.SubmissionCompleted
	repo := &fakeRepo{sub: sub}
	ai := &fakeAI{response: goodResponse}

	err := redpanda.HandleAnalyze(context.Background(), repo, ai, config.Config{}, domain.AnalyzeTaskPayload{QuizID: "quiz-1"})
	require.NoError(t, err)
	assert.Nil(t, repo.completed)
	assert.Empty(t, ai.prompts)
}

func TestHandleAnalyze_ConcurrentCompletionTolerated(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{sub: pendingSubmission(), completeErr: fmt.Errorf("already terminal: %w", domain.ErrConflict)}
	ai := &fakeAI{response: goodResponse}

	err := redpanda.HandleAnalyze(context.Background(), repo, ai, config.Config{}, domain.AnalyzeTaskPayload{QuizID: "quiz-1"})
	assert.NoError(t, err)
}

func TestHandleAnalyze_LoadFailure(t *testing.T) {
	t.Parallel()
	repo := &fakeRepo{getErr: fmt.Errorf("lookup: %w", domain.ErrNotFound)}
	ai := &fakeAI{response: goodResponse}

	err := redpanda.HandleAnalyze(context.Background(), repo, ai, config.Config{}, domain.AnalyzeTaskPayload{QuizID: "quiz-1"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
