// Package usecase contains application business logic services.
package usecase

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
	"github.com/pathfinderhq/pathfinder-backend/internal/quizform"
)

// SubmitService validates quiz payloads, persists pending submissions, and
// enqueues the background analysis task.
type SubmitService struct {
	Subs  domain.SubmissionRepository
	Queue domain.Queue
}

// NewSubmitService constructs a SubmitService with its dependencies.
func NewSubmitService(s domain.SubmissionRepository, q domain.Queue) SubmitService {
	return SubmitService{Subs: s, Queue: q}
}

// SubmitReceipt is the acknowledgment returned to the client after a
// successful submit. The recommendation itself is fetched by polling.
type SubmitReceipt struct {
	QuizID    string
	SessionID string
}

// Submit validates the raw payload, stores the submission with status
// pending, and enqueues an analysis task. When the enqueue fails after the
// insert, the submission is marked failed so it never sits pending forever.
func (s SubmitService) Submit(ctx domain.Context, raw map[string]any, clientIP, userAgent string) (SubmitReceipt, []quizform.FieldError, error) {
	answers, fieldErrs := quizform.Parse(raw)
	if len(fieldErrs) > 0 {
		return SubmitReceipt{}, fieldErrs, fmt.Errorf("%w: invalid quiz answers", domain.ErrInvalidArgument)
	}

	sessionID := strings.TrimSpace(stringField(raw, "sessionId"))
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	now := time.Now().UTC()
	sub := domain.Submission{
		SessionID:        sessionID,
		Answers:          answers,
		TimeSpentSeconds: intField(raw, "timeSpentSeconds"),
		ClientIP:         clientIP,
		UserAgent:        userAgent,
		Status:           domain.SubmissionPending,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	quizID, err := s.Subs.Create(ctx, sub)
	if err != nil {
		return SubmitReceipt{}, nil, err
	}

	payload := domain.AnalyzeTaskPayload{QuizID: quizID, SessionID: sessionID}
	if _, err := s.Queue.EnqueueAnalyze(ctx, payload); err != nil {
		_ = s.Subs.Fail(ctx, quizID, "enqueue failed")
		return SubmitReceipt{}, nil, err
	}
	return SubmitReceipt{QuizID: quizID, SessionID: sessionID}, nil, nil
}

func stringField(raw map[string]any, key string) string {
	s, _ := raw[key].(string)
	return s
}

func intField(raw map[string]any, key string) int {
	switch t := raw[key].(type) {
	case float64:
		return int(t)
	case int:
		return t
	default:
		return 0
	}
}
