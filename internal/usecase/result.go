package usecase

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// ResultService provides read access to submission results and assembles the
// polling response envelope.
type ResultService struct {
	Subs domain.SubmissionRepository
	// DemoMode masks lookup failures with a canned completed payload so a
	// demo deployment never shows an empty results page. Off in production,
	// a missing submission is a plain 404.
	DemoMode bool
}

// NewResultService constructs a ResultService.
func NewResultService(s domain.SubmissionRepository, demoMode bool) ResultService {
	return ResultService{Subs: s, DemoMode: demoMode}
}

// Fetch resolves a submission by quizId or sessionId (quizId wins when both
// are present) and returns the HTTP status plus response body for it.
func (s ResultService) Fetch(ctx domain.Context, sessionID, quizID string) (int, map[string]any, error) {
	if sessionID == "" && quizID == "" {
		return http.StatusBadRequest, nil, fmt.Errorf("%w: sessionId or quizId required", domain.ErrInvalidArgument)
	}

	var (
		sub domain.Submission
		err error
	)
	if quizID != "" {
		sub, err = s.Subs.Get(ctx, quizID)
	} else {
		sub, err = s.Subs.GetBySessionID(ctx, sessionID)
	}
	if err != nil {
		if s.DemoMode {
			slog.Default().Warn("masking result lookup failure in demo mode",
				slog.String("session_id", sessionID), slog.String("quiz_id", quizID), slog.Any("error", err))
			return http.StatusOK, demoEnvelope(sessionID, quizID), nil
		}
		if errors.Is(err, domain.ErrNotFound) {
			return http.StatusNotFound, nil, fmt.Errorf("%w: submission not found", domain.ErrNotFound)
		}
		return http.StatusInternalServerError, nil, err
	}

	base := map[string]any{
		"success":   true,
		"quizId":    sub.ID,
		"sessionId": sub.SessionID,
		"status":    string(sub.Status),
	}
	switch sub.Status {
	case domain.SubmissionCompleted:
		rec := domain.NormalizeRecommendation(sub.Recommendation)
		base["recommendation"] = rec.Envelope()
		base["completedAt"] = sub.UpdatedAt
		return http.StatusOK, base, nil
	case domain.SubmissionFailed:
		base["success"] = false
		base["error"] = sub.Error
		return http.StatusInternalServerError, base, nil
	default:
		return http.StatusOK, base, nil
	}
}

// demoEnvelope is the single canned payload served for unknown submissions
// in demo mode. It goes through the same normalization as real records so
// its shape can never drift from the live contract.
func demoEnvelope(sessionID, quizID string) map[string]any {
	rec := domain.NormalizeRecommendation(map[string]any{
		"topCareerPath": []any{
			map[string]any{
				"title":       "Software Engineer",
				"description": "Designs and builds software systems across web, mobile, and backend platforms.",
				"matchScore":  88,
			},
			map[string]any{
				"title":       "Data Analyst",
				"description": "Turns raw data into insight with statistics, SQL, and visualization tools.",
				"matchScore":  81,
			},
			map[string]any{
				"title":       "Product Designer",
				"description": "Shapes how products look and feel, from research through interactive prototypes.",
				"matchScore":  74,
			},
		},
		"domainFit": []any{"Technology", "Analytics"},
		"whyItFits": []any{
			"Strong comfort with technology and structured problem solving",
			"Interest areas align with building and analyzing digital products",
		},
		"recommendedSkills": []any{"Programming fundamentals", "Data literacy", "Communication"},
		"learningResources": []any{"freeCodeCamp", "Khan Academy computing courses", "Intro statistics MOOCs"},
		"alternativePaths":  []any{"Technical Writer", "QA Engineer"},
	})
	return map[string]any{
		"success":        true,
		"quizId":         quizID,
		"sessionId":      sessionID,
		"status":         string(domain.SubmissionCompleted),
		"demo":           true,
		"answers":        demoAnswers(),
		"recommendation": rec.Envelope(),
	}
}

// demoAnswers is the canned answer set paired with the demo recommendation.
func demoAnswers() domain.Answers {
	return domain.Answers{
		CurrentGrade:             "12th",
		Stream:                   "Science",
		EnjoyedSubjects:          []string{"Mathematics", "Computer Science"},
		StrongSubjects:           []string{"Mathematics", "Physics"},
		Hobbies:                  []string{"Coding", "Chess"},
		Motivators:               []string{"Problem solving", "Growth"},
		WorkStyle:                "structured",
		TeamPreference:           "small team",
		TechComfort:              5,
		CreativeInterest:         3,
		CareerGoals:              "build software products",
		PreferredWorkEnvironment: "office",
		LearningStyle:            "hands-on",
		ProblemSolvingApproach:   "analytical",
		HigherStudiesPlan:        "yes",
		BudgetConstraint:         "medium",
	}
}
