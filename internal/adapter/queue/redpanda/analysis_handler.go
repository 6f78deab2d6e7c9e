package redpanda

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	aicore "github.com/pathfinderhq/pathfinder-backend/internal/adapter/ai"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/observability"
	"github.com/pathfinderhq/pathfinder-backend/internal/config"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// analysisTimeout bounds one end-to-end analysis including AI retries.
const analysisTimeout = 5 * time.Minute

// HandleAnalyze processes one analysis task: load the submission, ask the
// model for a recommendation, and write the terminal status. The conditional
// pending-only update in the repository makes redelivery idempotent.
func HandleAnalyze(
	ctx context.Context,
	subs domain.SubmissionRepository,
	aicl domain.AIClient,
	cfg config.Config,
	payload domain.AnalyzeTaskPayload,
) error {
	tracer := otel.Tracer("queue.handler")
	ctx, span := tracer.Start(ctx, "HandleAnalyze")
	defer span.End()

	if subs == nil {
		return fmt.Errorf("submission repository is nil")
	}
	if aicl == nil {
		return fmt.Errorf("AI client is nil")
	}

	ctx, cancel := context.WithTimeout(ctx, analysisTimeout)
	defer cancel()

	lg := observability.LoggerFromContext(ctx)

	sub, err := subs.Get(ctx, payload.QuizID)
	if err != nil {
		lg.Error("failed to load submission", slog.String("quiz_id", payload.QuizID), slog.Any("error", err))
		return fmt.Errorf("load submission: %w", err)
	}
	if sub.Status.Terminal() {
		// Redelivered task for an already-finished submission.
		lg.Info("submission already terminal, skipping",
			slog.String("quiz_id", payload.QuizID), slog.String("status", string(sub.Status)))
		return nil
	}

	observability.StartProcessingJob("analyze")

	rec, aiErr := generateRecommendation(ctx, aicl, cfg, sub)
	if aiErr != nil {
		lg.Error("recommendation generation failed",
			slog.String("quiz_id", payload.QuizID), slog.Any("error", aiErr))
		if cfg.DemoMode {
			// Demo deployments never surface a failed quiz; they fall back
			// to a generic recommendation and complete.
			rec = aicore.FallbackRecommendation()
		} else {
			if err := subs.Fail(ctx, payload.QuizID, aiErr.Error()); err != nil {
				if errors.Is(err, domain.ErrConflict) {
					lg.Info("submission finished concurrently", slog.String("quiz_id", payload.QuizID))
					observability.CompleteJob("analyze")
					return nil
				}
				observability.FailJob("analyze")
				return fmt.Errorf("mark failed: %w", err)
			}
			observability.FailJob("analyze")
			return nil
		}
	}

	if err := subs.Complete(ctx, payload.QuizID, rec); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			lg.Info("submission finished concurrently", slog.String("quiz_id", payload.QuizID))
			observability.CompleteJob("analyze")
			return nil
		}
		observability.FailJob("analyze")
		return fmt.Errorf("mark completed: %w", err)
	}

	norm := domain.NormalizeRecommendation(rec)
	if len(norm.TopCareerPath) > 0 {
		observability.ObserveMatchScore(float64(norm.TopCareerPath[0].MatchScore))
	}
	observability.CompleteJob("analyze")
	lg.Info("analysis completed",
		slog.String("quiz_id", payload.QuizID),
		slog.String("primary_career", norm.PrimaryCareer()))
	return nil
}

// generateRecommendation runs the prompt through the model and validates the
// parsed payload. Missing optional keys are back-filled with empty defaults;
// missing required keys fail the generation.
func generateRecommendation(ctx context.Context, aicl domain.AIClient, cfg config.Config, sub domain.Submission) (map[string]any, error) {
	userPrompt := aicore.BuildUserPrompt(sub.Answers, cfg.OpenRouterModel, cfg.AIMaxPromptTokens)
	raw, err := aicl.ChatJSON(ctx, aicore.SystemPrompt, userPrompt, 2048)
	if err != nil {
		return nil, err
	}
	rec, err := aicore.ParseRecommendation(raw)
	if err != nil {
		return nil, err
	}
	for _, key := range []string{"topCareerPath", "whyItFits"} {
		if _, ok := rec[key]; !ok {
			return nil, fmt.Errorf("%w: missing %s", domain.ErrSchemaInvalid, key)
		}
	}
	for _, key := range []string{"domainFit", "recommendedSkills", "learningResources", "alternativePaths"} {
		if _, ok := rec[key]; !ok {
			rec[key] = []any{}
		}
	}
	return rec, nil
}
