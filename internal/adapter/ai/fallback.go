package ai

import "github.com/pathfinderhq/pathfinder-backend/internal/domain"

// FallbackRecommendation returns the topic-generic recommendation payload
// stored when the AI provider cannot produce a usable analysis and the
// deployment runs in demo mode. The shape matches the nested contract so
// readers treat it like any other completed analysis.
func FallbackRecommendation() map[string]any {
	return map[string]any{
		"topCareerPath": []any{
			map[string]any{
				"title":       domain.GenericCareerTitle,
				"description": "A flexible career direction that builds broadly applicable skills while you explore specific fields.",
				"matchScore":  70,
			},
		},
		"domainFit": []any{"General"},
		"whyItFits": []any{
			"Your answers show a balanced mix of interests that fit many fields.",
			"Broad foundations keep multiple career doors open.",
		},
		"recommendedSkills": []any{
			"Communication",
			"Problem solving",
			"Digital literacy",
			"Time management",
		},
		"learningResources": []any{
			"Khan Academy - foundational courses",
			"Coursera - career exploration specializations",
		},
		"alternativePaths": []any{"Business Analyst", "Project Coordinator"},
	}
}
