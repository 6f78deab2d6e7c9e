package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeRecommendation_NestedShape(t *testing.T) {
	raw := map[string]any{
		"topCareerPath": []any{
			map[string]any{"title": "Software Engineer", "description": "Builds systems", "matchScore": 92},
			map[string]any{"title": "Data Analyst", "matchScore": 80},
		},
		"domainFit":         []any{"Technology", "Engineering"},
		"whyItFits":         []any{"High tech comfort", "Enjoys problem solving"},
		"recommendedSkills": []any{"Go", "SQL"},
		"learningResources": []any{"freeCodeCamp"},
	}
	rec := NormalizeRecommendation(raw)
	require.Len(t, rec.TopCareerPath, 2)
	assert.Equal(t, "Software Engineer", rec.TopCareerPath[0].Title)
	assert.Equal(t, 92, rec.TopCareerPath[0].MatchScore)
	assert.Equal(t, []string{"Technology", "Engineering"}, rec.DomainFit)
	assert.Equal(t, "Software Engineer", rec.PrimaryCareer())
}

func TestNormalizeRecommendation_LegacyFlatShape(t *testing.T) {
	raw := map[string]any{
		"primaryCareer":    "Graphic Designer",
		"secondaryCareers": []any{"UX Designer", "Illustrator"},
		"whyItFits": map[string]any{
			"interests": []any{"Drawing"},
			"strengths": []any{"Creativity"},
			"workStyle": []any{"Independent work"},
		},
		"skillsToDevelop": []any{"Typography"},
		"resources":       []any{"Behance"},
	}
	rec := NormalizeRecommendation(raw)
	require.Len(t, rec.TopCareerPath, 1)
	assert.Equal(t, "Graphic Designer", rec.TopCareerPath[0].Title)
	assert.Equal(t, []string{"Drawing", "Creativity", "Independent work"}, rec.WhyItFits)
	assert.Equal(t, []string{"Typography"}, rec.RecommendedSkills)
	assert.Equal(t, []string{"Behance"}, rec.LearningResources)
	assert.Equal(t, []string{"UX Designer", "Illustrator"}, rec.AlternativePaths)
}

func TestNormalizeRecommendation_EmptyPayloadFallsBackToGeneric(t *testing.T) {
	rec := NormalizeRecommendation(nil)
	require.Len(t, rec.TopCareerPath, 1)
	assert.Equal(t, GenericCareerTitle, rec.TopCareerPath[0].Title)
	assert.Equal(t, GenericCareerTitle, rec.PrimaryCareer())
}

func TestNormalizeRecommendation_SingleObjectTopCareerPath(t *testing.T) {
	raw := map[string]any{
		"topCareerPath": map[string]any{"title": "Nurse", "matchScore": 88},
	}
	rec := NormalizeRecommendation(raw)
	require.Len(t, rec.TopCareerPath, 1)
	assert.Equal(t, "Nurse", rec.TopCareerPath[0].Title)
}

func TestEnvelope_ExposesBothShapesConsistently(t *testing.T) {
	rec := NormalizeRecommendation(map[string]any{
		"primaryCareer":   "Teacher",
		"skillsToDevelop": []any{"Public speaking"},
	})
	env := rec.Envelope()

	paths, ok := env["topCareerPath"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, paths, 1)
	assert.Equal(t, "Teacher", paths[0]["title"])
	assert.Equal(t, "Teacher", env["primaryCareer"])
	assert.Equal(t, []string{"Public speaking"}, env["recommendedSkills"])
	assert.Equal(t, []string{"Public speaking"}, env["skillsToDevelop"])
	// Arrays are never nil in the public contract.
	assert.Equal(t, []string{}, env["domainFit"])
	assert.Equal(t, []string{}, env["secondaryCareers"])
}

func TestSubmissionStatusTerminal(t *testing.T) {
	assert.False(t, SubmissionPending.Terminal())
	assert.True(t, SubmissionCompleted.Terminal())
	assert.True(t, SubmissionFailed.Terminal())
}
