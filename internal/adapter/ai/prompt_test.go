package ai_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/ai"
	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/ai/tokencount"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

func fullAnswers() domain.Answers {
	return domain.Answers{
		CurrentGrade:             "12th",
		Stream:                   "Science",
		EnjoyedSubjects:          []string{"Math", "Physics"},
		StrongSubjects:           []string{"Math"},
		Hobbies:                  []string{"Chess", "Robotics"},
		Motivators:               []string{"Curiosity"},
		WorkStyle:                "structured",
		TeamPreference:           "team",
		TechComfort:              5,
		CreativeInterest:         2,
		CareerGoals:              "build large systems",
		PreferredWorkEnvironment: "office",
		LearningStyle:            "visual",
		ProblemSolvingApproach:   "analytical",
		HigherStudiesPlan:        "yes",
		BudgetConstraint:         "moderate",
		DreamCareer:              "Aerospace engineer",
		ParentExpectation:        "Doctor",
		AdditionalInfo:           "volunteers at a science club",
	}
}

func TestBuildUserPrompt_RendersAllAnswers(t *testing.T) {
	t.Parallel()
	prompt := ai.BuildUserPrompt(fullAnswers(), "openai/gpt-4o", 0)

	for _, want := range []string{
		"Current grade: 12th",
		"Stream: Science",
		"Enjoyed subjects: Math, Physics",
		"Hobbies: Chess, Robotics",
		"Tech comfort (1-5): 5",
		"Dream career: Aerospace engineer",
		"Parent expectation: Doctor",
		"Additional info: volunteers at a science club",
	} {
		assert.Contains(t, prompt, want)
	}
	assert.True(t, strings.HasPrefix(prompt, "Student profile:"))
}

func TestBuildUserPrompt_SkipsEmptyFields(t *testing.T) {
	t.Parallel()
	a := fullAnswers()
	a.DreamCareer = ""
	a.Hobbies = nil

	prompt := ai.BuildUserPrompt(a, "openai/gpt-4o", 0)
	assert.NotContains(t, prompt, "Dream career")
	assert.NotContains(t, prompt, "Hobbies")
}

func TestBuildUserPrompt_TruncatesFreeTextTail(t *testing.T) {
	t.Parallel()
	a := fullAnswers()
	a.AdditionalInfo = strings.Repeat("long free text answer ", 500)

	full := ai.BuildUserPrompt(a, "openai/gpt-4o", 0)
	capped := ai.BuildUserPrompt(a, "openai/gpt-4o", 200)

	require.Less(t, len(capped), len(full))
	assert.LessOrEqual(t, tokencount.CountTokensDefault(capped, "openai/gpt-4o"), 200)
	// Structured answers at the head of the prompt survive the cut.
	assert.Contains(t, capped, "Current grade: 12th")
	assert.NotContains(t, capped, a.AdditionalInfo)
}

func TestSystemPrompt_NamesRequiredKeys(t *testing.T) {
	t.Parallel()
	for _, key := range []string{"topCareerPath", "domainFit", "whyItFits", "recommendedSkills", "learningResources", "alternativePaths"} {
		assert.Contains(t, ai.SystemPrompt, key)
	}
}
