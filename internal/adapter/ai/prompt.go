package ai

import (
	"fmt"
	"strings"

	"github.com/pathfinderhq/pathfinder-backend/internal/adapter/ai/tokencount"
	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
)

// SystemPrompt instructs the model to act as a career counselor and reply
// with a single JSON object in the nested recommendation shape.
const SystemPrompt = `You are an experienced career counselor for students in India. ` +
	`Given a student's quiz answers, recommend career paths. ` +
	`Respond with ONLY a single JSON object, no markdown fences and no prose, with exactly these keys: ` +
	`"topCareerPath" (array of 3 objects with "title", "description", "matchScore" integer 0-100, best match first), ` +
	`"domainFit" (array of strings), ` +
	`"whyItFits" (array of strings explaining the fit), ` +
	`"recommendedSkills" (array of strings), ` +
	`"learningResources" (array of strings), ` +
	`"alternativePaths" (array of strings).`

// BuildUserPrompt renders every stored answer into the model prompt,
// truncating the free-text tail when the token cap would be exceeded.
func BuildUserPrompt(a domain.Answers, model string, maxTokens int) string {
	var b strings.Builder
	b.WriteString("Student profile:\n")
	writeLine(&b, "Current grade", a.CurrentGrade)
	writeLine(&b, "Stream", a.Stream)
	writeList(&b, "Enjoyed subjects", a.EnjoyedSubjects)
	writeList(&b, "Strong subjects", a.StrongSubjects)
	writeList(&b, "Hobbies", a.Hobbies)
	writeList(&b, "Motivators", a.Motivators)
	writeLine(&b, "Work style", a.WorkStyle)
	writeLine(&b, "Team preference", a.TeamPreference)
	writeLine(&b, "Tech comfort (1-5)", fmt.Sprintf("%d", a.TechComfort))
	writeLine(&b, "Creative interest (1-5)", fmt.Sprintf("%d", a.CreativeInterest))
	writeLine(&b, "Career goals", a.CareerGoals)
	writeLine(&b, "Preferred work environment", a.PreferredWorkEnvironment)
	writeLine(&b, "Learning style", a.LearningStyle)
	writeLine(&b, "Problem solving approach", a.ProblemSolvingApproach)
	writeLine(&b, "Higher studies plan", a.HigherStudiesPlan)
	writeLine(&b, "Budget constraint", a.BudgetConstraint)
	writeLine(&b, "Dream career", a.DreamCareer)
	writeLine(&b, "Parent expectation", a.ParentExpectation)
	writeLine(&b, "Additional info", a.AdditionalInfo)
	b.WriteString("\nRecommend the best career paths for this student.")

	prompt := b.String()
	if maxTokens > 0 && tokencount.CountTokensDefault(prompt, model) > maxTokens {
		prompt = truncateToTokens(prompt, model, maxTokens)
	}
	return prompt
}

func writeLine(b *strings.Builder, label, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	b.WriteString("- ")
	b.WriteString(label)
	b.WriteString(": ")
	b.WriteString(value)
	b.WriteString("\n")
}

func writeList(b *strings.Builder, label string, values []string) {
	if len(values) == 0 {
		return
	}
	writeLine(b, label, strings.Join(values, ", "))
}

// truncateToTokens cuts the prompt down by whole lines until it fits the
// token budget. Free text sits at the end of the prompt, so structured
// answers survive the cut.
func truncateToTokens(prompt, model string, maxTokens int) string {
	lines := strings.Split(prompt, "\n")
	for len(lines) > 1 {
		lines = lines[:len(lines)-1]
		candidate := strings.Join(lines, "\n")
		if tokencount.CountTokensDefault(candidate, model) <= maxTokens {
			return candidate
		}
	}
	return lines[0]
}
