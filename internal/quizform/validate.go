package quizform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pathfinderhq/pathfinder-backend/internal/domain"
	"github.com/pathfinderhq/pathfinder-backend/pkg/textx"
)

// Scale bounds for 1-5 rating questions.
const (
	ScaleMin = 1
	ScaleMax = 5
)

// FieldError names one offending field in a rejected submission.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string { return fmt.Sprintf("%s: %s", e.Field, e.Message) }

// Parse validates a flat answer payload against the schema and assembles the
// canonical Answers value. Coercion is deliberately defensive:
//   - a bare scalar for a multiselect field becomes a one-element array;
//   - scale values are accepted as JSON numbers or numeric strings;
//   - unspecified optional fields default to empty string/array.
//
// On violation it returns every offending field, not just the first.
func Parse(raw map[string]any) (domain.Answers, []FieldError) {
	var (
		ans  domain.Answers
		errs []FieldError
	)
	for _, f := range Fields() {
		v, present := raw[f.Name]
		switch f.Kind {
		case KindMultiSelect:
			list, ok := coerceStringList(v)
			if !ok {
				errs = append(errs, FieldError{Field: f.Name, Message: "must be a list of strings"})
				continue
			}
			list = textx.SanitizeAll(list)
			if f.Required && len(list) == 0 {
				errs = append(errs, FieldError{Field: f.Name, Message: "required, must be a non-empty list"})
				continue
			}
			assignList(&ans, f.Name, list)
		case KindScale:
			if !present {
				if f.Required {
					errs = append(errs, FieldError{Field: f.Name, Message: "required"})
				}
				continue
			}
			n, ok := coerceScale(v)
			if !ok {
				errs = append(errs, FieldError{Field: f.Name, Message: fmt.Sprintf("must be a number between %d and %d", ScaleMin, ScaleMax)})
				continue
			}
			assignScale(&ans, f.Name, n)
		default: // select and free text
			s, ok := coerceString(v)
			if !ok {
				errs = append(errs, FieldError{Field: f.Name, Message: "must be a string"})
				continue
			}
			s = textx.SanitizeText(s)
			if f.Required && s == "" {
				errs = append(errs, FieldError{Field: f.Name, Message: "required"})
				continue
			}
			assignString(&ans, f.Name, s)
		}
	}
	if len(errs) > 0 {
		return domain.Answers{}, errs
	}
	// Array fields are non-nil in the canonical form even when optional and
	// absent, so storage never sees a null where a list belongs.
	for _, p := range []*[]string{&ans.EnjoyedSubjects, &ans.StrongSubjects, &ans.Hobbies, &ans.Motivators} {
		if *p == nil {
			*p = []string{}
		}
	}
	return ans, nil
}

func coerceString(v any) (string, bool) {
	switch t := v.(type) {
	case nil:
		return "", true
	case string:
		return t, true
	default:
		return "", false
	}
}

// coerceStringList accepts either a proper array or a bare scalar string,
// mirroring the dual shapes clients have historically sent.
func coerceStringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case nil:
		return nil, true
	case string:
		if strings.TrimSpace(t) == "" {
			return nil, true
		}
		return []string{t}, true
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	default:
		return nil, false
	}
}

// coerceScale accepts JSON numbers and numeric strings; anything outside
// [ScaleMin, ScaleMax] or non-numeric is rejected.
func coerceScale(v any) (int, bool) {
	var n float64
	switch t := v.(type) {
	case float64:
		n = t
	case int:
		n = float64(t)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	default:
		return 0, false
	}
	i := int(n)
	if float64(i) != n || i < ScaleMin || i > ScaleMax {
		return 0, false
	}
	return i, true
}

func assignString(a *domain.Answers, name, v string) {
	switch name {
	case "currentGrade":
		a.CurrentGrade = v
	case "stream":
		a.Stream = v
	case "workStyle":
		a.WorkStyle = v
	case "teamPreference":
		a.TeamPreference = v
	case "careerGoals":
		a.CareerGoals = v
	case "preferredWorkEnvironment":
		a.PreferredWorkEnvironment = v
	case "learningStyle":
		a.LearningStyle = v
	case "problemSolvingApproach":
		a.ProblemSolvingApproach = v
	case "higherStudiesPlan":
		a.HigherStudiesPlan = v
	case "budgetConstraint":
		a.BudgetConstraint = v
	case "dreamCareer":
		a.DreamCareer = v
	case "parentExpectation":
		a.ParentExpectation = v
	case "additionalInfo":
		a.AdditionalInfo = v
	}
}

func assignList(a *domain.Answers, name string, v []string) {
	switch name {
	case "enjoyedSubjects":
		a.EnjoyedSubjects = v
	case "strongSubjects":
		a.StrongSubjects = v
	case "hobbies":
		a.Hobbies = v
	case "motivators":
		a.Motivators = v
	}
}

func assignScale(a *domain.Answers, name string, v int) {
	switch name {
	case "techComfort":
		a.TechComfort = v
	case "creativeInterest":
		a.CreativeInterest = v
	}
}
