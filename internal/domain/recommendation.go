package domain

import "strings"

// GenericCareerTitle is the fallback career title used whenever neither
// stored shape carries a usable one.
const GenericCareerTitle = "Versatile Professional"

// CareerPath is one entry of the nested-shape topCareerPath array.
type CareerPath struct {
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description" json:"description"`
	MatchScore  int    `bson:"matchScore" json:"matchScore"`
}

// Recommendation is the canonical internal recommendation type. Stored
// payloads exist in two historical shapes; NormalizeRecommendation is the
// single boundary that folds both into this type, so no other reader needs
// fallback chains.
type Recommendation struct {
	TopCareerPath     []CareerPath
	DomainFit         []string
	WhyItFits         []string
	RecommendedSkills []string
	LearningResources []string
	AlternativePaths  []string
}

// NormalizeRecommendation converts a stored recommendation payload, in
// either the nested shape (topCareerPath/domainFit/whyItFits arrays) or the
// legacy flat shape (primaryCareer string, whyItFits object of sub-arrays),
// into the canonical type. Derivation rules: prefer the nested field, else
// derive from the legacy field, else fall back to a generic default.
func NormalizeRecommendation(raw map[string]any) Recommendation {
	var rec Recommendation
	if raw == nil {
		raw = map[string]any{}
	}

	rec.TopCareerPath = asCareerPaths(raw["topCareerPath"])
	if len(rec.TopCareerPath) == 0 {
		if primary := strings.TrimSpace(asString(raw["primaryCareer"])); primary != "" {
			rec.TopCareerPath = []CareerPath{{Title: primary}}
		}
	}
	for _, alt := range asStringSlice(raw["secondaryCareers"]) {
		rec.AlternativePaths = append(rec.AlternativePaths, alt)
	}
	if alts := asStringSlice(raw["alternativePaths"]); len(alts) > 0 {
		rec.AlternativePaths = alts
	}

	rec.DomainFit = asStringSlice(raw["domainFit"])
	rec.WhyItFits = asStringSlice(raw["whyItFits"])
	if len(rec.WhyItFits) == 0 {
		// Legacy whyItFits is an object of sub-arrays (interests,
		// strengths, workStyle); flatten in a stable order.
		if m, ok := asMap(raw["whyItFits"]); ok {
			for _, key := range []string{"interests", "strengths", "workStyle"} {
				rec.WhyItFits = append(rec.WhyItFits, asStringSlice(m[key])...)
			}
		}
	}

	rec.RecommendedSkills = asStringSlice(raw["recommendedSkills"])
	if len(rec.RecommendedSkills) == 0 {
		rec.RecommendedSkills = asStringSlice(raw["skillsToDevelop"])
	}
	rec.LearningResources = asStringSlice(raw["learningResources"])
	if len(rec.LearningResources) == 0 {
		rec.LearningResources = asStringSlice(raw["resources"])
	}

	if len(rec.TopCareerPath) == 0 {
		rec.TopCareerPath = []CareerPath{{Title: GenericCareerTitle}}
	}
	return rec
}

// PrimaryCareer returns the legacy flat primary career title.
func (r Recommendation) PrimaryCareer() string {
	if len(r.TopCareerPath) > 0 && strings.TrimSpace(r.TopCareerPath[0].Title) != "" {
		return r.TopCareerPath[0].Title
	}
	return GenericCareerTitle
}

// Envelope reshapes the canonical recommendation into the unified public
// response contract, exposing both the nested and the legacy flat fields
// simultaneously.
func (r Recommendation) Envelope() map[string]any {
	paths := make([]map[string]any, 0, len(r.TopCareerPath))
	for _, p := range r.TopCareerPath {
		paths = append(paths, map[string]any{
			"title":       p.Title,
			"description": p.Description,
			"matchScore":  p.MatchScore,
		})
	}
	secondary := r.AlternativePaths
	if secondary == nil {
		secondary = []string{}
	}
	return map[string]any{
		// Nested shape.
		"topCareerPath":     paths,
		"domainFit":         emptyIfNil(r.DomainFit),
		"whyItFits":         emptyIfNil(r.WhyItFits),
		"recommendedSkills": emptyIfNil(r.RecommendedSkills),
		"learningResources": emptyIfNil(r.LearningResources),
		"alternativePaths":  secondary,
		// Legacy flat shape, derived from the same canonical data.
		"primaryCareer":    r.PrimaryCareer(),
		"secondaryCareers": secondary,
		"skillsToDevelop":  emptyIfNil(r.RecommendedSkills),
		"resources":        emptyIfNil(r.LearningResources),
	}
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			if s, ok := e.(string); ok && strings.TrimSpace(s) != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(t) == "" {
			return nil
		}
		return []string{t}
	default:
		return nil
	}
}

func asCareerPaths(v any) []CareerPath {
	switch t := v.(type) {
	case []any:
		out := make([]CareerPath, 0, len(t))
		for _, e := range t {
			m, ok := asMap(e)
			if !ok {
				continue
			}
			p := CareerPath{
				Title:       strings.TrimSpace(asString(m["title"])),
				Description: asString(m["description"]),
				MatchScore:  asInt(m["matchScore"]),
			}
			if p.Title != "" {
				out = append(out, p)
			}
		}
		return out
	case map[string]any:
		// Some early nested records stored a single object instead of an
		// array; accept both.
		title := strings.TrimSpace(asString(t["title"]))
		if title == "" {
			return nil
		}
		return []CareerPath{{Title: title, Description: asString(t["description"]), MatchScore: asInt(t["matchScore"])}}
	default:
		return nil
	}
}

func asInt(v any) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	default:
		return 0
	}
}
