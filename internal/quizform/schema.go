// Package quizform holds the declarative quiz field schema and the request
// validation built on it. The schema is the single source of truth for
// required-field checks and persistence defaults, so the validator and the
// storage layer can never disagree about which fields exist.
package quizform

import (
	_ "embed"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Field kinds.
const (
	KindSelect      = "select"
	KindMultiSelect = "multiselect"
	KindScale       = "scale"
	KindText        = "text"
)

// Field describes one quiz question as the server sees it.
type Field struct {
	Name string `yaml:"name"`
	Kind string `yaml:"kind"`
	// Required fields must be present and non-empty at submission time.
	Required bool `yaml:"required"`
	// Options documents the client's option list; membership is not
	// enforced server-side.
	Options []string `yaml:"options"`
	// MaxSelections is a UI-only cap on multiselect fields; the server
	// accepts longer arrays.
	MaxSelections int `yaml:"maxSelections"`
}

//go:embed schema.yaml
var schemaYAML []byte

type schemaFile struct {
	Fields []Field `yaml:"fields"`
}

var (
	loadOnce sync.Once
	fields   []Field
	loadErr  error
)

// Fields returns the parsed schema. The embedded document is parsed once;
// a malformed schema is a programming error surfaced on first use.
func Fields() []Field {
	loadOnce.Do(func() {
		var f schemaFile
		if err := yaml.Unmarshal(schemaYAML, &f); err != nil {
			loadErr = fmt.Errorf("op=quizform.load: %w", err)
			return
		}
		fields = f.Fields
	})
	if loadErr != nil {
		panic(loadErr)
	}
	return fields
}

// RequiredFields returns the names of all required fields in schema order.
func RequiredFields() []string {
	var out []string
	for _, f := range Fields() {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
