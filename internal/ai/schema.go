package ai

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// lessonPlanSchema is the shape a drafted lesson plan must satisfy before it
// is offered to the user: the three activity phases of a lesson, each a
// non-empty string.
const lessonPlanSchema = `{
	"type": "object",
	"properties": {
		"kegiatanAwal":    {"type": "string", "minLength": 1},
		"kegiatanInti":    {"type": "string", "minLength": 1},
		"kegiatanPenutup": {"type": "string", "minLength": 1}
	},
	"required": ["kegiatanAwal", "kegiatanInti", "kegiatanPenutup"]
}`

var lessonPlanSchemaLoader = gojsonschema.NewStringLoader(lessonPlanSchema)

// validateLessonPlanJSON checks a raw model response against the lesson plan
// schema. Returns a single error joining every violation.
func validateLessonPlanJSON(raw string) error {
	result, err := gojsonschema.Validate(lessonPlanSchemaLoader, gojsonschema.NewStringLoader(raw))
	if err != nil {
		return fmt.Errorf("draft is not valid JSON: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msgs = append(msgs, desc.String())
	}
	return fmt.Errorf("draft failed validation: %s", strings.Join(msgs, "; "))
}
