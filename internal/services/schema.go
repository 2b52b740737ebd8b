package services

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// analysisResultSchema is the contract the LLM response must satisfy.
// Numbers are accepted as floats; they are rounded after decoding.
const analysisResultSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["matchPercentage", "atsScore", "matchedSkills", "missingSkills", "suggestions"],
  "properties": {
    "matchPercentage": {"type": "number"},
    "atsScore": {"type": "number"},
    "matchedSkills": {"type": "array", "items": {"type": "string"}},
    "missingSkills": {"type": "array", "items": {"type": "string"}},
    "suggestions": {"type": "array", "items": {"type": "string"}},
    "detailedFeedback": {"type": "string"}
  }
}`

var analysisSchemaLoader = gojsonschema.NewStringLoader(analysisResultSchema)

// validateAnalysisJSON checks a raw JSON document against the analysis contract.
func validateAnalysisJSON(doc string) error {
	result, err := gojsonschema.Validate(analysisSchemaLoader, gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("invalid JSON document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		problems = append(problems, fmt.Sprintf("%s: %s", field, desc.Description()))
	}
	return fmt.Errorf("response does not match analysis schema: %s", strings.Join(problems, "; "))
}
