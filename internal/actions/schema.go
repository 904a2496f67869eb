package actions

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/jimdaga/frequency/internal/apperr"
	"github.com/kaptinlin/jsonschema"
)

//go:embed action.schema.json
var actionSchemaJSON []byte

var actionSchema = mustCompile(actionSchemaJSON)

func mustCompile(data []byte) *jsonschema.Schema {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(data)
	if err != nil {
		panic(fmt.Sprintf("failed to compile action schema: %v", err))
	}
	return schema
}

// ValidateBody checks a create or update body against the action schema.
func ValidateBody(body []byte) error {
	var raw map[string]interface{}
	if err := json.Unmarshal(body, &raw); err != nil || raw == nil {
		return apperr.Validation("Invalid request body")
	}

	result := actionSchema.Validate(raw)
	if result.IsValid() {
		return nil
	}

	// Collect all validation errors
	var messages []string
	for field, evalErr := range result.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
	}
	sort.Strings(messages)
	return apperr.Validation("Invalid action: " + strings.Join(messages, "; "))
}
