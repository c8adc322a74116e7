// Package recipe defines the recipe draft produced by AI generation. The Draft
// struct is the one definition of its shape: the provider JSON schema is
// reflected from it and both validation passes read its tags.
package recipe

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/invopop/jsonschema"
)

// SchemaName is the response_format schema name sent to the provider.
const SchemaName = "recipe_draft"

// Item is one ingredient or step. Positions are 1-based and follow array order.
type Item struct {
	Content  string `json:"content" validate:"required" jsonschema:"minLength=1"`
	Position int    `json:"position" validate:"gt=0" jsonschema:"minimum=1"`
}

type Draft struct {
	Name        string `json:"name" validate:"required" jsonschema:"minLength=1" jsonschema_description:"Short recipe title"`
	Description string `json:"description" validate:"required" jsonschema:"minLength=1" jsonschema_description:"One or two sentence summary of the dish"`
	Ingredients []Item `json:"ingredients" validate:"min=1,dive" jsonschema:"minItems=1" jsonschema_description:"Ingredients with quantities in order of use"`
	Steps       []Item `json:"steps" validate:"min=1,dive" jsonschema:"minItems=1" jsonschema_description:"Preparation steps in order"`
}

var schemaJSON = sync.OnceValues(func() ([]byte, error) {
	r := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
		ExpandedStruct: true,
	}
	return json.Marshal(r.Reflect(&Draft{}))
})

// JSONSchema returns the draft's JSON schema as a fresh map, without the
// $schema and $id keywords that providers reject in strict mode.
func JSONSchema() map[string]any {
	raw, err := schemaJSON()
	if err != nil {
		panic(fmt.Sprintf("recipe: reflect schema: %v", err))
	}
	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		panic(fmt.Sprintf("recipe: decode schema: %v", err))
	}
	delete(schema, "$schema")
	delete(schema, "$id")
	return schema
}

// ValidationError lists every rule a draft breaks.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return "recipe draft is invalid: " + strings.Join(e.Issues, "; ")
}

// Validate applies the domain rules to a draft. It is stricter than the
// structural check done on the provider response: text fields that are only
// whitespace are rejected too. Position gaps are not checked.
func Validate(d Draft) error {
	var issues []string

	if strings.TrimSpace(d.Name) == "" {
		issues = append(issues, "name is required")
	}
	if strings.TrimSpace(d.Description) == "" {
		issues = append(issues, "description is required")
	}
	issues = append(issues, validateItems("ingredients", d.Ingredients)...)
	issues = append(issues, validateItems("steps", d.Steps)...)

	if len(issues) > 0 {
		return &ValidationError{Issues: issues}
	}
	return nil
}

func validateItems(field string, items []Item) []string {
	if len(items) == 0 {
		return []string{fmt.Sprintf("%s must contain at least 1 item(s)", field)}
	}
	var issues []string
	for i, item := range items {
		if strings.TrimSpace(item.Content) == "" {
			issues = append(issues, fmt.Sprintf("%s[%d].content is required", field, i))
		}
		if item.Position <= 0 {
			issues = append(issues, fmt.Sprintf("%s[%d].position must be greater than 0", field, i))
		}
	}
	return issues
}
