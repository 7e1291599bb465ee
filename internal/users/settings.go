package users

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/kaptinlin/jsonschema"
)

//go:embed settings.schema.json
var settingsSchema []byte

// SettingsValidator checks user settings documents against the embedded
// JSON Schema.
type SettingsValidator struct {
	schema *jsonschema.Schema
}

// NewSettingsValidator compiles the settings schema.
func NewSettingsValidator() (*SettingsValidator, error) {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(settingsSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile settings schema: %w", err)
	}
	return &SettingsValidator{schema: schema}, nil
}

// Validate returns an error describing every violation in settings.
func (v *SettingsValidator) Validate(settings map[string]interface{}) error {
	result := v.schema.Validate(settings)
	if result.IsValid() {
		return nil
	}

	// Collect all validation errors
	var messages []string
	for field, evalErr := range result.Errors {
		messages = append(messages, fmt.Sprintf("%s: %s", field, evalErr.Error()))
	}
	sort.Strings(messages)
	return fmt.Errorf("settings validation failed: %s", strings.Join(messages, "; "))
}
