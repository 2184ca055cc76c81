// Package schema validates search API payloads against JSON Schemas reflected
// from the client's wire types.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	invopop "github.com/invopop/jsonschema"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Validator validates JSON data against a compiled schema.
type Validator struct {
	name   string
	schema *jsonschema.Schema
	source map[string]any
}

// ValidationError lists why a payload did not match its schema.
type ValidationError struct {
	Target string
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("malformed %s payload: %s", e.Target, strings.Join(e.Errors, "; "))
}

// NewValidatorFor reflects a JSON Schema from the Go type of v and compiles
// it. Fields without omitempty are required, time.Time fields must be
// RFC 3339 date-times, and unknown properties are allowed.
func NewValidatorFor(name string, v any) (*Validator, error) {
	r := &invopop.Reflector{
		Anonymous:                 true,
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	reflected := r.Reflect(v)

	schemaJSON, err := json.Marshal(reflected)
	if err != nil {
		return nil, fmt.Errorf("marshaling %s schema: %w", name, err)
	}

	// The compiler wants a plain decoded JSON value, not a struct or reader.
	var schemaValue map[string]any
	if err := json.Unmarshal(schemaJSON, &schemaValue); err != nil {
		return nil, fmt.Errorf("unmarshaling %s schema: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.AssertFormat()

	resource := name + ".json"
	if err := compiler.AddResource(resource, schemaValue); err != nil {
		return nil, fmt.Errorf("adding %s schema resource: %w", name, err)
	}

	compiled, err := compiler.Compile(resource)
	if err != nil {
		return nil, fmt.Errorf("compiling %s schema: %w", name, err)
	}

	return &Validator{name: name, schema: compiled, source: schemaValue}, nil
}

// Validate checks data against the schema. It returns nil or a
// *ValidationError; invalid JSON is reported as a ValidationError too.
func (v *Validator) Validate(data []byte) error {
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return &ValidationError{
			Target: v.name,
			Errors: []string{fmt.Sprintf("invalid JSON: %s", err.Error())},
		}
	}

	if err := v.schema.Validate(value); err != nil {
		return &ValidationError{Target: v.name, Errors: extractValidationErrors(err)}
	}
	return nil
}

// Schema returns the reflected schema document.
func (v *Validator) Schema() map[string]any {
	return v.source
}

// extractValidationErrors extracts human-readable error messages from a validation error.
func extractValidationErrors(err error) []string {
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		if msgs := extractDetailedErrors(validationErr); len(msgs) > 0 {
			return msgs
		}
	}
	return []string{err.Error()}
}

// printer is a default English printer for localized error messages.
var printer = message.NewPrinter(language.English)

// extractDetailedErrors flattens leaf errors into sorted "path: message" lines.
func extractDetailedErrors(err *jsonschema.ValidationError) []string {
	errorsByPath := make(map[string][]string)
	collectErrors(err, errorsByPath)

	var result []string
	for path, msgs := range errorsByPath {
		seen := make(map[string]bool)
		for _, msg := range msgs {
			if seen[msg] {
				continue
			}
			seen[msg] = true
			if path != "" {
				result = append(result, fmt.Sprintf("%s: %s", path, msg))
			} else {
				result = append(result, msg)
			}
		}
	}
	sort.Strings(result)
	return result
}

// collectErrors recursively collects leaf errors (those without causes).
func collectErrors(err *jsonschema.ValidationError, errorsByPath map[string][]string) {
	instancePath := ""
	if len(err.InstanceLocation) > 0 {
		instancePath = "/" + strings.Join(err.InstanceLocation, "/")
	}

	if err.ErrorKind != nil && len(err.Causes) == 0 {
		errMsg := err.ErrorKind.LocalizedString(printer)
		if !strings.HasPrefix(errMsg, "$ref ") && !strings.HasPrefix(errMsg, "doesn't validate with") {
			errorsByPath[instancePath] = append(errorsByPath[instancePath], errMsg)
		}
	}

	for _, cause := range err.Causes {
		collectErrors(cause, errorsByPath)
	}
}
