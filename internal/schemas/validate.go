// Package schemas validates knapsack documents against the embedded JSON Schemas.
package schemas

import (
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	schemafiles "github.com/jonathan/knapsack-search/schemas"
)

// Names of the embedded schemas
const (
	InstanceSchema = schemafiles.Instance
	DatasetSchema  = schemafiles.Dataset
	ResultSchema   = schemafiles.Result
)

// FieldError is one schema violation
type FieldError struct {
	Field   string // dotted path, "(root)" for the document itself
	Message string
}

// ValidationError lists every violation of a document against Schema
type ValidationError struct {
	Schema string
	Errors []FieldError
}

func (ve *ValidationError) Error() string {
	parts := make([]string, len(ve.Errors))
	for i, fe := range ve.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return fmt.Sprintf("%s validation failed: %s", ve.Schema, strings.Join(parts, "; "))
}

// SchemaLoadError means the schema itself is missing or broken
type SchemaLoadError struct {
	Path  string
	Cause error
}

func (e *SchemaLoadError) Error() string {
	return fmt.Sprintf("failed to load schema %s: %v", e.Path, e.Cause)
}

func (e *SchemaLoadError) Unwrap() error {
	return e.Cause
}

// compiled caches schemas by name; a failed compile is cached too
var compiled sync.Map // name -> func() (*gojsonschema.Schema, error)

func load(name string) (*gojsonschema.Schema, error) {
	once, _ := compiled.LoadOrStore(name, sync.OnceValues(func() (*gojsonschema.Schema, error) {
		data, err := schemafiles.FS.ReadFile(name)
		if err != nil {
			return nil, &SchemaLoadError{Path: name, Cause: fmt.Errorf("not embedded: %w", err)}
		}
		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(data))
		if err != nil {
			return nil, &SchemaLoadError{Path: name, Cause: err}
		}
		return schema, nil
	}))
	return once.(func() (*gojsonschema.Schema, error))()
}

// ValidateDocument checks a JSON document against the named embedded schema.
// Violations come back as *ValidationError; unparsable JSON as a plain error.
func ValidateDocument(schemaName string, data []byte) error {
	schema, err := load(schemaName)
	if err != nil {
		return err
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("failed to parse document: %w", err)
	}
	if result.Valid() {
		return nil
	}

	ve := &ValidationError{Schema: schemaName}
	for _, desc := range result.Errors() {
		field := desc.Field()
		if field == "" {
			field = "(root)"
		}
		ve.Errors = append(ve.Errors, FieldError{Field: field, Message: desc.Description()})
	}
	return ve
}
