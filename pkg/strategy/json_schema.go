package strategy

import (
	"encoding/json"
	"reflect"

	"github.com/invopop/jsonschema"
)

type schemaOptions struct {
	title  string
	mapper func(reflect.Type) *jsonschema.Schema
}

// SchemaOption customises ToJSONSchema.
type SchemaOption func(*schemaOptions)

// WithTitle sets the title of the root schema.
func WithTitle(title string) SchemaOption {
	return func(o *schemaOptions) {
		o.title = title
	}
}

// WithMapper overrides the schema of the types mapper returns non-nil for.
func WithMapper(mapper func(reflect.Type) *jsonschema.Schema) SchemaOption {
	return func(o *schemaOptions) {
		o.mapper = mapper
	}
}

// ToJSONSchema reflects a parameter struct into an inline JSON schema.
// Field defaults come from the jsonschema tags, not from the values in t.
func ToJSONSchema[T any](t T, opts ...SchemaOption) (string, error) {
	options := schemaOptions{}
	for _, opt := range opts {
		opt(&options)
	}

	r := &jsonschema.Reflector{
		DoNotReference: true,
		Mapper:         options.mapper,
	}

	schema := r.Reflect(t)
	if options.title != "" {
		schema.Title = options.title
	}

	jsonSchemaBytes, err := json.Marshal(schema)
	if err != nil {
		return "", err
	}

	return string(jsonSchemaBytes), nil
}
