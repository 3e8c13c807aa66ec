package schemas

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateDocument_Instance(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "valid", doc: `{"weights":[1,2],"values":[3,4],"capacity":3}`},
		{name: "empty arrays", doc: `{"weights":[],"values":[],"capacity":0}`},
		{name: "missing capacity", doc: `{"weights":[1],"values":[1]}`, wantErr: true},
		{name: "negative weight", doc: `{"weights":[-1],"values":[1],"capacity":3}`, wantErr: true},
		{name: "string value", doc: `{"weights":[1],"values":["a"],"capacity":3}`, wantErr: true},
		{name: "unknown field", doc: `{"weights":[1],"values":[1],"capacity":3,"extra":true}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(InstanceSchema, []byte(tt.doc))
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var validationErr *ValidationError
			require.True(t, errors.As(err, &validationErr), "error should be ValidationError type")
			assert.Greater(t, len(validationErr.Errors), 0)
		})
	}
}

func TestValidateDocument_Dataset(t *testing.T) {
	valid := `{"name":"batch","seed":42,"samples":[{"id":0,"num_items":2,"capacity":3,"total_weight":5,"weights":[2,3],"values":[4,5]}]}`
	assert.NoError(t, ValidateDocument(DatasetSchema, []byte(valid)))

	invalid := `{"samples":[{"id":0,"weights":[2,3],"values":[4,5]}]}`
	err := ValidateDocument(DatasetSchema, []byte(invalid))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "capacity")
}

func TestValidateDocument_Result(t *testing.T) {
	valid := `{"items":[0,2],"total_value":9,"total_weight":3,"solve_time":0.001}`
	assert.NoError(t, ValidateDocument(ResultSchema, []byte(valid)))

	failed := `{"items":[],"total_value":0,"total_weight":0,"solve_time":0,"error":"malformed input"}`
	assert.NoError(t, ValidateDocument(ResultSchema, []byte(failed)))

	duplicate := `{"items":[1,1],"total_value":9,"total_weight":3,"solve_time":0.001}`
	assert.Error(t, ValidateDocument(ResultSchema, []byte(duplicate)))
}

func TestValidateDocument_MalformedJSON(t *testing.T) {
	err := ValidateDocument(InstanceSchema, []byte(`{"weights": [1,`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse document")
}

func TestValidateDocument_UnknownSchema(t *testing.T) {
	err := ValidateDocument("missing.schema.json", []byte(`{}`))
	require.Error(t, err)

	var loadErr *SchemaLoadError
	require.True(t, errors.As(err, &loadErr))
	assert.Equal(t, "missing.schema.json", loadErr.Path)
	assert.Contains(t, err.Error(), "not embedded")
}

func TestValidateDocument_CachesSchema(t *testing.T) {
	a, err := load(InstanceSchema)
	require.NoError(t, err)
	b, err := load(InstanceSchema)
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{
		Schema: InstanceSchema,
		Errors: []FieldError{
			{Field: "weights.0", Message: "Must be greater than or equal to 0"},
			{Field: "(root)", Message: "capacity is required"},
		},
	}

	assert.Equal(t,
		"instance.schema.json validation failed: weights.0: Must be greater than or equal to 0; (root): capacity is required",
		err.Error())
}
