package rehydrate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

func mustSchema(t *testing.T, raw string) *schema.Schema {
	t.Helper()
	s, err := schema.NewSchema([]byte(raw))
	require.NoError(t, err)
	return s
}

func TestRehydrateInvertsJSONStringParse(t *testing.T) {
	original := mustSchema(t, `{"type":"object","properties":{"a":{"type":"integer"}}}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformJSONStringParse, SchemaPath: ""})

	result, warnings := Rehydrate(`{"a":1}`, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
	m, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), m["a"])
}

func TestRehydrateJSONStringParseStripsCodeFences(t *testing.T) {
	original := mustSchema(t, `{"type":"object"}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformJSONStringParse, SchemaPath: ""})

	fenced := "```json\n{\"a\":1}\n```"
	result, warnings := Rehydrate(fenced, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
	m, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), m["a"])
}

func TestRehydrateJSONStringParseFailureReturnsLiteralWithWarning(t *testing.T) {
	original := mustSchema(t, `{"type":"object"}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformJSONStringParse, SchemaPath: ""})

	result, warnings := Rehydrate(`not json at all`, codec, original, schema.DefaultRehydrateOptions())
	require.Len(t, warnings, 1)
	assert.Equal(t, schema.WarningConstraintUnevaluable, warnings[0].Kind)
	assert.Equal(t, "not json at all", result)
}

func TestRehydrateInvertsMapToArray(t *testing.T) {
	original := mustSchema(t, `{"type":"object","additionalProperties":{"type":"integer"}}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformMapToArray, SchemaPath: "", KeyField: "key", ValueField: "value"})

	data := []any{map[string]any{"key": "x", "value": float64(5)}}
	result, warnings := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
	m, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(5), m["x"])
}

// TestRehydrateInvertsStackedMapToArrayAndNullableOptional covers a
// property that is both dictionary-shaped (Pass 3) and optional, so Pass 6
// wraps it nullable at the same schema path Pass 3 already recorded a
// map_to_array transform at. Both transforms must survive in the index and
// invert in the reverse of the order the passes applied them.
func TestRehydrateInvertsStackedMapToArrayAndNullableOptional(t *testing.T) {
	original := mustSchema(t, `{
		"type": "object",
		"properties": {
			"tags": {"type": "object", "additionalProperties": {"type": "integer"}}
		}
	}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformMapToArray, SchemaPath: "/properties/tags", KeyField: "key", ValueField: "value"})
	codec.Append(schema.Transform{Kind: schema.TransformNullableOptional, SchemaPath: "/properties/tags", OriginalRequired: false})

	present := map[string]any{"tags": []any{map[string]any{"key": "a", "value": float64(1)}}}
	result, warnings := Rehydrate(present, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
	m := result.(map[string]any)
	tags, ok := m["tags"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1), tags["a"])

	absent := map[string]any{"tags": nil}
	result, warnings = Rehydrate(absent, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
	m = result.(map[string]any)
	_, hasTags := m["tags"]
	assert.False(t, hasTags)
}

func TestRehydrateInvertsNullableOptionalToAbsentKey(t *testing.T) {
	original := mustSchema(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}, "age": {"type": "integer"}},
		"required": ["name"]
	}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformNullableOptional, SchemaPath: "/properties/age", OriginalRequired: false})

	data := map[string]any{"name": "Ada", "age": nil}
	result, warnings := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
	m, ok := result.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "Ada", m["name"])
	_, hasAge := m["age"]
	assert.False(t, hasAge)
}

func TestRehydrateNullableOptionalKeepsPresentValue(t *testing.T) {
	original := mustSchema(t, `{
		"type": "object",
		"properties": {"age": {"type": "integer"}}
	}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformNullableOptional, SchemaPath: "/properties/age", OriginalRequired: false})

	data := map[string]any{"age": float64(30)}
	result, _ := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	m := result.(map[string]any)
	assert.Equal(t, float64(30), m["age"])
}

func TestRehydrateInvertsExtractAdditionalProperties(t *testing.T) {
	original := mustSchema(t, `{
		"type": "object",
		"properties": {"name": {"type": "string"}},
		"additionalProperties": {"type": "integer"}
	}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformExtractAdditionalProperty, SchemaPath: "", PropertyName: "__additional_properties__"})

	data := map[string]any{
		"name": "Ada",
		"__additional_properties__": []any{
			map[string]any{"key": "score", "value": float64(99)},
		},
	}
	result, warnings := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
	m := result.(map[string]any)
	assert.Equal(t, "Ada", m["name"])
	assert.Equal(t, float64(99), m["score"])
	_, hasOverflowKey := m["__additional_properties__"]
	assert.False(t, hasOverflowKey)
}

func TestRehydrateDiscriminatorAnyOfSelectsMatchingBranch(t *testing.T) {
	original := mustSchema(t, `{
		"oneOf": [
			{"type": "object", "properties": {"kind": {"const": "cat"}, "lives": {"type": "integer"}}, "required": ["kind", "lives"]},
			{"type": "object", "properties": {"kind": {"const": "dog"}, "breed": {"type": "string"}}, "required": ["kind", "breed"]}
		]
	}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformDiscriminatorAnyOf, SchemaPath: "", Discriminator: "kind", Variants: []string{"cat", "dog"}})

	data := map[string]any{"kind": "dog", "breed": "corgi"}
	result, warnings := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
	m := result.(map[string]any)
	assert.Equal(t, "corgi", m["breed"])
}

func TestRehydrateRecursiveInflateWarnsWhenDataNestsPastLimit(t *testing.T) {
	original := mustSchema(t, `{
		"type": "object",
		"properties": {"next": {"$ref": "#/$defs/node"}}
	}`)
	codec := schema.NewCodec()
	codec.Append(schema.Transform{Kind: schema.TransformRecursiveInflate, SchemaPath: "/properties/next", OriginalRef: "#/$defs/node"})

	data := map[string]any{"next": map[string]any{"v": float64(1)}}
	_, warnings := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	require.Len(t, warnings, 1)
	assert.Equal(t, schema.WarningPathNotFound, warnings[0].Kind)
}

func TestRehydrateCheckDroppedConstraintReportsViolation(t *testing.T) {
	original := mustSchema(t, `{"type":"object","properties":{"code":{"type":"string"}}}`)
	codec := schema.NewCodec()
	codec.Drop("/properties/code", "pattern", "^[A-Z]+$")

	data := map[string]any{"code": "lowercase"}
	_, warnings := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	require.Len(t, warnings, 1)
	assert.Equal(t, schema.WarningConstraintViolation, warnings[0].Kind)
	assert.Equal(t, "pattern", warnings[0].Constraint)
}

func TestRehydrateCheckDroppedConstraintPassesSilently(t *testing.T) {
	original := mustSchema(t, `{"type":"object","properties":{"code":{"type":"string"}}}`)
	codec := schema.NewCodec()
	codec.Drop("/properties/code", "pattern", "^[A-Z]+$")

	data := map[string]any{"code": "UPPER"}
	_, warnings := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	assert.Empty(t, warnings)
}

func TestRehydrateAppliesCoercionWhenEnabled(t *testing.T) {
	original := mustSchema(t, `{"type":"object","properties":{"score":{"type":"integer","minimum":0,"maximum":100}}}`)
	codec := schema.NewCodec()

	data := map[string]any{"score": float64(150)}
	result, _ := Rehydrate(data, codec, original, &schema.RehydrateOptions{Coerce: true})
	m := result.(map[string]any)
	assert.Equal(t, float64(100), m["score"])
}

func TestRehydrateWithoutCoercionLeavesOutOfBoundValueAsIs(t *testing.T) {
	original := mustSchema(t, `{"type":"object","properties":{"score":{"type":"integer","minimum":0,"maximum":100}}}`)
	codec := schema.NewCodec()

	data := map[string]any{"score": float64(150)}
	result, _ := Rehydrate(data, codec, original, schema.DefaultRehydrateOptions())
	m := result.(map[string]any)
	assert.Equal(t, float64(150), m["score"])
}
