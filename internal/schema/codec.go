package schema

// CodecSchemaVersion is the exact literal a Codec's Schema field must carry.
// Rehydrate rejects anything else with ErrCodeCodecVersionMismatch.
const CodecSchemaVersion = "https://json-schema-llm.dev/codec/v1"

// TransformKind tags which of the six recognized compile-time transforms a
// Transform record describes (§3.2).
type TransformKind string

const (
	TransformMapToArray                TransformKind = "map_to_array"
	TransformJSONStringParse           TransformKind = "json_string_parse"
	TransformNullableOptional          TransformKind = "nullable_optional"
	TransformDiscriminatorAnyOf        TransformKind = "discriminator_any_of"
	TransformExtractAdditionalProperty TransformKind = "extract_additional_properties"
	TransformRecursiveInflate          TransformKind = "recursive_inflate"
)

// Transform is one entry in a Codec's ordered transform log. Not every field
// applies to every Kind; see the per-kind comments on the fields below.
type Transform struct {
	Kind TransformKind `json:"kind"`

	// SchemaPath is a JSON Pointer into the produced (output) schema.
	SchemaPath string `json:"schemaPath"`

	// map_to_array
	KeyField   string `json:"keyField,omitempty"`
	ValueField string `json:"valueField,omitempty"`

	// nullable_optional
	OriginalRequired bool `json:"originalRequired,omitempty"`

	// discriminator_any_of
	Discriminator string   `json:"discriminator,omitempty"`
	Variants      []string `json:"variants,omitempty"`

	// extract_additional_properties
	PropertyName string `json:"propertyName,omitempty"`

	// recursive_inflate
	OriginalRef string `json:"originalRef,omitempty"`
}

// DroppedConstraint records a keyword Pass 7 removed because the target
// dialect cannot express it (§3.2, §4.9). Value is the keyword's original
// JSON-decoded value, used by the rehydrator to re-check data against it.
type DroppedConstraint struct {
	Path       string `json:"path"`
	Constraint string `json:"constraint"`
	Value      any    `json:"value"`
}

// Codec is the rehydration program produced alongside a compiled schema
// (§3.2). Transforms are applied at compile time in order and reversed at
// rehydrate time in the opposite order.
type Codec struct {
	Schema             string               `json:"$schema"`
	Transforms         []Transform          `json:"transforms"`
	DroppedConstraints []DroppedConstraint  `json:"droppedConstraints"`
}

// NewCodec returns an empty codec stamped with the current codec version.
func NewCodec() *Codec {
	return &Codec{
		Schema:             CodecSchemaVersion,
		Transforms:         []Transform{},
		DroppedConstraints: []DroppedConstraint{},
	}
}

// Append records a transform in insertion order.
func (c *Codec) Append(t Transform) {
	c.Transforms = append(c.Transforms, t)
}

// Drop records that a constraint was pruned from the schema at path.
func (c *Codec) Drop(path, constraint string, value any) {
	c.DroppedConstraints = append(c.DroppedConstraints, DroppedConstraint{
		Path:       path,
		Constraint: constraint,
		Value:      value,
	})
}

// Canonical returns the codec's canonical (deterministic, sorted-key) JSON
// encoding, letting callers hash or byte-compare codecs per §3.2's
// "two codecs produced from the same input MUST be byte-equal" invariant.
func (c *Codec) Canonical() ([]byte, error) {
	return marshalDeterministic(c)
}
