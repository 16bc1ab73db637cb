package llmschema

import "github.com/dotslashderek/jsonschema-llm/internal/schema"

// The schema tree model, codec model, and error/warning envelopes live in
// internal/schema so the pass, reference, and rehydrate packages can import
// them without importing this orchestration package back (which would be
// an import cycle, since this package imports all of them). These aliases
// are the single public surface: callers never need to know the types are
// implemented in an internal package.

type (
	Schema     = schema.Schema
	SchemaMap  = schema.SchemaMap
	SchemaType = schema.SchemaType
	ConstValue = schema.ConstValue
	Rat        = schema.Rat

	Codec              = schema.Codec
	Transform          = schema.Transform
	TransformKind      = schema.TransformKind
	DroppedConstraint  = schema.DroppedConstraint

	ErrorCode = schema.ErrorCode
	Error     = schema.Error

	WarningKind = schema.WarningKind
	Warning     = schema.Warning

	Target           = schema.Target
	Mode             = schema.Mode
	Polymorphism     = schema.Polymorphism
	ConvertOptions   = schema.ConvertOptions
	RehydrateOptions = schema.RehydrateOptions
)

const (
	ErrCodeJSONParse            = schema.ErrCodeJSONParse
	ErrCodeSchemaError          = schema.ErrCodeSchemaError
	ErrCodeRecursionDepth       = schema.ErrCodeRecursionDepth
	ErrCodeUnsupportedFeature   = schema.ErrCodeUnsupportedFeature
	ErrCodeUnresolvableRef      = schema.ErrCodeUnresolvableRef
	ErrCodeRehydrationError     = schema.ErrCodeRehydrationError
	ErrCodeCodecVersionMismatch = schema.ErrCodeCodecVersionMismatch

	WarningConstraintViolation   = schema.WarningConstraintViolation
	WarningConstraintUnevaluable = schema.WarningConstraintUnevaluable
	WarningPathNotFound          = schema.WarningPathNotFound

	TargetOpenAIStrict = schema.TargetOpenAIStrict
	TargetGemini       = schema.TargetGemini
	TargetClaude       = schema.TargetClaude

	ModeStrict     = schema.ModeStrict
	ModePermissive = schema.ModePermissive

	PolymorphismAnyOf   = schema.PolymorphismAnyOf
	PolymorphismFlatten = schema.PolymorphismFlatten

	TransformMapToArray                = schema.TransformMapToArray
	TransformJSONStringParse           = schema.TransformJSONStringParse
	TransformNullableOptional          = schema.TransformNullableOptional
	TransformDiscriminatorAnyOf        = schema.TransformDiscriminatorAnyOf
	TransformExtractAdditionalProperty = schema.TransformExtractAdditionalProperty
	TransformRecursiveInflate          = schema.TransformRecursiveInflate

	CodecSchemaVersion = schema.CodecSchemaVersion
)

// NewSchema parses a raw JSON Schema document.
func NewSchema(raw []byte) (*Schema, error) { return schema.NewSchema(raw) }

// NewCodec returns an empty codec stamped with the current codec version.
func NewCodec() *Codec { return schema.NewCodec() }

// DefaultConvertOptions returns the §6.1 default option set.
func DefaultConvertOptions() *ConvertOptions { return schema.DefaultConvertOptions() }

// NewConvertOptions builds options from a raw JSON-decoded object.
func NewConvertOptions(raw map[string]any) (*ConvertOptions, error) {
	return schema.NewConvertOptions(raw)
}

// DefaultRehydrateOptions returns rehydration with coercion disabled.
func DefaultRehydrateOptions() *RehydrateOptions { return schema.DefaultRehydrateOptions() }
