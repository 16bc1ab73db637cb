package schema

import "strings"

// Target names the LLM structured-output dialect a schema is compiled for
// (§6.1).
type Target string

const (
	TargetOpenAIStrict Target = "openai-strict"
	TargetGemini       Target = "gemini"
	TargetClaude       Target = "claude"
)

// Mode selects how aggressively the pipeline restructures the schema
// (§6.1). Permissive mode still runs every pass but skips the root-type
// wrapping scenario-1 describes; strict mode (the default) wraps a non-object
// root so every target dialect, which only accepts object-rooted schemas,
// gets a legal document.
type Mode string

const (
	ModeStrict     Mode = "strict"
	ModePermissive Mode = "permissive"
)

// Polymorphism selects how oneOf is rewritten in Pass 2 (§6.1). "flatten"
// is reserved for a future pass that inlines single-branch oneOf directly
// into the parent instead of producing anyOf; only "any-of" is implemented.
type Polymorphism string

const (
	PolymorphismAnyOf   Polymorphism = "any-of"
	PolymorphismFlatten Polymorphism = "flatten"
)

// ConvertOptions configures Convert (§6.1). Zero value is not valid; use
// NewConvertOptions or DefaultConvertOptions.
type ConvertOptions struct {
	Target         Target
	Mode           Mode
	MaxDepth       int
	RecursionLimit int
	Polymorphism   Polymorphism
	CoerceEnum     bool

	// SelfCheck validates the produced schema against a minimal meta-schema
	// before returning it (§C.1 of the expanded design). Defaults to true.
	SelfCheck bool
}

// DefaultConvertOptions returns the §6.1 default option set.
func DefaultConvertOptions() *ConvertOptions {
	return &ConvertOptions{
		Target:         TargetOpenAIStrict,
		Mode:           ModeStrict,
		MaxDepth:       50,
		RecursionLimit: 3,
		Polymorphism:   PolymorphismAnyOf,
		CoerceEnum:     false,
		SelfCheck:      true,
	}
}

// NewConvertOptions builds options from a raw JSON-decoded object, accepting
// both camelCase and kebab-case keys per §6.1's table. Unrecognized keys are
// ignored; malformed values for a recognized key fail with ErrCodeSchemaError.
func NewConvertOptions(raw map[string]any) (*ConvertOptions, error) {
	opts := DefaultConvertOptions()
	get := func(camel, kebab string) (any, bool) {
		if v, ok := raw[camel]; ok {
			return v, true
		}
		if v, ok := raw[kebab]; ok {
			return v, true
		}
		return nil, false
	}

	if v, ok := get("target", "target"); ok {
		s, ok := v.(string)
		if !ok {
			return nil, ErrInvalidOption("target")
		}
		switch Target(s) {
		case TargetOpenAIStrict, TargetGemini, TargetClaude:
			opts.Target = Target(s)
		default:
			return nil, ErrInvalidOption("target")
		}
	}

	if v, ok := get("mode", "mode"); ok {
		s, ok := v.(string)
		if !ok {
			return nil, ErrInvalidOption("mode")
		}
		switch Mode(s) {
		case ModeStrict, ModePermissive:
			opts.Mode = Mode(s)
		default:
			return nil, ErrInvalidOption("mode")
		}
	}

	if v, ok := get("maxDepth", "max-depth"); ok {
		n, err := optionInt(v)
		if err != nil || n < 0 {
			return nil, ErrInvalidOption("maxDepth")
		}
		opts.MaxDepth = n
	}

	if v, ok := get("recursionLimit", "recursion-limit"); ok {
		n, err := optionInt(v)
		if err != nil || n < 0 {
			return nil, ErrInvalidOption("recursionLimit")
		}
		opts.RecursionLimit = n
	}

	if v, ok := get("polymorphism", "polymorphism"); ok {
		s, ok := v.(string)
		if !ok {
			return nil, ErrInvalidOption("polymorphism")
		}
		switch Polymorphism(s) {
		case PolymorphismAnyOf, PolymorphismFlatten:
			opts.Polymorphism = Polymorphism(s)
		default:
			return nil, ErrInvalidOption("polymorphism")
		}
	}

	if v, ok := get("coerceEnum", "coerce-enum"); ok {
		b, ok := v.(bool)
		if !ok {
			return nil, ErrInvalidOption("coerceEnum")
		}
		opts.CoerceEnum = b
	}

	if v, ok := get("selfCheck", "self-check"); ok {
		b, ok := v.(bool)
		if !ok {
			return nil, ErrInvalidOption("selfCheck")
		}
		opts.SelfCheck = b
	}

	return opts, nil
}

func optionInt(v any) (int, error) {
	switch n := v.(type) {
	case float64:
		return int(n), nil
	case int:
		return n, nil
	default:
		return 0, ErrInvalidRatValue
	}
}

// ErrInvalidOption builds a schema_error for a malformed convert option.
func ErrInvalidOption(name string) *Error {
	return &Error{Code: ErrCodeSchemaError, Message: "invalid value for option " + name}
}

// RehydrateOptions configures Rehydrate (§4.10, supplemented by §C.2).
type RehydrateOptions struct {
	// Coerce enables clamp/truncate coercion of out-of-bound values
	// (§4.10 step 4) rather than only reporting them as warnings.
	Coerce bool
}

// DefaultRehydrateOptions returns rehydration with coercion disabled, so a
// first call returns the literal LLM output plus warnings (§7).
func DefaultRehydrateOptions() *RehydrateOptions {
	return &RehydrateOptions{Coerce: false}
}

// normalizeTargetName lower-cases and trims a target string for comparisons
// that should be forgiving of caller casing.
func normalizeTargetName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
