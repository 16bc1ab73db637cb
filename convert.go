package llmschema

import (
	"github.com/dotslashderek/jsonschema-llm/internal/pass"
	"github.com/dotslashderek/jsonschema-llm/internal/schema"
	"github.com/dotslashderek/jsonschema-llm/internal/selfcheck"
)

// ConvertResult is the §6.1 success envelope: the compiled schema plus the
// codec needed to rehydrate data produced against it.
type ConvertResult struct {
	APIVersion string  `json:"apiVersion"`
	Schema     *Schema `json:"schema"`
	Codec      *Codec  `json:"codec"`
}

const apiVersion = "1.0"

// Convert compiles a JSON Schema Draft 2020-12 document into the restricted
// dialect named by opts.Target, running the eight passes (§4.2–§4.9) in
// their fixed order. The pipeline is atomic (§7): any pass failure aborts
// the call and returns no partial schema or codec.
func Convert(raw []byte, rawOptions map[string]any) (*ConvertResult, error) {
	opts, err := NewConvertOptions(rawOptions)
	if err != nil {
		return nil, err
	}
	return ConvertWithOptions(raw, opts)
}

// ConvertWithOptions is Convert for callers that already hold a validated
// *ConvertOptions (e.g. reused across many schemas with identical settings).
func ConvertWithOptions(raw []byte, opts *ConvertOptions) (*ConvertResult, error) {
	root, err := schema.NewSchema(raw)
	if err != nil {
		return nil, err
	}

	tree := wrapRootIfNeeded(root, opts.Mode)

	tree, gerr := pass.Normalize(tree, opts.MaxDepth)
	if gerr != nil {
		return nil, gerr
	}

	tree, gerr = pass.MergeAllOf(tree)
	if gerr != nil {
		return nil, gerr
	}

	codec := schema.NewCodec()

	tree, gerr = pass.RewriteOneOf(tree, codec)
	if gerr != nil {
		return nil, gerr
	}

	tree, gerr = pass.LowerDictionaries(tree, codec)
	if gerr != nil {
		return nil, gerr
	}

	tree, gerr = pass.LowerOpaque(tree, codec)
	if gerr != nil {
		return nil, gerr
	}

	tree, gerr = pass.InlineRecursionInto(tree, opts.MaxDepth, opts.RecursionLimit, codec)
	if gerr != nil {
		return nil, gerr
	}

	tree, gerr = pass.ApplyStrictMode(tree, codec)
	if gerr != nil {
		return nil, gerr
	}

	tree, gerr = pass.PruneConstraints(tree, opts, codec)
	if gerr != nil {
		return nil, gerr
	}

	if opts.SelfCheck {
		if gerr := selfcheck.Check(tree, opts.RecursionLimit); gerr != nil {
			return nil, gerr
		}
	}

	return &ConvertResult{
		APIVersion: apiVersion,
		Schema:     tree,
		Codec:      codec,
	}, nil
}

// wrapRootIfNeeded implements scenario 1 (§8): in strict mode, a root that
// declares a type excluding "object" is wrapped as a single required
// "value" property, so every target dialect (which only accepts
// object-rooted schemas) receives a legal document. A root with no "type"
// keyword at all (e.g. a bare enum or const) is left alone: absence of
// "type" means "any type", which already includes object, so there is
// nothing to wrap. No nullable_optional transform is emitted for "value" —
// it is required by construction, not by an original/optional distinction.
func wrapRootIfNeeded(root *schema.Schema, mode schema.Mode) *schema.Schema {
	if mode != schema.ModeStrict {
		return root
	}
	needsWrap := root.IsBoolean() || (len(root.Type) > 0 && !root.Type.Has("object"))
	if !needsWrap {
		return root
	}
	return &schema.Schema{
		Type: schema.SchemaType{"object"},
		Properties: &schema.SchemaMap{
			"value": root,
		},
		Required: []string{"value"},
	}
}
