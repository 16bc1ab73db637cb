package schema

import (
	"bytes"
	"maps"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// knownSchemaFields lists every JSON Schema 2020-12 keyword the tree model
// understands by name. Anything else collected during unmarshal lands in
// Extra and is carried through passes that do not concern themselves with it.
var knownSchemaFields = map[string]struct{}{
	"$schema": {}, "$ref": {}, "$defs": {}, "definitions": {}, "$comment": {},

	"allOf": {}, "anyOf": {}, "oneOf": {}, "not": {},
	"if": {}, "then": {}, "else": {},
	"dependentSchemas":      {},
	"prefixItems":           {},
	"items":                 {},
	"contains":              {},
	"properties":            {},
	"patternProperties":     {},
	"additionalProperties":  {},
	"propertyNames":         {},
	"unevaluatedItems":      {},
	"unevaluatedProperties": {},

	"type": {}, "enum": {}, "const": {},
	"multipleOf": {}, "maximum": {}, "exclusiveMaximum": {}, "minimum": {}, "exclusiveMinimum": {},
	"maxLength": {}, "minLength": {}, "pattern": {},
	"maxItems": {}, "minItems": {}, "uniqueItems": {}, "maxContains": {}, "minContains": {},
	"maxProperties": {}, "minProperties": {}, "required": {}, "dependentRequired": {},

	"format": {},

	"contentEncoding": {}, "contentMediaType": {}, "contentSchema": {},

	"title": {}, "description": {}, "default": {}, "deprecated": {},
	"readOnly": {}, "writeOnly": {}, "examples": {},
}

// Schema is a node of a JSON Schema 2020-12 document. It is either a boolean
// schema (Boolean set, everything else zero) or a keyword-bag object. The
// tree has no compiler, URI, or anchor-resolution state: this model only
// needs to represent schema shape and carry local $ref strings, which the
// reference resolver (internal/ref) follows by JSON Pointer lookup into
// Defs, not by mutating the tree with resolved pointers.
type Schema struct {
	Boolean *bool `json:"-"`

	Schema string             `json:"$schema,omitempty"`
	Ref    string              `json:"$ref,omitempty"`
	Defs   map[string]*Schema `json:"$defs,omitempty"`

	AllOf []*Schema `json:"allOf,omitempty"`
	AnyOf []*Schema `json:"anyOf,omitempty"`
	OneOf []*Schema `json:"oneOf,omitempty"`
	Not   *Schema   `json:"not,omitempty"`

	If   *Schema `json:"if,omitempty"`
	Then *Schema `json:"then,omitempty"`
	Else *Schema `json:"else,omitempty"`

	DependentSchemas map[string]*Schema `json:"dependentSchemas,omitempty"`

	PrefixItems []*Schema `json:"prefixItems,omitempty"`
	Items       *Schema   `json:"items,omitempty"`
	Contains    *Schema   `json:"contains,omitempty"`

	Properties           *SchemaMap `json:"properties,omitempty"`
	PatternProperties    *SchemaMap `json:"patternProperties,omitempty"`
	AdditionalProperties *Schema    `json:"additionalProperties,omitempty"`
	PropertyNames        *Schema    `json:"propertyNames,omitempty"`

	Type   SchemaType  `json:"type,omitempty"`
	Enum   []any       `json:"enum,omitempty"`
	Const  *ConstValue `json:"const,omitempty"`
	Format *string     `json:"format,omitempty"`

	MultipleOf       *Rat `json:"multipleOf,omitempty"`
	Maximum          *Rat `json:"maximum,omitempty"`
	ExclusiveMaximum *Rat `json:"exclusiveMaximum,omitempty"`
	Minimum          *Rat `json:"minimum,omitempty"`
	ExclusiveMinimum *Rat `json:"exclusiveMinimum,omitempty"`

	MaxLength *float64 `json:"maxLength,omitempty"`
	MinLength *float64 `json:"minLength,omitempty"`
	Pattern   *string  `json:"pattern,omitempty"`

	MaxItems    *float64 `json:"maxItems,omitempty"`
	MinItems    *float64 `json:"minItems,omitempty"`
	UniqueItems *bool    `json:"uniqueItems,omitempty"`
	MaxContains *float64 `json:"maxContains,omitempty"`
	MinContains *float64 `json:"minContains,omitempty"`

	UnevaluatedItems *Schema `json:"unevaluatedItems,omitempty"`

	MaxProperties     *float64            `json:"maxProperties,omitempty"`
	MinProperties     *float64            `json:"minProperties,omitempty"`
	Required          []string            `json:"required,omitempty"`
	DependentRequired map[string][]string `json:"dependentRequired,omitempty"`

	UnevaluatedProperties *Schema `json:"unevaluatedProperties,omitempty"`

	ContentEncoding  *string `json:"contentEncoding,omitempty"`
	ContentMediaType *string `json:"contentMediaType,omitempty"`
	ContentSchema    *Schema `json:"contentSchema,omitempty"`

	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Default     any     `json:"default,omitempty"`
	Deprecated  *bool   `json:"deprecated,omitempty"`
	ReadOnly    *bool   `json:"readOnly,omitempty"`
	WriteOnly   *bool   `json:"writeOnly,omitempty"`
	Examples    []any   `json:"examples,omitempty"`

	// Extra holds keywords this model does not recognize, preserved
	// verbatim through passes that do not concern themselves with them.
	Extra map[string]any `json:"-"`
}

// NewSchema parses a raw JSON Schema document.
func NewSchema(raw []byte) (*Schema, error) {
	s := &Schema{}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, &Error{Code: ErrCodeJSONParse, Message: err.Error()}
	}
	return s, nil
}

// Clone returns a shallow copy of the node itself; children are shared by
// pointer. Passes that need clone-on-write semantics call this before
// mutating any field directly on the node and then replace child pointers
// that changed, so untouched subtrees remain shared with the input tree.
func (s *Schema) Clone() *Schema {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// IsBoolean reports whether the node is a boolean schema.
func (s *Schema) IsBoolean() bool {
	return s != nil && s.Boolean != nil
}

// BoolValue returns the boolean schema's truth value; callers must check
// IsBoolean first.
func (s *Schema) BoolValue() bool {
	return s.Boolean != nil && *s.Boolean
}

// MarshalJSON implements json.Marshaler, producing deterministic key order.
func (s *Schema) MarshalJSON() ([]byte, error) {
	if s.Boolean != nil {
		return json.Marshal(s.Boolean, json.Deterministic(true))
	}

	type alias Schema
	data, err := json.Marshal((*alias)(s), json.Deterministic(true))
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := json.Unmarshal(data, &result); err != nil {
		return nil, err
	}

	if s.Const != nil {
		result["const"] = s.Const.Value
	}
	maps.Copy(result, s.Extra)

	return json.Marshal(result, json.Deterministic(true))
}

// MarshalJSONTo implements json.MarshalerTo so Schema participates correctly
// in deterministic encoding when nested inside other deterministic marshals.
func (s *Schema) MarshalJSONTo(enc *jsontext.Encoder, opts json.Options) error {
	opts = json.JoinOptions(opts, json.Deterministic(true))
	data, err := s.MarshalJSON()
	if err != nil {
		return err
	}
	var result any
	if err := json.Unmarshal(data, &result); err != nil {
		return err
	}
	return json.MarshalEncode(enc, result, opts)
}

// UnmarshalJSON implements json.Unmarshaler, accepting boolean schemas,
// const values, Draft-7 array-form items, and definitions/$defs aliasing.
func (s *Schema) UnmarshalJSON(data []byte) error {
	var b bool
	if err := json.Unmarshal(data, &b); err == nil {
		s.Boolean = &b
		return nil
	}

	type alias Schema
	aux := &struct {
		Items jsontext.Value `json:"items,omitempty"`
		*alias
	}{alias: (*alias)(s)}

	if err := json.Unmarshal(data, aux); err != nil {
		return err
	}

	if len(aux.Items) > 0 {
		trimmed := bytes.TrimSpace(aux.Items)
		if len(trimmed) > 0 && trimmed[0] == '[' {
			if err := json.Unmarshal(aux.Items, &s.PrefixItems); err != nil {
				return err
			}
		} else if err := json.Unmarshal(aux.Items, &s.Items); err != nil {
			return err
		}
	}

	var raw map[string]jsontext.Value
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if defsData, ok := raw["definitions"]; ok {
		var defs map[string]*Schema
		if err := json.Unmarshal(defsData, &defs); err != nil {
			return err
		}
		if s.Defs == nil {
			s.Defs = defs
		} else {
			for k, v := range defs {
				if _, exists := s.Defs[k]; !exists {
					s.Defs[k] = v
				}
			}
		}
	}

	if constData, ok := raw["const"]; ok {
		if s.Const == nil {
			s.Const = &ConstValue{}
		}
		if err := s.Const.UnmarshalJSON(constData); err != nil {
			return err
		}
	}

	return s.collectExtraFields(data)
}

func (s *Schema) collectExtraFields(raw []byte) error {
	var all map[string]any
	if err := json.Unmarshal(raw, &all); err != nil {
		return err
	}
	for key := range knownSchemaFields {
		delete(all, key)
	}
	if len(all) > 0 {
		s.Extra = all
	}
	return nil
}

// SchemaMap is a map of property name to child schema, used for properties
// and patternProperties.
type SchemaMap map[string]*Schema

func (sm SchemaMap) MarshalJSON() ([]byte, error) {
	m := make(map[string]*Schema, len(sm))
	maps.Copy(m, sm)
	return json.Marshal(m, json.Deterministic(true))
}

func (sm *SchemaMap) MarshalJSONTo(enc *jsontext.Encoder, opts json.Options) error {
	opts = json.JoinOptions(opts, json.Deterministic(true))
	if sm == nil {
		return json.MarshalEncode(enc, nil, opts)
	}
	m := make(map[string]*Schema, len(*sm))
	maps.Copy(m, *sm)
	return json.MarshalEncode(enc, m, opts)
}

func (sm *SchemaMap) UnmarshalJSON(data []byte) error {
	m := make(map[string]*Schema)
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	*sm = SchemaMap(m)
	return nil
}

// SchemaType holds one or more JSON Schema primitive type names, marshaling
// back to a bare string when only one type is present.
type SchemaType []string

func (st SchemaType) MarshalJSON() ([]byte, error) {
	if len(st) == 1 {
		return json.Marshal(st[0])
	}
	return json.Marshal([]string(st))
}

func (st *SchemaType) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*st = SchemaType{single}
		return nil
	}
	var multi []string
	if err := json.Unmarshal(data, &multi); err == nil {
		*st = SchemaType(multi)
		return nil
	}
	return ErrInvalidSchemaType
}

// Has reports whether the type set includes the given primitive type name.
func (st SchemaType) Has(name string) bool {
	for _, t := range st {
		if t == name {
			return true
		}
	}
	return false
}

// ConstValue distinguishes "const not present" from "const: null".
type ConstValue struct {
	Value any
	IsSet bool
}

func (cv *ConstValue) UnmarshalJSON(data []byte) error {
	cv.IsSet = true
	if string(data) == "null" {
		cv.Value = nil
		return nil
	}
	return json.Unmarshal(data, &cv.Value)
}

func (cv ConstValue) MarshalJSON() ([]byte, error) {
	if cv.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(cv.Value)
}
