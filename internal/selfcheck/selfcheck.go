// Package selfcheck operationalizes §8's "the result schema contains no
// oneOf, no allOf, no definitions, ..." testable property as a runtime
// assertion (§C.1 of the expanded design), run optionally at the end of
// Convert. Keyword legality is checked against a hand-authored meta-schema
// compiled with santhosh-tekuri/jsonschema/v5; the recursion-cycle and
// $ref-free invariants, which have no meta-schema vocabulary to express,
// are checked by a plain tree walk alongside it.
package selfcheck

import (
	"strconv"
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/dotslashderek/jsonschema-llm/internal/schema"
)

// metaSchemaJSON forbids the keywords Pass 1/2/0 are supposed to have
// already eliminated from every node, and constrains "type" to the
// 2020-12 primitive names. $recursiveRef-style "apply to every nested
// object" isn't expressible without draft-2020-12's dynamic anchors, so
// the compiled check only covers the root node; nested nodes are covered
// by the accompanying walk below.
const metaSchemaJSON = `{
  "$id": "https://jsonschema-llm.internal/selfcheck",
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": ["object", "boolean"],
  "not": {
    "anyOf": [
      {"required": ["oneOf"]},
      {"required": ["allOf"]},
      {"required": ["definitions"]}
    ]
  },
  "if": {"type": "object", "required": ["type"]},
  "then": {
    "properties": {
      "type": {
        "anyOf": [
          {"type": "string", "enum": ["null", "boolean", "object", "array", "number", "integer", "string"]},
          {
            "type": "array",
            "items": {"enum": ["null", "boolean", "object", "array", "number", "integer", "string"]}
          }
        ]
      }
    }
  }
}`

var compiled *jsonschema.Schema

func init() {
	c := jsonschema.NewCompiler()
	if err := c.AddResource("selfcheck.json", strings.NewReader(metaSchemaJSON)); err != nil {
		panic(err)
	}
	sch, err := c.Compile("selfcheck.json")
	if err != nil {
		panic(err)
	}
	compiled = sch
}

// Check validates tree against the meta-schema and the structural
// invariants it cannot express. It returns a schema_error on the first
// violation found.
func Check(tree *schema.Schema, recursionLimit int) *schema.Error {
	encoded, err := json.Marshal(tree)
	if err != nil {
		return schema.ErrSelfCheckFailed.WithPath("")
	}
	var decoded any
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		return schema.ErrSelfCheckFailed.WithPath("")
	}
	if err := compiled.Validate(decoded); err != nil {
		return schema.ErrSelfCheckFailed.WithPath("")
	}

	return walk(tree, "")
}

// walk asserts, at every node it reaches through anyOf, prefixItems,
// properties, items and additionalProperties, that no oneOf, allOf or $ref
// remains (Pass 5 inlines or cuts every $ref). definitions and array-form
// items have no representation in the Schema model, so they cannot reappear.
func walk(n *schema.Schema, path string) *schema.Error {
	if n == nil || n.IsBoolean() {
		return nil
	}
	if n.OneOf != nil {
		return schema.ErrSelfCheckFailed.WithPath(path)
	}
	if n.AllOf != nil {
		return schema.ErrSelfCheckFailed.WithPath(path)
	}
	if n.Ref != "" {
		return schema.ErrSelfCheckFailed.WithPath(path)
	}

	for i, b := range n.AnyOf {
		if err := walk(b, path+"/anyOf/"+strconv.Itoa(i)); err != nil {
			return err
		}
	}
	for i, b := range n.PrefixItems {
		if err := walk(b, path+"/prefixItems/"+strconv.Itoa(i)); err != nil {
			return err
		}
	}
	if n.Properties != nil {
		for k, b := range *n.Properties {
			if err := walk(b, path+"/properties/"+k); err != nil {
				return err
			}
		}
	}
	if err := walk(n.Items, path+"/items"); err != nil {
		return err
	}
	if err := walk(n.AdditionalProperties, path+"/additionalProperties"); err != nil {
		return err
	}
	return nil
}
