// Package schema hand-builds the JSON Schema document for the compiled
// program format (§6): a discriminated union of Operation variants keyed
// by "code", one definition per ops.Family.
package schema

import (
	"encoding/json"

	"github.com/carp-lang/carp/ops"
)

// property names a single JSON Schema property and its type constraint.
// Defined as an alias so the exported Document/Marshal surface works with
// plain map[string]any, not an unexported named type.
type property = map[string]any

func registerOperandSchema() property {
	return property{
		"oneOf": []property{
			{
				"type":       "object",
				"properties": property{"type": property{"const": "registry"}, "code": property{"enum": []string{"A", "B"}}},
				"required":   []string{"type", "code"},
			},
			{
				"type":       "object",
				"properties": property{"type": property{"const": "value"}, "value": property{"type": "integer"}},
				"required":   []string{"type", "value"},
			},
		},
	}
}

func familyDefinition(family ops.Family, codes []string) property {
	base := property{
		"type":       "object",
		"properties": property{"code": property{"enum": codes}},
		"required":   []string{"code"},
	}
	props := base["properties"].(property)
	required := base["required"].([]string)

	switch family {
	case ops.Binary:
		props["right"] = property{"enum": []string{"A", "B"}}
		props["left"] = registerOperandSchema()
		required = append(required, "left")
	case ops.Stack:
		props["right"] = property{"enum": []string{"A", "B"}}
	case ops.Jump:
		props["offset"] = property{"type": "integer"}
	case ops.Memory:
		props["right"] = property{"enum": []string{"A", "B"}}
		props["address"] = property{"type": "integer"}
		required = append(required, "address")
	}

	base["required"] = required
	return base
}

var codesByFamily = map[ops.Family][]string{
	ops.Binary: {"mov", "cmp", "pmc", "add", "sub", "mul", "div", "mod"},
	ops.Stack:  {"push", "grab"},
	ops.Jump:   {"jz", "jn", "jb"},
	ops.Memory: {"load", "save"},
}

// Document builds the JSON Schema for a compiled program: an array of
// Operation objects, one oneOf branch per family.
func Document() property {
	var branches []property
	for _, family := range []ops.Family{ops.Binary, ops.Stack, ops.Jump, ops.Memory} {
		branches = append(branches, familyDefinition(family, codesByFamily[family]))
	}

	return property{
		"$schema":     "http://json-schema.org/draft-07/schema#",
		"title":       "carp compiled program",
		"type":        "array",
		"description": "An ordered list of Operations, each discriminated by its \"code\" field.",
		"items":       property{"oneOf": branches},
	}
}

// Marshal renders the schema document as indented JSON.
func Marshal() ([]byte, error) {
	return json.MarshalIndent(Document(), "", "  ")
}
