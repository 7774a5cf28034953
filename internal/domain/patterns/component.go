package patterns

import (
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"
)

// IsComponentLike reports whether node looks like a UI component definition.
//
// It accepts a function declaration whose name starts with an uppercase
// letter, and an anonymous function or arrow function bound directly by a
// variable declarator with an uppercase name. This is a naming heuristic:
// it misses components wrapped in memo()/forwardRef() or exported as
// anonymous defaults, and it accepts uppercase helpers that are not
// components.
func IsComponentLike(node *sitter.Node, src []byte) bool {
	if node == nil {
		return false
	}

	switch node.Type() {
	case "function_declaration", "generator_function_declaration":
		return startsUpper(node.ChildByFieldName("name"), src)
	case "arrow_function", "function", "function_expression", "generator_function":
		if node.ChildByFieldName("name") != nil {
			return false
		}

		parent := node.Parent()
		if parent == nil || parent.Type() != "variable_declarator" {
			return false
		}

		value := parent.ChildByFieldName("value")
		if value == nil || value.StartByte() != node.StartByte() || value.EndByte() != node.EndByte() {
			return false
		}

		name := parent.ChildByFieldName("name")
		if name == nil || name.Type() != "identifier" {
			return false
		}

		return startsUpper(name, src)
	}

	return false
}

func startsUpper(name *sitter.Node, src []byte) bool {
	if name == nil {
		return false
	}

	r, _ := utf8.DecodeRuneInString(name.Content(src))

	return r != utf8.RuneError && unicode.IsUpper(r)
}
