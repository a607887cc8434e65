// Package shape implements the Name Shaper (spec §4.1): a total, deterministic
// function from a user identifier to the four canonical spellings used
// throughout validation and emission.
package shape

import (
	"strings"
	"unicode"

	"github.com/emergent-company/ecsgen/internal/model"
)

// Shape converts name into its four canonical spellings. name must be
// non-empty, start with a letter, and contain only letters, digits, and
// underscores afterwards; otherwise Shape returns model.InvalidIdentifier.
func Shape(name string) (model.Name, error) {
	if !valid(name) {
		return model.Name{}, &model.InvalidIdentifier{Name: name}
	}

	field := toSnakeCase(name)
	return model.Name{
		Raw:    name,
		Type:   name,
		Field:  field,
		Fields: pluralize(field),
	}, nil
}

func valid(name string) bool {
	if name == "" {
		return false
	}
	runes := []rune(name)
	if !unicode.IsLetter(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
			return false
		}
	}
	return true
}

// toSnakeCase lowercases a CamelCase (or already snake_case) identifier into
// a single snake_case spelling, inserting an underscore before each run of
// uppercase letters that follows a lowercase letter or digit.
func toSnakeCase(name string) string {
	var b strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 {
				prev := runes[i-1]
				nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
				if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
					b.WriteByte('_')
				}
			}
			b.WriteRune(unicode.ToLower(r))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// pluralize applies the spec-mandated rule: append "s" unless field already
// ends in "s", in which case append "es".
func pluralize(field string) string {
	if strings.HasSuffix(field, "s") {
		return field + "es"
	}
	return field + "s"
}
