package selection

import (
	"strings"
	"unicode"

	"github.com/strangelove-ventures/labeltest/label"
)

// ParseExpr parses a selection expression such as "slow,integration,!flaky".
// Tokens are separated by commas or whitespace.
// A leading '!' or '-' excludes the label; anything else includes it.
// Empty or malformed tokens are ignored, so ParseExpr never fails.
func ParseExpr(expr string) Selection {
	var include, exclude []label.Label
	for _, tok := range strings.FieldsFunc(expr, isSeparator) {
		switch tok[0] {
		case '!', '-':
			exclude = append(exclude, label.New(tok[1:]))
		default:
			include = append(include, label.New(tok))
		}
	}
	return New(include, exclude)
}

// ParseList parses a comma or whitespace separated list of labels.
func ParseList(list string) label.Set {
	return label.ParseSet(strings.FieldsFunc(list, isSeparator)...)
}

func isSeparator(r rune) bool {
	return r == ',' || unicode.IsSpace(r)
}
