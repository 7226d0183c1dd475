package model

import (
	"fmt"
	"strings"
)

// ParseTypeToken parses a raw type string into a TypeToken. The syntax
// is a qualified name optionally followed by bracketed generic
// arguments: "app/cache.Store[app/user.Profile,int]".
func ParseTypeToken(s string) (TypeToken, error) {
	tok, rest, err := parseType(strings.TrimSpace(s))
	if err != nil {
		return TypeToken{}, err
	}
	if rest != "" {
		return TypeToken{}, fmt.Errorf("invalid type %q: trailing %q", s, rest)
	}
	return tok, nil
}

// parseType consumes one type from the front of s and returns the
// unconsumed remainder.
func parseType(s string) (TypeToken, string, error) {
	i := strings.IndexAny(s, "[],")
	if i < 0 {
		i = len(s)
	}
	name := strings.TrimSpace(s[:i])
	if name == "" {
		return TypeToken{}, "", fmt.Errorf("invalid type: empty name in %q", s)
	}
	tok := TypeToken{Name: name}
	rest := s[i:]

	if !strings.HasPrefix(rest, "[") {
		return tok, rest, nil
	}

	rest = rest[1:] // consume '['
	for {
		arg, r, err := parseType(rest)
		if err != nil {
			return TypeToken{}, "", err
		}
		tok.Args = append(tok.Args, arg)
		rest = r
		switch {
		case strings.HasPrefix(rest, ","):
			rest = strings.TrimSpace(rest[1:])
		case strings.HasPrefix(rest, "]"):
			return tok, rest[1:], nil
		default:
			return TypeToken{}, "", fmt.Errorf("invalid type: unterminated argument list near %q", rest)
		}
	}
}
