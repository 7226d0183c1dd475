package model

import "strings"

// TypeToken identifies a produced or required type: a fully qualified
// name plus generic type arguments. Tokens are compared by Key() only;
// the zero value is the empty token.
type TypeToken struct {
	// Name is the qualified identifier, e.g. "app/user.Service".
	Name string `json:"name"`
	// Args holds generic type arguments, in declaration order.
	Args []TypeToken `json:"args,omitempty"`
}

// NewTypeToken creates a token from a qualified name and optional
// generic arguments.
func NewTypeToken(name string, args ...TypeToken) TypeToken {
	return TypeToken{Name: name, Args: args}
}

// Key returns the canonical string identity of the token. Two tokens
// are the same type iff their keys are equal. This is the only key used
// for dependency matching and conflict detection.
func (t TypeToken) Key() string {
	if len(t.Args) == 0 {
		return t.Name
	}
	var b strings.Builder
	b.WriteString(t.Name)
	b.WriteByte('[')
	for i, a := range t.Args {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(a.Key())
	}
	b.WriteByte(']')
	return b.String()
}

// IsZero reports whether the token is empty.
func (t TypeToken) IsZero() bool {
	return t.Name == ""
}

// Package returns the package path portion of the qualified name, or ""
// for unqualified (builtin) names.
func (t TypeToken) Package() string {
	i := strings.LastIndex(t.Name, ".")
	if i < 0 {
		return ""
	}
	// The package path is everything before the final dot-separated
	// identifier: "a/b/c.Name" -> "a/b/c".
	return t.Name[:i]
}

// Bare returns the unqualified identifier: "app/user.Service" -> "Service".
func (t TypeToken) Bare() string {
	i := strings.LastIndex(t.Name, ".")
	if i < 0 {
		return t.Name
	}
	return t.Name[i+1:]
}

// String implements fmt.Stringer using the canonical key.
func (t TypeToken) String() string {
	return t.Key()
}
