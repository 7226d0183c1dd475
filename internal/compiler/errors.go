package compiler

import (
	"fmt"
	"strings"
)

// ErrorKind classifies fatal generation failures.
type ErrorKind string

const (
	// InvalidConstructionSite - declared factory/accessor not found or
	// has an unsupported shape.
	InvalidConstructionSite ErrorKind = "InvalidConstructionSite"
	// InvalidParameterCount - parametrized factory declares more than
	// the allowed number of runtime-supplied parameters.
	InvalidParameterCount ErrorKind = "InvalidParameterCount"
	// AmbiguousBinding - two declarations collide on (bound type, tag)
	// for an overlapping environment.
	AmbiguousBinding ErrorKind = "AmbiguousBinding"
)

// Validation error codes (E200-E219).
const (
	ErrCodeInvalidSite      = "E201"
	ErrCodeInvalidParams    = "E202"
	ErrCodeAmbiguousBinding = "E203"
	ErrCodeCycle            = "E210"
)

// Code returns the stable error code for an error kind.
func (k ErrorKind) Code() string {
	switch k {
	case InvalidConstructionSite:
		return ErrCodeInvalidSite
	case InvalidParameterCount:
		return ErrCodeInvalidParams
	case AmbiguousBinding:
		return ErrCodeAmbiguousBinding
	default:
		return "E200"
	}
}

// ValidationError is a fatal declaration-set failure. Generation halts
// on the first one; no partial plan is ever emitted.
type ValidationError struct {
	Kind ErrorKind `json:"kind"`
	// Declarations names the offending declaration(s), fully qualified
	// by manifest label.
	Declarations []string `json:"declarations"`
	Detail       string   `json:"detail"`
	// Pos is the source position of the first offending declaration,
	// when the front end reported one.
	Pos string `json:"pos,omitempty"`
}

func (e *ValidationError) Error() string {
	decls := strings.Join(e.Declarations, ", ")
	if e.Pos != "" {
		return fmt.Sprintf("%s: [%s] %s: %s", e.Pos, e.Kind.Code(), decls, e.Detail)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind.Code(), decls, e.Detail)
}

// CycleError reports a dependency cycle among eager declarations. Chain
// holds the full cycle in traversal order, first declaration repeated
// at the end.
type CycleError struct {
	Chain []string `json:"chain"`
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("[%s] eager dependency cycle: %s", ErrCodeCycle, strings.Join(e.Chain, " -> "))
}
