package source

// DeclarationSource yields the raw declaration records discovered by a
// front end. Implementations must return records in a stable order
// across runs; the generator uses that order as its only tie-break.
type DeclarationSource interface {
	Declarations() ([]RawDeclaration, error)
}

// RawDeclaration is one unstructured declaration as reported by a front
// end: annotation-shaped flags, raw type strings, and a raw parameter
// list. The compiler's normalizer turns it into a model.DeclarationRecord.
type RawDeclaration struct {
	// Name is the declaration label, unique within a set.
	Name string
	// Produced is the raw qualified type string of the implementation,
	// e.g. "app/cache.Store[app/user.Profile]".
	Produced string
	// Bound is the raw bind-as type string, "" when the declaration is
	// exposed as its produced type.
	Bound string

	Tag     string
	AutoTag bool

	// Kind is the raw kind annotation: "", "value", "factory",
	// "lazySingleton", or "eagerSingleton".
	Kind string
	// PreResolve marks an async declaration to be awaited at plan
	// execution time rather than resolved lazily.
	PreResolve bool
	// Async marks a construction site whose result is deferred.
	Async bool

	// Environments lists the labels gating registration; empty means
	// unconditional.
	Environments []string

	Site RawSite

	// OwnerModule names the module declaration this member belongs to,
	// "" for top-level declarations.
	OwnerModule string

	// Order is the discovery index assigned by the source.
	Order int
	// Pos is a "file:line:col" position for diagnostics, best effort.
	Pos string
}

// RawSite describes the construction site shape as the front end saw it.
type RawSite struct {
	// Mode is "constructor", "factory", or "module".
	Mode string
	// Symbol is the factory function or module accessor name.
	Symbol string
	// Params is the raw parameter list of the site.
	Params []RawParam
	// Resolved reports whether the front end located the declared
	// symbol and could interpret its signature. Unresolved sites are
	// rejected during normalization.
	Resolved bool
}

// RawParam is one parameter of a construction site.
type RawParam struct {
	// Type is the raw qualified type string.
	Type string
	// Tag optionally selects a tagged declaration of Type.
	Tag string
	// Async requests asynchronous resolution of this input.
	Async bool
	// Runtime marks a caller-supplied parametrized-factory input,
	// excluded from dependency edges.
	Runtime bool
}

// SliceSource is a DeclarationSource over an in-memory record slice.
// Used by tests and the conformance harness.
type SliceSource []RawDeclaration

// Declarations returns the records with discovery order assigned by
// slice position.
func (s SliceSource) Declarations() ([]RawDeclaration, error) {
	out := make([]RawDeclaration, len(s))
	copy(out, s)
	for i := range out {
		out[i].Order = i
	}
	return out, nil
}
