// Package testutil provides raw-declaration builders for compiler,
// emitter, and harness tests.
package testutil

import (
	"github.com/wirecue/wirecue/internal/source"
)

// DeclBuilder builds a raw declaration incrementally. The zero builder
// is not usable; start with NewDecl.
type DeclBuilder struct {
	raw source.RawDeclaration
}

// NewDecl starts a constructor-site declaration producing the given
// qualified type.
func NewDecl(name, produced string) *DeclBuilder {
	return &DeclBuilder{raw: source.RawDeclaration{
		Name:     name,
		Produced: produced,
		Site:     source.RawSite{Mode: "constructor", Resolved: true},
	}}
}

// BoundAs sets an explicit bind-as abstraction.
func (b *DeclBuilder) BoundAs(bound string) *DeclBuilder {
	b.raw.Bound = bound
	return b
}

// Tag sets an explicit instance tag.
func (b *DeclBuilder) Tag(tag string) *DeclBuilder {
	b.raw.Tag = tag
	return b
}

// AutoTag enables tag auto-derivation from the produced type.
func (b *DeclBuilder) AutoTag() *DeclBuilder {
	b.raw.AutoTag = true
	return b
}

// Kind sets the explicit kind annotation.
func (b *DeclBuilder) Kind(kind string) *DeclBuilder {
	b.raw.Kind = kind
	return b
}

// Env restricts registration to the given environment labels.
func (b *DeclBuilder) Env(labels ...string) *DeclBuilder {
	b.raw.Environments = labels
	return b
}

// Async marks the construction site's result as deferred.
func (b *DeclBuilder) Async() *DeclBuilder {
	b.raw.Async = true
	return b
}

// PreResolve marks the declaration to be awaited at plan execution.
func (b *DeclBuilder) PreResolve() *DeclBuilder {
	b.raw.PreResolve = true
	return b
}

// Factory switches the site to a named factory function.
func (b *DeclBuilder) Factory(symbol string) *DeclBuilder {
	b.raw.Site.Mode = "factory"
	b.raw.Site.Symbol = symbol
	return b
}

// Member switches the site to a module accessor owned by owner.
func (b *DeclBuilder) Member(owner, method string) *DeclBuilder {
	b.raw.Site.Mode = "module"
	b.raw.Site.Symbol = method
	b.raw.OwnerModule = owner
	return b
}

// Unresolved marks the construction site as not locatable by the front
// end, which normalization must reject.
func (b *DeclBuilder) Unresolved() *DeclBuilder {
	b.raw.Site.Resolved = false
	return b
}

// Dep appends a dependency input of the given type.
func (b *DeclBuilder) Dep(typ string) *DeclBuilder {
	b.raw.Site.Params = append(b.raw.Site.Params, source.RawParam{Type: typ})
	return b
}

// TaggedDep appends a dependency input selecting a tagged declaration.
func (b *DeclBuilder) TaggedDep(typ, tag string) *DeclBuilder {
	b.raw.Site.Params = append(b.raw.Site.Params, source.RawParam{Type: typ, Tag: tag})
	return b
}

// AsyncDep appends a dependency requesting asynchronous resolution.
func (b *DeclBuilder) AsyncDep(typ string) *DeclBuilder {
	b.raw.Site.Params = append(b.raw.Site.Params, source.RawParam{Type: typ, Async: true})
	return b
}

// RuntimeParam appends a caller-supplied factory parameter.
func (b *DeclBuilder) RuntimeParam(typ string) *DeclBuilder {
	b.raw.Site.Params = append(b.raw.Site.Params, source.RawParam{Type: typ, Runtime: true})
	return b
}

// Build returns the raw declaration.
func (b *DeclBuilder) Build() source.RawDeclaration {
	return b.raw
}

// Source assembles declarations into an in-memory DeclarationSource
// with discovery order following argument order.
func Source(builders ...*DeclBuilder) source.SliceSource {
	raws := make(source.SliceSource, len(builders))
	for i, b := range builders {
		raws[i] = b.Build()
	}
	return raws
}
