package compiler

import (
	"github.com/wirecue/wirecue/internal/model"
)

// Graph is the directed dependency graph over a declaration set. Edges
// point from consumer to the declaration(s) satisfying each matched
// dependency; dependencies with no matching declaration stay external
// and produce no edge (the locator resolves them at program runtime).
type Graph struct {
	Records []*model.DeclarationRecord
	Index   *model.BindingIndex

	edges map[string][]*model.DeclarationRecord
}

// BuildGraph resolves every declaration's dependency inputs against the
// set's bindings. A dependency may match several declarations when
// their environments are disjoint; an edge is added for each candidate
// whose environments are compatible with the consumer's. Module members
// additionally depend on their owning module.
func BuildGraph(records []*model.DeclarationRecord) *Graph {
	g := &Graph{
		Records: records,
		Index:   model.NewBindingIndex(records),
		edges:   make(map[string][]*model.DeclarationRecord, len(records)),
	}

	for _, consumer := range records {
		var providers []*model.DeclarationRecord

		for _, dep := range consumer.Deps {
			for _, candidate := range g.Index.Candidates(dep.Type, dep.Tag) {
				if candidate == consumer {
					continue
				}
				if model.EnvCompatible(consumer, candidate) {
					providers = append(providers, candidate)
				}
			}
		}

		if consumer.OwnerModule != "" {
			if owner, ok := byName(records, consumer.OwnerModule); ok {
				providers = append(providers, owner)
			}
		}

		g.edges[consumer.Name] = providers
	}

	return g
}

// Dependencies returns the declarations d's statement depends on, in
// stable (dependency-list, then candidate-discovery) order.
func (g *Graph) Dependencies(d *model.DeclarationRecord) []*model.DeclarationRecord {
	return g.edges[d.Name]
}
