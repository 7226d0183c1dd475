package compiler

import (
	"github.com/wirecue/wirecue/internal/model"
)

// detectEagerCycles runs depth-first cycle detection over the eager
// subgraph: eager-singleton and awaited declarations, with only
// eager-to-eager edges. Lazy declarations never contribute, even when
// mutually referential, because their construction is deferred past the
// eager-ordering phase.
//
// The reported chain lists the full cycle in traversal order, with the
// entry declaration repeated at the end.
func detectEagerCycles(g *Graph) error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[string]int, len(g.Records))

	var path []*model.DeclarationRecord

	var visit func(d *model.DeclarationRecord) *CycleError
	visit = func(d *model.DeclarationRecord) *CycleError {
		state[d.Name] = inProgress
		path = append(path, d)

		for _, dep := range g.Dependencies(d) {
			if !dep.Kind.Eager() {
				continue
			}
			switch state[dep.Name] {
			case inProgress:
				return chainFrom(path, dep)
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		path = path[:len(path)-1]
		state[d.Name] = done
		return nil
	}

	// Roots in discovery order keeps the traversal, and therefore the
	// reported chain, deterministic.
	for _, d := range g.Records {
		if !d.Kind.Eager() || state[d.Name] != unvisited {
			continue
		}
		if err := visit(d); err != nil {
			return err
		}
	}
	return nil
}

// chainFrom extracts the cycle from the DFS path: everything from the
// first occurrence of entry onward, then entry again to close the loop.
func chainFrom(path []*model.DeclarationRecord, entry *model.DeclarationRecord) *CycleError {
	start := 0
	for i, d := range path {
		if d == entry {
			start = i
			break
		}
	}
	chain := make([]string, 0, len(path)-start+1)
	for _, d := range path[start:] {
		chain = append(chain, d.Name)
	}
	chain = append(chain, entry.Name)
	return &CycleError{Chain: chain}
}
