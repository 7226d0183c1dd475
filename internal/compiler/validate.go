package compiler

import (
	"fmt"
	"strings"

	"github.com/wirecue/wirecue/internal/model"
)

// Validate runs the two fatal validation passes in order: binding
// ambiguity first, then eager-cycle detection. The first failure is
// returned and generation halts with no partial plan.
func Validate(g *Graph) error {
	if err := validateBindings(g.Records); err != nil {
		return err
	}
	return detectEagerCycles(g)
}

// validateBindings groups declarations by (bound type, tag) and rejects
// any pair whose environment sets can both be live at once: sets that
// intersect, or either set empty. Disjoint non-empty sets are
// compatible; the runtime environment selects exactly one.
func validateBindings(records []*model.DeclarationRecord) error {
	groups := make(map[string][]*model.DeclarationRecord)
	var keys []string
	for _, d := range records {
		k := d.BindingKey()
		if _, seen := groups[k]; !seen {
			keys = append(keys, k)
		}
		groups[k] = append(groups[k], d)
	}

	// Iterate keys in first-appearance order so the reported conflict
	// is the same regardless of map iteration.
	for _, k := range keys {
		group := groups[k]
		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				a, b := group[i], group[j]
				if !model.EnvCompatible(a, b) {
					continue
				}
				return &ValidationError{
					Kind:         AmbiguousBinding,
					Declarations: []string{a.Name, b.Name},
					Detail:       ambiguityDetail(a, b),
					Pos:          a.Pos,
				}
			}
		}
	}
	return nil
}

func ambiguityDetail(a, b *model.DeclarationRecord) string {
	binding := a.Bound.Key()
	if a.Tag != "" {
		binding += " (tag " + a.Tag + ")"
	}
	if a.Unconditional() || b.Unconditional() {
		return fmt.Sprintf("both declarations bind %s for every environment", binding)
	}
	overlap := model.EnvOverlap(a.Environments, b.Environments)
	return fmt.Sprintf("both declarations bind %s for environment(s) %s",
		binding, strings.Join(overlap, ", "))
}
