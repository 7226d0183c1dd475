package compiler

import (
	"github.com/wirecue/wirecue/internal/model"
)

// BuildPlan partitions the validated declaration set by environment and
// orders each partition's statements.
//
// Partitioning: unconditional declarations form the prefix; a
// declaration with environment labels appears once per label's block.
// Blocks are ordered by the label's first appearance in discovery order.
//
// Ordering within a partition: a provider's registration statement must
// precede a consumer's statement only when the consumer is eager - an
// eager declaration constructs during plan execution, so everything it
// looks up (eager or lazy) must already be registered. Lazy consumers
// impose no constraints; their resolution is deferred. Remaining ties
// are broken by discovery order, so lazy-only partitions come out in
// stable discovery order untouched.
func BuildPlan(g *Graph) *model.RegistrationPlan {
	plan := &model.RegistrationPlan{Records: g.Records}

	var unconditional []*model.DeclarationRecord
	var labels []string
	byLabel := make(map[string][]*model.DeclarationRecord)

	for _, d := range g.Records {
		if d.Unconditional() {
			unconditional = append(unconditional, d)
			continue
		}
		for _, env := range d.Environments {
			if _, seen := byLabel[env]; !seen {
				labels = append(labels, env)
			}
			byLabel[env] = append(byLabel[env], d)
		}
	}

	plan.Unconditional = orderPartition(unconditional, g)
	for _, label := range labels {
		plan.Envs = append(plan.Envs, model.EnvBlock{
			Label:      label,
			Statements: orderPartition(byLabel[label], g),
		})
	}

	return plan
}

// orderPartition returns the partition's statements in registration
// order: a stable topological sort over provider-before-eager-consumer
// constraints, ties broken by discovery order.
func orderPartition(members []*model.DeclarationRecord, g *Graph) []*model.DeclarationRecord {
	if len(members) <= 1 {
		return members
	}

	inPartition := make(map[string]bool, len(members))
	for _, d := range members {
		inPartition[d.Name] = true
	}

	// consumers[p] lists eager consumers constrained to follow p.
	consumers := make(map[string][]string)
	indegree := make(map[string]int, len(members))
	seen := make(map[[2]string]bool)

	for _, c := range members {
		if !c.Kind.Eager() {
			continue
		}
		for _, p := range g.Dependencies(c) {
			if p.Name == c.Name || !inPartition[p.Name] {
				continue
			}
			edge := [2]string{p.Name, c.Name}
			if seen[edge] {
				continue
			}
			seen[edge] = true
			consumers[p.Name] = append(consumers[p.Name], c.Name)
			indegree[c.Name]++
		}
	}

	ordered := make([]*model.DeclarationRecord, 0, len(members))
	emitted := make(map[string]bool, len(members))

	for len(ordered) < len(members) {
		next := -1
		for i, d := range members {
			if emitted[d.Name] || indegree[d.Name] > 0 {
				continue
			}
			next = i
			break
		}
		if next < 0 {
			// Unsatisfiable constraints only arise from eager cycles,
			// which validation rejects before planning. Fall back to
			// discovery order rather than looping.
			for i, d := range members {
				if !emitted[d.Name] {
					next = i
					break
				}
			}
		}

		d := members[next]
		emitted[d.Name] = true
		ordered = append(ordered, d)
		for _, c := range consumers[d.Name] {
			indegree[c]--
		}
	}

	return ordered
}
