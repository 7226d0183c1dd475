package model

// RegistrationPlan is the final ordered, environment-partitioned output
// of generation: an unconditional statement sequence plus one guarded
// block per environment label.
type RegistrationPlan struct {
	// Records holds every declaration in discovery order, including
	// declarations that appear in multiple environment blocks.
	Records []*DeclarationRecord `json:"records"`
	// Unconditional statements execute regardless of environment.
	Unconditional []*DeclarationRecord `json:"unconditional"`
	// Envs holds one guarded block per label, ordered by the label's
	// first appearance in discovery order.
	Envs []EnvBlock `json:"envs"`
}

// EnvBlock is the statement sequence guarded by one environment label.
type EnvBlock struct {
	Label      string               `json:"label"`
	Statements []*DeclarationRecord `json:"statements"`
}

// Canonical returns a canonical-JSON-ready view of the plan: statement
// order, partitioning, and the full declaration identity of every
// statement. Two equal plans always produce identical canonical maps.
func (p *RegistrationPlan) Canonical() map[string]any {
	return map[string]any{
		"unconditional": statementList(p.Unconditional),
		"envs":          envList(p.Envs),
	}
}

func envList(envs []EnvBlock) []any {
	out := make([]any, len(envs))
	for i, e := range envs {
		out[i] = map[string]any{
			"label":      e.Label,
			"statements": statementList(e.Statements),
		}
	}
	return out
}

func statementList(stmts []*DeclarationRecord) []any {
	out := make([]any, len(stmts))
	for i, d := range stmts {
		out[i] = d.canonical()
	}
	return out
}

func (d *DeclarationRecord) canonical() map[string]any {
	m := map[string]any{
		"name":     d.Name,
		"produced": d.Produced.Key(),
		"bound":    d.Bound.Key(),
		"kind":     string(d.Kind),
		"site":     string(d.Site.Mode),
		"order":    d.Order,
	}
	if d.Tag != "" {
		m["tag"] = d.Tag
	}
	if d.Site.Symbol != "" {
		m["symbol"] = d.Site.Symbol
	}
	if d.OwnerModule != "" {
		m["owner_module"] = d.OwnerModule
	}
	if len(d.Environments) > 0 {
		m["environments"] = stringList(d.Environments)
	}
	if len(d.Deps) > 0 {
		deps := make([]any, len(d.Deps))
		for i, dep := range d.Deps {
			dm := map[string]any{"type": dep.Type.Key()}
			if dep.Tag != "" {
				dm["tag"] = dep.Tag
			}
			if dep.Async {
				dm["async"] = true
			}
			deps[i] = dm
		}
		m["deps"] = deps
	}
	if len(d.RuntimeParams) > 0 {
		params := make([]any, len(d.RuntimeParams))
		for i, t := range d.RuntimeParams {
			params[i] = t.Key()
		}
		m["runtime_params"] = params
	}
	return m
}

func stringList(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// BindingIndex maps (bound type, tag) pairs to the declarations carrying
// them. Shared by the graph builder (edge resolution) and the emitter
// (per-block provider lookup).
type BindingIndex struct {
	byKey map[string][]*DeclarationRecord
}

// NewBindingIndex builds an index over the record set. Declarations are
// kept in discovery order per key.
func NewBindingIndex(records []*DeclarationRecord) *BindingIndex {
	idx := &BindingIndex{byKey: make(map[string][]*DeclarationRecord, len(records))}
	for _, d := range records {
		k := d.BindingKey()
		idx.byKey[k] = append(idx.byKey[k], d)
	}
	return idx
}

// Candidates returns every declaration bound to (t, tag), in discovery
// order. Multiple candidates are legal when their environments are
// disjoint.
func (idx *BindingIndex) Candidates(t TypeToken, tag string) []*DeclarationRecord {
	return idx.byKey[bindingKey(t, tag)]
}

// ProviderIn resolves (t, tag) to the declaration visible under env, or
// nil when no declaration matches. env == "" restricts to unconditional
// declarations.
func (idx *BindingIndex) ProviderIn(t TypeToken, tag, env string) *DeclarationRecord {
	for _, d := range idx.byKey[bindingKey(t, tag)] {
		if env == "" {
			if d.Unconditional() {
				return d
			}
			continue
		}
		if d.InEnvironment(env) {
			return d
		}
	}
	return nil
}
