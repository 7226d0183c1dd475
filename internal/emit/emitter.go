package emit

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wirecue/wirecue/internal/model"
)

// EmitPlan lowers a validated plan into a registration routine. The
// routine is a pure function of the plan: statement order is preserved
// and every derived name is deterministic.
func EmitPlan(plan *model.RegistrationPlan) (*Routine, error) {
	e := &emitter{
		index:    model.NewBindingIndex(plan.Records),
		modules:  make(map[string]*model.DeclarationRecord),
		awaited:  make(map[string]string),
		modLocal: make(map[string]string),
	}

	for _, d := range plan.Records {
		if d.OwnerModule == "" {
			continue
		}
		owner := recordByName(plan.Records, d.OwnerModule)
		if owner == nil {
			return nil, fmt.Errorf("declaration %q names unknown owner module %q", d.Name, d.OwnerModule)
		}
		e.modules[owner.Name] = owner
		e.modLocal[owner.Name] = ident(owner.Name) + "Module"
	}
	for _, d := range plan.Records {
		if d.Kind == model.KindAwaited {
			e.awaited[d.Name] = ident(d.Name) + "Value"
		}
	}

	routine := &Routine{Async: len(e.awaited) > 0}

	uncond, err := e.emitBlock("", plan.Unconditional, nil, make(map[string]bool))
	if err != nil {
		return nil, err
	}
	routine.Unconditional = uncond

	// Awaited locals settled in the unconditional prefix stay in scope
	// for every environment block.
	prefix := make(map[string]bool, len(plan.Unconditional))
	for _, d := range plan.Unconditional {
		if d.Kind == model.KindAwaited {
			prefix[d.Name] = true
		}
	}
	// Module closures synthesized in the prefix stay in scope too; env
	// blocks must reuse them, or a guarded member would run against a
	// second module instance.
	prefixSynth := make(map[string]bool)
	for i := range routine.Unconditional.Actions {
		if s := routine.Unconditional.Actions[i].Synth; s != nil {
			prefixSynth[s.Name] = true
		}
	}
	for _, env := range plan.Envs {
		synthesized := make(map[string]bool, len(prefixSynth))
		for name := range prefixSynth {
			synthesized[name] = true
		}
		block, err := e.emitBlock(env.Label, env.Statements, prefix, synthesized)
		if err != nil {
			return nil, err
		}
		routine.Envs = append(routine.Envs, block)
	}

	return routine, nil
}

type emitter struct {
	index    *model.BindingIndex
	modules  map[string]*model.DeclarationRecord
	awaited  map[string]string // declaration name -> settled-value local
	modLocal map[string]string // module name -> once-function local
}

func (e *emitter) emitBlock(label string, stmts []*model.DeclarationRecord, prefix, synthesized map[string]bool) (Block, error) {
	visible := make(map[string]bool, len(prefix)+len(stmts))
	for name := range prefix {
		visible[name] = true
	}
	for _, d := range stmts {
		if d.Kind == model.KindAwaited {
			visible[d.Name] = true
		}
	}

	block := Block{Label: label}
	for _, d := range stmts {
		action, err := e.action(d, label, visible, synthesized)
		if err != nil {
			return Block{}, err
		}
		block.Actions = append(block.Actions, action)
	}
	return block, nil
}

func (e *emitter) action(d *model.DeclarationRecord, label string, visible, synthesized map[string]bool) (RegistrationAction, error) {
	kind, err := actionKind(d.Kind)
	if err != nil {
		return RegistrationAction{}, fmt.Errorf("declaration %q: %w", d.Name, err)
	}

	deps, err := e.lookups(d, label, visible)
	if err != nil {
		return RegistrationAction{}, err
	}
	if kind != DeferredFactory && kind != AwaitedValue {
		for _, l := range deps {
			if l.Mode == LookupAsync {
				return RegistrationAction{}, fmt.Errorf(
					"declaration %q requests asynchronous resolution of %s from a synchronous construction site",
					d.Name, l.Type)
			}
		}
	}

	action := RegistrationAction{
		Kind:          kind,
		Name:          d.Name,
		Produced:      d.Produced,
		Bound:         d.Bound,
		Tag:           d.Tag,
		Site:          d.Site,
		Deps:          deps,
		RuntimeParams: d.RuntimeParams,
		Local:         e.awaited[d.Name],
	}

	// The module closure is emitted before the first statement touching
	// the module, whether that is a member accessor or the module's own
	// registration. A closure synthesized in the unconditional prefix is
	// function scoped and shared with every env block; modules living
	// only in env blocks synthesize per block, since at most one guarded
	// block executes.
	moduleName := d.OwnerModule
	if moduleName == "" && e.modules[d.Name] != nil {
		moduleName = d.Name
	}
	if moduleName != "" {
		action.ModuleLocal = e.modLocal[moduleName]
		if !synthesized[moduleName] {
			synthesized[moduleName] = true
			synth, err := e.synth(moduleName, label, visible)
			if err != nil {
				return RegistrationAction{}, err
			}
			action.Synth = synth
		}
	}

	return action, nil
}

func (e *emitter) synth(moduleName, label string, visible map[string]bool) (*ModuleSynth, error) {
	owner := e.modules[moduleName]
	deps, err := e.lookups(owner, label, visible)
	if err != nil {
		return nil, err
	}
	// The once closure has no context; the module constructor cannot
	// await anything.
	for _, l := range deps {
		if l.Mode == LookupAsync {
			return nil, fmt.Errorf(
				"module %q requests asynchronous resolution of %s from its constructor",
				moduleName, l.Type)
		}
	}
	return &ModuleSynth{
		Name:  owner.Name,
		Local: e.modLocal[moduleName],
		Type:  owner.Produced,
		Site:  owner.Site,
		Deps:  deps,
	}, nil
}

func (e *emitter) lookups(d *model.DeclarationRecord, label string, visible map[string]bool) ([]DependencyLookup, error) {
	out := make([]DependencyLookup, 0, len(d.Deps))
	for _, dep := range d.Deps {
		l, err := e.lookup(d, dep, label, visible)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, nil
}

func (e *emitter) lookup(d *model.DeclarationRecord, dep model.DependencyRef, label string, visible map[string]bool) (DependencyLookup, error) {
	l := DependencyLookup{Type: dep.Type, Tag: dep.Tag, Mode: LookupSync}

	// Only eager consumers read the settled local directly: statement
	// ordering guarantees the awaited provider precedes them. Lazy
	// closures resolve through the container, where the value is
	// registered by the time any lookup can run.
	provider := e.index.ProviderIn(dep.Type, dep.Tag, label)
	if provider != nil && provider.Kind == model.KindAwaited && d.Kind.Eager() && visible[provider.Name] {
		l.Mode = LookupLocal
		l.Local = e.awaited[provider.Name]
		return l, nil
	}

	if dep.Async {
		l.Mode = LookupAsync
		return l, nil
	}
	if provider != nil && provider.Kind == model.KindAsyncFactory {
		return DependencyLookup{}, fmt.Errorf(
			"declaration %q resolves %s synchronously but its provider %q is asynchronous",
			d.Name, dep.Type, provider.Name)
	}
	return l, nil
}

func recordByName(records []*model.DeclarationRecord, name string) *model.DeclarationRecord {
	for _, r := range records {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// ident derives a Go local-variable stem from a declaration name:
// punctuation stripped, first rune lowered.
func ident(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" {
		return "x"
	}
	r, size := utf8.DecodeRuneInString(s)
	s = string(unicode.ToLower(r)) + s[size:]
	if unicode.IsDigit(rune(s[0])) {
		s = "v" + s
	}
	return s
}
