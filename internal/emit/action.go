package emit

import (
	"fmt"

	"github.com/wirecue/wirecue/internal/model"
)

// ActionKind classifies how one registration statement is executed.
type ActionKind string

const (
	// InstantValue constructs the instance during registration and
	// registers the result as a plain value.
	InstantValue ActionKind = "instantValue"
	// LazyFactory registers a factory invoked on every lookup.
	LazyFactory ActionKind = "lazyFactory"
	// LazySingletonFactory registers a factory invoked once, on first
	// lookup.
	LazySingletonFactory ActionKind = "lazySingletonFactory"
	// ParametrizedFactory registers a factory taking runtime-supplied
	// parameters from the caller.
	ParametrizedFactory ActionKind = "parametrizedFactory"
	// DeferredFactory registers an asynchronous factory resolved by the
	// caller with a context.
	DeferredFactory ActionKind = "deferredFactory"
	// AwaitedValue awaits an asynchronous construction during
	// registration and registers the settled result as a plain value.
	AwaitedValue ActionKind = "awaitedValue"
)

// actionKind maps a registration kind to the statement shape executing it.
func actionKind(k model.RegistrationKind) (ActionKind, error) {
	switch k {
	case model.KindValue, model.KindEagerSingleton:
		return InstantValue, nil
	case model.KindFactory:
		return LazyFactory, nil
	case model.KindLazySingleton:
		return LazySingletonFactory, nil
	case model.KindParamFactory:
		return ParametrizedFactory, nil
	case model.KindAsyncFactory:
		return DeferredFactory, nil
	case model.KindAwaited:
		return AwaitedValue, nil
	default:
		return "", fmt.Errorf("no registration action for kind %q", k)
	}
}

// LookupMode says how a dependency input is obtained inside a statement.
type LookupMode string

const (
	// LookupSync resolves through the container synchronously.
	LookupSync LookupMode = "sync"
	// LookupAsync resolves through the container with a context,
	// awaiting a deferred factory.
	LookupAsync LookupMode = "async"
	// LookupLocal reads a local variable holding an already-awaited
	// value from the same routine.
	LookupLocal LookupMode = "local"
)

// DependencyLookup is one resolved input of a construction site.
type DependencyLookup struct {
	Type model.TypeToken
	Tag  string
	Mode LookupMode
	// Local is the variable read when Mode is LookupLocal.
	Local string
}

// ModuleSynth describes the shared module instance closure emitted
// before the module's first statement in a block. Every member accessor
// and the module's own registration run against the same instance.
type ModuleSynth struct {
	// Name is the module's declaration name.
	Name string
	// Local is the once-function variable holding the instance.
	Local string
	Type  model.TypeToken
	Site  model.ConstructionSite
	Deps  []DependencyLookup
}

// RegistrationAction is one statement of the generated routine.
type RegistrationAction struct {
	Kind ActionKind
	Name string

	Produced model.TypeToken
	Bound    model.TypeToken
	Tag      string

	Site model.ConstructionSite
	Deps []DependencyLookup
	// RuntimeParams are caller-supplied factory parameter types, passed
	// after the dependency inputs.
	RuntimeParams []model.TypeToken

	// Local names the variable an AwaitedValue settles into.
	Local string
	// ModuleLocal names the once-function yielding the owning module
	// instance; set on module members and on the module's own statement.
	ModuleLocal string
	// Synth, when non-nil, is the module closure emitted immediately
	// before this statement.
	Synth *ModuleSynth
}

// Block is one statement sequence of the routine: the unconditional
// prefix (empty label) or one environment-guarded block.
type Block struct {
	Label   string
	Actions []RegistrationAction
}

// Routine is the fully lowered registration routine.
type Routine struct {
	// Async reports whether any block contains an AwaitedValue; the
	// rendered routine then takes a context.
	Async         bool
	Unconditional Block
	Envs          []Block
}
