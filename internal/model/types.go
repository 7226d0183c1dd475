package model

// RegistrationKind classifies how a declaration is registered with the
// locator and whether it participates in eager ordering.
type RegistrationKind string

const (
	// KindValue registers an already-constructed value.
	KindValue RegistrationKind = "value"
	// KindFactory registers a factory invoked on every lookup.
	KindFactory RegistrationKind = "factory"
	// KindLazySingleton registers a factory invoked once, on first lookup.
	KindLazySingleton RegistrationKind = "lazySingleton"
	// KindEagerSingleton constructs the instance during plan execution.
	KindEagerSingleton RegistrationKind = "eagerSingleton"
	// KindParamFactory registers a factory taking up to two
	// runtime-supplied parameters from the caller.
	KindParamFactory RegistrationKind = "paramFactory"
	// KindAsyncFactory registers a deferred factory resolved lazily by
	// the caller.
	KindAsyncFactory RegistrationKind = "asyncFactory"
	// KindAwaited is an async construction awaited once during plan
	// execution and captured as a plain value for all consumers.
	KindAwaited RegistrationKind = "awaited"
)

// Eager reports whether the kind participates in eager ordering
// constraints. Lazy kinds never do, even when mutually referential.
func (k RegistrationKind) Eager() bool {
	return k == KindEagerSingleton || k == KindAwaited
}

// MaxRuntimeParams is the parametrized-factory runtime parameter limit.
const MaxRuntimeParams = 2

// SiteMode distinguishes the shapes of construction sites.
type SiteMode string

const (
	// SiteConstructor is the type's own constructor function.
	SiteConstructor SiteMode = "constructor"
	// SiteFactory is a named/static factory function.
	SiteFactory SiteMode = "factory"
	// SiteModule is an accessor method on an owning module instance.
	SiteModule SiteMode = "module"
)

// ConstructionSite is an opaque reference to how an instance is built.
// The generator never interprets it beyond its parameter list.
type ConstructionSite struct {
	Mode   SiteMode `json:"mode"`
	Symbol string   `json:"symbol,omitempty"` // factory func or module method name
}

// DependencyRef is one input required to invoke a construction site.
// Runtime-supplied parametrized-factory inputs are excluded; they live
// in DeclarationRecord.RuntimeParams.
type DependencyRef struct {
	Type  TypeToken `json:"type"`
	Tag   string    `json:"tag,omitempty"`
	Async bool      `json:"async,omitempty"` // consumer requests asynchronous resolution
}

// DeclarationRecord is one unit the generator may register. Records are
// immutable after normalization; the plan is a pure function of the
// record set.
type DeclarationRecord struct {
	// Name is the declaration's label in the manifest, unique per set.
	Name string `json:"name"`
	// Produced is the concrete implementation's own type.
	Produced TypeToken `json:"produced"`
	// Bound is the type exposed to consumers. Equals Produced unless an
	// explicit bind-as abstraction was declared.
	Bound TypeToken `json:"bound"`
	// Tag disambiguates declarations sharing a bound type. May be
	// explicit or auto-derived from Produced's bare identifier.
	Tag string `json:"tag,omitempty"`

	Site ConstructionSite `json:"site"`
	Deps []DependencyRef  `json:"deps,omitempty"`
	// RuntimeParams are caller-supplied factory parameter types. Only
	// paramFactory declarations carry them, at most MaxRuntimeParams.
	RuntimeParams []TypeToken `json:"runtime_params,omitempty"`

	Kind RegistrationKind `json:"kind"`
	// Environments gates registration: empty means unconditional,
	// non-empty means register only when the runtime environment is in
	// the set. Always sorted.
	Environments []string `json:"environments,omitempty"`

	// OwnerModule names the module declaration whose member this is,
	// or "" for top-level declarations.
	OwnerModule string `json:"owner_module,omitempty"`

	// Order is the stable discovery index, used only as a tie-break.
	Order int `json:"order"`
	// Pos is the source position ("file:line:col") for diagnostics.
	Pos string `json:"-"`
}

// BindingKey returns the (bound type, tag) identity used for dependency
// matching and ambiguity detection.
func (d *DeclarationRecord) BindingKey() string {
	return bindingKey(d.Bound, d.Tag)
}

func bindingKey(t TypeToken, tag string) string {
	if tag == "" {
		return t.Key()
	}
	return t.Key() + "#" + tag
}

// Unconditional reports whether the declaration registers regardless of
// the runtime environment.
func (d *DeclarationRecord) Unconditional() bool {
	return len(d.Environments) == 0
}

// InEnvironment reports whether the declaration is visible under the
// given environment label. Unconditional declarations are visible
// everywhere.
func (d *DeclarationRecord) InEnvironment(env string) bool {
	if d.Unconditional() {
		return true
	}
	for _, e := range d.Environments {
		if e == env {
			return true
		}
	}
	return false
}

// EnvCompatible reports whether two declarations can both be live under
// some runtime environment: either set empty, or the sets intersect.
func EnvCompatible(a, b *DeclarationRecord) bool {
	if a.Unconditional() || b.Unconditional() {
		return true
	}
	return len(EnvOverlap(a.Environments, b.Environments)) > 0
}

// EnvOverlap returns the sorted intersection of two sorted label sets.
func EnvOverlap(a, b []string) []string {
	var out []string
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			out = append(out, a[i])
			i++
			j++
		case a[i] < b[j]:
			i++
		default:
			j++
		}
	}
	return out
}
