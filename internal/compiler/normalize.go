package compiler

import (
	"fmt"
	"slices"

	"github.com/wirecue/wirecue/internal/model"
	"github.com/wirecue/wirecue/internal/source"
)

// Normalize converts raw front-end records into the uniform declaration
// model. It resolves registration kinds, derives tags, splits runtime
// parameters from dependency inputs, and rejects uninterpretable
// construction sites. The first failure aborts the pass.
func Normalize(raws []source.RawDeclaration) ([]*model.DeclarationRecord, error) {
	records := make([]*model.DeclarationRecord, 0, len(raws))
	names := make(map[string]bool, len(raws))

	for i := range raws {
		rec, err := normalizeOne(&raws[i])
		if err != nil {
			return nil, err
		}
		if names[rec.Name] {
			return nil, invalidSite(rec.Name, rec.Pos, "duplicate declaration name %q", rec.Name)
		}
		names[rec.Name] = true
		records = append(records, rec)
	}

	// Module back-references must point at a declaration in the set;
	// the module instance is what member accessors run against.
	for _, rec := range records {
		if rec.OwnerModule == "" {
			continue
		}
		owner, ok := byName(records, rec.OwnerModule)
		if !ok {
			return nil, invalidSite(rec.Name, rec.Pos, "owner module %q is not declared", rec.OwnerModule)
		}
		if owner.OwnerModule != "" {
			return nil, invalidSite(rec.Name, rec.Pos, "owner module %q is itself a module member", rec.OwnerModule)
		}
	}

	return records, nil
}

func normalizeOne(raw *source.RawDeclaration) (*model.DeclarationRecord, error) {
	if !raw.Site.Resolved {
		switch raw.Site.Mode {
		case "factory":
			return nil, invalidSite(raw.Name, raw.Pos,
				"factory %q not found among the members of %s", raw.Site.Symbol, raw.Produced)
		case "module":
			return nil, invalidSite(raw.Name, raw.Pos,
				"module accessor %q has an uninterpretable signature", raw.Site.Symbol)
		default:
			return nil, invalidSite(raw.Name, raw.Pos, "construction site could not be resolved")
		}
	}

	mode, err := siteMode(raw)
	if err != nil {
		return nil, err
	}

	produced, err := model.ParseTypeToken(raw.Produced)
	if err != nil {
		return nil, invalidSite(raw.Name, raw.Pos, "produced type: %v", err)
	}
	bound := produced
	if raw.Bound != "" {
		if bound, err = model.ParseTypeToken(raw.Bound); err != nil {
			return nil, invalidSite(raw.Name, raw.Pos, "bound type: %v", err)
		}
	}

	deps, runtimeParams, err := splitParams(raw)
	if err != nil {
		return nil, err
	}

	kind, err := resolveKind(raw, len(runtimeParams) > 0)
	if err != nil {
		return nil, err
	}

	tag := raw.Tag
	if tag == "" && raw.AutoTag {
		// Auto-derived tags use the produced type's bare identifier;
		// uniqueness is enforced by the ambiguity pass.
		tag = produced.Bare()
	}

	envs := slices.Clone(raw.Environments)
	slices.Sort(envs)
	envs = slices.Compact(envs)

	return &model.DeclarationRecord{
		Name:          raw.Name,
		Produced:      produced,
		Bound:         bound,
		Tag:           tag,
		Site:          model.ConstructionSite{Mode: mode, Symbol: raw.Site.Symbol},
		Deps:          deps,
		RuntimeParams: runtimeParams,
		Kind:          kind,
		Environments:  envs,
		OwnerModule:   raw.OwnerModule,
		Order:         raw.Order,
		Pos:           raw.Pos,
	}, nil
}

func siteMode(raw *source.RawDeclaration) (model.SiteMode, error) {
	switch raw.Site.Mode {
	case "", "constructor":
		return model.SiteConstructor, nil
	case "factory":
		if raw.Site.Symbol == "" {
			return "", invalidSite(raw.Name, raw.Pos, "factory declaration requires a symbol")
		}
		return model.SiteFactory, nil
	case "module":
		if raw.Site.Symbol == "" {
			return "", invalidSite(raw.Name, raw.Pos, "module member requires an accessor name")
		}
		if raw.OwnerModule == "" {
			return "", invalidSite(raw.Name, raw.Pos, "module accessor declared without an owner module")
		}
		return model.SiteModule, nil
	default:
		return "", invalidSite(raw.Name, raw.Pos, "unsupported construction site mode %q", raw.Site.Mode)
	}
}

// splitParams separates dependency inputs from runtime-supplied
// parametrized-factory inputs. Runtime inputs never become graph edges.
func splitParams(raw *source.RawDeclaration) ([]model.DependencyRef, []model.TypeToken, error) {
	var deps []model.DependencyRef
	var runtime []model.TypeToken

	for i, p := range raw.Site.Params {
		t, err := model.ParseTypeToken(p.Type)
		if err != nil {
			return nil, nil, invalidSite(raw.Name, raw.Pos, "param %d: %v", i, err)
		}
		if p.Runtime {
			if p.Tag != "" || p.Async {
				return nil, nil, invalidSite(raw.Name, raw.Pos,
					"param %d: runtime-supplied parameters cannot carry tag or async flags", i)
			}
			runtime = append(runtime, t)
			continue
		}
		deps = append(deps, model.DependencyRef{Type: t, Tag: p.Tag, Async: p.Async})
	}

	if len(runtime) > model.MaxRuntimeParams {
		return nil, nil, &ValidationError{
			Kind:         InvalidParameterCount,
			Declarations: []string{raw.Name},
			Detail: fmt.Sprintf("parametrized factory declares %d runtime parameters, at most %d allowed",
				len(runtime), model.MaxRuntimeParams),
			Pos: raw.Pos,
		}
	}

	return deps, runtime, nil
}

// resolveKind applies the kind precedence: explicit pre-resolve flag,
// then async result-shape promotion, then the explicit kind annotation,
// then the factory default.
func resolveKind(raw *source.RawDeclaration, hasRuntimeParams bool) (model.RegistrationKind, error) {
	switch raw.Kind {
	case "", "value", "factory", "lazySingleton", "eagerSingleton":
	default:
		return "", invalidSite(raw.Name, raw.Pos, "unknown registration kind %q", raw.Kind)
	}

	if raw.PreResolve {
		if !raw.Async {
			return "", invalidSite(raw.Name, raw.Pos, "preResolve requires an async construction site")
		}
		if hasRuntimeParams {
			return "", invalidSite(raw.Name, raw.Pos, "preResolve cannot take runtime-supplied parameters")
		}
		return model.KindAwaited, nil
	}

	if raw.Async {
		if hasRuntimeParams {
			return "", invalidSite(raw.Name, raw.Pos, "async factories cannot take runtime-supplied parameters")
		}
		return model.KindAsyncFactory, nil
	}

	if hasRuntimeParams {
		if raw.Kind != "" && raw.Kind != "factory" {
			return "", invalidSite(raw.Name, raw.Pos,
				"runtime-supplied parameters require a factory declaration, not %q", raw.Kind)
		}
		return model.KindParamFactory, nil
	}

	switch raw.Kind {
	case "value":
		return model.KindValue, nil
	case "lazySingleton":
		return model.KindLazySingleton, nil
	case "eagerSingleton":
		return model.KindEagerSingleton, nil
	default:
		return model.KindFactory, nil
	}
}

func byName(records []*model.DeclarationRecord, name string) (*model.DeclarationRecord, bool) {
	for _, r := range records {
		if r.Name == name {
			return r, true
		}
	}
	return nil, false
}

func invalidSite(name, pos, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:         InvalidConstructionSite,
		Declarations: []string{name},
		Detail:       fmt.Sprintf(format, args...),
		Pos:          pos,
	}
}
