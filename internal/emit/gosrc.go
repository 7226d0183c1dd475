package emit

import (
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/wirecue/wirecue/internal/model"
)

// DefaultLocatorImport is the runtime package the generated routine
// registers into.
const DefaultLocatorImport = "github.com/wirecue/wirecue/locator"

// RenderOptions controls the shape of the generated file.
type RenderOptions struct {
	// Package is the generated file's package name. Default "wireinit".
	Package string
	// FuncName is the registration routine's name. Default
	// "RegisterDependencies".
	FuncName string
	// LocatorImport overrides the locator runtime import path.
	LocatorImport string
}

func (o *RenderOptions) defaults() {
	if o.Package == "" {
		o.Package = "wireinit"
	}
	if o.FuncName == "" {
		o.FuncName = "RegisterDependencies"
	}
	if o.LocatorImport == "" {
		o.LocatorImport = DefaultLocatorImport
	}
}

// RenderGo renders the routine as a single generated Go source file.
// Output is deterministic byte for byte.
func RenderGo(r *Routine, opts RenderOptions) ([]byte, error) {
	opts.defaults()

	g := &generator{routine: r, opts: opts}
	g.collectImports()

	var b strings.Builder
	b.WriteString("// Code generated by wirecue. DO NOT EDIT.\n\n")
	fmt.Fprintf(&b, "package %s\n\n", opts.Package)
	g.writeImports(&b)

	if err := g.writeRoutine(&b); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

type generator struct {
	routine *Routine
	opts    RenderOptions

	needsContext bool
	needsSync    bool
	// pkgNames maps an import path to its identifier in the file.
	pkgNames map[string]string
}

// collectImports walks every type mentioned by the routine and assigns
// each package path a stable identifier, suffixing on collision.
func (g *generator) collectImports() {
	paths := make(map[string]bool)

	var walkToken func(t model.TypeToken)
	walkToken = func(t model.TypeToken) {
		if p := t.Package(); p != "" {
			paths[p] = true
		}
		for _, a := range t.Args {
			walkToken(a)
		}
	}
	walkAction := func(a *RegistrationAction) {
		walkToken(a.Produced)
		walkToken(a.Bound)
		for _, l := range a.Deps {
			walkToken(l.Type)
		}
		for _, t := range a.RuntimeParams {
			walkToken(t)
		}
		if a.Kind == DeferredFactory {
			g.needsContext = true
		}
		if a.Synth != nil {
			g.needsSync = true
			walkToken(a.Synth.Type)
			for _, l := range a.Synth.Deps {
				walkToken(l.Type)
			}
		}
	}

	for i := range g.routine.Unconditional.Actions {
		walkAction(&g.routine.Unconditional.Actions[i])
	}
	for _, env := range g.routine.Envs {
		for i := range env.Actions {
			walkAction(&env.Actions[i])
		}
	}
	if g.routine.Async {
		g.needsContext = true
	}

	sorted := make([]string, 0, len(paths))
	for p := range paths {
		sorted = append(sorted, p)
	}
	sort.Strings(sorted)

	g.pkgNames = make(map[string]string, len(sorted)+1)
	used := map[string]bool{"locator": true, "context": true, "sync": true}
	for _, p := range sorted {
		base := pkgIdent(p)
		name := base
		for i := 2; used[name]; i++ {
			name = fmt.Sprintf("%s%d", base, i)
		}
		used[name] = true
		g.pkgNames[p] = name
	}
}

func (g *generator) writeImports(b *strings.Builder) {
	b.WriteString("import (\n")
	if g.needsContext {
		b.WriteString("\t\"context\"\n")
	}
	if g.needsSync {
		b.WriteString("\t\"sync\"\n")
	}
	if g.needsContext || g.needsSync {
		b.WriteString("\n")
	}

	paths := make([]string, 0, len(g.pkgNames)+1)
	for p := range g.pkgNames {
		paths = append(paths, p)
	}
	if _, ok := g.pkgNames[g.opts.LocatorImport]; !ok {
		paths = append(paths, g.opts.LocatorImport)
	}
	sort.Strings(paths)
	for _, p := range paths {
		name := g.pkgNames[p]
		if p == g.opts.LocatorImport {
			name = "locator"
		}
		if name == lastSegment(p) {
			fmt.Fprintf(b, "\t\"%s\"\n", p)
		} else {
			fmt.Fprintf(b, "\t%s \"%s\"\n", name, p)
		}
	}
	b.WriteString(")\n\n")
}

func (g *generator) writeRoutine(b *strings.Builder) error {
	fmt.Fprintf(b, "// %s registers every declared provider with the container.\n", g.opts.FuncName)
	if g.routine.Async {
		fmt.Fprintf(b, "func %s(ctx context.Context, c *locator.Container, environment string) error {\n", g.opts.FuncName)
	} else {
		fmt.Fprintf(b, "func %s(c *locator.Container, environment string) error {\n", g.opts.FuncName)
	}

	if err := g.writeBlock(b, &g.routine.Unconditional, 1); err != nil {
		return err
	}
	for i := range g.routine.Envs {
		env := &g.routine.Envs[i]
		fmt.Fprintf(b, "\tif environment == %q {\n", env.Label)
		if err := g.writeBlock(b, env, 2); err != nil {
			return err
		}
		b.WriteString("\t}\n")
	}

	b.WriteString("\treturn nil\n}\n")
	return nil
}

func (g *generator) writeBlock(b *strings.Builder, block *Block, depth int) error {
	for i := range block.Actions {
		if err := g.writeAction(b, &block.Actions[i], depth); err != nil {
			return err
		}
	}
	return nil
}

func (g *generator) writeAction(b *strings.Builder, a *RegistrationAction, depth int) error {
	ind := strings.Repeat("\t", depth)

	if a.Synth != nil {
		s := a.Synth
		fmt.Fprintf(b, "%s%s := sync.OnceValue(func() %s {\n", ind, s.Local, g.typeExpr(s.Type))
		fmt.Fprintf(b, "%s\treturn %s\n", ind, g.constructExpr(s.Site, s.Type, g.argExprs(s.Deps, nil, false, nil)))
		fmt.Fprintf(b, "%s})\n", ind)
	}

	bound := g.typeExpr(a.Bound)
	switch a.Kind {
	case InstantValue:
		expr := g.siteExpr(a, false, nil)
		fmt.Fprintf(b, "%slocator.RegisterValue[%s](c, %q, %s)\n", ind, bound, a.Tag, expr)

	case LazyFactory, LazySingletonFactory:
		register := "RegisterFactory"
		if a.Kind == LazySingletonFactory {
			register = "RegisterLazySingleton"
		}
		fmt.Fprintf(b, "%slocator.%s[%s](c, %q, func() %s {\n", ind, register, bound, a.Tag, bound)
		fmt.Fprintf(b, "%s\treturn %s\n", ind, g.siteExpr(a, false, nil))
		fmt.Fprintf(b, "%s})\n", ind)

	case ParametrizedFactory:
		n := len(a.RuntimeParams)
		if n < 1 || n > model.MaxRuntimeParams {
			return fmt.Errorf("declaration %q: parametrized factory with %d runtime parameters", a.Name, n)
		}
		typeParams := []string{bound}
		var sig []string
		for i, t := range a.RuntimeParams {
			typeParams = append(typeParams, g.typeExpr(t))
			sig = append(sig, fmt.Sprintf("p%d %s", i, g.typeExpr(t)))
		}
		fmt.Fprintf(b, "%slocator.RegisterFactory%d[%s](c, %q, func(%s) %s {\n",
			ind, n, strings.Join(typeParams, ", "), a.Tag, strings.Join(sig, ", "), bound)
		fmt.Fprintf(b, "%s\treturn %s\n", ind, g.siteExpr(a, false, nil))
		fmt.Fprintf(b, "%s})\n", ind)

	case DeferredFactory:
		fmt.Fprintf(b, "%slocator.RegisterDeferred[%s](c, %q, func(ctx context.Context) (%s, error) {\n",
			ind, bound, a.Tag, bound)
		hoisted := g.writeAsyncDeps(b, a, depth+1, func(w *strings.Builder, hind string) {
			fmt.Fprintf(w, "%s\tvar zero %s\n", hind, bound)
			fmt.Fprintf(w, "%s\treturn zero, err\n", hind)
		})
		fmt.Fprintf(b, "%s\treturn %s\n", ind, g.siteExpr(a, true, hoisted))
		fmt.Fprintf(b, "%s})\n", ind)

	case AwaitedValue:
		hoisted := g.writeAsyncDeps(b, a, depth, func(w *strings.Builder, hind string) {
			fmt.Fprintf(w, "%s\treturn err\n", hind)
		})
		fmt.Fprintf(b, "%s%s, err := %s\n", ind, a.Local, g.siteExpr(a, true, hoisted))
		fmt.Fprintf(b, "%sif err != nil {\n%s\treturn err\n%s}\n", ind, ind, ind)
		fmt.Fprintf(b, "%slocator.RegisterValue[%s](c, %q, %s)\n", ind, bound, a.Tag, a.Local)

	default:
		return fmt.Errorf("declaration %q: unknown action kind %q", a.Name, a.Kind)
	}
	return nil
}

// writeAsyncDeps hoists LookupAsync inputs into local variables with an
// error check, returning the hoisted names indexed by dependency slot.
func (g *generator) writeAsyncDeps(b *strings.Builder, a *RegistrationAction, depth int, onErr func(*strings.Builder, string)) map[int]string {
	ind := strings.Repeat("\t", depth)
	hoisted := make(map[int]string)
	for i, l := range a.Deps {
		if l.Mode != LookupAsync {
			continue
		}
		name := fmt.Sprintf("%sDep%d", ident(a.Name), i)
		hoisted[i] = name
		fmt.Fprintf(b, "%s%s, err := locator.GetAsync[%s](ctx, c, %q)\n", ind, name, g.typeExpr(l.Type), l.Tag)
		fmt.Fprintf(b, "%sif err != nil {\n", ind)
		onErr(b, ind)
		fmt.Fprintf(b, "%s}\n", ind)
	}
	return hoisted
}

// siteExpr renders the construction call for an action. withCtx prefixes
// a ctx argument for asynchronous sites; hoisted substitutes prepared
// locals for async inputs.
func (g *generator) siteExpr(a *RegistrationAction, withCtx bool, hoisted map[int]string) string {
	args := g.argExprs(a.Deps, a.RuntimeParams, withCtx, hoisted)

	// A module's own registration hands out the shared instance.
	if a.ModuleLocal != "" && a.Site.Mode != model.SiteModule {
		return a.ModuleLocal + "()"
	}
	if a.Site.Mode == model.SiteModule {
		return fmt.Sprintf("%s().%s(%s)", a.ModuleLocal, a.Site.Symbol, strings.Join(args, ", "))
	}
	return g.constructExpr(a.Site, a.Produced, args)
}

func (g *generator) constructExpr(site model.ConstructionSite, produced model.TypeToken, args []string) string {
	pkg := g.pkgNames[produced.Package()]
	var callee string
	switch site.Mode {
	case model.SiteFactory:
		callee = site.Symbol
	default:
		callee = "New" + produced.Bare()
	}
	if pkg != "" {
		callee = pkg + "." + callee
	}
	if len(produced.Args) > 0 {
		params := make([]string, len(produced.Args))
		for i, t := range produced.Args {
			params[i] = g.typeExpr(t)
		}
		callee += "[" + strings.Join(params, ", ") + "]"
	}
	return callee + "(" + strings.Join(args, ", ") + ")"
}

func (g *generator) argExprs(deps []DependencyLookup, runtime []model.TypeToken, withCtx bool, hoisted map[int]string) []string {
	var args []string
	if withCtx {
		args = append(args, "ctx")
	}
	for i, l := range deps {
		switch l.Mode {
		case LookupLocal:
			args = append(args, l.Local)
		case LookupAsync:
			args = append(args, hoisted[i])
		default:
			args = append(args, fmt.Sprintf("locator.MustGet[%s](c, %q)", g.typeExpr(l.Type), l.Tag))
		}
	}
	for i := range runtime {
		args = append(args, fmt.Sprintf("p%d", i))
	}
	return args
}

// typeExpr renders a token as a Go type expression using the file's
// import identifiers. Unqualified names pass through as builtins.
func (g *generator) typeExpr(t model.TypeToken) string {
	name := t.Bare()
	if pkg := t.Package(); pkg != "" {
		name = g.pkgNames[pkg] + "." + name
	}
	if len(t.Args) == 0 {
		return name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = g.typeExpr(a)
	}
	return name + "[" + strings.Join(args, ", ") + "]"
}

func lastSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

// pkgIdent sanitizes an import path's final segment into a valid
// identifier ("go-sqlite3" becomes "gosqlite3").
func pkgIdent(path string) string {
	var b strings.Builder
	for _, r := range lastSegment(path) {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	s := b.String()
	if s == "" || unicode.IsDigit(rune(s[0])) {
		s = "pkg" + s
	}
	return s
}
