package source

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"
)

// Error codes for manifest loading (E001-E019).
const (
	ErrCodeNotFound    = "E001" // manifest directory not found
	ErrCodeNoFiles     = "E002" // no CUE files in directory
	ErrCodeLoadFailed  = "E003" // CUE instance loading failed
	ErrCodeBuildFailed = "E004" // CUE value building failed
	ErrCodeMalformed   = "E005" // declaration field has wrong shape
)

// LoadError reports a manifest loading or parsing failure.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CUESource loads declaration manifests from a directory of CUE files.
// Top-level declarations live under "declare:", modules with their
// member accessors under "module:". Discovery order follows CUE's
// unified field order, which is stable for a fixed set of files.
type CUESource struct {
	Dir string
}

// NewCUESource creates a source reading manifests from dir.
func NewCUESource(dir string) *CUESource {
	return &CUESource{Dir: dir}
}

// Declarations implements DeclarationSource.
func (s *CUESource) Declarations() ([]RawDeclaration, error) {
	info, err := os.Stat(s.Dir)
	if os.IsNotExist(err) {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("manifest directory not found: %s", s.Dir)}
	}
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing manifest directory: %v", err)}
	}
	if !info.IsDir() {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", s.Dir)}
	}

	files, err := findCUEFiles(s.Dir)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("error scanning directory: %v", err)}
	}
	if len(files) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", s.Dir)}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: s.Dir, Package: "_"})
	if len(instances) == 0 {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, &LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, &LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}
	}

	return FromValue(value)
}

// findCUEFiles returns the sorted list of .cue files directly in dir.
func findCUEFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".cue") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// FromValue extracts raw declarations from an already-built CUE value.
// Exposed so tests can feed manifests through cuecontext.CompileString.
func FromValue(v cue.Value) ([]RawDeclaration, error) {
	var raws []RawDeclaration

	declVal := v.LookupPath(cue.ParsePath("declare"))
	if declVal.Exists() {
		iter, err := declVal.Fields()
		if err != nil {
			return nil, malformed(declVal, "iterating declarations: %v", err)
		}
		for iter.Next() {
			raw, err := parseDeclaration(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			raw.Order = len(raws)
			raws = append(raws, raw)
		}
	}

	modVal := v.LookupPath(cue.ParsePath("module"))
	if modVal.Exists() {
		iter, err := modVal.Fields()
		if err != nil {
			return nil, malformed(modVal, "iterating modules: %v", err)
		}
		for iter.Next() {
			mods, err := parseModule(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			for _, raw := range mods {
				raw.Order = len(raws)
				raws = append(raws, raw)
			}
		}
	}

	return raws, nil
}

// parseDeclaration parses one "declare: Name: {...}" struct.
func parseDeclaration(name string, v cue.Value) (RawDeclaration, error) {
	raw, err := parseCommon(name, v)
	if err != nil {
		return raw, err
	}

	factory, _, err := strField(v, "factory")
	if err != nil {
		return raw, err
	}
	if factory != "" {
		raw.Site.Mode = "factory"
		raw.Site.Symbol = factory
	} else {
		raw.Site.Mode = "constructor"
	}
	raw.Site.Resolved = true

	return raw, nil
}

// parseModule parses one "module: Name: {...}" struct into the module's
// own declaration followed by its member declarations.
func parseModule(name string, v cue.Value) ([]RawDeclaration, error) {
	mod, err := parseDeclaration(name, v)
	if err != nil {
		return nil, err
	}

	out := []RawDeclaration{mod}

	providesVal := v.LookupPath(cue.ParsePath("provides"))
	if !providesVal.Exists() {
		return out, nil
	}
	iter, err := providesVal.Fields()
	if err != nil {
		return nil, malformed(providesVal, "iterating module members: %v", err)
	}
	for iter.Next() {
		label := iter.Label()
		member, err := parseCommon(name+"."+label, iter.Value())
		if err != nil {
			return nil, err
		}

		method, ok, err := strField(iter.Value(), "method")
		if err != nil {
			return nil, err
		}
		if !ok {
			method = label
		}
		member.Site.Mode = "module"
		member.Site.Symbol = method
		member.Site.Resolved = true
		member.OwnerModule = name

		out = append(out, member)
	}

	return out, nil
}

// parseCommon parses the fields shared by declarations and module
// members: types, tags, kind flags, environments, and parameters.
func parseCommon(name string, v cue.Value) (RawDeclaration, error) {
	raw := RawDeclaration{Name: name, Pos: formatPos(v.Pos())}

	produced, ok, err := strField(v, "type")
	if err != nil {
		return raw, err
	}
	if !ok || produced == "" {
		return raw, malformed(v, "declaration %q: type is required", name)
	}
	raw.Produced = produced

	if raw.Bound, _, err = strField(v, "as"); err != nil {
		return raw, err
	}
	if raw.Tag, _, err = strField(v, "tag"); err != nil {
		return raw, err
	}
	if raw.AutoTag, err = boolField(v, "autoTag"); err != nil {
		return raw, err
	}
	if raw.Kind, _, err = strField(v, "kind"); err != nil {
		return raw, err
	}
	if raw.PreResolve, err = boolField(v, "preResolve"); err != nil {
		return raw, err
	}
	if raw.Async, err = boolField(v, "async"); err != nil {
		return raw, err
	}
	if raw.Environments, err = strListField(v, "env"); err != nil {
		return raw, err
	}
	if raw.Site.Params, err = paramsField(v); err != nil {
		return raw, err
	}

	return raw, nil
}

func paramsField(v cue.Value) ([]RawParam, error) {
	paramsVal := v.LookupPath(cue.ParsePath("params"))
	if !paramsVal.Exists() {
		return nil, nil
	}
	iter, err := paramsVal.List()
	if err != nil {
		return nil, malformed(paramsVal, "params must be a list: %v", err)
	}

	var params []RawParam
	for iter.Next() {
		pv := iter.Value()
		var p RawParam
		var ok bool
		if p.Type, ok, err = strField(pv, "type"); err != nil {
			return nil, err
		}
		if !ok || p.Type == "" {
			return nil, malformed(pv, "param requires a type")
		}
		if p.Tag, _, err = strField(pv, "tag"); err != nil {
			return nil, err
		}
		if p.Async, err = boolField(pv, "async"); err != nil {
			return nil, err
		}
		if p.Runtime, err = boolField(pv, "runtime"); err != nil {
			return nil, err
		}
		params = append(params, p)
	}
	return params, nil
}

func strField(v cue.Value, path string) (string, bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", false, nil
	}
	s, err := fv.String()
	if err != nil {
		return "", true, malformed(fv, "%s must be a string: %v", path, err)
	}
	return s, true, nil
}

func boolField(v cue.Value, path string) (bool, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return false, nil
	}
	b, err := fv.Bool()
	if err != nil {
		return false, malformed(fv, "%s must be a bool: %v", path, err)
	}
	return b, nil
}

func strListField(v cue.Value, path string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, nil
	}
	iter, err := fv.List()
	if err != nil {
		return nil, malformed(fv, "%s must be a list: %v", path, err)
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, malformed(iter.Value(), "%s entries must be strings: %v", path, err)
		}
		out = append(out, s)
	}
	return out, nil
}

func malformed(v cue.Value, format string, args ...any) *LoadError {
	return &LoadError{
		Code:    ErrCodeMalformed,
		Message: fmt.Sprintf(format, args...),
		Pos:     v.Pos(),
	}
}

func formatPos(pos token.Pos) string {
	if !pos.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename(), pos.Line(), pos.Column())
}
