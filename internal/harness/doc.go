// Package harness runs declarative conformance scenarios against the
// full generation pipeline. A scenario is a YAML file carrying an inline
// CUE manifest plus expectations: the statement order of each plan
// block, the routine's async promotion, or the diagnostic code the
// pipeline must reject the manifest with. Golden scenarios additionally
// pin the rendered Go source byte for byte.
package harness
