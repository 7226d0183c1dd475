// Package source defines the front-end boundary of the generator: an
// abstract DeclarationSource yielding raw, unstructured declaration
// records, plus the CUE-backed implementation that reads declaration
// manifests from disk.
//
// The core pipeline never inspects manifests directly; it consumes only
// the raw record model defined here. Discovery order is captured once,
// at load time, and is stable across runs.
package source
