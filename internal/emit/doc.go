// Package emit lowers a registration plan into registration actions and
// renders them as a generated Go source file targeting the locator
// runtime. Rendering is deterministic: equal plans produce byte-identical
// output.
package emit
