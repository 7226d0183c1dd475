// Package locator is the runtime service locator targeted by generated
// registration code. It holds providers keyed by Go type and an optional
// instance tag, without reflection-based injection or automatic graph
// resolution: wiring order is decided at build time by the generator.
//
// Registration functions panic on duplicate keys because a generated
// routine never produces them; lookups return explicit errors.
package locator
