// Package model defines the normalized declaration model shared by every
// stage of the generator: type tokens, declaration records, registration
// kinds, and the canonical JSON / fingerprint machinery that makes plans
// byte-reproducible across runs.
//
// Everything in this package is plain immutable data. Records are built
// once by the compiler's normalization pass and never mutated afterwards;
// later stages only read them.
package model
