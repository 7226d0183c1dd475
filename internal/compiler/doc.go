// Package compiler turns raw declaration records into a validated,
// deterministic RegistrationPlan. The pipeline is a single batch pass:
// normalization, dependency-graph construction, ambiguity and
// eager-cycle validation, then ordering and environment partitioning.
//
// All failures are fatal and typed: *ValidationError for declaration
// problems, *CycleError for eager dependency cycles. Nothing is emitted
// on failure.
package compiler
