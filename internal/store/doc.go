// Package store persists the generation journal: one record per
// generator run, keyed by the declaration-set and plan fingerprints.
// The journal backs `wirecue history` and the reproducibility check
// that flags a declaration set producing two different plans.
package store
