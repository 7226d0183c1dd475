package compiler

import (
	"github.com/wirecue/wirecue/internal/model"
	"github.com/wirecue/wirecue/internal/source"
)

// Result is the output of a successful generation pass.
type Result struct {
	Records []*model.DeclarationRecord
	Graph   *Graph
	Plan    *model.RegistrationPlan
}

// Generate runs the full pipeline over a declaration source: normalize,
// build the dependency graph, validate, then order and partition into a
// RegistrationPlan. The pass is all-or-nothing: the first fatal error
// aborts with no partial output, and re-running over an unchanged
// declaration set yields an identical plan.
func Generate(src source.DeclarationSource) (*Result, error) {
	raws, err := src.Declarations()
	if err != nil {
		return nil, err
	}

	records, err := Normalize(raws)
	if err != nil {
		return nil, err
	}

	g := BuildGraph(records)
	if err := Validate(g); err != nil {
		return nil, err
	}

	return &Result{
		Records: records,
		Graph:   g,
		Plan:    BuildPlan(g),
	}, nil
}
