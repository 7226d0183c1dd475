package model

// Version constants for the generator and its plan schema.
const (
	// PlanVersion is the RegistrationPlan schema version.
	PlanVersion = "1"

	// GeneratorVersion is the wirecue generator version.
	GeneratorVersion = "0.1.0"
)
