package calc

import "errors"

var (
	// ErrConfiguration indicates a missing or malformed tax table for the
	// requested year; the calculation cannot run.
	ErrConfiguration = errors.New("tax table configuration error")
	// ErrDataIntegrity indicates the stored return violates a model
	// invariant (for example a negative wage that bypassed validation
	// through a format migration); the engine refuses to compute.
	ErrDataIntegrity = errors.New("return data violates model invariants")
)
