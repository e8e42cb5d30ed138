// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package broyden finds fixed points x⁎ of black-box vector functions,
// f(x⁎) = x⁎, with a bounded and adaptively damped quasi-Newton iteration.
//
// The true Jacobian of f is never evaluated: an inverse-Jacobian estimate
// is maintained with Broyden rank-one updates, one per function evaluation.
// Every candidate step is clipped against per-variable bounds, and an
// accumulated step-scale factor shrinks whenever the residual norm regresses,
// damping Newton-type instability on non-smooth or expensive functions.
package broyden

const (
	zero = 0.0
	half = 0.5
	one  = 1.0
)

const (
	// stepNoise is the L2 norm below which a step is numerical noise.
	stepNoise = 3e-16
	// scaleFloor stops a search once the accumulated step scale decays below it.
	scaleFloor = 1e-12
	// backAfter is the default outer iteration after which backtracking engages.
	backAfter = 50
	// backShrink is the default geometric shrink factor of the backtracking search.
	backShrink = 0.9
	// backLimit is the default cap on backtracking sub-iterations.
	backLimit = 10
)

// Status reports why a search stopped.
type Status int

const (
	// Running the search has not terminated yet.
	Running Status = iota
	// Stagnated the residual did not move between two steps.
	Stagnated
	// StepVanished the clipped step decayed below the noise floor.
	StepVanished
	// ResidualVanished the residual norm fell below the noise floor.
	ResidualVanished
	// ScaleExhausted the accumulated step scale fell below its lower limit.
	ScaleExhausted
	// OverStepLimit the optional per-search step limit was reached.
	OverStepLimit
	// Diverged the residual contained a non-finite component (validate mode only).
	Diverged
)

func (s Status) String() string {
	switch s {
	case Running:
		return "RUNNING"
	case Stagnated:
		return "STAGNATED"
	case StepVanished:
		return "STEP_BELOW_NOISE"
	case ResidualVanished:
		return "RESIDUAL_BELOW_NOISE"
	case ScaleExhausted:
		return "STEP_SCALE_EXHAUSTED"
	case OverStepLimit:
		return "STEP_LIMIT_REACHED"
	case Diverged:
		return "RESIDUAL_NOT_FINITE"
	}
	return "UNKNOWN"
}
