// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

import (
	"fmt"
	"math"
)

// Step performs one Broyden iteration against the supplied inverse-Jacobian
// estimate and the shared step-scale cell.
//
// The very first step of a search clears the workspace, seeds the previous
// location and residual, and applies a raw quasi-Newton step; its result is
// tagged First and must not feed divergence bookkeeping. Every later step
// evaluates the residual at the current point, updates the matrix, and
// computes, clips and applies the next step.
//
// iter is the outer simulation iteration index: it only gates the
// backtracking line search, which engages for late iterations.
func (s *Solver) Step(f Function, vars []Variable, jac []float64, scale *float64, iter int) (StepResult, error) {
	n := len(vars)
	if n == 0 || n > s.max {
		panic("variable count not match solver capacity")
	}
	if n*n > len(jac) {
		panic("jacobian dimension not match variable count")
	}
	if s.first {
		return s.firstStep(f, vars, jac), nil
	}
	return s.nextStep(f, vars, jac, scale, iter)
}

func (s *Solver) clear() {
	dzero(s.delXn)
	dzero(s.lastGx)
	dzero(s.initialX)
	dzero(s.jdg)
	dzero(s.dxj)
	dzero(s.deltaGxn)
	dzero(s.newDeltaX)
	dzero(s.x)
	dzero(s.gx)
}

// firstStep takes one raw step with the supplied matrix, establishing the
// previous-x and previous-residual state the steady steps difference against.
func (s *Solver) firstStep(f Function, vars []Variable, jac []float64) StepResult {

	s.clear()
	s.status = Running

	n := len(vars)
	for i, v := range vars {
		s.x[i] = v.Raw()
	}

	residual(f, vars, s.x, s.fx, s.gx)
	s.evals++

	dcopy(n, s.x, s.initialX)
	dcopy(n, s.gx, s.lastGx)

	dgemv(n, jac, s.gx, s.newDeltaX)
	for i, v := range vars {
		s.x[i] -= s.newDeltaX[i]
		v.SetRaw(s.x[i])
	}

	s.first = false
	return StepResult{First: true, Norm: math.MaxFloat64, More: true}
}

func (s *Solver) nextStep(f Function, vars []Variable, jac []float64, scale *float64, iter int) (StepResult, error) {

	n := len(vars)

	// Δx = x − x₀ is the step actually taken last iteration.
	for i, v := range vars {
		s.x[i] = v.Raw()
	}
	for i := 0; i < n; i++ {
		s.delXn[i] = s.x[i] - s.initialX[i]
	}
	dcopy(n, s.x, s.initialX)

	residual(f, vars, s.x, s.fx, s.gx)
	s.evals++
	norm := dnrm2(n, s.gx)

	if s.validate {
		for i := 0; i < n; i++ {
			if g := s.gx[i]; math.IsNaN(g) || math.IsInf(g, 0) {
				s.status = Diverged
				return StepResult{}, fmt.Errorf("%w: component %d = %v", ErrDiverged, i, g)
			}
		}
	}

	// Δg = g − g₋₁; a residual that did not move at all means the
	// search stalled at (or converged to) this point.
	for i := 0; i < n; i++ {
		s.deltaGxn[i] = s.gx[i] - s.lastGx[i]
	}
	dcopy(n, s.gx, s.lastGx)
	if dsum(n, s.deltaGxn) == zero {
		s.status = Stagnated
		return StepResult{Norm: zero}, nil
	}

	updateJacobian(jac, n, s.delXn, s.deltaGxn, s.jdg, s.dxj)

	// A degenerate update denominator poisons the whole matrix.
	// Drop the estimate and keep searching instead of surfacing the fault:
	// step quality degrades but the search stays alive.
	if math.IsNaN(dasum(n*n, jac)) {
		dzero(jac[:n*n])
		if log := &s.logger; log.enable(LogTrace) {
			log.log("JACOBIAN BREAKDOWN: estimate zeroed\n")
		}
	}

	dgemv(n, jac, s.gx, s.newDeltaX)

	inBounds := clipStep(vars, s.initialX, s.newDeltaX, scale)

	if inBounds && !s.back.Disabled && iter > s.back.After {
		s.backtrack(f, vars, n)
	}

	for i, v := range vars {
		s.x[i] = s.initialX[i] - s.newDeltaX[i]
		v.SetRaw(s.x[i])
	}

	stepNorm := dnrm2(n, s.newDeltaX)

	if log := &s.logger; log.enable(LogTrace) {
		log.log("STEP  |g| = %12.5e    |d| = %12.5e    scale = %9.2e\n", norm, stepNorm, *scale)
	}

	// The scaled norm skips non-finite components, so a NaN residual also
	// reads as zero: only a finite residual counts as vanished.
	more := stepNorm > stepNoise && norm > stepNoise
	if !more {
		if norm <= stepNoise && !math.IsNaN(dasum(n, s.gx)) {
			s.status = ResidualVanished
		} else {
			s.status = StepVanished
		}
	}
	return StepResult{Norm: norm, More: more}, nil
}
