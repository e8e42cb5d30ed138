// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

import "math"

// Search runs one fixed-point search: it reinitializes the pooled matrix for
// this dimension to −I, arms the step-scale cell at 1.0, and invokes Step
// until the step function stops the search or the scale collapses.
//
// Whenever a step's residual norm regresses against the best seen so far,
// the scale is halved: the offending step has already been taken, so the
// damping only shrinks future steps through the clipper.
//
// iter is the outer simulation iteration index, forwarded to every step.
func (s *Solver) Search(f Function, vars []Variable, pool Pool, iter int) (*Result, error) {

	n := len(vars)
	if n == 0 || n > s.max {
		panic("variable count not match solver capacity")
	}

	jac := pool.Get(n)
	resetJacobian(jac, n)
	s.Reset()

	log := &s.logger
	if log.enable(LogEval) {
		log.log("SEARCHING FIXED POINT: N = %d  iteration = %d\n", n, iter)
	}

	scale := one
	best := math.MaxFloat64
	norm := math.MaxFloat64
	steps := 0

	for {
		res, err := s.Step(f, vars, jac, &scale, iter)
		if err != nil {
			s.printExit(steps, norm, scale)
			return nil, err
		}
		steps++

		if res.First {
			// Sentinel result: the first step carries no usable norm,
			// so it is exempt from divergence bookkeeping.
			continue
		}

		norm = res.Norm
		if norm > best {
			scale *= half
		} else {
			best = norm
		}

		if log.enable(LogEval) {
			log.log("At step %5d    |g| = %12.5e    scale = %9.2e\n", steps, norm, scale)
		}

		if !res.More {
			break
		}
		if scale <= scaleFloor {
			s.status = ScaleExhausted
			break
		}
		if s.maxSteps > 0 && steps >= s.maxSteps {
			s.status = OverStepLimit
			break
		}
	}

	s.printExit(steps, norm, scale)

	ok := s.status == Stagnated || s.status == StepVanished || s.status == ResidualVanished
	return &Result{
		OK:   ok,
		Norm: norm,
		Summary: Summary{
			Status:   s.status,
			NumSteps: steps,
			NumEval:  s.evals,
		},
	}, nil
}

func (s *Solver) printExit(steps int, norm, scale float64) {
	if log := &s.logger; log.enable(LogLast) {
		log.log("%v: steps = %d  evals = %d  |g| = %12.5e  scale = %9.2e\n",
			s.status, steps, s.evals, norm, scale)
	}
}
