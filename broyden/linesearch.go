// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

import "math"

// backtrack refines the candidate step along its own direction.
//
// Starting from the clipped step, each sub-iteration measures the residual
// norm at x₀ − Δx. Any strict decrease against the best distance seen so far
// is accepted by shrinking Δx geometrically and trying again; the first
// non-improvement undoes the last shrink and stops. This accepts any strict
// decrease rather than enforcing an Armijo condition, which is weaker but
// costs one function evaluation per sub-iteration.
func (s *Solver) backtrack(f Function, vars []Variable, n int) {

	lastDistance := math.Inf(1)

	for i := 0; i < s.back.Limit; i++ {
		for j := 0; j < n; j++ {
			s.trialX[j] = s.initialX[j] - s.newDeltaX[j]
		}
		residual(f, vars, s.trialX, s.fx, s.trialGx)
		s.evals++

		distance := dnrm2(n, s.trialGx)
		if distance < lastDistance {
			dscal(n, s.back.Shrink, s.newDeltaX)
			lastDistance = distance
		} else {
			dscal(n, one/s.back.Shrink, s.newDeltaX)
			break
		}
	}

	if log := &s.logger; log.enable(LogTrace) {
		log.log("BACKTRACK  |d| = %12.5e    best |g| = %12.5e\n", dnrm2(n, s.newDeltaX), lastDistance)
	}
}
