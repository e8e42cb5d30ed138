// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

// clipStep makes a candidate step respect every per-variable bound.
//
// The accumulated scale cell is applied to the step first, so that all the
// distrust built up by earlier clippings and by the driver's divergence
// protection keeps shrinking future steps. Then, while x₀ − Δx violates any
// bound, both the step and the scale cell are halved. Each halving shrinks
// the candidate monotonically, so the loop terminates for any finite step.
//
// Returns false once the step decays below the noise floor; the search must
// not continue past that point.
func clipStep(vars []Variable, initialX, newDeltaX []float64, scale *float64) bool {

	n := len(vars)
	if n > len(initialX) || n > len(newDeltaX) {
		panic("bound check error")
	}

	if *scale != one {
		dscal(n, *scale, newDeltaX)
	}

	for {
		violated := false
		for i, v := range vars {
			if v.OutOfBounds(initialX[i] - newDeltaX[i]) {
				violated = true
				break
			}
		}
		if !violated {
			return true
		}
		dscal(n, half, newDeltaX)
		*scale *= half
		if dnrm2(n, newDeltaX) <= stepNoise {
			return false
		}
	}
}
