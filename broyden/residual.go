// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

// residual computes gx = T(f(x)) − x where T is the physical-to-scaled
// transform of each bound variable. The raw output of f lands in fx; the
// transform is applied by pushing each component through its variable, so
// the variables end up holding T(f(x)) until the step writes them back.
func residual(f Function, vars []Variable, x, fx, gx []float64) {
	n := len(vars)
	if n > len(x) || n > len(fx) || n > len(gx) {
		panic("bound check error")
	}
	f(x[:n], fx[:n])
	for i, v := range vars {
		v.SetPhysical(fx[i])
		gx[i] = v.Raw() - x[i]
	}
}

// Residual evaluates g(x) = T(f(x)) − x at the candidate point x and returns
// it in a fresh slice, independent of any solver buffer, so callers may
// retain it across further evaluations.
func Residual(f Function, x []float64, vars []Variable) []float64 {
	fx := make([]float64, len(vars))
	gx := make([]float64, len(vars))
	residual(f, vars, x, fx, gx)
	return gx
}
