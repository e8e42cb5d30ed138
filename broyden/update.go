// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

// updateJacobian applies the inverse form of Broyden's rank-one update
//
//	J ← J + (Δx − J·Δg)(Δxᵀ·J) / (Δx·J·Δg)
//
// to the row-major n×n estimate of ∂x/∂g, given the last step Δx and the last
// residual change Δg. The classical update never forms or inverts a Jacobian.
//
// The denominator is not guarded: when Δx·J·Δg is zero the whole matrix turns
// NaN/Inf and the caller repairs it by zeroing the estimate.
func updateJacobian(jac []float64, n int, delXn, deltaGxn, jdg, dxj []float64) {

	if n > len(delXn) || n > len(deltaGxn) || n > len(jdg) || n > len(dxj) {
		panic("bound check error")
	}

	// jdg = J·Δg
	dgemv(n, jac, deltaGxn, jdg)

	// denom = Δx·(J·Δg)
	denom := ddot(n, delXn, 1, jdg, 1)

	// jdg = (Δx − J·Δg)/denom, the update column
	for i := 0; i < n; i++ {
		jdg[i] = (delXn[i] - jdg[i]) / denom
	}

	// dxj = Δxᵀ·J, the update row
	for j := 0; j < n; j++ {
		dxj[j] = ddot(n, delXn, 1, jac[j:], n)
	}

	// J += jdg ⊗ dxj
	dger(n, jdg, dxj, jac)
}

// resetJacobian reinitializes the estimate to −I: the first quasi-Newton
// step J·g is then −g, a plain fixed-point iteration step.
func resetJacobian(jac []float64, n int) {
	dzero(jac[:n*n])
	for i := 0; i < n; i++ {
		jac[i*n+i] = -one
	}
}
