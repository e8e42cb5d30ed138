// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

import "math"

// ddot computes the dot product of two vectors.
func ddot(n int, dx []float64, incx int, dy []float64, incy int) (dot float64) {
	if n <= 0 {
		return 0.0
	}
	if incx == 1 && incy == 1 {
		m := uint(n % 5)
		if m > uint(len(dx)) || m > uint(len(dy)) {
			panic("bound check error")
		}
		for i := uint(0); i < m; i++ {
			dot += dx[i] * dy[i]
		}
		if n < 5 {
			return dot
		}
		for i := m; i < uint(n); i += 5 {
			x := dx[i : i+5 : i+5]
			y := dy[i : i+5 : i+5]
			dot += x[0]*y[0] + x[1]*y[1] + x[2]*y[2] + x[3]*y[3] + x[4]*y[4]
		}
	} else {
		lx, ly := uint(incx*(n-1)), uint(incy*(n-1))
		if lx >= uint(len(dx)) || ly >= uint(len(dy)) {
			panic("bound check error")
		}
		ix, iy := uint(0), uint(0)
		for ix <= lx && iy <= ly {
			dot += dx[ix] * dy[iy]
			ix += uint(incx)
			iy += uint(incy)
		}
	}
	return dot
}

// dcopy copies a vector, x, to a vector, y.
func dcopy(n int, dx []float64, dy []float64) {
	if n <= 0 {
		return
	}
	copy(dy[:n], dx[:n])
}

// dscal scales a vector by a constant.
func dscal(n int, da float64, dx []float64) {
	if n <= 0 {
		return
	}
	m := uint(n % 5)
	if m > uint(len(dx)) {
		panic("bound check error")
	}
	for i := uint(0); i < m; i++ {
		dx[i] *= da
	}
	if n < 5 {
		return
	}
	for i := m; i < uint(n); i += 5 {
		d := dx[i : i+5 : i+5]
		d[0] *= da
		d[1] *= da
		d[2] *= da
		d[3] *= da
		d[4] *= da
	}
}

// dnrm2 computes the Euclidean norm of a vector x.
func dnrm2(n int, x []float64) float64 {
	if n < 1 {
		return zero
	}
	if n > len(x) {
		panic("bound check error")
	}
	if n == 1 {
		return math.Abs(x[0])
	}

	scale := zero
	ssq := one
	for i := 0; i < n; i++ {
		if absxi := math.Abs(x[i]); absxi > 0 {
			if scale < absxi {
				sxi := scale / absxi
				ssq = 1 + ssq*sxi*sxi
				scale = absxi
			} else {
				sxi := absxi / scale
				ssq += sxi * sxi
			}
		}
	}
	return scale * math.Sqrt(ssq)
}

// dsum computes the plain component sum of a vector.
func dsum(n int, dx []float64) (sum float64) {
	if n > len(dx) {
		panic("bound check error")
	}
	for i := 0; i < n; i++ {
		sum += dx[i]
	}
	return sum
}

// dasum computes the sum of absolute values of a vector.
// A NaN anywhere in the vector yields a NaN sum.
func dasum(n int, dx []float64) (sum float64) {
	if n > len(dx) {
		panic("bound check error")
	}
	for i := 0; i < n; i++ {
		sum += math.Abs(dx[i])
	}
	return sum
}

// dzero fills vector x with zero.
func dzero(dx []float64) {
	n := uint(len(dx))
	m := n % 5
	for i := uint(0); i < m; i++ {
		dx[i] = zero
	}
	if n < 5 {
		return
	}
	for i := m; i < n; i += 5 {
		d := dx[i : i+5 : i+5]
		d[0] = zero
		d[1] = zero
		d[2] = zero
		d[3] = zero
		d[4] = zero
	}
}

// dgemv computes y = A·x for a row-major n×n matrix A.
func dgemv(n int, a []float64, x []float64, y []float64) {
	if n*n > len(a) || n > len(x) || n > len(y) {
		panic("bound check error")
	}
	for i := 0; i < n; i++ {
		y[i] = ddot(n, a[i*n:], 1, x, 1)
	}
}

// dger applies the rank-one update A += x⊗y to a row-major n×n matrix A.
func dger(n int, x []float64, y []float64, a []float64) {
	if n*n > len(a) || n > len(x) || n > len(y) {
		panic("bound check error")
	}
	for i := 0; i < n; i++ {
		xi := x[i]
		if xi == zero {
			continue
		}
		row := a[i*n : i*n+n : i*n+n]
		for j := 0; j < n; j++ {
			row[j] += xi * y[j]
		}
	}
}
