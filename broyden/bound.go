// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

import "math"

// Variable is one solver unknown, with a transform between the scaled
// solver-space representation and the constrained physical-space value.
//
// The solver uses the raw value as its coordinate and never interprets
// the physical one. It writes variables in place on every step and does
// not retain references beyond the call.
type Variable interface {
	// Raw returns the scaled solver-space value.
	Raw() float64
	// SetRaw replaces the scaled solver-space value.
	SetRaw(v float64)
	// SetPhysical sets the value from physical space,
	// applying the physical-to-scaled transform.
	SetPhysical(v float64)
	// OutOfBounds reports whether the candidate raw value violates
	// the bound. Implementations must not mutate state.
	OutOfBounds(raw float64) bool
}

// Free is an unbounded variable with an identity transform.
type Free struct {
	Value float64
}

func (v *Free) Raw() float64          { return v.Value }
func (v *Free) SetRaw(x float64)      { v.Value = x }
func (v *Free) SetPhysical(x float64) { v.Value = x }
func (v *Free) OutOfBounds(float64) bool {
	return false
}

// Range is a box-bounded variable with an identity transform.
// A NaN endpoint leaves that side of the range open.
type Range struct {
	Value        float64
	Lower, Upper float64
}

func (v *Range) Raw() float64          { return v.Value }
func (v *Range) SetRaw(x float64)      { v.Value = x }
func (v *Range) SetPhysical(x float64) { v.Value = x }

func (v *Range) OutOfBounds(raw float64) bool {
	if !math.IsNaN(v.Lower) && raw < v.Lower {
		return true
	}
	if !math.IsNaN(v.Upper) && raw > v.Upper {
		return true
	}
	return false
}
