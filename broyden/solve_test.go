// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProblemValidation(t *testing.T) {
	tests := []struct {
		name string
		p    Problem
	}{
		{"zero dimension", Problem{}},
		{"negative dimension", Problem{MaxDimension: -1}},
		{"bad shrink", Problem{MaxDimension: 2, Backtrack: Backtrack{Shrink: 1.5}}},
		{"negative start", Problem{MaxDimension: 2, Backtrack: Backtrack{After: -1}}},
		{"negative cap", Problem{MaxDimension: 2, Backtrack: Backtrack{Limit: -1}}},
		{"negative steps", Problem{MaxDimension: 2, MaxSteps: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.p.New(nil)
			assert.Error(t, err)
		})
	}

	s, err := (&Problem{MaxDimension: 4}).New(nil)
	require.NoError(t, err)
	assert.Equal(t, backAfter, s.back.After, "defaults filled")
	assert.Equal(t, backShrink, s.back.Shrink)
	assert.Equal(t, backLimit, s.back.Limit)
}

func TestPool(t *testing.T) {
	pool := make(Pool)
	a := pool.Get(3)
	assert.Len(t, a, 9)
	b := pool.Get(3)
	assert.Same(t, &a[0], &b[0], "same dimension shares one matrix")
	c := pool.Get(2)
	assert.Len(t, c, 4)
}

// Scenario: N=1, f(x) = 0.5. The unique fixed point x = 0.5 must be found
// within a few steps with a vanishing residual.
func TestSearchConstant(t *testing.T) {
	s := newSolver(t, Problem{MaxDimension: 4})
	f := func(x, fx []float64) { fx[0] = 0.5 }
	v := &Free{Value: 0}

	res, err := s.Search(f, []Variable{v}, make(Pool), 0)
	require.NoError(t, err)

	switch {
	case !res.OK:
		t.Fatal("TestSearchConstant: Not Converge")
	case res.Norm > 1e-9:
		t.Fatal("TestSearchConstant: Residual Too Large")
	case res.NumSteps > 5:
		t.Fatal("TestSearchConstant: Too Many Steps")
	case v.Value != 0.5:
		t.Fatal("TestSearchConstant: Wrong Fixed Point", v.Value)
	}
}

// Scenario: N=2, f swaps its arguments. Started off the diagonal the
// residual change cancels exactly and the search stops as stagnation
// without leaving the box.
func TestSearchPermutation(t *testing.T) {
	s := newSolver(t, Problem{MaxDimension: 4})
	f := func(x, fx []float64) { fx[0], fx[1] = x[1], x[0] }
	vars := []Variable{
		&Range{Value: 1, Lower: 0, Upper: 2},
		&Range{Value: 0, Lower: 0, Upper: 2},
	}

	res, err := s.Search(f, vars, make(Pool), 0)
	require.NoError(t, err)
	assert.Equal(t, Stagnated, res.Status)
	assert.Equal(t, 0.0, res.Norm, "stagnation reports a zero norm")
	assert.True(t, res.OK, "stagnation is a normal termination")
	for _, v := range vars {
		assert.False(t, v.OutOfBounds(v.Raw()), "never leaves the box")
	}
}

// Scenario: an upper bound at 1.0 while f maps everything well inside it.
// Starting far outside, every accepted point after the opening step must
// satisfy the bound.
func TestSearchBounded(t *testing.T) {
	s := newSolver(t, Problem{MaxDimension: 1})
	f := func(x, fx []float64) { fx[0] = 0.2 + 0.5*math.Cos(x[0]) }
	v := &Range{Value: 5, Lower: math.NaN(), Upper: 1}
	vars := []Variable{v}
	jac := make([]float64, 1)
	resetJacobian(jac, 1)

	scale := 1.0
	res, err := s.Step(f, vars, jac, &scale, 0)
	require.NoError(t, err)
	require.True(t, res.First)

	for i := 0; i < 200; i++ {
		res, err = s.Step(f, vars, jac, &scale, 0)
		require.NoError(t, err)
		require.LessOrEqual(t, v.Raw(), 1.0, "accepted x must respect the bound")
		if !res.More {
			break
		}
	}
	assert.False(t, res.More, "search must terminate")
	// the fixed point of 0.2 + 0.5cos(x) is interior
	assert.InDelta(t, v.Value, 0.2+0.5*math.Cos(v.Value), 1e-8)
}

// A linear contraction f(x) = Ax + b converges to x* = (I−A)⁻¹b.
func TestSearchLinear(t *testing.T) {
	s := newSolver(t, Problem{MaxDimension: 8, MaxSteps: 500})

	a := []float64{
		0.5, 0.1,
		0.2, 0.3,
	}
	b := []float64{1, 1}
	f := func(x, fx []float64) {
		dgemv(2, a, x, fx)
		fx[0] += b[0]
		fx[1] += b[1]
	}

	vars := []Variable{&Free{}, &Free{}}
	res, err := s.Search(f, vars, make(Pool), 0)
	require.NoError(t, err)

	// (I−A)x = b
	want := []float64{0.8 / 0.33, 0.7 / 0.33}
	switch {
	case !res.OK:
		t.Fatal("TestSearchLinear: Not Converge", res.Status)
	case res.Norm > 1e-8:
		t.Fatal("TestSearchLinear: Residual Too Large", res.Norm)
	}
	assert.InDelta(t, want[0], vars[0].Raw(), 1e-6)
	assert.InDelta(t, want[1], vars[1].Raw(), 1e-6)
}

// The driver's best-seen residual bookkeeping never lets the reported
// norm regress without halving the scale, and a reused solver behaves
// identically on a fresh search.
func TestSearchReusable(t *testing.T) {
	s := newSolver(t, Problem{MaxDimension: 1, MaxSteps: 500})
	f := func(x, fx []float64) { fx[0] = x[0] * x[0] }
	pool := make(Pool)

	v := &Range{Value: 0.5, Lower: 0, Upper: math.NaN()}
	first, err := s.Search(f, []Variable{v}, pool, 0)
	require.NoError(t, err)
	require.True(t, first.OK)

	v.Value = 0.5
	second, err := s.Search(f, []Variable{v}, pool, 0)
	require.NoError(t, err)

	assert.Equal(t, first.Status, second.Status, "fresh search from a clean state")
	assert.Equal(t, first.NumSteps, second.NumSteps)
	assert.Equal(t, first.Norm, second.Norm)
}

// Without validation a non-finite residual is tolerated: the poisoned
// matrix is zeroed and the search dies down instead of erroring.
func TestSearchToleratesNaN(t *testing.T) {
	s := newSolver(t, Problem{MaxDimension: 1, MaxSteps: 100})
	f := func(x, fx []float64) { fx[0] = math.NaN() }

	res, err := s.Search(f, []Variable{&Free{Value: 1}}, make(Pool), 0)
	require.NoError(t, err, "production mode must not surface divergence")
	assert.Equal(t, StepVanished, res.Status)
}

func TestSearchValidate(t *testing.T) {
	s := newSolver(t, Problem{MaxDimension: 1, Validate: true})
	f := func(x, fx []float64) { fx[0] = math.Inf(1) }

	res, err := s.Search(f, []Variable{&Free{Value: 1}}, make(Pool), 0)
	assert.ErrorIs(t, err, ErrDiverged)
	assert.Nil(t, res)
}

// Backtracking engages only past the configured outer iteration and spends
// extra function evaluations refining the step.
func TestSearchBacktracking(t *testing.T) {
	f := func(x, fx []float64) { fx[0] = x[0] * x[0] }
	pool := make(Pool)

	early := newSolver(t, Problem{MaxDimension: 1, MaxSteps: 500})
	v := &Range{Value: 0.5, Lower: 0, Upper: math.NaN()}
	res, err := early.Search(f, []Variable{v}, pool, 0)
	require.NoError(t, err)
	assert.Equal(t, res.NumSteps, res.NumEval, "one evaluation per step before the threshold")

	late := newSolver(t, Problem{MaxDimension: 1, MaxSteps: 500})
	v.Value = 0.5
	res, err = late.Search(f, []Variable{v}, pool, 100)
	require.NoError(t, err)
	assert.Greater(t, res.NumEval, res.NumSteps, "line search evaluates trial points")

	off := newSolver(t, Problem{MaxDimension: 1, MaxSteps: 500, Backtrack: Backtrack{Disabled: true}})
	v.Value = 0.5
	res, err = off.Search(f, []Variable{v}, pool, 100)
	require.NoError(t, err)
	assert.Equal(t, res.NumSteps, res.NumEval, "disabled line search never evaluates")
}
