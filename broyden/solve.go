// Copyright ©2025 curioloop. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package broyden

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// LogLevel controls the frequency and type of logger output
type LogLevel int

const (
	// LogNoop no output is generated (level < 0)
	LogNoop LogLevel = -1
	// LogLast print only one summary line when a search exits
	LogLast LogLevel = 0
	// LogEval print |g| and the step scale on every step
	LogEval LogLevel = 1
	// LogTrace print details of every step including clipping and backtracking
	LogTrace LogLevel = 99
)

// Logger handles logging output for the solver.
// Note the writer must be thread-safe.
type Logger struct {
	Level LogLevel
	Msg   io.Writer // Writer to output log messages.
}

func (l *Logger) enable(level LogLevel) bool {
	return l.Level >= level
}

func (l *Logger) log(format string, a ...any) {
	if len(a) > 0 {
		_, _ = fmt.Fprintf(l.Msg, format, a...)
	} else {
		_, _ = fmt.Fprint(l.Msg, format)
	}
}

// Function evaluates the target mapping: it reads the fixed-length input x
// and writes an equal-length output into fx. It is called strictly
// sequentially and may be arbitrarily expensive; the solver blocks on it.
type Function func(x, fx []float64)

// Backtrack configures the optional backtracking line search.
type Backtrack struct {
	// Disabled turns the line search off entirely.
	Disabled bool
	// After is the outer iteration index beyond which the search engages (default 50).
	After int
	// Shrink is the geometric shrink factor in (0,1) (default 0.9).
	Shrink float64
	// Limit caps the sub-iterations of one search (default 10).
	Limit int
}

// ErrDiverged reports a residual with a NaN or infinite component.
// It is surfaced only when Problem.Validate is set.
var ErrDiverged = errors.New("residual is not finite")

// Problem specifies a reusable Broyden fixed-point solver.
type Problem struct {
	// MaxDimension sizes the work buffers. A solver accepts any variable
	// count up to this capacity without reallocating.
	MaxDimension int
	// Backtrack options for the line search.
	Backtrack Backtrack
	// Validate aborts a search with ErrDiverged when a residual component
	// is NaN or infinite. Off by default: production runs tolerate
	// non-finite residuals and rely on the matrix reset to recover.
	Validate bool
	// MaxSteps optionally caps the steps of one search (0 = no cap).
	MaxSteps int
}

// New creates a new Broyden solver for the given problem.
func (p *Problem) New(logger *Logger) (solver *Solver, err error) {

	if logger == nil {
		logger = new(Logger)
		logger.Level = LogNoop
	}
	if logger.Msg == nil {
		logger.Msg = os.Stderr
	}

	back := p.Backtrack
	if back.After == 0 {
		back.After = backAfter
	}
	if back.Shrink == zero {
		back.Shrink = backShrink
	}
	if back.Limit == 0 {
		back.Limit = backLimit
	}

	switch {
	case p.MaxDimension <= 0:
		err = errors.New("maximum dimension must greater than 0")
	case back.After < 0:
		err = errors.New("backtracking start iteration must not less than 0")
	case back.Shrink <= zero || back.Shrink >= one:
		err = errors.New("backtracking shrink factor must lie in (0,1)")
	case back.Limit < 0:
		err = errors.New("backtracking iteration cap must not less than 0")
	case p.MaxSteps < 0:
		err = errors.New("step limit must not less than 0")
	}
	if err != nil {
		return
	}

	m := p.MaxDimension
	solver = &Solver{
		max:      m,
		back:     back,
		validate: p.Validate,
		maxSteps: p.MaxSteps,
		logger:   *logger,
		first:    true,

		delXn:     make([]float64, m),
		lastGx:    make([]float64, m),
		initialX:  make([]float64, m),
		jdg:       make([]float64, m),
		dxj:       make([]float64, m),
		deltaGxn:  make([]float64, m),
		newDeltaX: make([]float64, m),
		x:         make([]float64, m),
		gx:        make([]float64, m),
		fx:        make([]float64, m),
		trialX:    make([]float64, m),
		trialGx:   make([]float64, m),
	}
	return
}

// Solver is a reusable Broyden engine sized for a maximum problem dimension.
//
// A Solver is not reentrant: the work buffers and the first-step flag are
// instance state shared by every step of one search and reset only when the
// next search begins. Concurrent searches must either serialize on one
// instance or use an instance each.
type Solver struct {
	max      int
	back     Backtrack
	validate bool
	maxSteps int
	logger   Logger

	first  bool
	status Status
	evals  int

	// Fixed-capacity work buffers: only the first n = len(vars) entries
	// are touched in any given search, never resized per call.
	delXn     []float64 // x − x₀, the step taken last iteration
	lastGx    []float64 // residual of the previous step
	initialX  []float64 // x before the pending step is applied
	jdg       []float64 // J·Δg, then the update column
	dxj       []float64 // Δxᵀ·J, the update row
	deltaGxn  []float64 // g − g₋₁
	newDeltaX []float64 // the candidate step
	x, gx, fx []float64
	trialX    []float64
	trialGx   []float64
}

// Reset arms the solver for a new search. Search does this implicitly;
// callers driving Step directly must reset between searches themselves.
func (s *Solver) Reset() {
	s.first = true
	s.status = Running
	s.evals = 0
}

// Pool hands out inverse-Jacobian matrices keyed by problem dimension.
// Each matrix is dense row-major n×n, allocated on first use and reused
// across every later search of the same dimension.
type Pool map[int][]float64

// Get returns the matrix for dimension n, allocating it if necessary.
func (p Pool) Get(n int) []float64 {
	m, ok := p[n]
	if !ok {
		m = make([]float64, n*n)
		p[n] = m
	}
	return m
}

// StepResult is the outcome of one Broyden iteration.
type StepResult struct {
	// First marks the initial step of a search: its Norm carries the
	// sentinel math.MaxFloat64 and must not feed divergence bookkeeping.
	First bool
	// Norm is the residual 2-norm measured at the start of the step.
	Norm float64
	// More reports whether the search should keep going.
	More bool
}

// Result contains the final outcome of one fixed-point search.
type Result struct {
	OK      bool    // Whether the search ended by its own stop test rather than scale collapse.
	Norm    float64 // Residual 2-norm reported by the last step.
	Summary         // Search summary.
}

// Summary contains a summary of the search.
type Summary struct {
	Status   Status // Final status after the search.
	NumSteps int    // Number of Broyden steps performed.
	NumEval  int    // Number of function evaluations performed.
}
