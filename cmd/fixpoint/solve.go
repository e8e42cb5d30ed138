package main

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/curioloop/fixpoint/broyden"
	"github.com/spf13/cobra"
)

var (
	matrixArg   string
	offsetArg   string
	startArg    string
	lowerArg    string
	upperArg    string
	iteration   int
	maxSteps    int
	noBacktrack bool
	trace       int
)

var solveCmd = &cobra.Command{
	Use:   "solve",
	Short: "Solve a linear fixed-point problem f(x) = Ax + b",
	Long: `Builds the affine map f(x) = Ax + b from the given matrix and offset
and searches its fixed point x = (I−A)⁻¹b, optionally inside a box.`,
	RunE: runSolve,
}

func init() {
	solveCmd.Flags().StringVar(&matrixArg, "matrix", "", "Row-major matrix A, rows separated by ';' (required)")
	solveCmd.Flags().StringVar(&offsetArg, "offset", "", "Offset vector b, comma separated (required)")
	solveCmd.Flags().StringVar(&startArg, "start", "", "Starting point (default zeros)")
	solveCmd.Flags().StringVar(&lowerArg, "lower", "", "Optional lower bounds, comma separated")
	solveCmd.Flags().StringVar(&upperArg, "upper", "", "Optional upper bounds, comma separated")
	solveCmd.Flags().IntVar(&iteration, "iteration", 0, "Outer iteration index (gates backtracking)")
	solveCmd.Flags().IntVar(&maxSteps, "max-steps", 1000, "Step limit per search (0 = unlimited)")
	solveCmd.Flags().BoolVar(&noBacktrack, "no-backtrack", false, "Disable the backtracking line search")
	solveCmd.Flags().IntVar(&trace, "trace", -1, "Solver trace level (-1 = silent, 0 = summary, 1 = steps, 99 = detail)")

	solveCmd.MarkFlagRequired("matrix")
	solveCmd.MarkFlagRequired("offset")
	rootCmd.AddCommand(solveCmd)
}

func runSolve(cmd *cobra.Command, args []string) error {

	b, err := parseVector(offsetArg)
	if err != nil {
		return fmt.Errorf("bad offset: %w", err)
	}
	n := len(b)

	a, err := parseMatrix(matrixArg, n)
	if err != nil {
		return fmt.Errorf("bad matrix: %w", err)
	}

	start := make([]float64, n)
	if startArg != "" {
		if start, err = parseVector(startArg); err != nil || len(start) != n {
			return fmt.Errorf("bad start: need %d values", n)
		}
	}

	vars, err := makeVars(start, n)
	if err != nil {
		return err
	}

	f := func(x, fx []float64) {
		for i := 0; i < n; i++ {
			s := b[i]
			for j := 0; j < n; j++ {
				s += a[i*n+j] * x[j]
			}
			fx[i] = s
		}
	}

	p := broyden.Problem{
		MaxDimension: n,
		MaxSteps:     maxSteps,
		Backtrack:    broyden.Backtrack{Disabled: noBacktrack},
	}
	solver, err := p.New(&broyden.Logger{Level: broyden.LogLevel(trace), Msg: os.Stderr})
	if err != nil {
		return err
	}

	slog.Info("searching fixed point", "n", n, "iteration", iteration)

	res, err := solver.Search(f, vars, make(broyden.Pool), iteration)
	if err != nil {
		return err
	}

	x := make([]float64, n)
	for i, v := range vars {
		x[i] = v.Raw()
	}

	fmt.Printf("status   : %v\n", res.Status)
	fmt.Printf("residual : %.6e\n", res.Norm)
	fmt.Printf("steps    : %d (%d evaluations)\n", res.NumSteps, res.NumEval)
	fmt.Printf("x        : %v\n", x)
	if !res.OK {
		return fmt.Errorf("search did not converge: %v", res.Status)
	}
	return nil
}

func makeVars(start []float64, n int) ([]broyden.Variable, error) {

	lower := make([]float64, n)
	upper := make([]float64, n)
	for i := 0; i < n; i++ {
		lower[i], upper[i] = math.NaN(), math.NaN()
	}

	var err error
	if lowerArg != "" {
		if lower, err = parseVector(lowerArg); err != nil || len(lower) != n {
			return nil, fmt.Errorf("bad lower bounds: need %d values", n)
		}
	}
	if upperArg != "" {
		if upper, err = parseVector(upperArg); err != nil || len(upper) != n {
			return nil, fmt.Errorf("bad upper bounds: need %d values", n)
		}
	}

	vars := make([]broyden.Variable, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(lower[i]) && math.IsNaN(upper[i]) {
			vars[i] = &broyden.Free{Value: start[i]}
		} else {
			vars[i] = &broyden.Range{Value: start[i], Lower: lower[i], Upper: upper[i]}
		}
	}
	return vars, nil
}

func parseVector(text string) ([]float64, error) {
	parts := strings.Split(text, ",")
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func parseMatrix(text string, n int) ([]float64, error) {
	rows := strings.Split(text, ";")
	if len(rows) != n {
		return nil, fmt.Errorf("need %d rows", n)
	}
	out := make([]float64, 0, n*n)
	for _, r := range rows {
		row, err := parseVector(r)
		if err != nil {
			return nil, err
		}
		if len(row) != n {
			return nil, fmt.Errorf("need %d columns per row", n)
		}
		out = append(out, row...)
	}
	return out, nil
}
