// Package reps collapses a raw design with repeated inputs into unique
// locations, per-location averages and replicate counts.
package reps

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrInvalidInput      = errors.New("invalid input")
)

// Replicated design
type Design struct {
	X0   *mat.Dense // unique design locations (rows)
	Z0   []float64  // averaged response per unique location
	Z    []float64  // all responses, grouped by unique location in X0 order
	Mult []int      // number of replicates per unique location
}

// Find collapses rows of X that are exactly equal. Unique rows keep the order
// of their first appearance and Z is regrouped to follow that order.
func Find(X mat.Matrix, Z []float64) (*Design, error) {
	if X == nil {
		return nil, fmt.Errorf("%w: nil design matrix", ErrInvalidInput)
	}
	n, d := X.Dims()
	if n != len(Z) {
		return nil, fmt.Errorf("%w: rows(X)=%d, len(Z)=%d", ErrDimensionMismatch, n, len(Z))
	}
	if n == 0 {
		return nil, fmt.Errorf("%w: empty design", ErrInvalidInput)
	}

	index := make(map[string]int)
	var groups [][]int
	for i := range n {
		key := rowKey(X, i, d)
		g, ok := index[key]
		if !ok {
			g = len(groups)
			index[key] = g
			groups = append(groups, nil)
		}
		groups[g] = append(groups[g], i)
	}

	n0 := len(groups)
	design := &Design{
		X0:   mat.NewDense(n0, d, nil),
		Z0:   make([]float64, n0),
		Z:    make([]float64, 0, n),
		Mult: make([]int, n0),
	}
	for g, rows := range groups {
		for l := range d {
			design.X0.Set(g, l, X.At(rows[0], l))
		}
		sum := 0.0
		for _, r := range rows {
			sum += Z[r]
			design.Z = append(design.Z, Z[r])
		}
		design.Mult[g] = len(rows)
		design.Z0[g] = sum / float64(len(rows))
	}
	return design, nil
}

// NewDesign builds a design from already collapsed data. When Z is nil and
// every multiplicity is 1, Z0 doubles as the full response vector.
func NewDesign(X0 *mat.Dense, Z0 []float64, mult []int, Z []float64) (*Design, error) {
	if Z == nil {
		for _, m := range mult {
			if m != 1 {
				return nil, fmt.Errorf("%w: full response vector Z required with replicates", ErrInvalidInput)
			}
		}
		Z = append([]float64(nil), Z0...)
	}
	d := &Design{X0: X0, Z0: Z0, Z: Z, Mult: mult}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Validate checks the consistency of the design fields.
func (d *Design) Validate() error {
	if d == nil || d.X0 == nil {
		return fmt.Errorf("%w: missing design locations", ErrInvalidInput)
	}
	n, _ := d.X0.Dims()
	if len(d.Z0) != n {
		return fmt.Errorf("%w: rows(X0)=%d, len(Z0)=%d", ErrDimensionMismatch, n, len(d.Z0))
	}
	if len(d.Mult) != n {
		return fmt.Errorf("%w: rows(X0)=%d, len(mult)=%d", ErrDimensionMismatch, n, len(d.Mult))
	}
	total := 0
	for i, m := range d.Mult {
		if m < 1 {
			return fmt.Errorf("%w: mult[%d]=%d must be positive", ErrInvalidInput, i, m)
		}
		total += m
	}
	if total != len(d.Z) {
		return fmt.Errorf("%w: sum(mult)=%d, len(Z)=%d", ErrDimensionMismatch, total, len(d.Z))
	}
	for i, v := range d.Z {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: Z[%d]=%v", ErrInvalidInput, i, v)
		}
	}
	return nil
}

// N is the total number of observations.
func (d *Design) N() int {
	return len(d.Z)
}

// Unique is the number of unique locations.
func (d *Design) Unique() int {
	n, _ := d.X0.Dims()
	return n
}

// Dim is the input dimension.
func (d *Design) Dim() int {
	_, c := d.X0.Dims()
	return c
}

// Expand repeats each Z0 entry mult times, aligned with Z.
func (d *Design) Expand() []float64 {
	out := make([]float64, 0, len(d.Z))
	for i, m := range d.Mult {
		for range m {
			out = append(out, d.Z0[i])
		}
	}
	return out
}

// Permute returns a copy of the design with unique locations reordered so
// that new location i is old location perm[i].
func (d *Design) Permute(perm []int) (*Design, error) {
	n := d.Unique()
	if len(perm) != n {
		return nil, fmt.Errorf("%w: len(perm)=%d, rows(X0)=%d", ErrDimensionMismatch, len(perm), n)
	}
	offsets := make([]int, n+1)
	for i, m := range d.Mult {
		offsets[i+1] = offsets[i] + m
	}
	out := &Design{
		X0:   mat.NewDense(n, d.Dim(), nil),
		Z0:   make([]float64, n),
		Z:    make([]float64, 0, len(d.Z)),
		Mult: make([]int, n),
	}
	for i, p := range perm {
		out.X0.SetRow(i, mat.Row(nil, p, d.X0))
		out.Z0[i] = d.Z0[p]
		out.Mult[i] = d.Mult[p]
		out.Z = append(out.Z, d.Z[offsets[p]:offsets[p+1]]...)
	}
	return out, nil
}

// WithinSS returns, per unique location, the sum of squared deviations of
// its replicates from their average.
func WithinSS(mult []int, Z, Z0 []float64) ([]float64, error) {
	if len(mult) != len(Z0) {
		return nil, fmt.Errorf("%w: len(mult)=%d, len(Z0)=%d", ErrDimensionMismatch, len(mult), len(Z0))
	}
	out := make([]float64, len(mult))
	pos := 0
	for i, m := range mult {
		if pos+m > len(Z) {
			return nil, fmt.Errorf("%w: sum(mult) exceeds len(Z)=%d", ErrDimensionMismatch, len(Z))
		}
		dev := make([]float64, m)
		copy(dev, Z[pos:pos+m])
		floats.AddConst(-Z0[i], dev)
		out[i] = floats.Dot(dev, dev)
		pos += m
	}
	if pos != len(Z) {
		return nil, fmt.Errorf("%w: sum(mult)=%d, len(Z)=%d", ErrDimensionMismatch, pos, len(Z))
	}
	return out, nil
}

func rowKey(X mat.Matrix, i, d int) string {
	var sb strings.Builder
	for l := range d {
		v := X.At(i, l)
		if v == 0 {
			v = 0 // fold -0 into +0
		}
		sb.WriteString(strconv.FormatUint(math.Float64bits(v), 16))
		sb.WriteByte(':')
	}
	return sb.String()
}
