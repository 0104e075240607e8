package gp

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/llm-d-incubation/homgp/pkg/kernel"
	"github.com/llm-d-incubation/homgp/pkg/reps"
)

// stored form of a model; the inverse covariance is never persisted
type modelData struct {
	X0        [][]float64    `json:"x0"`
	Z0        []float64      `json:"z0"`
	Z         []float64      `json:"z"`
	Mult      []int          `json:"mult"`
	Theta     []float64      `json:"theta"`
	G         float64        `json:"g"`
	Beta0     float64        `json:"beta0"`
	NuHat     float64        `json:"nuHat"`
	CovType   kernel.CovType `json:"covType"`
	TrendType TrendType      `json:"trendType"`
	Eps       float64        `json:"eps"`
	LL        float64        `json:"ll"`
	NitOpt    int            `json:"nitOpt"`
	Evals     int            `json:"evals"`
	Msg       string         `json:"msg"`
	Status    FitStatus      `json:"status"`
	TimeNanos int64          `json:"timeNanos"`
	UsedArgs  UsedArgs       `json:"usedArgs"`
}

func (m *Model) MarshalJSON() ([]byte, error) {
	n, _ := m.X0.Dims()
	rows := make([][]float64, n)
	for i := range n {
		rows[i] = mat.Row(nil, i, m.X0)
	}
	return json.Marshal(modelData{
		X0:        rows,
		Z0:        m.Z0,
		Z:         m.Z,
		Mult:      m.Mult,
		Theta:     m.Theta,
		G:         m.G,
		Beta0:     m.Beta0,
		NuHat:     m.NuHat,
		CovType:   m.CovType,
		TrendType: m.TrendType,
		Eps:       m.Eps,
		LL:        m.LL,
		NitOpt:    m.NitOpt,
		Evals:     m.Evals,
		Msg:       m.Msg,
		Status:    m.Status,
		TimeNanos: int64(m.Time),
		UsedArgs:  m.UsedArgs,
	})
}

func (m *Model) UnmarshalJSON(b []byte) error {
	var md modelData
	if err := json.Unmarshal(b, &md); err != nil {
		return err
	}
	X0, err := NewMatrix(md.X0)
	if err != nil {
		return err
	}
	d := &reps.Design{X0: X0, Z0: md.Z0, Z: md.Z, Mult: md.Mult}
	if err := d.Validate(); err != nil {
		return err
	}
	if err := kernel.CheckTheta(md.Theta, d.Dim()); err != nil {
		return fmt.Errorf("%w: %v", ErrDimensionMismatch, err)
	}
	if md.TrendType != SK && md.TrendType != OK {
		return fmt.Errorf("%w: trend type %q", ErrInvalidInput, md.TrendType)
	}
	k, err := kernel.New(md.CovType)
	if err != nil {
		return err
	}
	if !(md.G > 0) || math.IsInf(md.G, 0) {
		return fmt.Errorf("%w: g=%v must be positive", ErrInvalidInput, md.G)
	}
	if !(md.NuHat > 0) || math.IsInf(md.NuHat, 0) {
		return fmt.Errorf("%w: nuHat=%v must be positive", ErrInvalidInput, md.NuHat)
	}
	if md.Eps < 0 || math.IsNaN(md.Eps) {
		return fmt.Errorf("%w: eps=%v", ErrInvalidInput, md.Eps)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.X0, m.Z0, m.Z, m.Mult = X0, md.Z0, md.Z, md.Mult
	m.Theta, m.G, m.Beta0, m.NuHat = md.Theta, md.G, md.Beta0, md.NuHat
	m.CovType, m.TrendType, m.Eps = md.CovType, md.TrendType, md.Eps
	m.LL, m.NitOpt, m.Evals, m.Msg, m.Status = md.LL, md.NitOpt, md.Evals, md.Msg, md.Status
	m.Time = time.Duration(md.TimeNanos)
	m.UsedArgs = md.UsedArgs
	m.kernel = k
	m.ki = nil
	return nil
}

// Save writes the model without its cached inverse covariance.
func Save(w io.Writer, m *Model) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(m)
}

// Load reads a model written by Save. Its inverse covariance is rebuilt on
// first use.
func Load(r io.Reader) (*Model, error) {
	m := &Model{}
	if err := json.NewDecoder(r).Decode(m); err != nil {
		return nil, err
	}
	return m, nil
}

// NewMatrix builds a matrix from rows of equal length.
func NewMatrix(rows [][]float64) (*mat.Dense, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidInput)
	}
	d := len(rows[0])
	data := make([]float64, 0, len(rows)*d)
	for i, row := range rows {
		if len(row) != d {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrDimensionMismatch, i, len(row), d)
		}
		data = append(data, row...)
	}
	return mat.NewDense(len(rows), d, data), nil
}

