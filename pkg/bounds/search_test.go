package bounds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llm-d-incubation/homgp/internal/constants"
)

func TestCorrelationRoot(t *testing.T) {
	// exponential correlation at distance 0.3: exp(-0.3/theta), increasing in theta
	exponential := func(theta float64) float64 { return math.Exp(-0.3 / theta) }
	// decreasing in theta
	inverse := func(theta float64) float64 { return 1 / (1 + theta) }

	tests := []struct {
		name    string
		lo, hi  float64
		target  float64
		corr    func(float64) float64
		want    float64
		wantErr error
	}{
		{"half correlation", 1e-8, 100, 0.5, exponential, 0.3 / math.Ln2, nil},
		{"small correlation", 1e-8, 100, 0.01, exponential, -0.3 / math.Log(0.01), nil},
		{"decreasing", 1e-3, 1e3, 0.2, inverse, 4, nil},
		{"root at upper end", 1, 4, 0.2, inverse, 4, nil},
		{"target above range", 1e-8, 100, 0.999, exponential, 0, ErrNotBracketed},
		{"target below range", 1, 10, 0.01, inverse, 0, ErrNotBracketed},
		{"undefined correlation", 1, 10, 0.5, func(float64) float64 { return math.NaN() }, 0, ErrNotBracketed},
		{"zero lower end", 0, 10, 0.5, exponential, 0, ErrInvalidInterval},
		{"reversed interval", 10, 1, 0.5, exponential, 0, ErrInvalidInterval},
		{"infinite upper end", 1, math.Inf(1), 0.5, exponential, 0, ErrInvalidInterval},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			theta, err := CorrelationRoot(tt.lo, tt.hi, tt.target, tt.corr)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.InEpsilon(t, tt.want, theta, 1e-8)
			assert.InDelta(t, tt.target, tt.corr(theta), 1e-8)
		})
	}
}

func TestCorrelationRootTolerance(t *testing.T) {
	calls := 0
	corr := func(theta float64) float64 {
		calls++
		return math.Exp(-1 / theta)
	}
	_, err := CorrelationRoot(math.Sqrt(constants.MachineEpsilon), constants.MaternSearchMax, 0.3, corr)
	require.NoError(t, err)
	// log-space bisection over about 22 natural-log units needs fewer than 60 halvings
	assert.Less(t, calls, 60)
}
