package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sineSpec = `
data:
  x: [[0], [1.5707963], [3.1415927]]
  z: [0, 1, 0]
covType: Matern5_2
lower: [0.1]
upper: [10]
known:
  beta0: 0.5
noiseControl:
  gBounds: [1.0e-6, 1]
init:
  g: 0.01
maxIt: 50
settings:
  returnKi: false
  factr: 1.0e+9
`

func TestParseFitSpecYAML(t *testing.T) {
	spec, err := ParseFitSpec([]byte(sineSpec), false)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0}, {1.5707963}, {3.1415927}}, spec.Data.X)
	assert.Equal(t, []float64{0, 1, 0}, spec.Data.Z)
	assert.Equal(t, "Matern5_2", spec.CovType)
	assert.Equal(t, []float64{0.1}, spec.Lower)
	require.NotNil(t, spec.Known.Beta0)
	assert.Equal(t, 0.5, *spec.Known.Beta0)
	assert.Nil(t, spec.Known.G)
	assert.Equal(t, []float64{1e-6, 1}, spec.NoiseControl.GBounds)
	require.NotNil(t, spec.Init.G)
	assert.Equal(t, 0.01, *spec.Init.G)
	assert.Equal(t, 50, spec.MaxIt)
	require.NotNil(t, spec.Settings.ReturnKi)
	assert.False(t, *spec.Settings.ReturnKi)
	assert.Equal(t, 1e9, spec.Settings.Factr)
}

func TestParseFitSpecDefaults(t *testing.T) {
	spec, err := ParseFitSpec([]byte(`{"data":{"x0":[[1],[2]],"z0":[1,2],"mult":[1,1]}}`), true)
	require.NoError(t, err)
	assert.Equal(t, DefaultCovType, spec.CovType)
	require.NotNil(t, spec.Settings.ReturnKi)
	assert.True(t, *spec.Settings.ReturnKi)
	assert.Equal(t, []int{1, 1}, spec.Data.Mult)

	_, err = ParseFitSpec([]byte(`{"data":`), true)
	assert.Error(t, err)
}

func TestReadCSV(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantX   [][]float64
		wantZ   []float64
		wantErr bool
	}{
		{
			name:  "header",
			input: "x1,x2,z\n0,1,2\n3,4,5\n",
			wantX: [][]float64{{0, 1}, {3, 4}},
			wantZ: []float64{2, 5},
		},
		{
			name:  "no header with comment",
			input: "# sine\n0, 0\n1.5, 0.997\n",
			wantX: [][]float64{{0}, {1.5}},
			wantZ: []float64{0, 0.997},
		},
		{name: "bad value", input: "x,z\n1,2\n1,abc\n", wantErr: true},
		{name: "one column", input: "1\n2\n", wantErr: true},
		{name: "header only", input: "x,z\n", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			X, Z, err := ReadCSV(strings.NewReader(tt.input))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantX, X)
			assert.Equal(t, tt.wantZ, Z)
		})
	}
}

func TestLoadFitSpecWithFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "data.csv"), []byte("x,z\n0,1\n0,1.2\n1,3\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.yaml"), []byte("data:\n  file: data.csv\nlower: [0.1]\nupper: [2]\n"), 0o644))

	spec, err := LoadFitSpec(filepath.Join(dir, "spec.yaml"))
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0}, {0}, {1}}, spec.Data.X)
	assert.Equal(t, []float64{1, 1.2, 3}, spec.Data.Z)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "both.json"),
		[]byte(`{"data":{"file":"data.csv","x":[[1]],"z":[1]}}`), 0o644))
	_, err = LoadFitSpec(filepath.Join(dir, "both.json"))
	assert.ErrorIs(t, err, ErrInvalidData)

	_, err = LoadFitSpec(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}
