package config

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/llm-d-incubation/homgp/pkg/utils"
)

var ErrInvalidData = errors.New("invalid data")

// LoadFitSpec reads a fit specification from a YAML or JSON file. A data file
// it names is read relative to the spec's directory.
func LoadFitSpec(path string) (*FitSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	isJSON := slices.Contains(JSONExtensions, strings.ToLower(filepath.Ext(path)))
	spec, err := ParseFitSpec(b, isJSON)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if err := spec.Data.Resolve(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// ParseFitSpec decodes a fit specification and fills its defaults.
func ParseFitSpec(b []byte, isJSON bool) (*FitSpec, error) {
	var spec *FitSpec
	var err error
	if isJSON {
		spec, err = utils.FromDataToSpec(b, FitSpec{})
	} else {
		spec, err = utils.FromYAMLToSpec(b, FitSpec{})
	}
	if err != nil {
		return nil, err
	}
	spec.SetDefaults()
	return spec, nil
}

// SetDefaults fills unset fields with package defaults.
func (s *FitSpec) SetDefaults() {
	if s.CovType == "" {
		s.CovType = DefaultCovType
	}
	if s.Settings.ReturnKi == nil {
		keep := DefaultReturnKi
		s.Settings.ReturnKi = &keep
	}
}

// Resolve loads a referenced CSV file into X and Z. Inline data is left as is.
func (d *DataSpec) Resolve(baseDir string) error {
	if d.File == "" {
		return nil
	}
	if len(d.X) > 0 || len(d.X0) > 0 {
		return fmt.Errorf("%w: both inline data and file %q given", ErrInvalidData, d.File)
	}
	path := d.File
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	d.X, d.Z, err = ReadCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// ReadCSV reads rows x1,...,xd,z. A first row that does not parse as numbers
// is taken as a header.
func ReadCSV(r io.Reader) ([][]float64, []float64, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.Comment = '#'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	var X [][]float64
	var Z []float64
	for i, rec := range records {
		if len(rec) < 2 {
			return nil, nil, fmt.Errorf("%w: line %d has %d fields, need at least 2", ErrInvalidData, i+1, len(rec))
		}
		values, err := parseRecord(rec)
		if err != nil {
			if i == 0 {
				continue
			}
			return nil, nil, fmt.Errorf("%w: line %d: %v", ErrInvalidData, i+1, err)
		}
		X = append(X, values[:len(values)-1])
		Z = append(Z, values[len(values)-1])
	}
	if len(X) == 0 {
		return nil, nil, fmt.Errorf("%w: no data rows", ErrInvalidData)
	}
	return X, Z, nil
}

func parseRecord(rec []string) ([]float64, error) {
	out := make([]float64, len(rec))
	for j, field := range rec {
		v, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
		if err != nil {
			return nil, err
		}
		out[j] = v
	}
	return out, nil
}
