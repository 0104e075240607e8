package utils

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// unmarshal a byte array to its corresponding object
func FromDataToSpec[T interface{}](byteValue []byte, t T) (*T, error) {
	var d T
	if err := json.Unmarshal(byteValue, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// unmarshal a YAML byte array to its corresponding object
func FromYAMLToSpec[T interface{}](byteValue []byte, t T) (*T, error) {
	var d T
	if err := yaml.Unmarshal(byteValue, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// parse rows of numbers, e.g. "0.5,1;2,3" with row and column separators
func ParseRows(s, rowSep, colSep string) ([][]float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, fmt.Errorf("empty matrix")
	}
	var rows [][]float64
	for i, r := range strings.Split(s, rowSep) {
		fields := strings.Split(r, colSep)
		row := make([]float64, len(fields))
		for j, f := range fields {
			v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d, column %d: %w", i, j, err)
			}
			row[j] = v
		}
		if len(rows) > 0 && len(row) != len(rows[0]) {
			return nil, fmt.Errorf("row %d has %d columns, expected %d", i, len(row), len(rows[0]))
		}
		rows = append(rows, row)
	}
	return rows, nil
}
