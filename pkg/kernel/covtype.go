package kernel

import (
	"fmt"
	"strings"
)

// Kernel family
type CovType int

const (
	Gaussian CovType = iota
	Matern5_2
	Matern3_2
)

var covTypeNames = map[CovType]string{
	Gaussian:  "Gaussian",
	Matern5_2: "Matern5_2",
	Matern3_2: "Matern3_2",
}

func (t CovType) String() string {
	if name, ok := covTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("CovType(%d)", int(t))
}

// ParseCovType accepts a family name, case insensitive.
func ParseCovType(s string) (CovType, error) {
	for t, name := range covTypeNames {
		if strings.EqualFold(s, name) {
			return t, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownCovType, s)
}

func (t CovType) MarshalText() ([]byte, error) {
	if _, ok := covTypeNames[t]; !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownCovType, int(t))
	}
	return []byte(t.String()), nil
}

func (t *CovType) UnmarshalText(text []byte) error {
	parsed, err := ParseCovType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
