package bounds

import (
	"errors"
	"fmt"
	"math"

	"github.com/llm-d-incubation/homgp/internal/constants"
)

var (
	ErrInvalidInterval = errors.New("invalid length-scale interval")
	ErrNotBracketed    = errors.New("target correlation not reached inside the interval")
)

// CorrelationRoot finds the length-scale theta in [lo, hi] where corr(theta)
// equals target. corr must be monotone over the interval, which holds for the
// correlation at a fixed distance. Bisection runs on log(theta) and stops once
// the bracket is narrower than RootSearchRelTol of its midpoint.
func CorrelationRoot(lo, hi, target float64, corr func(theta float64) float64) (float64, error) {
	if !(lo > 0) || !(lo < hi) || math.IsInf(hi, 0) {
		return 0, fmt.Errorf("%w: [%v, %v]", ErrInvalidInterval, lo, hi)
	}
	fLo, fHi := corr(lo)-target, corr(hi)-target
	switch {
	case math.IsNaN(fLo) || math.IsNaN(fHi):
		return 0, fmt.Errorf("%w: correlation undefined at theta=%v or theta=%v", ErrNotBracketed, lo, hi)
	case fLo == 0:
		return lo, nil
	case fHi == 0:
		return hi, nil
	case math.Signbit(fLo) == math.Signbit(fHi):
		return 0, fmt.Errorf("%w: correlation ranges over [%v, %v], target %v",
			ErrNotBracketed, math.Min(fLo, fHi)+target, math.Max(fLo, fHi)+target, target)
	}

	for range constants.RootSearchMaxIter {
		mid := math.Sqrt(lo * hi)
		if hi-lo <= constants.RootSearchRelTol*mid {
			return mid, nil
		}
		fMid := corr(mid) - target
		if fMid == 0 {
			return mid, nil
		}
		if math.Signbit(fMid) == math.Signbit(fLo) {
			lo, fLo = mid, fMid
		} else {
			hi = mid
		}
	}
	return math.Sqrt(lo * hi), nil
}
