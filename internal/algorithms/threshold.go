// Probability map binarization with exponential p-values and hysteresis
package algorithms

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/andres-fr/secv-guis/internal/raster"
)

// ErrInvalidInput is returned for samples or probabilities the estimator
// cannot work with.
var ErrInvalidInput = errors.New("invalid threshold input")

// EstimateRate returns the unbiased maximum likelihood estimate of the rate
// of an exponential distribution the samples are assumed to follow.
func EstimateRate(samples []float64) (float64, error) {
	n := float64(len(samples))
	if n == 0 {
		return 0, fmt.Errorf("%w: no samples", ErrInvalidInput)
	}
	sum := floats.Sum(samples)
	if sum == 0 {
		return 0, fmt.Errorf("%w: samples sum to zero", ErrInvalidInput)
	}
	lambda := n / sum
	lambda -= lambda / n
	if !(lambda > 0) {
		return 0, fmt.Errorf("%w: %d sample(s) give no positive rate", ErrInvalidInput, len(samples))
	}
	return lambda, nil
}

// RateToThreshold returns t such that the exponential tail above t holds
// keep of the probability mass, i.e. t = -ln(keep)/lambda.
func RateToThreshold(keep, lambda float64) (float64, error) {
	if !(keep > 0 && keep <= 1) {
		return 0, fmt.Errorf("%w: keep probability %v not in (0, 1]", ErrInvalidInput, keep)
	}
	if !(lambda > 0) || math.IsInf(lambda, 0) {
		return 0, fmt.Errorf("%w: rate %v must be positive", ErrInvalidInput, lambda)
	}
	return -math.Log(keep) / lambda, nil
}

// Thresholds holds the two cut points derived for a probability map
type Thresholds struct {
	Rate    float64
	Keep    float64 // values at or above are always kept
	Discard float64 // values below are always discarded
}

// DeriveThresholds estimates the rate over every map value and converts the
// two probabilities into cut points. keepHigh must be below discardLow.
func DeriveThresholds(pmap *mat.Dense, keepHigh, discardLow float64) (Thresholds, error) {
	if pmap == nil {
		return Thresholds{}, fmt.Errorf("%w: nil map", ErrInvalidInput)
	}
	if !(keepHigh < discardLow) {
		return Thresholds{}, fmt.Errorf("%w: keep p-value %v must be lower than discard p-value %v",
			ErrInvalidInput, keepHigh, discardLow)
	}
	rows, cols := pmap.Dims()
	values := make([]float64, 0, rows*cols)
	for r := 0; r < rows; r++ {
		values = append(values, pmap.RawRowView(r)...)
	}

	lambda, err := EstimateRate(values)
	if err != nil {
		return Thresholds{}, err
	}
	keep, err := RateToThreshold(keepHigh, lambda)
	if err != nil {
		return Thresholds{}, err
	}
	discard, err := RateToThreshold(discardLow, lambda)
	if err != nil {
		return Thresholds{}, err
	}
	return Thresholds{Rate: lambda, Keep: keep, Discard: discard}, nil
}

// ThresholdMap binarizes a confidence map. Pixels at or above the keep
// threshold are true, and pixels at or above the discard threshold are true
// only when 8-connected through such pixels to a kept one.
func ThresholdMap(pmap *mat.Dense, keepHigh, discardLow float64) (raster.Mask, error) {
	th, err := DeriveThresholds(pmap, keepHigh, discardLow)
	if err != nil {
		return raster.Mask{}, err
	}
	return Hysteresis(pmap, th.Discard, th.Keep)
}

// SliderToPValue linearly maps a slider step in [0, steps] onto [min, max].
// min does not need to be smaller than max.
func SliderToPValue(step, steps int, min, max float64) float64 {
	if steps <= 0 {
		return min
	}
	delta := float64(step) / float64(steps)
	return min + delta*(max-min)
}
