// Agreement and coverage statistics for annotation masks
package metrics

import (
	"errors"
	"fmt"
	"sort"

	"github.com/andres-fr/secv-guis/internal/raster"
)

var ErrSizeMismatch = errors.New("mask dimensions mismatch")

// Metric compares an annotation mask against a reference mask
type Metric interface {
	// Calculate computes the metric value
	Calculate(reference, annotation raster.Mask) (float64, error)

	// GetName returns the metric name
	GetName() string

	// GetRange returns the value range (min, max)
	GetRange() (float64, float64)
}

// Evaluator manages and calculates multiple metrics
type Evaluator struct {
	metrics map[string]Metric
}

// NewEvaluator creates an evaluator with the default metrics registered
func NewEvaluator() *Evaluator {
	e := &Evaluator{
		metrics: make(map[string]Metric),
	}
	e.RegisterDefaultMetrics()
	return e
}

// RegisterDefaultMetrics registers all default metrics
func (e *Evaluator) RegisterDefaultMetrics() {
	e.Register("iou", NewIoU())
	e.Register("f_measure", NewFMeasure())
	e.Register("precision", NewPrecision())
	e.Register("recall", NewRecall())
}

// Register registers a metric
func (e *Evaluator) Register(name string, metric Metric) {
	e.metrics[name] = metric
}

// Names returns the registered metric names, sorted
func (e *Evaluator) Names() []string {
	names := make([]string, 0, len(e.metrics))
	for name := range e.metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Calculate calculates a specific metric
func (e *Evaluator) Calculate(name string, reference, annotation raster.Mask) (float64, error) {
	metric, exists := e.metrics[name]
	if !exists {
		return 0, fmt.Errorf("metric not found: %s", name)
	}
	return metric.Calculate(reference, annotation)
}

// CalculateAll calculates all registered metrics
func (e *Evaluator) CalculateAll(reference, annotation raster.Mask) (map[string]float64, error) {
	results := make(map[string]float64, len(e.metrics))
	for name, metric := range e.metrics {
		value, err := metric.Calculate(reference, annotation)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		results[name] = value
	}
	return results, nil
}

// Coverage is the fraction of true pixels in m. Empty masks have zero
// coverage.
func Coverage(m raster.Mask) float64 {
	n := m.Width() * m.Height()
	if n == 0 {
		return 0
	}
	return float64(m.Count()) / float64(n)
}

// confusion counts true positives, false positives and false negatives of
// annotation with respect to reference
func confusion(reference, annotation raster.Mask) (tp, fp, fn float64, err error) {
	if reference.Width() != annotation.Width() || reference.Height() != annotation.Height() {
		return 0, 0, 0, fmt.Errorf("%w: %dx%d vs %dx%d", ErrSizeMismatch,
			reference.Width(), reference.Height(), annotation.Width(), annotation.Height())
	}
	ref := reference.Bits()
	for i, a := range annotation.Bits() {
		switch {
		case a && ref[i]:
			tp++
		case a:
			fp++
		case ref[i]:
			fn++
		}
	}
	return tp, fp, fn, nil
}
