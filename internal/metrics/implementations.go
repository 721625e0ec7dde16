package metrics

import (
	"fmt"

	"gocv.io/x/gocv"

	"github.com/andres-fr/secv-guis/internal/raster"
)

// IoU is the intersection over union of two masks. Two empty masks agree
// perfectly.
type IoU struct{}

func NewIoU() *IoU { return &IoU{} }

func (m *IoU) Calculate(reference, annotation raster.Mask) (float64, error) {
	tp, fp, fn, err := confusion(reference, annotation)
	if err != nil {
		return 0, err
	}
	if union := tp + fp + fn; union > 0 {
		return tp / union, nil
	}
	return 1, nil
}

func (m *IoU) GetName() string { return "Intersection over Union" }
func (m *IoU) GetRange() (float64, float64) { return 0, 1 }

// FMeasure is the harmonic mean of precision and recall
type FMeasure struct{}

func NewFMeasure() *FMeasure { return &FMeasure{} }

func (f *FMeasure) Calculate(reference, annotation raster.Mask) (float64, error) {
	tp, fp, fn, err := confusion(reference, annotation)
	if err != nil {
		return 0, err
	}
	if tp+fp+fn == 0 {
		return 1, nil
	}

	precision := 0.0
	if tp+fp > 0 {
		precision = tp / (tp + fp)
	}
	recall := 0.0
	if tp+fn > 0 {
		recall = tp / (tp + fn)
	}
	if precision+recall == 0 {
		return 0, nil
	}
	return 2 * precision * recall / (precision + recall), nil
}

func (f *FMeasure) GetName() string { return "F-Measure" }
func (f *FMeasure) GetRange() (float64, float64) { return 0, 1 }

// Precision is the fraction of annotated pixels inside the reference
type Precision struct{}

func NewPrecision() *Precision { return &Precision{} }

func (p *Precision) Calculate(reference, annotation raster.Mask) (float64, error) {
	tp, fp, _, err := confusion(reference, annotation)
	if err != nil {
		return 0, err
	}
	if tp+fp == 0 {
		return 0, nil
	}
	return tp / (tp + fp), nil
}

func (p *Precision) GetName() string { return "Precision" }
func (p *Precision) GetRange() (float64, float64) { return 0, 1 }

// Recall is the fraction of reference pixels that were annotated
type Recall struct{}

func NewRecall() *Recall { return &Recall{} }

func (r *Recall) Calculate(reference, annotation raster.Mask) (float64, error) {
	tp, _, fn, err := confusion(reference, annotation)
	if err != nil {
		return 0, err
	}
	if tp+fn == 0 {
		return 0, nil
	}
	return tp / (tp + fn), nil
}

func (r *Recall) GetName() string { return "Recall" }
func (r *Recall) GetRange() (float64, float64) { return 0, 1 }

// RegionCount returns the number of 8-connected regions of true pixels
func RegionCount(m raster.Mask) (int, error) {
	if m.Count() == 0 {
		return 0, nil
	}
	src, err := gocv.NewMatFromBytes(m.Height(), m.Width(), gocv.MatTypeCV8UC1, m.Gray().Pix)
	if err != nil {
		return 0, fmt.Errorf("failed to wrap mask: %w", err)
	}
	defer src.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	n := gocv.ConnectedComponentsWithParams(src, &labels, 8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)
	// label 0 is the background
	return n - 1, nil
}
