package algorithms

import (
	"fmt"

	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/andres-fr/secv-guis/internal/raster"
)

// Hysteresis keeps every connected region of values >= low that contains at
// least one value >= high. Regions use 8-connectivity.
func Hysteresis(pmap *mat.Dense, low, high float64) (raster.Mask, error) {
	rows, cols := pmap.Dims()
	out := raster.NewMask(cols, rows)
	if rows == 0 || cols == 0 {
		return out, nil
	}

	weak := make([]byte, rows*cols)
	anyWeak := false
	for r := 0; r < rows; r++ {
		for c, v := range pmap.RawRowView(r) {
			if v >= low {
				weak[r*cols+c] = 255
				anyWeak = true
			}
		}
	}
	if !anyWeak {
		return out, nil
	}

	src, err := gocv.NewMatFromBytes(rows, cols, gocv.MatTypeCV8U, weak)
	if err != nil {
		return raster.Mask{}, fmt.Errorf("failed to wrap weak mask: %w", err)
	}
	defer src.Close()

	labels := gocv.NewMat()
	defer labels.Close()
	n := gocv.ConnectedComponentsWithParams(src, &labels, 8, gocv.MatTypeCV32S, gocv.CCL_DEFAULT)

	ids, err := labels.DataPtrInt32()
	if err != nil {
		return raster.Mask{}, fmt.Errorf("failed to read component labels: %w", err)
	}

	// label 0 is the background of the weak mask
	strong := make([]bool, n)
	for r := 0; r < rows; r++ {
		for c, v := range pmap.RawRowView(r) {
			if id := ids[r*cols+c]; id > 0 && v >= high {
				strong[id] = true
			}
		}
	}

	bits := out.Bits()
	for i, id := range ids[:rows*cols] {
		if id > 0 && strong[id] {
			bits[i] = true
		}
	}
	return out, nil
}
