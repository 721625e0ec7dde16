// Annotation output files
package io

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/andres-fr/secv-guis/internal/layers"
	"github.com/andres-fr/secv-guis/internal/raster"
)

// MaxUniqueAttempts bounds the search for a free filename
const MaxUniqueAttempts = 10000

var ErrNoFreeName = errors.New("no free filename")

// UniqueFilename returns path if nothing exists there, or else the first
// free "<stem>_(N)<ext>" with N >= 1.
func UniqueFilename(path string) (string, error) {
	if !exists(path) {
		return path, nil
	}
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	for n := 1; n <= MaxUniqueAttempts; n++ {
		candidate := fmt.Sprintf("%s_(%d)%s", stem, n, ext)
		if !exists(candidate) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w for %s after %d attempts", ErrNoFreeName, path, MaxUniqueAttempts)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func outputPath(path string, overwrite bool) (string, error) {
	if overwrite {
		return path, nil
	}
	return UniqueFilename(path)
}

// SaveMask writes m as an 8-bit RGB image where true pixels are white. It
// returns the path actually written.
func (il *ImageLoader) SaveMask(m raster.Mask, path string, overwrite bool) (string, error) {
	out, err := outputPath(path, overwrite)
	if err != nil {
		return "", err
	}
	il.logger.WithField("filepath", out).Debug("Saving mask")

	if m.Width()*m.Height() == 0 {
		return "", fmt.Errorf("cannot save empty mask")
	}
	gray, err := gocv.NewMatFromBytes(m.Height(), m.Width(), gocv.MatTypeCV8UC1, m.Gray().Pix)
	if err != nil {
		return "", fmt.Errorf("failed to wrap mask: %w", err)
	}
	defer gray.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(gray, &bgr, gocv.ColorGrayToBGR)

	if !gocv.IMWrite(out, bgr) {
		return "", fmt.Errorf("failed to save mask: %s", out)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath": out,
		"width":    m.Width(),
		"height":   m.Height(),
		"pixels":   m.Count(),
	}).Info("Mask saved successfully")
	return out, nil
}

// SavePoints writes point-list states as JSON, keyed by object kind. It
// returns the path actually written.
func (il *ImageLoader) SavePoints(states map[string][][]layers.Point, path string, overwrite bool) (string, error) {
	out, err := outputPath(path, overwrite)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(states, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode points: %w", err)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to save points: %w", err)
	}

	total := 0
	for _, lists := range states {
		for _, l := range lists {
			total += len(l)
		}
	}
	il.logger.WithFields(logrus.Fields{
		"filepath": out,
		"kinds":    len(states),
		"points":   total,
	}).Info("Points saved successfully")
	return out, nil
}
