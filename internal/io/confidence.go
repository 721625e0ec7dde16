package io

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sbinet/npyio/npz"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ConfidenceKey is the array read from confidence map archives
const ConfidenceKey = "entropy"

var ErrInvalidConfidence = errors.New("invalid confidence map")

// LoadConfidenceMap reads the 2-D float array stored under ConfidenceKey in
// an .npz archive. With normalize, values are divided by their maximum
// unless it is zero.
func (il *ImageLoader) LoadConfidenceMap(path string, normalize bool) (*mat.Dense, error) {
	il.logger.WithField("filepath", path).Debug("Loading confidence map")

	r, err := npz.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open confidence map %s: %w", path, err)
	}
	defer r.Close()

	key := ""
	for _, k := range r.Keys() {
		if strings.TrimSuffix(k, ".npy") == ConfidenceKey {
			key = k
			break
		}
	}
	if key == "" {
		return nil, fmt.Errorf("%w: %s has no %q array", ErrInvalidConfidence, path, ConfidenceKey)
	}

	hdr := r.Header(key)
	if hdr == nil {
		return nil, fmt.Errorf("%w: %s: missing header for %q", ErrInvalidConfidence, path, key)
	}
	switch hdr.Descr.Type {
	case "<f4", "<f8":
	default:
		return nil, fmt.Errorf("%w: %s: dtype %s is not a little-endian float", ErrInvalidConfidence, path, hdr.Descr.Type)
	}
	if len(hdr.Descr.Shape) != 2 {
		return nil, fmt.Errorf("%w: %s: expected a 2-D array, got shape %v", ErrInvalidConfidence, path, hdr.Descr.Shape)
	}

	var m mat.Dense
	if err := r.Read(key, &m); err != nil {
		return nil, fmt.Errorf("failed to read confidence map %s: %w", path, err)
	}

	rows, cols := m.Dims()
	if data := m.RawMatrix().Data; normalize && len(data) > 0 {
		if top := floats.Max(data); top != 0 {
			m.Scale(1/top, &m)
		}
	}

	il.logger.WithFields(logrus.Fields{
		"filepath":   path,
		"rows":       rows,
		"cols":       cols,
		"dtype":      hdr.Descr.Type,
		"normalized": normalize,
	}).Info("Confidence map loaded successfully")
	return &m, nil
}
