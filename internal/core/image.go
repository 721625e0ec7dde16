// Core image data structure with thread-safe operations
package core

import (
	"image"
	"path/filepath"
	"sync"

	"gonum.org/v1/gonum/mat"
)

// ImageData tracks the image being annotated and its confidence map
type ImageData struct {
	mu         sync.RWMutex
	path       string
	size       image.Point
	confidence *mat.Dense
	source     string
}

// NewImageData creates an empty container
func NewImageData() *ImageData {
	return &ImageData{}
}

// Set records a newly loaded image and drops any confidence map
func (img *ImageData) Set(path string, size image.Point) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.path = path
	img.size = size
	img.confidence = nil
	img.source = ""
}

func (img *ImageData) HasImage() bool {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.path != ""
}

func (img *ImageData) Path() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.path
}

// Basename returns the file name without directory
func (img *ImageData) Basename() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	if img.path == "" {
		return ""
	}
	return filepath.Base(img.path)
}

func (img *ImageData) Size() image.Point {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.size
}

// SetConfidence stores the map loaded from source. It is read-only from here
// on.
func (img *ImageData) SetConfidence(m *mat.Dense, source string) {
	img.mu.Lock()
	defer img.mu.Unlock()
	img.confidence = m
	img.source = source
}

// Confidence returns the current map, or nil
func (img *ImageData) Confidence() *mat.Dense {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.confidence
}

// ConfidenceSource returns the file the map was loaded from
func (img *ImageData) ConfidenceSource() string {
	img.mu.RLock()
	defer img.mu.RUnlock()
	return img.source
}

// Clear forgets the image and its map
func (img *ImageData) Clear() {
	img.Set("", image.Point{})
}
