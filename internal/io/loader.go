// Image, mask and confidence map loading
package io

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/sirupsen/logrus"
	"gocv.io/x/gocv"

	"github.com/andres-fr/secv-guis/internal/raster"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported image format")
	ErrInvalidRank       = errors.New("mask must have 1, 3 or 4 channels")
)

// ImageLoader handles image file operations
type ImageLoader struct {
	logger     *logrus.Logger
	extensions []string
}

// NewImageLoader creates a loader accepting the given lower-case extensions.
// With none, the default image formats are accepted.
func NewImageLoader(logger *logrus.Logger, extensions ...string) *ImageLoader {
	if len(extensions) == 0 {
		extensions = DefaultImageExtensions()
	}
	return &ImageLoader{
		logger:     logger,
		extensions: extensions,
	}
}

// DefaultImageExtensions lists the formats browsed by default
func DefaultImageExtensions() []string {
	return []string{".jpg", ".jpeg", ".png", ".tiff", ".tif", ".bmp"}
}

// Extensions returns the accepted image extensions
func (il *ImageLoader) Extensions() []string { return slices.Clone(il.extensions) }

// LoadImage reads an RGB image upright according to its EXIF orientation.
// Any alpha channel is dropped.
func (il *ImageLoader) LoadImage(path string) (image.Image, error) {
	il.logger.WithField("filepath", path).Debug("Loading image")

	if !il.isSupportedImageFormat(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor|gocv.IMReadIgnoreOrientation)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to load image: %s", path)
	}
	defer mat.Close()

	orientation := exifOrientation(path)
	if code, ok := rotationFor(orientation); ok {
		rotated := gocv.NewMat()
		defer rotated.Close()
		gocv.Rotate(mat, &rotated, code)
		mat, rotated = rotated, mat
	}

	img, err := mat.ToImage()
	if err != nil {
		return nil, fmt.Errorf("failed to convert image %s: %w", path, err)
	}

	il.logger.WithFields(logrus.Fields{
		"filepath":    path,
		"width":       mat.Cols(),
		"height":      mat.Rows(),
		"orientation": orientation,
	}).Info("Image loaded successfully")
	return img, nil
}

// LoadMask reads a mask file unchanged apart from its EXIF orientation.
// Single-channel files map non-zero
// values to true, 2, 3 and 4 channel files mark pixels where any channel is
// non-zero.
func (il *ImageLoader) LoadMask(path string) (raster.Mask, error) {
	il.logger.WithField("filepath", path).Debug("Loading mask")

	mat := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer mat.Close()
	if mat.Empty() {
		return raster.Mask{}, fmt.Errorf("failed to load mask: %s", path)
	}

	if code, ok := rotationFor(exifOrientation(path)); ok {
		rotated := gocv.NewMat()
		defer rotated.Close()
		gocv.Rotate(mat, &rotated, code)
		mat, rotated = rotated, mat
	}

	channels := mat.Channels()
	if channels < 1 || channels > 4 {
		return raster.Mask{}, fmt.Errorf("%w: %s has %d", ErrInvalidRank, path, channels)
	}

	src := mat
	if mat.Type()&0x7 != gocv.MatTypeCV8U {
		// counts as non-zero only what survives the conversion to bytes
		converted := gocv.NewMat()
		defer converted.Close()
		mat.ConvertTo(&converted, gocv.MatTypeCV8U)
		src = converted
	}
	data := src.ToBytes()

	cols, rows := src.Cols(), src.Rows()
	mask := maskFromPixels(data, cols, rows, channels)

	il.logger.WithFields(logrus.Fields{
		"filepath": path,
		"width":    cols,
		"height":   rows,
		"channels": channels,
		"pixels":   mask.Count(),
	}).Info("Mask loaded successfully")
	return mask, nil
}

// maskFromPixels marks each interleaved pixel that has a non-zero channel
func maskFromPixels(data []byte, cols, rows, channels int) raster.Mask {
	bits := make([]bool, rows*cols)
	for i := range bits {
		for _, v := range data[i*channels : (i+1)*channels] {
			if v != 0 {
				bits[i] = true
				break
			}
		}
	}
	return raster.MaskFromBits(cols, rows, bits)
}

func (il *ImageLoader) isSupportedImageFormat(path string) bool {
	return slices.Contains(il.extensions, strings.ToLower(filepath.Ext(path)))
}

// exifOrientation returns the EXIF orientation tag, or 1 when absent
func exifOrientation(path string) int {
	f, err := os.Open(path)
	if err != nil {
		return 1
	}
	defer f.Close()

	x, err := exif.Decode(f)
	if err != nil {
		return 1
	}
	tag, err := x.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	v, err := tag.Int(0)
	if err != nil {
		return 1
	}
	return v
}

// rotationFor maps an EXIF orientation to the rotation that makes the image
// upright. Mirrored orientations are left as stored.
func rotationFor(orientation int) (gocv.RotateFlag, bool) {
	switch orientation {
	case 3:
		return gocv.Rotate180Clockwise, true
	case 6:
		return gocv.Rotate90Clockwise, true
	case 8:
		return gocv.Rotate90CounterClockwise, true
	default:
		return 0, false
	}
}
