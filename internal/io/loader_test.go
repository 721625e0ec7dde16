package io

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio/npz"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
	"gonum.org/v1/gonum/mat"

	"github.com/andres-fr/secv-guis/internal/layers"
	"github.com/andres-fr/secv-guis/internal/raster"
)

func newTestLoader() *ImageLoader {
	logger, _ := test.NewNullLogger()
	return NewImageLoader(logger)
}

func touch(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, nil, 0o644))
}

func TestUniqueFilename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "foo.png")

	got, err := UniqueFilename(path)
	require.NoError(t, err)
	assert.Equal(t, path, got)

	touch(t, path)
	touch(t, filepath.Join(dir, "foo_(1).png"))
	got, err = UniqueFilename(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "foo_(2).png"), got)

	bare := filepath.Join(dir, "notes")
	touch(t, bare)
	got, err = UniqueFilename(bare)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "notes_(1)"), got)
}

func TestSavePoints(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img_points.json")
	states := map[string][][]layers.Point{
		"PointList": {{{X: 1, Y: 2}, {X: 3.5, Y: 4}}},
	}
	il := newTestLoader()

	out, err := il.SavePoints(states, path, false)
	require.NoError(t, err)
	assert.Equal(t, path, out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var compact bytes.Buffer
	require.NoError(t, json.Compact(&compact, data))
	assert.Equal(t, `{"PointList":[[[1,2],[3.5,4]]]}`, compact.String())
	var decoded map[string][][]layers.Point
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, states, decoded)

	out, err = il.SavePoints(states, path, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "img_points_(1).json"), out)

	out, err = il.SavePoints(states, path, true)
	require.NoError(t, err)
	assert.Equal(t, path, out)
}

func TestSaveAndLoadMask(t *testing.T) {
	dir := t.TempDir()
	m := raster.NewMask(7, 5)
	m.Set(0, 0, true)
	m.Set(6, 4, true)
	m.Set(3, 2, true)
	il := newTestLoader()

	out, err := il.SaveMask(m, filepath.Join(dir, "img_annot.png"), false)
	require.NoError(t, err)

	written := gocv.IMRead(out, gocv.IMReadUnchanged)
	defer written.Close()
	assert.Equal(t, 3, written.Channels())

	loaded, err := il.LoadMask(out)
	require.NoError(t, err)
	assert.True(t, loaded.Equal(m))
}

func TestSaveEmptyMask(t *testing.T) {
	out := filepath.Join(t.TempDir(), "empty.png")
	_, err := newTestLoader().SaveMask(raster.NewMask(0, 4), out, false)
	assert.Error(t, err)
	assert.NoFileExists(t, out)
}

func TestLoadMaskAnyChannel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rgba.png")
	img := image.NewNRGBA(image.Rect(0, 0, 3, 1))
	img.SetNRGBA(1, 0, color.NRGBA{B: 1, A: 0})
	img.SetNRGBA(2, 0, color.NRGBA{A: 7})
	writePNG(t, path, img)

	m, err := newTestLoader().LoadMask(path)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, true}, m.Bits())
}

func TestMaskFromPixelsGrayAlpha(t *testing.T) {
	// gray, alpha pairs
	data := []byte{0, 0, 9, 0, 0, 255, 3, 3}
	m := maskFromPixels(data, 2, 2, 2)
	assert.Equal(t, []bool{false, true, true, true}, m.Bits())
	assert.Equal(t, 2, m.Width())
}

func writePNG(t *testing.T, path string, img image.Image) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func TestLoadImage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	src := image.NewNRGBA(image.Rect(0, 0, 4, 2))
	for i := range src.Pix {
		src.Pix[i] = 255
	}
	src.SetNRGBA(0, 0, color.NRGBA{R: 200, G: 10, B: 20, A: 255})
	writePNG(t, path, src)

	img, err := newTestLoader().LoadImage(path)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 4, 2), img.Bounds())
	r, g, b, _ := img.At(0, 0).RGBA()
	assert.Equal(t, []uint32{200, 10, 20}, []uint32{r >> 8, g >> 8, b >> 8})
}

func TestLoadImageUnsupported(t *testing.T) {
	_, err := newTestLoader().LoadImage("scan.gif")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestRotationFor(t *testing.T) {
	tests := []struct {
		orientation int
		want        gocv.RotateFlag
		ok          bool
	}{
		{1, 0, false},
		{3, gocv.Rotate180Clockwise, true},
		{6, gocv.Rotate90Clockwise, true},
		{8, gocv.Rotate90CounterClockwise, true},
		{2, 0, false},
	}
	for _, tt := range tests {
		got, ok := rotationFor(tt.orientation)
		assert.Equal(t, tt.ok, ok, "orientation %d", tt.orientation)
		if ok {
			assert.Equal(t, tt.want, got)
		}
	}
}

func writeNPZ(t *testing.T, path, key string, v any) {
	t.Helper()
	w, err := npz.Create(path)
	require.NoError(t, err)
	require.NoError(t, w.Write(key, v))
	require.NoError(t, w.Close())
}

func TestLoadConfidenceMap(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img.npz")
	writeNPZ(t, path, ConfidenceKey, mat.NewDense(2, 3, []float64{0, 1, 2, 3, 4, 8}))
	il := newTestLoader()

	m, err := il.LoadConfidenceMap(path, false)
	require.NoError(t, err)
	r, c := m.Dims()
	assert.Equal(t, []int{2, 3}, []int{r, c})
	assert.Equal(t, 4.0, m.At(1, 1))

	m, err = il.LoadConfidenceMap(path, true)
	require.NoError(t, err)
	assert.Equal(t, 1.0, m.At(1, 2))
	assert.Equal(t, 0.5, m.At(1, 1))
}

func TestLoadConfidenceMapZeroMax(t *testing.T) {
	path := filepath.Join(t.TempDir(), "zeros.npz")
	writeNPZ(t, path, ConfidenceKey, mat.NewDense(2, 2, nil))
	m, err := newTestLoader().LoadConfidenceMap(path, true)
	require.NoError(t, err)
	assert.Equal(t, 0.0, m.At(0, 0))
}

func TestLoadConfidenceMapInvalid(t *testing.T) {
	dir := t.TempDir()
	il := newTestLoader()

	other := filepath.Join(dir, "other.npz")
	writeNPZ(t, other, "logits", mat.NewDense(2, 2, nil))
	_, err := il.LoadConfidenceMap(other, false)
	assert.ErrorIs(t, err, ErrInvalidConfidence)

	flat := filepath.Join(dir, "flat.npz")
	writeNPZ(t, flat, ConfidenceKey, []float64{1, 2, 3})
	_, err = il.LoadConfidenceMap(flat, false)
	assert.ErrorIs(t, err, ErrInvalidConfidence)

	ints := filepath.Join(dir, "ints.npz")
	writeNPZ(t, ints, ConfidenceKey, []int32{1, 2, 3, 4})
	_, err = il.LoadConfidenceMap(ints, false)
	assert.ErrorIs(t, err, ErrInvalidConfidence)
}

func TestListFiles(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.PNG", "a.jpg", "c.txt", "d.png"} {
		touch(t, filepath.Join(dir, name))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "e.png"), 0o755))

	files, err := ListFiles(dir, []string{".png", ".jpg"})
	require.NoError(t, err)
	want := []string{
		filepath.Join(dir, "a.jpg"),
		filepath.Join(dir, "b.PNG"),
		filepath.Join(dir, "d.png"),
	}
	assert.Equal(t, want, files)

	next, ok := Neighbor(files, want[2], 1)
	assert.True(t, ok)
	assert.Equal(t, want[0], next)
	prev, _ := Neighbor(files, want[0], -1)
	assert.Equal(t, want[2], prev)

	_, ok = Neighbor(nil, "x", 1)
	assert.False(t, ok)
}
