package mnist

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDataset writes a full set of four standard MNIST files into dir.
func writeDataset(t *testing.T, dir string, numTrain, numTest, rows, cols int) {
	t.Helper()

	makeImages := func(n int) [][]byte {
		images := make([][]byte, n)
		for i := range images {
			img := make([]byte, rows*cols)
			for j := range img {
				img[j] = byte((i + j) % 256)
			}
			images[i] = img
		}
		return images
	}
	makeLabels := func(n int) []uint8 {
		labels := make([]uint8, n)
		for i := range labels {
			labels[i] = uint8(i % NumClasses)
		}
		return labels
	}

	writeIDXImages(t, filepath.Join(dir, TrainImagesFile), imageMagic, rows, cols, makeImages(numTrain))
	writeIDXLabels(t, filepath.Join(dir, TrainLabelsFile), labelMagic, makeLabels(numTrain))
	writeIDXImages(t, filepath.Join(dir, TestImagesFile), imageMagic, rows, cols, makeImages(numTest))
	writeIDXLabels(t, filepath.Join(dir, TestLabelsFile), labelMagic, makeLabels(numTest))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 10, 4, 3, 3)

	ds, err := Load(dir)
	require.NoError(t, err)
	assert.Len(t, ds.TrainImages, 10)
	assert.Len(t, ds.TrainLabels, 10)
	assert.Len(t, ds.TestImages, 4)
	assert.Len(t, ds.TestLabels, 4)
	assert.Equal(t, 3, ds.Rows)
	assert.Equal(t, 3, ds.Cols)
	assert.Equal(t, uint8(7), ds.TrainLabels[7])
}

func TestLoadCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 10, 4, 2, 2)
	writeIDXLabels(t, filepath.Join(dir, TrainLabelsFile), labelMagic, []uint8{1, 2, 3})

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "images but")
}

func TestLoadGeometryMismatch(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 4, 4, 2, 2)
	writeIDXImages(t, filepath.Join(dir, TestImagesFile), imageMagic, 3, 3,
		[][]byte{make([]byte, 9), make([]byte, 9), make([]byte, 9), make([]byte, 9)})

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image size mismatch")
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(t.TempDir())
	require.Error(t, err)
}

func TestSplitValidation(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 10, 2, 2, 2)
	ds, err := Load(dir)
	require.NoError(t, err)

	images, labels, err := ds.SplitValidation(3)
	require.NoError(t, err)
	assert.Len(t, images, 3)
	assert.Len(t, labels, 3)
	assert.Len(t, ds.TrainImages, 7)
	assert.Len(t, ds.TrainLabels, 7)
	assert.Equal(t, uint8(7), labels[0], "validation takes the tail")

	_, _, err = ds.SplitValidation(8)
	require.Error(t, err)
}

func TestTruncate(t *testing.T) {
	dir := t.TempDir()
	writeDataset(t, dir, 10, 5, 2, 2)
	ds, err := Load(dir)
	require.NoError(t, err)

	ds.Truncate(4, 2)
	assert.Len(t, ds.TrainImages, 4)
	assert.Len(t, ds.TrainLabels, 4)
	assert.Len(t, ds.TestImages, 2)
	assert.Len(t, ds.TestLabels, 2)

	// Zero limits leave the sets untouched.
	ds.Truncate(0, 0)
	assert.Len(t, ds.TrainImages, 4)
	assert.Len(t, ds.TestImages, 2)
}
