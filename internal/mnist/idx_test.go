package mnist

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeIDXLabels writes an IDX label file with the given magic number.
func writeIDXLabels(t *testing.T, path string, magic uint32, labels []uint8) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, binary.Write(f, binary.BigEndian, magic))
	require.NoError(t, binary.Write(f, binary.BigEndian, uint32(len(labels))))
	_, err = f.Write(labels)
	require.NoError(t, err)
}

// writeIDXImages writes an IDX image file with the given magic number. Each
// image is rows*cols raw bytes.
func writeIDXImages(t *testing.T, path string, magic uint32, rows, cols int, images [][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	require.NoError(t, binary.Write(f, binary.BigEndian, magic))
	require.NoError(t, binary.Write(f, binary.BigEndian, uint32(len(images))))
	require.NoError(t, binary.Write(f, binary.BigEndian, uint32(rows)))
	require.NoError(t, binary.Write(f, binary.BigEndian, uint32(cols)))
	for _, img := range images {
		_, err = f.Write(img)
		require.NoError(t, err)
	}
}

func TestReadLabels(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrainLabelsFile)
	writeIDXLabels(t, path, labelMagic, []uint8{3, 1, 4, 1, 5})

	labels, err := ReadLabels(path)
	require.NoError(t, err)
	assert.Equal(t, []uint8{3, 1, 4, 1, 5}, labels)
}

func TestReadLabelsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrainLabelsFile)
	writeIDXLabels(t, path, imageMagic, []uint8{0})

	_, err := ReadLabels(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic number")
}

func TestReadLabelsTruncated(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrainLabelsFile)
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, binary.Write(f, binary.BigEndian, uint32(labelMagic)))
	require.NoError(t, binary.Write(f, binary.BigEndian, uint32(10)))
	_, err = f.Write([]byte{1, 2, 3}) // 7 labels short
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = ReadLabels(path)
	require.Error(t, err)
}

func TestReadImages(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrainImagesFile)
	writeIDXImages(t, path, imageMagic, 2, 2, [][]byte{
		{0, 51, 102, 255},
		{255, 255, 255, 255},
	})

	images, rows, cols, err := ReadImages(path)
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	require.Len(t, images, 2)

	assert.InDelta(t, 0.0, images[0][0], 1e-6)
	assert.InDelta(t, 0.2, images[0][1], 1e-6)
	assert.InDelta(t, 0.4, images[0][2], 1e-6)
	assert.InDelta(t, 1.0, images[0][3], 1e-6)
	for _, pixel := range images[1] {
		assert.InDelta(t, 1.0, pixel, 1e-6)
	}
}

func TestReadImagesBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), TrainImagesFile)
	writeIDXImages(t, path, labelMagic, 1, 1, [][]byte{{0}})

	_, _, _, err := ReadImages(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid magic number")
}

func TestReadImagesMissingFile(t *testing.T) {
	_, _, _, err := ReadImages(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}
