// Package mnist loads the MNIST handwritten digit dataset from its IDX
// binary files, yielding images as normalized float vectors and labels as
// class indices, ready for the training engine.
package mnist

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

const (
	labelMagic = 2049 // 0x00000801
	imageMagic = 2051 // 0x00000803
)

// ReadLabels reads an IDX label file.
//
// IDX label format:
//
//	magic number: 0x00000801 (2049), big-endian
//	number of items: 4 bytes, big-endian
//	label data: one unsigned byte per item
func ReadLabels(filename string) ([]uint8, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != labelMagic {
		return nil, fmt.Errorf("invalid magic number: got %d, want %d", magic, labelMagic)
	}

	var numItems uint32
	if err := binary.Read(file, binary.BigEndian, &numItems); err != nil {
		return nil, fmt.Errorf("failed to read item count: %w", err)
	}

	labels := make([]uint8, numItems)
	if _, err := io.ReadFull(file, labels); err != nil {
		return nil, fmt.Errorf("failed to read labels: %w", err)
	}
	return labels, nil
}

// ReadImages reads an IDX image file and normalizes each pixel to a float in
// [0, 1] by dividing by 255. Images are returned in row-major pixel order,
// so image[y*cols + x] is the pixel at column x of row y.
//
// IDX image format:
//
//	magic number: 0x00000803 (2051), big-endian
//	number of images, rows, cols: 4 bytes each, big-endian
//	pixel data: rows*cols unsigned bytes per image
func ReadImages(filename string) (images [][]float32, rows, cols int, err error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, 0, err
	}
	defer file.Close()

	var magic uint32
	if err := binary.Read(file, binary.BigEndian, &magic); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read magic: %w", err)
	}
	if magic != imageMagic {
		return nil, 0, 0, fmt.Errorf("invalid magic number: got %d, want %d", magic, imageMagic)
	}

	var numImages, numRows, numCols uint32
	if err := binary.Read(file, binary.BigEndian, &numImages); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read image count: %w", err)
	}
	if err := binary.Read(file, binary.BigEndian, &numRows); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read row count: %w", err)
	}
	if err := binary.Read(file, binary.BigEndian, &numCols); err != nil {
		return nil, 0, 0, fmt.Errorf("failed to read column count: %w", err)
	}

	imageSize := int(numRows * numCols)
	raw := make([]byte, imageSize)
	images = make([][]float32, numImages)
	for i := range images {
		if _, err := io.ReadFull(file, raw); err != nil {
			return nil, 0, 0, fmt.Errorf("failed to read image %d: %w", i, err)
		}
		images[i] = make([]float32, imageSize)
		for j, pixel := range raw {
			images[i][j] = float32(pixel) / 255.0
		}
	}
	return images, int(numRows), int(numCols), nil
}
