package mnist

import (
	"fmt"
	"path/filepath"
)

// Standard MNIST file names, as distributed.
const (
	TrainImagesFile = "train-images-idx3-ubyte"
	TrainLabelsFile = "train-labels-idx1-ubyte"
	TestImagesFile  = "t10k-images-idx3-ubyte"
	TestLabelsFile  = "t10k-labels-idx1-ubyte"
)

// NumClasses is the number of digit classes.
const NumClasses = 10

// Dataset holds the decoded MNIST training and test sets.
type Dataset struct {
	TrainImages [][]float32
	TrainLabels []uint8
	TestImages  [][]float32
	TestLabels  []uint8
	Rows, Cols  int
}

// Load reads the four standard MNIST files from dir. Both sets must agree on
// the image geometry, and each set's image and label counts must match.
func Load(dir string) (*Dataset, error) {
	trainImages, rows, cols, err := ReadImages(filepath.Join(dir, TrainImagesFile))
	if err != nil {
		return nil, fmt.Errorf("loading training images: %w", err)
	}
	trainLabels, err := ReadLabels(filepath.Join(dir, TrainLabelsFile))
	if err != nil {
		return nil, fmt.Errorf("loading training labels: %w", err)
	}
	testImages, testRows, testCols, err := ReadImages(filepath.Join(dir, TestImagesFile))
	if err != nil {
		return nil, fmt.Errorf("loading test images: %w", err)
	}
	testLabels, err := ReadLabels(filepath.Join(dir, TestLabelsFile))
	if err != nil {
		return nil, fmt.Errorf("loading test labels: %w", err)
	}

	if len(trainImages) != len(trainLabels) {
		return nil, fmt.Errorf("training set: %d images but %d labels",
			len(trainImages), len(trainLabels))
	}
	if len(testImages) != len(testLabels) {
		return nil, fmt.Errorf("test set: %d images but %d labels",
			len(testImages), len(testLabels))
	}
	if testRows != rows || testCols != cols {
		return nil, fmt.Errorf("image size mismatch: train %dx%d, test %dx%d",
			rows, cols, testRows, testCols)
	}

	return &Dataset{
		TrainImages: trainImages,
		TrainLabels: trainLabels,
		TestImages:  testImages,
		TestLabels:  testLabels,
		Rows:        rows,
		Cols:        cols,
	}, nil
}

// SplitValidation moves the last n training samples into a validation set and
// returns it. The training slices are truncated in place.
func (d *Dataset) SplitValidation(n int) (images [][]float32, labels []uint8, err error) {
	if n < 0 || n > len(d.TrainImages) {
		return nil, nil, fmt.Errorf("validation size %d out of range [0, %d]",
			n, len(d.TrainImages))
	}
	cut := len(d.TrainImages) - n
	images = d.TrainImages[cut:]
	labels = d.TrainLabels[cut:]
	d.TrainImages = d.TrainImages[:cut]
	d.TrainLabels = d.TrainLabels[:cut]
	return images, labels, nil
}

// Truncate limits the training and test sets to at most maxTrain and maxTest
// samples. A zero or negative limit leaves the corresponding set untouched.
// Useful for quick debugging runs, where training on the full 60k images is
// unnecessary.
func (d *Dataset) Truncate(maxTrain, maxTest int) {
	if maxTrain > 0 && maxTrain < len(d.TrainImages) {
		d.TrainImages = d.TrainImages[:maxTrain]
		d.TrainLabels = d.TrainLabels[:maxTrain]
	}
	if maxTest > 0 && maxTest < len(d.TestImages) {
		d.TestImages = d.TestImages[:maxTest]
		d.TestLabels = d.TestLabels[:maxTest]
	}
}
