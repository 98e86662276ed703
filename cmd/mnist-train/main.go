// Command mnist-train trains a feed-forward neural network on the MNIST
// handwritten digit dataset and reports accuracy and cost as it goes.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jameshanlon/mnist-neural-net/internal/checkpoint"
	"github.com/jameshanlon/mnist-neural-net/internal/mnist"
	"github.com/jameshanlon/mnist-neural-net/internal/network"
	"github.com/jameshanlon/mnist-neural-net/internal/nn"
)

func main() {
	dataDir := flag.String("data", "./data", "directory containing the MNIST IDX files")
	arch := flag.String("arch", "cnn", "network architecture: mlp or cnn")
	epochs := flag.Int("epochs", 10, "number of training epochs")
	batchSize := flag.Int("batch", 10, "minibatch size")
	lr := flag.Float64("lr", 1.0, "learning rate")
	lambda := flag.Float64("lambda", 5.0, "L2 regularization coefficient")
	seed := flag.Int64("seed", 1, "seed for weight initialization and shuffling")
	maxTrain := flag.Int("max-train", 0, "limit training samples (0 = all)")
	maxTest := flag.Int("max-test", 0, "limit test samples (0 = all)")
	validationSize := flag.Int("validation", 1000, "samples held out of the training set for validation")
	monitorInterval := flag.Int("monitor-interval", 0, "minibatches between evaluations (0 = end of epoch only)")
	monitorAccuracy := flag.Bool("monitor-accuracy", true, "report test accuracy when monitoring")
	monitorCost := flag.Bool("monitor-cost", false, "report test cost when monitoring")
	monitorValidation := flag.Bool("monitor-validation", false, "report validation accuracy/cost when monitoring")
	savePath := flag.String("save", "", "write a checkpoint of the trained parameters to this file")
	loadPath := flag.String("load", "", "restore parameters from a checkpoint before training")
	flag.Parse()

	fmt.Printf("Reading MNIST data from %s\n", *dataDir)
	dataset, err := mnist.Load(*dataDir)
	if err != nil {
		log.Fatalf("Failed to load MNIST: %v", err)
	}
	dataset.Truncate(*maxTrain, *maxTest)
	valImages, valLabels, err := dataset.SplitValidation(*validationSize)
	if err != nil {
		log.Fatalf("Failed to split validation set: %v", err)
	}
	fmt.Printf("Train: %d samples, validation: %d, test: %d (%dx%d images)\n",
		len(dataset.TrainImages), len(valImages), len(dataset.TestImages),
		dataset.Rows, dataset.Cols)

	params := network.Params{
		LearningRate:    float32(*lr),
		Lambda:          float32(*lambda),
		BatchSize:       *batchSize,
		Epochs:          *epochs,
		Seed:            *seed,
		MonitorInterval: *monitorInterval,
	}

	net := buildNetwork(*arch, dataset.Cols, dataset.Rows, params)

	if *loadPath != "" {
		cp, err := checkpoint.Load(*loadPath)
		if err != nil {
			log.Fatalf("Failed to load checkpoint: %v", err)
		}
		if err := net.SetParamVectors(cp.Params); err != nil {
			log.Fatalf("Checkpoint does not match the %s architecture: %v", *arch, err)
		}
		fmt.Printf("Restored parameters from %s (epoch %d)\n", *loadPath, cp.Epoch)
	}

	data := network.Data{
		TrainingImages:   dataset.TrainImages,
		TrainingLabels:   dataset.TrainLabels,
		ValidationImages: valImages,
		ValidationLabels: valLabels,
		TestImages:       dataset.TestImages,
		TestLabels:       dataset.TestLabels,
	}

	fmt.Println("Running...")
	epochStart := time.Now()
	net.SGD(data, func(epoch, batch, numBatches int) {
		if batch < numBatches {
			fmt.Printf("Epoch %d: minibatch %d / %d\n", epoch, batch, numBatches)
		} else {
			elapsed := time.Since(epochStart)
			perSec := float64(numBatches*params.BatchSize) / elapsed.Seconds()
			fmt.Printf("Epoch %d complete in %.1fs (%.0f images/s)\n",
				epoch, elapsed.Seconds(), perSec)
			epochStart = time.Now()
		}
		report(net, data, *monitorAccuracy, *monitorCost, *monitorValidation)
	})

	if *savePath != "" {
		cp := &checkpoint.Checkpoint{
			Epoch:  params.Epochs,
			Params: net.ParamVectors(),
			Metadata: map[string]string{
				"arch": *arch,
				"seed": fmt.Sprintf("%d", params.Seed),
			},
		}
		if err := checkpoint.Save(*savePath, cp); err != nil {
			log.Fatalf("Failed to save checkpoint: %v", err)
		}
		fmt.Printf("Saved checkpoint to %s\n", *savePath)
	}
}

// buildNetwork assembles the requested architecture. The CNN follows the
// classic shape for 28x28 digits: one 5x5 convolution, 2x2 max-pooling, a
// dense layer of 100 units and a 10-way softmax. The MLP drops the
// convolutional front end for a single dense hidden layer.
func buildNetwork(arch string, width, height int, params network.Params) *network.Network {
	h := params.Hyper()
	input := nn.NewInputLayer(width, height, params.BatchSize)

	switch arch {
	case "mlp":
		fc := nn.NewDense(100, input.Size(), nn.Sigmoid{}, h)
		out := nn.NewSoftmax(mnist.NumClasses, fc.Size(), nn.CrossEntropy{}, h)
		return network.New(params, input, fc, out)
	case "cnn":
		conv := nn.NewConv(5, 5, 1, width, height, 1, nn.Sigmoid{}, h)
		pool := nn.NewMaxPool(2, 2, conv.Dim(0), conv.Dim(1), conv.Dim(2), h)
		fc := nn.NewDense(100, pool.Size(), nn.Sigmoid{}, h)
		out := nn.NewSoftmax(mnist.NumClasses, fc.Size(), nn.CrossEntropy{}, h)
		return network.New(params, input, conv, pool, fc, out)
	default:
		log.Fatalf("Unknown architecture %q (want mlp or cnn)", arch)
		return nil
	}
}

// report prints the configured evaluation metrics using the network's
// read-only evaluation calls.
func report(net *network.Network, data network.Data, accuracy, cost, validation bool) {
	if accuracy && len(data.TestImages) > 0 {
		correct := net.Accuracy(data.TestImages, data.TestLabels)
		fmt.Printf("Accuracy on test data: %d / %d\n", correct, len(data.TestImages))
	}
	if cost && len(data.TestImages) > 0 {
		c := net.TotalCost(data.TestImages, data.TestLabels)
		fmt.Printf("Cost on test data: %f\n", c)
	}
	if validation && len(data.ValidationImages) > 0 {
		correct := net.Accuracy(data.ValidationImages, data.ValidationLabels)
		fmt.Printf("Accuracy on validation data: %d / %d\n",
			correct, len(data.ValidationImages))
		c := net.TotalCost(data.ValidationImages, data.ValidationLabels)
		fmt.Printf("Cost on validation data: %f\n", c)
	}
}
