// mnist-train: trains or tests the per-neuron perceptron
//
// Usage:
//
//	mnist-train -train-images train-images-idx3-ubyte.gz -train-labels train-labels-idx1-ubyte.gz \
//	    -test-images t10k-images-idx3-ubyte.gz -test-labels t10k-labels-idx1-ubyte.gz \
//	    -epochs 10 -lr 0.1 -out network.json
//	mnist-train -mode test -in network.json -test-csv mnist_test.csv
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"mnistnet/dataset"
	"mnistnet/nn"
	"mnistnet/utils"
)

var (
	configFile   = flag.String("config", "", "YAML config file (flags override it)")
	mode         = flag.String("mode", "train", "Mode: train or test")
	epochs       = flag.Int("epochs", 10, "Number of training epochs")
	learningRate = flag.Float64("lr", 0.1, "Learning rate")
	shapeStr     = flag.String("shape", "784,16,16,10", "Layer sizes: input,hidden1,hidden2,output")
	seed         = flag.Int64("seed", 42, "Random seed for weight initialisation")
	rule         = flag.String("rule", "reference", "Gradient rule: reference or textbook")
	labels       = flag.String("labels", "mnist", "Label names: mnist or fashion")
	trainImages  = flag.String("train-images", "", "Training images (IDX, optionally .gz)")
	trainLabels  = flag.String("train-labels", "", "Training labels (IDX, optionally .gz)")
	testImages   = flag.String("test-images", "", "Test images (IDX, optionally .gz)")
	testLabels   = flag.String("test-labels", "", "Test labels (IDX, optionally .gz)")
	trainCSV     = flag.String("train-csv", "", "Training set as CSV (label first)")
	testCSV      = flag.String("test-csv", "", "Test set as CSV (label first)")
	limit        = flag.Int("limit", 0, "Use at most this many samples per set (0 = all)")
	stateIn      = flag.String("in", "", "Network state to load (JSON)")
	stateOut     = flag.String("out", "", "Network state to save (JSON)")
	neuronImages = flag.String("neuron-images", "", "Directory for hidden layer 1 neuron images")
	dump         = flag.Bool("dump", false, "Print weight matrices after the run")
	verbose      = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()

	cfg, err := loadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	utils.Verbose = cfg.Verbose

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the optional YAML file and the flags that were
// set explicitly, in that order.
func loadConfig() (utils.Config, error) {
	cfg := utils.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = utils.LoadConfig(*configFile); err != nil {
			return cfg, err
		}
	}

	var shapeErr error
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "mode":
			cfg.Mode = *mode
		case "epochs":
			cfg.Epochs = *epochs
		case "lr":
			cfg.LearningRate = *learningRate
		case "shape":
			cfg.Shape, shapeErr = utils.ParseShape(*shapeStr)
		case "seed":
			cfg.Seed = *seed
		case "rule":
			cfg.Rule = *rule
		case "labels":
			cfg.Labels = *labels
		case "train-images":
			cfg.TrainImages = *trainImages
		case "train-labels":
			cfg.TrainLabels = *trainLabels
		case "test-images":
			cfg.TestImages = *testImages
		case "test-labels":
			cfg.TestLabels = *testLabels
		case "train-csv":
			cfg.TrainCSV = *trainCSV
		case "test-csv":
			cfg.TestCSV = *testCSV
		case "limit":
			cfg.Limit = *limit
		case "in":
			cfg.StateIn = *stateIn
		case "out":
			cfg.StateOut = *stateOut
		case "neuron-images":
			cfg.NeuronImageDir = *neuronImages
		case "dump":
			cfg.Dump = *dump
		case "verbose":
			cfg.Verbose = *verbose
		}
	})
	if shapeErr != nil {
		return cfg, shapeErr
	}
	return cfg, utils.ValidateConfig(&cfg)
}

func run(cfg utils.Config) error {
	shape, err := nn.ShapeOf(cfg.Shape)
	if err != nil {
		return err
	}
	gradRule, err := nn.ParseRule(cfg.Rule)
	if err != nil {
		return err
	}

	fmt.Println("╔══════════════════════════════════════════════════════════════╗")
	fmt.Println("║                  Per-neuron MNIST Perceptron                 ║")
	fmt.Println("╚══════════════════════════════════════════════════════════════╝")
	fmt.Printf("\nConfiguration:\n")
	fmt.Printf("  Mode:          %s\n", cfg.Mode)
	fmt.Printf("  Shape:         %v\n", shape)
	fmt.Printf("  Epochs:        %d\n", cfg.Epochs)
	fmt.Printf("  Learning Rate: %.4f\n", cfg.LearningRate)
	fmt.Printf("  Rule:          %v\n", gradRule)
	fmt.Printf("  Seed:          %d\n", cfg.Seed)
	fmt.Println()

	stats := &utils.TimingStats{}
	totalStart := time.Now()

	start := time.Now()
	net, err := nn.NewNetwork(cfg.LearningRate, shape, nn.NewRand(cfg.Seed))
	if err != nil {
		return err
	}
	net.Rule = gradRule
	if cfg.StateIn != "" {
		if err := net.Load(cfg.StateIn); err != nil {
			return err
		}
		log("Loaded network state from %s (learning rate %g)", cfg.StateIn, net.LearningRate)
	}
	stats.ModelInitTime = time.Since(start)

	start = time.Now()
	trainSrc := dataset.Source{Images: cfg.TrainImages, Labels: cfg.TrainLabels, CSV: cfg.TrainCSV}
	testSrc := dataset.Source{Images: cfg.TestImages, Labels: cfg.TestLabels, CSV: cfg.TestCSV}
	var trainSet, testSet *dataset.Set
	if cfg.Mode == "train" {
		if trainSet, err = trainSrc.Load(shape.Input, shape.Output, cfg.Limit); err != nil {
			return fmt.Errorf("training set: %w", err)
		}
		log("Training set: %d samples", trainSet.Len())
	}
	if !testSrc.Empty() {
		if testSet, err = testSrc.Load(shape.Input, shape.Output, cfg.Limit); err != nil {
			return fmt.Errorf("test set: %w", err)
		}
		log("Test set: %d samples", testSet.Len())
	} else if cfg.Mode == "test" {
		return fmt.Errorf("test mode needs a test set")
	}
	stats.DataLoadingTime = time.Since(start)

	steps := 0
	if trainSet != nil {
		fmt.Println("Starting training...")
		start = time.Now()
		history, err := net.Train(trainSet, cfg.Epochs)
		stats.BackwardPassTime = time.Since(start)
		if err != nil {
			return err
		}
		steps += cfg.Epochs * trainSet.Len()
		last := history[len(history)-1]
		fmt.Printf("\nTraining complete: %v\n", last)
	}

	if testSet != nil {
		start = time.Now()
		m, err := net.Test(testSet)
		stats.ForwardPassTime = time.Since(start)
		if err != nil {
			return err
		}
		steps += testSet.Len()
		fmt.Printf("Test: %v\n", m)
		if testSet.Len() > 0 {
			showPrediction(net, testSet, cfg.Labels)
		}
	}

	stats.TotalTime = time.Since(totalStart)
	utils.PrintTimingStats(stats, steps)

	if cfg.StateOut != "" {
		if err := net.Save(cfg.StateOut); err != nil {
			return err
		}
		fmt.Printf("Saved network state to %s\n", cfg.StateOut)
	}
	if cfg.NeuronImageDir != "" {
		if err := net.SaveLayerImages(cfg.NeuronImageDir, "hidden1"); err != nil {
			return err
		}
		fmt.Printf("Wrote %d neuron images to %s\n", net.Hidden1.Size(), cfg.NeuronImageDir)
	}
	if cfg.Dump {
		net.Describe(os.Stdout)
	}
	return nil
}

// showPrediction prints the network's answer for the first test sample.
func showPrediction(net *nn.Network, set *dataset.Set, kind string) {
	image, label := set.Sample(0)
	if err := net.FeedForward(image); err != nil {
		return
	}
	guess, act, _ := net.MostActiveNeuron()
	fmt.Printf("First test sample: %s, predicted %s (activation %.4f)\n",
		dataset.LabelDescription(label, kind), dataset.LabelDescription(guess, kind), act)
}

func log(format string, args ...interface{}) {
	if utils.Verbose {
		fmt.Fprintf(os.Stderr, "[TRAIN] "+format+"\n", args...)
	}
}
