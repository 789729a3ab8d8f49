// mnist-infer: encrypted split inference with a saved network
//
// The client half (input to hidden layer 2) and the server half (output layer
// on CKKS ciphertexts) run in one process, connected by pipes.
package main

import (
	"flag"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"mnistnet/core/ckkswrapper"
	"mnistnet/dataset"
	"mnistnet/nn"
	"mnistnet/split"
	"mnistnet/utils"
)

var (
	stateIn    = flag.String("in", "", "Network state (JSON)")
	testImages = flag.String("test-images", "", "Test images (IDX, optionally .gz)")
	testLabels = flag.String("test-labels", "", "Test labels (IDX, optionally .gz)")
	testCSV    = flag.String("test-csv", "", "Test set as CSV (label first)")
	logN       = flag.Int("logN", ckkswrapper.DefaultLogN, "Ring dimension log2")
	limit      = flag.Int("limit", 100, "Number of test samples to classify (0 = all)")
	labels     = flag.String("labels", "mnist", "Label names: mnist or fashion")
	verbose    = flag.Bool("verbose", true, "Verbose output")
)

func main() {
	flag.Parse()
	utils.Verbose = *verbose

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	if *stateIn == "" {
		return fmt.Errorf("-in is required")
	}
	stats := &utils.TimingStats{}
	totalStart := time.Now()

	start := time.Now()
	net, err := nn.LoadNetwork(*stateIn)
	if err != nil {
		return err
	}
	shape := net.Shape()
	set, err := dataset.Source{Images: *testImages, Labels: *testLabels, CSV: *testCSV}.Load(shape.Input, shape.Output, *limit)
	if err != nil {
		return err
	}
	stats.DataLoadingTime = time.Since(start)
	log("Loaded %s %v and %d samples", *stateIn, shape, set.Len())

	start = time.Now()
	he, err := ckkswrapper.NewHeContextWithLogN(*logN)
	if err != nil {
		return err
	}
	stats.ModelInitTime = time.Since(start)
	log("HE context ready (logN=%d, slots=%d)", *logN, he.Params.MaxSlots())

	// the server gets its own copy of the output layer
	serverNet, err := nn.LoadNetwork(*stateIn)
	if err != nil {
		return err
	}
	srv := split.NewServer(serverNet.Output)
	srv.Refresh = he.CheatBootstrap
	srvStats := &utils.TimingStats{}
	srv.Stats = srvStats

	c2sR, c2sW := io.Pipe()
	s2cR, s2cW := io.Pipe()
	done := make(chan error, 1)
	go func() {
		err := srv.Serve(split.NewProtocol(c2sR, s2cW))
		s2cW.Close()
		done <- err
	}()

	client := split.NewClient(net, he)
	client.Stats = stats
	proto := split.NewProtocol(s2cR, c2sW)
	if err := client.Handshake(proto); err != nil {
		return err
	}

	var correct, agree int
	var maxDiff float64
	for i := 0; i < set.Len(); i++ {
		image, label := set.Sample(i)
		res, err := client.Classify(proto, i, image)
		if err != nil {
			return fmt.Errorf("sample %d: %w", i, err)
		}
		// Classify left the plaintext activations in net.
		plain, _, _ := net.MostActiveNeuron()
		for j, a := range net.Output.Activations() {
			maxDiff = math.Max(maxDiff, math.Abs(a-res.Activations[j]))
		}
		if res.Label == label {
			correct++
		}
		if res.Label == plain {
			agree++
		}
		log("Sample %d: label %s, encrypted %s, plaintext %s",
			i, dataset.LabelDescription(label, *labels),
			dataset.LabelDescription(res.Label, *labels),
			dataset.LabelDescription(plain, *labels))
	}
	if err := proto.SendDone(); err != nil {
		return err
	}
	c2sW.Close()
	if err := <-done; err != nil {
		return err
	}

	stats.ServerEvalTime = srvStats.ServerEvalTime
	stats.TotalTime = time.Since(totalStart)

	n := set.Len()
	fmt.Printf("\nEncrypted accuracy:  %d/%d (%.2f%%)\n", correct, n, percent(correct, n))
	fmt.Printf("Plaintext agreement: %d/%d (%.2f%%)\n", agree, n, percent(agree, n))
	fmt.Printf("Max activation difference: %.3e\n", maxDiff)
	utils.PrintTimingStats(stats, n)
	return nil
}

func percent(k, n int) float64 {
	if n == 0 {
		return 0
	}
	return 100 * float64(k) / float64(n)
}

func log(format string, args ...interface{}) {
	if utils.Verbose {
		fmt.Fprintf(os.Stderr, "[INFER] "+format+"\n", args...)
	}
}
