// mnist-server: serves a trained network to the drawing canvas
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"mnistnet/nn"
	"mnistnet/server"
	"mnistnet/utils"

	"github.com/gin-gonic/gin"
)

var (
	configFile = flag.String("config", "", "YAML config file (flags override it)")
	stateIn    = flag.String("in", "", "Network state to serve (JSON)")
	listen     = flag.String("listen", ":8080", "Listen address")
	labels     = flag.String("labels", "mnist", "Label names: mnist or fashion")
	verbose    = flag.Bool("verbose", false, "Verbose output")
)

func main() {
	flag.Parse()

	cfg := utils.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = utils.LoadConfig(*configFile); err != nil {
			fatal(err)
		}
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "in":
			cfg.StateIn = *stateIn
		case "listen":
			cfg.Listen = *listen
		case "labels":
			cfg.Labels = *labels
		case "verbose":
			cfg.Verbose = *verbose
		}
	})
	utils.Verbose = cfg.Verbose
	if !cfg.Verbose {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.StateIn == "" {
		fatal(errors.New("-in is required"))
	}

	net, err := nn.LoadNetwork(cfg.StateIn)
	if err != nil {
		fatal(err)
	}
	log("Loaded %s, shape %v", cfg.StateIn, net.Shape())

	hs := server.NewHTTPServer(net, cfg.Labels)
	errc := make(chan error, 1)
	go func() { errc <- hs.Start(cfg.Listen) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			fatal(err)
		}
	case s := <-sig:
		log("Received %v, shutting down", s)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(ctx); err != nil {
			fatal(err)
		}
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func log(format string, args ...interface{}) {
	if utils.Verbose {
		fmt.Fprintf(os.Stderr, "[SERVER] "+format+"\n", args...)
	}
}
