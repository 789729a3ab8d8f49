package server

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"mnistnet/dataset"
	"mnistnet/nn"

	"github.com/gin-gonic/gin"
)

// PredictRequest is a flattened canvas with values in [0, 1].
type PredictRequest struct {
	Pixels []float64 `json:"pixels"`
}

// Prediction is the network's answer for one canvas.
type Prediction struct {
	Label       int       `json:"label"`
	Description string    `json:"description"`
	Activation  float64   `json:"activation"`
	Activations []float64 `json:"activations"`
}

// predict runs one forward pass under the lock.
func (hs *HTTPServer) predict(pixels []float64) (*Prediction, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	if err := hs.net.FeedForward(pixels); err != nil {
		return nil, err
	}
	label, act, ok := hs.net.MostActiveNeuron()
	if !ok {
		return nil, errors.New("network has no output neurons")
	}
	return &Prediction{
		Label:       label,
		Description: dataset.LabelDescription(label, hs.Labels),
		Activation:  act,
		Activations: hs.net.Output.Activations(),
	}, nil
}

func (hs *HTTPServer) predictHandler(ctx *gin.Context) {
	var req PredictRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	p, err := hs.predict(req.Pixels)
	if err != nil {
		var shapeErr *nn.InputShapeError
		if errors.As(err, &shapeErr) {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	ctx.JSON(http.StatusOK, p)
}

func (hs *HTTPServer) networkHandler(ctx *gin.Context) {
	hs.mu.Lock()
	shape, lr, rule := hs.net.Shape(), hs.net.LearningRate, hs.net.Rule
	hs.mu.Unlock()

	ctx.JSON(http.StatusOK, gin.H{
		"shape":         shape.Sizes(),
		"learning_rate": lr,
		"rule":          rule.String(),
	})
}

// neuronImage encodes one neuron's weights under the lock.
func (hs *HTTPServer) neuronImage(layerName string, index int) ([]byte, error) {
	hs.mu.Lock()
	defer hs.mu.Unlock()

	layer, err := hs.net.LayerByName(layerName)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= layer.Size() {
		return nil, fmt.Errorf("%s has no neuron %d", layerName, index)
	}
	var buf bytes.Buffer
	if err := nn.WriteNeuronPNG(&buf, &layer.Neurons[index]); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (hs *HTTPServer) neuronImageHandler(ctx *gin.Context) {
	index, err := strconv.Atoi(ctx.Param("index"))
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "invalid neuron index"})
		return
	}
	data, err := hs.neuronImage(ctx.Param("layer"), index)
	if err != nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	ctx.Data(http.StatusOK, "image/png", data)
}
