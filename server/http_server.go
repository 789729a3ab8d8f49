// Package server exposes a trained network over HTTP for the drawing canvas:
// single predictions, neuron images and a websocket stream of live
// activations.
package server

import (
	"context"
	"net/http"
	"sync"

	"mnistnet/nn"
	"mnistnet/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

// HTTPServer serves one network. The network is shared by every request and
// guarded by mu.
type HTTPServer struct {
	Router *gin.Engine
	// Labels selects the class names returned with predictions ("mnist" or "fashion").
	Labels string

	mu       sync.Mutex
	net      *nn.Network
	upgrader websocket.Upgrader
	srv      *http.Server
}

// NewHTTPServer creates the router and registers every route.
func NewHTTPServer(net *nn.Network, labels string) *HTTPServer {
	hs := &HTTPServer{
		Router: gin.Default(),
		Labels: labels,
		net:    net,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
	hs.setupRoutes()
	return hs
}

func (hs *HTTPServer) setupRoutes() {
	api := hs.Router.Group("/api")
	api.POST("/predict", hs.predictHandler)
	api.GET("/network", hs.networkHandler)
	api.GET("/neurons/:layer/:index/image.png", hs.neuronImageHandler)

	hs.Router.GET("/ws/canvas", hs.canvasHandler)
	hs.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
}

// Start listens on addr and blocks until the server stops. It returns
// http.ErrServerClosed after Shutdown.
func (hs *HTTPServer) Start(addr string) error {
	hs.mu.Lock()
	hs.srv = &http.Server{Addr: addr, Handler: hs.Router}
	srv := hs.srv
	hs.mu.Unlock()

	utils.Logf("Canvas server listening on %s", addr)
	return srv.ListenAndServe()
}

// Shutdown stops accepting connections and waits for active requests.
func (hs *HTTPServer) Shutdown(ctx context.Context) error {
	hs.mu.Lock()
	srv := hs.srv
	hs.mu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}
