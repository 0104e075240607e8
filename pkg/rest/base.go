package rest

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/llm-d-incubation/homgp/internal/constants"
	"github.com/llm-d-incubation/homgp/internal/logger"
	"github.com/llm-d-incubation/homgp/internal/metrics"
	"github.com/llm-d-incubation/homgp/pkg/manager"
)

// global pointer to the model registry
var models *manager.Manager

// REST server
type RESTServer interface {
	Run() error
	Handler() http.Handler
}

// Base REST server
type BaseServer struct {
	router *gin.Engine
}

// NewBaseServer starts a clean model registry with its own metrics registry,
// served on /metrics.
func NewBaseServer() *BaseServer {
	registry := prometheus.NewRegistry()
	models = manager.NewManager(metrics.InitMetricsAndEmitter(registry))

	server := &BaseServer{
		router: gin.Default(),
	}
	server.router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))
	return server
}

// Handler exposes the router, e.g. for httptest.
func (server *BaseServer) Handler() http.Handler {
	return server.router
}

// start server
func (server *BaseServer) Run() error {
	var host, port string
	if host = os.Getenv(constants.RestHostEnvName); host == "" {
		host = constants.DefaultRestHost
	}
	if port = os.Getenv(constants.RestPortEnvName); port == "" {
		port = constants.DefaultRestPort
	}
	logger.Log.Infof("serving on %s:%s", host, port)
	return server.router.Run(host + ":" + port)
}
