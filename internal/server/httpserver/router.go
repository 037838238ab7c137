package httpserver

import (
	"net/http"

	"github.com/yndnr/memkv/internal/server/httpserver/handler"
	"github.com/yndnr/memkv/internal/telemetry/logger"
	"github.com/yndnr/memkv/internal/telemetry/metric"
)

// RouterConfig holds the dependencies of the admin router.
type RouterConfig struct {
	Status  handler.Status
	Metrics *metric.Registry
	Logger  logger.Logger
}

// NewRouter creates the admin HTTP handler.
func NewRouter(cfg RouterConfig) http.Handler {
	l := cfg.Logger
	if l == nil {
		l = logger.Default()
	}

	mux := http.NewServeMux()

	h := handler.New(cfg.Status, l)
	mux.Handle("/health", h)
	mux.Handle("/ready", h)
	mux.Handle("/version", h)

	if cfg.Metrics != nil {
		mux.Handle("GET /metrics", cfg.Metrics.Handler())
	}

	return Chain(mux,
		RequestID(),
		Recover(l),
		AccessLog(l),
	)
}
