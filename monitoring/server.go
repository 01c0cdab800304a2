package monitoring

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsServer serves Prometheus metrics and a liveness probe on a
// separate port from the application API.
type MetricsServer struct {
	srv *http.Server
}

func NewMetricsServer(port string, snapshot func() LedgerSnapshot) *MetricsServer {
	e := echo.New()

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/healthz", func(c echo.Context) error {
		snap := snapshot()
		return c.JSON(http.StatusOK, map[string]any{
			"status":        "ok",
			"total_events":  snap.TotalEvents,
			"total_tickets": snap.TotalTickets,
		})
	})

	return &MetricsServer{
		srv: &http.Server{
			Addr:              ":" + port,
			Handler:           e,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

// Start blocks serving until Shutdown is called.
func (s *MetricsServer) Start() {
	log.Printf("Metrics server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Printf("Metrics server error: %v", err)
	}
}

func (s *MetricsServer) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
