package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/skydispatch/infra/logger"
)

// StartPromServer serves /metrics from the default gatherer on the given port.
// It blocks until the context is canceled.
func StartPromServer(ctx context.Context, port string) error {
	return StartPromServerFor(ctx, ":"+port, prometheus.DefaultGatherer)
}

// StartPromServerFor serves the provided gatherer on addr until ctx is done.
func StartPromServerFor(ctx context.Context, addr string, g prometheus.Gatherer) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return servePrometheus(ctx, ln, g)
}

func servePrometheus(ctx context.Context, ln net.Listener, g prometheus.Gatherer) error {
	log := logger.New("prometheus")
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warnf("prom server shutdown: %v", err)
		}
	}()
	log.Infof("serving metrics on %s", ln.Addr())
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
