package app

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/kilianp07/skydispatch/config"
	"github.com/kilianp07/skydispatch/core/events"
	"github.com/kilianp07/skydispatch/core/journal"
	coremetrics "github.com/kilianp07/skydispatch/core/metrics"
	coremon "github.com/kilianp07/skydispatch/core/monitoring"
	"github.com/kilianp07/skydispatch/core/runner"
	"github.com/kilianp07/skydispatch/core/scheduler"
	"github.com/kilianp07/skydispatch/infra/grpcfeed"
	"github.com/kilianp07/skydispatch/infra/logger"
	"github.com/kilianp07/skydispatch/infra/metrics"
	"github.com/kilianp07/skydispatch/infra/monitoring"
	"github.com/kilianp07/skydispatch/infra/mqtt"
	"github.com/kilianp07/skydispatch/internal/eventbus"
)

// Service wires the runner to its sinks, journal and remote adapters.
type Service struct {
	Runner *runner.Runner

	cfg     *config.Config
	log     logger.Logger
	events  *eventbus.TypedBus[events.Event]
	sink    coremetrics.MetricsSink
	journal journal.Store
	feed    *grpcfeed.Server
	mqtt    *mqtt.PahoClient
	intake  *mqtt.OrderIntake
	status  *mqtt.StatusPublisher

	restoreMonitor func()
	closeOnce      sync.Once
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	mon, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry: %w", err)
	}
	svc := &Service{cfg: cfg, log: logg, restoreMonitor: coremon.Init(mon)}
	if err := svc.build(); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}

func (s *Service) build() error {
	cfg := s.cfg
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return fmt.Errorf("metrics sinks: %w", err)
	}
	s.sink = sink

	store, err := journal.Open(cfg.Journal)
	if err != nil {
		return fmt.Errorf("journal: %w", err)
	}
	s.journal = store

	sched, err := scheduler.New(cfg.Scheduler)
	if err != nil {
		return fmt.Errorf("scheduler: %w", err)
	}

	var source runner.OrderSource
	if path := cfg.Simulation.OrdersCSV; path != "" {
		src, err := loadReplay(path)
		if err != nil {
			return err
		}
		s.log.Infof("replaying %d orders from %s", src.Remaining(), path)
		source = src
	}

	s.events = eventbus.NewTyped[events.Event]()
	r, err := runner.New(sched, runner.Options{
		Step:                cfg.Simulation.Step,
		Speed:               cfg.Simulation.Speed,
		DestinationDistance: cfg.Simulation.DestinationDistance,
		Source:              source,
		Logger:              logger.New("runner"),
		Metrics:             sink,
		Bus:                 s.events,
		Journal:             store,
	})
	if err != nil {
		return fmt.Errorf("runner: %w", err)
	}
	s.Runner = r

	if cfg.GRPC.Enabled {
		s.feed = grpcfeed.NewServer(r.Feed(), grpcfeed.Options{
			Buffer: cfg.Feed.Buffer,
			Policy: cfg.Feed.ParsedPolicy(),
		}, logger.New("grpcfeed"))
	}

	if cfg.MQTT.Enabled {
		client, err := mqtt.NewPahoClient(cfg.MQTT)
		if err != nil {
			return fmt.Errorf("mqtt client: %w", err)
		}
		s.mqtt = client
		topics := cfg.MQTT.Topics()
		s.intake = mqtt.NewOrderIntake(client, r, topics, logger.New("mqtt_intake"))
		s.status = mqtt.NewStatusPublisher(client, r.Feed(), topics, logger.New("mqtt_status"))
	}
	return nil
}

func loadReplay(path string) (*runner.ReplaySource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("orders csv: %w", err)
	}
	defer func() { _ = f.Close() }()
	src, err := runner.LoadReplaySource(f)
	if err != nil {
		return nil, fmt.Errorf("orders csv %s: %w", path, err)
	}
	return src, nil
}

// Run starts the adapters and ticks until the context is cancelled or the
// runner halts. A halt is returned as an error.
func (s *Service) Run(ctx context.Context) error {
	defer coremon.Recover()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	collected := metrics.StartEventCollector(ctx, s.events, s.sink, logger.New("metrics_collector"))
	if port := s.cfg.Metrics.PrometheusPort; port != "" {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := metrics.StartPromServer(ctx, port); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}
	if s.feed != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.feed.ListenAndServe(ctx, s.cfg.GRPC.Addr); err != nil {
				s.log.Errorf("grpc feed: %v", err)
			}
		}()
	}
	if s.intake != nil {
		if err := s.intake.Start(); err != nil {
			cancel()
			wg.Wait()
			<-collected
			return fmt.Errorf("mqtt intake: %w", err)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.status.Run(ctx)
		}()
	}

	err := s.Runner.Run(ctx, s.cfg.Simulation.TickInterval)
	cancel()
	wg.Wait()
	<-collected
	// Flush queued tick reports before the caller reads the journal.
	_ = s.Runner.Close()
	if err != nil {
		return fmt.Errorf("runner halted: %w", err)
	}
	return nil
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if s.mqtt != nil {
			s.mqtt.Disconnect()
		}
		if s.feed != nil {
			s.feed.Stop()
		}
		if s.events != nil {
			s.events.Close()
		}
		if s.Runner != nil {
			_ = s.Runner.Close()
		}
		if c, ok := s.sink.(interface{ Close() }); ok {
			c.Close()
		}
		if s.journal != nil {
			err = s.journal.Close()
		}
		coremon.Flush(2 * time.Second)
		s.restoreMonitor()
	})
	return err
}
