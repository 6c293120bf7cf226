package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/skydispatch/core/metrics"
	"github.com/kilianp07/skydispatch/infra/logger"
)

// InfluxSink writes fleet statistics to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
	now      func() time.Time
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
		now:      time.Now,
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordTick writes one fleet_tick point.
func (s *InfluxSink) RecordTick(st coremetrics.TickStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("fleet_tick").
		AddTag("component", "runner").
		AddField("sim_time", st.Time).
		AddField("pending", st.Pending).
		AddField("scheduled", st.Scheduled).
		AddField("in_flight", st.InFlight).
		AddField("assigned", st.Assigned).
		AddField("launched", st.Launched).
		AddField("retired", st.Retired).
		AddField("rejected", st.Rejected).
		AddField("skipped", st.Skipped).
		AddField("duration_ms", float64(st.Duration.Microseconds())/1000).
		SetTime(s.now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRejection writes an order_rejected point.
func (s *InfluxSink) RecordRejection(ev coremetrics.RejectionEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("order_rejected").
		AddTag("destination", ev.Destination).
		AddField("sim_time", ev.Time).
		AddField("reason", ev.Reason).
		SetTime(s.now())
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordHalt writes a simulation_halt point.
func (s *InfluxSink) RecordHalt(ev coremetrics.HaltEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation_halt").
		AddTag("component", "runner").
		AddField("sim_time", ev.Time).
		AddField("reason", ev.Reason).
		SetTime(s.now())
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() {
	s.client.Close()
}
