package metrics

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	coremetrics "github.com/kilianp07/skydispatch/core/metrics"
)

const (
	itOrg    = "fleet_org"
	itBucket = "fleet_bucket"
	itToken  = "fleet-token"
)

// startInflux starts an InfluxDB 2.7 container initialised with the test
// organisation, bucket and admin token.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "fleet",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "fleet-password",
			"DOCKER_INFLUXDB_INIT_ORG":         itOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      itBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": itToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("failed to start influx container: %v", err)
	}
	host, err := cont.Host(ctx)
	if err != nil {
		t.Fatalf("failed to get container host: %v", err)
	}
	port, err := cont.MappedPort(ctx, "8086")
	if err != nil {
		t.Fatalf("failed to get mapped port: %v", err)
	}
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// TestInfluxSinkIntegration writes tick points to a real InfluxDB and reads
// them back with Flux.
func TestInfluxSinkIntegration(t *testing.T) {
	if os.Getenv("DOCKER_AVAILABLE") != "true" && os.Getenv("DOCKER_AVAILABLE") != "1" {
		t.Skip("docker not available")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Minute)
	defer cancel()

	cont, url := startInflux(ctx, t)
	defer func() {
		if err := cont.Terminate(ctx); err != nil {
			t.Fatalf("failed to terminate container: %v", err)
		}
	}()

	sink, ok := NewInfluxSinkWithFallback(url, itToken, itOrg, itBucket).(*InfluxSink)
	if !ok {
		t.Fatal("health check failed against a running instance")
	}
	defer sink.Close()
	for i := int64(1); i <= 3; i++ {
		if err := sink.RecordTick(coremetrics.TickStats{Time: i, Pending: 2, Assigned: 1}); err != nil {
			t.Fatalf("record tick %d: %v", i, err)
		}
	}
	if err := sink.RecordRejection(coremetrics.RejectionEvent{Time: 2, Destination: "X", Reason: "invalid priority"}); err != nil {
		t.Fatalf("record rejection: %v", err)
	}

	client := influxdb2.NewClient(url, itToken)
	defer client.Close()
	flux := fmt.Sprintf(`from(bucket:"%s") |> range(start:-10m) |> filter(fn: (r) => r._measurement == "fleet_tick" and r._field == "sim_time")`, itBucket)
	res, err := client.QueryAPI(itOrg).Query(ctx, flux)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	count := 0
	for res.Next() {
		count++
	}
	if res.Err() != nil {
		t.Fatalf("query result: %v", res.Err())
	}
	if count != 3 {
		t.Fatalf("expected 3 fleet_tick points, got %d", count)
	}
}
