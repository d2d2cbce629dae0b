//go:build e2e

package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/kilianp07/dispatchopt/app"
	"github.com/kilianp07/dispatchopt/config"
	"github.com/kilianp07/dispatchopt/core/factory"
	coremetrics "github.com/kilianp07/dispatchopt/core/metrics"
	"github.com/kilianp07/dispatchopt/core/model"
	coremqtt "github.com/kilianp07/dispatchopt/core/mqtt"
	"github.com/kilianp07/dispatchopt/infra/mqtt"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"
)

// startInflux starts an InfluxDB 2.7 container initialised with the e2e
// organisation, bucket and token, and returns its base URL.
func startInflux(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "influxdb:2.7",
		ExposedPorts: []string{"8086/tcp"},
		Env: map[string]string{
			"DOCKER_INFLUXDB_INIT_MODE":        "setup",
			"DOCKER_INFLUXDB_INIT_USERNAME":    "e2e",
			"DOCKER_INFLUXDB_INIT_PASSWORD":    "e2e-password",
			"DOCKER_INFLUXDB_INIT_ORG":         influxOrg,
			"DOCKER_INFLUXDB_INIT_BUCKET":      influxBucket,
			"DOCKER_INFLUXDB_INIT_ADMIN_TOKEN": influxToken,
		},
		WaitingFor: wait.ForHTTP("/health").WithPort("8086/tcp").WithStartupTimeout(60 * time.Second),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start influx container: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return cont, fmt.Sprintf("http://%s:%s", host, port.Port())
}

// startMosquitto spins up a basic Mosquitto broker for tests.
func startMosquitto(ctx context.Context, t *testing.T) (tc.Container, string) {
	t.Helper()
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:1.6",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	return cont, fmt.Sprintf("tcp://%s:%s", host, port.Port())
}

// Test_E2E_StorageRun runs one lossless storage optimization through the
// service with the Influx sink and the MQTT publisher attached, then reads
// both back.
func Test_E2E_StorageRun(t *testing.T) {
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	influxCont, influxURL := startInflux(ctx, t)
	defer influxCont.Terminate(ctx) //nolint:errcheck
	mqttCont, broker := startMosquitto(ctx, t)
	defer mqttCont.Terminate(ctx) //nolint:errcheck

	sub := paho.NewClient(paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-sub"))
	if tok := sub.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscriber connect: %v", tok.Error())
	}
	defer sub.Disconnect(250)
	got := make(chan coremqtt.ScheduleMessage, 1)
	if tok := sub.Subscribe("e2e/storage/+/schedule", 1, func(_ paho.Client, m paho.Message) {
		var msg coremqtt.ScheduleMessage
		if err := json.Unmarshal(m.Payload(), &msg); err == nil {
			got <- msg
		}
	}); tok.Wait() && tok.Error() != nil {
		t.Fatalf("subscribe: %v", tok.Error())
	}

	series := filepath.Join(t.TempDir(), "series.csv")
	if err := os.WriteFile(series, []byte("price\n10\n5\n20\n15\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	cfg := &config.Config{
		Grid:     config.GridConfig{Slots: 4, StepMinutes: 60, Start: time.Now().UTC().Truncate(time.Hour).Format(time.RFC3339)},
		Forecast: config.ForecastConfig{Source: config.SourceCSV, SeriesCSV: series},
		Metrics: coremetrics.Config{Sinks: []factory.ModuleConfig{{
			Type: "influx",
			Conf: map[string]any{"url": influxURL, "token": influxToken, "org": influxOrg, "bucket": influxBucket},
		}}},
		MQTT:   &mqtt.Config{Broker: broker, ClientID: "e2e-pub", TopicPrefix: "e2e", QoS: map[string]byte{"schedule": 1}},
		Output: config.OutputConfig{Format: config.FormatJSON},
	}
	cfg.Storage = &model.StorageAsset{ID: "bess", SoCMax: 100, InitialSoC: 50, MaxChargeKW: 50, MaxDischargeKW: 50}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("config: %v", err)
	}

	svc, err := app.New(cfg)
	if err != nil {
		t.Fatalf("service: %v", err)
	}
	var out bytes.Buffer
	res, err := svc.RunStorage(ctx, app.StorageOptions{}, &out)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if err := svc.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if math.Abs(res.Schedule.Revenue-1500) > 1e-6 {
		t.Fatalf("revenue %v, want 1500", res.Schedule.Revenue)
	}

	select {
	case msg := <-got:
		if msg.RunID != res.RunID || msg.Storage == nil || len(msg.Storage.Slots) != 4 {
			t.Fatalf("unexpected message %+v", msg)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("schedule not received")
	}

	cli := NewInfluxClient(influxURL, influxOrg, influxBucket, influxToken)
	defer cli.Close()
	runs, err := cli.CountRecords(ctx, "optimization_run", res.RunID)
	if err != nil {
		t.Fatalf("query runs: %v", err)
	}
	if runs == 0 {
		t.Fatal("no optimization_run points")
	}
	slots, err := cli.CountRecords(ctx, "storage_slot", res.RunID)
	if err != nil {
		t.Fatalf("query slots: %v", err)
	}
	// four fields per slot
	if slots != 16 {
		t.Fatalf("storage_slot records %d, want 16", slots)
	}
}
