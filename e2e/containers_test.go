//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	influxOrg    = "e2e_org"
	influxBucket = "e2e_bucket"
	influxToken  = "e2e-token"

	pollInterval = 50 * time.Millisecond
)

const mosquittoConf = `listener 1883
allow_anonymous true
persistence false
log_dest stdout
log_type error
log_type warning
connection_messages true
`

func requireDocker(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("docker"); err != nil {
		t.Skipf("docker not installed: %v", err)
	}
}

// startMosquitto launches a disposable broker and returns its URL. The
// container is terminated when the test ends.
func startMosquitto(ctx context.Context, t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mosquitto.conf")
	if err := os.WriteFile(path, []byte(mosquittoConf), 0o644); err != nil {
		t.Fatalf("write mosquitto conf: %v", err)
	}
	req := tc.ContainerRequest{
		Image:        "eclipse-mosquitto:2.0",
		ExposedPorts: []string{"1883/tcp"},
		WaitingFor:   wait.ForListeningPort("1883/tcp"),
		Files: []tc.ContainerFile{{
			HostFilePath:      path,
			ContainerFilePath: "/mosquitto/config/mosquitto.conf",
			FileMode:          0o644,
		}},
	}
	cont, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Skipf("unable to start mosquitto: %v", err)
	}
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })

	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "1883")
	broker := fmt.Sprintf("tcp://%s:%s", host, port.Port())

	waitCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := waitForMQTTReady(waitCtx, broker); err != nil {
		t.Fatalf("mosquitto not ready: %v", err)
	}
	return broker
}

func waitForMQTTReady(ctx context.Context, broker string) error {
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("probe")
	for {
		cli := paho.NewClient(opts)
		token := cli.Connect()
		token.Wait()
		if token.Error() == nil {
			cli.Disconnect(100)
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// startInflux starts an InfluxDB 2.7 container already set up with the e2e
// org, bucket and token, and returns its base URL.
func startInflux(ctx context.Context, t *testing.T) string {
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
	t.Cleanup(func() { _ = cont.Terminate(context.Background()) })
	host, _ := cont.Host(ctx)
	port, _ := cont.MappedPort(ctx, "8086")
	return fmt.Sprintf("http://%s:%s", host, port.Port())
}

// recorder subscribes to a topic filter and keeps the last payload per topic.
type recorder struct {
	cli  paho.Client
	msgs chan paho.Message
}

func newRecorder(t *testing.T, broker, filter string) *recorder {
	t.Helper()
	r := &recorder{msgs: make(chan paho.Message, 64)}
	opts := paho.NewClientOptions().AddBroker(broker).SetClientID("e2e-recorder")
	r.cli = paho.NewClient(opts)
	if tok := r.cli.Connect(); tok.Wait() && tok.Error() != nil {
		t.Fatalf("recorder connect: %v", tok.Error())
	}
	if tok := r.cli.Subscribe(filter, 1, func(_ paho.Client, m paho.Message) { r.msgs <- m }); tok.Wait() && tok.Error() != nil {
		t.Fatalf("recorder subscribe: %v", tok.Error())
	}
	t.Cleanup(func() { r.cli.Disconnect(100) })
	return r
}

// collect gathers messages until every wanted topic was seen or the timeout
// elapses.
func (r *recorder) collect(wanted []string, timeout time.Duration) map[string]string {
	got := map[string]string{}
	deadline := time.After(timeout)
	for {
		done := true
		for _, w := range wanted {
			if _, ok := got[w]; !ok {
				done = false
				break
			}
		}
		if done {
			return got
		}
		select {
		case m := <-r.msgs:
			got[m.Topic()] = string(m.Payload())
		case <-deadline:
			return got
		}
	}
}

func (r *recorder) publish(t *testing.T, topic string, retained bool, payload []byte) {
	t.Helper()
	if tok := r.cli.Publish(topic, 1, retained, payload); tok.Wait() && tok.Error() != nil {
		t.Fatalf("publish %s: %v", topic, tok.Error())
	}
}
