package bus

import (
	"context"
	"testing"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/catalog"
	"github.com/reoring/ocppskema/internal/metrics"
)

func startValidator(t *testing.T, forward string) (*nats.Conn, *metrics.Metrics) {
	t.Helper()
	nc, ns, err := StartEmbedded(EmbeddedOptions{Port: -1, InProcess: true})
	require.NoError(t, err)
	t.Cleanup(func() {
		nc.Close()
		ns.Shutdown()
	})

	m := metrics.New(prometheus.NewRegistry())
	v := NewValidator(nc, Options{
		Registry: catalog.Default(),
		Subject:  "ocpp.validate.>",
		Queue:    "ocppskema",
		Forward:  forward,
		Parse:    ocppskema.DefaultParseOpt(),
		Mode:     ocppskema.Deep,
		Metrics:  m,
		Logger:   zerolog.Nop(),
		Timeout:  time.Second,
	})
	require.NoError(t, v.Start())
	t.Cleanup(func() { _ = v.Stop() })
	require.NoError(t, nc.Flush())
	return nc, m
}

func request(t *testing.T, nc *nats.Conn, data, pending string) *nats.Msg {
	t.Helper()
	msg := nats.NewMsg("ocpp.validate.CS001")
	msg.Data = []byte(data)
	if pending != "" {
		msg.Header.Set(HeaderPendingAction, pending)
	}
	reply, err := nc.RequestMsg(msg, 2*time.Second)
	require.NoError(t, err)
	return reply
}

func TestValidator_ValidFrameEchoed(t *testing.T) {
	nc, m := startValidator(t, "")
	frame := `[2,"m1","Heartbeat",{}]`
	reply := request(t, nc, frame, "")
	assert.Equal(t, "true", reply.Header.Get(HeaderValid))
	assert.Equal(t, "HeartbeatRequest", reply.Header.Get(HeaderType))
	assert.Equal(t, frame, string(reply.Data))
	require.Contains(t, reply.Header, HeaderErrorCode)
	assert.Empty(t, reply.Header.Get(HeaderErrorCode))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("nats", "HeartbeatRequest", "deep", "valid")))
}

func TestValidator_InvalidCallAnsweredWithCallError(t *testing.T) {
	nc, _ := startValidator(t, "")
	reply := request(t, nc, `[2,"m2","BootNotification",{"chargingStation":{"model":"M"},"reason":"PowerUp"}]`, "")
	assert.Equal(t, "false", reply.Header.Get(HeaderValid))
	assert.Equal(t, "OccurrenceConstraintViolation", reply.Header.Get(HeaderErrorCode))
	assert.Contains(t, string(reply.Data), `[4,"m2","OccurrenceConstraintViolation"`)
}

func TestValidator_CallResultUsesPendingAction(t *testing.T) {
	nc, _ := startValidator(t, "")
	reply := request(t, nc, `[3,"m3",{"currentTime":"2025-01-02T03:04:05Z"}]`, "Heartbeat")
	assert.Equal(t, "true", reply.Header.Get(HeaderValid))
	assert.Equal(t, "HeartbeatResponse", reply.Header.Get(HeaderType))

	reply = request(t, nc, `[3,"m4",{}]`, "")
	assert.Equal(t, "false", reply.Header.Get(HeaderValid))
	assert.Empty(t, reply.Data)
}

func TestValidator_InvalidSendHasNoReplyFrame(t *testing.T) {
	nc, _ := startValidator(t, "")
	reply := request(t, nc, `[6,"m6","Heartbeat",{"x":1}]`, "")
	assert.Equal(t, "false", reply.Header.Get(HeaderValid))
	assert.Equal(t, "HeartbeatRequest", reply.Header.Get(HeaderType))
	require.Contains(t, reply.Header, HeaderErrorCode)
	assert.Empty(t, reply.Header.Get(HeaderErrorCode))
	assert.Empty(t, reply.Data)
}

func TestValidator_MalformedFrame(t *testing.T) {
	nc, m := startValidator(t, "")
	reply := request(t, nc, `[2,"m5",`, "")
	assert.Equal(t, "false", reply.Header.Get(HeaderValid))
	assert.Equal(t, "FormatViolation", reply.Header.Get(HeaderErrorCode))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseFailures.WithLabelValues("nats", "parse_error")))
}

func TestValidator_ForwardsValidFrames(t *testing.T) {
	nc, _ := startValidator(t, "ocpp.accepted")
	sub, err := nc.SubscribeSync("ocpp.accepted")
	require.NoError(t, err)
	require.NoError(t, nc.Flush())

	request(t, nc, `[2,"bad","Heartbeat",{"x":1}]`, "")
	request(t, nc, `[2,"good","Heartbeat",{}]`, "")

	msg, err := sub.NextMsg(2 * time.Second)
	require.NoError(t, err)
	assert.Equal(t, `[2,"good","Heartbeat",{}]`, string(msg.Data))
	assert.Equal(t, "HeartbeatRequest", msg.Header.Get(HeaderType))
}

func TestValidator_RunStopsOnCancel(t *testing.T) {
	nc, ns, err := StartEmbedded(EmbeddedOptions{Port: -1, InProcess: true})
	require.NoError(t, err)
	defer ns.Shutdown()
	defer nc.Close()

	v := NewValidator(nc, Options{Registry: catalog.Default(), Subject: "ocpp.run", Logger: zerolog.Nop()})
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- v.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("validator did not stop")
	}
}

func TestValidator_EmptySubject(t *testing.T) {
	v := NewValidator(nil, Options{})
	assert.Error(t, v.Start())
}
