package server

import (
	"bytes"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reoring/ocppskema"
	"github.com/reoring/ocppskema/catalog"
	"github.com/reoring/ocppskema/internal/config"
	"github.com/reoring/ocppskema/internal/metrics"
)

type diagView struct {
	Path string `json:"path"`
	Kind string `json:"kind"`
	Code string `json:"code"`
}

type validateView struct {
	Type        string     `json:"type"`
	Mode        string     `json:"mode"`
	Valid       bool       `json:"valid"`
	Diagnostics []diagView `json:"diagnostics"`
}

type frameView struct {
	Valid       bool            `json:"valid"`
	MessageType string          `json:"messageType"`
	Type        string          `json:"type"`
	Reply       json.RawMessage `json:"reply"`
}

type errorView struct {
	Error       string     `json:"error"`
	Diagnostics []diagView `json:"diagnostics"`
}

func newTestServer(t *testing.T) (*Server, *metrics.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	s := New(Options{
		Catalog:  catalog.Default(),
		Parse:    ocppskema.DefaultParseOpt(),
		Mode:     ocppskema.Deep,
		MaxBody:  4096,
		Metrics:  m,
		Gatherer: reg,
		Logger:   zerolog.Nop(),
	})
	return s, m, reg
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v), rec.Body.String())
}

func TestHealth(t *testing.T) {
	s, _, _ := newTestServer(t)
	rec := do(t, s.Routes(), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestRequestID_ReusesInbound(t *testing.T) {
	s, _, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec := httptest.NewRecorder()
	s.Routes().ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))
}

func TestValidate_Valid(t *testing.T) {
	s, m, _ := newTestServer(t)
	body := `{"chargingStation":{"model":"M","vendorName":"V"},"reason":"PowerUp"}`
	rec := do(t, s.Routes(), http.MethodPost, "/validate/BootNotificationRequest", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateView
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, "deep", resp.Mode)
	assert.Empty(t, resp.Diagnostics)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues("http", "BootNotificationRequest", "deep", "valid")))
}

func TestValidate_ReportsEveryFinding(t *testing.T) {
	s, _, _ := newTestServer(t)
	body := `{"chargingStation":{"model":1},"reason":"Bogus","extra":true}`
	rec := do(t, s.Routes(), http.MethodPost, "/validate/BootNotificationRequest?mode=deep", body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp validateView
	decodeBody(t, rec, &resp)
	assert.False(t, resp.Valid)
	var codes []string
	for _, d := range resp.Diagnostics {
		codes = append(codes, d.Path+" "+d.Code)
	}
	assert.Equal(t, []string{
		"/reason invalid_enum",
		"/extra unknown_key",
		"/chargingStation/model invalid_type",
		"/chargingStation/vendorName required",
	}, codes)
}

func TestValidate_ShallowMode(t *testing.T) {
	s, _, _ := newTestServer(t)
	body := `{"chargingStation":{"model":1},"reason":"PowerUp"}`
	rec := do(t, s.Routes(), http.MethodPost, "/validate/BootNotificationRequest?mode=shallow", body)
	var resp validateView
	decodeBody(t, rec, &resp)
	assert.True(t, resp.Valid)
	assert.Equal(t, "shallow", resp.Mode)
}

func TestValidate_Errors(t *testing.T) {
	s, m, _ := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, http.MethodPost, "/validate/NopeRequest", `{}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, h, http.MethodPost, "/validate/HeartbeatRequest?mode=medium", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodPost, "/validate/HeartbeatRequest", `{"a":1,"a":2}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp errorView
	decodeBody(t, rec, &resp)
	require.Len(t, resp.Diagnostics, 1)
	assert.Equal(t, "duplicate_key", resp.Diagnostics[0].Code)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ParseFailures.WithLabelValues("http", "duplicate_key")))

	rec = do(t, h, http.MethodPost, "/validate/HeartbeatRequest", `{"customData":{"vendorId":"`+strings.Repeat("x", 5000)+`"}}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestFrames(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, http.MethodPost, "/frames", `[2,"m1","Heartbeat",{}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	var ok frameView
	decodeBody(t, rec, &ok)
	assert.True(t, ok.Valid)
	assert.Equal(t, "CALL", ok.MessageType)
	assert.Equal(t, "HeartbeatRequest", ok.Type)
	assert.Empty(t, ok.Reply)

	rec = do(t, h, http.MethodPost, "/frames?pending=Heartbeat", `[3,"m1",{"currentTime":"later"}]`)
	require.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]json.RawMessage
	decodeBody(t, rec, &raw)
	assert.JSONEq(t, `false`, string(raw["valid"]))
	assert.Contains(t, string(raw["reply"]), `[5,"m1","TypeConstraintViolation"`)

	rec = do(t, h, http.MethodPost, "/frames", `[2,"m2","FlyToMoon",{}]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	decodeBody(t, rec, &raw)
	assert.Contains(t, string(raw["reply"]), `"NotImplemented"`)
}

func TestTypesAndSchema(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Routes()

	rec := do(t, h, http.MethodGet, "/types?messages=true", "")
	var ids []string
	decodeBody(t, rec, &ids)
	assert.Contains(t, ids, "BootNotificationRequest")
	assert.NotContains(t, ids, "ChargingProfileType")

	rec = do(t, h, http.MethodGet, "/types/HeartbeatResponse/schema", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sch map[string]any
	decodeBody(t, rec, &sch)
	assert.Equal(t, "urn:OCPP:Cp:2:2025:1:HeartbeatResponse", sch["$id"])

	rec = do(t, h, http.MethodGet, "/types/Nope/schema", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s, _, _ := newTestServer(t)
	h := s.Routes()
	do(t, h, http.MethodPost, "/validate/HeartbeatRequest", `{}`)
	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	body, _ := io.ReadAll(rec.Body)
	assert.True(t, bytes.Contains(body, []byte(`ocppskema_validations_total{mode="deep",result="valid",transport="http",type="HeartbeatRequest"} 1`)), string(body))
	assert.True(t, bytes.Contains(body, []byte(`ocppskema_http_requests_total{method="POST",route="/validate/{type}",status="200"} 1`)), string(body))
}

func TestRun_ShutsDownOnCancel(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	s, _, _ := newTestServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := Run(ctx, config.HTTP{Addr: addr, ShutdownTimeout: time.Second}, s.Routes(), zerolog.Nop())

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/health")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not shut down")
	}
}
