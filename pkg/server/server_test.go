package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"arbiter-hq/arbiter/pkg/config"
	"arbiter-hq/arbiter/pkg/enforce"
	"arbiter-hq/arbiter/pkg/gateway"
	"arbiter-hq/arbiter/pkg/nonce"
	"arbiter-hq/arbiter/pkg/provenance/ledger"
	"arbiter-hq/arbiter/pkg/provenance/lineage"
	"arbiter-hq/arbiter/pkg/provenance/signer"
	"arbiter-hq/arbiter/pkg/provenance/storage"
	"arbiter-hq/arbiter/pkg/telemetry/metrics"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	sgn, err := signer.New(signer.Key{ID: "test-key", Secret: []byte("test-secret")})
	if err != nil {
		t.Fatalf("signer.New() error = %v", err)
	}
	store := storage.NewMemoryStore()
	led, err := ledger.New(store, sgn, nil)
	if err != nil {
		t.Fatalf("ledger.New() error = %v", err)
	}
	lin, err := lineage.NewService(store, sgn, nil)
	if err != nil {
		t.Fatalf("lineage.NewService() error = %v", err)
	}
	rules, err := enforce.NewRuleSet(enforce.DefaultRules())
	if err != nil {
		t.Fatalf("NewRuleSet() error = %v", err)
	}
	gw, err := gateway.New(
		enforce.NewEngine(rules, nil),
		nonce.NewManager(nonce.NewMemoryStore(), nil, nil),
		led, lin, nil, nil, nil,
	)
	if err != nil {
		t.Fatalf("gateway.New() error = %v", err)
	}

	serverCfg := &config.ServerConfig{ListenAddress: "127.0.0.1:0"}
	metricsCfg := &config.MetricsConfig{Enabled: true, Path: "/metrics"}
	srv, err := New(serverCfg, metricsCfg, gw, metrics.New(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func issueNonce(t *testing.T, ts *httptest.Server) string {
	t.Helper()

	resp, err := http.Post(ts.URL+"/v1/nonces", "application/json", nil)
	if err != nil {
		t.Fatalf("POST /v1/nonces error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("POST /v1/nonces status = %d, want 201", resp.StatusCode)
	}

	var body struct {
		Nonce string `json:"nonce"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode nonce response: %v", err)
	}
	if body.Nonce == "" {
		t.Fatal("empty nonce in response")
	}
	return body.Nonce
}

func postDecision(t *testing.T, ts *httptest.Server, req *gateway.Request) (*http.Response, *gateway.Result) {
	t.Helper()

	payload, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	resp, err := http.Post(ts.URL+"/v1/decisions", "application/json", bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("POST /v1/decisions error = %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	var result gateway.Result
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("decode decision response: %v", err)
	}
	return resp, &result
}

func TestServer_DecisionEndpoint(t *testing.T) {
	ts := newTestServer(t)

	resp, result := postDecision(t, ts, &gateway.Request{
		TraceID:    "t1",
		NonceToken: issueNonce(t, ts),
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	})

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if result.Status != gateway.StatusDecided {
		t.Errorf("Status = %s, want decided", result.Status)
	}
	if result.Decision == nil || result.Decision.Kind != enforce.KindAllow {
		t.Errorf("Decision = %+v, want ALLOW", result.Decision)
	}
	if result.Proof == nil {
		t.Error("response carries no proof")
	}
	if resp.Header.Get(RequestIDHeader) == "" {
		t.Error("response is missing the request id header")
	}
}

func TestServer_DecisionEndpoint_BlockedIsStill200(t *testing.T) {
	ts := newTestServer(t)

	resp, result := postDecision(t, ts, &gateway.Request{
		TraceID:    "t2",
		NonceToken: issueNonce(t, ts),
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9, Signal: "bypass everything"},
	})

	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if result.Decision == nil || result.Decision.Kind != enforce.KindBlock {
		t.Errorf("Decision = %+v, want BLOCK", result.Decision)
	}
}

func TestServer_DecisionEndpoint_Rejections(t *testing.T) {
	ts := newTestServer(t)

	t.Run("missing nonce", func(t *testing.T) {
		resp, result := postDecision(t, ts, &gateway.Request{
			TraceID: "t3",
			Context: &enforce.RequestContext{Domain: "general", Confidence: 0.9},
		})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", resp.StatusCode)
		}
		if result.ReasonCode != gateway.ReasonNonceRequired {
			t.Errorf("ReasonCode = %s", result.ReasonCode)
		}
	})

	t.Run("replayed nonce", func(t *testing.T) {
		req := &gateway.Request{
			TraceID:    "t4",
			NonceToken: issueNonce(t, ts),
			Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9},
		}
		if resp, _ := postDecision(t, ts, req); resp.StatusCode != http.StatusOK {
			t.Fatalf("first request status = %d", resp.StatusCode)
		}
		resp, result := postDecision(t, ts, req)
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("status = %d, want 409", resp.StatusCode)
		}
		if result.RejectionCode != nonce.CodeAlreadyConsumed {
			t.Errorf("RejectionCode = %s, want ALREADY_CONSUMED", result.RejectionCode)
		}
	})

	t.Run("invalid body", func(t *testing.T) {
		resp, err := http.Post(ts.URL+"/v1/decisions", "application/json", bytes.NewReader([]byte("{")))
		if err != nil {
			t.Fatalf("POST error = %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", resp.StatusCode)
		}
	})
}

func TestServer_TraceEndpoint(t *testing.T) {
	ts := newTestServer(t)

	postDecision(t, ts, &gateway.Request{
		TraceID:    "t5",
		NonceToken: issueNonce(t, ts),
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	})

	resp, err := http.Get(ts.URL + "/v1/traces/t5")
	if err != nil {
		t.Fatalf("GET /v1/traces error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var report lineage.Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		t.Fatalf("decode report: %v", err)
	}
	if !report.Valid {
		t.Errorf("report invalid: %s", report.Reason)
	}
	if len(report.Events) != 1 {
		t.Errorf("len(Events) = %d, want 1", len(report.Events))
	}
}

func TestServer_TraceEndpoint_NotFound(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/traces/absent")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
}

func TestServer_HealthAndMetrics(t *testing.T) {
	ts := newTestServer(t)

	for _, path := range []string{"/healthz", "/metrics"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s error = %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200", path, resp.StatusCode)
		}
	}
}

func TestServer_MethodNotAllowed(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/v1/decisions")
	if err != nil {
		t.Fatalf("GET error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestServer_ClientRequestIDIsEchoed(t *testing.T) {
	ts := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	if err != nil {
		t.Fatalf("NewRequest error = %v", err)
	}
	req.Header.Set(RequestIDHeader, "client-supplied-id")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	defer resp.Body.Close()

	if got := resp.Header.Get(RequestIDHeader); got != "client-supplied-id" {
		t.Errorf("request id = %q, want the client-supplied id", got)
	}
}
