package gateway

import (
	"context"
	"encoding/json"
	"testing"

	"arbiter-hq/arbiter/pkg/enforce"
	"arbiter-hq/arbiter/pkg/nonce"
	"arbiter-hq/arbiter/pkg/provenance"
	"arbiter-hq/arbiter/pkg/provenance/ledger"
	"arbiter-hq/arbiter/pkg/provenance/lineage"
	"arbiter-hq/arbiter/pkg/provenance/signer"
	"arbiter-hq/arbiter/pkg/provenance/storage"
)

func newTestGateway(t *testing.T, cfg *Config) (*Gateway, *storage.MemoryStore) {
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
	engine := enforce.NewEngine(rules, nil)
	nonces := nonce.NewManager(nonce.NewMemoryStore(), nil, nil)

	gw, err := New(engine, nonces, led, lin, cfg, nil, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return gw, store
}

func issueToken(t *testing.T, gw *Gateway) string {
	t.Helper()
	n, err := gw.IssueNonce(context.Background())
	if err != nil {
		t.Fatalf("IssueNonce() error = %v", err)
	}
	return n.Token
}

func TestGateway_Decide_AllowPath(t *testing.T) {
	gw, _ := newTestGateway(t, nil)
	ctx := context.Background()

	result, err := gw.Decide(ctx, &Request{
		TraceID:    "t1",
		NonceToken: issueToken(t, gw),
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if result.Status != StatusDecided {
		t.Fatalf("Status = %s, want decided", result.Status)
	}
	if result.Decision.Kind != enforce.KindAllow {
		t.Errorf("Kind = %s, want ALLOW", result.Decision.Kind)
	}
	if result.Decision.TraceID != "t1" {
		t.Errorf("TraceID = %s, want t1", result.Decision.TraceID)
	}
	if result.Decision.Timestamp.IsZero() {
		t.Error("decision timestamp was not stamped")
	}
	if result.Proof == nil || result.Proof.EventHash == "" {
		t.Fatal("decision carries no proof")
	}
	if !result.Proceed() {
		t.Error("ALLOW should let the caller proceed")
	}
}

func TestGateway_Decide_RecordsToLedger(t *testing.T) {
	gw, store := newTestGateway(t, nil)
	ctx := context.Background()

	result, err := gw.Decide(ctx, &Request{
		TraceID:    "t1",
		NonceToken: issueToken(t, gw),
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	events, err := store.Read(ctx, "t1")
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].Type != provenance.EventDecision {
		t.Errorf("Type = %s, want %s", events[0].Type, provenance.EventDecision)
	}
	if events[0].EventHash != result.Proof.EventHash {
		t.Error("proof does not match the recorded event")
	}

	// The recorded payload is the decision itself.
	var recorded enforce.Decision
	if err := json.Unmarshal(events[0].Payload, &recorded); err != nil {
		t.Fatalf("payload is not a decision: %v", err)
	}
	if recorded.RuleID != result.Decision.RuleID {
		t.Errorf("recorded RuleID = %s, want %s", recorded.RuleID, result.Decision.RuleID)
	}
}

func TestGateway_Decide_BlockIsStillDecided(t *testing.T) {
	gw, _ := newTestGateway(t, nil)

	result, err := gw.Decide(context.Background(), &Request{
		TraceID:    "t1",
		NonceToken: issueToken(t, gw),
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9, Signal: "bypass the rules"},
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if result.Status != StatusDecided {
		t.Errorf("Status = %s; BLOCK is a decision, not a rejection", result.Status)
	}
	if result.Decision.Kind != enforce.KindBlock {
		t.Errorf("Kind = %s, want BLOCK", result.Decision.Kind)
	}
	if result.ReasonCode != ReasonPolicyViolation {
		t.Errorf("ReasonCode = %s, want %s", result.ReasonCode, ReasonPolicyViolation)
	}
	if result.Proceed() {
		t.Error("BLOCK must not let the caller proceed")
	}
	if result.Proof == nil {
		t.Error("blocked decisions are signed and recorded too")
	}
}

func TestGateway_Decide_MissingNonce(t *testing.T) {
	gw, store := newTestGateway(t, nil)

	result, err := gw.Decide(context.Background(), &Request{
		TraceID: "t1",
		Context: &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if result.Status != StatusRejected {
		t.Fatalf("Status = %s, want rejected", result.Status)
	}
	if result.ReasonCode != ReasonNonceRequired {
		t.Errorf("ReasonCode = %s, want %s", result.ReasonCode, ReasonNonceRequired)
	}
	if result.Decision != nil {
		t.Error("rejected requests carry no decision")
	}

	// Nothing was evaluated, nothing was recorded.
	events, _ := store.Read(context.Background(), "t1")
	if len(events) != 0 {
		t.Errorf("ledger has %d events, want 0", len(events))
	}
}

func TestGateway_Decide_Replay(t *testing.T) {
	gw, store := newTestGateway(t, nil)
	ctx := context.Background()
	token := issueToken(t, gw)

	req := &Request{
		TraceID:    "t1",
		NonceToken: token,
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	}

	if _, err := gw.Decide(ctx, req); err != nil {
		t.Fatalf("first Decide() error = %v", err)
	}

	replay, err := gw.Decide(ctx, req)
	if err != nil {
		t.Fatalf("second Decide() error = %v", err)
	}
	if replay.Status != StatusRejected {
		t.Fatalf("Status = %s, want rejected", replay.Status)
	}
	if replay.ReasonCode != ReasonReplay {
		t.Errorf("ReasonCode = %s, want %s", replay.ReasonCode, ReasonReplay)
	}
	if replay.RejectionCode != nonce.CodeAlreadyConsumed {
		t.Errorf("RejectionCode = %s, want ALREADY_CONSUMED", replay.RejectionCode)
	}

	// Only the first request reached the ledger.
	events, _ := store.Read(ctx, "t1")
	if len(events) != 1 {
		t.Errorf("ledger has %d events, want 1", len(events))
	}
}

func TestGateway_Decide_AutoNonceMode(t *testing.T) {
	gw, _ := newTestGateway(t, &Config{NonceMode: NonceModeAuto})

	result, err := gw.Decide(context.Background(), &Request{
		TraceID: "t1",
		Context: &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if result.Status != StatusDecided {
		t.Errorf("Status = %s; auto mode should evaluate tokenless requests", result.Status)
	}
}

func TestGateway_Decide_MalformedRequest(t *testing.T) {
	gw, _ := newTestGateway(t, nil)
	ctx := context.Background()

	if _, err := gw.Decide(ctx, nil); err == nil {
		t.Error("nil request should error")
	}
	if _, err := gw.Decide(ctx, &Request{Context: &enforce.RequestContext{}}); err == nil {
		t.Error("missing trace id should error")
	}
	if _, err := gw.Decide(ctx, &Request{TraceID: "t1"}); err == nil {
		t.Error("missing context should error")
	}
}

func TestGateway_Decide_LedgerUnavailable(t *testing.T) {
	gw, _ := newTestGateway(t, nil)

	// Closing the nonce store does not matter for the memory backend, so
	// break the ledger instead by swapping in a failing store.
	failing := &failingStore{}
	sgn, _ := signer.New(signer.Key{ID: "test-key", Secret: []byte("test-secret")})
	led, err := ledger.New(failing, sgn, nil)
	if err != nil {
		t.Fatalf("ledger.New() error = %v", err)
	}
	gw.ledger = led

	result, err := gw.Decide(context.Background(), &Request{
		TraceID:    "t1",
		NonceToken: issueToken(t, gw),
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	})
	if err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if result.Status != StatusDecided {
		t.Fatalf("Status = %s, want decided", result.Status)
	}
	if result.Decision.Kind != enforce.KindBlock {
		t.Errorf("Kind = %s, want BLOCK", result.Decision.Kind)
	}
	if result.Decision.RuleID != enforce.RuleIDLedgerUnavailable {
		t.Errorf("RuleID = %s, want %s", result.Decision.RuleID, enforce.RuleIDLedgerUnavailable)
	}
	if result.Proof != nil {
		t.Error("an unrecorded decision must not carry a proof")
	}
	if result.ReasonCode != ReasonInternalFault {
		t.Errorf("ReasonCode = %s, want %s", result.ReasonCode, ReasonInternalFault)
	}
}

func TestGateway_RecordAndTrace(t *testing.T) {
	gw, _ := newTestGateway(t, nil)
	ctx := context.Background()

	if _, err := gw.Decide(ctx, &Request{
		TraceID:    "t1",
		NonceToken: issueToken(t, gw),
		Context:    &enforce.RequestContext{Domain: "general", Confidence: 0.9},
	}); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}

	if _, err := gw.Record(ctx, "t1", provenance.EventRoutingDecision, map[string]any{"route": "specialist"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if _, err := gw.Record(ctx, "t1", provenance.EventAgentExecution, map[string]any{"agent": "drafter"}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	report, err := gw.Trace(ctx, "t1")
	if err != nil {
		t.Fatalf("Trace() error = %v", err)
	}
	if !report.Valid {
		t.Errorf("chain invalid: %s", report.Reason)
	}
	if len(report.Events) != 3 {
		t.Errorf("len(Events) = %d, want 3", len(report.Events))
	}
}

// failingStore fails every append, for exercising the ledger-unavailable
// path.
type failingStore struct{}

func (f *failingStore) Append(ctx context.Context, event *provenance.SignedEvent) error {
	return provenance.NewStorageError("test", "append", context.DeadlineExceeded)
}

func (f *failingStore) Tail(ctx context.Context, traceID string) (*provenance.SignedEvent, error) {
	return nil, nil
}

func (f *failingStore) Read(ctx context.Context, traceID string) ([]*provenance.SignedEvent, error) {
	return nil, nil
}

func (f *failingStore) Close() error { return nil }
