package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"arbiter-hq/arbiter/pkg/enforce"
	"arbiter-hq/arbiter/pkg/nonce"
	"arbiter-hq/arbiter/pkg/provenance"
	"arbiter-hq/arbiter/pkg/provenance/ledger"
	"arbiter-hq/arbiter/pkg/provenance/lineage"
	"arbiter-hq/arbiter/pkg/telemetry/metrics"
)

// NonceMode controls what happens when a request arrives without a token.
type NonceMode string

const (
	// NonceModeRequire rejects tokenless requests. This is the default;
	// auto-issuance weakens replay protection for callers that omit the
	// token.
	NonceModeRequire NonceMode = "require"

	// NonceModeAuto issues a token on the caller's behalf when none is
	// supplied. Intended for development; issuance still goes through the
	// manager so the token is tracked like any other.
	NonceModeAuto NonceMode = "auto"
)

// Config contains configuration for the gateway.
type Config struct {
	// NonceMode selects require or auto-issue behavior.
	// Default: require
	NonceMode NonceMode
}

// DefaultConfig returns the default gateway configuration.
func DefaultConfig() *Config {
	return &Config{NonceMode: NonceModeRequire}
}

// Gateway is the orchestration boundary of the enforcement pipeline.
// Safe for concurrent use by many callers.
type Gateway struct {
	engine  *enforce.Engine
	nonces  *nonce.Manager
	ledger  *ledger.Ledger
	lineage *lineage.Service
	config  *Config
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New creates a gateway. Metrics may be nil to disable instrumentation.
func New(engine *enforce.Engine, nonces *nonce.Manager, led *ledger.Ledger, lin *lineage.Service, config *Config, m *metrics.Metrics, logger *slog.Logger) (*Gateway, error) {
	if engine == nil || nonces == nil || led == nil || lin == nil {
		return nil, fmt.Errorf("gateway requires engine, nonce manager, ledger, and lineage service")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Gateway{
		engine:  engine,
		nonces:  nonces,
		ledger:  led,
		lineage: lin,
		config:  config,
		metrics: m,
		logger:  logger.With("component", "gateway"),
	}, nil
}

// Decide runs the full pipeline for one request. It returns an error only
// for malformed input; every runtime outcome, including internal faults,
// terminates as a structured Result.
func (g *Gateway) Decide(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || req.TraceID == "" {
		return nil, fmt.Errorf("request must carry a trace id")
	}
	if req.Context == nil {
		return nil, fmt.Errorf("request must carry a context")
	}

	logger := g.logger.With("trace_id", req.TraceID)

	// Stage 1: replay protection, before any evaluation.
	if result := g.checkNonce(ctx, req, logger); result != nil {
		return result, nil
	}

	// Stage 2: evaluation. Evaluate is total; faults surface as the
	// ENGINE-FAILSAFE decision, which flows through signing and append
	// like any other.
	start := time.Now()
	decision := g.engine.Evaluate(req.Context)
	decision.TraceID = req.TraceID
	decision.Timestamp = time.Now().UTC()

	if g.metrics != nil {
		g.metrics.Decisions.RecordDecision(string(decision.Kind), decision.RuleID, time.Since(start))
	}

	// Stages 3+4: sign and append, detached from caller cancellation so
	// the decision and its ledger entry stand or fall together.
	appendStart := time.Now()
	event, err := g.ledger.Append(context.WithoutCancel(ctx), req.TraceID, provenance.EventDecision, decision)
	if g.metrics != nil {
		g.metrics.Ledger.RecordAppend(string(provenance.EventDecision), err, time.Since(appendStart))
	}
	if err != nil {
		logger.Error("ledger append failed, degrading to refusal", "error", err)
		return g.ledgerUnavailable(req), nil
	}

	logger.Info("decision recorded",
		"decision", decision.Kind,
		"rule_id", decision.RuleID,
		"policy_source", decision.Source,
		"sequence_index", event.Sequence,
	)

	return &Result{
		Status:     StatusDecided,
		ReasonCode: reasonFor(decision),
		Decision:   decision,
		Proof: &provenance.Proof{
			EventHash: event.EventHash,
			Signature: event.Signature,
			Algorithm: event.Algorithm,
			KeyID:     event.KeyID,
			Timestamp: event.Timestamp,
		},
	}, nil
}

// checkNonce enforces replay protection. It returns a rejection result,
// or nil when the pipeline may proceed.
func (g *Gateway) checkNonce(ctx context.Context, req *Request, logger *slog.Logger) *Result {
	token := req.NonceToken

	if token == "" {
		if g.config.NonceMode != NonceModeAuto {
			logger.Warn("request without nonce rejected")
			return &Result{
				Status:        StatusRejected,
				ReasonCode:    ReasonNonceRequired,
				RejectionCode: nonce.CodeUnknown,
			}
		}

		issued, err := g.nonces.Issue(ctx)
		if err != nil {
			logger.Error("nonce auto-issuance failed", "error", err)
			return &Result{
				Status:        StatusRejected,
				ReasonCode:    ReasonInternalFault,
				RejectionCode: nonce.CodeUnknown,
			}
		}
		if g.metrics != nil {
			g.metrics.Nonce.RecordIssued()
		}
		token = issued.Token
	}

	err := g.nonces.ValidateAndConsume(ctx, token)
	if err == nil {
		if g.metrics != nil {
			g.metrics.Nonce.RecordValidation("ok")
		}
		return nil
	}

	code, isValidation := nonce.CodeOf(err)
	if !isValidation {
		logger.Error("nonce store fault", "error", err)
		return &Result{
			Status:        StatusRejected,
			ReasonCode:    ReasonInternalFault,
			RejectionCode: nonce.CodeUnknown,
		}
	}

	if g.metrics != nil {
		g.metrics.Nonce.RecordValidation(string(code))
	}
	logger.Warn("replay rejected", "code", code)
	return &Result{
		Status:        StatusRejected,
		ReasonCode:    ReasonReplay,
		RejectionCode: code,
	}
}

// ledgerUnavailable builds the refusal returned when a decision could not
// be recorded. The caller never receives a decision the ledger does not
// hold, so the original verdict is withheld and replaced by a refusal.
func (g *Gateway) ledgerUnavailable(req *Request) *Result {
	return &Result{
		Status:     StatusDecided,
		ReasonCode: ReasonInternalFault,
		Decision: &enforce.Decision{
			Kind:      enforce.KindBlock,
			RuleID:    enforce.RuleIDLedgerUnavailable,
			Source:    enforce.SourceSafety,
			Reasoning: "decision could not be recorded to the provenance ledger; refusing by default",
			TraceID:   req.TraceID,
			Timestamp: time.Now().UTC(),
		},
	}
}

// IssueNonce issues a token for a caller that wants to supply one
// explicitly.
func (g *Gateway) IssueNonce(ctx context.Context) (*nonce.Nonce, error) {
	n, err := g.nonces.Issue(ctx)
	if err != nil {
		return nil, err
	}
	if g.metrics != nil {
		g.metrics.Nonce.RecordIssued()
	}
	return n, nil
}

// Record appends an auxiliary auditable fact (routing choice, learning
// update, downstream execution) to a trace. It shares the decision
// pipeline's signing and chaining.
func (g *Gateway) Record(ctx context.Context, traceID string, eventType provenance.EventType, details map[string]any) (*provenance.SignedEvent, error) {
	start := time.Now()
	event, err := g.ledger.Append(context.WithoutCancel(ctx), traceID, eventType, details)
	if g.metrics != nil {
		g.metrics.Ledger.RecordAppend(string(eventType), err, time.Since(start))
	}
	return event, err
}

// Trace reads and verifies the full chain for a trace id.
func (g *Gateway) Trace(ctx context.Context, traceID string) (*lineage.Report, error) {
	report, err := g.lineage.Verify(ctx, traceID)
	if err != nil {
		return nil, err
	}
	if g.metrics != nil {
		g.metrics.Lineage.RecordVerification(report.Valid)
	}
	return report, nil
}
