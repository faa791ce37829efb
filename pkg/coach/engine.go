// Package coach runs one day's coaching evaluation end to end: audit gate,
// snapshot cache, risk agents, veto engine, status resolver and the
// decision ledger.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"

	"github.com/MartinT518/APEX-performance-sub001/pkg/agents"
	"github.com/MartinT518/APEX-performance-sub001/pkg/auditgate"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
	"github.com/MartinT518/APEX-performance-sub001/pkg/observability"
	"github.com/MartinT518/APEX-performance-sub001/pkg/phase"
	"github.com/MartinT518/APEX-performance-sub001/pkg/retry"
	"github.com/MartinT518/APEX-performance-sub001/pkg/session"
	"github.com/MartinT518/APEX-performance-sub001/pkg/snapshot"
	"github.com/MartinT518/APEX-performance-sub001/pkg/status"
	"github.com/MartinT518/APEX-performance-sub001/pkg/substitution"
)

// DefaultLedgerCapacity bounds the in-memory decision ledger.
const DefaultLedgerCapacity = 10000

// Options wires an Engine. Only Cache is required.
type Options struct {
	Cache     *snapshot.Cache
	Builder   *session.Builder
	Panel     *agents.Panel
	Vetoes    *substitution.Engine
	Calendar  *phase.Calendar
	Ledger    *Ledger
	Telemetry *observability.Provider
	Logger    *slog.Logger
	Clock     func() time.Time
	NewID     func() string
}

// Engine produces daily decisions. It is safe for concurrent use; two
// concurrent evaluations of the same day race on the snapshot upsert and
// the last write wins.
type Engine struct {
	cache     *snapshot.Cache
	builder   *session.Builder
	panel     *agents.Panel
	vetoes    *substitution.Engine
	calendar  *phase.Calendar
	ledger    *Ledger
	telemetry *observability.Provider
	logger    *slog.Logger
	clock     func() time.Time
	newID     func() string
}

// New builds an engine, filling unset options with defaults.
func New(opts Options) (*Engine, error) {
	if opts.Cache == nil {
		return nil, errors.New("coach: snapshot cache is required")
	}
	e := &Engine{
		cache:     opts.Cache,
		builder:   opts.Builder,
		panel:     opts.Panel,
		vetoes:    opts.Vetoes,
		calendar:  opts.Calendar,
		ledger:    opts.Ledger,
		telemetry: opts.Telemetry,
		logger:    opts.Logger,
		clock:     opts.Clock,
		newID:     opts.NewID,
	}
	if e.builder == nil {
		e.builder = session.NewBuilder()
	}
	if e.panel == nil {
		e.panel = agents.NewPanel(agents.DefaultThresholds())
	}
	if e.vetoes == nil {
		e.vetoes = substitution.NewEngine(nil)
	}
	if e.calendar == nil {
		e.calendar = phase.Static(phase.DefaultFallback())
	}
	if e.ledger == nil {
		e.ledger = NewLedger(DefaultLedgerCapacity)
	}
	if e.telemetry == nil {
		p, err := observability.New(context.Background(), &observability.Config{Enabled: false})
		if err != nil {
			return nil, fmt.Errorf("coach: telemetry: %w", err)
		}
		e.telemetry = p
	}
	if e.logger == nil {
		e.logger = slog.Default().With("component", "coach")
	}
	if e.clock == nil {
		e.clock = time.Now
	}
	if e.newID == nil {
		e.newID = uuid.NewString
	}
	return e, nil
}

// Ledger returns the decision ledger.
func (e *Engine) Ledger() *Ledger { return e.ledger }

// RuleVersion returns the version of the substitution table in use.
func (e *Engine) RuleVersion() string { return e.vetoes.Table().Version() }

// Decide evaluates one day. A withheld decision (audit pending) is a
// result, not an error; errors are reserved for invalid requests and
// failures that leave no decision at all.
func (e *Engine) Decide(ctx context.Context, req DailyRequest) (res *DailyResult, err error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	today, _ := contracts.ParseDate(req.Date)

	pd, err := e.phaseFor(req)
	if err != nil {
		return nil, fmt.Errorf("coach: %w", err)
	}

	ctx, finish := e.telemetry.TrackOperation(ctx, "coach.decide",
		observability.DecisionRequest(req.UserID, req.Date, pd.PhaseName())...)
	defer func() { finish(err) }()

	in, warnings := req.sessionInput(today)
	res = &DailyResult{
		UserID:   req.UserID,
		Date:     req.Date,
		Phase:    pd.PhaseName(),
		Warnings: warnings,
	}

	// 1. Audit gate.
	audit := e.builder.AuditInput(in)
	if gate := auditgate.Evaluate(audit); gate.AuditRequired {
		res.AuditStatus = contracts.AuditPending
		res.MissingInputs = gate.MissingInputs
		res.AuditType = gate.AuditType
		e.telemetry.RecordAuditPending(ctx, string(gate.AuditType))
		e.logger.InfoContext(ctx, "decision withheld", "user_id", req.UserID, "date", req.Date,
			"audit_type", gate.AuditType, "missing", gate.MissingInputs)
		return res, nil
	}

	// 2. Cache. A rejected session or a statistical shutdown outranks any
	// stored decision.
	summary := audit.Summary()
	fingerprint, err := snapshot.Fingerprint(summary)
	if err != nil {
		return nil, fmt.Errorf("coach: %w", err)
	}
	rejected := req.integrity(in.Sessions) == contracts.IntegrityRejected
	if rejected || req.Override.Triggered() {
		e.telemetry.RecordCache(ctx, string(snapshot.Bypass))
	} else {
		cached, outcome, lookupErr := e.cache.Lookup(ctx, req.UserID, req.Date, fingerprint)
		if lookupErr != nil {
			e.logger.WarnContext(ctx, "snapshot lookup failed, recomputing", "user_id", req.UserID, "date", req.Date, "error", lookupErr)
			outcome = snapshot.Miss
		}
		e.telemetry.RecordCache(ctx, string(outcome))
		if outcome == snapshot.Hit {
			res.fromSnapshot(req.Workout, cached)
			e.logger.DebugContext(ctx, "decision served from snapshot", "user_id", req.UserID, "date", req.Date)
			return res, nil
		}
	}

	// 3-5. Integrity, agents, vetoes, status.
	var (
		sub contracts.SubstitutionResult
		st  status.Result
	)
	if rejected {
		sub = e.vetoes.Decide(substitution.Request{
			Workout:   req.Workout,
			Phase:     pd,
			Integrity: contracts.IntegrityRejected,
		})
		st = status.Result{
			GlobalStatus: contracts.StatusShutdown,
			Reason:       sub.Reasoning,
			VotesDisplay: []status.VoteDisplay{},
			Confidence:   status.ResolverConfidence,
		}
	} else {
		slices := e.builder.Build(in)
		votes, err := e.panel.Evaluate(ctx, slices)
		if err != nil {
			return nil, fmt.Errorf("coach: %w", err)
		}
		res.Votes = votes
		sub = e.vetoes.Decide(substitution.Request{Workout: req.Workout, Votes: votes, Phase: pd})
		st = status.Resolve(status.Input{
			Votes:       votes,
			NiggleScore: slices.Structural.NiggleScore,
			Override:    req.Override,
		})
		sub = reconcile(sub, st)
	}
	trace.SpanFromContext(ctx).SetAttributes(
		observability.VetoOutcome(string(sub.Action), sub.RuleVersion, len(agents.Filter(res.Votes, contracts.ColorRed)))...)
	res.DecisionID = e.newID()
	res.applySubstitution(sub)
	res.applyStatus(st)
	res.applyForecast(req.Forecast)
	res.AuditStatus = auditStatus(st.GlobalStatus, res.Votes)

	// 7. Certainty delta against the previous day on record.
	if res.CertaintyScore != nil {
		if prev := e.cache.Previous(ctx, req.UserID, req.Date); prev != nil && prev.CertaintyScore != nil {
			delta := *res.CertaintyScore - *prev.CertaintyScore
			res.CertaintyDelta = &delta
		}
	}

	// 6. Snapshot, best effort.
	snap := &contracts.DailyDecisionSnapshot{
		UserID:         req.UserID,
		Date:           req.Date,
		GlobalStatus:   st.GlobalStatus,
		Reason:         st.Reason,
		Votes:          res.Votes,
		FinalWorkout:   sub.FinalWorkout,
		Action:         sub.Action,
		RuleVersion:    sub.RuleVersion,
		CertaintyScore: res.CertaintyScore,
		CertaintyDelta: res.CertaintyDelta,
		InputsSummary:  summary,
		Fingerprint:    fingerprint,
		DecisionID:     res.DecisionID,
		CreatedAt:      e.clock().UTC(),
	}
	if err := e.cache.Save(ctx, snap); err != nil {
		res.SnapshotError = err.Error()
		e.logger.ErrorContext(ctx, "snapshot write failed", "user_id", req.UserID, "date", req.Date, "error", err)
	}

	// 8. Ledger.
	if _, err := e.ledger.Append(LedgerEntry{
		DecisionID:   res.DecisionID,
		Timestamp:    snap.CreatedAt,
		UserID:       req.UserID,
		Date:         req.Date,
		GlobalStatus: st.GlobalStatus,
		Action:       sub.Action,
		RuleVersion:  sub.RuleVersion,
		Fingerprint:  fingerprint,
	}); err != nil {
		e.logger.ErrorContext(ctx, "ledger append failed", "decision_id", res.DecisionID, "error", err)
	}

	e.telemetry.RecordDecision(ctx, string(st.GlobalStatus), string(sub.Action))
	e.logger.InfoContext(ctx, "decision",
		"decision_id", res.DecisionID,
		"user_id", req.UserID,
		"date", req.Date,
		"phase", res.Phase,
		"status", st.GlobalStatus,
		"action", sub.Action,
		"rule_version", sub.RuleVersion,
	)
	return res, nil
}

// InvalidateDay drops the day's snapshot after a gatekeeper input changed.
func (e *Engine) InvalidateDay(ctx context.Context, userID, date string) error {
	if err := e.cache.InvalidateDay(ctx, userID, date); err != nil {
		return fmt.Errorf("coach: invalidate %s/%s: %w", userID, date, err)
	}
	return nil
}

// ProfileChanged drops today's and every future snapshot for the user.
func (e *Engine) ProfileChanged(ctx context.Context, userID, today string) (int, error) {
	n, err := e.cache.InvalidateFrom(ctx, userID, today)
	if err != nil {
		return 0, fmt.Errorf("coach: profile change %s: %w", userID, err)
	}
	return n, nil
}

func (e *Engine) phaseFor(req DailyRequest) (contracts.PhaseDefinition, error) {
	if req.Phase != nil {
		return *req.Phase, nil
	}
	return e.calendar.Resolve(req.Date)
}

// reconcile forces rest when the resolver shut the day down but the veto
// engine left a workout in place, as happens on the statistical path.
func reconcile(sub contracts.SubstitutionResult, st status.Result) contracts.SubstitutionResult {
	if st.GlobalStatus != contracts.StatusShutdown || sub.FinalWorkout.IsRest() {
		return sub
	}
	out := sub
	out.Action = contracts.ActionSkipped
	out.FinalWorkout = contracts.RestFrom(sub.OriginalWorkout, st.Reason)
	out.Reasoning = st.Reason
	out.Modifications = append(append([]string(nil), sub.Modifications...),
		fmt.Sprintf("type %s -> %s", sub.FinalWorkout.Type, contracts.WorkoutRest))
	return out
}

// SnapshotPolicy is the default write retry policy for the cache.
func SnapshotPolicy(attempts int) retry.Policy {
	p := retry.DefaultPolicy()
	p.PolicyID = "snapshot-write"
	if attempts > 0 {
		p.MaxAttempts = attempts
	}
	return p
}
