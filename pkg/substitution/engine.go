// Package substitution turns a vote set into a concrete workout decision by
// ordinal table lookup. Vote colors are never averaged or blended.
package substitution

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/MartinT518/APEX-performance-sub001/pkg/agents"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// Caps applied to AMBER votes.
const (
	AmberMaxZone            = contracts.Zone3
	AmberMaxDurationMinutes = 90
)

// ZeroImpactConstraint is attached to workouts converted in physio mode.
const ZeroImpactConstraint = "zero-impact only"

// Reasoning strings.
const (
	ReasoningIntegrityRejected = "Session discarded: data integrity check rejected the recorded signal. Mandatory rest."
	ReasoningAllGreen          = "All agents green: execute as planned."
	ReasoningAmberNoChange     = "Caution noted; workout already within amber limits."
)

// Request is one engine evaluation.
type Request struct {
	Workout   contracts.Workout
	Votes     []contracts.Vote
	Phase     contracts.PhaseDefinition
	Integrity contracts.IntegrityStatus
}

// Engine applies the veto hierarchy and the substitution table.
type Engine struct {
	table  *Table
	logger *slog.Logger
}

// NewEngine returns an engine over t. A nil table selects the built-in one.
func NewEngine(t *Table) *Engine {
	if t == nil {
		t = Default()
	}
	return &Engine{table: t, logger: slog.Default().With("component", "substitution")}
}

// Table returns the table in use.
func (e *Engine) Table() *Table { return e.table }

// Decide is a pure function of its request. The planned workout is never
// modified; the result carries a derived copy.
func (e *Engine) Decide(req Request) contracts.SubstitutionResult {
	original := req.Workout.Clone()
	res := contracts.SubstitutionResult{
		OriginalWorkout: original,
		FinalWorkout:    original.Clone(),
		Modifications:   []string{},
		RuleVersion:     e.table.Version(),
	}
	phase := req.Phase.PhaseName()

	// 1. Integrity rejection outranks every vote.
	if req.Integrity == contracts.IntegrityRejected {
		res.Action = contracts.ActionSkipped
		res.FinalWorkout = contracts.RestFrom(original, ReasoningIntegrityRejected)
		res.Reasoning = ReasoningIntegrityRejected
		res.Modifications = append(res.Modifications, "rest: "+contracts.ErrDataIntegrityRejected.Error())
		return res
	}

	reds := agents.Filter(req.Votes, contracts.ColorRed)

	// 2. Multiple vetoes.
	if len(reds) >= 2 {
		return e.shutdown(res, reds, phase)
	}

	// 3. Single veto.
	if len(reds) == 1 {
		return e.singleVeto(res, reds[0], req.Phase)
	}

	// 4. Amber caps.
	if ambers := agents.Filter(req.Votes, contracts.ColorAmber); len(ambers) > 0 {
		return e.amber(res, ambers, req.Phase)
	}

	// 5. All green.
	res.Action = contracts.ActionExecutedAsPlanned
	res.Reasoning = ReasoningAllGreen
	return res
}

func (e *Engine) shutdown(res contracts.SubstitutionResult, reds []contracts.Vote, phase string) contracts.SubstitutionResult {
	ids := make([]contracts.AgentID, len(reds))
	names := make([]string, len(reds))
	for i, v := range reds {
		ids[i] = v.AgentID
		names[i] = string(v.AgentID)
	}
	key := MultiKey(ids)

	reasoning := fmt.Sprintf("Multiple vetoes (%s): SHUTDOWN.", strings.Join(names, ", "))
	if entry, ok := e.table.Lookup(key, phase); ok {
		if entry.Protocol != "" {
			reasoning += " " + entry.Protocol
		}
	} else {
		res.Warnings = append(res.Warnings, unmapped(key, phase))
		e.logger.Warn("unmapped multi-veto, shutting down", "key", key, "phase", phase)
	}

	res.Action = contracts.ActionSkipped
	res.FinalWorkout = contracts.RestFrom(res.OriginalWorkout, reasoning)
	res.Reasoning = reasoning
	res.Modifications = append(res.Modifications, fmt.Sprintf("type %s -> %s", res.OriginalWorkout.Type, contracts.WorkoutRest))
	return res
}

func (e *Engine) singleVeto(res contracts.SubstitutionResult, red contracts.Vote, pd contracts.PhaseDefinition) contracts.SubstitutionResult {
	phase := pd.PhaseName()
	key := Key(red.AgentID)
	w := res.FinalWorkout
	res.Action = contracts.ActionModified

	entry, ok := e.table.Lookup(key, phase)
	switch {
	case !ok:
		res.Warnings = append(res.Warnings, unmapped(key, phase))
		res.Reasoning = fmt.Sprintf("%s veto: %s. No substitution mapped for phase %q; workout kept, proceed with caution.", red.AgentID, red.Reason, phase)
		e.logger.Warn("unmapped substitution", "key", key, "phase", phase)
	case entry.Action == EntryShutdown:
		res.Action = contracts.ActionSkipped
		res.Reasoning = fmt.Sprintf("%s veto: %s. %s", red.AgentID, red.Reason, entry.Protocol)
		res.FinalWorkout = contracts.RestFrom(res.OriginalWorkout, res.Reasoning)
		res.Modifications = append(res.Modifications, fmt.Sprintf("type %s -> %s", w.Type, contracts.WorkoutRest))
		return res
	default:
		for i, o := range entry.Overrides {
			match, err := e.table.guards.Match(o.When, w, phase)
			if err != nil {
				res.Warnings = append(res.Warnings, fmt.Sprintf("%s/%s override %d skipped: %v", key, phase, i, err))
				continue
			}
			if !match {
				continue
			}
			res.Modifications = append(res.Modifications, applyOverride(&w, o)...)
		}
		res.Reasoning = strings.TrimSpace(fmt.Sprintf("%s veto (%s): %s. %s", red.AgentID, phase, red.Reason, entry.Protocol))
	}

	if red.Directive == contracts.DirectiveZeroImpact {
		res.Modifications = append(res.Modifications, e.zeroImpact(&w)...)
	}
	if ok {
		res.Modifications = append(res.Modifications, capToPhase(&w, pd)...)
	}
	e.finish(&res, w, pd)
	return res
}

func (e *Engine) amber(res contracts.SubstitutionResult, ambers []contracts.Vote, pd contracts.PhaseDefinition) contracts.SubstitutionResult {
	w := res.FinalWorkout
	reasons := make([]string, 0, len(ambers))
	for _, v := range ambers {
		reasons = append(reasons, fmt.Sprintf("%s: %s", v.AgentID, v.Reason))
		switch v.AgentID {
		case contracts.AgentStructural:
			res.Modifications = append(res.Modifications, applyOverride(&w, Override{MaxZone: int(AmberMaxZone)})...)
		case contracts.AgentMetabolic, contracts.AgentFueling:
			res.Modifications = append(res.Modifications, applyOverride(&w, Override{MaxDurationMinutes: AmberMaxDurationMinutes})...)
		}
	}

	if len(res.Modifications) == 0 {
		res.Action = contracts.ActionExecutedAsPlanned
		res.Reasoning = ReasoningAmberNoChange + " " + strings.Join(reasons, "; ")
		return res
	}
	res.Modifications = append(res.Modifications, capToPhase(&w, pd)...)
	res.Action = contracts.ActionModified
	res.Reasoning = "Caution: " + strings.Join(reasons, "; ")
	e.finish(&res, w, pd)
	return res
}

// finish stamps a modified workout.
func (e *Engine) finish(res *contracts.SubstitutionResult, w contracts.Workout, pd contracts.PhaseDefinition) {
	w.IsAdapted = true
	w.Explanation = res.Reasoning
	if pd.HRCap != nil && !w.IsRest() {
		w.Constraints = appendUnique(w.Constraints, fmt.Sprintf("HR cap %d bpm", *pd.HRCap))
	}
	res.FinalWorkout = w
}

func (e *Engine) zeroImpact(w *contracts.Workout) []string {
	if !w.Type.IsImpact() {
		w.Constraints = appendUnique(w.Constraints, ZeroImpactConstraint)
		return nil
	}
	to := e.table.PhysioType()
	mod := fmt.Sprintf("type %s -> %s (zero impact)", w.Type, to)
	w.Type = to
	w.Constraints = appendUnique(w.Constraints, ZeroImpactConstraint)
	return []string{mod}
}

// applyOverride edits w in place and describes every change made. Each cap
// is idempotent: applying it to an already-compliant workout is a no-op.
func applyOverride(w *contracts.Workout, o Override) []string {
	var mods []string
	if o.Type != "" && o.Type != w.Type && !w.IsRest() {
		mods = append(mods, fmt.Sprintf("type %s -> %s", w.Type, o.Type))
		w.Type = o.Type
	}
	if o.MaxZone > 0 && int(w.PrimaryZone) > o.MaxZone {
		to := contracts.Zone(o.MaxZone)
		mods = append(mods, fmt.Sprintf("zone %s -> %s", w.PrimaryZone, to))
		w.PrimaryZone = to
	}
	if o.MaxDurationMinutes > 0 && w.DurationMinutes > o.MaxDurationMinutes {
		mods = append(mods, fmt.Sprintf("duration %d -> %d min", w.DurationMinutes, o.MaxDurationMinutes))
		w.DurationMinutes = o.MaxDurationMinutes
	}
	return mods
}

// capToPhase keeps a modified workout within the phase intensity ceiling.
func capToPhase(w *contracts.Workout, pd contracts.PhaseDefinition) []string {
	if !pd.MaxAllowedZone.Valid() {
		return nil
	}
	return applyOverride(w, Override{MaxZone: int(pd.MaxAllowedZone)})
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}

func unmapped(key, phase string) string {
	return fmt.Sprintf("%v: %s in phase %q", contracts.ErrUnmappedSubstitution, key, phase)
}
