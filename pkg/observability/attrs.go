package observability

import "go.opentelemetry.io/otel/attribute"

const instrumentationName = "apex.coach"

// Attribute keys used on coaching spans and metrics.
const (
	AttrUserID       = "apex.user.id"
	AttrDate         = "apex.decision.date"
	AttrStatus       = "apex.decision.status"
	AttrAction       = "apex.decision.action"
	AttrRuleVersion  = "apex.rules.version"
	AttrCacheResult  = "apex.snapshot.result"
	AttrAuditType    = "apex.audit.type"
	AttrPhase        = "apex.phase"
	AttrVetoCount    = "apex.veto.count"
	AttrSnapshotKind = "apex.snapshot.backend"
)

// DecisionRequest returns attributes for a daily decision span.
func DecisionRequest(userID, date, phase string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrUserID, userID),
		attribute.String(AttrDate, date),
		attribute.String(AttrPhase, phase),
	}
}

// DecisionOutcome returns the status/action pair used on decision counters.
func DecisionOutcome(status, action string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrStatus, status),
		attribute.String(AttrAction, action),
	}
}

// VetoOutcome describes the veto engine's result.
func VetoOutcome(action, ruleVersion string, vetoes int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrAction, action),
		attribute.String(AttrRuleVersion, ruleVersion),
		attribute.Int(AttrVetoCount, vetoes),
	}
}
