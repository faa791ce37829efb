// Package retry provides an explicit exponential backoff policy with
// deterministic jitter for calls that cross an I/O boundary.
package retry

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"time"
)

// Policy is an exponential backoff policy object.
type Policy struct {
	PolicyID    string
	BaseMs      int64
	MaxMs       int64
	MaxJitterMs int64
	MaxAttempts int
}

// DefaultPolicy is used for snapshot writes and rule fetches.
func DefaultPolicy() Policy {
	return Policy{PolicyID: "default", BaseMs: 50, MaxMs: 2000, MaxJitterMs: 25, MaxAttempts: 3}
}

// Params identify one attempt. They seed the jitter so that two retries of
// the same operation back off by the same amount.
type Params struct {
	PolicyID     string
	Operation    string
	Key          string
	AttemptIndex int
}

// ComputeBackoff returns the delay for a specific attempt using deterministic jitter.
func ComputeBackoff(params Params, policy Policy) time.Duration {
	// delay = base * 2^attempt
	factor := int64(1)
	if params.AttemptIndex > 0 {
		if params.AttemptIndex > 30 {
			factor = 1 << 30
		} else {
			factor = 1 << params.AttemptIndex
		}
	}

	baseDelay := policy.BaseMs * factor
	if baseDelay > policy.MaxMs {
		baseDelay = policy.MaxMs
	}

	return time.Duration(baseDelay+ComputeDeterministicJitter(params, policy)) * time.Millisecond
}

// ComputeDeterministicJitter derives jitter in [0, MaxJitterMs) from params.
func ComputeDeterministicJitter(params Params, policy Policy) int64 {
	if policy.MaxJitterMs <= 0 {
		return 0
	}
	seed := fmt.Sprintf("%s:%s:%s:%d", params.PolicyID, params.Operation, params.Key, params.AttemptIndex)
	hash := sha256.Sum256([]byte(seed))
	jitterBasis := binary.BigEndian.Uint64(hash[:8])
	return int64(jitterBasis % uint64(policy.MaxJitterMs)) //nolint:gosec // MaxJitterMs is positive here
}
