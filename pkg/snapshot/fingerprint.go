// Package snapshot persists one decision per user and day and serves it back
// while the day's gatekeeper inputs are unchanged.
package snapshot

import (
	"fmt"

	"github.com/MartinT518/APEX-performance-sub001/pkg/canonicalize"
	"github.com/MartinT518/APEX-performance-sub001/pkg/contracts"
)

// Fingerprint is the canonical hash of the gatekeeper inputs. Any change to
// niggle, strength or fueling fields yields a different fingerprint.
func Fingerprint(in contracts.InputsSummary) (string, error) {
	h, err := canonicalize.CanonicalHash(in)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return h, nil
}
