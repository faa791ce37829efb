package contracts

import "errors"

var (
	// ErrAuditPending blocks decision generation until the user supplies
	// the missing gatekeeper inputs.
	ErrAuditPending = errors.New("audit pending: mandatory inputs missing")

	// ErrDataIntegrityRejected marks a session discarded by the upstream
	// signal-quality check.
	ErrDataIntegrityRejected = errors.New("session rejected by data integrity check")

	// ErrUnmappedSubstitution is recorded when the table has no entry for a
	// veto and phase combination. The engine degrades instead of failing.
	ErrUnmappedSubstitution = errors.New("no substitution rule for veto and phase")

	// ErrPersistence wraps best-effort snapshot write failures.
	ErrPersistence = errors.New("snapshot persistence failed")

	// ErrSnapshotNotFound is a cache miss.
	ErrSnapshotNotFound = errors.New("snapshot not found")

	// ErrInvalidSnapshot marks a stored row that failed validation.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)
