package store

import "errors"

var (
	// ErrNotFound means a completed scan of the code column had no match.
	ErrNotFound = errors.New("request not found")
	// ErrConflict means the row's status no longer matched the expected
	// status at write time. Callers treat this as "already decided by
	// someone else", never as a fault.
	ErrConflict = errors.New("status conflict")
	// ErrUnavailable wraps transport faults against the backing store. A
	// timed-out write is unknown-outcome; the next read reveals the truth.
	ErrUnavailable = errors.New("store unavailable")
)
