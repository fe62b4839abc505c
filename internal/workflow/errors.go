package workflow

import (
	"errors"
	"fmt"

	"payflow/internal/request"
)

// Sentinel errors forming the engine's failure taxonomy. Validation and
// authorization failures are returned before any write occurs; the two
// non-fatal kinds (delivery, ledger posting) accompany a committed result
// instead of unwinding it.
var (
	ErrInvalidEvidence  = errors.New("invalid evidence")
	ErrUnauthorized     = errors.New("unauthorized")
	ErrNotFound         = errors.New("request not found")
	ErrAlreadyDecided   = errors.New("already decided")
	ErrReasonRequired   = errors.New("rejection reason required")
	ErrDeliveryFailed   = errors.New("notification delivery failed")
	ErrLedgerPosting    = errors.New("ledger posting failed")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// AlreadyDecidedError reports that a request already reached a terminal
// state, carrying that state for display. It matches ErrAlreadyDecided under
// errors.Is.
type AlreadyDecidedError struct {
	Status request.Status
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("already decided: %s", e.Status)
}

// Is makes the error match the ErrAlreadyDecided sentinel.
func (e *AlreadyDecidedError) Is(target error) bool {
	return target == ErrAlreadyDecided
}
