package state

import "errors"

var (
	ErrNotFound = errors.New("not found")
)

// Governance error taxonomy. Every rejection is synchronous and leaves no
// partial mutation behind: the working state is discarded uncommitted.
var (
	ErrNotEligible         = errors.New("caller not eligible")
	ErrAlreadyOpen         = errors.New("round already open")
	ErrAlreadyVoted        = errors.New("already voted in this round")
	ErrNoActiveProposal    = errors.New("no active proposal")
	ErrInvalidProposal     = errors.New("invalid proposal")
	ErrStillOpen           = errors.New("expiry window not elapsed")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrExecutionPaused     = errors.New("execution paused")
)

var (
	ErrTxOwnerNoexists      = errors.New("owner noexists")
	ErrTxNonceInvalid       = errors.New("nonce invalid")
	ErrTxSigInvalid         = errors.New("signature invalid")
	ErrAccountAlreadyExists = errors.New("account already exists")
	ErrAccountNoexists      = errors.New("account noexists")
	ErrAdmissionCooldown    = errors.New("admission cooldown not elapsed")
	ErrExitWhileRemoving    = errors.New("exit while removal pending")
	ErrOneActionInOneWindow = errors.New("one action in one window")
	ErrZeroAmount           = errors.New("zero amount")
)
