package core

import "errors"

var (
	// ErrChallengeFetch is returned when the sign-in challenge cannot be
	// fetched from the ledger service.
	ErrChallengeFetch = errors.New("failed to fetch sign-in challenge")

	// ErrUserRejected is returned when the user declines a wallet prompt,
	// either a message signature or a transaction confirmation.
	ErrUserRejected = errors.New("user rejected the wallet request")

	// ErrInvalidSignature is returned when the ledger service rejects the
	// signed challenge.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrInsufficientFunds is returned when the wallet cannot cover the
	// burn fee plus gas.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrContractReverted is returned when an on-chain call reverts,
	// including missing approval and bad token ownership.
	ErrContractReverted = errors.New("contract execution reverted")

	// ErrNetwork is returned for unreachable RPC or ledger endpoints and
	// for bounded waits that time out.
	ErrNetwork = errors.New("network failure")

	// ErrUnauthorized is returned when the ledger service rejects the
	// session credential. The caller must re-authenticate, not drop the
	// record.
	ErrUnauthorized = errors.New("credential rejected")

	// ErrValidationRejected is returned when the ledger service rejects
	// the burn record schema.
	ErrValidationRejected = errors.New("ledger rejected the burn record")

	// ErrValidation is returned when the local selection or request checks
	// fail. No external call has been made.
	ErrValidation = errors.New("selection validation failed")

	// ErrNotAuthenticated is returned when an operation requires an
	// authenticated wallet session.
	ErrNotAuthenticated = errors.New("wallet session not authenticated")

	// ErrAttemptInFlight is returned when a submission arrives while a
	// non-terminal attempt exists. Submissions are rejected, not queued.
	ErrAttemptInFlight = errors.New("a burn attempt is already in flight")

	// ErrNoSyncPending is returned when a sync retry is requested without
	// a failed sync to retry.
	ErrNoSyncPending = errors.New("no failed sync to retry")

	// ErrSyncPending is returned when a new submission arrives while a
	// confirmed burn still has an unsaved ledger record. The record must be
	// retried or explicitly abandoned first.
	ErrSyncPending = errors.New("previous burn record not yet saved")

	// ErrNonceNotFound is returned by the ledger service when no challenge
	// nonce exists for an address.
	ErrNonceNotFound = errors.New("no challenge issued for address")

	// ErrNotFound is returned by stores for missing keys.
	ErrNotFound = errors.New("not found")
)

// FailureClass groups attempt failures for user messaging. The class drives
// what recovery the UI offers; the distinction between Contract and Sync is
// load-bearing, since a sync failure means the burn already happened.
type FailureClass int

const (
	// FailureNone means the attempt did not fail.
	FailureNone FailureClass = iota

	// FailureValidation is a local policy violation; nothing was sent
	// anywhere and the attempt may be freely retried.
	FailureValidation

	// FailureAuth is a challenge, signature, or credential failure;
	// recoverable by re-authenticating.
	FailureAuth

	// FailureContract is a pre-confirmation on-chain failure; the whole
	// attempt may be retried from scratch.
	FailureContract

	// FailureSync is a post-confirmation ledger failure. The burn already
	// happened; only the record save may be retried, and the failure must
	// never be presented as "burn failed".
	FailureSync
)

func (c FailureClass) String() string {
	switch c {
	case FailureValidation:
		return "validation"
	case FailureAuth:
		return "auth"
	case FailureContract:
		return "contract"
	case FailureSync:
		return "sync"
	}
	return "none"
}

// Classify maps an attempt failure to its class. The state at which the
// error occurred decides the irreversibility boundary: anything at or after
// Syncing is a sync failure even when the underlying error is an auth or
// network one.
func Classify(state AttemptState, err error) FailureClass {
	if err == nil {
		return FailureNone
	}
	if state == StateSyncing || state == StateSyncFailedAfterBurn {
		return FailureSync
	}
	switch {
	case errors.Is(err, ErrValidation):
		return FailureValidation
	case errors.Is(err, ErrChallengeFetch),
		errors.Is(err, ErrInvalidSignature),
		errors.Is(err, ErrUnauthorized),
		errors.Is(err, ErrNotAuthenticated):
		return FailureAuth
	default:
		return FailureContract
	}
}
