package core

// AttemptState names a step of the burn saga. The saga spans three trust
// domains (wallet, chain, ledger service) with no shared transaction
// boundary, so every transition is explicit and failures are typed by the
// step they occurred in.
type AttemptState int

const (
	// StateIdle means no attempt is in flight; submissions are accepted.
	StateIdle AttemptState = iota

	// StateValidating runs selection and request checks. No external call
	// has been made yet.
	StateValidating

	// StateAwaitingApproval waits for the collection-wide transfer approval
	// to be confirmed (or observed as already granted).
	StateAwaitingApproval

	// StateAwaitingBurnTx waits for the fee-bearing burn transaction.
	StateAwaitingBurnTx

	// StateBurnConfirmed is the point of no return: the tokens are
	// destroyed on-chain regardless of what happens next.
	StateBurnConfirmed

	// StateSyncing posts the burn record to the ledger service.
	StateSyncing

	// StateSynced is the terminal success state.
	StateSynced

	// StateAborted is the terminal failure state for everything that went
	// wrong before the burn confirmed. Nothing irreversible happened; a
	// fresh attempt may start from scratch.
	StateAborted

	// StateSyncFailedAfterBurn is the distinguished terminal state for a
	// ledger failure after the burn confirmed. The transaction hash and the
	// full request are retained; only the sync may be retried, never the
	// burn itself.
	StateSyncFailedAfterBurn
)

var stateNames = map[AttemptState]string{
	StateIdle:                "idle",
	StateValidating:          "validating",
	StateAwaitingApproval:    "awaiting_approval",
	StateAwaitingBurnTx:      "awaiting_burn_tx",
	StateBurnConfirmed:       "burn_confirmed",
	StateSyncing:             "syncing",
	StateSynced:              "synced",
	StateAborted:             "aborted",
	StateSyncFailedAfterBurn: "sync_failed_after_burn",
}

func (s AttemptState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition may leave s, except the
// explicit re-arming of a new attempt (Idle) and the sync retry loop of
// SyncFailedAfterBurn.
func (s AttemptState) Terminal() bool {
	switch s {
	case StateSynced, StateAborted, StateSyncFailedAfterBurn:
		return true
	}
	return false
}

// transitions is the legality table of the saga. Aborted is reachable from
// every non-terminal working state; SyncFailedAfterBurn only from Syncing.
var transitions = map[AttemptState][]AttemptState{
	StateIdle:                {StateValidating},
	StateValidating:          {StateAwaitingApproval, StateAborted},
	StateAwaitingApproval:    {StateAwaitingBurnTx, StateAborted},
	StateAwaitingBurnTx:      {StateBurnConfirmed, StateAborted},
	StateBurnConfirmed:       {StateSyncing},
	StateSyncing:             {StateSynced, StateSyncFailedAfterBurn},
	StateSyncFailedAfterBurn: {StateSyncing},
	StateSynced:              {},
	StateAborted:             {},
}

// CanTransition reports whether moving from one state to the next is legal.
func CanTransition(from, to AttemptState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// BurnAttempt is the single in-flight saga instance for a session. It is
// owned by the orchestrator; observers receive value copies via Snapshot.
type BurnAttempt struct {
	RequestID  string
	State      AttemptState
	TxHash     string
	Err        error
	Violations []Violation
	Request    *BurnRequest
}

// Snapshot returns a read-only copy for observers. The request pointer is
// shared; the request itself is never mutated after submission.
func (a *BurnAttempt) Snapshot() BurnAttempt {
	return *a
}
