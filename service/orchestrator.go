package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/internal/metrics"
	"github.com/phanstudios/what-the-burn/ports"
)

// DefaultSyncTimeout bounds one ledger submission after a confirmed burn.
const DefaultSyncTimeout = 30 * time.Second

// BurnOrchestrator sequences one burn attempt across the three trust
// domains: wallet, chain, ledger service. It owns the saga state machine
// and is the only component allowed to mutate cross-domain state. One
// attempt may be non-terminal at a time; further submissions are rejected,
// not queued.
type BurnOrchestrator struct {
	sessions *WalletSessionManager
	gateway  ports.ContractGateway
	ledger   ports.LedgerClient
	events   ports.EventPublisher
	policy   core.BurnPolicy
	log      zerolog.Logger

	syncTimeout time.Duration

	mu      sync.Mutex
	attempt core.BurnAttempt
}

// NewBurnOrchestrator wires the saga. The policy comes from the caller
// (normally read off the burn manager contract) so the enforced bounds can
// never drift from what the chain will actually accept.
func NewBurnOrchestrator(
	sessions *WalletSessionManager,
	gateway ports.ContractGateway,
	ledger ports.LedgerClient,
	events ports.EventPublisher,
	policy core.BurnPolicy,
	log zerolog.Logger,
) *BurnOrchestrator {
	return &BurnOrchestrator{
		sessions:    sessions,
		gateway:     gateway,
		ledger:      ledger,
		events:      events,
		policy:      policy,
		log:         log.With().Str("component", "orchestrator").Logger(),
		syncTimeout: DefaultSyncTimeout,
		attempt:     core.BurnAttempt{State: core.StateIdle},
	}
}

// Attempt returns a copy of the current attempt for observers.
func (o *BurnOrchestrator) Attempt() core.BurnAttempt {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.attempt.Snapshot()
}

// Submit runs one full burn attempt: validation, approval, fee quote, burn,
// ledger sync. It blocks until the attempt reaches a terminal state and
// returns the final snapshot. The context is honored at every suspension
// point up to burn confirmation; after that the sync tail runs on its own
// bounded deadline so a caller cancel cannot lose the record.
func (o *BurnOrchestrator) Submit(ctx context.Context, req *core.BurnRequest) (core.BurnAttempt, error) {
	o.mu.Lock()
	switch {
	case !o.sessions.Authenticated():
		o.mu.Unlock()
		return core.BurnAttempt{}, core.ErrNotAuthenticated
	case o.attempt.State == core.StateSyncFailedAfterBurn:
		o.mu.Unlock()
		return core.BurnAttempt{}, core.ErrSyncPending
	case !o.attempt.State.Terminal() && o.attempt.State != core.StateIdle:
		o.mu.Unlock()
		return core.BurnAttempt{}, core.ErrAttemptInFlight
	}
	o.attempt = core.BurnAttempt{
		RequestID: uuid.New().String(),
		State:     core.StateValidating,
		Request:   req,
	}
	o.mu.Unlock()
	o.announce(ctx)

	// Validating: selection and request checks together, all violations
	// reported at once, no external call made yet.
	result := ValidateSelection(req.Selection, o.policy)
	violations := append(result.Violations, ValidateRequest(req)...)
	if len(violations) > 0 {
		return o.abort(ctx, violations, fmt.Errorf("%w: %s", core.ErrValidation, describeViolations(violations)))
	}

	// AwaitingApproval: nothing irreversible happens here; a rejection or
	// network failure aborts the whole attempt cleanly.
	o.transition(ctx, core.StateAwaitingApproval)
	if err := o.gateway.EnsureApproval(ctx); err != nil {
		return o.abort(ctx, nil, fmt.Errorf("ensuring approval: %w", err))
	}

	// AwaitingBurnTx: quote the fee fresh, immediately before the burn, and
	// submit. Once the transaction confirms there is no way back.
	o.transition(ctx, core.StateAwaitingBurnTx)
	fee, err := o.gateway.QuoteFee(ctx)
	if err != nil {
		return o.abort(ctx, nil, fmt.Errorf("quoting burn fee: %w", err))
	}
	txHash, err := o.gateway.ExecuteBurn(ctx, req.Selection.BurnIDs(), req.Selection.Featured.ID, fee)
	if err != nil {
		return o.abort(ctx, nil, fmt.Errorf("executing burn: %w", err))
	}

	o.mu.Lock()
	o.attempt.TxHash = txHash
	o.mu.Unlock()
	o.transition(ctx, core.StateBurnConfirmed)
	o.log.Info().Str("tx", txHash).Msg("burn confirmed on-chain")

	return o.sync(ctx)
}

// RetrySync re-submits the preserved burn record after a post-confirmation
// sync failure. It never re-enters the on-chain part of the saga.
func (o *BurnOrchestrator) RetrySync(ctx context.Context) (core.BurnAttempt, error) {
	o.mu.Lock()
	if o.attempt.State != core.StateSyncFailedAfterBurn {
		o.mu.Unlock()
		return o.Attempt(), core.ErrNoSyncPending
	}
	o.mu.Unlock()

	snap, err := o.sync(ctx)
	if err != nil {
		metrics.SyncRetries.WithLabelValues("failed").Inc()
	} else {
		metrics.SyncRetries.WithLabelValues("synced").Inc()
	}
	return snap, err
}

// Reset re-arms Idle from a terminal state. Resetting out of
// SyncFailedAfterBurn abandons the unsaved record; callers should only do
// that on an explicit user decision, with the transaction hash surfaced
// first.
func (o *BurnOrchestrator) Reset() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.attempt.State.Terminal() && o.attempt.State != core.StateIdle {
		return core.ErrAttemptInFlight
	}
	if o.attempt.State == core.StateSyncFailedAfterBurn {
		o.log.Warn().
			Str("tx", o.attempt.TxHash).
			Msg("abandoning unsaved burn record")
	}
	o.attempt = core.BurnAttempt{State: core.StateIdle}
	return nil
}

// sync posts the burn record to the ledger. It runs detached from the
// caller's cancellation: the burn already happened, so the only bound is
// the sync timeout itself.
func (o *BurnOrchestrator) sync(ctx context.Context) (core.BurnAttempt, error) {
	o.mu.Lock()
	req := o.attempt.Request
	txHash := o.attempt.TxHash
	o.mu.Unlock()

	o.transition(ctx, core.StateSyncing)

	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.syncTimeout)
	defer cancel()

	credential, ok := o.sessions.Credential()
	if !ok {
		return o.syncFailed(ctx, core.ErrUnauthorized)
	}

	recordID, err := o.ledger.SubmitUpdateRequest(syncCtx, credential, o.sessions.Address(), req, txHash)
	if err != nil {
		return o.syncFailed(ctx, err)
	}

	o.mu.Lock()
	o.attempt.State = core.StateSynced
	o.attempt.Err = nil
	o.attempt.Request = nil // record saved; the request is done
	snap := o.attempt.Snapshot()
	o.mu.Unlock()
	o.publish(ctx, snap)
	metrics.SagaTransitions.WithLabelValues(core.StateSynced.String()).Inc()
	metrics.AttemptsTotal.WithLabelValues("synced").Inc()
	o.log.Info().Str("tx", txHash).Str("record", recordID).Msg("burn record synced")
	return snap, nil
}

// syncFailed moves to the distinguished post-burn failure state. The hash
// and the full request stay on the attempt: the assets are already
// destroyed and the record must survive for a retry.
func (o *BurnOrchestrator) syncFailed(ctx context.Context, err error) (core.BurnAttempt, error) {
	o.mu.Lock()
	o.attempt.State = core.StateSyncFailedAfterBurn
	o.attempt.Err = err
	snap := o.attempt.Snapshot()
	o.mu.Unlock()
	o.publish(ctx, snap)
	metrics.SagaTransitions.WithLabelValues(core.StateSyncFailedAfterBurn.String()).Inc()
	metrics.AttemptsTotal.WithLabelValues("sync_failed_after_burn").Inc()
	o.log.Error().Err(err).
		Str("tx", snap.TxHash).
		Msg("burn succeeded but the record was not saved; retry the sync")
	return snap, err
}

func (o *BurnOrchestrator) abort(ctx context.Context, violations []core.Violation, err error) (core.BurnAttempt, error) {
	o.mu.Lock()
	o.attempt.State = core.StateAborted
	o.attempt.Err = err
	o.attempt.Violations = violations
	snap := o.attempt.Snapshot()
	o.mu.Unlock()
	o.publish(ctx, snap)
	metrics.SagaTransitions.WithLabelValues(core.StateAborted.String()).Inc()
	metrics.AttemptsTotal.WithLabelValues("aborted").Inc()
	o.log.Warn().Err(err).Str("request_id", snap.RequestID).Msg("burn attempt aborted")
	return snap, err
}

func (o *BurnOrchestrator) transition(ctx context.Context, to core.AttemptState) {
	o.mu.Lock()
	from := o.attempt.State
	o.attempt.State = to
	snap := o.attempt.Snapshot()
	o.mu.Unlock()
	if !core.CanTransition(from, to) {
		// The saga code paths only request legal transitions; hitting this
		// means a bug, not a runtime condition.
		o.log.Error().Stringer("from", from).Stringer("to", to).Msg("illegal saga transition")
	}
	metrics.SagaTransitions.WithLabelValues(to.String()).Inc()
	o.publish(ctx, snap)
	o.log.Debug().Stringer("state", to).Str("request_id", snap.RequestID).Msg("saga transition")
}

func (o *BurnOrchestrator) announce(ctx context.Context) {
	snap := o.Attempt()
	metrics.SagaTransitions.WithLabelValues(snap.State.String()).Inc()
	o.publish(ctx, snap)
}

func (o *BurnOrchestrator) publish(ctx context.Context, snap core.BurnAttempt) {
	if o.events == nil {
		return
	}
	if err := o.events.PublishTransition(ctx, snap); err != nil {
		o.log.Warn().Err(err).Msg("failed to publish saga transition")
	}
}

func describeViolations(violations []core.Violation) string {
	msgs := make([]string, len(violations))
	for i, v := range violations {
		msgs[i] = v.Message
	}
	return strings.Join(msgs, "; ")
}
