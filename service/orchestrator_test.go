package service

import (
	"context"
	"errors"
	"math/big"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanstudios/what-the-burn/adapters/store"
	"github.com/phanstudios/what-the-burn/core"
)

func validBurnRequest(n int) *core.BurnRequest {
	burn := make([]core.NFTAsset, n)
	for i := range burn {
		burn[i] = core.NFTAsset{ID: uint32(i + 1), Name: "token"}
	}
	return &core.BurnRequest{
		Selection: core.BurnSelection{
			Burn:     burn,
			Featured: core.NFTAsset{ID: uint32(n + 1), Name: "featured"},
		},
		DisplayName: "burned collection",
		Description: "everything must go",
		Attachment: core.Attachment{
			Name:        "cover.png",
			ContentType: "image/png",
			Data:        []byte{0x89, 0x50, 0x4e, 0x47},
		},
	}
}

type orchestratorFixture struct {
	orch    *BurnOrchestrator
	mgr     *WalletSessionManager
	gateway *fakeGateway
	ledger  *fakeLedger
	events  *fakeEvents
}

func newOrchestratorFixture(t *testing.T) *orchestratorFixture {
	t.Helper()

	wallet := &fakeWallet{address: testAddr, signature: "0xsig"}
	ledger := &fakeLedger{
		challengeMsg: ChallengePrefix + "nonce",
		credential:   "credential-1",
		recordID:     "0xrecord",
	}
	events := &fakeEvents{}
	mgr := NewWalletSessionManager(wallet, ledger, store.NewMemoryStore(), events, zerolog.Nop())
	require.NoError(t, mgr.Connect(context.Background()))
	require.NoError(t, mgr.Login(context.Background()))

	gateway := &fakeGateway{
		approved: true,
		fee:      big.NewInt(1_000_000),
		quota:    5,
		burnHash: "0xburnhash",
	}
	policy := core.BurnPolicy{MinBurn: 3, MaxBurn: 5}
	orch := NewBurnOrchestrator(mgr, gateway, ledger, events, policy, zerolog.Nop())

	return &orchestratorFixture{
		orch:    orch,
		mgr:     mgr,
		gateway: gateway,
		ledger:  ledger,
		events:  events,
	}
}

func TestSubmitHappyPath(t *testing.T) {
	f := newOrchestratorFixture(t)

	snap, err := f.orch.Submit(context.Background(), validBurnRequest(3))

	require.NoError(t, err)
	assert.Equal(t, core.StateSynced, snap.State)
	assert.Equal(t, "0xburnhash", snap.TxHash)
	assert.Nil(t, snap.Request)
	assert.Empty(t, snap.Violations)

	assert.Equal(t, 1, f.gateway.quoteCalls)
	assert.Equal(t, 1, f.gateway.burnCalls)
	assert.Equal(t, []uint32{1, 2, 3}, f.gateway.lastBurnIDs)
	assert.Equal(t, uint32(4), f.gateway.lastFeatured)
	assert.Equal(t, big.NewInt(1_000_000), f.gateway.lastFeePassed)

	require.Equal(t, 1, f.ledger.submitCount())
	sub := f.ledger.submissions[0]
	assert.Equal(t, "credential-1", sub.credential)
	assert.Equal(t, testAddr, sub.address)
	assert.Equal(t, "0xburnhash", sub.txHash)

	assert.Equal(t, []core.AttemptState{
		core.StateValidating,
		core.StateAwaitingApproval,
		core.StateAwaitingBurnTx,
		core.StateBurnConfirmed,
		core.StateSyncing,
		core.StateSynced,
	}, f.events.states())
}

func TestSubmitRequiresAuthentication(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.mgr.Logout(context.Background())

	_, err := f.orch.Submit(context.Background(), validBurnRequest(3))

	assert.ErrorIs(t, err, core.ErrNotAuthenticated)
	assert.Equal(t, 0, f.gateway.burnCalls)
	assert.Equal(t, core.StateIdle, f.orch.Attempt().State)
}

func TestSubmitValidationAbortMakesNoExternalCalls(t *testing.T) {
	f := newOrchestratorFixture(t)

	// Two below the minimum of three.
	snap, err := f.orch.Submit(context.Background(), validBurnRequest(2))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrValidation)
	assert.Equal(t, core.StateAborted, snap.State)
	require.Len(t, snap.Violations, 1)
	assert.Equal(t, core.ViolationSizeBelowMin, snap.Violations[0].Code)

	assert.Equal(t, 0, f.gateway.approvalTxs)
	assert.Equal(t, 0, f.gateway.quoteCalls)
	assert.Equal(t, 0, f.gateway.burnCalls)
	assert.Equal(t, 0, f.ledger.submitCount())
}

func TestSubmitAllViolationsReportedTogether(t *testing.T) {
	f := newOrchestratorFixture(t)

	req := validBurnRequest(3)
	req.Selection.Featured = req.Selection.Burn[0] // featured inside burn set
	req.DisplayName = ""

	snap, err := f.orch.Submit(context.Background(), req)

	require.Error(t, err)
	codes := make([]core.ViolationCode, len(snap.Violations))
	for i, v := range snap.Violations {
		codes[i] = v.Code
	}
	assert.Contains(t, codes, core.ViolationFeaturedInBurnSet)
	assert.Contains(t, codes, core.ViolationDisplayNameEmpty)
}

func TestSubmitApprovalFailureAborts(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.gateway.ensureErr = core.ErrUserRejected

	snap, err := f.orch.Submit(context.Background(), validBurnRequest(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUserRejected)
	assert.Equal(t, core.StateAborted, snap.State)
	assert.Empty(t, snap.TxHash)
	assert.Equal(t, 0, f.gateway.burnCalls)
	assert.Equal(t, 0, f.ledger.submitCount())
}

func TestSubmitBurnFailureAborts(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.gateway.burnErr = core.ErrInsufficientFunds

	snap, err := f.orch.Submit(context.Background(), validBurnRequest(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrInsufficientFunds)
	assert.Equal(t, core.StateAborted, snap.State)
	assert.Empty(t, snap.TxHash)
	assert.Equal(t, 0, f.ledger.submitCount())
}

func TestSubmitSyncFailurePreservesRecord(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.ledger.submitErrs = []error{core.ErrNetwork}

	req := validBurnRequest(3)
	snap, err := f.orch.Submit(context.Background(), req)

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetwork)
	assert.Equal(t, core.StateSyncFailedAfterBurn, snap.State)

	// The burn happened; hash and full request must survive for the retry.
	assert.Equal(t, "0xburnhash", snap.TxHash)
	require.NotNil(t, snap.Request)
	assert.Equal(t, req.Selection.BurnIDs(), snap.Request.Selection.BurnIDs())
	assert.Equal(t, core.FailureSync, core.Classify(snap.State, snap.Err))
}

func TestRetrySyncAfterFailure(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.ledger.submitErrs = []error{core.ErrNetwork}

	_, err := f.orch.Submit(context.Background(), validBurnRequest(3))
	require.ErrorIs(t, err, core.ErrNetwork)
	require.Equal(t, 1, f.gateway.burnCalls)

	snap, err := f.orch.RetrySync(context.Background())

	require.NoError(t, err)
	assert.Equal(t, core.StateSynced, snap.State)
	assert.Equal(t, "0xburnhash", snap.TxHash)
	assert.Nil(t, snap.Request)

	// The retry re-submits the record only. The on-chain part never re-runs.
	assert.Equal(t, 1, f.gateway.burnCalls)
	assert.Equal(t, 1, f.gateway.quoteCalls)
	assert.Equal(t, 2, f.ledger.submitCount())
	assert.Equal(t, "0xburnhash", f.ledger.submissions[1].txHash)
}

func TestRetrySyncWithoutPendingRecord(t *testing.T) {
	f := newOrchestratorFixture(t)

	_, err := f.orch.RetrySync(context.Background())

	assert.ErrorIs(t, err, core.ErrNoSyncPending)
	assert.Equal(t, 0, f.ledger.submitCount())
}

func TestSubmitBlockedWhileSyncPending(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.ledger.submitErrs = []error{core.ErrNetwork}

	_, err := f.orch.Submit(context.Background(), validBurnRequest(3))
	require.ErrorIs(t, err, core.ErrNetwork)

	// An unsaved record blocks new burns until it is synced or abandoned.
	_, err = f.orch.Submit(context.Background(), validBurnRequest(3))
	assert.ErrorIs(t, err, core.ErrSyncPending)
	assert.Equal(t, 1, f.gateway.burnCalls)
}

func TestSubmitRejectsConcurrentAttempt(t *testing.T) {
	f := newOrchestratorFixture(t)

	release := make(chan struct{})
	started := make(chan struct{})
	f.gateway.approveHook = func() {
		close(started)
		<-release
	}

	var wg sync.WaitGroup
	wg.Add(1)
	var firstErr error
	go func() {
		defer wg.Done()
		_, firstErr = f.orch.Submit(context.Background(), validBurnRequest(3))
	}()

	<-started
	_, err := f.orch.Submit(context.Background(), validBurnRequest(3))
	assert.ErrorIs(t, err, core.ErrAttemptInFlight)

	close(release)
	wg.Wait()
	require.NoError(t, firstErr)
	assert.Equal(t, 1, f.gateway.burnCalls)
}

func TestFeeQuotedFreshPerAttempt(t *testing.T) {
	f := newOrchestratorFixture(t)

	_, err := f.orch.Submit(context.Background(), validBurnRequest(3))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), f.gateway.lastFeePassed)

	require.NoError(t, f.orch.Reset())
	f.gateway.fee = big.NewInt(2_500_000)

	_, err = f.orch.Submit(context.Background(), validBurnRequest(3))
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(2_500_000), f.gateway.lastFeePassed)
	assert.Equal(t, 2, f.gateway.quoteCalls)
}

func TestResetOnlyFromTerminalStates(t *testing.T) {
	f := newOrchestratorFixture(t)

	require.NoError(t, f.orch.Reset()) // Idle resets to Idle

	_, err := f.orch.Submit(context.Background(), validBurnRequest(3))
	require.NoError(t, err)
	require.Equal(t, core.StateSynced, f.orch.Attempt().State)

	require.NoError(t, f.orch.Reset())
	assert.Equal(t, core.StateIdle, f.orch.Attempt().State)
}

func TestResetAbandonsUnsavedRecord(t *testing.T) {
	f := newOrchestratorFixture(t)
	f.ledger.submitErrs = []error{errors.New("ledger offline")}

	_, err := f.orch.Submit(context.Background(), validBurnRequest(3))
	require.Error(t, err)
	require.Equal(t, core.StateSyncFailedAfterBurn, f.orch.Attempt().State)

	require.NoError(t, f.orch.Reset())
	assert.Equal(t, core.StateIdle, f.orch.Attempt().State)

	// After an explicit reset the orchestrator accepts a new burn again.
	_, err = f.orch.Submit(context.Background(), validBurnRequest(3))
	require.NoError(t, err)
}

func TestSyncFailsWhenCredentialLost(t *testing.T) {
	f := newOrchestratorFixture(t)

	// Drop authentication after submission starts but before the sync tail
	// reads the credential. Simulated by logging out mid-burn.
	f.gateway.approveHook = func() {
		f.mgr.Logout(context.Background())
	}

	snap, err := f.orch.Submit(context.Background(), validBurnRequest(3))

	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrUnauthorized)
	assert.Equal(t, core.StateSyncFailedAfterBurn, snap.State)
	assert.Equal(t, "0xburnhash", snap.TxHash)
	assert.Equal(t, 0, f.ledger.submitCount())
}
