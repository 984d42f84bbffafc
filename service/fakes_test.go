package service

import (
	"context"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/phanstudios/what-the-burn/core"
)

type fakeWallet struct {
	address   common.Address
	signature string
	signErr   error
	signCalls int
}

func (w *fakeWallet) Address() common.Address { return w.address }

func (w *fakeWallet) SignMessage(ctx context.Context, message string) (string, error) {
	w.signCalls++
	if w.signErr != nil {
		return "", w.signErr
	}
	return w.signature, nil
}

func (w *fakeWallet) Transactor(ctx context.Context) (*bind.TransactOpts, error) {
	return &bind.TransactOpts{From: w.address, Context: ctx}, nil
}

type submission struct {
	credential string
	address    common.Address
	req        *core.BurnRequest
	txHash     string
}

type fakeLedger struct {
	mu sync.Mutex

	challengeMsg string
	challengeErr error
	credential   string
	verifyErr    error
	tokens       []core.NFTAsset

	recordID    string
	submitErrs  []error // consumed one per SubmitUpdateRequest call
	submissions []submission
}

func (l *fakeLedger) SignMessage(ctx context.Context, address common.Address) (string, error) {
	if l.challengeErr != nil {
		return "", l.challengeErr
	}
	return l.challengeMsg, nil
}

func (l *fakeLedger) VerifySignature(ctx context.Context, address common.Address, signature string) (string, error) {
	if l.verifyErr != nil {
		return "", l.verifyErr
	}
	return l.credential, nil
}

func (l *fakeLedger) UserTokens(ctx context.Context, credential string) ([]core.NFTAsset, error) {
	return l.tokens, nil
}

func (l *fakeLedger) SubmitUpdateRequest(ctx context.Context, credential string, address common.Address, req *core.BurnRequest, txHash string) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.submissions = append(l.submissions, submission{
		credential: credential,
		address:    address,
		req:        req,
		txHash:     txHash,
	})
	if len(l.submitErrs) > 0 {
		err := l.submitErrs[0]
		l.submitErrs = l.submitErrs[1:]
		if err != nil {
			return "", err
		}
	}
	return l.recordID, nil
}

func (l *fakeLedger) submitCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.submissions)
}

type fakeGateway struct {
	approved      bool
	approvalTxs   int
	approveHook   func() // runs at the start of EnsureApproval
	ensureErr     error
	fee           *big.Int
	feeErr        error
	quoteCalls    int
	quota         uint16
	burnHash      string
	burnErr       error
	burnCalls     int
	lastBurnIDs   []uint32
	lastFeatured  uint32
	lastFeePassed *big.Int
}

func (g *fakeGateway) EnsureApproval(ctx context.Context) error {
	if g.approveHook != nil {
		g.approveHook()
	}
	if g.ensureErr != nil {
		return g.ensureErr
	}
	if !g.approved {
		g.approvalTxs++
		g.approved = true
	}
	return nil
}

func (g *fakeGateway) QuoteFee(ctx context.Context) (*big.Int, error) {
	g.quoteCalls++
	if g.feeErr != nil {
		return nil, g.feeErr
	}
	return new(big.Int).Set(g.fee), nil
}

func (g *fakeGateway) BurnQuota(ctx context.Context) (uint16, error) {
	return g.quota, nil
}

func (g *fakeGateway) ExecuteBurn(ctx context.Context, burnIDs []uint32, featuredID uint32, fee *big.Int) (string, error) {
	g.burnCalls++
	g.lastBurnIDs = burnIDs
	g.lastFeatured = featuredID
	g.lastFeePassed = fee
	if g.burnErr != nil {
		return "", g.burnErr
	}
	return g.burnHash, nil
}

type fakeEvents struct {
	mu          sync.Mutex
	transitions []core.BurnAttempt
	logouts     []string
}

func (e *fakeEvents) PublishTransition(ctx context.Context, attempt core.BurnAttempt) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.transitions = append(e.transitions, attempt)
	return nil
}

func (e *fakeEvents) PublishLogout(ctx context.Context, address string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.logouts = append(e.logouts, address)
	return nil
}

func (e *fakeEvents) states() []core.AttemptState {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]core.AttemptState, len(e.transitions))
	for i, a := range e.transitions {
		out[i] = a.State
	}
	return out
}
