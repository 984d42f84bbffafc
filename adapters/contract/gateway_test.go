package contract

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phanstudios/what-the-burn/adapters/wallet"
	"github.com/phanstudios/what-the-burn/core"
)

var (
	testNFTAddr     = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	testManagerAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

// fakeBackend answers contract calls from canned state and records every
// submitted transaction without executing anything.
type fakeBackend struct {
	mu sync.Mutex

	nftABI     abi.ABI
	managerABI abi.ABI

	approved bool
	fee      *big.Int
	quota    uint16

	sent          []*types.Transaction
	approvalTxs   int
	burnTxs       int
	receiptStatus uint64
	sendErr       error
	callErr       error
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	parsedNFT, err := abi.JSON(strings.NewReader(nftABI))
	require.NoError(t, err)
	parsedManager, err := abi.JSON(strings.NewReader(managerABI))
	require.NoError(t, err)
	return &fakeBackend{
		nftABI:        parsedNFT,
		managerABI:    parsedManager,
		fee:           big.NewInt(1_000_000),
		quota:         5,
		receiptStatus: types.ReceiptStatusSuccessful,
	}
}

func (b *fakeBackend) CodeAt(ctx context.Context, contract common.Address, blockNumber *big.Int) ([]byte, error) {
	return []byte{0x01}, nil
}

func (b *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.callErr != nil {
		return nil, b.callErr
	}

	selector := call.Data[:4]
	switch {
	case matches(selector, b.nftABI.Methods["isApprovedForAll"]):
		return b.nftABI.Methods["isApprovedForAll"].Outputs.Pack(b.approved)
	case matches(selector, b.managerABI.Methods["getBurnFee"]):
		return b.managerABI.Methods["getBurnFee"].Outputs.Pack(new(big.Int).Set(b.fee))
	case matches(selector, b.managerABI.Methods["BurnAmount"]):
		return b.managerABI.Methods["BurnAmount"].Outputs.Pack(b.quota)
	}
	return nil, errors.New("unexpected call")
}

func (b *fakeBackend) HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error) {
	return &types.Header{Number: big.NewInt(1), BaseFee: big.NewInt(1_000_000_000)}, nil
}

func (b *fakeBackend) PendingCodeAt(ctx context.Context, account common.Address) ([]byte, error) {
	return []byte{0x01}, nil
}

func (b *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.sent)), nil
}

func (b *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (b *fakeBackend) SuggestGasTipCap(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1), nil
}

func (b *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 100_000, nil
}

func (b *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sendErr != nil {
		return b.sendErr
	}

	selector := tx.Data()[:4]
	switch {
	case matches(selector, b.nftABI.Methods["setApprovalForAll"]):
		b.approvalTxs++
		b.approved = true
	case matches(selector, b.managerABI.Methods["createPremium"]):
		b.burnTxs++
	}
	b.sent = append(b.sent, tx)
	return nil
}

func (b *fakeBackend) FilterLogs(ctx context.Context, query ethereum.FilterQuery) ([]types.Log, error) {
	return nil, nil
}

func (b *fakeBackend) SubscribeFilterLogs(ctx context.Context, query ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error) {
	return nil, errors.New("subscriptions not supported")
}

func (b *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return &types.Receipt{
		Status:      b.receiptStatus,
		TxHash:      txHash,
		BlockNumber: big.NewInt(2),
	}, nil
}

func matches(selector []byte, method abi.Method) bool {
	for i := range selector {
		if selector[i] != method.ID[i] {
			return false
		}
	}
	return true
}

func newTestGateway(t *testing.T) (*Gateway, *fakeBackend) {
	t.Helper()

	// Throwaway key; the fake backend never validates signatures.
	w, err := wallet.NewKeyWallet(
		"46e179afc7ca45b8fdb49e662a38eadd35f0a775dbef4a54eaffaeb5239411a5",
		big.NewInt(1337),
	)
	require.NoError(t, err)

	backend := newFakeBackend(t)
	g, err := NewGateway(backend, w, testNFTAddr, testManagerAddr, zerolog.Nop())
	require.NoError(t, err)
	return g, backend
}

func TestEnsureApprovalSubmitsOnce(t *testing.T) {
	g, backend := newTestGateway(t)
	ctx := context.Background()

	require.NoError(t, g.EnsureApproval(ctx))
	assert.Equal(t, 1, backend.approvalTxs)

	// Approval is now on-chain; no second grant is submitted.
	require.NoError(t, g.EnsureApproval(ctx))
	assert.Equal(t, 1, backend.approvalTxs)
}

func TestEnsureApprovalSkipsWhenGranted(t *testing.T) {
	g, backend := newTestGateway(t)
	backend.approved = true

	require.NoError(t, g.EnsureApproval(context.Background()))
	assert.Equal(t, 0, backend.approvalTxs)
	assert.Empty(t, backend.sent)
}

func TestQuoteFeeReadsFresh(t *testing.T) {
	g, backend := newTestGateway(t)
	ctx := context.Background()

	fee, err := g.QuoteFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_000), fee)

	backend.fee = big.NewInt(7_500_000)
	fee, err = g.QuoteFee(ctx)
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(7_500_000), fee)
}

func TestBurnQuota(t *testing.T) {
	g, backend := newTestGateway(t)
	backend.quota = 9

	quota, err := g.BurnQuota(context.Background())
	require.NoError(t, err)
	assert.Equal(t, uint16(9), quota)
}

func TestExecuteBurnCarriesFee(t *testing.T) {
	g, backend := newTestGateway(t)

	hash, err := g.ExecuteBurn(context.Background(), []uint32{7, 8, 9}, 42, big.NewInt(1_000_000))
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.Equal(t, 1, backend.burnTxs)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, big.NewInt(1_000_000), tx.Value())
	assert.Equal(t, testManagerAddr, *tx.To())

	// The calldata decodes back to the submitted selection.
	args, err := backend.managerABI.Methods["createPremium"].Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, []uint32{7, 8, 9}, args[0])
	assert.Equal(t, uint32(42), args[1])
}

func TestExecuteBurnRevertedReceipt(t *testing.T) {
	g, backend := newTestGateway(t)
	backend.receiptStatus = types.ReceiptStatusFailed

	_, err := g.ExecuteBurn(context.Background(), []uint32{1, 2, 3}, 4, big.NewInt(1))
	assert.ErrorIs(t, err, core.ErrContractReverted)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		raw  error
		want error
	}{
		{"insufficient funds", errors.New("insufficient funds for gas * price + value"), core.ErrInsufficientFunds},
		{"reverted", errors.New("execution reverted: not owner"), core.ErrContractReverted},
		{"transport", errors.New("connection refused"), core.ErrNetwork},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g, backend := newTestGateway(t)
			backend.sendErr = tc.raw

			_, err := g.ExecuteBurn(context.Background(), []uint32{1, 2, 3}, 4, big.NewInt(1))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestClassifyPassesThroughUserRejection(t *testing.T) {
	assert.ErrorIs(t, classify(core.ErrUserRejected), core.ErrUserRejected)
	assert.ErrorIs(t, classify(context.Canceled), context.Canceled)
	assert.NoError(t, classify(nil))
}

func TestEnsureApprovalCallFailure(t *testing.T) {
	g, backend := newTestGateway(t)
	backend.callErr = errors.New("connection refused")

	err := g.EnsureApproval(context.Background())
	assert.ErrorIs(t, err, core.ErrNetwork)
}
