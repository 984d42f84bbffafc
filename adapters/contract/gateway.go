package contract

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/ports"
)

// DefaultConfirmTimeout bounds the wait for one transaction confirmation.
const DefaultConfirmTimeout = 2 * time.Minute

// Backend is the subset of an Ethereum client the gateway needs. An
// *ethclient.Client satisfies it.
type Backend interface {
	bind.ContractBackend
	bind.DeployBackend
}

// Gateway wraps the on-chain surface of the burn flow behind the
// ContractGateway port: the NFT collection's approval calls and the burn
// manager's fee, quota and batch-burn calls.
type Gateway struct {
	backend Backend
	wallet  ports.WalletProvider
	log     zerolog.Logger

	nft         *bind.BoundContract
	manager     *bind.BoundContract
	managerAddr common.Address

	confirmTimeout time.Duration
}

// NewGateway binds the NFT and burn manager contracts at their deployed
// addresses.
func NewGateway(
	backend Backend,
	wallet ports.WalletProvider,
	nftAddr, managerAddr common.Address,
	log zerolog.Logger,
) (*Gateway, error) {
	parsedNFT, err := abi.JSON(strings.NewReader(nftABI))
	if err != nil {
		return nil, fmt.Errorf("parsing nft abi: %w", err)
	}
	parsedManager, err := abi.JSON(strings.NewReader(managerABI))
	if err != nil {
		return nil, fmt.Errorf("parsing manager abi: %w", err)
	}

	return &Gateway{
		backend:        backend,
		wallet:         wallet,
		log:            log.With().Str("component", "contract").Logger(),
		nft:            bind.NewBoundContract(nftAddr, parsedNFT, backend, backend, backend),
		manager:        bind.NewBoundContract(managerAddr, parsedManager, backend, backend, backend),
		managerAddr:    managerAddr,
		confirmTimeout: DefaultConfirmTimeout,
	}, nil
}

var _ ports.ContractGateway = (*Gateway)(nil)

// EnsureApproval grants the burn manager collection-wide approval. When the
// approval is already on-chain no transaction is submitted: a duplicate
// grant would waste gas and raise a pointless wallet prompt.
func (g *Gateway) EnsureApproval(ctx context.Context) error {
	owner := g.wallet.Address()

	var out []interface{}
	err := g.nft.Call(&bind.CallOpts{Context: ctx}, &out, "isApprovedForAll", owner, g.managerAddr)
	if err != nil {
		return classify(err)
	}
	approved := *abi.ConvertType(out[0], new(bool)).(*bool)
	if approved {
		g.log.Debug().Str("owner", owner.Hex()).Msg("approval already granted")
		return nil
	}

	opts, err := g.wallet.Transactor(ctx)
	if err != nil {
		return classify(err)
	}
	tx, err := g.nft.Transact(opts, "setApprovalForAll", g.managerAddr, true)
	if err != nil {
		return classify(err)
	}

	g.log.Info().Str("tx", tx.Hash().Hex()).Msg("approval submitted")
	if _, err := g.waitConfirmed(ctx, tx); err != nil {
		return err
	}
	return nil
}

// QuoteFee reads the burn fee from the contract. The fee is an on-chain
// parameter an administrator may change at any moment, so it is read fresh
// on every call and never cached.
func (g *Gateway) QuoteFee(ctx context.Context) (*big.Int, error) {
	var out []interface{}
	err := g.manager.Call(&bind.CallOpts{Context: ctx}, &out, "getBurnFee")
	if err != nil {
		return nil, classify(err)
	}
	return abi.ConvertType(out[0], new(big.Int)).(*big.Int), nil
}

// BurnQuota reads the burn-set size the manager contract enforces.
func (g *Gateway) BurnQuota(ctx context.Context) (uint16, error) {
	var out []interface{}
	err := g.manager.Call(&bind.CallOpts{Context: ctx}, &out, "BurnAmount")
	if err != nil {
		return 0, classify(err)
	}
	return *abi.ConvertType(out[0], new(uint16)).(*uint16), nil
}

// ExecuteBurn submits the fee-bearing batch burn and waits for it to
// confirm. Not idempotent: the caller owns the guarantee that this is
// invoked at most once per attempt.
func (g *Gateway) ExecuteBurn(ctx context.Context, burnIDs []uint32, featuredID uint32, fee *big.Int) (string, error) {
	opts, err := g.wallet.Transactor(ctx)
	if err != nil {
		return "", classify(err)
	}
	opts.Value = fee

	tx, err := g.manager.Transact(opts, "createPremium", burnIDs, featuredID)
	if err != nil {
		return "", classify(err)
	}

	g.log.Info().
		Str("tx", tx.Hash().Hex()).
		Uints32("burn_ids", burnIDs).
		Uint32("featured", featuredID).
		Str("fee", fee.String()).
		Msg("burn submitted")

	if _, err := g.waitConfirmed(ctx, tx); err != nil {
		return "", err
	}
	return tx.Hash().Hex(), nil
}

// waitConfirmed waits for the receipt within the confirmation timeout and
// rejects reverted executions.
func (g *Gateway) waitConfirmed(ctx context.Context, tx *types.Transaction) (*types.Receipt, error) {
	waitCtx, cancel := context.WithTimeout(ctx, g.confirmTimeout)
	defer cancel()

	receipt, err := bind.WaitMined(waitCtx, g.backend, tx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: confirmation of %s timed out", core.ErrNetwork, tx.Hash().Hex())
		}
		return nil, classify(err)
	}
	if receipt.Status == types.ReceiptStatusFailed {
		return nil, fmt.Errorf("%w: transaction %s", core.ErrContractReverted, tx.Hash().Hex())
	}
	return receipt, nil
}

// classify maps raw client errors onto the failure taxonomy so the
// orchestrator can decide retryability without string matching.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, core.ErrUserRejected) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "insufficient funds"):
		return fmt.Errorf("%w: %v", core.ErrInsufficientFunds, err)
	case strings.Contains(msg, "execution reverted"):
		return fmt.Errorf("%w: %v", core.ErrContractReverted, err)
	default:
		return fmt.Errorf("%w: %v", core.ErrNetwork, err)
	}
}
