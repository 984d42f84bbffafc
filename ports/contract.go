package ports

import (
	"context"
	"math/big"
)

// ContractGateway wraps the on-chain surface of the burn flow. Failures are
// classified into the core sentinels (ErrUserRejected, ErrInsufficientFunds,
// ErrContractReverted, ErrNetwork).
type ContractGateway interface {
	// EnsureApproval grants the burn manager collection-wide transfer
	// approval if, and only if, it is not already granted.
	EnsureApproval(ctx context.Context) error

	// QuoteFee reads the current burn fee from the contract. Never cached:
	// the fee is a mutable on-chain parameter.
	QuoteFee(ctx context.Context) (*big.Int, error)

	// BurnQuota reads the burn-set size the contract enforces.
	BurnQuota(ctx context.Context) (uint16, error)

	// ExecuteBurn submits the fee-bearing burn transaction and waits for
	// confirmation. Not idempotent: callers must never resubmit for the
	// same attempt without proof the prior submission failed on-chain.
	ExecuteBurn(ctx context.Context, burnIDs []uint32, featuredID uint32, fee *big.Int) (string, error)
}
