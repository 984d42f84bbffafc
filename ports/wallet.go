package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
)

// WalletProvider mediates every operation that needs the user's key. Both
// SignMessage and Transactor may block on human approval and must return
// core.ErrUserRejected when the user declines, never a generic error.
type WalletProvider interface {
	// Address returns the connected account.
	Address() common.Address

	// SignMessage signs a personal-sign (EIP-191) message and returns the
	// 65-byte signature hex-encoded.
	SignMessage(ctx context.Context, message string) (string, error)

	// Transactor returns signing options for one transaction.
	Transactor(ctx context.Context) (*bind.TransactOpts, error)
}
