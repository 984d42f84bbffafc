package wallet

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/ports"
)

// ConfirmFunc asks the user to approve one wallet action. It may block
// indefinitely; an indefinite wait is correct wallet UX, and cancellation
// comes from the context of the surrounding call.
type ConfirmFunc func(action string) bool

// PromptWallet wraps a provider with a per-action confirmation, modelling
// the approval prompt of a browser wallet. A declined prompt surfaces as
// core.ErrUserRejected, never a generic error.
type PromptWallet struct {
	inner   ports.WalletProvider
	confirm ConfirmFunc
}

// NewPromptWallet wraps inner with the confirmation callback.
func NewPromptWallet(inner ports.WalletProvider, confirm ConfirmFunc) *PromptWallet {
	return &PromptWallet{inner: inner, confirm: confirm}
}

var _ ports.WalletProvider = (*PromptWallet)(nil)

// Address returns the wrapped account.
func (w *PromptWallet) Address() common.Address {
	return w.inner.Address()
}

// SignMessage asks for approval, then delegates.
func (w *PromptWallet) SignMessage(ctx context.Context, message string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !w.confirm("sign message:\n" + message) {
		return "", core.ErrUserRejected
	}
	return w.inner.SignMessage(ctx, message)
}

// Transactor asks for approval, then delegates.
func (w *PromptWallet) Transactor(ctx context.Context) (*bind.TransactOpts, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !w.confirm("send a transaction") {
		return nil, core.ErrUserRejected
	}
	return w.inner.Transactor(ctx)
}
