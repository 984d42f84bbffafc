package ports

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/phanstudios/what-the-burn/core"
)

// LedgerClient talks to the off-chain ledger service. Implementations wrap
// transport failures in core.ErrNetwork, credential rejections in
// core.ErrUnauthorized and schema rejections in core.ErrValidationRejected
// so the orchestrator can decide retryability.
type LedgerClient interface {
	// SignMessage fetches the one-time challenge message bound to address.
	SignMessage(ctx context.Context, address common.Address) (string, error)

	// VerifySignature posts the signed challenge and returns the session
	// credential.
	VerifySignature(ctx context.Context, address common.Address, signature string) (string, error)

	// UserTokens lists the assets owned by the authenticated address.
	UserTokens(ctx context.Context, credential string) ([]core.NFTAsset, error)

	// SubmitUpdateRequest records a confirmed burn. Safe to repeat with the
	// same transaction hash; the server dedups on it, but callers surface
	// the outcome instead of looping.
	SubmitUpdateRequest(ctx context.Context, credential string, address common.Address, req *core.BurnRequest, txHash string) (string, error)
}
