package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/ports"
)

const (
	// ChallengePrefix is the fixed prefix of every sign-in message. Clients
	// sign the full message verbatim.
	ChallengePrefix = "Sign this message to authenticate: "

	// DefaultNonceTTL bounds how long an issued challenge stays valid.
	DefaultNonceTTL = 5 * time.Minute
)

// LedgerAuth implements the ledger service's side of the wallet handshake:
// nonce issuance, EIP-191 signature recovery and credential minting.
type LedgerAuth struct {
	tokenizer ports.Tokenizer
	nonces    ports.CredentialStore
	log       zerolog.Logger

	nonceTTL time.Duration
}

// NewLedgerAuth creates the auth service backed by the given nonce store
// and credential tokenizer.
func NewLedgerAuth(tokenizer ports.Tokenizer, nonces ports.CredentialStore, log zerolog.Logger) *LedgerAuth {
	return &LedgerAuth{
		tokenizer: tokenizer,
		nonces:    nonces,
		log:       log.With().Str("component", "ledger_auth").Logger(),
		nonceTTL:  DefaultNonceTTL,
	}
}

func nonceKey(address string) string {
	return "nonce:" + strings.ToLower(address)
}

// ChallengeMessage issues a fresh one-time challenge for the address. Each
// call rotates the nonce; only the latest challenge verifies.
func (s *LedgerAuth) ChallengeMessage(ctx context.Context, address string) (string, error) {
	if !common.IsHexAddress(address) {
		return "", fmt.Errorf("%w: %q is not an address", core.ErrInvalidSignature, address)
	}

	nonce := uuid.New().String()
	if err := s.nonces.Set(ctx, nonceKey(address), nonce, s.nonceTTL); err != nil {
		return "", fmt.Errorf("storing nonce: %w", err)
	}

	return ChallengePrefix + nonce, nil
}

// VerifySignature recovers the signer of the current challenge and, when it
// matches the claimed address, rotates the nonce and mints a credential.
func (s *LedgerAuth) VerifySignature(ctx context.Context, address, signature string) (string, error) {
	nonce, err := s.nonces.Get(ctx, nonceKey(address))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", core.ErrNonceNotFound
		}
		return "", fmt.Errorf("loading nonce: %w", err)
	}

	recovered, err := RecoverSigner(ChallengePrefix+nonce, signature)
	if err != nil {
		return "", err
	}
	if recovered != common.HexToAddress(address) {
		return "", core.ErrInvalidSignature
	}

	// One challenge, one login: rotate the nonce before minting.
	if err := s.nonces.Delete(ctx, nonceKey(address)); err != nil {
		s.log.Warn().Err(err).Msg("failed to rotate nonce")
	}

	credential, err := s.tokenizer.Issue(recovered.Hex())
	if err != nil {
		return "", fmt.Errorf("issuing credential: %w", err)
	}

	s.log.Info().Str("address", recovered.Hex()).Msg("signature verified, credential issued")
	return credential, nil
}

// ValidateCredential checks a bearer credential and returns the wallet
// address bound to it.
func (s *LedgerAuth) ValidateCredential(credential string) (string, error) {
	address, err := s.tokenizer.Verify(credential)
	if err != nil {
		return "", fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	return address, nil
}

// RecoverSigner recovers the address that personal-signed message. The
// signature is the 65-byte hex form wallets produce, with V in either the
// 0/1 or 27/28 convention.
func RecoverSigner(message, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: malformed signature", core.ErrInvalidSignature)
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("%w: signature must be %d bytes", core.ErrInvalidSignature, crypto.SignatureLength)
	}

	// Normalize V for crypto.SigToPub, which expects 0/1.
	sig = append([]byte(nil), sig...)
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash([]byte(message)), sig)
	if err != nil {
		return common.Address{}, fmt.Errorf("%w: %v", core.ErrInvalidSignature, err)
	}
	return crypto.PubkeyToAddress(*pub), nil
}
