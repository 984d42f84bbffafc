package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/ports"
)

// DefaultCredentialTTL mirrors the ledger service's credential lifetime.
const DefaultCredentialTTL = 6 * time.Hour

// WalletSessionManager owns wallet connection state and the challenge
// handshake that turns a connected wallet into an authenticated session.
// It is the single writer of the session; everyone else reads copies.
type WalletSessionManager struct {
	wallet ports.WalletProvider
	ledger ports.LedgerClient
	store  ports.CredentialStore
	events ports.EventPublisher
	log    zerolog.Logger

	credentialTTL time.Duration

	mu      sync.RWMutex
	session core.WalletSession
}

// NewWalletSessionManager creates a session manager for the wallet's
// account. The store is session-scoped: its lifetime bounds how long a
// credential survives without a fresh challenge.
func NewWalletSessionManager(
	wallet ports.WalletProvider,
	ledger ports.LedgerClient,
	store ports.CredentialStore,
	events ports.EventPublisher,
	log zerolog.Logger,
) *WalletSessionManager {
	return &WalletSessionManager{
		wallet:        wallet,
		ledger:        ledger,
		store:         store,
		events:        events,
		log:           log.With().Str("component", "session").Logger(),
		credentialTTL: DefaultCredentialTTL,
		session:       core.WalletSession{Address: wallet.Address()},
	}
}

func credentialKey(address common.Address) string {
	return "credential:" + strings.ToLower(address.Hex())
}

// Connect adopts the wallet's current address and restores a previously
// stored credential for it, if one is still alive in the store. A restored
// credential skips the challenge on reload without extending its lifetime.
func (m *WalletSessionManager) Connect(ctx context.Context) error {
	addr := m.wallet.Address()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = core.WalletSession{Address: addr}

	credential, err := m.store.Get(ctx, credentialKey(addr))
	if err != nil {
		// No stored credential is the normal first-connect case.
		return nil
	}

	m.session.Credential = credential
	m.session.Authenticated = true
	m.log.Debug().Str("address", addr.Hex()).Msg("restored stored credential")
	return nil
}

// Login runs the challenge-response handshake: fetch the one-time message,
// have the wallet sign it (this suspends on human approval and may surface
// core.ErrUserRejected), then trade the signature for a credential.
func (m *WalletSessionManager) Login(ctx context.Context) error {
	addr := m.wallet.Address()

	message, err := m.ledger.SignMessage(ctx, addr)
	if err != nil {
		return fmt.Errorf("%w: %v", core.ErrChallengeFetch, err)
	}

	signature, err := m.wallet.SignMessage(ctx, message)
	if err != nil {
		return fmt.Errorf("signing challenge: %w", err)
	}

	credential, err := m.ledger.VerifySignature(ctx, addr, signature)
	if err != nil {
		return fmt.Errorf("verifying signature: %w", err)
	}

	m.mu.Lock()
	// The wallet may have switched accounts while the prompt was open; the
	// credential belongs to the address that signed, nothing else.
	if m.session.Address != addr {
		m.mu.Unlock()
		return core.ErrNotAuthenticated
	}
	m.session.Credential = credential
	m.session.Authenticated = true
	m.mu.Unlock()

	if err := m.store.Set(ctx, credentialKey(addr), credential, m.credentialTTL); err != nil {
		m.log.Warn().Err(err).Msg("credential not persisted; session stays authenticated")
	}

	m.log.Info().Str("address", addr.Hex()).Msg("wallet session authenticated")
	return nil
}

// Session returns a copy of the current session.
func (m *WalletSessionManager) Session() core.WalletSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Credential returns the bearer credential, if authenticated.
func (m *WalletSessionManager) Credential() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.session.Authenticated {
		return "", false
	}
	return m.session.Credential, true
}

// Authenticated reports whether the session holds a live credential.
func (m *WalletSessionManager) Authenticated() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Authenticated
}

// Address returns the connected account.
func (m *WalletSessionManager) Address() common.Address {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Address
}

// Disconnect tears the session down the instant wallet connectivity drops.
// The credential is cleared before anything else can observe the session.
func (m *WalletSessionManager) Disconnect(ctx context.Context) {
	m.mu.Lock()
	addr := m.session.Address
	m.session = core.WalletSession{}
	m.mu.Unlock()

	if err := m.store.Delete(ctx, credentialKey(addr)); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear stored credential")
	}
	if m.events != nil {
		if err := m.events.PublishLogout(ctx, addr.Hex()); err != nil {
			m.log.Warn().Err(err).Msg("failed to publish logout event")
		}
	}
	m.log.Info().Str("address", addr.Hex()).Msg("wallet session disconnected")
}

// SwitchAccount handles an account or chain switch: the previous address's
// credential must never be reused for the new address, so authentication is
// dropped immediately and the caller re-runs Connect/Login.
func (m *WalletSessionManager) SwitchAccount(ctx context.Context, addr common.Address) {
	m.mu.Lock()
	m.session = core.WalletSession{Address: addr}
	m.mu.Unlock()
	m.log.Info().Str("address", addr.Hex()).Msg("account switched, authentication dropped")
}

// Logout is an explicit user sign-out: same teardown as a disconnect but
// the wallet stays connected.
func (m *WalletSessionManager) Logout(ctx context.Context) {
	m.mu.Lock()
	addr := m.session.Address
	m.session = core.WalletSession{Address: addr}
	m.mu.Unlock()

	if err := m.store.Delete(ctx, credentialKey(addr)); err != nil {
		m.log.Warn().Err(err).Msg("failed to clear stored credential")
	}
	if m.events != nil {
		if err := m.events.PublishLogout(ctx, addr.Hex()); err != nil {
			m.log.Warn().Err(err).Msg("failed to publish logout event")
		}
	}
}
