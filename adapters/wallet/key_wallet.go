package wallet

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"

	"github.com/phanstudios/what-the-burn/ports"
)

// KeyWallet is a WalletProvider backed by a raw private key. It signs
// without prompting; wrap it in a PromptWallet to model the human approval
// step of a browser wallet.
type KeyWallet struct {
	key     *ecdsa.PrivateKey
	address common.Address
	chainID *big.Int
}

// NewKeyWallet builds a wallet from a hex-encoded private key.
func NewKeyWallet(hexKey string, chainID *big.Int) (*KeyWallet, error) {
	key, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("parsing private key: %w", err)
	}
	return &KeyWallet{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
		chainID: chainID,
	}, nil
}

var _ ports.WalletProvider = (*KeyWallet)(nil)

// Address returns the account derived from the key.
func (w *KeyWallet) Address() common.Address {
	return w.address
}

// SignMessage personal-signs (EIP-191) the message and returns the 65-byte
// signature hex-encoded, with V in the 27/28 convention wallets use.
func (w *KeyWallet) SignMessage(ctx context.Context, message string) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash([]byte(message)), w.key)
	if err != nil {
		return "", fmt.Errorf("signing message: %w", err)
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// Transactor returns signing options bound to the wallet's chain.
func (w *KeyWallet) Transactor(ctx context.Context) (*bind.TransactOpts, error) {
	opts, err := bind.NewKeyedTransactorWithChainID(w.key, w.chainID)
	if err != nil {
		return nil, fmt.Errorf("building transactor: %w", err)
	}
	opts.Context = ctx
	return opts, nil
}
