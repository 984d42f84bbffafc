package core

import "github.com/ethereum/go-ethereum/common"

// WalletSession couples wallet connectivity with backend authentication.
// It is owned exclusively by the session manager; every other component
// reads a copy. The credential from one address is never valid for another.
type WalletSession struct {
	Address       common.Address
	Credential    string
	Authenticated bool
}
