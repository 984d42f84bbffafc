package ports

// Tokenizer mints and checks the opaque session credential issued by the
// ledger service after signature verification.
type Tokenizer interface {
	// Issue mints a credential bound to the wallet address.
	Issue(address string) (string, error)

	// Verify checks a credential and returns the bound address.
	Verify(credential string) (string, error)
}
