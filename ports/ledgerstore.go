package ports

import (
	"context"

	"github.com/phanstudios/what-the-burn/core"
)

// UpdateRecord is a persisted burn record, keyed by transaction hash so a
// repeated submission of the same burn is naturally deduplicated.
type UpdateRecord struct {
	TransactionHash string
	Address         string
	UpdateID        uint32
	BurnIDs         []uint32
	UpdateName      string
	Description     string
	ImageName       string
	Image           []byte
	Updated         bool
}

// LedgerStore persists the ledger service's state: token ownership
// snapshots and confirmed burn records.
type LedgerStore interface {
	// TokensByOwner lists the assets currently owned by address.
	TokensByOwner(ctx context.Context, address string) ([]core.NFTAsset, error)

	// SaveUpdateRequest inserts a burn record. Inserting an existing
	// transaction hash is not an error; it reports created=false and
	// leaves the stored record untouched.
	SaveUpdateRequest(ctx context.Context, rec *UpdateRecord) (created bool, err error)

	// UpdateRequests lists stored burn records, newest first.
	UpdateRequests(ctx context.Context) ([]UpdateRecord, error)
}
