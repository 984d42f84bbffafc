package ledgerstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/phanstudios/what-the-burn/core"
	"github.com/phanstudios/what-the-burn/ports"
)

// SQLiteStore persists the ledger service's token snapshots and burn
// records in a single SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

var _ ports.LedgerStore = (*SQLiteStore)(nil)

func (s *SQLiteStore) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tokens (
		id INTEGER PRIMARY KEY,
		owner TEXT NOT NULL COLLATE NOCASE,
		name TEXT NOT NULL,
		image_url TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_tokens_owner ON tokens(owner);

	CREATE TABLE IF NOT EXISTS update_requests (
		transaction_hash TEXT PRIMARY KEY,
		address TEXT NOT NULL COLLATE NOCASE,
		update_id INTEGER NOT NULL,
		burn_ids TEXT NOT NULL,
		update_name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_name TEXT NOT NULL DEFAULT '',
		image BLOB,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		updated INTEGER NOT NULL DEFAULT 0
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// TokensByOwner lists the assets currently owned by address.
func (s *SQLiteStore) TokensByOwner(ctx context.Context, address string) ([]core.NFTAsset, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, image_url FROM tokens WHERE owner = ? ORDER BY id`, address)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	var assets []core.NFTAsset
	for rows.Next() {
		var a core.NFTAsset
		if err := rows.Scan(&a.ID, &a.Name, &a.ImageURL); err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		assets = append(assets, a)
	}
	return assets, rows.Err()
}

// SeedTokens replaces the ownership snapshot for the given assets. Used to
// populate a development database and by the ownership refresher.
func (s *SQLiteStore) SeedTokens(ctx context.Context, owner string, assets []core.NFTAsset) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, a := range assets {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tokens (id, owner, name, image_url) VALUES (?, ?, ?, ?)
			 ON CONFLICT(id) DO UPDATE SET owner = excluded.owner, name = excluded.name, image_url = excluded.image_url`,
			a.ID, owner, a.Name, a.ImageURL)
		if err != nil {
			return fmt.Errorf("seed token %d: %w", a.ID, err)
		}
	}
	return tx.Commit()
}

// SaveUpdateRequest inserts a burn record. The transaction hash is the
// primary key, so re-submitting the same burn is a no-op reported via
// created=false rather than an error.
func (s *SQLiteStore) SaveUpdateRequest(ctx context.Context, rec *ports.UpdateRecord) (bool, error) {
	burnIDs, err := json.Marshal(rec.BurnIDs)
	if err != nil {
		return false, fmt.Errorf("encode burn ids: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO update_requests
		 (transaction_hash, address, update_id, burn_ids, update_name, description, image_name, image)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(transaction_hash) DO NOTHING`,
		rec.TransactionHash, rec.Address, rec.UpdateID, string(burnIDs),
		rec.UpdateName, rec.Description, rec.ImageName, rec.Image)
	if err != nil {
		return false, fmt.Errorf("insert update request: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// UpdateRequests lists stored burn records, newest first. Images are left
// out of the listing; they are large and only needed individually.
func (s *SQLiteStore) UpdateRequests(ctx context.Context) ([]ports.UpdateRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT transaction_hash, address, update_id, burn_ids, update_name, description, image_name, updated
		 FROM update_requests ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query update requests: %w", err)
	}
	defer rows.Close()

	var records []ports.UpdateRecord
	for rows.Next() {
		var rec ports.UpdateRecord
		var burnIDs string
		var updated int
		if err := rows.Scan(&rec.TransactionHash, &rec.Address, &rec.UpdateID,
			&burnIDs, &rec.UpdateName, &rec.Description, &rec.ImageName, &updated); err != nil {
			return nil, fmt.Errorf("scan update request: %w", err)
		}
		if err := json.Unmarshal([]byte(burnIDs), &rec.BurnIDs); err != nil {
			return nil, fmt.Errorf("decode burn ids: %w", err)
		}
		rec.Updated = updated != 0
		records = append(records, rec)
	}
	return records, rows.Err()
}
