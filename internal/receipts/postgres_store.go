package receipts

import (
	"context"
	"database/sql"
)

// PostgresStore persists receipt data in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgreSQL-backed receipt store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate creates the receipts table and indexes.
func (p *PostgresStore) Migrate(ctx context.Context) error {
	_, err := p.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS receipts (
			id           VARCHAR(36) PRIMARY KEY,
			action       VARCHAR(40) NOT NULL,
			reference    VARCHAR(255) NOT NULL,
			account      VARCHAR(42) NOT NULL,
			tx_hash      VARCHAR(66),
			status       VARCHAR(20) NOT NULL CHECK (status IN ('completed','failed')),
			payload_hash VARCHAR(64) NOT NULL,
			signature    VARCHAR(128) NOT NULL,
			issued_at    TIMESTAMPTZ NOT NULL,
			expires_at   TIMESTAMPTZ NOT NULL,
			metadata     TEXT,
			created_at   TIMESTAMPTZ DEFAULT NOW()
		);
		CREATE INDEX IF NOT EXISTS idx_receipts_account ON receipts (account, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_receipts_reference ON receipts (reference);
		CREATE INDEX IF NOT EXISTS idx_receipts_action ON receipts (action, created_at DESC);
	`)
	return err
}

func (p *PostgresStore) Create(ctx context.Context, r *Receipt) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO receipts (
			id, action, reference, account, tx_hash,
			status, payload_hash, signature,
			issued_at, expires_at, metadata, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12
		)`,
		r.ID, r.Action, r.Reference, r.Account, nullString(r.TxHash),
		r.Status, r.PayloadHash, r.Signature,
		r.IssuedAt, r.ExpiresAt, nullString(r.Metadata), r.CreatedAt,
	)
	return err
}

func (p *PostgresStore) Get(ctx context.Context, id string) (*Receipt, error) {
	row := p.db.QueryRowContext(ctx, `
		SELECT id, action, reference, account, tx_hash,
		       status, payload_hash, signature,
		       issued_at, expires_at, metadata, created_at
		FROM receipts WHERE id = $1`, id)

	r, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return nil, ErrReceiptNotFound
	}
	return r, err
}

func (p *PostgresStore) ListByAccount(ctx context.Context, account string, limit int) ([]*Receipt, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, action, reference, account, tx_hash,
		       status, payload_hash, signature,
		       issued_at, expires_at, metadata, created_at
		FROM receipts
		WHERE account = $1
		ORDER BY created_at DESC
		LIMIT $2`, account, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanReceipts(rows)
}

func (p *PostgresStore) ListByReference(ctx context.Context, reference string) ([]*Receipt, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, action, reference, account, tx_hash,
		       status, payload_hash, signature,
		       issued_at, expires_at, metadata, created_at
		FROM receipts
		WHERE reference = $1
		ORDER BY created_at DESC`, reference)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	return scanReceipts(rows)
}

// --- scanners ---

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanReceipt(sc scanner) (*Receipt, error) {
	r := &Receipt{}
	var (
		txHash   sql.NullString
		metadata sql.NullString
	)

	err := sc.Scan(
		&r.ID, &r.Action, &r.Reference, &r.Account, &txHash,
		&r.Status, &r.PayloadHash, &r.Signature,
		&r.IssuedAt, &r.ExpiresAt, &metadata, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	r.TxHash = txHash.String
	r.Metadata = metadata.String
	return r, nil
}

func scanReceipts(rows *sql.Rows) ([]*Receipt, error) {
	var result []*Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

var _ Store = (*PostgresStore)(nil)
