package scanlog

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	id "gatepass/pkg/domain"
	txcontext "gatepass/pkg/platform/tx"
)

// PostgresStore persists scan entries in PostgreSQL. The table carries no
// UPDATE or DELETE path; the audit trail is append-only at the schema level
// too (revoke those privileges from the service role).
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) execer(ctx context.Context) txcontext.Executor {
	return txcontext.ExecutorFor(ctx, s.db)
}

func (s *PostgresStore) Append(ctx context.Context, entry Entry) error {
	query := `
		INSERT INTO scan_entries (id, registrant_id, operator_id, raw_token, is_valid, detail, device, ts)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	var registrantID any
	if entry.RegistrantID != nil {
		registrantID = uuid.UUID(*entry.RegistrantID)
	}
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entry.ID),
		registrantID,
		uuid.UUID(entry.OperatorID),
		entry.RawToken,
		entry.Valid,
		entry.Detail,
		entry.Device,
		entry.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("append scan entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]Entry, error) {
	return s.list(ctx, `
		SELECT id, registrant_id, operator_id, raw_token, is_valid, detail, device, ts
		FROM scan_entries ORDER BY ts DESC
	`)
}

func (s *PostgresStore) ListByRegistrant(ctx context.Context, registrantID id.RegistrantID) ([]Entry, error) {
	return s.list(ctx, `
		SELECT id, registrant_id, operator_id, raw_token, is_valid, detail, device, ts
		FROM scan_entries WHERE registrant_id = $1 ORDER BY ts DESC
	`, uuid.UUID(registrantID))
}

func (s *PostgresStore) list(ctx context.Context, query string, args ...any) ([]Entry, error) {
	rows, err := s.execer(ctx).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list scan entries: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e            Entry
			rawID        uuid.UUID
			registrantID uuid.NullUUID
			operatorID   uuid.UUID
		)
		if err := rows.Scan(&rawID, &registrantID, &operatorID, &e.RawToken, &e.Valid, &e.Detail, &e.Device, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan entry row: %w", err)
		}
		e.ID = id.EntryID(rawID)
		e.OperatorID = id.RegistrantID(operatorID)
		if registrantID.Valid {
			rid := id.RegistrantID(registrantID.UUID)
			e.RegistrantID = &rid
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
