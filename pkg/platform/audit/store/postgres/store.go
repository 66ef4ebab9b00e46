package postgres

import (
	"context"
	"fmt"

	id "civreg/pkg/domain"
	audit "civreg/pkg/platform/audit"
	txcontext "civreg/pkg/platform/tx"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the audit_events table.
const Schema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id              UUID PRIMARY KEY,
	category        TEXT NOT NULL,
	timestamp       TIMESTAMPTZ NOT NULL,
	session_id      UUID,
	record_id       UUID,
	registry_number TEXT NOT NULL DEFAULT '',
	action          TEXT NOT NULL,
	decision        TEXT NOT NULL DEFAULT '',
	reason          TEXT NOT NULL DEFAULT '',
	operator        TEXT NOT NULL DEFAULT '',
	request_id      TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS audit_events_session_idx ON audit_events (session_id, timestamp);
`

// Store implements audit.Store on PostgreSQL. Appends join the caller's
// transaction when one is present in the context.
type Store struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// EnsureSchema applies Schema. It is idempotent.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply audit schema: %w", err)
	}
	return nil
}

type dbExecutor interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

func (s *Store) Append(ctx context.Context, event audit.Event) error {
	query := `
		INSERT INTO audit_events (
			id, category, timestamp, session_id, record_id, registry_number,
			action, decision, reason, operator, request_id
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := s.execer(ctx).Exec(ctx, query,
		uuid.New(),
		string(audit.AuditEvent(event.Action).Category()),
		event.Timestamp,
		nullableUUID(uuid.UUID(event.SessionID)),
		nullableUUID(uuid.UUID(event.RecordID)),
		event.RegistryNumber,
		event.Action,
		event.Decision,
		event.Reason,
		event.Operator,
		event.RequestID,
	)
	if err != nil {
		return fmt.Errorf("insert audit event: %w", err)
	}
	return nil
}

func (s *Store) ListBySession(ctx context.Context, sessionID id.SessionID) ([]audit.Event, error) {
	rows, err := s.pool.Query(ctx, selectEvents+` WHERE session_id = $1 ORDER BY timestamp ASC`, uuid.UUID(sessionID))
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return scanEvents(rows)
}

// ListRecent returns up to limit of the newest events, oldest first.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]audit.Event, error) {
	query := `SELECT * FROM (` + selectEvents + ` ORDER BY timestamp DESC LIMIT $1) recent ORDER BY timestamp ASC`
	rows, err := s.pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("query audit events: %w", err)
	}
	return scanEvents(rows)
}

const selectEvents = `
	SELECT category, timestamp, session_id, record_id, registry_number,
		   action, decision, reason, operator, request_id
	FROM audit_events`

func scanEvents(rows pgx.Rows) ([]audit.Event, error) {
	events, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (audit.Event, error) {
		var (
			e                   audit.Event
			category            string
			sessionID, recordID *uuid.UUID
		)
		if err := row.Scan(&category, &e.Timestamp, &sessionID, &recordID, &e.RegistryNumber,
			&e.Action, &e.Decision, &e.Reason, &e.Operator, &e.RequestID); err != nil {
			return e, err
		}
		e.Category = audit.EventCategory(category)
		if sessionID != nil {
			e.SessionID = id.SessionID(*sessionID)
		}
		if recordID != nil {
			e.RecordID = id.RecordID(*recordID)
		}
		return e, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan audit events: %w", err)
	}
	return events, nil
}

func nullableUUID(u uuid.UUID) *uuid.UUID {
	if u == uuid.Nil {
		return nil
	}
	return &u
}
