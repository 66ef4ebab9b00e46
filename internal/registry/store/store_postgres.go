package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"civreg/internal/record/models"
	id "civreg/pkg/domain"
	pstrings "civreg/pkg/platform/strings"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/requestcontext"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Schema creates the birth_records table. The normalized name columns back
// both the duplicate search and the uniqueness constraint.
const Schema = `
CREATE SEQUENCE IF NOT EXISTS birth_registry_seq;
CREATE TABLE IF NOT EXISTS birth_records (
	id                UUID PRIMARY KEY,
	registry_number   TEXT NOT NULL UNIQUE,
	registration_date TEXT NOT NULL,
	first_name_norm   TEXT NOT NULL,
	last_name_norm    TEXT NOT NULL,
	date_of_birth     TEXT NOT NULL,
	body              JSONB NOT NULL,
	created_at        TIMESTAMPTZ NOT NULL,
	updated_at        TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS birth_records_tuple_idx
	ON birth_records (first_name_norm, last_name_norm, date_of_birth);
CREATE INDEX IF NOT EXISTS birth_records_last_name_idx ON birth_records (last_name_norm);
`

const uniqueViolation = "23505"

// PostgresStore persists birth records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// EnsureSchema applies Schema.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("apply birth_records schema: %w", err)
	}
	return nil
}

type dbQuerier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (s *PostgresStore) querier(ctx context.Context) dbQuerier {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.pool
}

func (s *PostgresStore) Create(ctx context.Context, r models.Record) (models.Record, error) {
	if err := validate(r); err != nil {
		return models.Record{}, err
	}
	now := requestcontext.Now(ctx).UTC()
	q := s.querier(ctx)

	var seq int64
	if err := q.QueryRow(ctx, `SELECT nextval('birth_registry_seq')`).Scan(&seq); err != nil {
		return models.Record{}, fmt.Errorf("allocate registry number: %w", err)
	}
	r.ID = id.NewRecordID()
	r.RegistryNumber = FormatRegistryNumber(seq)
	r.RegistrationDate = now.Format(models.DateLayout)
	r.CreatedAt = now
	r.UpdatedAt = now

	body, err := json.Marshal(r)
	if err != nil {
		return models.Record{}, fmt.Errorf("encode birth record: %w", err)
	}
	_, err = q.Exec(ctx, `
		INSERT INTO birth_records (
			id, registry_number, registration_date, first_name_norm, last_name_norm,
			date_of_birth, body, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		uuid.UUID(r.ID),
		r.RegistryNumber,
		r.RegistrationDate,
		pstrings.NormalizeName(r.Child.FirstName),
		pstrings.NormalizeName(r.Child.LastName),
		r.Child.DateOfBirth,
		body,
		r.CreatedAt,
		r.UpdatedAt,
	)
	if err != nil {
		return models.Record{}, s.mapWriteError(ctx, "insert birth record", r, err)
	}
	return r, nil
}

func (s *PostgresStore) Update(ctx context.Context, recordID id.RecordID, r models.Record) (models.Record, error) {
	if err := validate(r); err != nil {
		return models.Record{}, err
	}
	current, err := s.Get(ctx, recordID)
	if err != nil {
		return models.Record{}, err
	}
	r.ID = current.ID
	r.RegistryNumber = current.RegistryNumber
	r.RegistrationDate = current.RegistrationDate
	r.CreatedAt = current.CreatedAt
	r.UpdatedAt = requestcontext.Now(ctx).UTC()

	body, err := json.Marshal(r)
	if err != nil {
		return models.Record{}, fmt.Errorf("encode birth record: %w", err)
	}
	tag, err := s.querier(ctx).Exec(ctx, `
		UPDATE birth_records
		SET first_name_norm = $2, last_name_norm = $3, date_of_birth = $4,
			body = $5, updated_at = $6
		WHERE id = $1
	`,
		uuid.UUID(recordID),
		pstrings.NormalizeName(r.Child.FirstName),
		pstrings.NormalizeName(r.Child.LastName),
		r.Child.DateOfBirth,
		body,
		r.UpdatedAt,
	)
	if err != nil {
		return models.Record{}, s.mapWriteError(ctx, "update birth record", r, err)
	}
	if tag.RowsAffected() == 0 {
		return models.Record{}, ErrNotFound
	}
	return r, nil
}

func (s *PostgresStore) Get(ctx context.Context, recordID id.RecordID) (models.Record, error) {
	rows, err := s.querier(ctx).Query(ctx, `SELECT body FROM birth_records WHERE id = $1`, uuid.UUID(recordID))
	if err != nil {
		return models.Record{}, fmt.Errorf("query birth record: %w", err)
	}
	r, err := pgx.CollectExactlyOneRow(rows, scanBody)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Record{}, ErrNotFound
		}
		return models.Record{}, fmt.Errorf("scan birth record: %w", err)
	}
	return r, nil
}

// List returns every record ordered by registry number.
func (s *PostgresStore) List(ctx context.Context) ([]models.Record, error) {
	rows, err := s.querier(ctx).Query(ctx, `SELECT body FROM birth_records ORDER BY registry_number`)
	if err != nil {
		return nil, fmt.Errorf("query birth records: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanBody)
	if err != nil {
		return nil, fmt.Errorf("scan birth records: %w", err)
	}
	return records, nil
}

func (s *PostgresStore) SearchDuplicates(ctx context.Context, q models.DuplicateQuery) (models.DuplicateResult, error) {
	rows, err := s.querier(ctx).Query(ctx, `
		SELECT body FROM birth_records
		WHERE id <> $1
		  AND last_name_norm = $2
		  AND (date_of_birth = $3 OR first_name_norm = $4)
	`,
		uuid.UUID(q.ExcludeID),
		pstrings.NormalizeName(q.LastName),
		q.OccurrenceDate,
		pstrings.NormalizeName(q.FirstName),
	)
	if err != nil {
		return models.DuplicateResult{}, fmt.Errorf("query duplicates: %w", err)
	}
	records, err := pgx.CollectRows(rows, scanBody)
	if err != nil {
		return models.DuplicateResult{}, fmt.Errorf("scan duplicates: %w", err)
	}
	return search(records, q), nil
}

// mapWriteError turns a tuple uniqueness violation into a field rejection.
func (s *PostgresStore) mapWriteError(ctx context.Context, op string, r models.Record, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		existing := models.Record{RegistryNumber: "unknown"}
		if res, searchErr := s.SearchDuplicates(ctx, models.DuplicateQuery{Tuple: r.Tuple(), ExcludeID: r.ID}); searchErr == nil {
			for _, c := range res.SimilarRecords {
				if c.Exact {
					existing.RegistryNumber = c.RegistryNumber
					break
				}
			}
		}
		return duplicateRejection(existing)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func scanBody(row pgx.CollectableRow) (models.Record, error) {
	var (
		body []byte
		r    models.Record
	)
	if err := row.Scan(&body); err != nil {
		return r, err
	}
	if err := json.Unmarshal(body, &r); err != nil {
		return r, fmt.Errorf("decode birth record: %w", err)
	}
	return r, nil
}
