//go:build integration

package store_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/suite"

	"civreg/internal/record/models"
	"civreg/internal/registry/store"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	contractSuite
	postgres *containers.PostgresContainer
	pg       *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.pg = store.NewPostgresStore(s.postgres.Pool)
	s.Require().NoError(s.pg.EnsureSchema(context.Background()))
	s.withStore(s.pg)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "birth_records"))
	_, err := s.postgres.Pool.Exec(ctx, `ALTER SEQUENCE birth_registry_seq RESTART WITH 1`)
	s.Require().NoError(err)
}

// TestConcurrentCreateSameTuple verifies the unique index admits exactly one
// of many racing creates for the same child.
func (s *PostgresStoreSuite) TestConcurrentCreateSameTuple() {
	const goroutines = 20
	var (
		wg       sync.WaitGroup
		created  atomic.Int32
		rejected atomic.Int32
	)
	for range goroutines {
		wg.Go(func() {
			_, err := s.store.Create(s.ctx, record("Maria", "Santos", "2024-01-10"))
			var verr *models.ValidationError
			switch {
			case err == nil:
				created.Add(1)
			case s.ErrorAs(err, &verr):
				rejected.Add(1)
			}
		})
	}
	wg.Wait()

	s.Equal(int32(1), created.Load())
	s.Equal(int32(goroutines-1), rejected.Load())
}

func (s *PostgresStoreSuite) TestCreateJoinsTransaction() {
	ctx := s.ctx
	tx, err := s.postgres.Pool.Begin(ctx)
	s.Require().NoError(err)

	_, err = s.store.Create(txcontext.WithTx(ctx, tx), record("Maria", "Santos", "2024-01-10"))
	s.Require().NoError(err)
	s.Require().NoError(tx.Rollback(ctx))

	records, err := s.store.List(ctx)
	s.Require().NoError(err)
	s.Empty(records)
}
