//go:build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "civreg/pkg/domain"
	audit "civreg/pkg/platform/audit"
	"civreg/pkg/platform/audit/store/postgres"
	txcontext "civreg/pkg/platform/tx"
	"civreg/pkg/testutil/containers"
)

type AuditStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *postgres.Store
}

func TestAuditStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(AuditStoreSuite))
}

func (s *AuditStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = postgres.New(s.postgres.Pool)
	s.Require().NoError(s.store.EnsureSchema(context.Background()))
}

func (s *AuditStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "audit_events"))
}

func (s *AuditStoreSuite) TestListBySessionInOrder() {
	ctx := context.Background()
	sessionID := id.NewSessionID()
	other := id.NewSessionID()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	s.Require().NoError(s.store.Append(ctx, audit.Event{
		SessionID: sessionID, Timestamp: base.Add(time.Second),
		Action: string(audit.EventRecordCreated), RecordID: id.NewRecordID(),
		RegistryNumber: "BTC-000007", Operator: "clerk-1",
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		SessionID: sessionID, Timestamp: base,
		Action: string(audit.EventSessionOpened),
	}))
	s.Require().NoError(s.store.Append(ctx, audit.Event{
		SessionID: other, Timestamp: base,
		Action: string(audit.EventSessionOpened),
	}))

	events, err := s.store.ListBySession(ctx, sessionID)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal(string(audit.EventSessionOpened), events[0].Action)
	s.Equal(audit.CategoryOperations, events[0].Category)
	s.True(events[0].RecordID.IsNil())

	s.Equal(string(audit.EventRecordCreated), events[1].Action)
	s.Equal(audit.CategoryCompliance, events[1].Category)
	s.Equal("BTC-000007", events[1].RegistryNumber)
	s.Equal("clerk-1", events[1].Operator)
}

func (s *AuditStoreSuite) TestListRecentKeepsNewest() {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	for i := range 5 {
		s.Require().NoError(s.store.Append(ctx, audit.Event{
			SessionID: id.NewSessionID(),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Action:    string(audit.EventSessionClosed),
			Reason:    string(rune('a' + i)),
		}))
	}

	events, err := s.store.ListRecent(ctx, 2)
	s.Require().NoError(err)
	s.Require().Len(events, 2)
	s.Equal("d", events[0].Reason)
	s.Equal("e", events[1].Reason)
}

func (s *AuditStoreSuite) TestAppendJoinsTransaction() {
	ctx := context.Background()
	sessionID := id.NewSessionID()
	tx, err := s.postgres.Pool.Begin(ctx)
	s.Require().NoError(err)

	s.Require().NoError(s.store.Append(txcontext.WithTx(ctx, tx), audit.Event{
		SessionID: sessionID, Timestamp: time.Now(),
		Action: string(audit.EventSessionOpened),
	}))
	s.Require().NoError(tx.Rollback(ctx))

	events, err := s.store.ListBySession(ctx, sessionID)
	s.Require().NoError(err)
	s.Empty(events)
}
