package store_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/suite"

	"civreg/internal/record/fixtures"
	"civreg/internal/record/models"
	"civreg/internal/registry/store"
	id "civreg/pkg/domain"
	"civreg/pkg/requestcontext"
)

type recordStore interface {
	Create(ctx context.Context, r models.Record) (models.Record, error)
	Update(ctx context.Context, recordID id.RecordID, r models.Record) (models.Record, error)
	Get(ctx context.Context, recordID id.RecordID) (models.Record, error)
	List(ctx context.Context) ([]models.Record, error)
	SearchDuplicates(ctx context.Context, q models.DuplicateQuery) (models.DuplicateResult, error)
}

// contractSuite holds behavior every record store shares. Embedding suites set
// store and reset state in SetupTest.
type contractSuite struct {
	suite.Suite
	ctx   context.Context
	store recordStore
}

func (s *contractSuite) withStore(st recordStore) {
	s.ctx = requestcontext.WithTime(context.Background(), fixtures.Now)
	s.store = st
}

func record(first, last, dob string) models.Record {
	r := fixtures.BirthRecord()
	r.RegistrationDate = ""
	r.Child.FirstName = first
	r.Child.LastName = last
	r.Child.DateOfBirth = dob
	return r
}

func (s *contractSuite) mustCreate(r models.Record) models.Record {
	created, err := s.store.Create(s.ctx, r)
	s.Require().NoError(err)
	return created
}

// =============================================================================
// Create / Update
// =============================================================================

func (s *contractSuite) TestCreateAssignsIdentity() {
	first := s.mustCreate(record("Maria", "Santos", "2024-01-10"))
	second := s.mustCreate(record("Juan", "Cruz", "2024-01-11"))

	s.True(first.IsPersisted())
	s.Equal("BTC-000001", first.RegistryNumber)
	s.Equal("BTC-000002", second.RegistryNumber)
	s.Equal("2024-02-01", first.RegistrationDate)
	s.True(first.CreatedAt.Equal(fixtures.Now))

	got, err := s.store.Get(s.ctx, first.ID)
	s.Require().NoError(err)
	s.Equal("Maria", got.Child.FirstName)
	s.Equal(first.RegistryNumber, got.RegistryNumber)
}

func (s *contractSuite) TestCreateRejectsSameTuple() {
	s.mustCreate(record("Maria", "Santos", "2024-01-10"))

	_, err := s.store.Create(s.ctx, record("  maria ", "SANTOS", "2024-01-10"))

	var verr *models.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Contains(verr.Fields, "child.first_name")
	s.Contains(verr.Fields, "child.date_of_birth")
}

func (s *contractSuite) TestCreateRejectsMissingFields() {
	r := record("", "Santos", "2024-01-10")

	_, err := s.store.Create(s.ctx, r)

	var verr *models.ValidationError
	s.Require().ErrorAs(err, &verr)
	s.Equal([]string{"is required"}, verr.Fields["child.first_name"])
}

func (s *contractSuite) TestUpdateKeepsRegistryFields() {
	created := s.mustCreate(record("Maria", "Santos", "2024-01-10"))
	later := requestcontext.WithTime(context.Background(), fixtures.Now.Add(48*time.Hour))

	changed := created
	changed.RegistryNumber = "BTC-999999"
	changed.Child.City = "Manila"
	updated, err := s.store.Update(later, created.ID, changed)

	s.Require().NoError(err)
	s.Equal(created.RegistryNumber, updated.RegistryNumber)
	s.Equal(created.RegistrationDate, updated.RegistrationDate)
	s.Equal("Manila", updated.Child.City)
	s.True(updated.UpdatedAt.After(created.UpdatedAt))
}

func (s *contractSuite) TestUpdateMissingRecord() {
	_, err := s.store.Update(s.ctx, id.NewRecordID(), record("Maria", "Santos", "2024-01-10"))
	s.ErrorIs(err, store.ErrNotFound)
}

func (s *contractSuite) TestUpdateToOtherRecordsTuple() {
	s.mustCreate(record("Maria", "Santos", "2024-01-10"))
	other := s.mustCreate(record("Juan", "Santos", "2024-01-10"))

	other.Child.FirstName = "Maria"
	_, err := s.store.Update(s.ctx, other.ID, other)

	var verr *models.ValidationError
	s.ErrorAs(err, &verr)
}

// =============================================================================
// Duplicate search
// =============================================================================

func (s *contractSuite) TestSearchDuplicates() {
	maria := s.mustCreate(record("Maria", "Santos", "2024-01-10"))
	s.mustCreate(record("Juan", "Santos", "2024-01-10"))
	s.mustCreate(record("Maria", "Santos", "2023-05-02"))
	s.mustCreate(record("Pedro", "Santos", "2022-03-03"))
	s.mustCreate(record("Maria", "Cruz", "2024-01-10"))

	s.Run("exact match is flagged", func() {
		res, err := s.store.SearchDuplicates(s.ctx, models.DuplicateQuery{
			Tuple: models.Tuple{FirstName: "MARIA", LastName: "santos", OccurrenceDate: "2024-01-10"},
		})
		s.Require().NoError(err)
		s.True(res.IsDuplicate)
		s.Len(res.SimilarRecords, 3)
		s.True(res.SimilarRecords[0].Exact)
		s.Equal(maria.RegistryNumber, res.SimilarRecords[0].RegistryNumber)
	})

	s.Run("similar only", func() {
		res, err := s.store.SearchDuplicates(s.ctx, models.DuplicateQuery{
			Tuple: models.Tuple{FirstName: "Ana", LastName: "Santos", OccurrenceDate: "2024-01-10"},
		})
		s.Require().NoError(err)
		s.False(res.IsDuplicate)
		s.Len(res.SimilarRecords, 2)
	})

	s.Run("exclude id hides the record being edited", func() {
		res, err := s.store.SearchDuplicates(s.ctx, models.DuplicateQuery{
			Tuple:     maria.Tuple(),
			ExcludeID: maria.ID,
		})
		s.Require().NoError(err)
		s.False(res.IsDuplicate)
		for _, c := range res.SimilarRecords {
			s.NotEqual(maria.RegistryNumber, c.RegistryNumber)
		}
	})

	s.Run("no match", func() {
		res, err := s.store.SearchDuplicates(s.ctx, models.DuplicateQuery{
			Tuple: models.Tuple{FirstName: "Lea", LastName: "Lim", OccurrenceDate: "2024-01-10"},
		})
		s.Require().NoError(err)
		s.False(res.IsDuplicate)
		s.Empty(res.SimilarRecords)
	})
}

func (s *contractSuite) TestList() {
	s.mustCreate(record("Maria", "Santos", "2024-01-10"))
	s.mustCreate(record("Juan", "Cruz", "2024-01-11"))

	records, err := s.store.List(s.ctx)

	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal("BTC-000001", records[0].RegistryNumber)
	s.Equal("BTC-000002", records[1].RegistryNumber)
}
