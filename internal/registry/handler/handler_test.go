package handler_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"civreg/internal/record/fixtures"
	"civreg/internal/record/models"
	"civreg/internal/registry/handler"
	"civreg/internal/registry/store"
	id "civreg/pkg/domain"
	"civreg/pkg/platform/httputil"
	"civreg/pkg/platform/middleware/requesttime"
	"civreg/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	store  *store.InMemoryStore
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = store.NewInMemoryStore()
	s.router = chi.NewRouter()
	s.router.Use(requesttime.WithClock(func() time.Time { return fixtures.Now }))
	handler.New(s.store, "secret", nil).Register(s.router)
}

func (s *HandlerSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body, testutil.WithBearer(token))
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) create() models.Record {
	w := s.do(http.MethodPost, "/records", fixtures.BirthRecord(), "secret")
	s.Require().Equal(http.StatusCreated, w.Code, w.Body.String())
	return testutil.DecodeJSON[models.Record](s.T(), w)
}

// =============================================================================
// Records
// =============================================================================

func (s *HandlerSuite) TestCreate() {
	s.Run("assigns registry fields", func() {
		rec := s.create()
		s.Equal("BTC-000001", rec.RegistryNumber)
		s.Equal("2024-02-01", rec.RegistrationDate)
		s.True(rec.IsPersisted())
	})

	s.Run("same child again is rejected with field errors", func() {
		w := s.do(http.MethodPost, "/records", fixtures.BirthRecord(), "secret")
		s.Equal(http.StatusUnprocessableEntity, w.Code)

		body := testutil.DecodeJSON[httputil.ErrorResponse](s.T(), w)
		s.Equal("validation_error", body.Error)
		s.Contains(body.Fields, "child.first_name")
	})

	s.Run("malformed body", func() {
		req := httptest.NewRequest(http.MethodPost, "/records", strings.NewReader("{"))
		req.Header.Set("Authorization", "Bearer secret")
		w := testutil.DoRequest(s.router, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestAuth() {
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/records", nil, "").Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/records", nil, "wrong").Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/records", nil, "secret").Code)
}

func (s *HandlerSuite) TestGetAndUpdate() {
	rec := s.create()

	s.Run("get", func() {
		w := s.do(http.MethodGet, "/records/"+rec.ID.String(), nil, "secret")
		s.Equal(http.StatusOK, w.Code)
	})

	s.Run("update", func() {
		rec.Child.City = "Manila"
		w := s.do(http.MethodPut, "/records/"+rec.ID.String(), rec, "secret")
		s.Require().Equal(http.StatusOK, w.Code)
		got := testutil.DecodeJSON[models.Record](s.T(), w)
		s.Equal("Manila", got.Child.City)
		s.Equal(rec.RegistryNumber, got.RegistryNumber)
	})

	s.Run("unknown id", func() {
		w := s.do(http.MethodGet, "/records/"+id.NewRecordID().String(), nil, "secret")
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("malformed id", func() {
		w := s.do(http.MethodGet, "/records/not-a-uuid", nil, "secret")
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestList() {
	s.create()
	w := s.do(http.MethodGet, "/records", nil, "secret")
	s.Require().Equal(http.StatusOK, w.Code)

	body := testutil.DecodeJSON[handler.ListResponse](s.T(), w)
	s.Len(body.Records, 1)
}

// =============================================================================
// Duplicate search
// =============================================================================

func (s *HandlerSuite) TestSearch() {
	rec := s.create()

	s.Run("exact", func() {
		w := s.do(http.MethodPost, "/records/duplicates", models.DuplicateQuery{Tuple: rec.Tuple()}, "secret")
		s.Require().Equal(http.StatusOK, w.Code)
		res := testutil.DecodeJSON[models.DuplicateResult](s.T(), w)
		s.True(res.IsDuplicate)
		s.Require().Len(res.SimilarRecords, 1)
		s.Equal("BTC-000001", res.SimilarRecords[0].RegistryNumber)
	})

	s.Run("excluding the record itself", func() {
		w := s.do(http.MethodPost, "/records/duplicates", models.DuplicateQuery{Tuple: rec.Tuple(), ExcludeID: rec.ID}, "secret")
		s.Require().Equal(http.StatusOK, w.Code)
		res := testutil.DecodeJSON[models.DuplicateResult](s.T(), w)
		s.False(res.IsDuplicate)
		s.Empty(res.SimilarRecords)
	})

	s.Run("last name required", func() {
		w := s.do(http.MethodPost, "/records/duplicates", map[string]string{"first_name": "Maria"}, "secret")
		s.Equal(http.StatusUnprocessableEntity, w.Code)
	})
}
