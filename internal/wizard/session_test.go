package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"civreg/internal/record/fixtures"
	"civreg/internal/record/models"
	"civreg/internal/wizard/draft"
	"civreg/internal/wizard/duplicates"
	"civreg/internal/wizard/guard"
	"civreg/internal/wizard/ports/mocks"
	"civreg/internal/wizard/steps"
	id "civreg/pkg/domain"
	dErrors "civreg/pkg/domain-errors"
	"civreg/pkg/requestcontext"
)

type manualTimer struct {
	f       func()
	stopped bool
}

func (t *manualTimer) Stop() bool {
	t.stopped = true
	return true
}

// manualClock collects debounce timers; tests fire them explicitly.
type manualClock struct {
	mu     sync.Mutex
	timers []*manualTimer
}

func (c *manualClock) AfterFunc(_ time.Duration, f func()) duplicates.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &manualTimer{f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *manualClock) fireLast() {
	c.mu.Lock()
	t := c.timers[len(c.timers)-1]
	c.mu.Unlock()
	t.f()
}

func (c *manualClock) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

type SessionSuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *gomock.Controller
	searcher  *mocks.MockDuplicateSearcher
	store     *mocks.MockRecordStore
	confirmer *mocks.MockConfirmer
	auditor   *mocks.MockAuditPublisher
	clock     *manualClock

	saved   []models.Record
	updated []models.Record
	closes  int
}

func TestSessionSuite(t *testing.T) {
	suite.Run(t, new(SessionSuite))
}

func (s *SessionSuite) SetupTest() {
	s.ctx = requestcontext.WithTime(context.Background(), fixtures.Now)
	s.ctrl = gomock.NewController(s.T())
	s.searcher = mocks.NewMockDuplicateSearcher(s.ctrl)
	s.store = mocks.NewMockRecordStore(s.ctrl)
	s.confirmer = mocks.NewMockConfirmer(s.ctrl)
	s.auditor = mocks.NewMockAuditPublisher(s.ctrl)
	s.auditor.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()
	s.clock = &manualClock{}
	s.saved, s.updated, s.closes = nil, nil, 0
}

func (s *SessionSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *SessionSuite) open(req OpenRequest) *Session {
	sess, err := Open(s.ctx, req, Deps{
		Searcher:  s.searcher,
		Store:     s.store,
		Confirmer: s.confirmer,
		Auditor:   s.auditor,
	},
		WithAfterFunc(s.clock.AfterFunc),
		WithCallbacks(Callbacks{
			OnSave:   func(r models.Record) { s.saved = append(s.saved, r) },
			OnUpdate: func(r models.Record) { s.updated = append(s.updated, r) },
			OnClose:  func() { s.closes++ },
		}),
	)
	s.Require().NoError(err)
	return sess
}

// fillAll enters the complete fixture record and settles the duplicate check.
func (s *SessionSuite) fillAll(sess *Session, result models.DuplicateResult) {
	s.searcher.EXPECT().SearchDuplicates(gomock.Any(), gomock.Any()).Return(result, nil)
	s.Require().NoError(sess.SetFields(s.ctx, draft.Hydrate(fixtures.BirthRecord()).Values()))
	s.clock.fireLast()
}

func (s *SessionSuite) walkToReview(sess *Session) {
	for !sess.CurrentStep().IsTerminal() {
		s.Require().NoError(sess.GoNext(s.ctx))
	}
}

// =============================================================================
// Navigation
// =============================================================================

func (s *SessionSuite) TestIncompleteStepBlocksProgress() {
	sess := s.open(OpenRequest{Mode: ModeAdd})
	s.searcher.EXPECT().SearchDuplicates(gomock.Any(), gomock.Any()).Times(0)

	s.Require().NoError(sess.SetFields(s.ctx, map[draft.Field]string{
		draft.ChildFirstName:   "Maria",
		draft.ChildLastName:    "Santos",
		draft.ChildSex:         "female",
		draft.ChildDateOfBirth: "2024-01-10",
	}))

	err := sess.GoNext(s.ctx)
	s.Require().Error(err)
	s.Equal(KindValidation, KindOf(err))
	s.Equal(steps.Child, sess.CurrentStep())
	s.ElementsMatch([]string{
		string(draft.ChildPlaceOfBirth),
		string(draft.ChildCity),
		string(draft.ChildBirthType),
		string(draft.ChildBirthOrder),
	}, sess.Errors().Fields())
	s.ElementsMatch(sess.Errors().Fields(), FieldErrorsOf(err).Fields())

	view := sess.View()
	s.False(view.Steps[0].Completed)
	s.True(view.Steps[0].Current)
}

func (s *SessionSuite) TestNavigation() {
	sess := s.open(OpenRequest{Mode: ModeAdd})

	s.Run("prev on the first step stays put", func() {
		s.Require().NoError(sess.GoPrev(s.ctx))
		s.Equal(steps.Child, sess.CurrentStep())
	})

	s.Run("editing a field clears its error", func() {
		s.Require().Error(sess.GoNext(s.ctx))
		s.True(sess.Errors().Has(string(draft.ChildCity)))
		s.Require().NoError(sess.SetField(s.ctx, draft.ChildCity, "Quezon City"))
		s.False(sess.Errors().Has(string(draft.ChildCity)))
	})

	s.Run("rewriting an unchanged value still clears its error", func() {
		s.Require().Error(sess.GoNext(s.ctx))
		s.True(sess.Errors().Has(string(draft.ChildPlaceOfBirth)))
		s.Require().NoError(sess.SetField(s.ctx, draft.ChildPlaceOfBirth, ""))
		s.False(sess.Errors().Has(string(draft.ChildPlaceOfBirth)))
		s.True(sess.Errors().Has(string(draft.ChildBirthType)), "other errors stay")
	})

	s.Run("full walk reaches the terminal step", func() {
		s.fillAll(sess, models.DuplicateResult{})
		s.walkToReview(sess)
		s.Equal(steps.Review, sess.CurrentStep())
		s.Empty(sess.Errors())

		s.Require().NoError(sess.GoNext(s.ctx), "next on the terminal step is a no-op")
		s.Equal(steps.Review, sess.CurrentStep())
	})

	s.Run("prev never validates or uncompletes", func() {
		s.Require().NoError(sess.SetField(s.ctx, draft.PreparerName, ""))
		s.Require().NoError(sess.GoPrev(s.ctx))
		s.Equal(steps.Preparer, sess.CurrentStep())
		s.Empty(sess.Errors())
		view := sess.View()
		s.True(view.Steps[steps.Child.Index()-1].Completed)
		s.True(view.Steps[steps.Preparer.Index()-1].Completed)
	})
}

// =============================================================================
// Duplicates and submission
// =============================================================================

func (s *SessionSuite) TestExactDuplicateBlocksSubmission() {
	sess := s.open(OpenRequest{Mode: ModeAdd})
	s.fillAll(sess, models.DuplicateResult{
		IsDuplicate: true,
		SimilarRecords: []models.Candidate{
			{FirstName: "Maria", LastName: "Santos", OccurrenceDate: "2024-01-10", RegistryNumber: "BTC-000007"},
		},
	})
	s.walkToReview(sess)
	s.Equal(duplicates.Exact, sess.View().Duplicates)

	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
	_, err := sess.Submit(s.ctx)
	s.Require().Error(err)
	s.Equal(KindDuplicate, KindOf(err))
	s.Empty(s.saved)
	s.Equal(StatusOpen, sess.Status())

	s.Run("clearing the tuple lifts the block once re-entered", func() {
		s.Require().NoError(sess.ClearConflictingFields(s.ctx))
		view := sess.View()
		s.Equal(duplicates.None, view.Duplicates)
		s.Empty(view.Values[draft.ChildFirstName])

		_, err := sess.Submit(s.ctx)
		s.Require().Error(err)
		s.Equal(KindValidation, KindOf(err), "blank tuple fails whole-record validation")
		s.True(sess.Errors().Has(string(draft.ChildFirstName)))
	})
}

func (s *SessionSuite) TestSuccessfulSubmission() {
	sess := s.open(OpenRequest{Mode: ModeAdd})
	s.fillAll(sess, models.DuplicateResult{})
	s.walkToReview(sess)

	persisted := fixtures.BirthRecord()
	persisted.ID = id.NewRecordID()
	persisted.RegistryNumber = "BTC-000123"
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(persisted, nil).Times(1)

	got, err := sess.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal("BTC-000123", got.RegistryNumber)

	s.Require().Len(s.saved, 1)
	s.Equal("BTC-000123", s.saved[0].RegistryNumber)
	s.Empty(s.updated)

	view := sess.View()
	s.Equal(StatusCompleted, view.Status)
	s.Equal("BTC-000123", view.RegistryNumber)
	s.Equal(persisted.ID, view.RecordID)
	s.False(view.Dirty)

	s.Run("completed session rejects further writes", func() {
		_, err := sess.Submit(s.ctx)
		s.Equal(KindInvalidState, KindOf(err))
		s.Equal(KindInvalidState, KindOf(sess.SetField(s.ctx, draft.Remarks, "late")))
		s.Len(s.saved, 1)
	})

	s.Run("closing after save needs no confirmation", func() {
		closed, err := sess.RequestClose(s.ctx, guard.ReasonDismiss)
		s.Require().NoError(err)
		s.True(closed)
		s.Equal(1, s.closes)
	})
}

func (s *SessionSuite) TestSubmissionFailures() {
	s.Run("registry field rejection is merged", func() {
		sess := s.open(OpenRequest{Mode: ModeAdd})
		s.fillAll(sess, models.DuplicateResult{})
		s.walkToReview(sess)

		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(models.Record{}, models.NewValidationError(models.FieldErrors{
			"child.place_of_birth": {"unknown facility"},
			"batch":                {"closed for the day"},
		}))

		_, err := sess.Submit(s.ctx)
		s.Equal(KindRejected, KindOf(err))
		errs := sess.Errors()
		s.Equal([]string{"unknown facility"}, errs[string(draft.ChildPlaceOfBirth)])
		s.Equal([]string{"batch: closed for the day"}, errs[models.RecordErrorKey])
		s.Equal(StatusOpen, sess.Status())
	})

	s.Run("transport failure keeps the draft for a retry", func() {
		sess := s.open(OpenRequest{Mode: ModeAdd})
		s.fillAll(sess, models.DuplicateResult{})
		s.walkToReview(sess)
		before := sess.View().Values

		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(models.Record{}, errors.New("503 service unavailable"))
		_, err := sess.Submit(s.ctx)
		s.Equal(KindUnavailable, KindOf(err))
		s.True(Retryable(err))
		s.Equal(before, sess.View().Values)
		s.True(sess.Dirty())

		persisted := fixtures.BirthRecord()
		persisted.ID = id.NewRecordID()
		persisted.RegistryNumber = "BTC-000124"
		s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Return(persisted, nil)
		_, err = sess.Submit(s.ctx)
		s.Require().NoError(err)
	})
}

func (s *SessionSuite) TestSubmitOnlyFromReview() {
	sess := s.open(OpenRequest{Mode: ModeAdd})
	s.fillAll(sess, models.DuplicateResult{})
	s.Require().Equal(steps.First, sess.CurrentStep())

	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)
	_, err := sess.Submit(s.ctx)
	s.Equal(KindInvalidState, KindOf(err))

	view := sess.View()
	s.Equal(StatusOpen, view.Status)
	s.Equal(steps.First, view.Step)
	for _, st := range view.Steps {
		s.False(st.Completed, "step %s", st.Step)
	}
	s.Empty(s.saved)

	s.Run("one step short of review is still refused", func() {
		for {
			next, ok := sess.CurrentStep().Next()
			if !ok || next.IsTerminal() {
				break
			}
			s.Require().NoError(sess.GoNext(s.ctx))
		}
		_, err := sess.Submit(s.ctx)
		s.Equal(KindInvalidState, KindOf(err))
	})
}

func (s *SessionSuite) TestConcurrentSubmitIsRejected() {
	sess := s.open(OpenRequest{Mode: ModeAdd})
	s.fillAll(sess, models.DuplicateResult{})
	s.walkToReview(sess)

	entered := make(chan struct{})
	release := make(chan struct{})
	persisted := fixtures.BirthRecord()
	persisted.ID = id.NewRecordID()
	s.store.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, models.Record) (models.Record, error) {
			close(entered)
			<-release
			return persisted, nil
		}).Times(1)

	done := make(chan error, 1)
	go func() {
		_, err := sess.Submit(s.ctx)
		done <- err
	}()
	<-entered

	_, err := sess.Submit(s.ctx)
	s.Equal(KindConflict, KindOf(err))
	s.True(sess.View().Submitting)

	closed, err := sess.RequestClose(s.ctx, guard.ReasonCancel)
	s.False(closed)
	s.Equal(KindConflict, KindOf(err))

	close(release)
	s.Require().NoError(<-done)
	s.Len(s.saved, 1)
}

// =============================================================================
// Edit mode
// =============================================================================

func (s *SessionSuite) TestEditMode() {
	existing := fixtures.BirthRecord()
	existing.ID = id.NewRecordID()
	existing.RegistryNumber = "BTC-000042"

	sess := s.open(OpenRequest{Mode: ModeEdit, Record: &existing})
	s.Equal(0, s.clock.count(), "hydration schedules no duplicate check")
	s.False(sess.Dirty())
	s.Equal("Maria", sess.View().Values[draft.ChildFirstName])

	s.searcher.EXPECT().
		SearchDuplicates(gomock.Any(), models.DuplicateQuery{
			Tuple:     models.Tuple{FirstName: "Mariah", LastName: "Santos", OccurrenceDate: "2024-01-10"},
			ExcludeID: existing.ID,
		}).
		Return(models.DuplicateResult{}, nil)
	s.Require().NoError(sess.SetField(s.ctx, draft.ChildFirstName, "Mariah"))
	s.clock.fireLast()
	s.walkToReview(sess)

	s.store.EXPECT().Update(gomock.Any(), existing.ID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ id.RecordID, r models.Record) (models.Record, error) {
			r.ID = existing.ID
			r.RegistryNumber = existing.RegistryNumber
			return r, nil
		})

	got, err := sess.Submit(s.ctx)
	s.Require().NoError(err)
	s.Equal("Mariah", got.Child.FirstName)
	s.Len(s.updated, 1)
	s.Empty(s.saved)
}

func (s *SessionSuite) TestOpenValidation() {
	deps := Deps{Searcher: s.searcher, Store: s.store}

	_, err := Open(s.ctx, OpenRequest{Mode: ModeEdit}, deps)
	s.Equal(KindInvalidInput, KindOf(err))

	r := fixtures.BirthRecord()
	_, err = Open(s.ctx, OpenRequest{Mode: ModeAdd, Record: &r}, deps)
	s.Equal(KindInvalidInput, KindOf(err))

	_, err = Open(s.ctx, OpenRequest{Mode: "copy"}, deps)
	s.Equal(KindInvalidInput, KindOf(err))

	_, err = Open(s.ctx, OpenRequest{Mode: ModeAdd}, Deps{})
	s.Equal(KindInternal, KindOf(err))
}

// =============================================================================
// Close guard
// =============================================================================

func (s *SessionSuite) TestRequestClose() {
	s.Run("clean session closes without a prompt", func() {
		s.closes = 0
		sess := s.open(OpenRequest{Mode: ModeAdd})
		s.confirmer.EXPECT().ConfirmDiscard(gomock.Any()).Times(0)

		closed, err := sess.RequestClose(s.ctx, guard.ReasonDismiss)
		s.Require().NoError(err)
		s.True(closed)
		s.Equal(StatusClosed, sess.Status())
		s.Equal(1, s.closes)

		closed, err = sess.Close(s.ctx)
		s.Require().NoError(err)
		s.True(closed)
		s.Equal(1, s.closes, "OnClose fires once")
	})

	s.Run("dirty session stays open when the operator declines", func() {
		s.closes = 0
		sess := s.open(OpenRequest{Mode: ModeAdd})
		s.Require().NoError(sess.SetField(s.ctx, draft.Remarks, "late registration"))
		s.confirmer.EXPECT().ConfirmDiscard(gomock.Any()).Return(false).Times(1)

		closed, err := sess.RequestClose(s.ctx, guard.ReasonCancel)
		s.Require().NoError(err)
		s.False(closed)
		s.Equal(StatusOpen, sess.Status())
		s.Equal(0, s.closes)
	})

	s.Run("dirty session closes on confirmation and cancels the pending check", func() {
		s.closes = 0
		sess := s.open(OpenRequest{Mode: ModeAdd})
		s.Require().NoError(sess.SetField(s.ctx, draft.ChildFirstName, "Maria"))
		s.confirmer.EXPECT().ConfirmDiscard(gomock.Any()).Return(true).Times(1)

		closed, err := sess.RequestClose(s.ctx, guard.ReasonDismiss)
		s.Require().NoError(err)
		s.True(closed)
		s.Equal(1, s.closes)

		s.clock.fireLast()
		s.False(sess.View().DuplicatePending)
		s.Equal(KindInvalidState, KindOf(sess.SetField(s.ctx, draft.ChildLastName, "Santos")))
		s.Equal(KindInvalidState, KindOf(sess.GoNext(s.ctx)))
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindNone, KindOf(nil))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
	require.False(t, Retryable(errors.New("boom")))
	assert.Equal(t, KindNotFound, KindOf(dErrors.New(dErrors.CodeNotFound, "no session")))
	assert.Equal(t, KindRejected, KindOf(dErrors.New(dErrors.CodeRejected, "registry said no")))
	assert.True(t, Retryable(dErrors.Wrap(errors.New("dial"), dErrors.CodeUnavailable, "registry down")))
}
