package steps

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"civreg/internal/record/fixtures"
	"civreg/internal/wizard/draft"
)

func TestTransitions(t *testing.T) {
	t.Run("sequence is linear and complete", func(t *testing.T) {
		all := All()
		require.Len(t, all, Count)
		assert.Equal(t, First, all[0])
		assert.Equal(t, Terminal, all[len(all)-1])
		for i, s := range all {
			assert.Equal(t, i+1, s.Index())
		}
	})

	t.Run("first step has no previous", func(t *testing.T) {
		prev, ok := First.Prev()
		assert.False(t, ok)
		assert.Equal(t, First, prev)
	})

	t.Run("terminal step has no next", func(t *testing.T) {
		next, ok := Terminal.Next()
		assert.False(t, ok)
		assert.Equal(t, Terminal, next)
		assert.True(t, Terminal.IsTerminal())
	})

	t.Run("next and prev are inverse", func(t *testing.T) {
		for _, s := range All() {
			next, ok := s.Next()
			if !ok {
				continue
			}
			back, ok := next.Prev()
			require.True(t, ok)
			assert.Equal(t, s, back)
		}
	})

	t.Run("undeclared steps are invalid", func(t *testing.T) {
		assert.False(t, Step(0).IsValid())
		assert.False(t, Step(9).IsValid())
		_, ok := Step(42).Next()
		assert.False(t, ok)
	})
}

func TestOwner(t *testing.T) {
	s, ok := Owner(draft.MotherAge)
	require.True(t, ok)
	assert.Equal(t, Mother, s)

	s, ok = Owner(draft.PreparerDatePrepared)
	require.True(t, ok)
	assert.Equal(t, Preparer, s)

	_, ok = Owner(draft.Field("nope"))
	assert.False(t, ok)
}

func TestTitles(t *testing.T) {
	assert.Equal(t, "Parents' Marriage", Marriage.Title())
	assert.Equal(t, "Prepared By", Preparer.String())
}

func validDraft() *draft.Draft {
	return draft.Hydrate(fixtures.BirthRecord())
}

func TestValidate_CompleteRecordPassesEveryStep(t *testing.T) {
	d := validDraft()
	for _, s := range All() {
		assert.True(t, Validate(s, d, fixtures.Now).Empty(), "step %s", s)
	}
	assert.Empty(t, ValidateAll(d, fixtures.Now))
}

func TestValidate_Child(t *testing.T) {
	t.Run("incomplete child step lists the missing fields", func(t *testing.T) {
		d := draft.New()
		set(t, d, draft.ChildFirstName, "Maria")
		set(t, d, draft.ChildLastName, "Santos")
		set(t, d, draft.ChildSex, "female")
		set(t, d, draft.ChildDateOfBirth, "2024-01-10")

		errs := Validate(Child, d, fixtures.Now)
		assert.ElementsMatch(t, []string{
			string(draft.ChildPlaceOfBirth),
			string(draft.ChildCity),
			string(draft.ChildBirthType),
			string(draft.ChildBirthOrder),
		}, errs.Fields())
	})

	t.Run("rejects out-of-range values", func(t *testing.T) {
		d := validDraft()
		set(t, d, draft.ChildSex, "unknown")
		set(t, d, draft.ChildDateOfBirth, "10/01/2024")
		set(t, d, draft.ChildBirthOrder, "0")
		set(t, d, draft.ChildTimeOfBirth, "25:99")
		set(t, d, draft.ChildWeightGrams, "-1")

		errs := Validate(Child, d, fixtures.Now)
		assert.Equal(t, []string{"must be one of: male, female"}, errs[string(draft.ChildSex)])
		assert.Equal(t, []string{"must be a valid date (YYYY-MM-DD)"}, errs[string(draft.ChildDateOfBirth)])
		assert.Equal(t, []string{"must be at least 1"}, errs[string(draft.ChildBirthOrder)])
		assert.Equal(t, []string{"must be a valid time (HH:MM)"}, errs[string(draft.ChildTimeOfBirth)])
		assert.Equal(t, []string{"must be at least 0"}, errs[string(draft.ChildWeightGrams)])
	})

	t.Run("date of birth cannot be in the future", func(t *testing.T) {
		d := validDraft()
		set(t, d, draft.ChildDateOfBirth, "2024-02-02")
		errs := Validate(Child, d, fixtures.Now)
		assert.Equal(t, []string{"cannot be in the future"}, errs[string(draft.ChildDateOfBirth)])

		set(t, d, draft.ChildDateOfBirth, "2024-02-01")
		assert.True(t, Validate(Child, d, fixtures.Now).Empty(), "today is accepted")
	})

	t.Run("zero asOf skips the future check", func(t *testing.T) {
		d := validDraft()
		set(t, d, draft.ChildDateOfBirth, "2999-01-01")
		assert.True(t, Validate(Child, d, time.Time{}).Empty())
	})

	t.Run("categorical values are case insensitive", func(t *testing.T) {
		d := validDraft()
		set(t, d, draft.ChildSex, "Female")
		set(t, d, draft.ChildBirthType, "TWIN")
		assert.True(t, Validate(Child, d, fixtures.Now).Empty())
	})
}

func TestValidate_Parents(t *testing.T) {
	d := validDraft()
	set(t, d, draft.MotherAge, "14")
	set(t, d, draft.MotherCountry, "")
	set(t, d, draft.FatherAge, "thirty")

	mother := Validate(Mother, d, fixtures.Now)
	assert.Equal(t, []string{"must be at least 15"}, mother[string(draft.MotherAge)])
	assert.Equal(t, []string{"is required"}, mother[string(draft.MotherCountry)])

	father := Validate(Father, d, fixtures.Now)
	assert.Equal(t, []string{"must be a whole number"}, father[string(draft.FatherAge)])
	assert.Len(t, father, 1)
}

func TestValidate_Marriage(t *testing.T) {
	t.Run("married requires date and place", func(t *testing.T) {
		d := validDraft()
		set(t, d, draft.MarriageDate, "")
		set(t, d, draft.MarriageCity, "")
		errs := Validate(Marriage, d, fixtures.Now)
		assert.ElementsMatch(t, []string{string(draft.MarriageDate), string(draft.MarriageCity)}, errs.Fields())
	})

	t.Run("not married needs only the status", func(t *testing.T) {
		d := draft.New()
		set(t, d, draft.MarriageStatus, "not_married")
		assert.True(t, Validate(Marriage, d, fixtures.Now).Empty())
	})

	t.Run("missing status", func(t *testing.T) {
		errs := Validate(Marriage, draft.New(), fixtures.Now)
		assert.Equal(t, []string{string(draft.MarriageStatus)}, errs.Fields())
	})
}

func TestValidate_AttendantInformantPreparer(t *testing.T) {
	d := validDraft()
	set(t, d, draft.AttendantType, "shaman")
	set(t, d, draft.InformantCertificationAccepted, "false")
	set(t, d, draft.PreparerDatePrepared, "yesterday")

	assert.True(t, Validate(Attendant, d, fixtures.Now).Has(string(draft.AttendantType)))
	assert.Equal(t, []string{"must be accepted"},
		Validate(Informant, d, fixtures.Now)[string(draft.InformantCertificationAccepted)])
	assert.Equal(t, []string{"must be a valid date (YYYY-MM-DD)"},
		Validate(Preparer, d, fixtures.Now)[string(draft.PreparerDatePrepared)])
}

func TestValidate_ReviewIsUnionOfSteps(t *testing.T) {
	d := validDraft()
	set(t, d, draft.ChildCity, "")
	set(t, d, draft.FatherLastName, "")
	set(t, d, draft.PreparerName, "")

	errs := Validate(Review, d, fixtures.Now)
	assert.ElementsMatch(t, []string{
		string(draft.ChildCity),
		string(draft.FatherLastName),
		string(draft.PreparerName),
	}, errs.Fields())

	byStep := ValidateAll(d, fixtures.Now)
	assert.Len(t, byStep, 3)
	assert.Contains(t, byStep, Child)
	assert.Contains(t, byStep, Father)
	assert.Contains(t, byStep, Preparer)
}

func set(t *testing.T, d *draft.Draft, f draft.Field, v string) {
	t.Helper()
	_, err := d.Set(f, v)
	require.NoError(t, err)
}
