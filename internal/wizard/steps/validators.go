package steps

import (
	"strconv"
	"strings"
	"time"

	"civreg/internal/record/models"
	"civreg/internal/wizard/draft"
)

// MinParentAge is the youngest age accepted for a parent at the time of birth.
const MinParentAge = 15

const (
	msgRequired    = "is required"
	msgDate        = "must be a valid date (YYYY-MM-DD)"
	msgFutureDate  = "cannot be in the future"
	msgTime        = "must be a valid time (HH:MM)"
	msgWholeNumber = "must be a whole number"
	msgAccepted    = "must be accepted"
)

// Validate runs the validator of step s against d and returns the field errors.
// An empty map means the step is valid. asOf bounds dates that cannot lie in the future.
// The terminal step validates the whole record. Nothing is cached: every call
// evaluates the draft as it is now.
func Validate(s Step, d *draft.Draft, asOf time.Time) models.FieldErrors {
	v := &checker{d: d, errs: models.FieldErrors{}, asOf: asOf}
	switch s {
	case Child:
		v.child()
	case Mother:
		v.parent(draft.MotherFirstName, draft.MotherLastName, draft.MotherCitizenship, draft.MotherAge,
			draft.MotherCity, draft.MotherProvince, draft.MotherCountry)
		v.optionalMin(draft.MotherChildrenBornAlive, 0)
	case Father:
		v.parent(draft.FatherFirstName, draft.FatherLastName, draft.FatherCitizenship, draft.FatherAge,
			draft.FatherCity, draft.FatherProvince, draft.FatherCountry)
	case Marriage:
		v.marriage()
	case Attendant:
		v.attendant()
	case Informant:
		v.informant()
	case Preparer:
		v.preparer()
	case Review:
		for _, step := range All() {
			if step != Review {
				v.errs.Merge(Validate(step, d, asOf))
			}
		}
	}
	return v.errs
}

// ValidateAll validates every step and returns the errors grouped by step.
// Steps without errors are omitted.
func ValidateAll(d *draft.Draft, asOf time.Time) map[Step]models.FieldErrors {
	out := make(map[Step]models.FieldErrors)
	for _, s := range All() {
		if s == Review {
			continue
		}
		if errs := Validate(s, d, asOf); !errs.Empty() {
			out[s] = errs
		}
	}
	return out
}

type checker struct {
	d    *draft.Draft
	errs models.FieldErrors
	asOf time.Time
}

func (v *checker) child() {
	v.required(draft.ChildFirstName, draft.ChildLastName)
	v.oneOf(draft.ChildSex, func(s string) bool { return models.Sex(s).IsValid() }, "must be one of: male, female")
	v.pastDate(draft.ChildDateOfBirth)
	v.optionalTime(draft.ChildTimeOfBirth)
	v.required(draft.ChildPlaceOfBirth, draft.ChildCity)
	v.oneOf(draft.ChildBirthType, func(s string) bool { return models.BirthType(s).IsValid() },
		"must be one of: single, twin, triplet, other")
	v.minInt(draft.ChildBirthOrder, 1)
	v.optionalMin(draft.ChildWeightGrams, 0)
}

func (v *checker) parent(first, last, citizenship, age, city, province, country draft.Field) {
	v.required(first, last, citizenship)
	v.minInt(age, MinParentAge)
	v.required(city, province, country)
}

func (v *checker) marriage() {
	ok := v.oneOf(draft.MarriageStatus, func(s string) bool { return models.MarriageStatus(s).IsValid() },
		"must be one of: married, not_married")
	if !ok || models.MarriageStatus(v.value(draft.MarriageStatus)) != models.MarriageStatusMarried {
		return
	}
	v.pastDate(draft.MarriageDate)
	v.required(draft.MarriageCity, draft.MarriageProvince, draft.MarriageCountry)
}

func (v *checker) attendant() {
	v.oneOf(draft.AttendantType, func(s string) bool { return models.AttendantType(s).IsValid() },
		"must be one of: physician, nurse, midwife, traditional_attendant, other")
	v.required(draft.AttendantName, draft.AttendantCertification, draft.AttendantAddress, draft.AttendantTitle)
}

func (v *checker) informant() {
	v.required(draft.InformantName, draft.InformantRelationship, draft.InformantAddress)
	accepted, err := strconv.ParseBool(v.value(draft.InformantCertificationAccepted))
	if err != nil || !accepted {
		v.add(draft.InformantCertificationAccepted, msgAccepted)
	}
}

func (v *checker) preparer() {
	v.required(draft.PreparerName, draft.PreparerTitle)
	v.date(draft.PreparerDatePrepared)
}

func (v *checker) value(f draft.Field) string {
	return strings.TrimSpace(v.d.Get(f))
}

func (v *checker) add(f draft.Field, msg string) {
	v.errs.Add(string(f), msg)
}

func (v *checker) required(fields ...draft.Field) {
	for _, f := range fields {
		if v.value(f) == "" {
			v.add(f, msgRequired)
		}
	}
}

func (v *checker) oneOf(f draft.Field, valid func(string) bool, msg string) bool {
	val := strings.ToLower(v.value(f))
	if val == "" {
		v.add(f, msgRequired)
		return false
	}
	if !valid(val) {
		v.add(f, msg)
		return false
	}
	return true
}

func (v *checker) date(f draft.Field) (time.Time, bool) {
	val := v.value(f)
	if val == "" {
		v.add(f, msgRequired)
		return time.Time{}, false
	}
	t, err := time.Parse(models.DateLayout, val)
	if err != nil {
		v.add(f, msgDate)
		return time.Time{}, false
	}
	return t, true
}

func (v *checker) pastDate(f draft.Field) {
	t, ok := v.date(f)
	if !ok || v.asOf.IsZero() {
		return
	}
	y, m, d := v.asOf.Date()
	if t.After(time.Date(y, m, d, 0, 0, 0, 0, time.UTC)) {
		v.add(f, msgFutureDate)
	}
}

func (v *checker) optionalTime(f draft.Field) {
	val := v.value(f)
	if val == "" {
		return
	}
	if _, err := time.Parse(models.TimeLayout, val); err != nil {
		v.add(f, msgTime)
	}
}

func (v *checker) minInt(f draft.Field, minimum int) {
	val := v.value(f)
	if val == "" {
		v.add(f, msgRequired)
		return
	}
	v.checkMin(f, val, minimum)
}

func (v *checker) optionalMin(f draft.Field, minimum int) {
	if val := v.value(f); val != "" {
		v.checkMin(f, val, minimum)
	}
}

func (v *checker) checkMin(f draft.Field, val string, minimum int) {
	n, err := strconv.Atoi(val)
	if err != nil {
		v.add(f, msgWholeNumber)
		return
	}
	if n < minimum {
		v.add(f, "must be at least "+strconv.Itoa(minimum))
	}
}
