package draft

import (
	"strconv"
	"strings"

	"civreg/internal/record/models"
)

// Hydrate flattens a canonical record into a draft. Missing optional values
// (time of birth, weight, children born alive) become empty strings.
// Registry-assigned fields (ID, registry number, timestamps) are not part of the draft.
func Hydrate(r models.Record) *Draft {
	d := New()
	set := func(f Field, v string) {
		if v != "" {
			d.values[f] = v
		}
	}

	c := r.Child
	set(ChildFirstName, c.FirstName)
	set(ChildMiddleName, c.MiddleName)
	set(ChildLastName, c.LastName)
	set(ChildSex, string(c.Sex))
	set(ChildDateOfBirth, c.DateOfBirth)
	set(ChildTimeOfBirth, derefString(c.TimeOfBirth))
	set(ChildPlaceOfBirth, c.PlaceOfBirth)
	set(ChildCity, c.City)
	set(ChildProvince, c.Province)
	set(ChildBirthType, string(c.BirthType))
	set(ChildBirthOrder, formatInt(c.BirthOrder))
	set(ChildWeightGrams, formatOptionalInt(c.WeightGrams))

	m := r.Mother
	set(MotherFirstName, m.FirstName)
	set(MotherMiddleName, m.MiddleName)
	set(MotherLastName, m.LastName)
	set(MotherCitizenship, m.Citizenship)
	set(MotherReligion, m.Religion)
	set(MotherOccupation, m.Occupation)
	set(MotherAge, formatInt(m.Age))
	set(MotherStreet, m.Street)
	set(MotherCity, m.City)
	set(MotherProvince, m.Province)
	set(MotherCountry, m.Country)
	set(MotherChildrenBornAlive, formatOptionalInt(m.ChildrenBornAlive))

	f := r.Father
	set(FatherFirstName, f.FirstName)
	set(FatherMiddleName, f.MiddleName)
	set(FatherLastName, f.LastName)
	set(FatherCitizenship, f.Citizenship)
	set(FatherReligion, f.Religion)
	set(FatherOccupation, f.Occupation)
	set(FatherAge, formatInt(f.Age))
	set(FatherStreet, f.Street)
	set(FatherCity, f.City)
	set(FatherProvince, f.Province)
	set(FatherCountry, f.Country)

	set(MarriageStatus, string(r.Marriage.Status))
	set(MarriageDate, r.Marriage.Date)
	set(MarriageCity, r.Marriage.City)
	set(MarriageProvince, r.Marriage.Province)
	set(MarriageCountry, r.Marriage.Country)

	set(AttendantType, string(r.Attendant.Type))
	set(AttendantName, r.Attendant.Name)
	set(AttendantCertification, r.Attendant.Certification)
	set(AttendantAddress, r.Attendant.Address)
	set(AttendantTitle, r.Attendant.Title)

	set(InformantName, r.Informant.Name)
	set(InformantRelationship, r.Informant.Relationship)
	set(InformantAddress, r.Informant.Address)
	set(InformantCertificationAccepted, strconv.FormatBool(r.Informant.CertificationAccepted))

	set(PreparerName, r.Preparer.Name)
	set(PreparerTitle, r.Preparer.Title)
	set(PreparerDatePrepared, r.Preparer.DatePrepared)

	set(Remarks, r.Remarks)
	return d
}

// Dehydrate rebuilds the canonical nested shape from a draft. Text values are
// trimmed. Numeric and boolean fields that do not parse are reported as field
// errors; callers normally validate first, so this only fails on bypassed validation.
func Dehydrate(d *Draft) (models.Record, error) {
	p := parser{d: d, errs: models.FieldErrors{}}

	r := models.Record{
		Child: models.Child{
			FirstName:    p.text(ChildFirstName),
			MiddleName:   p.text(ChildMiddleName),
			LastName:     p.text(ChildLastName),
			Sex:          models.Sex(strings.ToLower(p.text(ChildSex))),
			DateOfBirth:  p.text(ChildDateOfBirth),
			TimeOfBirth:  p.optionalText(ChildTimeOfBirth),
			PlaceOfBirth: p.text(ChildPlaceOfBirth),
			City:         p.text(ChildCity),
			Province:     p.text(ChildProvince),
			BirthType:    models.BirthType(strings.ToLower(p.text(ChildBirthType))),
			BirthOrder:   p.integer(ChildBirthOrder),
			WeightGrams:  p.optionalInteger(ChildWeightGrams),
		},
		Mother: models.Parent{
			FirstName:         p.text(MotherFirstName),
			MiddleName:        p.text(MotherMiddleName),
			LastName:          p.text(MotherLastName),
			Citizenship:       p.text(MotherCitizenship),
			Religion:          p.text(MotherReligion),
			Occupation:        p.text(MotherOccupation),
			Age:               p.integer(MotherAge),
			Street:            p.text(MotherStreet),
			City:              p.text(MotherCity),
			Province:          p.text(MotherProvince),
			Country:           p.text(MotherCountry),
			ChildrenBornAlive: p.optionalInteger(MotherChildrenBornAlive),
		},
		Father: models.Parent{
			FirstName:   p.text(FatherFirstName),
			MiddleName:  p.text(FatherMiddleName),
			LastName:    p.text(FatherLastName),
			Citizenship: p.text(FatherCitizenship),
			Religion:    p.text(FatherReligion),
			Occupation:  p.text(FatherOccupation),
			Age:         p.integer(FatherAge),
			Street:      p.text(FatherStreet),
			City:        p.text(FatherCity),
			Province:    p.text(FatherProvince),
			Country:     p.text(FatherCountry),
		},
		Marriage: models.Marriage{
			Status:   models.MarriageStatus(strings.ToLower(p.text(MarriageStatus))),
			Date:     p.text(MarriageDate),
			City:     p.text(MarriageCity),
			Province: p.text(MarriageProvince),
			Country:  p.text(MarriageCountry),
		},
		Attendant: models.Attendant{
			Type:          models.AttendantType(strings.ToLower(p.text(AttendantType))),
			Name:          p.text(AttendantName),
			Certification: p.text(AttendantCertification),
			Address:       p.text(AttendantAddress),
			Title:         p.text(AttendantTitle),
		},
		Informant: models.Informant{
			Name:                  p.text(InformantName),
			Relationship:          p.text(InformantRelationship),
			Address:               p.text(InformantAddress),
			CertificationAccepted: p.boolean(InformantCertificationAccepted),
		},
		Preparer: models.Preparer{
			Name:         p.text(PreparerName),
			Title:        p.text(PreparerTitle),
			DatePrepared: p.text(PreparerDatePrepared),
		},
		Remarks: p.text(Remarks),
	}

	if !p.errs.Empty() {
		return models.Record{}, models.NewValidationError(p.errs)
	}
	return r, nil
}

type parser struct {
	d    *Draft
	errs models.FieldErrors
}

func (p parser) text(f Field) string {
	return strings.TrimSpace(p.d.Get(f))
}

func (p parser) optionalText(f Field) *string {
	v := p.text(f)
	if v == "" {
		return nil
	}
	return &v
}

func (p parser) integer(f Field) int {
	v := p.text(f)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs.Add(string(f), "must be a whole number")
		return 0
	}
	return n
}

func (p parser) optionalInteger(f Field) *int {
	if p.text(f) == "" {
		return nil
	}
	n := p.integer(f)
	return &n
}

func (p parser) boolean(f Field) bool {
	v := p.text(f)
	if v == "" {
		return false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.errs.Add(string(f), "must be true or false")
		return false
	}
	return b
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func formatInt(n int) string {
	if n == 0 {
		return ""
	}
	return strconv.Itoa(n)
}

func formatOptionalInt(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
