package models

import (
	"time"

	id "civreg/pkg/domain"
)

// DateLayout is the wire and draft format for calendar dates.
const DateLayout = "2006-01-02"

// TimeLayout is the wire and draft format for clock times.
const TimeLayout = "15:04"

// Record is the canonical, nested shape of a civil birth record as the registry
// stores it. ID, RegistryNumber, RegistrationDate and the timestamps are assigned
// by the registry; a client-built record leaves them zero.
type Record struct {
	ID               id.RecordID `json:"id"`
	RegistryNumber   string      `json:"registry_number,omitempty"`
	RegistrationDate string      `json:"registration_date,omitempty"`
	CreatedAt        time.Time   `json:"created_at,omitzero"`
	UpdatedAt        time.Time   `json:"updated_at,omitzero"`

	Child     Child     `json:"child"`
	Mother    Parent    `json:"mother"`
	Father    Parent    `json:"father"`
	Marriage  Marriage  `json:"marriage"`
	Attendant Attendant `json:"attendant"`
	Informant Informant `json:"informant"`
	Preparer  Preparer  `json:"preparer"`
	Remarks   string    `json:"remarks,omitempty"`
}

// Child is the principal subject of a birth record.
type Child struct {
	FirstName    string    `json:"first_name"`
	MiddleName   string    `json:"middle_name,omitempty"`
	LastName     string    `json:"last_name"`
	Sex          Sex       `json:"sex"`
	DateOfBirth  string    `json:"date_of_birth"`
	TimeOfBirth  *string   `json:"time_of_birth,omitempty"`
	PlaceOfBirth string    `json:"place_of_birth"`
	City         string    `json:"city"`
	Province     string    `json:"province"`
	BirthType    BirthType `json:"birth_type"`
	BirthOrder   int       `json:"birth_order"`
	WeightGrams  *int      `json:"weight_grams,omitempty"`
}

// Parent describes the mother or the father.
type Parent struct {
	FirstName         string `json:"first_name"`
	MiddleName        string `json:"middle_name,omitempty"`
	LastName          string `json:"last_name"`
	Citizenship       string `json:"citizenship"`
	Religion          string `json:"religion,omitempty"`
	Occupation        string `json:"occupation,omitempty"`
	Age               int    `json:"age"`
	Street            string `json:"street,omitempty"`
	City              string `json:"city"`
	Province          string `json:"province"`
	Country           string `json:"country"`
	ChildrenBornAlive *int   `json:"children_born_alive,omitempty"`
}

// Marriage records whether and where the parents married.
type Marriage struct {
	Status   MarriageStatus `json:"status"`
	Date     string         `json:"date,omitempty"`
	City     string         `json:"city,omitempty"`
	Province string         `json:"province,omitempty"`
	Country  string         `json:"country,omitempty"`
}

// Attendant is the person who attended the birth.
type Attendant struct {
	Type          AttendantType `json:"type"`
	Name          string        `json:"name"`
	Certification string        `json:"certification"`
	Address       string        `json:"address"`
	Title         string        `json:"title"`
}

// Informant is the person reporting the birth.
type Informant struct {
	Name                  string `json:"name"`
	Relationship          string `json:"relationship"`
	Address               string `json:"address"`
	CertificationAccepted bool   `json:"certification_accepted"`
}

// Preparer is the registry clerk who prepared the record.
type Preparer struct {
	Name         string `json:"name"`
	Title        string `json:"title"`
	DatePrepared string `json:"date_prepared"`
}

// IsPersisted reports whether the registry has assigned an identity.
func (r Record) IsPersisted() bool {
	return !r.ID.IsNil()
}

// Tuple returns the identifying tuple used for duplicate detection.
func (r Record) Tuple() Tuple {
	return Tuple{
		FirstName:      r.Child.FirstName,
		LastName:       r.Child.LastName,
		OccurrenceDate: r.Child.DateOfBirth,
	}
}
