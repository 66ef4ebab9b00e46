package models

import (
	"strings"

	dErrors "civreg/pkg/domain-errors"
)

// Sex is the recorded sex of the child.
// Invariant: one of the supported values; construct via ParseSex at trust boundaries.
type Sex string

const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

var validSexes = map[Sex]bool{SexMale: true, SexFemale: true}

func ParseSex(s string) (Sex, error) {
	v := Sex(strings.ToLower(strings.TrimSpace(s)))
	if !validSexes[v] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "sex must be male or female")
	}
	return v, nil
}

func (s Sex) IsValid() bool { return validSexes[s] }

// BirthType distinguishes single from multiple births.
type BirthType string

const (
	BirthTypeSingle  BirthType = "single"
	BirthTypeTwin    BirthType = "twin"
	BirthTypeTriplet BirthType = "triplet"
	BirthTypeOther   BirthType = "other"
)

var validBirthTypes = map[BirthType]bool{
	BirthTypeSingle:  true,
	BirthTypeTwin:    true,
	BirthTypeTriplet: true,
	BirthTypeOther:   true,
}

func ParseBirthType(s string) (BirthType, error) {
	v := BirthType(strings.ToLower(strings.TrimSpace(s)))
	if !validBirthTypes[v] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported birth type")
	}
	return v, nil
}

func (t BirthType) IsValid() bool { return validBirthTypes[t] }

// MarriageStatus tells whether the parents were married at the time of birth.
type MarriageStatus string

const (
	MarriageStatusMarried    MarriageStatus = "married"
	MarriageStatusNotMarried MarriageStatus = "not_married"
)

var validMarriageStatuses = map[MarriageStatus]bool{
	MarriageStatusMarried:    true,
	MarriageStatusNotMarried: true,
}

func ParseMarriageStatus(s string) (MarriageStatus, error) {
	v := MarriageStatus(strings.ToLower(strings.TrimSpace(s)))
	if !validMarriageStatuses[v] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported marriage status")
	}
	return v, nil
}

func (m MarriageStatus) IsValid() bool { return validMarriageStatuses[m] }

// AttendantType is the professional category of the birth attendant.
type AttendantType string

const (
	AttendantPhysician   AttendantType = "physician"
	AttendantNurse       AttendantType = "nurse"
	AttendantMidwife     AttendantType = "midwife"
	AttendantTraditional AttendantType = "traditional_attendant"
	AttendantOther       AttendantType = "other"
)

var validAttendantTypes = map[AttendantType]bool{
	AttendantPhysician:   true,
	AttendantNurse:       true,
	AttendantMidwife:     true,
	AttendantTraditional: true,
	AttendantOther:       true,
}

func ParseAttendantType(s string) (AttendantType, error) {
	v := AttendantType(strings.ToLower(strings.TrimSpace(s)))
	if !validAttendantTypes[v] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unsupported attendant type")
	}
	return v, nil
}

func (a AttendantType) IsValid() bool { return validAttendantTypes[a] }
