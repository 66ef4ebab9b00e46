// Package fixtures holds sample birth records shared by tests.
package fixtures

import (
	"time"

	"civreg/internal/record/models"
)

// BirthRecord returns a complete, valid, unpersisted birth record for Maria Santos
// born 2024-01-10. Every call returns fresh pointers.
func BirthRecord() models.Record {
	tob := "08:45"
	weight := 3150
	born := 2
	return models.Record{
		RegistrationDate: "2024-01-15",
		Child: models.Child{
			FirstName: "Maria", MiddleName: "Reyes", LastName: "Santos",
			Sex: models.SexFemale, DateOfBirth: "2024-01-10", TimeOfBirth: &tob,
			PlaceOfBirth: "St. Luke's Medical Center", City: "Quezon City", Province: "Metro Manila",
			BirthType: models.BirthTypeSingle, BirthOrder: 1, WeightGrams: &weight,
		},
		Mother: models.Parent{
			FirstName: "Ana", LastName: "Reyes", Citizenship: "Filipino", Age: 29,
			City: "Quezon City", Province: "Metro Manila", Country: "Philippines", ChildrenBornAlive: &born,
		},
		Father: models.Parent{
			FirstName: "Jose", LastName: "Santos", Citizenship: "Filipino", Age: 31, Occupation: "Engineer",
			City: "Quezon City", Province: "Metro Manila", Country: "Philippines",
		},
		Marriage: models.Marriage{
			Status: models.MarriageStatusMarried, Date: "2020-06-12",
			City: "Manila", Province: "Metro Manila", Country: "Philippines",
		},
		Attendant: models.Attendant{
			Type: models.AttendantPhysician, Name: "Dr. Lim", Certification: "I attended the birth",
			Address: "Quezon City", Title: "OB-GYN",
		},
		Informant: models.Informant{
			Name: "Ana Reyes", Relationship: "Mother", Address: "Quezon City", CertificationAccepted: true,
		},
		Preparer: models.Preparer{Name: "Clerk Cruz", Title: "Registration Officer", DatePrepared: "2024-01-15"},
	}
}

// Now is a fixed clock reading after every date in BirthRecord.
var Now = time.Date(2024, 2, 1, 10, 0, 0, 0, time.UTC)
