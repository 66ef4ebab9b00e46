package draft

// Field names a single value in the flat draft. Names are the nested record path
// with the dot replaced by an underscore ("child.first_name" -> "child_first_name").
type Field string

// Group is the sub-entity a field belongs to.
type Group string

const (
	GroupChild     Group = "child"
	GroupMother    Group = "mother"
	GroupFather    Group = "father"
	GroupMarriage  Group = "marriage"
	GroupAttendant Group = "attendant"
	GroupInformant Group = "informant"
	GroupPreparer  Group = "preparer"
	GroupRecord    Group = "record"
)

const (
	ChildFirstName    Field = "child_first_name"
	ChildMiddleName   Field = "child_middle_name"
	ChildLastName     Field = "child_last_name"
	ChildSex          Field = "child_sex"
	ChildDateOfBirth  Field = "child_date_of_birth"
	ChildTimeOfBirth  Field = "child_time_of_birth"
	ChildPlaceOfBirth Field = "child_place_of_birth"
	ChildCity         Field = "child_city"
	ChildProvince     Field = "child_province"
	ChildBirthType    Field = "child_birth_type"
	ChildBirthOrder   Field = "child_birth_order"
	ChildWeightGrams  Field = "child_weight_grams"

	MotherFirstName         Field = "mother_first_name"
	MotherMiddleName        Field = "mother_middle_name"
	MotherLastName          Field = "mother_last_name"
	MotherCitizenship       Field = "mother_citizenship"
	MotherReligion          Field = "mother_religion"
	MotherOccupation        Field = "mother_occupation"
	MotherAge               Field = "mother_age"
	MotherStreet            Field = "mother_street"
	MotherCity              Field = "mother_city"
	MotherProvince          Field = "mother_province"
	MotherCountry           Field = "mother_country"
	MotherChildrenBornAlive Field = "mother_children_born_alive"

	FatherFirstName   Field = "father_first_name"
	FatherMiddleName  Field = "father_middle_name"
	FatherLastName    Field = "father_last_name"
	FatherCitizenship Field = "father_citizenship"
	FatherReligion    Field = "father_religion"
	FatherOccupation  Field = "father_occupation"
	FatherAge         Field = "father_age"
	FatherStreet      Field = "father_street"
	FatherCity        Field = "father_city"
	FatherProvince    Field = "father_province"
	FatherCountry     Field = "father_country"

	MarriageStatus   Field = "marriage_status"
	MarriageDate     Field = "marriage_date"
	MarriageCity     Field = "marriage_city"
	MarriageProvince Field = "marriage_province"
	MarriageCountry  Field = "marriage_country"

	AttendantType          Field = "attendant_type"
	AttendantName          Field = "attendant_name"
	AttendantCertification Field = "attendant_certification"
	AttendantAddress       Field = "attendant_address"
	AttendantTitle         Field = "attendant_title"

	InformantName                  Field = "informant_name"
	InformantRelationship          Field = "informant_relationship"
	InformantAddress               Field = "informant_address"
	InformantCertificationAccepted Field = "informant_certification_accepted"

	PreparerName         Field = "preparer_name"
	PreparerTitle        Field = "preparer_title"
	PreparerDatePrepared Field = "preparer_date_prepared"

	Remarks Field = "remarks"
)

// catalog lists every field in entry order.
var catalog = []struct {
	field Field
	group Group
}{
	{ChildFirstName, GroupChild},
	{ChildMiddleName, GroupChild},
	{ChildLastName, GroupChild},
	{ChildSex, GroupChild},
	{ChildDateOfBirth, GroupChild},
	{ChildTimeOfBirth, GroupChild},
	{ChildPlaceOfBirth, GroupChild},
	{ChildCity, GroupChild},
	{ChildProvince, GroupChild},
	{ChildBirthType, GroupChild},
	{ChildBirthOrder, GroupChild},
	{ChildWeightGrams, GroupChild},

	{MotherFirstName, GroupMother},
	{MotherMiddleName, GroupMother},
	{MotherLastName, GroupMother},
	{MotherCitizenship, GroupMother},
	{MotherReligion, GroupMother},
	{MotherOccupation, GroupMother},
	{MotherAge, GroupMother},
	{MotherStreet, GroupMother},
	{MotherCity, GroupMother},
	{MotherProvince, GroupMother},
	{MotherCountry, GroupMother},
	{MotherChildrenBornAlive, GroupMother},

	{FatherFirstName, GroupFather},
	{FatherMiddleName, GroupFather},
	{FatherLastName, GroupFather},
	{FatherCitizenship, GroupFather},
	{FatherReligion, GroupFather},
	{FatherOccupation, GroupFather},
	{FatherAge, GroupFather},
	{FatherStreet, GroupFather},
	{FatherCity, GroupFather},
	{FatherProvince, GroupFather},
	{FatherCountry, GroupFather},

	{MarriageStatus, GroupMarriage},
	{MarriageDate, GroupMarriage},
	{MarriageCity, GroupMarriage},
	{MarriageProvince, GroupMarriage},
	{MarriageCountry, GroupMarriage},

	{AttendantType, GroupAttendant},
	{AttendantName, GroupAttendant},
	{AttendantCertification, GroupAttendant},
	{AttendantAddress, GroupAttendant},
	{AttendantTitle, GroupAttendant},

	{InformantName, GroupInformant},
	{InformantRelationship, GroupInformant},
	{InformantAddress, GroupInformant},
	{InformantCertificationAccepted, GroupInformant},

	{PreparerName, GroupPreparer},
	{PreparerTitle, GroupPreparer},
	{PreparerDatePrepared, GroupPreparer},

	{Remarks, GroupRecord},
}

var groupOf = func() map[Field]Group {
	m := make(map[Field]Group, len(catalog))
	for _, c := range catalog {
		m[c.field] = c.group
	}
	return m
}()

// TupleFields are the fields whose mutation restarts the duplicate check.
var TupleFields = []Field{ChildFirstName, ChildLastName, ChildDateOfBirth}

// All returns every known field in entry order.
func All() []Field {
	out := make([]Field, len(catalog))
	for i, c := range catalog {
		out[i] = c.field
	}
	return out
}

// InGroup returns the fields of one sub-entity in entry order.
func InGroup(g Group) []Field {
	var out []Field
	for _, c := range catalog {
		if c.group == g {
			out = append(out, c.field)
		}
	}
	return out
}

// GroupOf returns the sub-entity of f.
func GroupOf(f Field) (Group, bool) {
	g, ok := groupOf[f]
	return g, ok
}

// IsKnown reports whether f is part of the draft.
func IsKnown(f Field) bool {
	_, ok := groupOf[f]
	return ok
}

// IsTupleField reports whether f belongs to the identifying tuple.
func IsTupleField(f Field) bool {
	for _, t := range TupleFields {
		if t == f {
			return true
		}
	}
	return false
}
