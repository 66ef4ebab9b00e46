// Package steps defines the fixed, linear sequence of wizard steps and the pure
// validators that gate moving past each of them.
package steps

import (
	"civreg/internal/wizard/draft"
)

// Step identifies one wizard page. Only the declared constants are valid; there
// is no arithmetic on Step values, moves go through the transition table.
type Step int

const (
	Child Step = iota + 1
	Mother
	Father
	Marriage
	Attendant
	Informant
	Preparer
	Review
)

// First and Terminal bound the sequence.
const (
	First    = Child
	Terminal = Review
)

// Count is the number of steps.
const Count = 8

type transition struct {
	prev, next Step
}

// transitions is the complete, linear step graph. A zero prev/next means the
// edge does not exist.
var transitions = map[Step]transition{
	Child:     {prev: 0, next: Mother},
	Mother:    {prev: Child, next: Father},
	Father:    {prev: Mother, next: Marriage},
	Marriage:  {prev: Father, next: Attendant},
	Attendant: {prev: Marriage, next: Informant},
	Informant: {prev: Attendant, next: Preparer},
	Preparer:  {prev: Informant, next: Review},
	Review:    {prev: Preparer, next: 0},
}

var titles = map[Step]string{
	Child:     "Child",
	Mother:    "Mother",
	Father:    "Father",
	Marriage:  "Parents' Marriage",
	Attendant: "Attendant",
	Informant: "Informant",
	Preparer:  "Prepared By",
	Review:    "Review",
}

var groups = map[Step]draft.Group{
	Child:     draft.GroupChild,
	Mother:    draft.GroupMother,
	Father:    draft.GroupFather,
	Marriage:  draft.GroupMarriage,
	Attendant: draft.GroupAttendant,
	Informant: draft.GroupInformant,
	Preparer:  draft.GroupPreparer,
	Review:    draft.GroupRecord,
}

// All returns every step in order.
func All() []Step {
	out := make([]Step, 0, Count)
	for s := First; ; {
		out = append(out, s)
		next, ok := s.Next()
		if !ok {
			return out
		}
		s = next
	}
}

// IsValid reports whether s is a declared step.
func (s Step) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// Next returns the following step; ok is false on the terminal step.
func (s Step) Next() (Step, bool) {
	t, ok := transitions[s]
	if !ok || t.next == 0 {
		return s, false
	}
	return t.next, true
}

// Prev returns the preceding step; ok is false on the first step.
func (s Step) Prev() (Step, bool) {
	t, ok := transitions[s]
	if !ok || t.prev == 0 {
		return s, false
	}
	return t.prev, true
}

// IsTerminal reports whether s is the last step.
func (s Step) IsTerminal() bool {
	return s == Terminal
}

// Title is the human label of the step.
func (s Step) Title() string {
	return titles[s]
}

// Index is the 1-based position of the step.
func (s Step) Index() int {
	return int(s)
}

func (s Step) String() string {
	return titles[s]
}

// Fields returns the fields entered on step s.
func (s Step) Fields() []draft.Field {
	return draft.InGroup(groups[s])
}

// Owner returns the step on which f is entered.
func Owner(f draft.Field) (Step, bool) {
	g, ok := draft.GroupOf(f)
	if !ok {
		return 0, false
	}
	for s, sg := range groups {
		if sg == g {
			return s, true
		}
	}
	return 0, false
}
