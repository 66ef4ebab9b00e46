package wizard

import (
	"civreg/internal/record/models"
	"civreg/internal/wizard/draft"
	"civreg/internal/wizard/duplicates"
	"civreg/internal/wizard/steps"
	id "civreg/pkg/domain"
)

// StepView describes one step for display.
type StepView struct {
	Step      steps.Step `json:"step"`
	Title     string     `json:"title"`
	Completed bool       `json:"completed"`
	Current   bool       `json:"current"`
}

// View is a point-in-time copy of a session. It shares nothing with the session.
type View struct {
	SessionID        id.SessionID              `json:"session_id"`
	Mode             Mode                      `json:"mode"`
	Status           Status                    `json:"status"`
	RecordID         id.RecordID               `json:"record_id"`
	RegistryNumber   string                    `json:"registry_number,omitempty"`
	Step             steps.Step                `json:"step"`
	Steps            []StepView                `json:"steps"`
	Values           map[draft.Field]string    `json:"values"`
	Errors           models.FieldErrors        `json:"errors"`
	Duplicates       duplicates.Classification `json:"duplicates"`
	Candidates       []models.Candidate        `json:"candidates"`
	DuplicatePending bool                      `json:"duplicate_pending"`
	Dirty            bool                      `json:"dirty"`
	Submitting       bool                      `json:"submitting"`
}

// View snapshots the session.
func (s *Session) View() View {
	dup := s.sentinel.State()

	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		SessionID:        s.id,
		Mode:             s.mode,
		Status:           s.status,
		RecordID:         s.recordID,
		RegistryNumber:   s.record.RegistryNumber,
		Step:             s.step,
		Values:           s.draft.Values(),
		Errors:           s.errs.Clone(),
		Duplicates:       dup.Classification,
		Candidates:       dup.Candidates,
		DuplicatePending: dup.Pending,
		Dirty:            s.dirty,
		Submitting:       s.submitting,
	}
	for _, st := range steps.All() {
		v.Steps = append(v.Steps, StepView{
			Step:      st,
			Title:     st.Title(),
			Completed: s.completed[st],
			Current:   st == s.step,
		})
	}
	return v
}

// Status returns the lifecycle state.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Errors returns a copy of the current field errors.
func (s *Session) Errors() models.FieldErrors {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errs.Clone()
}

// CurrentStep returns the step being shown.
func (s *Session) CurrentStep() steps.Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.step
}

// Dirty reports whether the draft holds unsaved changes.
func (s *Session) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}
