// Package guard decides whether a wizard may close while it holds unsaved changes.
package guard

import (
	"context"

	"civreg/internal/wizard/ports"
	dErrors "civreg/pkg/domain-errors"
)

// Reason is what triggered the close request.
type Reason string

const (
	ReasonCancel  Reason = "cancel"
	ReasonDismiss Reason = "dismiss"
)

// ParseReason accepts "cancel" or "dismiss".
func ParseReason(s string) (Reason, error) {
	switch r := Reason(s); r {
	case ReasonCancel, ReasonDismiss:
		return r, nil
	}
	return "", dErrors.New(dErrors.CodeInvalidInput, "close reason must be cancel or dismiss")
}

// Outcome of a close request.
type Outcome struct {
	Allowed  bool
	Prompted bool
}

// Guard gates every close reason the same way: a clean session closes at
// once, a dirty one only when the operator agrees to discard.
type Guard struct {
	confirmer ports.Confirmer
}

// New returns a guard asking confirmer. With a nil confirmer dirty sessions
// can never be discarded.
func New(confirmer ports.Confirmer) *Guard {
	return &Guard{confirmer: confirmer}
}

// Check must not be called with a session lock held; the confirmer may block
// on the operator.
func (g *Guard) Check(ctx context.Context, _ Reason, dirty bool) Outcome {
	if !dirty {
		return Outcome{Allowed: true}
	}
	if g == nil || g.confirmer == nil {
		return Outcome{}
	}
	return Outcome{Allowed: g.confirmer.ConfirmDiscard(ctx), Prompted: true}
}

// ConfirmFunc adapts a function to ports.Confirmer.
type ConfirmFunc func(ctx context.Context) bool

func (f ConfirmFunc) ConfirmDiscard(ctx context.Context) bool {
	return f(ctx)
}

// Answer is a Confirmer that always gives the same answer. The host API uses
// it to carry the operator's explicit confirm flag.
type Answer bool

func (a Answer) ConfirmDiscard(context.Context) bool {
	return bool(a)
}

type answerKey struct{}

// WithAnswer stores the operator's answer to the discard prompt in ctx.
func WithAnswer(ctx context.Context, discard bool) context.Context {
	return context.WithValue(ctx, answerKey{}, discard)
}

// ContextConfirmer answers with the value stored by WithAnswer, and refuses
// when none was given. Request/response hosts use it since they cannot prompt
// mid-request.
type ContextConfirmer struct{}

func (ContextConfirmer) ConfirmDiscard(ctx context.Context) bool {
	discard, _ := ctx.Value(answerKey{}).(bool)
	return discard
}
