package guard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"civreg/internal/wizard/ports/mocks"
	dErrors "civreg/pkg/domain-errors"
)

func TestGuard_Check(t *testing.T) {
	ctx := context.Background()

	for _, reason := range []Reason{ReasonCancel, ReasonDismiss} {
		t.Run(string(reason)+" clean closes without prompting", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			confirmer := mocks.NewMockConfirmer(ctrl)
			confirmer.EXPECT().ConfirmDiscard(gomock.Any()).Times(0)

			out := New(confirmer).Check(ctx, reason, false)
			assert.Equal(t, Outcome{Allowed: true}, out)
		})

		t.Run(string(reason)+" dirty asks once and honours a refusal", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			confirmer := mocks.NewMockConfirmer(ctrl)
			confirmer.EXPECT().ConfirmDiscard(gomock.Any()).Return(false).Times(1)

			out := New(confirmer).Check(ctx, reason, true)
			assert.Equal(t, Outcome{Allowed: false, Prompted: true}, out)
		})

		t.Run(string(reason)+" dirty closes on confirmation", func(t *testing.T) {
			ctrl := gomock.NewController(t)
			confirmer := mocks.NewMockConfirmer(ctrl)
			confirmer.EXPECT().ConfirmDiscard(gomock.Any()).Return(true).Times(1)

			out := New(confirmer).Check(ctx, reason, true)
			assert.Equal(t, Outcome{Allowed: true, Prompted: true}, out)
		})
	}

	t.Run("dirty without a confirmer stays open", func(t *testing.T) {
		assert.False(t, New(nil).Check(ctx, ReasonCancel, true).Allowed)
	})
}

func TestAdapters(t *testing.T) {
	calls := 0
	f := ConfirmFunc(func(context.Context) bool { calls++; return true })
	assert.True(t, f.ConfirmDiscard(context.Background()))
	assert.Equal(t, 1, calls)

	assert.True(t, Answer(true).ConfirmDiscard(context.Background()))
	assert.False(t, Answer(false).ConfirmDiscard(context.Background()))
}

func TestParseReason(t *testing.T) {
	r, err := ParseReason("dismiss")
	require.NoError(t, err)
	assert.Equal(t, ReasonDismiss, r)

	_, err = ParseReason("escape")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
}

func TestContextConfirmer(t *testing.T) {
	var c ContextConfirmer
	assert.False(t, c.ConfirmDiscard(context.Background()))
	assert.True(t, c.ConfirmDiscard(WithAnswer(context.Background(), true)))
	assert.False(t, c.ConfirmDiscard(WithAnswer(context.Background(), false)))
}
