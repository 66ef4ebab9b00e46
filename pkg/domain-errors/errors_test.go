package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHasCode(t *testing.T) {
	t.Run("matches outer code", func(t *testing.T) {
		err := New(CodeDuplicate, "duplicate")
		assert.True(t, HasCode(err, CodeDuplicate))
		assert.False(t, HasCode(err, CodeValidation))
	})

	t.Run("matches inner code through wrap chain", func(t *testing.T) {
		inner := New(CodeConflict, "taken")
		err := Wrap(fmt.Errorf("store: %w", inner), CodeValidation, "rejected")
		assert.True(t, HasCode(err, CodeValidation))
		assert.True(t, HasCode(err, CodeConflict))
		assert.Equal(t, CodeValidation, CodeOf(err))
	})

	t.Run("plain errors carry no code", func(t *testing.T) {
		err := errors.New("boom")
		assert.False(t, HasCode(err, CodeInternal))
		assert.Equal(t, CodeInternal, CodeOf(err))
		assert.False(t, HasCode(nil, CodeInternal))
	})
}

func TestErrorMessage(t *testing.T) {
	err := Wrap(errors.New("dial tcp: refused"), CodeUnavailable, "registry unavailable")
	assert.Equal(t, "registry unavailable: dial tcp: refused", err.Error())
	assert.True(t, Is(err, CodeUnavailable))
	assert.Equal(t, "nope", New(CodeBadRequest, "nope").Error())
}
