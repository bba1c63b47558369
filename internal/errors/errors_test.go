package errors

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "Error: boom", Format(New("boom")))
	assert.Equal(t, "Error: habit 42 missing", Formatf("habit %d missing", 42))
}

func TestInvalidWrapsSentinel(t *testing.T) {
	err := Invalid("name must be at most %d characters", 80)
	assert.True(t, Is(err, ErrInvalidInput))
	assert.Equal(t, "invalid input: name must be at most 80 characters", err.Error())
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := fmt.Errorf("join group g1: %w", ErrGroupFull)
	assert.True(t, Is(err, ErrGroupFull))
	assert.False(t, Is(err, ErrConflict))
}
