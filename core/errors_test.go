package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	notFound := NewNotFoundError("Course not found")
	conflict := NewConflictError("Already enrolled")

	assert.True(t, IsNotFound(notFound))
	assert.True(t, IsNotFound(errors.Wrap(notFound, "getting course")))
	assert.False(t, IsNotFound(conflict))

	assert.True(t, IsConflict(errors.Wrap(conflict, "enrolling")))
	assert.False(t, IsConflict(errors.New("Already enrolled")))

	assert.True(t, IsShutdown(errors.Wrap(NewShutdownError("integrity"), "lol")))
	assert.False(t, IsShutdown(notFound))

	assert.Equal(t, "", ValidationError{}.Error())
	assert.Equal(t, "invalid request body", NewValidationError(errors.New("invalid request body")).Error())
}
