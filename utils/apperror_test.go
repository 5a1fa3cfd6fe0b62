package utils

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKindOfWrapped(t *testing.T) {
	base := NewConflictError("slot is already booked")
	wrapped := fmt.Errorf("book slot: %w", base)

	assert.Equal(t, KindConflict, ErrorKindOf(wrapped))
	assert.True(t, IsKind(wrapped, KindConflict))
	assert.Equal(t, "slot is already booked", PublicMessage(wrapped))
}

func TestErrorKindOfPlainError(t *testing.T) {
	err := errors.New("boom")
	assert.Equal(t, KindInternal, ErrorKindOf(err))
	assert.False(t, IsKind(nil, KindInternal))
	assert.NotContains(t, PublicMessage(err), "boom")
}

func TestUpstreamErrorUnwraps(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewUpstreamError("meeting creation failed", cause)

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "meeting creation failed: connection refused", err.Error())
	assert.Equal(t, "meeting creation failed", PublicMessage(err))
}

func TestStatusFor(t *testing.T) {
	cases := map[ErrorKind]int{
		KindValidation:   http.StatusBadRequest,
		KindNotFound:     http.StatusNotFound,
		KindConflict:     http.StatusConflict,
		KindUnauthorized: http.StatusUnauthorized,
		KindUpstream:     http.StatusBadGateway,
		KindInternal:     http.StatusInternalServerError,
	}
	for kind, want := range cases {
		assert.Equal(t, want, StatusFor(kind), kind)
	}
}

func TestOutcome(t *testing.T) {
	assert.Equal(t, "success", Outcome(nil))
	assert.Equal(t, "unauthorized", Outcome(NewUnauthorizedError("nope")))
}
