package apperror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

var errSample = New(KindInvalidState, "SAMPLE", "sample")

func TestWithMessage_KeepsIdentity(t *testing.T) {
	err := errSample.WithMessage("something more specific")

	assert.ErrorIs(t, err, errSample)
	assert.Equal(t, "something more specific", err.Error())
	assert.Equal(t, KindInvalidState, KindOf(err))
}

func TestIs_ThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("occurrence 2: %w", errSample)

	assert.ErrorIs(t, wrapped, errSample)
	assert.Equal(t, KindInvalidState, KindOf(wrapped))
	assert.False(t, errors.Is(wrapped, New(KindInvalidState, "OTHER", "sample")))
}

func TestHTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, New(KindNotFound, "X", "").HTTPStatus())
	assert.Equal(t, http.StatusForbidden, New(KindNotAuthorized, "X", "").HTTPStatus())
	assert.Equal(t, http.StatusConflict, New(KindInvalidState, "X", "").HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, New(KindInvalidInput, "X", "").HTTPStatus())
	assert.Equal(t, http.StatusUnprocessableEntity, New(KindValidationFailed, "X", "").HTTPStatus())
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
}
