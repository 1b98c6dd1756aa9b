package apperr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorWrapping(t *testing.T) {
	cause := errors.New("dial tcp: timeout")
	err := fmt.Errorf("search: %w", New(ProviderError, "pixabay.search", cause))

	assert.True(t, Is(err, ProviderError))
	assert.False(t, Is(err, EmptyResult))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "search: pixabay.search: provider_error: dial tcp: timeout", err.Error())
}

func TestCode(t *testing.T) {
	err := Errorf(InvalidInput, "admin.ban", "bad id %q", "abc")
	assert.Equal(t, "invalid_input", err.Code())
	assert.Equal(t, InvalidInput, KindOf(err))
	assert.Equal(t, Kind(""), KindOf(errors.New("plain")))
	assert.False(t, Is(nil, InvalidInput))
}
