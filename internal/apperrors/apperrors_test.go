package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConflict, KindOf(E(KindConflict, "duplicate registration '%s'", "ABC-1")))
	assert.Equal(t, KindStore, KindOf(errors.New("connection refused")))
	assert.Equal(t, KindStore, KindOf(nil))

	// Classification survives fmt wrapping.
	wrapped := fmt.Errorf("adjust stock: %w", E(KindRestriction, "cannot delete"))
	assert.Equal(t, KindRestriction, KindOf(wrapped))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("unique constraint violation")
	err := Wrap(KindConflict, cause, "registration already exists")

	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "registration already exists: unique constraint violation", err.Error())
	assert.Equal(t, KindConflict, KindOf(err))
}

func TestStatusCode(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{E(KindInvalidInput, "bad date"), http.StatusBadRequest},
		{E(KindNotFound, "vehicle not found"), http.StatusNotFound},
		{E(KindConflict, "duplicate"), http.StatusConflict},
		{E(KindRestriction, "active rental"), http.StatusConflict},
		{errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusCode(tc.err), tc.err)
	}
}
