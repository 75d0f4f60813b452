package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusCode(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          Validation("bad", nil),
		http.StatusUnauthorized:        Unauthenticated("who"),
		http.StatusForbidden:           Forbidden("no"),
		http.StatusNotFound:            NotFound("gone"),
		http.StatusConflict:            Conflict("taken"),
		http.StatusInternalServerError: errors.New("boom"),
	}
	for want, err := range cases {
		assert.Equal(t, want, StatusCode(err), err.Error())
	}
	assert.Equal(t, http.StatusBadRequest, StatusCode(Unavailable("Insufficient quantity")))
}

func TestSentinelsMatchWrappedErrors(t *testing.T) {
	err := fmt.Errorf("placing order: %w", NotFound("Product 7 not found"))

	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))
	assert.Equal(t, KindNotFound, KindOf(err))
}

func TestPublicHidesInternalDetail(t *testing.T) {
	msg, fields := Public(Internal(errors.New("dial tcp 10.0.0.5:5432: refused")))
	assert.Equal(t, "Internal Server Error", msg)
	assert.Nil(t, fields)

	msg, fields = Public(Validation("Validation failed", map[string]string{"name": "required"}))
	assert.Equal(t, "Validation failed", msg)
	assert.Equal(t, "required", fields["name"])
}

func TestErrorString(t *testing.T) {
	assert.Equal(t, "authorization: Only farmers can create products", Forbidden("Only farmers can create products").Error())
	assert.Contains(t, Internal(errors.New("disk full")).Error(), "disk full")
}
