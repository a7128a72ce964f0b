package httpx

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/NordCoder/Pushkeeper/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		domain.ErrUnauthenticated:                          http.StatusUnauthorized,
		fmt.Errorf("lookup: %w", domain.ErrNotFound):       http.StatusNotFound,
		fmt.Errorf("decode: %w", domain.ErrInvalidInput):   http.StatusBadRequest,
		domain.ErrConflict:                                 http.StatusConflict,
		domain.NewStoreError("increment", errors.New("x")): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func TestFail_HidesInternalErrors(t *testing.T) {
	rec := httptest.NewRecorder()
	Fail(rec, domain.NewStoreError("increment", errors.New("connection refused")))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestSecretEqual(t *testing.T) {
	assert.True(t, SecretEqual("abc", "abc"))
	assert.False(t, SecretEqual("abc", "abd"))
	assert.False(t, SecretEqual("", ""))
}
