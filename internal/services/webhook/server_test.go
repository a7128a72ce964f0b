package webhook

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func post(t *testing.T, h http.Handler, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/webhooks/github", bytes.NewReader(body))
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestServer_StatusMapping(t *testing.T) {
	f := newFixture(t)
	srv := NewServer(nil, f.uc)
	good := pushBody(1001)
	sig := SignatureHeader([]byte(testSecret), good)

	rec := post(t, srv, good, map[string]string{"X-Hub-Signature-256": sig, "X-GitHub-Event": "push"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"counted"`)

	rec = post(t, srv, good, map[string]string{"X-Hub-Signature-256": "sha256=00"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	unknown := pushBody(9)
	rec = post(t, srv, unknown, map[string]string{"X-Hub-Signature-256": SignatureHeader([]byte(testSecret), unknown)})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	junk := []byte("not json")
	rec = post(t, srv, junk, map[string]string{"X-Hub-Signature-256": SignatureHeader([]byte(testSecret), junk)})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = post(t, srv, good, map[string]string{"X-Hub-Signature-256": sig, "X-GitHub-Event": "ping"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ignored"`)
}

func TestServer_StoreFailureIs500(t *testing.T) {
	f := newFixture(t)
	f.users.FailOn("GetByExternalID", errors.New("pool closed"))
	body := pushBody(1001)

	rec := post(t, NewServer(nil, f.uc), body, map[string]string{"X-Hub-Signature-256": SignatureHeader([]byte(testSecret), body)})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "pool closed")
}

type stubIngestor struct{ called bool }

func (s *stubIngestor) Ingest(context.Context, Delivery) (Result, error) {
	s.called = true
	return Result{}, nil
}

func TestServer_MethodNotAllowed(t *testing.T) {
	stub := &stubIngestor{}
	rec := httptest.NewRecorder()
	NewServer(nil, stub).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/webhooks/github", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.False(t, stub.called)
}

func TestServer_PayloadTooLarge(t *testing.T) {
	stub := &stubIngestor{}
	rec := post(t, NewServer(nil, stub), bytes.Repeat([]byte("a"), maxBodyBytes+1), nil)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.False(t, stub.called)
}
