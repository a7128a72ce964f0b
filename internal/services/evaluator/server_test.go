package evaluator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTriggerServer(t *testing.T) {
	e := newEnv()
	e.onboarded("olga", 1, "09:00")
	e.clk.Set(at("2024-03-01", "10:00"))
	srv := NewTriggerServer(nil, e.usecase(), "topsecret")

	do := func(method, target string, hdr string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, nil)
		if hdr != "" {
			req.Header.Set("X-Sweep-Secret", hdr)
		}
		rec := httptest.NewRecorder()
		srv.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusMethodNotAllowed, do(http.MethodGet, "/v1/sweep", "topsecret").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/v1/sweep", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(http.MethodPost, "/v1/sweep", "wrong").Code)
	assert.Empty(t, e.sender.take())

	rec := do(http.MethodPost, "/v1/sweep", "topsecret")
	require.Equal(t, http.StatusOK, rec.Code)
	var res Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, 1, res.Reminded)
	assert.NotEmpty(t, res.SweepID)

	rec = do(http.MethodPost, "/v1/sweep?secret=topsecret", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestTriggerServer_LockHeldIsConflict(t *testing.T) {
	e := newEnv()
	srv := NewTriggerServer(nil, e.usecase(WithLock(&fakeLock{held: true})), "s")

	req := httptest.NewRequest(http.MethodPost, "/v1/sweep", nil)
	req.Header.Set("X-Sweep-Secret", "s")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestTriggerServer_EmptySecretRejectsEverything(t *testing.T) {
	srv := NewTriggerServer(nil, newEnv().usecase(), "")
	req := httptest.NewRequest(http.MethodPost, "/v1/sweep", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

type countingSweeper struct {
	calls chan struct{}
}

func (s *countingSweeper) Sweep(context.Context) (Result, error) {
	select {
	case s.calls <- struct{}{}:
	default:
	}
	return Result{}, nil
}

type ctxSweeper struct {
	err      error
	deadline bool
}

func (s *ctxSweeper) Sweep(ctx context.Context) (Result, error) {
	s.err = ctx.Err()
	_, s.deadline = ctx.Deadline()
	return Result{}, nil
}

func TestTriggerServer_SweepOutlivesCallerDisconnect(t *testing.T) {
	sw := &ctxSweeper{}
	srv := NewTriggerServer(nil, sw, "s")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/sweep", nil).WithContext(ctx)
	req.Header.Set("X-Sweep-Secret", "s")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, sw.err)
	assert.True(t, sw.deadline)
}

func TestRunner_SweepsImmediatelyAndOnTicks(t *testing.T) {
	sw := &countingSweeper{calls: make(chan struct{}, 16)}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRunner(nil, sw, 10*time.Millisecond).Run(ctx) }()

	for i := 0; i < 3; i++ {
		select {
		case <-sw.calls:
		case <-time.After(2 * time.Second):
			t.Fatalf("sweep %d did not happen", i)
		}
	}
	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
}

type slowSweeper struct {
	started  chan struct{}
	finished chan struct{}
}

func (s *slowSweeper) Sweep(ctx context.Context) (Result, error) {
	close(s.started)
	<-ctx.Done()
	time.Sleep(20 * time.Millisecond)
	close(s.finished)
	return Result{}, ctx.Err()
}

func TestRunner_RunReturnsAfterInFlightSweep(t *testing.T) {
	sw := &slowSweeper{started: make(chan struct{}), finished: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- NewRunner(nil, sw, time.Hour).Run(ctx) }()

	<-sw.started
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("runner did not stop")
	}
	select {
	case <-sw.finished:
	default:
		t.Fatal("runner returned while a sweep was still running")
	}
}
