package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/chrissnell/vantaged/internal/dispatcher"
)

func newTestDispatcher(t *testing.T) *dispatcher.Dispatcher {
	t.Helper()
	d := dispatcher.New(zap.NewNop().Sugar())
	d.RegisterConsole("ping", func(ctx context.Context, _ dispatcher.Arguments) (any, error) {
		return map[string]string{"reply": "pong"}, nil
	})
	d.Start(context.Background())
	return d
}

func TestHandleCommandSuccess(t *testing.T) {
	d := newTestDispatcher(t)
	s := New(":0", d, zap.NewNop().Sugar())
	rec := httptest.NewRecorder()

	body, err := json.Marshal(dispatcher.Request{Command: "ping"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/command", bytes.NewReader(body))

	s.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp dispatcher.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, dispatcher.ResultSuccess, resp.Result)
}

func TestHandleCommandUnrecognized(t *testing.T) {
	d := newTestDispatcher(t)
	s := New(":0", d, zap.NewNop().Sugar())
	rec := httptest.NewRecorder()

	body, err := json.Marshal(dispatcher.Request{Command: "no-such-command"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/command", bytes.NewReader(body))

	s.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	var resp dispatcher.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, dispatcher.ResultFailure, resp.Result)
}

func TestHandleCommandMalformedBody(t *testing.T) {
	d := newTestDispatcher(t)
	s := New(":0", d, zap.NewNop().Sugar())
	rec := httptest.NewRecorder()

	req := httptest.NewRequest(http.MethodPost, "/command", bytes.NewReader([]byte("not json")))
	s.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}
