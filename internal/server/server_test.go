// Copyright Mia srl
// SPDX-License-Identifier: AGPL-3.0-only or Commercial

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mia-platform/devlog/internal/pretty"
	"github.com/mia-platform/devlog/internal/record"
	"github.com/mia-platform/devlog/internal/sink"
	"github.com/mia-platform/devlog/internal/style"
)

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("terminal closed")
}

func newTestServer(t *testing.T, w io.Writer) *Server {
	t.Helper()

	renderer := pretty.New(style.NewRegistry(false))
	srv, err := NewServer(t.Context(), sink.New(w, renderer, pretty.Options{NoTimestamp: true}))
	require.NoError(t, err)
	return srv
}

func post(t *testing.T, srv *Server, body string) (*http.Response, map[string]any) {
	t.Helper()

	request := httptest.NewRequest(http.MethodPost, LogsPath, strings.NewReader(body))
	request.Header.Set("Content-Type", "application/json")
	response, err := srv.App().Test(request)
	require.NoError(t, err)
	t.Cleanup(func() { response.Body.Close() })

	payload := map[string]any{}
	if response.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(response.Body).Decode(&payload))
	}
	return response, payload
}

func TestHealthRoutes(t *testing.T) {
	srv := newTestServer(t, io.Discard)

	for _, path := range []string{"/-/healthz", "/-/ready"} {
		response, err := srv.App().Test(httptest.NewRequest(http.MethodGet, path, nil))
		require.NoError(t, err)
		defer response.Body.Close()
		require.Equal(t, http.StatusOK, response.StatusCode)

		status := map[string]any{}
		require.NoError(t, json.NewDecoder(response.Body).Decode(&status))
		assert.Equal(t, "OK", status["status"])
		assert.Equal(t, "devlog", status["name"])
	}
}

func TestIngest(t *testing.T) {
	t.Run("single record", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		srv := newTestServer(t, buffer)

		response, _ := post(t, srv, `{"level":"info","message":"hello","context":{"source":{"file_name":"app.js"}}}`)
		require.Equal(t, http.StatusNoContent, response.StatusCode)
		assert.Equal(t, "ℹ info app.js - hello\n", buffer.String())
	})

	t.Run("array keeps order", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		srv := newTestServer(t, buffer)

		body := `[
			{"level":"info","message":"first","context":{"source":{"file_name":"a.js"}}},
			{"level":"error","message":"second","context":{"source":{"file_name":"b.js"}},"event":{"id":18446744073709551616}}
		]`
		response, _ := post(t, srv, body)
		require.Equal(t, http.StatusNoContent, response.StatusCode)

		expected := `ℹ info a.js - first
■ error b.js - second
{
  "event": {
    "id": "18446744073709551616"
  }
}
`
		assert.Equal(t, expected, buffer.String())
	})

	t.Run("malformed body", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		srv := newTestServer(t, buffer)

		response, payload := post(t, srv, `{"level":`)
		require.Equal(t, http.StatusBadRequest, response.StatusCode)
		assert.Contains(t, payload["message"], record.ErrInvalidRecord.Error())
		assert.Empty(t, buffer.String())
	})

	t.Run("unknown level", func(t *testing.T) {
		buffer := new(bytes.Buffer)
		srv := newTestServer(t, buffer)

		response, payload := post(t, srv, `[{"level":"info","message":"ok","context":{"source":{"file_name":"a.js"}}},{"level":"loud","message":"no"}]`)
		require.Equal(t, http.StatusBadRequest, response.StatusCode)
		assert.Contains(t, payload["message"], "item 1")
		assert.Contains(t, payload["message"], style.ErrUnknownLevel.Error())
		assert.Equal(t, "ℹ info a.js - ok\n", buffer.String())
	})

	t.Run("output failure", func(t *testing.T) {
		srv := newTestServer(t, failingWriter{})

		response, payload := post(t, srv, `{"level":"info","message":"ok","context":{"source":{"file_name":"a.js"}}}`)
		require.Equal(t, http.StatusInternalServerError, response.StatusCode)
		assert.Contains(t, payload["message"], "terminal closed")
	})
}

func TestRun(t *testing.T) {
	t.Setenv("HTTP_PORT", "39517")
	srv := newTestServer(t, io.Discard)

	ctx, cancel := context.WithCancel(t.Context())
	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(ctx)
	}()

	require.Eventually(t, func() bool {
		response, err := http.Get("http://" + srv.Addr() + "/-/healthz")
		if err != nil {
			return false
		}
		defer response.Body.Close()
		return response.StatusCode == http.StatusOK
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.Fail(t, "server did not stop")
	}
}

func TestRunWithCancelledContext(t *testing.T) {
	t.Setenv("HTTP_PORT", "39519")
	srv := newTestServer(t, io.Discard)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Run(ctx)
	}()

	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		require.Fail(t, "server did not stop")
	}

	_, err := http.Get("http://" + srv.Addr() + "/-/healthz")
	assert.Error(t, err)
}

func TestRunFailsOnBusyPort(t *testing.T) {
	t.Setenv("HTTP_PORT", "39518")
	first := newTestServer(t, io.Discard)

	ctx, cancel := context.WithCancel(t.Context())
	errChan := make(chan error, 1)
	go func() {
		errChan <- first.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-errChan
	})

	require.Eventually(t, func() bool {
		response, err := http.Get("http://" + first.Addr() + "/-/healthz")
		if err != nil {
			return false
		}
		defer response.Body.Close()
		return true
	}, 5*time.Second, 50*time.Millisecond)

	second := newTestServer(t, io.Discard)
	err := second.Run(t.Context())
	require.ErrorIs(t, err, ErrServerListen)
}
