package writeas

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"content_publisher/internal/destination"
)

func newDestination(baseURL, token string) *Destination {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	client := destination.NewClient(destination.Config{
		Timeout:        time.Second,
		MaxAttempts:    2,
		InitialBackoff: time.Millisecond,
	}, logger)
	return New(Config{BaseURL: baseURL, Token: token}, client, logger)
}

func TestPublish_SendsMarkdown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/posts", r.URL.Path)
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req postRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Fresh Basil", req.Title)
		assert.Equal(t, "## Fresh Basil\n\nPinch the tops **weekly**. See [guide](https://example.com).\n\n- one\n- two", req.Body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"code":201,"data":{"id":"rf3t35fkax0aw","slug":null,"token":"ozPQ"}}`))
	}))
	defer srv.Close()

	url, err := newDestination(srv.URL, "secret").Publish(context.Background(), " Fresh Basil ",
		`<h2>Fresh Basil</h2><p>Pinch the tops <strong>weekly</strong>. See <a href="https://example.com">guide</a>.</p><ul><li>one</li><li>two</li></ul>`)

	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/rf3t35fkax0aw", url)
}

func TestPublish_Anonymous(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"code":201,"data":{"id":"abc"}}`))
	}))
	defer srv.Close()

	_, err := newDestination(srv.URL, "").Publish(context.Background(), "", "plain text")
	require.NoError(t, err)
}

func TestPublish_RejectedRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":400,"error_msg":"Post body is required."}`))
	}))
	defer srv.Close()

	_, err := newDestination(srv.URL, "").Publish(context.Background(), "t", "body")

	var statusErr *destination.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadRequest, statusErr.Code)
}

func TestPublish_EmptyContent(t *testing.T) {
	_, err := newDestination("http://unused.invalid", "").Publish(context.Background(), "t", "<div></div>")
	assert.ErrorIs(t, err, destination.ErrEmptyContent)
}
