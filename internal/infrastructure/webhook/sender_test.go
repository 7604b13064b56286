package webhook_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/thumbgen/thumbnail-pipeline/internal/infrastructure/webhook"
)

func TestSend_PostsJSONBody(t *testing.T) {
	var (
		gotMethod      string
		gotContentType string
		gotBody        []byte
	)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotContentType = r.Header.Get("Content-Type")
		gotBody, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	s := webhook.New(5 * time.Second)

	err := s.Send(context.Background(), srv.URL, []byte(`{"id":"img-1"}`))
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "application/json", gotContentType)
	assert.JSONEq(t, `{"id":"img-1"}`, string(gotBody))
}

func TestSend_Non2xxIsAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := webhook.New(5 * time.Second)

	err := s.Send(context.Background(), srv.URL, []byte(`{}`))
	require.Error(t, err)
}

func TestSend_UnreachableEndpoint(t *testing.T) {
	s := webhook.New(time.Second)

	err := s.Send(context.Background(), "http://127.0.0.1:1/hook", []byte(`{}`))
	require.Error(t, err)
}
