package anonymizer

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/kaaboura12/backend-hackathon-sos-V0.1/pkg/errors"
)

func TestClientAnonymize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/anonymize", r.URL.Path)

		file, header, err := r.FormFile("audio")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "voice.wav", header.Filename)

		raw, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, []byte("raw-voice"), raw)

		w.Write([]byte("altered-voice"))
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	out, err := client.Anonymize(context.Background(), "voice.wav", []byte("raw-voice"))
	require.NoError(t, err)
	assert.Equal(t, []byte("altered-voice"), out)
}

func TestClientAnonymizeUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not loaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	_, err := client.Anonymize(context.Background(), "voice.wav", []byte("raw-voice"))

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "503")
}

func TestClientAnonymizeUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close()

	client := New(server.URL, time.Second)
	_, err := client.Anonymize(context.Background(), "voice.wav", []byte("raw-voice"))

	var appErr *appErrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, appErrors.ErrUpstream.Code, appErr.Code)
}

func TestClientHealth(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/health", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := New(server.URL, time.Second)
	require.NoError(t, client.Health(context.Background()))
}
