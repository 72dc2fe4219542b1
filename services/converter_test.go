package services

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlaceholderConverter(t *testing.T) {
	c := NewPlaceholderConverter(nil)

	got, err := c.Convert(context.Background(), ResolvedSong{VideoID: "51756565656e"}, "Bohemian Rhapsody", "Queen")
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.Equal(t, `This is a mock audio file for "Bohemian Rhapsody" by Queen. (Video ID: 51756565656e)`, string(decoded))
}

func TestStreamConverterConcatenatesChunks(t *testing.T) {
	payload := strings.Repeat("riff", 40*1024) // spans several read chunks
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/webm")
		_, _ = w.Write([]byte(payload))
	}))
	defer server.Close()

	c := NewStreamConverter(server.Client(), 0, nil)
	got, err := c.Convert(context.Background(), ResolvedSong{VideoID: "abc", StreamURL: server.URL}, "t", "a")
	require.NoError(t, err)

	decoded, err := base64.StdEncoding.DecodeString(got)
	require.NoError(t, err)
	assert.Equal(t, payload, string(decoded))
}

func TestStreamConverterFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/truncated":
			// promise more bytes than are sent
			w.Header().Set("Content-Length", "1000")
			_, _ = w.Write([]byte("short"))
		default:
			_, _ = w.Write([]byte(strings.Repeat("x", 2048)))
		}
	}))
	defer server.Close()

	tests := []struct {
		name     string
		url      string
		maxBytes int64
	}{
		{name: "no stream url", url: ""},
		{name: "http error", url: server.URL + "/missing"},
		{name: "truncated body", url: server.URL + "/truncated"},
		{name: "too large", url: server.URL + "/big", maxBytes: 1024},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := NewStreamConverter(server.Client(), tt.maxBytes, nil)
			got, err := c.Convert(context.Background(), ResolvedSong{VideoID: "abc", StreamURL: tt.url}, "t", "a")
			assert.Error(t, err)
			assert.Empty(t, got)
		})
	}
}
