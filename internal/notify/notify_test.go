package notify

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingNotifier struct {
	sent []string
	errs []error
}

func (n *recordingNotifier) Send(_ context.Context, text string) error {
	n.sent = append(n.sent, text)
	if len(n.errs) > 0 {
		err := n.errs[0]
		n.errs = n.errs[1:]
		return err
	}
	return nil
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		maxLen int
		want   []string
	}{
		{name: "fits", text: "short", maxLen: 10, want: []string{"short"}},
		{name: "exact boundary", text: "abcde", maxLen: 5, want: []string{"abcde"}},
		{name: "two parts", text: "abcdef", maxLen: 5, want: []string{"abcde", "f"}},
		{name: "three parts", text: "aaaaabbbbbcc", maxLen: 5, want: []string{"aaaaa", "bbbbb", "cc"}},
		{name: "empty", text: "", maxLen: 5, want: []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunks(tt.text, tt.maxLen))
		})
	}
}

func TestChunkedSingleMessageHasNoSuffix(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewChunked(rec, 100)

	require.NoError(t, c.Send(context.Background(), "hello"))
	require.Equal(t, []string{"hello"}, rec.sent)
}

func TestChunkedAddsPartSuffix(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewChunked(rec, 5)

	require.NoError(t, c.Send(context.Background(), "abcdefgh"))
	require.Equal(t, []string{
		"abcde (parte 1/2)",
		"fgh (parte 2/2)",
	}, rec.sent)
}

func TestChunkedContinuesPastErrors(t *testing.T) {
	boom := errors.New("boom")
	rec := &recordingNotifier{errs: []error{boom}}
	c := NewChunked(rec, 5)

	err := c.Send(context.Background(), "abcdefgh")
	assert.ErrorIs(t, err, boom)
	// The failing first part did not stop the second.
	assert.Len(t, rec.sent, 2)
}

func TestChunkedDefaultLength(t *testing.T) {
	rec := &recordingNotifier{}
	c := NewChunked(rec, 0)

	long := strings.Repeat("x", 3501)
	require.NoError(t, c.Send(context.Background(), long))
	assert.Len(t, rec.sent, 2)
}

func TestWebhookPayload(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	require.NoError(t, w.Send(context.Background(), "alerta"))

	assert.Equal(t, map[string]string{
		"text":    "alerta",
		"message": "alerta",
		"content": "alerta",
	}, got)
}

func TestWebhookNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	w := NewWebhook(srv.URL)
	err := w.Send(context.Background(), "alerta")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
