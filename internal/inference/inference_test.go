package inference

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"welcome-api/internal/parser"
)

func TestBuildPrompt(t *testing.T) {
	full := BuildPrompt(Query{IP: "203.0.113.5"})
	assert.Contains(t, full, "203.0.113.5")
	assert.Contains(t, full, `"country_code"`)
	assert.Contains(t, full, `"language"`)
	assert.Contains(t, full, `"message"`)

	known := BuildPrompt(Query{IP: "203.0.113.5", Country: "JP"})
	assert.Contains(t, known, "JP")
	assert.NotContains(t, known, "203.0.113.5")
	assert.NotContains(t, known, `"country_code"`)
}

func TestHostedSendsChatPayload(t *testing.T) {
	var got chatRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("authorization")
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"Sure! {\"country_code\":\"JP\",\"language\":\"ja\",\"message\":\"ようこそ。\"}"}}]}`))
	}))
	defer srv.Close()

	h := NewHosted(srv.URL, "k-123", "test-model", time.Second)
	out, err := h.Infer(context.Background(), Query{IP: "203.0.113.5"})
	require.NoError(t, err)

	assert.Equal(t, "Bearer k-123", auth)
	assert.Equal(t, "test-model", got.Model)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, "user", got.Messages[0].Role)
	assert.Contains(t, got.Messages[0].Content, "203.0.113.5")

	loc, err := parser.Parse(out, true)
	require.NoError(t, err)
	assert.Equal(t, "ようこそ。", loc.Message)
}

func TestHostedMissingKeyMakesNoCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	h := NewHosted(srv.URL, "", "m", time.Second)
	assert.False(t, h.Configured())
	_, err := h.Infer(context.Background(), Query{IP: "1.2.3.4"})
	assert.ErrorIs(t, err, ErrConfigMissing)
	assert.Equal(t, int32(0), calls.Load())
}

func TestHostedFailures(t *testing.T) {
	cases := map[string]http.HandlerFunc{
		"status": func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":"rate limited"}`))
		},
		"decode": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`<html>`))
		},
		"empty": func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices":[]}`))
		},
	}
	for name, hf := range cases {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(hf)
			defer srv.Close()

			_, err := NewHosted(srv.URL, "k", "m", time.Second).Infer(context.Background(), Query{IP: "1.2.3.4"})
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestHostedNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHosted(url, "k", "m", time.Second).Infer(context.Background(), Query{IP: "1.2.3.4"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestHostedTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHosted(srv.URL, "k", "m", 30*time.Millisecond).Infer(context.Background(), Query{IP: "1.2.3.4"})
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestStatic(t *testing.T) {
	s := NewStatic(nil)

	out, err := s.Infer(context.Background(), Query{Country: "fr"})
	require.NoError(t, err)
	loc, err := parser.Parse(out, true)
	require.NoError(t, err)
	assert.Equal(t, parser.Locale{CountryCode: "FR", Language: "fr", Message: "Bienvenue"}, loc)

	out, err = s.Infer(context.Background(), Query{Country: "IN"})
	require.NoError(t, err)
	loc, err = parser.Parse(out, true)
	require.NoError(t, err)
	assert.Equal(t, "स्वागत है", loc.Message)

	out, err = s.Infer(context.Background(), Query{IP: "203.0.113.5"})
	require.NoError(t, err)
	loc, err = parser.Parse(out, true)
	require.NoError(t, err)
	assert.Equal(t, parser.Locale{CountryCode: UnknownRegion, Language: "en", Message: "Welcome"}, loc)

	out, err = s.Infer(context.Background(), Query{Country: "IT"})
	require.NoError(t, err)
	loc, err = parser.Parse(out, true)
	require.NoError(t, err)
	assert.Equal(t, parser.Locale{CountryCode: "IT", Language: "en", Message: "Welcome"}, loc)
}

func TestStaticWithoutDefault(t *testing.T) {
	s := NewStaticWithDefault(nil, nil)

	_, err := s.Infer(context.Background(), Query{IP: "203.0.113.5"})
	assert.ErrorIs(t, err, ErrUnavailable)

	out, err := s.Infer(context.Background(), Query{Country: "DE"})
	require.NoError(t, err)
	assert.Contains(t, out, "Willkommen")
}
