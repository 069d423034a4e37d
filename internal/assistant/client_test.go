package assistant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/site-studio/engine/internal/dsl"
	appErr "github.com/site-studio/engine/pkg/errors"
	"github.com/stretchr/testify/require"
)

func reply(content string) map[string]any {
	return map[string]any{
		"choices": []any{map[string]any{"message": map[string]any{"content": content}}},
		"usage":   map[string]any{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	}
}

func TestProposeParsesFencedReply(t *testing.T) {
	var got chatRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_ = json.NewEncoder(w).Encode(reply("Here you go:\n```json\n{\"changeSummary\":\" Tightened hero \",\"operations\":[{\"op\":\"updateProps\",\"targetBlockId\":\"hero\",\"payload\":{\"title\":\"Hi\"}},{\"op\":\"dance\"}]}\n```"))
	}))
	defer srv.Close()

	c := NewHTTPClient(Config{URL: srv.URL, APIKey: "key", Model: "m1", Provider: "test"})
	p, err := c.Propose(context.Background(), Request{Mode: "chat", Prompt: "shorter", Document: dsl.StarterDocument("A", "a", "")})
	require.NoError(t, err)

	require.Equal(t, "Tightened hero", p.ChangeSummary)
	require.Len(t, p.Operations, 1)
	require.Equal(t, dsl.OpUpdateProps, p.Operations[0].Op)
	require.Equal(t, Usage{Prompt: 10, Completion: 5, Total: 15}, p.Usage)
	require.Equal(t, "m1", p.Model)
	require.Equal(t, 0.2, got.Temperature)
	require.Len(t, got.Messages, 2)
	require.Contains(t, got.Messages[1].Content, `"prompt": "shorter"`)
}

func TestProposeDefaultsSummary(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(reply(`noise {"operations":[]} trailing`))
	}))
	defer srv.Close()

	p, err := NewHTTPClient(Config{URL: srv.URL, APIKey: "k"}).Propose(context.Background(), Request{})
	require.NoError(t, err)
	require.Equal(t, DefaultSummary, p.ChangeSummary)
	require.Empty(t, p.Operations)
}

func TestProposeUnconfigured(t *testing.T) {
	_, err := NewHTTPClient(Config{}).Propose(context.Background(), Request{})
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}

func TestProposeNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewHTTPClient(Config{URL: srv.URL, APIKey: "k"}).Propose(context.Background(), Request{})
	require.True(t, appErr.IsCode(err, appErr.CodeUnavailable))
}

func TestProposeTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := NewHTTPClient(Config{URL: srv.URL, APIKey: "k", Timeout: 20 * time.Millisecond}).Propose(context.Background(), Request{})
	require.Error(t, err)
}

func TestProposeUnparseable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(reply("I cannot help with that"))
	}))
	defer srv.Close()

	_, err := NewHTTPClient(Config{URL: srv.URL, APIKey: "k"}).Propose(context.Background(), Request{})
	require.True(t, appErr.IsCode(err, appErr.CodeInvalid))
}
