package evaluator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/clearrule/policy-control-plane/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *HTTPClient {
	logger, _ := zap.NewDevelopment()
	return NewHTTPClient(config.EvaluatorConfig{
		BaseURL: baseURL,
		APIKey:  "test-key",
		Timeout: 2 * time.Second,
		Locale:  "en",
	}, logger)
}

func TestHTTPClient_Evaluate(t *testing.T) {
	t.Run("successful evaluation", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/evaluate", r.URL.Path)
			assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

			var req Request
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "deny when amount > 1000", req.Source)
			assert.Equal(t, "en", req.Locale)

			_ = json.NewEncoder(w).Encode(Result{
				Output:          json.RawMessage(`{"decision":"deny"}`),
				ExecutionTimeMs: 12,
			})
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		result, err := client.Evaluate(context.Background(), &Request{
			Source: "deny when amount > 1000",
			Input:  json.RawMessage(`{"amount":1500}`),
		})

		require.NoError(t, err)
		assert.False(t, result.Failed())
		assert.JSONEq(t, `{"decision":"deny"}`, string(result.Output))
	})

	t.Run("domain failure travels inside the result", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(Result{ErrorMessage: "unknown function: creditScore"})
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		result, err := client.Evaluate(context.Background(), &Request{Source: "x"})

		require.NoError(t, err)
		assert.True(t, result.Failed())
		assert.Equal(t, "unknown function: creditScore", result.ErrorMessage)
	})

	t.Run("non-200 is a transport error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		_, err := client.Evaluate(context.Background(), &Request{Source: "x"})

		assert.ErrorContains(t, err, "502")
	})

	t.Run("malformed response body", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		_, err := client.Evaluate(context.Background(), &Request{Source: "x"})

		assert.Error(t, err)
	})

	t.Run("cancelled context tears the request down", func(t *testing.T) {
		started := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			close(started)
			<-r.Context().Done()
		}))
		defer srv.Close()

		client := newTestClient(srv.URL)
		ctx, cancel := context.WithCancel(context.Background())
		go func() {
			<-started
			cancel()
		}()

		_, err := client.Evaluate(ctx, &Request{Source: "x"})

		assert.Error(t, err)
	})

	t.Run("unreachable evaluator", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")

		_, err := client.Evaluate(context.Background(), &Request{Source: "x"})

		assert.Error(t, err)
	})
}
