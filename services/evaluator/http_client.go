package evaluator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/clearrule/policy-control-plane/config"
	"go.uber.org/zap"
)

const defaultTimeout = 30 * time.Second

// HTTPClient implements the Evaluator interface against the evaluation
// service's HTTP API
type HTTPClient struct {
	cfg        config.EvaluatorConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates a new HTTP evaluator client
func NewHTTPClient(cfg config.EvaluatorConfig, logger *zap.Logger) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}

	return &HTTPClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		logger: logger,
	}
}

// Evaluate posts the source and input to the evaluation service. The
// caller's context carries cancellation: an abandoned optimistic dispatch
// tears the request down here.
func (c *HTTPClient) Evaluate(ctx context.Context, req *Request) (*Result, error) {
	if req.Locale == "" {
		req.Locale = c.cfg.Locale
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal evaluation request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/evaluate", bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create evaluation request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, fmt.Errorf("evaluation timed out after %s: %w", c.cfg.Timeout, err)
		}
		return nil, fmt.Errorf("evaluation request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read evaluation response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("evaluator returned non-200",
			zap.Int("status", resp.StatusCode))
		return nil, fmt.Errorf("evaluator returned status %d", resp.StatusCode)
	}

	result := &Result{}
	if err := json.Unmarshal(body, result); err != nil {
		return nil, fmt.Errorf("failed to decode evaluation response: %w", err)
	}

	return result, nil
}

// isTimeout reports whether an error is a network timeout
func isTimeout(err error) bool {
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
