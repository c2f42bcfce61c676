// Package embedding implements the Embedder contract the vector index
// depends on, as a thin HTTP client over an external embedding model, the
// same shape as pkg/llmclient's chat backend.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/codeready-toolchain/alimtalk/pkg/pipelineerrors"
)

// HTTPEmbedder posts {model, input} as JSON to a configured embedding
// endpoint and reads back {"embedding": [...]}, implementing
// retrieval.Embedder without importing it (avoids a dependency cycle; the
// interface is structural).
type HTTPEmbedder struct {
	Endpoint string
	APIKey   string
	Model    string
	Timeout  time.Duration
	HTTP     *http.Client
}

// New constructs an HTTPEmbedder with a bounded default HTTP client and
// a 10s per-call timeout.
func New(endpoint, apiKey, model string) *HTTPEmbedder {
	return &HTTPEmbedder{Endpoint: endpoint, APIKey: apiKey, Model: model, Timeout: 10 * time.Second, HTTP: &http.Client{}}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Embed implements retrieval.Embedder.
func (e *HTTPEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.Timeout)
		defer cancel()
	}

	body, err := json.Marshal(embedRequest{Model: e.Model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("%w: encode embed request: %v", pipelineerrors.ErrInternal, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: build embed request: %v", pipelineerrors.ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if e.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.APIKey)
	}

	resp, err := e.HTTP.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", pipelineerrors.ErrUpstreamTimeout, err)
		}
		return nil, fmt.Errorf("%w: %v", pipelineerrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", pipelineerrors.ErrUpstreamUnavailable, resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read embed response: %v", pipelineerrors.ErrUpstreamUnavailable, err)
	}

	var parsed embedResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: %v", pipelineerrors.ErrParse, err)
	}
	return parsed.Embedding, nil
}
