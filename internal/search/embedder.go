package search

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

const DefaultModel = "multilingual-e5-large"

var ErrEmptyEmbedding = errors.New("embedding: empty vector in response")

// EmbeddingClient talks to a Pinecone-style inference endpoint.
type EmbeddingClient struct {
	url        string
	apiKey     string
	model      string
	httpClient *http.Client
}

func NewEmbeddingClient(url, apiKey, model string) *EmbeddingClient {
	if model == "" {
		model = DefaultModel
	}
	return &EmbeddingClient{
		url:    url,
		apiKey: apiKey,
		model:  model,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

type embedRequest struct {
	Model      string            `json:"model"`
	Parameters map[string]string `json:"parameters"`
	Inputs     []embedInput      `json:"inputs"`
}

type embedInput struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Data []struct {
		Values []float32 `json:"values"`
	} `json:"data"`
}

func (c *EmbeddingClient) Embed(ctx context.Context, text string, input InputType) ([]float32, error) {
	body, err := json.Marshal(embedRequest{
		Model:      c.model,
		Parameters: map[string]string{"input_type": string(input), "truncate": "END"},
		Inputs:     []embedInput{{Text: text}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Api-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding failed with status: %d", resp.StatusCode)
	}

	var result embedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(result.Data) == 0 || len(result.Data[0].Values) == 0 {
		return nil, ErrEmptyEmbedding
	}

	return result.Data[0].Values, nil
}
