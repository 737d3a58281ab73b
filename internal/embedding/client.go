package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wgomg/kayum/internal/config"
	"github.com/wgomg/kayum/internal/utils"
	"github.com/wgomg/kayum/internal/utils/httputils"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
	cfg        *config.EmbeddingConfig
	rawBodyLog bool
}

func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.Embedding.Host == "" {
		return nil, fmt.Errorf("EMBEDDING_HOST is required")
	}

	return &Client{
		baseURL: normalizeHost(cfg.Embedding.Host),
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.App.HttpTimeoutSeconds) * time.Second,
		},
		logger:     logger,
		cfg:        &cfg.Embedding,
		rawBodyLog: cfg.App.RawBodyLog,
	}, nil
}

// Embed turns text into a vector. The vector dimension is whatever the
// model returns; nothing downstream assumes a fixed size.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &EmbeddingError{Message: "empty input text"}
	}

	log := utils.LogEntry(ctx, c.logger)

	reqBody := EmbedRequest{
		Model:  c.cfg.Model,
		Prompt: text,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	log.WithFields(logrus.Fields{
		"model": c.cfg.Model,
		"words": utils.CountWords(text),
	}).Debug("requesting embedding")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/embeddings", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &EmbeddingError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if c.rawBodyLog {
		if _, err := httputils.LogResponseBody(resp, log); err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.handleAPIError(resp)
	}

	var embedResp EmbedResponse
	if err := json.NewDecoder(resp.Body).Decode(&embedResp); err != nil {
		return nil, &EmbeddingError{Message: "failed to decode response", Err: err}
	}

	if len(embedResp.Embedding) == 0 {
		return nil, &EmbeddingError{Message: "missing embedding in response"}
	}

	log.WithField("dimension", len(embedResp.Embedding)).Debug("embedding received")

	return embedResp.Embedding, nil
}

// normalizeHost accepts a bare host or a full URL; bare hosts get the http
// scheme, matching how the embedding service is usually exposed.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		return "http://" + host
	}
	return host
}

func (c *Client) handleAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &EmbeddingError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Body:       string(body),
	}
}
