package index

import (
	"bytes"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/wgomg/kayum/internal/config"
	"github.com/wgomg/kayum/internal/utils"
	"github.com/wgomg/kayum/internal/utils/httputils"
)

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *logrus.Logger
	rawBodyLog bool
}

func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.Index.Host == "" || cfg.Index.APIKey == "" {
		return nil, fmt.Errorf("INDEX_HOST and INDEX_API_KEY are required")
	}

	return &Client{
		baseURL: normalizeHost(cfg.Index.Host),
		apiKey:  cfg.Index.APIKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.App.HttpTimeoutSeconds) * time.Second,
		},
		logger:     logger,
		rawBodyLog: cfg.App.RawBodyLog,
	}, nil
}

// Query runs a similarity search and returns at most topK complete records
// in descending score order. Records with incomplete metadata are dropped,
// not failed on, so one bad index entry cannot sink a whole query.
func (c *Client) Query(ctx context.Context, vector []float32, topK int) ([]MatchRecord, error) {
	if len(vector) == 0 {
		return nil, &QueryError{Message: "empty query vector"}
	}
	if topK < 1 {
		return nil, &QueryError{Message: fmt.Sprintf("topK must be at least 1, got %d", topK)}
	}

	log := utils.LogEntry(ctx, c.logger)

	reqBody := QueryRequest{
		Vector:          vector,
		TopK:            topK,
		IncludeMetadata: true,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	log.WithFields(logrus.Fields{
		"dimension": len(vector),
		"top_k":     topK,
	}).Debug("querying vector index")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/query", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &QueryError{Message: "request failed", Err: err}
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

	var queryResp QueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&queryResp); err != nil {
		return nil, &QueryError{Message: "failed to decode response", Err: err}
	}

	records := make([]MatchRecord, 0, len(queryResp.Matches))
	for _, match := range queryResp.Matches {
		song, okSong := metadataString(match.Metadata, "song")
		artist, okArtist := metadataString(match.Metadata, "artist")
		link, okLink := metadataString(match.Metadata, "link")

		if !okSong || !okArtist || !okLink {
			log.WithField("match_id", match.ID).Warn("dropping match with incomplete metadata")
			continue
		}

		records = append(records, MatchRecord{
			Score:  match.Score,
			Song:   song,
			Artist: artist,
			Link:   link,
		})
	}

	// callers rely on descending score order regardless of how the server
	// ranked or the filter reshuffled the list
	slices.SortStableFunc(records, func(a, b MatchRecord) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if len(records) > topK {
		records = records[:topK]
	}

	log.WithFields(logrus.Fields{
		"returned": len(queryResp.Matches),
		"matches":  len(records),
	}).Debug("index query completed")

	return records, nil
}

func metadataString(metadata map[string]any, key string) (string, bool) {
	value, ok := metadata[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

// normalizeHost accepts a bare index host or a full URL; bare hosts get the
// https scheme the managed service always uses.
func normalizeHost(host string) string {
	host = strings.TrimSuffix(host, "/")
	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		return "https://" + host
	}
	return host
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Api-Key", c.apiKey)
}

func (c *Client) handleAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &QueryError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Body:       string(body),
	}
}
