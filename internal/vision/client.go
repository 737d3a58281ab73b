package vision

import (
	"bytes"
	"context"
	"encoding/base64"
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

// the description feeds a song search, so the prompt steers the model away
// from technical language; quotes and apostrophes are banned because they
// break escaping in downstream payloads
const describePrompt = "Describe this image in detail, focusing on the main elements, mood, and any notable features. The description should be a paragraph and not bullet points. Also, the idea is that, whatever description you generate will be used to find a matching song, so make the description not too technical and efficient for the use case. DO NOT USE QUOTATION MARKS OR APOSTROPHE IN THE OUTPUT!"

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     *logrus.Logger
	cfg        *config.VisionConfig
	rawBodyLog bool
}

func NewClient(cfg *config.Config, logger *logrus.Logger) (*Client, error) {
	if cfg.Vision.Token == "" {
		return nil, fmt.Errorf("VISION_TOKEN is required")
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.Vision.URL, "/"),
		token:   cfg.Vision.Token,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.App.HttpTimeoutSeconds) * time.Second,
		},
		logger:     logger,
		cfg:        &cfg.Vision,
		rawBodyLog: cfg.App.RawBodyLog,
	}, nil
}

// Describe captions the image. The payload always travels as a JPEG data
// URL regardless of the actual encoding, which the providers accept.
func (c *Client) Describe(ctx context.Context, image []byte) (string, error) {
	if len(image) == 0 {
		return "", &DescriptionError{Message: "empty image payload"}
	}

	log := utils.LogEntry(ctx, c.logger)

	encoded := base64.StdEncoding.EncodeToString(image)

	reqBody := ChatRequest{
		Model: c.cfg.Model,
		Messages: []ChatMessage{
			{
				Role: "user",
				Content: []ContentPart{
					{Type: "text", Text: describePrompt},
					{Type: "image_url", ImageURL: &ImageRef{
						URL: fmt.Sprintf("data:image/jpeg;base64,%s", encoded),
					}},
				},
			},
		},
		MaxTokens: c.cfg.MaxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	log.WithFields(logrus.Fields{
		"model":       c.cfg.Model,
		"image_bytes": len(image),
	}).Debug("requesting image description")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	c.setAuthHeaders(req)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", &DescriptionError{Message: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if c.rawBodyLog {
		if _, err := httputils.LogResponseBody(resp, log); err != nil {
			return "", fmt.Errorf("failed to read response body: %w", err)
		}
	}

	if resp.StatusCode != http.StatusOK {
		return "", c.handleAPIError(resp)
	}

	var chatResp ChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", &DescriptionError{Message: "failed to decode response", Err: err}
	}

	log.WithFields(logrus.Fields{
		"prompt_tokens":     chatResp.Usage.PromptTokens,
		"completion_tokens": chatResp.Usage.CompletionTokens,
		"total_tokens":      chatResp.Usage.TotalTokens,
	}).Debug("caption usage")

	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", &DescriptionError{Message: "empty caption in response"}
	}

	description := utils.CleanCodeBlock(strings.TrimSpace(chatResp.Choices[0].Message.Content))
	if description == "" {
		return "", &DescriptionError{Message: "empty caption in response"}
	}

	log.WithField("words", utils.CountWords(description)).Debugf("caption: %s", utils.Truncate(description, 200))

	return description, nil
}

func (c *Client) setAuthHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
}

func (c *Client) handleAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	return &DescriptionError{
		StatusCode: resp.StatusCode,
		Message:    http.StatusText(resp.StatusCode),
		Body:       string(body),
	}
}
