package vision

import "fmt"

// DescriptionError reports a failed captioning call: transport errors,
// non-2xx statuses and malformed or empty completions all land here.
type DescriptionError struct {
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *DescriptionError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("description request failed: API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("description request failed: %s", e.Message)
}

func (e *DescriptionError) Unwrap() error {
	return e.Err
}

type ChatRequest struct {
	Model     string        `json:"model"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type ChatMessage struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

type ImageRef struct {
	URL string `json:"url"`
}

type ChatResponse struct {
	ID      string   `json:"id"`
	Choices []Choice `json:"choices"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Object  string   `json:"object"`
	Usage   Usage    `json:"usage"`
}

type Choice struct {
	FinishReason string  `json:"finish_reason"`
	Index        int     `json:"index"`
	Message      Message `json:"message"`
}

type Message struct {
	Content string `json:"content"`
	Role    string `json:"role"`
}

type Usage struct {
	CompletionTokens int `json:"completion_tokens"`
	PromptTokens     int `json:"prompt_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
