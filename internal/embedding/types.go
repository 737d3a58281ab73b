package embedding

import "fmt"

// EmbeddingError reports a failed embedding call, including responses that
// come back without a usable vector.
type EmbeddingError struct {
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *EmbeddingError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding request failed: API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("embedding request failed: %s", e.Message)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}

type EmbedRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type EmbedResponse struct {
	Embedding []float32 `json:"embedding"`
}
