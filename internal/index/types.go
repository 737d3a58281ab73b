package index

import "fmt"

// QueryError reports a failed similarity query against the vector index.
type QueryError struct {
	StatusCode int
	Message    string
	Body       string
	Err        error
}

func (e *QueryError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("index query failed: API error %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("index query failed: %s", e.Message)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

type QueryRequest struct {
	Vector          []float32 `json:"vector"`
	TopK            int       `json:"topK"`
	IncludeMetadata bool      `json:"includeMetadata"`
}

type QueryResponse struct {
	Matches []QueryMatch `json:"matches"`
}

// QueryMatch is the raw index record. Metadata stays loosely typed here;
// records are validated and mapped to MatchRecord at the client boundary.
type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata map[string]any `json:"metadata"`
}

// MatchRecord is one scored song. Song, artist and link are always present;
// index records missing any of them never make it out of the client.
type MatchRecord struct {
	Score  float64 `json:"score"`
	Song   string  `json:"song"`
	Artist string  `json:"artist"`
	Link   string  `json:"link"`
}

// SearchHint is a ready-made web search phrase for the match.
func (m MatchRecord) SearchHint() string {
	return m.Song + " by " + m.Artist
}
