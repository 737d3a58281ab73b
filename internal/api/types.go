package api

// MatchRequest is the JSON body of POST /match. Exactly one of ImageURL,
// ImagePath and BucketObject must be set; TopK is optional and overrides
// the configured match count.
type MatchRequest struct {
	ImageURL     string `json:"image_url,omitempty"`
	ImagePath    string `json:"image_path,omitempty"`
	BucketObject string `json:"bucket_object,omitempty"`
	TopK         int    `json:"top_k,omitempty"`
}

// BatchRequest is the JSON body of POST /match/batch. Each source carries
// its own one-of origin; TopK applies to the whole batch.
type BatchRequest struct {
	Sources []MatchRequest `json:"sources"`
	TopK    int            `json:"top_k,omitempty"`
}

type MatchResponse struct {
	Description string      `json:"description"`
	Matches     []MatchItem `json:"matches"`
}

type MatchItem struct {
	Score      float64 `json:"score"`
	Song       string  `json:"song"`
	Artist     string  `json:"artist"`
	Link       string  `json:"link"`
	SearchHint string  `json:"search_hint"`
}

// BatchItemResponse is the per-source outcome of a batch. Result is set on
// success, Error on failure, never both.
type BatchItemResponse struct {
	Source string         `json:"source"`
	Result *MatchResponse `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}
