package entity

// GraphResult is the JSON document returned by the graph database, untouched.
type GraphResult map[string]any

// SampleSource is the stored body of a search record.
type SampleSource struct {
	Text    string    `json:"text"`
	Answer  string    `json:"answer"`
	Profile string    `json:"profile"`
	Vector  []float64 `json:"vector_field,omitempty"`
}

// SearchMatch is one ranked hit from the vector index.
type SearchMatch struct {
	ID     string       `json:"id"`
	Score  float64      `json:"score"`
	Source SampleSource `json:"source"`
}

// SearchRequest scopes a k-NN lookup to one profile of one index.
type SearchRequest struct {
	Profile string
	TopK    int
	Index   string
	Vector  []float64
}

// Sample is a record to be written to the vector index.
type Sample struct {
	ID      string
	Index   string
	Profile string
	Text    string
	Answer  string
	Vector  []float64
}

// BulkResult counts the outcome of a bulk insert.
type BulkResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}
