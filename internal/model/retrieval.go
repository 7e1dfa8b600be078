package model

// Chunk is a bounded span of document text, the unit of embedding and
// retrieval. Page is 1-based; 0 means the source page is unknown.
type Chunk struct {
	Text string `json:"text"`
	Page int    `json:"page"`
}

// Hit is a single retrieval result. Score is a cosine distance: lower
// means more similar.
type Hit struct {
	Snippet    string  `json:"snippet"`
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page,omitempty"`
	Score      float64 `json:"score"`
}

// IngestResult summarizes one file's ingestion. DocumentsIndexed counts the
// pages extracted from the file, zero when the upload was skipped.
type IngestResult struct {
	DocumentID       string `json:"document_id"`
	Skipped          bool   `json:"skipped"`
	DocumentsIndexed int    `json:"documents_indexed"`
	TotalChunks      int    `json:"total_chunks"`
}
