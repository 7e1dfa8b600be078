package model

type Citation struct {
	DocumentID string  `json:"document_id"`
	Page       int     `json:"page,omitempty"`
	Score      float64 `json:"score"`
	Snippet    string  `json:"snippet"`
}

// Answer is the result of RAG answer synthesis. Fallback is set when the
// model reply could not be parsed as the requested JSON shape and the raw
// text is returned as the answer instead.
type Answer struct {
	Answer     string     `json:"answer"`
	References string     `json:"references"`
	Citations  []Citation `json:"citations"`
	Fallback   bool       `json:"fallback,omitempty"`
}
