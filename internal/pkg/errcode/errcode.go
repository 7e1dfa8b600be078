package errcode

const (
	ErrUnknown = 10000000 + iota
	ErrNotFound
	ErrInvalid
	ErrConflict
	ErrTooMany
	ErrInternal
	ErrInvalidFile
	ErrIngestionFailed
	ErrEmbeddingUnavailable
	ErrIndexStorage
	ErrAIUnavailable
)
