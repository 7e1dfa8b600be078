package errors

import "errors"

var (
	ErrNotFound = errors.New("not found")
	ErrInvalid  = errors.New("invalid")
	ErrConflict = errors.New("conflict")
	ErrTooMany  = errors.New("too many requests")
	ErrInternal = errors.New("internal")

	// Ingestion and retrieval taxonomy.
	ErrIngestion     = errors.New("document content unparseable")
	ErrEmbedding     = errors.New("embedding provider failed")
	ErrIndexLoad     = errors.New("index load failed")
	ErrConfiguration = errors.New("storage root inaccessible")
)

// Is re-exports errors.Is so callers using this package do not need to
// import both.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsIngestion(err error) bool {
	return errors.Is(err, ErrIngestion)
}

func IsEmbedding(err error) bool {
	return errors.Is(err, ErrEmbedding)
}
