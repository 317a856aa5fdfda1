package service

import "errors"

// Sentinel errors shared across services. Handlers map these onto
// HTTP statuses and error kinds.
var (
	ErrEmptyMessage      = errors.New("message is empty")
	ErrNoDocuments       = errors.New("no documents uploaded")
	ErrDocumentNotFound  = errors.New("document not found")
	ErrDuplicateDocument = errors.New("document with identical content already uploaded")
	ErrFileTooLarge      = errors.New("file exceeds the size limit")
	ErrTooManyDocuments  = errors.New("document limit reached")
	ErrNotConnected      = errors.New("no active database connection")
	ErrOnlySelectAllowed = errors.New("only SELECT statements are allowed")
	ErrNoSQLExtracted    = errors.New("model response contains no SQL statement")
	ErrUnsupportedDriver = errors.New("unsupported database driver")
)
