package rag

import (
	"errors"

	"askpdf/internal/parser"
)

var (
	// ErrMalformedDocument means the upload could not be parsed.
	ErrMalformedDocument = parser.ErrMalformedDocument
	// ErrMissingCredential halts a question before any remote call is made.
	ErrMissingCredential = errors.New("missing credential")
	// ErrRemoteService wraps every embedding or generation failure.
	ErrRemoteService = errors.New("remote service failure")
	// ErrEmptyDocument means the document has no extractable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")
	// ErrNoDocument means a question was asked before any document was loaded.
	ErrNoDocument = errors.New("no document loaded")
)

// IsWarning reports whether err should be shown as a warning rather than an error.
func IsWarning(err error) bool {
	return errors.Is(err, ErrMissingCredential) || errors.Is(err, ErrNoDocument)
}
