// Package extract turns uploaded documents into plain text for the
// evaluation pipeline.
package extract

import "errors"

// ErrNoText marks a source document with no extractable text. Jobs fail
// outright on it: there is nothing to evaluate.
var ErrNoText = errors.New("document contains no readable text")

// Extractor converts a document on disk into plain text.
type Extractor interface {
	Extract(path string) (string, error)
}
