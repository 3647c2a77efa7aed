// Package apperr defines sentinel errors shared across inkwell packages.
package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrUpstream        = errors.New("upstream request failed")
	ErrIndexOutOfRange = errors.New("record index out of range")
	ErrMissingProperty = errors.New("missing record property")
	ErrMissingSubtitle = errors.New("no content to use as subtitle")
	ErrTooFewKeywords  = errors.New("article needs at least 3 keywords")
)
