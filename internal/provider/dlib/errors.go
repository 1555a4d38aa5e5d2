package dlib

import "errors"

var (
	ErrDlibUnavailable    = errors.New("dlib service unavailable")
	ErrInvalidResponse    = errors.New("invalid response from dlib service")
	ErrBadEmbeddingLength = errors.New("embedding with unexpected length in dlib response")
)
