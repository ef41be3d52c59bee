package rope

import "errors"

// Errors returned by rope operations.
var (
	// ErrInvalidUTF8 indicates input text is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("text is not valid UTF-8")

	// ErrInvalidBoundary indicates an offset falls inside a multi-byte
	// UTF-8 codepoint.
	ErrInvalidBoundary = errors.New("offset is not on a UTF-8 boundary")

	// ErrOffsetOutOfRange indicates an offset is outside the valid document range.
	ErrOffsetOutOfRange = errors.New("offset out of range")

	// ErrInvalidRange indicates an invalid range (e.g., end < start).
	ErrInvalidRange = errors.New("invalid range")

	// ErrLineOutOfRange indicates a line index exceeds the document.
	ErrLineOutOfRange = errors.New("line out of range")
)
