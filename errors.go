package emrdash

import "errors"

var (
	// ErrUnsupportedFormat is returned for unrecognized file extensions,
	// before any extraction attempt.
	ErrUnsupportedFormat = errors.New("emrdash: unsupported file format")

	// ErrExtraction is returned when neither the native text layer nor OCR
	// recovers any content from the document.
	ErrExtraction = errors.New("emrdash: text extraction failed")

	// ErrCorrection is returned when the language model is unreachable
	// after retries, or its response is unparsable after repair.
	ErrCorrection = errors.New("emrdash: correction failed")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("emrdash: invalid configuration")
)
