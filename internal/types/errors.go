package types

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by a conversion. All are terminal for the attempt;
// callers match them with errors.Is.
var (
	// ErrUnsupportedFormat means the input matched no known extractor.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrExtractorUnavailable means a required collaborator was not configured.
	ErrExtractorUnavailable = errors.New("extractor unavailable")

	// ErrDecodeFailure means bytes could not be read as text or parsed as a document.
	ErrDecodeFailure = errors.New("decode failure")

	// ErrPackagingFailure means the archive or binary could not be assembled.
	ErrPackagingFailure = errors.New("packaging failure")

	// ErrPackagingUnavailable means no archive builder is present. It is a PackagingFailure.
	ErrPackagingUnavailable = fmt.Errorf("%w: archive builder unavailable", ErrPackagingFailure)
)
