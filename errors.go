package finrep

import "errors"

var (
	// ErrUnsupportedFormat is returned for unrecognized input file formats.
	ErrUnsupportedFormat = errors.New("finrep: unsupported input format")

	// ErrParsingFailed is returned when the page-layout collaborator fails.
	ErrParsingFailed = errors.New("finrep: parsing failed")

	// ErrLLMRequestFailed is returned when an LLM request fails after retries.
	ErrLLMRequestFailed = errors.New("finrep: LLM request failed")

	// ErrNoClient is returned when an operation needs an LLM client and
	// none was configured.
	ErrNoClient = errors.New("finrep: no LLM client configured")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("finrep: invalid configuration")
)
