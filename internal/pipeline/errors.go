package pipeline

import (
	"fmt"
	"strings"

	"github.com/cleared-dev/tradeimport/internal/model"
)

// UnknownFormatError is returned by Parse when detection is inconclusive. Request
// holds what a host needs to ask the user for a mapping.
type UnknownFormatError struct {
	Request *model.RequiresMappingResult
}

func (e *UnknownFormatError) Error() string {
	if len(e.Request.Candidates) == 0 {
		return "unknown format: no adapter matched"
	}
	return fmt.Sprintf("ambiguous format: matched %s", strings.Join(e.Request.Candidates, ", "))
}

// UnknownAdapterError is returned when a caller names an adapter that is not
// registered or is disabled.
type UnknownAdapterError struct {
	ID string
}

func (e *UnknownAdapterError) Error() string {
	return fmt.Sprintf("unknown adapter %q", e.ID)
}

// LocaleError is returned when a locale tag cannot be resolved.
type LocaleError struct {
	Tag string
	Err error
}

func (e *LocaleError) Error() string {
	return fmt.Sprintf("resolving locale %q: %v", e.Tag, e.Err)
}

func (e *LocaleError) Unwrap() error { return e.Err }
