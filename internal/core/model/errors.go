package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrStorageUnavailable is returned when the append log cannot be opened or created.
	ErrStorageUnavailable = errors.New("storage unavailable")
	// ErrSchemaMismatch is returned when a sample does not carry exactly the declared columns.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrLoadParse marks a malformed row or cell met while loading the append log.
	ErrLoadParse = errors.New("load parse error")
	// ErrSideArtifact marks a failed per-cycle capture.
	ErrSideArtifact = errors.New("side artifact failure")
	// ErrSourceUnavailable is returned when a sample source cannot be opened or connected.
	ErrSourceUnavailable = errors.New("source unavailable")
)

// SchemaMismatchError describes which columns a sample was missing or carried in excess.
type SchemaMismatchError struct {
	Missing     []string
	Unexpected  []string
	NoTimestamp bool
}

func (e *SchemaMismatchError) Error() string {
	parts := make([]string, 0, 3)
	if e.NoTimestamp {
		parts = append(parts, "missing timestamp")
	}
	if len(e.Missing) > 0 {
		parts = append(parts, fmt.Sprintf("missing columns [%s]", strings.Join(e.Missing, ", ")))
	}
	if len(e.Unexpected) > 0 {
		parts = append(parts, fmt.Sprintf("unexpected columns [%s]", strings.Join(e.Unexpected, ", ")))
	}
	return fmt.Sprintf("%s: %s", ErrSchemaMismatch, strings.Join(parts, "; "))
}

// Is lets errors.Is match ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == ErrSchemaMismatch
}
