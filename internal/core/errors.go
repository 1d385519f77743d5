package core

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoLineups is returned when the optimizer completes without producing any lineup.
	ErrNoLineups = errors.New("optimizer returned no lineups")

	// ErrUploadNotFound is returned when a ledger entry does not exist.
	ErrUploadNotFound = errors.New("upload not found")

	// ErrPlayerNotFound is returned when no player has the requested partner id.
	ErrPlayerNotFound = errors.New("player not found")

	// ErrLineupNotFound is returned when a requested lineup does not exist.
	ErrLineupNotFound = errors.New("lineup not found")

	// ErrSettingsNotFound is returned when a settings snapshot does not exist.
	ErrSettingsNotFound = errors.New("settings not found")

	// ErrUnknownSport is returned for a sport tag missing from the catalog.
	ErrUnknownSport = errors.New("unknown sport")

	// ErrOptimizerUnavailable is returned when no optimizer endpoint is configured.
	ErrOptimizerUnavailable = errors.New("optimizer not configured")

	// ErrEmptyFile is returned when an upload carries no rows at all.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge is returned when an upload exceeds MaxFileSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnreadableFile wraps decoding failures of the file container
	// (CSV syntax, workbook structure, text encoding).
	ErrUnreadableFile = errors.New("unreadable file")

	// ErrInvalidLineup is returned for an imported lineup missing its id,
	// sport or players.
	ErrInvalidLineup = errors.New("invalid lineup")

	// ErrInvalidFileType is returned for an explicit type selector that names
	// no known profile.
	ErrInvalidFileType = errors.New("invalid enum for file type")
)

// ParseError describes a single cell that could not be coerced.
// It is recorded for diagnostics; the cell is defaulted and the row kept.
type ParseError struct {
	Line   int
	Column string
	Value  string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: invalid number for %q: %q", e.Line, e.Column, e.Value)
}

// MergeError wraps a store failure during reconciliation.
// The file's ledger entry stays unprocessed.
type MergeError struct {
	FileType FileType
	Phase    string
	Err      error
}

func (e *MergeError) Error() string {
	return fmt.Sprintf("merge %s (%s): %v", e.FileType, e.Phase, e.Err)
}

func (e *MergeError) Unwrap() error { return e.Err }

// ValidationError lists every reason a settings object was rejected.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return "invalid settings: " + e.Problems[0]
	}
	return "invalid settings:\n  - " + strings.Join(e.Problems, "\n  - ")
}

// PoolInsufficientError is returned before the optimizer is called when too
// few eligible players exist for the sport.
type PoolInsufficientError struct {
	Sport    string
	Eligible int64
	Required int
}

func (e *PoolInsufficientError) Error() string {
	return fmt.Sprintf("player pool insufficient for %s: %d eligible, need %d", e.Sport, e.Eligible, e.Required)
}

// OptimizerError wraps a failed or empty optimizer call.
type OptimizerError struct {
	SettingsID string
	Err        error
}

func (e *OptimizerError) Error() string {
	return fmt.Sprintf("optimizer (settings %s): %v", e.SettingsID, e.Err)
}

func (e *OptimizerError) Unwrap() error { return e.Err }

// AsValidationError unwraps err into a ValidationError.
func AsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}

// AsMergeError unwraps err into a MergeError.
func AsMergeError(err error) (*MergeError, bool) {
	var m *MergeError
	if errors.As(err, &m) {
		return m, true
	}
	return nil, false
}

// AsPoolInsufficientError unwraps err into a PoolInsufficientError.
func AsPoolInsufficientError(err error) (*PoolInsufficientError, bool) {
	var p *PoolInsufficientError
	if errors.As(err, &p) {
		return p, true
	}
	return nil, false
}

// AsOptimizerError unwraps err into an OptimizerError.
func AsOptimizerError(err error) (*OptimizerError, bool) {
	var o *OptimizerError
	if errors.As(err, &o) {
		return o, true
	}
	return nil, false
}
