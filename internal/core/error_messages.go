package core

// error_messages.go maps technical errors to user-facing messages with codes
// that support can look up.
//
// Code ranges:
//
//	DB001-DB099     store constraint and connectivity failures
//	VAL001-VAL099   settings and cell validation
//	FILE001-FILE099 upload file handling
//	UPL001-UPL099   upload process and ledger
//	MRG001-MRG099   reconciliation
//	POOL001         player pool below the sport minimum
//	OPT001-OPT099   optimizer invocation
//	NF001-NF099     missing players, settings or lineups
//	ERR000          fallback
//
// Patterns are matched case-insensitively with strings.Contains. The first
// match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Store errors (DB001-DB007)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Retry the upload; if it persists, clear the ledger entry and try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review the file for repeated partner ids",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Regenerate the lineups and export again",
			Code:    "DB003",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please retry the whole file",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting uploads",
			Action:  "Please retry the whole file",
			Code:    "DB007",
		},
	},

	// =========================================================================
	// Validation (VAL001-VAL006)
	// =========================================================================
	{
		pattern: "invalid settings",
		msg: UserMessage{
			Message: "The optimization settings are not valid",
			Action:  "Check salary, lineup count and entry type, then try again",
			Code:    "VAL001",
		},
	},
	{
		pattern: "invalid lineup",
		msg: UserMessage{
			Message: "A lineup in the import file is incomplete",
			Action:  "Give every lineup an id, a sport and at least one player",
			Code:    "VAL006",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "The request could not be understood",
			Action:  "Check the request parameters and body, then try again",
			Code:    "VAL005",
		},
	},
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Remove text from numeric columns; the value was treated as 0",
			Code:    "VAL002",
		},
	},
	{
		pattern: "unknown sport",
		msg: UserMessage{
			Message: "Sport is not supported",
			Action:  "Use one of nfl, nba, mlb, nhl, pga",
			Code:    "VAL003",
		},
	},
	{
		pattern: "invalid enum",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Use roster, projections or analysis as the file type",
			Code:    "VAL004",
		},
	},

	// =========================================================================
	// File errors (FILE001-FILE006)
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit (25MB)",
			Action:  "Remove unused sheets or columns and try again",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Export the sheet again as comma separated values",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select one file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "invalid workbook",
		msg: UserMessage{
			Message: "The workbook could not be opened",
			Action:  "Save it as .xlsx or export the first sheet as CSV",
			Code:    "FILE006",
		},
	},

	// =========================================================================
	// Upload errors (UPL001-UPL005)
	// =========================================================================
	{
		pattern: "multiple files",
		msg: UserMessage{
			Message: "Only one file can be uploaded at a time",
			Action:  "Upload the roster and projections files separately",
			Code:    "UPL001",
		},
	},
	{
		pattern: "too many concurrent uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
		},
	},
	{
		pattern: "upload not found",
		msg: UserMessage{
			Message: "Upload record not found",
			Action:  "Refresh the upload list",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try again; large files may need a longer timeout",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Reconciliation (MRG001-MRG002)
	// =========================================================================
	{
		pattern: "no rows with a partner id",
		msg: UserMessage{
			Message: "No row in the roster file has a player ID",
			Action:  "Upload the platform's salary template with its ID column",
			Code:    "MRG001",
		},
	},
	{
		pattern: "merge ",
		msg: UserMessage{
			Message: "Players could not be saved; the upload was not marked processed",
			Action:  "Retry the whole file",
			Code:    "MRG002",
		},
	},

	// =========================================================================
	// Generation (POOL001, OPT001-OPT003)
	// =========================================================================
	{
		pattern: "player pool insufficient",
		msg: UserMessage{
			Message: "Not enough available players for this sport",
			Action:  "Upload the roster and projections for the slate first",
			Code:    "POOL001",
		},
	},
	{
		pattern: "optimizer returned no lineups",
		msg: UserMessage{
			Message: "The optimizer produced no lineups",
			Action:  "Relax ownership or value constraints and try again",
			Code:    "OPT001",
		},
	},
	{
		pattern: "optimizer not configured",
		msg: UserMessage{
			Message: "Lineup generation is not available",
			Action:  "Set OPTIMIZER_URL and restart the server",
			Code:    "OPT002",
		},
	},
	{
		pattern: "optimizer",
		msg: UserMessage{
			Message: "The optimizer request failed",
			Action:  "Please try again",
			Code:    "OPT003",
		},
	},

	// =========================================================================
	// Not found (NF001-NF003)
	// =========================================================================
	{
		pattern: "player not found",
		msg: UserMessage{
			Message: "Player not found",
			Action:  "Check the partner id",
			Code:    "NF001",
		},
	},
	{
		pattern: "settings not found",
		msg: UserMessage{
			Message: "Settings not found",
			Action:  "Generate lineups again",
			Code:    "NF002",
		},
	},
	{
		pattern: "lineup not found",
		msg: UserMessage{
			Message: "Lineup not found",
			Action:  "Check the lineup ids and export again",
			Code:    "NF003",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern or the ERR000 fallback.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
