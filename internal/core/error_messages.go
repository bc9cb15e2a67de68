package core

// # Error Codes Reference
//
// User-facing messages carry a code that operators can quote to support.
// Codes are grouped by category:
//
//	DB001-DB007   storage constraints and connectivity
//	VAL001-VAL003 row mapping and reference validation
//	IMP001-IMP008 import request and run lifecycle
//	REQ001-REQ002 malformed HTTP or CLI input
//	ERR000        fallback when nothing matches
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns are listed
// before general ones. Typed import errors produce stable message prefixes
// (see errors.go), which is what the VAL and IMP patterns key on.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Import Request Errors (IMP001-IMP008)
	// =========================================================================
	{
		pattern: "unknown record kind",
		msg: UserMessage{
			Message: "Unknown record kind",
			Action:  "Use one of the kinds listed by /api/kinds",
			Code:    "IMP001",
		},
	},
	{
		pattern: "invalid import mode",
		msg: UserMessage{
			Message: "Invalid import mode",
			Action:  "Set mode to preview or commit",
			Code:    "IMP002",
		},
	},
	{
		pattern: "no rows to import",
		msg: UserMessage{
			Message: "The import contains no rows",
			Action:  "Check that the spreadsheet has data below the header row",
			Code:    "IMP003",
		},
	},
	{
		pattern: "too many rows",
		msg: UserMessage{
			Message: "The import contains too many rows",
			Action:  "Split the spreadsheet into smaller batches",
			Code:    "IMP004",
		},
	},
	{
		pattern: "too many imports in progress",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP005",
		},
	},
	{
		pattern: "snapshot load failed",
		msg: UserMessage{
			Message: "Existing records could not be loaded",
			Action:  "Please try again in a few moments; no rows were imported",
			Code:    "IMP006",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Import was cancelled",
			Action:  "Run the import again; rows already written are reported as duplicates",
			Code:    "IMP007",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Import timed out",
			Action:  "Split the spreadsheet into smaller batches",
			Code:    "IMP008",
		},
	},

	// =========================================================================
	// Row Errors (VAL001-VAL003)
	// =========================================================================
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Fill in the mandatory columns of the template",
			Code:    "VAL001",
		},
	},
	{
		pattern: "reference not found",
		msg: UserMessage{
			Message: "Referenced code does not exist",
			Action:  "Import the referenced records first or correct the code",
			Code:    "VAL002",
		},
	},
	{
		pattern: "invalid reference",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check the identifier columns of the row",
			Code:    "VAL003",
		},
	},

	// =========================================================================
	// Malformed Input (REQ001-REQ002)
	// =========================================================================
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "Request is too large",
			Action:  "Split the spreadsheet into smaller batches",
			Code:    "REQ002",
		},
	},
	{
		pattern: "invalid request",
		msg: UserMessage{
			Message: "Request could not be read",
			Action:  "Send a JSON body with recordKind, rows and mode",
			Code:    "REQ001",
		},
	},

	// =========================================================================
	// Database Constraint Errors (DB001-DB003)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this key already exists",
			Action:  "Check for rows repeating the same code in your spreadsheet",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries in your spreadsheet",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Ensure parent records are imported first",
			Code:    "DB003",
		},
	},

	// =========================================================================
	// Database Connection Errors (DB004-DB007)
	// =========================================================================
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
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller import or try again later",
			Code:    "DB006",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
// Support staff should check application logs for the original technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or the ERR000 fallback.
//
// Example:
//
//	msg := MapError(&SnapshotLoadError{Kind: KindClients, Err: err})
//	// msg.Code == "IMP006"
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

// IsUserFacing reports whether err matches a known pattern (not the ERR000 fallback).
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
// The original error is preserved for logging.
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
