package core

// # Error Codes Reference
//
// This file maps technical errors to user-friendly messages with codes for
// support reference. When users encounter errors, they can quote the code to
// support staff for faster diagnosis.
//
// Errors are matched in two passes. Typed and sentinel errors from the codec,
// model, table and service layers are matched with errors.Is first; anything
// left is matched by case-insensitive substring patterns.
//
// # Model File Errors (STR, RES, DQ)
//
//	STR001 - Invalid layout: the file contradicts itself or has content where
//	         none is allowed. Detail carries the row and column.
//	RES001 - Unresolvable columns: input and output columns cannot be told
//	         apart. Action: add an ElementTypes row or NumInputs/NumOutputs.
//	DQ001  - Data quality: a sample or element is incomplete and strict
//	         checking is on.
//
// # Element Errors (MDL001-MDL099)
//
//	MDL001 - Unknown attribute
//	MDL002 - Attribute applies to inputs only
//	MDL003 - No such element
//	MDL004 - Invalid attribute value
//
// # Table Errors (TBL001-TBL099)
//
//	TBL001 - Cell outside the table
//	TBL002 - Cell is not numeric
//
// # Document Errors (DOC001-DOC099)
//
//	DOC001 - Document not found
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	FILE002 - Invalid CSV
//	FILE003 - Encoding error
//	FILE004 - No file provided
//	FILE005 - Empty file
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Too many imports in progress
//	IMP002 - Import cancelled
//	IMP003 - Import timed out
//
// # Keyword Errors (KEY001-KEY099)
//
//	KEY001 - Invalid keyword configuration
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB003 - Foreign key
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Support staff should check application logs
// for the original technical error when users report ERR000.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/modelcsv/internal/codec"
	"github.com/JonMunkholm/modelcsv/internal/keywords"
	"github.com/JonMunkholm/modelcsv/internal/model"
	"github.com/JonMunkholm/modelcsv/internal/table"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
	Detail  string // Location details safe to show, e.g. the failing row
}

// errorSentinel maps an error matched with errors.Is to a user message.
// withDetail copies the technical text into Detail; it is set only for
// errors whose text names positions in the user's own file.
type errorSentinel struct {
	target     error
	msg        UserMessage
	withDetail bool
}

// errorSentinels is checked before errorPatterns, in order.
var errorSentinels = []errorSentinel{
	// =========================================================================
	// Model File Errors (STR001, RES001, DQ001)
	// =========================================================================
	{
		target: codec.ErrStructural,
		msg: UserMessage{
			Message: "The file layout is not valid",
			Action:  "Fix the row named in the details and upload again",
			Code:    "STR001",
		},
		withDetail: true,
	},
	{
		target: codec.ErrResolution,
		msg: UserMessage{
			Message: "Input and output columns could not be determined",
			Action:  "Add an ElementTypes row or NumInputs and NumOutputs rows",
			Code:    "RES001",
		},
		withDetail: true,
	},
	{
		target: codec.ErrDataQuality,
		msg: UserMessage{
			Message: "The data is incomplete",
			Action:  "Fill in the missing values or turn off strict checking",
			Code:    "DQ001",
		},
		withDetail: true,
	},

	// =========================================================================
	// Element Errors (MDL001-MDL004)
	// =========================================================================
	{
		target: model.ErrUnknownAttribute,
		msg: UserMessage{
			Message: "Unknown element attribute",
			Action:  "Use one of the grid column names",
			Code:    "MDL001",
		},
	},
	{
		target: model.ErrInputOnlyAttribute,
		msg: UserMessage{
			Message: "This attribute applies to inputs only",
			Action:  "Edit the attribute on an input element",
			Code:    "MDL002",
		},
	},
	{
		target: model.ErrNoSuchElement,
		msg: UserMessage{
			Message: "Element not found",
			Action:  "Refresh the page and try again",
			Code:    "MDL003",
		},
	},
	{
		target: model.ErrInvalidValue,
		msg: UserMessage{
			Message: "The value is not valid for this attribute",
			Action:  "Enter a number, or leave the cell empty to clear it",
			Code:    "MDL004",
		},
	},

	// =========================================================================
	// Table Errors (TBL001-TBL002)
	// =========================================================================
	{
		target: table.ErrOutOfRange,
		msg: UserMessage{
			Message: "A cell outside the table was accessed",
			Action:  "Check that the file is complete",
			Code:    "TBL001",
		},
	},
	{
		target: table.ErrNotNumeric,
		msg: UserMessage{
			Message: "A cell that should hold a number does not",
			Action:  "Check the numeric rows of the file",
			Code:    "TBL002",
		},
	},

	// =========================================================================
	// Document, File and Import Errors
	// =========================================================================
	{
		target: ErrDocumentNotFound,
		msg: UserMessage{
			Message: "Document not found",
			Action:  "It may have been deleted. Refresh the document list",
			Code:    "DOC001",
		},
	},
	{
		target: ErrFileTooLarge,
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the samples over several files",
			Code:    "FILE001",
		},
	},
	{
		target: ErrNoFile,
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
		},
	},
	{
		target: ErrEmptyFile,
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a file with a definition block",
			Code:    "FILE005",
		},
	},
	{
		target: ErrTooManyImports,
		msg: UserMessage{
			Message: "Too many imports in progress",
			Action:  "Please wait a moment and try again",
			Code:    "IMP001",
		},
	},
	{
		target: ErrImportCancelled,
		msg: UserMessage{
			Message: "Import was cancelled",
			Action:  "Start a new import when ready",
			Code:    "IMP002",
		},
	},
	{
		target: ErrImportTimeout,
		msg: UserMessage{
			Message: "Import timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "IMP003",
		},
	},
	{
		target: context.Canceled,
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "IMP002",
		},
	},
	{
		target: context.DeadlineExceeded,
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "IMP003",
		},
	},

	// =========================================================================
	// Keyword Errors (KEY001)
	// =========================================================================
	{
		target: keywords.ErrInvalidKeyword,
		msg: UserMessage{
			Message: "Invalid keyword configuration",
			Action:  "Keywords must be identifiers",
			Code:    "KEY001",
		},
		withDetail: true,
	},
	{
		target: keywords.ErrDuplicateKeyword,
		msg: UserMessage{
			Message: "Invalid keyword configuration",
			Action:  "Give every keyword a distinct text",
			Code:    "KEY001",
		},
		withDetail: true,
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user
// messages. The first matching pattern wins, so specific patterns come
// before general ones.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Errors (DB001-DB007)
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A document with this ID already exists",
			Action:  "Please try the import again",
			Code:    "DB001",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "The document was removed while it was being changed",
			Action:  "Refresh the document list",
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
			Action:  "Please try again",
			Code:    "DB005",
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
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try a smaller file or try again later",
			Code:    "DB006",
		},
	},

	// =========================================================================
	// File Errors (FILE002-FILE003)
	// =========================================================================
	{
		pattern: "read csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check quoting and the separator setting",
			Code:    "FILE002",
		},
	},
	{
		pattern: "invalid utf-8",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save the file as UTF-8",
			Code:    "FILE003",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	_, _, err := codec.DecodeCSV(r, ';', opts)
//	msg := MapError(err)
//	// msg.Code == "STR001"
//	// msg.Detail == "codec: row 4, column 2: ..."
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}
	for _, es := range errorSentinels {
		if errors.Is(err, es.target) {
			msg := es.msg
			if es.withDetail {
				msg.Detail = err.Error()
			}
			return msg
		}
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
// The format is: "Message (Code: XXX). Action", followed by the detail on
// a new line when present.
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	s := fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
	if msg.Detail != "" {
		s += "\n" + msg.Detail
	}
	return s
}

// IsUserFacing reports whether err maps to a specific message rather than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
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
	return &UserError{Technical: err, User: MapError(err)}
}
