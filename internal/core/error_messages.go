package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// Front-desk staff can quote the code when reporting a problem.
//
// Known sentinel errors are matched first with errors.Is / errors.As, then
// the technical error text is matched against patterns (case-insensitive).
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate participant: same registrant id, type and first name
//	        Sentinel: repository.ErrDuplicate
//	        Patterns: "duplicate key", "unique constraint", "violates unique"
//
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Operation timed out
//	        Sentinel: context.DeadlineExceeded
//	        Patterns: "timeout", "deadline exceeded"
//
//	DB007 - Busy: Database was busy with conflicting operations
//	        Patterns: "deadlock", "database is locked"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Registration form incomplete or invalid
//	         Sentinel: participant.ValidationErrors
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - No recognized columns in the header row
//	         Sentinel: ingest.ErrNoRecognizedColumns
//
//	IMP002 - Header row plus at least one data row required
//	         Sentinel: ingest.ErrTooFewRows
//
//	IMP003 - Too many imports running at once
//	         Sentinel: ErrTooManyImports
//
//	IMP004 - Import cancelled
//	         Sentinel: context.Canceled
//
//	IMP005 - Google Sheets import not configured
//	         Sentinel: ErrSheetsDisabled
//
//	IMP006 - Preview expired or already saved
//	         Sentinel: ErrPreviewNotFound
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large
//	          Sentinel: ingest.ErrFileTooLarge
//	          Patterns: "request body too large"
//
//	FILE002 - Unsupported file type
//	          Sentinel: ingest.ErrUnsupportedFormat
//
//	FILE003 - File could not be read
//	          Patterns: "read csv", "open workbook", "not a valid zip file"
//
//	FILE004 - No file uploaded
//	          Sentinel: ErrNoFile
//	          Patterns: "no such file"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Identity incomplete on update or delete
//	         Sentinel: repository.ErrIncompleteIdentity
//
//	REQ002 - Malformed request body
//	         Sentinel: ErrInvalidBody
//	         Patterns: "invalid character", "cannot unmarshal"
//
//	REQ003 - Unknown export or template format
//	         Sentinel: ErrUnknownFormat
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//
// # Fallback (ERR000)
//
//	ERR000 - Unexpected error; check server logs using the request id.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/checkin/internal/ingest"
	"github.com/JonMunkholm/checkin/internal/participant"
	"github.com/JonMunkholm/checkin/internal/repository"
)

var (
	// ErrNoFile is returned when an import request carries no file.
	ErrNoFile = errors.New("no file uploaded")

	// ErrInvalidBody is returned when a request body cannot be decoded.
	ErrInvalidBody = errors.New("invalid request body")

	// ErrUnknownFormat is returned for an unrecognized format parameter.
	ErrUnknownFormat = errors.New("unknown format")

	// ErrSheetsDisabled is returned when no Google Sheets source is configured.
	ErrSheetsDisabled = errors.New("google sheets import is not configured")
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// Category returns the alphabetic prefix of the code ("DB", "IMP", ...).
func (m UserMessage) Category() string {
	return strings.TrimRight(m.Code, "0123456789")
}

var (
	msgDuplicate = UserMessage{
		Message: "This participant is already registered",
		Action:  "Search for the existing record instead of adding it again",
		Code:    "DB001",
	}
	msgTimeout = UserMessage{
		Message: "Operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "DB006",
	}
	msgValidation = UserMessage{
		Message: "The registration form is incomplete",
		Action:  "Fill in first name, last name, a valid email and phone",
		Code:    "VAL001",
	}
	msgNoColumns = UserMessage{
		Message: "No matching columns found in the spreadsheet",
		Action:  "Download the template and make sure the header row uses its column names",
		Code:    "IMP001",
	}
	msgTooFewRows = UserMessage{
		Message: "The spreadsheet has no participant rows",
		Action:  "Include a header row and at least one data row",
		Code:    "IMP002",
	}
	msgTooManyImports = UserMessage{
		Message: "Too many imports are running",
		Action:  "Wait a few seconds and try again",
		Code:    "IMP003",
	}
	msgCancelled = UserMessage{
		Message: "The import was cancelled",
		Action:  "Start the import again",
		Code:    "IMP004",
	}
	msgSheetsDisabled = UserMessage{
		Message: "Google Sheets import is not configured",
		Action:  "Set GOOGLE_CREDENTIALS_FILE and SHEETS_SPREADSHEET_ID on the server",
		Code:    "IMP005",
	}
	msgPreviewGone = UserMessage{
		Message: "This import preview has expired or was already saved",
		Action:  "Upload the file again",
		Code:    "IMP006",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Split the file into smaller parts",
		Code:    "FILE001",
	}
	msgUnsupported = UserMessage{
		Message: "Unsupported file type",
		Action:  "Upload a .csv or .xlsx file",
		Code:    "FILE002",
	}
	msgUnreadable = UserMessage{
		Message: "The file could not be read",
		Action:  "Re-export the spreadsheet as CSV or XLSX and upload it again",
		Code:    "FILE003",
	}
	msgNoFile = UserMessage{
		Message: "No file was uploaded",
		Action:  "Choose a spreadsheet before submitting",
		Code:    "FILE004",
	}
	msgIncompleteIdentity = UserMessage{
		Message: "Registrant id, registration type and first name are all required",
		Action:  "Supply all three query parameters, or none to delete everything",
		Code:    "REQ001",
	}
	msgInvalidBody = UserMessage{
		Message: "The request body is not valid JSON",
		Action:  "Send a participant object or an array of participants",
		Code:    "REQ002",
	}
	msgUnknownFormat = UserMessage{
		Message: "Unknown file format requested",
		Action:  "Use format=csv or format=xlsx",
		Code:    "REQ003",
	}
)

// sentinelMessages are checked with errors.Is before any pattern.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{repository.ErrDuplicate, msgDuplicate},
	{repository.ErrIncompleteIdentity, msgIncompleteIdentity},
	{ingest.ErrNoRecognizedColumns, msgNoColumns},
	{ingest.ErrTooFewRows, msgTooFewRows},
	{ingest.ErrFileTooLarge, msgTooLarge},
	{ingest.ErrUnsupportedFormat, msgUnsupported},
	{ErrTooManyImports, msgTooManyImports},
	{ErrSheetsDisabled, msgSheetsDisabled},
	{ErrPreviewNotFound, msgPreviewGone},
	{ErrNoFile, msgNoFile},
	{ErrInvalidBody, msgInvalidBody},
	{ErrUnknownFormat, msgUnknownFormat},
	{context.DeadlineExceeded, msgTimeout},
	{context.Canceled, msgCancelled},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	// Database constraint errors
	{pattern: "duplicate key", msg: msgDuplicate},
	{pattern: "unique constraint", msg: msgDuplicate},
	{pattern: "violates unique", msg: msgDuplicate},

	// File errors
	{pattern: "request body too large", msg: msgTooLarge},
	{pattern: "read csv", msg: msgUnreadable},
	{pattern: "open workbook", msg: msgUnreadable},
	{pattern: "not a valid zip file", msg: msgUnreadable},
	{pattern: "no such file", msg: msgNoFile},

	// Request errors
	{pattern: "invalid character", msg: msgInvalidBody},
	{pattern: "cannot unmarshal", msg: msgInvalidBody},

	// Connection errors
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
	{pattern: "deadline exceeded", msg: msgTimeout},
	{pattern: "timeout", msg: msgTimeout},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},
	{
		pattern: "database is locked",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

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
// Support staff should check the logs for the technical error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("import: %w", ingest.ErrNoRecognizedColumns))
//	// msg.Code == "IMP001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var verrs participant.ValidationErrors
	if errors.As(err, &verrs) {
		return msgValidation
	}
	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
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
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
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
//
// Example:
//
//	ue := NewUserError(err)
//	slog.Error("import failed", "error", ue.Technical)
//	fmt.Println(ue.Error(), ue.User.Code)
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
