package core

// # Error Codes Reference
//
// Users see a message, a suggested action and a code they can quote to
// support. Codes are grouped by category:
//
//	EXT001  - Malformed response: the service replied with an unrecognized shape
//	          Matches: extract.ErrMalformedResponse
//	EXT002  - Response too large: the service reply exceeded the size limit
//	          Matches: client.ErrResponseTooLarge
//	EXT003  - Columnless table: the table has no columns to export
//	          Matches: extract.ErrColumnlessTable
//	EXT004  - No such table: export index out of range
//	          Matches: ErrIndexOutOfRange
//
//	NET001  - Transport: the service could not be reached or returned an error
//	          Matches: *client.TransportError (message is the server detail when given)
//
//	FILE001 - File too large: the PDF exceeds UPLOAD_MAX_FILE_SIZE
//	FILE004 - No file: no file was selected
//	FILE005 - Empty file: the uploaded file is empty
//	FILE006 - Bad form: the request was not a readable multipart upload
//
//	UPL002  - Busy: an extraction is already running for this session
//	UPL003  - System busy: every upload slot is taken
//	UPL004  - Request cancelled  (pattern "context canceled")
//	UPL005  - Request timed out  (pattern "context deadline exceeded")
//
//	HIS001  - History disabled: no DATABASE_URL configured
//
//	RATE001 - Rate limited       (pattern "rate limit")
//
//	ERR000  - Anything else. Check the logs for the original error.
//
// Typed errors are matched first with errors.Is / errors.As. Remaining
// errors fall through to case-insensitive substring patterns; the first
// match wins.

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JonMunkholm/pdftables/internal/client"
	"github.com/JonMunkholm/pdftables/internal/extract"
	"github.com/JonMunkholm/pdftables/internal/history"
	"github.com/JonMunkholm/pdftables/internal/session"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// Failure converts m for storage in a session snapshot.
func (m UserMessage) Failure() session.Failure {
	return session.Failure{Message: m.Message, Action: m.Action, Code: m.Code}
}

type errorRule struct {
	target error
	msg    UserMessage
}

// errorRules are checked with errors.Is, in order.
var errorRules = []errorRule{
	{ErrBusy, UserMessage{
		Message: "An extraction is already in progress",
		Action:  "Wait for the current upload to finish",
		Code:    "UPL002",
	}},
	{session.ErrTooManyUploads, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL003",
	}},
	{ErrNoFile, UserMessage{
		Message: "No file was selected",
		Action:  "Please select a PDF file to upload",
		Code:    "FILE004",
	}},
	{ErrBadUploadForm, UserMessage{
		Message: "The upload could not be read",
		Action:  "Send the PDF as a multipart/form-data field named \"file\"",
		Code:    "FILE006",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The uploaded file is empty",
		Action:  "Please upload a PDF with content",
		Code:    "FILE005",
	}},
	{ErrFileTooLarge, UserMessage{
		Message: "File exceeds maximum size limit",
		Action:  "Split the PDF into smaller documents",
		Code:    "FILE001",
	}},
	{extract.ErrMalformedResponse, UserMessage{
		Message: "Failed to extract tables from the PDF",
		Action:  "Try again, or check that the extraction service is up to date",
		Code:    "EXT001",
	}},
	{client.ErrResponseTooLarge, UserMessage{
		Message: "The extraction result is too large",
		Action:  "Try a PDF with fewer pages",
		Code:    "EXT002",
	}},
	{extract.ErrColumnlessTable, UserMessage{
		Message: "No columns found for this table.",
		Action:  "This table cannot be exported",
		Code:    "EXT003",
	}},
	{ErrIndexOutOfRange, UserMessage{
		Message: "Table not found",
		Action:  "Upload the PDF again and pick a table from the list",
		Code:    "EXT004",
	}},
	{history.ErrDisabled, UserMessage{
		Message: "Extraction history is not enabled",
		Action:  "Set DATABASE_URL to record extractions",
		Code:    "HIS001",
	}},
	{context.Canceled, UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch untyped errors, matched case-insensitively.
var errorPatterns = []errorPattern{
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "UPL004",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or check your connection",
		Code:    "UPL005",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

var transportMessage = UserMessage{
	Action: "Check that the extraction service is running and try again",
	Code:   "NET001",
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
//	msg := MapError(fmt.Errorf("normalize: %w", extract.ErrMalformedResponse))
//	// msg.Code == "EXT001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var terr *client.TransportError
	if errors.As(err, &terr) && !errors.Is(err, client.ErrResponseTooLarge) {
		msg := transportMessage
		msg.Message = terr.UserMessage()
		return msg
	}

	for _, r := range errorRules {
		if errors.Is(err, r.target) {
			return r.msg
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

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something other than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error, kept for logging, with its user message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. It returns nil for a nil err.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{Technical: err, User: MapError(err)}
}
