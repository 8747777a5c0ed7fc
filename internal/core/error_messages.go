package core

// error_messages.go maps technical errors to messages with support codes.
//
// Codes by category:
//
//	REC001  Translocation not found           "translocation not found"
//	REC002  Invalid translocation data        "invalid translocation"
//	IMP001  Required columns missing          "missing required columns"
//	IMP002  Unsupported file type             "unsupported file format"
//	IMP003  Import already running            "too many concurrent imports"
//	IMP004  File has no header row            "file contains no header row"
//	FILE001 File too large                    "file too large", "request body too large"
//	FILE002 Unreadable workbook or CSV        "malformed workbook", "parse error", "zip: not a valid zip file"
//	FILE003 No file selected                  "no file provided"
//	FILE004 Malformed upload request          "multipart"
//	DB001   Duplicate record id               "duplicate key"
//	DB004   Store unreachable                 "connection refused", "no reachable servers", "server selection error"
//	DB005   Store connection interrupted      "connection reset"
//	DB006   Store operation timed out         "timeout"
//	REQ001  Request cancelled                 "context canceled"
//	REQ002  Request timed out                 "context deadline exceeded"
//	RATE001 Too many requests                 "rate limit"
//	AUTH001 Missing or invalid API key        "api key"
//	ERR000  Fallback; check the server logs for the technical error
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns come before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage is an error as shown to an API client.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgNotFound = UserMessage{
		Message: "Translocation not found",
		Action:  "Refresh the list; the record may have been deleted or replaced by an import",
		Code:    "REC001",
	}
	msgStoreDown = UserMessage{
		Message: "Unable to reach the record store",
		Action:  "Please try again in a few moments",
		Code:    "DB004",
	}
	msgTooLarge = UserMessage{
		Message: "File exceeds the maximum upload size",
		Action:  "Remove unused sheets or split the file",
		Code:    "FILE001",
	}
	msgUnreadable = UserMessage{
		Message: "The file could not be read",
		Action:  "Re-save the file as .xlsx or UTF-8 .csv and try again",
		Code:    "FILE002",
	}
)

var errorPatterns = []errorPattern{
	// Records
	{"translocation not found", msgNotFound},
	{"invalid translocation", UserMessage{
		Message: "Some fields are missing or invalid",
		Action:  "Check the highlighted fields and submit again",
		Code:    "REC002",
	}},

	// Imports
	{"missing required columns", UserMessage{
		Message: "Required columns are missing from the file",
		Action:  "Add columns for project title, year, species and number of animals",
		Code:    "IMP001",
	}},
	{"unsupported file format", UserMessage{
		Message: "This file type is not supported",
		Action:  "Upload a .xlsx, .xls or .csv file",
		Code:    "IMP002",
	}},
	{"too many concurrent imports", UserMessage{
		Message: "Another import is already running",
		Action:  "Wait for it to finish and try again",
		Code:    "IMP003",
	}},
	{"file contains no header row", UserMessage{
		Message: "The file is empty",
		Action:  "Upload a file whose first row holds the column headers",
		Code:    "IMP004",
	}},

	// Files and upload requests
	{"file too large", msgTooLarge},
	{"request body too large", msgTooLarge},
	{"malformed workbook", msgUnreadable},
	{"parse error", msgUnreadable},
	{"zip: not a valid zip file", msgUnreadable},
	{"no file provided", UserMessage{
		Message: "No file was selected",
		Action:  "Choose a spreadsheet to upload",
		Code:    "FILE003",
	}},
	{"multipart", UserMessage{
		Message: "The upload request was malformed",
		Action:  "Send the file as multipart form field \"file\"",
		Code:    "FILE004",
	}},

	// Store
	{"duplicate key", UserMessage{
		Message: "A record with this ID already exists",
		Action:  "Please try again",
		Code:    "DB001",
	}},
	{"connection refused", msgStoreDown},
	{"no reachable servers", msgStoreDown},
	{"server selection error", msgStoreDown},
	{"connection reset", UserMessage{
		Message: "The connection to the record store was interrupted",
		Action:  "Please try again",
		Code:    "DB005",
	}},

	// Request lifecycle
	{"context canceled", UserMessage{
		Message: "Request was cancelled",
		Action:  "Please try again",
		Code:    "REQ001",
	}},
	{"context deadline exceeded", UserMessage{
		Message: "Request timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "REQ002",
	}},
	{"timeout", UserMessage{
		Message: "The record store took too long to respond",
		Action:  "Please try again later",
		Code:    "DB006",
	}},

	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
	{"api key", UserMessage{
		Message: "Missing or invalid API key",
		Action:  "Send a valid key in the X-API-Key header",
		Code:    "AUTH001",
	}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts err to a user message. Unknown errors map to ERR000.
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

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matched a known pattern.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
