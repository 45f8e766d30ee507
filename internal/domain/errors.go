package domain

import (
	"context"
	"errors"
	"strings"
)

// Code classifies an error the same way across storage, realtime and transport layers.
type Code string

const (
	CodePermissionDenied   Code = "permission-denied"
	CodeUnauthenticated    Code = "unauthenticated"
	CodeNotFound           Code = "not-found"
	CodeAlreadyExists      Code = "already-exists"
	CodeFailedPrecondition Code = "failed-precondition"
	CodeResourceExhausted  Code = "resource-exhausted"
	CodeCancelled          Code = "cancelled"
	CodeDataLoss           Code = "data-loss"
	CodeUnknown            Code = "unknown"
	CodeInvalidArgument    Code = "invalid-argument"
	CodeDeadlineExceeded   Code = "deadline-exceeded"
	CodeUnavailable        Code = "unavailable"
)

const fallbackMessage = "An unexpected error occurred"

var codeMessages = map[Code]string{
	CodePermissionDenied:   "You do not have permission to perform this action.",
	CodeUnauthenticated:    "Please sign in to continue.",
	CodeNotFound:           "The requested resource was not found.",
	CodeAlreadyExists:      "This resource already exists.",
	CodeFailedPrecondition: "Operation failed. Please try again.",
	CodeResourceExhausted:  "Too many requests. Please try again later.",
	CodeCancelled:          "Operation was cancelled.",
	CodeDataLoss:           "Unable to retrieve data. Please try again.",
	CodeUnknown:            "An unknown error occurred.",
	CodeInvalidArgument:    "Invalid data provided.",
	CodeDeadlineExceeded:   "Request timed out.",
	CodeUnavailable:        "Service is currently unavailable.",
}

// Error is a coded application error. Message, when set, is already user-facing.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return string(e.Code) + ": " + e.Err.Error()
	}
	return string(e.Code)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another coded error with the same code and user-facing message,
// so a sentinel still matches after it has been copied around a cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t.Message == "" {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

// NewError creates a coded error with a user-facing message
func NewError(code Code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WrapError attaches a code to an infrastructure error
func WrapError(code Code, err error) *Error {
	return &Error{Code: code, Err: err}
}

// NormalizeCode strips vendor prefixes such as "auth/" or "firestore/".
func NormalizeCode(code string) Code {
	code = strings.TrimPrefix(code, "auth/")
	code = strings.TrimPrefix(code, "firestore/")
	return Code(code)
}

// CodeOf returns the code of err, falling back to context errors and CodeUnknown.
func CodeOf(err error) Code {
	if err == nil {
		return ""
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return NormalizeCode(string(appErr.Code))
	}
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return CodeDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return CodeCancelled
	}
	return CodeUnknown
}

// UserMessage converts any error into the string shown to the user.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		if appErr.Message != "" {
			return appErr.Message
		}
		code := NormalizeCode(string(appErr.Code))
		if code == CodeFailedPrecondition && appErr.Err != nil &&
			strings.Contains(appErr.Err.Error(), "index") {
			return "Database is being updated. Please try again in a few minutes."
		}
		if msg, ok := codeMessages[code]; ok {
			return msg
		}
		if appErr.Err != nil {
			return appErr.Err.Error()
		}
		return fallbackMessage
	}

	switch CodeOf(err) {
	case CodeDeadlineExceeded:
		return codeMessages[CodeDeadlineExceeded]
	case CodeCancelled:
		return codeMessages[CodeCancelled]
	}
	return fallbackMessage
}

// Auth
var (
	ErrUserNotFound       = NewError(CodeNotFound, "User not found")
	ErrEmailTaken         = NewError(CodeAlreadyExists, "Email is already registered")
	ErrInvalidCredentials = NewError(CodeUnauthenticated, "Invalid email or password")
	ErrSessionNotFound    = NewError(CodeUnauthenticated, "Session not found")
	ErrSessionExpired     = NewError(CodeUnauthenticated, "Session expired")
	ErrInvalidToken       = NewError(CodeUnauthenticated, "Invalid token")
)

// Profile
var (
	ErrInvalidProfile = NewError(CodeInvalidArgument, "Invalid profile data")
	ErrInvalidTier    = NewError(CodeInvalidArgument, "Unknown membership tier")
)

// Feed
var (
	ErrInvalidCursor   = NewError(CodeInvalidArgument, "Invalid feed cursor")
	ErrCannotBlockSelf = NewError(CodeInvalidArgument, "You cannot block yourself")
)

// Match and swipe
var (
	ErrMatchNotFound        = NewError(CodeNotFound, "Match not found")
	ErrMatchAlreadyExists   = NewError(CodeAlreadyExists, "Match already exists")
	ErrMatchUpdateForbidden = NewError(CodePermissionDenied, "You do not have permission to update this match")
	ErrMatchDeleteForbidden = NewError(CodePermissionDenied, "You do not have permission to delete this match")
	ErrInvalidMatchStatus   = NewError(CodeInvalidArgument, "Invalid match status")
	ErrCannotMatchSelf      = NewError(CodeInvalidArgument, "You cannot match with yourself")
	ErrCannotSwipeSelf      = NewError(CodeInvalidArgument, "You cannot swipe yourself")
	ErrSwipeAlreadyExists   = NewError(CodeAlreadyExists, "You have already swiped this user")
	ErrSwipeLimitReached    = NewError(CodeResourceExhausted, "You've reached your daily swipe limit")
	ErrSuperLikeLimit       = NewError(CodeResourceExhausted, "You've reached your daily super like limit")
)

// Chat
var (
	ErrChatNotFound       = NewError(CodeNotFound, "Chat not found")
	ErrChatAccessDenied   = NewError(CodePermissionDenied, "You do not have access to this chat")
	ErrChatClosed         = NewError(CodeFailedPrecondition, "This chat is no longer available")
	ErrMessageNotFound    = NewError(CodeNotFound, "Message not found")
	ErrEmptyMessage       = NewError(CodeInvalidArgument, "Message cannot be empty")
	ErrInvalidContentType = NewError(CodeInvalidArgument, "Unsupported message type")
)

// Video
var (
	ErrVideoNotFound    = NewError(CodeNotFound, "Video not found")
	ErrVideoTooLong     = NewError(CodeInvalidArgument, "Video must be 9 seconds or less")
	ErrInvalidVideoFile = NewError(CodeInvalidArgument, "Invalid video file")
)

// ErrUploadLimit builds the tier-specific upload limit error
func ErrUploadLimit(tier Tier) *Error {
	return NewError(CodeResourceExhausted, "You've reached your upload limit for your "+string(tier)+" membership")
}
