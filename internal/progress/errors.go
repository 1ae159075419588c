package progress

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/roach88/pathway/internal/calendar"
)

// ErrorCode categorises engine errors.
type ErrorCode string

const (
	// ErrCodeItemLocked indicates completion of an item whose predecessor is
	// not completed. The caller's unlock view is stale and must be re-fetched.
	ErrCodeItemLocked ErrorCode = "ITEM_LOCKED"

	// ErrCodeOutOfRange indicates an item number outside the sequence bounds.
	ErrCodeOutOfRange ErrorCode = "OUT_OF_RANGE"

	// ErrCodeTooEarly indicates an experiment day whose date floor has not
	// been reached in the user's time zone.
	ErrCodeTooEarly ErrorCode = "TOO_EARLY"

	// ErrCodeUnknownSequence indicates a sequence id the catalog does not know.
	ErrCodeUnknownSequence ErrorCode = "UNKNOWN_SEQUENCE"

	// ErrCodeInvalidArgument indicates a malformed command (empty user id,
	// unknown time zone).
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Error is a typed, per-command failure. No Error is fatal to the process.
type Error struct {
	Code       ErrorCode
	Message    string
	SequenceID string
	ItemNumber int

	// AvailableOn is set for TOO_EARLY: the first date the item can be completed.
	AvailableOn *calendar.Date

	Details map[string]string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.SequenceID != "" && e.ItemNumber != 0 {
		return fmt.Sprintf("%s: %s (sequence=%s, item=%d)", e.Code, e.Message, e.SequenceID, e.ItemNumber)
	}
	if e.SequenceID != "" {
		return fmt.Sprintf("%s: %s (sequence=%s)", e.Code, e.Message, e.SequenceID)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf returns the ErrorCode of err, or "" if err is not an *Error.
// Uses errors.As to handle wrapped errors.
func CodeOf(err error) ErrorCode {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// IsItemLocked reports whether err is an ITEM_LOCKED error.
func IsItemLocked(err error) bool { return CodeOf(err) == ErrCodeItemLocked }

// IsOutOfRange reports whether err is an OUT_OF_RANGE error.
func IsOutOfRange(err error) bool { return CodeOf(err) == ErrCodeOutOfRange }

// IsTooEarly reports whether err is a TOO_EARLY error.
func IsTooEarly(err error) bool { return CodeOf(err) == ErrCodeTooEarly }

// IsUnknownSequence reports whether err is an UNKNOWN_SEQUENCE error.
func IsUnknownSequence(err error) bool { return CodeOf(err) == ErrCodeUnknownSequence }

// IsInvalidArgument reports whether err is an INVALID_ARGUMENT error.
func IsInvalidArgument(err error) bool { return CodeOf(err) == ErrCodeInvalidArgument }

// NewItemLockedError reports that item cannot be completed yet because
// requiredItem is not completed.
func NewItemLockedError(sequenceID string, item, requiredItem int) *Error {
	return &Error{
		Code:       ErrCodeItemLocked,
		Message:    fmt.Sprintf("item %d is locked until item %d is completed", item, requiredItem),
		SequenceID: sequenceID,
		ItemNumber: item,
		Details: map[string]string{
			"required_item": strconv.Itoa(requiredItem),
		},
	}
}

// NewOutOfRangeError reports an item number outside 1..total.
// A total of zero means the sequence is unbounded.
func NewOutOfRangeError(sequenceID string, item, total int) *Error {
	msg := fmt.Sprintf("item %d is out of range", item)
	details := map[string]string{}
	if total > 0 {
		msg = fmt.Sprintf("item %d is out of range 1..%d", item, total)
		details["total_items"] = strconv.Itoa(total)
	}
	return &Error{
		Code:       ErrCodeOutOfRange,
		Message:    msg,
		SequenceID: sequenceID,
		ItemNumber: item,
		Details:    details,
	}
}

// NewTooEarlyError reports an experiment day that opens on availableOn.
func NewTooEarlyError(sequenceID string, item int, availableOn calendar.Date) *Error {
	on := availableOn
	return &Error{
		Code:        ErrCodeTooEarly,
		Message:     fmt.Sprintf("item %d is available on %s", item, availableOn),
		SequenceID:  sequenceID,
		ItemNumber:  item,
		AvailableOn: &on,
		Details: map[string]string{
			"available_on": availableOn.String(),
		},
	}
}

// NewUnknownSequenceError reports a sequence id the catalog does not define.
func NewUnknownSequenceError(sequenceID string) *Error {
	return &Error{
		Code:       ErrCodeUnknownSequence,
		Message:    "sequence not found",
		SequenceID: sequenceID,
	}
}

// NewInvalidArgumentError reports a malformed command.
func NewInvalidArgumentError(format string, args ...any) *Error {
	return &Error{
		Code:    ErrCodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}
