package chat

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

const (
	// MaxContentBytes is the byte limit for message content.
	MaxContentBytes = 4096
	// MaxTitleChars is the character limit for session titles.
	MaxTitleChars = 200
)

// ValidateNewSession checks the required fields for session creation.
func ValidateNewSession(title, chatType string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(title) > MaxTitleChars {
		return fmt.Errorf("%w: title exceeds %d character limit", ErrValidation, MaxTitleChars)
	}
	if chatType == "" {
		return fmt.Errorf("%w: chat type is required", ErrValidation)
	}
	if !ValidChatTypes[chatType] {
		return fmt.Errorf("%w: unknown chat type %q", ErrValidation, chatType)
	}
	return nil
}

// ValidateMessage checks that a message meets content requirements.
// Content may be empty only when an attachment URL is present.
func ValidateMessage(content, msgType, attachmentURL string) error {
	if strings.TrimSpace(content) == "" && attachmentURL == "" {
		return fmt.Errorf("%w: message content cannot be empty", ErrValidation)
	}
	if len(content) > MaxContentBytes {
		return fmt.Errorf("%w: message exceeds %d byte limit", ErrValidation, MaxContentBytes)
	}
	if !utf8.ValidString(content) {
		return fmt.Errorf("%w: message contains invalid UTF-8", ErrValidation)
	}
	if !ValidMessageTypes[msgType] {
		return fmt.Errorf("%w: unknown message type %q", ErrValidation, msgType)
	}
	return nil
}

// ValidateStatus checks a session status value.
func ValidateStatus(status string) error {
	if !ValidStatuses[status] {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, status)
	}
	return nil
}

// ValidatePriority checks a session priority value.
func ValidatePriority(priority string) error {
	if !ValidPriorities[priority] {
		return fmt.Errorf("%w: unknown priority %q", ErrValidation, priority)
	}
	return nil
}
