package models

import (
	"fmt"
	"strings"
)

// KeyDelimiter separates the user segment from the document segment in a composite key
const KeyDelimiter = "_"

// LessonProgressRecord is a single user's completion state for one lesson as stored remotely
type LessonProgressRecord struct {
	Key         string `json:"key"`
	IsCompleted bool   `json:"isCompleted"`
}

// CompositeKey builds the "{userId}_{documentId}" key used by the backing store.
//
// The user segment must not contain the delimiter, otherwise the key could not be parsed back.
func CompositeKey(userID, documentID string) (string, error) {
	if err := ValidateUserID(userID); err != nil {
		return "", err
	}
	if documentID == "" {
		return "", fmt.Errorf("%w: empty document id", ErrMalformedRecord)
	}
	return userID + KeyDelimiter + documentID, nil
}

// ParseCompositeKey splits a composite key on the first delimiter into user and document segments
func ParseCompositeKey(key string) (userID, documentID string, err error) {
	userID, documentID, ok := strings.Cut(key, KeyDelimiter)
	if !ok || userID == "" || documentID == "" {
		return "", "", fmt.Errorf("%w: %q", ErrMalformedRecord, key)
	}
	return userID, documentID, nil
}

// Parse returns the user and lesson segments of the record key
func (r LessonProgressRecord) Parse() (userID, lessonDocumentID string, err error) {
	return ParseCompositeKey(r.Key)
}

// ValidateUserID rejects user identifiers that cannot be safely encoded into a composite key
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("%w: empty user id", ErrInvalidUserID)
	}
	if strings.Contains(userID, KeyDelimiter) {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidUserID, userID, KeyDelimiter)
	}
	return nil
}

// LessonCompletionResponse represents the completion state of one lesson for the caller
type LessonCompletionResponse struct {
	LessonID    string `json:"lessonId"`
	IsCompleted bool   `json:"isCompleted"`
}
