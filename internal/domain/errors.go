package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrTopicNotFound signals a topic name absent from the catalog or the store.
	ErrTopicNotFound = errors.New("topic not found")
	// ErrProfileNotFound signals an unknown user.
	ErrProfileNotFound = errors.New("profile not found")
	// ErrInvalidCatalog wraps every catalog validation failure.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrInviteRejected signals an invite response that is not a usable link.
	ErrInviteRejected = errors.New("invite rejected")
)

// ConfigurationError reports catalog/store desynchronization.
type ConfigurationError struct {
	Topic  string
	Detail string
}

func (e *ConfigurationError) Error() string {
	if e.Topic == "" {
		return "configuration error: " + e.Detail
	}
	return fmt.Sprintf("configuration error: topic %q: %s", e.Topic, e.Detail)
}

// CollaboratorError wraps a failed call into storage, invite issuance or notification.
type CollaboratorError struct {
	Op  string
	Err error
}

func (e *CollaboratorError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *CollaboratorError) Unwrap() error {
	return e.Err
}
