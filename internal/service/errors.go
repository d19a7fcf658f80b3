package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrDuplicateArticle   = errors.New("article already exists")
	ErrValidation         = errors.New("validation failed")
	ErrInvalidOrder       = errors.New("order must be a permutation of the current members")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func notFound(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

// ChangeNotifier is told about every committed catalog write. The realtime
// hub implements it.
type ChangeNotifier interface {
	Notify(eventType, entity, entityID string)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, string, string) {}

func notifierOrNop(n ChangeNotifier) ChangeNotifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}

var eventTypes = map[string]string{
	"create":  "created",
	"update":  "updated",
	"delete":  "deleted",
	"import":  "imported",
	"reorder": "reordered",
	"sync":    "synced",
}

// eventType maps an audit action to the realtime event name.
func eventType(action string) string {
	if t, ok := eventTypes[action]; ok {
		return t
	}
	return action
}

func strPtr(s string) *string { return &s }

// blankToNil turns "" into a cleared reference.
func blankToNil(s *string) *string {
	if s == nil || *s == "" {
		return nil
	}
	return s
}
