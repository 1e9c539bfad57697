package coordinator

import (
	"errors"
	"net/http"

	"taskboard/internal/api"
	"taskboard/internal/board"
	"taskboard/internal/session"
)

// Precondition failures returned by Submit before anything is applied.
var (
	ErrBlankTitle      = errors.New("title is required")
	ErrTitleTooLong    = errors.New("title may not be greater than 255 characters")
	ErrInvalidCategory = errors.New("the selected category is invalid")
	ErrNoChange        = errors.New("task is already in that category")
	ErrEntityPending   = errors.New("entity is still being created")
	ErrBusy            = errors.New("a refresh is already in progress")
)

// MaxTitleLength matches the server's limit on task and category titles.
const MaxTitleLength = 255

// Failure is how a rejected mutation is reported: one human-readable message
// plus the underlying cause.
type Failure struct {
	Mutation board.Mutation
	Message  string
	Err      error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

func failureMessage(m board.Mutation, err error) string {
	switch status := api.StatusOf(err); {
	case status == http.StatusUnauthorized, errors.Is(err, session.ErrInvalidSession):
		return "Your session has expired. Please sign in again."
	case status == http.StatusForbidden:
		return "You are not allowed to change this item."
	case status == http.StatusUnprocessableEntity:
		return "The given data was invalid."
	}

	switch m.Kind() {
	case board.KindCreateTask:
		return "Failed to create task."
	case board.KindUpdateTask:
		return "Failed to update task."
	case board.KindDeleteTask:
		return "Failed to delete task."
	case board.KindMoveTask:
		return "Failed to update task category."
	case board.KindCreateCategory:
		return "Failed to create category."
	case board.KindUpdateCategory:
		return "Failed to update category."
	case board.KindDeleteCategory:
		return "Failed to delete category."
	default:
		return "Something went wrong."
	}
}
