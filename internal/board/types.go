// Package board mirrors the signed-in user's tasks and categories in memory
// and derives the column layout shown on the board.
package board

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrTaskNotFound     = errors.New("task not found")
	ErrCategoryNotFound = errors.New("category not found")
	ErrDuplicateID      = errors.New("entity already exists")
)

// Task is the client-side copy of a task. A task belongs to at most one
// category as far as the board is concerned.
type Task struct {
	ID                uuid.UUID
	Title             string
	PrimaryCategoryID *uuid.UUID
	// Placeholder is set while a create is in flight and the ID is local.
	Placeholder bool
}

// InCategory reports whether id is the task's primary category.
func (t Task) InCategory(id uuid.UUID) bool {
	return t.PrimaryCategoryID != nil && *t.PrimaryCategoryID == id
}

func (t Task) clone() Task {
	if t.PrimaryCategoryID != nil {
		id := *t.PrimaryCategoryID
		t.PrimaryCategoryID = &id
	}
	return t
}

type Category struct {
	ID          uuid.UUID
	Title       string
	Placeholder bool
}

// CategoryRef returns a pointer to a copy of id, for use as PrimaryCategoryID.
func CategoryRef(id uuid.UUID) *uuid.UUID {
	return &id
}
