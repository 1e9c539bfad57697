package api

import (
	"time"

	"github.com/google/uuid"
)

type CategoryRef struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}

type Task struct {
	ID         uuid.UUID     `json:"id"`
	Title      string        `json:"title"`
	CategoryID *uuid.UUID    `json:"category_id"`
	Category   []CategoryRef `json:"category"`
	CreatedAt  time.Time     `json:"created_at"`
	UpdatedAt  time.Time     `json:"updated_at"`
}

type TaskPage struct {
	Data        []Task `json:"data"`
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int64  `json:"total"`
}

// TaskInput is the body of task create and update requests.
type TaskInput struct {
	Title      string    `json:"title"`
	CategoryID uuid.UUID `json:"category_id"`
}

type Category struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type CategoryInput struct {
	Title string `json:"title"`
}

type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

// ListOptions selects one page of tasks. Zero values use server defaults.
type ListOptions struct {
	Page       int
	PerPage    int
	CategoryID *uuid.UUID
}
