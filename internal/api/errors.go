package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a non-2xx response from the server.
type Error struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// StatusOf returns the HTTP status carried by err, or 0 for transport failures.
func StatusOf(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsUnauthorized(err error) bool {
	status := StatusOf(err)
	return status == http.StatusUnauthorized || status == http.StatusForbidden
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}

func IsValidation(err error) bool {
	return StatusOf(err) == http.StatusUnprocessableEntity
}
