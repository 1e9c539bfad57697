package cli

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"taskboard/internal/api"
	"taskboard/internal/board"
)

const shortIDLen = 8

func shortID(id uuid.UUID) string {
	return id.String()[:shortIDLen]
}

// resolveTask accepts a full id or a unique id prefix.
func resolveTask(store *board.Store, ref string) (board.Task, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if task, ok := store.Task(id); ok {
			return task, nil
		}
		return board.Task{}, fmt.Errorf("task %s: %w", ref, board.ErrTaskNotFound)
	}

	var found []board.Task
	for _, task := range store.Tasks() {
		if strings.HasPrefix(task.ID.String(), strings.ToLower(ref)) {
			found = append(found, task)
		}
	}
	switch len(found) {
	case 0:
		return board.Task{}, fmt.Errorf("task %s: %w", ref, board.ErrTaskNotFound)
	case 1:
		return found[0], nil
	default:
		return board.Task{}, fmt.Errorf("task id %q is ambiguous", ref)
	}
}

// resolveCategory accepts a full id, a unique id prefix or a title.
func resolveCategory(store *board.Store, ref string) (board.Category, error) {
	if id, err := uuid.Parse(ref); err == nil {
		if category, ok := store.Category(id); ok {
			return category, nil
		}
		return board.Category{}, fmt.Errorf("category %s: %w", ref, board.ErrCategoryNotFound)
	}

	var byTitle, byPrefix []board.Category
	for _, category := range store.Categories() {
		if strings.EqualFold(category.Title, ref) {
			byTitle = append(byTitle, category)
		}
		if strings.HasPrefix(category.ID.String(), strings.ToLower(ref)) {
			byPrefix = append(byPrefix, category)
		}
	}
	for _, found := range [][]board.Category{byTitle, byPrefix} {
		switch len(found) {
		case 0:
			continue
		case 1:
			return found[0], nil
		default:
			return board.Category{}, fmt.Errorf("category %q is ambiguous", ref)
		}
	}
	return board.Category{}, fmt.Errorf("category %s: %w", ref, board.ErrCategoryNotFound)
}

// describe turns a server validation error into a readable one.
func describe(err error) error {
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || len(apiErr.Fields) == 0 {
		return err
	}

	fields := make([]string, 0, len(apiErr.Fields))
	for field := range apiErr.Fields {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var b strings.Builder
	b.WriteString(apiErr.Message)
	for _, field := range fields {
		for _, msg := range apiErr.Fields[field] {
			fmt.Fprintf(&b, "\n  %s: %s", field, msg)
		}
	}
	return errors.New(b.String())
}
