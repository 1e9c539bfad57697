package coordinator

import (
	"taskboard/internal/api"
	"taskboard/internal/board"
)

func taskFromAPI(t api.Task) board.Task {
	task := board.Task{ID: t.ID, Title: t.Title}
	switch {
	case t.CategoryID != nil:
		task.PrimaryCategoryID = board.CategoryRef(*t.CategoryID)
	case len(t.Category) > 0:
		task.PrimaryCategoryID = board.CategoryRef(t.Category[0].ID)
	}
	return task
}

func tasksFromAPI(in []api.Task) []board.Task {
	out := make([]board.Task, len(in))
	for i, t := range in {
		out[i] = taskFromAPI(t)
	}
	return out
}

func categoryFromAPI(c api.Category) board.Category {
	return board.Category{ID: c.ID, Title: c.Title}
}

func categoriesFromAPI(in []api.Category) []board.Category {
	out := make([]board.Category, len(in))
	for i, c := range in {
		out[i] = categoryFromAPI(c)
	}
	return out
}
