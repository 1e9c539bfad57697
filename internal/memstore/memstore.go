// Package memstore keeps users, tasks and categories in process memory.
// It satisfies the same store interfaces as the gorm repositories and backs
// the HTTP router in tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"taskboard/internal/model"
	"taskboard/internal/repository"
)

type Store struct {
	mu         sync.RWMutex
	clock      func() time.Time
	users      map[uuid.UUID]model.User
	tasks      map[uuid.UUID]model.Task
	categories map[uuid.UUID]model.Category
	// links holds the category ids of each task in attach order.
	links map[uuid.UUID][]uuid.UUID
}

func New() *Store {
	var tick int64
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &Store{
		// Strictly increasing timestamps keep created_at ordering stable.
		clock: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Millisecond)
		},
		users:      map[uuid.UUID]model.User{},
		tasks:      map[uuid.UUID]model.Task{},
		categories: map[uuid.UUID]model.Category{},
		links:      map[uuid.UUID][]uuid.UUID{},
	}
}

// Users returns a view of the store for the user endpoints.
func (s *Store) Users() *Users { return &Users{s} }

// Tasks returns a view of the store for the task endpoints.
func (s *Store) Tasks() *Tasks { return &Tasks{s} }

// Categories returns a view of the store for the category endpoints.
func (s *Store) Categories() *Categories { return &Categories{s} }

type Users struct{ s *Store }

func (u *Users) Create(_ context.Context, user *model.User) error {
	u.s.mu.Lock()
	defer u.s.mu.Unlock()
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.Email = model.NormalizeEmail(user.Email)
	user.CreatedAt = u.s.clock()
	u.s.users[user.ID] = *user
	return nil
}

func (u *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	u.s.mu.RLock()
	defer u.s.mu.RUnlock()
	email = model.NormalizeEmail(email)
	for _, user := range u.s.users {
		if user.Email == email {
			found := user
			return &found, nil
		}
	}
	return nil, nil
}

type Tasks struct{ s *Store }

func (t *Tasks) List(_ context.Context, filter repository.TaskFilter) ([]model.Task, int64, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()

	var matched []model.Task
	for _, task := range t.s.tasks {
		if task.UserID != filter.UserID {
			continue
		}
		if filter.CategoryID != nil && !containsID(t.s.links[task.ID], *filter.CategoryID) {
			continue
		}
		matched = append(matched, t.s.withCategories(task))
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].ID.String() < matched[j].ID.String()
	})

	total := int64(len(matched))
	if filter.Page > 0 && filter.PerPage > 0 {
		start := (filter.Page - 1) * filter.PerPage
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filter.PerPage
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}
	return matched, total, nil
}

func (t *Tasks) GetByID(_ context.Context, id uuid.UUID) (*model.Task, error) {
	t.s.mu.RLock()
	defer t.s.mu.RUnlock()
	task, ok := t.s.tasks[id]
	if !ok {
		return nil, repository.ErrTaskNotFound
	}
	task = t.s.withCategories(task)
	return &task, nil
}

func (t *Tasks) Create(_ context.Context, task *model.Task, categoryID uuid.UUID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := t.s.clock()
	task.CreatedAt, task.UpdatedAt = now, now
	stored := *task
	stored.Categories = nil
	t.s.tasks[task.ID] = stored
	t.s.links[task.ID] = []uuid.UUID{categoryID}
	return nil
}

func (t *Tasks) Update(_ context.Context, task *model.Task, categoryID uuid.UUID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	stored, ok := t.s.tasks[task.ID]
	if !ok {
		return repository.ErrTaskNotFound
	}
	stored.Title = task.Title
	stored.UpdatedAt = t.s.clock()
	t.s.tasks[task.ID] = stored
	t.s.links[task.ID] = []uuid.UUID{categoryID}
	return nil
}

func (t *Tasks) Delete(_ context.Context, id uuid.UUID) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if _, ok := t.s.tasks[id]; !ok {
		return repository.ErrTaskNotFound
	}
	delete(t.s.tasks, id)
	delete(t.s.links, id)
	return nil
}

type Categories struct{ s *Store }

func (c *Categories) Create(_ context.Context, category *model.Category) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if category.ID == uuid.Nil {
		category.ID = uuid.New()
	}
	now := c.s.clock()
	category.CreatedAt, category.UpdatedAt = now, now
	c.s.categories[category.ID] = *category
	return nil
}

func (c *Categories) GetByID(_ context.Context, id uuid.UUID) (*model.Category, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	category, ok := c.s.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return &category, nil
}

func (c *Categories) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Category, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	var out []model.Category
	for _, category := range c.s.categories {
		if category.UserID == userID {
			out = append(out, category)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (c *Categories) Update(_ context.Context, category *model.Category) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	stored, ok := c.s.categories[category.ID]
	if !ok || stored.UserID != category.UserID {
		return repository.ErrCategoryNotFound
	}
	stored.Title = category.Title
	stored.UpdatedAt = c.s.clock()
	c.s.categories[category.ID] = stored
	*category = stored
	return nil
}

func (c *Categories) Delete(_ context.Context, userID, id uuid.UUID) error {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	stored, ok := c.s.categories[id]
	if !ok || stored.UserID != userID {
		return repository.ErrCategoryNotFound
	}
	delete(c.s.categories, id)
	for taskID, ids := range c.s.links {
		c.s.links[taskID] = removeID(ids, id)
	}
	return nil
}

// withCategories must be called with s.mu held.
func (s *Store) withCategories(task model.Task) model.Task {
	task.Categories = nil
	for _, id := range s.links[task.ID] {
		if category, ok := s.categories[id]; ok {
			task.Categories = append(task.Categories, category)
		}
	}
	return task
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}

func removeID(ids []uuid.UUID, id uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, candidate := range ids {
		if candidate != id {
			out = append(out, candidate)
		}
	}
	return out
}
