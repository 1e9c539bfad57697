package board

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EventType says which store operation produced an Event.
type EventType int

const (
	EventLoad EventType = iota + 1
	EventApply
	EventCommit
	EventRollback
	EventReplace
)

// Event is delivered to subscribers after every store change.
type Event struct {
	Type EventType
	// Key is empty for EventLoad.
	Key EntityKey
}

// Snapshot captures one entity as it was before an optimistic mutation.
// The zero Snapshot restores nothing.
type Snapshot struct {
	key      EntityKey
	id       uuid.UUID
	task     *Task
	category *Category
	index    int
	next     uuid.UUID // entity that followed it, uuid.Nil when it was last
	isTask   bool
	valid    bool
}

// Key is the entity the snapshot belongs to.
func (s Snapshot) Key() EntityKey { return s.key }

// Valid reports whether Rollback would restore anything.
func (s Snapshot) Valid() bool { return s.valid }

// Store is the in-memory board state. Subscribers are called synchronously
// after each change, outside the store lock, so they may read the store.
type Store struct {
	mu         sync.RWMutex
	tasks      []Task
	categories []Category
	pending    map[EntityKey]int

	subMu  sync.Mutex
	subs   map[int]func(Event)
	nextID int
}

func NewStore() *Store {
	return &Store{
		pending: map[EntityKey]int{},
		subs:    map[int]func(Event){},
	}
}

// Subscribe registers fn and returns a function that removes it.
// Changes made by a coordinator are reported while it holds its lock, so fn
// must not call back into it; use Coordinator.Subscribe for that.
func (s *Store) Subscribe(fn func(Event)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(ev Event) {
	s.subMu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	// Registration order.
	for i := 0; i < s.nextID; i++ {
		if fn, ok := s.subs[i]; ok {
			fns = append(fns, fn)
		}
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// Load replaces all tasks and categories. Pending markers are cleared.
func (s *Store) Load(tasks []Task, categories []Category) {
	s.mu.Lock()
	s.tasks = cloneTasks(tasks)
	s.categories = append([]Category(nil), categories...)
	s.pending = map[EntityKey]int{}
	s.mu.Unlock()

	s.notify(Event{Type: EventLoad})
}

// LoadTasks replaces the task list and keeps categories.
func (s *Store) LoadTasks(tasks []Task) {
	s.mu.Lock()
	s.tasks = cloneTasks(tasks)
	for key := range s.pending {
		if isTaskKey(key) {
			delete(s.pending, key)
		}
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventLoad})
}

// ApplyOptimistic performs the in-memory effect of m and returns a snapshot
// of the affected entity taken before the change.
func (s *Store) ApplyOptimistic(m Mutation) (Snapshot, error) {
	s.mu.Lock()
	snap, err := s.apply(m)
	if err == nil {
		s.pending[snap.key]++
	}
	s.mu.Unlock()

	if err != nil {
		return Snapshot{}, err
	}
	s.notify(Event{Type: EventApply, Key: snap.key})
	return snap, nil
}

func (s *Store) apply(m Mutation) (Snapshot, error) {
	switch m := m.(type) {
	case CreateTask:
		if s.taskIndex(m.Placeholder) >= 0 {
			return Snapshot{}, fmt.Errorf("task %s: %w", m.Placeholder, ErrDuplicateID)
		}
		snap := s.taskSnapshot(m.Placeholder, -1)
		snap.index = len(s.tasks)
		s.tasks = append(s.tasks, Task{
			ID:                m.Placeholder,
			Title:             m.Title,
			PrimaryCategoryID: CategoryRef(m.CategoryID),
			Placeholder:       true,
		})
		return snap, nil

	case UpdateTask:
		return s.editTask(m.TaskID, func(t *Task) {
			t.Title = m.Title
			t.PrimaryCategoryID = CategoryRef(m.CategoryID)
		})

	case MoveTask:
		return s.editTask(m.TaskID, func(t *Task) {
			t.PrimaryCategoryID = CategoryRef(m.CategoryID)
		})

	case DeleteTask:
		i := s.taskIndex(m.TaskID)
		if i < 0 {
			return Snapshot{}, fmt.Errorf("task %s: %w", m.TaskID, ErrTaskNotFound)
		}
		snap := s.taskSnapshot(m.TaskID, i)
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
		return snap, nil

	case CreateCategory:
		if s.categoryIndex(m.Placeholder) >= 0 {
			return Snapshot{}, fmt.Errorf("category %s: %w", m.Placeholder, ErrDuplicateID)
		}
		snap := s.categorySnapshot(m.Placeholder, -1)
		snap.index = len(s.categories)
		s.categories = append(s.categories, Category{ID: m.Placeholder, Title: m.Title, Placeholder: true})
		return snap, nil

	case UpdateCategory:
		i := s.categoryIndex(m.CategoryID)
		if i < 0 {
			return Snapshot{}, fmt.Errorf("category %s: %w", m.CategoryID, ErrCategoryNotFound)
		}
		snap := s.categorySnapshot(m.CategoryID, i)
		s.categories[i].Title = m.Title
		return snap, nil

	case DeleteCategory:
		// Tasks keep their dangling reference and show as unassigned until
		// the category comes back or the server says otherwise.
		i := s.categoryIndex(m.CategoryID)
		if i < 0 {
			return Snapshot{}, fmt.Errorf("category %s: %w", m.CategoryID, ErrCategoryNotFound)
		}
		snap := s.categorySnapshot(m.CategoryID, i)
		s.categories = append(s.categories[:i], s.categories[i+1:]...)
		return snap, nil

	default:
		return Snapshot{}, fmt.Errorf("unsupported mutation %T", m)
	}
}

func (s *Store) editTask(id uuid.UUID, edit func(*Task)) (Snapshot, error) {
	i := s.taskIndex(id)
	if i < 0 {
		return Snapshot{}, fmt.Errorf("task %s: %w", id, ErrTaskNotFound)
	}
	snap := s.taskSnapshot(id, i)
	edit(&s.tasks[i])
	return snap, nil
}

// Commit marks one optimistic application of m as confirmed. Content is
// unchanged.
func (s *Store) Commit(m Mutation) {
	key := m.EntityKey()
	s.mu.Lock()
	s.release(key)
	s.mu.Unlock()

	s.notify(Event{Type: EventCommit, Key: key})
}

// Rollback restores the entity captured by snap to its exact prior state.
func (s *Store) Rollback(snap Snapshot) {
	if !snap.valid {
		return
	}

	s.mu.Lock()
	if snap.isTask {
		s.tasks = restore(s.tasks, snap.task, snap.id, snap.index, snap.next, Task.clone, func(t Task) uuid.UUID { return t.ID })
	} else {
		s.categories = restore(s.categories, snap.category, snap.id, snap.index, snap.next, func(c Category) Category { return c }, func(c Category) uuid.UUID { return c.ID })
	}
	s.release(snap.key)
	s.mu.Unlock()

	s.notify(Event{Type: EventRollback, Key: snap.key})
}

// restore puts prev back at its old position, or removes the entity when it
// did not exist before. A removed entity goes back in front of its old
// successor when that is still present, otherwise at its old index.
func restore[T any](items []T, prev *T, id uuid.UUID, index int, next uuid.UUID, clone func(T) T, idOf func(T) uuid.UUID) []T {
	current := -1
	for i, item := range items {
		if idOf(item) == id {
			current = i
		}
		if next != uuid.Nil && idOf(item) == next && prev != nil {
			index = i
		}
	}

	switch {
	case prev == nil && current >= 0:
		return append(items[:current], items[current+1:]...)
	case prev == nil:
		return items
	case current >= 0:
		items[current] = clone(*prev)
		return items
	default:
		if index < 0 {
			index = 0
		}
		if index > len(items) {
			index = len(items)
		}
		items = append(items, clone(*prev))
		copy(items[index+1:], items[index:])
		items[index] = clone(*prev)
		return items
	}
}

// SwapTask replaces the placeholder with the task the server created, in place.
func (s *Store) SwapTask(placeholder uuid.UUID, task Task) {
	s.mu.Lock()
	task = task.clone()
	task.Placeholder = false
	if i := s.taskIndex(placeholder); i >= 0 {
		s.tasks[i] = task
	} else if s.taskIndex(task.ID) < 0 {
		s.tasks = append(s.tasks, task)
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventReplace, Key: TaskKey(task.ID)})
}

// SwapCategory replaces a placeholder category id with the server's.
func (s *Store) SwapCategory(placeholder uuid.UUID, category Category) {
	s.mu.Lock()
	category.Placeholder = false
	if i := s.categoryIndex(placeholder); i >= 0 {
		s.categories[i] = category
	} else if s.categoryIndex(category.ID) < 0 {
		s.categories = append(s.categories, category)
	}
	s.mu.Unlock()

	s.notify(Event{Type: EventReplace, Key: CategoryKey(category.ID)})
}

// PutTask inserts task, or replaces the task with the same id.
func (s *Store) PutTask(task Task) {
	s.SwapTask(task.ID, task)
}

// PutCategory inserts category, or replaces the category with the same id.
func (s *Store) PutCategory(category Category) {
	s.SwapCategory(category.ID, category)
}

// Pending reports whether key has unconfirmed optimistic changes.
func (s *Store) Pending(key EntityKey) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pending[key] > 0
}

func (s *Store) Tasks() []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneTasks(s.tasks)
}

func (s *Store) Categories() []Category {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Category(nil), s.categories...)
}

func (s *Store) Task(id uuid.UUID) (Task, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.taskIndex(id); i >= 0 {
		return s.tasks[i].clone(), true
	}
	return Task{}, false
}

func (s *Store) Category(id uuid.UUID) (Category, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.categoryIndex(id); i >= 0 {
		return s.categories[i], true
	}
	return Category{}, false
}

// TasksInCategory returns the tasks shown in the column of category id. It is
// empty when the category is not in the store, since its tasks are then
// shown as unassigned.
func (s *Store) TasksInCategory(id uuid.UUID) []Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.categoryIndex(id) < 0 {
		return nil
	}
	var out []Task
	for _, t := range s.tasks {
		if t.InCategory(id) {
			out = append(out, t.clone())
		}
	}
	return out
}

func (s *Store) release(key EntityKey) {
	if s.pending[key] <= 1 {
		delete(s.pending, key)
		return
	}
	s.pending[key]--
}

func (s *Store) taskSnapshot(id uuid.UUID, i int) Snapshot {
	snap := Snapshot{key: TaskKey(id), id: id, index: i, isTask: true, valid: true}
	if i >= 0 {
		prev := s.tasks[i].clone()
		snap.task = &prev
		if i+1 < len(s.tasks) {
			snap.next = s.tasks[i+1].ID
		}
	}
	return snap
}

func (s *Store) categorySnapshot(id uuid.UUID, i int) Snapshot {
	snap := Snapshot{key: CategoryKey(id), id: id, index: i, valid: true}
	if i >= 0 {
		prev := s.categories[i]
		snap.category = &prev
		if i+1 < len(s.categories) {
			snap.next = s.categories[i+1].ID
		}
	}
	return snap
}

func (s *Store) taskIndex(id uuid.UUID) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) categoryIndex(id uuid.UUID) int {
	for i := range s.categories {
		if s.categories[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneTasks(tasks []Task) []Task {
	if len(tasks) == 0 {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.clone()
	}
	return out
}

func isTaskKey(key EntityKey) bool {
	return len(key) > 5 && key[:5] == "task:"
}
