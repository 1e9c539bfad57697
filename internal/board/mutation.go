package board

import "github.com/google/uuid"

type Kind int

const (
	KindCreateTask Kind = iota + 1
	KindUpdateTask
	KindDeleteTask
	KindMoveTask
	KindCreateCategory
	KindUpdateCategory
	KindDeleteCategory
)

func (k Kind) String() string {
	switch k {
	case KindCreateTask:
		return "create_task"
	case KindUpdateTask:
		return "update_task"
	case KindDeleteTask:
		return "delete_task"
	case KindMoveTask:
		return "move_task"
	case KindCreateCategory:
		return "create_category"
	case KindUpdateCategory:
		return "update_category"
	case KindDeleteCategory:
		return "delete_category"
	default:
		return "unknown"
	}
}

// IsTask reports whether the mutation kind targets a task.
func (k Kind) IsTask() bool {
	return k >= KindCreateTask && k <= KindMoveTask
}

// EntityKey identifies the entity a mutation targets, e.g. "task:<id>".
type EntityKey string

func TaskKey(id uuid.UUID) EntityKey     { return EntityKey("task:" + id.String()) }
func CategoryKey(id uuid.UUID) EntityKey { return EntityKey("category:" + id.String()) }

// Mutation is one user intent against the board. The set of implementations
// is closed: CreateTask, UpdateTask, DeleteTask, MoveTask, CreateCategory,
// UpdateCategory and DeleteCategory.
type Mutation interface {
	Kind() Kind
	EntityKey() EntityKey
	isMutation()
}

// CreateTask adds a task under a local placeholder id until the server
// assigns the real one.
type CreateTask struct {
	Placeholder uuid.UUID
	Title       string
	CategoryID  uuid.UUID
}

type UpdateTask struct {
	TaskID     uuid.UUID
	Title      string
	CategoryID uuid.UUID
}

type DeleteTask struct {
	TaskID uuid.UUID
}

// MoveTask reassigns a task's primary category. Title is sent back unchanged.
type MoveTask struct {
	TaskID     uuid.UUID
	Title      string
	CategoryID uuid.UUID
}

type CreateCategory struct {
	Placeholder uuid.UUID
	Title       string
}

type UpdateCategory struct {
	CategoryID uuid.UUID
	Title      string
}

type DeleteCategory struct {
	CategoryID uuid.UUID
}

func (CreateTask) Kind() Kind     { return KindCreateTask }
func (UpdateTask) Kind() Kind     { return KindUpdateTask }
func (DeleteTask) Kind() Kind     { return KindDeleteTask }
func (MoveTask) Kind() Kind       { return KindMoveTask }
func (CreateCategory) Kind() Kind { return KindCreateCategory }
func (UpdateCategory) Kind() Kind { return KindUpdateCategory }
func (DeleteCategory) Kind() Kind { return KindDeleteCategory }

func (m CreateTask) EntityKey() EntityKey     { return TaskKey(m.Placeholder) }
func (m UpdateTask) EntityKey() EntityKey     { return TaskKey(m.TaskID) }
func (m DeleteTask) EntityKey() EntityKey     { return TaskKey(m.TaskID) }
func (m MoveTask) EntityKey() EntityKey       { return TaskKey(m.TaskID) }
func (m CreateCategory) EntityKey() EntityKey { return CategoryKey(m.Placeholder) }
func (m UpdateCategory) EntityKey() EntityKey { return CategoryKey(m.CategoryID) }
func (m DeleteCategory) EntityKey() EntityKey { return CategoryKey(m.CategoryID) }

func (CreateTask) isMutation()     {}
func (UpdateTask) isMutation()     {}
func (DeleteTask) isMutation()     {}
func (MoveTask) isMutation()       {}
func (CreateCategory) isMutation() {}
func (UpdateCategory) isMutation() {}
func (DeleteCategory) isMutation() {}
