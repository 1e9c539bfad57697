// Package drag turns card drag gestures into task moves.
package drag

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"taskboard/internal/board"
	"taskboard/internal/coordinator"
)

type State int

const (
	Idle State = iota
	Dragging
	CandidateDrop
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	case CandidateDrop:
		return "candidate-drop"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Submitter queues a mutation. *coordinator.Coordinator implements it.
type Submitter interface {
	Submit(ctx context.Context, m board.Mutation) (*coordinator.Op, error)
}

// TaskLookup reads the current copy of a task. *board.Store implements it.
type TaskLookup interface {
	Task(id uuid.UUID) (board.Task, bool)
}

var (
	_ Submitter  = (*coordinator.Coordinator)(nil)
	_ TaskLookup = (*board.Store)(nil)
)

type Handler struct {
	submit Submitter
	tasks  TaskLookup

	mu     sync.Mutex
	state  State
	taskID uuid.UUID
	over   uuid.UUID
}

func NewHandler(submit Submitter, tasks TaskLookup) *Handler {
	return &Handler{submit: submit, tasks: tasks}
}

// DragStart records the card being dragged.
func (h *Handler) DragStart(taskID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state = Dragging
	h.taskID = taskID
	h.over = uuid.Nil
}

// DragOver reports whether the column accepts a drop. The unassigned column
// (uuid.Nil) never does.
func (h *Handler) DragOver(categoryID uuid.UUID) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == Idle || categoryID == uuid.Nil {
		return false
	}
	h.state = CandidateDrop
	h.over = categoryID
	return true
}

// Drop moves the dragged task to categoryID. Dropping on the task's own
// column returns (nil, nil) and sends nothing. The handler is back to Idle
// when Drop returns, whatever the outcome.
func (h *Handler) Drop(ctx context.Context, categoryID uuid.UUID) (*coordinator.Op, error) {
	h.mu.Lock()
	state, taskID := h.state, h.taskID
	h.reset()
	h.mu.Unlock()

	if state == Idle || categoryID == uuid.Nil {
		return nil, nil
	}

	task, ok := h.tasks.Task(taskID)
	if !ok {
		return nil, fmt.Errorf("drop task %s: %w", taskID, board.ErrTaskNotFound)
	}
	if task.InCategory(categoryID) {
		return nil, nil
	}

	return h.submit.Submit(ctx, board.MoveTask{
		TaskID:     task.ID,
		Title:      task.Title,
		CategoryID: categoryID,
	})
}

// DragEnd cancels the gesture.
func (h *Handler) DragEnd() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reset()
}

func (h *Handler) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Target is the column last dragged over, or uuid.Nil outside CandidateDrop.
func (h *Handler) Target() uuid.UUID {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.over
}

func (h *Handler) reset() {
	h.state = Idle
	h.taskID = uuid.Nil
	h.over = uuid.Nil
}
