// Package coordinator applies board mutations optimistically, sends them to
// the API one at a time per entity, and reconciles the store with the result.
package coordinator

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"taskboard/internal/api"
	"taskboard/internal/board"
	"taskboard/internal/session"
)

// API is the subset of the HTTP client the coordinator drives.
type API interface {
	AllTasks(ctx context.Context) ([]api.Task, error)
	ListCategories(ctx context.Context) ([]api.Category, error)
	CreateTask(ctx context.Context, in api.TaskInput) (*api.Task, error)
	UpdateTask(ctx context.Context, id uuid.UUID, in api.TaskInput) (*api.Task, error)
	DeleteTask(ctx context.Context, id uuid.UUID) error
	CreateCategory(ctx context.Context, in api.CategoryInput) (*api.Category, error)
	UpdateCategory(ctx context.Context, id uuid.UUID, in api.CategoryInput) (*api.Category, error)
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

var _ API = (*api.Client)(nil)

// Op is one submitted mutation. It resolves once the server has answered
// and the store has been reconciled.
type Op struct {
	seq      uint64
	mutation board.Mutation
	ctx      context.Context
	snap     board.Snapshot

	done chan struct{}
	err  error
}

func (o *Op) Mutation() board.Mutation { return o.mutation }

func (o *Op) Done() <-chan struct{} { return o.done }

// Err is nil until the op resolves, and nil afterwards when it succeeded.
// Failures are *Failure values.
func (o *Op) Err() error {
	select {
	case <-o.done:
		return o.err
	default:
		return nil
	}
}

// Wait blocks until the op resolves or ctx ends.
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (o *Op) finish(err error) {
	o.err = err
	close(o.done)
}

type Option func(*Coordinator)

// WithSession refuses new mutations once s is no longer valid.
func WithSession(s *session.Session) Option {
	return func(c *Coordinator) { c.session = s }
}

func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Coordinator) { c.log = l }
}

// WithErrorHandler receives the message for every failed mutation.
func WithErrorHandler(fn func(*Failure)) Option {
	return func(c *Coordinator) { c.onError = fn }
}

type Coordinator struct {
	store   *board.Store
	api     API
	session *session.Session
	log     logrus.FieldLogger
	onError func(*Failure)

	mu      sync.Mutex
	seq     uint64
	queues  map[board.EntityKey][]*Op
	pending []*Op // unresolved ops in issue order

	// late records confirmations that land while a reload is fetching, so
	// the reload does not overwrite them with older server data.
	reloading bool
	late      []lateCommit

	reloadMu   sync.Mutex
	refreshing atomic.Bool
	wg         sync.WaitGroup

	// Store events raised while mu is held are buffered and delivered to
	// Subscribe callbacks after it is released.
	held     atomic.Bool
	evMu     sync.Mutex
	events   []board.Event
	flushing bool
	subs     map[int]func(board.Event)
	nextSub  int
}

type lateCommit struct {
	mutation board.Mutation
	task     *board.Task
	category *board.Category
}

func New(store *board.Store, client API, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:  store,
		api:    client,
		log:    logrus.StandardLogger(),
		queues: map[board.EntityKey][]*Op{},
		subs:   map[int]func(board.Event){},
	}
	for _, opt := range opts {
		opt(c)
	}
	store.Subscribe(c.enqueue)
	return c
}

func (c *Coordinator) Store() *board.Store { return c.store }

// Subscribe registers fn for store events and returns a function that
// removes it. fn runs without coordinator locks held, so it may call Submit.
func (c *Coordinator) Subscribe(fn func(board.Event)) func() {
	c.evMu.Lock()
	defer c.evMu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.evMu.Lock()
		defer c.evMu.Unlock()
		delete(c.subs, id)
	}
}

func (c *Coordinator) enqueue(ev board.Event) {
	c.evMu.Lock()
	c.events = append(c.events, ev)
	c.evMu.Unlock()
	if !c.held.Load() {
		c.flush()
	}
}

// flush delivers buffered events in order. A callback that triggers more
// events finds flushing set and leaves them to the running loop.
func (c *Coordinator) flush() {
	c.evMu.Lock()
	if c.flushing {
		c.evMu.Unlock()
		return
	}
	c.flushing = true
	for len(c.events) > 0 {
		ev := c.events[0]
		c.events = c.events[1:]
		fns := make([]func(board.Event), 0, len(c.subs))
		for i := 0; i < c.nextSub; i++ {
			if fn, ok := c.subs[i]; ok {
				fns = append(fns, fn)
			}
		}
		c.evMu.Unlock()
		for _, fn := range fns {
			fn(ev)
		}
		c.evMu.Lock()
	}
	c.flushing = false
	c.evMu.Unlock()
}

func (c *Coordinator) lock() {
	c.mu.Lock()
	c.held.Store(true)
}

func (c *Coordinator) unlock() {
	c.held.Store(false)
	c.mu.Unlock()
	c.flush()
}

// Submit validates m against the current board, applies it to the store and
// queues the API call behind any earlier mutation of the same entity.
func (c *Coordinator) Submit(ctx context.Context, m board.Mutation) (*Op, error) {
	if c.session != nil && !c.session.Valid() {
		return nil, session.ErrInvalidSession
	}
	m = withPlaceholder(m)

	c.lock()
	defer c.unlock()

	if err := c.validate(m); err != nil {
		return nil, err
	}
	snap, err := c.store.ApplyOptimistic(m)
	if err != nil {
		return nil, err
	}

	c.seq++
	op := &Op{seq: c.seq, mutation: m, ctx: ctx, snap: snap, done: make(chan struct{})}
	c.pending = append(c.pending, op)

	key := m.EntityKey()
	c.queues[key] = append(c.queues[key], op)
	if len(c.queues[key]) == 1 {
		c.wg.Add(1)
		go c.run(key)
	}

	c.log.WithFields(logrus.Fields{
		"kind":   m.Kind().String(),
		"entity": string(key),
		"queued": len(c.queues[key]) - 1,
	}).Debug("mutation applied")
	return op, nil
}

// Do submits m and waits for it to resolve.
func (c *Coordinator) Do(ctx context.Context, m board.Mutation) error {
	op, err := c.Submit(ctx, m)
	if err != nil {
		return err
	}
	return op.Wait(ctx)
}

// Wait blocks until every submitted op has resolved.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// Refresh reloads categories and tasks from the server and re-applies
// unresolved mutations on top. Only one refresh runs at a time.
func (c *Coordinator) Refresh(ctx context.Context) error {
	if !c.refreshing.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer c.refreshing.Store(false)
	return c.reload(ctx, true)
}

// Refreshing reports whether a Refresh is in progress.
func (c *Coordinator) Refreshing() bool {
	return c.refreshing.Load()
}

func (c *Coordinator) run(key board.EntityKey) {
	defer c.wg.Done()

	for {
		c.lock()
		op := c.queues[key][0]
		c.unlock()

		result, err := c.send(op)

		c.lock()
		refetch := false
		if err != nil {
			c.rebase(key, op)
		} else {
			refetch = c.confirm(op, result)
		}
		c.queues[key] = c.queues[key][1:]
		more := len(c.queues[key]) > 0
		if !more {
			delete(c.queues, key)
		}
		c.removePending(op)
		c.unlock()

		if err != nil {
			failure := &Failure{Mutation: op.mutation, Message: failureMessage(op.mutation, err), Err: err}
			c.log.WithError(err).WithFields(logrus.Fields{
				"kind":   op.mutation.Kind().String(),
				"entity": string(key),
			}).Warn("mutation rolled back")
			if c.onError != nil {
				c.onError(failure)
			}
			op.finish(failure)
		} else {
			if refetch {
				if rerr := c.reload(op.ctx, false); rerr != nil {
					c.log.WithError(rerr).Warn("task refetch after create failed")
				}
			}
			op.finish(nil)
		}

		if !more {
			return
		}
	}
}

func (c *Coordinator) send(op *Op) (any, error) {
	ctx := op.ctx
	switch m := op.mutation.(type) {
	case board.CreateTask:
		return c.api.CreateTask(ctx, api.TaskInput{Title: m.Title, CategoryID: m.CategoryID})
	case board.UpdateTask:
		return c.api.UpdateTask(ctx, m.TaskID, api.TaskInput{Title: m.Title, CategoryID: m.CategoryID})
	case board.MoveTask:
		return c.api.UpdateTask(ctx, m.TaskID, api.TaskInput{Title: m.Title, CategoryID: m.CategoryID})
	case board.DeleteTask:
		return nil, c.api.DeleteTask(ctx, m.TaskID)
	case board.CreateCategory:
		return c.api.CreateCategory(ctx, api.CategoryInput{Title: m.Title})
	case board.UpdateCategory:
		return c.api.UpdateCategory(ctx, m.CategoryID, api.CategoryInput{Title: m.Title})
	case board.DeleteCategory:
		return nil, c.api.DeleteCategory(ctx, m.CategoryID)
	default:
		return nil, fmt.Errorf("unsupported mutation %T", m)
	}
}

// confirm must be called with c.mu held. It reports whether the task list
// should be refetched.
func (c *Coordinator) confirm(op *Op, result any) bool {
	c.store.Commit(op.mutation)

	switch m := op.mutation.(type) {
	case board.CreateTask:
		created := taskFromAPI(*result.(*api.Task))
		c.store.SwapTask(m.Placeholder, created)
		c.noteLate(lateCommit{task: &created})
		return true
	case board.CreateCategory:
		created := categoryFromAPI(*result.(*api.Category))
		c.store.SwapCategory(m.Placeholder, created)
		c.noteLate(lateCommit{category: &created})
	default:
		c.noteLate(lateCommit{mutation: op.mutation})
	}
	return false
}

// rebase undoes a failed op while keeping the intent of the ops queued
// behind it: later ops are rolled back newest first, the failed op is rolled
// back, and the later ops are applied again on the restored state.
// Must be called with c.mu held.
func (c *Coordinator) rebase(key board.EntityKey, failed *Op) {
	later := c.queues[key][1:]
	for i := len(later) - 1; i >= 0; i-- {
		c.store.Rollback(later[i].snap)
	}
	c.store.Rollback(failed.snap)
	for _, op := range later {
		op.snap = c.reapply(op.mutation)
	}
}

func (c *Coordinator) reapply(m board.Mutation) board.Snapshot {
	snap, err := c.store.ApplyOptimistic(m)
	if err != nil {
		c.log.WithError(err).WithField("kind", m.Kind().String()).Debug("pending mutation no longer applies")
		return board.Snapshot{}
	}
	return snap
}

func (c *Coordinator) noteLate(l lateCommit) {
	if c.reloading {
		c.late = append(c.late, l)
	}
}

func (c *Coordinator) removePending(op *Op) {
	for i, p := range c.pending {
		if p == op {
			c.pending = append(c.pending[:i], c.pending[i+1:]...)
			return
		}
	}
}

// reload fetches server state and rebuilds the store from it. Confirmations
// that arrived during the fetch are replayed, then every unresolved op is
// applied again in issue order.
func (c *Coordinator) reload(ctx context.Context, withCategories bool) error {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	c.lock()
	c.reloading = true
	c.late = nil
	c.unlock()
	defer func() {
		c.lock()
		c.reloading = false
		c.late = nil
		c.unlock()
	}()

	var categories []api.Category
	if withCategories {
		var err error
		if categories, err = c.api.ListCategories(ctx); err != nil {
			return fmt.Errorf("list categories: %w", err)
		}
	}
	tasks, err := c.api.AllTasks(ctx)
	if err != nil {
		return fmt.Errorf("list tasks: %w", err)
	}

	c.lock()
	defer c.unlock()

	if withCategories {
		c.store.Load(tasksFromAPI(tasks), categoriesFromAPI(categories))
	} else {
		c.store.LoadTasks(tasksFromAPI(tasks))
	}
	for _, l := range c.late {
		c.replay(l, withCategories)
	}
	for _, op := range c.pending {
		if withCategories || op.mutation.Kind().IsTask() {
			op.snap = c.reapply(op.mutation)
		}
	}
	return nil
}

func (c *Coordinator) replay(l lateCommit, withCategories bool) {
	switch {
	case l.task != nil:
		c.store.PutTask(*l.task)
	case l.category != nil:
		if withCategories {
			c.store.PutCategory(*l.category)
		}
	case l.mutation != nil:
		if !withCategories && !l.mutation.Kind().IsTask() {
			return
		}
		if _, err := c.store.ApplyOptimistic(l.mutation); err == nil {
			c.store.Commit(l.mutation)
		}
	}
}

// validate must be called with c.mu held.
func (c *Coordinator) validate(m board.Mutation) error {
	switch m := m.(type) {
	case board.CreateTask:
		if err := checkTitle(m.Title); err != nil {
			return err
		}
		return c.checkTarget(m.CategoryID)

	case board.UpdateTask:
		if _, err := c.liveTask(m.TaskID); err != nil {
			return err
		}
		if err := checkTitle(m.Title); err != nil {
			return err
		}
		return c.checkTarget(m.CategoryID)

	case board.MoveTask:
		task, err := c.liveTask(m.TaskID)
		if err != nil {
			return err
		}
		if err := checkTitle(m.Title); err != nil {
			return err
		}
		if task.InCategory(m.CategoryID) {
			return ErrNoChange
		}
		return c.checkTarget(m.CategoryID)

	case board.DeleteTask:
		_, err := c.liveTask(m.TaskID)
		return err

	case board.CreateCategory:
		return checkTitle(m.Title)

	case board.UpdateCategory:
		if err := c.liveCategory(m.CategoryID); err != nil {
			return err
		}
		return checkTitle(m.Title)

	case board.DeleteCategory:
		return c.liveCategory(m.CategoryID)

	default:
		return fmt.Errorf("unsupported mutation %T", m)
	}
}

func (c *Coordinator) liveTask(id uuid.UUID) (board.Task, error) {
	task, ok := c.store.Task(id)
	if !ok {
		return board.Task{}, board.ErrTaskNotFound
	}
	if task.Placeholder {
		return board.Task{}, ErrEntityPending
	}
	return task, nil
}

func (c *Coordinator) liveCategory(id uuid.UUID) error {
	category, ok := c.store.Category(id)
	if !ok {
		return board.ErrCategoryNotFound
	}
	if category.Placeholder {
		return ErrEntityPending
	}
	return nil
}

func (c *Coordinator) checkTarget(categoryID uuid.UUID) error {
	category, ok := c.store.Category(categoryID)
	if !ok {
		return ErrInvalidCategory
	}
	if category.Placeholder {
		return ErrEntityPending
	}
	return nil
}

func checkTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrBlankTitle
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return ErrTitleTooLong
	}
	return nil
}

func withPlaceholder(m board.Mutation) board.Mutation {
	switch m := m.(type) {
	case board.CreateTask:
		if m.Placeholder == uuid.Nil {
			m.Placeholder = uuid.New()
		}
		return m
	case board.CreateCategory:
		if m.Placeholder == uuid.Nil {
			m.Placeholder = uuid.New()
		}
		return m
	default:
		return m
	}
}
