package board

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store       *Store
	todo, done  Category
	write, ship Task
	unassigned  Task
}

func newFixture() fixture {
	f := fixture{
		store: NewStore(),
		todo:  Category{ID: uuid.New(), Title: "Todo"},
		done:  Category{ID: uuid.New(), Title: "Done"},
	}
	f.write = Task{ID: uuid.New(), Title: "Write", PrimaryCategoryID: CategoryRef(f.todo.ID)}
	f.ship = Task{ID: uuid.New(), Title: "Ship", PrimaryCategoryID: CategoryRef(f.done.ID)}
	f.unassigned = Task{ID: uuid.New(), Title: "Loose"}
	f.store.Load([]Task{f.write, f.ship, f.unassigned}, []Category{f.todo, f.done})
	return f
}

func TestApplyThenRollbackRestoresState(t *testing.T) {
	f := newFixture()

	mutations := map[string]Mutation{
		"create task":     CreateTask{Placeholder: uuid.New(), Title: "New", CategoryID: f.todo.ID},
		"update task":     UpdateTask{TaskID: f.write.ID, Title: "Rewrite", CategoryID: f.done.ID},
		"delete task":     DeleteTask{TaskID: f.write.ID},
		"delete last":     DeleteTask{TaskID: f.unassigned.ID},
		"move task":       MoveTask{TaskID: f.ship.ID, Title: f.ship.Title, CategoryID: f.todo.ID},
		"create category": CreateCategory{Placeholder: uuid.New(), Title: "Later"},
		"update category": UpdateCategory{CategoryID: f.todo.ID, Title: "Backlog"},
		"delete category": DeleteCategory{CategoryID: f.todo.ID},
	}

	for name, m := range mutations {
		t.Run(name, func(t *testing.T) {
			tasks, categories, layout := f.store.Tasks(), f.store.Categories(), f.store.Board()

			snap, err := f.store.ApplyOptimistic(m)
			require.NoError(t, err)
			assert.True(t, f.store.Pending(m.EntityKey()))

			f.store.Rollback(snap)

			assert.Equal(t, tasks, f.store.Tasks())
			assert.Equal(t, categories, f.store.Categories())
			assert.Equal(t, layout, f.store.Board())
			assert.False(t, f.store.Pending(m.EntityKey()))
		})
	}
}

func TestApplyThenCommitKeepsState(t *testing.T) {
	f := newFixture()
	m := MoveTask{TaskID: f.write.ID, Title: f.write.Title, CategoryID: f.done.ID}

	_, err := f.store.ApplyOptimistic(m)
	require.NoError(t, err)
	applied := f.store.Tasks()

	f.store.Commit(m)

	assert.Equal(t, applied, f.store.Tasks())
	assert.False(t, f.store.Pending(m.EntityKey()))
	moved, ok := f.store.Task(f.write.ID)
	require.True(t, ok)
	assert.True(t, moved.InCategory(f.done.ID))
	assert.Equal(t, "Write", moved.Title)
}

func TestApplyOptimisticEffects(t *testing.T) {
	f := newFixture()

	placeholder := uuid.New()
	_, err := f.store.ApplyOptimistic(CreateTask{Placeholder: placeholder, Title: "Draft", CategoryID: f.done.ID})
	require.NoError(t, err)
	created, ok := f.store.Task(placeholder)
	require.True(t, ok)
	assert.True(t, created.Placeholder)
	assert.True(t, created.InCategory(f.done.ID))

	_, err = f.store.ApplyOptimistic(UpdateTask{TaskID: f.ship.ID, Title: "Shipped", CategoryID: f.todo.ID})
	require.NoError(t, err)
	updated, _ := f.store.Task(f.ship.ID)
	assert.Equal(t, "Shipped", updated.Title)
	assert.True(t, updated.InCategory(f.todo.ID))

	_, err = f.store.ApplyOptimistic(DeleteTask{TaskID: f.write.ID})
	require.NoError(t, err)
	_, ok = f.store.Task(f.write.ID)
	assert.False(t, ok)

	_, err = f.store.ApplyOptimistic(UpdateCategory{CategoryID: f.done.ID, Title: "Finished"})
	require.NoError(t, err)
	category, _ := f.store.Category(f.done.ID)
	assert.Equal(t, "Finished", category.Title)
}

func TestApplyOptimisticRejectsMissingEntities(t *testing.T) {
	f := newFixture()
	missing := uuid.New()

	for _, m := range []Mutation{
		UpdateTask{TaskID: missing, Title: "x", CategoryID: f.todo.ID},
		MoveTask{TaskID: missing, Title: "x", CategoryID: f.todo.ID},
		DeleteTask{TaskID: missing},
	} {
		_, err := f.store.ApplyOptimistic(m)
		assert.ErrorIs(t, err, ErrTaskNotFound, m.Kind().String())
	}
	for _, m := range []Mutation{
		UpdateCategory{CategoryID: missing, Title: "x"},
		DeleteCategory{CategoryID: missing},
	} {
		_, err := f.store.ApplyOptimistic(m)
		assert.ErrorIs(t, err, ErrCategoryNotFound, m.Kind().String())
	}

	_, err := f.store.ApplyOptimistic(CreateTask{Placeholder: f.write.ID, Title: "dup", CategoryID: f.todo.ID})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestRollbackOfStackedMutationsInReverseOrder(t *testing.T) {
	f := newFixture()
	before := f.store.Tasks()

	first, err := f.store.ApplyOptimistic(MoveTask{TaskID: f.write.ID, Title: "Write", CategoryID: f.done.ID})
	require.NoError(t, err)
	second, err := f.store.ApplyOptimistic(UpdateTask{TaskID: f.write.ID, Title: "Write more", CategoryID: f.todo.ID})
	require.NoError(t, err)
	third, err := f.store.ApplyOptimistic(DeleteTask{TaskID: f.write.ID})
	require.NoError(t, err)

	f.store.Rollback(third)
	f.store.Rollback(second)
	f.store.Rollback(first)

	assert.Equal(t, before, f.store.Tasks())
	assert.False(t, f.store.Pending(TaskKey(f.write.ID)))
}

func TestRollbackReinsertsAtClampedIndex(t *testing.T) {
	f := newFixture()

	snap, err := f.store.ApplyOptimistic(DeleteTask{TaskID: f.unassigned.ID})
	require.NoError(t, err)
	_, err = f.store.ApplyOptimistic(DeleteTask{TaskID: f.ship.ID})
	require.NoError(t, err)

	f.store.Rollback(snap)

	tasks := f.store.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, f.write.ID, tasks[0].ID)
	assert.Equal(t, f.unassigned.ID, tasks[1].ID)
}

func TestRollbackReinsertsBeforeOldSuccessor(t *testing.T) {
	s := NewStore()
	a, b, c, d := Task{ID: uuid.New(), Title: "A"}, Task{ID: uuid.New(), Title: "B"}, Task{ID: uuid.New(), Title: "C"}, Task{ID: uuid.New(), Title: "D"}
	s.Load([]Task{a, b, c, d}, nil)

	snapC, err := s.ApplyOptimistic(DeleteTask{TaskID: c.ID})
	require.NoError(t, err)
	deleteA := DeleteTask{TaskID: a.ID}
	_, err = s.ApplyOptimistic(deleteA)
	require.NoError(t, err)
	s.Commit(deleteA)

	s.Rollback(snapC)

	assert.Equal(t, []Task{b, c, d}, s.Tasks())
}

func TestRollbackReinsertsCategoryBeforeOldSuccessor(t *testing.T) {
	s := NewStore()
	a, b, c := Category{ID: uuid.New(), Title: "A"}, Category{ID: uuid.New(), Title: "B"}, Category{ID: uuid.New(), Title: "C"}
	s.Load(nil, []Category{a, b, c})

	snapB, err := s.ApplyOptimistic(DeleteCategory{CategoryID: b.ID})
	require.NoError(t, err)
	_, err = s.ApplyOptimistic(DeleteCategory{CategoryID: a.ID})
	require.NoError(t, err)

	s.Rollback(snapB)

	assert.Equal(t, []Category{b, c}, s.Categories())
}

func TestZeroSnapshotRollbackIsNoop(t *testing.T) {
	f := newFixture()
	before := f.store.Tasks()
	events := 0
	f.store.Subscribe(func(Event) { events++ })

	f.store.Rollback(Snapshot{})

	assert.Equal(t, before, f.store.Tasks())
	assert.Zero(t, events)
}

func TestSubscribersNotifiedSynchronously(t *testing.T) {
	f := newFixture()
	var seen []Event
	var titles []string
	unsubscribe := f.store.Subscribe(func(ev Event) {
		seen = append(seen, ev)
		// Subscribers may read the store.
		task, _ := f.store.Task(f.write.ID)
		titles = append(titles, task.Title)
	})

	m := UpdateTask{TaskID: f.write.ID, Title: "Edited", CategoryID: f.todo.ID}
	snap, err := f.store.ApplyOptimistic(m)
	require.NoError(t, err)
	require.Len(t, seen, 1)
	assert.Equal(t, Event{Type: EventApply, Key: TaskKey(f.write.ID)}, seen[0])

	f.store.Rollback(snap)
	f.store.Commit(m)
	unsubscribe()
	f.store.Load(nil, nil)

	require.Len(t, seen, 3)
	assert.Equal(t, EventRollback, seen[1].Type)
	assert.Equal(t, EventCommit, seen[2].Type)
	assert.Equal(t, []string{"Edited", "Write", "Write"}, titles)
}

func TestSwapReplacesPlaceholderInPlace(t *testing.T) {
	f := newFixture()
	placeholder := uuid.New()
	m := CreateTask{Placeholder: placeholder, Title: "Draft", CategoryID: f.todo.ID}
	_, err := f.store.ApplyOptimistic(m)
	require.NoError(t, err)

	serverID := uuid.New()
	f.store.Commit(m)
	f.store.SwapTask(placeholder, Task{ID: serverID, Title: "Draft", PrimaryCategoryID: CategoryRef(f.todo.ID)})

	tasks := f.store.Tasks()
	require.Len(t, tasks, 4)
	assert.Equal(t, serverID, tasks[3].ID)
	assert.False(t, tasks[3].Placeholder)
	_, ok := f.store.Task(placeholder)
	assert.False(t, ok)

	categoryPlaceholder := uuid.New()
	_, err = f.store.ApplyOptimistic(CreateCategory{Placeholder: categoryPlaceholder, Title: "Later"})
	require.NoError(t, err)
	f.store.SwapCategory(categoryPlaceholder, Category{ID: uuid.New(), Title: "Later"})
	categories := f.store.Categories()
	require.Len(t, categories, 3)
	assert.False(t, categories[2].Placeholder)
}

func TestLoadTasksKeepsCategoriesAndCategoryPending(t *testing.T) {
	f := newFixture()
	_, err := f.store.ApplyOptimistic(UpdateCategory{CategoryID: f.todo.ID, Title: "Backlog"})
	require.NoError(t, err)
	_, err = f.store.ApplyOptimistic(DeleteTask{TaskID: f.write.ID})
	require.NoError(t, err)

	f.store.LoadTasks([]Task{f.write})

	assert.Len(t, f.store.Categories(), 2)
	assert.True(t, f.store.Pending(CategoryKey(f.todo.ID)))
	assert.False(t, f.store.Pending(TaskKey(f.write.ID)))
	assert.Len(t, f.store.Tasks(), 1)
}

func TestTasksInCategory(t *testing.T) {
	f := newFixture()

	todo := f.store.TasksInCategory(f.todo.ID)
	require.Len(t, todo, 1)
	assert.Equal(t, f.write.ID, todo[0].ID)
	assert.Empty(t, f.store.TasksInCategory(uuid.New()))
}

// A deleted category's tasks belong to the unassigned column, not to the
// category filter.
func TestTasksInCategoryMatchesBoardAfterCategoryDelete(t *testing.T) {
	f := newFixture()

	snap, err := f.store.ApplyOptimistic(DeleteCategory{CategoryID: f.todo.ID})
	require.NoError(t, err)

	assert.Empty(t, f.store.TasksInCategory(f.todo.ID))
	col, ok := f.store.Board().Column(uuid.Nil)
	require.True(t, ok)
	require.Len(t, col.Cards, 2)
	assert.Equal(t, f.write.ID, col.Cards[0].ID)

	f.store.Rollback(snap)
	todo := f.store.TasksInCategory(f.todo.ID)
	require.Len(t, todo, 1)
	assert.Equal(t, f.write.ID, todo[0].ID)
}

func TestBoardLayout(t *testing.T) {
	f := newFixture()
	empty := Category{ID: uuid.New(), Title: "Someday"}
	dangling := Task{ID: uuid.New(), Title: "Orphan", PrimaryCategoryID: CategoryRef(uuid.New())}
	f.store.Load(
		[]Task{f.write, f.ship, f.unassigned, dangling},
		[]Category{f.todo, f.done, empty},
	)

	b := f.store.Board()

	require.Len(t, b.Columns, 4)
	assert.Equal(t, []string{"Todo", "Done", "Someday", UnassignedTitle}, []string{
		b.Columns[0].Title(), b.Columns[1].Title(), b.Columns[2].Title(), b.Columns[3].Title(),
	})
	assert.Empty(t, b.Columns[2].Cards)
	last := b.Columns[3]
	assert.True(t, last.Unassigned())
	require.Len(t, last.Cards, 2)
	assert.Equal(t, f.unassigned.ID, last.Cards[0].ID)
	assert.Equal(t, dangling.ID, last.Cards[1].ID)

	col, ok := b.Column(uuid.Nil)
	require.True(t, ok)
	assert.True(t, col.Unassigned())
	col, ok = b.Column(f.done.ID)
	require.True(t, ok)
	assert.Equal(t, f.ship.ID, col.Cards[0].ID)
}

func TestBoardMarksPendingCards(t *testing.T) {
	f := newFixture()
	m := MoveTask{TaskID: f.write.ID, Title: "Write", CategoryID: f.done.ID}
	_, err := f.store.ApplyOptimistic(m)
	require.NoError(t, err)

	col, _ := f.store.Board().Column(f.done.ID)
	require.Len(t, col.Cards, 2)
	assert.Equal(t, f.write.ID, col.Cards[0].ID)
	assert.True(t, col.Cards[0].Pending)
	assert.False(t, col.Cards[1].Pending)

	f.store.Commit(m)
	col, _ = f.store.Board().Column(f.done.ID)
	assert.False(t, col.Cards[0].Pending)
}

func TestDeletedCategoryTasksMoveToUnassigned(t *testing.T) {
	f := newFixture()

	snap, err := f.store.ApplyOptimistic(DeleteCategory{CategoryID: f.todo.ID})
	require.NoError(t, err)

	b := f.store.Board()
	require.Len(t, b.Columns, 2)
	unassigned := b.Columns[1]
	assert.True(t, unassigned.Unassigned())
	assert.Len(t, unassigned.Cards, 2)

	f.store.Rollback(snap)
	col, ok := f.store.Board().Column(f.todo.ID)
	require.True(t, ok)
	assert.Len(t, col.Cards, 1)
}

// Every task appears in exactly one column, whatever its category reference.
func TestBoardPartitionIsComplete(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	for round := 0; round < 50; round++ {
		categories := make([]Category, rng.Intn(5))
		for i := range categories {
			categories[i] = Category{ID: uuid.New(), Title: "c"}
		}
		tasks := make([]Task, rng.Intn(30))
		for i := range tasks {
			tasks[i] = Task{ID: uuid.New(), Title: "t"}
			switch pick := rng.Intn(len(categories) + 2); {
			case pick < len(categories):
				tasks[i].PrimaryCategoryID = CategoryRef(categories[pick].ID)
			case pick == len(categories):
				tasks[i].PrimaryCategoryID = CategoryRef(uuid.New())
			}
		}

		store := NewStore()
		store.Load(tasks, categories)
		b := store.Board()

		require.Len(t, b.Columns, len(categories)+1)
		assert.True(t, b.Columns[len(b.Columns)-1].Unassigned())
		seen := map[uuid.UUID]int{}
		for _, col := range b.Columns {
			for _, card := range col.Cards {
				seen[card.ID]++
				if !col.Unassigned() {
					assert.True(t, card.InCategory(col.Category.ID))
				}
			}
		}
		require.Len(t, seen, len(tasks))
		for _, task := range tasks {
			assert.Equal(t, 1, seen[task.ID])
		}
	}
}
