package repository_test

import (
	"context"
	"testing"

	"taskboard/internal/model"
	"taskboard/internal/repository"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTaskRepository_Create_AttachesCategory(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	task := &model.Task{ID: uuid.New(), UserID: uuid.New(), Title: "Write report"}
	categoryID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(task.ID.String()))
	mock.ExpectExec(`INSERT INTO task_categories \(task_id, category_id\)`).
		WithArgs(task.ID.String(), categoryID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Create(context.Background(), task, categoryID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Create_RollsBackOnLinkFailure(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	task := &model.Task{ID: uuid.New(), UserID: uuid.New(), Title: "Write report"}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "tasks"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(task.ID.String()))
	mock.ExpectExec(`INSERT INTO task_categories`).WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), task, uuid.New())

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_SyncsCategory(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	task := &model.Task{ID: uuid.New(), Title: "Renamed"}
	categoryID := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "title"=\$1`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM task_categories WHERE task_id = \$1`).
		WithArgs(task.ID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO task_categories`).
		WithArgs(task.ID.String(), categoryID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), task, categoryID)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Update_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Update(context.Background(), &model.Task{ID: uuid.New(), Title: "Ghost"}, uuid.New())

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM task_categories WHERE task_id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM "tasks" WHERE id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), id))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_Delete_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM task_categories`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM "tasks"`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Delete(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}))

	task, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrTaskNotFound)
	assert.Nil(t, task)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTaskRepository_List_FiltersByCategory(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewTaskRepository(gormDB)

	userID := uuid.New()
	categoryID := uuid.New()

	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks" WHERE tasks.user_id = \$1 AND \(EXISTS \(SELECT 1 FROM task_categories`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE tasks.user_id = \$1 AND \(EXISTS \(SELECT 1 FROM task_categories.* ORDER BY tasks.created_at, tasks.id LIMIT`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}))

	tasks, total, err := repo.List(context.Background(), repository.TaskFilter{
		UserID:     userID,
		CategoryID: &categoryID,
		Page:       1,
		PerPage:    10,
	})

	require.NoError(t, err)
	assert.Empty(t, tasks)
	assert.Zero(t, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
