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

func TestCategoryRepository_ListByUser(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB)

	userID := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE user_id = \$1 ORDER BY created_at, id`).
		WithArgs(userID.String()).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}).
			AddRow(uuid.NewString(), userID.String(), "Todo").
			AddRow(uuid.NewString(), userID.String(), "Done"))

	categories, err := repo.ListByUser(context.Background(), userID)

	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Equal(t, "Todo", categories[0].Title)
	assert.Equal(t, userID, categories[1].UserID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_GetByID_NotFound(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB)

	mock.ExpectQuery(`SELECT \* FROM "categories" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title"}))

	category, err := repo.GetByID(context.Background(), uuid.New())

	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
	assert.Nil(t, category)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Update_ScopedToOwner(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB)

	category := &model.Category{ID: uuid.New(), UserID: uuid.New(), Title: "Renamed"}

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "categories" SET "title"=\$1,"updated_at"=\$2 WHERE id = \$3 AND user_id = \$4`).
		WithArgs("Renamed", sqlmock.AnyArg(), category.ID.String(), category.UserID.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	err := repo.Update(context.Background(), category)

	assert.ErrorIs(t, err, repository.ErrCategoryNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCategoryRepository_Delete_DetachesTasks(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewCategoryRepository(gormDB)

	userID, id := uuid.New(), uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM task_categories WHERE category_id = \$1`).
		WithArgs(id.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "categories" WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id.String(), userID.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	assert.NoError(t, repo.Delete(context.Background(), userID, id))
	assert.NoError(t, mock.ExpectationsWereMet())
}
