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
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  "sqlmock_db_0",
		DriverName:           "postgres",
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

const selectUserByEmail = `SELECT \* FROM "users" WHERE email = \$1`

// Хук модели приводит email к нижнему регистру перед вставкой.
func TestUserRepository_CreateNormalizesEmail(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewUserRepository(gormDB)

	userID := uuid.New()
	user := &model.User{
		ID:             userID,
		Email:          "  Ann@Example.com ",
		HashedPassword: "bcrypt-hash",
		Name:           "Ann",
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WithArgs("ann@example.com", "bcrypt-hash", "Ann", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(userID.String()))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), user))

	assert.Equal(t, "ann@example.com", user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_CreateDuplicate(t *testing.T) {
	gormDB, mock := setupMockDB(t)
	repo := repository.NewUserRepository(gormDB)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "users"`).
		WillReturnError(assert.AnError)
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &model.User{Email: "ann@example.com", HashedPassword: "h", Name: "Ann"})

	assert.ErrorIs(t, err, assert.AnError)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_FindByEmail(t *testing.T) {
	userID := uuid.New()

	tests := []struct {
		name    string
		lookup  string
		rows    *sqlmock.Rows
		dbErr   error
		wantNil bool
		wantErr bool
	}{
		{
			name:   "found",
			lookup: "ann@example.com",
			rows: sqlmock.NewRows([]string{"id", "email", "hashed_password", "name"}).
				AddRow(userID.String(), "ann@example.com", "hash", "Ann"),
		},
		{
			name:   "mixed case lookup",
			lookup: "ANN@Example.com",
			rows: sqlmock.NewRows([]string{"id", "email", "hashed_password", "name"}).
				AddRow(userID.String(), "ann@example.com", "hash", "Ann"),
		},
		{
			// Отсутствие пользователя не считается ошибкой.
			name:    "not found",
			lookup:  "nobody@example.com",
			rows:    sqlmock.NewRows([]string{"id", "email", "hashed_password", "name"}),
			wantNil: true,
		},
		{
			name:    "database error",
			lookup:  "ann@example.com",
			dbErr:   assert.AnError,
			wantNil: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gormDB, mock := setupMockDB(t)
			repo := repository.NewUserRepository(gormDB)

			expect := mock.ExpectQuery(selectUserByEmail)
			if tt.dbErr != nil {
				expect.WillReturnError(tt.dbErr)
			} else {
				expect.WillReturnRows(tt.rows)
			}

			user, err := repo.FindByEmail(context.Background(), tt.lookup)

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, user)
			} else if assert.NotNil(t, user) {
				assert.Equal(t, userID, user.ID)
				assert.Equal(t, "ann@example.com", user.Email)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
