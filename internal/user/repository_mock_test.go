package user

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	insertUserQuery  = `(?s)^INSERT INTO "user" \("id","name","surname","username","email","hashed_password","created_at","updated_at","is_verified"\) VALUES`
	selectByIDQuery  = `(?s)^SELECT \* FROM "user" WHERE id = \$1 ORDER BY "user"\."id" LIMIT \$2`
	updateUserQuery  = `(?s)^UPDATE "user" SET .+ WHERE id = \$\d+$`
	verifyEmailQuery = `(?s)^UPDATE "user" SET "is_verified"=\$1,"updated_at"=\$2 WHERE id = \$3 AND is_verified = \$4`
	deleteUserQuery  = `(?s)^DELETE FROM "user" WHERE id = \$1`
)

var userColumns = []string{
	"id", "name", "surname", "username", "email",
	"hashed_password", "created_at", "updated_at", "is_verified",
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMockRepository(t *testing.T) (*repository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	return &repository{db: gdb, now: func() time.Time { return fixedNow }}, mock
}

func userRow(id uuid.UUID, surname string, verified bool, updatedAt time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userColumns).AddRow(
		id.String(), "Alice", surname, "alice", "alice@example.com",
		"hash", fixedNow.Add(-time.Hour), updatedAt, verified,
	)
}

func TestRepositoryMock_CreateUser(t *testing.T) {
	in := NewUser{
		Name: "Alice", Surname: "Smith", Username: "alice",
		Email: "alice@example.com", PasswordHash: "hash",
	}

	tests := []struct {
		name    string
		execErr error
		wantErr error
	}{
		{name: "inserted"},
		{
			name:    "unique violation",
			execErr: &pgconn.PgError{Code: "23505", ConstraintName: "idx_user_username"},
			wantErr: ErrDuplicateCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)

			mock.ExpectBegin()
			exec := mock.ExpectExec(insertUserQuery).
				WithArgs(sqlmock.AnyArg(), "Alice", "Smith", "alice", "alice@example.com", "hash", fixedNow, fixedNow, false)
			if tt.execErr != nil {
				exec.WillReturnError(tt.execErr)
				mock.ExpectRollback()
			} else {
				exec.WillReturnResult(sqlmock.NewResult(0, 1))
				mock.ExpectCommit()
			}

			got, err := repo.CreateUser(context.Background(), in)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Equal(t, User{}, got)
			} else {
				require.NoError(t, err)
				assert.NotEqual(t, uuid.Nil, got.ID)
				assert.Equal(t, fixedNow, got.CreatedAt)
				assert.Equal(t, fixedNow, got.UpdatedAt)
				assert.False(t, got.IsVerified)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepositoryMock_GetUserByIDNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectQuery(selectByIDQuery).
		WithArgs(id.String(), 1).
		WillReturnRows(sqlmock.NewRows(userColumns))

	_, err := repo.GetUserByID(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMock_UpdateProfile(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()
	surname := "Jones"

	mock.ExpectBegin()
	mock.ExpectExec(updateUserQuery).
		WithArgs("Jones", fixedNow, id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(selectByIDQuery).
		WithArgs(id.String(), 1).
		WillReturnRows(userRow(id, "Jones", true, fixedNow))
	mock.ExpectCommit()

	got, err := repo.UpdateProfile(context.Background(), id, ProfileUpdate{Surname: &surname})
	require.NoError(t, err)
	assert.Equal(t, id, got.ID)
	assert.Equal(t, "Jones", got.Surname)
	assert.Equal(t, fixedNow, got.UpdatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMock_UpdateFailures(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(exec *sqlmock.ExpectedExec)
		wantErr error
	}{
		{
			name: "no matching row",
			setup: func(exec *sqlmock.ExpectedExec) {
				exec.WillReturnResult(sqlmock.NewResult(0, 0))
			},
			wantErr: ErrUserNotFound,
		},
		{
			name: "address taken",
			setup: func(exec *sqlmock.ExpectedExec) {
				exec.WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "idx_user_email"})
			},
			wantErr: ErrDuplicateCredential,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			id := uuid.New()

			mock.ExpectBegin()
			tt.setup(mock.ExpectExec(updateUserQuery).
				WithArgs("bob@example.com", fixedNow, id.String()))
			mock.ExpectRollback()

			_, err := repo.UpdateEmail(context.Background(), id, "bob@example.com")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepositoryMock_UpdatePasswordHashNotFound(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(updateUserQuery).
		WithArgs("new-hash", fixedNow, id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := repo.UpdatePasswordHash(context.Background(), id, "new-hash")
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMock_VerifyEmail(t *testing.T) {
	verifiedAt := fixedNow.Add(-24 * time.Hour)

	tests := []struct {
		name          string
		affected      int64
		wantUpdatedAt time.Time
	}{
		{name: "first verification", affected: 1, wantUpdatedAt: fixedNow},
		{name: "already verified keeps the stored row", affected: 0, wantUpdatedAt: verifiedAt},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			id := uuid.New()

			mock.ExpectBegin()
			mock.ExpectExec(verifyEmailQuery).
				WithArgs(true, fixedNow, id.String(), false).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			mock.ExpectQuery(selectByIDQuery).
				WithArgs(id.String(), 1).
				WillReturnRows(userRow(id, "Smith", true, tt.wantUpdatedAt))
			mock.ExpectCommit()

			got, err := repo.VerifyEmail(context.Background(), id)
			require.NoError(t, err)
			assert.True(t, got.IsVerified)
			assert.Equal(t, tt.wantUpdatedAt, got.UpdatedAt)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestRepositoryMock_VerifyEmailUnknownUser(t *testing.T) {
	repo, mock := newMockRepository(t)
	id := uuid.New()

	mock.ExpectBegin()
	mock.ExpectExec(verifyEmailQuery).
		WithArgs(true, fixedNow, id.String(), false).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(selectByIDQuery).
		WithArgs(id.String(), 1).
		WillReturnRows(sqlmock.NewRows(userColumns))
	mock.ExpectRollback()

	_, err := repo.VerifyEmail(context.Background(), id)
	assert.ErrorIs(t, err, ErrUserNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepositoryMock_DeleteUser(t *testing.T) {
	tests := []struct {
		name     string
		affected int64
		wantErr  error
	}{
		{name: "deleted", affected: 1},
		{name: "no such user", affected: 0, wantErr: ErrUserNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock := newMockRepository(t)
			id := uuid.New()

			mock.ExpectBegin()
			mock.ExpectExec(deleteUserQuery).
				WithArgs(id.String()).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))
			if tt.wantErr != nil {
				mock.ExpectRollback()
			} else {
				mock.ExpectCommit()
			}

			err := repo.DeleteUser(context.Background(), id)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}
