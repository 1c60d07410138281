package authstorage

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zanzhit/meeting_recordings/internal/domain/constants"
	"github.com/zanzhit/meeting_recordings/internal/domain/errs"
)

func newStorage(t *testing.T) (*AuthStorage, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return New(sqlx.NewDb(db, "sqlmock")), mock
}

func TestSaveUser_Admin(t *testing.T) {
	s, mock := newStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").
		WithArgs("root@example.com", []byte("hash")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec("INSERT INTO admins").WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	id, err := s.SaveUser(context.Background(), "root@example.com", constants.Admin, []byte("hash"))
	require.NoError(t, err)
	assert.Equal(t, 1, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSaveUser_Exists(t *testing.T) {
	s, mock := newStorage(t)

	mock.ExpectBegin()
	mock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: uniqueViolation})
	mock.ExpectRollback()

	_, err := s.SaveUser(context.Background(), "dup@example.com", constants.User, []byte("hash"))
	assert.ErrorIs(t, err, errs.ErrUserExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUser(t *testing.T) {
	s, mock := newStorage(t)

	mock.ExpectQuery("FROM users WHERE email").
		WithArgs("a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}).AddRow(4, "a@example.com", []byte("hash")))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	user, err := s.User(context.Background(), "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, 4, user.Id)
	assert.Equal(t, constants.User, user.UserType)
}

func TestUser_Unknown(t *testing.T) {
	s, mock := newStorage(t)

	mock.ExpectQuery("FROM users WHERE email").WillReturnRows(sqlmock.NewRows([]string{"id", "email", "password_hash"}))

	_, err := s.User(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, errs.ErrInvalidCredentials)
}
