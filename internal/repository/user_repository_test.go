package repository

import (
	"context"
	"errors"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	dupUsernameErr = errors.New("Error 1062 (23000): Duplicate entry 'ava' for key 'users.uq_users_username'")
	dupEmailErr    = errors.New("Error 1062 (23000): Duplicate entry 'ava@club.io' for key 'users.uq_users_email'")
)

func TestDupUserKeyError(t *testing.T) {
	assert.Equal(t, ErrUsernameExists, dupUserKeyError(dupUsernameErr))
	assert.Equal(t, ErrEmailExists, dupUserKeyError(dupEmailErr))
	assert.Nil(t, dupUserKeyError(errors.New("connection refused")))
}

func TestCreateUsernameConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(dupUsernameErr)

	u := User{Username: "ava", Email: "ava@club.io", FullName: "Ava Stone"}
	err = repo.Create(context.Background(), &u, "secret", 4)
	assert.Equal(t, ErrUsernameExists, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateEmailConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec("INSERT INTO users").WillReturnError(dupEmailErr)

	u := User{Username: "newname", Email: "ava@club.io", FullName: "Ava Stone"}
	err = repo.Create(context.Background(), &u, "secret", 4)
	assert.Equal(t, ErrEmailExists, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateEmailConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()
	repo := NewUserRepo(db)

	mock.ExpectExec("UPDATE users SET email").WillReturnError(dupEmailErr)

	email := "taken@club.io"
	_, err = repo.Update(context.Background(), 7, UserUpdate{Email: &email})
	assert.Equal(t, ErrEmailExists, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
