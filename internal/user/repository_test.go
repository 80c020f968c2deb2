package user

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestValidatePassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "correct password", password: "correct horse", want: true},
		{name: "wrong password", password: "battery staple", want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			mock.ExpectQuery("SELECT password_hash FROM users").
				WithArgs("jane@example.com").
				WillReturnRows(sqlmock.NewRows([]string{"password_hash"}).AddRow(string(hash)))

			repo := NewRepository(db)
			ok, err := repo.ValidatePassword("jane@example.com", tc.password)
			require.NoError(t, err)
			assert.Equal(t, tc.want, ok)
		})
	}
}

func TestValidatePasswordUnknownUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT password_hash FROM users").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"password_hash"}))

	repo := NewRepository(db)
	ok, err := repo.ValidatePassword("nobody@example.com", "whatever")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLockAccount(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET account_locked = TRUE").
		WithArgs("user-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepository(db)
	assert.NoError(t, repo.LockAccount("user-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockAccountNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users SET account_locked = TRUE").
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewRepository(db)
	assert.EqualError(t, repo.LockAccount("missing"), "user not found")
}

func TestGetUserSetsAdminFlag(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, email, name, user_type, account_locked, created_at FROM users WHERE email").
		WithArgs("root@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "name", "user_type", "account_locked", "created_at"}).
			AddRow("user-1", "root@example.com", "Root", UserTypeAdmin, false, time.Now().UTC()))

	repo := NewRepository(db)
	u, err := repo.GetUser("root@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin)
	assert.NotEmpty(t, u.CreatedAtHumanised)
}
