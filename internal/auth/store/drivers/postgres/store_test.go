package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aussiebroadwan/sessionauth/internal/auth/domain"
	"github.com/aussiebroadwan/sessionauth/internal/auth/store"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{"id", "username", "password_hash", "active", "superuser", "created_on"}

func newMock(t *testing.T) (pgxmock.PgxPoolIface, *Store) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err, "failed to create mock")
	t.Cleanup(mock.Close)
	return mock, New(mock)
}

func TestUsers_GetUserByUsername(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		setupMock func(mock pgxmock.PgxPoolIface)
		wantFound bool
		wantErr   error
	}{
		{
			name: "found",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
					WithArgs("alice", true).
					WillReturnRows(pgxmock.NewRows(userCols).
						AddRow("u1", "alice", "hash", true, false, created))
			},
			wantFound: true,
		},
		{
			name: "missing is not an error",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
					WithArgs("alice", true).
					WillReturnRows(pgxmock.NewRows(userCols))
			},
		},
		{
			name: "connection failure is unavailable",
			setupMock: func(mock pgxmock.PgxPoolIface) {
				mock.ExpectQuery(`SELECT .+ FROM users WHERE username`).
					WithArgs("alice", true).
					WillReturnError(&pgconn.PgError{Code: pgerrcode.AdminShutdown})
			},
			wantErr: store.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, st := newMock(t)
			tt.setupMock(mock)

			u, ok, err := st.Users().GetUserByUsername(context.Background(), "alice", true)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantFound, ok)
			if tt.wantFound {
				assert.Equal(t, domain.User{
					ID: "u1", Username: "alice", PasswordHash: "hash", Active: true, CreatedOn: created,
				}, u)
			}

			assert.NoError(t, mock.ExpectationsWereMet(), "unfulfilled expectations")
		})
	}
}

func TestUsers_CreateUser_UniqueViolation(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectExec(`INSERT INTO users`).
		WithArgs("u1", "alice", "hash", true, false, pgxmock.AnyArg()).
		WillReturnError(&pgconn.PgError{Code: pgerrcode.UniqueViolation, ConstraintName: "idx_users_username"})

	err := st.Users().CreateUser(context.Background(), domain.User{
		ID: "u1", Username: "alice", PasswordHash: "hash", Active: true,
	})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUsers_Mutators_ReportRowsAffected(t *testing.T) {
	mock, st := newMock(t)

	mock.ExpectExec(`UPDATE users SET active`).
		WithArgs(false, "u1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE users SET superuser`).
		WithArgs(true, "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	ok, err := st.Users().SetActive(context.Background(), "u1", false)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = st.Users().SetSuperuser(context.Background(), "ghost", true)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTokens_DeleteExpired(t *testing.T) {
	mock, st := newMock(t)
	now := time.Now()

	mock.ExpectExec(`DELETE FROM session_tokens WHERE expires_at`).
		WithArgs(now.UTC()).
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	n, err := st.SessionTokens().DeleteExpiredSessionTokens(context.Background(), now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionTokens_GetByHash(t *testing.T) {
	mock, st := newMock(t)
	exp := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT .+ FROM session_tokens WHERE token_hash`).
		WithArgs("fp").
		WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "token_hash", "expires_at", "created_at"}).
			AddRow("t1", "u1", "fp", exp, exp.Add(-time.Hour)))

	tok, ok, err := st.SessionTokens().GetSessionTokenByHash(context.Background(), "fp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "u1", tok.UserID)
	assert.Equal(t, exp, tok.ExpiresAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectBegin()
		mock.ExpectExec(`DELETE FROM session_tokens WHERE user_id`).
			WithArgs("u1").
			WillReturnResult(pgxmock.NewResult("DELETE", 2))
		mock.ExpectCommit()

		err := st.WithTx(context.Background(), func(tx store.Repos) error {
			_, err := tx.SessionTokens().DeleteUserSessionTokens(context.Background(), "u1")
			return err
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mock, st := newMock(t)
		mock.ExpectBegin()
		mock.ExpectRollback()

		boom := errors.New("boom")
		err := st.WithTx(context.Background(), func(tx store.Repos) error { return boom })
		require.ErrorIs(t, err, boom)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError(nil))
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgerrcode.UniqueViolation}), store.ErrAlreadyExists)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgerrcode.ConnectionFailure}), store.ErrUnavailable)
	assert.ErrorIs(t, mapError(&pgconn.PgError{Code: pgerrcode.QueryCanceled}), store.ErrTimeout)
	assert.ErrorIs(t, mapError(context.DeadlineExceeded), store.ErrTimeout)

	other := &pgconn.PgError{Code: pgerrcode.SyntaxError}
	assert.Equal(t, error(other), mapError(other))
}

func TestMigrateURL(t *testing.T) {
	assert.Equal(t, "pgx5://u:p@h/db", migrateURL("postgres://u:p@h/db"))
	assert.Equal(t, "pgx5://u:p@h/db", migrateURL("postgresql://u:p@h/db"))
	assert.Equal(t, "host=h dbname=db", migrateURL("host=h dbname=db"))
}
