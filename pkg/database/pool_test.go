package database

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newMockPool(t *testing.T) (*Pool, sqlmock.Sqlmock) {
	t.Helper()

	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	pool, err := NewFromSQL(sqlDB)
	require.NoError(t, err)

	t.Cleanup(func() { sqlDB.Close() })
	return pool, mock
}

func TestWithTxCommits(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO guestbook").
		WithArgs("Alice", "Hello").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := pool.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO guestbook (name, message) VALUES (?, ?)", "Alice", "Hello").Error
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	pool, mock := newMockPool(t)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO guestbook").
		WillReturnError(errors.New("violates not-null constraint"))
	mock.ExpectRollback()

	err := pool.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Exec("INSERT INTO guestbook (name, message) VALUES (?, ?)", "Alice", nil).Error
	})

	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithConnReleasesConnectionOnError(t *testing.T) {
	pool, _ := newMockPool(t)

	failure := errors.New("unit of work failed")
	err := pool.WithConn(context.Background(), func(tx *gorm.DB) error {
		assert.Equal(t, 1, pool.Stats().InUse)
		return failure
	})

	assert.ErrorIs(t, err, failure)
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestWithConnReleasesConnectionOnPanic(t *testing.T) {
	pool, _ := newMockPool(t)

	assert.Panics(t, func() {
		_ = pool.WithConn(context.Background(), func(tx *gorm.DB) error {
			panic("unexpected")
		})
	})
	assert.Equal(t, 0, pool.Stats().InUse)
}

func TestPing(t *testing.T) {
	pool, _ := newMockPool(t)
	assert.NoError(t, pool.Ping(context.Background()))
}

func TestOpenRejectsEmptyURL(t *testing.T) {
	_, err := Open(context.Background(), Config{MaxConns: 1})
	assert.Error(t, err)
}

func TestWithSSLMode(t *testing.T) {
	tests := []struct {
		name string
		dsn  string
		mode string
		want string
	}{
		{
			name: "url without sslmode",
			dsn:  "postgres://u:p@db:5432/guestbook",
			mode: "require",
			want: "postgres://u:p@db:5432/guestbook?sslmode=require",
		},
		{
			name: "url keeps existing sslmode",
			dsn:  "postgres://u:p@db:5432/guestbook?sslmode=disable",
			mode: "require",
			want: "postgres://u:p@db:5432/guestbook?sslmode=disable",
		},
		{
			name: "keyword form",
			dsn:  "host=db dbname=guestbook",
			mode: "require",
			want: "host=db dbname=guestbook sslmode=require",
		},
		{
			name: "url password containing sslmode",
			dsn:  "postgres://u:sslmode=disable@db:5432/guestbook",
			mode: "require",
			want: "postgres://u:sslmode=disable@db:5432/guestbook?sslmode=require",
		},
		{
			name: "url with other parameter containing sslmode",
			dsn:  "postgres://db/guestbook?application_name=sslmode=off",
			mode: "require",
			want: "postgres://db/guestbook?application_name=sslmode%3Doff&sslmode=require",
		},
		{
			name: "keyword form keeps existing sslmode",
			dsn:  "host=db sslmode=verify-full dbname=guestbook",
			mode: "require",
			want: "host=db sslmode=verify-full dbname=guestbook",
		},
		{
			name: "keyword form with quoted password containing sslmode",
			dsn:  "host=db password='x sslmode=disable' dbname=guestbook",
			mode: "require",
			want: "host=db password='x sslmode=disable' dbname=guestbook sslmode=require",
		},
		{
			name: "no mode configured",
			dsn:  "postgresql://db/guestbook",
			mode: "",
			want: "postgresql://db/guestbook",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, withSSLMode(tt.dsn, tt.mode))
		})
	}
}
