package infra_db_room

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPostgresMock(t *testing.T) (*Driver, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return New(sqlx.NewDb(db, "postgres")), mock
}

func TestPostgresInRoomTxTakesAdvisoryLock(t *testing.T) {
	d, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("AB12CD").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COALESCE(MAX(finish_position), 0) + 1 FROM participants WHERE room_code = $1")).
		WithArgs("AB12CD").
		WillReturnRows(sqlmock.NewRows([]string{"next"}).AddRow(3))
	mock.ExpectCommit()

	var next int
	err := d.InRoomTx(context.Background(), "AB12CD", func(ctx context.Context) error {
		var err error
		next, err = d.Participants().NextFinishPosition(ctx, "AB12CD")
		return err
	})

	require.NoError(t, err)
	assert.Equal(t, 3, next)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresInRoomTxRollsBackOnError(t *testing.T) {
	d, mock := newPostgresMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("pg_advisory_xact_lock")).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO rooms")).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})
	mock.ExpectRollback()

	err := d.InRoomTx(context.Background(), "AB12CD", func(ctx context.Context) error {
		return d.Rooms().Create(ctx, testRoom("AB12CD"))
	})

	assert.ErrorIs(t, err, usecase_room.ErrCodeConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresParticipantErrorMapping(t *testing.T) {
	d, mock := newPostgresMock(t)
	p := model.Participant{RoomCode: "AB12CD", UserID: "a", JoinedAt: time.Now()}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO participants")).
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO participants")).
		WillReturnError(&pq.Error{Code: "23503"})

	assert.ErrorIs(t, d.Participants().Create(context.Background(), p), usecase_room.ErrConflict)
	assert.ErrorIs(t, d.Participants().Create(context.Background(), p), usecase_room.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresGetMissingRoom(t *testing.T) {
	d, mock := newPostgresMock(t)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms")).
		WithArgs("ZZZZZZ").
		WillReturnError(sql.ErrNoRows)

	_, err := d.Rooms().Get(context.Background(), "ZZZZZZ")

	assert.ErrorIs(t, err, usecase_room.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
