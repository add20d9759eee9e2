package infra_db_room

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	infra_db_tx "github.com/coderacer/core/internal/infra/db/tx"
	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Driver serves rooms and participants from Postgres or SQLite. Queries are
// written with '?' placeholders and rebound for the connected driver.
type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

func (d *Driver) Rooms() *RoomDriver {
	return &RoomDriver{d: d}
}

func (d *Driver) Participants() *ParticipantDriver {
	return &ParticipantDriver{d: d}
}

// InRoomTx runs fn in one transaction. On Postgres the transaction first takes
// an advisory lock derived from the room code, so processes sharing the
// database serialise per room. Nested calls reuse the outer transaction.
func (d *Driver) InRoomTx(ctx context.Context, code string, fn func(ctx context.Context) error) error {
	if _, ok := infra_db_tx.FromContext(ctx); ok {
		return fn(ctx)
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if d.db.DriverName() == "postgres" {
		if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, code); err != nil {
			_ = tx.Rollback()
			return err
		}
	}

	if err := fn(infra_db_tx.WithTx(ctx, tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (d *Driver) ext(ctx context.Context) sqlx.ExtContext {
	return infra_db_tx.Ext(ctx, d.db)
}

func (d *Driver) q(query string) string {
	return d.db.Rebind(query)
}

type roomDTO struct {
	ID         uuid.UUID    `db:"id"`
	Code       string       `db:"code"`
	HostUserID string       `db:"host_user_id"`
	SnippetID  int64        `db:"snippet_id"`
	Status     string       `db:"status"`
	MaxPlayers int          `db:"max_players"`
	CreatedAt  time.Time    `db:"created_at"`
	StartedAt  sql.NullTime `db:"started_at"`
	FinishedAt sql.NullTime `db:"finished_at"`
}

func toRoomDTO(r model.Room) roomDTO {
	return roomDTO{
		ID:         r.ID,
		Code:       r.Code,
		HostUserID: r.HostUserID,
		SnippetID:  r.SnippetID,
		Status:     string(r.Status),
		MaxPlayers: r.MaxPlayers,
		CreatedAt:  r.CreatedAt.UTC(),
		StartedAt:  nullTime(r.StartedAt),
		FinishedAt: nullTime(r.FinishedAt),
	}
}

func (dto roomDTO) model() model.Room {
	return model.Room{
		ID:         dto.ID,
		Code:       dto.Code,
		HostUserID: dto.HostUserID,
		SnippetID:  dto.SnippetID,
		Status:     model.Status(dto.Status),
		MaxPlayers: dto.MaxPlayers,
		CreatedAt:  dto.CreatedAt,
		StartedAt:  timePtr(dto.StartedAt),
		FinishedAt: timePtr(dto.FinishedAt),
	}
}

type RoomDriver struct {
	d *Driver
}

func (r *RoomDriver) Get(ctx context.Context, code string) (model.Room, error) {
	var dto roomDTO

	query := `
		SELECT id, code, host_user_id, snippet_id, status, max_players, created_at, started_at, finished_at
		FROM rooms
		WHERE code = ?
	`

	err := sqlx.GetContext(ctx, r.d.ext(ctx), &dto, r.d.q(query), code)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Room{}, usecase_room.ErrNotFound
		}
		return model.Room{}, err
	}

	return dto.model(), nil
}

func (r *RoomDriver) Exists(ctx context.Context, code string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM rooms WHERE code = ?)`

	if err := sqlx.GetContext(ctx, r.d.ext(ctx), &exists, r.d.q(query), code); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *RoomDriver) Create(ctx context.Context, room model.Room) error {
	query := `
		INSERT INTO rooms (id, code, host_user_id, snippet_id, status, max_players, created_at, started_at, finished_at)
		VALUES (:id, :code, :host_user_id, :snippet_id, :status, :max_players, :created_at, :started_at, :finished_at)
	`

	_, err := sqlx.NamedExecContext(ctx, r.d.ext(ctx), query, toRoomDTO(room))
	if err != nil {
		if isUniqueViolation(err) {
			return usecase_room.ErrCodeConflict
		}
		return err
	}
	return nil
}

// Update writes the mutable columns. max_players and created_at never change.
func (r *RoomDriver) Update(ctx context.Context, room model.Room) error {
	query := `
		UPDATE rooms
		SET host_user_id = :host_user_id,
			status = :status,
			started_at = :started_at,
			finished_at = :finished_at
		WHERE code = :code
	`

	res, err := sqlx.NamedExecContext(ctx, r.d.ext(ctx), query, toRoomDTO(room))
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (r *RoomDriver) Delete(ctx context.Context, code string) error {
	ext := r.d.ext(ctx)

	if _, err := ext.ExecContext(ctx, r.d.q(`DELETE FROM participants WHERE room_code = ?`), code); err != nil {
		return err
	}

	res, err := ext.ExecContext(ctx, r.d.q(`DELETE FROM rooms WHERE code = ?`), code)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func expectAffected(res sql.Result) error {
	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return usecase_room.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23503"
	}
	return strings.Contains(strings.ToLower(err.Error()), "foreign key constraint")
}

// Times are stored in UTC so text-backed columns sort chronologically.
func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
