package infra_db_room

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/jmoiron/sqlx"
)

type participantDTO struct {
	RoomCode       string        `db:"room_code"`
	UserID         string        `db:"user_id"`
	Username       string        `db:"username"`
	Progress       int           `db:"progress"`
	WPM            float64       `db:"wpm"`
	Accuracy       float64       `db:"accuracy"`
	IsFinished     bool          `db:"is_finished"`
	FinishPosition sql.NullInt64 `db:"finish_position"`
	JoinedAt       time.Time     `db:"joined_at"`
	FinishedAt     sql.NullTime  `db:"finished_at"`
}

func toParticipantDTO(p model.Participant) participantDTO {
	dto := participantDTO{
		RoomCode:   p.RoomCode,
		UserID:     p.UserID,
		Username:   p.Username,
		Progress:   p.Progress,
		WPM:        p.WPM,
		Accuracy:   p.Accuracy,
		IsFinished: p.IsFinished,
		JoinedAt:   p.JoinedAt.UTC(),
		FinishedAt: nullTime(p.FinishedAt),
	}
	if p.FinishPosition != nil {
		dto.FinishPosition = sql.NullInt64{Int64: int64(*p.FinishPosition), Valid: true}
	}
	return dto
}

func (dto participantDTO) model() model.Participant {
	p := model.Participant{
		RoomCode:   dto.RoomCode,
		UserID:     dto.UserID,
		Username:   dto.Username,
		Progress:   dto.Progress,
		WPM:        dto.WPM,
		Accuracy:   dto.Accuracy,
		IsFinished: dto.IsFinished,
		JoinedAt:   dto.JoinedAt,
		FinishedAt: timePtr(dto.FinishedAt),
	}
	if dto.FinishPosition.Valid {
		pos := int(dto.FinishPosition.Int64)
		p.FinishPosition = &pos
	}
	return p
}

const participantColumns = `room_code, user_id, username, progress, wpm, accuracy, is_finished, finish_position, joined_at, finished_at`

type ParticipantDriver struct {
	d *Driver
}

func (pd *ParticipantDriver) Get(ctx context.Context, key model.ParticipantKey) (model.Participant, error) {
	var dto participantDTO

	query := `SELECT ` + participantColumns + ` FROM participants WHERE room_code = ? AND user_id = ?`

	err := sqlx.GetContext(ctx, pd.d.ext(ctx), &dto, pd.d.q(query), key.RoomCode, key.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Participant{}, usecase_room.ErrNotFound
		}
		return model.Participant{}, err
	}
	return dto.model(), nil
}

func (pd *ParticipantDriver) Create(ctx context.Context, p model.Participant) error {
	query := `
		INSERT INTO participants (` + participantColumns + `)
		VALUES (:room_code, :user_id, :username, :progress, :wpm, :accuracy, :is_finished, :finish_position, :joined_at, :finished_at)
	`

	_, err := sqlx.NamedExecContext(ctx, pd.d.ext(ctx), query, toParticipantDTO(p))
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return usecase_room.ErrConflict
		case isForeignKeyViolation(err):
			return usecase_room.ErrNotFound
		}
		return err
	}
	return nil
}

func (pd *ParticipantDriver) Update(ctx context.Context, p model.Participant) error {
	query := `
		UPDATE participants
		SET progress = :progress,
			wpm = :wpm,
			accuracy = :accuracy,
			is_finished = :is_finished,
			finish_position = :finish_position,
			finished_at = :finished_at
		WHERE room_code = :room_code AND user_id = :user_id
	`

	res, err := sqlx.NamedExecContext(ctx, pd.d.ext(ctx), query, toParticipantDTO(p))
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (pd *ParticipantDriver) Delete(ctx context.Context, key model.ParticipantKey) error {
	query := `DELETE FROM participants WHERE room_code = ? AND user_id = ?`

	res, err := pd.d.ext(ctx).ExecContext(ctx, pd.d.q(query), key.RoomCode, key.UserID)
	if err != nil {
		return err
	}
	return expectAffected(res)
}

func (pd *ParticipantDriver) ListByRoom(ctx context.Context, code string) ([]model.Participant, error) {
	var dtos []participantDTO

	query := `SELECT ` + participantColumns + ` FROM participants WHERE room_code = ? ORDER BY joined_at, user_id`

	if err := sqlx.SelectContext(ctx, pd.d.ext(ctx), &dtos, pd.d.q(query), code); err != nil {
		return nil, err
	}

	participants := make([]model.Participant, 0, len(dtos))
	for _, dto := range dtos {
		participants = append(participants, dto.model())
	}
	return participants, nil
}

// NextFinishPosition reads max+1. It is only safe inside InRoomTx, where the
// room is locked for the duration of the assignment.
func (pd *ParticipantDriver) NextFinishPosition(ctx context.Context, code string) (int, error) {
	var next int
	query := `SELECT COALESCE(MAX(finish_position), 0) + 1 FROM participants WHERE room_code = ?`

	if err := sqlx.GetContext(ctx, pd.d.ext(ctx), &next, pd.d.q(query), code); err != nil {
		return 0, err
	}
	return next, nil
}
