package usecase_room

import (
	"context"
	"log/slog"

	"github.com/coderacer/core/internal/model"
)

type FinishRequest struct {
	Code     string
	UserID   model.UserID
	WPM      float64
	Accuracy float64
}

// Finish records the participant's final stats and assigns the next finish
// position. The ordinal is taken inside the room transaction, so concurrent
// finishers in one room observe each other's assignments and never share a
// position. The last finisher closes the race.
func (u *Usecase) Finish(ctx context.Context, req FinishRequest) (model.FinishResult, error) {
	code := model.NormalizeCode(req.Code)
	unlock := u.locks.lock(code)
	defer unlock()

	var result model.FinishResult
	err := u.tx.InRoomTx(ctx, code, func(ctx context.Context) error {
		room, err := u.rooms.Get(ctx, code)
		if err != nil {
			return err
		}
		participant, err := u.participants.Get(ctx, model.ParticipantKey{RoomCode: code, UserID: req.UserID})
		if err != nil {
			return err
		}
		if participant.IsFinished || room.Status != model.StatusInProgress {
			return ErrInvalidState
		}

		snippetLen, err := u.snippetLength(ctx, room.SnippetID)
		if err != nil {
			return err
		}
		position, err := u.participants.NextFinishPosition(ctx, code)
		if err != nil {
			return err
		}

		finishedAt := u.now()
		participant.IsFinished = true
		participant.WPM = clampFloat(req.WPM, MaxWPM)
		participant.Accuracy = clampFloat(req.Accuracy, MaxAccuracy)
		if snippetLen > 0 {
			participant.Progress = snippetLen
		}
		participant.FinishPosition = &position
		participant.FinishedAt = &finishedAt
		if err := u.participants.Update(ctx, participant); err != nil {
			return err
		}

		roster, err := u.participants.ListByRoom(ctx, code)
		if err != nil {
			return err
		}

		result = model.FinishResult{
			Participant: participant,
			Position:    position,
		}
		if model.CountFinished(roster) == len(roster) {
			room.Status = model.StatusFinished
			room.FinishedAt = &finishedAt
			if err := u.rooms.Update(ctx, room); err != nil {
				return err
			}
			result.RoomFinished = true
			result.Results = model.RankedResults(roster)
		}
		result.Room = room
		return nil
	})
	if err != nil {
		return model.FinishResult{}, u.wrap(err)
	}

	u.logger.Info("participant finished",
		slog.String("room", code),
		slog.String("user_id", req.UserID),
		slog.Int("position", result.Position),
		slog.Bool("race_finished", result.RoomFinished),
	)
	return result, nil
}
