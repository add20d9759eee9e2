package usecase_room

import (
	"context"
	"log/slog"

	"github.com/coderacer/core/internal/model"
)

// Rematch puts a finished room back into the lobby with the same roster and
// host. All telemetry and race timestamps are cleared.
func (u *Usecase) Rematch(ctx context.Context, code string, requester model.UserID) (model.RematchResult, error) {
	code = model.NormalizeCode(code)
	unlock := u.locks.lock(code)
	defer unlock()

	var result model.RematchResult
	err := u.tx.InRoomTx(ctx, code, func(ctx context.Context) error {
		room, err := u.rooms.Get(ctx, code)
		if err != nil {
			return err
		}
		if !room.IsHost(requester) {
			return ErrForbidden
		}
		if !room.Status.CanTransition(model.StatusWaiting) {
			return ErrInvalidState
		}

		participants, err := u.participants.ListByRoom(ctx, code)
		if err != nil {
			return err
		}
		for i := range participants {
			participants[i].Reset()
			if err := u.participants.Update(ctx, participants[i]); err != nil {
				return err
			}
		}

		room.Status = model.StatusWaiting
		room.StartedAt = nil
		room.FinishedAt = nil
		if err := u.rooms.Update(ctx, room); err != nil {
			return err
		}

		result = model.RematchResult{Room: room, Participants: participants}
		return nil
	})
	if err != nil {
		return model.RematchResult{}, u.wrap(err)
	}

	u.logger.Info("rematch", slog.String("room", code), slog.Int("participants", len(result.Participants)))
	return result, nil
}
