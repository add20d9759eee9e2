package usecase_room

import (
	"context"
	"errors"
	"log/slog"

	"github.com/coderacer/core/internal/model"
)

// Join adds the user to a waiting room. Checks run in a fixed order under the
// room lock: existence, status, duplicate membership, capacity.
func (u *Usecase) Join(ctx context.Context, code string, userID model.UserID, username string) (model.JoinResult, error) {
	code = model.NormalizeCode(code)
	unlock := u.locks.lock(code)
	defer unlock()

	var result model.JoinResult
	err := u.tx.InRoomTx(ctx, code, func(ctx context.Context) error {
		room, err := u.rooms.Get(ctx, code)
		if err != nil {
			return err
		}
		if room.Status != model.StatusWaiting {
			return ErrInvalidState
		}

		participants, err := u.participants.ListByRoom(ctx, code)
		if err != nil {
			return err
		}
		for _, p := range participants {
			if p.UserID == userID {
				return ErrConflict
			}
		}
		if len(participants) >= room.MaxPlayers {
			return ErrCapacity
		}

		participant := model.Participant{
			RoomCode: code,
			UserID:   userID,
			Username: u.resolveUsername(ctx, userID, username),
			JoinedAt: u.now(),
		}
		if err := u.participants.Create(ctx, participant); err != nil {
			return err
		}

		participants = append(participants, participant)
		result = model.JoinResult{
			Room:         room,
			Participant:  participant,
			Count:        len(participants),
			Participants: participants,
		}
		return nil
	})
	if err != nil {
		return model.JoinResult{}, u.wrap(err)
	}

	u.logger.Info("participant joined",
		slog.String("room", code),
		slog.String("user_id", userID),
		slog.Int("participants", result.Count),
	)
	return result, nil
}

func (u *Usecase) resolveUsername(ctx context.Context, userID model.UserID, username string) string {
	if username != "" {
		return username
	}
	if user, err := u.users.User(ctx, userID); err == nil && user.Username != "" {
		return user.Username
	}
	return userID
}

// Leave removes the user. A departing host hands authority to the earliest
// remaining joiner; the last departure deletes the room.
func (u *Usecase) Leave(ctx context.Context, code string, userID model.UserID) (model.LeaveResult, error) {
	code = model.NormalizeCode(code)
	unlock := u.locks.lock(code)
	defer unlock()

	result := model.LeaveResult{RoomCode: code, UserID: userID}
	err := u.tx.InRoomTx(ctx, code, func(ctx context.Context) error {
		room, err := u.rooms.Get(ctx, code)
		if err != nil {
			return err
		}
		if err := u.participants.Delete(ctx, model.ParticipantKey{RoomCode: code, UserID: userID}); err != nil {
			return err
		}

		remaining, err := u.participants.ListByRoom(ctx, code)
		if err != nil {
			return err
		}
		if len(remaining) == 0 {
			result.RoomDeleted = true
			return u.rooms.Delete(ctx, code)
		}

		dirty := false
		if room.HostUserID == userID {
			room.HostUserID = nextHost(remaining).UserID
			result.HostChanged = true
			dirty = true
		}

		if room.Status == model.StatusInProgress && model.CountFinished(remaining) == len(remaining) {
			finishedAt := u.now()
			room.Status = model.StatusFinished
			room.FinishedAt = &finishedAt
			result.RoomFinished = true
			result.Results = model.RankedResults(remaining)
			dirty = true
		}

		if dirty {
			if err := u.rooms.Update(ctx, room); err != nil {
				return err
			}
		}
		result.HostUserID = room.HostUserID
		result.Participants = remaining
		return nil
	})
	if err != nil {
		return model.LeaveResult{}, u.wrap(err)
	}

	if result.RoomDeleted {
		u.releaseCode(ctx, code)
		u.logger.Info("last participant left, room deleted", slog.String("room", code))
		return result, nil
	}

	u.logger.Info("participant left",
		slog.String("room", code),
		slog.String("user_id", userID),
		slog.Bool("host_changed", result.HostChanged),
		slog.String("host", result.HostUserID),
	)
	return result, nil
}

// nextHost picks the earliest joiner, breaking ties by user id. remaining
// must not be empty.
func nextHost(remaining []model.Participant) model.Participant {
	best := remaining[0]
	for _, p := range remaining[1:] {
		if p.JoinedBefore(best) {
			best = p
		}
	}
	return best
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
