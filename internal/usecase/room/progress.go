package usecase_room

import (
	"context"
	"math"

	"github.com/coderacer/core/internal/model"
)

const (
	MaxWPM      = 400.0
	MaxAccuracy = 100.0
)

type ProgressUpdate struct {
	Code     string
	UserID   model.UserID
	Progress int
	WPM      float64
	Accuracy float64
}

// UpdateProgress stores clamped live telemetry. By default a later, smaller
// progress value overwrites a larger one; see WithMonotonicProgress.
func (u *Usecase) UpdateProgress(ctx context.Context, upd ProgressUpdate) (model.ProgressResult, error) {
	code := model.NormalizeCode(upd.Code)
	unlock := u.locks.lock(code)
	defer unlock()

	var participant model.Participant
	err := u.tx.InRoomTx(ctx, code, func(ctx context.Context) error {
		room, err := u.rooms.Get(ctx, code)
		if err != nil {
			return err
		}
		participant, err = u.participants.Get(ctx, model.ParticipantKey{RoomCode: code, UserID: upd.UserID})
		if err != nil {
			return err
		}
		snippetLen, err := u.snippetLength(ctx, room.SnippetID)
		if err != nil {
			return err
		}

		progress := clampProgress(upd.Progress, snippetLen)
		if u.monotonicProgress && progress < participant.Progress {
			progress = participant.Progress
		}

		participant.Progress = progress
		participant.WPM = clampFloat(upd.WPM, MaxWPM)
		participant.Accuracy = clampFloat(upd.Accuracy, MaxAccuracy)
		return u.participants.Update(ctx, participant)
	})
	if err != nil {
		return model.ProgressResult{}, u.wrap(err)
	}

	return model.ProgressResult{RoomCode: code, Participant: participant}, nil
}

// snippetLength resolves the text length; an unresolvable snippet yields 0,
// which leaves progress bounded only from below.
func (u *Usecase) snippetLength(ctx context.Context, id model.SnippetID) (int, error) {
	snippet, err := u.snippets.ByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return 0, nil
		}
		return 0, err
	}
	return snippet.Length(), nil
}

func clampProgress(progress, snippetLen int) int {
	if progress < 0 {
		return 0
	}
	if snippetLen > 0 && progress > snippetLen {
		return snippetLen
	}
	return progress
}

func clampFloat(v, limit float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > limit:
		return limit
	}
	return v
}
