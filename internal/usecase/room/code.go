package usecase_room

import (
	"context"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/coderacer/core/internal/model"
)

// reserveCode draws codes until the reserver (when configured) accepts one.
// Uniqueness against the store itself is settled by the insert.
func (u *Usecase) reserveCode(ctx context.Context) (string, error) {
	for {
		code := buildRoomCode()
		if u.codes == nil {
			return code, nil
		}

		ok, err := u.codes.Reserve(ctx, code)
		if err != nil {
			return "", err
		}
		if ok {
			return code, nil
		}
	}
}

func (u *Usecase) releaseCode(ctx context.Context, code string) {
	if u.codes == nil {
		return
	}
	if err := u.codes.Release(ctx, code); err != nil {
		u.logger.Warn("failed to release room code",
			slog.String("room", code),
			slog.String("error", err.Error()),
		)
	}
}

func buildRoomCode() string {
	var builder strings.Builder
	builder.Grow(model.RoomCodeLen)

	for range model.RoomCodeLen {
		builder.WriteByte(model.RoomCodeAlphabet[rand.Intn(len(model.RoomCodeAlphabet))])
	}

	return builder.String()
}
