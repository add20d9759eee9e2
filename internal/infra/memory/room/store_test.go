package memory_room

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedRoom(t *testing.T, s *Store, code string) {
	t.Helper()
	require.NoError(t, s.Rooms().Create(context.Background(), model.Room{Code: code, Status: model.StatusWaiting, MaxPlayers: 4}))
}

func TestRoomCreateConflict(t *testing.T) {
	s := New()
	seedRoom(t, s, "AAAAAA")

	err := s.Rooms().Create(context.Background(), model.Room{Code: "AAAAAA"})
	assert.ErrorIs(t, err, usecase_room.ErrCodeConflict)
}

func TestParticipantCreateRules(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.Participants().Create(ctx, model.Participant{RoomCode: "NOROOM", UserID: "a"})
	assert.ErrorIs(t, err, usecase_room.ErrNotFound)

	seedRoom(t, s, "AAAAAA")
	require.NoError(t, s.Participants().Create(ctx, model.Participant{RoomCode: "AAAAAA", UserID: "a"}))
	err = s.Participants().Create(ctx, model.Participant{RoomCode: "AAAAAA", UserID: "a"})
	assert.ErrorIs(t, err, usecase_room.ErrConflict)
}

func TestListByRoomOrdersByJoin(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedRoom(t, s, "AAAAAA")

	now := time.Now()
	for i, id := range []string{"c", "a", "b"} {
		require.NoError(t, s.Participants().Create(ctx, model.Participant{
			RoomCode: "AAAAAA", UserID: id, JoinedAt: now.Add(time.Duration(i) * time.Second),
		}))
	}

	list, err := s.Participants().ListByRoom(ctx, "AAAAAA")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "c", list[0].UserID)
	assert.Equal(t, "b", list[2].UserID)
}

func TestNextFinishPosition(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedRoom(t, s, "AAAAAA")

	next, err := s.Participants().NextFinishPosition(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 1, next)

	three := 3
	require.NoError(t, s.Participants().Create(ctx, model.Participant{RoomCode: "AAAAAA", UserID: "a", IsFinished: true, FinishPosition: &three}))

	next, err = s.Participants().NextFinishPosition(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, 4, next)
}

func TestInRoomTxRollsBack(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedRoom(t, s, "AAAAAA")
	require.NoError(t, s.Participants().Create(ctx, model.Participant{RoomCode: "AAAAAA", UserID: "a"}))

	boom := errors.New("boom")
	err := s.InRoomTx(ctx, "AAAAAA", func(ctx context.Context) error {
		require.NoError(t, s.Participants().Create(ctx, model.Participant{RoomCode: "AAAAAA", UserID: "b"}))
		require.NoError(t, s.Participants().Delete(ctx, model.ParticipantKey{RoomCode: "AAAAAA", UserID: "a"}))
		require.NoError(t, s.Rooms().Update(ctx, model.Room{Code: "AAAAAA", Status: model.StatusInProgress}))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	room, err := s.Rooms().Get(ctx, "AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, model.StatusWaiting, room.Status)

	list, err := s.Participants().ListByRoom(ctx, "AAAAAA")
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "a", list[0].UserID)
}

func TestInRoomTxRollsBackCreation(t *testing.T) {
	ctx := context.Background()
	s := New()

	err := s.InRoomTx(ctx, "BBBBBB", func(ctx context.Context) error {
		require.NoError(t, s.Rooms().Create(ctx, model.Room{Code: "BBBBBB"}))
		return usecase_room.ErrConflict
	})
	assert.Error(t, err)

	exists, err := s.Rooms().Exists(ctx, "BBBBBB")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestDeleteDropsRoster(t *testing.T) {
	ctx := context.Background()
	s := New()
	seedRoom(t, s, "AAAAAA")
	require.NoError(t, s.Participants().Create(ctx, model.Participant{RoomCode: "AAAAAA", UserID: "a"}))

	require.NoError(t, s.Rooms().Delete(ctx, "AAAAAA"))

	_, err := s.Participants().Get(ctx, model.ParticipantKey{RoomCode: "AAAAAA", UserID: "a"})
	assert.ErrorIs(t, err, usecase_room.ErrNotFound)
	assert.ErrorIs(t, s.Rooms().Delete(ctx, "AAAAAA"), usecase_room.ErrNotFound)
}
