package integrationtest

import (
	"context"
	"sync"
	"testing"

	infra_db_init "github.com/coderacer/core/internal/infra/db/init"
	infra_db_room "github.com/coderacer/core/internal/infra/db/room"
	infra_db_snippet "github.com/coderacer/core/internal/infra/db/snippet"
	infra_db_user "github.com/coderacer/core/internal/infra/db/user"
	"github.com/coderacer/core/internal/infra/seed"
	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/jmoiron/sqlx"

	"github.com/ozontech/allure-go/pkg/framework/provider"
	"github.com/ozontech/allure-go/pkg/framework/suite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type UsecaseRoomIntegrationSuite struct {
	suite.Suite
	db *sqlx.DB
	uc *usecase_room.Usecase
}

func initRoomUsecase(t provider.T) (*sqlx.DB, *usecase_room.Usecase) {
	cfg := getConfig()
	ctx := context.Background()

	db, err := infra_db_init.ConnectPostgres(cfg.Postgres)
	require.NoError(t, err)
	require.NoError(t, infra_db_init.Migrate(ctx, db))

	snippets := infra_db_snippet.New(db)
	_, err = snippets.Seed(ctx, seed.Snippets())
	require.NoError(t, err)

	driver := infra_db_room.New(db)
	usecase := usecase_room.New(
		driver.Rooms(),
		driver.Participants(),
		driver,
		snippets,
		infra_db_user.New(db, true),
	)
	return db, usecase
}

func (s *UsecaseRoomIntegrationSuite) BeforeAll(t provider.T) {
	s.db, s.uc = initRoomUsecase(t)
}

func (s *UsecaseRoomIntegrationSuite) AfterAll(t provider.T) {
	s.db.Close()
}

func (s *UsecaseRoomIntegrationSuite) TestIntegrationLobby(t provider.T) {
	ctx := context.Background()

	room, err := s.uc.CreateRoom(ctx, usecase_room.CreateRoomParams{HostID: "it-host", MaxPlayers: 2})
	require.NoError(t, err)
	defer s.uc.DeleteRoom(ctx, room.Code, "it-host")

	assert.Len(t, room.Code, 6)
	assert.Equal(t, model.StatusWaiting, room.Status)

	exists, err := s.uc.RoomExists(ctx, room.Code)
	assert.NoError(t, err)
	assert.True(t, exists)

	_, err = s.uc.Join(ctx, room.Code, "it-guest", "")
	assert.NoError(t, err)
	_, err = s.uc.Join(ctx, room.Code, "it-third", "")
	assert.ErrorIs(t, err, usecase_room.ErrCapacity)

	res, err := s.uc.Leave(ctx, room.Code, "it-host")
	assert.NoError(t, err)
	assert.True(t, res.HostChanged)
	assert.Equal(t, "it-guest", res.HostUserID)

	res, err = s.uc.Leave(ctx, room.Code, "it-guest")
	assert.NoError(t, err)
	assert.True(t, res.RoomDeleted)
}

func (s *UsecaseRoomIntegrationSuite) TestIntegrationConcurrentFinish(t provider.T) {
	ctx := context.Background()
	players := []string{"it-a", "it-b", "it-c", "it-d"}

	room, err := s.uc.CreateRoom(ctx, usecase_room.CreateRoomParams{HostID: players[0], MaxPlayers: len(players)})
	require.NoError(t, err)
	defer s.uc.DeleteRoom(ctx, room.Code, players[0])

	for _, p := range players[1:] {
		_, err := s.uc.Join(ctx, room.Code, p, "")
		require.NoError(t, err)
	}
	_, err = s.uc.StartRoom(ctx, room.Code, players[0])
	require.NoError(t, err)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		positions = map[int]bool{}
		finished  int
	)
	for _, p := range players {
		wg.Add(1)
		go func(user string) {
			defer wg.Done()
			res, err := s.uc.Finish(ctx, usecase_room.FinishRequest{Code: room.Code, UserID: user, WPM: 50, Accuracy: 90})
			if err != nil {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			positions[res.Position] = true
			if res.RoomFinished {
				finished++
			}
		}(p)
	}
	wg.Wait()

	assert.Len(t, positions, len(players))
	for pos := 1; pos <= len(players); pos++ {
		assert.True(t, positions[pos], "position %d", pos)
	}
	assert.Equal(t, 1, finished)
}

func TestRoomIntegrationSuite(t *testing.T) {
	if !enabled() {
		t.Skip("INTEGRATION not set")
	}
	suite.RunSuite(t, new(UsecaseRoomIntegrationSuite))
}
