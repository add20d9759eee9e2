package app

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/coderacer/core/internal/config"
	http_health "github.com/coderacer/core/internal/delivery/http/health"
	http_init "github.com/coderacer/core/internal/delivery/http/init"
	http_access_middleware "github.com/coderacer/core/internal/delivery/http/middleware/access"
	http_identity_middleware "github.com/coderacer/core/internal/delivery/http/middleware/identity"
	http_room "github.com/coderacer/core/internal/delivery/http/room"
	ws_room "github.com/coderacer/core/internal/delivery/ws/room"
	infra_db_init "github.com/coderacer/core/internal/infra/db/init"
	infra_db_room "github.com/coderacer/core/internal/infra/db/room"
	infra_db_snippet "github.com/coderacer/core/internal/infra/db/snippet"
	infra_db_user "github.com/coderacer/core/internal/infra/db/user"
	memory_room "github.com/coderacer/core/internal/infra/memory/room"
	memory_snippet "github.com/coderacer/core/internal/infra/memory/snippet"
	memory_user "github.com/coderacer/core/internal/infra/memory/user"
	infra_redis_code_set "github.com/coderacer/core/internal/infra/redis/code_set"
	infra_redis_events "github.com/coderacer/core/internal/infra/redis/events"
	infra_redis_init "github.com/coderacer/core/internal/infra/redis/init"
	"github.com/coderacer/core/internal/infra/seed"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/jmoiron/sqlx"
)

const codeSetKey = "room_codes"

type storage struct {
	rooms        usecase_room.RoomRepository
	participants usecase_room.ParticipantRepository
	tx           usecase_room.Transactor
	snippets     usecase_room.SnippetResolver
	users        usecase_room.UserDirectory
	db           *sqlx.DB
}

func mustBuildStorage(ctx context.Context, cfg *config.Config) storage {
	if cfg.Storage.Driver == "memory" {
		store := memory_room.New()
		return storage{
			rooms:        store.Rooms(),
			participants: store.Participants(),
			tx:           store,
			snippets:     memory_snippet.New(seed.Snippets()...),
			users:        memory_user.New(cfg.Users.Open, seed.Users(cfg.Users.Seed)...),
		}
	}

	db := infra_db_init.MustEstablishConn(cfg.Storage, cfg.Postgres)
	snippets := infra_db_snippet.New(db)
	if n, err := snippets.Seed(ctx, seed.Snippets()); err != nil {
		log.Fatalf("failed to seed snippets: %v", err)
	} else if n > 0 {
		slog.Info("seeded snippets", slog.Int("count", n))
	}

	users := infra_db_user.New(db, cfg.Users.Open)
	for _, u := range seed.Users(cfg.Users.Seed) {
		if err := users.Upsert(ctx, u); err != nil {
			log.Fatalf("failed to seed user %s: %v", u.ID, err)
		}
	}

	driver := infra_db_room.New(db)
	return storage{
		rooms:        driver.Rooms(),
		participants: driver.Participants(),
		tx:           driver,
		snippets:     snippets,
		users:        users,
		db:           db,
	}
}

func Go(cfg *config.Config) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := slog.Default()
	st := mustBuildStorage(ctx, cfg)

	ucOpts := []usecase_room.Option{
		usecase_room.WithLogger(logger),
		usecase_room.WithPlayerLimits(cfg.Race.DefaultMaxPlayers, cfg.Race.MaxPlayersLimit),
		usecase_room.WithMonotonicProgress(cfg.Race.MonotonicProgress),
	}
	hubOpts := []ws_room.HubOption{ws_room.WithHubLogger(logger)}

	var relay *infra_redis_events.Relay
	if cfg.Redis.Enabled {
		redisConn := infra_redis_init.MustEstablishConn(cfg.Redis)
		defer redisConn.Close()

		ucOpts = append(ucOpts, usecase_room.WithCodeReserver(infra_redis_code_set.New(redisConn, codeSetKey)))
		relay = infra_redis_events.New(redisConn, logger)
		hubOpts = append(hubOpts, ws_room.WithRelay(relay))
	}

	roomUC := usecase_room.New(st.rooms, st.participants, st.tx, st.snippets, st.users, ucOpts...)
	hub := ws_room.NewHub(roomUC, hubOpts...)

	if relay != nil {
		go func() {
			if err := relay.Run(ctx, hub.Deliver); err != nil {
				logger.Error("event relay stopped", slog.String("error", err.Error()))
			}
		}()
	}

	controllerPool := http_init.NewControllerPool(http_access_middleware.ReadOnlyBadGatewayMiddleware(cfg.Mode))
	controllerPool.Add(http_health.New())
	controllerPool.Add(http_room.New(roomUC, hub, http_identity_middleware.New(), http_room.WithLogger(logger)))
	controllerPool.Add(ws_room.NewController(hub, ws_room.WithLogger(logger)))
	controllerPool.Register()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		if err := controllerPool.Shutdown(context.Background()); err != nil {
			logger.Error("http shutdown failed", slog.String("error", err.Error()))
		}
	}()

	logger.Info("serving", slog.String("port", cfg.HTTP.Port), slog.String("storage", cfg.Storage.Driver))
	controllerPool.RunAll(cfg.HTTP.Port)

	if st.db != nil {
		st.db.Close()
	}
}
