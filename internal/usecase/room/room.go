package usecase_room

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/coderacer/core/internal/model"
	"github.com/google/uuid"
)

var (
	ErrNotFound     = errors.New("no such resource")
	ErrConflict     = errors.New("already in room")
	ErrCapacity     = errors.New("room is full")
	ErrInvalidState = errors.New("operation not allowed in current state")
	ErrForbidden    = errors.New("host only operation")
	ErrInternal     = errors.New("internal error")

	// ErrCodeConflict is reported by RoomRepository.Create when the code
	// is taken. It never leaves the usecase.
	ErrCodeConflict = errors.New("code conflict")
)

const (
	defaultMaxPlayers      = 4
	defaultMaxPlayersLimit = 16
)

type Store[K comparable, T any] interface {
	Get(ctx context.Context, key K) (T, error)
	Create(ctx context.Context, v T) error
	Update(ctx context.Context, v T) error
	Delete(ctx context.Context, key K) error
}

//go:generate mockery --name=RoomRepository --output=./mocks/repository --filename=room_repository.go
type RoomRepository interface {
	Store[string, model.Room]
	Exists(ctx context.Context, code string) (bool, error)
}

//go:generate mockery --name=ParticipantRepository --output=./mocks/repository --filename=participant_repository.go
type ParticipantRepository interface {
	Store[model.ParticipantKey, model.Participant]
	// ListByRoom returns the roster ordered by join time.
	ListByRoom(ctx context.Context, code string) ([]model.Participant, error)
	// NextFinishPosition returns the next unused finish ordinal for the
	// room. Callers must hold the room transaction.
	NextFinishPosition(ctx context.Context, code string) (int, error)
}

// Transactor runs fn so that every store write it makes for the room either
// commits together or not at all.
type Transactor interface {
	InRoomTx(ctx context.Context, code string, fn func(ctx context.Context) error) error
}

//go:generate mockery --name=SnippetResolver --output=./mocks/snippet --filename=resolver.go
type SnippetResolver interface {
	Resolve(ctx context.Context, sel model.SnippetSelector) (model.Snippet, error)
	ByID(ctx context.Context, id model.SnippetID) (model.Snippet, error)
}

//go:generate mockery --name=UserDirectory --output=./mocks/user --filename=directory.go
type UserDirectory interface {
	User(ctx context.Context, id model.UserID) (model.User, error)
}

//go:generate mockery --name=CodeReserver --output=./mocks/code --filename=reserver.go
type CodeReserver interface {
	Reserve(ctx context.Context, code string) (bool, error)
	Release(ctx context.Context, code string) error
}

type Usecase struct {
	rooms        RoomRepository
	participants ParticipantRepository
	tx           Transactor
	snippets     SnippetResolver
	users        UserDirectory
	codes        CodeReserver

	locks  *roomLocks
	now    func() time.Time
	logger *slog.Logger

	defaultMaxPlayers int
	maxPlayersLimit   int
	monotonicProgress bool
}

type Option func(*Usecase)

func WithLogger(logger *slog.Logger) Option {
	return func(u *Usecase) {
		u.logger = logger
	}
}

func WithCodeReserver(codes CodeReserver) Option {
	return func(u *Usecase) {
		u.codes = codes
	}
}

func WithClock(now func() time.Time) Option {
	return func(u *Usecase) {
		u.now = now
	}
}

// WithPlayerLimits sets the capacity used when a room is created without one
// and the ceiling any requested capacity is clamped to.
func WithPlayerLimits(def, limit int) Option {
	return func(u *Usecase) {
		if def > 0 {
			u.defaultMaxPlayers = def
		}
		if limit > 0 {
			u.maxPlayersLimit = limit
		}
	}
}

// WithMonotonicProgress makes UpdateProgress keep the larger of the stored
// and incoming progress instead of overwriting.
func WithMonotonicProgress(enabled bool) Option {
	return func(u *Usecase) {
		u.monotonicProgress = enabled
	}
}

func New(
	rooms RoomRepository,
	participants ParticipantRepository,
	tx Transactor,
	snippets SnippetResolver,
	users UserDirectory,
	opts ...Option,
) *Usecase {
	u := &Usecase{
		rooms:             rooms,
		participants:      participants,
		tx:                tx,
		snippets:          snippets,
		users:             users,
		locks:             newRoomLocks(),
		now:               time.Now,
		logger:            slog.Default(),
		defaultMaxPlayers: defaultMaxPlayers,
		maxPlayersLimit:   defaultMaxPlayersLimit,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.defaultMaxPlayers > u.maxPlayersLimit {
		u.defaultMaxPlayers = u.maxPlayersLimit
	}
	return u
}

type CreateRoomParams struct {
	HostID     model.UserID
	Selector   model.SnippetSelector
	MaxPlayers int
}

func (u *Usecase) CreateRoom(ctx context.Context, params CreateRoomParams) (model.Room, error) {
	host, err := u.users.User(ctx, params.HostID)
	if err != nil {
		return model.Room{}, u.wrap(err)
	}

	snippet, err := u.snippets.Resolve(ctx, params.Selector)
	if err != nil {
		return model.Room{}, u.wrap(err)
	}

	maxPlayers := u.capacity(params.MaxPlayers)

	// Assuming that codes can conflict.
	// Retrying until a free one is found.
	for attempt := 1; ; attempt++ {
		code, err := u.reserveCode(ctx)
		if err != nil {
			return model.Room{}, errors.Join(ErrInternal, err)
		}

		room, err := u.createRoomLobby(ctx, code, host, snippet.ID, maxPlayers)
		if err == nil {
			u.logger.Info("room created",
				slog.String("room", room.Code),
				slog.String("host", host.ID),
				slog.Int("max_players", maxPlayers),
				slog.Int("attempts", attempt),
			)
			return room, nil
		}

		u.releaseCode(ctx, code)
		if !errors.Is(err, ErrCodeConflict) {
			return model.Room{}, u.wrap(err)
		}
	}
}

func (u *Usecase) createRoomLobby(
	ctx context.Context,
	code string,
	host model.User,
	snippetID model.SnippetID,
	maxPlayers int,
) (model.Room, error) {
	unlock := u.locks.lock(code)
	defer unlock()

	now := u.now()
	room := model.Room{
		ID:         uuid.New(),
		Code:       code,
		HostUserID: host.ID,
		SnippetID:  snippetID,
		Status:     model.StatusWaiting,
		MaxPlayers: maxPlayers,
		CreatedAt:  now,
	}

	err := u.tx.InRoomTx(ctx, code, func(ctx context.Context) error {
		if err := u.rooms.Create(ctx, room); err != nil {
			return err
		}
		return u.participants.Create(ctx, model.Participant{
			RoomCode: code,
			UserID:   host.ID,
			Username: host.Username,
			JoinedAt: now,
		})
	})
	if err != nil {
		return model.Room{}, err
	}
	return room, nil
}

func (u *Usecase) capacity(requested int) int {
	switch {
	case requested <= 0:
		return u.defaultMaxPlayers
	case requested > u.maxPlayersLimit:
		return u.maxPlayersLimit
	}
	return requested
}

func (u *Usecase) StartRoom(ctx context.Context, code string, requester model.UserID) (model.Room, error) {
	code = model.NormalizeCode(code)
	unlock := u.locks.lock(code)
	defer unlock()

	var room model.Room
	err := u.tx.InRoomTx(ctx, code, func(ctx context.Context) error {
		var err error
		room, err = u.rooms.Get(ctx, code)
		if err != nil {
			return err
		}
		if !room.IsHost(requester) {
			return ErrForbidden
		}
		if !room.Status.CanTransition(model.StatusInProgress) {
			return ErrInvalidState
		}

		startedAt := u.now()
		room.Status = model.StatusInProgress
		room.StartedAt = &startedAt
		return u.rooms.Update(ctx, room)
	})
	if err != nil {
		return model.Room{}, u.wrap(err)
	}

	u.logger.Info("race started", slog.String("room", code), slog.String("host", requester))
	return room, nil
}

func (u *Usecase) GetRoom(ctx context.Context, code string) (model.Room, error) {
	room, err := u.rooms.Get(ctx, model.NormalizeCode(code))
	if err != nil {
		return model.Room{}, u.wrap(err)
	}
	return room, nil
}

func (u *Usecase) RoomExists(ctx context.Context, code string) (bool, error) {
	exists, err := u.rooms.Exists(ctx, model.NormalizeCode(code))
	if err != nil {
		return false, errors.Join(ErrInternal, err)
	}
	return exists, nil
}

// RoomState is the lobby/race view: room, roster in join order and the text.
func (u *Usecase) RoomState(ctx context.Context, code string) (model.RoomState, error) {
	code = model.NormalizeCode(code)

	room, err := u.rooms.Get(ctx, code)
	if err != nil {
		return model.RoomState{}, u.wrap(err)
	}
	participants, err := u.participants.ListByRoom(ctx, code)
	if err != nil {
		return model.RoomState{}, u.wrap(err)
	}
	snippet, err := u.snippets.ByID(ctx, room.SnippetID)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return model.RoomState{}, u.wrap(err)
	}

	return model.RoomState{
		Room:         room,
		Participants: participants,
		Snippet:      snippet,
	}, nil
}

// DeleteRoom lets the host dissolve the room regardless of its status.
func (u *Usecase) DeleteRoom(ctx context.Context, code string, requester model.UserID) (model.DeleteResult, error) {
	code = model.NormalizeCode(code)
	unlock := u.locks.lock(code)
	defer unlock()

	err := u.tx.InRoomTx(ctx, code, func(ctx context.Context) error {
		room, err := u.rooms.Get(ctx, code)
		if err != nil {
			return err
		}
		if !room.IsHost(requester) {
			return ErrForbidden
		}
		participants, err := u.participants.ListByRoom(ctx, code)
		if err != nil {
			return err
		}
		for _, p := range participants {
			if err := u.participants.Delete(ctx, p.Key()); err != nil {
				return err
			}
		}
		return u.rooms.Delete(ctx, code)
	})
	if err != nil {
		return model.DeleteResult{}, u.wrap(err)
	}

	u.releaseCode(ctx, code)
	u.logger.Info("room deleted by host", slog.String("room", code), slog.String("host", requester))
	return model.DeleteResult{RoomCode: code}, nil
}

// wrap keeps the typed failures as they are and tags everything else as internal.
func (u *Usecase) wrap(err error) error {
	for _, typed := range []error{ErrNotFound, ErrConflict, ErrCapacity, ErrInvalidState, ErrForbidden} {
		if errors.Is(err, typed) {
			return typed
		}
	}
	if errors.Is(err, ErrInternal) {
		return err
	}
	return errors.Join(ErrInternal, err)
}
