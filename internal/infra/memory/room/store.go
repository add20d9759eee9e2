package memory_room

import (
	"context"
	"maps"
	"sync"

	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
)

// Store keeps rooms and rosters in process memory. It relies on the
// coordinator's per-room lock for isolation; InRoomTx only adds rollback.
type Store struct {
	mu           sync.RWMutex
	rooms        map[string]model.Room
	participants map[string]map[model.UserID]model.Participant
}

func New() *Store {
	return &Store{
		rooms:        make(map[string]model.Room),
		participants: make(map[string]map[model.UserID]model.Participant),
	}
}

func (s *Store) Rooms() *RoomDriver {
	return &RoomDriver{s: s}
}

func (s *Store) Participants() *ParticipantDriver {
	return &ParticipantDriver{s: s}
}

type snapshot struct {
	room         model.Room
	hasRoom      bool
	participants map[model.UserID]model.Participant
}

func (s *Store) InRoomTx(ctx context.Context, code string, fn func(ctx context.Context) error) error {
	s.mu.RLock()
	snap := snapshot{participants: maps.Clone(s.participants[code])}
	snap.room, snap.hasRoom = s.rooms[code]
	s.mu.RUnlock()

	if err := fn(ctx); err != nil {
		s.restore(code, snap)
		return err
	}
	return nil
}

func (s *Store) restore(code string, snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.hasRoom {
		s.rooms[code] = snap.room
	} else {
		delete(s.rooms, code)
	}
	if snap.participants == nil {
		delete(s.participants, code)
	} else {
		s.participants[code] = snap.participants
	}
}

type RoomDriver struct {
	s *Store
}

func (d *RoomDriver) Get(ctx context.Context, code string) (model.Room, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	room, ok := d.s.rooms[code]
	if !ok {
		return model.Room{}, usecase_room.ErrNotFound
	}
	return room, nil
}

func (d *RoomDriver) Exists(ctx context.Context, code string) (bool, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	_, ok := d.s.rooms[code]
	return ok, nil
}

func (d *RoomDriver) Create(ctx context.Context, room model.Room) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if _, ok := d.s.rooms[room.Code]; ok {
		return usecase_room.ErrCodeConflict
	}
	d.s.rooms[room.Code] = room
	return nil
}

func (d *RoomDriver) Update(ctx context.Context, room model.Room) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if _, ok := d.s.rooms[room.Code]; !ok {
		return usecase_room.ErrNotFound
	}
	d.s.rooms[room.Code] = room
	return nil
}

// Delete drops the room together with whatever roster is left.
func (d *RoomDriver) Delete(ctx context.Context, code string) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if _, ok := d.s.rooms[code]; !ok {
		return usecase_room.ErrNotFound
	}
	delete(d.s.rooms, code)
	delete(d.s.participants, code)
	return nil
}

type ParticipantDriver struct {
	s *Store
}

func (d *ParticipantDriver) Get(ctx context.Context, key model.ParticipantKey) (model.Participant, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	p, ok := d.s.participants[key.RoomCode][key.UserID]
	if !ok {
		return model.Participant{}, usecase_room.ErrNotFound
	}
	return p, nil
}

func (d *ParticipantDriver) Create(ctx context.Context, p model.Participant) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	if _, ok := d.s.rooms[p.RoomCode]; !ok {
		return usecase_room.ErrNotFound
	}
	roster, ok := d.s.participants[p.RoomCode]
	if !ok {
		roster = make(map[model.UserID]model.Participant)
		d.s.participants[p.RoomCode] = roster
	}
	if _, ok := roster[p.UserID]; ok {
		return usecase_room.ErrConflict
	}
	roster[p.UserID] = p
	return nil
}

func (d *ParticipantDriver) Update(ctx context.Context, p model.Participant) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	roster := d.s.participants[p.RoomCode]
	if _, ok := roster[p.UserID]; !ok {
		return usecase_room.ErrNotFound
	}
	roster[p.UserID] = p
	return nil
}

func (d *ParticipantDriver) Delete(ctx context.Context, key model.ParticipantKey) error {
	d.s.mu.Lock()
	defer d.s.mu.Unlock()

	roster := d.s.participants[key.RoomCode]
	if _, ok := roster[key.UserID]; !ok {
		return usecase_room.ErrNotFound
	}
	delete(roster, key.UserID)
	if len(roster) == 0 {
		delete(d.s.participants, key.RoomCode)
	}
	return nil
}

func (d *ParticipantDriver) ListByRoom(ctx context.Context, code string) ([]model.Participant, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	roster := d.s.participants[code]
	out := make([]model.Participant, 0, len(roster))
	for _, p := range roster {
		out = append(out, p)
	}
	model.SortByJoin(out)
	return out, nil
}

func (d *ParticipantDriver) NextFinishPosition(ctx context.Context, code string) (int, error) {
	d.s.mu.RLock()
	defer d.s.mu.RUnlock()

	last := 0
	for _, p := range d.s.participants[code] {
		if p.FinishPosition != nil && *p.FinishPosition > last {
			last = *p.FinishPosition
		}
	}
	return last + 1, nil
}
