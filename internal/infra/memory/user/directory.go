package memory_user

import (
	"context"
	"sync"

	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
)

// Directory resolves users from an in-process table. In open mode any
// non-empty id resolves, with the id doubling as the username; identity is
// then entirely the upstream gateway's business.
type Directory struct {
	mu    sync.RWMutex
	users map[model.UserID]model.User
	open  bool
}

func New(open bool, users ...model.User) *Directory {
	d := &Directory{
		users: make(map[model.UserID]model.User, len(users)),
		open:  open,
	}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

func (d *Directory) Add(u model.User) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.users[u.ID] = u
}

func (d *Directory) User(ctx context.Context, id model.UserID) (model.User, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if u, ok := d.users[id]; ok {
		return u, nil
	}
	if d.open && id != "" {
		return model.User{ID: id, Username: id}, nil
	}
	return model.User{}, usecase_room.ErrNotFound
}
