package infra_db_user

import (
	"context"
	"database/sql"
	"errors"

	infra_db_tx "github.com/coderacer/core/internal/infra/db/tx"
	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/jmoiron/sqlx"
)

// Driver reads the users table, which is owned by the auth side of the
// platform. In open mode an unknown id resolves to itself.
type Driver struct {
	db   *sqlx.DB
	open bool
}

func New(
	db *sqlx.DB,
	open bool,
) *Driver {
	return &Driver{db: db, open: open}
}

func (d *Driver) User(ctx context.Context, id model.UserID) (model.User, error) {
	var user model.User

	query := d.db.Rebind(`SELECT id, username FROM users WHERE id = ?`)
	if err := infra_db_tx.Ext(ctx, d.db).QueryRowxContext(ctx, query, id).Scan(&user.ID, &user.Username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			if d.open && id != "" {
				return model.User{ID: id, Username: id}, nil
			}
			return model.User{}, usecase_room.ErrNotFound
		}
		return model.User{}, err
	}
	return user, nil
}

func (d *Driver) Upsert(ctx context.Context, user model.User) error {
	query := d.db.Rebind(`
		INSERT INTO users (id, username) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET username = excluded.username
	`)
	_, err := d.db.ExecContext(ctx, query, user.ID, user.Username)
	return err
}
