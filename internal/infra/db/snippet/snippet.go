package infra_db_snippet

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	infra_db_tx "github.com/coderacer/core/internal/infra/db/tx"
	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/jmoiron/sqlx"
)

type Driver struct {
	db *sqlx.DB
}

func New(
	db *sqlx.DB,
) *Driver {
	return &Driver{db: db}
}

type snippetDTO struct {
	ID       int64          `db:"id"`
	Language sql.NullString `db:"language"`
	Code     string         `db:"code"`
}

func (dto snippetDTO) model() model.Snippet {
	return model.Snippet{
		ID:       dto.ID,
		Language: dto.Language.String,
		Code:     dto.Code,
	}
}

const selectSnippet = `
	SELECT s.id, l.name AS language, s.code
	FROM snippets s
	LEFT JOIN languages l ON l.id = s.language_id
`

func (d *Driver) ByID(ctx context.Context, id model.SnippetID) (model.Snippet, error) {
	var dto snippetDTO

	err := sqlx.GetContext(ctx, infra_db_tx.Ext(ctx, d.db), &dto, d.db.Rebind(selectSnippet+` WHERE s.id = ?`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Snippet{}, usecase_room.ErrNotFound
		}
		return model.Snippet{}, err
	}
	return dto.model(), nil
}

// Resolve picks by id when given, otherwise a random snippet, restricted to
// the language when one is named.
func (d *Driver) Resolve(ctx context.Context, sel model.SnippetSelector) (model.Snippet, error) {
	if sel.ID != nil {
		return d.ByID(ctx, *sel.ID)
	}

	var (
		dto  snippetDTO
		err  error
		lang = strings.ToLower(sel.Language)
	)
	q := infra_db_tx.Ext(ctx, d.db)
	if lang == "" {
		err = sqlx.GetContext(ctx, q, &dto, selectSnippet+` ORDER BY RANDOM() LIMIT 1`)
	} else {
		err = sqlx.GetContext(ctx, q, &dto, d.db.Rebind(selectSnippet+` WHERE l.name = ? ORDER BY RANDOM() LIMIT 1`), lang)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.Snippet{}, usecase_room.ErrNotFound
		}
		return model.Snippet{}, err
	}
	return dto.model(), nil
}

// Seed loads snippets into an empty catalog. It reports how many were added.
func (d *Driver) Seed(ctx context.Context, snippets []model.Snippet) (int, error) {
	var count int
	if err := d.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM snippets`); err != nil {
		return 0, err
	}
	if count > 0 {
		return 0, nil
	}

	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, s := range snippets {
		lang := strings.ToLower(s.Language)
		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO languages (name) VALUES (?) ON CONFLICT (name) DO NOTHING`), lang,
		); err != nil {
			return 0, err
		}

		var langID int64
		if err := tx.GetContext(ctx, &langID, tx.Rebind(`SELECT id FROM languages WHERE name = ?`), lang); err != nil {
			return 0, err
		}

		if _, err := tx.ExecContext(ctx,
			tx.Rebind(`INSERT INTO snippets (language_id, code) VALUES (?, ?)`), langID, s.Code,
		); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(snippets), nil
}
