package memory_snippet

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
)

type Catalog struct {
	mu       sync.RWMutex
	snippets []model.Snippet
	nextID   model.SnippetID
}

func New(snippets ...model.Snippet) *Catalog {
	c := &Catalog{}
	for _, s := range snippets {
		c.Add(s)
	}
	return c
}

// Add stores the snippet, assigning an id when it has none.
func (c *Catalog) Add(s model.Snippet) model.Snippet {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s.ID == 0 {
		c.nextID++
		s.ID = c.nextID
	} else if s.ID > c.nextID {
		c.nextID = s.ID
	}
	s.Language = strings.ToLower(s.Language)
	c.snippets = append(c.snippets, s)
	return s
}

func (c *Catalog) ByID(ctx context.Context, id model.SnippetID) (model.Snippet, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, s := range c.snippets {
		if s.ID == id {
			return s, nil
		}
	}
	return model.Snippet{}, usecase_room.ErrNotFound
}

func (c *Catalog) Resolve(ctx context.Context, sel model.SnippetSelector) (model.Snippet, error) {
	if sel.ID != nil {
		return c.ByID(ctx, *sel.ID)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	lang := strings.ToLower(sel.Language)
	candidates := make([]model.Snippet, 0, len(c.snippets))
	for _, s := range c.snippets {
		if lang == "" || s.Language == lang {
			candidates = append(candidates, s)
		}
	}
	if len(candidates) == 0 {
		return model.Snippet{}, usecase_room.ErrNotFound
	}
	return candidates[rand.Intn(len(candidates))], nil
}
