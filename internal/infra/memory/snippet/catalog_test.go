package memory_snippet

import (
	"context"
	"testing"

	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	ctx := context.Background()
	c := New(
		model.Snippet{Language: "Python", Code: "print(1)"},
		model.Snippet{Language: "go", Code: "fmt.Println(1)"},
	)

	id := model.SnippetID(2)
	s, err := c.Resolve(ctx, model.SnippetSelector{ID: &id, Language: "python"})
	require.NoError(t, err)
	assert.Equal(t, "go", s.Language)

	s, err = c.Resolve(ctx, model.SnippetSelector{Language: "PYTHON"})
	require.NoError(t, err)
	assert.Equal(t, "print(1)", s.Code)

	_, err = c.Resolve(ctx, model.SnippetSelector{})
	assert.NoError(t, err)

	_, err = c.Resolve(ctx, model.SnippetSelector{Language: "cobol"})
	assert.ErrorIs(t, err, usecase_room.ErrNotFound)

	missing := model.SnippetID(99)
	_, err = c.Resolve(ctx, model.SnippetSelector{ID: &missing})
	assert.ErrorIs(t, err, usecase_room.ErrNotFound)
}

func TestAddKeepsExplicitIDs(t *testing.T) {
	c := New(model.Snippet{ID: 10, Code: "a"})

	added := c.Add(model.Snippet{Code: "b"})

	assert.Equal(t, model.SnippetID(11), added.ID)
}
