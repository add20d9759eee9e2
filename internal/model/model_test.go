package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	allowed := map[Status]Status{
		StatusWaiting:    StatusInProgress,
		StatusInProgress: StatusFinished,
		StatusFinished:   StatusWaiting,
	}
	all := []Status{StatusWaiting, StatusInProgress, StatusFinished}

	for _, from := range all {
		for _, to := range all {
			assert.Equal(t, allowed[from] == to, from.CanTransition(to), "%s -> %s", from, to)
		}
	}
	assert.False(t, Status("paused").Valid())
}

func TestCodes(t *testing.T) {
	assert.Equal(t, "AB12CD", NormalizeCode(" ab12cd "))
	assert.True(t, IsValidCode("AB12CD"))
	assert.False(t, IsValidCode("ab12cd"))
	assert.False(t, IsValidCode("AB12C"))
	assert.False(t, IsValidCode("AB-2CD"))
}

func TestSnippetLengthCountsCodePoints(t *testing.T) {
	assert.Equal(t, 5, Snippet{Code: "héllo"}.Length())
	assert.Equal(t, 0, Snippet{}.Length())
}

func TestRankedResults(t *testing.T) {
	pos := func(n int) *int { return &n }
	ps := []Participant{
		{UserID: "c", IsFinished: true, FinishPosition: pos(3)},
		{UserID: "x"},
		{UserID: "a", IsFinished: true, FinishPosition: pos(1)},
		{UserID: "b", IsFinished: true, FinishPosition: pos(2)},
	}

	ranked := RankedResults(ps)

	require.Len(t, ranked, 3)
	assert.Equal(t, "a", ranked[0].UserID)
	assert.Equal(t, "b", ranked[1].UserID)
	assert.Equal(t, "c", ranked[2].UserID)
	assert.Equal(t, 3, CountFinished(ps))
}

func TestSortByJoinBreaksTiesByUserID(t *testing.T) {
	now := time.Now()
	ps := []Participant{
		{UserID: "zed", JoinedAt: now},
		{UserID: "late", JoinedAt: now.Add(time.Second)},
		{UserID: "amy", JoinedAt: now},
	}

	SortByJoin(ps)

	assert.Equal(t, []string{"amy", "zed", "late"}, []string{ps[0].UserID, ps[1].UserID, ps[2].UserID})
}

func TestParticipantReset(t *testing.T) {
	n := 1
	finished := time.Now()
	p := Participant{UserID: "a", Username: "alice", Progress: 9, WPM: 70, Accuracy: 98, IsFinished: true, FinishPosition: &n, FinishedAt: &finished}

	p.Reset()

	assert.Equal(t, Participant{UserID: "a", Username: "alice"}, p)
}
