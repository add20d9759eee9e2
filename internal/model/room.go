package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type UserID = string

type Status string

const (
	StatusWaiting    Status = "waiting"
	StatusInProgress Status = "in_progress"
	StatusFinished   Status = "finished"
)

// CanTransition reports whether the room state machine permits moving
// from s to next. finished -> waiting is the rematch edge.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusWaiting:
		return next == StatusInProgress
	case StatusInProgress:
		return next == StatusFinished
	case StatusFinished:
		return next == StatusWaiting
	}
	return false
}

func (s Status) Valid() bool {
	return s == StatusWaiting || s == StatusInProgress || s == StatusFinished
}

const (
	RoomCodeLen      = 6
	RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// NormalizeCode upper-cases and trims user supplied room codes.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func IsValidCode(code string) bool {
	if len(code) != RoomCodeLen {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(RoomCodeAlphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

type Room struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code"`
	HostUserID UserID     `json:"host_user_id"`
	SnippetID  SnippetID  `json:"snippet_id"`
	Status     Status     `json:"status"`
	MaxPlayers int        `json:"max_players"`
	CreatedAt  time.Time  `json:"created_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
}

func (r Room) IsHost(userID UserID) bool {
	return r.HostUserID != "" && r.HostUserID == userID
}
