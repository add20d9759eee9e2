package model

import (
	"sort"
	"time"
)

type ParticipantKey struct {
	RoomCode string
	UserID   UserID
}

type Participant struct {
	RoomCode       string     `json:"room_code"`
	UserID         UserID     `json:"user_id"`
	Username       string     `json:"username"`
	Progress       int        `json:"progress"`
	WPM            float64    `json:"wpm"`
	Accuracy       float64    `json:"accuracy"`
	IsFinished     bool       `json:"is_finished"`
	FinishPosition *int       `json:"finish_position,omitempty"`
	JoinedAt       time.Time  `json:"joined_at"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

func (p Participant) Key() ParticipantKey {
	return ParticipantKey{RoomCode: p.RoomCode, UserID: p.UserID}
}

// Reset drops race telemetry back to join-time defaults.
func (p *Participant) Reset() {
	p.Progress = 0
	p.WPM = 0
	p.Accuracy = 0
	p.IsFinished = false
	p.FinishPosition = nil
	p.FinishedAt = nil
}

// JoinedBefore orders by join time, then by user id.
func (p Participant) JoinedBefore(other Participant) bool {
	if !p.JoinedAt.Equal(other.JoinedAt) {
		return p.JoinedAt.Before(other.JoinedAt)
	}
	return p.UserID < other.UserID
}

// SortByJoin sorts in place, earliest joiner first.
func SortByJoin(ps []Participant) {
	sort.SliceStable(ps, func(i, j int) bool {
		return ps[i].JoinedBefore(ps[j])
	})
}

// RankedResults returns the finished participants ordered by finish position.
func RankedResults(ps []Participant) []Participant {
	ranked := make([]Participant, 0, len(ps))
	for _, p := range ps {
		if p.IsFinished && p.FinishPosition != nil {
			ranked = append(ranked, p)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return *ranked[i].FinishPosition < *ranked[j].FinishPosition
	})
	return ranked
}

func CountFinished(ps []Participant) int {
	n := 0
	for _, p := range ps {
		if p.IsFinished {
			n++
		}
	}
	return n
}
