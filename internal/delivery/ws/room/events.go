package ws_room

import (
	"time"

	"github.com/coderacer/core/internal/model"
)

const (
	EventPlayerJoined   = "PLAYER_JOINED"
	EventPlayerLeft     = "PLAYER_LEFT"
	EventHostChanged    = "HOST_CHANGED"
	EventGameStarted    = "GAME_STARTED"
	EventProgressUpdate = "PROGRESS_UPDATE"
	EventPlayerFinished = "PLAYER_FINISHED"
	EventGameFinished   = "GAME_FINISHED"
	EventRematch        = "REMATCH"
	EventRoomDeleted    = "ROOM_DELETED"
	EventError          = "ERROR"
)

// Client to server events.
const (
	InJoinRoom       = "join_room"
	InLeaveRoom      = "leave_room"
	InStartGame      = "start_game"
	InUpdateProgress = "update_progress"
	InFinishRace     = "finish_race"
	InRematch        = "rematch"
)

type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type ParticipantDTO struct {
	UserID         string     `json:"user_id"`
	Username       string     `json:"username"`
	Progress       int        `json:"progress"`
	WPM            float64    `json:"wpm"`
	Accuracy       float64    `json:"accuracy"`
	IsFinished     bool       `json:"is_finished"`
	FinishPosition *int       `json:"finish_position,omitempty"`
	FinishedAt     *time.Time `json:"finished_at,omitempty"`
}

func toParticipantDTOs(participants []model.Participant) []ParticipantDTO {
	dtos := make([]ParticipantDTO, 0, len(participants))
	for _, p := range participants {
		dtos = append(dtos, ParticipantDTO{
			UserID:         p.UserID,
			Username:       p.Username,
			Progress:       p.Progress,
			WPM:            p.WPM,
			Accuracy:       p.Accuracy,
			IsFinished:     p.IsFinished,
			FinishPosition: p.FinishPosition,
			FinishedAt:     p.FinishedAt,
		})
	}
	return dtos
}

type PlayerJoinedPayload struct {
	RoomCode     string           `json:"room_code"`
	UserID       string           `json:"user_id"`
	Username     string           `json:"username"`
	Count        int              `json:"count"`
	Participants []ParticipantDTO `json:"participants"`
}

type PlayerLeftPayload struct {
	RoomCode     string           `json:"room_code"`
	UserID       string           `json:"user_id"`
	Participants []ParticipantDTO `json:"participants"`
}

type HostChangedPayload struct {
	RoomCode   string `json:"room_code"`
	HostUserID string `json:"host_user_id"`
}

type GameStartedPayload struct {
	RoomCode  string     `json:"room_code"`
	SnippetID int64      `json:"snippet_id"`
	StartedAt *time.Time `json:"started_at"`
}

type ProgressPayload struct {
	RoomCode string  `json:"room_code"`
	UserID   string  `json:"user_id"`
	Progress int     `json:"progress"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

type PlayerFinishedPayload struct {
	RoomCode string  `json:"room_code"`
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Position int     `json:"position"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

type GameFinishedPayload struct {
	RoomCode string           `json:"room_code"`
	Results  []ParticipantDTO `json:"results"`
}

type RematchPayload struct {
	RoomCode     string           `json:"room_code"`
	HostUserID   string           `json:"host_user_id"`
	Participants []ParticipantDTO `json:"participants"`
}

type RoomDeletedPayload struct {
	RoomCode string `json:"room_code"`
}

type ErrorPayload struct {
	Event   string `json:"event,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}
