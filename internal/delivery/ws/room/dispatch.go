package ws_room

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	usecase_room "github.com/coderacer/core/internal/usecase/room"
)

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type progressRequest struct {
	Progress int     `json:"progress"`
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

type finishRequest struct {
	WPM      float64 `json:"wpm"`
	Accuracy float64 `json:"accuracy"`
}

// Dispatch runs one client event against the coordinator and broadcasts the
// outcome. Failures go back to the sender only. It reports whether the
// connection should be dropped.
func (h *Hub) Dispatch(ctx context.Context, c *Client, raw []byte) bool {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		h.sendError(c, "", "bad_request", "malformed event")
		return false
	}

	code := c.roomCode
	switch msg.Type {
	case InJoinRoom:
		h.join(ctx, c)

	case InLeaveRoom:
		res, err := h.coordinator.Leave(ctx, code, c.userID)
		if err != nil {
			h.fail(c, msg.Type, err)
			return false
		}
		h.PlayerLeft(ctx, res)
		return true

	case InStartGame:
		room, err := h.coordinator.StartRoom(ctx, code, c.userID)
		if err != nil {
			h.fail(c, msg.Type, err)
			return false
		}
		h.GameStarted(ctx, room)

	case InUpdateProgress:
		var req progressRequest
		if err := decodePayload(msg.Payload, &req); err != nil {
			h.sendError(c, msg.Type, "bad_request", "malformed payload")
			return false
		}
		res, err := h.coordinator.UpdateProgress(ctx, usecase_room.ProgressUpdate{
			Code:     code,
			UserID:   c.userID,
			Progress: req.Progress,
			WPM:      req.WPM,
			Accuracy: req.Accuracy,
		})
		if err != nil {
			h.fail(c, msg.Type, err)
			return false
		}
		h.ProgressUpdated(ctx, res)

	case InFinishRace:
		var req finishRequest
		if err := decodePayload(msg.Payload, &req); err != nil {
			h.sendError(c, msg.Type, "bad_request", "malformed payload")
			return false
		}
		res, err := h.coordinator.Finish(ctx, usecase_room.FinishRequest{
			Code:     code,
			UserID:   c.userID,
			WPM:      req.WPM,
			Accuracy: req.Accuracy,
		})
		if err != nil {
			h.fail(c, msg.Type, err)
			return false
		}
		h.PlayerFinished(ctx, res)

	case InRematch:
		res, err := h.coordinator.Rematch(ctx, code, c.userID)
		if err != nil {
			h.fail(c, msg.Type, err)
			return false
		}
		h.Rematched(ctx, res)

	default:
		h.sendError(c, msg.Type, "bad_request", "unknown event")
	}
	return false
}

// join seats the user. A user already seated is reconnecting, in any room
// status, so the room gets the current roster instead of an error.
func (h *Hub) join(ctx context.Context, c *Client) {
	res, err := h.coordinator.Join(ctx, c.roomCode, c.userID, c.username)
	if err == nil {
		h.PlayerJoined(ctx, res)
		return
	}
	if !errors.Is(err, usecase_room.ErrConflict) && !errors.Is(err, usecase_room.ErrInvalidState) {
		h.fail(c, InJoinRoom, err)
		return
	}

	state, stateErr := h.coordinator.RoomState(ctx, c.roomCode)
	if stateErr != nil {
		h.fail(c, InJoinRoom, stateErr)
		return
	}
	payload := PlayerJoinedPayload{
		RoomCode:     state.Room.Code,
		UserID:       c.userID,
		Count:        len(state.Participants),
		Participants: toParticipantDTOs(state.Participants),
	}
	seated := false
	for _, p := range state.Participants {
		if p.UserID == c.userID {
			payload.Username = p.Username
			seated = true
		}
	}
	if !seated {
		h.fail(c, InJoinRoom, err)
		return
	}
	h.Broadcast(ctx, state.Room.Code, Event{Type: EventPlayerJoined, Payload: payload})
}

func decodePayload(raw json.RawMessage, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func (h *Hub) fail(c *Client, event string, err error) {
	kind := ErrorKind(err)
	if kind == "internal" {
		h.logger.Error("room event failed",
			slog.String("event", event),
			slog.String("room", c.roomCode),
			slog.String("user_id", c.userID),
			slog.String("error", err.Error()),
		)
		h.sendError(c, event, kind, "internal error")
		return
	}
	h.sendError(c, event, kind, err.Error())
}

func (h *Hub) sendError(c *Client, event, kind, message string) {
	h.send(c, Event{
		Type:    EventError,
		Payload: ErrorPayload{Event: event, Code: kind, Message: message},
	})
}

func ErrorKind(err error) string {
	switch {
	case errors.Is(err, usecase_room.ErrNotFound):
		return "not_found"
	case errors.Is(err, usecase_room.ErrForbidden):
		return "forbidden"
	case errors.Is(err, usecase_room.ErrConflict):
		return "conflict"
	case errors.Is(err, usecase_room.ErrCapacity):
		return "capacity"
	case errors.Is(err, usecase_room.ErrInvalidState):
		return "invalid_state"
	}
	return "internal"
}
