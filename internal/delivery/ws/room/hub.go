package ws_room

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/coderacer/core/internal/model"
	usecase_room "github.com/coderacer/core/internal/usecase/room"
)

// Coordinator is the slice of the room usecase the push channel drives.
type Coordinator interface {
	Join(ctx context.Context, code string, userID model.UserID, username string) (model.JoinResult, error)
	Leave(ctx context.Context, code string, userID model.UserID) (model.LeaveResult, error)
	StartRoom(ctx context.Context, code string, requester model.UserID) (model.Room, error)
	UpdateProgress(ctx context.Context, upd usecase_room.ProgressUpdate) (model.ProgressResult, error)
	Finish(ctx context.Context, req usecase_room.FinishRequest) (model.FinishResult, error)
	Rematch(ctx context.Context, code string, requester model.UserID) (model.RematchResult, error)
	RoomState(ctx context.Context, code string) (model.RoomState, error)
	RoomExists(ctx context.Context, code string) (bool, error)
}

// Publisher forwards encoded events to every instance, this one included.
type Publisher interface {
	Publish(ctx context.Context, code string, payload []byte) error
}

// Hub keeps the connections of every room this instance serves and fans
// events out to them.
type Hub struct {
	coordinator Coordinator
	relay       Publisher
	logger      *slog.Logger

	mu    sync.Mutex
	rooms map[string]map[*Client]struct{}
}

type HubOption func(*Hub)

func WithRelay(relay Publisher) HubOption {
	return func(h *Hub) {
		h.relay = relay
	}
}

func WithHubLogger(logger *slog.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

func NewHub(coordinator Coordinator, opts ...HubOption) *Hub {
	h := &Hub{
		coordinator: coordinator,
		logger:      slog.Default(),
		rooms:       make(map[string]map[*Client]struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Hub) OpenRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[code]; !ok {
		h.rooms[code] = make(map[*Client]struct{})
		h.logger.Info("room channel opened", slog.String("room", code))
	}
}

// CloseRoom drops the room and disconnects everyone still attached to it.
func (h *Hub) CloseRoom(code string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[code]
	if !ok {
		return
	}
	for client := range clients {
		close(client.send)
	}
	delete(h.rooms, code)
	h.logger.Info("room channel closed", slog.String("room", code), slog.Int("clients", len(clients)))
}

func (h *Hub) HasRoom(code string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	_, ok := h.rooms[code]
	return ok
}

func (h *Hub) ClientCount(code string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.rooms[code])
}

func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.roomCode]; !ok {
		h.rooms[client.roomCode] = make(map[*Client]struct{})
	}
	h.rooms[client.roomCode][client] = struct{}{}

	h.logger.Info("client registered",
		slog.String("user_id", client.userID),
		slog.String("room", client.roomCode),
	)
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.rooms[client.roomCode]
	if !ok {
		return
	}
	if _, ok := clients[client]; !ok {
		return
	}
	delete(clients, client)
	close(client.send)

	h.logger.Info("client unregistered",
		slog.String("user_id", client.userID),
		slog.String("room", client.roomCode),
	)
}

// Broadcast encodes the event and hands it to the relay when there is one,
// otherwise delivers it locally. Failures are logged and not retried.
func (h *Hub) Broadcast(ctx context.Context, code string, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("type", event.Type), slog.String("error", err.Error()))
		return
	}

	if h.relay != nil {
		err := h.relay.Publish(ctx, code, payload)
		if err == nil {
			return
		}
		h.logger.Warn("relay publish failed, delivering locally",
			slog.String("room", code),
			slog.String("type", event.Type),
			slog.String("error", err.Error()),
		)
	}
	h.Deliver(code, payload)
}

// Deliver writes an encoded event to the local connections of the room.
// A ROOM_DELETED event closes the room once delivered.
func (h *Hub) Deliver(code string, payload []byte) {
	var head struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(payload, &head)

	h.mu.Lock()
	clients := h.rooms[code]
	for client := range clients {
		select {
		case client.send <- payload:
		default:
			h.logger.Warn("client send buffer full, dropping connection",
				slog.String("user_id", client.userID),
				slog.String("room", code),
			)
			close(client.send)
			delete(clients, client)
		}
	}
	h.mu.Unlock()

	if head.Type == EventRoomDeleted {
		h.CloseRoom(code)
	}
}

// send writes to one connection only.
func (h *Hub) send(client *Client, event Event) {
	payload, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("failed to encode event", slog.String("type", event.Type), slog.String("error", err.Error()))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.rooms[client.roomCode][client]; !ok {
		return
	}
	select {
	case client.send <- payload:
	default:
		h.logger.Warn("client send buffer full, event dropped",
			slog.String("user_id", client.userID),
			slog.String("type", event.Type),
		)
	}
}

func (h *Hub) RoomCreated(room model.Room) {
	h.OpenRoom(room.Code)
}

func (h *Hub) PlayerJoined(ctx context.Context, res model.JoinResult) {
	h.Broadcast(ctx, res.Room.Code, Event{
		Type: EventPlayerJoined,
		Payload: PlayerJoinedPayload{
			RoomCode:     res.Room.Code,
			UserID:       res.Participant.UserID,
			Username:     res.Participant.Username,
			Count:        res.Count,
			Participants: toParticipantDTOs(res.Participants),
		},
	})
}

func (h *Hub) PlayerLeft(ctx context.Context, res model.LeaveResult) {
	if res.RoomDeleted {
		h.RoomDeleted(ctx, model.DeleteResult{RoomCode: res.RoomCode})
		return
	}

	h.Broadcast(ctx, res.RoomCode, Event{
		Type: EventPlayerLeft,
		Payload: PlayerLeftPayload{
			RoomCode:     res.RoomCode,
			UserID:       res.UserID,
			Participants: toParticipantDTOs(res.Participants),
		},
	})
	if res.HostChanged {
		h.Broadcast(ctx, res.RoomCode, Event{
			Type:    EventHostChanged,
			Payload: HostChangedPayload{RoomCode: res.RoomCode, HostUserID: res.HostUserID},
		})
	}
	if res.RoomFinished {
		h.gameFinished(ctx, res.RoomCode, res.Results)
	}
}

func (h *Hub) GameStarted(ctx context.Context, room model.Room) {
	h.Broadcast(ctx, room.Code, Event{
		Type: EventGameStarted,
		Payload: GameStartedPayload{
			RoomCode:  room.Code,
			SnippetID: room.SnippetID,
			StartedAt: room.StartedAt,
		},
	})
}

func (h *Hub) ProgressUpdated(ctx context.Context, res model.ProgressResult) {
	h.Broadcast(ctx, res.RoomCode, Event{
		Type: EventProgressUpdate,
		Payload: ProgressPayload{
			RoomCode: res.RoomCode,
			UserID:   res.Participant.UserID,
			Progress: res.Participant.Progress,
			WPM:      res.Participant.WPM,
			Accuracy: res.Participant.Accuracy,
		},
	})
}

func (h *Hub) PlayerFinished(ctx context.Context, res model.FinishResult) {
	h.Broadcast(ctx, res.Room.Code, Event{
		Type: EventPlayerFinished,
		Payload: PlayerFinishedPayload{
			RoomCode: res.Room.Code,
			UserID:   res.Participant.UserID,
			Username: res.Participant.Username,
			Position: res.Position,
			WPM:      res.Participant.WPM,
			Accuracy: res.Participant.Accuracy,
		},
	})
	if res.RoomFinished {
		h.gameFinished(ctx, res.Room.Code, res.Results)
	}
}

func (h *Hub) gameFinished(ctx context.Context, code string, results []model.Participant) {
	h.Broadcast(ctx, code, Event{
		Type:    EventGameFinished,
		Payload: GameFinishedPayload{RoomCode: code, Results: toParticipantDTOs(results)},
	})
}

func (h *Hub) Rematched(ctx context.Context, res model.RematchResult) {
	h.Broadcast(ctx, res.Room.Code, Event{
		Type: EventRematch,
		Payload: RematchPayload{
			RoomCode:     res.Room.Code,
			HostUserID:   res.Room.HostUserID,
			Participants: toParticipantDTOs(res.Participants),
		},
	})
}

func (h *Hub) RoomDeleted(ctx context.Context, res model.DeleteResult) {
	h.Broadcast(ctx, res.RoomCode, Event{
		Type:    EventRoomDeleted,
		Payload: RoomDeletedPayload{RoomCode: res.RoomCode},
	})
}
