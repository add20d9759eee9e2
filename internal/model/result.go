package model

// The result values below are returned by every mutating coordinator
// operation so transports can notify subscribers without re-reading state.

type RoomState struct {
	Room         Room          `json:"room"`
	Participants []Participant `json:"participants"`
	Snippet      Snippet       `json:"snippet"`
}

type JoinResult struct {
	Room         Room          `json:"room"`
	Participant  Participant   `json:"participant"`
	Count        int           `json:"participants_count"`
	Participants []Participant `json:"participants"`
}

type LeaveResult struct {
	RoomCode     string        `json:"room_code"`
	UserID       UserID        `json:"user_id"`
	Participants []Participant `json:"participants"`
	HostUserID   UserID        `json:"host_user_id,omitempty"`
	HostChanged  bool          `json:"host_changed"`
	RoomDeleted  bool          `json:"room_deleted"`
	// Set when the departure left only finished racers behind.
	RoomFinished bool          `json:"room_finished"`
	Results      []Participant `json:"results,omitempty"`
}

type ProgressResult struct {
	RoomCode    string      `json:"room_code"`
	Participant Participant `json:"participant"`
}

type FinishResult struct {
	Room         Room          `json:"room"`
	Participant  Participant   `json:"participant"`
	Position     int           `json:"position"`
	RoomFinished bool          `json:"room_finished"`
	Results      []Participant `json:"results,omitempty"`
}

type RematchResult struct {
	Room         Room          `json:"room"`
	Participants []Participant `json:"participants"`
}

type DeleteResult struct {
	RoomCode string `json:"room_code"`
}
