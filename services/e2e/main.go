package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

func baseURL() string {
	if u := os.Getenv("E2E_BASE_URL"); u != "" {
		return u
	}
	switch os.Getenv("ENV") {
	case "CI":
		return "http://core-app:8080/api/v1"
	}
	return "http://localhost:8080/api/v1"
}

type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
}

type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func main() {
	fmt.Println("Starting E2E tests for the race API...")

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	if !waitForService(client) {
		os.Exit(1)
	}

	if err := raceFlow(client); err != nil {
		fmt.Printf("Race flow failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\n All E2E tests passed!")
}

func waitForService(client *http.Client) bool {
	fmt.Println(" Waiting for service to be ready...")

	maxRetries := 3
	for i := 0; i < maxRetries; i++ {
		resp, err := client.Get(baseURL() + "/healthz")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				fmt.Println(" Service is ready!")
				return true
			}
		}

		if i < maxRetries-1 {
			fmt.Printf(" Service not ready yet (attempt %d/%d)...\n", i+1, maxRetries)
			time.Sleep(2 * time.Second)
		}
	}

	fmt.Println(" Service didn't start in time")
	return false
}

func do(client *http.Client, method, path, user string, payload interface{}, want int, out interface{}) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, baseURL()+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("X-user-id", user)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != want {
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%s %s returned status %d: %s", method, path, resp.StatusCode, string(raw))
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func dial(code, user string) (*websocket.Conn, error) {
	base, err := url.Parse(baseURL())
	if err != nil {
		return nil, err
	}
	scheme := "ws"
	if base.Scheme == "https" {
		scheme = "wss"
	}
	u := url.URL{
		Scheme:   scheme,
		Host:     base.Host,
		Path:     base.Path + "/rooms/" + code + "/ws",
		RawQuery: url.Values{"user_id": {user}}.Encode(),
	}
	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	return conn, err
}

// await reads events until one of the wanted type arrives.
func await(conn *websocket.Conn, typ string) (Event, error) {
	deadline := time.Now().Add(5 * time.Second)
	for {
		conn.SetReadDeadline(deadline)
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			return Event{}, fmt.Errorf("waiting for %s: %v", typ, err)
		}
		if ev.Type == typ {
			return ev, nil
		}
	}
}

func send(conn *websocket.Conn, typ string, payload interface{}) error {
	ev := Event{Type: typ}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		ev.Payload = raw
	}
	return conn.WriteJSON(ev)
}

// raceFlow drives two players through one race and a rematch, then
// dissolves the room.
func raceFlow(client *http.Client) error {
	suffix := fmt.Sprint(time.Now().UnixNano())
	host, guest := "e2e-host-"+suffix, "e2e-guest-"+suffix

	fmt.Println("\n Step 1: Creating room...")
	var created CreateRoomResponse
	if err := do(client, http.MethodPost, "/rooms", host, map[string]int{"max_players": 2}, http.StatusCreated, &created); err != nil {
		return err
	}
	code := created.RoomCode
	fmt.Printf(" Room %s created\n", code)

	fmt.Println("\n Step 2: Connecting both players...")
	hostConn, err := dial(code, host)
	if err != nil {
		return err
	}
	defer hostConn.Close()
	guestConn, err := dial(code, guest)
	if err != nil {
		return err
	}
	defer guestConn.Close()

	if err := send(guestConn, "join_room", nil); err != nil {
		return err
	}
	if _, err := await(hostConn, "PLAYER_JOINED"); err != nil {
		return err
	}

	fmt.Println("\n Step 3: Racing...")
	if err := send(hostConn, "start_game", nil); err != nil {
		return err
	}
	if _, err := await(guestConn, "GAME_STARTED"); err != nil {
		return err
	}
	if err := send(guestConn, "update_progress", map[string]float64{"progress": 3, "wpm": 50, "accuracy": 100}); err != nil {
		return err
	}
	if _, err := await(hostConn, "PROGRESS_UPDATE"); err != nil {
		return err
	}
	for _, conn := range []*websocket.Conn{guestConn, hostConn} {
		if err := send(conn, "finish_race", map[string]float64{"wpm": 60, "accuracy": 98}); err != nil {
			return err
		}
	}
	ev, err := await(hostConn, "GAME_FINISHED")
	if err != nil {
		return err
	}
	if !strings.Contains(string(ev.Payload), guest) {
		return fmt.Errorf("results do not list the guest: %s", ev.Payload)
	}

	fmt.Println("\n Step 4: Rematch and teardown...")
	if err := send(hostConn, "rematch", nil); err != nil {
		return err
	}
	if _, err := await(guestConn, "REMATCH"); err != nil {
		return err
	}
	if err := do(client, http.MethodDelete, "/rooms/"+code, host, nil, http.StatusNoContent, nil); err != nil {
		return err
	}
	if _, err := await(guestConn, "ROOM_DELETED"); err != nil {
		return err
	}
	return nil
}
