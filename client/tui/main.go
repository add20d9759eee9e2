package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
)

type Participant struct {
	UserID         string  `json:"user_id"`
	Username       string  `json:"username"`
	Progress       int     `json:"progress"`
	WPM            float64 `json:"wpm"`
	Accuracy       float64 `json:"accuracy"`
	IsFinished     bool    `json:"is_finished"`
	FinishPosition *int    `json:"finish_position"`
}

type RoomState struct {
	Room struct {
		Code       string `json:"code"`
		HostUserID string `json:"host_user_id"`
		Status     string `json:"status"`
		MaxPlayers int    `json:"max_players"`
	} `json:"room"`
	Participants []Participant `json:"participants"`
	Snippet      struct {
		Language string `json:"language"`
		Code     string `json:"code"`
	} `json:"snippet"`
}

type CreateRoomRequest struct {
	Language   string `json:"language,omitempty"`
	MaxPlayers int    `json:"max_players,omitempty"`
}

type CreateRoomResponse struct {
	RoomCode string `json:"room_code"`
}

type WSEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Client struct {
	baseURL     string
	userID      string
	username    string
	currentRoom string
	httpClient  *http.Client
	scanner     *bufio.Scanner

	mu     sync.Mutex
	wsConn *websocket.Conn
	wsDone chan struct{}
}

func NewClient(baseURL, userID, username string) *Client {
	return &Client{
		baseURL:    baseURL,
		userID:     userID,
		username:   username,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) SetScanner(scanner *bufio.Scanner) {
	c.scanner = scanner
}

func (c *Client) makeRequest(method, path string, payload interface{}) (*http.Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequest(method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-user-id", c.userID)
	if c.username != "" {
		req.Header.Set("X-username", c.username)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func expect(resp *http.Response, status int, op string) error {
	if resp.StatusCode == status {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("%s failed: %s - %s", op, resp.Status, strings.TrimSpace(string(body)))
}

func (c *Client) prompt(label string) (string, error) {
	fmt.Print(label)
	if !c.scanner.Scan() {
		return "", fmt.Errorf("input closed")
	}
	return strings.TrimSpace(c.scanner.Text()), nil
}

func (c *Client) CreateRoom() error {
	lang, err := c.prompt("Language (empty for any): ")
	if err != nil {
		return err
	}

	resp, err := c.makeRequest(http.MethodPost, "/rooms", CreateRoomRequest{Language: lang})
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := expect(resp, http.StatusCreated, "create room"); err != nil {
		return err
	}

	var response CreateRoomResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return err
	}

	fmt.Printf("Room created! Code: %s\n", response.RoomCode)
	c.currentRoom = response.RoomCode
	return c.connectWebSocket(response.RoomCode)
}

func (c *Client) JoinRoom() error {
	roomCode, err := c.prompt("Room code: ")
	if err != nil {
		return err
	}
	roomCode = strings.ToUpper(roomCode)

	resp, err := c.makeRequest(http.MethodPost, fmt.Sprintf("/rooms/%s/participants", roomCode), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Already seated means we are reconnecting.
	if resp.StatusCode != http.StatusConflict {
		if err := expect(resp, http.StatusCreated, "join room"); err != nil {
			return err
		}
	}

	c.currentRoom = roomCode
	return c.connectWebSocket(roomCode)
}

func (c *Client) connectWebSocket(roomCode string) error {
	baseURL, err := url.Parse(c.baseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %v", err)
	}

	scheme := "ws"
	if baseURL.Scheme == "https" {
		scheme = "wss"
	}
	q := url.Values{}
	q.Set("user_id", c.userID)
	q.Set("username", c.username)
	u := url.URL{
		Scheme:   scheme,
		Host:     baseURL.Host,
		Path:     fmt.Sprintf("%s/rooms/%s/ws", baseURL.Path, roomCode),
		RawQuery: q.Encode(),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("websocket connection failed: %v", err)
	}

	c.mu.Lock()
	c.wsConn = conn
	c.wsDone = make(chan struct{})
	c.mu.Unlock()

	go c.listenWebSocket(conn, c.wsDone)
	fmt.Printf("Connected to room %s\n", roomCode)
	return c.send(WSEvent{Type: "join_room"})
}

func (c *Client) send(event WSEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.wsConn == nil {
		return fmt.Errorf("not connected to a room")
	}
	return c.wsConn.WriteJSON(event)
}

func (c *Client) sendPayload(typ string, payload interface{}) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return c.send(WSEvent{Type: typ, Payload: raw})
}

func (c *Client) listenWebSocket(conn *websocket.Conn, done chan struct{}) {
	defer close(done)

	for {
		var event WSEvent
		if err := conn.ReadJSON(&event); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				fmt.Printf("\nConnection closed: %v\n", err)
			}
			return
		}

		var p map[string]interface{}
		_ = json.Unmarshal(event.Payload, &p)

		switch event.Type {
		case "PLAYER_JOINED":
			fmt.Printf("\n%v joined (%v in room)\n", p["username"], p["count"])
		case "PLAYER_LEFT":
			fmt.Printf("\n%v left\n", p["user_id"])
		case "HOST_CHANGED":
			fmt.Printf("\n%v is now the host\n", p["host_user_id"])
		case "GAME_STARTED":
			fmt.Println("\nRace started! Choose 4 to type.")
		case "PROGRESS_UPDATE":
			if p["user_id"] != c.userID {
				fmt.Printf("\n%v: %v chars, %.0f wpm\n", p["user_id"], p["progress"], p["wpm"])
			}
		case "PLAYER_FINISHED":
			fmt.Printf("\n%v finished #%v (%.0f wpm)\n", p["username"], p["position"], p["wpm"])
		case "GAME_FINISHED":
			var results struct {
				Results []Participant `json:"results"`
			}
			_ = json.Unmarshal(event.Payload, &results)
			fmt.Println("\n=== Results ===")
			for i, r := range results.Results {
				fmt.Printf("%d. %s  %.0f wpm  %.0f%%\n", i+1, r.Username, r.WPM, r.Accuracy)
			}
		case "REMATCH":
			fmt.Println("\nRematch! Back in the lobby.")
		case "ROOM_DELETED":
			fmt.Println("\nThe room was deleted.")
		case "ERROR":
			fmt.Printf("\nError: %v\n", p["message"])
		}
	}
}

func (c *Client) roomState() (RoomState, error) {
	var state RoomState
	resp, err := c.makeRequest(http.MethodGet, "/rooms/"+c.currentRoom, nil)
	if err != nil {
		return state, err
	}
	defer resp.Body.Close()
	if err := expect(resp, http.StatusOK, "room state"); err != nil {
		return state, err
	}
	return state, json.NewDecoder(resp.Body).Decode(&state)
}

func (c *Client) StartRace() error {
	return c.send(WSEvent{Type: "start_game"})
}

// Race reads typed lines and reports progress after each one. The race is
// finished once the typed text covers the whole snippet.
func (c *Client) Race() error {
	state, err := c.roomState()
	if err != nil {
		return err
	}
	if state.Room.Status != "in_progress" {
		return fmt.Errorf("race is not running")
	}

	target := state.Snippet.Code
	lines := strings.Split(target, "\n")
	fmt.Printf("\n--- %s ---\n%s\n---\n", state.Snippet.Language, target)

	begin := time.Now()
	var typed strings.Builder
	for i := range lines {
		line, err := c.prompt(fmt.Sprintf("[%d/%d] ", i+1, len(lines)))
		if err != nil {
			return err
		}
		if i > 0 {
			typed.WriteString("\n")
		}
		typed.WriteString(line)

		progress, accuracy := score(target, typed.String())
		err = c.sendPayload("update_progress", map[string]interface{}{
			"progress": progress,
			"wpm":      wpm(progress, time.Since(begin)),
			"accuracy": accuracy,
		})
		if err != nil {
			return err
		}
	}

	progress, accuracy := score(target, typed.String())
	return c.sendPayload("finish_race", map[string]interface{}{
		"wpm":      wpm(progress, time.Since(begin)),
		"accuracy": accuracy,
	})
}

// score counts matching runes position by position.
func score(target, typed string) (progress int, accuracy float64) {
	t := []rune(target)
	matched := 0
	for i, r := range []rune(typed) {
		if i < len(t) && t[i] == r {
			matched++
		}
	}
	total := utf8.RuneCountInString(typed)
	if total == 0 {
		return 0, 0
	}
	return matched, float64(matched) / float64(total) * 100
}

func wpm(chars int, elapsed time.Duration) float64 {
	minutes := elapsed.Minutes()
	if minutes <= 0 {
		return 0
	}
	return float64(chars) / 5 / minutes
}

func (c *Client) Rematch() error {
	return c.send(WSEvent{Type: "rematch"})
}

func (c *Client) Leave() error {
	if err := c.send(WSEvent{Type: "leave_room"}); err != nil {
		return err
	}
	c.Close()
	c.currentRoom = ""
	return nil
}

func (c *Client) Close() {
	c.mu.Lock()
	conn, done := c.wsConn, c.wsDone
	c.wsConn = nil
	c.mu.Unlock()

	if conn != nil {
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		<-done
	}
}

func main() {
	base := flag.String("url", "http://localhost:8080/api/v1", "API base URL")
	user := flag.String("user", os.Getenv("USER"), "user id")
	name := flag.String("name", "", "display name")
	flag.Parse()

	if *user == "" {
		fmt.Println("-user is required")
		os.Exit(1)
	}

	client := NewClient(*base, *user, *name)
	defer client.Close()

	scanner := bufio.NewScanner(os.Stdin)
	client.SetScanner(scanner)

	for {
		fmt.Println("\n=== Code Racer ===")
		if client.currentRoom != "" {
			fmt.Printf("Room: %s\n", client.currentRoom)
		}
		fmt.Println("1. Create room")
		fmt.Println("2. Join room")
		fmt.Println("3. Start race")
		fmt.Println("4. Type")
		fmt.Println("5. Rematch")
		fmt.Println("6. Leave room")
		fmt.Println("0. Exit")
		fmt.Print("> ")

		if !scanner.Scan() {
			break
		}

		var err error
		switch strings.TrimSpace(scanner.Text()) {
		case "1":
			err = client.CreateRoom()
		case "2":
			err = client.JoinRoom()
		case "3":
			err = client.StartRace()
		case "4":
			err = client.Race()
		case "5":
			err = client.Rematch()
		case "6":
			err = client.Leave()
		case "0":
			fmt.Println("Bye!")
			return
		default:
			fmt.Println("Unknown choice")
		}
		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}
