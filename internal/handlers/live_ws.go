package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moemen20/phoenix-tracker/internal/services"
)

var liveUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// CORS for WebSocket is handled at the HTTP layer already.
		return true
	},
}

// LiveEvent is the frame sent for every replayed result set. Records carries
// the full filtered list, not a diff.
type LiveEvent struct {
	Type       string      `json:"type"` // "snapshot"
	Collection string      `json:"collection"`
	Records    interface{} `json:"records"`
	Timestamp  time.Time   `json:"timestamp"`
}

// LiveRecords streams live query results over WebSocket. The client picks a
// collection via ?collection=prospects|contacts|tasks and optional filters
// (?status=, ?state=, ?job=, ?search=); every change to that collection
// replays the full filtered result set as a snapshot frame.
// Authentication uses the session token, via header or ?token= for browsers.
func LiveRecords(w http.ResponseWriter, r *http.Request) {
	user, ok := requireUser(w, r)
	if !ok {
		return
	}

	colName := r.URL.Query().Get("collection")

	conn, err := liveUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	snapshots := make(chan interface{}, 1)
	var unsubscribe func()

	switch colName {
	case "prospects":
		filters := services.ProspectFilters{
			Status: r.URL.Query().Get("status"),
			Search: r.URL.Query().Get("search"),
		}
		ch, stop, err := services.Prospects.Subscribe(ctx, user.TeamID, filters)
		if err != nil {
			writeCloseError(conn, "live query unavailable")
			return
		}
		unsubscribe = stop
		go forward(ctx, ch, snapshots)
	case "contacts":
		filters := services.ContactFilters{
			State:  r.URL.Query().Get("state"),
			Job:    r.URL.Query().Get("job"),
			Search: r.URL.Query().Get("search"),
		}
		ch, stop, err := services.Contacts.Subscribe(ctx, user.TeamID, filters)
		if err != nil {
			writeCloseError(conn, "live query unavailable")
			return
		}
		unsubscribe = stop
		go forward(ctx, ch, snapshots)
	case "tasks":
		ch, stop, err := services.Tasks.Subscribe(ctx, user.TeamID)
		if err != nil {
			writeCloseError(conn, "live query unavailable")
			return
		}
		unsubscribe = stop
		go forward(ctx, ch, snapshots)
	default:
		writeCloseError(conn, "collection must be prospects, contacts or tasks")
		return
	}
	defer unsubscribe()

	// Writer goroutine: forward snapshots to this WebSocket connection.
	go func() {
		for {
			select {
			case records, ok := <-snapshots:
				if !ok {
					return
				}
				evt := LiveEvent{
					Type:       "snapshot",
					Collection: colName,
					Records:    records,
					Timestamp:  time.Now().UTC(),
				}
				if err := conn.WriteJSON(evt); err != nil {
					cancel()
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	// Reader loop: only pings are expected; any read error tears down.
	conn.SetReadLimit(4 * 1024)
	_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		return nil
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		var msg struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		if msg.Type == "ping" {
			_ = conn.SetReadDeadline(time.Now().Add(90 * time.Second))
		}
	}
}

// forward funnels typed snapshot channels into the connection's single
// interface{} channel, keeping only the latest undelivered snapshot.
func forward[T any](ctx context.Context, in <-chan []T, out chan interface{}) {
	for {
		select {
		case list, ok := <-in:
			if !ok {
				return
			}
			select {
			case <-out:
			default:
			}
			select {
			case out <- list:
			case <-ctx.Done():
				return
			}
		case <-ctx.Done():
			return
		}
	}
}

func writeCloseError(conn *websocket.Conn, message string) {
	_ = conn.WriteJSON(map[string]interface{}{"type": "error", "error": message})
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, message),
		time.Now().Add(time.Second),
	)
}
