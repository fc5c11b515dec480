package websocket

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"itin/models"
)

// GuestUpdate represents a real-time guest device update
type GuestUpdate struct {
	Type       string      `json:"type"` // GUEST_REGISTERED, GUEST_APPROVED, GUEST_REJECTED
	GuestID    uint        `json:"guestId"`
	Data       interface{} `json:"data,omitempty"`
	Timestamp  time.Time   `json:"timestamp"`
	DecidedBy  string      `json:"decidedBy,omitempty"`
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

type guestHub struct {
	mutex   sync.Mutex
	clients map[*client]bool
}

var hub = &guestHub{clients: make(map[*client]bool)}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// HandleGuestSocket upgrades the connection and registers the client with the
// guest update feed.
func HandleGuestSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, 16),
	}

	hub.mutex.Lock()
	hub.clients[c] = true
	hub.mutex.Unlock()
	log.Printf("websocket client connected: %s", c.id)

	go c.writeLoop()
	go c.readLoop()
}

func (c *client) writeLoop() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

func (c *client) readLoop() {
	defer func() {
		hub.mutex.Lock()
		if _, ok := hub.clients[c]; ok {
			delete(hub.clients, c)
			close(c.send)
		}
		hub.mutex.Unlock()
		c.conn.Close()
		log.Printf("websocket client disconnected: %s", c.id)
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// BroadcastGuestUpdate sends an update to every connected client.
func BroadcastGuestUpdate(update GuestUpdate) {
	data, err := json.Marshal(update)
	if err != nil {
		log.Printf("Failed to marshal guest update: %v", err)
		return
	}

	hub.mutex.Lock()
	defer hub.mutex.Unlock()
	for c := range hub.clients {
		select {
		case c.send <- data:
		default:
			close(c.send)
			delete(hub.clients, c)
		}
	}
}

// SendGuestRegistered broadcasts a new self-registration.
func SendGuestRegistered(guest *models.GuestDevice) {
	BroadcastGuestUpdate(GuestUpdate{
		Type:      "GUEST_REGISTERED",
		GuestID:   guest.ID,
		Data:      guest,
		Timestamp: time.Now(),
	})
}

// SendGuestDecision broadcasts an approval or rejection.
func SendGuestDecision(guest *models.GuestDevice, decidedBy string) {
	updateType := "GUEST_REJECTED"
	if guest.ApprovalStatus == models.GuestApproved {
		updateType = "GUEST_APPROVED"
	}
	BroadcastGuestUpdate(GuestUpdate{
		Type:      updateType,
		GuestID:   guest.ID,
		Data:      guest,
		Timestamp: time.Now(),
		DecidedBy: decidedBy,
	})
}
