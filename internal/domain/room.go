package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

const (
	MaxRoomNameLen = 64

	// Chat keeps a bounded window; the whiteboard log is capped too so a
	// long-lived room cannot grow without limit.
	MaxChatHistory   = 100
	MaxStrokeHistory = 2000
)

// Room is an ephemeral named session. It exists only while it has
// participants; nothing about it survives a restart.
type Room struct {
	ID           RoomID
	Name         string
	Private      bool
	Password     string
	CreatorTier  Tier
	Participants map[ConnID]*Participant
	Messages     []ChatMessage
	Strokes      []Stroke
	CreatedAt    time.Time
}

// NewRoom applies the private-room policy at construction: only a premium
// creator may keep Private and Password, everyone else is silently
// downgraded to a public room.
func NewRoom(name string, private bool, password string, creator Tier) *Room {
	if len(name) > MaxRoomNameLen {
		name = name[:MaxRoomNameLen]
	}
	if creator != TierPremium {
		private = false
		password = ""
	}
	return &Room{
		ID:           RoomID(uuid.NewString()),
		Name:         name,
		Private:      private,
		Password:     password,
		CreatorTier:  creator,
		Participants: make(map[ConnID]*Participant),
		CreatedAt:    time.Now(),
	}
}

// AppendMessage appends to the chat window, evicting the oldest entry once
// the window is full.
func (r *Room) AppendMessage(m ChatMessage) {
	r.Messages = append(r.Messages, m)
	if len(r.Messages) > MaxChatHistory {
		r.Messages = r.Messages[len(r.Messages)-MaxChatHistory:]
	}
}

// AppendStroke appends to the whiteboard log, FIFO-bounded like chat.
func (r *Room) AppendStroke(s Stroke) {
	r.Strokes = append(r.Strokes, s)
	if len(r.Strokes) > MaxStrokeHistory {
		r.Strokes = r.Strokes[len(r.Strokes)-MaxStrokeHistory:]
	}
}

// ChatMessage is one entry of a room's chat window.
type ChatMessage struct {
	ID          string       `json:"id"`
	ConnID      ConnID       `json:"socketId"`
	Username    string       `json:"username"`
	Message     string       `json:"message"`
	Attachments []Attachment `json:"attachments"`
	Timestamp   time.Time    `json:"timestamp"`
}

// Attachment metadata travels with a chat message; the bytes themselves live
// in the file-storage collaborator.
type Attachment struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Size int64  `json:"size,omitempty"`
}

// Stroke is one whiteboard segment with coordinates normalized to 0..1.
type Stroke struct {
	X0    float64 `json:"x0"`
	Y0    float64 `json:"y0"`
	X1    float64 `json:"x1"`
	Y1    float64 `json:"y1"`
	Color string  `json:"color"`
	Width float64 `json:"width"`
}

// RoomInfo is one directory entry of the global rooms list.
type RoomInfo struct {
	ID               RoomID    `json:"id"`
	Name             string    `json:"name"`
	Private          bool      `json:"isPrivate"`
	ParticipantCount int       `json:"participantCount"`
	CreatedAt        time.Time `json:"createdAt"`
}

// RoomData is the public projection of a room: everything a client may see,
// never the password.
type RoomData struct {
	ID           RoomID        `json:"id"`
	Name         string        `json:"name"`
	Private      bool          `json:"isPrivate"`
	Participants []Participant `json:"participants"`
	CreatedAt    time.Time     `json:"createdAt"`
}
