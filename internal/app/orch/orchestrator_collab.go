package orch

import (
	"time"

	"github.com/google/uuid"

	"github.com/quietdesk/focusroom/internal/domain"
)

// Chat builds a chat entry, appends it to the room's bounded window and
// returns it with the room id for the room-wide echo. Senders whose tier
// cannot chat get ErrChatForbidden; attachments are stripped when the tier
// cannot send them.
func (o *Orchestrator) Chat(connID domain.ConnID, message string, attachments []domain.Attachment) (domain.ChatMessage, domain.RoomID, error) {
	p, ok := o.Registry.Participant(connID)
	if !ok {
		return domain.ChatMessage{}, "", domain.ErrRoomNotFound
	}
	caps := p.Tier.Capabilities()
	if !caps.Chat {
		return domain.ChatMessage{}, "", domain.ErrChatForbidden
	}
	if !caps.SendAttachments {
		attachments = nil
	}

	m := domain.ChatMessage{
		ID:          uuid.NewString(),
		ConnID:      p.ConnID,
		Username:    p.Username,
		Message:     message,
		Attachments: attachments,
		Timestamp:   time.Now(),
	}
	if !o.Registry.AppendMessage(p.RoomID, m) {
		return domain.ChatMessage{}, "", domain.ErrRoomNotFound
	}
	return m, p.RoomID, nil
}

// Ping authorizes a user:ping and returns the sender's record for the
// unicast. Guests never pass the capability gate.
func (o *Orchestrator) Ping(connID domain.ConnID) (domain.Participant, bool) {
	p, ok := o.Registry.Participant(connID)
	if !ok || !p.Tier.Capabilities().PingUsers {
		return domain.Participant{}, false
	}
	return p, true
}

// Draw appends a stroke to the sender's room. Routing is by presence, not
// by any room id the client supplies.
func (o *Orchestrator) Draw(connID domain.ConnID, s domain.Stroke) (domain.RoomID, bool) {
	p, ok := o.Registry.Participant(connID)
	if !ok {
		return "", false
	}
	if !o.Registry.AppendStroke(p.RoomID, s) {
		return "", false
	}
	return p.RoomID, true
}

// ClearBoard empties the whiteboard of the sender's room.
func (o *Orchestrator) ClearBoard(connID domain.ConnID) (domain.RoomID, bool) {
	p, ok := o.Registry.Participant(connID)
	if !ok {
		return "", false
	}
	if !o.Registry.ClearStrokes(p.RoomID) {
		return "", false
	}
	return p.RoomID, true
}

// BoardHistory returns the whiteboard log of the sender's room for the
// late-joiner unicast.
func (o *Orchestrator) BoardHistory(connID domain.ConnID) ([]domain.Stroke, bool) {
	p, ok := o.Registry.Participant(connID)
	if !ok {
		return nil, false
	}
	return o.Registry.Strokes(p.RoomID), true
}
