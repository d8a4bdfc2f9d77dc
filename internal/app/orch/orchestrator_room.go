package orch

import (
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/domain"
)

var ErrRoomCreateForbidden = errors.New("Room creation is not allowed")

// CreateRoom builds a room with the caller as its first participant and
// returns the public projection for the ack. Non-premium creators get the
// private flag and password silently dropped inside the registry.
func (o *Orchestrator) CreateRoom(
	connID domain.ConnID,
	name, username string,
	private bool,
	password, tier, externalUserID string,
) (domain.RoomData, error) {
	t := domain.ParseTier(tier)
	if !t.Capabilities().CreateRoom {
		return domain.RoomData{}, ErrRoomCreateForbidden
	}

	creator := domain.NewParticipant(connID, username, t, externalUserID)
	room := o.Registry.CreateRoom(name, private, password, creator)

	data, ok := o.Registry.RoomData(room.ID)
	if !ok {
		// Creator was inserted with the room, so it cannot be gone already.
		return domain.RoomData{}, domain.ErrRoomNotFound
	}
	log.Info().Str("module", "orch").Str("conn", string(connID)).Str("room", string(room.ID)).Msg("room created")
	return data, nil
}

// Join attaches the connection to a room. The registry runs existence, tier
// and password checks in that order and returns the pre-insert membership
// snapshot for the joiner's ack.
func (o *Orchestrator) Join(
	connID domain.ConnID,
	roomID domain.RoomID,
	username, tier, password, externalUserID string,
) (domain.Participant, []domain.Participant, error) {
	p := domain.NewParticipant(connID, username, domain.ParseTier(tier), externalUserID)
	existing, err := o.Registry.JoinRoom(roomID, p, password)
	if err != nil {
		return domain.Participant{}, nil, err
	}
	log.Info().Str("module", "orch").Str("conn", string(connID)).Str("room", string(roomID)).Msg("joined room")
	return *p, existing, nil
}

// LeaveResult is what the gateway needs to broadcast after a leave.
type LeaveResult struct {
	Participant domain.Participant
	RoomID      domain.RoomID
	RoomDeleted bool
}

// Leave removes the connection's membership. Explicit room:leave and
// transport disconnect both come through here, so their observable effects
// are identical.
func (o *Orchestrator) Leave(connID domain.ConnID) (LeaveResult, bool) {
	p, roomDeleted := o.Registry.RemoveParticipant(connID)
	if p == nil {
		return LeaveResult{}, false
	}
	log.Info().Str("module", "orch").Str("conn", string(connID)).Str("room", string(p.RoomID)).Bool("room_deleted", roomDeleted).Msg("left room")
	return LeaveResult{Participant: *p, RoomID: p.RoomID, RoomDeleted: roomDeleted}, true
}
