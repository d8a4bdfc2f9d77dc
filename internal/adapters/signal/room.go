package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/core"
	"github.com/quietdesk/focusroom/internal/domain"
)

type roomAck struct {
	Success       bool                 `json:"success"`
	Error         string               `json:"error,omitempty"`
	RoomID        domain.RoomID        `json:"roomId,omitempty"`
	Room          *domain.RoomData     `json:"room,omitempty"`
	ExistingUsers []domain.Participant `json:"existingUsers,omitempty"`
}

func (ctl *SignalWSController) handleCreateRoom(sid domain.ConnID, c core.SignalConnection, data []byte) {
	var p struct {
		RoomName       string `json:"roomName" validate:"required,max=64"`
		IsPrivate      bool   `json:"isPrivate"`
		Password       string `json:"password" validate:"max=128"`
		CreatorTier    string `json:"creatorTier"`
		Username       string `json:"username" validate:"max=36"`
		ExternalUserID string `json:"externalUserId" validate:"max=64"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad create payload")
		ctl.sendJSON(c, "room:created", roomAck{Error: "bad_payload"})
		return
	}
	if err := validate.Struct(p); err != nil {
		ctl.sendJSON(c, "room:created", roomAck{Error: "bad_payload"})
		return
	}
	if p.Username == "" {
		p.Username = "anonymous"
	}

	// A connection holds one membership at most, so creating while in a
	// room leaves the old room first, with the usual broadcasts.
	ctl.leaveCurrent(sid)

	room, err := ctl.Orch.CreateRoom(sid, p.RoomName, p.Username, p.IsPrivate, p.Password, p.CreatorTier, p.ExternalUserID)
	if err != nil {
		ctl.sendJSON(c, "room:created", roomAck{Error: err.Error()})
		return
	}

	ctl.sendJSON(c, "room:created", roomAck{Success: true, RoomID: room.ID, Room: &room})
	ctl.broadcastDirectory()
}

func (ctl *SignalWSController) handleJoin(sid domain.ConnID, c core.SignalConnection, data []byte) {
	var p struct {
		RoomID         string `json:"roomId" validate:"required"`
		Username       string `json:"username" validate:"max=36"`
		UserTier       string `json:"userTier"`
		Password       string `json:"password" validate:"max=128"`
		ExternalUserID string `json:"externalUserId" validate:"max=64"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad join payload")
		ctl.sendJSON(c, "room:joined", roomAck{Error: "bad_payload"})
		return
	}
	if err := validate.Struct(p); err != nil {
		ctl.sendJSON(c, "room:joined", roomAck{Error: "bad_payload"})
		return
	}
	if p.Username == "" {
		p.Username = "anonymous"
	}

	// Implicit leave-first: a second join must not leave presence pointing
	// at a stale room.
	ctl.leaveCurrent(sid)

	joined, existing, err := ctl.Orch.Join(sid, domain.RoomID(p.RoomID), p.Username, p.UserTier, p.Password, p.ExternalUserID)
	if err != nil {
		ctl.sendJSON(c, "room:joined", roomAck{Error: err.Error()})
		return
	}

	room, _ := ctl.Orch.Registry.RoomData(joined.RoomID)
	ctl.sendJSON(c, "room:joined", roomAck{
		Success:       true,
		Room:          &room,
		ExistingUsers: existing,
	})
	ctl.broadcastRoom(joined.RoomID, sid, "user:joined", joined)
	ctl.broadcastDirectory()
}

func (ctl *SignalWSController) handleLeave(sid domain.ConnID) {
	ctl.leaveCurrent(sid)
}

// handleDisconnect runs when the transport dies. Same cleanup as an
// explicit leave, then the connection itself is forgotten.
func (ctl *SignalWSController) handleDisconnect(sid domain.ConnID) {
	ctl.leaveCurrent(sid)
	ctl.Orch.Registry.Disconnect(sid)
}

// leaveCurrent is the one leave path shared by room:leave, disconnect and
// the implicit leave before create/join. No-op when the connection holds no
// membership.
func (ctl *SignalWSController) leaveCurrent(sid domain.ConnID) {
	res, ok := ctl.Orch.Leave(sid)
	if !ok {
		return
	}
	ctl.broadcastRoom(res.RoomID, sid, "user:left", map[string]any{
		"socketId": res.Participant.ConnID,
		"username": res.Participant.Username,
	})
	ctl.broadcastDirectory()
}
