package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/core"
	"github.com/quietdesk/focusroom/internal/domain"
)

// handleChat appends to the room's chat window and echoes the stored entry
// to the whole room, sender included; clients render only from the echo so
// every viewer sees the same ordering. Policy failures go back to the
// sender alone as chat:error.
func (ctl *SignalWSController) handleChat(sid domain.ConnID, c core.SignalConnection, data []byte) {
	var p struct {
		Message     string              `json:"message" validate:"max=2000"`
		Attachments []domain.Attachment `json:"attachments" validate:"max=10,dive"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad chat payload")
		ctl.sendJSON(c, "chat:error", map[string]string{"error": "bad_payload"})
		return
	}
	if err := validate.Struct(p); err != nil {
		ctl.sendJSON(c, "chat:error", map[string]string{"error": "bad_payload"})
		return
	}

	msg, roomID, err := ctl.Orch.Chat(sid, p.Message, p.Attachments)
	if err != nil {
		ctl.sendJSON(c, "chat:error", map[string]string{"error": err.Error()})
		return
	}
	ctl.broadcastRoom(roomID, "", "chat:message", msg)
}

func (ctl *SignalWSController) handlePing(sid domain.ConnID, data []byte) {
	var p struct {
		TargetSocketID string `json:"targetSocketId" validate:"required"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad ping payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		return
	}

	from, ok := ctl.Orch.Ping(sid)
	if !ok {
		return
	}
	ctl.sendTo(domain.ConnID(p.TargetSocketID), "user:pinged", map[string]any{
		"from":     from.ConnID,
		"username": from.Username,
	})
}
