package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/domain"
)

// handleMediaToggle updates the participant's stored audio/video flag and
// tells the rest of the room. A guest toggle is swallowed whole: no state
// change and no broadcast. Screen toggles carry no stored flag, they are
// relayed as a transient UI signal.
func (ctl *SignalWSController) handleMediaToggle(sid domain.ConnID, data []byte) {
	var p struct {
		Kind    string `json:"type" validate:"required,oneof=audio video screen"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad media payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		return
	}

	participant, changed := ctl.Orch.ToggleMedia(sid, p.Kind, p.Enabled)
	if !changed {
		return
	}
	ctl.broadcastRoom(participant.RoomID, sid, "user:media-toggle", map[string]any{
		"socketId": participant.ConnID,
		"type":     p.Kind,
		"enabled":  p.Enabled,
	})
}
