package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/core"
	"github.com/quietdesk/focusroom/internal/domain"
)

// handleDraw appends the stroke to the room's log and fans it out to the
// rest of the room. The sender already has the stroke on screen, so it is
// excluded from the broadcast. Coordinates are normalized 0..1.
func (ctl *SignalWSController) handleDraw(sid domain.ConnID, data []byte) {
	var p struct {
		RoomID string  `json:"roomId"`
		X0     float64 `json:"x0" validate:"gte=0,lte=1"`
		Y0     float64 `json:"y0" validate:"gte=0,lte=1"`
		X1     float64 `json:"x1" validate:"gte=0,lte=1"`
		Y1     float64 `json:"y1" validate:"gte=0,lte=1"`
		Color  string  `json:"color" validate:"required,max=32"`
		Width  float64 `json:"width" validate:"gt=0,lte=100"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad draw payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		return
	}

	stroke := domain.Stroke{X0: p.X0, Y0: p.Y0, X1: p.X1, Y1: p.Y1, Color: p.Color, Width: p.Width}
	// Routed by presence; the roomId in the payload is untrusted input.
	roomID, ok := ctl.Orch.Draw(sid, stroke)
	if !ok {
		return
	}
	ctl.broadcastRoom(roomID, sid, "whiteboard:draw", stroke)
}

func (ctl *SignalWSController) handleBoardClear(sid domain.ConnID) {
	roomID, ok := ctl.Orch.ClearBoard(sid)
	if !ok {
		return
	}
	ctl.broadcastRoom(roomID, sid, "whiteboard:clear", nil)
}

// handleBoardHistory unicasts the full stroke log to the requester only.
// Late joiners and reconnects use it to catch up; it is never broadcast.
func (ctl *SignalWSController) handleBoardHistory(sid domain.ConnID, c core.SignalConnection) {
	strokes, ok := ctl.Orch.BoardHistory(sid)
	if !ok {
		return
	}
	ctl.sendJSON(c, "whiteboard:history", strokes)
}
