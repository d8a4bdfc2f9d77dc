package signal

import (
	"encoding/json"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/quietdesk/focusroom/internal/domain"
)

// The relay forwards handshake payloads to the addressed peer untouched,
// tagged with the sender. SDP and ICE content is never inspected or stored;
// media flows peer to peer once the handshake completes.

func (ctl *SignalWSController) handleOffer(sid domain.ConnID, data []byte) {
	var p struct {
		To    string                    `json:"to" validate:"required"`
		Offer webrtc.SessionDescription `json:"offer"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad offer payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		return
	}

	// Offers carry the sender's username so the receiver can render who is
	// calling before any media exists.
	username := ""
	if from, ok := ctl.Orch.Registry.Participant(sid); ok {
		username = from.Username
	}
	ctl.sendTo(domain.ConnID(p.To), "webrtc:offer", map[string]any{
		"from":     sid,
		"username": username,
		"offer":    p.Offer,
	})
}

func (ctl *SignalWSController) handleAnswer(sid domain.ConnID, data []byte) {
	var p struct {
		To     string                    `json:"to" validate:"required"`
		Answer webrtc.SessionDescription `json:"answer"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad answer payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		return
	}
	ctl.sendTo(domain.ConnID(p.To), "webrtc:answer", map[string]any{
		"from":   sid,
		"answer": p.Answer,
	})
}

func (ctl *SignalWSController) handleICECandidate(sid domain.ConnID, data []byte) {
	var p struct {
		To        string                  `json:"to" validate:"required"`
		Candidate webrtc.ICECandidateInit `json:"candidate"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad candidate payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		return
	}
	ctl.sendTo(domain.ConnID(p.To), "webrtc:ice-candidate", map[string]any{
		"from":      sid,
		"candidate": p.Candidate,
	})
}

// request:send / request:respond are generic direct requests between two
// connections, relayed with the same best-effort rules as the handshake.

func (ctl *SignalWSController) handleRequestSend(sid domain.ConnID, data []byte) {
	var p struct {
		TargetSocketID string          `json:"targetSocketId" validate:"required"`
		Message        json.RawMessage `json:"message"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad request payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		return
	}

	username := ""
	if from, ok := ctl.Orch.Registry.Participant(sid); ok {
		username = from.Username
	}
	ctl.sendTo(domain.ConnID(p.TargetSocketID), "request:received", map[string]any{
		"from":     sid,
		"username": username,
		"message":  p.Message,
	})
}

func (ctl *SignalWSController) handleRequestRespond(sid domain.ConnID, data []byte) {
	var p struct {
		TargetSocketID string `json:"targetSocketId" validate:"required"`
		Accepted       bool   `json:"accepted"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad respond payload")
		return
	}
	if err := validate.Struct(p); err != nil {
		return
	}
	ctl.sendTo(domain.ConnID(p.TargetSocketID), "request:response", map[string]any{
		"from":     sid,
		"accepted": p.Accepted,
	})
}
