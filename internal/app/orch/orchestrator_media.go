package orch

import (
	"github.com/quietdesk/focusroom/internal/domain"
)

// ToggleMedia applies a media toggle under tier policy. Audio and video are
// stored flags; screen is a transient relay with no stored state. A guest
// toggle changes nothing and reports changed=false, so the gateway stays
// silent.
func (o *Orchestrator) ToggleMedia(connID domain.ConnID, kind string, enabled bool) (domain.Participant, bool) {
	if kind == "screen" {
		p, ok := o.Registry.Participant(connID)
		if !ok || !p.Tier.Capabilities().ShareScreen {
			return domain.Participant{}, false
		}
		return p, true
	}
	return o.Registry.SetMedia(connID, kind, enabled)
}
