package orch

import (
	"github.com/quietdesk/focusroom/internal/core"
)

// Orchestrator is the decision layer between the signaling gateway and the
// registry: it applies tier policy, drives the join/leave state machine and
// tells the gateway what happened. It holds no state of its own.
type Orchestrator struct {
	Registry *core.Registry
}

func New(reg *core.Registry) *Orchestrator {
	return &Orchestrator{Registry: reg}
}
