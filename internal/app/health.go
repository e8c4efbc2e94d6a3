package app

import (
	"sync/atomic"

	"github.com/claude-vim/claude-bridge/internal/proxy"
)

// Phase is a stage of the bridge lifecycle as reported by the readiness probe.
type Phase int32

const (
	PhaseStarting Phase = iota
	PhaseServing
	PhaseDraining
)

func (p Phase) String() string {
	switch p {
	case PhaseServing:
		return "serving"
	case PhaseDraining:
		return "draining"
	default:
		return "starting"
	}
}

// Health tracks the lifecycle phase behind the readiness endpoint.
// Only PhaseServing reports ready; the zero value is PhaseStarting.
type Health struct {
	phase atomic.Int32
}

var _ proxy.ReadinessChecker = (*Health)(nil)

func NewHealth() *Health {
	return &Health{}
}

// Phase returns the current lifecycle phase.
func (h *Health) Phase() Phase {
	return Phase(h.phase.Load())
}

// SetPhase moves the bridge to p.
func (h *Health) SetPhase(p Phase) {
	h.phase.Store(int32(p))
}

// SetReady is shorthand for PhaseServing or PhaseDraining.
func (h *Health) SetReady(ready bool) {
	if ready {
		h.SetPhase(PhaseServing)
		return
	}
	h.SetPhase(PhaseDraining)
}

func (h *Health) IsReady() bool {
	return h.Phase() == PhaseServing
}
