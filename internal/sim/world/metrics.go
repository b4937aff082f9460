package world

import "sync/atomic"

// WorldMetrics is a thread-safe read-only view of key runtime signals.
// It is published from the world loop goroutine and read from HTTP
// handlers and tests.
type WorldMetrics struct {
	Tick uint64 `json:"tick"`

	Souls        int `json:"souls"`
	Clients      int `json:"clients"`
	Townships    int `json:"townships"`
	Chatventures int `json:"chatventures"`

	ActionsAccepted uint64 `json:"actions_accepted"`
	ActionsRejected uint64 `json:"actions_rejected"`

	StepMillis float64 `json:"step_millis"`

	QueueDepths QueueDepths `json:"queue_depths"`
}

type QueueDepths struct {
	Inbox int `json:"inbox"`
	Join  int `json:"join"`
	Leave int `json:"leave"`
}

type Metrics struct {
	view     atomic.Value
	accepted atomic.Uint64
	rejected atomic.Uint64
}

func (m *Metrics) AcceptAction() { m.accepted.Add(1) }
func (m *Metrics) RejectAction() { m.rejected.Add(1) }

func (m *Metrics) publish(v WorldMetrics) {
	v.ActionsAccepted = m.accepted.Load()
	v.ActionsRejected = m.rejected.Load()
	m.view.Store(v)
}

// Metrics returns the most recently published view.
func (w *World) Metrics() WorldMetrics {
	if w == nil || w.metrics == nil {
		return WorldMetrics{}
	}
	v := w.metrics.view.Load()
	m, ok := v.(WorldMetrics)
	if !ok {
		return WorldMetrics{}
	}
	return m
}
