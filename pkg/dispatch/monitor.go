package dispatch

import (
	"sync"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
)

// OnTransitionFunc is called after a site generalized.
type OnTransitionFunc func(
	site *Site,
	from, to Strategy,
	attrs []attribute.KeyValue,
)

// Monitor observes generalizations: it logs them, counts them per family and
// forwards them to an optional trace hook. A nil *Monitor is valid and silent.
type Monitor struct {
	logger       zerolog.Logger
	onTransition OnTransitionFunc

	mu     sync.Mutex
	counts map[string]uint64
}

func NewMonitor(logger zerolog.Logger, onTransition OnTransitionFunc) *Monitor {
	return &Monitor{
		logger:       logger,
		onTransition: onTransition,
		counts:       map[string]uint64{},
	}
}

func (m *Monitor) record(s *Site, from, to Strategy) {
	if m == nil {
		return
	}
	family := s.ladder.Family

	m.mu.Lock()
	m.counts[family]++
	m.mu.Unlock()

	m.logger.Debug().
		Str("family", family).
		Uint32("site", uint32(s.id)).
		Str("label", s.label).
		Str("from", s.ladder.Name(from)).
		Str("to", s.ladder.Name(to)).
		Msg("generalized")

	if m.onTransition != nil {
		m.onTransition(s, from, to, []attribute.KeyValue{
			attribute.String("family", family),
			attribute.Int("site", int(s.id)),
			attribute.String("from", s.ladder.Name(from)),
			attribute.String("to", s.ladder.Name(to)),
		})
	}
}

// Transitions returns the number of generalizations recorded for family.
func (m *Monitor) Transitions(family string) uint64 {
	if m == nil {
		return 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[family]
}

// Counts returns a copy of the per-family transition counters.
func (m *Monitor) Counts() map[string]uint64 {
	out := map[string]uint64{}
	if m == nil {
		return out
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, v := range m.counts {
		out[k] = v
	}
	return out
}
