// Package dispatch implements the specialization protocol shared by every
// self-specializing node: a site holds the node's current strategy, strategies
// form a total order from narrowest to widest, and a site only ever widens.
package dispatch

import (
	"fmt"
	"sync/atomic"
)

const debugDispatch = false

// Strategy is a position in a Ladder. Zero is the narrowest strategy.
type Strategy uint32

// Ladder names the strategies of one operator family, narrowest first. The last
// rung is the fully generic strategy, after which no transition happens.
type Ladder struct {
	Family string
	Names  []string
}

func NewLadder(family string, names ...string) *Ladder {
	if len(names) == 0 {
		panic("dispatch: ladder without strategies")
	}
	return &Ladder{Family: family, Names: names}
}

// Name returns the strategy name, e.g. "int32".
func (l *Ladder) Name(s Strategy) string {
	if int(s) < len(l.Names) {
		return l.Names[s]
	}
	return fmt.Sprintf("strategy(%d)", s)
}

// Generic returns the widest strategy of the ladder.
func (l *Ladder) Generic() Strategy {
	return Strategy(len(l.Names) - 1)
}

// SiteID is the stable arena index of a site within its Table.
type SiteID uint32

// Site is the strategy cell owned by exactly one node. The strategy is published
// through a single atomic word, so a reader always sees either the old or the new
// strategy, and concurrent generalizations settle on the widest one.
type Site struct {
	id          SiteID
	ladder      *Ladder
	monitor     *Monitor
	label       string
	state       atomic.Uint32
	hits        atomic.Uint64 // executions answered by the current strategy
	transitions atomic.Uint32
}

func (s *Site) ID() SiteID        { return s.id }
func (s *Site) Ladder() *Ladder   { return s.ladder }
func (s *Site) Label() string     { return s.label }
func (s *Site) SetLabel(l string) { s.label = l }

// Strategy returns the currently published strategy.
func (s *Site) Strategy() Strategy {
	return Strategy(s.state.Load())
}

// IsGeneric reports whether the site reached the end of its ladder.
func (s *Site) IsGeneric() bool {
	return s.Strategy() >= s.ladder.Generic()
}

// Hit records an execution answered by the current strategy.
func (s *Site) Hit() {
	s.hits.Add(1)
}

func (s *Site) Hits() uint64        { return s.hits.Load() }
func (s *Site) Transitions() uint32 { return s.transitions.Load() }

// Generalize widens the site to at least `to` and returns the strategy now in
// effect. Requests for a narrower or equal strategy are no-ops, so racing
// generalizations are idempotent and the widest one wins.
func (s *Site) Generalize(to Strategy) Strategy {
	if g := s.ladder.Generic(); to > g {
		to = g
	}
	for {
		cur := Strategy(s.state.Load())
		if cur >= to {
			return cur
		}
		if s.state.CompareAndSwap(uint32(cur), uint32(to)) {
			s.transitions.Add(1)
			if debugDispatch {
				fmt.Printf("[dispatch] %s#%d: %s -> %s\n", s.ladder.Family, s.id, s.ladder.Name(cur), s.ladder.Name(to))
			}
			s.monitor.record(s, cur, to)
			return to
		}
	}
}

// Seed sets the starting strategy of a site that has not executed yet. It is
// not a generalization and is not reported to the monitor.
func (s *Site) Seed(st Strategy) {
	s.state.Store(uint32(st))
}

// Advance widens the site by one rung from `from`.
func (s *Site) Advance(from Strategy) Strategy {
	return s.Generalize(from + 1)
}

func (s *Site) String() string {
	return fmt.Sprintf("%s#%d[%s]", s.ladder.Family, s.id, s.ladder.Name(s.Strategy()))
}

// NewDetachedSite returns a site outside any table, used by nodes built without a
// table and by one-shot evaluations.
func NewDetachedSite(l *Ladder) *Site {
	return &Site{ladder: l}
}
