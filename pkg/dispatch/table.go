package dispatch

import (
	"fmt"
	"io"
	"sort"
	"sync"
)

const slabSize = 64

// Table is an arena of sites with stable ids. Sites are allocated in fixed slabs
// so their addresses never move while the owning tree is alive.
type Table struct {
	mu      sync.Mutex
	slabs   []*[slabSize]Site
	count   int
	monitor *Monitor
}

func NewTable(monitor *Monitor) *Table {
	return &Table{monitor: monitor}
}

func (t *Table) Monitor() *Monitor {
	return t.monitor
}

// NewSite allocates a site starting at the narrowest strategy of l.
func (t *Table) NewSite(l *Ladder) *Site {
	t.mu.Lock()
	defer t.mu.Unlock()
	slab, off := t.count/slabSize, t.count%slabSize
	if slab == len(t.slabs) {
		t.slabs = append(t.slabs, new([slabSize]Site))
	}
	s := &t.slabs[slab][off]
	s.id = SiteID(t.count)
	s.ladder = l
	s.monitor = t.monitor
	t.count++
	return s
}

// Site returns the site with the given id, or nil.
func (t *Table) Site(id SiteID) *Site {
	t.mu.Lock()
	defer t.mu.Unlock()
	if int(id) >= t.count {
		return nil
	}
	return &t.slabs[int(id)/slabSize][int(id)%slabSize]
}

// Len returns the number of allocated sites.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.count
}

// Each calls fn for every site in allocation order.
func (t *Table) Each(fn func(*Site)) {
	n := t.Len()
	for i := 0; i < n; i++ {
		fn(t.Site(SiteID(i)))
	}
}

// FamilyStats summarises the sites of one operator family.
type FamilyStats struct {
	Family      string
	Sites       int
	Hits        uint64
	Transitions uint64
	ByStrategy  map[string]int
}

// Stats groups the sites by family, sorted by family name.
func (t *Table) Stats() []FamilyStats {
	byFamily := map[string]*FamilyStats{}
	t.Each(func(s *Site) {
		fs := byFamily[s.ladder.Family]
		if fs == nil {
			fs = &FamilyStats{Family: s.ladder.Family, ByStrategy: map[string]int{}}
			byFamily[s.ladder.Family] = fs
		}
		fs.Sites++
		fs.Hits += s.Hits()
		fs.Transitions += uint64(s.Transitions())
		fs.ByStrategy[s.ladder.Name(s.Strategy())]++
	})
	out := make([]FamilyStats, 0, len(byFamily))
	for _, fs := range byFamily {
		out = append(out, *fs)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Family < out[j].Family })
	return out
}

// Fprint writes per-site strategy information for debugging.
func (t *Table) Fprint(w io.Writer) {
	n := t.Len()
	if n == 0 {
		fmt.Fprintf(w, "Sites: none\n")
		return
	}
	var hits, transitions uint64
	t.Each(func(s *Site) {
		hits += s.Hits()
		transitions += uint64(s.Transitions())
	})
	fmt.Fprintf(w, "Sites: %d, Hits: %d, Transitions: %d\n", n, hits, transitions)
	t.Each(func(s *Site) {
		label := s.label
		if label == "" {
			label = s.ladder.Family
		}
		fmt.Fprintf(w, "  #%-4d %-12s %-16s (hits: %d, transitions: %d)\n",
			s.id, label, s.ladder.Name(s.Strategy()), s.Hits(), s.Transitions())
	})
}
