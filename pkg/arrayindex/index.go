// Package arrayindex resolves the first, last, next and previous populated index
// of array-like objects. Each query node specializes on the element representation
// the same way operator nodes specialize on operand types.
package arrayindex

import (
	"sort"
	"sync/atomic"

	"strata/pkg/dispatch"
	"strata/pkg/host"
	"strata/pkg/value"
)

// Direction selects the query a node answers.
type Direction uint8

const (
	First Direction = iota
	Last
	Next
	Previous
)

func (d Direction) String() string {
	switch d {
	case First:
		return "first"
	case Last:
		return "last"
	case Next:
		return "next"
	default:
		return "previous"
	}
}

// Forward reports whether the direction searches towards higher indices.
func (d Direction) Forward() bool {
	return d == First || d == Next
}

const (
	strategyDense dispatch.Strategy = iota
	strategyHoley
	strategyGeneric
)

var Ladder = dispatch.NewLadder("array-index", "dense", "holey", "generic")

// Node answers one direction of index query. Forward queries report "not found"
// as the length; backward queries report it as -1.
type Node struct {
	dir  Direction
	site *dispatch.Site
	tag  atomic.Uint32 // ArrayTag seen by the dense strategy, plus one
}

// New returns a query node. sites may be nil for a detached node.
func New(dir Direction, sites *dispatch.Table) *Node {
	var site *dispatch.Site
	if sites != nil {
		site = sites.NewSite(Ladder)
	} else {
		site = dispatch.NewDetachedSite(Ladder)
	}
	site.SetLabel(dir.String() + "-index")
	return &Node{dir: dir, site: site}
}

func (n *Node) Direction() Direction { return n.dir }
func (n *Node) Site() *dispatch.Site { return n.site }

// NotFound returns the sentinel of the node's direction.
func (n *Node) NotFound(length int64) int64 {
	if n.dir.Forward() {
		return length
	}
	return -1
}

// Execute runs the query. index is ignored by First and Last. isArray is the
// caller's hint that obj is an Array; without it only the generic strategy applies.
func (n *Node) Execute(m host.ObjectModel, obj value.Object, index, length int64, isArray bool) (int64, error) {
	from, ok := n.start(index, length)
	if !ok {
		return n.NotFound(length), nil
	}
	s := n.site.Strategy()
	for {
		res, ok, err := n.try(m, s, obj, from, length, isArray)
		if ok {
			n.site.Hit()
			return res, err
		}
		s = n.site.Generalize(s + 1)
	}
}

// start returns the first candidate index, or false when the range is empty.
func (n *Node) start(index, length int64) (int64, bool) {
	var from int64
	switch n.dir {
	case First:
		from = 0
	case Next:
		from = max(index+1, 0)
	case Last:
		from = length - 1
	case Previous:
		from = min(index-1, length-1)
	}
	if n.dir.Forward() {
		return from, from < length
	}
	return from, from >= 0
}

func (n *Node) try(m host.ObjectModel, s dispatch.Strategy, obj value.Object, from, length int64, isArray bool) (int64, bool, error) {
	switch s {
	case strategyDense:
		if !isArray {
			return 0, false, nil
		}
		tag := m.ArrayTag(obj)
		if !tag.HasHoleFreeLayout() || !n.matchTag(tag) || !m.PrototypeNoElements().IsValid() {
			return 0, false, nil
		}
		e, _ := m.Elements(obj)
		return n.fromElements(e, from, length), true, nil
	case strategyHoley:
		if !isArray {
			return 0, false, nil
		}
		e, ok := m.Elements(obj)
		if !ok {
			return 0, false, nil
		}
		res := n.fromElements(e, from, length)
		if m.PrototypeNoElements().IsValid() {
			return res, true, nil
		}
		res, err := n.mergePrototypes(m, obj, res, from, length)
		return res, true, err
	}
	res, err := n.enumerate(m, obj, from, length)
	return res, true, err
}

// matchTag pins the tag on first use and checks later tags against it.
func (n *Node) matchTag(tag host.ArrayTag) bool {
	want := uint32(tag) + 1
	n.tag.CompareAndSwap(0, want)
	return n.tag.Load() == want
}

// fromElements searches the own element storage from `from`.
func (n *Node) fromElements(e host.Elements, from, length int64) int64 {
	if n.dir.Forward() {
		if r := e.NextIndex(from - 1); r >= 0 && r < length {
			return r
		}
		return length
	}
	return max(e.PreviousIndex(from+1), -1)
}

// fromKeys searches an ascending key list from `from`.
func (n *Node) fromKeys(keys []int64, from, length int64) int64 {
	if n.dir.Forward() {
		i := sort.Search(len(keys), func(i int) bool { return keys[i] >= from })
		if i < len(keys) && keys[i] < length {
			return keys[i]
		}
		return length
	}
	i := sort.Search(len(keys), func(i int) bool { return keys[i] > from })
	if i == 0 {
		return -1
	}
	return keys[i-1]
}

// better returns the candidate closest to the search origin.
func (n *Node) better(a, b int64) int64 {
	if n.dir.Forward() {
		return min(a, b)
	}
	return max(a, b)
}

// candidateOf searches the own indices of one object of a prototype chain.
func (n *Node) candidateOf(m host.ObjectModel, obj value.Object, from, length int64) (int64, error) {
	if e, ok := m.Elements(obj); ok {
		return n.fromElements(e, from, length), nil
	}
	keys, err := m.OwnIndexedKeys(obj)
	if err != nil {
		return 0, err
	}
	return n.fromKeys(keys, from, length), nil
}

// mergePrototypes folds the candidates contributed by the prototype chain into
// the receiver's own candidate. An inherited index counts as populated exactly
// like an own one, and an own index shadowing it yields the same position.
func (n *Node) mergePrototypes(m host.ObjectModel, obj value.Object, res, from, length int64) (int64, error) {
	proto, err := m.Prototype(obj)
	for ; err == nil && proto != nil; proto, err = m.Prototype(proto) {
		c, cerr := n.candidateOf(m, proto, from, length)
		if cerr != nil {
			return 0, cerr
		}
		res = n.better(res, c)
	}
	if err != nil {
		return 0, err
	}
	return res, nil
}

// scanLimit is the widest range the generic strategy checks index by index.
const scanLimit = 64

// enumerate is the generic strategy. It works on any object by enumerating the
// indexed keys of the receiver and its prototypes. Foreign objects over a short
// range are scanned with has-property checks instead.
func (n *Node) enumerate(m host.ObjectModel, obj value.Object, from, length int64) (int64, error) {
	if m.ArrayTag(obj) == host.TagForeign && n.span(from, length) <= scanLimit {
		return n.scan(m, obj, from, length)
	}
	res, err := n.candidateOf(m, obj, from, length)
	if err != nil {
		return 0, err
	}
	return n.mergePrototypes(m, obj, res, from, length)
}

// span is the number of indices left to search.
func (n *Node) span(from, length int64) int64 {
	if n.dir.Forward() {
		return length - from
	}
	return from + 1
}

func (n *Node) scan(m host.ObjectModel, obj value.Object, from, length int64) (int64, error) {
	step := int64(1)
	if !n.dir.Forward() {
		step = -1
	}
	for i := from; i >= 0 && i < length; i += step {
		ok, err := m.Has(obj, value.NewIndexKey(i))
		if err != nil {
			return 0, err
		}
		if ok {
			return i, nil
		}
	}
	return n.NotFound(length), nil
}
