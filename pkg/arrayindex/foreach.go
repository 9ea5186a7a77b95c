package arrayindex

import (
	"strata/pkg/dispatch"
	"strata/pkg/host"
	"strata/pkg/value"
)

// Visitor is called for every populated index. Returning true stops the walk.
type Visitor func(index int64) (stop bool, err error)

// Walker visits the populated indices of an array-like object in order, skipping
// holes with a pair of query nodes.
type Walker struct {
	start, step *Node
	// CheckHasProperty re-checks each index before the visitor runs, so indices
	// removed by an earlier visit are skipped.
	CheckHasProperty bool
}

// NewWalker returns a walker that runs forward or backward.
func NewWalker(forward bool, sites *dispatch.Table) *Walker {
	if forward {
		return &Walker{start: New(First, sites), step: New(Next, sites)}
	}
	return &Walker{start: New(Last, sites), step: New(Previous, sites)}
}

// Forward reports the walk direction.
func (w *Walker) Forward() bool { return w.start.dir.Forward() }

// Walk visits the populated indices of obj below length.
func (w *Walker) Walk(m host.ObjectModel, obj value.Object, length int64, isArray bool, visit Visitor) error {
	i, err := w.start.Execute(m, obj, 0, length, isArray)
	for ; err == nil && i >= 0 && i < length; i, err = w.step.Execute(m, obj, i, length, isArray) {
		if w.CheckHasProperty {
			ok, herr := m.Has(obj, value.NewIndexKey(i))
			if herr != nil {
				return herr
			}
			if !ok {
				continue
			}
		}
		stop, verr := visit(i)
		if verr != nil || stop {
			return verr
		}
	}
	return err
}

// ForEachIndex walks obj once with detached nodes.
func ForEachIndex(m host.ObjectModel, obj value.Object, length int64, forward bool, visit Visitor) error {
	return NewWalker(forward, nil).Walk(m, obj, length, isArrayLike(m, obj), visit)
}

func isArrayLike(m host.ObjectModel, obj value.Object) bool {
	return m.ArrayTag(obj).IsArrayLike()
}
