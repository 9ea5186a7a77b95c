package objects

import (
	"slices"
	"sort"

	"github.com/bits-and-blooms/bitset"

	"strata/pkg/host"
	"strata/pkg/value"
)

// holeyGrowthSlack bounds how far past the end a holey store grows before the
// array turns sparse.
const holeyGrowthSlack = 1024

// storage is the element representation of an array. set and remove report
// false when the representation cannot hold the change and must be widened.
type storage interface {
	host.Elements
	get(index int64) (value.Value, bool)
	set(index int64, v value.Value) bool
	remove(index int64) bool
	count() int
	each(fn func(index int64, v value.Value))
}

// denseStorage populates every index of [offset, offset+len(values)).
type denseStorage struct {
	offset int64
	values []value.Value
}

func (d *denseStorage) Tag() host.ArrayTag { return host.TagDense }

func (d *denseStorage) last() int64 { return d.offset + int64(len(d.values)) - 1 }

func (d *denseStorage) FirstIndex() int64 {
	if len(d.values) == 0 {
		return -1
	}
	return d.offset
}

func (d *denseStorage) LastIndex() int64 {
	if len(d.values) == 0 {
		return -1
	}
	return d.last()
}

func (d *denseStorage) NextIndex(index int64) int64 {
	switch {
	case len(d.values) == 0 || index >= d.last():
		return -1
	case index < d.offset:
		return d.offset
	}
	return index + 1
}

func (d *denseStorage) PreviousIndex(index int64) int64 {
	switch {
	case len(d.values) == 0 || index <= d.offset:
		return -1
	case index > d.last():
		return d.last()
	}
	return index - 1
}

func (d *denseStorage) HasIndex(index int64) bool {
	return len(d.values) > 0 && index >= d.offset && index <= d.last()
}

func (d *denseStorage) get(index int64) (value.Value, bool) {
	if !d.HasIndex(index) {
		return value.Undefined, false
	}
	return d.values[index-d.offset], true
}

func (d *denseStorage) set(index int64, v value.Value) bool {
	switch {
	case len(d.values) == 0:
		d.offset = index
		d.values = append(d.values, v)
	case d.HasIndex(index):
		d.values[index-d.offset] = v
	case index == d.last()+1:
		d.values = append(d.values, v)
	case index == d.offset-1:
		d.values = slices.Insert(d.values, 0, v)
		d.offset--
	default:
		return false
	}
	return true
}

func (d *denseStorage) remove(index int64) bool {
	switch {
	case !d.HasIndex(index):
	case index == d.offset:
		d.values = d.values[1:]
		d.offset++
	case index == d.last():
		d.values = d.values[:len(d.values)-1]
	default:
		return false
	}
	return true
}

func (d *denseStorage) count() int { return len(d.values) }

func (d *denseStorage) each(fn func(int64, value.Value)) {
	for i, v := range d.values {
		fn(d.offset+int64(i), v)
	}
}

// holeyStorage is contiguous from index 0; a bitmap marks populated slots.
type holeyStorage struct {
	values  []value.Value
	present *bitset.BitSet
}

// newHoleyStorage returns a store of size holes.
func newHoleyStorage(size int) *holeyStorage {
	values := make([]value.Value, size)
	for i := range values {
		values[i] = value.Hole
	}
	return &holeyStorage{values: values, present: bitset.New(uint(size))}
}

func (h *holeyStorage) Tag() host.ArrayTag { return host.TagDenseWithHoles }

func (h *holeyStorage) FirstIndex() int64 {
	return h.NextIndex(-1)
}

func (h *holeyStorage) LastIndex() int64 {
	return h.PreviousIndex(int64(len(h.values)))
}

func (h *holeyStorage) NextIndex(index int64) int64 {
	from := index + 1
	if from < 0 {
		from = 0
	}
	if from >= int64(len(h.values)) {
		return -1
	}
	if i, ok := h.present.NextSet(uint(from)); ok && i < uint(len(h.values)) {
		return int64(i)
	}
	return -1
}

func (h *holeyStorage) PreviousIndex(index int64) int64 {
	from := index - 1
	if from >= int64(len(h.values)) {
		from = int64(len(h.values)) - 1
	}
	if from < 0 {
		return -1
	}
	if i, ok := h.present.PreviousSet(uint(from)); ok {
		return int64(i)
	}
	return -1
}

func (h *holeyStorage) HasIndex(index int64) bool {
	return index >= 0 && index < int64(len(h.values)) && h.present.Test(uint(index))
}

func (h *holeyStorage) get(index int64) (value.Value, bool) {
	if !h.HasIndex(index) {
		return value.Undefined, false
	}
	return h.values[index], true
}

func (h *holeyStorage) set(index int64, v value.Value) bool {
	if index < 0 {
		return false
	}
	if n := int64(len(h.values)); index >= n {
		if index > 2*n+holeyGrowthSlack {
			return false
		}
		for int64(len(h.values)) <= index {
			h.values = append(h.values, value.Hole)
		}
	}
	h.values[index] = v
	h.present.Set(uint(index))
	return true
}

func (h *holeyStorage) remove(index int64) bool {
	if h.HasIndex(index) {
		h.values[index] = value.Hole
		h.present.Clear(uint(index))
	}
	return true
}

func (h *holeyStorage) count() int { return int(h.present.Count()) }

func (h *holeyStorage) each(fn func(int64, value.Value)) {
	for i, ok := h.present.NextSet(0); ok && i < uint(len(h.values)); i, ok = h.present.NextSet(i + 1) {
		fn(int64(i), h.values[i])
	}
}

// sparseStorage keeps an ordered index set next to an index map.
type sparseStorage struct {
	values map[int64]value.Value
	keys   []int64
}

func newSparseStorage() *sparseStorage {
	return &sparseStorage{values: make(map[int64]value.Value)}
}

func (s *sparseStorage) Tag() host.ArrayTag { return host.TagSparse }

func (s *sparseStorage) FirstIndex() int64 {
	if len(s.keys) == 0 {
		return -1
	}
	return s.keys[0]
}

func (s *sparseStorage) LastIndex() int64 {
	if len(s.keys) == 0 {
		return -1
	}
	return s.keys[len(s.keys)-1]
}

func (s *sparseStorage) NextIndex(index int64) int64 {
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] > index })
	if i == len(s.keys) {
		return -1
	}
	return s.keys[i]
}

func (s *sparseStorage) PreviousIndex(index int64) int64 {
	i := sort.Search(len(s.keys), func(i int) bool { return s.keys[i] >= index })
	if i == 0 {
		return -1
	}
	return s.keys[i-1]
}

func (s *sparseStorage) HasIndex(index int64) bool {
	_, ok := s.values[index]
	return ok
}

func (s *sparseStorage) get(index int64) (value.Value, bool) {
	v, ok := s.values[index]
	return v, ok
}

func (s *sparseStorage) set(index int64, v value.Value) bool {
	if _, ok := s.values[index]; !ok {
		i, _ := slices.BinarySearch(s.keys, index)
		s.keys = slices.Insert(s.keys, i, index)
	}
	s.values[index] = v
	return true
}

func (s *sparseStorage) remove(index int64) bool {
	if _, ok := s.values[index]; ok {
		delete(s.values, index)
		i, _ := slices.BinarySearch(s.keys, index)
		s.keys = slices.Delete(s.keys, i, i+1)
	}
	return true
}

func (s *sparseStorage) count() int { return len(s.keys) }

func (s *sparseStorage) each(fn func(int64, value.Value)) {
	for _, k := range s.keys {
		fn(k, s.values[k])
	}
}

// widen copies st into the next representation able to hold index.
func widen(st storage, index int64) storage {
	var next storage
	size := max(st.LastIndex(), index) + 1
	if _, ok := st.(*denseStorage); ok && index >= 0 && size <= 4*int64(st.count())+holeyGrowthSlack {
		next = newHoleyStorage(int(size))
	} else {
		next = newSparseStorage()
	}
	st.each(func(i int64, v value.Value) { next.set(i, v) })
	return next
}
