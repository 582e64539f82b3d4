package registry

import (
	"fmt"
	"math/rand"
	"sort"
)

// Snapshot is the finalized, read-only registry. Random draws advance the
// shared random source, so a Snapshot is not safe for concurrent use.
type Snapshot struct {
	formatter *Formatter
	ids       map[EntityType]idSet
	sorted    map[EntityType][]string
	rand      *rand.Rand
	quiet     bool
}

func newSnapshot(f *Formatter, ids map[EntityType]idSet, r *rand.Rand, quiet bool) *Snapshot {
	s := &Snapshot{
		formatter: f,
		ids:       make(map[EntityType]idSet, len(ids)),
		sorted:    make(map[EntityType][]string, len(ids)),
		rand:      r,
		quiet:     quiet,
	}
	for t, set := range ids {
		s.ids[t] = set.clone()
		list := make([]string, 0, len(set))
		for id := range set {
			list = append(list, id)
		}
		sort.Strings(list)
		s.sorted[t] = list
	}
	return s
}

// Contains reports whether id is registered for t.
func (s *Snapshot) Contains(t EntityType, id string) bool {
	_, ok := s.ids[t][id]
	return ok
}

// Registered returns a copy of the identifiers registered for t.
func (s *Snapshot) Registered(t EntityType) (map[string]struct{}, error) {
	if !s.formatter.Known(t) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
	}
	return s.ids[t].clone(), nil
}

// Random returns a uniformly chosen identifier of t. ok is false when
// nothing is registered for t.
func (s *Snapshot) Random(t EntityType) (id string, ok bool, err error) {
	if !s.formatter.Known(t) {
		return "", false, fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
	}
	list := s.sorted[t]
	if len(list) == 0 {
		return "", false, nil
	}
	return list[s.rand.Intn(len(list))], true, nil
}

func (s *Snapshot) Count(t EntityType) int {
	return len(s.ids[t])
}

// Counts returns the number of identifiers per entity type.
func (s *Snapshot) Counts() map[EntityType]int {
	counts := make(map[EntityType]int, len(s.ids))
	for t, set := range s.ids {
		counts[t] = len(set)
	}
	return counts
}

func (s *Snapshot) Total() int {
	total := 0
	for _, set := range s.ids {
		total += len(set)
	}
	return total
}

func (s *Snapshot) Format(t EntityType) (Format, error) {
	return s.formatter.Format(t)
}

func (s *Snapshot) Types() []EntityType {
	return s.formatter.Types()
}

// Extend starts a new builder holding everything in the snapshot. The
// builder shares the formatter, so identifiers it issues continue the
// existing sequences.
func (s *Snapshot) Extend() *Builder {
	b := &Builder{
		formatter: s.formatter,
		ids:       make(map[EntityType]idSet, len(s.ids)),
		rand:      s.rand,
		quiet:     s.quiet,
	}
	for t, set := range s.ids {
		b.ids[t] = set.clone()
	}
	return b
}
