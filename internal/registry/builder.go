package registry

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/Rana718/plantdata/internal/dataset"
	"github.com/fatih/color"
)

type idSet map[string]struct{}

func (s idSet) clone() idSet {
	out := make(idSet, len(s))
	for id := range s {
		out[id] = struct{}{}
	}
	return out
}

// Option configures a Builder.
type Option func(*Builder)

// WithRand sets the random source used by snapshots for fallback picks.
func WithRand(r *rand.Rand) Option {
	return func(b *Builder) { b.rand = r }
}

// Quiet disables the finalize summary.
func Quiet() Option {
	return func(b *Builder) { b.quiet = true }
}

// Builder is the mutable phase of the registry. Identifiers are added with
// Register or GenerateID; Finalize freezes it and returns the read-only
// Snapshot that validation and repair work against. It is not safe for
// concurrent use.
type Builder struct {
	formatter *Formatter
	ids       map[EntityType]idSet
	rand      *rand.Rand
	quiet     bool
	snapshot  *Snapshot
}

func NewBuilder(formats map[EntityType]Format, opts ...Option) *Builder {
	b := &Builder{
		formatter: NewFormatter(formats),
		ids:       make(map[EntityType]idSet),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.rand == nil {
		b.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return b
}

// Formatter exposes the identifier formatter shared by this builder.
func (b *Builder) Formatter() *Formatter {
	return b.formatter
}

// Finalized reports whether Finalize has been called.
func (b *Builder) Finalized() bool {
	return b.snapshot != nil
}

// Register adds the identifier column of every record to the set of t.
// If any record lacks an identifier nothing from the batch is registered.
func (b *Builder) Register(t EntityType, records []dataset.Record) error {
	format, err := b.formatter.Format(t)
	if err != nil {
		return err
	}
	if b.Finalized() {
		return fmt.Errorf("%w: cannot register %s", ErrFinalized, t)
	}

	col := format.Column(t)
	values := make([]string, 0, len(records))
	for i, rec := range records {
		v := dataset.ValueString(rec[col])
		if rec.IsNull(col) || v == "" {
			return fmt.Errorf("%w: %s record %d has no %s", ErrMissingIdentifier, t, i, col)
		}
		values = append(values, v)
	}

	set := b.set(t)
	for _, v := range values {
		set[v] = struct{}{}
	}
	return nil
}

// GenerateID issues a new identifier for t and registers it. Values already
// registered, for example loaded through Register, are skipped.
func (b *Builder) GenerateID(t EntityType) (string, error) {
	if b.Finalized() {
		return "", fmt.Errorf("%w: cannot issue %s identifiers", ErrFinalized, t)
	}
	set := b.set(t)
	for {
		id, err := b.formatter.GenerateID(t)
		if err != nil {
			return "", err
		}
		if _, taken := set[id]; taken {
			continue
		}
		set[id] = struct{}{}
		return id, nil
	}
}

// Registered returns a copy of the identifiers registered for t.
func (b *Builder) Registered(t EntityType) (map[string]struct{}, error) {
	if !b.formatter.Known(t) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
	}
	return b.ids[t].clone(), nil
}

// Count returns how many identifiers are registered for t.
func (b *Builder) Count(t EntityType) int {
	return len(b.ids[t])
}

// Finalize freezes the builder and returns its snapshot. Calling it again
// returns the same snapshot.
func (b *Builder) Finalize() *Snapshot {
	if b.snapshot != nil {
		return b.snapshot
	}
	b.snapshot = newSnapshot(b.formatter, b.ids, b.rand, b.quiet)
	if !b.quiet {
		b.snapshot.printSummary()
	}
	return b.snapshot
}

// Reset returns the builder to the empty state and clears the counters.
func (b *Builder) Reset() {
	b.ids = make(map[EntityType]idSet)
	b.snapshot = nil
	b.formatter.reset()
}

func (b *Builder) set(t EntityType) idSet {
	set, ok := b.ids[t]
	if !ok {
		set = make(idSet)
		b.ids[t] = set
	}
	return set
}

func (s *Snapshot) printSummary() {
	color.Cyan("📇 Registry finalized: %d identifiers across %d entity types", s.Total(), len(s.ids))
	for _, t := range s.formatter.Types() {
		if n := s.Count(t); n > 0 {
			color.White("   %-20s %d", t, n)
		}
	}
}
