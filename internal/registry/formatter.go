package registry

import (
	"fmt"
	"sort"
)

// DefaultWidth is the zero-padded numeric width used when a format leaves it unset.
const DefaultWidth = 6

// EntityType names a domain concept with its own identifier namespace.
type EntityType string

// Format describes how identifiers of one entity type are rendered.
type Format struct {
	Prefix   string
	Width    int
	IDColumn string // defaults to "<type>_id"
}

// Column returns the record column holding identifiers of t.
func (f Format) Column(t EntityType) string {
	if f.IDColumn != "" {
		return f.IDColumn
	}
	return string(t) + "_id"
}

// Formatter issues sequential identifiers per entity type. Counters start at
// zero and live as long as the formatter.
type Formatter struct {
	formats  map[EntityType]Format
	counters map[EntityType]int
}

func NewFormatter(formats map[EntityType]Format) *Formatter {
	f := &Formatter{
		formats:  make(map[EntityType]Format, len(formats)),
		counters: make(map[EntityType]int, len(formats)),
	}
	for t, format := range formats {
		if format.Width <= 0 {
			format.Width = DefaultWidth
		}
		f.formats[t] = format
	}
	return f
}

// GenerateID increments the counter of t and returns the formatted identifier.
// A counter larger than the width allows yields a longer identifier.
func (f *Formatter) GenerateID(t EntityType) (string, error) {
	format, ok := f.formats[t]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
	}
	f.counters[t]++
	return fmt.Sprintf("%s-%0*d", format.Prefix, format.Width, f.counters[t]), nil
}

func (f *Formatter) Format(t EntityType) (Format, error) {
	format, ok := f.formats[t]
	if !ok {
		return Format{}, fmt.Errorf("%w: %q", ErrUnknownEntityType, t)
	}
	return format, nil
}

func (f *Formatter) Known(t EntityType) bool {
	_, ok := f.formats[t]
	return ok
}

// Counter returns how many identifiers have been issued for t.
func (f *Formatter) Counter(t EntityType) int {
	return f.counters[t]
}

// Types returns every configured entity type, sorted.
func (f *Formatter) Types() []EntityType {
	types := make([]EntityType, 0, len(f.formats))
	for t := range f.formats {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

func (f *Formatter) reset() {
	f.counters = make(map[EntityType]int, len(f.formats))
}
