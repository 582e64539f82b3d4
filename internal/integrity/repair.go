package integrity

import (
	"errors"
	"fmt"

	"github.com/Rana718/plantdata/internal/catalog"
	"github.com/Rana718/plantdata/internal/dataset"
	"github.com/Rana718/plantdata/internal/registry"
)

var (
	// ErrMissingRequiredFK is returned by the strict policy for a null required reference.
	ErrMissingRequiredFK = errors.New("required foreign key is NULL")
	ErrNilRecord         = errors.New("record is null")
)

// Policy decides what happens to a null required foreign key.
type Policy string

const (
	// PolicyRandom fills the column with a random registered identifier.
	PolicyRandom Policy = "random"
	// PolicyStrict rejects the record instead of inventing a relationship.
	PolicyStrict Policy = "strict"
)

func ParsePolicy(s string) (Policy, error) {
	switch Policy(s) {
	case PolicyRandom, "":
		return PolicyRandom, nil
	case PolicyStrict:
		return PolicyStrict, nil
	default:
		return "", fmt.Errorf("unknown repair policy %q (use random or strict)", s)
	}
}

// Repairer fills null required foreign keys before records are loaded.
type Repairer struct {
	rules    *catalog.Catalog
	snapshot *registry.Snapshot
	policy   Policy
}

func NewRepairer(rules *catalog.Catalog, snapshot *registry.Snapshot, policy Policy) *Repairer {
	if policy == "" {
		policy = PolicyRandom
	}
	return &Repairer{rules: rules, snapshot: snapshot, policy: policy}
}

// EnsureNoNullFK fills every required ruled column of record that is null or
// absent and returns the same record. Optional columns and columns without
// a rule are left alone.
func (r *Repairer) EnsureNoNullFK(record dataset.Record, db, table string) (dataset.Record, error) {
	if record == nil {
		return nil, fmt.Errorf("%w: %s.%s", ErrNilRecord, db, table)
	}
	for _, rule := range r.rules.Rules(db, table) {
		if !rule.Required || !record.IsNull(rule.Column) {
			continue
		}
		if r.policy == PolicyStrict {
			return record, fmt.Errorf("%w: %s.%s.%s", ErrMissingRequiredFK, db, table, rule.Column)
		}

		id, ok, err := r.snapshot.Random(rule.References)
		if err != nil {
			return record, fmt.Errorf("failed to repair %s.%s.%s: %w", db, table, rule.Column, err)
		}
		if !ok {
			return record, fmt.Errorf("%w: %s.%s.%s needs a %s", registry.ErrNoFallbackAvailable,
				db, table, rule.Column, rule.References)
		}
		record[rule.Column] = id
	}
	return record, nil
}

// RepairDataset runs EnsureNoNullFK over every record and returns how many
// records changed. It stops at the first record that cannot be repaired.
func (r *Repairer) RepairDataset(db string, data dataset.Dataset) (int, error) {
	repaired := 0
	for _, table := range data.Tables() {
		rules := r.rules.Rules(db, table)
		if len(rules) == 0 {
			continue
		}
		for i, rec := range data[table] {
			before := nullRequired(rules, rec)
			if _, err := r.EnsureNoNullFK(rec, db, table); err != nil {
				return repaired, fmt.Errorf("%s.%s[%d]: %w", db, table, i, err)
			}
			if before > 0 {
				repaired++
			}
		}
	}
	return repaired, nil
}

func nullRequired(rules []catalog.ColumnRule, rec dataset.Record) int {
	n := 0
	for _, rule := range rules {
		if rule.Required && rec.IsNull(rule.Column) {
			n++
		}
	}
	return n
}
