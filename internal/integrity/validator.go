package integrity

import (
	"fmt"

	"github.com/Rana718/plantdata/internal/catalog"
	"github.com/Rana718/plantdata/internal/dataset"
	"github.com/Rana718/plantdata/internal/registry"
)

type ViolationKind string

const (
	NullRequired ViolationKind = "null_required"
	InvalidValue ViolationKind = "invalid_value"
)

// Violation is one referential-integrity problem found in a dataset.
type Violation struct {
	Kind       ViolationKind
	Database   string
	Table      string
	Index      int
	Column     string
	Value      string
	References registry.EntityType
}

func (v Violation) String() string {
	if v.Kind == NullRequired {
		return fmt.Sprintf("%s.%s[%d].%s is NULL (required FK)", v.Database, v.Table, v.Index, v.Column)
	}
	return fmt.Sprintf("%s.%s[%d].%s=%s is invalid (not in registered %s_id values)",
		v.Database, v.Table, v.Index, v.Column, v.Value, v.References)
}

// Validator checks foreign-key columns against a finalized registry. It
// only reports; it never changes the data it is given.
type Validator struct {
	rules    *catalog.Catalog
	snapshot *registry.Snapshot
}

func NewValidator(rules *catalog.Catalog, snapshot *registry.Snapshot) *Validator {
	return &Validator{rules: rules, snapshot: snapshot}
}

// ValidateFK reports whether value is acceptable for the column. Columns
// without a rule are always accepted; a null value on a ruled column never is.
func (v *Validator) ValidateFK(db, table, column string, value any) bool {
	rule, ok := v.rules.Rule(db, table, column)
	if !ok {
		return true
	}
	if value == nil {
		return false
	}
	return v.snapshot.Contains(rule.References, dataset.ValueString(value))
}

// ValidateDataset scans every ruled table present in data and returns the
// violations in table, row and column order.
func (v *Validator) ValidateDataset(db string, data dataset.Dataset) []Violation {
	var violations []Violation
	for _, table := range data.Tables() {
		rules := v.rules.Rules(db, table)
		if len(rules) == 0 {
			continue
		}
		for i, rec := range data[table] {
			for _, r := range rules {
				if rec.IsNull(r.Column) {
					if r.Required {
						violations = append(violations, Violation{
							Kind:       NullRequired,
							Database:   db,
							Table:      table,
							Index:      i,
							Column:     r.Column,
							References: r.References,
						})
					}
					continue
				}
				value := dataset.ValueString(rec[r.Column])
				if !v.snapshot.Contains(r.References, value) {
					violations = append(violations, Violation{
						Kind:       InvalidValue,
						Database:   db,
						Table:      table,
						Index:      i,
						Column:     r.Column,
						Value:      value,
						References: r.References,
					})
				}
			}
		}
	}
	return violations
}

// Messages renders violations as report lines.
func Messages(violations []Violation) []string {
	out := make([]string, len(violations))
	for i, v := range violations {
		out[i] = v.String()
	}
	return out
}
