package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/Rana718/plantdata/internal/registry"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var defaultCatalog []byte

var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Catalog is the static description of every database, its tables, the
// entity type each table owns and the foreign-key rules on its columns.
// It is read-only after Parse.
type Catalog struct {
	Entities  map[registry.EntityType]EntitySpec `yaml:"entities"`
	Databases map[string]*Database               `yaml:"databases"`

	identity map[registry.EntityType]TableRef
	masters  map[string]string
}

type EntitySpec struct {
	Prefix   string `yaml:"prefix"`
	Width    int    `yaml:"width"`
	IDColumn string `yaml:"id_column"`
}

type Database struct {
	Tables map[string]*Table `yaml:"tables"`
}

type Table struct {
	Entity      registry.EntityType `yaml:"entity"`
	Master      bool                `yaml:"master"`
	Columns     map[string]string   `yaml:"columns"`
	ForeignKeys map[string]Rule     `yaml:"foreign_keys"`
}

// Rule declares that a column references an identifier of an entity type.
type Rule struct {
	References registry.EntityType `yaml:"references"`
	Required   bool                `yaml:"required"`
}

// ColumnRule pairs a rule with the column it governs.
type ColumnRule struct {
	Column string
	Rule
}

// TableRef names a table inside a database.
type TableRef struct {
	Database string
	Table    string
}

func (r TableRef) String() string {
	return r.Database + "." + r.Table
}

// Default returns the catalog compiled into the binary.
func Default() (*Catalog, error) {
	return Parse(defaultCatalog)
}

// Load reads a catalog file, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Catalog, error) {
	var c Catalog
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := c.index(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Catalog) index() error {
	c.identity = make(map[registry.EntityType]TableRef)
	c.masters = make(map[string]string)

	for _, dbName := range c.DatabaseNames() {
		if !validIdentifier.MatchString(dbName) {
			return fmt.Errorf("invalid database name: %s", dbName)
		}
		db := c.Databases[dbName]
		if db == nil {
			c.Databases[dbName] = &Database{Tables: map[string]*Table{}}
			continue
		}
		for _, tableName := range c.Tables(dbName) {
			if !validIdentifier.MatchString(tableName) {
				return fmt.Errorf("invalid table name: %s.%s", dbName, tableName)
			}
			table := db.Tables[tableName]
			if table == nil {
				table = &Table{}
				db.Tables[tableName] = table
			}
			ref := TableRef{Database: dbName, Table: tableName}

			if table.Entity != "" {
				if _, ok := c.Entities[table.Entity]; !ok {
					return fmt.Errorf("table %s owns unknown entity type %s", ref, table.Entity)
				}
				if prev, dup := c.identity[table.Entity]; dup {
					return fmt.Errorf("entity type %s is owned by both %s and %s", table.Entity, prev, ref)
				}
				c.identity[table.Entity] = ref
			}

			if table.Master {
				if table.Entity == "" {
					return fmt.Errorf("master table %s must own an entity type", ref)
				}
				if prev, dup := c.masters[tableName]; dup {
					return fmt.Errorf("master key %s is used by both %s and %s", tableName, prev, dbName)
				}
				c.masters[tableName] = dbName
			}

			for col, rule := range table.ForeignKeys {
				if !validIdentifier.MatchString(col) {
					return fmt.Errorf("invalid column name: %s.%s", ref, col)
				}
				if _, ok := c.Entities[rule.References]; !ok {
					return fmt.Errorf("%s.%s references unknown entity type %s", ref, col, rule.References)
				}
			}
		}
	}

	for t := range c.Entities {
		if _, ok := c.identity[t]; !ok {
			return fmt.Errorf("entity type %s has no identity table", t)
		}
	}
	return nil
}

// Formats returns the identifier formats for a registry builder.
func (c *Catalog) Formats() map[registry.EntityType]registry.Format {
	formats := make(map[registry.EntityType]registry.Format, len(c.Entities))
	for t, spec := range c.Entities {
		formats[t] = registry.Format{Prefix: spec.Prefix, Width: spec.Width, IDColumn: spec.IDColumn}
	}
	return formats
}

// IDColumn returns the column holding identifiers of t.
func (c *Catalog) IDColumn(t registry.EntityType) string {
	return registry.Format{IDColumn: c.Entities[t].IDColumn}.Column(t)
}

func (c *Catalog) DatabaseNames() []string {
	names := make([]string, 0, len(c.Databases))
	for name := range c.Databases {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Tables returns the table names of a database, sorted.
func (c *Catalog) Tables(db string) []string {
	d := c.Databases[db]
	if d == nil {
		return nil
	}
	names := make([]string, 0, len(d.Tables))
	for name := range d.Tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Catalog) Table(db, table string) (*Table, bool) {
	d := c.Databases[db]
	if d == nil {
		return nil, false
	}
	t, ok := d.Tables[table]
	return t, ok
}

// Rule looks up the foreign-key rule of a column.
func (c *Catalog) Rule(db, table, column string) (Rule, bool) {
	t, ok := c.Table(db, table)
	if !ok {
		return Rule{}, false
	}
	rule, ok := t.ForeignKeys[column]
	return rule, ok
}

// Rules returns the rules of a table ordered by column name.
func (c *Catalog) Rules(db, table string) []ColumnRule {
	t, ok := c.Table(db, table)
	if !ok || len(t.ForeignKeys) == 0 {
		return nil
	}
	rules := make([]ColumnRule, 0, len(t.ForeignKeys))
	for col, rule := range t.ForeignKeys {
		rules = append(rules, ColumnRule{Column: col, Rule: rule})
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Column < rules[j].Column })
	return rules
}

// Identity returns the table that owns identifiers of t.
func (c *Catalog) Identity(t registry.EntityType) (TableRef, bool) {
	ref, ok := c.identity[t]
	return ref, ok
}

// MasterDatabase routes a master-data key to its database.
func (c *Catalog) MasterDatabase(key string) (string, bool) {
	db, ok := c.masters[key]
	return db, ok
}

// MasterKeys returns every master-data key, sorted.
func (c *Catalog) MasterKeys() []string {
	keys := make([]string, 0, len(c.masters))
	for k := range c.masters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Dependencies returns the identity tables a table references, excluding itself.
func (c *Catalog) Dependencies(db, table string) []TableRef {
	self := TableRef{Database: db, Table: table}
	seen := make(map[TableRef]bool)
	var deps []TableRef
	for _, rule := range c.Rules(db, table) {
		ref := c.identity[rule.References]
		if ref == self || seen[ref] {
			continue
		}
		seen[ref] = true
		deps = append(deps, ref)
	}
	return deps
}
