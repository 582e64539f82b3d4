package seeder

import (
	"fmt"
	"math/rand"
	"path/filepath"
	"sort"
	"time"

	"github.com/Rana718/plantdata/internal/catalog"
	"github.com/Rana718/plantdata/internal/dataset"
	"github.com/Rana718/plantdata/internal/registry"
	"github.com/fatih/color"
)

const defaultCount = 10

// Generator produces sample data for every table in the catalog. Tables are
// generated level by level: each level draws its foreign keys from the
// snapshot finalized after the previous level, and issues its own
// identifiers through a builder extended from that snapshot.
type Generator struct {
	catalog *catalog.Catalog
	config  GenerateConfig
	rand    *rand.Rand
	faker   *DataGenerator
}

// Output holds the generated records per database and the final registry.
type Output struct {
	Databases map[string]dataset.Dataset
	Snapshot  *registry.Snapshot
}

func NewGenerator(c *catalog.Catalog, cfg GenerateConfig) *Generator {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(seed))
	return &Generator{
		catalog: c,
		config:  cfg,
		rand:    r,
		faker:   NewDataGenerator(r),
	}
}

func (g *Generator) Generate() (*Output, error) {
	graph := FromCatalog(g.catalog, false)
	levels, err := graph.Levels()
	if err != nil {
		return nil, fmt.Errorf("failed to order tables: %w", err)
	}

	out := &Output{Databases: make(map[string]dataset.Dataset)}
	for _, db := range g.catalog.DatabaseNames() {
		out.Databases[db] = dataset.Dataset{}
	}

	snap := registry.NewBuilder(g.catalog.Formats(), registry.WithRand(g.rand), registry.Quiet()).Finalize()
	for i, level := range levels {
		builder := snap.Extend()
		for _, name := range level {
			node, _ := graph.Table(name)
			records, err := g.generateTable(node.Ref, snap, builder)
			if err != nil {
				return nil, fmt.Errorf("level %d: %w", i, err)
			}
			out.Databases[node.Ref.Database][node.Ref.Table] = records
			color.Cyan("  📝 Generated %s (%d records)", name, len(records))
		}
		snap = builder.Finalize()
	}

	out.Snapshot = snap
	return out, nil
}

func (g *Generator) count(ref catalog.TableRef) int {
	if n, ok := g.config.Tables[ref.String()]; ok {
		return n
	}
	if n, ok := g.config.Tables[ref.Table]; ok {
		return n
	}
	if g.config.Count > 0 {
		return g.config.Count
	}
	return defaultCount
}

func (g *Generator) generateTable(ref catalog.TableRef, snap *registry.Snapshot, builder *registry.Builder) ([]dataset.Record, error) {
	table, _ := g.catalog.Table(ref.Database, ref.Table)
	rules := g.catalog.Rules(ref.Database, ref.Table)
	columns := sortedColumns(table.Columns)
	count := g.count(ref)

	records := make([]dataset.Record, 0, count)
	for i := 0; i < count; i++ {
		rec := make(dataset.Record, len(columns)+len(rules)+1)

		if table.Entity != "" {
			id, err := builder.GenerateID(table.Entity)
			if err != nil {
				return nil, fmt.Errorf("failed to issue %s identifier: %w", table.Entity, err)
			}
			rec[g.catalog.IDColumn(table.Entity)] = id
		}

		for _, col := range columns {
			rec[col] = g.faker.GenerateForColumn(col, table.Columns[col])
		}

		for _, rule := range rules {
			// Leave roughly one in five optional references empty.
			if !rule.Required && g.rand.Intn(10) < 2 {
				rec[rule.Column] = nil
				continue
			}
			id, ok, err := snap.Random(rule.References)
			if err != nil {
				return nil, err
			}
			if !ok {
				if rule.Required {
					return nil, fmt.Errorf("%w: %s.%s needs a %s", registry.ErrNoFallbackAvailable, ref, rule.Column, rule.References)
				}
				rec[rule.Column] = nil
				continue
			}
			rec[rule.Column] = id
		}

		records = append(records, rec)
	}
	return records, nil
}

func sortedColumns(columns map[string]string) []string {
	names := make([]string, 0, len(columns))
	for name := range columns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteFiles writes master tables into masterFile and everything else into
// one <db>_data.json file per database. It returns the paths written.
func WriteFiles(dir, masterFile string, c *catalog.Catalog, data map[string]dataset.Dataset) ([]string, error) {
	master := dataset.Dataset{}
	modules := make(map[string]dataset.Dataset)

	for _, db := range c.DatabaseNames() {
		for table, records := range data[db] {
			if t, ok := c.Table(db, table); ok && t.Master {
				master[table] = records
				continue
			}
			if modules[db] == nil {
				modules[db] = dataset.Dataset{}
			}
			modules[db][table] = records
		}
	}

	var written []string
	path := filepath.Join(dir, masterFile)
	if err := dataset.WriteFile(path, master); err != nil {
		return written, err
	}
	written = append(written, path)

	for _, db := range c.DatabaseNames() {
		if len(modules[db]) == 0 {
			continue
		}
		path := filepath.Join(dir, dataset.ModuleFile(db))
		if err := dataset.WriteFile(path, modules[db]); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
