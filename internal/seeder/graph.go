package seeder

import (
	"fmt"
	"sort"

	"github.com/Rana718/plantdata/internal/catalog"
)

type DependencyGraph struct {
	tables map[string]*TableNode
}

func NewDependencyGraph() *DependencyGraph {
	return &DependencyGraph{
		tables: make(map[string]*TableNode),
	}
}

// FromCatalog builds the graph of every table in the catalog. When
// sameDatabase is set, references to another database are dropped, which
// is what per-database insertion needs.
func FromCatalog(c *catalog.Catalog, sameDatabase bool) *DependencyGraph {
	g := NewDependencyGraph()
	for _, db := range c.DatabaseNames() {
		for _, table := range c.Tables(db) {
			node := &TableNode{Ref: catalog.TableRef{Database: db, Table: table}}
			for _, dep := range c.Dependencies(db, table) {
				if sameDatabase && dep.Database != db {
					continue
				}
				node.Dependencies = append(node.Dependencies, dep.String())
			}
			g.AddTable(node)
		}
	}
	return g
}

func (g *DependencyGraph) AddTable(table *TableNode) {
	g.tables[table.Name()] = table
}

func (g *DependencyGraph) Table(name string) (*TableNode, bool) {
	t, ok := g.tables[name]
	return t, ok
}

func (g *DependencyGraph) BuildInsertionOrder() ([]string, error) {
	visited := make(map[string]bool)
	temp := make(map[string]bool)
	var order []string

	var visit func(string) error
	visit = func(tableName string) error {
		if temp[tableName] {
			return fmt.Errorf("circular dependency detected involving table: %s", tableName)
		}
		if visited[tableName] {
			return nil
		}

		temp[tableName] = true
		table := g.tables[tableName]

		if table != nil {
			for _, dep := range table.Dependencies {
				if dep != tableName { // Skip self-references
					if err := visit(dep); err != nil {
						return err
					}
				}
			}
		}

		temp[tableName] = false
		visited[tableName] = true
		order = append(order, tableName)
		return nil
	}

	for _, tableName := range g.names() {
		if !visited[tableName] {
			if err := visit(tableName); err != nil {
				return nil, err
			}
		}
	}

	return order, nil
}

// Levels groups tables so that every table only depends on tables in
// earlier levels.
func (g *DependencyGraph) Levels() ([][]string, error) {
	order, err := g.BuildInsertionOrder()
	if err != nil {
		return nil, err
	}

	depth := make(map[string]int, len(order))
	maxDepth := 0
	for _, name := range order {
		d := 0
		if table := g.tables[name]; table != nil {
			for _, dep := range table.Dependencies {
				if dep == name {
					continue
				}
				if _, known := g.tables[dep]; !known {
					continue
				}
				if depth[dep]+1 > d {
					d = depth[dep] + 1
				}
			}
		}
		depth[name] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	levels := make([][]string, maxDepth+1)
	for _, name := range order {
		levels[depth[name]] = append(levels[depth[name]], name)
	}
	for _, level := range levels {
		sort.Strings(level)
	}
	return levels, nil
}

// OrderFor returns the insertion order restricted to one database, as bare table names.
func (g *DependencyGraph) OrderFor(db string) ([]string, error) {
	order, err := g.BuildInsertionOrder()
	if err != nil {
		return nil, err
	}
	var tables []string
	for _, name := range order {
		if node := g.tables[name]; node != nil && node.Ref.Database == db {
			tables = append(tables, node.Ref.Table)
		}
	}
	return tables, nil
}

func (g *DependencyGraph) names() []string {
	names := make([]string, 0, len(g.tables))
	for name := range g.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
