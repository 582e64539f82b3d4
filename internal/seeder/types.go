package seeder

import "github.com/Rana718/plantdata/internal/catalog"

type GenerateConfig struct {
	Count  int            // Default records per table
	Tables map[string]int // Per-table counts, keyed by table or db.table
	Seed   int64          // Random seed, 0 means time based
}

// TableNode is one vertex of the dependency graph.
type TableNode struct {
	Ref          catalog.TableRef
	Dependencies []string
}

func (n *TableNode) Name() string {
	return n.Ref.String()
}
