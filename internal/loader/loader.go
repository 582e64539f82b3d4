package loader

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/Rana718/plantdata/internal/catalog"
	"github.com/Rana718/plantdata/internal/config"
	"github.com/Rana718/plantdata/internal/database"
	"github.com/Rana718/plantdata/internal/dataset"
	"github.com/Rana718/plantdata/internal/integrity"
	"github.com/Rana718/plantdata/internal/registry"
	"github.com/Rana718/plantdata/internal/seeder"
	"github.com/fatih/color"
	"github.com/google/uuid"
)

// ErrViolations is returned when violations remain and the load is
// configured to stop on them.
var ErrViolations = errors.New("referential integrity violations found")

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Connector opens an adapter connected to one module database.
type Connector func(ctx context.Context, db string) (database.DatabaseAdapter, error)

type Options struct {
	DataDir          string
	MasterFile       string
	Policy           integrity.Policy
	FailOnViolations bool
	Insert           database.InsertOptions
	Databases        []string // empty means every catalog database
	Seed             int64    // fixes the repair picks, 0 means time based
}

// OptionsFromConfig maps the load section of the config file.
func OptionsFromConfig(cfg *config.Config) (Options, error) {
	policy, err := integrity.ParsePolicy(cfg.Load.Repair)
	if err != nil {
		return Options{}, err
	}
	return Options{
		DataDir:          cfg.DataDir,
		MasterFile:       cfg.MasterFile,
		Policy:           policy,
		FailOnViolations: cfg.Load.FailOnViolations,
		Insert: database.InsertOptions{
			Batch:         cfg.Load.Batch,
			Truncate:      cfg.Load.Truncate,
			NoTransaction: cfg.Load.NoTransaction,
			Copy:          cfg.Load.BulkMode == "copy",
		},
	}, nil
}

// ConfigConnector connects with the provider and URL from cfg.
func ConfigConnector(cfg *config.Config) Connector {
	return func(ctx context.Context, db string) (database.DatabaseAdapter, error) {
		url, err := cfg.DatabaseURL(db)
		if err != nil {
			return nil, err
		}
		adapter := database.NewAdapter(cfg.Database.Provider)
		if err := adapter.Connect(ctx, url); err != nil {
			return nil, err
		}
		return adapter, nil
	}
}

type Loader struct {
	catalog *catalog.Catalog
	opts    Options
	connect Connector
}

func New(c *catalog.Catalog, opts Options, connect Connector) *Loader {
	if opts.Policy == "" {
		opts.Policy = integrity.PolicyRandom
	}
	return &Loader{catalog: c, opts: opts, connect: connect}
}

// Prepared is the offline half of a load: data read, registry built,
// records repaired and validated.
type Prepared struct {
	Data       map[string]dataset.Dataset
	Snapshot   *registry.Snapshot
	Repaired   map[string]int
	Violations []integrity.Violation
}

func (p *Prepared) violationsIn(db string) int {
	n := 0
	for _, v := range p.Violations {
		if v.Database == db {
			n++
		}
	}
	return n
}

type DatabaseResult struct {
	Database string
	RunID    string
	Tables   map[string]int64
	Rows     int64
	Err      error
}

type Result struct {
	*Prepared
	Databases []DatabaseResult
}

// Failed returns the databases whose load did not commit.
func (r *Result) Failed() []DatabaseResult {
	var failed []DatabaseResult
	for _, d := range r.Databases {
		if d.Err != nil {
			failed = append(failed, d)
		}
	}
	return failed
}

func (l *Loader) databases() []string {
	if len(l.opts.Databases) > 0 {
		return l.opts.Databases
	}
	return l.catalog.DatabaseNames()
}

// ReadSources reads the master file and the module files from the data dir.
func (l *Loader) ReadSources() (map[string]dataset.Dataset, error) {
	return dataset.LoadDir(l.opts.DataDir, l.opts.MasterFile, l.catalog.DatabaseNames(), l.catalog)
}

// BuildRegistry registers the identifiers of every identity table, walking
// tables in dependency order, and finalizes the registry.
func (l *Loader) BuildRegistry(data map[string]dataset.Dataset) (*registry.Snapshot, error) {
	opts := []registry.Option{}
	if l.opts.Seed != 0 {
		opts = append(opts, registry.WithRand(rand.New(rand.NewSource(l.opts.Seed))))
	}
	builder := registry.NewBuilder(l.catalog.Formats(), opts...)

	graph := seeder.FromCatalog(l.catalog, false)
	order, err := graph.BuildInsertionOrder()
	if err != nil {
		return nil, err
	}

	for _, name := range order {
		node, _ := graph.Table(name)
		table, ok := l.catalog.Table(node.Ref.Database, node.Ref.Table)
		if !ok || table.Entity == "" {
			continue
		}
		records, ok := data[node.Ref.Database][node.Ref.Table]
		if !ok {
			color.Yellow("⚠️  No records for %s, %s identifiers stay empty", name, table.Entity)
			continue
		}
		if err := builder.Register(table.Entity, records); err != nil {
			return nil, fmt.Errorf("failed to register %s: %w", name, err)
		}
	}

	return builder.Finalize(), nil
}

// Prepare runs every step that needs no database connection.
func (l *Loader) Prepare() (*Prepared, error) {
	color.Cyan("📂 Reading data from %s", l.opts.DataDir)
	data, err := l.ReadSources()
	if err != nil {
		return nil, err
	}

	snap, err := l.BuildRegistry(data)
	if err != nil {
		return nil, err
	}

	p := &Prepared{Data: data, Snapshot: snap, Repaired: make(map[string]int)}

	repairer := integrity.NewRepairer(l.catalog, snap, l.opts.Policy)
	for _, db := range l.catalog.DatabaseNames() {
		n, err := repairer.RepairDataset(db, data[db])
		if err != nil {
			return nil, fmt.Errorf("repair %s: %w", db, err)
		}
		if n > 0 {
			p.Repaired[db] = n
			color.Yellow("🔧 Repaired %d records with null required references in %s", n, db)
		}
	}

	validator := integrity.NewValidator(l.catalog, snap)
	for _, db := range l.catalog.DatabaseNames() {
		p.Violations = append(p.Violations, validator.ValidateDataset(db, data[db])...)
	}

	if len(p.Violations) == 0 {
		color.Green("✅ No referential integrity violations")
	} else {
		color.Red("❌ %d referential integrity violations", len(p.Violations))
		for _, msg := range integrity.Messages(p.Violations) {
			color.White("   %s", msg)
		}
	}
	return p, nil
}

// Load prepares the data and inserts it into every selected database. A
// failing database does not stop the others; its error is kept in the
// result.
func (l *Loader) Load(ctx context.Context) (*Result, error) {
	for _, db := range l.databases() {
		if _, ok := l.catalog.Databases[db]; !ok {
			return nil, fmt.Errorf("unknown database: %s", db)
		}
	}

	p, err := l.Prepare()
	if err != nil {
		return nil, err
	}
	if len(p.Violations) > 0 && l.opts.FailOnViolations {
		return &Result{Prepared: p}, fmt.Errorf("%w: %d", ErrViolations, len(p.Violations))
	}

	graph := seeder.FromCatalog(l.catalog, true)
	result := &Result{Prepared: p}

	for _, db := range l.databases() {
		res := l.loadDatabase(ctx, graph, db, p)
		if res.Err != nil {
			color.Red("❌ %s: %v", db, res.Err)
		} else {
			color.Green("✅ %s: %d rows in %d tables", db, res.Rows, len(res.Tables))
		}
		result.Databases = append(result.Databases, res)
	}

	failed := len(result.Failed())
	if failed == 0 {
		color.Green("🎉 Loaded %d databases", len(result.Databases))
	} else {
		color.Yellow("⚠️  %d of %d databases failed to load", failed, len(result.Databases))
	}
	return result, nil
}

func (l *Loader) loadDatabase(ctx context.Context, graph *seeder.DependencyGraph, db string, p *Prepared) DatabaseResult {
	res := DatabaseResult{Database: db, RunID: uuid.NewString()}
	started := time.Now()

	tables, err := l.tableRows(graph, db, p.Data[db])
	if err != nil {
		res.Err = err
		return res
	}

	adapter, err := l.connect(ctx, db)
	if err != nil {
		res.Err = fmt.Errorf("failed to connect: %w", err)
		return res
	}
	defer adapter.Close()

	color.Cyan("📦 Loading %s (run %s)", db, res.RunID)
	counts, err := adapter.InsertTables(ctx, tables, l.opts.Insert)
	if err != nil {
		res.Err = err
	} else {
		res.Tables = counts
		for _, table := range tables {
			res.Rows += counts[table.Table]
			color.White("   %-24s %d", table.Table, counts[table.Table])
		}
	}

	run := database.LoadRun{
		ID:         res.RunID,
		Database:   db,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Tables:     len(res.Tables),
		Rows:       res.Rows,
		Repaired:   p.Repaired[db],
		Violations: p.violationsIn(db),
		Status:     StatusSuccess,
	}
	if res.Err != nil {
		run.Status = StatusFailed
	}
	if err := adapter.EnsureRunsTable(ctx); err != nil {
		color.Yellow("⚠️  Could not create %s in %s: %v", database.RunsTable, db, err)
		return res
	}
	if err := adapter.RecordRun(ctx, run); err != nil {
		color.Yellow("⚠️  Could not record load run in %s: %v", db, err)
	}
	return res
}

// tableRows orders the tables of one database for insertion. Tables the
// catalog does not know go last, in name order.
func (l *Loader) tableRows(graph *seeder.DependencyGraph, db string, data dataset.Dataset) ([]database.TableRows, error) {
	order, err := graph.OrderFor(db)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(order))
	var names []string
	for _, table := range order {
		seen[table] = true
		if _, ok := data[table]; ok {
			names = append(names, table)
		}
	}
	for _, table := range data.Tables() {
		if !seen[table] {
			names = append(names, table)
		}
	}

	tables := make([]database.TableRows, 0, len(names))
	for _, table := range names {
		columns := dataset.Columns(data[table])
		tables = append(tables, database.TableRows{
			Table:   table,
			Columns: columns,
			Rows:    dataset.Rows(data[table], columns),
		})
	}
	return tables, nil
}
