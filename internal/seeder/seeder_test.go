package seeder

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/Rana718/plantdata/internal/catalog"
	"github.com/Rana718/plantdata/internal/dataset"
	"github.com/Rana718/plantdata/internal/integrity"
)

func defaultCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Default()
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	return c
}

func indexOf(list []string, name string) int {
	for i, v := range list {
		if v == name {
			return i
		}
	}
	return -1
}

func TestInsertionOrderRespectsDependencies(t *testing.T) {
	g := NewDependencyGraph()
	g.AddTable(&TableNode{Ref: catalog.TableRef{Database: "m", Table: "machines"}, Dependencies: []string{"m.lines"}})
	g.AddTable(&TableNode{Ref: catalog.TableRef{Database: "m", Table: "lines"}, Dependencies: []string{"m.factories"}})
	g.AddTable(&TableNode{Ref: catalog.TableRef{Database: "m", Table: "factories"}})

	order, err := g.BuildInsertionOrder()
	if err != nil {
		t.Fatalf("BuildInsertionOrder failed: %v", err)
	}
	want := "m.factories,m.lines,m.machines"
	if strings.Join(order, ",") != want {
		t.Errorf("Expected %s, got %v", want, order)
	}
}

func TestCircularDependency(t *testing.T) {
	g := NewDependencyGraph()
	g.AddTable(&TableNode{Ref: catalog.TableRef{Database: "x", Table: "a"}, Dependencies: []string{"x.b"}})
	g.AddTable(&TableNode{Ref: catalog.TableRef{Database: "x", Table: "b"}, Dependencies: []string{"x.a"}})

	if _, err := g.BuildInsertionOrder(); err == nil || !strings.Contains(err.Error(), "circular dependency") {
		t.Errorf("Expected circular dependency error, got %v", err)
	}
}

func TestLevelsFromCatalog(t *testing.T) {
	g := FromCatalog(defaultCatalog(t), false)
	levels, err := g.Levels()
	if err != nil {
		t.Fatalf("Levels failed: %v", err)
	}

	levelOf := make(map[string]int)
	for i, level := range levels {
		for _, name := range level {
			levelOf[name] = i
		}
	}

	if levelOf["manufacturing.factories"] != 0 {
		t.Errorf("Expected factories at level 0, got %d", levelOf["manufacturing.factories"])
	}
	for name, lvl := range levelOf {
		node, _ := g.Table(name)
		for _, dep := range node.Dependencies {
			if levelOf[dep] >= lvl {
				t.Errorf("%s (level %d) depends on %s (level %d)", name, lvl, dep, levelOf[dep])
			}
		}
	}
}

func TestOrderForSingleDatabase(t *testing.T) {
	g := FromCatalog(defaultCatalog(t), true)
	order, err := g.OrderFor("hr")
	if err != nil {
		t.Fatalf("OrderFor failed: %v", err)
	}
	if len(order) != 3 {
		t.Fatalf("Expected 3 hr tables, got %v", order)
	}
	if indexOf(order, "shifts") > indexOf(order, "employees") || indexOf(order, "employees") > indexOf(order, "attendance") {
		t.Errorf("Unexpected hr order %v", order)
	}
}

func TestGenerateProducesValidData(t *testing.T) {
	c := defaultCatalog(t)
	gen := NewGenerator(c, GenerateConfig{Count: 8, Seed: 11, Tables: map[string]int{"sensor_readings": 25}})

	out, err := gen.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if n := len(out.Databases["manufacturing"]["sensor_readings"]); n != 25 {
		t.Errorf("Expected 25 sensor readings, got %d", n)
	}
	if n := len(out.Databases["erp"]["products"]); n != 8 {
		t.Errorf("Expected 8 products, got %d", n)
	}
	if n := out.Snapshot.Count("factory"); n != 8 {
		t.Errorf("Expected 8 registered factories, got %d", n)
	}

	v := integrity.NewValidator(c, out.Snapshot)
	for db, data := range out.Databases {
		if violations := v.ValidateDataset(db, data); len(violations) != 0 {
			t.Errorf("Expected generated %s data to be valid, got %v", db, integrity.Messages(violations))
		}
	}

	first := out.Databases["manufacturing"]["factories"][0]["factory_id"]
	if first != "FAC-000001" {
		t.Errorf("Expected first factory FAC-000001, got %v", first)
	}
}

func TestGenerateIsReproducible(t *testing.T) {
	c := defaultCatalog(t)
	a, err := NewGenerator(c, GenerateConfig{Count: 3, Seed: 5}).Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	b, err := NewGenerator(c, GenerateConfig{Count: 3, Seed: 5}).Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	ra := a.Databases["erp"]["sales_orders"]
	rb := b.Databases["erp"]["sales_orders"]
	for i := range ra {
		if ra[i]["customer_id"] != rb[i]["customer_id"] || ra[i]["product_id"] != rb[i]["product_id"] {
			t.Fatalf("Expected identical references for the same seed at row %d", i)
		}
	}
}

func TestWriteFilesSplitsMasterData(t *testing.T) {
	c := defaultCatalog(t)
	out, err := NewGenerator(c, GenerateConfig{Count: 2, Seed: 3}).Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	dir := t.TempDir()
	paths, err := WriteFiles(dir, "master_data.json", c, out.Databases)
	if err != nil {
		t.Fatalf("WriteFiles failed: %v", err)
	}
	if len(paths) != 1+len(c.DatabaseNames()) {
		t.Errorf("Expected master plus one file per database, got %v", paths)
	}

	master, err := dataset.ReadFile(paths[0])
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	for _, key := range c.MasterKeys() {
		if _, ok := master[key]; !ok {
			t.Errorf("Expected master key %s", key)
		}
	}
	if _, ok := master["sales_orders"]; ok {
		t.Error("sales_orders must not be in master data")
	}

	loaded, err := dataset.LoadDir(dir, "master_data.json", c.DatabaseNames(), c)
	if err != nil {
		t.Fatalf("LoadDir failed: %v", err)
	}
	if got, want := loaded["manufacturing"].Count(), out.Databases["manufacturing"].Count(); got != want {
		t.Errorf("Expected %d manufacturing records after reload, got %d", want, got)
	}
}

func TestEnumHint(t *testing.T) {
	g := NewDataGenerator(rand.New(rand.NewSource(1)))
	for i := 0; i < 20; i++ {
		v := g.GenerateForColumn("status", "ENUM(open,closed)")
		if v != "open" && v != "closed" {
			t.Fatalf("Unexpected enum value %v", v)
		}
	}
}
