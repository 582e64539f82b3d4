package catalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Failed to parse built-in catalog: %v", err)
	}

	expectedDBs := []string{"erp", "hr", "maintenance", "manufacturing", "wms"}
	if got := c.DatabaseNames(); strings.Join(got, ",") != strings.Join(expectedDBs, ",") {
		t.Errorf("Expected databases %v, got %v", expectedDBs, got)
	}

	if len(c.Entities) != 17 {
		t.Errorf("Expected 17 entity types, got %d", len(c.Entities))
	}

	rule, ok := c.Rule("manufacturing", "production_lines", "factory_id")
	if !ok {
		t.Fatal("Expected a rule for production_lines.factory_id")
	}
	if rule.References != "factory" || !rule.Required {
		t.Errorf("Unexpected rule %+v", rule)
	}

	if _, ok := c.Rule("manufacturing", "production_lines", "name"); ok {
		t.Error("Expected no rule for a plain column")
	}
}

func TestDefaultMasterKeys(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Failed to parse built-in catalog: %v", err)
	}

	routes := map[string]string{
		"factories":        "manufacturing",
		"production_lines": "manufacturing",
		"machines":         "manufacturing",
		"sensors":          "manufacturing",
		"employees":        "hr",
		"shifts":           "hr",
		"products":         "erp",
		"customers":        "erp",
	}
	for key, want := range routes {
		got, ok := c.MasterDatabase(key)
		if !ok || got != want {
			t.Errorf("MasterDatabase(%s) = %q, %v; want %q", key, got, ok, want)
		}
	}

	if _, ok := c.MasterDatabase("sales_orders"); ok {
		t.Error("sales_orders must not be a master key")
	}
}

func TestFormatsAndIdentity(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Failed to parse built-in catalog: %v", err)
	}

	formats := c.Formats()
	if formats["factory"].Prefix != "FAC" {
		t.Errorf("Expected FAC prefix, got %q", formats["factory"].Prefix)
	}

	ref, ok := c.Identity("employee")
	if !ok || ref.String() != "hr.employees" {
		t.Errorf("Expected hr.employees to own employee, got %v", ref)
	}
	if col := c.IDColumn("work_order"); col != "work_order_id" {
		t.Errorf("Expected work_order_id, got %s", col)
	}
}

func TestRulesSorted(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Failed to parse built-in catalog: %v", err)
	}

	rules := c.Rules("maintenance", "service_requests")
	var cols []string
	for _, r := range rules {
		cols = append(cols, r.Column)
	}
	want := "machine_id,maintenance_event_id,requested_by"
	if strings.Join(cols, ",") != want {
		t.Errorf("Expected %s, got %v", want, cols)
	}
}

func TestDependencies(t *testing.T) {
	c, err := Default()
	if err != nil {
		t.Fatalf("Failed to parse built-in catalog: %v", err)
	}

	deps := c.Dependencies("manufacturing", "machines")
	var names []string
	for _, d := range deps {
		names = append(names, d.String())
	}
	want := "manufacturing.factories,manufacturing.production_lines"
	if strings.Join(names, ",") != want {
		t.Errorf("Expected %s, got %v", want, names)
	}
}

func TestParseRejectsUnknownReference(t *testing.T) {
	_, err := Parse([]byte(`
entities:
  factory: { prefix: FAC }
databases:
  manufacturing:
    tables:
      factories:
        entity: factory
      production_lines:
        foreign_keys:
          factory_id: { references: plant, required: true }
`))
	if err == nil || !strings.Contains(err.Error(), "unknown entity type plant") {
		t.Errorf("Expected unknown entity type error, got %v", err)
	}
}

func TestParseRejectsMissingIdentity(t *testing.T) {
	_, err := Parse([]byte(`
entities:
  factory: { prefix: FAC }
  supplier: { prefix: SUP }
databases:
  manufacturing:
    tables:
      factories:
        entity: factory
`))
	if err == nil || !strings.Contains(err.Error(), "supplier has no identity table") {
		t.Errorf("Expected missing identity error, got %v", err)
	}
}

func TestParseRejectsBadTableName(t *testing.T) {
	_, err := Parse([]byte(`
entities:
  factory: { prefix: FAC }
databases:
  manufacturing:
    tables:
      "factories; drop":
        entity: factory
`))
	if err == nil {
		t.Error("Expected invalid table name to be rejected")
	}
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
entities:
  factory: { prefix: PLANT, width: 3 }
databases:
  plants:
    tables:
      plants:
        entity: factory
        master: true
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Formats()["factory"].Width != 3 {
		t.Errorf("Expected width 3, got %d", c.Formats()["factory"].Width)
	}
	if db, ok := c.MasterDatabase("plants"); !ok || db != "plants" {
		t.Errorf("Expected plants master key, got %q %v", db, ok)
	}
}
