package seeder

import (
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"
)

type DataGenerator struct {
	rand    *rand.Rand
	counter int
	now     time.Time
}

func NewDataGenerator(r *rand.Rand) *DataGenerator {
	return &DataGenerator{
		rand: r,
		now:  time.Now().UTC().Truncate(time.Hour),
	}
}

// GenerateForColumn produces a JSON-friendly value from the column name first
// and the type hint second.
func (g *DataGenerator) GenerateForColumn(colName, colType string) interface{} {
	if values, ok := enumValues(colType); ok {
		return values[g.rand.Intn(len(values))]
	}

	// Check column name first for context-aware generation
	colLower := strings.ToLower(colName)

	if strings.Contains(colLower, "email") {
		return g.generateEmail()
	}
	if colLower == "name" {
		return g.generateName()
	}
	if strings.Contains(colLower, "description") || strings.Contains(colLower, "content") {
		return g.generateSentence()
	}
	if strings.Contains(colLower, "phone") {
		return g.generatePhone()
	}
	if strings.Contains(colLower, "address") {
		return g.generateAddress()
	}
	if strings.Contains(colLower, "tracking") {
		return g.generateCode("TRK", 10)
	}
	if strings.Contains(colLower, "location") {
		return fmt.Sprintf("%c%02d-%02d", 'A'+rune(g.rand.Intn(6)), g.rand.Intn(40)+1, g.rand.Intn(10)+1)
	}
	if colLower == "model" {
		return g.generateCode("M", 4)
	}

	// Fall back to type-based generation
	return g.Generate(colType)
}

func (g *DataGenerator) Generate(colType string) interface{} {
	typeUpper := strings.ToUpper(colType)

	// Extract base type (e.g., VARCHAR(255) -> VARCHAR)
	if idx := strings.Index(typeUpper, "("); idx > 0 {
		typeUpper = typeUpper[:idx]
	}

	switch {
	case strings.Contains(typeUpper, "INT") || strings.Contains(typeUpper, "SERIAL"):
		return g.rand.Intn(1000) + 1
	case strings.Contains(typeUpper, "BOOL"):
		return g.rand.Intn(2) == 1
	case strings.Contains(typeUpper, "TIMESTAMP") || strings.Contains(typeUpper, "DATETIME"):
		return g.generateTimestamp().Format(time.RFC3339)
	case strings.Contains(typeUpper, "DATE"):
		return g.generateDate()
	case strings.Contains(typeUpper, "DECIMAL") || strings.Contains(typeUpper, "NUMERIC") || strings.Contains(typeUpper, "FLOAT") || strings.Contains(typeUpper, "DOUBLE"):
		return math.Round(g.rand.Float64()*1000000) / 100
	case strings.Contains(typeUpper, "UUID"):
		return g.generateUUID()
	case strings.Contains(typeUpper, "JSON"):
		return `{"generated": true}`
	default:
		return g.generateWord()
	}
}

// enumValues parses an ENUM(a,b,c) hint.
func enumValues(colType string) ([]string, bool) {
	upper := strings.ToUpper(colType)
	if !strings.HasPrefix(upper, "ENUM(") || !strings.HasSuffix(colType, ")") {
		return nil, false
	}
	inner := colType[len("ENUM(") : len(colType)-1]
	var values []string
	for _, v := range strings.Split(inner, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values, len(values) > 0
}

func (g *DataGenerator) generateName() string {
	firstNames := []string{"John", "Jane", "Alice", "Bob", "Charlie", "Diana", "Eve", "Frank", "Grace", "Henry"}
	lastNames := []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis", "Rodriguez", "Martinez"}
	return firstNames[g.rand.Intn(len(firstNames))] + " " + lastNames[g.rand.Intn(len(lastNames))]
}

func (g *DataGenerator) generateEmail() string {
	g.counter++
	domains := []string{"example.com", "test.com", "demo.com", "mail.com"}
	return fmt.Sprintf("user%d_%d@%s", g.counter, g.rand.Intn(100000), domains[g.rand.Intn(len(domains))])
}

func (g *DataGenerator) generateSentence() string {
	sentences := []string{
		"Scheduled inspection of spindle and coolant system.",
		"Operator reported abnormal vibration during the second shift.",
		"Replaced worn bearing and recalibrated the axis.",
		"Standard component used across several assemblies.",
		"Batch released after final quality sign-off.",
	}
	return sentences[g.rand.Intn(len(sentences))]
}

func (g *DataGenerator) generateWord() string {
	words := []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta"}
	return words[g.rand.Intn(len(words))]
}

func (g *DataGenerator) generateCode(prefix string, digits int) string {
	return fmt.Sprintf("%s%0*d", prefix, digits, g.rand.Intn(int(math.Pow10(digits))))
}

func (g *DataGenerator) generatePhone() string {
	return fmt.Sprintf("+1-%03d-%03d-%04d", g.rand.Intn(1000), g.rand.Intn(1000), g.rand.Intn(10000))
}

func (g *DataGenerator) generateAddress() string {
	return fmt.Sprintf("%d Main Street, City, State %05d", g.rand.Intn(9999)+1, g.rand.Intn(100000))
}

func (g *DataGenerator) generateTimestamp() time.Time {
	hours := g.rand.Intn(365 * 24)
	return g.now.Add(-time.Duration(hours) * time.Hour)
}

func (g *DataGenerator) generateDate() string {
	return g.generateTimestamp().Format("2006-01-02")
}

func (g *DataGenerator) generateUUID() string {
	return fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		g.rand.Uint32(),
		g.rand.Uint32()&0xffff,
		g.rand.Uint32()&0xffff,
		g.rand.Uint32()&0xffff,
		g.rand.Uint64()&0xffffffffffff,
	)
}
