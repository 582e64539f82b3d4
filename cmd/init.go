package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Rana718/plantdata/internal/catalog"
	"github.com/Rana718/plantdata/template"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

const configFileName = "plantdata.config.json"

var (
	sqliteFlag     bool
	postgresqlFlag bool
	mysqlFlag      bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new plantdata project",
	Long: `Initialize a plantdata project: config file, .env, the data directory
and one schema directory per module database with CREATE TABLE statements
derived from the catalog.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dbType := template.PostgreSQL
		flagCount := 0

		if sqliteFlag {
			dbType = template.SQLite
			flagCount++
		}
		if postgresqlFlag {
			dbType = template.PostgreSQL
			flagCount++
		}
		if mysqlFlag {
			dbType = template.MySQL
			flagCount++
		}

		if flagCount > 1 {
			return fmt.Errorf("please specify only one database type (--sqlite, --postgresql, or --mysql)")
		}

		c, err := catalog.Default()
		if err != nil {
			return err
		}
		force, _ := cmd.Flags().GetBool("force")
		return initializeProject(dbType, c, force)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().BoolVar(&sqliteFlag, "sqlite", false, "Initialize project for SQLite databases")
	initCmd.Flags().BoolVar(&postgresqlFlag, "postgresql", false, "Initialize project for PostgreSQL databases")
	initCmd.Flags().BoolVar(&mysqlFlag, "mysql", false, "Initialize project for MySQL databases")
}

func initializeProject(dbType template.DatabaseType, c *catalog.Catalog, force bool) error {
	if _, err := os.Stat(configFileName); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", configFileName)
	}

	tmpl := template.NewProjectTemplate(dbType)

	directories := tmpl.GetDirectoryStructure(c)
	for _, dir := range directories {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	files := map[string]string{
		configFileName: tmpl.GetConfig(),
	}

	var skipped []string
	for _, db := range c.DatabaseNames() {
		dir := filepath.Join("db", "schema", db)
		if hasSQLFiles(dir) {
			skipped = append(skipped, dir)
			continue
		}
		schema, err := tmpl.GetSchema(c, db)
		if err != nil {
			return fmt.Errorf("failed to render schema for %s: %w", db, err)
		}
		files[filepath.Join(dir, "001_schema.sql")] = schema
	}

	for filePath, content := range files {
		if err := os.WriteFile(filePath, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to create file %s: %w", filePath, err)
		}
	}

	if err := handleEnvFile(tmpl.GetEnvTemplate()); err != nil {
		return fmt.Errorf("failed to handle .env file: %w", err)
	}

	color.Green("✅ Initialized plantdata project with %s databases", dbType)
	fmt.Println()
	fmt.Println("📁 Project structure created:")
	for _, dir := range directories {
		fmt.Printf("   %s/\n", dir)
	}
	fmt.Println()
	fmt.Println("📝 Configuration file created:")
	fmt.Printf("   %s\n", configFileName)

	if os.Getenv("DATABASE_URL") != "" {
		fmt.Println()
		fmt.Println("ℹ️  Using existing DATABASE_URL from environment")
	}
	for _, dir := range skipped {
		fmt.Printf("ℹ️  Skipped %s (already has .sql files)\n", dir)
	}

	fmt.Println()
	fmt.Printf("🚀 Next steps:\n")
	fmt.Printf("   plantdata provision   # Create the module databases\n")
	fmt.Printf("   plantdata deploy      # Apply the schema files\n")
	fmt.Printf("   plantdata generate    # Generate sample data\n")
	fmt.Printf("   plantdata load        # Validate and load it\n")

	return nil
}

func hasSQLFiles(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".sql") {
			return true
		}
	}
	return false
}

func handleEnvFile(defaultEnvContent string) error {
	envPath := ".env"

	existingContent, err := os.ReadFile(envPath)
	if err != nil {
		if os.IsNotExist(err) {
			return os.WriteFile(envPath, []byte(defaultEnvContent), 0644)
		}
		return err
	}

	existingStr := string(existingContent)
	if strings.Contains(existingStr, "DATABASE_URL") {
		return nil
	}

	// Append DATABASE_URL to existing .env
	if len(existingStr) > 0 && !strings.HasSuffix(existingStr, "\n") {
		existingStr += "\n"
	}

	existingStr += "\n# Added by plantdata\n" + defaultEnvContent

	return os.WriteFile(envPath, []byte(existingStr), 0644)
}
