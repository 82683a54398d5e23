package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/schemaforge/schemaforge/internal/cli/config"
	"github.com/schemaforge/schemaforge/internal/codegen"
	"github.com/schemaforge/schemaforge/internal/schema"
)

var (
	generateSchemaDir string
	generateOutputDir string
	generateModule    string
	generateVerbose   bool
)

func init() {
	generateCmd.Flags().StringVar(&generateSchemaDir, "schema-dir", "", "Schema directory (overrides config)")
	generateCmd.Flags().StringVar(&generateOutputDir, "output", "", "Output directory (overrides config)")
	generateCmd.Flags().StringVar(&generateModule, "module", "", "Module path of the generated project (overrides config)")
	generateCmd.Flags().BoolVar(&generateVerbose, "verbose", false, "Show per-file generation output")
}

var generateCmd = &cobra.Command{
	Use:     "generate",
	Aliases: []string{"g"},
	Short:   "Compile schema documents to Go models and CRUD handlers",
	Long: `Parse every schema document in the schema directory, validate the
full set, and write the generated models and API handlers to the output
directory.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadGenerateConfig()
		if err != nil {
			return err
		}

		start := time.Now()
		n, err := runGeneration(cfg)
		if err != nil {
			return err
		}

		successColor := color.New(color.FgGreen, color.Bold)
		successColor.Printf("Generated %d file(s) in %s (%s)\n",
			n, cfg.Output.Dir, time.Since(start).Round(time.Millisecond))
		return nil
	},
}

// loadGenerateConfig loads schemaforge.yml and applies flag overrides.
func loadGenerateConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if generateSchemaDir != "" {
		cfg.Schema.Dir = generateSchemaDir
	}
	if generateOutputDir != "" {
		cfg.Output.Dir = generateOutputDir
	}
	if generateModule != "" {
		cfg.ModuleName = generateModule
	}
	return cfg, nil
}

// runGeneration executes the full pipeline: parse, validate, generate,
// write. It returns the number of files written. Any failure aborts the
// whole run before a single file is written.
func runGeneration(cfg *config.Config) (int, error) {
	parser := schema.NewParser(cfg.Schema.Dir)
	schemas, err := parser.ParseAll()
	if err != nil {
		return 0, err
	}
	if len(schemas) == 0 {
		return 0, fmt.Errorf("no schema documents found in %s", cfg.Schema.Dir)
	}

	if err := schema.NewValidator().ValidateAll(schemas); err != nil {
		return 0, err
	}

	files, err := codegen.GenerateProject(schemas, cfg.ModuleName)
	if err != nil {
		return 0, err
	}

	paths := make([]string, 0, len(files))
	for path := range files {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	infoColor := color.New(color.FgCyan)
	for _, rel := range paths {
		dst := filepath.Join(cfg.Output.Dir, rel)
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return 0, fmt.Errorf("failed to create directory %s: %w", filepath.Dir(dst), err)
		}
		if err := os.WriteFile(dst, []byte(files[rel]), 0644); err != nil {
			return 0, fmt.Errorf("failed to write %s: %w", dst, err)
		}
		if generateVerbose {
			infoColor.Printf("  wrote %s\n", dst)
		}
	}

	return len(files), nil
}
