package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/schemaforge/schemaforge/internal/cli/config"
)

var newInteractive bool

func init() {
	newCmd.Flags().BoolVarP(&newInteractive, "interactive", "i", false, "Prompt for schema options")
}

var newCmd = &cobra.Command{
	Use:   "new [name]",
	Short: "Scaffold a new schema document",
	Long: `Create a starter schema document in the schema directory.

Examples:
  schemaforge new Widget
  schemaforge new --interactive`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		var name string
		if len(args) > 0 {
			name = args[0]
		} else if newInteractive {
			prompt := &survey.Input{
				Message: "Entity name (singular, CamelCase):",
			}
			if err := survey.AskOne(prompt, &name, survey.WithValidator(survey.Required)); err != nil {
				return err
			}
		} else {
			return fmt.Errorf("entity name required\n\nUsage: schemaforge new <name>")
		}

		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("entity name cannot be empty")
		}

		table := strings.ToLower(name) + "s"
		timestamps := true
		softDelete := false

		if newInteractive {
			if err := survey.AskOne(&survey.Input{
				Message: "Table name:",
				Default: table,
			}, &table); err != nil {
				return err
			}
			if err := survey.AskOne(&survey.Confirm{
				Message: "Add created_at/updated_at timestamps?",
				Default: true,
			}, &timestamps); err != nil {
				return err
			}
			if err := survey.AskOne(&survey.Confirm{
				Message: "Enable soft delete?",
				Default: false,
			}, &softDelete); err != nil {
				return err
			}
		}

		path := filepath.Join(cfg.Schema.Dir, strings.ToLower(name)+".yaml")
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("schema document %s already exists", path)
		}
		if err := os.MkdirAll(cfg.Schema.Dir, 0755); err != nil {
			return fmt.Errorf("failed to create schema directory: %w", err)
		}

		content := fmt.Sprintf(`name: %s
table: %s
fields:
  id:
    type: uuid
    primary: true
  title:
    type: string
    required: true
    nullable: false
    max_length: 255
relations: []
soft_delete: %t
timestamps: %t
`, name, table, softDelete, timestamps)

		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		color.New(color.FgGreen, color.Bold).Printf("Created %s\n", path)
		color.New(color.FgCyan).Println("Edit the field list, then run: schemaforge generate")
		return nil
	},
}
