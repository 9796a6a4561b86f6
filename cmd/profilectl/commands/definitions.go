package commands

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/TimurManjosov/goprofiles/internal/cli"
	"github.com/TimurManjosov/goprofiles/internal/client"
	"github.com/TimurManjosov/goprofiles/internal/providers"
	"github.com/TimurManjosov/goprofiles/internal/store"
	"github.com/TimurManjosov/goprofiles/internal/validation"
)

// ExportFormat is the file layout read by apply and written by export.
type ExportFormat struct {
	Version     string             `yaml:"version" json:"version"`
	ExportedAt  time.Time          `yaml:"exported_at" json:"exported_at"`
	Definitions []store.Definition `yaml:"definitions" json:"definitions"`
}

var (
	applyFile   string
	applyDryRun bool
	applyForce  bool
	exportOut   string
)

var definitionsCmd = &cobra.Command{
	Use:     "definitions",
	Aliases: []string{"defs"},
	Short:   "Manage declarative profile definitions",
}

var definitionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List definitions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		defs, err := c.ListDefinitions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list definitions: %w", err)
		}
		if quiet {
			return nil
		}
		if len(defs) == 0 && f == cli.FormatTable {
			fmt.Println("No definitions found")
			return nil
		}
		return cli.PrintDefinitions(os.Stdout, defs, f)
	},
}

var definitionsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show a definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := outputFormat()
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		def, err := c.GetDefinition(ctx, args[0])
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("definition '%s' not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to get definition: %w", err)
		}
		return cli.PrintDefinition(os.Stdout, def, f)
	},
}

var definitionsApplyCmd = &cobra.Command{
	Use:   "apply -f <file>",
	Short: "Create or replace definitions from a file",
	Long: `Create or replace definitions from a YAML or JSON file. The file holds
either a single definition or a "definitions" list as written by export.

Examples:
  profilectl definitions apply -f acme.yaml
  profilectl definitions apply -f definitions.yaml --dry-run
  profilectl definitions apply -f definitions.yaml --force`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		defs, err := readDefinitions(applyFile)
		if err != nil {
			return err
		}
		if verbose {
			fmt.Printf("Found %d definition(s) to apply\n", len(defs))
		}

		if applyDryRun {
			invalid := 0
			for _, def := range defs {
				result := validation.ValidateDefinition(def, providers.BuiltinIDs()...)
				if result.Valid {
					fmt.Printf("  ok      %s (%s)\n", def.ID, def.Tier)
					continue
				}
				invalid++
				fmt.Printf("  invalid %s\n", def.ID)
				for _, field := range sortedFields(result.Errors) {
					fmt.Printf("          %s: %s\n", field, result.Errors[field])
				}
			}
			if invalid > 0 {
				return fmt.Errorf("%d definition(s) failed validation", invalid)
			}
			return nil
		}

		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		succeeded, failed := 0, 0
		for _, def := range defs {
			res, err := c.ApplyDefinition(ctx, def)
			if err != nil {
				failed++
				fmt.Fprintf(os.Stderr, "Failed to apply definition '%s': %v\n", def.ID, err)
				if !applyForce {
					return fmt.Errorf("apply failed, use --force to continue on errors")
				}
				continue
			}
			succeeded++
			if !quiet {
				verb := "updated"
				if res.Created {
					verb = "created"
				}
				fmt.Printf("Definition '%s' %s (etag %s)\n", def.ID, verb, res.ETag)
			}
		}

		if !quiet && len(defs) > 1 {
			fmt.Printf("Apply complete: %d succeeded, %d failed\n", succeeded, failed)
		}
		if failed > 0 {
			return fmt.Errorf("apply completed with errors")
		}
		return nil
	},
}

var definitionsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a definition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		etag, err := c.DeleteDefinition(ctx, args[0])
		if errors.Is(err, client.ErrNotFound) {
			return fmt.Errorf("definition '%s' not found", args[0])
		}
		if err != nil {
			return fmt.Errorf("failed to delete definition: %w", err)
		}
		if !quiet {
			fmt.Printf("Definition '%s' deleted (etag %s)\n", args[0], etag)
		}
		return nil
	},
}

var definitionsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export all definitions to YAML",
	Long: `Export all definitions in the format read by apply.

Examples:
  profilectl definitions export
  profilectl definitions export -o definitions.yaml`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := requestContext(cmd)
		defer cancel()

		defs, err := c.ListDefinitions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list definitions: %w", err)
		}

		data, err := yaml.Marshal(ExportFormat{
			Version:     "v1",
			ExportedAt:  time.Now().UTC(),
			Definitions: defs,
		})
		if err != nil {
			return fmt.Errorf("failed to marshal definitions: %w", err)
		}

		if exportOut == "" {
			_, err := os.Stdout.Write(data)
			return err
		}
		if err := os.WriteFile(exportOut, data, 0o644); err != nil {
			return fmt.Errorf("failed to write file: %w", err)
		}
		if !quiet {
			fmt.Printf("Exported %d definition(s) to %s\n", len(defs), exportOut)
		}
		return nil
	},
}

// readDefinitions parses a file holding one definition or an export. YAML is
// a superset of JSON so both are accepted.
func readDefinitions(path string) ([]store.Definition, error) {
	if path == "" {
		return nil, fmt.Errorf("a file is required (-f)")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var export ExportFormat
	if err := yaml.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	if len(export.Definitions) > 0 {
		return export.Definitions, nil
	}

	var def store.Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}
	if def.ID == "" {
		return nil, fmt.Errorf("no definitions found in file")
	}
	return []store.Definition{def}, nil
}

func sortedFields(m map[string]string) []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}

func init() {
	rootCmd.AddCommand(definitionsCmd)
	definitionsCmd.AddCommand(definitionsListCmd, definitionsGetCmd, definitionsApplyCmd, definitionsDeleteCmd, definitionsExportCmd)

	definitionsApplyCmd.Flags().StringVarP(&applyFile, "file", "f", "", "Definition file (YAML or JSON)")
	definitionsApplyCmd.Flags().BoolVar(&applyDryRun, "dry-run", false, "Validate locally without applying")
	definitionsApplyCmd.Flags().BoolVar(&applyForce, "force", false, "Continue on errors")
	definitionsExportCmd.Flags().StringVarP(&exportOut, "output", "o", "", "Output file (defaults to stdout)")
}
