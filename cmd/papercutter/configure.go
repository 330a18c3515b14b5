package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/papercutter/internal/grind"
	"github.com/mesh-intelligence/papercutter/pkg/types"
)

var configureCmd = &cobra.Command{
	Use:   "configure",
	Short: "Manage the extraction schema (show, add, generate)",
	Long: `Configure manages the extraction schema that defines which fields
grind pulls out of each paper. Use subcommands to inspect the schema,
add columns by hand, or have the AI propose one from ingested papers.`,
}

// --- show subcommand ---

var configureShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current extraction schema",
	RunE:  runConfigureShow,
}

func runConfigureShow(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}
	schema, err := types.LoadSchema(p.SchemaPath())
	if err != nil {
		return fmt.Errorf("no schema configured yet: run papercutter configure add or configure generate (%w)", err)
	}

	fmt.Printf("Schema: %s (%d fields)\n\n", schema.Name, len(schema.Fields))
	fmt.Printf("%-20s  %-12s  %-4s  %s\n", "Key", "Type", "Req", "Description")
	fmt.Println(strings.Repeat("-", 80))
	for _, f := range schema.Fields {
		req := ""
		if f.Required {
			req = "yes"
		}
		desc := f.Description
		if len(f.Options) > 0 {
			desc += " [" + strings.Join(f.Options, ", ") + "]"
		}
		fmt.Printf("%-20s  %-12s  %-4s  %s\n", f.Key, f.Type, req, desc)
	}
	return nil
}

// --- add subcommand ---

var configureAddCmd = &cobra.Command{
	Use:   "add [key]",
	Short: "Add a column to the extraction schema",
	Long: `Add appends a field to the schema. A schema is created on first use.
Categorical fields need --options; all fields need --description so the
model knows what to look for.`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigureAdd,
}

func runConfigureAdd(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	schema, err := types.LoadSchema(p.SchemaPath())
	if err != nil {
		schema = types.NewSchema(p.Config.Name)
	}

	fieldType, _ := cmd.Flags().GetString("type")
	description, _ := cmd.Flags().GetString("description")
	required, _ := cmd.Flags().GetBool("required")
	example, _ := cmd.Flags().GetString("example")
	options, _ := cmd.Flags().GetStringSlice("options")

	field := types.SchemaField{
		Key:         args[0],
		Type:        types.FieldType(fieldType),
		Description: description,
		Required:    required,
		Example:     example,
		Options:     options,
	}
	schema.AddField(field)

	if issues := schema.Validate(); len(issues) > 0 {
		return fmt.Errorf("invalid schema:\n  %s", strings.Join(issues, "\n  "))
	}

	if err := types.SaveSchema(schema, p.SchemaPath()); err != nil {
		return err
	}
	fmt.Printf("Added field %q (%s) to schema %s\n", field.Key, field.Type, schema.Name)
	return nil
}

// --- generate subcommand ---

var configureGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate an extraction schema from ingested papers",
	Long: `Generate samples the converted papers and asks the AI model to propose
a schema of 6-10 extraction columns. Use --preset economics to install
the built-in economics literature schema without an API call. An
existing schema is only replaced with --force.`,
	RunE: runConfigureGenerate,
}

func runConfigureGenerate(cmd *cobra.Command, args []string) error {
	p, err := openProject()
	if err != nil {
		return err
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := types.LoadSchema(p.SchemaPath()); err == nil && !force {
		return fmt.Errorf("schema already exists at %s (use --force to replace)", p.SchemaPath())
	}

	var schema *types.Schema
	if preset, _ := cmd.Flags().GetString("preset"); preset != "" {
		if preset != "economics" {
			return fmt.Errorf("unknown preset %q: only economics is built in", preset)
		}
		schema = types.EconomicsSchema()
	} else {
		inv, err := openInventory(p)
		if err != nil {
			return err
		}
		backend, err := aiBackend(p.Config.Grinding)
		if err != nil {
			return err
		}

		name, _ := cmd.Flags().GetString("name")
		if name == "" {
			name = p.Config.Name
		}
		schema, err = grind.GenerateSchema(context.Background(), backend, name,
			inv.ByStatus(types.StatusIngested), p.Config.Grinding)
		if err != nil {
			return err
		}
	}

	if err := types.SaveSchema(schema, p.SchemaPath()); err != nil {
		return err
	}

	fmt.Printf("Wrote schema %q with %d fields to %s\n\n", schema.Name, len(schema.Fields), p.SchemaPath())
	for _, f := range schema.Fields {
		fmt.Printf("  %-20s  %s\n", f.Key, f.Description)
	}
	fmt.Println("\nReview and edit the schema before running papercutter grind.")
	return nil
}

func init() {
	configureAddCmd.Flags().String("type", "text", "field type: text, integer, float, boolean, categorical, list")
	configureAddCmd.Flags().String("description", "", "what the model should extract for this field")
	configureAddCmd.Flags().Bool("required", false, "mark the field as required")
	configureAddCmd.Flags().String("example", "", "sample value to guide extraction")
	configureAddCmd.Flags().StringSlice("options", nil, "allowed values for categorical fields")

	configureGenerateCmd.Flags().Bool("force", false, "replace an existing schema")
	configureGenerateCmd.Flags().String("name", "", "schema name (default: project name)")
	configureGenerateCmd.Flags().String("preset", "", "use a built-in schema instead of the AI: economics")

	configureCmd.AddCommand(configureShowCmd)
	configureCmd.AddCommand(configureAddCmd)
	configureCmd.AddCommand(configureGenerateCmd)

	rootCmd.AddCommand(configureCmd)
}
