package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lastforge/lastforge/pkg/derive"
	"github.com/lastforge/lastforge/pkg/export"
	"github.com/lastforge/lastforge/pkg/identity"
	"github.com/lastforge/lastforge/pkg/lineage"
	"github.com/lastforge/lastforge/pkg/spec"
	"github.com/lastforge/lastforge/pkg/store"
)

// specFile is the YAML layout of a design spec input file.
type specFile struct {
	Instrumental    map[string]any `yaml:"instrumental"`
	NonInstrumental map[string]any `yaml:"non_instrumental"`
}

func loadSpecFile(path string) (*specFile, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read spec file: %w", err)
	}
	var f specFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse spec file: %w", err)
	}
	if f.Instrumental == nil {
		return nil, fmt.Errorf("spec file %s has no instrumental section", path)
	}
	return &f, nil
}

func loadSchemas(path string) (spec.Schema, spec.NonInstrumentalSchema, error) {
	if path == "" {
		return spec.DefaultSchema(), spec.DefaultNonInstrumentalSchema(), nil
	}
	return spec.LoadSchemaFile(path)
}

func newValidateCmd() *cobra.Command {
	var specPath, schemaPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate a spec file against the constraint schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := loadSpecFile(specPath)
			if err != nil {
				return err
			}
			schema, cosmetic, err := loadSchemas(schemaPath)
			if err != nil {
				return err
			}

			report := spec.Validate(f.Instrumental, f.NonInstrumental, schema, cosmetic)
			for _, issue := range report.InstrumentalIssues {
				fmt.Fprintln(cmd.OutOrStdout(), "issue:", issue.String())
			}
			for _, path := range report.MissingNonInstrumental {
				fmt.Fprintln(cmd.OutOrStdout(), "missing (advisory):", path)
			}
			fmt.Fprintln(cmd.OutOrStdout(), report.Summary)
			if report.IsBlocking {
				return errors.New("spec is blocking")
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "spec YAML file (required)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "constraint schema override YAML")
	cmd.MarkFlagRequired("spec")
	return cmd
}

func newGenerateCmd() *cobra.Command {
	var specPath, schemaPath, dbPath, outDir, project, parentOf string
	var buildVersion string

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Create a generation from a spec file and derive its geometry",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f, err := loadSpecFile(specPath)
			if err != nil {
				return err
			}
			schema, cosmetic, err := loadSchemas(schemaPath)
			if err != nil {
				return err
			}

			db, err := store.Open(dbPath)
			if err != nil {
				return err
			}
			defer db.Close()

			gen := &lineage.Generation{
				ProjectID: project,
				Origin:    lineage.OriginGenerate,
			}
			if parentOf != "" {
				gen.ParentIDs = []lineage.GenerationID{lineage.GenerationID(parentOf)}
				gen.Origin = lineage.OriginRegenerate
			}
			if err := db.AddGeneration(ctx, gen); err != nil {
				return err
			}
			if err := db.AddSnapshot(ctx, &store.SpecSnapshot{
				GenerationID:    gen.ID,
				Instrumental:    f.Instrumental,
				NonInstrumental: f.NonInstrumental,
			}); err != nil {
				return err
			}

			exporter, err := export.NewFileExporter(outDir)
			if err != nil {
				return err
			}
			svc := derive.NewService(db, exporter, derive.WithSchemas(schema, cosmetic))

			asset, err := svc.EnsureGeometry(ctx, gen.ID, derive.WithBuildVersion(buildVersion))
			if err != nil {
				var blocked *derive.ValidationBlockedError
				if errors.As(err, &blocked) {
					for _, issue := range blocked.Report.InstrumentalIssues {
						fmt.Fprintln(cmd.ErrOrStderr(), "issue:", issue.String())
					}
				}
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), "generation:", gen.ID)
			fmt.Fprintln(cmd.OutOrStdout(), "digest:", asset.Digest)
			fmt.Fprintln(cmd.OutOrStdout(), "mesh:", asset.MeshURI)
			fmt.Fprintln(cmd.OutOrStdout(), "anchors:", asset.AnchorsURI)
			fmt.Fprintf(cmd.OutOrStdout(), "bounds: min=%v max=%v\n", asset.Bounds.Min, asset.Bounds.Max)
			return nil
		},
	}
	cmd.Flags().StringVar(&specPath, "spec", "", "spec YAML file (required)")
	cmd.Flags().StringVar(&schemaPath, "schema", "", "constraint schema override YAML")
	cmd.Flags().StringVar(&dbPath, "db", "lastforge.db", "SQLite store path")
	cmd.Flags().StringVar(&outDir, "out", "artifacts", "artifact output directory")
	cmd.Flags().StringVar(&project, "project", "default", "project identifier")
	cmd.Flags().StringVar(&parentOf, "parent", "", "derive from an existing generation ID")
	cmd.Flags().StringVar(&buildVersion, "build-version", identity.BuildVersion, "geometry algorithm version tag")
	cmd.MarkFlagRequired("spec")
	return cmd
}
