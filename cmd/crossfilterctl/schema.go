package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/ettle/strcase"
	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-crossfilter/components/crossfilter"
)

type schemaCmd struct {
	List     schemaListCmd     `cmd:"" help:"List registered report and metric tables."`
	Show     schemaShowCmd     `cmd:"" help:"Print the columns of a table."`
	Validate schemaValidateCmd `cmd:"" help:"Validate a schema manifest."`
	Export   schemaExportCmd   `cmd:"" help:"Write every registered table as a manifest."`
	Scaffold schemaScaffoldCmd `cmd:"" help:"Add or replace a table in a schema manifest."`
}

type schemaListCmd struct{}

func (cmd *schemaListCmd) Run(_ context.Context, g *Globals) error {
	registry, err := g.registry()
	if err != nil {
		return err
	}
	out := g.out()
	fmt.Fprintln(out, "Reports:")
	for _, id := range registry.Reports() {
		fmt.Fprintf(out, "  %s\n", id)
	}
	fmt.Fprintln(out, "Metrics:")
	for _, id := range registry.Metrics() {
		fmt.Fprintf(out, "  %s\n", id)
	}
	return nil
}

type schemaShowCmd struct {
	ID     string `arg:"" help:"Report or metric id."`
	Metric bool   `help:"Resolve the id as a metric table."`
	YAML   bool   `name:"yaml" help:"Print the table as a manifest fragment."`
}

func (cmd *schemaShowCmd) Run(_ context.Context, g *Globals) error {
	registry, err := g.registry()
	if err != nil {
		return err
	}
	cols, ok := registry.Lookup(cmd.ID, !cmd.Metric)
	if !ok {
		return fmt.Errorf("crossfilterctl: unknown %s %q", kindLabel(!cmd.Metric), cmd.ID)
	}
	if cmd.YAML {
		enc := yaml.NewEncoder(g.out())
		enc.SetIndent(2)
		defer enc.Close()
		return enc.Encode(crossfilter.ManifestSchema{ID: cmd.ID, Columns: cols})
	}
	tw := tabwriter.NewWriter(g.out(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tLABEL\tTYPE\tFLAGS")
	for _, col := range cols {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", col.ID, col.Label, col.DataType, columnFlags(col))
	}
	return tw.Flush()
}

type schemaValidateCmd struct {
	Path string `arg:"" type:"existingfile" help:"Manifest to validate."`
}

func (cmd *schemaValidateCmd) Run(_ context.Context, g *Globals) error {
	doc, err := crossfilter.ReadManifest(cmd.Path)
	if err != nil {
		return err
	}
	fmt.Fprintf(g.out(), "✓ %s: %d reports, %d metrics\n", cmd.Path, len(doc.Reports), len(doc.Metrics))
	return nil
}

type schemaExportCmd struct {
	Name string `help:"Manifest name."`
	Out  string `type:"path" help:"Output file (stdout when empty)."`
}

func (cmd *schemaExportCmd) Run(_ context.Context, g *Globals) error {
	registry, err := g.registry()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := registry.EncodeManifest(&buf, cmd.Name); err != nil {
		return err
	}
	return g.emit(cmd.Out, buf.Bytes())
}

type schemaScaffoldCmd struct {
	ManifestPath string   `name:"manifest-path" required:"" type:"path" help:"Manifest YAML file to update."`
	ID           string   `required:"" help:"Table id (e.g. seat-expansion)."`
	Description  string   `help:"One-line description recorded in the manifest."`
	Metric       bool     `help:"Add the table to metrics instead of reports."`
	Column       []string `required:"" help:"Column spec id:type[:currency,trend,number,positive] (repeatable)."`
	Overwrite    bool     `help:"Replace an existing table with the same id."`
}

func (cmd *schemaScaffoldCmd) Run(_ context.Context, g *Globals) error {
	cols, err := parseColumnSpecs(cmd.Column)
	if err != nil {
		return err
	}
	path, err := filepath.Abs(cmd.ManifestPath)
	if err != nil {
		return fmt.Errorf("crossfilterctl: resolve manifest path: %w", err)
	}
	doc, err := loadOrInitManifest(path)
	if err != nil {
		return err
	}

	tables := &doc.Reports
	if cmd.Metric {
		tables = &doc.Metrics
	}
	entry := crossfilter.ManifestSchema{ID: cmd.ID, Description: cmd.Description, Columns: cols}
	replaced := false
	for i := range *tables {
		if (*tables)[i].ID != cmd.ID {
			continue
		}
		if !cmd.Overwrite {
			return fmt.Errorf("crossfilterctl: manifest already defines %s %s (use --overwrite to replace)", kindLabel(!cmd.Metric), cmd.ID)
		}
		(*tables)[i] = entry
		replaced = true
		break
	}
	if !replaced {
		*tables = append(*tables, entry)
	}
	sort.Slice(*tables, func(i, j int) bool { return (*tables)[i].ID < (*tables)[j].ID })

	if err := doc.Validate(); err != nil {
		return err
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("crossfilterctl: encode manifest: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("crossfilterctl: mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := g.emit(path, buf.Bytes()); err != nil {
		return fmt.Errorf("crossfilterctl: write manifest: %w", err)
	}
	fmt.Fprintf(g.out(), "✓ Added %s %s to %s\n", kindLabel(!cmd.Metric), cmd.ID, path)
	return nil
}

func loadOrInitManifest(path string) (*crossfilter.SchemaManifestDocument, error) {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &crossfilter.SchemaManifestDocument{Version: crossfilter.ManifestVersion, Source: path}, nil
		}
		return nil, fmt.Errorf("crossfilterctl: stat manifest: %w", err)
	}
	return crossfilter.ReadManifest(path)
}

// parseColumnSpecs turns "mrr:number:currency" into column definitions.
func parseColumnSpecs(specs []string) ([]crossfilter.ColumnDefinition, error) {
	cols := make([]crossfilter.ColumnDefinition, 0, len(specs))
	for _, spec := range specs {
		parts := strings.Split(spec, ":")
		if len(parts) < 2 || strings.TrimSpace(parts[0]) == "" {
			return nil, fmt.Errorf("crossfilterctl: column spec %q must be id:type[:flags]", spec)
		}
		col := crossfilter.ColumnDefinition{
			ID:       strcase.ToSnake(strings.TrimSpace(parts[0])),
			DataType: crossfilter.DataType(strings.ToLower(strings.TrimSpace(parts[1]))),
		}
		if !col.DataType.Valid() {
			return nil, fmt.Errorf("crossfilterctl: column %s has unknown type %q", col.ID, parts[1])
		}
		col.Label = crossfilter.LabelFromID(col.ID)
		if len(parts) > 2 {
			for _, flag := range strings.Split(parts[2], ",") {
				switch strings.TrimSpace(flag) {
				case "currency":
					col.IsCurrency = true
				case "trend":
					col.IsTrend = true
				case "number":
					col.IsNumber = true
				case "positive":
					col.IsPositive = true
				case "":
				default:
					return nil, fmt.Errorf("crossfilterctl: column %s has unknown flag %q", col.ID, flag)
				}
			}
		}
		cols = append(cols, col)
	}
	return cols, nil
}

func columnFlags(col crossfilter.ColumnDefinition) string {
	var flags []string
	if col.IsCurrency {
		flags = append(flags, "currency")
	}
	if col.IsTrend {
		flags = append(flags, "trend")
	}
	if col.IsNumber {
		flags = append(flags, "number")
	}
	if col.IsPositive {
		flags = append(flags, "positive")
	}
	if len(flags) == 0 {
		return "-"
	}
	return strings.Join(flags, ",")
}

func kindLabel(isReport bool) string {
	if isReport {
		return "report"
	}
	return "metric"
}
