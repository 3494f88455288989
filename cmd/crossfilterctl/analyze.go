package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/goliatone/go-crossfilter/components/crossfilter"
	"github.com/goliatone/go-crossfilter/pkg/dataset"
)

type analyzeCmd struct {
	Schema string   `required:"" help:"Report or metric id."`
	Metric bool     `help:"Resolve --schema as a metric table."`
	Rows   string   `required:"" type:"existingfile" help:"JSON or JSONC file holding an array of row objects."`
	Filter []string `short:"f" help:"Filter as column=value (repeatable, OR within a column)."`
	Format string   `enum:"text,json,html" default:"text" help:"Output format (text, json, html)."`
	Out    string   `type:"path" help:"Output file, written atomically (stdout when empty)."`
	Title  string   `help:"Page title for html output."`
}

func (cmd *analyzeCmd) Run(ctx context.Context, g *Globals) error {
	registry, err := g.registry()
	if err != nil {
		return err
	}
	log, err := g.logger()
	if err != nil {
		return err
	}
	data, err := os.ReadFile(cmd.Rows)
	if err != nil {
		return fmt.Errorf("crossfilterctl: read rows: %w", err)
	}
	records, err := dataset.DecodeRows(data)
	if err != nil {
		return err
	}
	filters, err := parseFilters(cmd.Filter)
	if err != nil {
		return err
	}

	service := crossfilter.NewService(crossfilter.Options{Schemas: registry, Logger: log})
	snap, err := service.OpenSession(ctx, crossfilter.OpenSessionRequest{
		SchemaID: cmd.Schema,
		IsReport: !cmd.Metric,
		Rows:     crossfilter.RowsFromMaps(records),
		Filters:  filters,
	})
	if err != nil {
		return err
	}
	defer service.CloseSession(ctx, snap.SessionID)

	var buf bytes.Buffer
	switch cmd.Format {
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("crossfilterctl: encode snapshot: %w", err)
		}
	case "html":
		coord, err := service.Session(snap.SessionID)
		if err != nil {
			return err
		}
		page, err := crossfilter.NewReportPage()
		if err != nil {
			return err
		}
		title := cmd.Title
		if title == "" {
			title = crossfilter.LabelFromID(cmd.Schema)
		}
		if err := page.Render(&buf, title, coord); err != nil {
			return err
		}
	default:
		if err := writeText(&buf, snap); err != nil {
			return err
		}
	}
	return g.emit(cmd.Out, buf.Bytes())
}

// parseFilters turns ["plan=Pro", "plan=Basic"] into a FilterState.
func parseFilters(specs []string) (crossfilter.FilterState, error) {
	state := crossfilter.FilterState{}
	for _, spec := range specs {
		column, value, ok := strings.Cut(spec, "=")
		column = strings.TrimSpace(column)
		if !ok || column == "" {
			return nil, fmt.Errorf("crossfilterctl: filter %q must be column=value", spec)
		}
		if !state.Has(column, value) {
			state = state.Toggle(column, value)
		}
	}
	return state, nil
}

func writeText(buf *bytes.Buffer, snap crossfilter.SessionSnapshot) error {
	fmt.Fprintf(buf, "%s: %d of %d rows\n", snap.SchemaID, snap.VisibleRows, snap.TotalRows)
	for _, chip := range snap.Chips {
		fmt.Fprintf(buf, "  filter %s: %s\n", chip.ColumnLabel, chip.Value)
	}
	labels := make(map[string]string, len(snap.Columns))
	for _, col := range snap.Columns {
		labels[col.ID] = col.Label
	}
	tw := tabwriter.NewWriter(buf, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tCHART\tSUMMARY\tMEDIAN")
	for _, result := range snap.Results {
		median := result.MedianSummary
		if median == "" {
			median = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", labels[result.ColumnID], result.Type, result.Summary, median)
	}
	return tw.Flush()
}
