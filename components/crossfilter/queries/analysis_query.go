package queries

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-crossfilter/components/crossfilter"
	"github.com/sirupsen/logrus"
)

// AnalysisInput runs a one-shot analysis without opening a session.
type AnalysisInput struct {
	Columns []crossfilter.ColumnDefinition `json:"columns"`
	Rows    crossfilter.Rows               `json:"rows"`
	Filters crossfilter.FilterState        `json:"filters,omitempty"`
}

// AnalysisOutput carries per-column results in schema order.
type AnalysisOutput struct {
	Results     []crossfilter.AnalysisResult `json:"results"`
	VisibleRows int                          `json:"visibleRows"`
	TotalRows   int                          `json:"totalRows"`
}

// AnalysisQuery analyzes rows under a fixed filter state.
type AnalysisQuery struct {
	options     []crossfilter.AnalyzerOption
	logger      logrus.FieldLogger
	newAnalyzer func(columns []crossfilter.ColumnDefinition) crossfilter.ColumnAnalyzer
}

// NewAnalysisQuery builds the query.
func NewAnalysisQuery(opts ...crossfilter.AnalyzerOption) *AnalysisQuery {
	q := &AnalysisQuery{options: opts, logger: logrus.StandardLogger()}
	q.newAnalyzer = func(columns []crossfilter.ColumnDefinition) crossfilter.ColumnAnalyzer {
		return crossfilter.NewAnalyzer(columns, q.options...)
	}
	return q
}

// WithLogger sets the logger that records analysis panics.
func (q *AnalysisQuery) WithLogger(logger logrus.FieldLogger) *AnalysisQuery {
	if logger != nil {
		q.logger = logger
	}
	return q
}

var _ gocommand.Querier[AnalysisInput, AnalysisOutput] = (*AnalysisQuery)(nil)

// Query derives the visible rows and analyzes every column.
func (q *AnalysisQuery) Query(ctx context.Context, input AnalysisInput) (AnalysisOutput, error) {
	if len(input.Columns) == 0 {
		return AnalysisOutput{}, errors.New("analysis query requires columns")
	}
	analyzer := q.newAnalyzer(input.Columns)
	fields := logrus.Fields{"query": "analysis"}
	opts := make([]crossfilter.DeriveOption, 0, len(input.Columns))
	for _, col := range input.Columns {
		labeler := crossfilter.SafeLabeler(analyzer, q.logger, fields, input.Rows, col)
		opts = append(opts, crossfilter.WithLabeler(col.ID, labeler))
	}
	visible := crossfilter.DeriveVisibleRows(input.Rows, input.Filters, opts...)

	out := AnalysisOutput{
		Results:     make([]crossfilter.AnalysisResult, len(input.Columns)),
		VisibleRows: len(visible),
		TotalRows:   len(input.Rows),
	}
	for i, col := range input.Columns {
		if err := ctx.Err(); err != nil {
			return AnalysisOutput{}, err
		}
		out.Results[i] = crossfilter.SafeAnalyze(analyzer, q.logger, fields, input.Rows, col, visible)
		if selected := input.Filters[col.ID]; len(selected) > 0 {
			out.Results[i].Selected = append([]string(nil), selected...)
		}
	}
	return out, nil
}
