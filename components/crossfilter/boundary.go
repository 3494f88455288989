package crossfilter

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// SafeAnalyze runs analyzer.Analyze behind a recover boundary. A panic is
// logged at warn level and the column renders as empty.
func SafeAnalyze(analyzer ColumnAnalyzer, logger logrus.FieldLogger, fields logrus.Fields, rows Rows, col ColumnDefinition, filtered Rows) (result AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			boundaryLogger(logger, fields, col, r).Warn("crossfilter: column analysis failed")
			result = emptyResult(col.ID)
		}
	}()
	return analyzer.Analyze(rows, col, filtered)
}

// SafeLabeler resolves the column labeler behind a recover boundary,
// falling back to RawLabel.
func SafeLabeler(analyzer ColumnAnalyzer, logger logrus.FieldLogger, fields logrus.Fields, rows Rows, col ColumnDefinition) (labeler Labeler) {
	defer func() {
		if r := recover(); r != nil {
			boundaryLogger(logger, fields, col, r).Warn("crossfilter: column labeler failed")
			labeler = RawLabel
		}
	}()
	labeler = analyzer.Labeler(rows, col)
	if labeler == nil {
		labeler = RawLabel
	}
	return labeler
}

func boundaryLogger(logger logrus.FieldLogger, fields logrus.Fields, col ColumnDefinition, r any) logrus.FieldLogger {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	merged := make(logrus.Fields, len(fields)+2)
	for k, v := range fields {
		merged[k] = v
	}
	merged["column"] = col.ID
	merged["panic"] = fmt.Sprint(r)
	return logger.WithFields(merged)
}
