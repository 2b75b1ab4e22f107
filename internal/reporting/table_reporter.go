// internal/reporting/table_reporter.go
package reporting

import (
	"fmt"
	"io"
	"sync"
	"text/tabwriter"

	"go.uber.org/zap"
)

// TableReporter renders a human-readable findings table, intended for the
// terminal rather than a file.
type TableReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	mu     sync.Mutex
}

// NewTableReporter creates the console table reporter.
func NewTableReporter(writer io.WriteCloser, logger *zap.Logger) *TableReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableReporter{writer: writer, logger: logger.Named("table_reporter")}
}

// Write renders one row per pair.
func (r *TableReporter) Write(report *Report) error {
	if err := report.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tw := tabwriter.NewWriter(r.writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RULE\tSEVERITY\tPREDICTION\tSCORE\tLOCATION")
	for i, det := range report.Detections {
		pred := report.Predictions[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s:%d\n",
			det.RuleID, det.Severity, pred.Label, pred.Score, det.File, det.Line)
	}
	return tw.Flush()
}

// Close closes the underlying writer.
func (r *TableReporter) Close() error {
	return r.writer.Close()
}
