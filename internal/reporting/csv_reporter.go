// internal/reporting/csv_reporter.go
// The CSV export is a coverage audit, not a hit list: one row per detection
// plus one (file, 0, "none") row for every in-scope candidate file the
// detector found nothing in.

package reporting

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/intellisa/iacsec/api/schemas"
)

// categoryLabels maps known rule ids to stable human labels for the CSV
// category column. Unrecognized rule ids fall back to the detection message.
var categoryLabels = map[string]string{
	"HTTP_NO_TLS":        "HTTP",
	"WEAK_CRYPTO":        "WEAK-CRYPTO",
	"HARDCODED_SECRET":   "SECRET",
	"SUSPICIOUS_COMMENT": "COMMENT",
}

// csvRow is one (file, line, category) triple.
type csvRow struct {
	file     string
	line     int
	category string
}

// CSVReporter renders header-less coverage rows sorted by (file, line).
type CSVReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	mu   sync.Mutex
	rows []csvRow
}

// NewCSVReporter creates the CSV coverage reporter.
func NewCSVReporter(writer io.WriteCloser, logger *zap.Logger) *CSVReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CSVReporter{writer: writer, logger: logger.Named("csv_reporter")}
}

// Write collects hit rows from the report and synthesizes "none" rows for
// candidate files without findings.
func (r *CSVReporter) Write(report *Report) error {
	if err := report.validate(); err != nil {
		return err
	}

	seen := make(map[string]bool, len(report.Detections))
	rows := make([]csvRow, 0, len(report.Detections))
	for _, det := range report.Detections {
		rows = append(rows, csvRow{file: det.File, line: det.Line, category: CategoryLabel(det)})
		seen[det.File] = true
	}

	if report.ScanRoot != "" {
		candidates, err := CandidateFiles(report.ScanRoot, report.Tech)
		if err != nil {
			return fmt.Errorf("failed to enumerate candidate files: %w", err)
		}
		for _, file := range candidates {
			if !seen[file] {
				rows = append(rows, csvRow{file: file, line: 0, category: "none"})
			}
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, rows...)
	return nil
}

// Close sorts the accumulated rows globally and writes them out.
func (r *CSVReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sort.Slice(r.rows, func(i, j int) bool {
		if r.rows[i].file != r.rows[j].file {
			return r.rows[i].file < r.rows[j].file
		}
		return r.rows[i].line < r.rows[j].line
	})

	w := csv.NewWriter(r.writer)
	for _, row := range r.rows {
		if err := w.Write([]string{row.file, strconv.Itoa(row.line), row.category}); err != nil {
			r.writer.Close()
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}
	w.Flush()

	flushErr := w.Error()
	closeErr := r.writer.Close()
	if flushErr != nil {
		return fmt.Errorf("failed to flush CSV output: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("CSV report written", zap.Int("rows", len(r.rows)))
	return nil
}

// CategoryLabel resolves the stable category label for a detection.
func CategoryLabel(det schemas.Detection) string {
	if label, ok := categoryLabels[det.RuleID]; ok {
		return label
	}
	return det.Message
}
