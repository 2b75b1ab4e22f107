// internal/reporting/jsonl_reporter.go
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/intellisa/iacsec/api/schemas"
)

// jsonlRecord is one line of the JSONL report. Every line parses standalone,
// so the format stays streamable and append-friendly.
type jsonlRecord struct {
	Detection  schemas.Detection  `json:"detection"`
	Prediction schemas.Prediction `json:"prediction"`
	Threshold  float64            `json:"threshold"`
	Model      string             `json:"model"`
}

// JSONLReporter writes one JSON object per detection/prediction pair.
type JSONLReporter struct {
	writer io.WriteCloser
	logger *zap.Logger

	mu    sync.Mutex
	lines int
}

// NewJSONLReporter creates a reporter producing line-delimited JSON.
func NewJSONLReporter(writer io.WriteCloser, logger *zap.Logger) *JSONLReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JSONLReporter{writer: writer, logger: logger.Named("jsonl_reporter")}
}

// Write streams the report, one line per pair.
func (r *JSONLReporter) Write(report *Report) error {
	if err := report.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	encoder := json.NewEncoder(r.writer)
	model := report.Model()
	for i, det := range report.Detections {
		rec := jsonlRecord{
			Detection:  det,
			Prediction: report.Predictions[i],
			Threshold:  report.Threshold,
			Model:      model,
		}
		// json.Encoder terminates each value with a newline.
		if err := encoder.Encode(rec); err != nil {
			return fmt.Errorf("failed to encode JSONL record: %w", err)
		}
		r.lines++
	}
	return nil
}

// Close closes the underlying writer.
func (r *JSONLReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.writer.Close(); err != nil {
		return fmt.Errorf("failed to close output writer: %w", err)
	}
	r.logger.Info("JSONL report written", zap.Int("lines", r.lines))
	return nil
}
