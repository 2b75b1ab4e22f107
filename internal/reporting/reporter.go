// -- internal/reporting/reporter.go --
package reporting

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/intellisa/iacsec/api/schemas"
)

// ErrUnsupportedFormat rejects unknown output formats before any work begins.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// ErrPairMismatch is returned when detections and predictions disagree in
// length; the pairing invariant is positional.
var ErrPairMismatch = errors.New("detections and predictions length mismatch")

// Formats the factory understands.
const (
	FormatSARIF = "sarif"
	FormatJSON  = "json"
	FormatCSV   = "csv"
	FormatTable = "table"
)

// Report is the merged, index-aligned pipeline output every exporter renders.
type Report struct {
	Detections  []schemas.Detection
	Predictions []schemas.Prediction
	Threshold   float64
	ModelName   string
	ModelVersion string
	// ScanRoot and Tech drive the CSV coverage walk.
	ScanRoot string
	Tech     schemas.Tech
}

// Model renders the "{name}@{version}" descriptor used in report metadata.
func (r *Report) Model() string {
	return fmt.Sprintf("%s@%s", r.ModelName, r.ModelVersion)
}

// validate enforces the pairing invariant shared by all exporters.
func (r *Report) validate() error {
	if len(r.Detections) != len(r.Predictions) {
		return fmt.Errorf("%w: %d detections, %d predictions",
			ErrPairMismatch, len(r.Detections), len(r.Predictions))
	}
	return nil
}

// Reporter is the capability interface every output encoder implements.
type Reporter interface {
	// Write renders the merged report.
	Write(report *Report) error
	// Close finalizes the output and releases any underlying resources.
	Close() error
}

// nopWriteCloser wraps an io.Writer and provides a no-op Close method.
type nopWriteCloser struct {
	io.Writer
}

func (nwc *nopWriteCloser) Close() error {
	return nil
}

// ValidFormat reports whether the factory understands the format.
func ValidFormat(format string) bool {
	switch strings.ToLower(format) {
	case FormatSARIF, FormatJSON, FormatCSV, FormatTable:
		return true
	}
	return false
}

// OutputPath derives the destination for one format from the user-specified
// path. If the path's suffix already matches the format and it is the only
// format requested, the path is used directly; otherwise the suffix is
// replaced so a multi-format run never clobbers one file.
func OutputPath(out, format string, soleFormat bool) string {
	var suffix string
	switch format {
	case FormatJSON:
		suffix = ".jsonl"
	case FormatCSV:
		suffix = ".csv"
	default:
		return out
	}

	if soleFormat && filepath.Ext(out) == suffix {
		return out
	}
	return strings.TrimSuffix(out, filepath.Ext(out)) + suffix
}

// New creates a reporter for the format, writing to outputPath. An empty path
// or "stdout" writes to standard output.
func New(format, outputPath string, logger *zap.Logger) (Reporter, error) {
	format = strings.ToLower(format)
	if !ValidFormat(format) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}

	var writer io.WriteCloser
	isStdOut := outputPath == "" || outputPath == "stdout" || format == FormatTable

	if isStdOut {
		// Wrap stdout so Close() is a no-op.
		writer = &nopWriteCloser{os.Stdout}
	} else {
		if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create output directory for %s: %w", outputPath, err)
		}
		f, err := os.Create(outputPath)
		if err != nil {
			return nil, fmt.Errorf("failed to create output file %s: %w", outputPath, err)
		}
		writer = f
	}

	switch format {
	case FormatSARIF:
		return NewSARIFReporter(writer, logger), nil
	case FormatJSON:
		return NewJSONLReporter(writer, logger), nil
	case FormatCSV:
		return NewCSVReporter(writer, logger), nil
	default: // FormatTable
		return NewTableReporter(writer, logger), nil
	}
}
