// internal/reporting/sarif_reporter.go
package reporting

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"github.com/intellisa/iacsec/api/schemas"
	"github.com/intellisa/iacsec/internal/reporting/sarif"
)

// Constants for tool identification in the SARIF report.
const (
	ToolName     = "iacsec"
	ToolInfoURI  = "https://github.com/intellisa/iacsec"
	SARIFVersion = "2.1.0"
	SARIFSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
)

// SARIFReporter implements the Reporter interface for the SARIF 2.1.0 format.
// It is thread safe.
type SARIFReporter struct {
	writer io.WriteCloser
	logger *zap.Logger
	// mu protects the log structure and the rule index.
	mu    sync.Mutex
	log   *sarif.Log
	rules map[string]bool
}

// NewSARIFReporter creates a reporter that writes SARIF output. The driver
// version is filled in from the report's model version at Write time.
func NewSARIFReporter(writer io.WriteCloser, logger *zap.Logger) *SARIFReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	log := &sarif.Log{
		Version: SARIFVersion,
		Schema:  SARIFSchema,
		Runs: []*sarif.Run{
			{
				Tool: &sarif.Tool{
					Driver: &sarif.ToolComponent{
						Name:           ToolName,
						InformationURI: pString(ToolInfoURI),
						// Initialize empty slices (not nil) for proper JSON marshalling.
						Rules: []*sarif.ReportingDescriptor{},
					},
				},
				Results: []*sarif.Result{},
			},
		},
	}

	return &SARIFReporter{
		writer: writer,
		logger: logger.Named("sarif_reporter"),
		log:    log,
		rules:  make(map[string]bool),
	}
}

// Write converts the merged report into SARIF results and rule descriptors.
func (r *SARIFReporter) Write(report *Report) error {
	if err := report.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	run := r.log.Runs[0]
	run.Tool.Driver.Version = pString(report.ModelVersion)

	for i, det := range report.Detections {
		pred := report.Predictions[i]
		r.ensureRule(det)

		result := &sarif.Result{
			RuleID:  det.RuleID,
			Message: &sarif.Message{Text: pString(det.Message)},
			Level:   resultLevel(det, pred),
			Locations: []*sarif.Location{
				{
					PhysicalLocation: &sarif.PhysicalLocation{
						ArtifactLocation: &sarif.ArtifactLocation{URI: pString(det.File)},
						Region:           &sarif.Region{StartLine: pInt(det.Line)},
					},
				},
			},
			Properties: &sarif.PropertyBag{
				"score":     pred.Score,
				"rationale": pred.Rationale,
			},
		}
		run.Results = append(run.Results, result)
	}

	r.logger.Debug("Buffered SARIF results", zap.Int("results", len(report.Detections)))
	return nil
}

// Close finalizes the SARIF log and writes it to the output writer.
func (r *SARIFReporter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	encoder := json.NewEncoder(r.writer)
	encoder.SetIndent("", "  ")

	encodeErr := encoder.Encode(r.log)
	// Always attempt to close the writer, regardless of encoding success.
	closeErr := r.writer.Close()

	if encodeErr != nil {
		return fmt.Errorf("failed to encode SARIF output: %w", encodeErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close output writer: %w", closeErr)
	}

	r.logger.Info("SARIF report written",
		zap.Int("total_results", len(r.log.Runs[0].Results)),
		zap.Int("total_rules", len(r.log.Runs[0].Tool.Driver.Rules)),
	)
	return nil
}

// ensureRule registers one ReportingDescriptor per distinct rule id.
// NOTE: must be called while holding the mutex.
func (r *SARIFReporter) ensureRule(det schemas.Detection) {
	if r.rules[det.RuleID] {
		return
	}
	r.rules[det.RuleID] = true

	driver := r.log.Runs[0].Tool.Driver
	driver.Rules = append(driver.Rules, &sarif.ReportingDescriptor{
		ID:               det.RuleID,
		Name:             pString(det.RuleID),
		ShortDescription: &sarif.MultiformatMessageString{Text: pString(det.Message)},
		Properties: &sarif.PropertyBag{
			"smell": string(det.Smell),
			"tags":  []string{"security", "iac"},
		},
	})
}

// resultLevel maps a pair to a SARIF level. True positives carry their
// severity; findings the post-filter rejected stay informational so they can
// never render as blocking-level.
func resultLevel(det schemas.Detection, pred schemas.Prediction) sarif.Level {
	if pred.Label != schemas.LabelTP {
		return sarif.LevelNote
	}
	switch det.Severity {
	case schemas.SeverityHigh:
		return sarif.LevelError
	case schemas.SeverityMedium:
		return sarif.LevelWarning
	default:
		return sarif.LevelNote
	}
}

// pString returns a pointer to the given string value. Helper for optional SARIF fields.
func pString(s string) *string {
	return &s
}

func pInt(i int) *int {
	return &i
}
