// internal/reporting/sarif_reporter_test.go
package reporting_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellisa/iacsec/api/schemas"
	"github.com/intellisa/iacsec/internal/reporting"
	"github.com/intellisa/iacsec/internal/reporting/sarif"
)

func sampleDetection(overrides func(*schemas.Detection)) schemas.Detection {
	det := schemas.Detection{
		RuleID:   "HTTP_NO_TLS",
		Smell:    schemas.SmellHTTP,
		Tech:     schemas.TechAnsible,
		File:     "roles/web/tasks/main.yml",
		Line:     12,
		Snippet:  "get_url: url=http://example",
		Message:  "HTTP used without TLS",
		Severity: schemas.SeverityMedium,
		Evidence: map[string]any{"keys": []string{"url"}},
	}
	if overrides != nil {
		overrides(&det)
	}
	return det
}

func sampleReport(detections []schemas.Detection, predictions []schemas.Prediction) *reporting.Report {
	return &reporting.Report{
		Detections:   detections,
		Predictions:  predictions,
		Threshold:    0.5,
		ModelName:    "codet5p-220m",
		ModelVersion: "1.2.0",
	}
}

func writeSARIF(t *testing.T, report *reporting.Report) *sarif.Log {
	t.Helper()
	out := filepath.Join(t.TempDir(), "out.sarif")

	r, err := reporting.New("sarif", out, nil)
	require.NoError(t, err)
	require.NoError(t, r.Write(report))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	var log sarif.Log
	require.NoError(t, json.Unmarshal(data, &log))
	return &log
}

func TestSARIF_Structure(t *testing.T) {
	det := sampleDetection(nil)
	pred := schemas.Prediction{Label: schemas.LabelTP, Score: 0.9, Rationale: "score>=threshold"}

	log := writeSARIF(t, sampleReport([]schemas.Detection{det}, []schemas.Prediction{pred}))

	assert.Equal(t, "2.1.0", log.Version)
	require.Len(t, log.Runs, 1)

	run := log.Runs[0]
	assert.Equal(t, "iacsec", run.Tool.Driver.Name)
	require.NotNil(t, run.Tool.Driver.Version)
	assert.Equal(t, "1.2.0", *run.Tool.Driver.Version)

	require.Len(t, run.Tool.Driver.Rules, 1)
	rule := run.Tool.Driver.Rules[0]
	assert.Equal(t, "HTTP_NO_TLS", rule.ID)
	assert.Equal(t, "http", (*rule.Properties)["smell"])

	require.Len(t, run.Results, 1)
	result := run.Results[0]
	assert.Equal(t, "HTTP_NO_TLS", result.RuleID)
	assert.Equal(t, sarif.LevelWarning, result.Level)
	assert.Equal(t, "HTTP used without TLS", *result.Message.Text)

	require.Len(t, result.Locations, 1)
	loc := result.Locations[0].PhysicalLocation
	assert.Equal(t, "roles/web/tasks/main.yml", *loc.ArtifactLocation.URI)
	assert.Equal(t, 12, *loc.Region.StartLine)

	props := *result.Properties
	assert.Equal(t, 0.9, props["score"])
	assert.Equal(t, "score>=threshold", props["rationale"])
}

func TestSARIF_LevelMapping(t *testing.T) {
	tests := []struct {
		name     string
		severity schemas.Severity
		label    schemas.Label
		want     sarif.Level
	}{
		{"TP high is error", schemas.SeverityHigh, schemas.LabelTP, sarif.LevelError},
		{"TP medium is warning", schemas.SeverityMedium, schemas.LabelTP, sarif.LevelWarning},
		{"TP low is note", schemas.SeverityLow, schemas.LabelTP, sarif.LevelNote},
		// Post-filter rejections never render as blocking-level.
		{"FP high is note", schemas.SeverityHigh, schemas.LabelFP, sarif.LevelNote},
		{"FP medium is note", schemas.SeverityMedium, schemas.LabelFP, sarif.LevelNote},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			det := sampleDetection(func(d *schemas.Detection) { d.Severity = tc.severity })
			pred := schemas.Prediction{Label: tc.label, Score: 0.5}

			log := writeSARIF(t, sampleReport([]schemas.Detection{det}, []schemas.Prediction{pred}))
			require.Len(t, log.Runs[0].Results, 1)
			assert.Equal(t, tc.want, log.Runs[0].Results[0].Level)
		})
	}
}

func TestSARIF_OneRulePerDistinctRuleID(t *testing.T) {
	detections := []schemas.Detection{
		sampleDetection(nil),
		sampleDetection(func(d *schemas.Detection) { d.Line = 30 }),
		sampleDetection(func(d *schemas.Detection) { d.RuleID = "WEAK_CRYPTO"; d.Smell = schemas.SmellWeakCrypto }),
	}
	predictions := []schemas.Prediction{
		{Label: schemas.LabelTP, Score: 0.9},
		{Label: schemas.LabelTP, Score: 0.8},
		{Label: schemas.LabelFP, Score: 0.1},
	}

	log := writeSARIF(t, sampleReport(detections, predictions))
	run := log.Runs[0]
	assert.Len(t, run.Results, 3)
	assert.Len(t, run.Tool.Driver.Rules, 2)
}

func TestSARIF_EmptyReportHasEmptyResultsArray(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.sarif")
	r, err := reporting.New("sarif", out, nil)
	require.NoError(t, err)
	require.NoError(t, r.Write(sampleReport(nil, nil)))
	require.NoError(t, r.Close())

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	// results must serialize as [], not null.
	assert.Contains(t, string(data), `"results": []`)
}
