package postfilter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellisa/iacsec/api/schemas"
	"github.com/intellisa/iacsec/internal/postfilter"
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
		Evidence: map[string]any{},
	}
	if overrides != nil {
		overrides(&det)
	}
	return det
}

func sampleHandle() postfilter.ModelHandle {
	return postfilter.ModelHandle{
		Name:             "codet5p-220m",
		Version:          "1.2.0",
		Path:             "/tmp/weights.bin",
		Framework:        "torch",
		DefaultThreshold: 0.5,
		Labels:           []string{"TP", "FP"},
	}
}

func TestScore_Deterministic(t *testing.T) {
	det := sampleDetection(nil)
	handle := sampleHandle()

	first := postfilter.Score(det, "/repo", handle)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, postfilter.Score(det, "/repo", handle))
	}
}

func TestScore_InUnitRange(t *testing.T) {
	handle := sampleHandle()
	for _, rule := range []string{"A", "B", "C", "HTTP_NO_TLS", "WEAK_CRYPTO"} {
		det := sampleDetection(func(d *schemas.Detection) { d.RuleID = rule })
		score := postfilter.Score(det, "/repo", handle)
		assert.GreaterOrEqual(t, score, 0.0)
		assert.Less(t, score, 1.0)
	}
}

func TestScore_SensitiveToInputs(t *testing.T) {
	det := sampleDetection(nil)
	handle := sampleHandle()
	base := postfilter.Score(det, "/repo", handle)

	otherSnippet := sampleDetection(func(d *schemas.Detection) { d.Snippet = "different" })
	assert.NotEqual(t, base, postfilter.Score(otherSnippet, "/repo", handle))

	assert.NotEqual(t, base, postfilter.Score(det, "/other-repo", handle))

	otherVersion := handle
	otherVersion.Version = "9.9.9"
	assert.NotEqual(t, base, postfilter.Score(det, "/repo", otherVersion))
}

func TestScore_IgnoresVolatileFields(t *testing.T) {
	det := sampleDetection(nil)
	handle := sampleHandle()
	base := postfilter.Score(det, "/repo", handle)

	// Line, message, severity, and evidence do not feed the hash.
	changed := sampleDetection(func(d *schemas.Detection) {
		d.Line = 99
		d.Message = "other text"
		d.Severity = schemas.SeverityHigh
		d.Evidence = map[string]any{"keys": []string{"url"}}
	})
	assert.Equal(t, base, postfilter.Score(changed, "/repo", handle))
}

func TestClassify_ThresholdBoundaryInclusive(t *testing.T) {
	pred := postfilter.Classify(0.5, 0.5)
	assert.Equal(t, schemas.LabelTP, pred.Label)
	assert.Equal(t, "score>=threshold", pred.Rationale)

	pred = postfilter.Classify(0.4999, 0.5)
	assert.Equal(t, schemas.LabelFP, pred.Label)
	assert.Equal(t, "score<threshold", pred.Rationale)
}

func TestEffectiveThreshold(t *testing.T) {
	handle := sampleHandle()

	assert.Equal(t, 0.5, postfilter.EffectiveThreshold(handle, 0, false))
	assert.Equal(t, 0.7, postfilter.EffectiveThreshold(handle, 0.7, true))
	// An explicit zero override is honored.
	assert.Equal(t, 0.0, postfilter.EffectiveThreshold(handle, 0, true))
}

func TestEffectiveThreshold_UsedVerbatimByClassify(t *testing.T) {
	handle := sampleHandle()
	det := sampleDetection(nil)
	score := postfilter.Score(det, "/repo", handle)

	// With a zero override everything classifies TP.
	pred := postfilter.Classify(score, postfilter.EffectiveThreshold(handle, 0, true))
	require.Equal(t, schemas.LabelTP, pred.Label)
}
