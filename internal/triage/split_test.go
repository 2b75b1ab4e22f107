package triage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/intellisa/iacsec/api/schemas"
	"github.com/intellisa/iacsec/internal/triage"
)

func det(ruleID string, evidence map[string]any) schemas.Detection {
	return schemas.Detection{
		RuleID:   ruleID,
		Smell:    schemas.SmellHTTP,
		Tech:     schemas.TechAnsible,
		File:     "site.yml",
		Line:     1,
		Snippet:  "x",
		Message:  "m",
		Severity: schemas.SeverityMedium,
		Evidence: evidence,
	}
}

func TestSplit_RoutesByPostfilterFlag(t *testing.T) {
	input := []schemas.Detection{
		det("A1", map[string]any{}),
		det("B1", map[string]any{"postfilter": true}),
		det("A2", nil),
		det("B2", map[string]any{"postfilter": true, "keys": []string{"url"}}),
	}

	categoryA, preds, categoryB := triage.Split(input)

	require.Len(t, categoryA, 2)
	require.Len(t, categoryB, 2)
	assert.Equal(t, "A1", categoryA[0].RuleID)
	assert.Equal(t, "A2", categoryA[1].RuleID)
	assert.Equal(t, "B1", categoryB[0].RuleID)
	assert.Equal(t, "B2", categoryB[1].RuleID)

	// Category A gets synthetic accepted predictions.
	require.Len(t, preds, 2)
	for _, pred := range preds {
		assert.Equal(t, schemas.LabelTP, pred.Label)
		assert.Equal(t, 1.0, pred.Score)
		assert.Equal(t, "glitch-accepted", pred.Rationale)
	}
}

func TestSplit_FlagConsumedExactlyOnce(t *testing.T) {
	input := []schemas.Detection{
		det("B1", map[string]any{"postfilter": true, "keys": []string{"url"}}),
	}

	_, _, categoryB := triage.Split(input)
	require.Len(t, categoryB, 1)

	// The routing flag must not reappear in exported evidence.
	_, present := categoryB[0].Evidence["postfilter"]
	assert.False(t, present)
	// Unrelated evidence survives.
	assert.Equal(t, []string{"url"}, categoryB[0].Evidence["keys"])
}

func TestSplit_InputNotMutated(t *testing.T) {
	evidence := map[string]any{"postfilter": true}
	input := []schemas.Detection{det("B1", evidence)}

	triage.Split(input)

	// The caller's evidence map is untouched; routing works on a copy.
	assert.Equal(t, true, evidence["postfilter"])
}

func TestSplit_FalsyFlagStaysCategoryA(t *testing.T) {
	tests := []struct {
		name string
		flag any
	}{
		{"false bool", false},
		{"zero int", 0},
		{"zero float", float64(0)},
		{"empty string", ""},
		{"string false", "false"},
		{"nil", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			categoryA, _, categoryB := triage.Split([]schemas.Detection{
				det("X", map[string]any{"postfilter": tc.flag}),
			})
			assert.Len(t, categoryA, 1)
			assert.Empty(t, categoryB)
			// Even a falsy flag is consumed.
			_, present := categoryA[0].Evidence["postfilter"]
			assert.False(t, present)
		})
	}
}

func TestMerge_CategoryAPrecedesB(t *testing.T) {
	categoryA := []schemas.Detection{det("A1", nil), det("A2", nil)}
	acceptedPreds := []schemas.Prediction{
		{Label: schemas.LabelTP, Score: 1.0},
		{Label: schemas.LabelTP, Score: 1.0},
	}
	categoryB := []schemas.Detection{det("B1", nil)}
	scoredPreds := []schemas.Prediction{{Label: schemas.LabelFP, Score: 0.2}}

	detections, predictions := triage.Merge(categoryA, acceptedPreds, categoryB, scoredPreds)

	require.Len(t, detections, 3)
	require.Len(t, predictions, 3)
	assert.Equal(t, []string{"A1", "A2", "B1"}, []string{detections[0].RuleID, detections[1].RuleID, detections[2].RuleID})
	assert.Equal(t, schemas.LabelFP, predictions[2].Label)
}
