// File: internal/triage/split.go
// Description: Partitions raw detections into auto-accepted (category A) and
// needs-scoring (category B) using the detector's postfilter routing hint.

package triage

import (
	"github.com/intellisa/iacsec/api/schemas"
)

// evidenceFlag is the routing hint the detector plants in Detection.Evidence.
// It is an internal signal: consumed here exactly once, never exported.
const evidenceFlag = "postfilter"

// Split routes detections by the postfilter evidence flag. Category A
// detections are trusted outright and paired with a synthetic accepted
// prediction; category B detections await post-filter scoring. Input order is
// preserved within each category, and the merged report order is A then B.
//
// Split never mutates its input: a detection whose evidence carried the flag
// is replaced by a copy with the flag removed.
func Split(detections []schemas.Detection) (categoryA []schemas.Detection, acceptedPreds []schemas.Prediction, categoryB []schemas.Detection) {
	for _, det := range detections {
		routed, needsPostfilter := consumeFlag(det)
		if needsPostfilter {
			categoryB = append(categoryB, routed)
			continue
		}
		categoryA = append(categoryA, routed)
		acceptedPreds = append(acceptedPreds, schemas.Prediction{
			Label:     schemas.LabelTP,
			Score:     1.0,
			Rationale: "glitch-accepted",
		})
	}
	return categoryA, acceptedPreds, categoryB
}

// Merge produces the final report-ordered sequences: category A always
// precedes category B.
func Merge(categoryA []schemas.Detection, acceptedPreds []schemas.Prediction, categoryB []schemas.Detection, scoredPreds []schemas.Prediction) ([]schemas.Detection, []schemas.Prediction) {
	detections := make([]schemas.Detection, 0, len(categoryA)+len(categoryB))
	detections = append(detections, categoryA...)
	detections = append(detections, categoryB...)

	predictions := make([]schemas.Prediction, 0, len(acceptedPreds)+len(scoredPreds))
	predictions = append(predictions, acceptedPreds...)
	predictions = append(predictions, scoredPreds...)
	return detections, predictions
}

// consumeFlag pops the routing flag, returning a detection whose evidence no
// longer carries it and whether the flag was truthy.
func consumeFlag(det schemas.Detection) (schemas.Detection, bool) {
	raw, present := det.Evidence[evidenceFlag]
	if !present {
		return det, false
	}

	evidence := make(map[string]any, len(det.Evidence)-1)
	for k, v := range det.Evidence {
		if k != evidenceFlag {
			evidence[k] = v
		}
	}
	det.Evidence = evidence
	return det, truthy(raw)
}

// truthy mirrors the loose boolean the detector may emit for the flag.
func truthy(v any) bool {
	switch value := v.(type) {
	case bool:
		return value
	case string:
		return value != "" && value != "false" && value != "0"
	case float64:
		return value != 0
	case int:
		return value != 0
	case nil:
		return false
	default:
		return true
	}
}
