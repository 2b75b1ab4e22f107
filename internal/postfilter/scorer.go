// File: internal/postfilter/scorer.go
// Description: Deterministic stand-in for the neural inference backend. The
// score is a pure function of the model identity and the detection's stable
// fields, so repeated runs (and CI re-runs) classify identically.

package postfilter

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"

	"github.com/intellisa/iacsec/api/schemas"
)

// scorePayload is the canonical input to the score hash. encoding/json emits
// struct fields in declaration order, which is kept alphabetical here so the
// serialized form is key-sorted.
type scorePayload struct {
	CodeDir string `json:"code_dir"`
	File    string `json:"file"`
	Model   string `json:"model"`
	Rule    string `json:"rule"`
	Snippet string `json:"snippet"`
	Version string `json:"version"`
}

// Score produces a reproducible confidence in [0,1) for one detection. The
// leading 8 bytes of a sha256 over the canonical payload, read big-endian and
// divided by 2^64, give a uniform but fully deterministic value.
func Score(det schemas.Detection, scanRoot string, model ModelHandle) float64 {
	payload, err := json.Marshal(scorePayload{
		CodeDir: scanRoot,
		File:    det.File,
		Model:   model.Name,
		Rule:    det.RuleID,
		Snippet: det.Snippet,
		Version: model.Version,
	})
	if err != nil {
		// Marshalling a struct of strings cannot fail.
		panic(err)
	}

	digest := sha256.Sum256(payload)
	value := binary.BigEndian.Uint64(digest[:8])
	return float64(value) / (1 << 64)
}

// Classify applies the resolved threshold to a score. The lower bound is
// inclusive: score == threshold classifies as TP.
func Classify(score, threshold float64) schemas.Prediction {
	if score >= threshold {
		return schemas.Prediction{Label: schemas.LabelTP, Score: score, Rationale: "score>=threshold"}
	}
	return schemas.Prediction{Label: schemas.LabelFP, Score: score, Rationale: "score<threshold"}
}
