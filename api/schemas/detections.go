package schemas

import "context"

// -- Detection Schemas --

// Smell identifies the category of security smell a detection belongs to.
// The values are lowercase to align with the detector's rule catalogue, and the
// set is open: unknown smells pass through unchanged.
type Smell string

// Constants for the security smells the symbolic detector currently emits.
const (
	SmellHTTP              Smell = "http"               // Unencrypted HTTP usage.
	SmellWeakCrypto        Smell = "weak-crypto"        // Weak or deprecated cryptography.
	SmellHardcodedSecret   Smell = "hardcoded-secret"   // Credentials embedded in the manifest.
	SmellSuspiciousComment Smell = "suspicious-comment" // TODO/FIXME style markers around security code.
)

// Tech identifies the infrastructure-as-code technology a manifest is written in.
type Tech string

// Constants for the supported IaC technologies. TechAuto asks the pipeline to
// consider every known technology at once.
const (
	TechAuto    Tech = "auto"
	TechAnsible Tech = "ansible"
	TechChef    Tech = "chef"
	TechPuppet  Tech = "puppet"
)

// Extensions returns the manifest file extensions associated with the
// technology. TechAuto yields the union of all known extension sets.
func (t Tech) Extensions() []string {
	switch t {
	case TechAnsible:
		return []string{".yml", ".yaml"}
	case TechChef:
		return []string{".rb"}
	case TechPuppet:
		return []string{".pp"}
	default:
		return []string{".yml", ".yaml", ".rb", ".pp"}
	}
}

// Valid reports whether the tech value is one the pipeline accepts.
func (t Tech) Valid() bool {
	switch t {
	case TechAuto, TechAnsible, TechChef, TechPuppet:
		return true
	}
	return false
}

// Severity represents the severity level of a detection.
type Severity string

// Constants defining the standard severity levels.
const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Label is the triage verdict for a detection: true positive or false positive.
type Label string

const (
	LabelTP Label = "TP"
	LabelFP Label = "FP"
)

// Detection is a single raw finding emitted by the upstream symbolic detector.
// Instances are immutable once produced; the one sanctioned exception is the
// triage splitter consuming the "postfilter" routing flag from Evidence, which
// yields a copy rather than mutating the original.
type Detection struct {
	RuleID   string   `json:"rule_id"`
	Smell    Smell    `json:"smell"`
	Tech     Tech     `json:"tech"`
	File     string   `json:"file"` // Repo-relative path. Line 0 means "file-level".
	Line     int      `json:"line"`
	Snippet  string   `json:"snippet"`
	Message  string   `json:"message"`
	Severity Severity `json:"severity"`

	// Evidence is an open key-value bag the detector uses to attach ad hoc
	// side-channel hints, such as the post-filter routing flag.
	Evidence map[string]any `json:"evidence"`
}

// Prediction is the triage outcome for one Detection. Predictions are paired
// with detections positionally: same length, same order, no foreign keys.
type Prediction struct {
	Label     Label   `json:"label"`
	Score     float64 `json:"score"`
	Rationale string  `json:"rationale,omitempty"`
}

// Pair binds a detection to its prediction for policy evaluation and export.
type Pair struct {
	Detection  Detection
	Prediction Prediction
}

// Zip pairs detections with predictions index by index. It is the caller's
// responsibility that both slices are the same length.
func Zip(detections []Detection, predictions []Prediction) []Pair {
	pairs := make([]Pair, 0, len(detections))
	for i := range detections {
		pairs = append(pairs, Pair{Detection: detections[i], Prediction: predictions[i]})
	}
	return pairs
}

// DetectorRunner is the boundary to the external symbolic detector. The
// production implementation shells out to the GLITCH binary; tests substitute
// a fake.
type DetectorRunner interface {
	Run(ctx context.Context, path string, tech Tech) ([]Detection, error)
}
