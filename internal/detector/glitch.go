// File: internal/detector/glitch.go
// Description: Adapter boundary to the vendored GLITCH symbolic detector.
// Invokes the external tool and normalizes its JSON report to the Detection
// schema. Tool execution errors are opaque and fatal to the pipeline.

package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"

	"go.uber.org/zap"

	"github.com/intellisa/iacsec/api/schemas"
)

// ErrDetectorFailed wraps GLITCH execution or output-parsing errors.
var ErrDetectorFailed = errors.New("detector execution failed")

// DefaultBinary is the GLITCH entrypoint looked up on PATH when none is
// configured.
const DefaultBinary = "glitch"

// glitchRecord is GLITCH's per-finding JSON shape (simplified).
type glitchRecord struct {
	RuleID   string         `json:"rule_id"`
	Smell    string         `json:"smell"`
	Tech     string         `json:"tech"`
	File     string         `json:"file"`
	Line     int            `json:"line"`
	Snippet  string         `json:"snippet"`
	Message  string         `json:"message"`
	Severity string         `json:"severity"`
	Evidence map[string]any `json:"evidence"`
}

// Glitch shells out to the GLITCH binary.
type Glitch struct {
	binary string
	logger *zap.Logger
}

// NewGlitch creates the production detector runner. An empty binary falls back
// to DefaultBinary.
func NewGlitch(binary string, logger *zap.Logger) *Glitch {
	if binary == "" {
		binary = DefaultBinary
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Glitch{binary: binary, logger: logger.Named("detector")}
}

// Run executes GLITCH against path and normalizes its report.
func (g *Glitch) Run(ctx context.Context, path string, tech schemas.Tech) ([]schemas.Detection, error) {
	cmd := exec.CommandContext(ctx, g.binary, "--path", path, "--tech", string(tech), "--format", "json")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	g.logger.Debug("Invoking GLITCH",
		zap.String("binary", g.binary),
		zap.String("path", path),
		zap.String("tech", string(tech)),
	)

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v (stderr: %s)", ErrDetectorFailed, g.binary, err, stderr.String())
	}

	detections, err := normalize(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%w: parsing output: %v", ErrDetectorFailed, err)
	}

	g.logger.Info("GLITCH run complete",
		zap.String("path", path),
		zap.Int("detections", len(detections)),
	)
	return detections, nil
}

// normalize maps the raw GLITCH report into Detection records.
func normalize(raw []byte) ([]schemas.Detection, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	var records []glitchRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, err
	}

	var out []schemas.Detection
	for _, rec := range records {
		evidence := rec.Evidence
		if evidence == nil {
			evidence = map[string]any{}
		}
		out = append(out, schemas.Detection{
			RuleID:   rec.RuleID,
			Smell:    schemas.Smell(rec.Smell),
			Tech:     schemas.Tech(rec.Tech),
			File:     rec.File,
			Line:     rec.Line,
			Snippet:  rec.Snippet,
			Message:  rec.Message,
			Severity: schemas.Severity(rec.Severity),
			Evidence: evidence,
		})
	}
	return out, nil
}
