package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// explainInput is the JSON argument handed to the explanation process: the
// feature vector plus the score it should explain.
type explainInput struct {
	domain.FeatureVector
	Probability float64 `json:"probability"`
	RiskLevel   string  `json:"risk_level"`
}

// explainOutput mirrors the parallel-array payload the SHAP script emits.
type explainOutput struct {
	Success  bool      `json:"success"`
	Features []string  `json:"features"`
	Values   []float64 `json:"values"`
	Error    string    `json:"error"`
}

// ProcessExplainer runs an external SHAP-style explanation process. Its
// failures are non-fatal: callers swallow errors and persist records without
// an explanation blob.
type ProcessExplainer struct {
	command []string
	timeout time.Duration
	log     *logrus.Logger
}

// NewProcessExplainer creates the explainer; command may be empty, in which
// case Explain reports that no generator is configured.
func NewProcessExplainer(command []string, timeout time.Duration, logger *logrus.Logger) *ProcessExplainer {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ProcessExplainer{
		command: command,
		timeout: timeout,
		log:     logger,
	}
}

// Explain produces per-feature impacts for a scored feature vector.
func (e *ProcessExplainer) Explain(ctx context.Context, features *domain.FeatureVector, probability float64, level domain.RiskLevel) ([]domain.FeatureImpact, error) {
	if len(e.command) == 0 {
		return nil, fmt.Errorf("no explanation generator configured")
	}

	payload, err := json.Marshal(explainInput{
		FeatureVector: *features,
		Probability:   probability,
		RiskLevel:     level.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding explanation input: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	args := append(append([]string{}, e.command[1:]...), string(payload))
	cmd := exec.CommandContext(runCtx, e.command[0], args...)
	isolateProcessGroup(cmd)
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if runCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("explanation generator timed out after %s: %w", e.timeout, context.DeadlineExceeded)
		}
		return nil, fmt.Errorf("explanation generator failed: %w (stderr: %s)", err, strings.TrimSpace(stderr.String()))
	}

	var out explainOutput
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &out); err != nil {
		return nil, fmt.Errorf("decoding explanation output: %w", err)
	}
	if !out.Success {
		return nil, fmt.Errorf("explanation generator reported failure: %s", out.Error)
	}
	if len(out.Features) != len(out.Values) {
		return nil, fmt.Errorf("explanation output has %d features but %d values", len(out.Features), len(out.Values))
	}

	impacts := make([]domain.FeatureImpact, 0, len(out.Features))
	for i, f := range out.Features {
		impacts = append(impacts, domain.FeatureImpact{Feature: f, Impact: out.Values[i]})
	}

	e.log.WithField("feature_count", len(impacts)).Debug("Explanation generated")
	return impacts, nil
}
