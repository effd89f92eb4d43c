package predictor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// DefaultTimeout bounds a single predictor process run.
const DefaultTimeout = 30 * time.Second

// processOutput is the JSON object a predictor process writes to stdout.
type processOutput struct {
	Success     bool    `json:"success"`
	Prediction  int     `json:"prediction"`
	Probability float64 `json:"probability"`
	RiskLevel   string  `json:"risk_level"`
	RiskColor   string  `json:"risk_color"`
	ModelUsed   string  `json:"model_used"`
	Error       string  `json:"error"`
}

// ProcessPredictor runs one external model process per prediction. The
// feature vector is passed as a JSON argument; the process must print a
// single JSON result object to stdout. Runs are bounded by a timeout and the
// process is killed when the deadline passes.
type ProcessPredictor struct {
	name    string
	command []string
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker
	log     *logrus.Logger
}

// NewProcessPredictor creates a predictor for the given command line. The
// breaker, when configured, counts consecutive process failures and skips
// the process entirely while open; an open breaker is reported as a normal
// prediction failure so the fallback chain advances.
func NewProcessPredictor(name string, command []string, cfg *domain.PredictorConfig, logger *logrus.Logger) *ProcessPredictor {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	p := &ProcessPredictor{
		name:    name,
		command: command,
		timeout: timeout,
		log:     logger,
	}

	if cfg.BreakerEnabled {
		maxFails := cfg.BreakerMaxFails
		if maxFails == 0 {
			maxFails = 3
		}
		cooldown := cfg.BreakerCooldown
		if cooldown <= 0 {
			cooldown = 60 * time.Second
		}
		p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: cooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= maxFails
			},
			OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
				logger.WithFields(logrus.Fields{
					"predictor": name,
					"from":      from.String(),
					"to":        to.String(),
				}).Warn("Predictor circuit breaker state changed")
			},
		})
	}

	return p
}

// Name identifies the predictor in logs and chain decisions.
func (p *ProcessPredictor) Name() string {
	return p.name
}

// Predict runs the model process on the given features.
func (p *ProcessPredictor) Predict(ctx context.Context, features *domain.FeatureVector) (*domain.PredictionResult, error) {
	if p.breaker == nil {
		return p.run(ctx, features)
	}

	result, err := p.breaker.Execute(func() (interface{}, error) {
		return p.run(ctx, features)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("predictor %s unavailable (circuit breaker open): %w", p.name, err)
		}
		return nil, err
	}
	return result.(*domain.PredictionResult), nil
}

func (p *ProcessPredictor) run(ctx context.Context, features *domain.FeatureVector) (*domain.PredictionResult, error) {
	if len(p.command) == 0 {
		return nil, fmt.Errorf("predictor %s has no command configured", p.name)
	}

	payload, err := json.Marshal(features)
	if err != nil {
		return nil, fmt.Errorf("encoding feature vector: %w", err)
	}

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	args := append(append([]string{}, p.command[1:]...), string(payload))
	cmd := exec.CommandContext(runCtx, p.command[0], args...)
	isolateProcessGroup(cmd)
	// Stop waiting on the output pipes shortly after the kill, in case a
	// descendant survived it and still holds them.
	cmd.WaitDelay = time.Second

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	runErr := cmd.Run()
	elapsed := time.Since(start)

	if runCtx.Err() == context.DeadlineExceeded {
		p.log.WithFields(logrus.Fields{
			"predictor": p.name,
			"timeout":   p.timeout.String(),
			"elapsed":   elapsed.String(),
		}).Warn("Predictor process timed out and was killed")
		return nil, fmt.Errorf("predictor %s timed out after %s: %w", p.name, p.timeout, context.DeadlineExceeded)
	}
	if runErr != nil {
		return nil, fmt.Errorf("predictor %s process failed: %w (stderr: %s)", p.name, runErr, strings.TrimSpace(stderr.String()))
	}

	out, err := parseOutput(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("predictor %s produced unusable output: %w", p.name, err)
	}
	if !out.Success {
		if out.Error != "" {
			return nil, fmt.Errorf("predictor %s reported failure: %s", p.name, out.Error)
		}
		return nil, fmt.Errorf("predictor %s reported failure", p.name)
	}
	if out.Probability < 0 || out.Probability > 1 {
		return nil, fmt.Errorf("predictor %s returned probability %f outside [0,1]", p.name, out.Probability)
	}

	level, ok := domain.ParseRiskLevel(out.RiskLevel)
	if !ok {
		level = domain.RiskLevelForProbability(out.Probability)
	}

	p.log.WithFields(logrus.Fields{
		"predictor":   p.name,
		"probability": out.Probability,
		"risk_level":  level.String(),
		"model":       out.ModelUsed,
		"elapsed":     elapsed.String(),
	}).Info("Prediction completed")

	return &domain.PredictionResult{
		Success:     true,
		Prediction:  out.Prediction,
		Probability: out.Probability,
		RiskLevel:   level,
		RiskColor:   domain.ColorForRiskLevel(level),
		ModelUsed:   out.ModelUsed,
	}, nil
}

// parseOutput decodes the result object from process stdout. Model scripts
// occasionally print library warnings before the result, so when the full
// output is not valid JSON the last line that looks like an object is tried.
func parseOutput(raw []byte) (*processOutput, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("empty output")
	}

	var out processOutput
	if err := json.Unmarshal(trimmed, &out); err == nil {
		return &out, nil
	}

	lines := strings.Split(string(trimmed), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") {
			continue
		}
		if err := json.Unmarshal([]byte(line), &out); err == nil {
			return &out, nil
		}
	}
	return nil, fmt.Errorf("no JSON result object in output")
}
