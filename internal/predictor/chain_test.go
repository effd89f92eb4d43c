package predictor

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

type stubPredictor struct {
	name   string
	result *domain.PredictionResult
	err    error
	calls  int
}

func (s *stubPredictor) Predict(ctx context.Context, features *domain.FeatureVector) (*domain.PredictionResult, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := *s.result
	return &out, nil
}

func (s *stubPredictor) Name() string { return s.name }

func okResult(p float64) *domain.PredictionResult {
	level := domain.RiskLevelForProbability(p)
	return &domain.PredictionResult{
		Success:     true,
		Probability: p,
		RiskLevel:   level,
		RiskColor:   domain.ColorForRiskLevel(level),
	}
}

func TestChainPrimarySucceeds(t *testing.T) {
	primary := &stubPredictor{name: "primary", result: okResult(0.2)}
	fallback := &stubPredictor{name: "fallback", result: okResult(0.9)}
	chain := NewFallbackChain(primary, fallback, testLogger())

	result := chain.Predict(context.Background(), testFeatures())

	require.True(t, result.Success)
	assert.Equal(t, domain.VariantPrimary, result.Variant)
	assert.Equal(t, 0.2, result.Probability)
	assert.Equal(t, 0, fallback.calls, "fallback must not run when primary succeeds")
}

func TestChainFallsBackOnPrimaryFailure(t *testing.T) {
	primary := &stubPredictor{name: "primary", err: fmt.Errorf("predictor primary process failed")}
	fallback := &stubPredictor{name: "fallback", result: okResult(0.65)}
	chain := NewFallbackChain(primary, fallback, testLogger())

	result := chain.Predict(context.Background(), testFeatures())

	require.True(t, result.Success)
	assert.Equal(t, domain.VariantFallback, result.Variant)
	assert.Equal(t, domain.RiskHigh, result.RiskLevel)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
}

func TestChainBothFailNeverErrors(t *testing.T) {
	primary := &stubPredictor{name: "primary", err: errors.New("boom")}
	fallback := &stubPredictor{name: "fallback", err: errors.New("boom too")}
	chain := NewFallbackChain(primary, fallback, testLogger())

	result := chain.Predict(context.Background(), testFeatures())

	require.NotNil(t, result)
	assert.False(t, result.Success)
	assert.Equal(t, domain.VariantNone, result.Variant)
	assert.Equal(t, domain.FailureError, result.Failure)
	assert.Empty(t, result.RiskLevel)
}

func TestChainReportsTimeout(t *testing.T) {
	primary := &stubPredictor{name: "primary", err: fmt.Errorf("timed out: %w", context.DeadlineExceeded)}
	chain := NewFallbackChain(primary, nil, testLogger())

	result := chain.Predict(context.Background(), testFeatures())

	assert.False(t, result.Success)
	assert.Equal(t, domain.FailureTimeout, result.Failure)
}

func TestChainNoPredictorsConfigured(t *testing.T) {
	chain := NewFallbackChain(nil, nil, testLogger())

	result := chain.Predict(context.Background(), testFeatures())

	assert.False(t, result.Success)
	assert.Equal(t, domain.FailureExhausted, result.Failure)
}
