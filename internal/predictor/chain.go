package predictor

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// FallbackChain orchestrates the primary and fallback predictors. It never
// returns an error: when every predictor fails the caller receives a result
// with Success=false and a failure reason, so the screening request itself
// can still succeed.
type FallbackChain struct {
	primary  domain.Predictor
	fallback domain.Predictor
	log      *logrus.Logger
}

// NewFallbackChain creates the orchestrator. Either predictor may be nil.
func NewFallbackChain(primary, fallback domain.Predictor, logger *logrus.Logger) *FallbackChain {
	return &FallbackChain{
		primary:  primary,
		fallback: fallback,
		log:      logger,
	}
}

// Predict tries the primary predictor, then the fallback with the same
// feature vector and timeout bound. A successful result is tagged with the
// variant that produced it.
func (c *FallbackChain) Predict(ctx context.Context, features *domain.FeatureVector) *domain.PredictionResult {
	var lastErr error

	if c.primary != nil {
		result, err := c.primary.Predict(ctx, features)
		if err == nil {
			result.Variant = domain.VariantPrimary
			return result
		}
		lastErr = err
		c.log.WithError(err).WithField("predictor", c.primary.Name()).Warn("Primary predictor failed, trying fallback")
	}

	if c.fallback != nil {
		result, err := c.fallback.Predict(ctx, features)
		if err == nil {
			result.Variant = domain.VariantFallback
			return result
		}
		lastErr = err
		c.log.WithError(err).WithField("predictor", c.fallback.Name()).Error("Fallback predictor failed")
	}

	return &domain.PredictionResult{
		Success: false,
		Variant: domain.VariantNone,
		Failure: classifyFailure(lastErr),
	}
}

func classifyFailure(err error) domain.FailureReason {
	switch {
	case err == nil:
		return domain.FailureExhausted
	case errors.Is(err, context.DeadlineExceeded):
		return domain.FailureTimeout
	default:
		return domain.FailureError
	}
}
