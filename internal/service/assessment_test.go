package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
	"github.com/samanyuahuja/NephroCare-sub000/internal/repository"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

type stubOrchestrator struct {
	result *domain.PredictionResult
}

func (s *stubOrchestrator) Predict(ctx context.Context, features *domain.FeatureVector) *domain.PredictionResult {
	out := *s.result
	return &out
}

type stubExplainer struct {
	impacts []domain.FeatureImpact
	err     error
}

func (s *stubExplainer) Explain(ctx context.Context, features *domain.FeatureVector, probability float64, level domain.RiskLevel) ([]domain.FeatureImpact, error) {
	return s.impacts, s.err
}

func validSubmission() *domain.AssessmentSubmission {
	return &domain.AssessmentSubmission{
		PatientName:     "Asha Rao",
		Age:             domain.Float(58),
		SerumCreatinine: domain.Float(2.2),
		Hemoglobin:      domain.Float(10.1),
		Hypertension:    "yes",
	}
}

func TestSubmitSuccessEnrichesRecord(t *testing.T) {
	store := repository.NewMemoryStore()
	orchestrator := &stubOrchestrator{result: &domain.PredictionResult{
		Success:     true,
		Probability: 0.67,
		RiskLevel:   domain.RiskHigh,
		RiskColor:   domain.ColorDanger,
		Variant:     domain.VariantPrimary,
	}}
	explainer := &stubExplainer{impacts: []domain.FeatureImpact{
		{Feature: "serum_creatinine", Impact: 0.31},
		{Feature: "hemoglobin", Impact: 0.22},
	}}

	svc := NewAssessmentService(store, orchestrator, explainer, nil, testLogger())

	result, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)

	assessment := result.Assessment
	assert.Equal(t, domain.StatusComputed, assessment.RiskStatus)
	require.NotNil(t, assessment.RiskProbability)
	require.NotNil(t, assessment.RiskLevel)
	assert.Equal(t, 0.67, *assessment.RiskProbability)
	assert.Equal(t, domain.RiskHigh, *assessment.RiskLevel)
	require.NotNil(t, assessment.Explanation)
	assert.Contains(t, *assessment.Explanation, "serum_creatinine")

	// Unknown fields took defaults during normalization.
	assert.Equal(t, float64(120), assessment.BloodPressure)
	assert.Equal(t, "yes", assessment.Hypertension)
}

func TestSubmitPredictionFailureStillSucceeds(t *testing.T) {
	store := repository.NewMemoryStore()
	orchestrator := &stubOrchestrator{result: &domain.PredictionResult{
		Success: false,
		Failure: domain.FailureError,
	}}

	svc := NewAssessmentService(store, orchestrator, nil, nil, testLogger())

	result, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err, "a failed prediction must not fail the submission")

	assessment := result.Assessment
	assert.Equal(t, domain.StatusFailed, assessment.RiskStatus)
	assert.Nil(t, assessment.RiskProbability)
	assert.Nil(t, assessment.RiskLevel)
	assert.Nil(t, assessment.Explanation)
	assert.False(t, result.Prediction.Success)

	// The record is persisted and retrievable.
	stored, err := svc.Get(context.Background(), assessment.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFailed, stored.RiskStatus)
	assert.False(t, stored.HasRisk())
}

func TestSubmitValidationFailurePersistsNothing(t *testing.T) {
	store := repository.NewMemoryStore()
	svc := NewAssessmentService(store, &stubOrchestrator{result: &domain.PredictionResult{Success: true}}, nil, nil, testLogger())

	_, err := svc.Submit(context.Background(), &domain.AssessmentSubmission{})
	require.Error(t, err)

	var verr *domain.ValidationError
	assert.True(t, errors.As(err, &verr))

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestSubmitExplainerFailureIsSwallowed(t *testing.T) {
	store := repository.NewMemoryStore()
	orchestrator := &stubOrchestrator{result: &domain.PredictionResult{
		Success:     true,
		Probability: 0.25,
		RiskLevel:   domain.RiskLow,
	}}
	explainer := &stubExplainer{err: errors.New("shap process crashed")}

	svc := NewAssessmentService(store, orchestrator, explainer, nil, testLogger())

	result, err := svc.Submit(context.Background(), validSubmission())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusComputed, result.Assessment.RiskStatus)
	assert.Nil(t, result.Assessment.Explanation)
}

func TestRiskFieldsBothOrNeither(t *testing.T) {
	store := repository.NewMemoryStore()

	for _, success := range []bool{true, false} {
		orchestrator := &stubOrchestrator{result: &domain.PredictionResult{
			Success:     success,
			Probability: 0.5,
			RiskLevel:   domain.RiskModerate,
			Failure:     domain.FailureError,
		}}
		svc := NewAssessmentService(store, orchestrator, nil, nil, testLogger())

		result, err := svc.Submit(context.Background(), validSubmission())
		require.NoError(t, err)

		a := result.Assessment
		assert.Equal(t, a.RiskProbability != nil, a.RiskLevel != nil,
			"probability and level must be set together or not at all")
	}
}

func TestGetNotFound(t *testing.T) {
	svc := NewAssessmentService(repository.NewMemoryStore(), &stubOrchestrator{result: &domain.PredictionResult{}}, nil, nil, testLogger())

	_, err := svc.Get(context.Background(), 404)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
