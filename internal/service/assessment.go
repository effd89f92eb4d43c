package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
	"github.com/samanyuahuja/NephroCare-sub000/internal/predictor"
)

// AssessmentCache is an optional read-through cache for stored assessments.
type AssessmentCache interface {
	GetAssessment(ctx context.Context, id int64) (*domain.Assessment, bool)
	SetAssessment(ctx context.Context, assessment *domain.Assessment)
	InvalidateAssessment(ctx context.Context, id int64)
}

// AssessmentService runs the screening pipeline: validate, normalize,
// persist a pending record, score it through the predictor chain and enrich
// the record. A prediction failure never fails the submission; the caller
// receives the unenriched record.
type AssessmentService struct {
	store        domain.AssessmentStore
	orchestrator domain.PredictionOrchestrator
	explainer    domain.ExplanationGenerator
	cache        AssessmentCache
	log          *logrus.Logger
}

// NewAssessmentService creates the service. explainer and cache may be nil.
func NewAssessmentService(
	store domain.AssessmentStore,
	orchestrator domain.PredictionOrchestrator,
	explainer domain.ExplanationGenerator,
	cache AssessmentCache,
	logger *logrus.Logger,
) *AssessmentService {
	return &AssessmentService{
		store:        store,
		orchestrator: orchestrator,
		explainer:    explainer,
		cache:        cache,
		log:          logger,
	}
}

// SubmissionResult pairs the stored record with the prediction outcome so
// the handler can report which model variant answered, if any.
type SubmissionResult struct {
	Assessment *domain.Assessment       `json:"assessment"`
	Prediction *domain.PredictionResult `json:"prediction"`
}

// Submit processes one screening questionnaire end to end.
func (s *AssessmentService) Submit(ctx context.Context, sub *domain.AssessmentSubmission) (*SubmissionResult, error) {
	if err := predictor.Validate(sub); err != nil {
		return nil, err
	}

	record := predictor.Normalize(sub)
	assessment, err := s.store.CreateAssessment(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("persisting assessment: %w", err)
	}

	result := s.orchestrator.Predict(ctx, predictor.Features(record))
	if !result.Success {
		s.log.WithFields(logrus.Fields{
			"assessment_id": assessment.ID,
			"failure":       string(result.Failure),
		}).Warn("Prediction failed, returning unenriched assessment")

		if err := s.store.MarkFailed(ctx, assessment.ID); err != nil {
			s.log.WithError(err).WithField("assessment_id", assessment.ID).Error("Could not mark assessment failed")
		} else {
			assessment.RiskStatus = domain.StatusFailed
		}
		return &SubmissionResult{Assessment: assessment, Prediction: result}, nil
	}

	explanation := s.explain(ctx, record, result)

	enriched, err := s.store.UpdateRisk(ctx, assessment.ID, result.Probability, result.RiskLevel, explanation)
	if err != nil {
		return nil, fmt.Errorf("updating risk fields: %w", err)
	}

	if s.cache != nil {
		s.cache.InvalidateAssessment(ctx, enriched.ID)
	}

	s.log.WithFields(logrus.Fields{
		"assessment_id": enriched.ID,
		"risk_level":    result.RiskLevel.String(),
		"probability":   result.Probability,
		"variant":       string(result.Variant),
	}).Info("Assessment scored")

	return &SubmissionResult{Assessment: enriched, Prediction: result}, nil
}

// explain runs the optional explanation generator. Any failure is swallowed
// and the record simply carries no explanation blob.
func (s *AssessmentService) explain(ctx context.Context, record *domain.ClinicalRecord, result *domain.PredictionResult) *string {
	if s.explainer == nil {
		return nil
	}

	impacts, err := s.explainer.Explain(ctx, predictor.Features(record), result.Probability, result.RiskLevel)
	if err != nil {
		s.log.WithError(err).Debug("Explanation generation failed, continuing without blob")
		return nil
	}
	if len(impacts) == 0 {
		return nil
	}

	blob, err := json.Marshal(impacts)
	if err != nil {
		s.log.WithError(err).Debug("Could not encode explanation blob")
		return nil
	}
	encoded := string(blob)
	return &encoded
}

// Get fetches one assessment, consulting the cache first.
func (s *AssessmentService) Get(ctx context.Context, id int64) (*domain.Assessment, error) {
	if s.cache != nil {
		if cached, ok := s.cache.GetAssessment(ctx, id); ok {
			return cached, nil
		}
	}

	assessment, err := s.store.GetAssessment(ctx, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.SetAssessment(ctx, assessment)
	}
	return assessment, nil
}

// List returns all stored assessments, newest first.
func (s *AssessmentService) List(ctx context.Context) ([]*domain.Assessment, error) {
	return s.store.ListAssessments(ctx)
}
