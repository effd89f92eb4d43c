package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// Kidney-friendly food lists per diet type.
var (
	vegetarianEat = []string{
		"Red bell peppers", "Cabbage", "Cauliflower", "Garlic", "Onions",
		"Apples", "Cranberries", "Blueberries", "White rice", "Olive oil",
	}
	vegetarianAvoid = []string{
		"Bananas", "Oranges", "Potatoes", "Tomatoes", "Whole wheat bread",
		"Brown rice", "Dairy products", "Nuts and seeds", "Pickled foods",
		"Processed foods",
	}
	nonVegetarianEat = []string{
		"Egg whites", "Skinless chicken", "Sea bass", "Lean turkey",
	}
	nonVegetarianAvoid = []string{
		"Red meat", "Organ meats", "Processed meats", "Canned fish in brine",
	}

	waterIntakeAdvice = "Aim for 2 to 3 liters of water per day unless your physician has advised a fluid restriction."
)

// DietPlanService generates and persists kidney-friendly diet plans. A plan
// already generated for the same assessment and diet type is reused.
type DietPlanService struct {
	store       domain.DietPlanStore
	assessments domain.AssessmentStore
	log         *logrus.Logger
}

// NewDietPlanService creates the service.
func NewDietPlanService(store domain.DietPlanStore, assessments domain.AssessmentStore, logger *logrus.Logger) *DietPlanService {
	return &DietPlanService{
		store:       store,
		assessments: assessments,
		log:         logger,
	}
}

// Generate returns the diet plan for an assessment, creating it on first
// request.
func (s *DietPlanService) Generate(ctx context.Context, assessmentID int64, dietType domain.DietType) (*domain.DietPlan, error) {
	if !dietType.IsValid() {
		return nil, domain.NewValidationError("diet_type", "must be vegetarian or non-vegetarian", string(dietType))
	}

	if _, err := s.assessments.GetAssessment(ctx, assessmentID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("loading assessment %d: %w", assessmentID, err)
	}

	existing, err := s.store.GetDietPlanByAssessment(ctx, assessmentID, dietType)
	if err == nil {
		s.log.WithFields(logrus.Fields{
			"assessment_id": assessmentID,
			"diet_type":     string(dietType),
		}).Debug("Reusing existing diet plan")
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("looking up diet plan: %w", err)
	}

	plan := buildDietPlan(assessmentID, dietType)
	created, err := s.store.CreateDietPlan(ctx, plan)
	if err != nil {
		return nil, fmt.Errorf("persisting diet plan: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"assessment_id": assessmentID,
		"diet_type":     string(dietType),
		"plan_id":       created.ID,
	}).Info("Diet plan generated")
	return created, nil
}

// List returns all generated diet plans.
func (s *DietPlanService) List(ctx context.Context) ([]*domain.DietPlan, error) {
	return s.store.ListDietPlans(ctx)
}

// ForAssessment returns the stored plan for an assessment and diet type.
func (s *DietPlanService) ForAssessment(ctx context.Context, assessmentID int64, dietType domain.DietType) (*domain.DietPlan, error) {
	if !dietType.IsValid() {
		return nil, domain.NewValidationError("diet_type", "must be vegetarian or non-vegetarian", string(dietType))
	}
	return s.store.GetDietPlanByAssessment(ctx, assessmentID, dietType)
}

func buildDietPlan(assessmentID int64, dietType domain.DietType) *domain.DietPlan {
	eat := append([]string{}, vegetarianEat...)
	avoid := append([]string{}, vegetarianAvoid...)
	if dietType == domain.DietNonVegetarian {
		eat = append(eat, nonVegetarianEat...)
		avoid = append(avoid, nonVegetarianAvoid...)
	}
	return &domain.DietPlan{
		AssessmentID: assessmentID,
		DietType:     dietType,
		FoodsToEat:   eat,
		FoodsToAvoid: avoid,
		WaterIntake:  waterIntakeAdvice,
	}
}
