package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// DietPlanRepository persists diet plans via database/sql on Postgres. Food
// lists are stored as text arrays.
type DietPlanRepository struct {
	db  *sql.DB
	log *logrus.Logger
}

// NewDietPlanRepository creates a new diet plan repository
func NewDietPlanRepository(db *sql.DB, logger *logrus.Logger) *DietPlanRepository {
	return &DietPlanRepository{
		db:  db,
		log: logger,
	}
}

// CreateDietPlan inserts a generated plan.
func (r *DietPlanRepository) CreateDietPlan(ctx context.Context, plan *domain.DietPlan) (*domain.DietPlan, error) {
	query := `
		INSERT INTO diet_plans (assessment_id, diet_type, foods_to_eat, foods_to_avoid, water_intake)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	stored := *plan
	err := r.db.QueryRowContext(ctx, query,
		plan.AssessmentID,
		string(plan.DietType),
		pq.Array(plan.FoodsToEat),
		pq.Array(plan.FoodsToAvoid),
		plan.WaterIntake,
	).Scan(&stored.ID, &stored.CreatedAt)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"assessment_id": plan.AssessmentID,
			"diet_type":     string(plan.DietType),
			"error":         err,
		}).Error("Failed to create diet plan")
		return nil, fmt.Errorf("creating diet plan: %w", err)
	}

	return &stored, nil
}

// GetDietPlanByAssessment fetches the plan previously generated for an
// assessment and diet type.
func (r *DietPlanRepository) GetDietPlanByAssessment(ctx context.Context, assessmentID int64, dietType domain.DietType) (*domain.DietPlan, error) {
	query := `
		SELECT id, assessment_id, diet_type, foods_to_eat, foods_to_avoid, water_intake, created_at
		FROM diet_plans
		WHERE assessment_id = $1 AND diet_type = $2
		ORDER BY created_at DESC
		LIMIT 1`

	plan, err := scanDietPlan(r.db.QueryRowContext(ctx, query, assessmentID, string(dietType)))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("diet plan for assessment %d: %w", assessmentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting diet plan: %w", err)
	}
	return plan, nil
}

// ListDietPlans returns all plans, newest first.
func (r *DietPlanRepository) ListDietPlans(ctx context.Context) ([]*domain.DietPlan, error) {
	query := `
		SELECT id, assessment_id, diet_type, foods_to_eat, foods_to_avoid, water_intake, created_at
		FROM diet_plans
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing diet plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.DietPlan
	for rows.Next() {
		plan, err := scanDietPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning diet plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating diet plan rows: %w", err)
	}

	return plans, nil
}

func scanDietPlan(row rowScanner) (*domain.DietPlan, error) {
	var (
		plan     domain.DietPlan
		dietType string
		eat      pq.StringArray
		avoid    pq.StringArray
	)
	if err := row.Scan(&plan.ID, &plan.AssessmentID, &dietType, &eat, &avoid, &plan.WaterIntake, &plan.CreatedAt); err != nil {
		return nil, err
	}
	plan.DietType = domain.DietType(dietType)
	plan.FoodsToEat = []string(eat)
	plan.FoodsToAvoid = []string(avoid)
	return &plan, nil
}
