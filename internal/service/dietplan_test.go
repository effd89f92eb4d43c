package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
	"github.com/samanyuahuja/NephroCare-sub000/internal/predictor"
	"github.com/samanyuahuja/NephroCare-sub000/internal/repository"
)

func storeWithAssessment(t *testing.T) (*repository.MemoryStore, *domain.Assessment) {
	t.Helper()
	store := repository.NewMemoryStore()
	assessment, err := store.CreateAssessment(context.Background(),
		predictor.Normalize(&domain.AssessmentSubmission{PatientName: "Dieter"}))
	require.NoError(t, err)
	return store, assessment
}

func TestGenerateVegetarianPlan(t *testing.T) {
	store, assessment := storeWithAssessment(t)
	svc := NewDietPlanService(store, store, testLogger())

	plan, err := svc.Generate(context.Background(), assessment.ID, domain.DietVegetarian)
	require.NoError(t, err)

	assert.Equal(t, domain.DietVegetarian, plan.DietType)
	assert.Contains(t, plan.FoodsToEat, "Cauliflower")
	assert.Contains(t, plan.FoodsToAvoid, "Bananas")
	assert.NotContains(t, plan.FoodsToEat, "Skinless chicken")
	assert.NotEmpty(t, plan.WaterIntake)
}

func TestGenerateNonVegetarianPlanExtendsLists(t *testing.T) {
	store, assessment := storeWithAssessment(t)
	svc := NewDietPlanService(store, store, testLogger())

	plan, err := svc.Generate(context.Background(), assessment.ID, domain.DietNonVegetarian)
	require.NoError(t, err)

	assert.Contains(t, plan.FoodsToEat, "Cauliflower")
	assert.Contains(t, plan.FoodsToEat, "Skinless chicken")
	assert.Contains(t, plan.FoodsToAvoid, "Red meat")
}

func TestGenerateReusesExistingPlan(t *testing.T) {
	store, assessment := storeWithAssessment(t)
	svc := NewDietPlanService(store, store, testLogger())

	first, err := svc.Generate(context.Background(), assessment.ID, domain.DietVegetarian)
	require.NoError(t, err)
	second, err := svc.Generate(context.Background(), assessment.ID, domain.DietVegetarian)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "repeat request for the same type must reuse the stored plan")

	plans, err := svc.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, plans, 1)

	// A different diet type still generates a new plan.
	third, err := svc.Generate(context.Background(), assessment.ID, domain.DietNonVegetarian)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	store, assessment := storeWithAssessment(t)
	svc := NewDietPlanService(store, store, testLogger())

	_, err := svc.Generate(context.Background(), assessment.ID, "keto")
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = svc.Generate(context.Background(), 9999, domain.DietVegetarian)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
