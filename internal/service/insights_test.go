package service

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

func newInsights(t *testing.T) *InsightsService {
	t.Helper()
	svc, err := NewInsightsService(0, testLogger())
	require.NoError(t, err)
	return svc
}

func assessmentWithBlob(blob *string) *domain.Assessment {
	return &domain.Assessment{
		ID: 1,
		ClinicalRecord: domain.ClinicalRecord{
			PatientName:        "Test",
			Age:                60,
			BloodPressure:      150,
			Albumin:            3,
			SerumCreatinine:    2.4,
			BloodUrea:          55,
			BloodGlucoseRandom: 210,
			Sodium:             133,
			Potassium:          5.1,
			Hemoglobin:         9.8,
			WhiteBloodCells:    10200,
			RedBloodCellCount:  3.9,
		},
		Explanation: blob,
		CreatedAt:   time.Now(),
	}
}

func TestExplanationTopFactorsOrderedByMagnitude(t *testing.T) {
	blob := `[
		{"feature":"serum_creatinine","impact":0.4},
		{"feature":"hemoglobin","impact":-0.3},
		{"feature":"albumin","impact":0.35},
		{"feature":"age","impact":0.1},
		{"feature":"sodium","impact":-0.05},
		{"feature":"blood_pressure","impact":0.2},
		{"feature":"potassium","impact":0.02}
	]`
	report := newInsights(t).Explanation(assessmentWithBlob(&blob))

	require.Len(t, report.TopFactors, 3)
	assert.Equal(t, "serum_creatinine", report.TopFactors[0].Feature)
	assert.Equal(t, "albumin", report.TopFactors[1].Feature)
	assert.Equal(t, "hemoglobin", report.TopFactors[2].Feature)

	require.Len(t, report.TopFeatures, 5)
	for i := 1; i < len(report.TopFeatures); i++ {
		assert.GreaterOrEqual(t,
			math.Abs(report.TopFeatures[i-1].Impact),
			math.Abs(report.TopFeatures[i].Impact),
			"top features must be ordered by absolute impact")
	}
	assert.False(t, report.Derived)
}

func TestExplanationFallsBackToThresholds(t *testing.T) {
	tests := []struct {
		name string
		blob *string
	}{
		{"absent", nil},
		{"unparsable", ptr(`{not json`)},
		{"empty", ptr(`[]`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			report := newInsights(t).Explanation(assessmentWithBlob(tt.blob))
			assert.True(t, report.Derived)
			require.Len(t, report.TopFeatures, 5)
			require.Len(t, report.TopFactors, 3)

			// Elevated creatinine dominates the threshold derivation for
			// this record.
			assert.Equal(t, "serum_creatinine", report.TopFeatures[0].Feature)
			assert.Equal(t, 0.30, report.TopFeatures[0].Impact)
		})
	}
}

func TestExplanationLimeEntriesMatchTopFeatures(t *testing.T) {
	report := newInsights(t).Explanation(assessmentWithBlob(nil))

	require.Len(t, report.LimeEntries, len(report.TopFeatures))
	for i, entry := range report.LimeEntries {
		assert.Equal(t, report.TopFeatures[i].Feature, entry.Feature)
		assert.Equal(t, report.TopFeatures[i].Impact, entry.Weight)
		assert.NotEmpty(t, entry.Reasoning)
	}
}

func TestPDPCreatinineCurve(t *testing.T) {
	svc := newInsights(t)
	assessment := assessmentWithBlob(nil)

	curve, err := svc.PDPCurve(assessment, "serum_creatinine")
	require.NoError(t, err)

	require.Len(t, curve.Points, 26)
	assert.Equal(t, 0.5, curve.Points[0].Value)
	assert.Equal(t, 4.0, curve.Points[25].Value)
	assert.Equal(t, 2.4, curve.PatientValue)

	// Sigmoid shape: low at 0.5 mg/dL, saturated near 4.0, inflection
	// around 1.5, monotonically nondecreasing throughout.
	assert.InDelta(t, 1/(1+math.Exp(3)), curve.Points[0].Effect, 1e-9)
	assert.Greater(t, curve.Points[25].Effect, 0.99)
	for i := 1; i < len(curve.Points); i++ {
		assert.GreaterOrEqual(t, curve.Points[i].Effect, curve.Points[i-1].Effect)
	}
}

func TestPDPCurvesStayInUnitRange(t *testing.T) {
	svc := newInsights(t)
	assessment := assessmentWithBlob(nil)

	keys := svc.PDPFeatureKeys()
	require.Len(t, keys, 11)

	for _, key := range keys {
		curve, err := svc.PDPCurve(assessment, key)
		require.NoError(t, err, key)
		require.Len(t, curve.Points, 26, key)
		for _, p := range curve.Points {
			assert.GreaterOrEqual(t, p.Effect, 0.0, key)
			assert.LessOrEqual(t, p.Effect, 1.0, key)
		}
	}
}

func TestPDPElectrolyteCurvesAreVShaped(t *testing.T) {
	svc := newInsights(t)
	curve, err := svc.PDPCurve(assessmentWithBlob(nil), "sodium")
	require.NoError(t, err)

	// Minimum effect sits at the normal value (140), with higher risk
	// toward both edges of the domain.
	minIdx := 0
	for i, p := range curve.Points {
		if p.Effect < curve.Points[minIdx].Effect {
			minIdx = i
		}
	}
	assert.InDelta(t, 140, curve.Points[minIdx].Value, 1.0)
	assert.Greater(t, curve.Points[0].Effect, curve.Points[minIdx].Effect)
	assert.Greater(t, curve.Points[25].Effect, curve.Points[minIdx].Effect)
}

func TestPDPUnknownFeature(t *testing.T) {
	_, err := newInsights(t).PDPCurve(assessmentWithBlob(nil), "shoe_size")
	require.Error(t, err)

	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestReportContainsRiskAndFactors(t *testing.T) {
	svc := newInsights(t)
	assessment := assessmentWithBlob(nil)
	p := 0.72
	level := domain.RiskHigh
	assessment.RiskProbability = &p
	assessment.RiskLevel = &level
	assessment.RiskStatus = domain.StatusComputed

	report := svc.Report(assessment)
	assert.Contains(t, report, "Risk Level: High")
	assert.Contains(t, report, "72.0%")
	assert.Contains(t, report, "serum_creatinine")
	assert.Contains(t, report, "Recommendations")
}

func TestReportWithoutRisk(t *testing.T) {
	report := newInsights(t).Report(assessmentWithBlob(nil))
	assert.Contains(t, report, "not available")
}

func ptr(s string) *string { return &s }
