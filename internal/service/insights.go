// Package service implements the screening workflows: assessment
// submission, explanation derivation, diet plan generation and the chatbot.
package service

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// pdpSamples is the number of evenly spaced points per partial dependence
// curve.
const pdpSamples = 26

// pdpFeature describes one clinical feature's dependence curve: its domain
// and the shape of the model's marginal response.
type pdpFeature struct {
	key    string
	label  string
	min    float64
	max    float64
	effect func(x float64) float64
	value  func(rec *domain.ClinicalRecord) float64
}

// Curve shapes approximate the trained models' marginal behavior: a sigmoid
// with an inflection near 1.5 mg/dL for creatinine, piecewise-linear ramps
// with a clinical inflection for urea, age, blood pressure and glucose,
// inverse-linear decay for hemoglobin and RBC count, and V-shaped
// deviation-from-normal for the electrolytes.
var pdpFeatures = []pdpFeature{
	{
		key: "serum_creatinine", label: "Serum Creatinine (mg/dL)", min: 0.5, max: 4.0,
		effect: func(x float64) float64 { return 1 / (1 + math.Exp(-3*(x-1.5))) },
		value:  func(r *domain.ClinicalRecord) float64 { return r.SerumCreatinine },
	},
	{
		key: "blood_urea", label: "Blood Urea (mg/dL)", min: 10, max: 80,
		effect: ramp(10, 80, 40, 0.10, 0.40, 0.90),
		value:  func(r *domain.ClinicalRecord) float64 { return r.BloodUrea },
	},
	{
		key: "age", label: "Age (years)", min: 20, max: 80,
		effect: ramp(20, 80, 50, 0.15, 0.30, 0.75),
		value:  func(r *domain.ClinicalRecord) float64 { return r.Age },
	},
	{
		key: "blood_pressure", label: "Blood Pressure (mm Hg)", min: 80, max: 180,
		effect: ramp(80, 180, 130, 0.10, 0.30, 0.80),
		value:  func(r *domain.ClinicalRecord) float64 { return r.BloodPressure },
	},
	{
		key: "blood_glucose_random", label: "Blood Glucose Random (mg/dL)", min: 70, max: 400,
		effect: ramp(70, 400, 180, 0.10, 0.30, 0.85),
		value:  func(r *domain.ClinicalRecord) float64 { return r.BloodGlucoseRandom },
	},
	{
		key: "hemoglobin", label: "Hemoglobin (g/dL)", min: 6, max: 16,
		effect: func(x float64) float64 { return 0.90 - 0.80*(x-6)/10 },
		value:  func(r *domain.ClinicalRecord) float64 { return r.Hemoglobin },
	},
	{
		key: "red_blood_cell_count", label: "Red Blood Cell Count (millions/cmm)", min: 2.5, max: 6.5,
		effect: func(x float64) float64 { return 0.85 - 0.70*(x-2.5)/4 },
		value:  func(r *domain.ClinicalRecord) float64 { return r.RedBloodCellCount },
	},
	{
		key: "sodium", label: "Sodium (mEq/L)", min: 125, max: 150,
		effect: func(x float64) float64 { return 0.15 + 0.50*math.Abs(x-140)/15 },
		value:  func(r *domain.ClinicalRecord) float64 { return r.Sodium },
	},
	{
		key: "potassium", label: "Potassium (mEq/L)", min: 2.5, max: 7.0,
		effect: func(x float64) float64 { return 0.15 + 0.50*math.Abs(x-4.5)/2.5 },
		value:  func(r *domain.ClinicalRecord) float64 { return r.Potassium },
	},
	{
		key: "albumin", label: "Albumin (0-5 scale)", min: 0, max: 5,
		effect: func(x float64) float64 { return 0.10 + 0.70*x/5 },
		value:  func(r *domain.ClinicalRecord) float64 { return r.Albumin },
	},
	{
		key: "white_blood_cell_count", label: "White Blood Cell Count (cells/cmm)", min: 4000, max: 15000,
		effect: ramp(4000, 15000, 11000, 0.15, 0.45, 0.70),
		value:  func(r *domain.ClinicalRecord) float64 { return r.WhiteBloodCells },
	},
}

// ramp builds a piecewise-linear response rising from lo at min to mid at
// the inflection point, then more steeply to hi at max.
func ramp(min, max, inflection, lo, mid, hi float64) func(float64) float64 {
	return func(x float64) float64 {
		if x <= inflection {
			return lo + (mid-lo)*(x-min)/(inflection-min)
		}
		return mid + (hi-mid)*(x-inflection)/(max-inflection)
	}
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

// InsightsService derives explanation artifacts for stored assessments:
// top-impact features, LIME-style reasoning entries, partial dependence
// curves and the text report. Curve points are deterministic per feature and
// cached in-process.
type InsightsService struct {
	curves *lru.Cache[string, []domain.PDPPoint]
	log    *logrus.Logger
}

// NewInsightsService creates the service. cacheLen bounds the PDP point
// cache; values below one fall back to the feature count.
func NewInsightsService(cacheLen int, logger *logrus.Logger) (*InsightsService, error) {
	if cacheLen < 1 {
		cacheLen = len(pdpFeatures)
	}
	curves, err := lru.New[string, []domain.PDPPoint](cacheLen)
	if err != nil {
		return nil, fmt.Errorf("creating PDP cache: %w", err)
	}
	return &InsightsService{curves: curves, log: logger}, nil
}

// PDPFeatureKeys lists the features a dependence curve exists for.
func (s *InsightsService) PDPFeatureKeys() []string {
	keys := make([]string, 0, len(pdpFeatures))
	for _, f := range pdpFeatures {
		keys = append(keys, f.key)
	}
	return keys
}

// PDPCurve samples the partial dependence curve for one feature and marks
// the assessment's own value on it.
func (s *InsightsService) PDPCurve(assessment *domain.Assessment, featureKey string) (*domain.PDPCurve, error) {
	var feature *pdpFeature
	for i := range pdpFeatures {
		if pdpFeatures[i].key == featureKey {
			feature = &pdpFeatures[i]
			break
		}
	}
	if feature == nil {
		return nil, domain.NewValidationError("feature", "no dependence curve for feature", featureKey)
	}

	points, cached := s.curves.Get(feature.key)
	if !cached {
		points = make([]domain.PDPPoint, 0, pdpSamples)
		step := (feature.max - feature.min) / float64(pdpSamples-1)
		for i := 0; i < pdpSamples; i++ {
			x := feature.min + step*float64(i)
			points = append(points, domain.PDPPoint{Value: x, Effect: clamp01(feature.effect(x))})
		}
		s.curves.Add(feature.key, points)
	}

	return &domain.PDPCurve{
		Feature:      feature.key,
		Label:        feature.label,
		Points:       points,
		PatientValue: feature.value(&assessment.ClinicalRecord),
	}, nil
}

// Explanation builds the full explanation report for an assessment: top-5
// and top-3 features by absolute impact from the stored blob, plus LIME
// entries. When the blob is absent or unusable a fixed threshold-based
// derivation from the clinical values stands in.
func (s *InsightsService) Explanation(assessment *domain.Assessment) *domain.ExplanationReport {
	impacts, derived := s.featureImpacts(assessment)

	sort.SliceStable(impacts, func(i, j int) bool {
		return math.Abs(impacts[i].Impact) > math.Abs(impacts[j].Impact)
	})

	return &domain.ExplanationReport{
		AssessmentID: assessment.ID,
		TopFeatures:  topN(impacts, 5),
		TopFactors:   topN(impacts, 3),
		LimeEntries:  s.limeEntries(assessment, topN(impacts, 5)),
		Derived:      derived,
	}
}

func topN(impacts []domain.FeatureImpact, n int) []domain.FeatureImpact {
	if len(impacts) < n {
		n = len(impacts)
	}
	out := make([]domain.FeatureImpact, n)
	copy(out, impacts[:n])
	return out
}

// featureImpacts reads the persisted blob, or derives impacts from clinical
// thresholds when no usable blob exists. The second return value reports
// whether the threshold fallback was used.
func (s *InsightsService) featureImpacts(assessment *domain.Assessment) ([]domain.FeatureImpact, bool) {
	if assessment.Explanation != nil {
		var impacts []domain.FeatureImpact
		if err := json.Unmarshal([]byte(*assessment.Explanation), &impacts); err == nil && len(impacts) > 0 {
			return impacts, false
		}
		s.log.WithField("assessment_id", assessment.ID).Debug("Stored explanation unusable, deriving from thresholds")
	}
	return thresholdImpacts(&assessment.ClinicalRecord), true
}

// thresholdImpacts is the fixed five-feature derivation used when no model
// explanation is available.
func thresholdImpacts(rec *domain.ClinicalRecord) []domain.FeatureImpact {
	pick := func(cond bool, high, low float64) float64 {
		if cond {
			return high
		}
		return low
	}
	return []domain.FeatureImpact{
		{Feature: "serum_creatinine", Impact: pick(rec.SerumCreatinine > 1.4, 0.30, -0.10)},
		{Feature: "hemoglobin", Impact: pick(rec.Hemoglobin < 12, 0.25, -0.08)},
		{Feature: "albumin", Impact: pick(rec.Albumin >= 2, 0.20, -0.05)},
		{Feature: "blood_glucose_random", Impact: pick(rec.BloodGlucoseRandom > 150, 0.18, -0.06)},
		{Feature: "blood_pressure", Impact: pick(rec.BloodPressure > 140, 0.15, -0.05)},
	}
}

var limeReasonings = map[string]struct {
	elevated string
	normal   string
}{
	"serum_creatinine":       {"Elevated creatinine indicates reduced kidney filtration", "Creatinine within normal filtration range"},
	"hemoglobin":             {"Low hemoglobin suggests anemia, common in kidney disease", "Hemoglobin in healthy range"},
	"albumin":                {"Albumin in urine signals kidney barrier damage", "No significant albumin leakage"},
	"blood_glucose_random":   {"High glucose stresses kidney vasculature", "Glucose within tolerance"},
	"blood_pressure":         {"Hypertension accelerates kidney damage", "Blood pressure controlled"},
	"blood_urea":             {"Elevated urea reflects reduced clearance", "Urea clearance adequate"},
	"sodium":                 {"Sodium imbalance reflects impaired regulation", "Sodium balanced"},
	"potassium":              {"Potassium retention indicates filtration loss", "Potassium balanced"},
	"age":                    {"Kidney function declines with age", "Age-related risk moderate"},
	"red_blood_cell_count":   {"Low RBC count consistent with renal anemia", "RBC count adequate"},
	"white_blood_cell_count": {"Elevated WBC may indicate inflammation", "WBC count unremarkable"},
}

func (s *InsightsService) limeEntries(assessment *domain.Assessment, impacts []domain.FeatureImpact) []domain.LimeEntry {
	entries := make([]domain.LimeEntry, 0, len(impacts))
	for _, imp := range impacts {
		reasoning := "Contributes to the overall risk estimate"
		if r, ok := limeReasonings[imp.Feature]; ok {
			if imp.Impact > 0 {
				reasoning = r.elevated
			} else {
				reasoning = r.normal
			}
		}
		entries = append(entries, domain.LimeEntry{
			Feature:   imp.Feature,
			Value:     featureValue(&assessment.ClinicalRecord, imp.Feature),
			Weight:    imp.Impact,
			Reasoning: reasoning,
		})
	}
	return entries
}

func featureValue(rec *domain.ClinicalRecord, key string) string {
	for i := range pdpFeatures {
		if pdpFeatures[i].key == key {
			return fmt.Sprintf("%g", pdpFeatures[i].value(rec))
		}
	}
	switch key {
	case "hypertension":
		return rec.Hypertension
	case "diabetes_mellitus":
		return rec.DiabetesMellitus
	case "appetite":
		return rec.Appetite
	}
	return ""
}

// Report renders the plain-text screening report for an assessment.
func (s *InsightsService) Report(assessment *domain.Assessment) string {
	report := fmt.Sprintf("CKD Risk Assessment Report\n==========================\n\nPatient: %s\nAssessed: %s\n\n",
		assessment.PatientName, assessment.CreatedAt.Format("2006-01-02 15:04 MST"))

	if assessment.HasRisk() {
		report += fmt.Sprintf("Risk Level: %s\nRisk Probability: %.1f%%\n\n",
			assessment.RiskLevel.String(), *assessment.RiskProbability*100)
	} else {
		report += "Risk Level: not available (prediction did not complete)\n\n"
	}

	report += fmt.Sprintf("Clinical Values\n---------------\nAge: %g years\nBlood Pressure: %g mm Hg\nSerum Creatinine: %g mg/dL\nBlood Urea: %g mg/dL\nHemoglobin: %g g/dL\nBlood Glucose (random): %g mg/dL\nSodium: %g mEq/L\nPotassium: %g mEq/L\nAlbumin: %g\nHypertension: %s\nDiabetes: %s\n\n",
		assessment.Age, assessment.BloodPressure, assessment.SerumCreatinine,
		assessment.BloodUrea, assessment.Hemoglobin, assessment.BloodGlucoseRandom,
		assessment.Sodium, assessment.Potassium, assessment.Albumin,
		assessment.Hypertension, assessment.DiabetesMellitus)

	report += "Top Contributing Factors\n------------------------\n"
	for _, factor := range s.Explanation(assessment).TopFactors {
		direction := "increases"
		if factor.Impact < 0 {
			direction = "decreases"
		}
		report += fmt.Sprintf("- %s %s risk (impact %.2f)\n", factor.Feature, direction, factor.Impact)
	}

	report += "\nRecommendations\n---------------\n- Share these results with a nephrologist.\n- Monitor blood pressure and blood glucose regularly.\n- Maintain adequate hydration unless fluid-restricted.\n- Repeat screening as advised by your physician.\n"
	return report
}
