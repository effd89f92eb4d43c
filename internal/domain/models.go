package domain

import (
	"time"
)

// AssessmentSubmission is an incoming screening questionnaire. Numeric
// fields accept the "unknown" sentinel through OptionalFloat; categorical
// fields accept "unknown" or any free-form string and are coerced during
// normalization.
type AssessmentSubmission struct {
	PatientName string `json:"patient_name"`

	Age                OptionalFloat `json:"age"`
	BloodPressure      OptionalFloat `json:"blood_pressure"`
	Albumin            OptionalFloat `json:"albumin"`
	Sugar              OptionalFloat `json:"sugar"`
	RedBloodCells      string        `json:"red_blood_cells"`
	PusCell            string        `json:"pus_cell"`
	Bacteria           string        `json:"bacteria"`
	BloodGlucoseRandom OptionalFloat `json:"blood_glucose_random"`
	BloodUrea          OptionalFloat `json:"blood_urea"`
	SerumCreatinine    OptionalFloat `json:"serum_creatinine"`
	Sodium             OptionalFloat `json:"sodium"`
	Potassium          OptionalFloat `json:"potassium"`
	Hemoglobin         OptionalFloat `json:"hemoglobin"`
	WhiteBloodCells    OptionalFloat `json:"white_blood_cell_count"`
	RedBloodCellCount  OptionalFloat `json:"red_blood_cell_count"`
	Hypertension       string        `json:"hypertension"`
	DiabetesMellitus   string        `json:"diabetes_mellitus"`
	CoronaryArtery     string        `json:"coronary_artery_disease"`
	Appetite           string        `json:"appetite"`
	PedalEdema         string        `json:"pedal_edema"`
	Anemia             string        `json:"anemia"`
}

// ClinicalRecord is the fully normalized questionnaire: every field holds a
// concrete clinical value, with unknowns replaced by per-field defaults and
// categorical values coerced to their closed enum.
type ClinicalRecord struct {
	PatientName string `json:"patient_name"`

	Age                float64 `json:"age"`
	BloodPressure      float64 `json:"blood_pressure"`
	Albumin            float64 `json:"albumin"`
	Sugar              float64 `json:"sugar"`
	RedBloodCells      string  `json:"red_blood_cells"`
	PusCell            string  `json:"pus_cell"`
	Bacteria           string  `json:"bacteria"`
	BloodGlucoseRandom float64 `json:"blood_glucose_random"`
	BloodUrea          float64 `json:"blood_urea"`
	SerumCreatinine    float64 `json:"serum_creatinine"`
	Sodium             float64 `json:"sodium"`
	Potassium          float64 `json:"potassium"`
	Hemoglobin         float64 `json:"hemoglobin"`
	WhiteBloodCells    float64 `json:"white_blood_cell_count"`
	RedBloodCellCount  float64 `json:"red_blood_cell_count"`
	Hypertension       string  `json:"hypertension"`
	DiabetesMellitus   string  `json:"diabetes_mellitus"`
	CoronaryArtery     string  `json:"coronary_artery_disease"`
	Appetite           string  `json:"appetite"`
	PedalEdema         string  `json:"pedal_edema"`
	Anemia             string  `json:"anemia"`
}

// FeatureVector is the wire payload handed to predictor processes as
// argv[1]. All values are strings, matching the models' expected input
// format. It never contains the "unknown" sentinel.
type FeatureVector struct {
	Age                string `json:"age"`
	BloodPressure      string `json:"bp"`
	Albumin            string `json:"al"`
	Sugar              string `json:"su"`
	RedBloodCells      string `json:"rbc"`
	PusCell            string `json:"pc"`
	Bacteria           string `json:"ba"`
	BloodGlucoseRandom string `json:"bgr"`
	BloodUrea          string `json:"bu"`
	SerumCreatinine    string `json:"sc"`
	Sodium             string `json:"sod"`
	Potassium          string `json:"pot"`
	Hemoglobin         string `json:"hemo"`
	WhiteBloodCells    string `json:"wbcc"`
	RedBloodCellCount  string `json:"rbcc"`
	Hypertension       string `json:"htn"`
	DiabetesMellitus   string `json:"dm"`
	CoronaryArtery     string `json:"cad"`
	Appetite           string `json:"appet"`
	PedalEdema         string `json:"pe"`
	Anemia             string `json:"ane"`
}

// Assessment is a persisted screening record. RiskProbability and RiskLevel
// are set together when a prediction succeeds and stay nil otherwise;
// RiskStatus records where the record is in that lifecycle.
type Assessment struct {
	ID int64 `json:"id"`
	ClinicalRecord

	RiskStatus      RiskStatus `json:"risk_status"`
	RiskProbability *float64   `json:"risk_probability"`
	RiskLevel       *RiskLevel `json:"risk_level"`
	Explanation     *string    `json:"explanation,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

// HasRisk reports whether the record carries a computed score.
func (a *Assessment) HasRisk() bool {
	return a.RiskProbability != nil && a.RiskLevel != nil
}

// PredictionResult is the outcome of orchestrating the predictor chain.
// Success=false carries a FailureReason instead of a score; risk levels from
// failed runs are never persisted.
type PredictionResult struct {
	Success     bool             `json:"success"`
	Prediction  int              `json:"prediction"`
	Probability float64          `json:"probability"`
	RiskLevel   RiskLevel        `json:"risk_level"`
	RiskColor   RiskColor        `json:"risk_color"`
	Variant     PredictorVariant `json:"variant"`
	ModelUsed   string           `json:"model_used,omitempty"`
	Failure     FailureReason    `json:"failure,omitempty"`
	Explanation []FeatureImpact  `json:"explanation,omitempty"`
}

// FeatureImpact is one feature's signed contribution to a prediction.
type FeatureImpact struct {
	Feature string  `json:"feature"`
	Impact  float64 `json:"impact"`
}

// LimeEntry is a human-readable local explanation for one feature.
type LimeEntry struct {
	Feature   string  `json:"feature"`
	Value     string  `json:"value"`
	Weight    float64 `json:"weight"`
	Reasoning string  `json:"reasoning"`
}

// ExplanationReport is the full explanation payload for one assessment.
type ExplanationReport struct {
	AssessmentID int64           `json:"assessment_id"`
	TopFeatures  []FeatureImpact `json:"top_features"`
	TopFactors   []FeatureImpact `json:"top_factors"`
	LimeEntries  []LimeEntry     `json:"lime_entries"`
	Derived      bool            `json:"derived"`
}

// PDPPoint is one sample of a partial dependence curve.
type PDPPoint struct {
	Value  float64 `json:"value"`
	Effect float64 `json:"effect"`
}

// PDPCurve is a partial dependence curve for one clinical feature, with the
// assessment's own value marked.
type PDPCurve struct {
	Feature      string     `json:"feature"`
	Label        string     `json:"label"`
	Points       []PDPPoint `json:"points"`
	PatientValue float64    `json:"patient_value"`
}

// DietType selects the food lists in a diet plan.
type DietType string

const (
	DietVegetarian    DietType = "vegetarian"
	DietNonVegetarian DietType = "non-vegetarian"
)

// IsValid reports whether the diet type is supported.
func (d DietType) IsValid() bool {
	return d == DietVegetarian || d == DietNonVegetarian
}

// DietPlan is a persisted kidney-friendly diet plan for an assessment.
type DietPlan struct {
	ID           int64     `json:"id"`
	AssessmentID int64     `json:"assessment_id"`
	DietType     DietType  `json:"diet_type"`
	FoodsToEat   []string  `json:"foods_to_eat"`
	FoodsToAvoid []string  `json:"foods_to_avoid"`
	WaterIntake  string    `json:"water_intake"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatMessage is one persisted question/answer exchange with the chatbot.
type ChatMessage struct {
	ID        int64     `json:"id"`
	Message   string    `json:"message"`
	Response  string    `json:"response"`
	CreatedAt time.Time `json:"created_at"`
}
