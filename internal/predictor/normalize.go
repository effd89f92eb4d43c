// Package predictor normalizes clinical questionnaires and scores them
// through external model processes with a primary/fallback chain.
package predictor

import (
	"strconv"
	"strings"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// Clinical defaults substituted for the "unknown" sentinel. Values are the
// population-typical measurements the models were calibrated against.
const (
	DefaultAge                = 45
	DefaultBloodPressure      = 120
	DefaultAlbumin            = 1
	DefaultSugar              = 1
	DefaultBloodGlucoseRandom = 145
	DefaultBloodUrea          = 35
	DefaultSerumCreatinine    = 1.8
	DefaultSodium             = 135
	DefaultPotassium          = 4.5
	DefaultHemoglobin         = 12
	DefaultWhiteBloodCells    = 7600
	DefaultRedBloodCellCount  = 5.2
)

// Closed categorical enums and their safe members.
const (
	DefaultRedBloodCells = "normal"
	DefaultPusCell       = "normal"
	DefaultBacteria      = "notpresent"
	DefaultHypertension  = "no"
	DefaultDiabetes      = "no"
	DefaultCoronary      = "no"
	DefaultAppetite      = "good"
	DefaultPedalEdema    = "no"
	DefaultAnemia        = "no"
)

type numericRange struct {
	field string
	min   float64
	max   float64
}

// Plausibility bounds applied to known numeric values only. A submitted
// "unknown" always passes validation and takes the default instead.
var numericRanges = map[string]numericRange{
	"age":                    {"age", 1, 120},
	"blood_pressure":         {"blood_pressure", 50, 200},
	"albumin":                {"albumin", 0, 5},
	"sugar":                  {"sugar", 0, 5},
	"blood_glucose_random":   {"blood_glucose_random", 50, 500},
	"blood_urea":             {"blood_urea", 1, 200},
	"serum_creatinine":       {"serum_creatinine", 0.4, 15},
	"sodium":                 {"sodium", 120, 160},
	"potassium":              {"potassium", 2.5, 7.5},
	"hemoglobin":             {"hemoglobin", 3, 20},
	"white_blood_cell_count": {"white_blood_cell_count", 2000, 25000},
	"red_blood_cell_count":   {"red_blood_cell_count", 2, 8},
}

// Validate checks a submission before anything is persisted. Unknown values
// are always acceptable; known numeric values must fall inside their
// clinical plausibility range.
func Validate(sub *domain.AssessmentSubmission) error {
	if strings.TrimSpace(sub.PatientName) == "" {
		return domain.NewValidationError("patient_name", "patient name is required", sub.PatientName)
	}

	checks := []struct {
		field string
		value domain.OptionalFloat
	}{
		{"age", sub.Age},
		{"blood_pressure", sub.BloodPressure},
		{"albumin", sub.Albumin},
		{"sugar", sub.Sugar},
		{"blood_glucose_random", sub.BloodGlucoseRandom},
		{"blood_urea", sub.BloodUrea},
		{"serum_creatinine", sub.SerumCreatinine},
		{"sodium", sub.Sodium},
		{"potassium", sub.Potassium},
		{"hemoglobin", sub.Hemoglobin},
		{"white_blood_cell_count", sub.WhiteBloodCells},
		{"red_blood_cell_count", sub.RedBloodCellCount},
	}
	for _, c := range checks {
		if !c.value.Known {
			continue
		}
		r := numericRanges[c.field]
		if c.value.Value < r.min || c.value.Value > r.max {
			return domain.NewValidationError(c.field, "value outside clinical range", c.value.Value)
		}
	}
	return nil
}

// Normalize resolves every field of a submission to a concrete clinical
// value. Numeric unknowns take the per-field default; categorical values
// outside their closed enum coerce to the safe member. The result never
// contains the "unknown" sentinel.
func Normalize(sub *domain.AssessmentSubmission) *domain.ClinicalRecord {
	return &domain.ClinicalRecord{
		PatientName: strings.TrimSpace(sub.PatientName),

		Age:                numericOrDefault(sub.Age, DefaultAge),
		BloodPressure:      numericOrDefault(sub.BloodPressure, DefaultBloodPressure),
		Albumin:            numericOrDefault(sub.Albumin, DefaultAlbumin),
		Sugar:              numericOrDefault(sub.Sugar, DefaultSugar),
		RedBloodCells:      coerce(sub.RedBloodCells, "abnormal", DefaultRedBloodCells),
		PusCell:            coerce(sub.PusCell, "abnormal", DefaultPusCell),
		Bacteria:           coerce(sub.Bacteria, "present", DefaultBacteria),
		BloodGlucoseRandom: numericOrDefault(sub.BloodGlucoseRandom, DefaultBloodGlucoseRandom),
		BloodUrea:          numericOrDefault(sub.BloodUrea, DefaultBloodUrea),
		SerumCreatinine:    numericOrDefault(sub.SerumCreatinine, DefaultSerumCreatinine),
		Sodium:             numericOrDefault(sub.Sodium, DefaultSodium),
		Potassium:          numericOrDefault(sub.Potassium, DefaultPotassium),
		Hemoglobin:         numericOrDefault(sub.Hemoglobin, DefaultHemoglobin),
		WhiteBloodCells:    numericOrDefault(sub.WhiteBloodCells, DefaultWhiteBloodCells),
		RedBloodCellCount:  numericOrDefault(sub.RedBloodCellCount, DefaultRedBloodCellCount),
		Hypertension:       coerce(sub.Hypertension, "yes", DefaultHypertension),
		DiabetesMellitus:   coerce(sub.DiabetesMellitus, "yes", DefaultDiabetes),
		CoronaryArtery:     coerce(sub.CoronaryArtery, "yes", DefaultCoronary),
		Appetite:           coerce(sub.Appetite, "poor", DefaultAppetite),
		PedalEdema:         coerce(sub.PedalEdema, "yes", DefaultPedalEdema),
		Anemia:             coerce(sub.Anemia, "yes", DefaultAnemia),
	}
}

// Features converts a normalized record into the string-valued wire payload
// the predictor processes expect.
func Features(rec *domain.ClinicalRecord) *domain.FeatureVector {
	return &domain.FeatureVector{
		Age:                formatNumber(rec.Age),
		BloodPressure:      formatNumber(rec.BloodPressure),
		Albumin:            formatNumber(rec.Albumin),
		Sugar:              formatNumber(rec.Sugar),
		RedBloodCells:      rec.RedBloodCells,
		PusCell:            rec.PusCell,
		Bacteria:           rec.Bacteria,
		BloodGlucoseRandom: formatNumber(rec.BloodGlucoseRandom),
		BloodUrea:          formatNumber(rec.BloodUrea),
		SerumCreatinine:    formatNumber(rec.SerumCreatinine),
		Sodium:             formatNumber(rec.Sodium),
		Potassium:          formatNumber(rec.Potassium),
		Hemoglobin:         formatNumber(rec.Hemoglobin),
		WhiteBloodCells:    formatNumber(rec.WhiteBloodCells),
		RedBloodCellCount:  formatNumber(rec.RedBloodCellCount),
		Hypertension:       rec.Hypertension,
		DiabetesMellitus:   rec.DiabetesMellitus,
		CoronaryArtery:     rec.CoronaryArtery,
		Appetite:           rec.Appetite,
		PedalEdema:         rec.PedalEdema,
		Anemia:             rec.Anemia,
	}
}

func numericOrDefault(v domain.OptionalFloat, def float64) float64 {
	if v.Known {
		return v.Value
	}
	return def
}

// coerce maps any value that is not the single non-default enum member to
// the default. Empty strings and the "unknown" sentinel therefore also
// resolve to the default.
func coerce(value, nonDefault, def string) string {
	if strings.EqualFold(strings.TrimSpace(value), nonDefault) {
		return nonDefault
	}
	return def
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
