// Package domain contains the core entities and types for Chronic Kidney
// Disease (CKD) risk screening: clinical questionnaire records, prediction
// results, and the capability interfaces the service layers depend on.
package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RiskLevel is the discrete CKD risk grade derived from a predicted
// probability. Thresholds match the predictor models: probability < 0.30 is
// Low, < 0.60 Moderate, < 0.85 High, otherwise Very High.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskModerate RiskLevel = "Moderate"
	RiskHigh     RiskLevel = "High"
	RiskVeryHigh RiskLevel = "Very High"
)

// RiskColor is the display severity hint emitted alongside a risk level.
type RiskColor string

const (
	ColorSuccess   RiskColor = "success"
	ColorWarning   RiskColor = "warning"
	ColorDanger    RiskColor = "danger"
	ColorSecondary RiskColor = "secondary"
)

// RiskStatus tracks the prediction lifecycle of an assessment. A record is
// created pending and moved exactly once to computed or failed. Failed is a
// valid terminal state: the assessment remains usable without a score.
type RiskStatus string

const (
	StatusPending  RiskStatus = "pending"
	StatusComputed RiskStatus = "computed"
	StatusFailed   RiskStatus = "failed"
)

// PredictorVariant identifies which predictor in the fallback chain produced
// a result.
type PredictorVariant string

const (
	VariantPrimary  PredictorVariant = "primary"
	VariantFallback PredictorVariant = "fallback"
	VariantNone     PredictorVariant = ""
)

// FailureReason classifies why a prediction attempt produced no score.
type FailureReason string

const (
	FailureTimeout   FailureReason = "timeout"
	FailureError     FailureReason = "error"
	FailureExhausted FailureReason = "exhausted"
)

// ErrNotFound is returned by stores when the requested entity does not exist.
var ErrNotFound = errors.New("not found")

// RiskLevelForProbability grades a probability in [0,1].
func RiskLevelForProbability(p float64) RiskLevel {
	switch {
	case p < 0.30:
		return RiskLow
	case p < 0.60:
		return RiskModerate
	case p < 0.85:
		return RiskHigh
	default:
		return RiskVeryHigh
	}
}

// ColorForRiskLevel maps a risk level to its display severity.
func ColorForRiskLevel(level RiskLevel) RiskColor {
	switch level {
	case RiskLow:
		return ColorSuccess
	case RiskModerate:
		return ColorWarning
	case RiskHigh, RiskVeryHigh:
		return ColorDanger
	default:
		return ColorSecondary
	}
}

// ParseRiskLevel normalizes a predictor-emitted label. The predictor scripts
// emit labels with a " Risk" suffix ("Moderate Risk"); both forms are
// accepted, case-insensitively.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	trimmed := strings.TrimSpace(s)
	for _, level := range []RiskLevel{RiskLow, RiskModerate, RiskHigh, RiskVeryHigh} {
		if strings.EqualFold(trimmed, string(level)) || strings.EqualFold(trimmed, string(level)+" Risk") {
			return level, true
		}
	}
	return "", false
}

// IsValid reports whether the level is a known risk grade.
func (r RiskLevel) IsValid() bool {
	switch r {
	case RiskLow, RiskModerate, RiskHigh, RiskVeryHigh:
		return true
	default:
		return false
	}
}

func (r RiskLevel) String() string {
	return string(r)
}

// IsValid reports whether the status is a known lifecycle state.
func (s RiskStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusComputed, StatusFailed:
		return true
	default:
		return false
	}
}

func (s RiskStatus) String() string {
	return string(s)
}

// UnknownSentinel is the placeholder patients submit for a field they do not
// know. It must never reach a predictor process.
const UnknownSentinel = "unknown"

// OptionalFloat is a numeric clinical field that may carry the "unknown"
// sentinel instead of a value. The zero value is unknown.
type OptionalFloat struct {
	Value float64
	Known bool
}

// Float returns a known OptionalFloat.
func Float(v float64) OptionalFloat {
	return OptionalFloat{Value: v, Known: true}
}

// UnmarshalJSON accepts either a JSON number or the string "unknown".
func (o *OptionalFloat) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s == UnknownSentinel {
			*o = OptionalFloat{}
			return nil
		}
		return fmt.Errorf("invalid numeric field value %q", s)
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid numeric field: %w", err)
	}
	*o = OptionalFloat{Value: v, Known: true}
	return nil
}

// MarshalJSON emits the value, or "unknown" when unset.
func (o OptionalFloat) MarshalJSON() ([]byte, error) {
	if !o.Known {
		return json.Marshal(UnknownSentinel)
	}
	return json.Marshal(o.Value)
}
