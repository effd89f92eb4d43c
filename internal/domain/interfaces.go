package domain

import (
	"context"
)

// Predictor produces a CKD risk score for a normalized feature vector by
// invoking an external model process. An error means this predictor could
// not produce a usable result and the caller should try the next one.
type Predictor interface {
	Predict(ctx context.Context, features *FeatureVector) (*PredictionResult, error)
	Name() string
}

// PredictionOrchestrator runs the predictor chain. It never returns an
// error: exhaustion of all predictors yields a result with Success=false.
type PredictionOrchestrator interface {
	Predict(ctx context.Context, features *FeatureVector) *PredictionResult
}

// ExplanationGenerator produces a SHAP-style feature-impact payload for a
// scored feature vector. Failures are non-fatal to the screening pipeline.
type ExplanationGenerator interface {
	Explain(ctx context.Context, features *FeatureVector, probability float64, level RiskLevel) ([]FeatureImpact, error)
}

// AssessmentStore persists screening records. UpdateRisk writes probability,
// level and explanation atomically and moves the record to computed;
// MarkFailed moves a pending record to failed without touching risk fields.
type AssessmentStore interface {
	CreateAssessment(ctx context.Context, record *ClinicalRecord) (*Assessment, error)
	GetAssessment(ctx context.Context, id int64) (*Assessment, error)
	ListAssessments(ctx context.Context) ([]*Assessment, error)
	UpdateRisk(ctx context.Context, id int64, probability float64, level RiskLevel, explanation *string) (*Assessment, error)
	MarkFailed(ctx context.Context, id int64) error
}

// DietPlanStore persists generated diet plans.
type DietPlanStore interface {
	CreateDietPlan(ctx context.Context, plan *DietPlan) (*DietPlan, error)
	GetDietPlanByAssessment(ctx context.Context, assessmentID int64, dietType DietType) (*DietPlan, error)
	ListDietPlans(ctx context.Context) ([]*DietPlan, error)
}

// ChatStore persists chatbot exchanges.
type ChatStore interface {
	CreateChatMessage(ctx context.Context, message, response string) (*ChatMessage, error)
	ListChatMessages(ctx context.Context) ([]*ChatMessage, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetDatabaseConfig() *DatabaseConfig
	GetPredictorConfig() *PredictorConfig
	GetChatbotConfig() *ChatbotConfig
	Reload() error
	Validate() error
	GetDatabaseConnectionString() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
