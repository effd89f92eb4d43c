package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
	"github.com/samanyuahuja/NephroCare-sub000/internal/repository"
	"github.com/samanyuahuja/NephroCare-sub000/internal/service"
)

// stubConfig satisfies domain.ConfigManager with fixed values.
type stubConfig struct {
	cfg *domain.Config
}

func (s *stubConfig) GetConfig() *domain.Config                   { return s.cfg }
func (s *stubConfig) GetServerConfig() *domain.ServerConfig       { return &s.cfg.Server }
func (s *stubConfig) GetDatabaseConfig() *domain.DatabaseConfig   { return &s.cfg.Database }
func (s *stubConfig) GetPredictorConfig() *domain.PredictorConfig { return &s.cfg.Predictor }
func (s *stubConfig) GetChatbotConfig() *domain.ChatbotConfig     { return &s.cfg.Chatbot }
func (s *stubConfig) Reload() error                               { return nil }
func (s *stubConfig) Validate() error                             { return nil }
func (s *stubConfig) GetDatabaseConnectionString() string         { return "" }
func (s *stubConfig) GetRedisConnectionString() string            { return "" }
func (s *stubConfig) IsProduction() bool                          { return false }
func (s *stubConfig) IsDevelopment() bool                         { return true }

type fixedOrchestrator struct {
	result *domain.PredictionResult
}

func (f *fixedOrchestrator) Predict(ctx context.Context, features *domain.FeatureVector) *domain.PredictionResult {
	out := *f.result
	return &out
}

func newTestServer(t *testing.T, prediction *domain.PredictionResult) *Server {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)

	store := repository.NewMemoryStore()
	insights, err := service.NewInsightsService(0, logger)
	require.NoError(t, err)

	assessments := service.NewAssessmentService(store, &fixedOrchestrator{result: prediction}, nil, nil, logger)
	dietPlans := service.NewDietPlanService(store, store, logger)
	chatbot := service.NewChatbotService(store, &domain.ChatbotConfig{}, logger)

	cfg := &stubConfig{cfg: &domain.Config{
		Logging: domain.LoggingConfig{Level: "error"},
	}}
	return NewServer(cfg, assessments, insights, dietPlans, chatbot, logger)
}

func successPrediction() *domain.PredictionResult {
	return &domain.PredictionResult{
		Success:     true,
		Prediction:  1,
		Probability: 0.72,
		RiskLevel:   domain.RiskHigh,
		RiskColor:   domain.ColorDanger,
		Variant:     domain.VariantPrimary,
		ModelUsed:   "random_forest",
	}
}

func doJSON(t *testing.T, server *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	server.Router().ServeHTTP(rec, req)
	return rec
}

func submitAssessment(t *testing.T, server *Server) int64 {
	t.Helper()

	rec := doJSON(t, server, http.MethodPost, "/api/v1/assessments", map[string]any{
		"patient_name":     "Asha Rao",
		"age":              58,
		"serum_creatinine": 2.2,
		"hemoglobin":       10.1,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Assessment struct {
			ID int64 `json:"id"`
		} `json:"assessment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotZero(t, resp.Assessment.ID)
	return resp.Assessment.ID
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(t, successPrediction())

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "healthy")
}

func TestSubmitAssessmentReturnsEnrichedRecord(t *testing.T) {
	server := newTestServer(t, successPrediction())

	rec := doJSON(t, server, http.MethodPost, "/api/v1/assessments", map[string]any{
		"patient_name":     "Asha Rao",
		"age":              58,
		"serum_creatinine": "unknown",
		"hypertension":     "yes",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Assessment struct {
			RiskStatus      string   `json:"risk_status"`
			RiskProbability *float64 `json:"risk_probability"`
			RiskLevel       *string  `json:"risk_level"`
			SerumCreatinine float64  `json:"serum_creatinine"`
		} `json:"assessment"`
		Prediction struct {
			Success   bool   `json:"success"`
			ModelUsed string `json:"model_used"`
		} `json:"prediction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "computed", resp.Assessment.RiskStatus)
	require.NotNil(t, resp.Assessment.RiskProbability)
	assert.Equal(t, 0.72, *resp.Assessment.RiskProbability)
	require.NotNil(t, resp.Assessment.RiskLevel)
	assert.Equal(t, "High", *resp.Assessment.RiskLevel)
	// "unknown" was replaced by the clinical default.
	assert.Equal(t, 1.8, resp.Assessment.SerumCreatinine)
	assert.True(t, resp.Prediction.Success)
	assert.Equal(t, "random_forest", resp.Prediction.ModelUsed)
}

func TestSubmitAssessmentPredictionFailureIsStill200(t *testing.T) {
	server := newTestServer(t, &domain.PredictionResult{
		Success: false,
		Failure: domain.FailureTimeout,
	})

	rec := doJSON(t, server, http.MethodPost, "/api/v1/assessments", map[string]any{
		"patient_name": "Asha Rao",
		"age":          58,
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		Assessment struct {
			RiskStatus      string   `json:"risk_status"`
			RiskProbability *float64 `json:"risk_probability"`
			RiskLevel       *string  `json:"risk_level"`
		} `json:"assessment"`
		Prediction struct {
			Success bool   `json:"success"`
			Failure string `json:"failure"`
		} `json:"prediction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.Equal(t, "failed", resp.Assessment.RiskStatus)
	assert.Nil(t, resp.Assessment.RiskProbability)
	assert.Nil(t, resp.Assessment.RiskLevel)
	assert.False(t, resp.Prediction.Success)
	assert.Equal(t, "timeout", resp.Prediction.Failure)
}

func TestSubmitAssessmentValidation(t *testing.T) {
	server := newTestServer(t, successPrediction())

	tests := []struct {
		name string
		body any
	}{
		{"missing name", map[string]any{"age": 58}},
		{"age out of range", map[string]any{"patient_name": "A", "age": 300}},
		{"creatinine out of range", map[string]any{"patient_name": "A", "serum_creatinine": 99}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, server, http.MethodPost, "/api/v1/assessments", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), domain.ErrValidation)
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/assessments", bytes.NewReader([]byte("{not json")))
		rec := httptest.NewRecorder()
		server.Router().ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetAssessment(t *testing.T) {
	server := newTestServer(t, successPrediction())
	submitAssessment(t, server)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/assessments/1", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Asha Rao")

	rec = doJSON(t, server, http.MethodGet, "/api/v1/assessments/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/assessments/abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListAssessments(t *testing.T) {
	server := newTestServer(t, successPrediction())
	submitAssessment(t, server)
	submitAssessment(t, server)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/assessments", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
}

func TestExplanationEndpoint(t *testing.T) {
	server := newTestServer(t, successPrediction())
	submitAssessment(t, server)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/assessments/1/explanation", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var report domain.ExplanationReport
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Len(t, report.TopFeatures, 5)
	assert.Len(t, report.TopFactors, 3)
	assert.Len(t, report.LimeEntries, 5)
}

func TestPDPEndpoint(t *testing.T) {
	server := newTestServer(t, successPrediction())
	submitAssessment(t, server)

	t.Run("feature list", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/v1/assessments/1/pdp", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Features []string `json:"features"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Len(t, resp.Features, 11)
	})

	t.Run("curve", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/v1/assessments/1/pdp?feature=serum_creatinine", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var curve domain.PDPCurve
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &curve))
		assert.Equal(t, "serum_creatinine", curve.Feature)
		assert.Len(t, curve.Points, 26)
	})

	t.Run("unknown feature", func(t *testing.T) {
		rec := doJSON(t, server, http.MethodGet, "/api/v1/assessments/1/pdp?feature=shoe_size", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestReportEndpoint(t *testing.T) {
	server := newTestServer(t, successPrediction())
	submitAssessment(t, server)

	rec := doJSON(t, server, http.MethodGet, "/api/v1/assessments/1/report", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Asha Rao")
	assert.Contains(t, rec.Body.String(), "Risk Level: High")
}

func TestDietPlanEndpoints(t *testing.T) {
	server := newTestServer(t, successPrediction())
	submitAssessment(t, server)

	rec := doJSON(t, server, http.MethodPost, "/api/v1/diet-plans", map[string]any{
		"assessment_id": 1,
		"diet_type":     "non-vegetarian",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "Skinless chicken")

	rec = doJSON(t, server, http.MethodGet, "/api/v1/diet-plans/1?diet_type=non-vegetarian", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Egg whites")

	// Default diet type is vegetarian, which was never generated.
	rec = doJSON(t, server, http.MethodGet, "/api/v1/diet-plans/1", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/diet-plans", map[string]any{
		"assessment_id": 1,
		"diet_type":     "keto",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodPost, "/api/v1/diet-plans", map[string]any{
		"assessment_id": 999,
		"diet_type":     "vegetarian",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/diet-plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestChatEndpoints(t *testing.T) {
	server := newTestServer(t, successPrediction())

	rec := doJSON(t, server, http.MethodPost, "/api/v1/chat", map[string]any{
		"message": "what is creatinine",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "creatinine")

	rec = doJSON(t, server, http.MethodPost, "/api/v1/chat", map[string]any{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, server, http.MethodGet, "/api/v1/chat", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Count int `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Count)
}

func TestSecurityHeadersApplied(t *testing.T) {
	server := newTestServer(t, successPrediction())

	rec := doJSON(t, server, http.MethodGet, "/health", nil)
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.NotEmpty(t, rec.Header().Get("X-Correlation-ID"))
}
