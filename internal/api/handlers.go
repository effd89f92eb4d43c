package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// submissionResponse is the body returned for a screening submission. The
// prediction block reports which model answered, or why none did; the
// assessment is present either way.
type submissionResponse struct {
	Assessment *domain.Assessment       `json:"assessment"`
	Prediction *domain.PredictionResult `json:"prediction"`
}

func (s *Server) handleSubmitAssessment(c *gin.Context) {
	var sub domain.AssessmentSubmission
	if err := json.NewDecoder(c.Request.Body).Decode(&sub); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "request body is not a valid submission", err.Error())
		return
	}

	result, err := s.assessments.Submit(c.Request.Context(), &sub)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      domain.ErrValidation,
				"validation": verr,
				"request_id": c.GetString("correlation_id"),
			})
			return
		}
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "could not store assessment", err.Error())
		return
	}

	// A failed prediction is not a failed request: the stored record is
	// returned with status 200 either way.
	c.JSON(http.StatusOK, submissionResponse{
		Assessment: result.Assessment,
		Prediction: result.Prediction,
	})
}

func (s *Server) handleListAssessments(c *gin.Context) {
	assessments, err := s.assessments.List(c.Request.Context())
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "could not list assessments", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"assessments": assessments, "count": len(assessments)})
}

func (s *Server) handleGetAssessment(c *gin.Context) {
	assessment, ok := s.loadAssessment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, assessment)
}

func (s *Server) handleExplanation(c *gin.Context) {
	assessment, ok := s.loadAssessment(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.insights.Explanation(assessment))
}

func (s *Server) handlePDP(c *gin.Context) {
	assessment, ok := s.loadAssessment(c)
	if !ok {
		return
	}

	feature := c.Query("feature")
	if feature == "" {
		c.JSON(http.StatusOK, gin.H{"features": s.insights.PDPFeatureKeys()})
		return
	}

	curve, err := s.insights.PDPCurve(assessment, feature)
	if err != nil {
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":      domain.ErrValidation,
				"validation": verr,
				"request_id": c.GetString("correlation_id"),
			})
			return
		}
		s.writeError(c, http.StatusInternalServerError, domain.ErrInternalServer, "could not build dependence curve", err.Error())
		return
	}
	c.JSON(http.StatusOK, curve)
}

func (s *Server) handleReport(c *gin.Context) {
	assessment, ok := s.loadAssessment(c)
	if !ok {
		return
	}
	c.String(http.StatusOK, s.insights.Report(assessment))
}

type dietPlanRequest struct {
	AssessmentID int64  `json:"assessment_id"`
	DietType     string `json:"diet_type"`
}

func (s *Server) handleCreateDietPlan(c *gin.Context) {
	var req dietPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "request body is not a valid diet plan request", err.Error())
		return
	}

	plan, err := s.dietPlans.Generate(c.Request.Context(), req.AssessmentID, domain.DietType(req.DietType))
	if err != nil {
		s.writeServiceError(c, err, "could not generate diet plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

func (s *Server) handleListDietPlans(c *gin.Context) {
	plans, err := s.dietPlans.List(c.Request.Context())
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "could not list diet plans", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"diet_plans": plans, "count": len(plans)})
}

func (s *Server) handleGetDietPlan(c *gin.Context) {
	assessmentID, err := strconv.ParseInt(c.Param("assessmentId"), 10, 64)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "assessment id must be an integer", c.Param("assessmentId"))
		return
	}

	dietType := domain.DietType(c.DefaultQuery("diet_type", string(domain.DietVegetarian)))
	plan, err := s.dietPlans.ForAssessment(c.Request.Context(), assessmentID, dietType)
	if err != nil {
		s.writeServiceError(c, err, "could not load diet plan")
		return
	}
	c.JSON(http.StatusOK, plan)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "request body is not a valid chat message", err.Error())
		return
	}

	msg, err := s.chatbot.Ask(c.Request.Context(), req.Message)
	if err != nil {
		s.writeServiceError(c, err, "could not answer chat message")
		return
	}
	c.JSON(http.StatusOK, msg)
}

func (s *Server) handleChatHistory(c *gin.Context) {
	messages, err := s.chatbot.History(c.Request.Context())
	if err != nil {
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "could not list chat messages", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": messages, "count": len(messages)})
}

// loadAssessment resolves the :id path parameter to a stored assessment,
// writing the error response on failure.
func (s *Server) loadAssessment(c *gin.Context) (*domain.Assessment, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		s.writeError(c, http.StatusBadRequest, domain.ErrInvalidInput, "assessment id must be an integer", c.Param("id"))
		return nil, false
	}

	assessment, err := s.assessments.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.writeError(c, http.StatusNotFound, domain.ErrNotFoundCode, "assessment not found", "")
			return nil, false
		}
		s.writeError(c, http.StatusInternalServerError, domain.ErrDatabaseError, "could not load assessment", err.Error())
		return nil, false
	}
	return assessment, true
}

func (s *Server) writeServiceError(c *gin.Context, err error, message string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":      domain.ErrValidation,
			"validation": verr,
			"request_id": c.GetString("correlation_id"),
		})
	case errors.Is(err, domain.ErrNotFound):
		s.writeError(c, http.StatusNotFound, domain.ErrNotFoundCode, "resource not found", "")
	default:
		s.writeError(c, http.StatusInternalServerError, domain.ErrInternalServer, message, err.Error())
	}
}

func (s *Server) writeError(c *gin.Context, status int, code, message, details string) {
	c.JSON(status, domain.NewAPIError(code, message, details, c.GetString("correlation_id")))
}
