package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// chatRule pairs trigger keywords with a canned response. Rules are
// evaluated in order and the first match wins.
type chatRule struct {
	keywords []string
	response string
}

// The NephroBot rule table. Order matters: more specific topics sit above
// general ones, and the greeting is matched before anything else falls
// through to the default.
var chatRules = []chatRule{
	{
		keywords: []string{"hello", "hi ", "hey"},
		response: "Hello! I'm NephroBot, your kidney health assistant. Ask me about CKD symptoms, diet, hydration, or test values like creatinine.",
	},
	{
		keywords: []string{"creatinine"},
		response: "Serum creatinine measures how well your kidneys filter waste. Normal is roughly 0.6 to 1.2 mg/dL; values above 1.4 mg/dL can indicate reduced kidney function and are worth discussing with a doctor.",
	},
	{
		keywords: []string{"diet", "food", "eat"},
		response: "A kidney-friendly diet limits sodium, potassium and phosphorus. Favor cauliflower, cabbage, apples, berries and white rice; limit bananas, potatoes, tomatoes, dairy and processed foods. Generate a diet plan from your assessment for a personalized list.",
	},
	{
		keywords: []string{"water", "drink", "fluid", "hydration"},
		response: "Staying hydrated helps your kidneys clear waste. Aim for 2 to 3 liters a day unless your doctor has prescribed a fluid restriction, which is common in later CKD stages.",
	},
	{
		keywords: []string{"symptom", "sign"},
		response: "Early CKD often has no symptoms. Later signs include fatigue, swollen ankles or feet, foamy urine, poor appetite and trouble concentrating. A screening assessment can estimate your risk from lab values.",
	},
	{
		keywords: []string{"blood pressure", "hypertension", "bp"},
		response: "High blood pressure both causes and results from kidney disease. Keeping it below 130/80 protects your kidneys; monitor regularly and follow your prescribed medication.",
	},
	{
		keywords: []string{"dialysis"},
		response: "Dialysis takes over filtration when kidneys fail, usually at very advanced CKD. Early detection and management can delay or prevent the need for it.",
	},
	{
		keywords: []string{"prevent", "avoid", "protect"},
		response: "Protect your kidneys by controlling blood pressure and blood sugar, staying hydrated, limiting salt, avoiding regular use of NSAID painkillers, not smoking and getting screened if you have diabetes or hypertension.",
	},
	{
		keywords: []string{"exercise", "activity"},
		response: "Moderate exercise such as 30 minutes of walking most days helps control blood pressure and blood sugar, both of which protect kidney function.",
	},
	{
		keywords: []string{"stage", "gfr", "egfr"},
		response: "CKD is staged 1 to 5 by estimated GFR. Stage 1-2 is mild (GFR above 60), stage 3 moderate (30-59), stage 4 severe (15-29) and stage 5 kidney failure (below 15).",
	},
}

const chatFallbackResponse = "I can help with questions about kidney health, CKD symptoms, diet, hydration and lab values like creatinine. Could you rephrase your question?"

// ChatbotService answers kidney-health questions. A configured remote
// chatbot endpoint is tried first with a short timeout; the built-in rule
// table is the fallback. Every exchange is persisted.
type ChatbotService struct {
	store  domain.ChatStore
	cfg    *domain.ChatbotConfig
	client *http.Client
	log    *logrus.Logger
}

// NewChatbotService creates the service.
func NewChatbotService(store domain.ChatStore, cfg *domain.ChatbotConfig, logger *logrus.Logger) *ChatbotService {
	timeout := cfg.RemoteTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &ChatbotService{
		store:  store,
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
		log:    logger,
	}
}

// Ask answers a message and persists the exchange.
func (s *ChatbotService) Ask(ctx context.Context, message string) (*domain.ChatMessage, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.NewValidationError("message", "message is required", message)
	}

	response := s.answer(ctx, message)

	stored, err := s.store.CreateChatMessage(ctx, message, response)
	if err != nil {
		return nil, fmt.Errorf("persisting chat message: %w", err)
	}
	return stored, nil
}

// History returns all stored exchanges, oldest first.
func (s *ChatbotService) History(ctx context.Context) ([]*domain.ChatMessage, error) {
	return s.store.ListChatMessages(ctx)
}

func (s *ChatbotService) answer(ctx context.Context, message string) string {
	if s.cfg != nil && s.cfg.RemoteURL != "" {
		if response, err := s.askRemote(ctx, message); err == nil {
			return response
		} else {
			s.log.WithError(err).Debug("Remote chatbot unavailable, using rule table")
		}
	}
	return RuleResponse(message)
}

// RuleResponse evaluates the rule table first-match-wins.
func RuleResponse(message string) string {
	lowered := " " + strings.ToLower(message) + " "
	for _, rule := range chatRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lowered, keyword) {
				return rule.response
			}
		}
	}
	return chatFallbackResponse
}

func (s *ChatbotService) askRemote(ctx context.Context, message string) (string, error) {
	body, err := json.Marshal(map[string]string{"message": message})
	if err != nil {
		return "", fmt.Errorf("encoding remote chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.cfg.RemoteURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building remote chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling remote chatbot: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("remote chatbot returned status %d", resp.StatusCode)
	}

	var payload struct {
		Response string `json:"response"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding remote chatbot response: %w", err)
	}
	if strings.TrimSpace(payload.Response) == "" {
		return "", fmt.Errorf("remote chatbot returned empty response")
	}
	return payload.Response, nil
}
