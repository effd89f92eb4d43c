package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
	"github.com/samanyuahuja/NephroCare-sub000/internal/repository"
)

func newChatbot(remoteURL string) *ChatbotService {
	return NewChatbotService(repository.NewMemoryStore(), &domain.ChatbotConfig{RemoteURL: remoteURL}, testLogger())
}

func TestRuleResponseFirstMatchWins(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		contains string
	}{
		{"greeting", "Hello there", "NephroBot"},
		{"greeting short", "hi", "NephroBot"},
		{"creatinine", "what does my creatinine value mean?", "0.6 to 1.2 mg/dL"},
		{"diet", "What should I eat?", "kidney-friendly diet"},
		{"hydration", "how much water per day", "2 to 3 liters"},
		{"symptoms", "what are the warning signs", "foamy urine"},
		{"blood pressure", "is my blood pressure related", "130/80"},
		{"dialysis", "will I need dialysis", "filtration"},
		{"prevention", "how do I protect my kidneys", "NSAID"},
		{"exercise", "does physical activity help", "30 minutes"},
		{"staging", "what is my gfr stage", "staged 1 to 5"},
		{"case insensitive", "CREATININE LEVELS", "0.6 to 1.2 mg/dL"},
		{"unmatched", "tell me about quantum physics", "rephrase"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, RuleResponse(tt.message), tt.contains)
		})
	}
}

func TestRuleResponseGreetingBeatsLaterRules(t *testing.T) {
	// "hello, what diet should I follow" matches both the greeting and the
	// diet rule; the greeting sits first in the table.
	response := RuleResponse("hello, what diet should I follow")
	assert.Contains(t, response, "NephroBot")
}

func TestAskPersistsExchange(t *testing.T) {
	svc := newChatbot("")

	msg, err := svc.Ask(context.Background(), "what is creatinine")
	require.NoError(t, err)
	assert.Equal(t, "what is creatinine", msg.Message)
	assert.Contains(t, msg.Response, "creatinine")
	assert.NotZero(t, msg.ID)

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, msg.ID, history[0].ID)
}

func TestAskRejectsEmptyMessage(t *testing.T) {
	svc := newChatbot("")

	for _, message := range []string{"", "   ", "\n\t"} {
		_, err := svc.Ask(context.Background(), message)
		var verr *domain.ValidationError
		assert.ErrorAs(t, err, &verr)
	}

	history, err := svc.History(context.Background())
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestAskPrefersRemoteChatbot(t *testing.T) {
	remote := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"response":"remote answer about creatinine"}`))
	}))
	defer remote.Close()

	svc := newChatbot(remote.URL)

	msg, err := svc.Ask(context.Background(), "what is creatinine")
	require.NoError(t, err)
	assert.Equal(t, "remote answer about creatinine", msg.Response)
}

func TestAskFallsBackWhenRemoteFails(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"empty response", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"response":""}`))
		}},
		{"bad payload", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`not json`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := httptest.NewServer(tt.handler)
			defer remote.Close()

			svc := newChatbot(remote.URL)

			msg, err := svc.Ask(context.Background(), "what is creatinine")
			require.NoError(t, err)
			assert.Equal(t, RuleResponse("what is creatinine"), msg.Response)
		})
	}
}
