package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// MemoryStore is an in-memory implementation of AssessmentStore,
// DietPlanStore and ChatStore. It backs tests and the "memory" database
// driver.
type MemoryStore struct {
	mu sync.RWMutex

	assessments map[int64]*domain.Assessment
	dietPlans   map[int64]*domain.DietPlan
	chat        []*domain.ChatMessage

	nextAssessmentID int64
	nextDietPlanID   int64
	nextChatID       int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		assessments:      make(map[int64]*domain.Assessment),
		dietPlans:        make(map[int64]*domain.DietPlan),
		nextAssessmentID: 1,
		nextDietPlanID:   1,
		nextChatID:       1,
	}
}

// CreateAssessment stores a normalized record in the pending state.
func (m *MemoryStore) CreateAssessment(ctx context.Context, record *domain.ClinicalRecord) (*domain.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assessment := &domain.Assessment{
		ID:             m.nextAssessmentID,
		ClinicalRecord: *record,
		RiskStatus:     domain.StatusPending,
		CreatedAt:      time.Now().UTC(),
	}
	m.nextAssessmentID++
	m.assessments[assessment.ID] = assessment

	copied := *assessment
	return &copied, nil
}

// GetAssessment retrieves one assessment by ID.
func (m *MemoryStore) GetAssessment(ctx context.Context, id int64) (*domain.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	assessment, ok := m.assessments[id]
	if !ok {
		return nil, fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
	}
	copied := *assessment
	return &copied, nil
}

// ListAssessments returns all assessments, newest first.
func (m *MemoryStore) ListAssessments(ctx context.Context) ([]*domain.Assessment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Assessment, 0, len(m.assessments))
	for _, assessment := range m.assessments {
		copied := *assessment
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// UpdateRisk writes probability, level and explanation together and moves
// the record to computed.
func (m *MemoryStore) UpdateRisk(ctx context.Context, id int64, probability float64, level domain.RiskLevel, explanation *string) (*domain.Assessment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	assessment, ok := m.assessments[id]
	if !ok {
		return nil, fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
	}

	p := probability
	l := level
	assessment.RiskProbability = &p
	assessment.RiskLevel = &l
	assessment.Explanation = explanation
	assessment.RiskStatus = domain.StatusComputed

	copied := *assessment
	return &copied, nil
}

// MarkFailed moves a record to the failed state.
func (m *MemoryStore) MarkFailed(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	assessment, ok := m.assessments[id]
	if !ok {
		return fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
	}
	assessment.RiskStatus = domain.StatusFailed
	return nil
}

// CreateDietPlan stores a generated plan.
func (m *MemoryStore) CreateDietPlan(ctx context.Context, plan *domain.DietPlan) (*domain.DietPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *plan
	stored.ID = m.nextDietPlanID
	stored.CreatedAt = time.Now().UTC()
	m.nextDietPlanID++
	m.dietPlans[stored.ID] = &stored

	copied := stored
	return &copied, nil
}

// GetDietPlanByAssessment fetches the plan for an assessment and diet type.
func (m *MemoryStore) GetDietPlanByAssessment(ctx context.Context, assessmentID int64, dietType domain.DietType) (*domain.DietPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest *domain.DietPlan
	for _, plan := range m.dietPlans {
		if plan.AssessmentID != assessmentID || plan.DietType != dietType {
			continue
		}
		if latest == nil || plan.ID > latest.ID {
			latest = plan
		}
	}
	if latest == nil {
		return nil, fmt.Errorf("diet plan for assessment %d: %w", assessmentID, domain.ErrNotFound)
	}
	copied := *latest
	return &copied, nil
}

// ListDietPlans returns all plans, newest first.
func (m *MemoryStore) ListDietPlans(ctx context.Context) ([]*domain.DietPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.DietPlan, 0, len(m.dietPlans))
	for _, plan := range m.dietPlans {
		copied := *plan
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

// CreateChatMessage stores one exchange.
func (m *MemoryStore) CreateChatMessage(ctx context.Context, message, response string) (*domain.ChatMessage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := &domain.ChatMessage{
		ID:        m.nextChatID,
		Message:   message,
		Response:  response,
		CreatedAt: time.Now().UTC(),
	}
	m.nextChatID++
	m.chat = append(m.chat, msg)

	copied := *msg
	return &copied, nil
}

// ListChatMessages returns all exchanges, oldest first.
func (m *MemoryStore) ListChatMessages(ctx context.Context) ([]*domain.ChatMessage, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.ChatMessage, 0, len(m.chat))
	for _, msg := range m.chat {
		copied := *msg
		out = append(out, &copied)
	}
	return out, nil
}
