package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

// SQLiteStore implements AssessmentStore, DietPlanStore and ChatStore on an
// embedded SQLite file, for single-binary deployments without Postgres.
// Food lists are stored as JSON text.
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
	log    *logrus.Logger
}

// NewSQLiteStore creates a new SQLite store.
// It creates the database file and schema if they don't exist.
func NewSQLiteStore(dbPath string, logger *logrus.Logger) (*SQLiteStore, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set WAL mode: %w", err)
	}

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		dbPath: dbPath,
		log:    logger,
	}, nil
}

// createSQLiteSchema creates the database tables and indexes.
func createSQLiteSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS assessments (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		patient_name TEXT NOT NULL,
		age REAL NOT NULL,
		blood_pressure REAL NOT NULL,
		albumin REAL NOT NULL,
		sugar REAL NOT NULL,
		red_blood_cells TEXT NOT NULL,
		pus_cell TEXT NOT NULL,
		bacteria TEXT NOT NULL,
		blood_glucose_random REAL NOT NULL,
		blood_urea REAL NOT NULL,
		serum_creatinine REAL NOT NULL,
		sodium REAL NOT NULL,
		potassium REAL NOT NULL,
		hemoglobin REAL NOT NULL,
		white_blood_cell_count REAL NOT NULL,
		red_blood_cell_count REAL NOT NULL,
		hypertension TEXT NOT NULL,
		diabetes_mellitus TEXT NOT NULL,
		coronary_artery_disease TEXT NOT NULL,
		appetite TEXT NOT NULL,
		pedal_edema TEXT NOT NULL,
		anemia TEXT NOT NULL,
		risk_status TEXT NOT NULL DEFAULT 'pending',
		risk_probability REAL,
		risk_level TEXT,
		explanation TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS diet_plans (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		assessment_id INTEGER NOT NULL,
		diet_type TEXT NOT NULL,
		foods_to_eat TEXT NOT NULL,
		foods_to_avoid TEXT NOT NULL,
		water_intake TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS chat_messages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		message TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_assessments_created_at ON assessments(created_at);
	CREATE INDEX IF NOT EXISTS idx_diet_plans_assessment ON diet_plans(assessment_id, diet_type);
	CREATE INDEX IF NOT EXISTS idx_chat_created_at ON chat_messages(created_at);
	`

	_, err := db.Exec(schema)
	return err
}

// CreateAssessment inserts a normalized record in the pending state.
func (s *SQLiteStore) CreateAssessment(ctx context.Context, record *domain.ClinicalRecord) (*domain.Assessment, error) {
	query := `
		INSERT INTO assessments (
			patient_name, age, blood_pressure, albumin, sugar,
			red_blood_cells, pus_cell, bacteria, blood_glucose_random, blood_urea,
			serum_creatinine, sodium, potassium, hemoglobin, white_blood_cell_count,
			red_blood_cell_count, hypertension, diabetes_mellitus,
			coronary_artery_disease, appetite, pedal_edema, anemia, risk_status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	result, err := s.db.ExecContext(ctx, query,
		record.PatientName, record.Age, record.BloodPressure, record.Albumin, record.Sugar,
		record.RedBloodCells, record.PusCell, record.Bacteria, record.BloodGlucoseRandom, record.BloodUrea,
		record.SerumCreatinine, record.Sodium, record.Potassium, record.Hemoglobin, record.WhiteBloodCells,
		record.RedBloodCellCount, record.Hypertension, record.DiabetesMellitus,
		record.CoronaryArtery, record.Appetite, record.PedalEdema, record.Anemia,
		string(domain.StatusPending),
	)
	if err != nil {
		return nil, fmt.Errorf("creating assessment: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading assessment id: %w", err)
	}

	return s.GetAssessment(ctx, id)
}

const sqliteAssessmentColumns = `
	id, patient_name, age, blood_pressure, albumin, sugar,
	red_blood_cells, pus_cell, bacteria, blood_glucose_random, blood_urea,
	serum_creatinine, sodium, potassium, hemoglobin, white_blood_cell_count,
	red_blood_cell_count, hypertension, diabetes_mellitus,
	coronary_artery_disease, appetite, pedal_edema, anemia,
	risk_status, risk_probability, risk_level, explanation, created_at`

// GetAssessment retrieves one assessment by ID.
func (s *SQLiteStore) GetAssessment(ctx context.Context, id int64) (*domain.Assessment, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sqliteAssessmentColumns+` FROM assessments WHERE id = ?`, id)

	assessment, err := scanSQLiteAssessment(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting assessment: %w", err)
	}
	return assessment, nil
}

// ListAssessments returns all assessments, newest first.
func (s *SQLiteStore) ListAssessments(ctx context.Context) ([]*domain.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteAssessmentColumns+` FROM assessments ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*domain.Assessment
	for rows.Next() {
		assessment, err := scanSQLiteAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment row: %w", err)
		}
		assessments = append(assessments, assessment)
	}
	return assessments, rows.Err()
}

// UpdateRisk writes probability, level and explanation atomically and moves
// the record to computed.
func (s *SQLiteStore) UpdateRisk(ctx context.Context, id int64, probability float64, level domain.RiskLevel, explanation *string) (*domain.Assessment, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE assessments SET risk_probability = ?, risk_level = ?, explanation = ?, risk_status = ? WHERE id = ?`,
		probability, string(level), explanation, string(domain.StatusComputed), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating risk fields: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return nil, fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
	}
	return s.GetAssessment(ctx, id)
}

// MarkFailed moves a record to the failed state.
func (s *SQLiteStore) MarkFailed(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE assessments SET risk_status = ? WHERE id = ?`,
		string(domain.StatusFailed), id,
	)
	if err != nil {
		return fmt.Errorf("marking assessment failed: %w", err)
	}
	if affected, _ := result.RowsAffected(); affected == 0 {
		return fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CreateDietPlan inserts a generated plan.
func (s *SQLiteStore) CreateDietPlan(ctx context.Context, plan *domain.DietPlan) (*domain.DietPlan, error) {
	eat, err := json.Marshal(plan.FoodsToEat)
	if err != nil {
		return nil, fmt.Errorf("encoding foods to eat: %w", err)
	}
	avoid, err := json.Marshal(plan.FoodsToAvoid)
	if err != nil {
		return nil, fmt.Errorf("encoding foods to avoid: %w", err)
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO diet_plans (assessment_id, diet_type, foods_to_eat, foods_to_avoid, water_intake) VALUES (?, ?, ?, ?, ?)`,
		plan.AssessmentID, string(plan.DietType), string(eat), string(avoid), plan.WaterIntake,
	)
	if err != nil {
		return nil, fmt.Errorf("creating diet plan: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading diet plan id: %w", err)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, assessment_id, diet_type, foods_to_eat, foods_to_avoid, water_intake, created_at
		 FROM diet_plans WHERE id = ?`, id)
	stored, err := scanSQLiteDietPlan(row)
	if err != nil {
		return nil, fmt.Errorf("reading diet plan: %w", err)
	}
	return stored, nil
}

// GetDietPlanByAssessment fetches the plan for an assessment and diet type.
func (s *SQLiteStore) GetDietPlanByAssessment(ctx context.Context, assessmentID int64, dietType domain.DietType) (*domain.DietPlan, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, assessment_id, diet_type, foods_to_eat, foods_to_avoid, water_intake, created_at
		 FROM diet_plans WHERE assessment_id = ? AND diet_type = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		assessmentID, string(dietType),
	)

	plan, err := scanSQLiteDietPlan(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("diet plan for assessment %d: %w", assessmentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("getting diet plan: %w", err)
	}
	return plan, nil
}

// ListDietPlans returns all plans, newest first.
func (s *SQLiteStore) ListDietPlans(ctx context.Context) ([]*domain.DietPlan, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, assessment_id, diet_type, foods_to_eat, foods_to_avoid, water_intake, created_at
		 FROM diet_plans ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing diet plans: %w", err)
	}
	defer rows.Close()

	var plans []*domain.DietPlan
	for rows.Next() {
		plan, err := scanSQLiteDietPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning diet plan row: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// CreateChatMessage stores one exchange.
func (s *SQLiteStore) CreateChatMessage(ctx context.Context, message, response string) (*domain.ChatMessage, error) {
	result, err := s.db.ExecContext(ctx,
		`INSERT INTO chat_messages (message, response) VALUES (?, ?)`,
		message, response,
	)
	if err != nil {
		return nil, fmt.Errorf("creating chat message: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("reading chat message id: %w", err)
	}

	var msg domain.ChatMessage
	err = s.db.QueryRowContext(ctx,
		`SELECT id, message, response, created_at FROM chat_messages WHERE id = ?`, id,
	).Scan(&msg.ID, &msg.Message, &msg.Response, &msg.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading chat message: %w", err)
	}
	return &msg, nil
}

// ListChatMessages returns all exchanges, oldest first.
func (s *SQLiteStore) ListChatMessages(ctx context.Context) ([]*domain.ChatMessage, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, message, response, created_at FROM chat_messages ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing chat messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.ChatMessage
	for rows.Next() {
		var msg domain.ChatMessage
		if err := rows.Scan(&msg.ID, &msg.Message, &msg.Response, &msg.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chat message row: %w", err)
		}
		messages = append(messages, &msg)
	}
	return messages, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanSQLiteAssessment(row rowScanner) (*domain.Assessment, error) {
	var (
		a       domain.Assessment
		status  string
		level   *string
		created time.Time
	)

	err := row.Scan(
		&a.ID, &a.PatientName, &a.Age, &a.BloodPressure, &a.Albumin, &a.Sugar,
		&a.RedBloodCells, &a.PusCell, &a.Bacteria, &a.BloodGlucoseRandom, &a.BloodUrea,
		&a.SerumCreatinine, &a.Sodium, &a.Potassium, &a.Hemoglobin, &a.WhiteBloodCells,
		&a.RedBloodCellCount, &a.Hypertension, &a.DiabetesMellitus,
		&a.CoronaryArtery, &a.Appetite, &a.PedalEdema, &a.Anemia,
		&status, &a.RiskProbability, &level, &a.Explanation, &created,
	)
	if err != nil {
		return nil, err
	}

	a.RiskStatus = domain.RiskStatus(status)
	a.CreatedAt = created
	if level != nil {
		l := domain.RiskLevel(*level)
		a.RiskLevel = &l
	}
	return &a, nil
}

func scanSQLiteDietPlan(row rowScanner) (*domain.DietPlan, error) {
	var (
		plan     domain.DietPlan
		dietType string
		eat      string
		avoid    string
	)
	if err := row.Scan(&plan.ID, &plan.AssessmentID, &dietType, &eat, &avoid, &plan.WaterIntake, &plan.CreatedAt); err != nil {
		return nil, err
	}
	plan.DietType = domain.DietType(dietType)
	if err := json.Unmarshal([]byte(eat), &plan.FoodsToEat); err != nil {
		return nil, fmt.Errorf("decoding foods to eat: %w", err)
	}
	if err := json.Unmarshal([]byte(avoid), &plan.FoodsToAvoid); err != nil {
		return nil, fmt.Errorf("decoding foods to avoid: %w", err)
	}
	return &plan, nil
}
