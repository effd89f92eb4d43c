// Package repository provides the persistence layer: a pgx-backed Postgres
// store for assessments, database/sql stores for diet plans and chat
// history, an embedded SQLite backend and an in-memory implementation.
package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/samanyuahuja/NephroCare-sub000/internal/domain"
)

const assessmentColumns = `
	id, patient_name, age, blood_pressure, albumin, sugar,
	red_blood_cells, pus_cell, bacteria, blood_glucose_random, blood_urea,
	serum_creatinine, sodium, potassium, hemoglobin, white_blood_cell_count,
	red_blood_cell_count, hypertension, diabetes_mellitus,
	coronary_artery_disease, appetite, pedal_edema, anemia,
	risk_status, risk_probability, risk_level, explanation, created_at`

// AssessmentRepository handles assessment persistence on Postgres.
type AssessmentRepository struct {
	db  *pgxpool.Pool
	log *logrus.Logger
}

// NewAssessmentRepository creates a new assessment repository
func NewAssessmentRepository(db *pgxpool.Pool, logger *logrus.Logger) *AssessmentRepository {
	return &AssessmentRepository{
		db:  db,
		log: logger,
	}
}

// CreateAssessment inserts a normalized record in the pending state.
func (r *AssessmentRepository) CreateAssessment(ctx context.Context, record *domain.ClinicalRecord) (*domain.Assessment, error) {
	query := `
		INSERT INTO assessments (
			patient_name, age, blood_pressure, albumin, sugar,
			red_blood_cells, pus_cell, bacteria, blood_glucose_random, blood_urea,
			serum_creatinine, sodium, potassium, hemoglobin, white_blood_cell_count,
			red_blood_cell_count, hypertension, diabetes_mellitus,
			coronary_artery_disease, appetite, pedal_edema, anemia, risk_status
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23
		) RETURNING ` + assessmentColumns

	row := r.db.QueryRow(ctx, query,
		record.PatientName, record.Age, record.BloodPressure, record.Albumin, record.Sugar,
		record.RedBloodCells, record.PusCell, record.Bacteria, record.BloodGlucoseRandom, record.BloodUrea,
		record.SerumCreatinine, record.Sodium, record.Potassium, record.Hemoglobin, record.WhiteBloodCells,
		record.RedBloodCellCount, record.Hypertension, record.DiabetesMellitus,
		record.CoronaryArtery, record.Appetite, record.PedalEdema, record.Anemia,
		string(domain.StatusPending),
	)

	assessment, err := scanAssessment(row)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"patient": record.PatientName,
			"error":   err,
		}).Error("Failed to create assessment")
		return nil, fmt.Errorf("creating assessment: %w", err)
	}

	r.log.WithFields(logrus.Fields{
		"assessment_id": assessment.ID,
		"patient":       assessment.PatientName,
	}).Info("Assessment created")

	return assessment, nil
}

// GetAssessment retrieves one assessment by ID.
func (r *AssessmentRepository) GetAssessment(ctx context.Context, id int64) (*domain.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments WHERE id = $1`

	assessment, err := scanAssessment(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"assessment_id": id,
			"error":         err,
		}).Error("Failed to get assessment")
		return nil, fmt.Errorf("getting assessment: %w", err)
	}

	return assessment, nil
}

// ListAssessments returns all assessments, newest first.
func (r *AssessmentRepository) ListAssessments(ctx context.Context) ([]*domain.Assessment, error) {
	query := `SELECT ` + assessmentColumns + ` FROM assessments ORDER BY created_at DESC, id DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing assessments: %w", err)
	}
	defer rows.Close()

	var assessments []*domain.Assessment
	for rows.Next() {
		assessment, err := scanAssessment(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning assessment row: %w", err)
		}
		assessments = append(assessments, assessment)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating assessment rows: %w", err)
	}

	return assessments, nil
}

// UpdateRisk writes probability, level and explanation in one statement and
// moves the record to computed. The three fields are never written
// separately.
func (r *AssessmentRepository) UpdateRisk(ctx context.Context, id int64, probability float64, level domain.RiskLevel, explanation *string) (*domain.Assessment, error) {
	query := `
		UPDATE assessments
		SET risk_probability = $2, risk_level = $3, explanation = $4, risk_status = $5
		WHERE id = $1
		RETURNING ` + assessmentColumns

	assessment, err := scanAssessment(r.db.QueryRow(ctx, query, id, probability, string(level), explanation, string(domain.StatusComputed)))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
		}
		r.log.WithFields(logrus.Fields{
			"assessment_id": id,
			"error":         err,
		}).Error("Failed to update risk fields")
		return nil, fmt.Errorf("updating risk fields: %w", err)
	}

	return assessment, nil
}

// MarkFailed moves a record to the failed state without touching risk
// fields.
func (r *AssessmentRepository) MarkFailed(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE assessments SET risk_status = $2 WHERE id = $1`,
		id, string(domain.StatusFailed),
	)
	if err != nil {
		return fmt.Errorf("marking assessment failed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("assessment %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAssessment(row rowScanner) (*domain.Assessment, error) {
	var (
		a      domain.Assessment
		status string
		level  *string
	)

	err := row.Scan(
		&a.ID, &a.PatientName, &a.Age, &a.BloodPressure, &a.Albumin, &a.Sugar,
		&a.RedBloodCells, &a.PusCell, &a.Bacteria, &a.BloodGlucoseRandom, &a.BloodUrea,
		&a.SerumCreatinine, &a.Sodium, &a.Potassium, &a.Hemoglobin, &a.WhiteBloodCells,
		&a.RedBloodCellCount, &a.Hypertension, &a.DiabetesMellitus,
		&a.CoronaryArtery, &a.Appetite, &a.PedalEdema, &a.Anemia,
		&status, &a.RiskProbability, &level, &a.Explanation, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	a.RiskStatus = domain.RiskStatus(status)
	if level != nil {
		l := domain.RiskLevel(*level)
		a.RiskLevel = &l
	}
	return &a, nil
}
