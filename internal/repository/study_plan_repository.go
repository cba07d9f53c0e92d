package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/swiaape-api/internal/models"
)

const studyPlanColumns = `id, parent_id, name, course, grade, version, generation_date, accuracy, status, objectives, competencies, units, estimated_hours, materials, student_id, weaknesses, narrative, revision_feedback, created_at, updated_at`

// StudyPlanRepository persists study plans.
type StudyPlanRepository struct {
	db *sqlx.DB
}

// NewStudyPlanRepository constructs a StudyPlanRepository.
func NewStudyPlanRepository(db *sqlx.DB) *StudyPlanRepository {
	return &StudyPlanRepository{db: db}
}

// Create inserts a plan. Revisions are inserted as new rows.
func (r *StudyPlanRepository) Create(ctx context.Context, plan *models.StudyPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = now
	}
	if plan.UpdatedAt.IsZero() {
		plan.UpdatedAt = now
	}

	const query = `INSERT INTO study_plans (id, parent_id, name, course, grade, version, generation_date, accuracy, status, objectives, competencies, units, estimated_hours, materials, student_id, weaknesses, narrative, revision_feedback, created_at, updated_at) VALUES (:id, :parent_id, :name, :course, :grade, :version, :generation_date, :accuracy, :status, :objectives, :competencies, :units, :estimated_hours, :materials, :student_id, :weaknesses, :narrative, :revision_feedback, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, plan); err != nil {
		return fmt.Errorf("create study plan: %w", err)
	}
	return nil
}

// FindByID returns a plan by identifier.
func (r *StudyPlanRepository) FindByID(ctx context.Context, id string) (*models.StudyPlan, error) {
	query := `SELECT ` + studyPlanColumns + ` FROM study_plans WHERE id = $1 LIMIT 1`
	var plan models.StudyPlan
	if err := r.db.GetContext(ctx, &plan, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find study plan: %w", err)
	}
	return &plan, nil
}

// UpdateStatus moves a plan to status only if it is still in from, so two
// reviewers cannot both apply the same transition.
func (r *StudyPlanRepository) UpdateStatus(ctx context.Context, id string, from, to models.PlanStatus, at time.Time) error {
	const query = `UPDATE study_plans SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	res, err := r.db.ExecContext(ctx, query, id, from, to, at)
	if err != nil {
		return fmt.Errorf("update study plan status: %w", err)
	}
	return expectAffected(res, "update study plan status")
}

// List returns plans newest first.
func (r *StudyPlanRepository) List(ctx context.Context, filter models.StudyPlanFilter) ([]models.StudyPlan, error) {
	var (
		conditions []string
		args       []interface{}
	)
	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		conditions = append(conditions, fmt.Sprintf("student_id = $%d", len(args)))
	}

	query := `SELECT ` + studyPlanColumns + ` FROM study_plans`
	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, " AND ")
	}
	query += ` ORDER BY generation_date DESC, created_at DESC`

	plans := []models.StudyPlan{}
	if err := r.db.SelectContext(ctx, &plans, query, args...); err != nil {
		return nil, fmt.Errorf("list study plans: %w", err)
	}
	return plans, nil
}

// CountByStatus returns the number of plans per status.
func (r *StudyPlanRepository) CountByStatus(ctx context.Context) (map[models.PlanStatus]int, error) {
	const query = `SELECT status, COUNT(*) AS total FROM study_plans GROUP BY status`
	var rows []struct {
		Status models.PlanStatus `db:"status"`
		Total  int               `db:"total"`
	}
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		return nil, fmt.Errorf("count study plans: %w", err)
	}
	counts := make(map[models.PlanStatus]int, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}
