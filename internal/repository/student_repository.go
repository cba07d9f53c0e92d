package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/swiaape-api/internal/models"
)

const studentColumns = `id, user_id, national_id, full_name, code, grade, section, period, performance`

// StudentRepository reads students and their competency evaluations.
type StudentRepository struct {
	db *sqlx.DB
}

// NewStudentRepository constructs a StudentRepository.
func NewStudentRepository(db *sqlx.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// FindByNationalID returns the student with the given national ID and their evaluations.
func (r *StudentRepository) FindByNationalID(ctx context.Context, nationalID string) (*models.Student, error) {
	return r.findOne(ctx, "national_id", nationalID)
}

// FindByID returns a student by identifier with evaluations.
func (r *StudentRepository) FindByID(ctx context.Context, id string) (*models.Student, error) {
	return r.findOne(ctx, "id", id)
}

// FindByUserID returns the student linked to a login account.
func (r *StudentRepository) FindByUserID(ctx context.Context, userID string) (*models.Student, error) {
	return r.findOne(ctx, "user_id", userID)
}

func (r *StudentRepository) findOne(ctx context.Context, column, value string) (*models.Student, error) {
	query := fmt.Sprintf(`SELECT %s FROM students WHERE %s = $1 LIMIT 1`, studentColumns, column)
	var student models.Student
	if err := r.db.GetContext(ctx, &student, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find student by %s: %w", column, err)
	}

	evaluations, err := r.evaluations(ctx, student.ID)
	if err != nil {
		return nil, err
	}
	student.Evaluations = evaluations
	return &student, nil
}

func (r *StudentRepository) evaluations(ctx context.Context, studentID string) ([]models.Evaluation, error) {
	const query = `SELECT c.course_name, c.name AS competency_name, e.grade, e.period, e.evaluated_at
FROM evaluations e
JOIN competencies c ON c.id = e.competency_id
WHERE e.student_id = $1
ORDER BY e.evaluated_at ASC NULLS LAST, e.created_at ASC`
	evaluations := []models.Evaluation{}
	if err := r.db.SelectContext(ctx, &evaluations, query, studentID); err != nil {
		return nil, fmt.Errorf("list evaluations: %w", err)
	}
	return evaluations, nil
}
