package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/swiaape-api/internal/models"
)

// CourseRepository reads course rosters and persists committed notes.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// ListByTeacher returns the teacher's courses with their rosters.
func (r *CourseRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error) {
	const query = `SELECT id, name, grade, section, status FROM courses WHERE teacher_id = $1 ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, teacherID); err != nil {
		return nil, fmt.Errorf("list courses by teacher: %w", err)
	}
	return r.attachRosters(ctx, courses)
}

// ListAll returns every course with its roster.
func (r *CourseRepository) ListAll(ctx context.Context) ([]models.Course, error) {
	const query = `SELECT id, name, grade, section, status FROM courses ORDER BY name ASC`
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return r.attachRosters(ctx, courses)
}

func (r *CourseRepository) attachRosters(ctx context.Context, courses []models.Course) ([]models.Course, error) {
	if len(courses) == 0 {
		return []models.Course{}, nil
	}

	ids := make([]string, len(courses))
	index := make(map[string]int, len(courses))
	for i, c := range courses {
		ids[i] = c.ID
		index[c.ID] = i
		courses[i].Students = []models.GradeRow{}
	}

	const query = `SELECT ce.course_id, s.id AS student_id, s.full_name, s.national_id, ce.note1, ce.note2, ce.note3
FROM course_enrollments ce
JOIN students s ON s.id = ce.student_id
WHERE ce.course_id = ANY($1)
ORDER BY s.full_name ASC`
	var rows []models.GradeRow
	if err := r.db.SelectContext(ctx, &rows, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("list course rosters: %w", err)
	}
	for _, row := range rows {
		i, ok := index[row.CourseID]
		if !ok {
			continue
		}
		courses[i].Students = append(courses[i].Students, row)
	}
	return courses, nil
}

// SubmitGrades writes every update in one transaction. Nothing is written
// when any enrollment is missing.
func (r *CourseRepository) SubmitGrades(ctx context.Context, updates []models.GradeUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin submit grades: %w", err)
	}

	const query = `UPDATE course_enrollments SET note1 = $3, note2 = $4, note3 = $5, updated_at = $6 WHERE course_id = $1 AND student_id = $2`
	now := time.Now().UTC()
	for _, u := range updates {
		res, err := tx.ExecContext(ctx, query, u.CourseID, u.StudentID, u.Note1, u.Note2, u.Note3, now)
		if err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("update notes for student %s: %w", u.StudentID, err)
		}
		if err := expectAffected(res, "update notes"); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("enrollment of student %s in course %s: %w", u.StudentID, u.CourseID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit submit grades: %w", err)
	}
	return nil
}
