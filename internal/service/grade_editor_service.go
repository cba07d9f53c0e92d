package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/internal/navigation"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

type gradeStore interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Course, error)
	SubmitGrades(ctx context.Context, updates []models.GradeUpdate) error
}

type auditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// GradeEditorService runs the teacher panel: roster loading and the
// per-course note editor kept in the session.
type GradeEditorService struct {
	store  gradeStore
	audit  auditWriter
	guard  staleGuard
	router *navigation.Router
	logger *zap.Logger
}

// NewGradeEditorService constructs a GradeEditorService.
func NewGradeEditorService(store gradeStore, audit auditWriter, guard staleGuard, router *navigation.Router, logger *zap.Logger) *GradeEditorService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if router == nil {
		router = navigation.NewRouter()
	}
	return &GradeEditorService{store: store, audit: audit, guard: guard, router: router, logger: logger}
}

// LoadRoster fetches the teacher's courses into the session. A store
// failure leaves the roster empty and marks the result degraded.
func (s *GradeEditorService) LoadRoster(ctx context.Context, session *models.Session) (*dto.RosterResponse, error) {
	if err := s.requireTeacher(session); err != nil {
		return nil, err
	}

	generation := session.Generation
	courses, err := s.store.ListByTeacher(ctx, session.Identity.ID)
	if staleErr := s.guard.EnsureCurrent(ctx, session.ID, generation); staleErr != nil {
		return nil, staleErr
	}
	if err != nil {
		s.logger.Error("failed to load teacher courses", zap.String("teacher_id", session.Identity.ID), zap.Error(err))
		session.Courses = []models.Course{}
		session.Draft = nil
		return &dto.RosterResponse{Courses: session.Courses, Degraded: true}, nil
	}

	session.Courses = courses
	if session.Draft != nil {
		if _, ok := session.Course(session.Draft.CourseID); !ok {
			session.Draft = nil
		}
	}
	return &dto.RosterResponse{Courses: courses}, nil
}

// BeginEdit opens the editor for a course, seeding it with the committed notes.
func (s *GradeEditorService) BeginEdit(session *models.Session, courseID string) (*dto.GradeDraftView, error) {
	course, err := s.course(session, courseID)
	if err != nil {
		return nil, err
	}
	if !course.Editable() {
		return nil, appErrors.Clone(appErrors.ErrFinalized, "grades for this course are closed")
	}

	draft := &models.GradeDraft{CourseID: course.ID, Rows: make(map[string]models.NoteDraft, len(course.Students))}
	for _, row := range course.Students {
		draft.Rows[row.StudentID] = models.DraftFromNotes(row.Note1, row.Note2, row.Note3)
	}
	session.Draft = draft
	return draftView(course, draft), nil
}

// Draft returns the open editor of a course with live averages.
func (s *GradeEditorService) Draft(session *models.Session, courseID string) (*dto.GradeDraftView, error) {
	course, draft, err := s.openDraft(session, courseID)
	if err != nil {
		return nil, err
	}
	return draftView(course, draft), nil
}

// SetNote stores the raw text of one note and returns the row with its
// recomputed average. Out-of-range values are accepted until commit.
func (s *GradeEditorService) SetNote(session *models.Session, courseID, studentID string, slot int, raw string) (*dto.DraftRow, error) {
	course, draft, err := s.openDraft(session, courseID)
	if err != nil {
		return nil, err
	}
	notes, ok := draft.Rows[studentID]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this course")
	}
	if err := notes.Set(slot, strings.TrimSpace(raw)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "note slot must be 1, 2 or 3")
	}
	draft.Rows[studentID] = notes

	for _, row := range course.Students {
		if row.StudentID == studentID {
			out := draftRow(row, notes)
			return &out, nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student is not enrolled in this course")
}

// Commit validates the draft and writes every row in one transaction. On
// failure the editor stays open so the teacher can retry.
func (s *GradeEditorService) Commit(ctx context.Context, session *models.Session, courseID string, meta models.RequestMeta) (*models.Course, error) {
	course, draft, err := s.openDraft(session, courseID)
	if err != nil {
		return nil, err
	}

	updates := make([]models.GradeUpdate, 0, len(course.Students))
	for _, row := range course.Students {
		notes, err := draft.Rows[row.StudentID].Parse()
		if err != nil {
			msg := fmt.Sprintf("%s: %s", row.FullName, noteErrorMessage(err))
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, msg)
		}
		updates = append(updates, models.GradeUpdate{
			CourseID:  course.ID,
			StudentID: row.StudentID,
			Note1:     notes[0],
			Note2:     notes[1],
			Note3:     notes[2],
		})
	}

	if err := s.store.SubmitGrades(ctx, updates); err != nil {
		s.logger.Error("failed to submit grades", zap.String("course_id", course.ID), zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "could not save grades, try again")
	}

	for i := range course.Students {
		u := updates[i]
		course.Students[i].Note1, course.Students[i].Note2, course.Students[i].Note3 = u.Note1, u.Note2, u.Note3
	}
	session.Draft = nil
	s.recordCommit(ctx, session, course, len(updates), meta)
	return course, nil
}

// Cancel discards the open editor of a course.
func (s *GradeEditorService) Cancel(session *models.Session, courseID string) error {
	if _, _, err := s.openDraft(session, courseID); err != nil {
		return err
	}
	session.Draft = nil
	return nil
}

func (s *GradeEditorService) requireTeacher(session *models.Session) error {
	if err := s.router.Require(session, models.ViewTeacher); err != nil {
		return appErrors.Clone(appErrors.ErrForbidden, "teacher access required")
	}
	return nil
}

func (s *GradeEditorService) course(session *models.Session, courseID string) (*models.Course, error) {
	if err := s.requireTeacher(session); err != nil {
		return nil, err
	}
	course, ok := session.Course(courseID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
	}
	return course, nil
}

func (s *GradeEditorService) openDraft(session *models.Session, courseID string) (*models.Course, *models.GradeDraft, error) {
	course, err := s.course(session, courseID)
	if err != nil {
		return nil, nil, err
	}
	if session.Draft == nil || session.Draft.CourseID != courseID {
		return nil, nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "grade editor is not open for this course")
	}
	return course, session.Draft, nil
}

func (s *GradeEditorService) recordCommit(ctx context.Context, session *models.Session, course *models.Course, rows int, meta models.RequestMeta) {
	if s.audit == nil {
		return
	}
	values, _ := json.Marshal(map[string]interface{}{"course_id": course.ID, "rows": rows})
	userID := session.Identity.ID
	if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
		UserID:     &userID,
		Action:     models.AuditActionGradesCommit,
		Resource:   "course",
		ResourceID: &course.ID,
		NewValues:  values,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}); err != nil {
		s.logger.Warn("failed to record grades audit log", zap.Error(err))
	}
}

func noteErrorMessage(err error) string {
	msg := err.Error()
	switch {
	case errors.Is(err, models.ErrNoteOutOfRange):
		return strings.SplitN(msg, ":", 2)[0] + fmt.Sprintf(" must be between %d and %d", models.MinNote, models.MaxNote)
	case errors.Is(err, models.ErrNoteNotNumeric):
		return strings.SplitN(msg, ":", 2)[0] + " is not a number"
	}
	return msg
}

func draftView(course *models.Course, draft *models.GradeDraft) *dto.GradeDraftView {
	view := &dto.GradeDraftView{CourseID: course.ID, Course: course.Name, Rows: make([]dto.DraftRow, 0, len(course.Students))}
	for _, row := range course.Students {
		view.Rows = append(view.Rows, draftRow(row, draft.Rows[row.StudentID]))
	}
	return view
}

func draftRow(row models.GradeRow, notes models.NoteDraft) dto.DraftRow {
	return dto.DraftRow{
		StudentID:  row.StudentID,
		FullName:   row.FullName,
		NationalID: row.NationalID,
		Notes:      notes,
		Average:    notes.Average(),
	}
}
