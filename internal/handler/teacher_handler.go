package handler

import (
	"context"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
	"github.com/noah-isme/swiaape-api/pkg/response"
)

type gradeEditor interface {
	LoadRoster(ctx context.Context, session *models.Session) (*dto.RosterResponse, error)
	BeginEdit(session *models.Session, courseID string) (*dto.GradeDraftView, error)
	Draft(session *models.Session, courseID string) (*dto.GradeDraftView, error)
	SetNote(session *models.Session, courseID, studentID string, slot int, raw string) (*dto.DraftRow, error)
	Commit(ctx context.Context, session *models.Session, courseID string, meta models.RequestMeta) (*models.Course, error)
	Cancel(session *models.Session, courseID string) error
}

// TeacherHandler serves the teacher panel and its grade editor.
type TeacherHandler struct {
	editor gradeEditor
}

// NewTeacherHandler constructs a TeacherHandler.
func NewTeacherHandler(editor gradeEditor) *TeacherHandler {
	return &TeacherHandler{editor: editor}
}

// Courses godoc
// @Summary Load the teacher's roster
// @Tags Teacher
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /teacher/courses [get]
func (h *TeacherHandler) Courses(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	roster, err := h.editor.LoadRoster(c.Request.Context(), session)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, roster.Courses, map[string]interface{}{"degraded": roster.Degraded})
}

// BeginEdit godoc
// @Summary Open the grade editor of a course
// @Tags Teacher
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /teacher/courses/{id}/edit [post]
func (h *TeacherHandler) BeginEdit(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	draft, err := h.editor.BeginEdit(session, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, draft)
}

// Draft godoc
// @Summary Current draft with live averages
// @Tags Teacher
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Router /teacher/courses/{id}/draft [get]
func (h *TeacherHandler) Draft(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	draft, err := h.editor.Draft(session, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, draft)
}

// SetNote godoc
// @Summary Type a note into the draft
// @Tags Teacher
// @Accept json
// @Produce json
// @Param id path string true "Course ID"
// @Param studentId path string true "Student ID"
// @Param slot path int true "Note slot (1-3)"
// @Param payload body dto.SetNoteRequest true "Raw note"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /teacher/courses/{id}/draft/{studentId}/notes/{slot} [put]
func (h *TeacherHandler) SetNote(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	slot, err := strconv.Atoi(c.Param("slot"))
	if err != nil {
		respondError(c, appErrors.Clone(appErrors.ErrValidation, "note slot must be 1, 2 or 3"))
		return
	}
	var req dto.SetNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err, "invalid note payload"))
		return
	}

	row, err := h.editor.SetNote(session, c.Param("id"), c.Param("studentId"), slot, req.Value)
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, row)
}

// Commit godoc
// @Summary Save the draft
// @Tags Teacher
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /teacher/courses/{id}/commit [post]
func (h *TeacherHandler) Commit(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	course, err := h.editor.Commit(c.Request.Context(), session, c.Param("id"), requestMeta(c))
	if err != nil {
		respondError(c, err)
		return
	}
	response.OK(c, course)
}

// Cancel godoc
// @Summary Discard the draft
// @Tags Teacher
// @Param id path string true "Course ID"
// @Success 204
// @Router /teacher/courses/{id}/edit [delete]
func (h *TeacherHandler) Cancel(c *gin.Context) {
	session, ok := currentSession(c)
	if !ok {
		return
	}
	if err := h.editor.Cancel(session, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	response.NoContent(c)
}
