package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/swiaape-api/internal/dto"
	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/pkg/ai"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

const minPlanBullets = 3

// defaultPlanSuggestions are appended when a narrative has too few bullet points.
var defaultPlanSuggestions = []string{
	"- Practice the weakest competencies every day.",
	"- Spend 20-30 extra minutes solving practice exercises.",
	"- Form study groups to learn cooperatively.",
	"- Ask the teacher for weekly tutoring.",
	"- Use interactive digital resources to consolidate knowledge.",
}

type studyPlanStore interface {
	Create(ctx context.Context, plan *models.StudyPlan) error
	FindByID(ctx context.Context, id string) (*models.StudyPlan, error)
	UpdateStatus(ctx context.Context, id string, from, to models.PlanStatus, at time.Time) error
	List(ctx context.Context, filter models.StudyPlanFilter) ([]models.StudyPlan, error)
}

type studentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

// StudyPlanService generates study plans and moves them through review.
type StudyPlanService struct {
	plans     studyPlanStore
	students  studentReader
	generator ai.Generator
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewStudyPlanService constructs a StudyPlanService.
func NewStudyPlanService(plans studyPlanStore, students studentReader, generator ai.Generator, validate *validator.Validate, logger *zap.Logger) *StudyPlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if generator == nil {
		generator = ai.Disabled{}
	}
	return &StudyPlanService{plans: plans, students: students, generator: generator, validator: validate, logger: logger, now: time.Now}
}

// Generate drafts a new plan from a free prompt or for a student's weaknesses.
func (s *StudyPlanService) Generate(ctx context.Context, req dto.GeneratePlanRequest) (*models.StudyPlan, error) {
	req.Prompt = strings.TrimSpace(req.Prompt)
	req.StudentID = strings.TrimSpace(req.StudentID)
	if req.Prompt == "" && req.StudentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "write a prompt or choose a student")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid plan request")
	}

	var student *models.Student
	if req.StudentID != "" {
		found, err := s.findStudent(ctx, req.StudentID)
		if err != nil {
			return nil, err
		}
		student = found
	}

	draft, err := s.draft(ctx, req.Prompt, student)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	plan := planFromDraft(draft, student)
	plan.ID = uuid.NewString()
	plan.Version = models.InitialPlanVersion
	plan.Status = models.PlanStatusDraftAI
	plan.GenerationDate = models.PlanDate(now)
	plan.CreatedAt = now
	plan.UpdatedAt = now

	if err := s.plans.Create(ctx, plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save study plan")
	}
	return plan, nil
}

// Narrative returns the plan narrative for a student, calling the model
// only when the student has weaknesses.
func (s *StudyPlanService) Narrative(ctx context.Context, student *models.Student) (string, error) {
	draft, err := s.draft(ctx, "", student)
	if err != nil {
		return "", err
	}
	return draft.Narrative, nil
}

// SubmitForReview moves a Draft-AI plan to In-Review.
func (s *StudyPlanService) SubmitForReview(ctx context.Context, id string) (*models.StudyPlan, error) {
	return s.transition(ctx, id, (*models.StudyPlan).SubmitForReview)
}

// Approve moves an In-Review plan to Approved.
func (s *StudyPlanService) Approve(ctx context.Context, id string) (*models.StudyPlan, error) {
	return s.transition(ctx, id, (*models.StudyPlan).Approve)
}

// Publish moves an Approved plan to Published.
func (s *StudyPlanService) Publish(ctx context.Context, id string) (*models.StudyPlan, error) {
	return s.transition(ctx, id, (*models.StudyPlan).Publish)
}

// RequestRevision stores a new Draft-AI plan derived from an In-Review one.
// The original plan is not modified.
func (s *StudyPlanService) RequestRevision(ctx context.Context, id, feedback string) (*models.StudyPlan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	revision, err := plan.Revise(uuid.NewString(), feedback, s.now().UTC())
	if err != nil {
		switch {
		case errors.Is(err, models.ErrFeedbackRequired):
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "please describe the changes you need")
		case errors.Is(err, models.ErrPlanTransition):
			return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, "only plans in review can be sent back for revision")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to revise study plan")
	}

	if err := s.plans.Create(ctx, revision); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save plan revision")
	}
	return revision, nil
}

// List returns plans filtered by status, or all of them for "all" or "".
func (s *StudyPlanService) List(ctx context.Context, query dto.PlanListQuery) ([]models.StudyPlan, error) {
	filter := models.StudyPlanFilter{StudentID: strings.TrimSpace(query.StudentID)}
	if status := strings.TrimSpace(query.Status); status != "" && status != models.FilterAll {
		switch models.PlanStatus(status) {
		case models.PlanStatusDraftAI, models.PlanStatusInReview, models.PlanStatusApproved, models.PlanStatusPublished:
			filter.Status = models.PlanStatus(status)
		default:
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown plan status %q", status))
		}
	}

	plans, err := s.plans.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list study plans")
	}
	return plans, nil
}

// Get returns a plan by identifier.
func (s *StudyPlanService) Get(ctx context.Context, id string) (*models.StudyPlan, error) {
	plan, err := s.plans.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "study plan not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load study plan")
	}
	return plan, nil
}

func (s *StudyPlanService) transition(ctx context.Context, id string, apply func(*models.StudyPlan) error) (*models.StudyPlan, error) {
	plan, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	from := plan.Status
	if err := apply(plan); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInvalidTransition.Code, appErrors.ErrInvalidTransition.Status, err.Error())
	}

	now := s.now().UTC()
	if err := s.plans.UpdateStatus(ctx, plan.ID, from, plan.Status, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "the plan was changed by someone else, reload it")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update study plan")
	}
	plan.UpdatedAt = now
	return plan, nil
}

func (s *StudyPlanService) findStudent(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.students.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

func (s *StudyPlanService) draft(ctx context.Context, prompt string, student *models.Student) (ai.PlanDraft, error) {
	req := ai.PlanRequest{Prompt: prompt}
	if student != nil {
		weaknesses := student.Weaknesses()
		if len(weaknesses) == 0 {
			return ai.PlanDraft{
				Name:      "Plan for " + student.FullName,
				Grade:     student.Grade,
				Accuracy:  100,
				Narrative: noWeaknessesMessage(student.FullName),
			}, nil
		}
		req.StudentName = student.FullName
		req.Grade = student.Grade
		for _, w := range weaknesses {
			req.Weaknesses = append(req.Weaknesses, ai.Weakness{Competency: w.CompetencyName, Grade: *w.Grade})
		}
		req.Course = weaknesses[0].CourseName
	}

	draft, err := s.generator.GeneratePlan(ctx, req)
	if err != nil {
		s.logger.Error("plan generation failed", zap.Error(err))
		return ai.PlanDraft{}, appErrors.Wrap(err, appErrors.ErrServiceUnavailable.Code, appErrors.ErrServiceUnavailable.Status, "the AI assistant is unavailable, try again later")
	}
	draft.Narrative = EnsurePlanBullets(draft.Narrative)
	if draft.Name == "" && student != nil {
		draft.Name = "Plan for " + student.FullName
	}
	return draft, nil
}

// EnsurePlanBullets appends the default suggestions when text has fewer
// than three "- " bullet lines.
func EnsurePlanBullets(text string) string {
	text = strings.TrimSpace(text)
	bullets := 0
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "- ") {
			bullets++
		}
	}
	if bullets >= minPlanBullets {
		return text
	}
	lines := append([]string{}, defaultPlanSuggestions...)
	if text != "" {
		lines = append([]string{text}, lines...)
	}
	return strings.Join(lines, "\n")
}

func noWeaknessesMessage(name string) string {
	return fmt.Sprintf("%s shows no weaknesses. Continue with the current plan.", name)
}

func planFromDraft(draft ai.PlanDraft, student *models.Student) *models.StudyPlan {
	plan := &models.StudyPlan{
		Name:           draft.Name,
		Course:         draft.Course,
		Grade:          draft.Grade,
		Accuracy:       draft.Accuracy,
		Objectives:     append([]string{}, draft.Objectives...),
		Competencies:   append([]string{}, draft.Competencies...),
		Materials:      append([]string{}, draft.Materials...),
		EstimatedHours: draft.EstimatedHours,
		Narrative:      draft.Narrative,
		Units:          models.PlanUnits{},
	}
	if plan.Name == "" {
		plan.Name = "Study plan"
	}
	for _, u := range draft.Units {
		unit := models.PlanUnit{Name: u.Name, Duration: u.Duration, Resources: u.Resources}
		for _, sess := range u.Sessions {
			unit.Sessions = append(unit.Sessions, models.PlanSession{Name: sess.Name, Duration: sess.Duration, Activities: sess.Activities})
		}
		plan.Units = append(plan.Units, unit)
	}
	if student != nil {
		id := student.ID
		plan.StudentID = &id
		if plan.Grade == "" {
			plan.Grade = student.Grade
		}
		for _, w := range student.Weaknesses() {
			plan.Weaknesses = append(plan.Weaknesses, models.PlanWeakness{Course: w.CourseName, Competency: w.CompetencyName, Grade: *w.Grade})
		}
	}
	return plan
}
