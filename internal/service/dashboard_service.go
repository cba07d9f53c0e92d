package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/swiaape-api/internal/models"
	"github.com/noah-isme/swiaape-api/pkg/cache"
	appErrors "github.com/noah-isme/swiaape-api/pkg/errors"
)

type dashboardUserReader interface {
	ListAll(ctx context.Context) ([]models.User, error)
}

type dashboardPlanCounter interface {
	CountByStatus(ctx context.Context) (map[models.PlanStatus]int, error)
}

type dashboardCourseReader interface {
	ListAll(ctx context.Context) ([]models.Course, error)
}

var dashboardCacheKey = cache.Key("dashboard", "summary")

// DashboardService aggregates the admin KPIs and caches the result.
type DashboardService struct {
	users   dashboardUserReader
	plans   dashboardPlanCounter
	courses dashboardCourseReader
	cache   *CacheService
	ttl     time.Duration
	logger  *zap.Logger
	now     func() time.Time
}

// NewDashboardService constructs a DashboardService. cache may be nil.
func NewDashboardService(users dashboardUserReader, plans dashboardPlanCounter, courses dashboardCourseReader, cache *CacheService, ttl time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{users: users, plans: plans, courses: courses, cache: cache, ttl: ttl, logger: logger, now: time.Now}
}

// Summary returns the dashboard KPIs, from cache when available.
func (s *DashboardService) Summary(ctx context.Context) (*models.DashboardSummary, error) {
	var cached models.DashboardSummary
	if s.cache.Get(ctx, dashboardCacheKey, &cached) {
		return &cached, nil
	}

	users, err := s.users.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load users")
	}
	plans, err := s.plans.CountByStatus(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count study plans")
	}
	courses, err := s.courses.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}

	summary := BuildDashboard(users, plans, courses)
	summary.GeneratedAt = s.now().UTC()
	s.cache.Set(ctx, dashboardCacheKey, summary, s.ttl)
	return summary, nil
}

// Invalidate drops the cached summary.
func (s *DashboardService) Invalidate(ctx context.Context) {
	s.cache.Invalidate(ctx, cache.Key("dashboard", "*"))
}

// BuildDashboard computes the KPIs from raw rows.
func BuildDashboard(users []models.User, plans map[models.PlanStatus]int, courses []models.Course) *models.DashboardSummary {
	summary := &models.DashboardSummary{
		TotalUsers:     len(users),
		UsersByRole:    map[models.UserRole]int{},
		UsersByStatus:  map[models.UserStatus]int{},
		PlansByStatus:  map[models.PlanStatus]int{},
		CourseAverages: make([]models.CourseAverage, 0, len(courses)),
	}
	for _, u := range users {
		summary.UsersByRole[u.Role]++
		summary.UsersByStatus[u.Status]++
	}
	for _, status := range []models.PlanStatus{models.PlanStatusDraftAI, models.PlanStatusInReview, models.PlanStatusApproved, models.PlanStatusPublished} {
		summary.PlansByStatus[status] = plans[status]
	}

	var total float64
	var defined int
	for _, c := range courses {
		entry := models.CourseAverage{CourseID: c.ID, Name: c.Name}
		var sum int
		for _, row := range c.Students {
			if avg := row.Average(); avg != nil {
				sum += *avg
				entry.Graded++
			}
		}
		if entry.Graded > 0 {
			avg := roundTenth(float64(sum) / float64(entry.Graded))
			entry.Average = &avg
			total += avg
			defined++
		}
		summary.CourseAverages = append(summary.CourseAverages, entry)
	}
	if defined > 0 {
		overall := roundTenth(total / float64(defined))
		summary.OverallAverage = &overall
	}
	return summary
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
