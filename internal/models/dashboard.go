package models

import "time"

// CourseAverage is the mean of every defined student average in a course.
type CourseAverage struct {
	CourseID string   `json:"course_id"`
	Name     string   `json:"name"`
	Graded   int      `json:"graded"`
	Average  *float64 `json:"average"`
}

// DashboardSummary holds the admin KPIs.
type DashboardSummary struct {
	TotalUsers     int                `json:"total_users"`
	UsersByRole    map[UserRole]int   `json:"users_by_role"`
	UsersByStatus  map[UserStatus]int `json:"users_by_status"`
	PlansByStatus  map[PlanStatus]int `json:"plans_by_status"`
	CourseAverages []CourseAverage    `json:"course_averages"`
	OverallAverage *float64           `json:"overall_average"`
	GeneratedAt    time.Time          `json:"generated_at"`
}
