package domain

import "time"

// OnlineWindow is how recent a login must be to count as online
const OnlineWindow = 30 * time.Minute

// TeamWindowDays is the fixed window of the team views
const TeamWindowDays = 30

// Team member status filters
const (
	StatusFilterActive   = "ativo"
	StatusFilterInactive = "inativo"
)

// TeamMetrics aggregates a manager's direct reports
type TeamMetrics struct {
	TotalMembers      int64   `db:"total_members" json:"total_members"`
	ActiveMembers     int64   `db:"active_members" json:"active_members"`
	TotalFeedbacks    int64   `db:"total_feedbacks" json:"total_feedbacks"`
	TotalRecognitions int64   `db:"total_recognitions" json:"total_recognitions"`
	AverageMood       float64 `db:"-" json:"average_mood"`
	ActiveObjectives  int64   `db:"active_objectives" json:"active_objectives"`
}

// TeamMember is one row of the team management view
type TeamMember struct {
	ID                    int64      `db:"id" json:"id"`
	FullName              string     `db:"full_name" json:"full_name"`
	Department            string     `db:"department" json:"department"`
	DepartmentDescription string     `db:"department_description" json:"department_description"`
	LastLogin             *time.Time `db:"last_login" json:"last_login"`
	IsActive              bool       `db:"is_active" json:"is_active"`
	AverageMood           *float64   `db:"average_mood" json:"average_mood"`
	RecentFeedbacks       int64      `db:"recent_feedbacks" json:"recent_feedbacks"`
	ActiveObjectives      int64      `db:"active_objectives" json:"active_objectives"`
}

// TeamStatus counts members by presence and activation
type TeamStatus struct {
	Online   int `json:"online"`
	Offline  int `json:"offline"`
	Active   int `json:"active"`
	Inactive int `json:"inactive"`
}

// CountStatus classifies members at now. A member without a login is offline.
func CountStatus(members []TeamMember, now time.Time) TeamStatus {
	var s TeamStatus
	cutoff := now.Add(-OnlineWindow)
	for _, m := range members {
		if m.LastLogin != nil && !m.LastLogin.Before(cutoff) {
			s.Online++
		} else {
			s.Offline++
		}
		if m.IsActive {
			s.Active++
		} else {
			s.Inactive++
		}
	}
	return s
}

// ValidStatusFilter reports whether status is a supported management filter
func ValidStatusFilter(status string) bool {
	return status == "" || status == StatusFilterActive || status == StatusFilterInactive
}
