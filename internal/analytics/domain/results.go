package domain

import "time"

// Objective statuses
const (
	ObjectiveActive           = "Ativo"
	ObjectiveCompleted        = "Concluído"
	ObjectiveAwaitingApproval = "Aguardando Aprovação"
	ObjectiveScheduled        = "Agendado"
	ObjectiveExpired          = "Expirado"
)

// ObjectiveBreakdown counts objectives per status
type ObjectiveBreakdown struct {
	Active           int64 `json:"active"`
	Completed        int64 `json:"completed"`
	AwaitingApproval int64 `json:"awaiting_approval"`
	Scheduled        int64 `json:"scheduled"`
	Expired          int64 `json:"expired"`
}

// Add accumulates n objectives with the given status. Unknown statuses are ignored.
func (b *ObjectiveBreakdown) Add(status string, n int64) {
	switch status {
	case ObjectiveActive:
		b.Active += n
	case ObjectiveCompleted:
		b.Completed += n
	case ObjectiveAwaitingApproval:
		b.AwaitingApproval += n
	case ObjectiveScheduled:
		b.Scheduled += n
	case ObjectiveExpired:
		b.Expired += n
	}
}

// Performance are the engagement indicators of the window
type Performance struct {
	MoodUsers         int64              `db:"mood_users" json:"mood_users"`
	FeedbackUsers     int64              `db:"feedback_users" json:"feedback_users"`
	RecognitionUsers  int64              `db:"recognition_users" json:"recognition_users"`
	TotalUsers        int64              `db:"total_users" json:"total_users"`
	TotalFeedbacks    int64              `db:"total_feedbacks" json:"total_feedbacks"`
	TotalRecognitions int64              `db:"total_recognitions" json:"total_recognitions"`
	TotalMoodEntries  int64              `db:"total_mood_entries" json:"total_mood_entries"`
	Objectives        ObjectiveBreakdown `db:"-" json:"objectives"`
}

// RankedUser is one row of the engagement ranking
type RankedUser struct {
	UserID           int64  `db:"user_id" json:"user_id"`
	FullName         string `db:"full_name" json:"full_name"`
	Department       string `db:"department" json:"department"`
	FeedbacksSent    int64  `db:"feedbacks_sent" json:"feedbacks_sent"`
	RecognitionsSent int64  `db:"recognitions_sent" json:"recognitions_sent"`
	MoodEntries      int64  `db:"mood_entries" json:"mood_entries"`
	Score            int64  `db:"score" json:"score"`
}

// GamificationEntry is one row of the points leaderboard
type GamificationEntry struct {
	UserID      int64  `db:"user_id" json:"user_id"`
	FullName    string `db:"full_name" json:"full_name"`
	Department  string `db:"department" json:"department"`
	TotalPoints int64  `db:"total_points" json:"total_points"`
}

// Rankings groups both leaderboards
type Rankings struct {
	TopUsers     []RankedUser        `json:"top_users"`
	Gamification []GamificationEntry `json:"gamification"`
}

// DepartmentStats aggregates one department over the window
type DepartmentStats struct {
	Department   string  `db:"department" json:"department"`
	Users        int64   `db:"users" json:"users"`
	AverageMood  float64 `db:"average_mood" json:"average_mood"`
	Feedbacks    int64   `db:"feedbacks" json:"feedbacks"`
	Recognitions int64   `db:"recognitions" json:"recognitions"`
}

// DailyTrend is the mood of one calendar day
type DailyTrend struct {
	Date        string  `db:"day" json:"date"`
	AverageMood float64 `db:"average_mood" json:"average_mood"`
	Entries     int64   `db:"entries" json:"entries"`
}

// WeeklyTrend is the mood of one ISO week
type WeeklyTrend struct {
	Year        int     `db:"year" json:"year"`
	Week        int     `db:"week" json:"week"`
	AverageMood float64 `db:"average_mood" json:"average_mood"`
	Entries     int64   `db:"entries" json:"entries"`
}

// Trends groups daily and weekly series
type Trends struct {
	Daily  []DailyTrend  `json:"daily"`
	Weekly []WeeklyTrend `json:"weekly"`
}

// Satisfaction summarizes mood scores: promoters score 4 or 5, detractors 1 or 2
type Satisfaction struct {
	Responses     int64   `json:"responses"`
	PromotersPct  float64 `json:"promoters_pct"`
	DetractorsPct float64 `json:"detractors_pct"`
	AverageMood   float64 `json:"average_mood"`
}

// NewSatisfaction derives percentages from raw counts
func NewSatisfaction(responses, promoters, detractors int64, average float64) Satisfaction {
	if responses <= 0 {
		return Satisfaction{}
	}
	return Satisfaction{
		Responses:     responses,
		PromotersPct:  Round(float64(promoters)*100/float64(responses), 2),
		DetractorsPct: Round(float64(detractors)*100/float64(responses), 2),
		AverageMood:   Round(average, 2),
	}
}

// UserMetrics are one user's window counters
type UserMetrics struct {
	UserID               int64 `db:"user_id" json:"user_id"`
	FeedbacksSent        int64 `db:"feedbacks_sent" json:"feedbacks_sent"`
	FeedbacksReceived    int64 `db:"feedbacks_received" json:"feedbacks_received"`
	RecognitionsSent     int64 `db:"recognitions_sent" json:"recognitions_sent"`
	RecognitionsReceived int64 `db:"recognitions_received" json:"recognitions_received"`
	MoodEntries          int64 `db:"mood_entries" json:"mood_entries"`
}

// Dashboard is the full analytics view
type Dashboard struct {
	Performance  Performance       `json:"performance"`
	Rankings     Rankings          `json:"rankings"`
	Departments  []DepartmentStats `json:"departments"`
	Trends       Trends            `json:"trends"`
	Satisfaction Satisfaction      `json:"satisfaction"`
	UserMetrics  *UserMetrics      `json:"user_metrics"`
	PeriodDays   int               `json:"period_days"`
	Department   string            `json:"department"`
	GeneratedAt  time.Time         `json:"generated_at"`
}

// AvailableDepartments lists the department filters offered to a requester
type AvailableDepartments struct {
	Departments []string `json:"departments"`
	CanViewAll  bool     `json:"can_view_all"`
}

// ExportRow is one user line of the analytics export
type ExportRow struct {
	UserID               int64    `db:"user_id"`
	FullName             string   `db:"full_name"`
	Department           string   `db:"department"`
	FeedbacksReceived    int64    `db:"feedbacks_received"`
	FeedbacksSent        int64    `db:"feedbacks_sent"`
	RecognitionsReceived int64    `db:"recognitions_received"`
	RecognitionsSent     int64    `db:"recognitions_sent"`
	MoodEntries          int64    `db:"mood_entries"`
	AverageMood          *float64 `db:"average_mood"`
}
