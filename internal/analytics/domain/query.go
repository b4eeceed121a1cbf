// Package domain holds the analytics query model and result types.
package domain

import (
	"math"
	"strings"
	"time"
)

// Query bounds
const (
	DefaultPeriodDays = 30
	MaxPeriodDays     = 365
	DefaultTop        = 5
	MaxTop            = 100

	// AllDepartments labels an unfiltered result
	AllDepartments = "Todos"
)

// Query selects the window and filters of an aggregation
type Query struct {
	PeriodDays   int    `json:"period_days"`
	Department   string `json:"department,omitempty"`
	TargetUserID int64  `json:"user_id,omitempty"`
	Top          int    `json:"top"`
}

// Limits carries the configured defaults used by Normalize
type Limits struct {
	DefaultPeriodDays int
	MaxPeriodDays     int
	DefaultTop        int
}

// DefaultLimits returns the built-in bounds
func DefaultLimits() Limits {
	return Limits{DefaultPeriodDays: DefaultPeriodDays, MaxPeriodDays: MaxPeriodDays, DefaultTop: DefaultTop}
}

// Normalize fills defaults and clamps the window and top-N.
// "Todos" and blank departments mean no department filter.
func (q Query) Normalize(l Limits) Query {
	if l.MaxPeriodDays <= 0 {
		l.MaxPeriodDays = MaxPeriodDays
	}
	if l.DefaultPeriodDays <= 0 || l.DefaultPeriodDays > l.MaxPeriodDays {
		l.DefaultPeriodDays = DefaultPeriodDays
	}
	if l.DefaultTop <= 0 {
		l.DefaultTop = DefaultTop
	}

	switch {
	case q.PeriodDays == 0:
		q.PeriodDays = l.DefaultPeriodDays
	case q.PeriodDays < 1:
		q.PeriodDays = 1
	case q.PeriodDays > l.MaxPeriodDays:
		q.PeriodDays = l.MaxPeriodDays
	}

	switch {
	case q.Top <= 0:
		q.Top = l.DefaultTop
	case q.Top > MaxTop:
		q.Top = MaxTop
	}

	q.Department = strings.TrimSpace(q.Department)
	if strings.EqualFold(q.Department, AllDepartments) {
		q.Department = ""
	}
	if q.TargetUserID < 0 {
		q.TargetUserID = 0
	}
	return q
}

// Since returns the start of the window ending at now
func (q Query) Since(now time.Time) time.Time {
	return now.AddDate(0, 0, -q.PeriodDays)
}

// DepartmentLabel names the department filter for display
func (q Query) DepartmentLabel() string {
	if q.Department == "" {
		return AllDepartments
	}
	return q.Department
}

// Score weighs engagement: feedback sent 10, recognition sent 5, mood entry 2
func Score(feedbacksSent, recognitionsSent, moodEntries int64) int64 {
	return 10*feedbacksSent + 5*recognitionsSent + 2*moodEntries
}

// Round rounds v to the given number of decimals
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}
