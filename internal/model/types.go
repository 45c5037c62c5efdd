package model

import "time"

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionActive    SessionStatus = "active"
	SessionEnded     SessionStatus = "ended"
)

// Session is one scheduled teacher/student meeting. TeacherName and
// StudentName are empty when the roster rows are missing.
type Session struct {
	ID             int64
	TrackingToken  string
	Status         SessionStatus
	Link           string
	ClickedAt      *time.Time
	LastActivityAt *time.Time
	EndedAt        *time.Time
	TeacherName    string
	StudentName    string
}

type JoinInfo struct {
	Link        string
	TeacherName string
	StudentName string
}

type SweepResult struct {
	Checked int
	Ended   int
	Skipped bool
	Elapsed time.Duration
}

type AbsenceRecord struct {
	ID               string
	StudentID        int64
	StudentName      string
	TeacherID        int64
	ClassDate        time.Time
	PermissionReason string
	IsReviewed       bool
	ReviewNote       string
	ReviewedAt       *time.Time
	ReviewedBy       string
}

type Notification struct {
	ID            string
	RecipientRole string
	RecipientID   string
	Title         string
	Message       string
	IsRead        bool
	CreatedAt     time.Time
}

type Option struct {
	ID    int64
	Name  string
	Value string
}

type FilterOptions struct {
	Statuses []Option
	Packages []Option
	Subjects []Option
}

type StudentConfig struct {
	Key   string
	Value string
}

type TeacherSummary struct {
	ID   int64
	Name string
}

type ExamStats struct {
	TeacherID    int64
	TotalExams   int
	Passed       int
	Failed       int
	AverageScore float64
}
