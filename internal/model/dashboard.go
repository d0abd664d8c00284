package model

import "time"

// AdminDashboard aggregates the admin overview.
type AdminDashboard struct {
	TeacherCount int          `json:"teacher_count"`
	StudentCount int          `json:"student_count"`
	BranchCount  int          `json:"branch_count"`
	SubjectCount int          `json:"subject_count"`
	ExamCount    int          `json:"exam_count"`
	Teachers     []UserRecord `json:"teachers"`
}

// TeacherDashboard lists the teacher's exams and the students they manage.
type TeacherDashboard struct {
	Exams    []ExamSummary `json:"exams"`
	Students []Student     `json:"students"`
}

// StudentExamStatus is the state of one exam as seen from a student's dashboard.
type StudentExamStatus string

const (
	StudentExamUpcoming  StudentExamStatus = "upcoming"
	StudentExamAvailable StudentExamStatus = "available"
	StudentExamCompleted StudentExamStatus = "completed"
	StudentExamClosed    StudentExamStatus = "closed"
)

// StudentExamEntry is one row of the student dashboard.
type StudentExamEntry struct {
	ID              string            `json:"id"`
	Title           string            `json:"title"`
	SubjectName     string            `json:"subject"`
	DurationMinutes int               `json:"duration_minutes"`
	StartTime       time.Time         `json:"start_time"`
	EndTime         time.Time         `json:"end_time"`
	QuestionCount   int               `json:"question_count"`
	Status          StudentExamStatus `json:"status"`
	Score           *int              `json:"score,omitempty"`
	CompletedAt     *time.Time        `json:"completed_at,omitempty"`
}

// StudentDashboard is the student's profile plus the exams open to them.
type StudentDashboard struct {
	Student *Student           `json:"student"`
	Exams   []StudentExamEntry `json:"exams"`
}
