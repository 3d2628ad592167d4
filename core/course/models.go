package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/academia/core"
)

type (
	Material struct {
		Title string `json:"title" validate:"required"`
		Link  string `json:"link" validate:"required"`
	}

	Comment struct {
		AuthorID   string    `json:"authorId"`
		AuthorName string    `json:"authorName"`
		Text       string    `json:"text"`
		Timestamp  time.Time `json:"timestamp"` // UTC
	}

	// Progress tracks one enrolled student. Completed and Percentage are independent.
	Progress struct {
		StudentID  string  `json:"studentId"`
		Completed  bool    `json:"completed"`
		Percentage float64 `json:"percentage"`
	}

	LiveSession struct {
		Title       string `json:"title"`
		Date        string `json:"date"`
		MeetingLink string `json:"meetingLink"`
	}

	// Instructor is resolved on read from the identity store.
	Instructor struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// Course is the aggregate root; materials, comments, enrollments, progress and live sessions are embedded.
	Course struct {
		ID                 string        `json:"id"`
		Title              string        `json:"title"`
		Description        string        `json:"description"`
		InstructorID       string        `json:"instructorId"`
		Instructor         *Instructor   `json:"instructor,omitempty"`
		Materials          []Material    `json:"materials"`
		Comments           []Comment     `json:"comments"`
		EnrolledStudentIDs []string      `json:"studentsEnrolled"`
		Progress           []Progress    `json:"progress"`
		LiveSessions       []LiveSession `json:"liveSessions"`
		CreatedAt          time.Time     `json:"createdAt"` // UTC
	}

	// Summary is the per-course analytics row of an instructor.
	Summary struct {
		CourseID          string `json:"courseId"`
		CourseTitle       string `json:"courseTitle"`
		TotalStudents     int    `json:"totalStudents"`
		AverageProgress   string `json:"averageProgress"` // 2 decimals
		TotalLiveSessions int    `json:"totalLiveSessions"`
	}
)

// IsEnrolled reports whether studentID is in the enrollment set.
func (c Course) IsEnrolled(studentID string) bool {
	for _, id := range c.EnrolledStudentIDs {
		if id == studentID {
			return true
		}
	}
	return false
}

// Normalize replaces nil slices so the aggregate always serializes to arrays.
func (c *Course) Normalize() {
	if c.Materials == nil {
		c.Materials = []Material{}
	}
	if c.Comments == nil {
		c.Comments = []Comment{}
	}
	if c.EnrolledStudentIDs == nil {
		c.EnrolledStudentIDs = []string{}
	}
	if c.Progress == nil {
		c.Progress = []Progress{}
	}
	if c.LiveSessions == nil {
		c.LiveSessions = []LiveSession{}
	}
}

// NewCourse contains information needed to create a Course.
type NewCourse struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description" validate:"required"`
	Materials   []Material `json:"materials" validate:"omitempty,dive"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	for i := range nc.Materials {
		nc.Materials[i].Title = core.CleanString(nc.Materials[i].Title)
		nc.Materials[i].Link = core.CleanString(nc.Materials[i].Link)
	}
	return validate.Struct(nc)
}

type NewComment struct {
	Text string `json:"text" validate:"required"`
}

func (nc *NewComment) Validate(validate *validator.Validate) error {
	nc.Text = core.CleanString(nc.Text)
	return validate.Struct(nc)
}

type NewLiveSession struct {
	Title       string `json:"title" validate:"required"`
	Date        string `json:"date" validate:"required"`
	MeetingLink string `json:"meetingLink" validate:"required"`
}

func (ns *NewLiveSession) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	ns.Date = core.CleanString(ns.Date)
	ns.MeetingLink = core.CleanString(ns.MeetingLink)
	return validate.Struct(ns)
}

// ProgressUpdate is a partial update; nil fields are left untouched.
type ProgressUpdate struct {
	Completed  *bool
	Percentage *float64
}

func (pu ProgressUpdate) IsEmpty() bool {
	return pu.Completed == nil && pu.Percentage == nil
}

// Clamp bounds the percentage to [0, 100].
func (pu *ProgressUpdate) Clamp() {
	if pu.Percentage == nil {
		return
	}
	pct := *pu.Percentage
	switch {
	case pct < 0:
		pct = 0
	case pct > 100:
		pct = 100
	}
	pu.Percentage = &pct
}

// Apply merges the update into p.
func (pu ProgressUpdate) Apply(p *Progress) {
	if pu.Completed != nil {
		p.Completed = *pu.Completed
	}
	if pu.Percentage != nil {
		p.Percentage = *pu.Percentage
	}
}

type QueryFilter struct {
	InstructorID string
}
