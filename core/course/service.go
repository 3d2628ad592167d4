package course

import (
	"context"
	"fmt"
	"net/mail"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("Course not found")
	ErrAlreadyEnrolled  = core.NewConflictError("Already enrolled")
	ErrProgressNotFound = core.NewNotFoundError("Progress not found for student")
	ErrNotInstructor    = core.NewForbiddenError("Only instructors can create courses")
	ErrNotOwner         = core.NewForbiddenError("Only the instructor can add sessions")
	ErrNotStudent       = core.NewForbiddenError("Only students can enroll")
)

const (
	enrollmentSubject  = "Course Enrollment Confirmation"
	enrollmentTemplate = "course_enrollment"
)

type (
	// Repository persists Course aggregates. Sub-document mutations must be atomic per course.
	Repository interface {
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		QueryCourses(ctx context.Context, filter QueryFilter) ([]Course, error)
		// GetCourse returns ErrNotFound when the id matches nothing.
		GetCourse(ctx context.Context, id string) (Course, error)
		AddComment(ctx context.Context, courseID string, cm Comment) error
		// Enroll adds studentID to the enrollment set together with a fresh Progress entry,
		// or fails with ErrAlreadyEnrolled leaving the course untouched.
		Enroll(ctx context.Context, courseID, studentID string) (Course, error)
		AddLiveSession(ctx context.Context, courseID string, ls LiveSession) error
		// UpdateProgress fails with ErrProgressNotFound when studentID has no Progress entry.
		UpdateProgress(ctx context.Context, courseID, studentID string, upd ProgressUpdate) error
	}

	// UserFinder resolves identities referenced by courses.
	UserFinder interface {
		GetNames(ctx context.Context, ids ...string) (map[string]string, error)
	}

	Service struct {
		repo     Repository
		users    UserFinder
		mailSvc  core.EmailService
		validate *validator.Validate
	}

	enrollmentEmailData struct {
		StudentName string
		CourseID    string
		CourseTitle string
	}
)

func NewService(repo Repository, users UserFinder, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{
		repo:     repo,
		users:    users,
		mailSvc:  mailSvc,
		validate: validate,
	}
}

// resolveInstructors fills Course.Instructor from the identity store.
func (svc *Service) resolveInstructors(ctx context.Context, courses []Course) error {
	ids := make([]string, 0, len(courses))
	seen := make(map[string]bool, len(courses))
	for _, c := range courses {
		if !seen[c.InstructorID] {
			seen[c.InstructorID] = true
			ids = append(ids, c.InstructorID)
		}
	}

	names, err := svc.users.GetNames(ctx, ids...)
	if err != nil {
		return errors.Wrap(err, "resolving instructor names")
	}
	for i := range courses {
		courses[i].Normalize()
		if name, ok := names[courses[i].InstructorID]; ok {
			courses[i].Instructor = &Instructor{ID: courses[i].InstructorID, Name: name}
		}
	}
	return nil
}

func (svc *Service) query(ctx context.Context, filter QueryFilter) ([]Course, error) {
	courses, err := svc.repo.QueryCourses(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []Course{}
	}
	if err = svc.resolveInstructors(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

// Query lists all courses with their instructor resolved.
func (svc *Service) Query(ctx context.Context) ([]Course, error) {
	return svc.query(ctx, QueryFilter{})
}

// QueryByInstructor lists the courses owned by actor.
func (svc *Service) QueryByInstructor(ctx context.Context, actor user.User) ([]Course, error) {
	return svc.query(ctx, QueryFilter{InstructorID: actor.ID})
}

// Create persists a new Course owned by actor, who must be an instructor.
func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	if !actor.IsInstructor() {
		return Course{}, ErrNotInstructor
	}
	if err := nc.Validate(svc.validate); err != nil {
		return Course{}, err
	}

	crs := Course{
		Title:        nc.Title,
		Description:  nc.Description,
		InstructorID: actor.ID,
		Materials:    nc.Materials,
		CreatedAt:    time.Now().UTC(),
	}
	crs.Normalize()

	crs, err := svc.repo.CreateCourse(ctx, crs)
	if err != nil {
		return Course{}, errors.Wrap(err, "creating course")
	}
	crs.Normalize()
	crs.Instructor = &Instructor{ID: actor.ID, Name: actor.Name}
	return crs, nil
}

// Get returns the full Course aggregate.
func (svc *Service) Get(ctx context.Context, id string) (Course, error) {
	crs, err := svc.repo.GetCourse(ctx, id)
	if err != nil {
		return Course{}, err
	}
	courses := []Course{crs}
	if err = svc.resolveInstructors(ctx, courses); err != nil {
		return Course{}, err
	}
	return courses[0], nil
}

// AddComment appends a comment authored by actor.
func (svc *Service) AddComment(ctx context.Context, actor user.User, courseID string, nc NewComment) (Comment, error) {
	if err := nc.Validate(svc.validate); err != nil {
		return Comment{}, err
	}

	cm := Comment{
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Text:       nc.Text,
		Timestamp:  time.Now().UTC(),
	}
	if err := svc.repo.AddComment(ctx, courseID, cm); err != nil {
		return Comment{}, err
	}
	return cm, nil
}

// Enroll adds actor to the course and creates their Progress entry.
// The confirmation email is dispatched in the background; its outcome never affects the enrollment.
func (svc *Service) Enroll(ctx context.Context, actor user.User, courseID string) error {
	if !actor.IsStudent() {
		return ErrNotStudent
	}
	crs, err := svc.repo.Enroll(ctx, courseID, actor.ID)
	if err != nil {
		return err
	}
	svc.sendEnrollmentEmail(actor, crs)
	return nil
}

func (svc *Service) sendEnrollmentEmail(student user.User, crs Course) {
	if svc.mailSvc == nil || student.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject:      enrollmentSubject,
		TemplateName: enrollmentTemplate,
		TemplateData: enrollmentEmailData{
			StudentName: student.Name,
			CourseID:    crs.ID,
			CourseTitle: crs.Title,
		},
	})
}

// AddLiveSession appends a live session; only the course instructor may do so.
func (svc *Service) AddLiveSession(ctx context.Context, actor user.User, courseID string, ns NewLiveSession) (LiveSession, error) {
	if err := ns.Validate(svc.validate); err != nil {
		return LiveSession{}, err
	}

	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return LiveSession{}, err
	}
	// instructorId is immutable
	if crs.InstructorID != actor.ID {
		return LiveSession{}, ErrNotOwner
	}

	ls := LiveSession{Title: ns.Title, Date: ns.Date, MeetingLink: ns.MeetingLink}
	if err = svc.repo.AddLiveSession(ctx, courseID, ls); err != nil {
		return LiveSession{}, err
	}
	return ls, nil
}

// LiveSessions lists the live sessions of a course in insertion order.
func (svc *Service) LiveSessions(ctx context.Context, courseID string) ([]LiveSession, error) {
	crs, err := svc.repo.GetCourse(ctx, courseID)
	if err != nil {
		return nil, err
	}
	crs.Normalize()
	return crs.LiveSessions, nil
}

// UpdateProgress applies a partial update to actor's Progress entry in the course.
func (svc *Service) UpdateProgress(ctx context.Context, actor user.User, courseID string, upd ProgressUpdate) error {
	if upd.IsEmpty() {
		crs, err := svc.repo.GetCourse(ctx, courseID)
		if err != nil {
			return err
		}
		for _, p := range crs.Progress {
			if p.StudentID == actor.ID {
				return nil
			}
		}
		return ErrProgressNotFound
	}

	upd.Clamp()
	return svc.repo.UpdateProgress(ctx, courseID, actor.ID, upd)
}

// Summarize builds the analytics rows of every course owned by actor.
func (svc *Service) Summarize(ctx context.Context, actor user.User) ([]Summary, error) {
	courses, err := svc.repo.QueryCourses(ctx, QueryFilter{InstructorID: actor.ID})
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	summaries := make([]Summary, 0, len(courses))
	for _, c := range courses {
		summaries = append(summaries, Summarize(c))
	}
	return summaries, nil
}

// Summarize computes the analytics row of a single course.
func Summarize(c Course) Summary {
	return Summary{
		CourseID:          c.ID,
		CourseTitle:       c.Title,
		TotalStudents:     len(c.EnrolledStudentIDs),
		AverageProgress:   fmt.Sprintf("%.2f", averageProgress(c.Progress)),
		TotalLiveSessions: len(c.LiveSessions),
	}
}

func averageProgress(entries []Progress) float64 {
	if len(entries) == 0 {
		return 0
	}
	var total float64
	for _, p := range entries {
		total += p.Percentage
	}
	return total / float64(len(entries))
}
