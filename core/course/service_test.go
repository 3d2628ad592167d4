package course_test

import (
	"context"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/storage/database/inmem"
	"github.com/trezcool/academia/tests"
)

type mailRecorder struct {
	mu   sync.Mutex
	msgs []*core.EmailMessage
}

func (r *mailRecorder) SendMessages(messages ...*core.EmailMessage) {
	r.mu.Lock()
	r.msgs = append(r.msgs, messages...)
	r.mu.Unlock()
}

type fixture struct {
	svc        *course.Service
	crsRepo    course.Repository
	mails      *mailRecorder
	instructor user.User
	student    user.User
}

func setup(t *testing.T) fixture {
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	crsRepo := inmemdb.NewCourseRepository(db)
	validate, _ := testutil.NewValidator()
	mails := new(mailRecorder)

	return fixture{
		svc:        course.NewService(crsRepo, user.NewService(usrRepo, validate), mails, validate),
		crsRepo:    crsRepo,
		mails:      mails,
		instructor: testutil.CreateUser(t, usrRepo, "Ada", "ada@example.com", "", user.RoleInstructor),
		student:    testutil.CreateUser(t, usrRepo, "Bob", "bob@example.com", "", user.RoleStudent),
	}
}

func TestService_Create(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	_, err := fx.svc.Create(ctx, fx.student, course.NewCourse{Title: "Intro", Description: "Basics"})
	assert.Equal(t, course.ErrNotInstructor, err)

	_, err = fx.svc.Create(ctx, fx.instructor, course.NewCourse{Title: "  ", Description: "Basics"})
	var vErrs validator.ValidationErrors
	if assert.True(t, errors.As(err, &vErrs)) {
		assert.Equal(t, "title", vErrs[0].Field())
	}

	crs, err := fx.svc.Create(ctx, fx.instructor, course.NewCourse{Title: " Intro ", Description: "Basics"})
	require.NoError(t, err)
	assert.Equal(t, "Intro", crs.Title)
	assert.Equal(t, fx.instructor.ID, crs.InstructorID)
	assert.Equal(t, &course.Instructor{ID: fx.instructor.ID, Name: "Ada"}, crs.Instructor)
	assert.Empty(t, crs.Materials)
	assert.NotNil(t, crs.Materials)
	assert.Empty(t, crs.EnrolledStudentIDs)

	courses, err := fx.svc.Query(ctx)
	require.NoError(t, err)
	if assert.Len(t, courses, 1) {
		assert.Equal(t, "Ada", courses[0].Instructor.Name)
	}
}

func TestService_Enroll(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, fx.crsRepo, fx.instructor, "Intro", "Basics")

	assert.Equal(t, course.ErrNotStudent, fx.svc.Enroll(ctx, fx.instructor, crs.ID))
	assert.Equal(t, course.ErrNotFound, errors.Cause(fx.svc.Enroll(ctx, fx.student, "lol")))

	require.NoError(t, fx.svc.Enroll(ctx, fx.student, crs.ID))
	assert.Equal(t, course.ErrAlreadyEnrolled, errors.Cause(fx.svc.Enroll(ctx, fx.student, crs.ID)))

	got := testutil.GetCourse(t, fx.crsRepo, crs.ID)
	assert.Equal(t, []string{fx.student.ID}, got.EnrolledStudentIDs)
	assert.Equal(t, []course.Progress{{StudentID: fx.student.ID}}, got.Progress)

	// one confirmation, for the successful enrollment only
	require.Len(t, fx.mails.msgs, 1)
	msg := fx.mails.msgs[0]
	assert.Equal(t, "bob@example.com", msg.To[0].Address)
	assert.Equal(t, "course_enrollment", msg.TemplateName)
}

func TestService_AddLiveSession(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, fx.crsRepo, fx.instructor, "Intro", "Basics")
	ns := course.NewLiveSession{Title: "Q&A", Date: "2026-11-01", MeetingLink: "https://meet.example.com/qa"}

	_, err := fx.svc.AddLiveSession(ctx, fx.instructor, crs.ID, course.NewLiveSession{Title: "Q&A"})
	assert.Error(t, err)

	_, err = fx.svc.AddLiveSession(ctx, fx.student, crs.ID, ns)
	assert.Equal(t, course.ErrNotOwner, err)

	_, err = fx.svc.AddLiveSession(ctx, fx.instructor, "lol", ns)
	assert.Equal(t, course.ErrNotFound, errors.Cause(err))

	sessions, err := fx.svc.LiveSessions(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, []course.LiveSession{}, sessions)

	ls, err := fx.svc.AddLiveSession(ctx, fx.instructor, crs.ID, ns)
	require.NoError(t, err)

	sessions, err = fx.svc.LiveSessions(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, []course.LiveSession{ls}, sessions)
}

func TestService_UpdateProgress(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	crs := testutil.CreateCourse(t, fx.crsRepo, fx.instructor, "Intro", "Basics")
	pct := 250.0

	// not enrolled yet
	assert.Equal(t, course.ErrProgressNotFound, errors.Cause(fx.svc.UpdateProgress(ctx, fx.student, crs.ID, course.ProgressUpdate{})))
	assert.Equal(t, course.ErrProgressNotFound, errors.Cause(fx.svc.UpdateProgress(ctx, fx.student, crs.ID, course.ProgressUpdate{Percentage: &pct})))
	assert.Equal(t, course.ErrNotFound, errors.Cause(fx.svc.UpdateProgress(ctx, fx.student, "lol", course.ProgressUpdate{})))

	require.NoError(t, fx.svc.Enroll(ctx, fx.student, crs.ID))
	require.NoError(t, fx.svc.UpdateProgress(ctx, fx.student, crs.ID, course.ProgressUpdate{}))
	require.NoError(t, fx.svc.UpdateProgress(ctx, fx.student, crs.ID, course.ProgressUpdate{Percentage: &pct}))

	got := testutil.GetCourse(t, fx.crsRepo, crs.ID)
	assert.Equal(t, []course.Progress{{StudentID: fx.student.ID, Percentage: 100}}, got.Progress)
	assert.Equal(t, 250.0, pct, "caller value untouched")
}

func TestService_Summarize(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	summaries, err := fx.svc.Summarize(ctx, fx.instructor)
	require.NoError(t, err)
	assert.Equal(t, []course.Summary{}, summaries)

	crs := testutil.CreateCourse(t, fx.crsRepo, fx.instructor, "Intro", "Basics")
	require.NoError(t, fx.svc.Enroll(ctx, fx.student, crs.ID))
	done, pct := true, 100.0
	require.NoError(t, fx.svc.UpdateProgress(ctx, fx.student, crs.ID, course.ProgressUpdate{Completed: &done, Percentage: &pct}))

	summaries, err = fx.svc.Summarize(ctx, fx.instructor)
	require.NoError(t, err)
	assert.Equal(t, []course.Summary{{
		CourseID:        crs.ID,
		CourseTitle:     "Intro",
		TotalStudents:   1,
		AverageProgress: "100.00",
	}}, summaries)

	summaries, err = fx.svc.Summarize(ctx, fx.student)
	require.NoError(t, err)
	assert.Empty(t, summaries)
}
