package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

// RunCourseRepositoryTests checks the course store behaviour every engine must share.
// missingID is a well-formed course id of the engine that matches no course.
func RunCourseRepositoryTests(t *testing.T, usrRepo user.Repository, crsRepo course.Repository, missingID string) {
	ctx := context.Background()

	newUser := func(t *testing.T, name, role string) user.User {
		return CreateUser(t, usrRepo, name, name+"-"+uuid.New().String()+"@example.com", "Zq7#vLm9pW", role)
	}
	instructor := newUser(t, "ada", user.RoleInstructor)

	t.Run("unknown course", func(t *testing.T) {
		student := newUser(t, "bob", user.RoleStudent)
		pct := 10.0

		for _, id := range []string{"lol", missingID} {
			_, err := crsRepo.GetCourse(ctx, id)
			assert.Equal(t, course.ErrNotFound, errors.Cause(err), id)
			_, err = crsRepo.Enroll(ctx, id, student.ID)
			assert.Equal(t, course.ErrNotFound, errors.Cause(err), id)
			err = crsRepo.UpdateProgress(ctx, id, student.ID, course.ProgressUpdate{Percentage: &pct})
			assert.Equal(t, course.ErrNotFound, errors.Cause(err), id)
			assert.Equal(t, course.ErrNotFound, errors.Cause(crsRepo.AddComment(ctx, id, course.Comment{Text: "hi"})), id)
			assert.Equal(t, course.ErrNotFound, errors.Cause(crsRepo.AddLiveSession(ctx, id, course.LiveSession{Title: "Q&A"})), id)
		}
	})

	t.Run("created", func(t *testing.T) {
		crs := CreateCourse(t, crsRepo, instructor, "Intro", "Basics", course.Material{Title: "Slides", Link: "https://example.com/slides"})
		got := GetCourse(t, crsRepo, crs.ID)
		assert.Equal(t, "Intro", got.Title)
		assert.Equal(t, instructor.ID, got.InstructorID)
		assert.Equal(t, []course.Material{{Title: "Slides", Link: "https://example.com/slides"}}, got.Materials)
		assert.Empty(t, got.EnrolledStudentIDs)
		assert.NotNil(t, got.Progress)

		owned, err := crsRepo.QueryCourses(ctx, course.QueryFilter{InstructorID: instructor.ID})
		require.NoError(t, err)
		ids := make([]string, 0, len(owned))
		for _, c := range owned {
			ids = append(ids, c.ID)
		}
		assert.Contains(t, ids, crs.ID)
	})

	t.Run("enroll twice", func(t *testing.T) {
		crs := CreateCourse(t, crsRepo, instructor, "Intro", "Basics")
		student := newUser(t, "bob", user.RoleStudent)

		enrolled, err := crsRepo.Enroll(ctx, crs.ID, student.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{student.ID}, enrolled.EnrolledStudentIDs)

		_, err = crsRepo.Enroll(ctx, crs.ID, student.ID)
		assert.Equal(t, course.ErrAlreadyEnrolled, errors.Cause(err))

		got := GetCourse(t, crsRepo, crs.ID)
		assert.Equal(t, []string{student.ID}, got.EnrolledStudentIDs)
		assert.Equal(t, []course.Progress{{StudentID: student.ID}}, got.Progress)
	})

	t.Run("concurrent enrolls", func(t *testing.T) {
		crs := CreateCourse(t, crsRepo, instructor, "Intro", "Basics")
		student := newUser(t, "carol", user.RoleStudent)

		const n = 10
		var wg sync.WaitGroup
		errs := make(chan error, n)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := crsRepo.Enroll(ctx, crs.ID, student.ID)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		var ok, conflicts int
		for err := range errs {
			switch errors.Cause(err) {
			case nil:
				ok++
			case course.ErrAlreadyEnrolled:
				conflicts++
			default:
				t.Errorf("Enroll() unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, n-1, conflicts)

		got := GetCourse(t, crsRepo, crs.ID)
		assert.Equal(t, []string{student.ID}, got.EnrolledStudentIDs)
		assert.Equal(t, []course.Progress{{StudentID: student.ID}}, got.Progress)
	})

	t.Run("progress", func(t *testing.T) {
		crs := CreateCourse(t, crsRepo, instructor, "Intro", "Basics")
		dave := newUser(t, "dave", user.RoleStudent)
		erin := newUser(t, "erin", user.RoleStudent)
		pct, done := 60.0, true

		err := crsRepo.UpdateProgress(ctx, crs.ID, dave.ID, course.ProgressUpdate{Percentage: &pct})
		assert.Equal(t, course.ErrProgressNotFound, errors.Cause(err))

		_, err = crsRepo.Enroll(ctx, crs.ID, dave.ID)
		require.NoError(t, err)
		_, err = crsRepo.Enroll(ctx, crs.ID, erin.ID)
		require.NoError(t, err)

		require.NoError(t, crsRepo.UpdateProgress(ctx, crs.ID, dave.ID, course.ProgressUpdate{Percentage: &pct}))
		got := GetCourse(t, crsRepo, crs.ID)
		assert.Equal(t, []course.Progress{
			{StudentID: dave.ID, Percentage: 60},
			{StudentID: erin.ID},
		}, got.Progress)

		require.NoError(t, crsRepo.UpdateProgress(ctx, crs.ID, dave.ID, course.ProgressUpdate{Completed: &done}))
		got = GetCourse(t, crsRepo, crs.ID)
		assert.Equal(t, []course.Progress{
			{StudentID: dave.ID, Completed: true, Percentage: 60},
			{StudentID: erin.ID},
		}, got.Progress)
	})

	t.Run("comments and live sessions", func(t *testing.T) {
		crs := CreateCourse(t, crsRepo, instructor, "Intro", "Basics")
		bob := newUser(t, "bob", user.RoleStudent)

		require.NoError(t, crsRepo.AddComment(ctx, crs.ID, course.Comment{AuthorID: bob.ID, AuthorName: bob.Name, Text: "first"}))
		require.NoError(t, crsRepo.AddComment(ctx, crs.ID, course.Comment{AuthorID: bob.ID, AuthorName: bob.Name, Text: "second"}))
		ls := course.LiveSession{Title: "Q&A", Date: "2026-11-01", MeetingLink: "https://meet.example.com/qa"}
		require.NoError(t, crsRepo.AddLiveSession(ctx, crs.ID, ls))

		got := GetCourse(t, crsRepo, crs.ID)
		if assert.Len(t, got.Comments, 2) {
			assert.Equal(t, "first", got.Comments[0].Text)
			assert.Equal(t, "second", got.Comments[1].Text)
			assert.Equal(t, bob.ID, got.Comments[1].AuthorID)
		}
		assert.Equal(t, []course.LiveSession{ls}, got.LiveSessions)
	})
}

// RunUserRepositoryTests checks the user store behaviour every engine must share.
func RunUserRepositoryTests(t *testing.T, usrRepo user.Repository, missingID string) {
	ctx := context.Background()
	email := "ada-" + uuid.New().String() + "@example.com"
	ada := CreateUser(t, usrRepo, "Ada", email, "Zq7#vLm9pW", user.RoleInstructor)
	assert.NotEmpty(t, ada.ID)

	got, err := usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)
	assert.NoError(t, got.CheckPassword("Zq7#vLm9pW"))
	assert.True(t, got.LastLogin.IsZero())

	_, err = usrRepo.CreateUser(ctx, user.User{Name: "Ada 2", Email: email, Role: user.RoleStudent, PasswordHash: got.PasswordHash})
	assert.Equal(t, user.ErrEmailExists, errors.Cause(err))

	for _, id := range []string{"lol", missingID} {
		_, err = usrRepo.GetUser(ctx, user.GetFilter{ID: id})
		assert.Equal(t, user.ErrNotFound, errors.Cause(err), id)
	}

	users, err := usrRepo.QueryUsers(ctx, user.QueryFilter{IDs: []string{ada.ID, "lol", missingID}})
	require.NoError(t, err)
	if assert.Len(t, users, 1) {
		assert.Equal(t, "Ada", users[0].Name)
	}
}
