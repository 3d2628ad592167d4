package inmemdb

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/course"
)

func TestCourseRepository_isolation(t *testing.T) {
	repo := NewCourseRepository(Open())
	ctx := context.Background()

	crs, err := repo.CreateCourse(ctx, course.Course{Title: "Intro", InstructorID: "i"})
	require.NoError(t, err)

	// mutating a returned copy never leaks into the table
	crs.Comments = append(crs.Comments, course.Comment{Text: "sneaky"})
	got, err := repo.GetCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Comments)

	_, err = repo.GetCourse(ctx, "lol")
	assert.Equal(t, course.ErrNotFound, err)
	assert.Equal(t, course.ErrNotFound, repo.AddComment(ctx, "lol", course.Comment{}))
	assert.Equal(t, course.ErrNotFound, repo.AddLiveSession(ctx, "lol", course.LiveSession{}))
}

func TestCourseRepository_Enroll(t *testing.T) {
	repo := NewCourseRepository(Open())
	ctx := context.Background()

	crs, err := repo.CreateCourse(ctx, course.Course{Title: "Intro", InstructorID: "i"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Enroll(ctx, crs.ID, "s")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, conflicts int
	for err := range errs {
		switch err {
		case nil:
			ok++
		case course.ErrAlreadyEnrolled:
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 19, conflicts)

	got, err := repo.GetCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"s"}, got.EnrolledStudentIDs)
	assert.Equal(t, []course.Progress{{StudentID: "s"}}, got.Progress)
}

func TestCourseRepository_UpdateProgress(t *testing.T) {
	repo := NewCourseRepository(Open())
	ctx := context.Background()

	crs, err := repo.CreateCourse(ctx, course.Course{Title: "Intro", InstructorID: "i"})
	require.NoError(t, err)

	pct := 60.0
	assert.Equal(t, course.ErrProgressNotFound, repo.UpdateProgress(ctx, crs.ID, "s", course.ProgressUpdate{Percentage: &pct}))

	_, err = repo.Enroll(ctx, crs.ID, "s")
	require.NoError(t, err)
	_, err = repo.Enroll(ctx, crs.ID, "t")
	require.NoError(t, err)

	done := true
	require.NoError(t, repo.UpdateProgress(ctx, crs.ID, "s", course.ProgressUpdate{Percentage: &pct}))
	require.NoError(t, repo.UpdateProgress(ctx, crs.ID, "s", course.ProgressUpdate{Completed: &done}))

	got, err := repo.GetCourse(ctx, crs.ID)
	require.NoError(t, err)
	assert.Equal(t, []course.Progress{
		{StudentID: "s", Completed: true, Percentage: 60},
		{StudentID: "t"},
	}, got.Progress)
}
