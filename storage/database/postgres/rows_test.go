package pgrepos

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

func TestCourseRow(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	studentID := uuid.New().String()
	crs := course.Course{
		ID:                 uuid.New().String(),
		Title:              "Intro",
		Description:        "Basics",
		InstructorID:       uuid.New().String(),
		Materials:          []course.Material{{Title: "Slides", Link: "https://example.com/slides"}},
		Comments:           []course.Comment{{AuthorID: studentID, AuthorName: "Bob", Text: "Great!", Timestamp: now}},
		EnrolledStudentIDs: []string{studentID},
		Progress:           []course.Progress{{StudentID: studentID, Percentage: 12.5}},
		LiveSessions:       []course.LiveSession{},
		CreatedAt:          now,
	}
	row := newCourseRow(crs)

	val, err := row.Document.Value()
	require.NoError(t, err)

	var doc courseDocument
	require.NoError(t, doc.Scan(val))
	row.Document = doc
	assert.Equal(t, crs, row.course())

	t.Run("scan string", func(t *testing.T) {
		var doc courseDocument
		require.NoError(t, doc.Scan(`{"studentsEnrolled":["a"]}`))
		assert.Equal(t, []string{"a"}, doc.EnrolledStudents)
	})

	t.Run("scan null", func(t *testing.T) {
		doc := courseDocument{EnrolledStudents: []string{"a"}}
		require.NoError(t, doc.Scan(nil))
		assert.Nil(t, doc.EnrolledStudents)

		got := courseRow{ID: "1", Document: doc}.course()
		assert.Equal(t, []string{}, got.EnrolledStudentIDs)
		assert.Equal(t, []course.Comment{}, got.Comments)
	})

	t.Run("scan unsupported", func(t *testing.T) {
		var doc courseDocument
		assert.Error(t, doc.Scan(42))
	})
}

func TestUserRow(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Microsecond)
	usr := user.User{
		ID:           uuid.New().String(),
		Name:         "Ada",
		Email:        "ada@example.com",
		Role:         user.RoleInstructor,
		PasswordHash: []byte("hash"),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	row := newUserRow(usr)
	assert.False(t, row.LastLogin.Valid, "never logged in")
	assert.True(t, row.user().LastLogin.IsZero())

	usr.LastLogin = now
	row = newUserRow(usr)
	assert.True(t, row.LastLogin.Valid)
	assert.Equal(t, usr, row.user())
}

func Test_validUUIDs(t *testing.T) {
	id := uuid.New().String()
	assert.Equal(t, []string{id}, validUUIDs([]string{"lol", id, ""}))
	assert.Empty(t, validUUIDs(nil))
}

func Test_isUniqueViolation(t *testing.T) {
	assert.True(t, isUniqueViolation(&pq.Error{Code: uniqueViolation}))
	assert.True(t, isUniqueViolation(errors.Wrap(&pq.Error{Code: uniqueViolation}, "inserting user")))
	assert.False(t, isUniqueViolation(&pq.Error{Code: "23503"}))
	assert.False(t, isUniqueViolation(errors.New("lol")))
}
