package course

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCourse_Normalize(t *testing.T) {
	var crs Course
	crs.Normalize()
	assert.NotNil(t, crs.Materials)
	assert.NotNil(t, crs.Comments)
	assert.NotNil(t, crs.EnrolledStudentIDs)
	assert.NotNil(t, crs.Progress)
	assert.NotNil(t, crs.LiveSessions)

	crs = Course{Materials: []Material{{Title: "Slides", Link: "https://example.com"}}}
	crs.Normalize()
	assert.Len(t, crs.Materials, 1)
}

func TestCourse_IsEnrolled(t *testing.T) {
	crs := Course{EnrolledStudentIDs: []string{"a", "b"}}
	assert.True(t, crs.IsEnrolled("b"))
	assert.False(t, crs.IsEnrolled("c"))
	assert.False(t, Course{}.IsEnrolled("a"))
}

func TestProgressUpdate(t *testing.T) {
	f := func(v float64) *float64 { return &v }
	yes := true

	tests := []struct {
		name      string
		upd       ProgressUpdate
		wantEmpty bool
		want      Progress
	}{
		{name: "empty", wantEmpty: true, want: Progress{StudentID: "s", Percentage: 40}},
		{name: "completed only", upd: ProgressUpdate{Completed: &yes}, want: Progress{StudentID: "s", Completed: true, Percentage: 40}},
		{name: "percentage only", upd: ProgressUpdate{Percentage: f(75.5)}, want: Progress{StudentID: "s", Percentage: 75.5}},
		{name: "clamped high", upd: ProgressUpdate{Percentage: f(140)}, want: Progress{StudentID: "s", Percentage: 100}},
		{name: "clamped low", upd: ProgressUpdate{Percentage: f(-3)}, want: Progress{StudentID: "s", Percentage: 0}},
		{name: "both", upd: ProgressUpdate{Completed: &yes, Percentage: f(100)}, want: Progress{StudentID: "s", Completed: true, Percentage: 100}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantEmpty, tt.upd.IsEmpty())

			p := Progress{StudentID: "s", Percentage: 40}
			tt.upd.Clamp()
			tt.upd.Apply(&p)
			assert.Equal(t, tt.want, p)
		})
	}

	t.Run("clamp copies", func(t *testing.T) {
		pct := 120.0
		upd := ProgressUpdate{Percentage: &pct}
		upd.Clamp()
		assert.Equal(t, 120.0, pct)
		assert.Equal(t, 100.0, *upd.Percentage)
	})
}

func TestSummarize(t *testing.T) {
	tests := []struct {
		name string
		crs  Course
		want Summary
	}{
		{
			name: "no progress",
			crs:  Course{ID: "1", Title: "Intro"},
			want: Summary{CourseID: "1", CourseTitle: "Intro", AverageProgress: "0.00"},
		},
		{
			name: "mean of entries",
			crs: Course{
				ID:                 "1",
				Title:              "Intro",
				EnrolledStudentIDs: []string{"a", "b", "c"},
				Progress:           []Progress{{StudentID: "a"}, {StudentID: "b", Percentage: 50}, {StudentID: "c", Percentage: 100}},
				LiveSessions:       []LiveSession{{Title: "Q&A"}},
			},
			want: Summary{CourseID: "1", CourseTitle: "Intro", TotalStudents: 3, AverageProgress: "50.00", TotalLiveSessions: 1},
		},
		{
			name: "rounded to 2 decimals",
			crs: Course{
				ID:                 "2",
				Title:              "Advanced",
				EnrolledStudentIDs: []string{"a", "b", "c"},
				Progress:           []Progress{{StudentID: "a", Percentage: 10}, {StudentID: "b", Percentage: 10}, {StudentID: "c", Percentage: 13}},
			},
			want: Summary{CourseID: "2", CourseTitle: "Advanced", TotalStudents: 3, AverageProgress: "11.00"},
		},
		{
			name: "repeating decimals",
			crs: Course{
				ID:                 "3",
				Title:              "Expert",
				EnrolledStudentIDs: []string{"a", "b", "c"},
				Progress:           []Progress{{StudentID: "a", Percentage: 100}, {StudentID: "b"}, {StudentID: "c"}},
			},
			want: Summary{CourseID: "3", CourseTitle: "Expert", TotalStudents: 3, AverageProgress: "33.33"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Summarize(tt.crs))
		})
	}
}
