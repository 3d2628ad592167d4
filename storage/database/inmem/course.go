package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/academia/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) course.Repository {
	return &courseRepository{db: db}
}

// clone deep copies crs so callers never share slices with the table.
func clone(crs course.Course) course.Course {
	c := crs
	c.Instructor = nil
	c.Materials = append([]course.Material(nil), crs.Materials...)
	c.Comments = append([]course.Comment(nil), crs.Comments...)
	c.EnrolledStudentIDs = append([]string(nil), crs.EnrolledStudentIDs...)
	c.Progress = append([]course.Progress(nil), crs.Progress...)
	c.LiveSessions = append([]course.LiveSession(nil), crs.LiveSessions...)
	c.Normalize()
	return c
}

func (repo *courseRepository) CreateCourse(_ context.Context, crs course.Course) (course.Course, error) {
	tbl := repo.db.course
	tbl.Lock()
	defer tbl.Unlock()

	crs = clone(crs)
	crs.ID = uuid.New().String()
	tbl.table[crs.ID] = &crs
	tbl.order = append(tbl.order, crs.ID)
	return clone(crs), nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter course.QueryFilter) ([]course.Course, error) {
	tbl := repo.db.course
	tbl.RLock()
	defer tbl.RUnlock()

	courses := make([]course.Course, 0, len(tbl.order))
	for _, id := range tbl.order {
		crs := tbl.table[id]
		if filter.InstructorID != "" && crs.InstructorID != filter.InstructorID {
			continue
		}
		courses = append(courses, clone(*crs))
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	tbl := repo.db.course
	tbl.RLock()
	defer tbl.RUnlock()

	if crs, ok := tbl.table[id]; ok {
		return clone(*crs), nil
	}
	return course.Course{}, course.ErrNotFound
}

// mutate runs fn on the stored course under the write lock.
func (repo *courseRepository) mutate(id string, fn func(crs *course.Course) error) (course.Course, error) {
	tbl := repo.db.course
	tbl.Lock()
	defer tbl.Unlock()

	crs, ok := tbl.table[id]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	if err := fn(crs); err != nil {
		return course.Course{}, err
	}
	return clone(*crs), nil
}

func (repo *courseRepository) AddComment(_ context.Context, courseID string, cm course.Comment) error {
	_, err := repo.mutate(courseID, func(crs *course.Course) error {
		crs.Comments = append(crs.Comments, cm)
		return nil
	})
	return err
}

func (repo *courseRepository) Enroll(_ context.Context, courseID, studentID string) (course.Course, error) {
	return repo.mutate(courseID, func(crs *course.Course) error {
		if crs.IsEnrolled(studentID) {
			return course.ErrAlreadyEnrolled
		}
		crs.EnrolledStudentIDs = append(crs.EnrolledStudentIDs, studentID)
		crs.Progress = append(crs.Progress, course.Progress{StudentID: studentID})
		return nil
	})
}

func (repo *courseRepository) AddLiveSession(_ context.Context, courseID string, ls course.LiveSession) error {
	_, err := repo.mutate(courseID, func(crs *course.Course) error {
		crs.LiveSessions = append(crs.LiveSessions, ls)
		return nil
	})
	return err
}

func (repo *courseRepository) UpdateProgress(_ context.Context, courseID, studentID string, upd course.ProgressUpdate) error {
	_, err := repo.mutate(courseID, func(crs *course.Course) error {
		for i := range crs.Progress {
			if crs.Progress[i].StudentID == studentID {
				upd.Apply(&crs.Progress[i])
				return nil
			}
		}
		return course.ErrProgressNotFound
	})
	return err
}
