package pgrepos

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/course"
)

// courseDocument is the JSONB column holding the embedded sub-collections of a course.
type courseDocument struct {
	Materials        []course.Material    `json:"materials"`
	Comments         []course.Comment     `json:"comments"`
	EnrolledStudents []string             `json:"studentsEnrolled"`
	Progress         []course.Progress    `json:"progress"`
	LiveSessions     []course.LiveSession `json:"liveSessions"`
}

func (doc courseDocument) Value() (driver.Value, error) {
	return json.Marshal(doc)
}

func (doc *courseDocument) Scan(src interface{}) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, doc)
	case string:
		return json.Unmarshal([]byte(v), doc)
	case nil:
		*doc = courseDocument{}
		return nil
	default:
		return errors.Errorf("courseDocument: unsupported source type %T", src)
	}
}

type courseRow struct {
	ID           string         `db:"id"`
	InstructorID string         `db:"instructor_id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	CreatedAt    time.Time      `db:"created_at"`
	Document     courseDocument `db:"document"`
}

func newCourseRow(crs course.Course) courseRow {
	return courseRow{
		ID:           crs.ID,
		InstructorID: crs.InstructorID,
		Title:        crs.Title,
		Description:  crs.Description,
		CreatedAt:    crs.CreatedAt.UTC(),
		Document: courseDocument{
			Materials:        crs.Materials,
			Comments:         crs.Comments,
			EnrolledStudents: crs.EnrolledStudentIDs,
			Progress:         crs.Progress,
			LiveSessions:     crs.LiveSessions,
		},
	}
}

func (row courseRow) course() course.Course {
	crs := course.Course{
		ID:                 row.ID,
		Title:              row.Title,
		Description:        row.Description,
		InstructorID:       row.InstructorID,
		Materials:          row.Document.Materials,
		Comments:           row.Document.Comments,
		EnrolledStudentIDs: row.Document.EnrolledStudents,
		Progress:           row.Document.Progress,
		LiveSessions:       row.Document.LiveSessions,
		CreatedAt:          row.CreatedAt.UTC(),
	}
	crs.Normalize()
	return crs
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	crs.ID = uuid.New().String()
	crs.Normalize()
	q := `INSERT INTO course (id, instructor_id, title, description, created_at, document)
		VALUES (:id, :instructor_id, :title, :description, :created_at, :document)`
	if _, err := repo.db.NamedExecContext(ctx, q, newCourseRow(crs)); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	var (
		rows []courseRow
		err  error
	)
	if filter.InstructorID != "" {
		if _, err = uuid.Parse(filter.InstructorID); err != nil {
			return []course.Course{}, nil
		}
		err = repo.db.SelectContext(ctx, &rows,
			`SELECT * FROM course WHERE instructor_id = $1 ORDER BY created_at`, filter.InstructorID)
	} else {
		err = repo.db.SelectContext(ctx, &rows, `SELECT * FROM course ORDER BY created_at`)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}

	courses := make([]course.Course, 0, len(rows))
	for _, row := range rows {
		courses = append(courses, row.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}

	var row courseRow
	if err := repo.db.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return row.course(), nil
}

// mutate locks the course row, applies fn and writes the document back in one transaction.
func (repo *courseRepository) mutate(ctx context.Context, id string, fn func(crs *course.Course) error) (course.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return course.Course{}, course.ErrNotFound
	}

	tx, err := repo.db.BeginTxx(ctx, nil)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "beginning transaction")
	}
	defer func() { _ = tx.Rollback() }()

	var row courseRow
	if err = tx.GetContext(ctx, &row, `SELECT * FROM course WHERE id = $1 FOR UPDATE`, id); err != nil {
		if err == sql.ErrNoRows {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "locking course")
	}

	crs := row.course()
	if err = fn(&crs); err != nil {
		return course.Course{}, err
	}

	row = newCourseRow(crs)
	if _, err = tx.ExecContext(ctx, `UPDATE course SET document = $1 WHERE id = $2`, row.Document, id); err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err = tx.Commit(); err != nil {
		return course.Course{}, errors.Wrap(err, "committing")
	}
	return crs, nil
}

func (repo *courseRepository) AddComment(ctx context.Context, courseID string, cm course.Comment) error {
	_, err := repo.mutate(ctx, courseID, func(crs *course.Course) error {
		crs.Comments = append(crs.Comments, cm)
		return nil
	})
	return err
}

func (repo *courseRepository) AddLiveSession(ctx context.Context, courseID string, ls course.LiveSession) error {
	_, err := repo.mutate(ctx, courseID, func(crs *course.Course) error {
		crs.LiveSessions = append(crs.LiveSessions, ls)
		return nil
	})
	return err
}

func (repo *courseRepository) Enroll(ctx context.Context, courseID, studentID string) (course.Course, error) {
	return repo.mutate(ctx, courseID, func(crs *course.Course) error {
		if crs.IsEnrolled(studentID) {
			return course.ErrAlreadyEnrolled
		}
		crs.EnrolledStudentIDs = append(crs.EnrolledStudentIDs, studentID)
		crs.Progress = append(crs.Progress, course.Progress{StudentID: studentID})
		return nil
	})
}

func (repo *courseRepository) UpdateProgress(ctx context.Context, courseID, studentID string, upd course.ProgressUpdate) error {
	_, err := repo.mutate(ctx, courseID, func(crs *course.Course) error {
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
