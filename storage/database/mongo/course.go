package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/academia/core/course"
)

type (
	materialDoc struct {
		Title string `bson:"title"`
		Link  string `bson:"link"`
	}

	commentAuthorDoc struct {
		ID   primitive.ObjectID `bson:"_id"`
		Name string             `bson:"name"`
	}

	commentDoc struct {
		User      commentAuthorDoc `bson:"user"`
		Text      string           `bson:"text"`
		Timestamp time.Time        `bson:"timestamp"`
	}

	progressDoc struct {
		StudentID  primitive.ObjectID `bson:"studentId"`
		Completed  bool               `bson:"completed"`
		Percentage float64            `bson:"percentage"`
	}

	liveSessionDoc struct {
		Title       string `bson:"title"`
		Date        string `bson:"date"`
		MeetingLink string `bson:"meetingLink"`
	}

	courseDoc struct {
		ID               primitive.ObjectID   `bson:"_id,omitempty"`
		Title            string               `bson:"title"`
		Description      string               `bson:"description"`
		Instructor       primitive.ObjectID   `bson:"instructor"`
		Materials        []materialDoc        `bson:"materials"`
		Comments         []commentDoc         `bson:"comments"`
		EnrolledStudents []primitive.ObjectID `bson:"studentsEnrolled"`
		Progress         []progressDoc        `bson:"progress"`
		LiveSessions     []liveSessionDoc     `bson:"liveSessions"`
		CreatedAt        time.Time            `bson:"createdAt"`
	}
)

func hexOrZero(id string) primitive.ObjectID {
	oid, _ := primitive.ObjectIDFromHex(id)
	return oid
}

func newCommentDoc(cm course.Comment) commentDoc {
	return commentDoc{
		User:      commentAuthorDoc{ID: hexOrZero(cm.AuthorID), Name: cm.AuthorName},
		Text:      cm.Text,
		Timestamp: cm.Timestamp.UTC(),
	}
}

func newCourseDoc(crs course.Course) courseDoc {
	doc := courseDoc{
		ID:               hexOrZero(crs.ID),
		Title:            crs.Title,
		Description:      crs.Description,
		Instructor:       hexOrZero(crs.InstructorID),
		Materials:        make([]materialDoc, 0, len(crs.Materials)),
		Comments:         make([]commentDoc, 0, len(crs.Comments)),
		EnrolledStudents: objectIDs(crs.EnrolledStudentIDs),
		Progress:         make([]progressDoc, 0, len(crs.Progress)),
		LiveSessions:     make([]liveSessionDoc, 0, len(crs.LiveSessions)),
		CreatedAt:        crs.CreatedAt.UTC(),
	}
	for _, m := range crs.Materials {
		doc.Materials = append(doc.Materials, materialDoc(m))
	}
	for _, cm := range crs.Comments {
		doc.Comments = append(doc.Comments, newCommentDoc(cm))
	}
	for _, p := range crs.Progress {
		doc.Progress = append(doc.Progress, progressDoc{
			StudentID:  hexOrZero(p.StudentID),
			Completed:  p.Completed,
			Percentage: p.Percentage,
		})
	}
	for _, ls := range crs.LiveSessions {
		doc.LiveSessions = append(doc.LiveSessions, liveSessionDoc(ls))
	}
	return doc
}

func (doc courseDoc) course() course.Course {
	crs := course.Course{
		ID:                 doc.ID.Hex(),
		Title:              doc.Title,
		Description:        doc.Description,
		InstructorID:       doc.Instructor.Hex(),
		Materials:          make([]course.Material, 0, len(doc.Materials)),
		Comments:           make([]course.Comment, 0, len(doc.Comments)),
		EnrolledStudentIDs: make([]string, 0, len(doc.EnrolledStudents)),
		Progress:           make([]course.Progress, 0, len(doc.Progress)),
		LiveSessions:       make([]course.LiveSession, 0, len(doc.LiveSessions)),
		CreatedAt:          doc.CreatedAt.UTC(),
	}
	for _, m := range doc.Materials {
		crs.Materials = append(crs.Materials, course.Material(m))
	}
	for _, cm := range doc.Comments {
		crs.Comments = append(crs.Comments, course.Comment{
			AuthorID:   cm.User.ID.Hex(),
			AuthorName: cm.User.Name,
			Text:       cm.Text,
			Timestamp:  cm.Timestamp.UTC(),
		})
	}
	for _, sid := range doc.EnrolledStudents {
		crs.EnrolledStudentIDs = append(crs.EnrolledStudentIDs, sid.Hex())
	}
	for _, p := range doc.Progress {
		crs.Progress = append(crs.Progress, course.Progress{
			StudentID:  p.StudentID.Hex(),
			Completed:  p.Completed,
			Percentage: p.Percentage,
		})
	}
	for _, ls := range doc.LiveSessions {
		crs.LiveSessions = append(crs.LiveSessions, course.LiveSession(ls))
	}
	return crs
}

// progressSet builds the positional $set of a partial progress update.
func progressSet(upd course.ProgressUpdate) bson.M {
	set := bson.M{}
	if upd.Completed != nil {
		set["progress.$.completed"] = *upd.Completed
	}
	if upd.Percentage != nil {
		set["progress.$.percentage"] = *upd.Percentage
	}
	return set
}

type courseRepository struct {
	coll *mongo.Collection
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *mongo.Database) course.Repository {
	return &courseRepository{coll: db.Collection(coursesCollection)}
}

// exists tells a missing course apart from a failed condition after a no-match update.
func (repo *courseRepository) exists(ctx context.Context, oid primitive.ObjectID) (bool, error) {
	n, err := repo.coll.CountDocuments(ctx, bson.M{"_id": oid}, options.Count().SetLimit(1))
	if err != nil {
		return false, errors.Wrap(err, "counting courses")
	}
	return n > 0, nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, crs course.Course) (course.Course, error) {
	doc := newCourseDoc(crs)
	doc.ID = primitive.NewObjectID()
	if _, err := repo.coll.InsertOne(ctx, doc); err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return doc.course(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter course.QueryFilter) ([]course.Course, error) {
	q := bson.M{}
	if filter.InstructorID != "" {
		q["instructor"] = hexOrZero(filter.InstructorID)
	}

	cur, err := repo.coll.Find(ctx, q, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	var docs []courseDoc
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decoding courses")
	}

	courses := make([]course.Course, 0, len(docs))
	for _, doc := range docs {
		courses = append(courses, doc.course())
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return course.Course{}, course.ErrNotFound
	}

	var doc courseDoc
	if err = repo.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, errors.Wrap(err, "finding course")
	}
	return doc.course(), nil
}

// push appends value to the array field of the course.
func (repo *courseRepository) push(ctx context.Context, courseID, field string, value interface{}) error {
	oid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return course.ErrNotFound
	}
	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$push": bson.M{field: value}})
	if err != nil {
		return errors.Wrapf(err, "pushing %s", field)
	}
	if res.MatchedCount == 0 {
		return course.ErrNotFound
	}
	return nil
}

func (repo *courseRepository) AddComment(ctx context.Context, courseID string, cm course.Comment) error {
	return repo.push(ctx, courseID, "comments", newCommentDoc(cm))
}

func (repo *courseRepository) AddLiveSession(ctx context.Context, courseID string, ls course.LiveSession) error {
	return repo.push(ctx, courseID, "liveSessions", liveSessionDoc(ls))
}

// Enroll pushes the student and its progress entry in one conditional update.
func (repo *courseRepository) Enroll(ctx context.Context, courseID, studentID string) (course.Course, error) {
	oid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return course.Course{}, course.ErrNotFound
	}
	sid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return course.Course{}, errors.Wrapf(err, "parsing student id %q", studentID)
	}

	filter := bson.M{"_id": oid, "studentsEnrolled": bson.M{"$ne": sid}}
	update := bson.M{"$push": bson.M{
		"studentsEnrolled": sid,
		"progress":         progressDoc{StudentID: sid},
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc courseDoc
	if err = repo.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		if err != mongo.ErrNoDocuments {
			return course.Course{}, errors.Wrap(err, "enrolling student")
		}
		found, err := repo.exists(ctx, oid)
		if err != nil {
			return course.Course{}, err
		}
		if !found {
			return course.Course{}, course.ErrNotFound
		}
		return course.Course{}, course.ErrAlreadyEnrolled
	}
	return doc.course(), nil
}

// UpdateProgress sets the given fields on the student's progress entry through the positional operator.
func (repo *courseRepository) UpdateProgress(ctx context.Context, courseID, studentID string, upd course.ProgressUpdate) error {
	oid, err := primitive.ObjectIDFromHex(courseID)
	if err != nil {
		return course.ErrNotFound
	}
	sid, err := primitive.ObjectIDFromHex(studentID)
	if err != nil {
		return course.ErrProgressNotFound
	}
	set := progressSet(upd)
	if len(set) == 0 {
		return nil
	}

	res, err := repo.coll.UpdateOne(ctx, bson.M{"_id": oid, "progress.studentId": sid}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	if res.MatchedCount == 0 {
		found, err := repo.exists(ctx, oid)
		if err != nil {
			return err
		}
		if !found {
			return course.ErrNotFound
		}
		return course.ErrProgressNotFound
	}
	return nil
}
