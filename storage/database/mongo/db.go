// Package mongorepos stores users and courses as MongoDB documents.
package mongorepos

import (
	"context"
	"net/url"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/academia/core"
)

const (
	usersCollection   = "users"
	coursesCollection = "courses"

	duplicateKeyCode = 11000
)

// URI builds the connection string from conf unless an explicit one is configured.
func URI(conf *core.Config) string {
	if conf.Database.URI != "" {
		return conf.Database.URI
	}
	u := url.URL{
		Scheme: core.EngineMongoDB,
		Host:   conf.Database.Address(),
	}
	if conf.Database.User != "" {
		u.User = url.UserPassword(conf.Database.User, conf.Database.Password)
	}
	if !conf.Database.DisableTLS {
		u.RawQuery = url.Values{"tls": {"true"}}.Encode()
	}
	return u.String()
}

// Open connects to the server and waits until it answers.
func Open(ctx context.Context, conf *core.Config) (*mongo.Client, *mongo.Database, error) {
	opts := options.Client().
		ApplyURI(URI(conf)).
		SetConnectTimeout(conf.Database.Timeout).
		SetAppName(conf.AppName)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connecting")
	}
	if err = ping(ctx, client); err != nil {
		_ = client.Disconnect(ctx)
		return nil, nil, err
	}
	return client, client.Database(conf.Database.Name), nil
}

// ping waits for the server to be ready. Waits 100ms longer between each attempt.
func ping(ctx context.Context, client *mongo.Client) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = client.Ping(ctx, nil); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping cancelled")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

// EnsureIndexes creates the unique email index and the course owner index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(usersCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	})
	if err != nil {
		return errors.Wrap(err, "creating users.email index")
	}

	_, err = db.Collection(coursesCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "instructor", Value: 1}},
		Options: options.Index().SetName("instructor"),
	})
	return errors.Wrap(err, "creating courses.instructor index")
}

// isDuplicateKey reports a unique index violation.
func isDuplicateKey(err error) bool {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == duplicateKeyCode {
				return true
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == duplicateKeyCode
	}
	return false
}

// objectIDs parses hex ids, skipping malformed ones.
func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}
