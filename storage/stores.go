// Package storage opens the repositories of the configured database engine.
package storage

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/storage/database"
	"github.com/trezcool/academia/storage/database/inmem"
	"github.com/trezcool/academia/storage/database/mongo"
	"github.com/trezcool/academia/storage/database/postgres"
)

var ErrUnknownEngine = errors.New("unknown database engine")

type Stores struct {
	Engine  string
	Users   user.Repository
	Courses course.Repository
	// SQL is set by the postgres engine only.
	SQL *sqlx.DB

	close func(ctx context.Context) error
}

// Open connects to conf.Database.Engine. With setUp, the schema is brought up to date
// (postgres: database creation + migrations; mongodb: indexes).
func Open(ctx context.Context, conf *core.Config, setUp bool) (*Stores, error) {
	stores := &Stores{Engine: conf.Database.Engine}

	switch conf.Database.Engine {
	case core.EngineMongoDB:
		client, db, err := mongorepos.Open(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening mongodb")
		}
		if setUp {
			if err = mongorepos.EnsureIndexes(ctx, db); err != nil {
				_ = client.Disconnect(ctx)
				return nil, errors.Wrap(err, "ensuring indexes")
			}
		}
		stores.Users = mongorepos.NewUserRepository(db)
		stores.Courses = mongorepos.NewCourseRepository(db)
		stores.close = client.Disconnect

	case core.EnginePostgres:
		if setUp {
			if err := database.CreateIfNotExist(conf); err != nil {
				return nil, errors.Wrap(err, "creating database")
			}
		}
		db, err := database.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening postgres")
		}
		if setUp {
			if err = database.Migrate(db.DB); err != nil {
				_ = db.Close()
				return nil, err
			}
		}
		stores.SQL = db
		stores.Users = pgrepos.NewUserRepository(db)
		stores.Courses = pgrepos.NewCourseRepository(db)
		stores.close = func(context.Context) error { return db.Close() }

	case core.EngineMemory:
		db := inmemdb.Open()
		stores.Users = inmemdb.NewUserRepository(db)
		stores.Courses = inmemdb.NewCourseRepository(db)
		stores.close = func(context.Context) error { return nil }

	default:
		return nil, errors.Wrapf(ErrUnknownEngine, "%q", conf.Database.Engine)
	}
	return stores, nil
}

func (s *Stores) Close(ctx context.Context) error {
	if s.close == nil {
		return nil
	}
	return s.close(ctx)
}
