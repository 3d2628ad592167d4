// Package inmemdb is a mutex guarded, process local store. Used by tests and the "memory" engine.
package inmemdb

import (
	"sync"

	"github.com/trezcool/academia/core/course"
	"github.com/trezcool/academia/core/user"
)

type (
	DB struct {
		user   *userTable
		course *courseTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
		order []string // insertion order
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*course.Course
		order []string // insertion order
	}
)

func Open() *DB {
	db := new(DB)
	db.Reset()
	return db
}

// Reset drops every record.
func (db *DB) Reset() {
	db.user = &userTable{table: make(map[string]*user.User)}
	db.course = &courseTable{table: make(map[string]*course.Course)}
}
