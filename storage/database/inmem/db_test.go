package inmemdb

import (
	"testing"

	"github.com/trezcool/academia/tests"
)

func TestRepositories(t *testing.T) {
	db := Open()
	t.Run("users", func(t *testing.T) {
		testutil.RunUserRepositoryTests(t, NewUserRepository(db), "missing")
	})
	t.Run("courses", func(t *testing.T) {
		testutil.RunCourseRepositoryTests(t, NewUserRepository(db), NewCourseRepository(db), "missing")
	})
}
