package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/academia/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db}
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	tbl := repo.db.user
	tbl.Lock()
	defer tbl.Unlock()

	for _, u := range tbl.table {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}

	usr.ID = uuid.New().String()
	tbl.table[usr.ID] = &usr
	tbl.order = append(tbl.order, usr.ID)
	return usr, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	tbl := repo.db.user
	tbl.RLock()
	defer tbl.RUnlock()

	switch {
	case filter.ID != "":
		if usr, ok := tbl.table[filter.ID]; ok {
			return *usr, nil
		}
	case filter.Email != "":
		for _, usr := range tbl.table {
			if usr.Email == filter.Email {
				return *usr, nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter) ([]user.User, error) {
	tbl := repo.db.user
	tbl.RLock()
	defer tbl.RUnlock()

	var ids map[string]bool
	if len(filter.IDs) > 0 {
		ids = make(map[string]bool, len(filter.IDs))
		for _, id := range filter.IDs {
			ids[id] = true
		}
	}

	users := make([]user.User, 0, len(tbl.order))
	for _, id := range tbl.order {
		usr := tbl.table[id]
		if ids != nil && !ids[usr.ID] {
			continue
		}
		if filter.Role != "" && usr.Role != filter.Role {
			continue
		}
		users = append(users, *usr)
	}
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	tbl := repo.db.user
	tbl.Lock()
	defer tbl.Unlock()

	if _, ok := tbl.table[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range tbl.table {
		if u.ID != usr.ID && u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	tbl.table[usr.ID] = &usr
	return usr, nil
}
