package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("user not found")
	ErrEmailExists        = core.NewConflictError("Email already registered")
	ErrInvalidCredentials = core.NewAuthError("Invalid email or password")
)

type (
	Repository interface {
		// CreateUser must fail with ErrEmailExists when the email is taken.
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns ErrNotFound when nothing matches.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		QueryUsers(ctx context.Context, filter QueryFilter) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

// Register validates and persists a new User. No session is issued.
func (svc *Service) Register(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	now := time.Now().UTC()
	usr := User{
		Name:      nu.Name,
		Email:     nu.Email,
		Role:      nu.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		if core.IsConflict(err) {
			return User{}, ErrEmailExists
		}
		return User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

// Authenticate checks the credentials and stamps the last login.
// Unknown email and wrong password fail with the same ErrInvalidCredentials.
func (svc *Service) Authenticate(ctx context.Context, email, pwd string) (User, error) {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		if core.IsNotFound(err) {
			return User{}, ErrInvalidCredentials
		}
		return User{}, errors.Wrap(err, "finding user by email")
	}
	if err = usr.CheckPassword(pwd); err != nil {
		return User{}, ErrInvalidCredentials
	}

	usr.LastLogin = time.Now().UTC()
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "setting lastLogin")
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter)
}

// GetNames maps user ids to names. Unknown ids are left out.
func (svc *Service) GetNames(ctx context.Context, ids ...string) (map[string]string, error) {
	names := make(map[string]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}
	users, err := svc.repo.QueryUsers(ctx, QueryFilter{IDs: ids})
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	for _, u := range users {
		names[u.ID] = u.Name
	}
	return names, nil
}

// Upsert creates the User or, when the email is taken, overwrites its name, role and password.
func (svc *Service) Upsert(ctx context.Context, nu NewUser) (User, error) {
	if err := nu.Validate(svc.validate); err != nil {
		return User{}, err
	}

	usr, err := svc.GetByEmail(ctx, nu.Email)
	if err != nil {
		if !core.IsNotFound(err) {
			return User{}, errors.Wrap(err, "finding user by email")
		}
		return svc.Register(ctx, nu)
	}

	usr.Name = nu.Name
	usr.Role = nu.Role
	usr.UpdatedAt = time.Now().UTC()
	if err = usr.SetPassword(nu.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}
	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}

func (svc *Service) SetPassword(ctx context.Context, email, pwd string) error {
	usr, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if err = svc.validate.Var(pwd, "required"); err != nil {
		return err
	}
	if err = validatePassword(pwd, usr.Name, usr.Email); err != nil {
		return err
	}
	if err = usr.SetPassword(pwd); err != nil {
		return errors.Wrap(err, "hashing password")
	}
	usr.UpdatedAt = time.Now().UTC()
	_, err = svc.repo.UpdateUser(ctx, usr)
	return errors.Wrap(err, "updating user")
}
