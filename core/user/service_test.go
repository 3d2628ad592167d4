package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/user"
	"github.com/trezcool/academia/storage/database/inmem"
	"github.com/trezcool/academia/tests"
)

const testPwd = "Zq7#vLm9pW"

func newService() (*user.Service, user.Repository) {
	repo := inmemdb.NewUserRepository(inmemdb.Open())
	validate, _ := testutil.NewValidator()
	return user.NewService(repo, validate), repo
}

func TestService_Register(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()

	usr, err := svc.Register(ctx, user.NewUser{Name: " Ada ", Email: " ADA@Example.com", Password: testPwd, Role: "Instructor"})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "Ada", usr.Name)
	assert.Equal(t, "ada@example.com", usr.Email)
	assert.Equal(t, user.RoleInstructor, usr.Role)
	assert.False(t, usr.CreatedAt.IsZero())
	assert.True(t, usr.LastLogin.IsZero())
	assert.NotEqual(t, []byte(testPwd), usr.PasswordHash)
	assert.NoError(t, usr.CheckPassword(testPwd))

	stored, err := repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
	require.NoError(t, err)
	assert.Equal(t, usr.Email, stored.Email)

	tests := []struct {
		name    string
		nu      user.NewUser
		wantErr error
		wantTag string
	}{
		{name: "no name", nu: user.NewUser{Email: "bob@example.com", Password: testPwd, Role: user.RoleStudent}, wantTag: "required"},
		{name: "invalid email", nu: user.NewUser{Name: "Bob", Email: "bob", Password: testPwd, Role: user.RoleStudent}, wantTag: "email"},
		{name: "invalid role", nu: user.NewUser{Name: "Bob", Email: "bob@example.com", Password: testPwd, Role: "admin"}, wantTag: "oneof"},
		{name: "weak password", nu: user.NewUser{Name: "Bob", Email: "bob@example.com", Password: "password123", Role: user.RoleStudent}, wantTag: "pwdnocommon"},
		{name: "email taken", nu: user.NewUser{Name: "Ada", Email: "Ada@example.com", Password: testPwd, Role: user.RoleStudent}, wantErr: user.ErrEmailExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.nu)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			var vErrs validator.ValidationErrors
			if assert.True(t, errors.As(err, &vErrs), "want validator.ValidationErrors; got %v", err) {
				assert.Equal(t, tt.wantTag, vErrs[0].Tag())
			}
		})
	}

	users, err := svc.Query(ctx, user.QueryFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
}

func TestService_Authenticate(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Ada", "ada@example.com", testPwd, user.RoleInstructor)

	tests := []struct {
		name    string
		email   string
		pwd     string
		wantErr error
	}{
		{name: "unknown email", email: "bob@example.com", pwd: testPwd, wantErr: user.ErrInvalidCredentials},
		{name: "wrong password", email: usr.Email, pwd: testPwd + "!", wantErr: user.ErrInvalidCredentials},
		{name: "success", email: " ADA@example.com ", pwd: testPwd},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Authenticate(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				_, ok := errors.Cause(err).(*core.AuthError)
				assert.True(t, ok)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, usr.ID, got.ID)
			assert.False(t, got.LastLogin.IsZero())
		})
	}
}

func TestService_GetNames(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	ada := testutil.CreateUser(t, repo, "Ada", "ada@example.com", "", user.RoleInstructor)
	bob := testutil.CreateUser(t, repo, "Bob", "bob@example.com", "", user.RoleStudent)

	names, err := svc.GetNames(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	names, err = svc.GetNames(ctx, ada.ID, bob.ID, "lol")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{ada.ID: "Ada", bob.ID: "Bob"}, names)
}

func TestService_Upsert(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	created, err := svc.Upsert(ctx, user.NewUser{Name: "Ada", Email: "ada@example.com", Password: testPwd, Role: user.RoleInstructor})
	require.NoError(t, err)

	updated, err := svc.Upsert(ctx, user.NewUser{Name: "Ada L.", Email: "ADA@example.com", Password: testPwd + "?", Role: user.RoleStudent})
	require.NoError(t, err)
	assert.Equal(t, created.ID, updated.ID)
	assert.Equal(t, "Ada L.", updated.Name)
	assert.Equal(t, user.RoleStudent, updated.Role)
	assert.NoError(t, updated.CheckPassword(testPwd+"?"))
}

func TestService_SetPassword(t *testing.T) {
	svc, repo := newService()
	ctx := context.Background()
	usr := testutil.CreateUser(t, repo, "Ada", "ada@example.com", testPwd, user.RoleInstructor)

	assert.Equal(t, user.ErrNotFound, svc.SetPassword(ctx, "bob@example.com", testPwd))
	assert.Error(t, svc.SetPassword(ctx, usr.Email, ""))

	err := svc.SetPassword(ctx, usr.Email, "adaexample")
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr), "want *core.ValidationError; got %v", err)

	require.NoError(t, svc.SetPassword(ctx, usr.Email, "N3w#Secret"))
	refreshed, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.NoError(t, refreshed.CheckPassword("N3w#Secret"))
	assert.Error(t, refreshed.CheckPassword(testPwd))
}
