package service

import (
	"context"
	"testing"

	"carrental/internal/apperrors"
	"carrental/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newUserFixture() (*memStore, UserService) {
	store := newMemStore()
	return store, NewUserService(&fakeUserRepo{store: store})
}

func TestLogin(t *testing.T) {
	store, svc := newUserFixture()
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	store.users["staff1"] = model.User{
		ID: uuid.New(), Username: "staff1", Password: string(hashed), Role: model.RoleStaff,
	}

	res, err := svc.Login(context.Background(), LoginRequest{Username: "staff1", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	store, svc := newUserFixture()
	hashed, err := bcrypt.GenerateFromPassword([]byte("s3cret-pass"), bcrypt.MinCost)
	require.NoError(t, err)
	store.users["staff1"] = model.User{
		ID: uuid.New(), Username: "staff1", Password: string(hashed), Role: model.RoleStaff,
	}

	// Wrong password and unknown username fail the same way.
	_, err = svc.Login(context.Background(), LoginRequest{Username: "staff1", Password: "wrong"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))

	_, err = svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
}

func TestCreateUserHashesPassword(t *testing.T) {
	store, svc := newUserFixture()

	res, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "staff2", Password: "hunter22", Role: model.RoleStaff,
	})
	require.NoError(t, err)
	assert.Equal(t, "staff2", res.Username)

	stored := store.users["staff2"]
	assert.NotEqual(t, "hunter22", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("hunter22")))
}

func TestCreateUserValidation(t *testing.T) {
	store, svc := newUserFixture()
	store.users["taken"] = model.User{ID: uuid.New(), Username: "taken", Role: model.RoleStaff}

	_, err := svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "x", Password: "password", Role: "superuser",
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))

	_, err = svc.CreateUser(context.Background(), CreateUserRequest{
		Username: "taken", Password: "password", Role: model.RoleAdmin,
	})
	require.Error(t, err)
	assert.Equal(t, apperrors.KindConflict, apperrors.KindOf(err))
}
