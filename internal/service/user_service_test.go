package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/repository"
	fixtures "github.com/battle-arena/internal/testutil"
	"github.com/battle-arena/pkg/crypto"
)

func strPtr(s string) *string { return &s }

func countUsers(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&models.User{}).Count(&n).Error)
	return n
}

func TestRegister(t *testing.T) {
	db := fixtures.NewDB(t)
	s := NewUserService(repository.NewUserRepository(db))

	user, err := s.Register(context.Background(), &RegisterRequest{
		Username: strPtr("alice"),
		Email:    strPtr("alice@example.com"),
		Password: strPtr("hunter22"),
	})
	require.NoError(t, err)
	assert.NotZero(t, user.ID)
	assert.NotEqual(t, "hunter22", user.PasswordHash)
	assert.True(t, crypto.CheckPassword("hunter22", user.PasswordHash))
	assert.False(t, user.HasToken())
}

func TestRegister_MissingFields(t *testing.T) {
	s := NewUserService(repository.NewUserRepository(fixtures.NewDB(t)))

	tests := []struct {
		req   RegisterRequest
		field string
	}{
		{RegisterRequest{Email: strPtr("a@example.com"), Password: strPtr("pw")}, "username"},
		{RegisterRequest{Username: strPtr("a"), Password: strPtr("pw")}, "email"},
		{RegisterRequest{Username: strPtr("a"), Email: strPtr("a@example.com")}, "password"},
		{RegisterRequest{Username: strPtr(""), Email: strPtr("a@example.com"), Password: strPtr("pw")}, "username"},
	}
	for _, tt := range tests {
		_, err := s.Register(context.Background(), &tt.req)
		require.ErrorIs(t, err, ErrValidation)

		var vErr *ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, tt.field, vErr.Field)
		assert.Equal(t, "You are missing the "+tt.field+" field", vErr.Error())
	}
}

func TestRegister_Duplicate(t *testing.T) {
	db := fixtures.NewDB(t)
	s := NewUserService(repository.NewUserRepository(db))
	fixtures.CreateUser(t, db, "bob")
	ctx := context.Background()

	before := countUsers(t, db)

	_, err := s.Register(ctx, &RegisterRequest{Username: strPtr("bob"), Email: strPtr("new@example.com"), Password: strPtr("pw")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Register(ctx, &RegisterRequest{Username: strPtr("robert"), Email: strPtr("bob@example.com"), Password: strPtr("pw")})
	assert.ErrorIs(t, err, ErrConflict)

	assert.Equal(t, before, countUsers(t, db), "no row is persisted on conflict")

	_, err = s.Register(ctx, &RegisterRequest{Username: strPtr("Bob"), Email: strPtr("Bob@example.com"), Password: strPtr("pw")})
	assert.NoError(t, err, "matching is exact")
}

func TestUpdateUser(t *testing.T) {
	db := fixtures.NewDB(t)
	s := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()
	alice := fixtures.CreateUser(t, db, "alice")
	oldHash := alice.PasswordHash

	admin := true
	updated, err := s.Update(ctx, alice, alice.ID, &UpdateUserRequest{
		Username: strPtr("alicia"),
		Password: strPtr("n3w-pass"),
		IsAdmin:  &admin,
	})
	require.NoError(t, err)
	assert.Equal(t, "alicia", updated.Username)
	assert.Equal(t, "alice@example.com", updated.Email, "absent fields are kept")
	assert.NotEqual(t, oldHash, updated.PasswordHash)

	stored, err := s.Get(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alicia", stored.Username)
	assert.True(t, crypto.CheckPassword("n3w-pass", stored.PasswordHash))
}

func TestUpdateUser_PermissionDenied(t *testing.T) {
	db := fixtures.NewDB(t)
	s := NewUserService(repository.NewUserRepository(db))
	alice := fixtures.CreateUser(t, db, "alice")
	bob := fixtures.CreateUser(t, db, "bob")

	_, err := s.Update(context.Background(), alice, bob.ID, &UpdateUserRequest{Username: strPtr("pwned")})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	stored, err := s.Get(context.Background(), bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", stored.Username)
}

func TestUpdateUser_Conflict(t *testing.T) {
	db := fixtures.NewDB(t)
	s := NewUserService(repository.NewUserRepository(db))
	alice := fixtures.CreateUser(t, db, "alice")
	fixtures.CreateUser(t, db, "bob")

	_, err := s.Update(context.Background(), alice, alice.ID, &UpdateUserRequest{Email: strPtr("bob@example.com")})
	assert.ErrorIs(t, err, ErrConflict)

	_, err = s.Update(context.Background(), alice, alice.ID, &UpdateUserRequest{Username: strPtr("alice")})
	assert.NoError(t, err, "keeping one's own username is not a conflict")
}

func TestUpdateUser_EmptyPassword(t *testing.T) {
	db := fixtures.NewDB(t)
	s := NewUserService(repository.NewUserRepository(db))
	alice := fixtures.CreateUser(t, db, "alice")

	_, err := s.Update(context.Background(), alice, alice.ID, &UpdateUserRequest{Password: strPtr("")})
	assert.ErrorIs(t, err, ErrValidation)

	stored, err := repository.NewUserRepository(db).GetByID(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.True(t, crypto.CheckPassword(fixtures.DefaultPassword, stored.PasswordHash), "existing password is kept")
}

func TestDeleteUser(t *testing.T) {
	db := fixtures.NewDB(t)
	s := NewUserService(repository.NewUserRepository(db))
	ctx := context.Background()
	alice := fixtures.CreateUser(t, db, "alice")
	bob := fixtures.CreateUser(t, db, "bob")
	fixtures.CreateCharacter(t, db, alice, "wyrm", 0, false)

	_, err := s.Delete(ctx, alice, bob.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	deleted, err := s.Delete(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", deleted.Username)

	_, err = s.Get(ctx, alice.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	count, err := repository.NewCharacterRepository(db).CountByUserID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}
