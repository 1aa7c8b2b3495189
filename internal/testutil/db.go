// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/repository"
	"github.com/battle-arena/pkg/crypto"
)

// DefaultPassword is the plaintext password of users made by CreateUser.
const DefaultPassword = "s3cret-pass"

// NewDB returns a migrated in-memory sqlite database closed at test end.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := repository.Open(config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"}, logger.Default.LogMode(logger.Silent))
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// CreateUser persists a user whose password is DefaultPassword.
func CreateUser(t testing.TB, db *gorm.DB, username string) *models.User {
	t.Helper()

	hash, err := crypto.HashPassword(DefaultPassword)
	require.NoError(t, err)

	user := &models.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: hash,
	}
	require.NoError(t, repository.NewUserRepository(db).Create(context.Background(), user))
	return user
}

// CreateCharacter persists a character owned by owner.
func CreateCharacter(t testing.TB, db *gorm.DB, owner *models.User, name string, wins int, champion bool) *models.Character {
	t.Helper()

	character := &models.Character{
		Name:         name,
		Strength:     5,
		Agility:      4,
		Intelligence: 3,
		Speed:        6,
		Endurance:    7,
		Camouflage:   2,
		Health:       100,
		Link:         "https://img.example.com/" + name + ".png",
		Description:  "a hulking " + name + " warrior in the style of Frank Frazetta",
		Wins:         wins,
		Champion:     champion,
		UserID:       owner.ID,
	}
	require.NoError(t, repository.NewCharacterRepository(db).Create(context.Background(), character))
	return character
}
