package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/battle-arena/internal/models"
)

var (
	ErrCharacterNotFound = fmt.Errorf("character %w", ErrNotFound)
	ErrChampionNotFound  = fmt.Errorf("champion %w", ErrNotFound)
)

// CharacterRepository handles character data access
type CharacterRepository struct {
	db *gorm.DB
}

// NewCharacterRepository creates a new CharacterRepository
func NewCharacterRepository(db *gorm.DB) *CharacterRepository {
	return &CharacterRepository{db: db}
}

// Create creates a new character and loads its creator
func (r *CharacterRepository) Create(ctx context.Context, character *models.Character) error {
	db := r.db.WithContext(ctx)
	if err := db.Omit(clause.Associations).Create(character).Error; err != nil {
		return translate(err)
	}
	return db.First(&character.User, character.UserID).Error
}

// GetByID retrieves a character by ID, with its creator
func (r *CharacterRepository) GetByID(ctx context.Context, id uint) (*models.Character, error) {
	var character models.Character
	result := r.db.WithContext(ctx).Preload("User").First(&character, id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrCharacterNotFound
		}
		return nil, result.Error
	}
	return &character, nil
}

// List retrieves all characters ordered by ID
func (r *CharacterRepository) List(ctx context.Context) ([]models.Character, error) {
	var characters []models.Character
	result := r.db.WithContext(ctx).Preload("User").Order("id ASC").Find(&characters)
	return characters, result.Error
}

// TopByWins retrieves the characters with the most wins, ties broken by ID
func (r *CharacterRepository) TopByWins(ctx context.Context, limit int) ([]models.Character, error) {
	var characters []models.Character
	result := r.db.WithContext(ctx).Preload("User").
		Order("wins DESC").
		Order("id ASC").
		Limit(limit).
		Find(&characters)
	return characters, result.Error
}

// FirstChampion retrieves the lowest-ID character flagged as champion
func (r *CharacterRepository) FirstChampion(ctx context.Context) (*models.Character, error) {
	var character models.Character
	result := r.db.WithContext(ctx).Preload("User").
		Where("champion = ?", true).
		Order("id ASC").
		First(&character)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrChampionNotFound
		}
		return nil, result.Error
	}
	return &character, nil
}

// Update saves every column of a character
func (r *CharacterRepository) Update(ctx context.Context, character *models.Character) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Save(character).Error)
}

// UpdateLink replaces the stored image URL
func (r *CharacterRepository) UpdateLink(ctx context.Context, id uint, link string) error {
	result := r.db.WithContext(ctx).Model(&models.Character{}).Where("id = ?", id).Updates(map[string]interface{}{
		"link":       link,
		"updated_at": time.Now(),
	})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// Delete deletes a character
func (r *CharacterRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Character{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrCharacterNotFound
	}
	return nil
}

// CountByUserID counts characters owned by a user
func (r *CharacterRepository) CountByUserID(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Character{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
