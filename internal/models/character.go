package models

import (
	"bytes"
	"encoding/json"
	"sort"
	"strconv"
	"time"
)

// Character represents a battle character owned by a user
type Character struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Name         string    `gorm:"size:150;not null" json:"name"`
	Type         *string   `gorm:"size:150" json:"type"`
	Strength     int       `gorm:"not null" json:"strength"`
	Agility      int       `gorm:"not null" json:"agility"`
	Intelligence int       `gorm:"not null" json:"intelligence"`
	Speed        int       `gorm:"not null" json:"speed"`
	Endurance    int       `gorm:"not null" json:"endurance"`
	Camouflage   int       `gorm:"not null" json:"camouflage"`
	Health       int       `gorm:"not null" json:"health"`
	Link         string    `gorm:"size:1000;not null" json:"link"`
	Description  string    `gorm:"size:1000;not null" json:"description"`
	Champion     bool      `gorm:"not null;default:false;index" json:"champion"`
	Wins         int       `gorm:"not null;default:0;index" json:"wins"`
	CreatedAt    time.Time `gorm:"column:date_created" json:"date_created"`
	UpdatedAt    time.Time `json:"-"`
	UserID       uint      `gorm:"index;not null" json:"user_id"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"-"`
}

// TableName specifies the table name for Character model
func (Character) TableName() string {
	return "characters"
}

// CharacterResponse is the public representation of a character,
// embedding its creator
type CharacterResponse struct {
	ID           uint         `json:"id"`
	Name         string       `json:"name"`
	Type         *string      `json:"type"`
	Strength     int          `json:"strength"`
	Agility      int          `json:"agility"`
	Intelligence int          `json:"intelligence"`
	Speed        int          `json:"speed"`
	Endurance    int          `json:"endurance"`
	Camouflage   int          `json:"camouflage"`
	Health       int          `json:"health"`
	Link         string       `json:"link"`
	Description  string       `json:"description"`
	Champion     bool         `json:"champion"`
	Wins         int          `json:"wins"`
	DateCreated  time.Time    `json:"date_created"`
	Creator      UserResponse `json:"creator"`
}

// ToResponse builds the public representation. User must be loaded.
func (c *Character) ToResponse() CharacterResponse {
	return CharacterResponse{
		ID:           c.ID,
		Name:         c.Name,
		Type:         c.Type,
		Strength:     c.Strength,
		Agility:      c.Agility,
		Intelligence: c.Intelligence,
		Speed:        c.Speed,
		Endurance:    c.Endurance,
		Camouflage:   c.Camouflage,
		Health:       c.Health,
		Link:         c.Link,
		Description:  c.Description,
		Champion:     c.Champion,
		Wins:         c.Wins,
		DateCreated:  c.CreatedAt,
		Creator:      c.User.ToResponse(),
	}
}

// Leaderboard maps 1-based positions ("1", "2", ...) to characters. It
// encodes positions in numeric order so "10" follows "9".
type Leaderboard map[string]CharacterResponse

// MarshalJSON writes the entries ordered by numeric position
func (l Leaderboard) MarshalJSON() ([]byte, error) {
	keys := make([]string, 0, len(l))
	for k := range l {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, errA := strconv.Atoi(keys[i])
		b, errB := strconv.Atoi(keys[j])
		if errA != nil || errB != nil {
			return keys[i] < keys[j]
		}
		return a < b
	})

	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(l[k])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
