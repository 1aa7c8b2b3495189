package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/battle-arena/internal/config"
	"github.com/battle-arena/internal/gateway"
	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/repository"
)

// StyleMarker separates what a character is from the art style of its description
const StyleMarker = "in the style of"

const storyPrompt = "Can you please write a fictional story in a fantasy world of how %s, a %s, " +
	"defeated %s, a %s, in battle, using approximately 150 words or less?"

// BattleStories holds both outcomes of a fight
type BattleStories struct {
	Story  string `json:"story"`
	Story2 string `json:"story2"`
}

// BattleService writes battle narratives between two characters
type BattleService struct {
	characterRepo *repository.CharacterRepository
	gateway       gateway.Gateway
	params        gateway.TextParams
}

// NewBattleService creates a new BattleService using the sampling settings in cfg
func NewBattleService(characterRepo *repository.CharacterRepository, gw gateway.Gateway, cfg config.GatewayConfig) *BattleService {
	return &BattleService{
		characterRepo: characterRepo,
		gateway:       gw,
		params: gateway.TextParams{
			Temperature:      cfg.Temperature,
			MaxTokens:        cfg.MaxTokens,
			TopP:             1,
			FrequencyPenalty: 0,
			PresencePenalty:  0,
		},
	}
}

// Narrate returns a story where the champion wins and one where the
// challenger wins
func (s *BattleService) Narrate(ctx context.Context, champID, challID uint) (*BattleStories, error) {
	champ, err := s.characterRepo.GetByID(ctx, champID)
	if err != nil {
		return nil, err
	}
	chall, err := s.characterRepo.GetByID(ctx, challID)
	if err != nil {
		return nil, err
	}

	champDesc, err := Subject(champ)
	if err != nil {
		return nil, err
	}
	challDesc, err := Subject(chall)
	if err != nil {
		return nil, err
	}

	story, err := s.gateway.GenerateText(ctx, fmt.Sprintf(storyPrompt, champ.Name, champDesc, chall.Name, challDesc), s.params)
	if err != nil {
		return nil, err
	}
	story2, err := s.gateway.GenerateText(ctx, fmt.Sprintf(storyPrompt, chall.Name, challDesc, champ.Name, champDesc), s.params)
	if err != nil {
		return nil, err
	}

	return &BattleStories{Story: story, Story2: story2}, nil
}

// Subject returns the part of a character's description before StyleMarker
func Subject(character *models.Character) (string, error) {
	idx := strings.Index(character.Description, StyleMarker)
	if idx < 0 {
		return "", fmt.Errorf("%w: description of %s does not contain %q", ErrPreconditionFailed, character.Name, StyleMarker)
	}
	return strings.TrimSpace(character.Description[:idx]), nil
}
