package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/battle-arena/internal/artwork"
	"github.com/battle-arena/internal/gateway"
	"github.com/battle-arena/internal/linkcheck"
	"github.com/battle-arena/internal/metrics"
	"github.com/battle-arena/internal/models"
	"github.com/battle-arena/internal/repository"
	"github.com/battle-arena/pkg/errutil"
)

// LeaderboardSize is the number of characters in the hall of fame
const LeaderboardSize = 10

// LinkProber reports the HTTP status of an image URL
type LinkProber interface {
	Probe(ctx context.Context, url string) (int, error)
}

// CharacterService handles the character lifecycle, including image
// generation and link repair
type CharacterService struct {
	characterRepo   *repository.CharacterRepository
	gateway         gateway.Gateway
	prober          LinkProber
	artwork         artwork.Store
	metrics         *metrics.Metrics
	logger          *slog.Logger
	ownerOnlyUpdate bool
}

// CharacterServiceOption configures a CharacterService
type CharacterServiceOption func(*CharacterService)

// WithArtworkStore mirrors generated images through store
func WithArtworkStore(store artwork.Store) CharacterServiceOption {
	return func(s *CharacterService) { s.artwork = store }
}

// WithMetrics records link repairs
func WithMetrics(m *metrics.Metrics) CharacterServiceOption {
	return func(s *CharacterService) { s.metrics = m }
}

// WithLogger sets the logger used for non-fatal failures
func WithLogger(logger *slog.Logger) CharacterServiceOption {
	return func(s *CharacterService) { s.logger = logger }
}

// WithOwnerOnlyUpdate restricts Update to the owning user
func WithOwnerOnlyUpdate(enabled bool) CharacterServiceOption {
	return func(s *CharacterService) { s.ownerOnlyUpdate = enabled }
}

// NewCharacterService creates a new CharacterService
func NewCharacterService(
	characterRepo *repository.CharacterRepository,
	gw gateway.Gateway,
	prober LinkProber,
	opts ...CharacterServiceOption,
) *CharacterService {
	s := &CharacterService{
		characterRepo: characterRepo,
		gateway:       gw,
		prober:        prober,
		artwork:       artwork.Passthrough{},
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CharacterFields are the writable character fields. The misspelled
// intellegence and camoflague keys are accepted for older clients.
type CharacterFields struct {
	Name         *string `json:"name"`
	Type         *string `json:"type"`
	Description  *string `json:"description"`
	Link         *string `json:"link"`
	Strength     *int    `json:"strength"`
	Agility      *int    `json:"agility"`
	Intelligence *int    `json:"intelligence"`
	Speed        *int    `json:"speed"`
	Endurance    *int    `json:"endurance"`
	Camouflage   *int    `json:"camouflage"`
	Health       *int    `json:"health"`

	LegacyIntelligence *int `json:"intellegence"`
	LegacyCamouflage   *int `json:"camoflague"`
}

func (f *CharacterFields) normalize() {
	if f.Intelligence == nil {
		f.Intelligence = f.LegacyIntelligence
	}
	if f.Camouflage == nil {
		f.Camouflage = f.LegacyCamouflage
	}
}

// CreateCharacterRequest represents the create character request. Link is
// the prompt for the generated image, not a URL.
type CreateCharacterRequest struct {
	CharacterFields
}

// UpdateCharacterRequest carries the fields to overwrite. Absent fields are
// left untouched.
type UpdateCharacterRequest struct {
	CharacterFields
	Wins     *int  `json:"wins"`
	Champion *bool `json:"champion"`
}

// Create validates req, generates the character image from req.Link and
// persists the character owned by caller
func (s *CharacterService) Create(ctx context.Context, caller *models.User, req *CreateCharacterRequest) (*models.Character, error) {
	req.normalize()

	for _, f := range []struct {
		name  string
		value *string
	}{
		{"name", req.Name},
		{"description", req.Description},
		{"link", req.Link},
	} {
		if f.value == nil || *f.value == "" {
			return nil, missingField(f.name)
		}
	}
	for _, f := range []struct {
		name  string
		value *int
	}{
		{"strength", req.Strength},
		{"agility", req.Agility},
		{"intelligence", req.Intelligence},
		{"speed", req.Speed},
		{"endurance", req.Endurance},
		{"camouflage", req.Camouflage},
		{"health", req.Health},
	} {
		if f.value == nil {
			return nil, missingField(f.name)
		}
	}

	link, err := s.generateImage(ctx, *req.Link)
	if err != nil {
		return nil, err
	}

	character := &models.Character{
		Name:         *req.Name,
		Type:         req.Type,
		Strength:     *req.Strength,
		Agility:      *req.Agility,
		Intelligence: *req.Intelligence,
		Speed:        *req.Speed,
		Endurance:    *req.Endurance,
		Camouflage:   *req.Camouflage,
		Health:       *req.Health,
		Link:         link,
		Description:  *req.Description,
		UserID:       caller.ID,
	}
	if err := s.characterRepo.Create(ctx, character); err != nil {
		return nil, err
	}
	return character, nil
}

// List returns every character ordered by ID
func (s *CharacterService) List(ctx context.Context) ([]models.Character, error) {
	return s.characterRepo.List(ctx)
}

// FetchWithRepair returns a character, first regenerating its image when
// the stored link no longer resolves. repaired reports whether that happened.
func (s *CharacterService) FetchWithRepair(ctx context.Context, id uint) (*models.Character, bool, error) {
	character, err := s.characterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	repaired, err := s.repairLink(ctx, character)
	if err != nil {
		return nil, false, err
	}
	return character, repaired, nil
}

// ChampionWithRepair is FetchWithRepair for the current champion
func (s *CharacterService) ChampionWithRepair(ctx context.Context) (*models.Character, bool, error) {
	character, err := s.characterRepo.FirstChampion(ctx)
	if err != nil {
		return nil, false, err
	}
	repaired, err := s.repairLink(ctx, character)
	if err != nil {
		return nil, false, err
	}
	return character, repaired, nil
}

// Leaderboard maps 1-based positions to the characters with the most wins
func (s *CharacterService) Leaderboard(ctx context.Context) (models.Leaderboard, error) {
	top, err := s.characterRepo.TopByWins(ctx, LeaderboardSize)
	if err != nil {
		return nil, err
	}

	board := make(models.Leaderboard, len(top))
	for i := range top {
		board[strconv.Itoa(i+1)] = top[i].ToResponse()
	}
	return board, nil
}

// RepairLeaderboardLinks repairs the image links of the hall of fame and
// the champion. Every character is attempted; failures are joined.
func (s *CharacterService) RepairLeaderboardLinks(ctx context.Context) (int, error) {
	targets, err := s.characterRepo.TopByWins(ctx, LeaderboardSize)
	if err != nil {
		return 0, err
	}
	champ, err := s.characterRepo.FirstChampion(ctx)
	switch {
	case err == nil:
		targets = append(targets, *champ)
	case !errors.Is(err, repository.ErrNotFound):
		return 0, err
	}

	var (
		repaired int
		errs     []error
		seen     = make(map[uint]bool, len(targets))
	)
	for i := range targets {
		if seen[targets[i].ID] {
			continue
		}
		seen[targets[i].ID] = true

		ok, err := s.repairLink(ctx, &targets[i])
		if err != nil {
			errs = append(errs, fmt.Errorf("character %d: %w", targets[i].ID, err))
			continue
		}
		if ok {
			repaired++
		}
	}
	return repaired, errors.Join(errs...)
}

// Update overwrites the fields present in req. Anyone may update unless
// owner-only updates are enabled, in which case caller must own the character.
func (s *CharacterService) Update(ctx context.Context, caller *models.User, id uint, req *UpdateCharacterRequest) (*models.Character, error) {
	character, err := s.characterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.ownerOnlyUpdate && (caller == nil || caller.ID != character.UserID) {
		return nil, fmt.Errorf("%w: You are not allowed to edit this character", ErrPermissionDenied)
	}

	req.normalize()
	setString(&character.Name, req.Name)
	setString(&character.Description, req.Description)
	setString(&character.Link, req.Link)
	setInt(&character.Strength, req.Strength)
	setInt(&character.Agility, req.Agility)
	setInt(&character.Intelligence, req.Intelligence)
	setInt(&character.Speed, req.Speed)
	setInt(&character.Endurance, req.Endurance)
	setInt(&character.Camouflage, req.Camouflage)
	setInt(&character.Health, req.Health)
	setInt(&character.Wins, req.Wins)
	if req.Type != nil {
		character.Type = req.Type
	}
	if req.Champion != nil {
		character.Champion = *req.Champion
	}

	if err := s.characterRepo.Update(ctx, character); err != nil {
		return nil, err
	}
	return character, nil
}

// Delete removes a character owned by caller. The deleted character is
// returned for the confirmation message.
func (s *CharacterService) Delete(ctx context.Context, caller *models.User, id uint) (*models.Character, error) {
	character, err := s.characterRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if caller.ID != character.UserID {
		return nil, fmt.Errorf("%w: You are not allowed to delete this character", ErrPermissionDenied)
	}
	if err := s.characterRepo.Delete(ctx, id); err != nil {
		return nil, err
	}
	return character, nil
}

// repairLink regenerates the image from the description when the probe
// fails or returns a status above linkcheck.HealthyMax
func (s *CharacterService) repairLink(ctx context.Context, character *models.Character) (bool, error) {
	status, err := s.prober.Probe(ctx, character.Link)
	if err == nil && linkcheck.Healthy(status) {
		return false, nil
	}
	s.logger.Info("regenerating character image",
		"character_id", character.ID,
		"status", status,
		"probe_error", err,
	)

	link, err := s.generateImage(ctx, character.Description)
	if err != nil {
		return false, err
	}
	if err := s.characterRepo.UpdateLink(ctx, character.ID, link); err != nil {
		return false, err
	}
	character.Link = link
	s.metrics.RecordLinkRepair()
	return true, nil
}

// generateImage asks the gateway for an image and mirrors it through the
// artwork store. A failed mirror falls back to the generator's URL.
func (s *CharacterService) generateImage(ctx context.Context, prompt string) (string, error) {
	url, err := s.gateway.GenerateImage(ctx, prompt)
	if err != nil {
		return "", err
	}

	persisted, err := s.artwork.Persist(ctx, url)
	if err != nil {
		errutil.LogError(s.logger, "artwork mirror failed, keeping generated url", err)
		return url, nil
	}
	return persisted, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
