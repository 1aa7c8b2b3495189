package handler_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/battle-arena/internal/gateway"
	"github.com/battle-arena/internal/service"
	"github.com/battle-arena/internal/testutil"
)

func TestBattle(t *testing.T) {
	h := newHarness(t, false)
	owner := testutil.CreateUser(t, h.db, "owner")
	champ := testutil.CreateCharacter(t, h.db, owner, "ogre", 3, true)
	chall := testutil.CreateCharacter(t, h.db, owner, "elf", 0, false)

	w := h.do(http.MethodGet, fmt.Sprintf("/api/battle/%d/%d", champ.ID, chall.ID), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var stories service.BattleStories
	decode(t, w, &stories)
	assert.Equal(t, "story 1", stories.Story)
	assert.Equal(t, "story 2", stories.Story2)

	require.Len(t, h.gateway.TextPrompts, 2)
	assert.Contains(t, h.gateway.TextPrompts[0], "how ogre, a a hulking ogre warrior, defeated elf")
	assert.Contains(t, h.gateway.TextPrompts[1], "how elf, a a hulking elf warrior, defeated ogre")
	assert.NotContains(t, h.gateway.TextPrompts[0], "Frazetta")
}

func TestBattle_Errors(t *testing.T) {
	h := newHarness(t, false)
	owner := testutil.CreateUser(t, h.db, "owner")
	champ := testutil.CreateCharacter(t, h.db, owner, "ogre", 3, true)
	plain := testutil.CreateCharacter(t, h.db, owner, "blob", 0, false)

	require.NoError(t, h.db.Model(plain).Update("description", "just a blob").Error)

	w := h.do(http.MethodGet, fmt.Sprintf("/api/battle/%d/999", champ.ID), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/battle/%d/x", champ.ID), nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = h.do(http.MethodGet, fmt.Sprintf("/api/battle/%d/%d", champ.ID, plain.ID), nil)
	assert.Equal(t, http.StatusPreconditionFailed, w.Code)
	assert.Contains(t, errorMessage(t, w), `"in the style of"`)
	assert.Empty(t, h.gateway.TextPrompts)

	other := testutil.CreateCharacter(t, h.db, owner, "elf", 0, false)
	h.gateway.TextErr = &gateway.GenerationError{Kind: gateway.KindText, Err: errors.New("connection reset"), Retryable: true}
	w = h.do(http.MethodGet, fmt.Sprintf("/api/battle/%d/%d", champ.ID, other.ID), nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}
