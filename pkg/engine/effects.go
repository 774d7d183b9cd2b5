package engine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/state"
)

const (
	combatChance    = 0.30
	potionFindRate  = 0.15
	potionHealing   = 30
	restThreshold   = 70
	fallbackLossMin = 5
	fallbackLossMax = 20
	// Loss range used when a matched number cannot be read. Narrower than
	// the no-match range; kept as the game has always behaved.
	erroredLossMax = 15

	deathEpilogue = "\n\nYour vision fades to black as you collapse from your wounds. Your adventure has come to an end."
	foundPotion   = "You found a health potion!"
)

var healthLossPattern = regexp.MustCompile(`lose[s]?\s+(\d+)\s+health|(\d+)\s+damage|(\d+)\s+health\s+points`)

// RollCombat decides whether a turn is a fight.
func RollCombat(rng Rand) bool {
	return rng.Float64() < combatChance
}

// ExtractHealthLoss finds the health loss narrated in text. The first match
// wins and its first non-empty group is used. ok is false when nothing
// matches; err is set when a matched number cannot be represented.
func ExtractHealthLoss(text string) (loss int, ok bool, err error) {
	m := healthLossPattern.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false, nil
	}
	for _, g := range m[1:] {
		if g == "" {
			continue
		}
		n, err := strconv.Atoi(g)
		if err != nil {
			return 0, true, fmt.Errorf("invalid health loss %q: %w", g, err)
		}
		return n, true, nil
	}
	return 0, false, nil
}

// effect is the outcome of a turn's health and inventory changes.
type effect struct {
	message string
	loss    int
}

// applyCombat subtracts the narrated loss, or a random one when the text
// does not say.
func (e *Engine) applyCombat(rng Rand, ps *state.PlayerState, text string) effect {
	loss, ok, err := ExtractHealthLoss(text)
	switch {
	case err != nil:
		e.logger.Warn("Could not read health loss from narrative, using fallback", "error", err)
		loss = intBetween(rng, fallbackLossMin, erroredLossMax)
		ps.ApplyDamage(loss)
		return effect{message: fmt.Sprintf("You lost %d health points in the encounter!", loss), loss: loss}
	case !ok:
		loss = intBetween(rng, fallbackLossMin, fallbackLossMax)
	}
	ps.ApplyDamage(loss)
	return effect{message: fmt.Sprintf("You lost %d health points!", loss), loss: loss}
}

// applyDiscovery occasionally hands the player a potion on a quiet turn.
func applyDiscovery(rng Rand, ps *state.PlayerState) effect {
	if rng.Float64() < potionFindRate {
		ps.AddItem(state.HealthPotion)
		return effect{message: foundPotion}
	}
	return effect{}
}

// appendMessage adds msg after a blank line unless the narrative already
// contains it.
func appendMessage(narrative, msg string) string {
	if msg == "" || strings.Contains(narrative, msg) {
		return narrative
	}
	return narrative + "\n\n" + msg
}
