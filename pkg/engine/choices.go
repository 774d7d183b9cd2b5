package engine

import (
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

const (
	ActionRestart     = "Restart"
	ActionLoadGame    = "Load Game"
	ActionDrinkPotion = "Drink health potion"
	ActionRest        = "Rest to recover health"
)

// DeathChoices is the only choice list offered to a dead player.
func DeathChoices() []string {
	return []string{ActionRestart, ActionLoadGame}
}

// DeriveChoices builds the candidate pool from the narrative and the
// player's condition, then shuffles it and keeps three or four entries.
func DeriveChoices(rng Rand, tables *content.Tables, ps *state.PlayerState, narrative string) []string {
	pool := choicePool(tables, ps, narrative)
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	n := min(len(pool), intBetween(rng, 3, 4))
	return pool[:n]
}

// choicePool returns every candidate choice, de-duplicated in first-seen
// order.
func choicePool(tables *content.Tables, ps *state.PlayerState, narrative string) []string {
	lower := strings.ToLower(narrative)

	var candidates []string
	for _, bucket := range tables.ChoiceBuckets {
		if containsAny(lower, bucket.Keywords) {
			candidates = append(candidates, bucket.Choices...)
		}
	}
	if ps.Health < restThreshold {
		candidates = append(candidates, ActionRest)
	}
	if ps.HasItem(state.HealthPotion) {
		candidates = append(candidates, ActionDrinkPotion)
	}
	candidates = append(candidates, tables.DirectionChoices...)
	candidates = append(candidates, tables.GenericChoices...)

	seen := make(map[string]bool, len(candidates))
	pool := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if seen[c] {
			continue
		}
		seen[c] = true
		pool = append(pool, c)
	}
	return pool
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// InitialChoices offers the common opening choices plus the class's own,
// shuffled and cut to three.
func InitialChoices(rng Rand, tables *content.Tables, class state.CharacterClass) []string {
	choices := append([]string(nil), tables.InitialChoices.Common...)
	if c, ok := tables.InitialChoices.ClassSpecific[string(class)]; ok {
		choices = append(choices, c)
	}
	rng.Shuffle(len(choices), func(i, j int) {
		choices[i], choices[j] = choices[j], choices[i]
	})
	return choices[:min(3, len(choices))]
}
