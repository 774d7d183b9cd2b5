// Package engine turns a player's chosen action into the next piece of the
// story: it asks a text generator for prose, reads health effects out of the
// prose, and offers the next set of choices.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

const (
	introMaxLength = 400
	turnMaxLength  = 350
)

const (
	potionRecovered = "You drink the health potion, feeling its magical energy spread through your body. You recover %d health points!"
	potionMissing   = "You don't have any health potions!"
	potionAfterText = "After drinking the potion, you feel refreshed and ready to continue your adventure."
	potionEmptyText = "You search your inventory but find no health potions."
)

// TextGenerator produces prose for a prompt. It never fails; callers that
// talk to unreliable backends must substitute text themselves.
type TextGenerator interface {
	Generate(ctx context.Context, prompt string, maxLength int) string
}

// TurnResult is what the player sees after a turn.
type TurnResult struct {
	Message string   `json:"message"`
	Health  int      `json:"health"`
	Choices []string `json:"choices"`
}

type Engine struct {
	tables    *content.Tables
	generator TextGenerator
	logger    *slog.Logger
}

func NewEngine(tables *content.Tables, generator TextGenerator, logger *slog.Logger) *Engine {
	return &Engine{
		tables:    tables,
		generator: generator,
		logger:    logger,
	}
}

// Tables returns the content the engine plays with.
func (e *Engine) Tables() *content.Tables {
	return e.tables
}

// Introduction generates the opening narrative for a new player, seeds the
// player's story context, and returns the initial choices.
func (e *Engine) Introduction(ctx context.Context, rng Rand, ps *state.PlayerState) (TurnResult, error) {
	traits, ok := e.tables.Class(string(ps.Class))
	if !ok {
		return TurnResult{}, fmt.Errorf("%w: %q", state.ErrUnknownClass, ps.Class)
	}

	intro := e.generator.Generate(ctx, BuildIntroPrompt(traits, ps.Name, ps.Class), introMaxLength)
	ps.StoryContext = seedStoryContext(traits, ps.Name, ps.Class, intro)

	e.logger.Debug("Generated introduction",
		"player", ps.Name,
		"class", ps.Class,
		"length", len(intro))

	return TurnResult{
		Message: intro,
		Health:  ps.Health,
		Choices: InitialChoices(rng, e.tables, ps.Class),
	}, nil
}

// ProcessAction plays one turn. The player state is only changed after the
// generator has answered.
//
// Random draws happen in a fixed order: the combat roll, then either the
// fallback loss (combat without a narrated number) or the potion find
// (quiet turn), then the choice shuffle and the choice count.
func (e *Engine) ProcessAction(ctx context.Context, rng Rand, ps *state.PlayerState, action string) TurnResult {
	destination, moving := e.tables.RouteFor(action)

	// The prompt describes where the action takes the player.
	view := ps
	if moving && destination != ps.Location {
		view = ps.Clone()
		view.Location = destination
	}

	combat := RollCombat(rng)
	prompt := BuildTurnPrompt(e.tables, view, action, combat)
	narrative := e.generator.Generate(ctx, prompt, turnMaxLength)

	if moving {
		ps.MoveTo(destination)
	}
	ps.AppendHistory(action)
	ps.StoryContext += fmt.Sprintf("\nPlayer chose: %s.\n", action) + narrative

	var eff effect
	if combat {
		eff = e.applyCombat(rng, ps, narrative)
	} else {
		eff = applyDiscovery(rng, ps)
	}

	choices := DeriveChoices(rng, e.tables, ps, narrative)

	message := narrative
	if ps.IsDead() {
		message += deathEpilogue
		choices = DeathChoices()
	}
	message = appendMessage(message, eff.message)

	e.logger.Debug("Processed action",
		"player", ps.Name,
		"action", action,
		"combat", combat,
		"health_loss", eff.loss,
		"health", ps.Health,
		"location", ps.Location)

	return TurnResult{
		Message: message,
		Health:  ps.Health,
		Choices: choices,
	}
}

// UsePotion drinks one health potion if the player has one. It never calls
// the generator.
func (e *Engine) UsePotion(rng Rand, ps *state.PlayerState) TurnResult {
	if !ps.RemoveItem(state.HealthPotion) {
		return TurnResult{
			Message: potionMissing,
			Health:  ps.Health,
			Choices: DeriveChoices(rng, e.tables, ps, potionEmptyText),
		}
	}

	recovered := ps.Heal(potionHealing)
	return TurnResult{
		Message: fmt.Sprintf(potionRecovered, recovered),
		Health:  ps.Health,
		Choices: DeriveChoices(rng, e.tables, ps, potionAfterText),
	}
}
