package services

import (
	"context"
	"math/rand/v2"
	"strings"
	"sync"

	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/engine"
)

// RuleBasedService picks canned prose by keyword. It needs no model and
// never fails, so it backs every other backend.
type RuleBasedService struct {
	prose content.Fallback

	mu  sync.Mutex
	rng *rand.Rand
}

func NewRuleBasedService(prose content.Fallback, seed uint64) *RuleBasedService {
	return &RuleBasedService{
		prose: prose,
		rng:   engine.NewRand(seed),
	}
}

func (r *RuleBasedService) Name() string {
	return "rulebased"
}

// Complete matches the prompt against keyword groups in a fixed order:
// introduction, place, encounter, combat, search.
func (r *RuleBasedService) Complete(ctx context.Context, prompt string, maxLength int) (string, error) {
	return r.compose(prompt), nil
}

// Generate satisfies engine.TextGenerator directly.
func (r *RuleBasedService) Generate(ctx context.Context, prompt string, maxLength int) string {
	return r.compose(prompt)
}

func (r *RuleBasedService) compose(prompt string) string {
	// The story-so-far block repeats earlier turns; only the current
	// situation decides the reply.
	if i := strings.Index(prompt, engine.StoryHeader); i >= 0 {
		prompt = prompt[:i]
	}
	lower := strings.ToLower(prompt)

	if containsWord(lower, "introduction", "begin", "start") {
		if line, ok := r.pick(r.prose.Introductions); ok {
			return line
		}
	}
	for _, scene := range r.prose.Scenes {
		if strings.Contains(lower, scene.Keyword) {
			if line, ok := r.pick(scene.Lines); ok {
				return line
			}
		}
	}
	if containsWord(lower, "encounter", "meet", "find") {
		if line, ok := r.pick(r.prose.Encounters); ok {
			return line
		}
	}
	if containsWord(lower, "fight", "battle", "attack", "combat") {
		if line, ok := r.pick(r.prose.CombatResults); ok {
			return line
		}
	}
	if containsWord(lower, "search", "look", "examine") {
		if line, ok := r.pick(r.prose.Discoveries); ok {
			return line
		}
	}
	return r.prose.Default
}

func (r *RuleBasedService) pick(lines []string) (string, bool) {
	if len(lines) == 0 {
		return "", false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return lines[r.rng.IntN(len(lines))], true
}

func containsWord(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
