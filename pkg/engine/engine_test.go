package engine

import (
	"context"
	"io"
	"log/slog"
	"reflect"
	"strings"
	"testing"

	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// fakeRand replays scripted draws. Shuffle leaves the order unchanged so the
// choice pool can be asserted directly.
type fakeRand struct {
	floats   []float64
	ints     []int
	intNArgs []int
	shuffles int
}

func (r *fakeRand) Float64() float64 {
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *fakeRand) IntN(n int) int {
	r.intNArgs = append(r.intNArgs, n)
	if len(r.ints) == 0 {
		return 0
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	return v
}

func (r *fakeRand) Shuffle(n int, swap func(i, j int)) {
	r.shuffles++
}

type scriptedGenerator struct {
	responses  []string
	prompts    []string
	maxLengths []int
}

func (g *scriptedGenerator) Generate(ctx context.Context, prompt string, maxLength int) string {
	g.prompts = append(g.prompts, prompt)
	g.maxLengths = append(g.maxLengths, maxLength)
	if len(g.responses) == 0 {
		return ""
	}
	r := g.responses[0]
	g.responses = g.responses[1:]
	return r
}

func newTestEngine(gen TextGenerator) *Engine {
	return NewEngine(content.Default(), gen, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestProcessAction(t *testing.T) {
	tests := []struct {
		name          string
		health        int
		inventory     []string
		narrative     string
		rng           *fakeRand
		wantHealth    int
		wantMessage   string
		wantChoices   int
		wantInventory []string
		// wantLossDraw is the IntN bound of the fallback loss draw, 0 when
		// the loss is read from the narrative.
		wantLossDraw int
	}{
		{
			name:        "combat with narrated loss",
			health:      100,
			narrative:   "The bandit strikes and you lose 12 health.",
			rng:         &fakeRand{floats: []float64{0.10}, ints: []int{0}},
			wantHealth:  88,
			wantMessage: "The bandit strikes and you lose 12 health.\n\nYou lost 12 health points!",
			wantChoices: 3,
		},
		{
			name:        "combat with damage wording",
			health:      50,
			narrative:   "A blade grazes you for 7 damage.",
			rng:         &fakeRand{floats: []float64{0.29}, ints: []int{1}},
			wantHealth:  43,
			wantMessage: "A blade grazes you for 7 damage.\n\nYou lost 7 health points!",
			wantChoices: 4,
		},
		{
			name:        "combat without a number falls back",
			health:      100,
			narrative:   "Steel rings in the dark.",
			rng:         &fakeRand{floats: []float64{0.0}, ints: []int{7, 0}},
			wantHealth:  88,
			wantMessage:  "Steel rings in the dark.\n\nYou lost 12 health points!",
			wantChoices:  3,
			wantLossDraw: 16, // [5,20]
		},
		{
			name:        "combat with unreadable number uses the narrow fallback",
			health:      100,
			narrative:   "It deals 99999999999999999999 damage.",
			rng:         &fakeRand{floats: []float64{0.0}, ints: []int{3, 0}},
			wantHealth:  92,
			wantMessage:  "It deals 99999999999999999999 damage.\n\nYou lost 8 health points in the encounter!",
			wantChoices:  3,
			wantLossDraw: 11, // [5,15]
		},
		{
			name:        "message already in narrative is not repeated",
			health:      100,
			narrative:   "The troll hits hard. You lost 12 health points!",
			rng:         &fakeRand{floats: []float64{0.0}, ints: []int{0}},
			wantHealth:  88,
			wantMessage: "The troll hits hard. You lost 12 health points!",
			wantChoices: 3,
		},
		{
			name:          "quiet turn finds a potion",
			health:        100,
			narrative:     "Birds sing in the trees.",
			rng:           &fakeRand{floats: []float64{0.5, 0.14}, ints: []int{0}},
			wantHealth:    100,
			wantMessage:   "Birds sing in the trees.\n\nYou found a health potion!",
			wantChoices:   3,
			wantInventory: []string{state.HealthPotion},
		},
		{
			name:          "quiet turn finds nothing",
			health:        100,
			inventory:     []string{"sword"},
			narrative:     "Birds sing in the trees.",
			rng:           &fakeRand{floats: []float64{0.30, 0.15}, ints: []int{0}},
			wantHealth:    100,
			wantMessage:   "Birds sing in the trees.",
			wantChoices:   3,
			wantInventory: []string{"sword"},
		},
		{
			name:        "fatal combat",
			health:      10,
			narrative:   "The dragon breathes fire. You lose 15 health.",
			rng:         &fakeRand{floats: []float64{0.0}, ints: []int{0}},
			wantHealth:  0,
			wantMessage: "The dragon breathes fire. You lose 15 health." + deathEpilogue + "\n\nYou lost 15 health points!",
			wantChoices: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{responses: []string{tt.narrative}}
			e := newTestEngine(gen)

			ps := state.NewPlayerState("Aria", state.ClassWarrior)
			ps.Health = tt.health
			ps.Inventory = append([]string{}, tt.inventory...)

			result := e.ProcessAction(context.Background(), tt.rng, ps, "Wait and observe")

			if result.Health != tt.wantHealth || ps.Health != tt.wantHealth {
				t.Errorf("Expected health %d, got result %d state %d", tt.wantHealth, result.Health, ps.Health)
			}
			if result.Message != tt.wantMessage {
				t.Errorf("Message mismatch:\n got: %q\nwant: %q", result.Message, tt.wantMessage)
			}
			if len(result.Choices) != tt.wantChoices {
				t.Errorf("Expected %d choices, got %v", tt.wantChoices, result.Choices)
			}
			if tt.wantHealth == 0 && !reflect.DeepEqual(result.Choices, DeathChoices()) {
				t.Errorf("Expected death choices, got %v", result.Choices)
			}
			if tt.wantLossDraw != 0 && (len(tt.rng.intNArgs) == 0 || tt.rng.intNArgs[0] != tt.wantLossDraw) {
				t.Errorf("Expected the loss drawn with IntN(%d), got draws %v", tt.wantLossDraw, tt.rng.intNArgs)
			}
			if tt.wantInventory != nil && !reflect.DeepEqual(ps.Inventory, tt.wantInventory) {
				t.Errorf("Expected inventory %v, got %v", tt.wantInventory, ps.Inventory)
			}
			if len(gen.maxLengths) != 1 || gen.maxLengths[0] != turnMaxLength {
				t.Errorf("Expected one generator call with max length %d, got %v", turnMaxLength, gen.maxLengths)
			}
			if got := ps.History[len(ps.History)-1]; got != "Wait and observe" {
				t.Errorf("Expected action recorded in history, got %q", got)
			}
		})
	}
}

func TestFallbackLossRanges(t *testing.T) {
	tests := []struct {
		name      string
		narrative string
		min, max  int
	}{
		{"no number narrated", "Steel rings in the dark.", 5, 20},
		{"unreadable number", "It deals 99999999999999999999 damage.", 5, 15},
	}
	e := newTestEngine(&scriptedGenerator{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen := map[int]bool{}
			for seed := uint64(1); seed <= 2000; seed++ {
				ps := state.NewPlayerState("Aria", state.ClassWarrior)
				eff := e.applyCombat(NewRand(seed), ps, tt.narrative)
				if eff.loss < tt.min || eff.loss > tt.max {
					t.Fatalf("seed %d: loss %d outside [%d,%d]", seed, eff.loss, tt.min, tt.max)
				}
				if ps.Health != state.MaxHealth-eff.loss {
					t.Fatalf("seed %d: health %d after loss %d", seed, ps.Health, eff.loss)
				}
				seen[eff.loss] = true
			}
			if !seen[tt.min] || !seen[tt.max] {
				t.Errorf("Expected both ends of [%d,%d] to be drawn, saw %v", tt.min, tt.max, seen)
			}
		})
	}
}

func TestProcessActionCombatNeverFindsPotion(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"You lose 5 health."}}
	e := newTestEngine(gen)
	ps := state.NewPlayerState("Aria", state.ClassRogue)

	// A second low float would find a potion if the find were rolled.
	rng := &fakeRand{floats: []float64{0.0, 0.0}}
	e.ProcessAction(context.Background(), rng, ps, "Fight bravely")

	if ps.HasItem(state.HealthPotion) {
		t.Error("Expected no potion on a combat turn")
	}
	if len(rng.floats) != 1 {
		t.Errorf("Expected only the combat roll to be drawn, %d floats left", len(rng.floats))
	}
}

func TestProcessActionPrompt(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"The trees close in."}}
	e := newTestEngine(gen)

	ps := state.NewPlayerState("Aria", state.ClassMage)
	ps.AppendHistory("Look around")
	ps.AddItem("staff")
	ps.StoryContext = "Player: Aria, a Mage."

	e.ProcessAction(context.Background(), &fakeRand{floats: []float64{0.1}}, ps, "Head into the dark forest")

	prompt := gen.prompts[0]
	wants := []string{
		"- Player: Aria, a Mage with 100 health points",
		"- Current location: An ancient forest where light barely penetrates the canopy.",
		"- Inventory: staff",
		"- Recent history: Look around\n",
		"- Local dangers and sights: wild_beast, elf_scout, lost_traveler, magical_creature",
		StoryHeader + "\nPlayer: Aria, a Mage.\n\nResponse:",
		"The player has chosen to: Head into the dark forest",
		"This leads to a combat encounter.",
		"how much health the player loses (between 5-20 points)",
	}
	for _, want := range wants {
		if !strings.Contains(prompt, want) {
			t.Errorf("Expected prompt to contain %q\nprompt:\n%s", want, prompt)
		}
	}

	if ps.Location != "dark_forest" || !ps.VisitedLocations.Has("dark_forest") {
		t.Errorf("Expected player moved to dark_forest, got %q visited %v", ps.Location, ps.VisitedLocations.Sorted())
	}
	if !strings.HasSuffix(ps.StoryContext, "\nPlayer chose: Head into the dark forest.\nThe trees close in.") {
		t.Errorf("Unexpected story context %q", ps.StoryContext)
	}
}

func TestProcessActionWithoutRouteKeepsLocation(t *testing.T) {
	e := newTestEngine(&scriptedGenerator{responses: []string{"Nothing happens."}})
	ps := state.NewPlayerState("Aria", state.ClassMage)
	ps.MoveTo("village")

	e.ProcessAction(context.Background(), &fakeRand{}, ps, "Wait and observe")

	if ps.Location != "village" {
		t.Errorf("Expected location village, got %q", ps.Location)
	}
}

func TestBuildTurnPromptQuietTurn(t *testing.T) {
	ps := state.NewPlayerState("Bram", state.ClassRogue)
	ps.Location = "nowhere"
	prompt := BuildTurnPrompt(content.Default(), ps, "Call out", false)

	if !strings.Contains(prompt, "- Inventory: empty") {
		t.Error("Expected empty inventory marker")
	}
	if !strings.Contains(prompt, "- Current location: nowhere") {
		t.Error("Expected raw location id for unknown location")
	}
	if strings.Contains(prompt, "combat encounter") {
		t.Error("Expected no combat instruction")
	}
	if !strings.Contains(prompt, "Describes what the player discovers or experiences") {
		t.Error("Expected discovery instruction")
	}
}

func TestStoryTail(t *testing.T) {
	long := strings.Repeat("a", 1000) + "END"
	tail := storyTail(long)
	if len(tail) != storyTailLength || !strings.HasSuffix(tail, "END") {
		t.Errorf("Expected %d-char tail ending in END, got %d chars", storyTailLength, len(tail))
	}
	if storyTail("short") != "short" {
		t.Error("Expected short stories to pass through")
	}
}

func TestExtractHealthLoss(t *testing.T) {
	tests := []struct {
		text    string
		want    int
		ok      bool
		wantErr bool
	}{
		{"You lose 10 health", 10, true, false},
		{"He LOSES 4 HEALTH", 4, true, false},
		{"takes 9 damage", 9, true, false},
		{"drained of 6 health points", 6, true, false},
		{"You lose 3 health and take 8 damage", 3, true, false},
		{"It deals 0 damage", 0, true, false},
		{"a quiet walk", 0, false, false},
		{"lost 5 coins", 0, false, false},
		{"99999999999999999999 damage", 0, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok, err := ExtractHealthLoss(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("error = %v, wantErr %v", err, tt.wantErr)
			}
			if ok != tt.ok || got != tt.want {
				t.Errorf("ExtractHealthLoss(%q) = (%d, %v), want (%d, %v)", tt.text, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestUsePotion(t *testing.T) {
	tests := []struct {
		name        string
		health      int
		potions     int
		wantHealth  int
		wantMessage string
		wantPotions int
	}{
		{
			name:        "heals thirty",
			health:      40,
			potions:     2,
			wantHealth:  70,
			wantMessage: "You drink the health potion, feeling its magical energy spread through your body. You recover 30 health points!",
			wantPotions: 1,
		},
		{
			name:        "clamps at max",
			health:      90,
			potions:     1,
			wantHealth:  100,
			wantMessage: "You drink the health potion, feeling its magical energy spread through your body. You recover 10 health points!",
			wantPotions: 0,
		},
		{
			name:        "no potion",
			health:      40,
			potions:     0,
			wantHealth:  40,
			wantMessage: "You don't have any health potions!",
			wantPotions: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &scriptedGenerator{}
			e := newTestEngine(gen)
			ps := state.NewPlayerState("Aria", state.ClassMage)
			ps.Health = tt.health
			for range tt.potions {
				ps.AddItem(state.HealthPotion)
			}

			result := e.UsePotion(&fakeRand{}, ps)

			if result.Health != tt.wantHealth {
				t.Errorf("Expected health %d, got %d", tt.wantHealth, result.Health)
			}
			if result.Message != tt.wantMessage {
				t.Errorf("Expected message %q, got %q", tt.wantMessage, result.Message)
			}
			if got := ps.CountItem(state.HealthPotion); got != tt.wantPotions {
				t.Errorf("Expected %d potions left, got %d", tt.wantPotions, got)
			}
			if len(result.Choices) < 3 {
				t.Errorf("Expected at least 3 choices, got %v", result.Choices)
			}
			if len(gen.prompts) != 0 {
				t.Errorf("Expected no generator calls, got %d", len(gen.prompts))
			}
		})
	}
}

func TestIntroduction(t *testing.T) {
	gen := &scriptedGenerator{responses: []string{"Welcome, brave Aria."}}
	e := newTestEngine(gen)
	ps := state.NewPlayerState("Aria", state.ClassWarrior)

	result, err := e.Introduction(context.Background(), &fakeRand{}, ps)
	if err != nil {
		t.Fatalf("Introduction failed: %v", err)
	}
	if result.Message != "Welcome, brave Aria." {
		t.Errorf("Unexpected message %q", result.Message)
	}
	if result.Health != 100 {
		t.Errorf("Expected health 100, got %d", result.Health)
	}
	if want := []string{"Explore the nearby village", "Head into the dark forest", "Follow the mountain path"}; !reflect.DeepEqual(result.Choices, want) {
		t.Errorf("Expected choices %v, got %v", want, result.Choices)
	}
	if gen.maxLengths[0] != introMaxLength {
		t.Errorf("Expected max length %d, got %d", introMaxLength, gen.maxLengths[0])
	}
	if !strings.Contains(gen.prompts[0], "skilled in combat, strength, endurance, but may struggle with magic, stealth, diplomacy") {
		t.Errorf("Expected class traits in prompt, got %q", gen.prompts[0])
	}
	wantContext := "Player: Aria, a Warrior who is skilled in combat, strength, endurance but weak in magic, stealth, diplomacy. Starting items: sword, shield, light armor. Welcome, brave Aria."
	if ps.StoryContext != wantContext {
		t.Errorf("Story context mismatch:\n got: %q\nwant: %q", ps.StoryContext, wantContext)
	}
}

func TestIntroductionUnknownClass(t *testing.T) {
	e := newTestEngine(&scriptedGenerator{})
	ps := state.NewPlayerState("Aria", state.CharacterClass("Bard"))
	if _, err := e.Introduction(context.Background(), &fakeRand{}, ps); err == nil {
		t.Error("Expected error for unknown class")
	}
}

func TestSeededTurnsAreReproducible(t *testing.T) {
	play := func() (TurnResult, *state.PlayerState) {
		e := newTestEngine(&scriptedGenerator{responses: []string{"A creature blocks the road."}})
		ps := state.NewPlayerState("Aria", state.ClassRogue)
		return e.ProcessAction(context.Background(), NewRand(42), ps, "Continue forward"), ps
	}
	r1, ps1 := play()
	r2, ps2 := play()
	if !reflect.DeepEqual(r1, r2) {
		t.Errorf("Expected identical results, got %+v and %+v", r1, r2)
	}
	if ps1.Health != ps2.Health || !reflect.DeepEqual(ps1.Inventory, ps2.Inventory) {
		t.Error("Expected identical player states")
	}
}
