package engine

import (
	"reflect"
	"slices"
	"testing"

	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

func TestChoicePool(t *testing.T) {
	tables := content.Default()
	directions := tables.DirectionChoices
	generic := tables.GenericChoices

	tests := []struct {
		name      string
		narrative string
		health    int
		potion    bool
		wantFirst []string
	}{
		{
			name:      "combat bucket",
			narrative: "A MONSTER lunges from the shadows.",
			health:    100,
			wantFirst: []string{"Fight bravely", "Attempt to flee", "Look for a tactical advantage"},
		},
		{
			name:      "combat and item buckets in table order",
			narrative: "A treasure chest sits behind the enemy.",
			health:    100,
			wantFirst: []string{
				"Fight bravely", "Attempt to flee", "Look for a tactical advantage",
				"Take it", "Examine it carefully", "Leave it alone",
			},
		},
		{
			name:      "wounded with a potion",
			narrative: "Silence.",
			health:    69,
			potion:    true,
			wantFirst: []string{ActionRest, ActionDrinkPotion},
		},
		{
			name:      "healthy at the threshold",
			narrative: "Silence.",
			health:    70,
			wantFirst: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := state.NewPlayerState("Aria", state.ClassWarrior)
			ps.Health = tt.health
			if tt.potion {
				ps.AddItem(state.HealthPotion)
			}

			pool := choicePool(tables, ps, tt.narrative)

			want := slices.Concat(tt.wantFirst, directions, generic)
			if !reflect.DeepEqual(pool, want) {
				t.Errorf("pool = %v\nwant %v", pool, want)
			}
		})
	}
}

func TestChoicePoolDeduplicates(t *testing.T) {
	tables := content.Default()
	tables.ChoiceBuckets = append(tables.ChoiceBuckets, content.ChoiceBucket{
		Name:     "caution",
		Keywords: []string{"dark"},
		Choices:  []string{"Move cautiously", "Turn back", "Light a torch"},
	})
	ps := state.NewPlayerState("Aria", state.ClassWarrior)

	pool := choicePool(tables, ps, "It is dark.")

	seen := map[string]int{}
	for _, c := range pool {
		seen[c]++
		if seen[c] > 1 {
			t.Errorf("Duplicate choice %q in %v", c, pool)
		}
	}
	if pool[0] != "Move cautiously" || pool[2] != "Light a torch" {
		t.Errorf("Expected first-seen order preserved, got %v", pool)
	}
}

func TestDeriveChoicesCount(t *testing.T) {
	tables := content.Default()
	ps := state.NewPlayerState("Aria", state.ClassWarrior)

	for _, tt := range []struct {
		draw int
		want int
	}{{0, 3}, {1, 4}} {
		rng := &fakeRand{ints: []int{tt.draw}}
		choices := DeriveChoices(rng, tables, ps, "A fight breaks out on the road.")
		if len(choices) != tt.want {
			t.Errorf("draw %d: expected %d choices, got %v", tt.draw, tt.want, choices)
		}
		if rng.shuffles != 1 {
			t.Errorf("Expected one shuffle, got %d", rng.shuffles)
		}
		if !reflect.DeepEqual(rng.intNArgs, []int{2}) {
			t.Errorf("Expected a single IntN(2) draw, got %v", rng.intNArgs)
		}
	}
}

func TestDeriveChoicesSeeded(t *testing.T) {
	tables := content.Default()
	ps := state.NewPlayerState("Aria", state.ClassWarrior)
	for seed := uint64(0); seed < 50; seed++ {
		choices := DeriveChoices(NewRand(seed), tables, ps, "A merchant waves from the road.")
		if len(choices) < 3 || len(choices) > 4 {
			t.Fatalf("seed %d: expected 3 or 4 choices, got %v", seed, choices)
		}
		if !reflect.DeepEqual(choices, DeriveChoices(NewRand(seed), tables, ps, "A merchant waves from the road.")) {
			t.Fatalf("seed %d: expected reproducible choices", seed)
		}
	}
}

func TestInitialChoices(t *testing.T) {
	tables := content.Default()

	// Reverse order so the class-specific choice lands first.
	reverse := &reversingRand{}
	for _, tt := range []struct {
		class state.CharacterClass
		want  string
	}{
		{state.ClassWarrior, "Seek out the local garrison for work"},
		{state.ClassMage, "Look for a wizard's tower or magical library"},
		{state.ClassRogue, "Investigate rumors of a valuable treasure"},
	} {
		choices := InitialChoices(reverse, tables, tt.class)
		if len(choices) != 3 {
			t.Fatalf("Expected 3 initial choices, got %v", choices)
		}
		if choices[0] != tt.want {
			t.Errorf("%s: expected %q first, got %v", tt.class, tt.want, choices)
		}
	}
}

type reversingRand struct{ fakeRand }

func (r *reversingRand) Shuffle(n int, swap func(i, j int)) {
	for i := 0; i < n/2; i++ {
		swap(i, n-1-i)
	}
}
