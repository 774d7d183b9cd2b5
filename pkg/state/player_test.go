package state

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
)

func TestParseCharacterClass(t *testing.T) {
	tests := []struct {
		in      string
		want    CharacterClass
		wantErr bool
	}{
		{"Warrior", ClassWarrior, false},
		{"mage", ClassMage, false},
		{"  ROGUE ", ClassRogue, false},
		{"Bard", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCharacterClass(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownClass) {
					t.Errorf("Expected ErrUnknownClass, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseCharacterClass(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNewPlayerState(t *testing.T) {
	ps := NewPlayerState("Aria", ClassMage)
	if ps.Health != MaxHealth {
		t.Errorf("Expected health %d, got %d", MaxHealth, ps.Health)
	}
	if ps.Location != StartingLocation {
		t.Errorf("Expected location %q, got %q", StartingLocation, ps.Location)
	}
	if len(ps.Inventory) != 0 || len(ps.History) != 0 || len(ps.VisitedLocations) != 0 {
		t.Errorf("Expected empty collections, got %+v", ps)
	}
}

func TestHealthBounds(t *testing.T) {
	ps := NewPlayerState("Aria", ClassWarrior)

	if got := ps.ApplyDamage(30); got != 70 {
		t.Errorf("Expected 70 after 30 damage, got %d", got)
	}
	if got := ps.Heal(50); got != 30 {
		t.Errorf("Expected to recover 30, got %d", got)
	}
	if ps.Health != MaxHealth {
		t.Errorf("Expected health clamped at %d, got %d", MaxHealth, ps.Health)
	}
	if got := ps.ApplyDamage(250); got != 0 {
		t.Errorf("Expected health clamped at 0, got %d", got)
	}
	if !ps.IsDead() {
		t.Error("Expected player to be dead")
	}
	ps.ApplyDamage(-5)
	if ps.Health != 0 {
		t.Errorf("Expected negative damage to be ignored, got %d", ps.Health)
	}
}

func TestInventory(t *testing.T) {
	ps := NewPlayerState("Aria", ClassRogue)
	ps.AddItem(HealthPotion)
	ps.AddItem("dagger")
	ps.AddItem(HealthPotion)

	if got := ps.CountItem(HealthPotion); got != 2 {
		t.Errorf("Expected 2 potions, got %d", got)
	}
	if !ps.RemoveItem(HealthPotion) {
		t.Fatal("Expected RemoveItem to succeed")
	}
	if got := ps.CountItem(HealthPotion); got != 1 {
		t.Errorf("Expected exactly one potion removed, %d left", got)
	}
	if want := []string{"dagger", HealthPotion}; !reflect.DeepEqual(ps.Inventory, want) {
		t.Errorf("Expected inventory %v, got %v", want, ps.Inventory)
	}
	if ps.RemoveItem("shield") {
		t.Error("Expected RemoveItem to fail for missing item")
	}
}

func TestRecentHistory(t *testing.T) {
	ps := NewPlayerState("Aria", ClassRogue)
	if got := ps.RecentHistory(3); len(got) != 0 {
		t.Errorf("Expected no history, got %v", got)
	}
	for _, a := range []string{"a", "b", "c", "d"} {
		ps.AppendHistory(a)
	}
	if got, want := ps.RecentHistory(3), []string{"b", "c", "d"}; !reflect.DeepEqual(got, want) {
		t.Errorf("RecentHistory(3) = %v, want %v", got, want)
	}
}

func TestMoveTo(t *testing.T) {
	ps := &PlayerState{}
	ps.MoveTo("village")
	ps.MoveTo("dark_forest")
	ps.MoveTo("village")
	if ps.Location != "village" {
		t.Errorf("Expected location village, got %q", ps.Location)
	}
	if got, want := ps.VisitedLocations.Sorted(), []string{"dark_forest", "village"}; !reflect.DeepEqual(got, want) {
		t.Errorf("Visited = %v, want %v", got, want)
	}
}

func TestPlayerStateJSONRoundTrip(t *testing.T) {
	ps := NewPlayerState("Aria", ClassWarrior)
	ps.Health = 42
	ps.AddItem(HealthPotion)
	ps.AppendHistory("Head into the dark forest")
	ps.MoveTo("dark_forest")
	ps.MoveTo("village")
	ps.QuestProgress["find_gem"] = 2
	ps.StoryContext = "Player: Aria"

	data, err := json.Marshal(ps)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), `"visited_locations":["dark_forest","village"]`) {
		t.Errorf("Expected sorted visited_locations, got %s", data)
	}

	var got PlayerState
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if got.Name != ps.Name || got.Class != ps.Class || got.Health != ps.Health ||
		got.Location != ps.Location || got.StoryContext != ps.StoryContext {
		t.Errorf("Round trip mismatch: got %+v, want %+v", got, ps)
	}
	if !reflect.DeepEqual(got.Inventory, ps.Inventory) || !reflect.DeepEqual(got.History, ps.History) {
		t.Errorf("Collections mismatch: got %+v", got)
	}
	if !reflect.DeepEqual(got.VisitedLocations, ps.VisitedLocations) {
		t.Errorf("Visited mismatch: got %v, want %v", got.VisitedLocations, ps.VisitedLocations)
	}
	if got.QuestProgress["find_gem"] != 2 {
		t.Errorf("Expected quest progress 2, got %v", got.QuestProgress)
	}
	if !got.CreatedAt.Equal(ps.CreatedAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, ps.CreatedAt)
	}
	if got.Extra != nil {
		t.Errorf("Expected no extra fields, got %v", got.Extra)
	}
}

func TestPlayerStateJSONKeepsUnknownFields(t *testing.T) {
	in := `{
		"player_name": "Bram",
		"character_class": "rogue",
		"health": 55,
		"inventory": ["dagger"],
		"location": "village",
		"history": [],
		"visited_locations": ["village"],
		"quest_progress": {},
		"story_context": "",
		"reputation": {"village": 3},
		"gold": 12
	}`

	var ps PlayerState
	if err := json.Unmarshal([]byte(in), &ps); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if ps.Class != ClassRogue {
		t.Errorf("Expected class Rogue, got %q", ps.Class)
	}
	if len(ps.Extra) != 2 {
		t.Fatalf("Expected 2 extra fields, got %v", ps.Extra)
	}

	out, err := json.Marshal(&ps)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(out, &fields); err != nil {
		t.Fatalf("Failed to decode output: %v", err)
	}
	if string(fields["gold"]) != "12" {
		t.Errorf("Expected gold to survive, got %s", fields["gold"])
	}
	if string(fields["reputation"]) != `{"village":3}` {
		t.Errorf("Expected reputation to survive, got %s", fields["reputation"])
	}
	if string(fields["health"]) != "55" {
		t.Errorf("Expected health 55, got %s", fields["health"])
	}
}

func TestPlayerStateJSONMissingCollections(t *testing.T) {
	var ps PlayerState
	if err := json.Unmarshal([]byte(`{"player_name":"Cy","character_class":"Mage","health":100}`), &ps); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if ps.Inventory == nil || ps.History == nil || ps.VisitedLocations == nil || ps.QuestProgress == nil {
		t.Errorf("Expected collections to be initialized, got %+v", ps)
	}
}

func TestPlayerStateJSONRejectsUnknownClass(t *testing.T) {
	var ps PlayerState
	err := json.Unmarshal([]byte(`{"player_name":"Cy","character_class":"Bard"}`), &ps)
	if !errors.Is(err, ErrUnknownClass) {
		t.Errorf("Expected ErrUnknownClass, got %v", err)
	}
}

func TestClone(t *testing.T) {
	ps := NewPlayerState("Aria", ClassWarrior)
	ps.AddItem("sword")
	ps.MoveTo("village")
	c := ps.Clone()
	c.AddItem("shield")
	c.MoveTo("dark_forest")
	if len(ps.Inventory) != 1 || ps.VisitedLocations.Has("dark_forest") {
		t.Errorf("Expected clone to be independent, original now %+v", ps)
	}
}

func TestPlayerStateValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(ps *PlayerState)
		wantErr bool
	}{
		{"fresh player", func(ps *PlayerState) {}, false},
		{"dead player", func(ps *PlayerState) { ps.Health = 0 }, false},
		{"full health", func(ps *PlayerState) { ps.Health = MaxHealth }, false},
		{"empty name", func(ps *PlayerState) { ps.Name = "" }, true},
		{"blank name", func(ps *PlayerState) { ps.Name = "   " }, true},
		{"no class", func(ps *PlayerState) { ps.Class = "" }, true},
		{"unknown class", func(ps *PlayerState) { ps.Class = "Bard" }, true},
		{"health above max", func(ps *PlayerState) { ps.Health = MaxHealth + 1 }, true},
		{"negative health", func(ps *PlayerState) { ps.Health = -40 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ps := NewPlayerState("Aria", ClassMage)
			tt.mutate(ps)
			err := ps.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidState) {
					t.Errorf("Expected ErrInvalidState, got %v", err)
				}
				return
			}
			if err != nil {
				t.Errorf("Unexpected error: %v", err)
			}
		})
	}
}

func TestPlayerStateValidateEmptyDocument(t *testing.T) {
	var ps PlayerState
	if err := json.Unmarshal([]byte(`{}`), &ps); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if err := ps.Validate(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Expected ErrInvalidState for an empty document, got %v", err)
	}
}
