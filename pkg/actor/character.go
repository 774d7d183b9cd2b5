package actor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jwebster45206/d20"

	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// Stats5e represents the six core ability scores
type Stats5e struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Constitution int `json:"constitution"`
	Intelligence int `json:"intelligence"`
	Wisdom       int `json:"wisdom"`
	Charisma     int `json:"charisma"`
}

var abilityNames = []string{"strength", "dexterity", "constitution", "intelligence", "wisdom", "charisma"}

// ToAttributes converts Stats5e to a map for d20.Actor compatibility
func (s *Stats5e) ToAttributes() map[string]int {
	return map[string]int{
		"strength":     s.Strength,
		"dexterity":    s.Dexterity,
		"constitution": s.Constitution,
		"intelligence": s.Intelligence,
		"wisdom":       s.Wisdom,
		"charisma":     s.Charisma,
	}
}

// StatsFromAttributes picks the six ability scores out of a class attribute
// map. Missing scores default to 10.
func StatsFromAttributes(attrs map[string]int) Stats5e {
	get := func(key string) int {
		if v, ok := attrs[key]; ok {
			return v
		}
		return 10
	}
	return Stats5e{
		Strength:     get("strength"),
		Dexterity:    get("dexterity"),
		Constitution: get("constitution"),
		Intelligence: get("intelligence"),
		Wisdom:       get("wisdom"),
		Charisma:     get("charisma"),
	}
}

// AbilityModifier is the usual d20 modifier for an ability score.
func AbilityModifier(score int) int {
	// Round toward negative infinity, so 9 gives -1.
	d := score - 10
	if d < 0 {
		return (d - 1) / 2
	}
	return d / 2
}

// InventoryEntry is one distinct item the player carries.
type InventoryEntry struct {
	Name    string `json:"name"`
	Count   int    `json:"count"`
	Type    string `json:"type,omitempty"`
	Effect  string `json:"effect,omitempty"`
	Damage  int    `json:"damage,omitempty"`
	Defense int    `json:"defense,omitempty"`
}

// Character is the runtime character sheet for a player. Its d20.Actor is
// rebuilt from the player state on every request; the player state stays
// the source of truth.
type Character struct {
	Name             string
	Class            state.CharacterClass
	Strengths        []string
	Weaknesses       []string
	Location         string
	LocationName     string
	VisitedLocations []string
	Inventory        []InventoryEntry
	Actor            *d20.Actor

	dead bool
}

// NewCharacter builds a character sheet from player state and class content.
func NewCharacter(ps *state.PlayerState, tables *content.Tables) (*Character, error) {
	if ps == nil {
		return nil, fmt.Errorf("player state cannot be nil")
	}
	traits, ok := tables.Class(ps.Class.String())
	if !ok {
		return nil, fmt.Errorf("no content for class %q", ps.Class)
	}

	c := &Character{
		Name:             ps.Name,
		Class:            ps.Class,
		Strengths:        traits.Strengths,
		Weaknesses:       traits.Weaknesses,
		Location:         ps.Location,
		LocationName:     tables.DescribeLocation(ps.Location),
		VisitedLocations: ps.VisitedLocations.Sorted(),
		Inventory:        inventoryEntries(ps.Inventory, tables.Items),
		dead:             ps.IsDead(),
	}

	// Armor adds to the class AC, weapons become combat modifiers.
	ac := traits.ArmorClass
	mods := map[string]int{}
	for _, entry := range c.Inventory {
		switch entry.Type {
		case "armor":
			ac += entry.Defense
		case "weapon":
			mods[entry.Name] = entry.Damage
		}
	}

	stats := StatsFromAttributes(traits.Attributes)
	attrs := stats.ToAttributes()
	for ability, score := range attrs {
		attrs[ability+"_mod"] = AbilityModifier(score)
	}

	actor, err := d20.NewActor(actorID(ps.Name)).
		WithHP(state.MaxHealth).
		WithAC(ac).
		WithAttributes(attrs).
		WithCombatModifiers(mods).
		Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build actor: %w", err)
	}

	// Set current HP if different from max
	if ps.Health != state.MaxHealth && ps.Health > 0 {
		if err := actor.SetHP(ps.Health); err != nil {
			return nil, fmt.Errorf("failed to set HP: %w", err)
		}
	}

	c.Actor = actor
	return c, nil
}

// HP is the current hit points. A dead player has none, whatever the
// actor reports.
func (c *Character) HP() int {
	if c.dead {
		return 0
	}
	return c.Actor.HP()
}

// Stats reads the ability scores back from the actor.
func (c *Character) Stats() Stats5e {
	attrs := make(map[string]int, len(abilityNames))
	for _, name := range abilityNames {
		if v, ok := c.Actor.Attribute(name); ok {
			attrs[name] = v
		}
	}
	return StatsFromAttributes(attrs)
}

// Modifier returns the modifier for an ability, zero if unknown.
func (c *Character) Modifier(ability string) int {
	v, _ := c.Actor.Attribute(strings.ToLower(ability) + "_mod")
	return v
}

// MarshalJSON renders the sheet for API responses, reading live values
// from the actor.
func (c *Character) MarshalJSON() ([]byte, error) {
	if c == nil || c.Actor == nil {
		return []byte("null"), nil
	}

	type characterResponse struct {
		Name             string           `json:"player_name"`
		Class            string           `json:"character_class"`
		HP               int              `json:"hp"`
		MaxHP            int              `json:"max_hp"`
		AC               int              `json:"ac"`
		Alive            bool             `json:"alive"`
		Stats            Stats5e          `json:"stats"`
		Modifiers        map[string]int   `json:"modifiers"`
		CombatModifiers  map[string]int   `json:"combat_modifiers,omitempty"`
		Strengths        []string         `json:"strengths"`
		Weaknesses       []string         `json:"weaknesses"`
		Location         string           `json:"location"`
		LocationName     string           `json:"location_name"`
		VisitedLocations []string         `json:"visited_locations"`
		Inventory        []InventoryEntry `json:"inventory"`
	}

	resp := characterResponse{
		Name:             c.Name,
		Class:            c.Class.String(),
		HP:               c.HP(),
		MaxHP:            c.Actor.MaxHP(),
		AC:               c.Actor.AC(),
		Alive:            !c.dead,
		Stats:            c.Stats(),
		Modifiers:        make(map[string]int, len(abilityNames)),
		Strengths:        c.Strengths,
		Weaknesses:       c.Weaknesses,
		Location:         c.Location,
		LocationName:     c.LocationName,
		VisitedLocations: c.VisitedLocations,
		Inventory:        c.Inventory,
	}
	for _, name := range abilityNames {
		resp.Modifiers[name] = c.Modifier(name)
	}
	if mods := c.Actor.GetCombatModifiers(); len(mods) > 0 {
		resp.CombatModifiers = make(map[string]int, len(mods))
		for _, mod := range mods {
			resp.CombatModifiers[mod.Reason] = mod.Value
		}
	}

	return json.Marshal(resp)
}

// inventoryEntries groups duplicate items in first-seen order and attaches
// catalog details. "Iron Sword" matches the catalog key "iron_sword".
func inventoryEntries(items []string, catalog map[string]content.Item) []InventoryEntry {
	entries := []InventoryEntry{}
	index := map[string]int{}
	for _, name := range items {
		if i, ok := index[name]; ok {
			entries[i].Count++
			continue
		}
		entry := InventoryEntry{Name: name, Count: 1}
		if item, ok := catalog[catalogKey(name)]; ok {
			entry.Type = item.Type
			entry.Effect = item.Effect
			entry.Damage = item.Damage
			entry.Defense = item.Defense
		}
		index[name] = len(entries)
		entries = append(entries, entry)
	}
	return entries
}

func catalogKey(name string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), " ", "_")
}

func actorID(name string) string {
	if id := catalogKey(name); id != "" {
		return id
	}
	return "player"
}
