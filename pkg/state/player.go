package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

const (
	MaxHealth        = 100
	StartingLocation = "starting_point"
	HealthPotion     = "health_potion"
)

// PlayerState is everything the game knows about one player's run.
type PlayerState struct {
	Name             string         `json:"player_name"`
	Class            CharacterClass `json:"character_class"`
	Health           int            `json:"health"`
	Inventory        []string       `json:"inventory"`
	Location         string         `json:"location"`
	History          []string       `json:"history"`
	VisitedLocations LocationSet    `json:"visited_locations"`
	QuestProgress    map[string]int `json:"quest_progress"`
	StoryContext     string         `json:"story_context"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`

	// Extra holds fields written by other versions of the game. They are
	// kept so a round trip does not drop them.
	Extra map[string]json.RawMessage `json:"-"`
}

// ErrInvalidState is returned by Validate for a state no game could have
// produced.
var ErrInvalidState = errors.New("invalid player state")

// NewPlayerState creates a fresh player at full health at the starting point.
func NewPlayerState(name string, class CharacterClass) *PlayerState {
	now := time.Now()
	return &PlayerState{
		Name:             name,
		Class:            class,
		Health:           MaxHealth,
		Inventory:        []string{},
		Location:         StartingLocation,
		History:          []string{},
		VisitedLocations: LocationSet{},
		QuestProgress:    map[string]int{},
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// Validate requires a name, a playable class and health in [0, MaxHealth].
func (ps *PlayerState) Validate() error {
	if strings.TrimSpace(ps.Name) == "" {
		return fmt.Errorf("%w: missing player name", ErrInvalidState)
	}
	if !slices.Contains(Classes(), ps.Class) {
		return fmt.Errorf("%w: %w %q", ErrInvalidState, ErrUnknownClass, ps.Class)
	}
	if ps.Health < 0 || ps.Health > MaxHealth {
		return fmt.Errorf("%w: health %d outside [0, %d]", ErrInvalidState, ps.Health, MaxHealth)
	}
	return nil
}

// IsDead reports whether the player has no health left.
func (ps *PlayerState) IsDead() bool {
	return ps.Health <= 0
}

// ApplyDamage lowers health, never below zero, and returns the new value.
func (ps *PlayerState) ApplyDamage(amount int) int {
	if amount < 0 {
		amount = 0
	}
	ps.Health = max(0, ps.Health-amount)
	return ps.Health
}

// Heal raises health, never above MaxHealth, and returns the amount
// actually recovered.
func (ps *PlayerState) Heal(amount int) int {
	if amount < 0 {
		amount = 0
	}
	before := ps.Health
	ps.Health = min(MaxHealth, ps.Health+amount)
	return ps.Health - before
}

func (ps *PlayerState) AddItem(item string) {
	ps.Inventory = append(ps.Inventory, item)
}

func (ps *PlayerState) HasItem(item string) bool {
	return slices.Contains(ps.Inventory, item)
}

// RemoveItem removes exactly one instance of item. It returns false when the
// item is not held.
func (ps *PlayerState) RemoveItem(item string) bool {
	i := slices.Index(ps.Inventory, item)
	if i < 0 {
		return false
	}
	ps.Inventory = slices.Delete(ps.Inventory, i, i+1)
	return true
}

func (ps *PlayerState) CountItem(item string) int {
	n := 0
	for _, it := range ps.Inventory {
		if it == item {
			n++
		}
	}
	return n
}

// AppendHistory records a chosen action.
func (ps *PlayerState) AppendHistory(action string) {
	ps.History = append(ps.History, action)
}

// RecentHistory returns up to the last n actions, oldest first.
func (ps *PlayerState) RecentHistory(n int) []string {
	if n <= 0 || len(ps.History) == 0 {
		return nil
	}
	start := max(0, len(ps.History)-n)
	return slices.Clone(ps.History[start:])
}

// MoveTo sets the current location and marks it visited.
func (ps *PlayerState) MoveTo(location string) {
	ps.Location = location
	if ps.VisitedLocations == nil {
		ps.VisitedLocations = LocationSet{}
	}
	ps.VisitedLocations.Add(location)
}

// Clone returns a deep copy.
func (ps *PlayerState) Clone() *PlayerState {
	c := *ps
	c.Inventory = slices.Clone(ps.Inventory)
	c.History = slices.Clone(ps.History)
	c.VisitedLocations = ps.VisitedLocations.Clone()
	if ps.QuestProgress != nil {
		c.QuestProgress = make(map[string]int, len(ps.QuestProgress))
		for k, v := range ps.QuestProgress {
			c.QuestProgress[k] = v
		}
	}
	if ps.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(ps.Extra))
		for k, v := range ps.Extra {
			c.Extra[k] = slices.Clone(v)
		}
	}
	return &c
}

type playerStateAlias PlayerState

// MarshalJSON writes the known fields plus any preserved unknown fields.
func (ps PlayerState) MarshalJSON() ([]byte, error) {
	alias := playerStateAlias(ps)
	if alias.Inventory == nil {
		alias.Inventory = []string{}
	}
	if alias.History == nil {
		alias.History = []string{}
	}
	if alias.QuestProgress == nil {
		alias.QuestProgress = map[string]int{}
	}
	data, err := json.Marshal(alias)
	if err != nil {
		return nil, err
	}
	if len(ps.Extra) == 0 {
		return data, nil
	}

	fields := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for k, v := range ps.Extra {
		if _, known := fields[k]; !known {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON reads the known fields and keeps the rest in Extra.
func (ps *PlayerState) UnmarshalJSON(data []byte) error {
	var alias playerStateAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	for _, k := range knownFields {
		delete(fields, k)
	}
	alias.Extra = nil
	if len(fields) > 0 {
		alias.Extra = fields
	}

	if alias.Inventory == nil {
		alias.Inventory = []string{}
	}
	if alias.History == nil {
		alias.History = []string{}
	}
	if alias.VisitedLocations == nil {
		alias.VisitedLocations = LocationSet{}
	}
	if alias.QuestProgress == nil {
		alias.QuestProgress = map[string]int{}
	}
	*ps = PlayerState(alias)
	return nil
}

var knownFields = []string{
	"player_name",
	"character_class",
	"health",
	"inventory",
	"location",
	"history",
	"visited_locations",
	"quest_progress",
	"story_context",
	"created_at",
	"updated_at",
}
