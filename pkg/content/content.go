// Package content holds the static tables the narrative engine reads:
// character classes, locations, encounters, items, routes, choice buckets and
// the prose used by the rule-based generator.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jwebster45206/adventure-engine/pkg/state"
)

//go:embed default.yaml
var defaultYAML []byte

// ClassTraits describes a playable character class.
type ClassTraits struct {
	Strengths     []string       `yaml:"strengths" json:"strengths"`
	Weaknesses    []string       `yaml:"weaknesses" json:"weaknesses"`
	StartingItems []string       `yaml:"starting_items" json:"starting_items"`
	ArmorClass    int            `yaml:"armor_class" json:"armor_class"`
	Attributes    map[string]int `yaml:"attributes" json:"attributes"`
}

// Item is an entry in the item catalog.
type Item struct {
	Type    string `yaml:"type" json:"type"`
	Effect  string `yaml:"effect,omitempty" json:"effect,omitempty"`
	Damage  int    `yaml:"damage,omitempty" json:"damage,omitempty"`
	Defense int    `yaml:"defense,omitempty" json:"defense,omitempty"`
	Value   int    `yaml:"value" json:"value"`
}

// Route moves the player to Location when an action mentions any keyword.
type Route struct {
	Location string   `yaml:"location"`
	Keywords []string `yaml:"keywords"`
}

// ChoiceBucket contributes Choices when any keyword appears in the narrative.
type ChoiceBucket struct {
	Name     string   `yaml:"name"`
	Keywords []string `yaml:"keywords"`
	Choices  []string `yaml:"choices"`
}

// InitialChoices are offered right after the introduction.
type InitialChoices struct {
	Common        []string          `yaml:"common"`
	ClassSpecific map[string]string `yaml:"class_specific"`
}

// Scene is a set of lines the rule-based generator uses when a prompt
// mentions Keyword.
type Scene struct {
	Keyword string   `yaml:"keyword"`
	Lines   []string `yaml:"lines"`
}

// Fallback is the prose used when no model is available.
type Fallback struct {
	Introductions []string `yaml:"introductions"`
	Scenes        []Scene  `yaml:"scenes"`
	Encounters    []string `yaml:"encounters"`
	CombatResults []string `yaml:"combat_results"`
	Discoveries   []string `yaml:"discoveries"`
	Default       string   `yaml:"default"`
}

// Tables is the full content set.
type Tables struct {
	Classes          map[string]ClassTraits `yaml:"classes"`
	Locations        map[string]string      `yaml:"locations"`
	Encounters       map[string][]string    `yaml:"encounters"`
	Items            map[string]Item        `yaml:"items"`
	Routes           []Route                `yaml:"routes"`
	InitialChoices   InitialChoices         `yaml:"initial_choices"`
	ChoiceBuckets    []ChoiceBucket         `yaml:"choice_buckets"`
	DirectionChoices []string               `yaml:"direction_choices"`
	GenericChoices   []string               `yaml:"generic_choices"`
	Fallback         Fallback               `yaml:"fallback"`
}

// Default returns the built-in tables. Each call returns a fresh copy.
func Default() *Tables {
	t, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("content: built-in tables are invalid: %v", err))
	}
	return t
}

// LoadFile reads tables from a YAML file.
func LoadFile(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("content file %s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates YAML tables.
func Parse(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse content: %w", err)
	}
	t.normalize()
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// normalize lower-cases keywords; actions and narratives are matched in
// lower case.
func (t *Tables) normalize() {
	for i := range t.Routes {
		lowerAll(t.Routes[i].Keywords)
	}
	for i := range t.ChoiceBuckets {
		lowerAll(t.ChoiceBuckets[i].Keywords)
	}
	for i := range t.Fallback.Scenes {
		t.Fallback.Scenes[i].Keyword = strings.ToLower(strings.TrimSpace(t.Fallback.Scenes[i].Keyword))
	}
}

func lowerAll(words []string) {
	for i, w := range words {
		words[i] = strings.ToLower(strings.TrimSpace(w))
	}
}

// Validate checks the tables for the entries the engine depends on. Every
// playable class needs traits.
func (t *Tables) Validate() error {
	var errs []error
	for _, c := range state.Classes() {
		if _, ok := t.Classes[string(c)]; !ok {
			errs = append(errs, fmt.Errorf("class %q not defined", c))
		}
	}
	if len(t.GenericChoices) < 4 {
		errs = append(errs, fmt.Errorf("need at least 4 generic choices, got %d", len(t.GenericChoices)))
	}
	if len(t.InitialChoices.Common) == 0 {
		errs = append(errs, errors.New("no common initial choices defined"))
	}
	for _, r := range t.Routes {
		if _, ok := t.Locations[r.Location]; !ok {
			errs = append(errs, fmt.Errorf("route targets unknown location %q", r.Location))
		}
	}
	for i, b := range t.ChoiceBuckets {
		if len(b.Keywords) == 0 || len(b.Choices) == 0 {
			errs = append(errs, fmt.Errorf("choice bucket %d (%s) needs keywords and choices", i, b.Name))
		}
	}
	for i, r := range t.Routes {
		if slices.Contains(r.Keywords, "") {
			errs = append(errs, fmt.Errorf("route %d (%s) has an empty keyword", i, r.Location))
		}
	}
	return errors.Join(errs...)
}

// Class looks up class traits by canonical class name.
func (t *Tables) Class(name string) (ClassTraits, bool) {
	c, ok := t.Classes[name]
	return c, ok
}

// DescribeLocation returns the description for a location id, or the id
// itself when the location is unknown.
func (t *Tables) DescribeLocation(id string) string {
	if d, ok := t.Locations[id]; ok {
		return d
	}
	return id
}

// EncountersFor returns the encounter types possible at a location.
func (t *Tables) EncountersFor(id string) []string {
	return t.Encounters[id]
}

// RouteFor returns the destination named by an action, if any.
func (t *Tables) RouteFor(action string) (string, bool) {
	lower := strings.ToLower(action)
	for _, r := range t.Routes {
		for _, kw := range r.Keywords {
			if strings.Contains(lower, kw) {
				return r.Location, true
			}
		}
	}
	return "", false
}
