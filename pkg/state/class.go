package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// CharacterClass is one of the playable classes.
type CharacterClass string

const (
	ClassWarrior CharacterClass = "Warrior"
	ClassMage    CharacterClass = "Mage"
	ClassRogue   CharacterClass = "Rogue"
)

var ErrUnknownClass = errors.New("unknown character class")

// Classes lists the playable classes in display order.
func Classes() []CharacterClass {
	return []CharacterClass{ClassWarrior, ClassMage, ClassRogue}
}

// ParseCharacterClass parses a class name, ignoring case and surrounding
// whitespace.
func ParseCharacterClass(s string) (CharacterClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "warrior":
		return ClassWarrior, nil
	case "mage":
		return ClassMage, nil
	case "rogue":
		return ClassRogue, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownClass, s)
}

func (c CharacterClass) String() string {
	return string(c)
}

// UnmarshalJSON accepts any casing of a known class.
func (c *CharacterClass) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCharacterClass(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
