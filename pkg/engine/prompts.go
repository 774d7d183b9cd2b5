package engine

import (
	"fmt"
	"strings"

	"github.com/jwebster45206/adventure-engine/pkg/content"
	"github.com/jwebster45206/adventure-engine/pkg/state"
)

// storyTailLength is how much of the accumulated story goes into a turn prompt.
const storyTailLength = 600

// StoryHeader introduces the story-so-far block, which is always the last
// section of a turn prompt before the response cue.
const StoryHeader = "The story so far (most recent part):"

const introTemplate = `Create an engaging introduction for a text-based adventure game. The player's name is %s and they are a %s.

As a %s, they are skilled in %s, but may struggle with %s.
They begin their journey with the following items: %s.

The introduction should welcome the player to the world, provide some background on their character,
and hint at an upcoming adventure or threat they will face.
Keep it concise but immersive.`

// BuildIntroPrompt asks the generator for a personalized opening.
func BuildIntroPrompt(traits content.ClassTraits, name string, class state.CharacterClass) string {
	return fmt.Sprintf(introTemplate,
		name, class, class,
		strings.Join(traits.Strengths, ", "),
		strings.Join(traits.Weaknesses, ", "),
		strings.Join(traits.StartingItems, ", "),
	)
}

// seedStoryContext is the story context a new game starts from.
func seedStoryContext(traits content.ClassTraits, name string, class state.CharacterClass, intro string) string {
	return fmt.Sprintf("Player: %s, a %s who is skilled in %s but weak in %s. Starting items: %s. %s",
		name, class,
		strings.Join(traits.Strengths, ", "),
		strings.Join(traits.Weaknesses, ", "),
		strings.Join(traits.StartingItems, ", "),
		intro,
	)
}

// BuildTurnPrompt describes the player's situation and chosen action. It
// reads state only.
func BuildTurnPrompt(tables *content.Tables, ps *state.PlayerState, action string, combat bool) string {
	var b strings.Builder

	inventory := "empty"
	if len(ps.Inventory) > 0 {
		inventory = strings.Join(ps.Inventory, ", ")
	}

	b.WriteString("In a fantasy text adventure game:\n")
	fmt.Fprintf(&b, "- Player: %s, a %s with %d health points\n", ps.Name, ps.Class, ps.Health)
	fmt.Fprintf(&b, "- Current location: %s\n", tables.DescribeLocation(ps.Location))
	fmt.Fprintf(&b, "- Inventory: %s\n", inventory)
	fmt.Fprintf(&b, "- Recent history: %s\n", strings.Join(ps.RecentHistory(3), ", "))
	if encounters := tables.EncountersFor(ps.Location); len(encounters) > 0 {
		fmt.Fprintf(&b, "- Local dangers and sights: %s\n", strings.Join(encounters, ", "))
	}

	fmt.Fprintf(&b, "\nThe player has chosen to: %s\n\n", action)
	if combat {
		b.WriteString("This leads to a combat encounter.\n\n")
	}

	b.WriteString("Generate a short, engaging continuation of the story (3-4 sentences) that:\n")
	b.WriteString("1. Describes what happens when the player chooses this action\n")
	b.WriteString("2. Includes sensory details and atmosphere\n")
	if combat {
		b.WriteString("3. Describes a combat situation and how much health the player loses (between 5-20 points)\n")
	} else {
		b.WriteString("3. Describes what the player discovers or experiences\n")
	}
	b.WriteString("4. Ends with a situation that leads to new choices\n\n")
	if tail := storyTail(ps.StoryContext); tail != "" {
		b.WriteString(StoryHeader)
		b.WriteString("\n")
		b.WriteString(tail)
		b.WriteString("\n\n")
	}
	b.WriteString("Response:")

	return b.String()
}

func storyTail(story string) string {
	if len(story) <= storyTailLength {
		return story
	}
	tail := story[len(story)-storyTailLength:]
	// Do not start in the middle of a multi-byte rune.
	for i := 0; i < len(tail) && i < 4; i++ {
		if tail[i]&0xC0 != 0x80 {
			return tail[i:]
		}
	}
	return tail
}
