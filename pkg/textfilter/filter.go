// Package textfilter softens generated prose to fit a content rating.
package textfilter

import (
	"regexp"
	"slices"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Rating is a content rating for generated prose.
type Rating string

const (
	RatingG    Rating = "G"
	RatingPG   Rating = "PG"
	RatingPG13 Rating = "PG-13"
	RatingR    Rating = "R"
)

// ParseRating normalizes a rating name. Unknown ratings fall back to PG-13.
func ParseRating(s string) Rating {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "G":
		return RatingG
	case "PG":
		return RatingPG
	case "R", "NC-17", "NONE":
		return RatingR
	default:
		return RatingPG13
	}
}

// mild words are only replaced for G and PG.
var mild = map[string]string{
	"damn":    "blast",
	"damned":  "cursed",
	"hell":    "heck",
	"bloody":  "blasted",
	"crap":    "dung",
	"bastard": "knave",
	"ass":     "donkey",
	"piss":    "spit",
	"pissed":  "vexed",
	"goddamn": "gods-blasted",
}

// strong words are replaced for every rating below R.
var strong = map[string]string{
	"fuck":         "curse",
	"fucking":      "cursed",
	"motherfucker": "wretch",
	"shit":         "dung",
	"bullshit":     "nonsense",
	"bitch":        "hag",
	"asshole":      "scoundrel",
	"dick":         "cur",
	"dickhead":     "cur",
	"prick":        "cur",
	"cock":         "[censored]",
	"cunt":         "[censored]",
	"whore":        "[censored]",
	"slut":         "[censored]",
}

// Filter replaces words inappropriate for a rating.
type Filter struct {
	rating       Rating
	pattern      *regexp.Regexp
	replacements map[string]string
}

// New builds the filter for a rating. R filters nothing.
func New(rating Rating) *Filter {
	replacements := map[string]string{}
	switch rating {
	case RatingG, RatingPG:
		for k, v := range mild {
			replacements[k] = v
		}
		fallthrough
	case RatingPG13:
		for k, v := range strong {
			replacements[k] = v
		}
	}

	f := &Filter{rating: rating, replacements: replacements}
	if len(replacements) == 0 {
		return f
	}

	words := make([]string, 0, len(replacements))
	for w := range replacements {
		words = append(words, regexp.QuoteMeta(w))
	}
	// Longest first so compounds win over their parts.
	slices.SortFunc(words, func(a, b string) int {
		if d := len(b) - len(a); d != 0 {
			return d
		}
		return strings.Compare(a, b)
	})
	f.pattern = regexp.MustCompile(`(?i)\b(?:` + strings.Join(words, "|") + `)\b`)
	return f
}

func (f *Filter) Rating() Rating {
	return f.rating
}

// Apply returns text with every filtered word replaced, keeping the case
// pattern of the original word.
func (f *Filter) Apply(text string) string {
	if f == nil || f.pattern == nil {
		return text
	}
	return f.pattern.ReplaceAllStringFunc(text, func(match string) string {
		replacement, ok := f.replacements[strings.ToLower(match)]
		if !ok {
			return match
		}
		return preserveCase(match, replacement)
	})
}

// Contains reports whether text has any filtered word.
func (f *Filter) Contains(text string) bool {
	if f == nil || f.pattern == nil {
		return false
	}
	return f.pattern.MatchString(text)
}

// preserveCase applies the case pattern of the original word to the replacement
func preserveCase(original, replacement string) string {
	switch {
	case original == "":
		return replacement
	case strings.ToUpper(original) == original:
		return strings.ToUpper(replacement)
	case strings.ToLower(original) == original:
		return strings.ToLower(replacement)
	}

	title := cases.Title(language.English)
	if title.String(strings.ToLower(original)) == original {
		return title.String(replacement)
	}

	// Mixed case: copy the pattern rune by rune.
	originalRunes := []rune(original)
	result := make([]rune, 0, len(replacement))
	for _, r := range replacement {
		if len(result) < len(originalRunes) && unicode.IsUpper(originalRunes[len(result)]) {
			result = append(result, unicode.ToUpper(r))
		} else {
			result = append(result, unicode.ToLower(r))
		}
	}
	return string(result)
}
