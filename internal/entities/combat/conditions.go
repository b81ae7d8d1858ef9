package combat

import (
	"sort"
	"strings"
)

var conditionCatalog = map[string]string{
	"blinded":       "Can't see and automatically fails any check that requires sight. Attack rolls against it have advantage, and its attack rolls have disadvantage.",
	"charmed":       "Can't attack the charmer or target it with harmful abilities. The charmer has advantage on social checks against it.",
	"deafened":      "Can't hear and automatically fails any check that requires hearing.",
	"frightened":    "Has disadvantage on ability checks and attack rolls while the source of its fear is in sight, and can't willingly move closer to that source.",
	"grappled":      "Speed becomes 0 and can't benefit from bonuses to speed. Ends if the grappler is incapacitated or the creature is moved out of reach.",
	"incapacitated": "Can't take actions or reactions.",
	"invisible":     "Impossible to see without special senses. Attack rolls against it have disadvantage, and its attack rolls have advantage.",
	"paralyzed":     "Incapacitated and can't move or speak. Automatically fails Strength and Dexterity saves. Attacks against it have advantage, and hits from within 5 feet are critical.",
	"petrified":     "Transformed into inanimate stone. Incapacitated, unaware of its surroundings, and has resistance to all damage.",
	"poisoned":      "Has disadvantage on attack rolls and ability checks.",
	"prone":         "Can only crawl. Has disadvantage on attack rolls; attacks against it have advantage within 5 feet and disadvantage otherwise.",
	"restrained":    "Speed becomes 0. Attack rolls against it have advantage, its attack rolls have disadvantage, and it has disadvantage on Dexterity saves.",
	"stunned":       "Incapacitated, can't move, and can speak only falteringly. Automatically fails Strength and Dexterity saves. Attacks against it have advantage.",
	"unconscious":   "Incapacitated, can't move or speak, and drops what it is holding and falls prone. Attacks against it have advantage, and hits from within 5 feet are critical.",
	"exhaustion":    "Suffers cumulative penalties by level, from disadvantage on ability checks at level 1 to death at level 6.",
}

// ConditionDescription returns the default rule text for a standard
// condition, or "" when name is not one.
func ConditionDescription(name string) string {
	return conditionCatalog[strings.ToLower(strings.TrimSpace(name))]
}

// IsStandardCondition reports whether name is in the condition catalog
func IsStandardCondition(name string) bool {
	_, ok := conditionCatalog[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// StandardConditions lists the catalog names in alphabetical order
func StandardConditions() []string {
	names := make([]string, 0, len(conditionCatalog))
	for name := range conditionCatalog {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
