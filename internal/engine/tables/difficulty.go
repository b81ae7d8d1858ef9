package tables

import (
	"strings"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// Difficulty is an encounter difficulty rating
type Difficulty string

// Difficulties, easiest first. Trivial sits below the easy threshold.
const (
	DifficultyTrivial Difficulty = "trivial"
	DifficultyEasy    Difficulty = "easy"
	DifficultyMedium  Difficulty = "medium"
	DifficultyHard    Difficulty = "hard"
	DifficultyDeadly  Difficulty = "deadly"
)

// ParseDifficulty accepts the four threshold ratings
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyDeadly:
		return d, nil
	default:
		return "", errors.InvalidArgumentf("unknown difficulty %q", s)
	}
}

// Thresholds is the XP budget of one character or a whole party
type Thresholds struct {
	Easy   int
	Medium int
	Hard   int
	Deadly int
}

// For returns the threshold of a rating
func (t Thresholds) For(d Difficulty) int {
	switch d {
	case DifficultyEasy:
		return t.Easy
	case DifficultyMedium:
		return t.Medium
	case DifficultyHard:
		return t.Hard
	case DifficultyDeadly:
		return t.Deadly
	case DifficultyTrivial:
		return 0
	default:
		return 0
	}
}

// xpThresholds is indexed by character level - 1
var xpThresholds = [levels]Thresholds{
	{25, 50, 75, 100},
	{50, 100, 150, 200},
	{75, 150, 225, 400},
	{125, 250, 375, 500},
	{250, 500, 750, 1100},
	{300, 600, 900, 1400},
	{350, 750, 1100, 1700},
	{450, 900, 1400, 2100},
	{550, 1100, 1600, 2400},
	{600, 1200, 1900, 2800},
	{800, 1600, 2400, 3600},
	{1000, 2000, 3000, 4500},
	{1100, 2200, 3400, 5100},
	{1250, 2500, 3800, 5700},
	{1400, 2800, 4300, 6400},
	{1600, 3200, 4800, 7200},
	{2000, 3900, 5900, 8800},
	{2100, 4200, 6300, 9500},
	{2400, 4900, 7300, 10900},
	{2800, 5700, 8500, 12700},
}

// CharacterThresholds returns the XP thresholds of one character
func CharacterThresholds(level int) (Thresholds, error) {
	if !inRange(level) {
		return Thresholds{}, errors.InvalidArgumentf("character level must be between 1 and %d, got %d", levels, level)
	}
	return xpThresholds[level-1], nil
}

// PartyThresholds sums the thresholds of every character level in the party
func PartyThresholds(characterLevels []int) (Thresholds, error) {
	if len(characterLevels) == 0 {
		return Thresholds{}, errors.InvalidArgument("party must have at least one character")
	}

	var total Thresholds
	for _, level := range characterLevels {
		t, err := CharacterThresholds(level)
		if err != nil {
			return Thresholds{}, err
		}
		total.Easy += t.Easy
		total.Medium += t.Medium
		total.Hard += t.Hard
		total.Deadly += t.Deadly
	}
	return total, nil
}

// UniformPartyThresholds is PartyThresholds for size characters of one level
func UniformPartyThresholds(level, size int) (Thresholds, error) {
	if size < 1 {
		return Thresholds{}, errors.InvalidArgumentf("party size must be at least 1, got %d", size)
	}
	characterLevels := make([]int, size)
	for i := range characterLevels {
		characterLevels[i] = level
	}
	return PartyThresholds(characterLevels)
}

var multipliers = []float64{0.5, 1, 1.5, 2, 2.5, 3, 4, 5}

// multiplierIndex is the position in multipliers for a monster count,
// before the party size shift.
func multiplierIndex(monsters int) int {
	switch {
	case monsters <= 1:
		return 1
	case monsters == 2:
		return 2
	case monsters <= 6:
		return 3
	case monsters <= 10:
		return 4
	case monsters <= 14:
		return 5
	default:
		return 6
	}
}

// XPMultiplier scales total monster XP by how many monsters there are.
// Parties under three use the next higher multiplier and parties of six or
// more the next lower one.
func XPMultiplier(monsters, partySize int) float64 {
	idx := multiplierIndex(monsters)
	switch {
	case partySize < 3:
		idx++
	case partySize >= 6:
		idx--
	}
	return multipliers[idx]
}

// Rating is the result of rating an encounter against a party
type Rating struct {
	Party      Thresholds
	BaseXP     int
	Multiplier float64
	AdjustedXP int
	Difficulty Difficulty
}

// RateEncounter rates monster XP values against a party's levels
func RateEncounter(characterLevels []int, monsterXP []int) (*Rating, error) {
	party, err := PartyThresholds(characterLevels)
	if err != nil {
		return nil, err
	}

	base := 0
	for i, xp := range monsterXP {
		if xp < 0 {
			return nil, errors.InvalidArgumentf("monster %d XP must not be negative, got %d", i, xp)
		}
		base += xp
	}

	mult := XPMultiplier(len(monsterXP), len(characterLevels))
	adjusted := int(float64(base) * mult)

	rating := &Rating{
		Party:      party,
		BaseXP:     base,
		Multiplier: mult,
		AdjustedXP: adjusted,
		Difficulty: DifficultyTrivial,
	}
	for _, d := range []Difficulty{DifficultyEasy, DifficultyMedium, DifficultyHard, DifficultyDeadly} {
		if adjusted >= party.For(d) {
			rating.Difficulty = d
		}
	}
	return rating, nil
}
