package testutils

import (
	"time"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/idgen"
)

// Fixture names
const (
	TestEncounterID   = "enc_1"
	TestEncounterName = "Goblin Ambush"
	TestSessionID     = "session_1"
)

// TestTime is the frozen clock start used by fixtures
var TestTime = time.Date(2025, 7, 1, 19, 0, 0, 0, time.UTC)

// NewEncounterConfig returns collaborators for an aggregate under test
func NewEncounterConfig(roller *SequenceRoller) *combat.Config {
	return &combat.Config{
		IDs:    idgen.NewSequential("test"),
		Clock:  clock.NewFixed(TestTime),
		Roller: roller,
	}
}

// AriaConfig is the player from the Goblin Ambush scenario
func AriaConfig() *combat.CombatantConfig {
	return NewCombatantBuilder("Aria").
		AsPlayer().
		WithHP(20).
		WithAC(15).
		WithInitiativeBonus(2).
		Build()
}

// GoblinConfig is the monster from the Goblin Ambush scenario
func GoblinConfig() *combat.CombatantConfig {
	return NewCombatantBuilder("Goblin").
		WithHP(7).
		WithAC(13).
		WithInitiativeBonus(2).
		WithReferenceID("goblin").
		Build()
}
