package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-tracker/internal/combatlog"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/orchestrators/encounter"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-tracker/internal/repositories/records"
	"github.com/KirkDiggler/rpg-tracker/internal/testutils"
)

const ambushRoster = `
name: Goblin ambush
max_rounds: 5
combatants:
  - {name: Aria, kind: player, hp: 20, ac: 15, initiative_bonus: 2, attack_bonus: 5, damage: 1d8+3, level: 3}
  - {name: Goblin, hp: 7, ac: 13, initiative_bonus: 2, attack_bonus: 4, damage: 1d6+2, xp: 50}
`

type SimulateTestSuite struct {
	suite.Suite
	roller *testutils.SequenceRoller
	svc    encounter.Service
}

func TestSimulateSuite(t *testing.T) {
	suite.Run(t, new(SimulateTestSuite))
}

func (s *SimulateTestSuite) SetupTest() {
	s.roller = testutils.NewSequenceRoller()
	log, err := combatlog.New(&combatlog.Config{
		IDs:   idgen.NewSequential("log"),
		Clock: clock.NewFixed(testutils.TestTime),
	})
	s.Require().NoError(err)
	s.svc, err = encounter.NewOrchestrator(&encounter.Config{
		Repository:  records.NewMemory(),
		Log:         log,
		IDGenerator: idgen.NewSequential("sim"),
		Clock:       clock.NewFixed(testutils.TestTime),
		Roller:      s.roller,
	})
	s.Require().NoError(err)
}

func (s *SimulateTestSuite) TestDecodeRosterDefaults() {
	r, err := decodeRoster(strings.NewReader(ambushRoster))
	s.Require().NoError(err)
	s.Equal("Goblin ambush", r.Name)
	s.Equal(5, r.MaxRounds)
	s.Require().Len(r.Combatants, 2)
	s.Equal("monster", r.Combatants[1].Kind)
	s.Equal("1d8+3", r.Combatants[0].damage.String())
	s.Equal("1d6+2", r.Combatants[1].damage.String())

	r, err = decodeRoster(strings.NewReader(`
combatants:
  - {name: Aria, kind: player, hp: 20, ac: 15, damage: "5"}
  - {name: Goblin, hp: 7, ac: 13, damage: 1d6}
`))
	s.Require().NoError(err)
	s.Equal("Simulation", r.Name)
	s.Equal(defaultMaxRounds, r.MaxRounds)
}

func (s *SimulateTestSuite) TestDecodeRosterRejects() {
	testCases := []struct {
		name   string
		roster string
	}{
		{name: "one side only", roster: "combatants:\n  - {name: Aria, kind: player, hp: 20, damage: 1d8}\n"},
		{name: "bad kind", roster: "combatants:\n  - {name: Aria, kind: wizard, hp: 20, damage: 1d8}\n  - {name: Goblin, hp: 7, damage: 1d6}\n"},
		{name: "bad damage", roster: "combatants:\n  - {name: Aria, kind: player, hp: 20, damage: lots}\n  - {name: Goblin, hp: 7, damage: 1d6}\n"},
		{name: "unknown field", roster: "combatants:\n  - {name: Aria, kind: player, hp: 20, damage: 1d8, mana: 3}\n"},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := decodeRoster(strings.NewReader(tc.roster))
			s.True(errors.IsInvalidArgument(err), "got %v", err)
		})
	}
}

func (s *SimulateTestSuite) TestRunPlaysUntilOneSideFalls() {
	r, err := decodeRoster(strings.NewReader(ambushRoster))
	s.Require().NoError(err)

	// Initiative 15 and 10, then Aria hits with a 12 and rolls 5 damage
	s.roller.Queue(15, 10, 12, 5)

	var out bytes.Buffer
	sim := &simulator{svc: s.svc, roller: s.roller, out: &out}
	s.Require().NoError(sim.run(context.Background(), r))

	text := out.String()
	s.Contains(text, "Simulating Goblin ambush: Aria, Goblin")
	s.Contains(text, "Difficulty:")
	s.Contains(text, "Result: players win after 1 round(s)")
	s.Zero(s.roller.Remaining())

	goblin := sim.view.Combatants[1]
	s.Equal("Goblin", goblin.Name)
	s.True(goblin.IsDefeated)
}
