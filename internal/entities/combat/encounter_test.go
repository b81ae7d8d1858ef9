package combat_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-tracker/internal/engine/tables"
	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/testutils"
)

type EncounterTestSuite struct {
	suite.Suite
	roller *testutils.SequenceRoller
	enc    *combat.Encounter
}

func TestEncounterSuite(t *testing.T) {
	suite.Run(t, new(EncounterTestSuite))
}

func (s *EncounterTestSuite) SetupTest() {
	s.roller = testutils.NewSequenceRoller()
	enc, err := combat.NewEncounter(testutils.NewEncounterConfig(s.roller), testutils.TestEncounterID, "", testutils.TestSessionID)
	s.Require().NoError(err)
	s.enc = enc
}

func (s *EncounterTestSuite) start() {
	s.Require().NoError(s.enc.Start(testutils.TestEncounterName))
}

func (s *EncounterTestSuite) add(cfg *combat.CombatantConfig) *combat.Combatant {
	c, err := s.enc.AddCombatant(cfg)
	s.Require().NoError(err)
	return c
}

func (s *EncounterTestSuite) addNamed(names ...string) []*combat.Combatant {
	out := make([]*combat.Combatant, 0, len(names))
	for _, name := range names {
		out = append(out, s.add(testutils.NewCombatantBuilder(name).Build()))
	}
	return out
}

func (s *EncounterTestSuite) names() []string {
	var out []string
	for _, c := range s.enc.Combatants() {
		out = append(out, c.Name)
	}
	return out
}

func countKind(logs []combat.LogRecord, kind combat.LogKind) int {
	n := 0
	for _, rec := range logs {
		if rec.Kind == kind {
			n++
		}
	}
	return n
}

func (s *EncounterTestSuite) TestGoblinAmbush() {
	s.start()
	aria := s.add(testutils.AriaConfig())
	goblin := s.add(testutils.GoblinConfig())

	s.roller.Queue(12, 15)
	ariaInit, err := s.enc.RollInitiative(aria.ID)
	s.Require().NoError(err)
	s.Equal(14, ariaInit.Total)
	goblinInit, err := s.enc.RollInitiative(goblin.ID)
	s.Require().NoError(err)
	s.Equal(17, goblinInit.Total)

	s.Equal([]string{"Aria", "Goblin"}, s.names(), "rolling does not reorder")
	s.Require().NoError(s.enc.SortByInitiative())
	s.Equal([]string{"Goblin", "Aria"}, s.names())

	for i := 0; i < 3; i++ {
		_, err := s.enc.NextTurn()
		s.Require().NoError(err)
	}

	s.Equal(2, s.enc.Round())
	logs := s.enc.TakeChanges().Logs
	s.Equal(1, countKind(logs, combat.LogRoundStart))
	s.Equal(1, countKind(logs, combat.LogCombatStart))
	s.Equal(2, countKind(logs, combat.LogInitiativeRoll))
	s.Equal(3, countKind(logs, combat.LogTurnStart))
	s.Equal(combat.LogCombatStart, logs[0].Kind)
}

func (s *EncounterTestSuite) TestNextTurnFullCycle() {
	s.start()
	s.addNamed("A", "B", "C", "D")

	_, err := s.enc.NextTurn()
	s.Require().NoError(err)
	startIndex, startRound := s.enc.TurnIndex(), s.enc.Round()

	for i := 0; i < 4; i++ {
		_, err := s.enc.NextTurn()
		s.Require().NoError(err)
	}
	s.Equal(startIndex, s.enc.TurnIndex())
	s.Equal(startRound+1, s.enc.Round())
}

func (s *EncounterTestSuite) TestSortIsStableAndIdempotent() {
	s.start()
	list := s.addNamed("A", "B", "C", "D")
	scores := []int{12, 15, 12, 15}
	for i, c := range list {
		_, err := s.enc.SetInitiative(c.ID, scores[i])
		s.Require().NoError(err)
	}

	s.Require().NoError(s.enc.SortByInitiative())
	s.Equal([]string{"B", "D", "A", "C"}, s.names())

	s.Require().NoError(s.enc.SortByInitiative())
	s.Equal([]string{"B", "D", "A", "C"}, s.names())

	rec := s.enc.Record()
	s.Equal([]string{list[1].ID, list[3].ID, list[0].ID, list[2].ID}, rec.CombatantIDs)
}

func (s *EncounterTestSuite) TestAddDoesNotMoveTurnPointer() {
	s.start()
	s.addNamed("A", "B")
	_, err := s.enc.NextTurn()
	s.Require().NoError(err)
	s.Equal("B", s.enc.Current().Name)

	s.addNamed("C")
	s.Equal(1, s.enc.TurnIndex())
	s.Equal("B", s.enc.Current().Name)
}

func (s *EncounterTestSuite) TestRemoveCombatant() {
	s.Run("removing the current combatant hands the turn to the next by position", func() {
		s.SetupTest()
		s.start()
		list := s.addNamed("A", "B", "C")
		_, err := s.enc.NextTurn()
		s.Require().NoError(err)

		_, err = s.enc.RemoveCombatant(list[1].ID)
		s.Require().NoError(err)
		s.Equal(1, s.enc.TurnIndex())
		s.Equal("C", s.enc.Current().Name)
	})

	s.Run("removing the last current combatant wraps into a new round", func() {
		s.SetupTest()
		s.start()
		list := s.addNamed("A", "B")
		_, err := s.enc.ApplyEffect(list[0].ID, &combat.StatusEffectConfig{Name: "Dazed", Duration: combat.Rounds{N: 1}})
		s.Require().NoError(err)
		_, err = s.enc.NextTurn()
		s.Require().NoError(err)
		s.enc.TakeChanges()

		_, err = s.enc.RemoveCombatant(list[1].ID)
		s.Require().NoError(err)
		s.Equal(0, s.enc.TurnIndex())
		s.Equal("A", s.enc.Current().Name)
		s.Equal(2, s.enc.Round())
		s.Empty(s.enc.AllEffects(), "round-start hooks ran")

		snap := s.enc.TakeChanges()
		s.Require().NotNil(snap.Encounter)
		s.Equal(2, snap.Encounter.CurrentRound)
		s.Equal(1, countKind(snap.Logs, combat.LogRoundStart))
		s.Equal(1, countKind(snap.Logs, combat.LogTurnStart))
	})

	s.Run("removing a waiting last combatant does not start a round", func() {
		s.SetupTest()
		s.start()
		list := s.addNamed("A", "B")
		s.enc.TakeChanges()

		_, err := s.enc.RemoveCombatant(list[1].ID)
		s.Require().NoError(err)
		s.Equal("A", s.enc.Current().Name)
		s.Equal(1, s.enc.Round())
		s.Zero(countKind(s.enc.TakeChanges().Logs, combat.LogRoundStart))
	})

	s.Run("removing an earlier combatant keeps the same actor", func() {
		s.SetupTest()
		s.start()
		list := s.addNamed("A", "B", "C")
		_, err := s.enc.NextTurn()
		s.Require().NoError(err)
		_, err = s.enc.NextTurn()
		s.Require().NoError(err)

		_, err = s.enc.RemoveCombatant(list[0].ID)
		s.Require().NoError(err)
		s.Equal("C", s.enc.Current().Name)
	})

	s.Run("unknown id", func() {
		s.SetupTest()
		_, err := s.enc.RemoveCombatant("nope")
		s.True(errors.IsNotFound(err))
	})

	s.Run("removal drops effects and pool", func() {
		s.SetupTest()
		s.start()
		list := s.addNamed("A")
		_, err := s.enc.ApplyEffect(list[0].ID, &combat.StatusEffectConfig{Name: "Prone", Duration: combat.UntilDispelled{}})
		s.Require().NoError(err)
		_, err = s.enc.InitializeSpellPool(list[0].ID, tables.NewSlots(), "Wizard", 1)
		s.Require().NoError(err)
		s.enc.TakeChanges()

		_, err = s.enc.RemoveCombatant(list[0].ID)
		s.Require().NoError(err)
		s.Empty(s.enc.AllEffects())
		s.Empty(s.enc.Pools())

		snap := s.enc.TakeChanges()
		s.Equal([]string{list[0].ID}, snap.RemovedCombatants)
		s.Len(snap.RemovedEffects, 1)
		s.Len(snap.RemovedPools, 1)
	})
}

func (s *EncounterTestSuite) TestTransitions() {
	s.Run("turns need an active encounter with combatants", func() {
		s.SetupTest()
		_, err := s.enc.NextTurn()
		s.True(errors.IsInvalidTransition(err), "not started")

		s.start()
		_, err = s.enc.NextTurn()
		s.True(errors.IsInvalidTransition(err), "empty list")
		_, err = s.enc.PreviousTurn()
		s.True(errors.IsInvalidTransition(err), "empty list")
	})

	s.Run("start twice", func() {
		s.SetupTest()
		s.start()
		s.True(errors.IsInvalidTransition(s.enc.Start("again")))
	})

	s.Run("ended rejects everything without changing state", func() {
		s.SetupTest()
		s.start()
		list := s.addNamed("A", "B")
		s.Require().NoError(s.enc.End())
		s.enc.TakeChanges()
		before := s.enc.Record()

		s.True(errors.IsInvalidTransition(s.enc.End()))
		s.True(errors.IsInvalidTransition(s.enc.Start("x")))
		s.True(errors.IsInvalidTransition(s.enc.SortByInitiative()))
		_, err := s.enc.AddCombatant(testutils.GoblinConfig())
		s.True(errors.IsInvalidTransition(err))
		_, err = s.enc.RemoveCombatant(list[0].ID)
		s.True(errors.IsInvalidTransition(err))
		_, err = s.enc.NextTurn()
		s.True(errors.IsInvalidTransition(err))
		_, err = s.enc.ApplyDamage(list[0].ID, 3, "")
		s.True(errors.IsInvalidTransition(err))
		_, err = s.enc.RollInitiative(list[0].ID)
		s.True(errors.IsInvalidTransition(err))

		s.Equal(before, s.enc.Record())
		s.True(s.enc.TakeChanges().Empty())
		s.Equal(combat.StateEnded, s.enc.State())
	})

	s.Run("start clears combatants added before it", func() {
		s.SetupTest()
		s.addNamed("Early")
		s.start()
		s.Empty(s.enc.Combatants())
		s.Equal(1, s.enc.Round())
		s.Equal(0, s.enc.TurnIndex())
	})
}

func (s *EncounterTestSuite) TestPreviousTurn() {
	s.start()
	s.addNamed("A", "B")

	result, err := s.enc.PreviousTurn()
	s.Require().NoError(err)
	s.Equal(1, result.Round, "never below round 1")
	s.Equal("B", result.Current.Name)

	_, err = s.enc.NextTurn()
	s.Require().NoError(err)
	s.Equal(2, s.enc.Round())
	s.Equal("A", s.enc.Current().Name)

	result, err = s.enc.PreviousTurn()
	s.Require().NoError(err)
	s.Equal(1, result.Round)
	s.Equal("B", result.Current.Name)
}

func (s *EncounterTestSuite) TestEffectExpiryThroughTurns() {
	s.start()
	list := s.addNamed("Aria", "Goblin")
	aria, goblin := list[0], list[1]

	blessed, err := s.enc.ApplyEffect(aria.ID, &combat.StatusEffectConfig{Name: "Blessed", Duration: combat.Rounds{N: 1}})
	s.Require().NoError(err)
	dodge, err := s.enc.ApplyEffect(aria.ID, &combat.StatusEffectConfig{Name: "Dodging", Duration: combat.UntilStartOfTurnOf{Creature: "aria"}})
	s.Require().NoError(err)
	prone, err := s.enc.ApplyEffect(goblin.ID, &combat.StatusEffectConfig{Name: "Prone", Duration: combat.UntilEndOfTurnOf{Creature: "Goblin"}})
	s.Require().NoError(err)
	s.True(goblin.HasCondition("prone"))
	s.enc.TakeChanges()

	// Aria -> Goblin: nothing tied to Aria's turn end or Goblin's turn start
	result, err := s.enc.NextTurn()
	s.Require().NoError(err)
	s.Empty(result.Expired)

	// Goblin -> Aria: Goblin's turn ends, round 2 starts, Aria's turn starts
	result, err = s.enc.NextTurn()
	s.Require().NoError(err)
	s.True(result.RoundStarted)
	s.Require().Len(result.Expired, 3)
	s.Equal(prone.ID, result.Expired[0].ID)
	s.Equal(blessed.ID, result.Expired[1].ID)
	s.Equal(dodge.ID, result.Expired[2].ID)
	s.Empty(s.enc.AllEffects())
	s.False(goblin.HasCondition("prone"), "the condition goes with its effect")

	snap := s.enc.TakeChanges()
	s.Equal(3, countKind(snap.Logs, combat.LogConditionRemoved))
	s.ElementsMatch([]string{blessed.ID, dodge.ID, prone.ID}, snap.RemovedEffects)
}

func (s *EncounterTestSuite) TestApplyEffect() {
	s.start()
	list := s.addNamed("Aria", "Goblin")

	s.Run("instantaneous effects are logged but not kept", func() {
		eff, err := s.enc.ApplyEffect(list[1].ID, &combat.StatusEffectConfig{Name: "Shove", Duration: combat.Instantaneous{}})
		s.Require().NoError(err)
		s.NotEmpty(eff.ID)
		s.Empty(s.enc.Effects(list[1].ID))
	})

	s.Run("bad duration", func() {
		_, err := s.enc.ApplyEffect(list[1].ID, &combat.StatusEffectConfig{Name: "Hex", Duration: combat.UntilEndOfTurnOf{}})
		s.True(errors.IsInvalidArgument(err))
	})

	s.Run("unknown target", func() {
		_, err := s.enc.ApplyEffect("nope", &combat.StatusEffectConfig{Name: "Hex", Duration: combat.Permanent{}})
		s.True(errors.IsNotFound(err))
	})

	s.Run("dispel", func() {
		eff, err := s.enc.ApplyEffect(list[1].ID, &combat.StatusEffectConfig{Name: "Restrained", Duration: combat.Minutes{N: 1}})
		s.Require().NoError(err)
		s.True(list[1].HasCondition("restrained"))

		removed, err := s.enc.DispelEffect(eff.ID)
		s.Require().NoError(err)
		s.Equal(eff.ID, removed.ID)
		s.False(list[1].HasCondition("restrained"))

		_, err = s.enc.DispelEffect(eff.ID)
		s.True(errors.IsNotFound(err))
	})

	s.Run("save ends", func() {
		eff, err := s.enc.ApplyEffect(list[0].ID, &combat.StatusEffectConfig{
			Name:     "Frightened",
			Duration: combat.SaveEnds{DC: 13, Ability: combat.AbilityWisdom},
		})
		s.Require().NoError(err)
		s.enc.TakeChanges()

		result, err := s.enc.ResolveSave(eff.ID, 10)
		s.Require().NoError(err)
		s.False(result.Succeeded)
		s.Len(s.enc.Effects(list[0].ID), 1)

		result, err = s.enc.ResolveSave(eff.ID, 15)
		s.Require().NoError(err)
		s.True(result.Ended)
		s.Empty(s.enc.Effects(list[0].ID))

		logs := s.enc.TakeChanges().Logs
		s.Equal(2, countKind(logs, combat.LogSavingThrow))
		s.Equal("Aria succeeds on a DC 13 WIS saving throw with 15 - Frightened", combat.FormatLogEntry(logs[1]))
	})
}

func (s *EncounterTestSuite) TestConcentrationLinksEffects() {
	s.start()
	list := s.addNamed("Cleric", "Aria", "Goblin")
	cleric, aria, goblin := list[0], list[1], list[2]

	bless := &combat.StatusEffectConfig{
		Name:                  "Blessed",
		SourceSpell:           "Bless",
		CasterID:              cleric.ID,
		Duration:              combat.Minutes{N: 1},
		RequiresConcentration: true,
		IsBeneficial:          true,
	}
	_, err := s.enc.ApplyEffect(aria.ID, bless)
	s.Require().NoError(err)
	_, err = s.enc.ApplyEffect(goblin.ID, &combat.StatusEffectConfig{Name: "Marked", Duration: combat.Permanent{}})
	s.Require().NoError(err)
	s.True(cleric.IsConcentrating)
	s.Equal("Bless", cleric.ConcentrationSpell)

	outcome, err := s.enc.ApplyDamage(cleric.ID, 10, "Goblin")
	s.Require().NoError(err)
	s.Equal("Bless", outcome.ConcentrationLost)
	s.Len(outcome.Ended, 1)
	s.Empty(s.enc.Effects(aria.ID))
	s.Len(s.enc.Effects(goblin.ID), 1)
	s.True(outcome.Defeated)
}

func (s *EncounterTestSuite) TestRemovingCasterEndsConcentration() {
	s.start()
	list := s.addNamed("Cleric", "Aria")
	cleric, aria := list[0], list[1]

	_, err := s.enc.ApplyEffect(aria.ID, &combat.StatusEffectConfig{
		Name:                  "Blessed",
		SourceSpell:           "Bless",
		CasterID:              cleric.ID,
		Duration:              combat.Minutes{N: 1},
		RequiresConcentration: true,
		IsBeneficial:          true,
	})
	s.Require().NoError(err)
	_, err = s.enc.ApplyEffect(aria.ID, &combat.StatusEffectConfig{Name: "Marked", Duration: combat.Permanent{}})
	s.Require().NoError(err)
	s.enc.TakeChanges()

	_, err = s.enc.RemoveCombatant(cleric.ID)
	s.Require().NoError(err)

	remaining := s.enc.Effects(aria.ID)
	s.Require().Len(remaining, 1)
	s.Equal("Marked", remaining[0].Name)

	snap := s.enc.TakeChanges()
	s.Len(snap.RemovedEffects, 1)
	s.Equal([]string{cleric.ID}, snap.RemovedCombatants)
	var broken []combat.LogRecord
	for _, rec := range snap.Logs {
		if rec.Kind == combat.LogConcentration && rec.Payload.Broken {
			broken = append(broken, rec)
		}
	}
	s.Require().Len(broken, 1)
	s.Equal("Bless", broken[0].Payload.Spell)
}

func (s *EncounterTestSuite) TestStartConcentrationBrokenLog() {
	setup := func() *combat.Combatant {
		s.SetupTest()
		s.start()
		list := s.addNamed("Cleric", "Aria")
		_, err := s.enc.ApplyEffect(list[1].ID, &combat.StatusEffectConfig{
			Name:                  "Blessed",
			SourceSpell:           "Bless",
			CasterID:              list[0].ID,
			Duration:              combat.Minutes{N: 1},
			RequiresConcentration: true,
		})
		s.Require().NoError(err)
		s.enc.TakeChanges()
		return list[0]
	}
	brokenLogs := func(logs []combat.LogRecord) []string {
		var spells []string
		for _, rec := range logs {
			if rec.Kind == combat.LogConcentration && rec.Payload.Broken {
				spells = append(spells, rec.Payload.Spell)
			}
		}
		return spells
	}

	s.Run("replacing without a broken log", func() {
		cleric := setup()
		previous, err := s.enc.StartConcentration(cleric.ID, "Hold Person", false)
		s.Require().NoError(err)
		s.Equal("Bless", previous)
		s.Empty(s.enc.AllEffects())

		snap := s.enc.TakeChanges()
		s.Empty(brokenLogs(snap.Logs))
		s.Equal(1, countKind(snap.Logs, combat.LogConcentration))
	})

	s.Run("replacing with a broken log", func() {
		cleric := setup()
		previous, err := s.enc.StartConcentration(cleric.ID, "Hold Person", true)
		s.Require().NoError(err)
		s.Equal("Bless", previous)
		s.Empty(s.enc.AllEffects())

		snap := s.enc.TakeChanges()
		s.Equal([]string{"Bless"}, brokenLogs(snap.Logs))
		s.Equal(2, countKind(snap.Logs, combat.LogConcentration))
	})

	s.Run("restarting the same spell logs nothing broken", func() {
		cleric := setup()
		_, err := s.enc.StartConcentration(cleric.ID, "bless", true)
		s.Require().NoError(err)
		s.Len(s.enc.AllEffects(), 1)
		s.Empty(brokenLogs(s.enc.TakeChanges().Logs))
	})
}

func (s *EncounterTestSuite) TestDamageLogging() {
	s.start()
	aria := s.add(testutils.AriaConfig())
	goblin := s.add(testutils.GoblinConfig())
	s.enc.TakeChanges()

	_, err := s.enc.ApplyDamage(goblin.ID, 9, "Aria")
	s.Require().NoError(err)
	logs := s.enc.TakeChanges().Logs
	s.Require().Len(logs, 2)
	s.Equal(combat.LogDamage, logs[0].Kind)
	s.Equal(combat.LogKill, logs[1].Kind)

	_, err = s.enc.ApplyDamage(aria.ID, 20, "Goblin")
	s.Require().NoError(err)
	s.True(aria.IsDying())

	s.roller.Queue(4, 2, 1)
	for i := 0; i < 3; i++ {
		_, roll, err := s.enc.RollDeathSave(aria.ID)
		s.Require().NoError(err)
		s.Less(roll, combat.DeathSaveThreshold)
	}
	s.True(aria.IsDead())

	logs = s.enc.TakeChanges().Logs
	s.Equal(3, countKind(logs, combat.LogDeathSave))
	s.Equal(1, countKind(logs, combat.LogDeath))

	_, _, err = s.enc.RollDeathSave(aria.ID)
	s.True(errors.IsInvalidTransition(err))
	s.Zero(s.roller.Remaining())
}

func (s *EncounterTestSuite) TestRollDeathSaveSuccess() {
	s.start()
	aria := s.add(testutils.AriaConfig())
	_, err := s.enc.ApplyDamage(aria.ID, 25, "")
	s.Require().NoError(err)

	s.roller.Queue(10, 20, 15)
	var result *combat.DeathSaveResult
	for i := 0; i < 3; i++ {
		result, _, err = s.enc.RollDeathSave(aria.ID)
		s.Require().NoError(err)
	}
	s.True(result.Stabilized)
	s.True(aria.IsStable())
}

func (s *EncounterTestSuite) TestCastSpell() {
	s.start()
	list := s.addNamed("Wizard", "Warlock", "Goblin")
	wizard, warlock, goblin := list[0], list[1], list[2]
	slots := tables.NewSlots()

	_, err := s.enc.InitializeSpellPool(wizard.ID, slots, "Wizard", 3)
	s.Require().NoError(err)
	_, err = s.enc.InitializeSpellPool(warlock.ID, slots, "Warlock", 5)
	s.Require().NoError(err)

	s.Run("standard slot", func() {
		result, err := s.enc.CastSpell(&combat.CastSpellInput{
			CasterID: wizard.ID,
			TargetID: goblin.ID,
			Spell:    combat.SpellInfo{Name: "Magic Missile", Level: 1},
		})
		s.Require().NoError(err)
		s.Equal(1, result.SlotLevel)
		pool, _ := s.enc.Pool(wizard.ID)
		s.Equal(3, pool.Available(1))
	})

	s.Run("upcast below spell level", func() {
		_, err := s.enc.CastSpell(&combat.CastSpellInput{
			CasterID:  wizard.ID,
			Spell:     combat.SpellInfo{Name: "Hold Person", Level: 2},
			SlotLevel: 1,
		})
		s.True(errors.IsInvalidArgument(err))
	})

	s.Run("pact slot", func() {
		result, err := s.enc.CastSpell(&combat.CastSpellInput{
			CasterID: warlock.ID,
			Spell:    combat.SpellInfo{Name: "Hex", Level: 1, Concentration: true},
		})
		s.Require().NoError(err)
		s.True(result.UsedPactSlot)
		s.Equal(3, result.SlotLevel)
		s.True(warlock.IsConcentrating)
	})

	s.Run("out of slots", func() {
		_, err := s.enc.UsePactSlot(warlock.ID)
		s.Require().NoError(err)
		_, err = s.enc.CastSpell(&combat.CastSpellInput{
			CasterID: warlock.ID,
			Spell:    combat.SpellInfo{Name: "Hex", Level: 1},
		})
		s.True(errors.IsFailedPrecondition(err))
		s.False(errors.IsInvalidTransition(err))
	})

	s.Run("cantrip costs nothing", func() {
		result, err := s.enc.CastSpell(&combat.CastSpellInput{
			CasterID: goblin.ID,
			Spell:    combat.SpellInfo{Name: "Fire Bolt"},
		})
		s.Require().NoError(err)
		s.Zero(result.SlotLevel)
	})

	s.Run("slot level out of range at the boundary", func() {
		_, err := s.enc.UseSlot(wizard.ID, 10)
		s.True(errors.IsInvalidArgument(err))
		_, err = s.enc.UseSlot(goblin.ID, 1)
		s.True(errors.IsNotFound(err))
	})

	s.Run("rests", func() {
		s.Require().NoError(s.enc.ShortRest(warlock.ID))
		pool, _ := s.enc.Pool(warlock.ID)
		s.Equal(2, pool.Pact.Current)

		s.Require().NoError(s.enc.LongRest(wizard.ID))
		pool, _ = s.enc.Pool(wizard.ID)
		s.Equal(pool.SlotMaxima(), pool.SlotsRemaining())
	})
}

func (s *EncounterTestSuite) TestRecordAttack() {
	s.start()
	aria := s.add(testutils.AriaConfig())
	goblin := s.add(testutils.GoblinConfig())

	result, err := s.enc.RecordAttack(aria.ID, goblin.ID, 11, 13)
	s.Require().NoError(err)
	s.True(result.Hit, "meeting AC hits")

	result, err = s.enc.RecordAttack(aria.ID, goblin.ID, 1, 30)
	s.Require().NoError(err)
	s.False(result.Hit)

	result, err = s.enc.RecordAttack(goblin.ID, aria.ID, 20, 21)
	s.Require().NoError(err)
	s.True(result.Critical)

	_, err = s.enc.RecordAttack(aria.ID, goblin.ID, 21, 21)
	s.True(errors.IsInvalidArgument(err))
}

func (s *EncounterTestSuite) TestChangeTracking() {
	s.start()
	list := s.addNamed("A", "B")
	snap := s.enc.TakeChanges()
	s.Require().NotNil(snap.Encounter)
	s.Len(snap.Combatants, 2)
	s.True(s.enc.TakeChanges().Empty())

	_, err := s.enc.ApplyDamage(list[0].ID, 3, "")
	s.Require().NoError(err)
	snap = s.enc.TakeChanges()
	s.Nil(snap.Encounter)
	s.Require().Len(snap.Combatants, 1)
	s.Equal(7, snap.Combatants[0].CurrentHP)

	// snapshots are copies
	_, err = s.enc.ApplyDamage(list[0].ID, 3, "")
	s.Require().NoError(err)
	s.Equal(7, snap.Combatants[0].CurrentHP)
}

func (s *EncounterTestSuite) TestLoadEncounter() {
	s.start()
	list := s.addNamed("A", "B")
	_, err := s.enc.ApplyEffect(list[1].ID, &combat.StatusEffectConfig{Name: "Prone", Duration: combat.Rounds{N: 2}})
	s.Require().NoError(err)
	_, err = s.enc.NextTurn()
	s.Require().NoError(err)

	var combatants []combat.Combatant
	for _, c := range s.enc.Combatants() {
		combatants = append(combatants, c.Clone())
	}
	var effects []combat.StatusEffect
	for _, eff := range s.enc.AllEffects() {
		effects = append(effects, eff.Clone())
	}
	orphan := effects[0]
	orphan.CombatantID = "gone"
	effects = append(effects, orphan)

	loaded, err := combat.LoadEncounter(testutils.NewEncounterConfig(s.roller), s.enc.Record(), combatants, effects, nil)
	s.Require().NoError(err)
	s.Equal(s.enc.TurnIndex(), loaded.TurnIndex())
	s.Equal("B", loaded.Current().Name)
	s.Len(loaded.AllEffects(), 1)
	s.True(loaded.TakeChanges().Empty())
}

func (s *EncounterTestSuite) TestAddNote() {
	s.start()
	s.Require().NoError(s.enc.End())
	s.Require().NoError(s.enc.AddNote("DM", "Goblin had 9 HP, not 7"))
	s.True(errors.IsInvalidArgument(s.enc.AddNote("DM", " ")))

	logs := s.enc.TakeChanges().Logs
	s.Equal(combat.LogCustom, logs[len(logs)-1].Kind)
}
