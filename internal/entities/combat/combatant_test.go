package combat_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/testutils"
)

type CombatantTestSuite struct {
	suite.Suite
}

func TestCombatantSuite(t *testing.T) {
	suite.Run(t, new(CombatantTestSuite))
}

func (s *CombatantTestSuite) newPlayer(hp int) *combat.Combatant {
	c, err := combat.NewCombatant(testutils.NewCombatantBuilder("Aria").AsPlayer().WithHP(hp).Build())
	s.Require().NoError(err)
	return c
}

func (s *CombatantTestSuite) newMonster(hp int) *combat.Combatant {
	c, err := combat.NewCombatant(testutils.NewCombatantBuilder("Goblin").WithHP(hp).Build())
	s.Require().NoError(err)
	return c
}

func (s *CombatantTestSuite) dyingPlayer() *combat.Combatant {
	c := s.newPlayer(20)
	_, err := c.ApplyDamage(20)
	s.Require().NoError(err)
	s.Require().True(c.IsDying())
	return c
}

func (s *CombatantTestSuite) TestNewCombatantValidation() {
	_, err := combat.NewCombatant(&combat.CombatantConfig{Kind: "dragon", Name: "", MaxHP: 0})
	s.Require().Error(err)
	s.True(errors.IsInvalidArgument(err))

	_, err = combat.NewCombatant(nil)
	s.True(errors.IsInvalidArgument(err))

	_, err = combat.NewCombatant(testutils.NewCombatantBuilder("Orc").WithHP(10).WithCurrentHP(11).Build())
	s.True(errors.IsInvalidArgument(err))

	c, err := combat.NewCombatant(testutils.NewCombatantBuilder("Orc").WithHP(10).WithCurrentHP(0).Build())
	s.Require().NoError(err)
	s.True(c.IsDefeated, "a monster created at 0 HP is already defeated")
}

func (s *CombatantTestSuite) TestApplyDamage() {
	s.Run("temp HP absorbs first", func() {
		c := s.newMonster(10)
		_, err := c.AddTempHP(5)
		s.Require().NoError(err)

		result, err := c.ApplyDamage(7)
		s.Require().NoError(err)
		s.Equal(5, result.AbsorbedByTemp)
		s.Equal(0, c.TempHP)
		s.Equal(8, c.CurrentHP)
	})

	s.Run("floors at zero and defeats monsters", func() {
		c := s.newMonster(7)
		result, err := c.ApplyDamage(30)
		s.Require().NoError(err)
		s.Equal(0, c.CurrentHP)
		s.True(result.DroppedToZero)
		s.True(result.Defeated)
		s.True(c.IsDefeated)
	})

	s.Run("players at zero are dying, not defeated", func() {
		c := s.dyingPlayer()
		s.False(c.IsDefeated)
		s.Equal(0, c.DeathSaveFailures)
	})

	s.Run("damage at zero HP is a death save failure", func() {
		c := s.dyingPlayer()
		result, err := c.ApplyDamage(3)
		s.Require().NoError(err)
		s.Require().NotNil(result.DeathSave)
		s.Equal(1, c.DeathSaveFailures)
		s.Equal(0, c.CurrentHP)
	})

	s.Run("massive damage at zero HP counts twice", func() {
		c := s.dyingPlayer()
		_, err := c.ApplyDamage(20)
		s.Require().NoError(err)
		s.Equal(2, c.DeathSaveFailures)
	})

	s.Run("negative damage is rejected", func() {
		c := s.newMonster(10)
		_, err := c.ApplyDamage(-1)
		s.True(errors.IsInvalidArgument(err))
		s.Equal(10, c.CurrentHP)
	})

	s.Run("dead combatants reject damage", func() {
		c := s.dyingPlayer()
		for i := 0; i < 3; i++ {
			_, err := c.AddDeathSaveFailure()
			s.Require().NoError(err)
		}
		_, err := c.ApplyDamage(1)
		s.True(errors.IsInvalidTransition(err))
	})

	s.Run("concentration DC is half damage, minimum 10", func() {
		c := s.newPlayer(60)
		_, err := c.StartConcentration("Bless")
		s.Require().NoError(err)

		result, err := c.ApplyDamage(8)
		s.Require().NoError(err)
		s.Equal(10, result.ConcentrationDC)

		result, err = c.ApplyDamage(30)
		s.Require().NoError(err)
		s.Equal(15, result.ConcentrationDC)
	})

	s.Run("dropping to zero ends concentration", func() {
		c := s.newPlayer(10)
		_, err := c.StartConcentration("Bless")
		s.Require().NoError(err)

		result, err := c.ApplyDamage(10)
		s.Require().NoError(err)
		s.Equal("Bless", result.ConcentrationLost)
		s.False(c.IsConcentrating)
		s.Zero(result.ConcentrationDC)
	})
}

func (s *CombatantTestSuite) TestHPStaysInBounds() {
	c := s.newPlayer(20)
	amounts := []int{0, 5, 30, 1, 12, 7, 100, 2}
	for i, amount := range amounts {
		var err error
		if i%2 == 0 {
			_, err = c.ApplyDamage(amount)
		} else {
			_, err = c.ApplyHealing(amount)
		}
		if errors.IsInvalidTransition(err) {
			break
		}
		s.Require().NoError(err)
		s.GreaterOrEqual(c.CurrentHP, 0)
		s.LessOrEqual(c.CurrentHP, c.MaxHP)
	}
}

func (s *CombatantTestSuite) TestApplyHealing() {
	s.Run("caps at max and never grants temp HP", func() {
		c := s.newMonster(10)
		_, err := c.ApplyDamage(4)
		s.Require().NoError(err)

		result, err := c.ApplyHealing(10)
		s.Require().NoError(err)
		s.Equal(10, c.CurrentHP)
		s.Equal(4, result.Healed)
		s.Equal(0, c.TempHP)
	})

	s.Run("healing a dying player resets death saves", func() {
		c := s.dyingPlayer()
		_, err := c.AddDeathSaveFailure()
		s.Require().NoError(err)
		_, err = c.AddDeathSaveSuccess()
		s.Require().NoError(err)

		result, err := c.ApplyHealing(1)
		s.Require().NoError(err)
		s.True(result.Revived)
		s.Equal(0, c.DeathSaveFailures)
		s.Equal(0, c.DeathSaveSuccesses)
		s.False(c.IsDying())
	})

	s.Run("negative healing is rejected", func() {
		c := s.newMonster(10)
		_, err := c.ApplyHealing(-3)
		s.True(errors.IsInvalidArgument(err))
	})
}

func (s *CombatantTestSuite) TestTempHPDoesNotStack() {
	c := s.newMonster(10)

	changed, err := c.AddTempHP(8)
	s.Require().NoError(err)
	s.True(changed)

	changed, err = c.AddTempHP(5)
	s.Require().NoError(err)
	s.False(changed)
	s.Equal(8, c.TempHP)

	changed, err = c.AddTempHP(8)
	s.Require().NoError(err)
	s.False(changed)
	s.Equal(8, c.TempHP)

	c.RemoveTempHP()
	s.Equal(0, c.TempHP)

	_, err = c.AddTempHP(-1)
	s.True(errors.IsInvalidArgument(err))
}

func (s *CombatantTestSuite) TestDeathSaves() {
	s.Run("three failures kill", func() {
		c := s.dyingPlayer()
		var result *combat.DeathSaveResult
		for i := 0; i < 3; i++ {
			var err error
			result, err = c.AddDeathSaveFailure()
			s.Require().NoError(err)
		}
		s.True(result.Died)
		s.True(c.IsDead())
		s.True(c.IsDefeated)

		_, err := c.AddDeathSaveFailure()
		s.True(errors.IsInvalidTransition(err))
		_, err = c.ApplyHealing(5)
		s.True(errors.IsInvalidTransition(err))
	})

	s.Run("three successes stabilize", func() {
		c := s.dyingPlayer()
		var result *combat.DeathSaveResult
		for i := 0; i < 3; i++ {
			var err error
			result, err = c.AddDeathSaveSuccess()
			s.Require().NoError(err)
		}
		s.True(result.Stabilized)
		s.True(c.IsStable())
		s.Equal(0, c.CurrentHP)

		_, err := c.AddDeathSaveSuccess()
		s.True(errors.IsInvalidTransition(err))

		_, err = c.ApplyHealing(3)
		s.Require().NoError(err)
		s.Equal(0, c.DeathSaveSuccesses)
		s.Equal(0, c.DeathSaveFailures)
	})

	s.Run("damage restarts a stable player dying", func() {
		c := s.dyingPlayer()
		for i := 0; i < 3; i++ {
			_, err := c.AddDeathSaveSuccess()
			s.Require().NoError(err)
		}
		_, err := c.ApplyDamage(1)
		s.Require().NoError(err)
		s.True(c.IsDying())
		s.Equal(0, c.DeathSaveSuccesses)
		s.Equal(1, c.DeathSaveFailures)
	})

	s.Run("rejected above zero HP and for monsters", func() {
		_, err := s.newPlayer(10).AddDeathSaveSuccess()
		s.True(errors.IsInvalidTransition(err))

		m := s.newMonster(5)
		_, err = m.ApplyDamage(5)
		s.Require().NoError(err)
		_, err = m.AddDeathSaveFailure()
		s.True(errors.IsInvalidTransition(err))
	})
}

func (s *CombatantTestSuite) TestConcentration() {
	c := s.newPlayer(10)

	previous, err := c.StartConcentration("Bless")
	s.Require().NoError(err)
	s.Empty(previous)

	previous, err = c.StartConcentration("Hold Person")
	s.Require().NoError(err)
	s.Equal("Bless", previous)
	s.Equal("Hold Person", c.ConcentrationSpell)

	s.Equal("Hold Person", c.EndConcentration())
	s.False(c.IsConcentrating)
	s.Empty(c.EndConcentration())

	_, err = c.StartConcentration("  ")
	s.True(errors.IsInvalidArgument(err))
}

func (s *CombatantTestSuite) TestConditions() {
	c := s.newMonster(10)

	added, err := c.AddCondition("Prone")
	s.Require().NoError(err)
	s.True(added)

	added, err = c.AddCondition("prone")
	s.Require().NoError(err)
	s.False(added)
	s.Equal([]string{"Prone"}, c.Conditions)

	s.True(c.HasCondition("PRONE"))
	s.True(c.RemoveCondition("pRoNe"))
	s.False(c.RemoveCondition("prone"))
	s.Empty(c.Conditions)

	_, err = c.AddCondition("")
	s.True(errors.IsInvalidArgument(err))
}
