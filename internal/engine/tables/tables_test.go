package tables_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-tracker/internal/engine/tables"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

type SlotsTestSuite struct {
	suite.Suite
	slots *tables.Slots
}

func TestSlotsSuite(t *testing.T) {
	suite.Run(t, new(SlotsTestSuite))
}

func (s *SlotsTestSuite) SetupTest() {
	s.slots = tables.NewSlots()
}

func (s *SlotsTestSuite) TestFullCaster() {
	s.Equal([9]int{2}, s.slots.FullCasterSlots(1))
	s.Equal([9]int{4, 3, 2}, s.slots.FullCasterSlots(5))
	s.Equal([9]int{4, 3, 3, 3, 3, 2, 2, 1, 1}, s.slots.FullCasterSlots(20))
	s.Equal([9]int{}, s.slots.FullCasterSlots(0))
	s.Equal([9]int{}, s.slots.FullCasterSlots(21))
}

func (s *SlotsTestSuite) TestHalfCasterStartsAtLevelTwo() {
	s.Equal([9]int{}, s.slots.HalfCasterSlots(1))
	s.Equal([9]int{2}, s.slots.HalfCasterSlots(2))
	s.Equal([9]int{4, 2}, s.slots.HalfCasterSlots(5))
	s.Equal([9]int{4, 3, 3, 3, 2}, s.slots.HalfCasterSlots(20))
}

func (s *SlotsTestSuite) TestPact() {
	testCases := []struct {
		level     int
		slots     int
		slotLevel int
	}{
		{1, 1, 1},
		{2, 2, 1},
		{3, 2, 2},
		{4, 2, 2},
		{5, 2, 3},
		{9, 2, 5},
		{11, 3, 5},
		{17, 4, 5},
		{20, 4, 5},
	}

	for _, tc := range testCases {
		slots, slotLevel := s.slots.PactSlots(tc.level)
		s.Equal(tc.slots, slots, "level %d", tc.level)
		s.Equal(tc.slotLevel, slotLevel, "level %d", tc.level)
	}
}

func (s *SlotsTestSuite) TestCustomProgression() {
	progs, err := tables.DecodeCustom(strings.NewReader(`
classes:
  - name: Artificer
    slots:
      1: [2]
      3: [3]
      5: [4, 2]
`))
	s.Require().NoError(err)
	s.Require().Len(progs, 1)
	s.Require().NoError(s.slots.Register(progs[0]))

	row, ok := s.slots.CustomSlots("artificer", 4)
	s.True(ok)
	s.Equal([9]int{3}, row)

	row, ok = s.slots.CustomSlots("ARTIFICER", 12)
	s.True(ok)
	s.Equal([9]int{4, 2}, row)

	_, ok = s.slots.CustomSlots("mystic", 1)
	s.False(ok)
}

func (s *SlotsTestSuite) TestCustomProgressionValidation() {
	s.Run("standard class name", func() {
		_, err := tables.DecodeCustom(strings.NewReader(`
classes:
  - name: wizard
    slots:
      1: [2]
`))
		s.True(errors.IsInvalidArgument(err))
	})

	s.Run("negative slots", func() {
		_, err := tables.DecodeCustom(strings.NewReader(`
classes:
  - name: mystic
    slots:
      1: [-1]
`))
		s.True(errors.IsInvalidArgument(err))
	})

	s.Run("unknown field", func() {
		_, err := tables.DecodeCustom(strings.NewReader(`
classes:
  - name: mystic
    slotz:
      1: [1]
`))
		s.True(errors.IsInvalidArgument(err))
	})

	s.Run("empty document", func() {
		progs, err := tables.DecodeCustom(strings.NewReader(""))
		s.NoError(err)
		s.Empty(progs)
	})
}

func (s *SlotsTestSuite) TestLoadCustomFile() {
	path := filepath.Join(s.T().TempDir(), "classes.yaml")
	s.Require().NoError(os.WriteFile(path, []byte("classes:\n  - name: mystic\n    slots:\n      1: [1, 1]\n"), 0o600))

	n, err := s.slots.LoadCustomFile(path)
	s.Require().NoError(err)
	s.Equal(1, n)
	s.Equal([]string{"mystic"}, s.slots.CustomClasses())

	_, err = s.slots.LoadCustomFile(filepath.Join(s.T().TempDir(), "missing.yaml"))
	s.Error(err)
}

type DifficultyTestSuite struct {
	suite.Suite
}

func TestDifficultySuite(t *testing.T) {
	suite.Run(t, new(DifficultyTestSuite))
}

func (s *DifficultyTestSuite) TestPartyThresholds() {
	t, err := tables.UniformPartyThresholds(3, 4)
	s.Require().NoError(err)
	s.Equal(tables.Thresholds{Easy: 300, Medium: 600, Hard: 900, Deadly: 1600}, t)

	_, err = tables.UniformPartyThresholds(21, 4)
	s.True(errors.IsInvalidArgument(err))

	_, err = tables.UniformPartyThresholds(3, 0)
	s.True(errors.IsInvalidArgument(err))
}

func (s *DifficultyTestSuite) TestMultiplier() {
	s.Equal(1.0, tables.XPMultiplier(1, 4))
	s.Equal(1.5, tables.XPMultiplier(2, 4))
	s.Equal(2.0, tables.XPMultiplier(6, 4))
	s.Equal(4.0, tables.XPMultiplier(15, 4))
	s.Equal(1.5, tables.XPMultiplier(1, 2), "small party shifts up")
	s.Equal(0.5, tables.XPMultiplier(1, 6), "large party shifts down")
	s.Equal(5.0, tables.XPMultiplier(20, 1))
}

func (s *DifficultyTestSuite) TestRateEncounter() {
	// Four level 1 characters against four goblins (50 XP each)
	rating, err := tables.RateEncounter([]int{1, 1, 1, 1}, []int{50, 50, 50, 50})
	s.Require().NoError(err)
	s.Equal(200, rating.BaseXP)
	s.Equal(2.0, rating.Multiplier)
	s.Equal(400, rating.AdjustedXP)
	s.Equal(tables.DifficultyDeadly, rating.Difficulty)

	rating, err = tables.RateEncounter([]int{5, 5, 5, 5}, []int{50})
	s.Require().NoError(err)
	s.Equal(tables.DifficultyTrivial, rating.Difficulty)

	_, err = tables.RateEncounter([]int{1}, []int{-5})
	s.True(errors.IsInvalidArgument(err))
}

func (s *DifficultyTestSuite) TestParseDifficulty() {
	d, err := tables.ParseDifficulty(" Hard ")
	s.Require().NoError(err)
	s.Equal(tables.DifficultyHard, d)

	_, err = tables.ParseDifficulty("trivial")
	s.True(errors.IsInvalidArgument(err))
}
