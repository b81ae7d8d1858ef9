package notation_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-tracker/internal/engine/notation"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/testutils"
)

type NotationTestSuite struct {
	suite.Suite
}

func TestNotationSuite(t *testing.T) {
	suite.Run(t, new(NotationTestSuite))
}

func (s *NotationTestSuite) TestParse() {
	testCases := []struct {
		name  string
		input string
		want  notation.Expression
	}{
		{name: "plain", input: "2d6", want: notation.Expression{Count: 2, Size: 6}},
		{name: "implicit count", input: "d20", want: notation.Expression{Count: 1, Size: 20}},
		{name: "bonus", input: "1d8+3", want: notation.Expression{Count: 1, Size: 8, Modifier: 3}},
		{name: "penalty with spaces", input: " 1D4 - 1 ", want: notation.Expression{Count: 1, Size: 4, Modifier: -1}},
		{name: "flat", input: "5", want: notation.Expression{Modifier: 5}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			got, err := notation.Parse(tc.input)
			s.Require().NoError(err)
			s.Equal(tc.want, got)
		})
	}
}

func (s *NotationTestSuite) TestParseRejectsGarbage() {
	for _, input := range []string{"", "abc", "0d6", "2d0", "2d6+", "-3", "1d6*2"} {
		_, err := notation.Parse(input)
		s.True(errors.IsInvalidArgument(err), input)
	}
}

func (s *NotationTestSuite) TestString() {
	s.Equal("2d6+3", notation.Expression{Count: 2, Size: 6, Modifier: 3}.String())
	s.Equal("1d4-1", notation.Expression{Count: 1, Size: 4, Modifier: -1}.String())
	s.Equal("7", notation.Expression{Modifier: 7}.String())
}

func (s *NotationTestSuite) TestRoll() {
	roller := testutils.NewSequenceRoller(4, 6)
	expr, err := notation.Parse("2d6+3")
	s.Require().NoError(err)

	roll, err := expr.Roll(roller)
	s.Require().NoError(err)
	s.Equal([]int{4, 6}, roll.Dice)
	s.Equal(13, roll.Total)
	s.Equal([]int{6, 6}, roller.Sizes)
}

func (s *NotationTestSuite) TestRollFloorsAtZero() {
	roll, err := notation.Expression{Count: 1, Size: 4, Modifier: -3}.Roll(testutils.NewSequenceRoller(1))
	s.Require().NoError(err)
	s.Zero(roll.Total)
}

func (s *NotationTestSuite) TestCriticalDoublesDice() {
	crit := notation.Expression{Count: 1, Size: 8, Modifier: 3}.Critical()
	s.Equal(notation.Expression{Count: 2, Size: 8, Modifier: 3}, crit)

	roll, err := crit.Roll(testutils.NewSequenceRoller(5, 2))
	s.Require().NoError(err)
	s.Equal(10, roll.Total)
}

func (s *NotationTestSuite) TestRollErrorsSurface() {
	_, err := notation.Expression{Count: 1, Size: 6}.Roll(testutils.NewSequenceRoller())
	s.Error(err)
}
