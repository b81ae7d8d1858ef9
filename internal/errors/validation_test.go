package errors_test

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

type ValidationTestSuite struct {
	suite.Suite
}

func TestValidationSuite(t *testing.T) {
	suite.Run(t, new(ValidationTestSuite))
}

func (s *ValidationTestSuite) TestValidationErrorMessageIsOrdered() {
	v := errors.NewValidationError()
	v.AddFieldError("max_hp", "must be positive")
	v.AddFieldError("armor_class", "is required")
	v.AddFieldError("max_hp", "must be at most 999")

	s.True(v.HasErrors())
	s.Equal("validation failed: armor_class: is required; max_hp: must be positive, must be at most 999", v.Error())

	err := v.ToError()
	s.Equal(errors.CodeInvalidArgument, err.Code)
	s.NotNil(err.Meta["validation_errors"])
}

func (s *ValidationTestSuite) TestBuilderNoErrors() {
	vb := errors.NewValidationBuilder()
	errors.ValidateRequired("name", "Goblin", vb)
	errors.ValidateRange("level", 5, 1, 20, vb)
	errors.ValidateNonNegative("amount", 0, vb)

	s.NoError(vb.Build())
}

func (s *ValidationTestSuite) TestValidateRequired() {
	testCases := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{name: "present", value: "Aria"},
		{name: "empty", value: "", wantErr: true},
		{name: "whitespace", value: "   ", wantErr: true},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			vb := errors.NewValidationBuilder()
			errors.ValidateRequired("name", tc.value, vb)
			err := vb.Build()
			if tc.wantErr {
				s.Error(err)
				s.True(errors.IsInvalidArgument(err))
				s.Contains(err.Error(), "name: is required")
			} else {
				s.NoError(err)
			}
		})
	}
}

func (s *ValidationTestSuite) TestValidateRangeAndNonNegative() {
	vb := errors.NewValidationBuilder()
	errors.ValidateRange("spell_level", 10, 1, 9, vb)
	errors.ValidateNonNegative("damage", -3, vb)

	err := vb.Build()
	s.Require().Error(err)
	s.Contains(err.Error(), "spell_level: must be between 1 and 9")
	s.Contains(err.Error(), "damage: must not be negative, got -3")
}

func (s *ValidationTestSuite) TestValidateEnum() {
	vb := errors.NewValidationBuilder()
	errors.ValidateEnum("kind", "monster", []string{"monster", "npc", "player"}, vb)
	s.NoError(vb.Build())

	vb = errors.NewValidationBuilder()
	errors.ValidateEnum("kind", "dragon", []string{"monster", "npc", "player"}, vb)
	err := vb.Build()
	s.Require().Error(err)
	s.Contains(err.Error(), "kind: must be one of: monster, npc, player")
}
