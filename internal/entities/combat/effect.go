package combat

import (
	"strings"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// Ability is one of the six ability scores used for saving throws
type Ability string

// Abilities
const (
	AbilityStrength     Ability = "STR"
	AbilityDexterity    Ability = "DEX"
	AbilityConstitution Ability = "CON"
	AbilityIntelligence Ability = "INT"
	AbilityWisdom       Ability = "WIS"
	AbilityCharisma     Ability = "CHA"
)

// Valid reports whether a is a known ability
func (a Ability) Valid() bool {
	switch a {
	case AbilityStrength, AbilityDexterity, AbilityConstitution,
		AbilityIntelligence, AbilityWisdom, AbilityCharisma:
		return true
	default:
		return false
	}
}

// SaveTiming is when a save requirement is rolled
type SaveTiming string

// Save timings
const (
	SaveWhenApplied SaveTiming = "when_applied"
	SaveStartOfTurn SaveTiming = "start_of_turn"
	SaveEndOfTurn   SaveTiming = "end_of_turn"
	SaveWhenDamaged SaveTiming = "when_damaged"
)

// Valid reports whether t is a known timing
func (t SaveTiming) Valid() bool {
	switch t {
	case SaveWhenApplied, SaveStartOfTurn, SaveEndOfTurn, SaveWhenDamaged:
		return true
	default:
		return false
	}
}

// SaveRequirement is a saving throw attached to an effect
type SaveRequirement struct {
	Ability Ability    `json:"ability"`
	DC      int        `json:"dc"`
	Timing  SaveTiming `json:"timing"`
}

// Succeeds compares a save total against the DC; meeting it succeeds
func (r SaveRequirement) Succeeds(total int) bool {
	return total >= r.DC
}

// StatusEffect is a timed or conditional effect on one combatant.
// Duration is persisted through the custom JSON methods in duration.go.
type StatusEffect struct {
	ID          string `json:"id"`
	CombatantID string `json:"combatant_id"`
	EncounterID string `json:"encounter_id"`
	TargetName  string `json:"target_name"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	SourceName  string `json:"source_name,omitempty"`
	SourceSpell string `json:"source_spell,omitempty"`
	// CasterID links concentration effects to the combatant holding them
	CasterID string `json:"caster_id,omitempty"`

	Duration        Duration `json:"-"`
	RoundsRemaining int      `json:"rounds_remaining"`

	Save *SaveRequirement `json:"save,omitempty"`

	RequiresConcentration bool `json:"requires_concentration"`
	IsBeneficial          bool `json:"is_beneficial"`
	IsHidden              bool `json:"is_hidden"`

	RoundApplied int `json:"round_applied"`
	TurnApplied  int `json:"turn_applied"`
}

// StatusEffectConfig describes an effect being applied
type StatusEffectConfig struct {
	Name                  string
	Description           string
	SourceName            string
	SourceSpell           string
	CasterID              string
	Duration              Duration
	Save                  *SaveRequirement
	RequiresConcentration bool
	IsBeneficial          bool
	IsHidden              bool
}

// Validate checks the config
func (c *StatusEffectConfig) Validate() error {
	vb := errors.NewValidationBuilder()

	errors.ValidateRequired("name", c.Name, vb)
	if err := ValidateDuration(c.Duration); err != nil {
		vb.Field("duration", errors.GetMessage(err))
	}
	if c.Save != nil {
		if !c.Save.Ability.Valid() {
			vb.Fieldf("save.ability", "unknown ability %q", c.Save.Ability)
		}
		if c.Save.DC < 1 {
			vb.Field("save.dc", "must be at least 1")
		}
		if !c.Save.Timing.Valid() {
			vb.Fieldf("save.timing", "unknown timing %q", c.Save.Timing)
		}
	}
	if c.RequiresConcentration && strings.TrimSpace(c.CasterID) == "" {
		vb.Field("caster_id", "is required for concentration effects")
	}

	return vb.Build()
}

// NewStatusEffect builds an effect from a validated config. A missing
// description falls back to the standard condition catalog.
func NewStatusEffect(cfg *StatusEffectConfig) (*StatusEffect, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("status effect config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &StatusEffect{
		Name:                  strings.TrimSpace(cfg.Name),
		Description:           cfg.Description,
		SourceName:            strings.TrimSpace(cfg.SourceName),
		SourceSpell:           strings.TrimSpace(cfg.SourceSpell),
		CasterID:              cfg.CasterID,
		Duration:              cfg.Duration,
		RequiresConcentration: cfg.RequiresConcentration,
		IsBeneficial:          cfg.IsBeneficial,
		IsHidden:              cfg.IsHidden,
	}
	if cfg.Save != nil {
		save := *cfg.Save
		e.Save = &save
	}
	if rounds, ok := cfg.Duration.(Rounds); ok {
		e.RoundsRemaining = rounds.N
	}
	if e.Description == "" {
		e.Description = ConditionDescription(e.Name)
	}
	return e, nil
}

// Clone returns a copy safe to hand to persistence
func (e *StatusEffect) Clone() StatusEffect {
	out := *e
	if e.Save != nil {
		save := *e.Save
		out.Save = &save
	}
	return out
}

// OnRoundStart ticks a Rounds duration and reports expiry when the counter
// reaches zero. The caller removes expired effects.
func (e *StatusEffect) OnRoundStart() bool {
	switch e.Duration.(type) {
	case Rounds:
		if e.RoundsRemaining <= 0 {
			return false
		}
		e.RoundsRemaining--
		return e.RoundsRemaining == 0
	case Instantaneous, Minutes, Hours, UntilDispelled,
		UntilEndOfTurnOf, UntilStartOfTurnOf, SaveEnds, Permanent:
		return false
	default:
		return false
	}
}

// OnTurnStart reports expiry of an UntilStartOfTurnOf effect tied to creature
func (e *StatusEffect) OnTurnStart(creature string) bool {
	switch d := e.Duration.(type) {
	case UntilStartOfTurnOf:
		return sameName(d.Creature, creature)
	case Instantaneous, Rounds, Minutes, Hours, UntilDispelled,
		UntilEndOfTurnOf, SaveEnds, Permanent:
		return false
	default:
		return false
	}
}

// OnTurnEnd reports expiry of an UntilEndOfTurnOf effect tied to creature
func (e *StatusEffect) OnTurnEnd(creature string) bool {
	switch d := e.Duration.(type) {
	case UntilEndOfTurnOf:
		return sameName(d.Creature, creature)
	case Instantaneous, Rounds, Minutes, Hours, UntilDispelled,
		UntilStartOfTurnOf, SaveEnds, Permanent:
		return false
	default:
		return false
	}
}

// ConcentrationSpell is the spell a concentration effect depends on
func (e *StatusEffect) ConcentrationSpell() string {
	if e.SourceSpell != "" {
		return e.SourceSpell
	}
	return e.Name
}

// sameName matches display names ignoring case and surrounding space. Two
// combatants sharing a name both match.
func sameName(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

// ResolveSave checks a save total against a SaveEnds duration or the effect's
// save requirement. ended reports whether the effect should be removed.
func (e *StatusEffect) ResolveSave(total int) (dc int, succeeded bool, ended bool, err error) {
	if d, ok := e.Duration.(SaveEnds); ok {
		succeeded = total >= d.DC
		return d.DC, succeeded, succeeded, nil
	}
	if e.Save != nil {
		return e.Save.DC, e.Save.Succeeds(total), false, nil
	}
	return 0, false, false, errors.InvalidArgumentf("effect %s has no saving throw", e.Name)
}
