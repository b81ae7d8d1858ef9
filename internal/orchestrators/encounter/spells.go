package encounter

import (
	"context"
	"log/slog"
	"strings"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// InitializeSpellPool sets up a combatant's slots from its class and level.
// Classes registered as custom progressions use their own table.
func (o *orchestrator) InitializeSpellPool(ctx context.Context, input *InitializeSpellPoolInput) (*SpellPoolOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if len(input.CustomSlots) > combat.MaxSpellLevel {
		return nil, errors.InvalidArgumentf("at most %d slot levels allowed, got %d", combat.MaxSpellLevel, len(input.CustomSlots))
	}

	return o.poolMutation(ctx, "initialize_spell_pool", input.EncounterID, input.CombatantID, func(enc *combat.Encounter) (bool, error) {
		var err error
		switch row, custom := o.slots.CustomSlots(input.ClassName, input.Level); {
		case input.CustomSlots != nil:
			var maxima [combat.MaxSpellLevel]int
			copy(maxima[:], input.CustomSlots)
			_, err = enc.InitializeCustomSpellPool(input.CombatantID, input.ClassName, maxima)
		case custom:
			_, err = enc.InitializeCustomSpellPool(input.CombatantID, input.ClassName, row)
		default:
			_, err = enc.InitializeSpellPool(input.CombatantID, o.slots, input.ClassName, input.Level)
		}
		return err == nil, err
	})
}

// UseSpellSlot spends a slot, level 0 meaning a pact slot
func (o *orchestrator) UseSpellSlot(ctx context.Context, input *SpellSlotInput) (*SpellPoolOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateSlotLevel(input.Level); err != nil {
		return nil, err
	}
	return o.poolMutation(ctx, "use_spell_slot", input.EncounterID, input.CombatantID, func(enc *combat.Encounter) (bool, error) {
		if input.Level == 0 {
			return enc.UsePactSlot(input.CombatantID)
		}
		return enc.UseSlot(input.CombatantID, input.Level)
	})
}

// RestoreSpellSlot gives back a slot, level 0 meaning a pact slot
func (o *orchestrator) RestoreSpellSlot(ctx context.Context, input *SpellSlotInput) (*SpellPoolOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := validateSlotLevel(input.Level); err != nil {
		return nil, err
	}
	return o.poolMutation(ctx, "restore_spell_slot", input.EncounterID, input.CombatantID, func(enc *combat.Encounter) (bool, error) {
		if input.Level == 0 {
			return enc.RestorePactSlot(input.CombatantID)
		}
		return enc.RestoreSlot(input.CombatantID, input.Level)
	})
}

func validateSlotLevel(level int) error {
	if level != 0 && !combat.ValidSpellLevel(level) {
		return errors.InvalidArgumentf("spell level must be between %d and %d, got %d",
			combat.MinSpellLevel, combat.MaxSpellLevel, level)
	}
	return nil
}

// Rest refills pact slots on a short rest and everything on a long rest
func (o *orchestrator) Rest(ctx context.Context, input *RestInput) (*SpellPoolOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	op := "short_rest"
	if input.Long {
		op = "long_rest"
	}
	return o.poolMutation(ctx, op, input.EncounterID, input.CombatantID, func(enc *combat.Encounter) (bool, error) {
		if input.Long {
			return true, enc.LongRest(input.CombatantID)
		}
		return true, enc.ShortRest(input.CombatantID)
	})
}

func (o *orchestrator) poolMutation(ctx context.Context, op, encounterID, combatantID string, apply func(*combat.Encounter) (bool, error)) (*SpellPoolOutput, error) {
	out := &SpellPoolOutput{}
	res, err := o.mutate(ctx, op, encounterID, func(enc *combat.Encounter) error {
		changed, err := apply(enc)
		if err != nil {
			return err
		}
		pool, err := enc.Pool(combatantID)
		if err != nil {
			return err
		}
		out.Changed = changed
		out.Pool = pool.Clone()
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// CastSpell spends a slot for a spell. Without an explicit level the spell
// is looked up by name before the encounter is touched.
func (o *orchestrator) CastSpell(ctx context.Context, input *CastSpellInput) (*CastSpellOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if strings.TrimSpace(input.SpellName) == "" {
		return nil, errors.InvalidArgument("spell name is required")
	}

	spell, err := o.spellInfo(ctx, input)
	if err != nil {
		return nil, err
	}

	out := &CastSpellOutput{SpellLevel: spell.Level, Concentration: spell.Concentration}
	res, err := o.mutate(ctx, "cast_spell", input.EncounterID, func(enc *combat.Encounter) error {
		result, err := enc.CastSpell(&combat.CastSpellInput{
			CasterID:  input.CasterID,
			TargetID:  input.TargetID,
			Spell:     spell,
			SlotLevel: input.SlotLevel,
		})
		if err != nil {
			return err
		}
		out.SlotLevel = result.SlotLevel
		out.UsedPactSlot = result.UsedPactSlot
		out.ReplacedConcentration = result.ReplacedConcentration
		return nil
	})
	if res == nil {
		return nil, err
	}

	slog.Info("Spell cast",
		"encounter_id", input.EncounterID,
		"caster_id", input.CasterID,
		"spell", spell.Name,
		"slot_level", out.SlotLevel,
		"pact", out.UsedPactSlot,
	)
	out.Result = *res
	return out, err
}

func (o *orchestrator) spellInfo(ctx context.Context, input *CastSpellInput) (combat.SpellInfo, error) {
	if input.Level != nil {
		return combat.SpellInfo{
			Name:          strings.TrimSpace(input.SpellName),
			Level:         *input.Level,
			Concentration: input.Concentration,
		}, nil
	}
	if o.spells == nil {
		return combat.SpellInfo{}, errors.InvalidArgumentf("spell level is required for %s", input.SpellName)
	}

	data, err := o.spells.GetSpell(ctx, input.SpellName)
	if err != nil {
		return combat.SpellInfo{}, err
	}
	return combat.SpellInfo{
		Name:          data.Name,
		Level:         data.Level,
		Concentration: data.Concentration,
	}, nil
}
