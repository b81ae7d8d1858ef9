package encounter

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// ApplyDamage damages a combatant
func (o *orchestrator) ApplyDamage(ctx context.Context, input *ApplyDamageInput) (*ApplyDamageOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Amount < 0 {
		return nil, errors.InvalidArgumentf("damage must not be negative, got %d", input.Amount)
	}

	out := &ApplyDamageOutput{}
	res, err := o.mutate(ctx, "apply_damage", input.EncounterID, func(enc *combat.Encounter) error {
		outcome, err := enc.ApplyDamage(input.TargetID, input.Amount, input.Source)
		if err != nil {
			return err
		}
		out.Damage = *outcome.DamageResult
		out.Target = outcome.Target.Clone()
		out.SavesRequired = cloneEffects(outcome.SavesRequired)
		out.EndedEffects = cloneEffects(outcome.Ended)
		return nil
	})
	if res == nil {
		return nil, err
	}

	if out.Damage.DroppedToZero {
		slog.Info("Combatant dropped to 0 HP",
			"encounter_id", input.EncounterID,
			"combatant_id", input.TargetID,
			"defeated", out.Damage.Defeated,
		)
	}
	out.Result = *res
	return out, err
}

// ApplyHealing heals a combatant
func (o *orchestrator) ApplyHealing(ctx context.Context, input *ApplyHealingInput) (*ApplyHealingOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Amount < 0 {
		return nil, errors.InvalidArgumentf("healing must not be negative, got %d", input.Amount)
	}

	out := &ApplyHealingOutput{}
	res, err := o.mutate(ctx, "apply_healing", input.EncounterID, func(enc *combat.Encounter) error {
		result, err := enc.ApplyHealing(input.TargetID, input.Amount, input.Source)
		if err != nil {
			return err
		}
		out.Healing = *result
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// SetTempHP grants temp HP, or clears it when the amount is 0
func (o *orchestrator) SetTempHP(ctx context.Context, input *TempHPInput) (*TempHPOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Amount < 0 {
		return nil, errors.InvalidArgumentf("temp HP must not be negative, got %d", input.Amount)
	}

	out := &TempHPOutput{}
	res, err := o.mutate(ctx, "set_temp_hp", input.EncounterID, func(enc *combat.Encounter) error {
		if input.Amount == 0 {
			c, err := enc.Combatant(input.CombatantID)
			if err != nil {
				return err
			}
			out.Changed = c.TempHP > 0
			return enc.RemoveTempHP(input.CombatantID)
		}
		changed, err := enc.AddTempHP(input.CombatantID, input.Amount)
		out.Changed = changed
		return err
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// RecordDeathSave records a death save made at the table
func (o *orchestrator) RecordDeathSave(ctx context.Context, input *DeathSaveInput) (*DeathSaveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Roll < 0 || input.Roll > 20 {
		return nil, errors.InvalidArgumentf("roll must be between 0 and 20, got %d", input.Roll)
	}

	out := &DeathSaveOutput{Roll: input.Roll}
	res, err := o.mutate(ctx, "record_death_save", input.EncounterID, func(enc *combat.Encounter) error {
		record := enc.AddDeathSaveFailure
		if input.Success {
			record = enc.AddDeathSaveSuccess
		}
		result, err := record(input.CombatantID, input.Roll)
		if err != nil {
			return err
		}
		out.DeathSave = *result
		return nil
	})
	if res == nil {
		return nil, err
	}
	o.logDeathSave(input.EncounterID, input.CombatantID, out)
	out.Result = *res
	return out, err
}

// RollDeathSave rolls a d20 death save
func (o *orchestrator) RollDeathSave(ctx context.Context, input *RollDeathSaveInput) (*DeathSaveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &DeathSaveOutput{}
	res, err := o.mutate(ctx, "roll_death_save", input.EncounterID, func(enc *combat.Encounter) error {
		result, roll, err := enc.RollDeathSave(input.CombatantID)
		if err != nil {
			return err
		}
		out.Roll = roll
		out.DeathSave = *result
		return nil
	})
	if res == nil {
		return nil, err
	}
	o.logDeathSave(input.EncounterID, input.CombatantID, out)
	out.Result = *res
	return out, err
}

func (o *orchestrator) logDeathSave(encounterID, combatantID string, out *DeathSaveOutput) {
	switch {
	case out.DeathSave.Died:
		slog.Info("Combatant died", "encounter_id", encounterID, "combatant_id", combatantID)
	case out.DeathSave.Stabilized:
		slog.Info("Combatant stabilized", "encounter_id", encounterID, "combatant_id", combatantID)
	}
}

// StartConcentration puts a combatant on a concentration spell
func (o *orchestrator) StartConcentration(ctx context.Context, input *ConcentrationInput) (*ConcentrationOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &ConcentrationOutput{}
	res, err := o.mutate(ctx, "start_concentration", input.EncounterID, func(enc *combat.Encounter) error {
		before := enc.AllEffects()
		previous, err := enc.StartConcentration(input.CombatantID, input.Spell, input.LogBroken)
		if err != nil {
			return err
		}
		out.Previous = previous
		out.EndedEffects = cloneEffects(removedSince(before, enc.AllEffects()))
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// EndConcentration ends concentration and the effects it held
func (o *orchestrator) EndConcentration(ctx context.Context, input *ConcentrationInput) (*ConcentrationOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &ConcentrationOutput{}
	res, err := o.mutate(ctx, "end_concentration", input.EncounterID, func(enc *combat.Encounter) error {
		spell, ended, err := enc.EndConcentration(input.CombatantID)
		if err != nil {
			return err
		}
		out.Previous = spell
		out.EndedEffects = cloneEffects(ended)
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// removedSince returns the effects of before that after no longer holds
func removedSince(before, after []*combat.StatusEffect) []*combat.StatusEffect {
	kept := make(map[string]struct{}, len(after))
	for _, eff := range after {
		kept[eff.ID] = struct{}{}
	}
	var removed []*combat.StatusEffect
	for _, eff := range before {
		if _, ok := kept[eff.ID]; !ok {
			removed = append(removed, eff)
		}
	}
	return removed
}

// AddCondition adds a condition to a combatant
func (o *orchestrator) AddCondition(ctx context.Context, input *ConditionInput) (*ConditionOutput, error) {
	return o.condition(ctx, "add_condition", input, (*combat.Encounter).AddCondition)
}

// RemoveCondition removes a condition from a combatant
func (o *orchestrator) RemoveCondition(ctx context.Context, input *ConditionInput) (*ConditionOutput, error) {
	return o.condition(ctx, "remove_condition", input, (*combat.Encounter).RemoveCondition)
}

func (o *orchestrator) condition(ctx context.Context, op string, input *ConditionInput, apply func(*combat.Encounter, string, string) (bool, error)) (*ConditionOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &ConditionOutput{}
	res, err := o.mutate(ctx, op, input.EncounterID, func(enc *combat.Encounter) error {
		changed, err := apply(enc, input.CombatantID, input.Condition)
		out.Changed = changed
		return err
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// RecordAttack logs an attack roll against the target's AC
func (o *orchestrator) RecordAttack(ctx context.Context, input *RecordAttackInput) (*RecordAttackOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &RecordAttackOutput{}
	res, err := o.mutate(ctx, "record_attack", input.EncounterID, func(enc *combat.Encounter) error {
		result, err := enc.RecordAttack(input.AttackerID, input.TargetID, input.Roll, input.Total)
		if err != nil {
			return err
		}
		out.Attack = *result
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// AddNote appends a Custom entry
func (o *orchestrator) AddNote(ctx context.Context, input *AddNoteInput) (*AddNoteOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	res, err := o.mutate(ctx, "add_note", input.EncounterID, func(enc *combat.Encounter) error {
		return enc.AddNote(input.Actor, input.Text)
	})
	if res == nil {
		return nil, err
	}
	return &AddNoteOutput{Result: *res}, err
}
