package encounter

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// StartEncounter moves a NotStarted encounter to Active
func (o *orchestrator) StartEncounter(ctx context.Context, input *StartEncounterInput) (*StartEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	res, err := o.mutate(ctx, "start_encounter", input.EncounterID, func(enc *combat.Encounter) error {
		return enc.Start(input.Name)
	})
	if res == nil {
		return nil, err
	}
	return &StartEncounterOutput{Result: *res}, err
}

// EndEncounter moves an encounter to Ended
func (o *orchestrator) EndEncounter(ctx context.Context, input *EndEncounterInput) (*EndEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	res, err := o.mutate(ctx, "end_encounter", input.EncounterID, func(enc *combat.Encounter) error {
		return enc.End()
	})
	if res == nil {
		return nil, err
	}
	return &EndEncounterOutput{Result: *res}, err
}

// AddCombatant appends a combatant, optionally rolling its initiative
func (o *orchestrator) AddCombatant(ctx context.Context, input *AddCombatantInput) (*AddCombatantOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Combatant == nil {
		return nil, errors.InvalidArgument("combatant is required")
	}

	out := &AddCombatantOutput{}
	res, err := o.mutate(ctx, "add_combatant", input.EncounterID, func(enc *combat.Encounter) error {
		c, err := enc.AddCombatant(input.Combatant)
		if err != nil {
			return err
		}
		if input.RollInitiative {
			roll, err := enc.RollInitiative(c.ID)
			if err != nil {
				return err
			}
			out.Initiative = roll
		}
		out.Combatant = c.Clone()
		return nil
	})
	if res == nil {
		return nil, err
	}

	slog.Info("Added combatant",
		"encounter_id", input.EncounterID,
		"combatant_id", out.Combatant.ID,
		"name", out.Combatant.Name,
		"kind", out.Combatant.Kind,
	)
	out.Result = *res
	return out, err
}

// RemoveCombatant drops a combatant with its effects and spell pool
func (o *orchestrator) RemoveCombatant(ctx context.Context, input *RemoveCombatantInput) (*RemoveCombatantOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &RemoveCombatantOutput{}
	res, err := o.mutate(ctx, "remove_combatant", input.EncounterID, func(enc *combat.Encounter) error {
		removed, err := enc.RemoveCombatant(input.CombatantID)
		if err != nil {
			return err
		}
		out.Removed = removed.Clone()
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// RollInitiative rolls for one combatant or everyone
func (o *orchestrator) RollInitiative(ctx context.Context, input *RollInitiativeInput) (*RollInitiativeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &RollInitiativeOutput{}
	res, err := o.mutate(ctx, "roll_initiative", input.EncounterID, func(enc *combat.Encounter) error {
		var rolls []*combat.InitiativeResult
		if input.CombatantID == "" {
			all, err := enc.RollInitiativeForAll()
			if err != nil {
				return err
			}
			rolls = all
		} else {
			roll, err := enc.RollInitiative(input.CombatantID)
			if err != nil {
				return err
			}
			rolls = append(rolls, roll)
		}
		for _, r := range rolls {
			out.Rolls = append(out.Rolls, *r)
		}
		if input.Sort {
			return enc.SortByInitiative()
		}
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// SetInitiative stores an initiative rolled at the table
func (o *orchestrator) SetInitiative(ctx context.Context, input *SetInitiativeInput) (*SetInitiativeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &SetInitiativeOutput{}
	res, err := o.mutate(ctx, "set_initiative", input.EncounterID, func(enc *combat.Encounter) error {
		result, err := enc.SetInitiative(input.CombatantID, input.Initiative)
		if err != nil {
			return err
		}
		out.Initiative = *result
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}

// SortByInitiative orders combatants by initiative, ties by insertion
func (o *orchestrator) SortByInitiative(ctx context.Context, input *SortByInitiativeInput) (*SortByInitiativeOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	res, err := o.mutate(ctx, "sort_by_initiative", input.EncounterID, func(enc *combat.Encounter) error {
		return enc.SortByInitiative()
	})
	if res == nil {
		return nil, err
	}
	return &SortByInitiativeOutput{Result: *res}, err
}

// NextTurn advances to the next turn in the encounter
func (o *orchestrator) NextTurn(ctx context.Context, input *TurnInput) (*TurnOutput, error) {
	return o.turn(ctx, "next_turn", input, (*combat.Encounter).NextTurn)
}

// PreviousTurn steps the turn pointer back
func (o *orchestrator) PreviousTurn(ctx context.Context, input *TurnInput) (*TurnOutput, error) {
	return o.turn(ctx, "previous_turn", input, (*combat.Encounter).PreviousTurn)
}

func (o *orchestrator) turn(ctx context.Context, op string, input *TurnInput, move func(*combat.Encounter) (*combat.TurnResult, error)) (*TurnOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &TurnOutput{}
	res, err := o.mutate(ctx, op, input.EncounterID, func(enc *combat.Encounter) error {
		result, err := move(enc)
		if err != nil {
			return err
		}
		out.Round = result.Round
		out.TurnIndex = result.TurnIndex
		out.RoundStarted = result.RoundStarted
		out.Expired = cloneEffects(result.Expired)
		if result.Current != nil {
			out.Current = result.Current.Clone()
		}
		return nil
	})
	if res == nil {
		return nil, err
	}

	slog.Info("Turn changed",
		"encounter_id", input.EncounterID,
		"operation", op,
		"round", out.Round,
		"turn_index", out.TurnIndex,
		"current", out.Current.Name,
		"expired", len(out.Expired),
	)
	out.Result = *res
	return out, err
}
