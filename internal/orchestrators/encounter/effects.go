package encounter

import (
	"context"
	"log/slog"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// ApplyEffect attaches a status effect to a combatant
func (o *orchestrator) ApplyEffect(ctx context.Context, input *ApplyEffectInput) (*ApplyEffectOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.Effect == nil {
		return nil, errors.InvalidArgument("effect is required")
	}

	out := &ApplyEffectOutput{}
	res, err := o.mutate(ctx, "apply_effect", input.EncounterID, func(enc *combat.Encounter) error {
		eff, err := enc.ApplyEffect(input.TargetID, input.Effect)
		if err != nil {
			return err
		}
		out.Effect = eff.Clone()
		_, lookupErr := enc.Effect(eff.ID)
		out.Registered = lookupErr == nil
		return nil
	})
	if res == nil {
		return nil, err
	}

	slog.Info("Applied status effect",
		"encounter_id", input.EncounterID,
		"target_id", input.TargetID,
		"effect", out.Effect.Name,
		"duration", combat.DescribeDuration(out.Effect.Duration),
	)
	out.Result = *res
	return out, err
}

// DispelEffect removes an effect before it runs out
func (o *orchestrator) DispelEffect(ctx context.Context, input *DispelEffectInput) (*DispelEffectOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &DispelEffectOutput{}
	res, err := o.mutate(ctx, "dispel_effect", input.EncounterID, func(enc *combat.Encounter) error {
		removed, err := enc.DispelEffect(input.EffectID)
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

// ResolveSave applies a saving throw total to an effect
func (o *orchestrator) ResolveSave(ctx context.Context, input *ResolveSaveInput) (*ResolveSaveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}

	out := &ResolveSaveOutput{}
	res, err := o.mutate(ctx, "resolve_save", input.EncounterID, func(enc *combat.Encounter) error {
		result, err := enc.ResolveSave(input.EffectID, input.Total)
		if err != nil {
			return err
		}
		out.DC = result.DC
		out.Total = result.Total
		out.Succeeded = result.Succeeded
		out.Ended = result.Ended
		return nil
	})
	if res == nil {
		return nil, err
	}
	out.Result = *res
	return out, err
}
