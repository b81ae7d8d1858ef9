package combat

// ApplyEffect attaches a status effect to a combatant. Instantaneous effects
// are logged and returned but never registered. A standard condition name is
// also added to the target's condition set.
func (e *Encounter) ApplyEffect(targetID string, cfg *StatusEffectConfig) (*StatusEffect, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	target, err := e.Combatant(targetID)
	if err != nil {
		return nil, err
	}
	eff, err := NewStatusEffect(cfg)
	if err != nil {
		return nil, err
	}

	var caster *Combatant
	if eff.CasterID != "" {
		if caster, err = e.Combatant(eff.CasterID); err != nil {
			return nil, err
		}
		if eff.SourceName == "" {
			eff.SourceName = caster.Name
		}
	}

	eff.ID = e.ids.Generate()
	eff.CombatantID = target.ID
	eff.EncounterID = e.record.ID
	eff.TargetName = target.Name
	eff.RoundApplied = e.record.CurrentRound
	eff.TurnApplied = e.record.CurrentTurnIndex

	if eff.RequiresConcentration && caster != nil {
		spell := eff.ConcentrationSpell()
		if !caster.IsConcentrating || !sameName(caster.ConcentrationSpell, spell) {
			if _, err := e.startConcentration(caster, spell, false); err != nil {
				return nil, err
			}
		}
	}

	e.log(LogConditionApplied, eff.SourceName, target.Name, LogPayload{ConditionApplied: eff.Name})

	if _, ok := eff.Duration.(Instantaneous); ok {
		return eff, nil
	}

	e.effects = append(e.effects, eff)
	e.changes.touchEffect(eff.ID)

	if IsStandardCondition(eff.Name) {
		if added, _ := target.AddCondition(eff.Name); added {
			e.changes.touchCombatant(target.ID)
		}
	}
	return eff, nil
}

// DispelEffect removes an effect before its duration runs out
func (e *Encounter) DispelEffect(id string) (*StatusEffect, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	if _, err := e.Effect(id); err != nil {
		return nil, err
	}

	removed := e.expire(func(eff *StatusEffect) bool {
		return eff.ID == id
	})
	return removed[0], nil
}

// SaveResult is a saving throw resolved against an effect
type SaveResult struct {
	Effect    *StatusEffect
	DC        int
	Total     int
	Succeeded bool
	// Ended is set when the save removed the effect
	Ended bool
}

// ResolveSave applies a saving throw total to an effect. A successful save
// against a SaveEnds duration removes the effect.
func (e *Encounter) ResolveSave(effectID string, total int) (*SaveResult, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	eff, err := e.Effect(effectID)
	if err != nil {
		return nil, err
	}

	dc, succeeded, ended, err := eff.ResolveSave(total)
	if err != nil {
		return nil, err
	}

	var ability Ability
	switch {
	case eff.Save != nil:
		ability = eff.Save.Ability
	default:
		if d, ok := eff.Duration.(SaveEnds); ok {
			ability = d.Ability
		}
	}
	e.log(LogSavingThrow, eff.TargetName, "", LogPayload{
		Total:   total,
		DC:      dc,
		Ability: ability,
		Text:    eff.Name,
	})

	if ended {
		e.expire(func(candidate *StatusEffect) bool {
			return candidate.ID == eff.ID
		})
	}

	return &SaveResult{
		Effect:    eff,
		DC:        dc,
		Total:     total,
		Succeeded: succeeded,
		Ended:     ended,
	}, nil
}

// afterEffectRemoved records and logs a removal. The standard condition an
// effect added is dropped once no other effect on the target carries it.
func (e *Encounter) afterEffectRemoved(eff *StatusEffect) {
	e.changes.removeEffect(eff.ID)

	if IsStandardCondition(eff.Name) {
		stillApplied := false
		for _, other := range e.effects {
			if other.CombatantID == eff.CombatantID && sameName(other.Name, eff.Name) {
				stillApplied = true
				break
			}
		}
		if target := e.combatant(eff.CombatantID); target != nil && !stillApplied {
			if target.RemoveCondition(eff.Name) {
				e.changes.touchCombatant(target.ID)
			}
		}
	}

	e.log(LogConditionRemoved, "", eff.TargetName, LogPayload{ConditionRemoved: eff.Name})
}
