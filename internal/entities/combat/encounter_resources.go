package combat

import (
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// DeathSaveThreshold is the lowest d20 roll that counts as a success
const DeathSaveThreshold = 10

// DamageOutcome is a ledger DamageResult plus the encounter-level effects
type DamageOutcome struct {
	*DamageResult
	Target *Combatant
	// SavesRequired are effects on the target with a when-damaged save
	SavesRequired []*StatusEffect
	// Ended are concentration effects removed because the target dropped
	Ended []*StatusEffect
}

// ApplyDamage damages a combatant and logs what happened. source is the
// display name of whoever dealt it and may be empty.
func (e *Encounter) ApplyDamage(targetID string, amount int, source string) (*DamageOutcome, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	c, err := e.Combatant(targetID)
	if err != nil {
		return nil, err
	}

	result, err := c.ApplyDamage(amount)
	if err != nil {
		return nil, err
	}
	e.changes.touchCombatant(c.ID)

	outcome := &DamageOutcome{DamageResult: result, Target: c}
	e.log(LogDamage, source, c.Name, LogPayload{Damage: amount})

	if ds := result.DeathSave; ds != nil {
		e.log(LogDeathSave, c.Name, "", LogPayload{
			Successes: ds.Successes,
			Failures:  ds.Failures,
			Text:      "damaged at 0 HP",
		})
		if ds.Died {
			e.log(LogDeath, "", c.Name, LogPayload{})
		}
	}
	if result.ConcentrationLost != "" {
		outcome.Ended = e.breakConcentration(c, result.ConcentrationLost)
	}
	if result.Defeated {
		e.log(LogKill, source, c.Name, LogPayload{})
	}
	if result.ConcentrationDC > 0 {
		e.log(LogConcentration, c.Name, "", LogPayload{
			Spell: c.ConcentrationSpell,
			DC:    result.ConcentrationDC,
		})
	}

	if amount > 0 {
		for _, eff := range e.Effects(c.ID) {
			if eff.Save != nil && eff.Save.Timing == SaveWhenDamaged {
				outcome.SavesRequired = append(outcome.SavesRequired, eff)
			}
		}
	}
	return outcome, nil
}

// ApplyHealing heals a combatant and logs it
func (e *Encounter) ApplyHealing(targetID string, amount int, source string) (*HealResult, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	c, err := e.Combatant(targetID)
	if err != nil {
		return nil, err
	}

	result, err := c.ApplyHealing(amount)
	if err != nil {
		return nil, err
	}
	e.changes.touchCombatant(c.ID)
	e.log(LogHeal, source, c.Name, LogPayload{Healing: result.Healed})
	return result, nil
}

// AddTempHP grants temp HP; a lower value than the current pool is ignored
func (e *Encounter) AddTempHP(targetID string, amount int) (bool, error) {
	if err := e.requireNotEnded(); err != nil {
		return false, err
	}
	c, err := e.Combatant(targetID)
	if err != nil {
		return false, err
	}

	changed, err := c.AddTempHP(amount)
	if err != nil {
		return false, err
	}
	if changed {
		e.changes.touchCombatant(c.ID)
	}
	return changed, nil
}

// RemoveTempHP clears a combatant's temp HP
func (e *Encounter) RemoveTempHP(targetID string) error {
	if err := e.requireNotEnded(); err != nil {
		return err
	}
	c, err := e.Combatant(targetID)
	if err != nil {
		return err
	}
	c.RemoveTempHP()
	e.changes.touchCombatant(c.ID)
	return nil
}

// AddDeathSaveSuccess records a success. roll is informational and may be 0.
func (e *Encounter) AddDeathSaveSuccess(id string, roll int) (*DeathSaveResult, error) {
	return e.deathSave(id, roll, (*Combatant).AddDeathSaveSuccess)
}

// AddDeathSaveFailure records a failure. roll is informational and may be 0.
func (e *Encounter) AddDeathSaveFailure(id string, roll int) (*DeathSaveResult, error) {
	return e.deathSave(id, roll, (*Combatant).AddDeathSaveFailure)
}

// RollDeathSave rolls a d20 for a dying player: 10 or more succeeds
func (e *Encounter) RollDeathSave(id string) (*DeathSaveResult, int, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, 0, err
	}
	c, err := e.Combatant(id)
	if err != nil {
		return nil, 0, err
	}
	if err := c.checkDeathSaves(); err != nil {
		return nil, 0, err
	}

	roll, err := e.roller.Roll(20)
	if err != nil {
		return nil, 0, errors.Wrapf(err, "failed to roll death save for %s", c.Name)
	}

	apply := (*Combatant).AddDeathSaveFailure
	if roll >= DeathSaveThreshold {
		apply = (*Combatant).AddDeathSaveSuccess
	}
	result, err := e.deathSave(id, roll, apply)
	return result, roll, err
}

func (e *Encounter) deathSave(id string, roll int, apply func(*Combatant) (*DeathSaveResult, error)) (*DeathSaveResult, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	c, err := e.Combatant(id)
	if err != nil {
		return nil, err
	}

	result, err := apply(c)
	if err != nil {
		return nil, err
	}
	e.changes.touchCombatant(c.ID)

	e.log(LogDeathSave, c.Name, "", LogPayload{
		Roll:      roll,
		Successes: result.Successes,
		Failures:  result.Failures,
	})
	if result.Died {
		e.log(LogDeath, "", c.Name, LogPayload{})
	}
	return result, nil
}

// StartConcentration puts a combatant on a concentration spell. Effects tied
// to the spell it replaces are removed; the replaced spell is logged as broken
// only when logBroken is set.
func (e *Encounter) StartConcentration(id, spell string, logBroken bool) (string, error) {
	if err := e.requireNotEnded(); err != nil {
		return "", err
	}
	c, err := e.Combatant(id)
	if err != nil {
		return "", err
	}
	return e.startConcentration(c, spell, logBroken)
}

func (e *Encounter) startConcentration(c *Combatant, spell string, logBroken bool) (string, error) {
	previous, err := c.StartConcentration(spell)
	if err != nil {
		return "", err
	}
	e.changes.touchCombatant(c.ID)

	if previous != "" && !sameName(previous, c.ConcentrationSpell) {
		if logBroken {
			e.breakConcentration(c, previous)
		} else {
			e.removeLinkedEffects(c, previous)
		}
	}
	e.log(LogConcentration, c.Name, "", LogPayload{Spell: c.ConcentrationSpell})
	return previous, nil
}

// EndConcentration ends a combatant's concentration and the effects it held
func (e *Encounter) EndConcentration(id string) (string, []*StatusEffect, error) {
	if err := e.requireNotEnded(); err != nil {
		return "", nil, err
	}
	c, err := e.Combatant(id)
	if err != nil {
		return "", nil, err
	}
	if !c.IsConcentrating {
		return "", nil, nil
	}

	spell := c.EndConcentration()
	e.changes.touchCombatant(c.ID)
	return spell, e.breakConcentration(c, spell), nil
}

// breakConcentration logs the broken spell and removes its effects. The
// caller has already cleared the combatant's concentration.
func (e *Encounter) breakConcentration(c *Combatant, spell string) []*StatusEffect {
	e.log(LogConcentration, c.Name, "", LogPayload{Spell: spell, Broken: true})
	return e.removeLinkedEffects(c, spell)
}

func (e *Encounter) removeLinkedEffects(caster *Combatant, spell string) []*StatusEffect {
	return e.expire(func(eff *StatusEffect) bool {
		return eff.RequiresConcentration &&
			eff.CasterID == caster.ID &&
			sameName(eff.ConcentrationSpell(), spell)
	})
}

// AddCondition adds a free-text condition to a combatant and logs it
func (e *Encounter) AddCondition(id, name string) (bool, error) {
	if err := e.requireNotEnded(); err != nil {
		return false, err
	}
	c, err := e.Combatant(id)
	if err != nil {
		return false, err
	}

	added, err := c.AddCondition(name)
	if err != nil || !added {
		return false, err
	}
	e.changes.touchCombatant(c.ID)
	e.log(LogConditionApplied, "", c.Name, LogPayload{ConditionApplied: name})
	return true, nil
}

// RemoveCondition removes a condition from a combatant and logs it
func (e *Encounter) RemoveCondition(id, name string) (bool, error) {
	if err := e.requireNotEnded(); err != nil {
		return false, err
	}
	c, err := e.Combatant(id)
	if err != nil {
		return false, err
	}

	if !c.RemoveCondition(name) {
		return false, nil
	}
	e.changes.touchCombatant(c.ID)
	e.log(LogConditionRemoved, "", c.Name, LogPayload{ConditionRemoved: name})
	return true, nil
}

// AttackResult is one recorded attack roll
type AttackResult struct {
	Hit      bool
	Critical bool
	Roll     int
	Total    int
	TargetAC int
}

// RecordAttack logs an attack roll against the target's AC. A natural 20
// always hits and a natural 1 always misses.
func (e *Encounter) RecordAttack(attackerID, targetID string, roll, total int) (*AttackResult, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	if roll < 1 || roll > 20 {
		return nil, errors.InvalidArgumentf("attack roll must be between 1 and 20, got %d", roll)
	}
	attacker, err := e.Combatant(attackerID)
	if err != nil {
		return nil, err
	}
	target, err := e.Combatant(targetID)
	if err != nil {
		return nil, err
	}

	result := &AttackResult{
		Roll:     roll,
		Total:    total,
		TargetAC: target.ArmorClass,
		Critical: roll == 20,
	}
	switch roll {
	case 20:
		result.Hit = true
	case 1:
		result.Hit = false
	default:
		result.Hit = total >= target.ArmorClass
	}

	e.log(LogAttack, attacker.Name, target.Name, LogPayload{Roll: roll, Total: total, Hit: result.Hit})
	return result, nil
}
