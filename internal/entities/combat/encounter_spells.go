package combat

import (
	"strings"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// InitializeSpellPool gives a combatant a pool from the class progression,
// replacing any existing one.
func (e *Encounter) InitializeSpellPool(combatantID string, table SlotTable, className string, level int) (*SpellResourcePool, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	pool, err := e.poolFor(combatantID)
	if err != nil {
		return nil, err
	}
	if err := pool.InitializeForClassLevel(table, className, level); err != nil {
		return nil, err
	}
	e.commitPool(pool)
	return pool, nil
}

// InitializeCustomSpellPool gives a combatant a pool with caller-supplied maxima
func (e *Encounter) InitializeCustomSpellPool(combatantID, className string, maxima [MaxSpellLevel]int) (*SpellResourcePool, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	pool, err := e.poolFor(combatantID)
	if err != nil {
		return nil, err
	}
	if err := pool.InitializeCustom(className, maxima); err != nil {
		return nil, err
	}
	e.commitPool(pool)
	return pool, nil
}

// poolFor returns the combatant's existing pool or a fresh one that is not
// registered until commitPool.
func (e *Encounter) poolFor(combatantID string) (*SpellResourcePool, error) {
	if _, err := e.Combatant(combatantID); err != nil {
		return nil, err
	}
	if pool, ok := e.pools[combatantID]; ok {
		return pool, nil
	}
	pool := NewSpellResourcePool(combatantID, e.record.ID)
	pool.ID = e.ids.Generate()
	return pool, nil
}

func (e *Encounter) commitPool(pool *SpellResourcePool) {
	e.pools[pool.CombatantID] = pool
	e.changes.touchPool(pool.ID)
}

// UseSlot spends a standard slot. Levels outside 1-9 are rejected here even
// though the pool itself treats them as a no-op.
func (e *Encounter) UseSlot(combatantID string, level int) (bool, error) {
	return e.slotOp(combatantID, level, (*SpellResourcePool).UseSlot)
}

// RestoreSlot gives back a standard slot
func (e *Encounter) RestoreSlot(combatantID string, level int) (bool, error) {
	return e.slotOp(combatantID, level, (*SpellResourcePool).RestoreSlot)
}

func (e *Encounter) slotOp(combatantID string, level int, op func(*SpellResourcePool, int) bool) (bool, error) {
	if err := e.requireNotEnded(); err != nil {
		return false, err
	}
	if !ValidSpellLevel(level) {
		return false, errors.InvalidArgumentf("spell level must be between %d and %d, got %d", MinSpellLevel, MaxSpellLevel, level)
	}
	pool, err := e.Pool(combatantID)
	if err != nil {
		return false, err
	}
	changed := op(pool, level)
	if changed {
		e.changes.touchPool(pool.ID)
	}
	return changed, nil
}

// UsePactSlot spends a pact slot
func (e *Encounter) UsePactSlot(combatantID string) (bool, error) {
	return e.poolOp(combatantID, (*SpellResourcePool).UsePactSlot)
}

// RestorePactSlot gives back a pact slot
func (e *Encounter) RestorePactSlot(combatantID string) (bool, error) {
	return e.poolOp(combatantID, (*SpellResourcePool).RestorePactSlot)
}

// ShortRest refills the combatant's pact slots
func (e *Encounter) ShortRest(combatantID string) error {
	_, err := e.poolOp(combatantID, func(p *SpellResourcePool) bool {
		p.ShortRest()
		return true
	})
	return err
}

// LongRest refills every pool of the combatant
func (e *Encounter) LongRest(combatantID string) error {
	_, err := e.poolOp(combatantID, func(p *SpellResourcePool) bool {
		p.LongRest()
		return true
	})
	return err
}

func (e *Encounter) poolOp(combatantID string, op func(*SpellResourcePool) bool) (bool, error) {
	if err := e.requireNotEnded(); err != nil {
		return false, err
	}
	pool, err := e.Pool(combatantID)
	if err != nil {
		return false, err
	}
	changed := op(pool)
	if changed {
		e.changes.touchPool(pool.ID)
	}
	return changed, nil
}

// SpellInfo is what casting needs to know about a spell
type SpellInfo struct {
	Name          string
	Level         int
	Concentration bool
}

// CastSpellInput describes one cast
type CastSpellInput struct {
	CasterID string
	// TargetID is optional
	TargetID string
	Spell    SpellInfo
	// SlotLevel defaults to the spell's level; higher levels upcast
	SlotLevel int
}

// CastResult describes the slot a cast consumed
type CastResult struct {
	SlotLevel    int
	UsedPactSlot bool
	// ReplacedConcentration is the spell concentration moved away from
	ReplacedConcentration string
}

// CastSpell spends a slot for the spell, preferring a standard slot and
// falling back to a pact slot of high enough level. Cantrips cost nothing.
func (e *Encounter) CastSpell(input *CastSpellInput) (*CastResult, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	spell := input.Spell
	spell.Name = strings.TrimSpace(spell.Name)
	if spell.Name == "" {
		return nil, errors.InvalidArgument("spell name is required")
	}
	if spell.Level < 0 || spell.Level > MaxSpellLevel {
		return nil, errors.InvalidArgumentf("spell level must be between 0 and %d, got %d", MaxSpellLevel, spell.Level)
	}

	caster, err := e.Combatant(input.CasterID)
	if err != nil {
		return nil, err
	}
	var targetName string
	if input.TargetID != "" {
		target, err := e.Combatant(input.TargetID)
		if err != nil {
			return nil, err
		}
		targetName = target.Name
	}

	result := &CastResult{}
	if spell.Level > 0 {
		if err := e.spendSlotFor(caster, spell, input.SlotLevel, result); err != nil {
			return nil, err
		}
	}

	e.log(LogSpellCast, caster.Name, targetName, LogPayload{Spell: spell.Name, SpellLevel: result.SlotLevel})

	if spell.Concentration {
		previous, err := e.startConcentration(caster, spell.Name, false)
		if err != nil {
			return nil, err
		}
		result.ReplacedConcentration = previous
	}
	return result, nil
}

func (e *Encounter) spendSlotFor(caster *Combatant, spell SpellInfo, requested int, result *CastResult) error {
	slotLevel := requested
	if slotLevel == 0 {
		slotLevel = spell.Level
	}
	if !ValidSpellLevel(slotLevel) {
		return errors.InvalidArgumentf("spell level must be between %d and %d, got %d", MinSpellLevel, MaxSpellLevel, slotLevel)
	}
	if slotLevel < spell.Level {
		return errors.InvalidArgumentf("%s cannot be cast with a level %d slot", spell.Name, slotLevel)
	}

	pool, err := e.Pool(caster.ID)
	if err != nil {
		return err
	}

	switch {
	case pool.UseSlot(slotLevel):
		result.SlotLevel = slotLevel
	case pool.Pact.Current > 0 && pool.Pact.SlotLevel >= spell.Level &&
		(requested == 0 || requested == pool.Pact.SlotLevel):
		pool.UsePactSlot()
		result.SlotLevel = pool.Pact.SlotLevel
		result.UsedPactSlot = true
	default:
		return errors.FailedPreconditionf("%s has no level %d slot left for %s", caster.Name, slotLevel, spell.Name)
	}

	e.changes.touchPool(pool.ID)
	return nil
}
