package combat

import (
	"strings"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// Start moves a NotStarted encounter to Active at round 1, turn 0 with an
// empty combatant list.
func (e *Encounter) Start(name string) error {
	switch e.record.State {
	case StateNotStarted:
	case StateActive:
		return errors.InvalidTransitionf("encounter %s is already active", e.record.ID)
	case StateEnded:
		return errors.InvalidTransitionf("encounter %s has ended", e.record.ID)
	}

	if name = strings.TrimSpace(name); name != "" {
		e.record.Name = name
	}

	for _, c := range e.combatants {
		e.dropCombatantRecords(c.ID)
	}
	e.combatants = nil

	now := e.clock.Now()
	e.record.State = StateActive
	e.record.StartedAt = &now
	e.record.CurrentRound = 1
	e.record.CurrentTurnIndex = 0
	e.syncOrder()

	e.log(LogCombatStart, "", "", LogPayload{Text: e.record.Name})
	return nil
}

// End moves the encounter to the terminal Ended state
func (e *Encounter) End() error {
	if err := e.requireNotEnded(); err != nil {
		return err
	}

	now := e.clock.Now()
	e.record.State = StateEnded
	e.record.EndedAt = &now
	e.changes.Encounter = true

	e.log(LogCombatEnd, "", "", LogPayload{Text: e.record.Name})
	return nil
}

// AddCombatant appends a combatant. The turn pointer does not move.
func (e *Encounter) AddCombatant(cfg *CombatantConfig) (*Combatant, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	c, err := NewCombatant(cfg)
	if err != nil {
		return nil, err
	}

	c.ID = e.ids.Generate()
	c.EncounterID = e.record.ID
	c.SortOrder = e.record.NextSortOrder
	e.record.NextSortOrder++

	e.combatants = append(e.combatants, c)
	e.syncOrder()
	e.changes.touchCombatant(c.ID)
	return c, nil
}

// RemoveCombatant drops a combatant with its effects and spell pool. A
// removed caster's concentration breaks, taking the effects it held on others
// with it. When the acting combatant is removed the index stays put, so the
// next entry by position takes the turn; if it was last in the order the
// cursor wraps and a new round starts.
func (e *Encounter) RemoveCombatant(id string) (*Combatant, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	idx := e.combatantIndex(id)
	if idx < 0 {
		return nil, errors.NotFoundf("combatant %s not found", id)
	}

	removed := e.combatants[idx]
	if removed.IsConcentrating {
		e.breakConcentration(removed, removed.EndConcentration())
	}

	acting := e.record.State == StateActive && idx == e.record.CurrentTurnIndex
	e.combatants = append(e.combatants[:idx], e.combatants[idx+1:]...)
	if idx < e.record.CurrentTurnIndex {
		e.record.CurrentTurnIndex--
	}

	e.dropCombatantRecords(removed.ID)
	if acting && len(e.combatants) > 0 && idx >= len(e.combatants) {
		e.record.CurrentTurnIndex = 0
		e.startRound()
		current := e.combatants[0]
		e.expire(func(eff *StatusEffect) bool {
			return eff.OnTurnStart(current.Name)
		})
		e.log(LogTurnStart, current.Name, "", LogPayload{})
	}
	e.clampTurnIndex()
	e.syncOrder()
	return removed, nil
}

func (e *Encounter) dropCombatantRecords(id string) {
	kept := e.effects[:0]
	for _, eff := range e.effects {
		if eff.CombatantID == id {
			e.changes.removeEffect(eff.ID)
			continue
		}
		kept = append(kept, eff)
	}
	e.effects = kept

	if pool, ok := e.pools[id]; ok {
		delete(e.pools, id)
		e.changes.removePool(pool.ID)
	}
	e.changes.removeCombatant(id)
}

// InitiativeResult is one initiative roll
type InitiativeResult struct {
	CombatantID string
	Name        string
	Roll        int
	Total       int
}

// RollInitiative rolls a d20 plus the initiative bonus and stores the total.
// The list is not reordered.
func (e *Encounter) RollInitiative(id string) (*InitiativeResult, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	c, err := e.Combatant(id)
	if err != nil {
		return nil, err
	}
	return e.rollInitiative(c)
}

func (e *Encounter) rollInitiative(c *Combatant) (*InitiativeResult, error) {
	roll, err := e.roller.Roll(20)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to roll initiative for %s", c.Name)
	}

	c.Initiative = roll + c.InitiativeBonus
	e.changes.touchCombatant(c.ID)
	e.log(LogInitiativeRoll, c.Name, "", LogPayload{Roll: roll, Total: c.Initiative})

	return &InitiativeResult{
		CombatantID: c.ID,
		Name:        c.Name,
		Roll:        roll,
		Total:       c.Initiative,
	}, nil
}

// RollInitiativeForAll rolls for every combatant in list order
func (e *Encounter) RollInitiativeForAll() ([]*InitiativeResult, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}

	results := make([]*InitiativeResult, 0, len(e.combatants))
	for _, c := range e.combatants {
		result, err := e.rollInitiative(c)
		if err != nil {
			return results, err
		}
		results = append(results, result)
	}
	return results, nil
}

// SetInitiative stores a score rolled outside the engine
func (e *Encounter) SetInitiative(id string, score int) (*InitiativeResult, error) {
	if err := e.requireNotEnded(); err != nil {
		return nil, err
	}
	c, err := e.Combatant(id)
	if err != nil {
		return nil, err
	}

	c.Initiative = score
	e.changes.touchCombatant(c.ID)
	e.log(LogInitiativeRoll, c.Name, "", LogPayload{Total: score})

	return &InitiativeResult{CombatantID: c.ID, Name: c.Name, Total: score}, nil
}

// SortByInitiative orders combatants by initiative descending with ties
// kept in insertion order. The turn index is left as is.
func (e *Encounter) SortByInitiative() error {
	if err := e.requireNotEnded(); err != nil {
		return err
	}
	sortCombatants(e.combatants)
	e.syncOrder()
	return nil
}

// TurnResult describes a turn change
type TurnResult struct {
	Round        int
	TurnIndex    int
	Current      *Combatant
	RoundStarted bool
	// Expired are effects removed by the expiry hooks during this change
	Expired []*StatusEffect
}

// NextTurn ends the current turn and starts the next one. Wrapping past
// the last combatant starts a new round.
func (e *Encounter) NextTurn() (*TurnResult, error) {
	if err := e.requireTurns(); err != nil {
		return nil, err
	}

	result := &TurnResult{}
	previous := e.combatants[e.record.CurrentTurnIndex]
	result.Expired = append(result.Expired, e.expire(func(eff *StatusEffect) bool {
		return eff.OnTurnEnd(previous.Name)
	})...)

	e.record.CurrentTurnIndex++
	if e.record.CurrentTurnIndex >= len(e.combatants) {
		e.record.CurrentTurnIndex = 0
		result.RoundStarted = true
		result.Expired = append(result.Expired, e.startRound()...)
	}
	e.changes.Encounter = true

	current := e.combatants[e.record.CurrentTurnIndex]
	result.Expired = append(result.Expired, e.expire(func(eff *StatusEffect) bool {
		return eff.OnTurnStart(current.Name)
	})...)
	e.log(LogTurnStart, current.Name, "", LogPayload{})

	result.Round = e.record.CurrentRound
	result.TurnIndex = e.record.CurrentTurnIndex
	result.Current = current
	return result, nil
}

// startRound advances the round counter and runs the round-start hooks
func (e *Encounter) startRound() []*StatusEffect {
	e.record.CurrentRound++
	e.changes.Encounter = true
	e.log(LogRoundStart, "", "", LogPayload{})

	ticked := e.expire(func(eff *StatusEffect) bool {
		return eff.OnRoundStart()
	})
	// Effects that ticked but did not expire still changed
	for _, eff := range e.effects {
		if _, ok := eff.Duration.(Rounds); ok {
			e.changes.touchEffect(eff.ID)
		}
	}
	return ticked
}

// PreviousTurn steps the cursor back one position. Wrapping before the first
// combatant returns to the previous round, never below round 1. Expiry hooks
// are not run and removed effects are not restored.
func (e *Encounter) PreviousTurn() (*TurnResult, error) {
	if err := e.requireTurns(); err != nil {
		return nil, err
	}

	e.record.CurrentTurnIndex--
	if e.record.CurrentTurnIndex < 0 {
		e.record.CurrentTurnIndex = len(e.combatants) - 1
		e.record.CurrentRound = max(1, e.record.CurrentRound-1)
	}
	e.changes.Encounter = true

	current := e.combatants[e.record.CurrentTurnIndex]
	e.log(LogTurnStart, current.Name, "", LogPayload{})

	return &TurnResult{
		Round:     e.record.CurrentRound,
		TurnIndex: e.record.CurrentTurnIndex,
		Current:   current,
	}, nil
}

// expire runs hook on every effect, removes the ones that report expiry and
// logs each removal.
func (e *Encounter) expire(hook func(*StatusEffect) bool) []*StatusEffect {
	var expired []*StatusEffect
	kept := e.effects[:0]
	for _, eff := range e.effects {
		if hook(eff) {
			expired = append(expired, eff)
			continue
		}
		kept = append(kept, eff)
	}
	e.effects = kept

	for _, eff := range expired {
		e.afterEffectRemoved(eff)
	}
	return expired
}
