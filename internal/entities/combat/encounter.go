package combat

import (
	"sort"
	"strings"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/idgen"
)

// EncounterState is the turn order state machine state
type EncounterState string

// Encounter states. Ended is terminal.
const (
	StateNotStarted EncounterState = "not_started"
	StateActive     EncounterState = "active"
	StateEnded      EncounterState = "ended"
)

// CombatEncounter is the persisted shape of the aggregate root
type CombatEncounter struct {
	ID               string         `json:"id"`
	SessionID        string         `json:"session_id,omitempty"`
	Name             string         `json:"name"`
	State            EncounterState `json:"state"`
	StartedAt        *time.Time     `json:"started_at,omitempty"`
	EndedAt          *time.Time     `json:"ended_at,omitempty"`
	CurrentRound     int            `json:"current_round"`
	CurrentTurnIndex int            `json:"current_turn_index"`
	CombatantIDs     []string       `json:"combatant_ids"`
	NextSortOrder    int            `json:"next_sort_order"`
}

// IsActive reports whether turns can be taken
func (e *CombatEncounter) IsActive() bool {
	return e.State == StateActive
}

// Clone returns a copy safe to hand to persistence
func (e *CombatEncounter) Clone() CombatEncounter {
	out := *e
	out.CombatantIDs = append([]string(nil), e.CombatantIDs...)
	if e.StartedAt != nil {
		t := *e.StartedAt
		out.StartedAt = &t
	}
	if e.EndedAt != nil {
		t := *e.EndedAt
		out.EndedAt = &t
	}
	return out
}

// Config holds the collaborators an Encounter needs
type Config struct {
	IDs    idgen.Generator
	Clock  clock.Clock
	Roller dice.Roller
}

// Validate checks the config
func (c *Config) Validate() error {
	vb := errors.NewValidationBuilder()

	if c.IDs == nil {
		vb.RequiredField("IDs")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}

	return vb.Build()
}

// Encounter is the in-memory aggregate: the encounter record, its ordered
// combatants, their status effects and spell pools. It is not safe for
// concurrent use; callers serialize access.
type Encounter struct {
	record     CombatEncounter
	combatants []*Combatant
	effects    []*StatusEffect
	pools      map[string]*SpellResourcePool

	ids    idgen.Generator
	clock  clock.Clock
	roller dice.Roller

	changes *ChangeSet
}

// NewEncounter creates a NotStarted encounter
func NewEncounter(cfg *Config, id, name, sessionID string) (*Encounter, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidArgument("encounter id is required")
	}

	enc := newEncounter(cfg)
	enc.record = CombatEncounter{
		ID:           id,
		SessionID:    sessionID,
		Name:         strings.TrimSpace(name),
		State:        StateNotStarted,
		CurrentRound: 1,
	}
	enc.changes.Encounter = true
	return enc, nil
}

// LoadEncounter rebuilds an aggregate from persisted records. Combatants
// follow the record's order; ones the record does not list are dropped.
func LoadEncounter(cfg *Config, rec CombatEncounter, combatants []Combatant, effects []StatusEffect, pools []SpellResourcePool) (*Encounter, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	enc := newEncounter(cfg)
	enc.record = rec.Clone()

	byID := make(map[string]Combatant, len(combatants))
	for _, c := range combatants {
		byID[c.ID] = c
	}
	ordered := make([]string, 0, len(rec.CombatantIDs))
	for _, id := range rec.CombatantIDs {
		c, ok := byID[id]
		if !ok {
			continue
		}
		loaded := c.Clone()
		enc.combatants = append(enc.combatants, &loaded)
		ordered = append(ordered, id)
	}
	enc.record.CombatantIDs = ordered

	for i := range effects {
		if enc.combatant(effects[i].CombatantID) == nil {
			continue
		}
		loaded := effects[i].Clone()
		enc.effects = append(enc.effects, &loaded)
	}
	for i := range pools {
		if enc.combatant(pools[i].CombatantID) == nil {
			continue
		}
		loaded := pools[i].Clone()
		enc.pools[loaded.CombatantID] = &loaded
	}

	if enc.record.CurrentRound < 1 {
		enc.record.CurrentRound = 1
	}
	enc.clampTurnIndex()
	return enc, nil
}

func newEncounter(cfg *Config) *Encounter {
	return &Encounter{
		pools:   make(map[string]*SpellResourcePool),
		ids:     cfg.IDs,
		clock:   cfg.Clock,
		roller:  cfg.Roller,
		changes: newChangeSet(),
	}
}

// ID returns the encounter id
func (e *Encounter) ID() string {
	return e.record.ID
}

// Record returns a copy of the encounter record
func (e *Encounter) Record() CombatEncounter {
	return e.record.Clone()
}

// State returns the state machine state
func (e *Encounter) State() EncounterState {
	return e.record.State
}

// Round returns the current round
func (e *Encounter) Round() int {
	return e.record.CurrentRound
}

// TurnIndex returns the current turn index
func (e *Encounter) TurnIndex() int {
	return e.record.CurrentTurnIndex
}

// Combatants returns the combatants in turn order
func (e *Encounter) Combatants() []*Combatant {
	return append([]*Combatant(nil), e.combatants...)
}

// Combatant looks up a combatant by id
func (e *Encounter) Combatant(id string) (*Combatant, error) {
	c := e.combatant(id)
	if c == nil {
		return nil, errors.NotFoundf("combatant %s not found", id)
	}
	return c, nil
}

func (e *Encounter) combatant(id string) *Combatant {
	for _, c := range e.combatants {
		if c.ID == id {
			return c
		}
	}
	return nil
}

func (e *Encounter) combatantIndex(id string) int {
	for i, c := range e.combatants {
		if c.ID == id {
			return i
		}
	}
	return -1
}

// Current returns the combatant whose turn it is, nil when there is no valid turn
func (e *Encounter) Current() *Combatant {
	if !e.record.IsActive() || len(e.combatants) == 0 {
		return nil
	}
	return e.combatants[e.record.CurrentTurnIndex]
}

// Effects returns the effects on a combatant in application order
func (e *Encounter) Effects(combatantID string) []*StatusEffect {
	var out []*StatusEffect
	for _, eff := range e.effects {
		if eff.CombatantID == combatantID {
			out = append(out, eff)
		}
	}
	return out
}

// AllEffects returns every active effect in application order
func (e *Encounter) AllEffects() []*StatusEffect {
	return append([]*StatusEffect(nil), e.effects...)
}

// Effect looks up an effect by id
func (e *Encounter) Effect(id string) (*StatusEffect, error) {
	for _, eff := range e.effects {
		if eff.ID == id {
			return eff, nil
		}
	}
	return nil, errors.NotFoundf("status effect %s not found", id)
}

// Pool returns the spell pool of a combatant
func (e *Encounter) Pool(combatantID string) (*SpellResourcePool, error) {
	pool, ok := e.pools[combatantID]
	if !ok {
		return nil, errors.NotFoundf("spell pool for combatant %s not found", combatantID)
	}
	return pool, nil
}

// Pools returns every spell pool ordered by combatant turn order
func (e *Encounter) Pools() []*SpellResourcePool {
	out := make([]*SpellResourcePool, 0, len(e.pools))
	for _, c := range e.combatants {
		if pool, ok := e.pools[c.ID]; ok {
			out = append(out, pool)
		}
	}
	return out
}

func (e *Encounter) requireNotEnded() error {
	if e.record.State == StateEnded {
		return errors.InvalidTransitionf("encounter %s has ended", e.record.ID)
	}
	return nil
}

func (e *Encounter) requireTurns() error {
	switch e.record.State {
	case StateActive:
	case StateNotStarted:
		return errors.InvalidTransitionf("encounter %s has not started", e.record.ID)
	case StateEnded:
		return errors.InvalidTransitionf("encounter %s has ended", e.record.ID)
	}
	if len(e.combatants) == 0 {
		return errors.InvalidTransitionf("encounter %s has no combatants", e.record.ID)
	}
	return nil
}

func (e *Encounter) clampTurnIndex() {
	switch {
	case len(e.combatants) == 0:
		e.record.CurrentTurnIndex = 0
	case e.record.CurrentTurnIndex < 0:
		e.record.CurrentTurnIndex = 0
	case e.record.CurrentTurnIndex >= len(e.combatants):
		e.record.CurrentTurnIndex = 0
	}
}

func (e *Encounter) syncOrder() {
	ids := make([]string, len(e.combatants))
	for i, c := range e.combatants {
		ids[i] = c.ID
	}
	e.record.CombatantIDs = ids
	e.changes.Encounter = true
}

func (e *Encounter) log(kind LogKind, actor, target string, payload LogPayload) {
	e.changes.Logs = append(e.changes.Logs, LogRecord{
		Kind:    kind,
		Round:   e.record.CurrentRound,
		Actor:   actor,
		Target:  target,
		Payload: payload,
	})
}

// AddNote appends a Custom entry. Notes are accepted in every state since
// they are how past entries get corrected.
func (e *Encounter) AddNote(actor, text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return errors.InvalidArgument("note text is required")
	}
	e.log(LogCustom, actor, "", LogPayload{Text: text})
	return nil
}

// sortCombatants orders by initiative descending, then sort order ascending
func sortCombatants(list []*Combatant) {
	sort.SliceStable(list, func(i, j int) bool {
		if list[i].Initiative != list[j].Initiative {
			return list[i].Initiative > list[j].Initiative
		}
		return list[i].SortOrder < list[j].SortOrder
	})
}
