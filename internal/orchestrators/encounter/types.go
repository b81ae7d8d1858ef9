package encounter

import (
	"github.com/KirkDiggler/rpg-tracker/internal/engine/tables"
	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
)

// EncounterView is a copy of an encounter's records, safe to read after the
// service moves on.
type EncounterView struct {
	Encounter  combat.CombatEncounter
	Combatants []combat.Combatant
	Effects    []combat.StatusEffect
	Pools      []combat.SpellResourcePool
}

// Current returns the acting combatant, nil when there is none
func (v *EncounterView) Current() *combat.Combatant {
	if v == nil || v.Encounter.State != combat.StateActive {
		return nil
	}
	idx := v.Encounter.CurrentTurnIndex
	if idx < 0 || idx >= len(v.Combatants) {
		return nil
	}
	return &v.Combatants[idx]
}

// Result is returned by every mutation next to its own fields. A mutation
// whose records failed to persist still returns its Result with the error.
type Result struct {
	Encounter *EncounterView
	// Entries are the log entries the mutation appended
	Entries []combat.LogEntry
}

// CreateEncounterInput defines the request for creating an encounter
type CreateEncounterInput struct {
	Name      string
	SessionID string
}

// CreateEncounterOutput defines the response for creating an encounter
type CreateEncounterOutput struct {
	Result
}

// GetEncounterInput defines the request for reading an encounter
type GetEncounterInput struct {
	EncounterID string
}

// GetEncounterOutput defines the response for reading an encounter
type GetEncounterOutput struct {
	Encounter *EncounterView
}

// StartEncounterInput defines the request for starting combat
type StartEncounterInput struct {
	EncounterID string
	// Name replaces the encounter name when set
	Name string
}

// StartEncounterOutput defines the response for starting combat
type StartEncounterOutput struct {
	Result
}

// EndEncounterInput defines the request for ending combat
type EndEncounterInput struct {
	EncounterID string
}

// EndEncounterOutput defines the response for ending combat
type EndEncounterOutput struct {
	Result
}

// AddCombatantInput defines the request for adding a combatant
type AddCombatantInput struct {
	EncounterID string
	Combatant   *combat.CombatantConfig
	// RollInitiative rolls for the new combatant right away
	RollInitiative bool
}

// AddCombatantOutput defines the response for adding a combatant
type AddCombatantOutput struct {
	Result
	Combatant  combat.Combatant
	Initiative *combat.InitiativeResult
}

// RemoveCombatantInput defines the request for removing a combatant
type RemoveCombatantInput struct {
	EncounterID string
	CombatantID string
}

// RemoveCombatantOutput defines the response for removing a combatant
type RemoveCombatantOutput struct {
	Result
	Removed combat.Combatant
}

// RollInitiativeInput defines the request for rolling initiative. An empty
// CombatantID rolls for everyone.
type RollInitiativeInput struct {
	EncounterID string
	CombatantID string
	// Sort reorders the list after rolling
	Sort bool
}

// RollInitiativeOutput defines the response for rolling initiative
type RollInitiativeOutput struct {
	Result
	Rolls []combat.InitiativeResult
}

// SetInitiativeInput defines the request for entering a rolled initiative
type SetInitiativeInput struct {
	EncounterID string
	CombatantID string
	Initiative  int
}

// SetInitiativeOutput defines the response for entering a rolled initiative
type SetInitiativeOutput struct {
	Result
	Initiative combat.InitiativeResult
}

// SortByInitiativeInput defines the request for reordering combatants
type SortByInitiativeInput struct {
	EncounterID string
}

// SortByInitiativeOutput defines the response for reordering combatants
type SortByInitiativeOutput struct {
	Result
}

// TurnInput defines the request for moving the turn pointer
type TurnInput struct {
	EncounterID string
}

// TurnOutput defines the response for moving the turn pointer
type TurnOutput struct {
	Result
	Round        int
	TurnIndex    int
	Current      combat.Combatant
	RoundStarted bool
	Expired      []combat.StatusEffect
}

// ApplyDamageInput defines the request for damaging a combatant
type ApplyDamageInput struct {
	EncounterID string
	TargetID    string
	Amount      int
	// Source is the display name of the attacker, optional
	Source string
}

// ApplyDamageOutput defines the response for damaging a combatant
type ApplyDamageOutput struct {
	Result
	Damage        combat.DamageResult
	Target        combat.Combatant
	SavesRequired []combat.StatusEffect
	EndedEffects  []combat.StatusEffect
}

// ApplyHealingInput defines the request for healing a combatant
type ApplyHealingInput struct {
	EncounterID string
	TargetID    string
	Amount      int
	Source      string
}

// ApplyHealingOutput defines the response for healing a combatant
type ApplyHealingOutput struct {
	Result
	Healing combat.HealResult
}

// TempHPInput defines the request for granting temp HP. Amount 0 removes it.
type TempHPInput struct {
	EncounterID string
	CombatantID string
	Amount      int
}

// TempHPOutput defines the response for granting temp HP
type TempHPOutput struct {
	Result
	Changed bool
}

// DeathSaveInput defines the request for recording a death save
type DeathSaveInput struct {
	EncounterID string
	CombatantID string
	Success     bool
	// Roll is the d20 shown, optional
	Roll int
}

// RollDeathSaveInput defines the request for rolling a death save
type RollDeathSaveInput struct {
	EncounterID string
	CombatantID string
}

// DeathSaveOutput defines the response for a death save
type DeathSaveOutput struct {
	Result
	Roll      int
	DeathSave combat.DeathSaveResult
}

// ConcentrationInput defines the request for starting or ending
// concentration. Spell and LogBroken are ignored when ending.
type ConcentrationInput struct {
	EncounterID string
	CombatantID string
	Spell       string
	// LogBroken records the replaced spell as a broken concentration
	LogBroken bool
}

// ConcentrationOutput defines the response for a concentration change
type ConcentrationOutput struct {
	Result
	// Previous is the spell concentration moved away from
	Previous     string
	EndedEffects []combat.StatusEffect
}

// ConditionInput defines the request for adding or removing a condition
type ConditionInput struct {
	EncounterID string
	CombatantID string
	Condition   string
}

// ConditionOutput defines the response for a condition change
type ConditionOutput struct {
	Result
	Changed bool
}

// ApplyEffectInput defines the request for applying a status effect
type ApplyEffectInput struct {
	EncounterID string
	TargetID    string
	Effect      *combat.StatusEffectConfig
}

// ApplyEffectOutput defines the response for applying a status effect.
// Instantaneous effects are logged but not registered.
type ApplyEffectOutput struct {
	Result
	Effect     combat.StatusEffect
	Registered bool
}

// DispelEffectInput defines the request for removing a status effect
type DispelEffectInput struct {
	EncounterID string
	EffectID    string
}

// DispelEffectOutput defines the response for removing a status effect
type DispelEffectOutput struct {
	Result
	Removed combat.StatusEffect
}

// ResolveSaveInput defines the request for a saving throw against an effect
type ResolveSaveInput struct {
	EncounterID string
	EffectID    string
	Total       int
}

// ResolveSaveOutput defines the response for a saving throw
type ResolveSaveOutput struct {
	Result
	DC        int
	Total     int
	Succeeded bool
	Ended     bool
}

// InitializeSpellPoolInput defines the request for setting up spell slots.
// CustomSlots, when set, bypasses the class tables.
type InitializeSpellPoolInput struct {
	EncounterID string
	CombatantID string
	ClassName   string
	Level       int
	CustomSlots []int
}

// SpellPoolOutput defines the response for every spell pool operation
type SpellPoolOutput struct {
	Result
	Pool    combat.SpellResourcePool
	Changed bool
}

// SpellSlotInput defines the request for using or restoring a slot
type SpellSlotInput struct {
	EncounterID string
	CombatantID string
	// Level 0 targets the pact pool
	Level int
}

// RestInput defines the request for a rest
type RestInput struct {
	EncounterID string
	CombatantID string
	Long        bool
}

// CastSpellInput defines the request for casting a spell. Level and
// Concentration are looked up by name when Level is nil.
type CastSpellInput struct {
	EncounterID   string
	CasterID      string
	TargetID      string
	SpellName     string
	SlotLevel     int
	Level         *int
	Concentration bool
}

// CastSpellOutput defines the response for casting a spell
type CastSpellOutput struct {
	Result
	SpellLevel            int
	SlotLevel             int
	UsedPactSlot          bool
	Concentration         bool
	ReplacedConcentration string
}

// RecordAttackInput defines the request for logging an attack roll
type RecordAttackInput struct {
	EncounterID string
	AttackerID  string
	TargetID    string
	Roll        int
	Total       int
}

// RecordAttackOutput defines the response for logging an attack roll
type RecordAttackOutput struct {
	Result
	Attack combat.AttackResult
}

// AddNoteInput defines the request for a free-text log entry
type AddNoteInput struct {
	EncounterID string
	Actor       string
	Text        string
}

// AddNoteOutput defines the response for a free-text log entry
type AddNoteOutput struct {
	Result
}

// GetLogInput defines the request for reading the log
type GetLogInput struct {
	EncounterID string
	// AfterSequence skips entries up to and including this sequence
	AfterSequence int64
}

// GetLogOutput defines the response for reading the log
type GetLogOutput struct {
	Entries []combat.LogEntry
}

// WatchLogInput defines the request for a live log feed
type WatchLogInput struct {
	EncounterID string
	Handler     func(entry combat.LogEntry)
}

// WatchLogOutput defines the response for a live log feed
type WatchLogOutput struct {
	SubscriptionID string
}

// UnwatchLogInput defines the request for stopping a live log feed
type UnwatchLogInput struct {
	SubscriptionID string
}

// UnwatchLogOutput defines the response for stopping a live log feed
type UnwatchLogOutput struct{}

// RateEncounterInput defines the request for an encounter difficulty rating
type RateEncounterInput struct {
	PartyLevels []int
	MonsterXP   []int
}

// RateEncounterOutput defines the response for an encounter difficulty rating
type RateEncounterOutput struct {
	Rating tables.Rating
}
