package v1alpha1

import (
	"github.com/KirkDiggler/rpg-tracker/internal/engine/tables"
	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/orchestrators/encounter"
)

// Requests. Every message travels as a google.protobuf.Struct whose fields
// are the json names below.

// CreateEncounterRequest creates a NotStarted encounter
type CreateEncounterRequest struct {
	Name      string `json:"name"`
	SessionID string `json:"session_id,omitempty"`
}

// EncounterRequest addresses one encounter
type EncounterRequest struct {
	EncounterID string `json:"encounter_id"`
}

// StartEncounterRequest starts combat, optionally renaming the encounter
type StartEncounterRequest struct {
	EncounterID string `json:"encounter_id"`
	Name        string `json:"name,omitempty"`
}

// AddCombatantRequest adds a combatant to the turn order
type AddCombatantRequest struct {
	EncounterID     string `json:"encounter_id"`
	Kind            string `json:"kind"`
	Name            string `json:"name"`
	ReferenceID     string `json:"reference_id,omitempty"`
	MaxHP           int    `json:"max_hp"`
	CurrentHP       *int   `json:"current_hp,omitempty"`
	TempHP          int    `json:"temp_hp,omitempty"`
	ArmorClass      int    `json:"armor_class"`
	InitiativeBonus int    `json:"initiative_bonus"`
	RollInitiative  bool   `json:"roll_initiative,omitempty"`
}

// CombatantRequest addresses one combatant
type CombatantRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
}

// RollInitiativeRequest rolls for one combatant, or everyone without an id
type RollInitiativeRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id,omitempty"`
	Sort        bool   `json:"sort,omitempty"`
}

// SetInitiativeRequest stores a score rolled at the table
type SetInitiativeRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
	Initiative  int    `json:"initiative"`
}

// AmountRequest carries damage, healing or temp HP
type AmountRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
	Amount      int    `json:"amount"`
	Source      string `json:"source,omitempty"`
}

// DeathSaveRequest records a death save made at the table
type DeathSaveRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
	Success     bool   `json:"success"`
	Roll        int    `json:"roll,omitempty"`
}

// ConcentrationRequest starts or ends concentration
type ConcentrationRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
	Spell       string `json:"spell,omitempty"`
	LogBroken   bool   `json:"log_broken,omitempty"`
}

// ConditionRequest adds or removes a condition
type ConditionRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
	Condition   string `json:"condition"`
}

// DurationMessage is a duration on the wire. Kind picks which other fields
// are read.
type DurationMessage struct {
	Kind     string `json:"kind"`
	N        int    `json:"n,omitempty"`
	Creature string `json:"creature,omitempty"`
	DC       int    `json:"dc,omitempty"`
	Ability  string `json:"ability,omitempty"`
}

// SaveMessage is a save requirement on the wire
type SaveMessage struct {
	Ability string `json:"ability"`
	DC      int    `json:"dc"`
	Timing  string `json:"timing"`
}

// ApplyEffectRequest attaches a status effect
type ApplyEffectRequest struct {
	EncounterID           string          `json:"encounter_id"`
	TargetID              string          `json:"target_id"`
	Name                  string          `json:"name"`
	Description           string          `json:"description,omitempty"`
	SourceName            string          `json:"source_name,omitempty"`
	SourceSpell           string          `json:"source_spell,omitempty"`
	CasterID              string          `json:"caster_id,omitempty"`
	Duration              DurationMessage `json:"duration"`
	Save                  *SaveMessage    `json:"save,omitempty"`
	RequiresConcentration bool            `json:"requires_concentration,omitempty"`
	IsBeneficial          bool            `json:"is_beneficial,omitempty"`
	IsHidden              bool            `json:"is_hidden,omitempty"`
}

// EffectRequest addresses one effect
type EffectRequest struct {
	EncounterID string `json:"encounter_id"`
	EffectID    string `json:"effect_id"`
}

// ResolveSaveRequest applies a saving throw total to an effect
type ResolveSaveRequest struct {
	EncounterID string `json:"encounter_id"`
	EffectID    string `json:"effect_id"`
	Total       int    `json:"total"`
}

// InitializeSpellPoolRequest sets up a combatant's slots
type InitializeSpellPoolRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
	ClassName   string `json:"class_name"`
	Level       int    `json:"level"`
	CustomSlots []int  `json:"custom_slots,omitempty"`
}

// SpellSlotRequest spends or restores a slot; level 0 is the pact pool
type SpellSlotRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
	Level       int    `json:"level"`
}

// RestRequest takes a short or long rest
type RestRequest struct {
	EncounterID string `json:"encounter_id"`
	CombatantID string `json:"combatant_id"`
	Long        bool   `json:"long,omitempty"`
}

// CastSpellRequest casts a spell. Without level the spell is looked up.
type CastSpellRequest struct {
	EncounterID   string `json:"encounter_id"`
	CasterID      string `json:"caster_id"`
	TargetID      string `json:"target_id,omitempty"`
	SpellName     string `json:"spell_name"`
	SlotLevel     int    `json:"slot_level,omitempty"`
	Level         *int   `json:"level,omitempty"`
	Concentration bool   `json:"concentration,omitempty"`
}

// RecordAttackRequest logs an attack roll
type RecordAttackRequest struct {
	EncounterID string `json:"encounter_id"`
	AttackerID  string `json:"attacker_id"`
	TargetID    string `json:"target_id"`
	Roll        int    `json:"roll"`
	Total       int    `json:"total"`
}

// AddNoteRequest appends a Custom entry
type AddNoteRequest struct {
	EncounterID string `json:"encounter_id"`
	Actor       string `json:"actor,omitempty"`
	Text        string `json:"text"`
}

// LogRequest reads or watches the log after a sequence
type LogRequest struct {
	EncounterID   string `json:"encounter_id"`
	AfterSequence int64  `json:"after_sequence,omitempty"`
}

// RateEncounterRequest rates monster XP against a party
type RateEncounterRequest struct {
	PartyLevels []int `json:"party_levels"`
	MonsterXP   []int `json:"monster_xp"`
}

// Responses

// EncounterMessage is an encounter with its records
type EncounterMessage struct {
	Encounter          combat.CombatEncounter     `json:"encounter"`
	Combatants         []combat.Combatant         `json:"combatants"`
	Effects            []combat.StatusEffect      `json:"effects"`
	Pools              []combat.SpellResourcePool `json:"pools"`
	CurrentCombatantID string                     `json:"current_combatant_id,omitempty"`
}

// EncounterResponse is returned by GetEncounter
type EncounterResponse struct {
	Encounter *EncounterMessage `json:"encounter"`
}

// MutationResponse is returned by every call that changes an encounter.
// Result holds the call's own payload.
type MutationResponse struct {
	Encounter *EncounterMessage `json:"encounter"`
	Entries   []combat.LogEntry `json:"entries"`
	Result    any               `json:"result,omitempty"`
}

// InitiativeMessage is one initiative roll
type InitiativeMessage struct {
	CombatantID string `json:"combatant_id"`
	Name        string `json:"name"`
	Roll        int    `json:"roll"`
	Total       int    `json:"total"`
}

// CombatantResult is the payload of AddCombatant and RemoveCombatant
type CombatantResult struct {
	Combatant  combat.Combatant   `json:"combatant"`
	Initiative *InitiativeMessage `json:"initiative,omitempty"`
}

// InitiativeResult is the payload of RollInitiative and SetInitiative
type InitiativeResult struct {
	Rolls []InitiativeMessage `json:"rolls"`
}

// TurnResult is the payload of NextTurn and PreviousTurn
type TurnResult struct {
	Round        int                   `json:"round"`
	TurnIndex    int                   `json:"turn_index"`
	Current      combat.Combatant      `json:"current"`
	RoundStarted bool                  `json:"round_started"`
	Expired      []combat.StatusEffect `json:"expired,omitempty"`
}

// DeathSaveMessage is the state of a combatant's death saves
type DeathSaveMessage struct {
	Roll       int  `json:"roll,omitempty"`
	Success    bool `json:"success"`
	Successes  int  `json:"successes"`
	Failures   int  `json:"failures"`
	Stabilized bool `json:"stabilized"`
	Died       bool `json:"died"`
}

// DamageResult is the payload of ApplyDamage
type DamageResult struct {
	Amount            int                   `json:"amount"`
	AbsorbedByTemp    int                   `json:"absorbed_by_temp"`
	HPBefore          int                   `json:"hp_before"`
	HPAfter           int                   `json:"hp_after"`
	DroppedToZero     bool                  `json:"dropped_to_zero"`
	Defeated          bool                  `json:"defeated"`
	DeathSave         *DeathSaveMessage     `json:"death_save,omitempty"`
	ConcentrationDC   int                   `json:"concentration_dc,omitempty"`
	ConcentrationLost string                `json:"concentration_lost,omitempty"`
	Target            combat.Combatant      `json:"target"`
	SavesRequired     []combat.StatusEffect `json:"saves_required,omitempty"`
	EndedEffects      []combat.StatusEffect `json:"ended_effects,omitempty"`
}

// HealResult is the payload of ApplyHealing
type HealResult struct {
	Amount   int  `json:"amount"`
	Healed   int  `json:"healed"`
	HPBefore int  `json:"hp_before"`
	HPAfter  int  `json:"hp_after"`
	Revived  bool `json:"revived"`
}

// ChangedResult reports whether a call changed anything
type ChangedResult struct {
	Changed bool `json:"changed"`
}

// ConcentrationResult is the payload of the concentration calls
type ConcentrationResult struct {
	Previous     string                `json:"previous,omitempty"`
	EndedEffects []combat.StatusEffect `json:"ended_effects,omitempty"`
}

// EffectResult is the payload of ApplyEffect and DispelEffect
type EffectResult struct {
	Effect     combat.StatusEffect `json:"effect"`
	Registered bool                `json:"registered"`
}

// SaveResult is the payload of ResolveSave
type SaveResult struct {
	DC        int  `json:"dc"`
	Total     int  `json:"total"`
	Succeeded bool `json:"succeeded"`
	Ended     bool `json:"ended"`
}

// PoolResult is the payload of the spell pool calls
type PoolResult struct {
	Pool    combat.SpellResourcePool `json:"pool"`
	Changed bool                     `json:"changed"`
}

// CastResult is the payload of CastSpell
type CastResult struct {
	SpellLevel            int    `json:"spell_level"`
	SlotLevel             int    `json:"slot_level"`
	UsedPactSlot          bool   `json:"used_pact_slot"`
	Concentration         bool   `json:"concentration"`
	ReplacedConcentration string `json:"replaced_concentration,omitempty"`
}

// AttackResult is the payload of RecordAttack
type AttackResult struct {
	Hit      bool `json:"hit"`
	Critical bool `json:"critical"`
	Roll     int  `json:"roll"`
	Total    int  `json:"total"`
	TargetAC int  `json:"target_ac"`
}

// LogResponse is returned by GetLog
type LogResponse struct {
	Entries []combat.LogEntry `json:"entries"`
}

// ThresholdsMessage is a party's XP thresholds
type ThresholdsMessage struct {
	Easy   int `json:"easy"`
	Medium int `json:"medium"`
	Hard   int `json:"hard"`
	Deadly int `json:"deadly"`
}

// RatingResponse is returned by RateEncounter
type RatingResponse struct {
	Party      ThresholdsMessage `json:"party"`
	BaseXP     int               `json:"base_xp"`
	Multiplier float64           `json:"multiplier"`
	AdjustedXP int               `json:"adjusted_xp"`
	Difficulty string            `json:"difficulty"`
}

func toEncounterMessage(v *encounter.EncounterView) *EncounterMessage {
	if v == nil {
		return nil
	}
	msg := &EncounterMessage{
		Encounter:  v.Encounter,
		Combatants: v.Combatants,
		Effects:    v.Effects,
		Pools:      v.Pools,
	}
	if current := v.Current(); current != nil {
		msg.CurrentCombatantID = current.ID
	}
	return msg
}

func mutation(res encounter.Result, payload any) *MutationResponse {
	return &MutationResponse{
		Encounter: toEncounterMessage(res.Encounter),
		Entries:   res.Entries,
		Result:    payload,
	}
}

func toInitiativeMessage(r combat.InitiativeResult) InitiativeMessage {
	return InitiativeMessage{
		CombatantID: r.CombatantID,
		Name:        r.Name,
		Roll:        r.Roll,
		Total:       r.Total,
	}
}

func toDeathSaveMessage(roll int, r combat.DeathSaveResult) *DeathSaveMessage {
	return &DeathSaveMessage{
		Roll:       roll,
		Success:    r.Success,
		Successes:  r.Successes,
		Failures:   r.Failures,
		Stabilized: r.Stabilized,
		Died:       r.Died,
	}
}

func toRatingResponse(r tables.Rating) *RatingResponse {
	return &RatingResponse{
		Party: ThresholdsMessage{
			Easy:   r.Party.Easy,
			Medium: r.Party.Medium,
			Hard:   r.Party.Hard,
			Deadly: r.Party.Deadly,
		},
		BaseXP:     r.BaseXP,
		Multiplier: r.Multiplier,
		AdjustedXP: r.AdjustedXP,
		Difficulty: string(r.Difficulty),
	}
}
