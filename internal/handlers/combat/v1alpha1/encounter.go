package v1alpha1

import (
	"context"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/orchestrators/encounter"
)

// CreateEncounter creates a NotStarted encounter
func (h *Handler) CreateEncounter(ctx context.Context, req *CreateEncounterRequest) (*MutationResponse, error) {
	out, err := h.encounterService.CreateEncounter(ctx, &encounter.CreateEncounterInput{
		Name:      req.Name,
		SessionID: req.SessionID,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, nil), nil
}

// GetEncounter returns an encounter with its records
func (h *Handler) GetEncounter(ctx context.Context, req *EncounterRequest) (*EncounterResponse, error) {
	out, err := h.encounterService.GetEncounter(ctx, &encounter.GetEncounterInput{EncounterID: req.EncounterID})
	if err != nil {
		return nil, err
	}
	return &EncounterResponse{Encounter: toEncounterMessage(out.Encounter)}, nil
}

// StartEncounter starts combat
func (h *Handler) StartEncounter(ctx context.Context, req *StartEncounterRequest) (*MutationResponse, error) {
	out, err := h.encounterService.StartEncounter(ctx, &encounter.StartEncounterInput{
		EncounterID: req.EncounterID,
		Name:        req.Name,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, nil), nil
}

// EndEncounter ends combat
func (h *Handler) EndEncounter(ctx context.Context, req *EncounterRequest) (*MutationResponse, error) {
	out, err := h.encounterService.EndEncounter(ctx, &encounter.EndEncounterInput{EncounterID: req.EncounterID})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, nil), nil
}

// AddCombatant adds a combatant to the turn order
func (h *Handler) AddCombatant(ctx context.Context, req *AddCombatantRequest) (*MutationResponse, error) {
	kind := combat.CombatantKind(req.Kind)
	if req.Kind == "" {
		kind = combat.KindMonster
	}
	out, err := h.encounterService.AddCombatant(ctx, &encounter.AddCombatantInput{
		EncounterID: req.EncounterID,
		Combatant: &combat.CombatantConfig{
			Kind:            kind,
			ReferenceID:     req.ReferenceID,
			Name:            req.Name,
			InitiativeBonus: req.InitiativeBonus,
			MaxHP:           req.MaxHP,
			CurrentHP:       req.CurrentHP,
			TempHP:          req.TempHP,
			ArmorClass:      req.ArmorClass,
		},
		RollInitiative: req.RollInitiative,
	})
	if err != nil {
		return nil, err
	}

	result := &CombatantResult{Combatant: out.Combatant}
	if out.Initiative != nil {
		msg := toInitiativeMessage(*out.Initiative)
		result.Initiative = &msg
	}
	return mutation(out.Result, result), nil
}

// RemoveCombatant drops a combatant with its effects and spell pool
func (h *Handler) RemoveCombatant(ctx context.Context, req *CombatantRequest) (*MutationResponse, error) {
	out, err := h.encounterService.RemoveCombatant(ctx, &encounter.RemoveCombatantInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &CombatantResult{Combatant: out.Removed}), nil
}

// RollInitiative rolls initiative
func (h *Handler) RollInitiative(ctx context.Context, req *RollInitiativeRequest) (*MutationResponse, error) {
	out, err := h.encounterService.RollInitiative(ctx, &encounter.RollInitiativeInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Sort:        req.Sort,
	})
	if err != nil {
		return nil, err
	}

	result := &InitiativeResult{Rolls: make([]InitiativeMessage, 0, len(out.Rolls))}
	for _, r := range out.Rolls {
		result.Rolls = append(result.Rolls, toInitiativeMessage(r))
	}
	return mutation(out.Result, result), nil
}

// SetInitiative stores an initiative rolled at the table
func (h *Handler) SetInitiative(ctx context.Context, req *SetInitiativeRequest) (*MutationResponse, error) {
	out, err := h.encounterService.SetInitiative(ctx, &encounter.SetInitiativeInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Initiative:  req.Initiative,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &InitiativeResult{
		Rolls: []InitiativeMessage{toInitiativeMessage(out.Initiative)},
	}), nil
}

// SortByInitiative orders the combatants by initiative
func (h *Handler) SortByInitiative(ctx context.Context, req *EncounterRequest) (*MutationResponse, error) {
	out, err := h.encounterService.SortByInitiative(ctx, &encounter.SortByInitiativeInput{EncounterID: req.EncounterID})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, nil), nil
}

// NextTurn advances the turn
func (h *Handler) NextTurn(ctx context.Context, req *EncounterRequest) (*MutationResponse, error) {
	out, err := h.encounterService.NextTurn(ctx, &encounter.TurnInput{EncounterID: req.EncounterID})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, toTurnResult(out)), nil
}

// PreviousTurn steps the turn back
func (h *Handler) PreviousTurn(ctx context.Context, req *EncounterRequest) (*MutationResponse, error) {
	out, err := h.encounterService.PreviousTurn(ctx, &encounter.TurnInput{EncounterID: req.EncounterID})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, toTurnResult(out)), nil
}

func toTurnResult(out *encounter.TurnOutput) *TurnResult {
	return &TurnResult{
		Round:        out.Round,
		TurnIndex:    out.TurnIndex,
		Current:      out.Current,
		RoundStarted: out.RoundStarted,
		Expired:      out.Expired,
	}
}

// ApplyDamage damages a combatant
func (h *Handler) ApplyDamage(ctx context.Context, req *AmountRequest) (*MutationResponse, error) {
	out, err := h.encounterService.ApplyDamage(ctx, &encounter.ApplyDamageInput{
		EncounterID: req.EncounterID,
		TargetID:    req.CombatantID,
		Amount:      req.Amount,
		Source:      req.Source,
	})
	if err != nil {
		return nil, err
	}

	d := out.Damage
	result := &DamageResult{
		Amount:            d.Amount,
		AbsorbedByTemp:    d.AbsorbedByTemp,
		HPBefore:          d.HPBefore,
		HPAfter:           d.HPAfter,
		DroppedToZero:     d.DroppedToZero,
		Defeated:          d.Defeated,
		ConcentrationDC:   d.ConcentrationDC,
		ConcentrationLost: d.ConcentrationLost,
		Target:            out.Target,
		SavesRequired:     out.SavesRequired,
		EndedEffects:      out.EndedEffects,
	}
	if d.DeathSave != nil {
		result.DeathSave = toDeathSaveMessage(0, *d.DeathSave)
	}
	return mutation(out.Result, result), nil
}

// ApplyHealing heals a combatant
func (h *Handler) ApplyHealing(ctx context.Context, req *AmountRequest) (*MutationResponse, error) {
	out, err := h.encounterService.ApplyHealing(ctx, &encounter.ApplyHealingInput{
		EncounterID: req.EncounterID,
		TargetID:    req.CombatantID,
		Amount:      req.Amount,
		Source:      req.Source,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &HealResult{
		Amount:   out.Healing.Amount,
		Healed:   out.Healing.Healed,
		HPBefore: out.Healing.HPBefore,
		HPAfter:  out.Healing.HPAfter,
		Revived:  out.Healing.Revived,
	}), nil
}

// SetTempHP grants temp HP; amount 0 clears it
func (h *Handler) SetTempHP(ctx context.Context, req *AmountRequest) (*MutationResponse, error) {
	out, err := h.encounterService.SetTempHP(ctx, &encounter.TempHPInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Amount:      req.Amount,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &ChangedResult{Changed: out.Changed}), nil
}

// RecordDeathSave records a death save made at the table
func (h *Handler) RecordDeathSave(ctx context.Context, req *DeathSaveRequest) (*MutationResponse, error) {
	out, err := h.encounterService.RecordDeathSave(ctx, &encounter.DeathSaveInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Success:     req.Success,
		Roll:        req.Roll,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, toDeathSaveMessage(out.Roll, out.DeathSave)), nil
}

// RollDeathSave rolls a death save
func (h *Handler) RollDeathSave(ctx context.Context, req *CombatantRequest) (*MutationResponse, error) {
	out, err := h.encounterService.RollDeathSave(ctx, &encounter.RollDeathSaveInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, toDeathSaveMessage(out.Roll, out.DeathSave)), nil
}

// StartConcentration puts a combatant on a concentration spell
func (h *Handler) StartConcentration(ctx context.Context, req *ConcentrationRequest) (*MutationResponse, error) {
	if req.Spell == "" {
		return nil, errors.InvalidArgument("spell is required")
	}
	out, err := h.encounterService.StartConcentration(ctx, &encounter.ConcentrationInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Spell:       req.Spell,
		LogBroken:   req.LogBroken,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &ConcentrationResult{Previous: out.Previous, EndedEffects: out.EndedEffects}), nil
}

// EndConcentration ends concentration and the effects it held
func (h *Handler) EndConcentration(ctx context.Context, req *ConcentrationRequest) (*MutationResponse, error) {
	out, err := h.encounterService.EndConcentration(ctx, &encounter.ConcentrationInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &ConcentrationResult{Previous: out.Previous, EndedEffects: out.EndedEffects}), nil
}

// AddCondition adds a condition
func (h *Handler) AddCondition(ctx context.Context, req *ConditionRequest) (*MutationResponse, error) {
	out, err := h.encounterService.AddCondition(ctx, &encounter.ConditionInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Condition:   req.Condition,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &ChangedResult{Changed: out.Changed}), nil
}

// RemoveCondition removes a condition
func (h *Handler) RemoveCondition(ctx context.Context, req *ConditionRequest) (*MutationResponse, error) {
	out, err := h.encounterService.RemoveCondition(ctx, &encounter.ConditionInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Condition:   req.Condition,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &ChangedResult{Changed: out.Changed}), nil
}

// ApplyEffect attaches a status effect
func (h *Handler) ApplyEffect(ctx context.Context, req *ApplyEffectRequest) (*MutationResponse, error) {
	duration, err := combat.ParseDuration(
		req.Duration.Kind,
		req.Duration.N,
		req.Duration.Creature,
		req.Duration.DC,
		req.Duration.Ability,
	)
	if err != nil {
		return nil, err
	}

	cfg := &combat.StatusEffectConfig{
		Name:                  req.Name,
		Description:           req.Description,
		SourceName:            req.SourceName,
		SourceSpell:           req.SourceSpell,
		CasterID:              req.CasterID,
		Duration:              duration,
		RequiresConcentration: req.RequiresConcentration,
		IsBeneficial:          req.IsBeneficial,
		IsHidden:              req.IsHidden,
	}
	if req.Save != nil {
		cfg.Save = &combat.SaveRequirement{
			Ability: combat.Ability(req.Save.Ability),
			DC:      req.Save.DC,
			Timing:  combat.SaveTiming(req.Save.Timing),
		}
	}

	out, err := h.encounterService.ApplyEffect(ctx, &encounter.ApplyEffectInput{
		EncounterID: req.EncounterID,
		TargetID:    req.TargetID,
		Effect:      cfg,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &EffectResult{Effect: out.Effect, Registered: out.Registered}), nil
}

// DispelEffect removes an effect
func (h *Handler) DispelEffect(ctx context.Context, req *EffectRequest) (*MutationResponse, error) {
	out, err := h.encounterService.DispelEffect(ctx, &encounter.DispelEffectInput{
		EncounterID: req.EncounterID,
		EffectID:    req.EffectID,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &EffectResult{Effect: out.Removed}), nil
}

// ResolveSave applies a saving throw to an effect
func (h *Handler) ResolveSave(ctx context.Context, req *ResolveSaveRequest) (*MutationResponse, error) {
	out, err := h.encounterService.ResolveSave(ctx, &encounter.ResolveSaveInput{
		EncounterID: req.EncounterID,
		EffectID:    req.EffectID,
		Total:       req.Total,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &SaveResult{
		DC:        out.DC,
		Total:     out.Total,
		Succeeded: out.Succeeded,
		Ended:     out.Ended,
	}), nil
}

// InitializeSpellPool sets up a combatant's spell slots
func (h *Handler) InitializeSpellPool(ctx context.Context, req *InitializeSpellPoolRequest) (*MutationResponse, error) {
	out, err := h.encounterService.InitializeSpellPool(ctx, &encounter.InitializeSpellPoolInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		ClassName:   req.ClassName,
		Level:       req.Level,
		CustomSlots: req.CustomSlots,
	})
	return poolResponse(out, err)
}

// UseSpellSlot spends a slot
func (h *Handler) UseSpellSlot(ctx context.Context, req *SpellSlotRequest) (*MutationResponse, error) {
	out, err := h.encounterService.UseSpellSlot(ctx, &encounter.SpellSlotInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Level:       req.Level,
	})
	return poolResponse(out, err)
}

// RestoreSpellSlot restores a slot
func (h *Handler) RestoreSpellSlot(ctx context.Context, req *SpellSlotRequest) (*MutationResponse, error) {
	out, err := h.encounterService.RestoreSpellSlot(ctx, &encounter.SpellSlotInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Level:       req.Level,
	})
	return poolResponse(out, err)
}

// Rest takes a short or long rest
func (h *Handler) Rest(ctx context.Context, req *RestRequest) (*MutationResponse, error) {
	out, err := h.encounterService.Rest(ctx, &encounter.RestInput{
		EncounterID: req.EncounterID,
		CombatantID: req.CombatantID,
		Long:        req.Long,
	})
	return poolResponse(out, err)
}

func poolResponse(out *encounter.SpellPoolOutput, err error) (*MutationResponse, error) {
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &PoolResult{Pool: out.Pool, Changed: out.Changed}), nil
}

// CastSpell casts a spell
func (h *Handler) CastSpell(ctx context.Context, req *CastSpellRequest) (*MutationResponse, error) {
	out, err := h.encounterService.CastSpell(ctx, &encounter.CastSpellInput{
		EncounterID:   req.EncounterID,
		CasterID:      req.CasterID,
		TargetID:      req.TargetID,
		SpellName:     req.SpellName,
		SlotLevel:     req.SlotLevel,
		Level:         req.Level,
		Concentration: req.Concentration,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &CastResult{
		SpellLevel:            out.SpellLevel,
		SlotLevel:             out.SlotLevel,
		UsedPactSlot:          out.UsedPactSlot,
		Concentration:         out.Concentration,
		ReplacedConcentration: out.ReplacedConcentration,
	}), nil
}

// RecordAttack logs an attack roll
func (h *Handler) RecordAttack(ctx context.Context, req *RecordAttackRequest) (*MutationResponse, error) {
	out, err := h.encounterService.RecordAttack(ctx, &encounter.RecordAttackInput{
		EncounterID: req.EncounterID,
		AttackerID:  req.AttackerID,
		TargetID:    req.TargetID,
		Roll:        req.Roll,
		Total:       req.Total,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, &AttackResult{
		Hit:      out.Attack.Hit,
		Critical: out.Attack.Critical,
		Roll:     out.Attack.Roll,
		Total:    out.Attack.Total,
		TargetAC: out.Attack.TargetAC,
	}), nil
}

// AddNote appends a Custom log entry
func (h *Handler) AddNote(ctx context.Context, req *AddNoteRequest) (*MutationResponse, error) {
	out, err := h.encounterService.AddNote(ctx, &encounter.AddNoteInput{
		EncounterID: req.EncounterID,
		Actor:       req.Actor,
		Text:        req.Text,
	})
	if err != nil {
		return nil, err
	}
	return mutation(out.Result, nil), nil
}

// GetLog returns log entries after a sequence
func (h *Handler) GetLog(ctx context.Context, req *LogRequest) (*LogResponse, error) {
	out, err := h.encounterService.GetLog(ctx, &encounter.GetLogInput{
		EncounterID:   req.EncounterID,
		AfterSequence: req.AfterSequence,
	})
	if err != nil {
		return nil, err
	}
	return &LogResponse{Entries: out.Entries}, nil
}

// RateEncounter rates monster XP against a party
func (h *Handler) RateEncounter(ctx context.Context, req *RateEncounterRequest) (*RatingResponse, error) {
	out, err := h.encounterService.RateEncounter(ctx, &encounter.RateEncounterInput{
		PartyLevels: req.PartyLevels,
		MonsterXP:   req.MonsterXP,
	})
	if err != nil {
		return nil, err
	}
	return toRatingResponse(out.Rating), nil
}
