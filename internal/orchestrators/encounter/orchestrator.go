// Package encounter is the single writer over combat encounters: it applies
// operations to the in-memory aggregates, publishes their log entries and
// persists the records they changed.
package encounter

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"golang.org/x/sync/errgroup"

	"github.com/KirkDiggler/rpg-tracker/internal/clients/external"
	"github.com/KirkDiggler/rpg-tracker/internal/combatlog"
	"github.com/KirkDiggler/rpg-tracker/internal/engine/tables"
	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/metrics"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/idgen"
	"github.com/KirkDiggler/rpg-tracker/internal/repositories/records"
)

// Service defines the interface for encounter operations. Mutations return
// their output together with an Unavailable error when the changed records
// could not be persisted; the in-memory change is kept.
type Service interface {
	// CreateEncounter creates a NotStarted encounter
	CreateEncounter(ctx context.Context, input *CreateEncounterInput) (*CreateEncounterOutput, error)

	// GetEncounter returns a copy of an encounter's records
	GetEncounter(ctx context.Context, input *GetEncounterInput) (*GetEncounterOutput, error)

	// StartEncounter moves a NotStarted encounter to Active
	StartEncounter(ctx context.Context, input *StartEncounterInput) (*StartEncounterOutput, error)

	// EndEncounter moves an encounter to the terminal Ended state
	EndEncounter(ctx context.Context, input *EndEncounterInput) (*EndEncounterOutput, error)

	AddCombatant(ctx context.Context, input *AddCombatantInput) (*AddCombatantOutput, error)
	RemoveCombatant(ctx context.Context, input *RemoveCombatantInput) (*RemoveCombatantOutput, error)

	// RollInitiative rolls for one combatant or, with no id, for everyone
	RollInitiative(ctx context.Context, input *RollInitiativeInput) (*RollInitiativeOutput, error)
	SetInitiative(ctx context.Context, input *SetInitiativeInput) (*SetInitiativeOutput, error)
	SortByInitiative(ctx context.Context, input *SortByInitiativeInput) (*SortByInitiativeOutput, error)

	// NextTurn advances the turn pointer, running the expiry hooks
	NextTurn(ctx context.Context, input *TurnInput) (*TurnOutput, error)

	// PreviousTurn moves the turn pointer back without running hooks
	PreviousTurn(ctx context.Context, input *TurnInput) (*TurnOutput, error)

	ApplyDamage(ctx context.Context, input *ApplyDamageInput) (*ApplyDamageOutput, error)
	ApplyHealing(ctx context.Context, input *ApplyHealingInput) (*ApplyHealingOutput, error)

	// SetTempHP grants temp HP without stacking; amount 0 clears it
	SetTempHP(ctx context.Context, input *TempHPInput) (*TempHPOutput, error)

	RecordDeathSave(ctx context.Context, input *DeathSaveInput) (*DeathSaveOutput, error)
	RollDeathSave(ctx context.Context, input *RollDeathSaveInput) (*DeathSaveOutput, error)

	StartConcentration(ctx context.Context, input *ConcentrationInput) (*ConcentrationOutput, error)
	EndConcentration(ctx context.Context, input *ConcentrationInput) (*ConcentrationOutput, error)

	AddCondition(ctx context.Context, input *ConditionInput) (*ConditionOutput, error)
	RemoveCondition(ctx context.Context, input *ConditionInput) (*ConditionOutput, error)

	ApplyEffect(ctx context.Context, input *ApplyEffectInput) (*ApplyEffectOutput, error)
	DispelEffect(ctx context.Context, input *DispelEffectInput) (*DispelEffectOutput, error)

	// ResolveSave applies a saving throw total to an effect's save requirement
	ResolveSave(ctx context.Context, input *ResolveSaveInput) (*ResolveSaveOutput, error)

	InitializeSpellPool(ctx context.Context, input *InitializeSpellPoolInput) (*SpellPoolOutput, error)

	// UseSpellSlot spends a slot; level 0 spends a pact slot
	UseSpellSlot(ctx context.Context, input *SpellSlotInput) (*SpellPoolOutput, error)

	// RestoreSpellSlot gives a slot back; level 0 restores a pact slot
	RestoreSpellSlot(ctx context.Context, input *SpellSlotInput) (*SpellPoolOutput, error)

	Rest(ctx context.Context, input *RestInput) (*SpellPoolOutput, error)

	// CastSpell spends a slot, starts concentration when needed and logs the cast
	CastSpell(ctx context.Context, input *CastSpellInput) (*CastSpellOutput, error)

	RecordAttack(ctx context.Context, input *RecordAttackInput) (*RecordAttackOutput, error)

	// AddNote appends a free-text entry; allowed after the encounter ended
	AddNote(ctx context.Context, input *AddNoteInput) (*AddNoteOutput, error)

	// GetLog returns an encounter's entries in append order
	GetLog(ctx context.Context, input *GetLogInput) (*GetLogOutput, error)

	// WatchLog calls the handler for every entry appended from now on. The
	// handler runs on the writer's goroutine and must not block.
	WatchLog(ctx context.Context, input *WatchLogInput) (*WatchLogOutput, error)
	UnwatchLog(ctx context.Context, input *UnwatchLogInput) (*UnwatchLogOutput, error)

	// RateEncounter rates monster XP against a party
	RateEncounter(ctx context.Context, input *RateEncounterInput) (*RateEncounterOutput, error)
}

// Config holds the dependencies for the encounter orchestrator
type Config struct {
	Repository  records.Repository
	Log         *combatlog.Log
	IDGenerator idgen.Generator
	Clock       clock.Clock
	Roller      dice.Roller

	// Slots defaults to the standard progression tables
	Slots *tables.Slots
	// Spells looks up spell levels for CastSpell; optional
	Spells external.Client
	// Metrics defaults to instruments that record nothing
	Metrics *metrics.Metrics
}

// Validate ensures all required dependencies are provided
func (c *Config) Validate() error {
	if c == nil {
		return errors.InvalidArgument("config is required")
	}
	vb := errors.NewValidationBuilder()

	if c.Repository == nil {
		vb.RequiredField("Repository")
	}
	if c.Log == nil {
		vb.RequiredField("Log")
	}
	if c.IDGenerator == nil {
		vb.RequiredField("IDGenerator")
	}
	if c.Clock == nil {
		vb.RequiredField("Clock")
	}
	if c.Roller == nil {
		vb.RequiredField("Roller")
	}

	return vb.Build()
}

type orchestrator struct {
	stores  *records.Stores
	log     *combatlog.Log
	idGen   idgen.Generator
	clock   clock.Clock
	roller  dice.Roller
	slots   *tables.Slots
	spells  external.Client
	metrics *metrics.Metrics

	// mu makes the orchestrator the single writer of every aggregate
	mu         sync.Mutex
	encounters map[string]*combat.Encounter
}

// NewOrchestrator creates a new encounter orchestrator with the provided dependencies
func NewOrchestrator(cfg *Config) (Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}

	o := &orchestrator{
		stores:     records.NewStores(cfg.Repository),
		log:        cfg.Log,
		idGen:      cfg.IDGenerator,
		clock:      cfg.Clock,
		roller:     cfg.Roller,
		slots:      cfg.Slots,
		spells:     cfg.Spells,
		metrics:    cfg.Metrics,
		encounters: make(map[string]*combat.Encounter),
	}
	if o.slots == nil {
		o.slots = tables.NewSlots()
	}
	if o.metrics == nil {
		o.metrics = metrics.Noop()
	}
	return o, nil
}

func (o *orchestrator) encounterConfig() *combat.Config {
	return &combat.Config{
		IDs:    o.idGen,
		Clock:  o.clock,
		Roller: o.roller,
	}
}

// CreateEncounter creates a NotStarted encounter
func (o *orchestrator) CreateEncounter(ctx context.Context, input *CreateEncounterInput) (_ *CreateEncounterOutput, err error) {
	started := time.Now()
	defer func() { o.metrics.RecordOperation(ctx, "create_encounter", started, err) }()

	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, errors.InvalidArgument("encounter name is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	enc, err := combat.NewEncounter(o.encounterConfig(), o.idGen.Generate(), input.Name, input.SessionID)
	if err != nil {
		return nil, err
	}
	o.encounters[enc.ID()] = enc
	o.metrics.ActiveEncounters.Add(ctx, 1)
	o.metrics.RecordTransition(ctx, string(enc.State()))

	slog.Info("Created encounter",
		"encounter_id", enc.ID(),
		"name", enc.Record().Name,
		"session_id", input.SessionID,
	)

	res, err := o.commit(ctx, enc)
	return &CreateEncounterOutput{Result: res}, err
}

// GetEncounter returns a copy of an encounter's records
func (o *orchestrator) GetEncounter(ctx context.Context, input *GetEncounterInput) (*GetEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if strings.TrimSpace(input.EncounterID) == "" {
		return nil, errors.InvalidArgument("encounter id is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	enc, err := o.load(ctx, input.EncounterID)
	if err != nil {
		return nil, err
	}
	return &GetEncounterOutput{Encounter: view(enc)}, nil
}

// GetLog returns an encounter's entries in append order
func (o *orchestrator) GetLog(ctx context.Context, input *GetLogInput) (*GetLogOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if strings.TrimSpace(input.EncounterID) == "" {
		return nil, errors.InvalidArgument("encounter id is required")
	}

	o.mu.Lock()
	_, err := o.load(ctx, input.EncounterID)
	o.mu.Unlock()
	if err != nil {
		return nil, err
	}

	return &GetLogOutput{Entries: o.log.EntriesSince(input.EncounterID, input.AfterSequence)}, nil
}

// WatchLog subscribes a handler to one encounter, or to all of them when
// the id is empty
func (o *orchestrator) WatchLog(ctx context.Context, input *WatchLogInput) (*WatchLogOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if input.EncounterID != "" {
		o.mu.Lock()
		_, err := o.load(ctx, input.EncounterID)
		o.mu.Unlock()
		if err != nil {
			return nil, err
		}
	}

	id, err := o.log.Subscribe(input.EncounterID, input.Handler)
	if err != nil {
		return nil, err
	}
	slog.Debug("Log watcher added", "encounter_id", input.EncounterID, "subscription_id", id)
	return &WatchLogOutput{SubscriptionID: id}, nil
}

// UnwatchLog removes a log subscription
func (o *orchestrator) UnwatchLog(_ context.Context, input *UnwatchLogInput) (*UnwatchLogOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	if err := o.log.Unsubscribe(input.SubscriptionID); err != nil {
		return nil, err
	}
	return &UnwatchLogOutput{}, nil
}

// RateEncounter rates monster XP against a party
func (o *orchestrator) RateEncounter(_ context.Context, input *RateEncounterInput) (*RateEncounterOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input is required")
	}
	rating, err := tables.RateEncounter(input.PartyLevels, input.MonsterXP)
	if err != nil {
		return nil, err
	}
	return &RateEncounterOutput{Rating: *rating}, nil
}

// mutate runs fn against the encounter as the single writer, then appends
// the log entries and persists the records fn changed. The returned Result
// is nil only when fn itself failed.
func (o *orchestrator) mutate(ctx context.Context, op, encounterID string, fn func(enc *combat.Encounter) error) (res *Result, err error) {
	started := time.Now()
	defer func() { o.metrics.RecordOperation(ctx, op, started, err) }()

	if strings.TrimSpace(encounterID) == "" {
		return nil, errors.InvalidArgument("encounter id is required")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	enc, err := o.load(ctx, encounterID)
	if err != nil {
		return nil, err
	}

	before := enc.State()
	opErr := fn(enc)
	if after := enc.State(); after != before {
		o.metrics.RecordTransition(ctx, string(after))
		slog.Info("Encounter state changed",
			"encounter_id", encounterID,
			"from", before,
			"to", after,
		)
	}

	// a failed operation may still have recorded changes before failing,
	// e.g. initiative rolled for part of the list
	result, persistErr := o.commit(ctx, enc)
	if opErr != nil {
		slog.Debug("Encounter operation rejected",
			"encounter_id", encounterID,
			"operation", op,
			"error", opErr,
		)
		return nil, opErr
	}
	if enc.State() == combat.StateEnded && persistErr == nil {
		o.evict(ctx, encounterID)
	}
	return &result, persistErr
}

// evict drops an ended encounter and its log from memory. Later reads
// rebuild both from the store. The caller holds mu.
func (o *orchestrator) evict(ctx context.Context, id string) {
	if _, ok := o.encounters[id]; ok {
		delete(o.encounters, id)
		o.metrics.ActiveEncounters.Add(ctx, -1)
	}
	o.log.Forget(id)
	slog.Debug("Evicted ended encounter", "encounter_id", id)
}

func (o *orchestrator) commit(ctx context.Context, enc *combat.Encounter) (Result, error) {
	snap := enc.TakeChanges()

	var entries []combat.LogEntry
	if len(snap.Logs) > 0 {
		var err error
		entries, err = o.log.AppendAll(enc.ID(), snap.Logs)
		if err != nil {
			return Result{}, errors.Wrap(err, "failed to append log entries")
		}
		for _, entry := range entries {
			o.metrics.RecordLogEntry(ctx, string(entry.Kind))
		}
	}

	res := Result{Encounter: view(enc), Entries: entries}
	if snap.Empty() {
		return res, nil
	}
	return res, o.persist(ctx, enc.ID(), snap, entries)
}

type persistStep struct {
	kind records.Kind
	id   string
	run  func() error
}

// persist writes one mutation's records. Each record kind is written in
// order on its own goroutine so list order survives a reload.
func (o *orchestrator) persist(ctx context.Context, encounterID string, snap *combat.Snapshot, entries []combat.LogEntry) error {
	var groups [][]persistStep

	if snap.Encounter != nil {
		rec := snap.Encounter
		groups = append(groups, []persistStep{{records.KindEncounter, rec.ID, func() error {
			return o.stores.Encounters.Save(ctx, rec)
		}}})
	}

	var combatants []persistStep
	for i := range snap.Combatants {
		c := &snap.Combatants[i]
		combatants = append(combatants, persistStep{records.KindCombatant, c.ID, func() error {
			return o.stores.Combatants.Save(ctx, c)
		}})
	}
	for _, id := range snap.RemovedCombatants {
		combatants = append(combatants, deleteStep(ctx, o.stores.Combatants, id))
	}
	groups = append(groups, combatants)

	var effects []persistStep
	for i := range snap.Effects {
		eff := &snap.Effects[i]
		effects = append(effects, persistStep{records.KindEffect, eff.ID, func() error {
			return o.stores.Effects.Save(ctx, eff)
		}})
	}
	for _, id := range snap.RemovedEffects {
		effects = append(effects, deleteStep(ctx, o.stores.Effects, id))
	}
	groups = append(groups, effects)

	var pools []persistStep
	for i := range snap.Pools {
		pool := &snap.Pools[i]
		pools = append(pools, persistStep{records.KindPool, pool.ID, func() error {
			return o.stores.Pools.Save(ctx, pool)
		}})
	}
	for _, id := range snap.RemovedPools {
		pools = append(pools, deleteStep(ctx, o.stores.Pools, id))
	}
	groups = append(groups, pools)

	var logs []persistStep
	for i := range entries {
		entry := &entries[i]
		logs = append(logs, persistStep{records.KindLogEntry, entry.ID, func() error {
			return o.stores.Logs.Save(ctx, entry)
		}})
	}
	groups = append(groups, logs)

	var g errgroup.Group
	for _, steps := range groups {
		if len(steps) == 0 {
			continue
		}
		g.Go(func() error {
			var first error
			for _, step := range steps {
				if err := step.run(); err != nil {
					o.metrics.RecordPersistenceFailure(ctx, string(step.kind))
					slog.Error("Failed to persist record",
						"encounter_id", encounterID,
						"kind", step.kind,
						"id", step.id,
						"error", err,
					)
					if first == nil {
						first = errors.PersistenceFailed(err, string(step.kind), step.id)
					}
				}
			}
			return first
		})
	}
	return g.Wait()
}

type deleter interface {
	Kind() records.Kind
	Delete(ctx context.Context, id string) error
}

// deleteStep removes a record; one that was never stored is already gone
func deleteStep(ctx context.Context, store deleter, id string) persistStep {
	return persistStep{store.Kind(), id, func() error {
		if err := store.Delete(ctx, id); err != nil && !errors.IsNotFound(err) {
			return err
		}
		return nil
	}}
}

// load returns the cached aggregate or rebuilds it from the store. Ended
// encounters are rebuilt on every call and never cached. The caller holds mu.
func (o *orchestrator) load(ctx context.Context, id string) (*combat.Encounter, error) {
	if enc, ok := o.encounters[id]; ok {
		return enc, nil
	}

	rec, err := o.stores.Encounters.Get(ctx, id)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NotFoundf("encounter %s not found", id)
		}
		return nil, errors.Wrapf(err, "failed to load encounter %s", id)
	}

	var (
		combatants []combat.Combatant
		effects    []combat.StatusEffect
		pools      []combat.SpellResourcePool
		entries    []combat.LogEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		combatants, err = o.stores.Combatants.ListByEncounter(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		effects, err = o.stores.Effects.ListByEncounter(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		pools, err = o.stores.Pools.ListByEncounter(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		entries, err = o.stores.Logs.ListByEncounter(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Wrapf(err, "failed to load records of encounter %s", id)
	}

	enc, err := combat.LoadEncounter(o.encounterConfig(), *rec, combatants, effects, pools)
	if err != nil {
		return nil, err
	}
	o.log.Restore(id, entries)
	if enc.State() != combat.StateEnded {
		o.encounters[id] = enc
		o.metrics.ActiveEncounters.Add(ctx, 1)
	}

	slog.Info("Loaded encounter",
		"encounter_id", id,
		"state", enc.State(),
		"combatants", len(combatants),
		"log_entries", len(entries),
	)
	return enc, nil
}

func view(enc *combat.Encounter) *EncounterView {
	v := &EncounterView{Encounter: enc.Record()}
	for _, c := range enc.Combatants() {
		v.Combatants = append(v.Combatants, c.Clone())
	}
	v.Effects = cloneEffects(enc.AllEffects())
	for _, p := range enc.Pools() {
		v.Pools = append(v.Pools, p.Clone())
	}
	return v
}

func cloneEffects(effects []*combat.StatusEffect) []combat.StatusEffect {
	if len(effects) == 0 {
		return nil
	}
	out := make([]combat.StatusEffect, len(effects))
	for i, eff := range effects {
		out[i] = eff.Clone()
	}
	return out
}
