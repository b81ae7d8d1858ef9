package records

import (
	"context"
	"encoding/json"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// KeyFunc returns the storage key of a value
type KeyFunc[T any] func(v *T) (id, encounterID string, sequence int64)

// Collection is a typed view of one record kind stored as JSON
type Collection[T any] struct {
	repo Repository
	kind Kind
	key  KeyFunc[T]
}

// NewCollection creates a typed collection over repo
func NewCollection[T any](repo Repository, kind Kind, key KeyFunc[T]) *Collection[T] {
	return &Collection[T]{repo: repo, kind: kind, key: key}
}

// Kind returns the record kind of the collection
func (c *Collection[T]) Kind() Kind {
	return c.kind
}

// Get loads one value
func (c *Collection[T]) Get(ctx context.Context, id string) (*T, error) {
	out, err := c.repo.Get(ctx, &GetInput{Kind: c.kind, ID: id})
	if err != nil {
		return nil, err
	}
	return c.decode(out.Record)
}

// Save stores one value
func (c *Collection[T]) Save(ctx context.Context, v *T) error {
	if v == nil {
		return errors.InvalidArgumentf("%s cannot be nil", c.kind)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrapf(err, "failed to marshal %s", c.kind)
	}
	id, encounterID, seq := c.key(v)
	_, err = c.repo.Save(ctx, &SaveInput{Record: &Record{
		Kind:        c.kind,
		ID:          id,
		EncounterID: encounterID,
		Sequence:    seq,
		Data:        data,
	}})
	return err
}

// Delete removes one value
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.repo.Delete(ctx, &DeleteInput{Kind: c.kind, ID: id})
	return err
}

// ListByEncounter loads every value of an encounter in stored order
func (c *Collection[T]) ListByEncounter(ctx context.Context, encounterID string) ([]T, error) {
	out, err := c.repo.ListByEncounter(ctx, &ListByEncounterInput{Kind: c.kind, EncounterID: encounterID})
	if err != nil {
		return nil, err
	}
	values := make([]T, 0, len(out.Records))
	for _, rec := range out.Records {
		v, err := c.decode(rec)
		if err != nil {
			return nil, err
		}
		values = append(values, *v)
	}
	return values, nil
}

func (c *Collection[T]) decode(rec *Record) (*T, error) {
	var v T
	if err := json.Unmarshal(rec.Data, &v); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s %s", rec.Kind, rec.ID)
	}
	return &v, nil
}

// Stores groups the typed collections of the encounter aggregate
type Stores struct {
	Encounters *Collection[combat.CombatEncounter]
	Combatants *Collection[combat.Combatant]
	Effects    *Collection[combat.StatusEffect]
	Pools      *Collection[combat.SpellResourcePool]
	Logs       *Collection[combat.LogEntry]
}

// NewStores wires every collection onto one repository
func NewStores(repo Repository) *Stores {
	return &Stores{
		Encounters: NewCollection(repo, KindEncounter, func(e *combat.CombatEncounter) (string, string, int64) {
			return e.ID, e.ID, 0
		}),
		Combatants: NewCollection(repo, KindCombatant, func(c *combat.Combatant) (string, string, int64) {
			return c.ID, c.EncounterID, 0
		}),
		Effects: NewCollection(repo, KindEffect, func(e *combat.StatusEffect) (string, string, int64) {
			return e.ID, e.EncounterID, 0
		}),
		Pools: NewCollection(repo, KindPool, func(p *combat.SpellResourcePool) (string, string, int64) {
			return p.ID, p.EncounterID, 0
		}),
		Logs: NewCollection(repo, KindLogEntry, func(e *combat.LogEntry) (string, string, int64) {
			return e.ID, e.EncounterID, e.Sequence
		}),
	}
}
