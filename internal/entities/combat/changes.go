package combat

// ChangeSet lists what one or more mutations touched since the last
// TakeChanges call, so persistence can copy only those records.
type ChangeSet struct {
	Encounter bool

	Combatants        map[string]struct{}
	RemovedCombatants []string

	Effects        map[string]struct{}
	RemovedEffects []string

	Pools        map[string]struct{}
	RemovedPools []string

	// Logs are the records to append, in the order they happened
	Logs []LogRecord
}

func newChangeSet() *ChangeSet {
	return &ChangeSet{
		Combatants: make(map[string]struct{}),
		Effects:    make(map[string]struct{}),
		Pools:      make(map[string]struct{}),
	}
}

// Empty reports whether nothing changed
func (c *ChangeSet) Empty() bool {
	return !c.Encounter &&
		len(c.Combatants) == 0 && len(c.RemovedCombatants) == 0 &&
		len(c.Effects) == 0 && len(c.RemovedEffects) == 0 &&
		len(c.Pools) == 0 && len(c.RemovedPools) == 0 &&
		len(c.Logs) == 0
}

func (c *ChangeSet) touchCombatant(id string) {
	c.Combatants[id] = struct{}{}
}

func (c *ChangeSet) touchEffect(id string) {
	c.Effects[id] = struct{}{}
}

func (c *ChangeSet) touchPool(id string) {
	c.Pools[id] = struct{}{}
}

func (c *ChangeSet) removeCombatant(id string) {
	delete(c.Combatants, id)
	c.RemovedCombatants = append(c.RemovedCombatants, id)
}

func (c *ChangeSet) removeEffect(id string) {
	delete(c.Effects, id)
	c.RemovedEffects = append(c.RemovedEffects, id)
}

func (c *ChangeSet) removePool(id string) {
	delete(c.Pools, id)
	c.RemovedPools = append(c.RemovedPools, id)
}

// Snapshot holds copies of every changed record. It is safe to read after
// the aggregate moves on.
type Snapshot struct {
	Encounter *CombatEncounter

	Combatants        []Combatant
	RemovedCombatants []string

	Effects        []StatusEffect
	RemovedEffects []string

	Pools        []SpellResourcePool
	RemovedPools []string

	Logs []LogRecord
}

// Empty reports whether the snapshot carries nothing to persist or publish
func (s *Snapshot) Empty() bool {
	return s.Encounter == nil &&
		len(s.Combatants) == 0 && len(s.RemovedCombatants) == 0 &&
		len(s.Effects) == 0 && len(s.RemovedEffects) == 0 &&
		len(s.Pools) == 0 && len(s.RemovedPools) == 0 &&
		len(s.Logs) == 0
}

// TakeChanges copies every changed record and resets tracking
func (e *Encounter) TakeChanges() *Snapshot {
	changes := e.changes
	e.changes = newChangeSet()

	snap := &Snapshot{
		RemovedCombatants: changes.RemovedCombatants,
		RemovedEffects:    changes.RemovedEffects,
		RemovedPools:      changes.RemovedPools,
		Logs:              changes.Logs,
	}
	if changes.Encounter {
		rec := e.record.Clone()
		snap.Encounter = &rec
	}
	for _, c := range e.combatants {
		if _, ok := changes.Combatants[c.ID]; ok {
			snap.Combatants = append(snap.Combatants, c.Clone())
		}
	}
	for _, eff := range e.effects {
		if _, ok := changes.Effects[eff.ID]; ok {
			snap.Effects = append(snap.Effects, eff.Clone())
		}
	}
	for _, pool := range e.Pools() {
		if _, ok := changes.Pools[pool.ID]; ok {
			snap.Pools = append(snap.Pools, pool.Clone())
		}
	}
	return snap
}
