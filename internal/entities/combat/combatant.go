package combat

import (
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/core"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// MaxDeathSaves is the counter value that stabilizes or kills a dying player
const MaxDeathSaves = 3

// CombatantKind is the tagged variant of what a combatant represents
type CombatantKind string

// Combatant kinds
const (
	KindMonster CombatantKind = "monster"
	KindNPC     CombatantKind = "npc"
	KindPlayer  CombatantKind = "player"
)

// Valid reports whether k is one of the known kinds
func (k CombatantKind) Valid() bool {
	switch k {
	case KindMonster, KindNPC, KindPlayer:
		return true
	default:
		return false
	}
}

// makesDeathSaves reports whether reaching 0 HP leaves the combatant dying
// instead of defeated.
func (k CombatantKind) makesDeathSaves() bool {
	switch k {
	case KindPlayer:
		return true
	case KindMonster, KindNPC:
		return false
	default:
		return false
	}
}

// Combatant is one initiative entry with its resource ledger
type Combatant struct {
	ID              string        `json:"id"`
	EncounterID     string        `json:"encounter_id"`
	Kind            CombatantKind `json:"kind"`
	ReferenceID     string        `json:"reference_id,omitempty"`
	Name            string        `json:"name"`
	Initiative      int           `json:"initiative"`
	InitiativeBonus int           `json:"initiative_bonus"`
	CurrentHP       int           `json:"current_hp"`
	MaxHP           int           `json:"max_hp"`
	TempHP          int           `json:"temp_hp"`
	ArmorClass      int           `json:"armor_class"`
	Conditions      []string      `json:"conditions,omitempty"`
	IsDefeated      bool          `json:"is_defeated"`
	SortOrder       int           `json:"sort_order"`

	IsConcentrating    bool   `json:"is_concentrating"`
	ConcentrationSpell string `json:"concentration_spell,omitempty"`

	DeathSaveSuccesses int `json:"death_save_successes"`
	DeathSaveFailures  int `json:"death_save_failures"`
}

// CombatantConfig describes a combatant joining an encounter
type CombatantConfig struct {
	Kind            CombatantKind
	ReferenceID     string
	Name            string
	InitiativeBonus int
	MaxHP           int
	// CurrentHP defaults to MaxHP when nil
	CurrentHP  *int
	TempHP     int
	ArmorClass int
}

// Validate checks the config
func (c *CombatantConfig) Validate() error {
	vb := errors.NewValidationBuilder()

	errors.ValidateRequired("name", c.Name, vb)
	if !c.Kind.Valid() {
		vb.Fieldf("kind", "unknown combatant kind %q", c.Kind)
	}
	if c.MaxHP < 1 {
		vb.Field("max_hp", "must be at least 1")
	}
	if c.CurrentHP != nil {
		errors.ValidateRange("current_hp", *c.CurrentHP, 0, c.MaxHP, vb)
	}
	errors.ValidateNonNegative("temp_hp", c.TempHP, vb)
	errors.ValidateNonNegative("armor_class", c.ArmorClass, vb)

	return vb.Build()
}

// NewCombatant builds a combatant from a validated config. The id and sort
// order are assigned by the encounter it joins.
func NewCombatant(cfg *CombatantConfig) (*Combatant, error) {
	if cfg == nil {
		return nil, errors.InvalidArgument("combatant config is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	current := cfg.MaxHP
	if cfg.CurrentHP != nil {
		current = *cfg.CurrentHP
	}

	c := &Combatant{
		Kind:            cfg.Kind,
		ReferenceID:     cfg.ReferenceID,
		Name:            strings.TrimSpace(cfg.Name),
		InitiativeBonus: cfg.InitiativeBonus,
		CurrentHP:       current,
		MaxHP:           cfg.MaxHP,
		TempHP:          cfg.TempHP,
		ArmorClass:      cfg.ArmorClass,
	}
	if current == 0 && !c.Kind.makesDeathSaves() {
		c.IsDefeated = true
	}
	return c, nil
}

// GetID returns the combatant id
func (c *Combatant) GetID() string {
	return c.ID
}

var _ core.Entity = (*Combatant)(nil)

// GetType returns the combatant kind
func (c *Combatant) GetType() string {
	return string(c.Kind)
}

// Clone returns a deep copy safe to hand to persistence
func (c *Combatant) Clone() Combatant {
	out := *c
	if c.Conditions != nil {
		out.Conditions = append([]string(nil), c.Conditions...)
	}
	return out
}

// IsDead reports three failed death saves. Dead is terminal.
func (c *Combatant) IsDead() bool {
	return c.DeathSaveFailures >= MaxDeathSaves
}

// IsStable reports a 0 HP player that no longer makes death saves
func (c *Combatant) IsStable() bool {
	return c.CurrentHP == 0 && !c.IsDead() && c.DeathSaveSuccesses >= MaxDeathSaves
}

// IsDying reports a 0 HP player that still has to make death saves
func (c *Combatant) IsDying() bool {
	return c.Kind.makesDeathSaves() && c.CurrentHP == 0 && !c.IsDead() && !c.IsStable()
}

// DamageResult describes what a single ApplyDamage call changed
type DamageResult struct {
	Amount         int
	AbsorbedByTemp int
	HPBefore       int
	HPAfter        int
	DroppedToZero  bool
	// Defeated is set when a non-player drops to 0 HP
	Defeated bool
	// DeathSave is set when damage landed on a combatant already at 0 HP
	DeathSave *DeathSaveResult
	// ConcentrationDC is the constitution save needed to keep concentrating,
	// zero when the combatant was not concentrating or concentration ended.
	ConcentrationDC int
	// ConcentrationLost names the spell that ended because HP reached 0
	ConcentrationLost string
}

// ApplyDamage absorbs with temp HP first, then reduces current HP floored at 0.
func (c *Combatant) ApplyDamage(amount int) (*DamageResult, error) {
	if amount < 0 {
		return nil, errors.InvalidArgumentf("damage must not be negative, got %d", amount)
	}
	if c.IsDead() {
		return nil, errors.InvalidTransitionf("%s is dead", c.Name)
	}

	result := &DamageResult{
		Amount:   amount,
		HPBefore: c.CurrentHP,
	}

	remaining := amount
	if c.TempHP > 0 {
		absorbed := min(c.TempHP, remaining)
		c.TempHP -= absorbed
		remaining -= absorbed
		result.AbsorbedByTemp = absorbed
	}

	if c.CurrentHP == 0 {
		result.HPAfter = 0
		if remaining > 0 && !c.IsDefeated && c.Kind.makesDeathSaves() {
			failures := 1
			if remaining >= c.MaxHP {
				failures = 2
			}
			// A stable creature that takes damage starts dying again
			if c.IsStable() {
				c.DeathSaveSuccesses = 0
			}
			result.DeathSave = c.addFailures(failures)
		}
		return result, nil
	}

	c.CurrentHP = max(c.CurrentHP-remaining, 0)
	result.HPAfter = c.CurrentHP

	if c.CurrentHP == 0 {
		result.DroppedToZero = true
		if c.IsConcentrating {
			result.ConcentrationLost = c.ConcentrationSpell
			c.EndConcentration()
		}
		if !c.Kind.makesDeathSaves() {
			c.IsDefeated = true
			result.Defeated = true
		}
		return result, nil
	}

	if c.IsConcentrating && amount > 0 {
		result.ConcentrationDC = ConcentrationSaveDC(amount)
	}

	return result, nil
}

// ConcentrationSaveDC is half the damage taken, minimum 10
func ConcentrationSaveDC(damage int) int {
	return max(10, damage/2)
}

// HealResult describes what a single ApplyHealing call changed
type HealResult struct {
	Amount   int
	Healed   int
	HPBefore int
	HPAfter  int
	// Revived is set when healing lifted the combatant off 0 HP
	Revived bool
}

// ApplyHealing raises current HP capped at max. Temp HP is never touched.
func (c *Combatant) ApplyHealing(amount int) (*HealResult, error) {
	if amount < 0 {
		return nil, errors.InvalidArgumentf("healing must not be negative, got %d", amount)
	}
	if c.IsDead() {
		return nil, errors.InvalidTransitionf("%s is dead", c.Name)
	}

	result := &HealResult{
		Amount:   amount,
		HPBefore: c.CurrentHP,
	}

	c.CurrentHP = min(c.CurrentHP+amount, c.MaxHP)
	result.HPAfter = c.CurrentHP
	result.Healed = result.HPAfter - result.HPBefore

	if result.HPBefore == 0 && c.CurrentHP > 0 {
		c.DeathSaveSuccesses = 0
		c.DeathSaveFailures = 0
		c.IsDefeated = false
		result.Revived = true
	}

	return result, nil
}

// AddTempHP sets temp HP only when amount exceeds the current pool; temp HP
// does not stack. Reports whether the value changed.
func (c *Combatant) AddTempHP(amount int) (bool, error) {
	if amount < 0 {
		return false, errors.InvalidArgumentf("temp HP must not be negative, got %d", amount)
	}
	if amount <= c.TempHP {
		return false, nil
	}
	c.TempHP = amount
	return true, nil
}

// RemoveTempHP clears temp HP
func (c *Combatant) RemoveTempHP() {
	c.TempHP = 0
}

// DeathSaveResult describes the counters after a death save change
type DeathSaveResult struct {
	Success    bool
	Successes  int
	Failures   int
	Stabilized bool
	Died       bool
}

func (c *Combatant) checkDeathSaves() error {
	if !c.Kind.makesDeathSaves() {
		return errors.InvalidTransitionf("%s does not make death saves", c.Name)
	}
	if c.IsDead() {
		return errors.InvalidTransitionf("%s is dead", c.Name)
	}
	if c.CurrentHP > 0 {
		return errors.InvalidTransitionf("%s is not at 0 HP", c.Name)
	}
	if c.IsStable() {
		return errors.InvalidTransitionf("%s is stable", c.Name)
	}
	return nil
}

// AddDeathSaveSuccess records one success; the third stabilizes
func (c *Combatant) AddDeathSaveSuccess() (*DeathSaveResult, error) {
	if err := c.checkDeathSaves(); err != nil {
		return nil, err
	}

	c.DeathSaveSuccesses = min(c.DeathSaveSuccesses+1, MaxDeathSaves)
	return &DeathSaveResult{
		Success:    true,
		Successes:  c.DeathSaveSuccesses,
		Failures:   c.DeathSaveFailures,
		Stabilized: c.DeathSaveSuccesses >= MaxDeathSaves,
	}, nil
}

// AddDeathSaveFailure records one failure; the third kills
func (c *Combatant) AddDeathSaveFailure() (*DeathSaveResult, error) {
	if err := c.checkDeathSaves(); err != nil {
		return nil, err
	}
	return c.addFailures(1), nil
}

func (c *Combatant) addFailures(n int) *DeathSaveResult {
	c.DeathSaveFailures = min(c.DeathSaveFailures+n, MaxDeathSaves)
	result := &DeathSaveResult{
		Successes: c.DeathSaveSuccesses,
		Failures:  c.DeathSaveFailures,
	}
	if c.IsDead() {
		c.IsDefeated = true
		result.Died = true
	}
	return result
}

// StartConcentration replaces any current concentration spell and returns the
// one it replaced.
func (c *Combatant) StartConcentration(spell string) (string, error) {
	spell = strings.TrimSpace(spell)
	if spell == "" {
		return "", errors.InvalidArgument("spell name is required")
	}

	previous := ""
	if c.IsConcentrating {
		previous = c.ConcentrationSpell
	}
	c.IsConcentrating = true
	c.ConcentrationSpell = spell
	return previous, nil
}

// EndConcentration stops concentrating and returns the spell that ended
func (c *Combatant) EndConcentration() string {
	if !c.IsConcentrating {
		return ""
	}
	spell := c.ConcentrationSpell
	c.IsConcentrating = false
	c.ConcentrationSpell = ""
	return spell
}

// HasCondition matches condition names case-insensitively
func (c *Combatant) HasCondition(name string) bool {
	return c.conditionIndex(name) >= 0
}

func (c *Combatant) conditionIndex(name string) int {
	name = strings.TrimSpace(name)
	for i, existing := range c.Conditions {
		if strings.EqualFold(existing, name) {
			return i
		}
	}
	return -1
}

// AddCondition adds a free-text condition name. Reports false if an equal
// name (ignoring case) is already present.
func (c *Combatant) AddCondition(name string) (bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return false, errors.InvalidArgument("condition name is required")
	}
	if c.HasCondition(name) {
		return false, nil
	}
	c.Conditions = append(c.Conditions, name)
	return true, nil
}

// RemoveCondition drops a condition by name, ignoring case
func (c *Combatant) RemoveCondition(name string) bool {
	idx := c.conditionIndex(name)
	if idx < 0 {
		return false
	}
	c.Conditions = append(c.Conditions[:idx], c.Conditions[idx+1:]...)
	return true
}
