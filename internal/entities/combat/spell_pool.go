package combat

import (
	"strings"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// Spell slot bounds
const (
	MinSpellLevel = 1
	MaxSpellLevel = 9
	MaxClassLevel = 20
)

// ValidSpellLevel reports whether level names one of the nine slot pools
func ValidSpellLevel(level int) bool {
	return level >= MinSpellLevel && level <= MaxSpellLevel
}

// CasterClass is a class with a known spell progression
type CasterClass string

// Caster classes. ClassOther covers everything without slots.
const (
	ClassBard     CasterClass = "bard"
	ClassCleric   CasterClass = "cleric"
	ClassDruid    CasterClass = "druid"
	ClassSorcerer CasterClass = "sorcerer"
	ClassWizard   CasterClass = "wizard"
	ClassPaladin  CasterClass = "paladin"
	ClassRanger   CasterClass = "ranger"
	ClassWarlock  CasterClass = "warlock"
	ClassOther    CasterClass = "other"
)

// ParseCasterClass maps a free-text class name onto a caster class
func ParseCasterClass(name string) CasterClass {
	switch c := CasterClass(strings.ToLower(strings.TrimSpace(name))); c {
	case ClassBard, ClassCleric, ClassDruid, ClassSorcerer, ClassWizard,
		ClassPaladin, ClassRanger, ClassWarlock:
		return c
	default:
		return ClassOther
	}
}

// Progression is how a class gains slots
type Progression int

// Progressions
const (
	ProgressionNone Progression = iota
	ProgressionFull
	ProgressionHalf
	ProgressionPact
)

// Progression returns the slot progression for the class
func (c CasterClass) Progression() Progression {
	switch c {
	case ClassBard, ClassCleric, ClassDruid, ClassSorcerer, ClassWizard:
		return ProgressionFull
	case ClassPaladin, ClassRanger:
		return ProgressionHalf
	case ClassWarlock:
		return ProgressionPact
	case ClassOther:
		return ProgressionNone
	default:
		return ProgressionNone
	}
}

// SlotTable supplies the fixed class/level slot arrays. Implementations
// are read-only lookups.
type SlotTable interface {
	FullCasterSlots(level int) [MaxSpellLevel]int
	HalfCasterSlots(level int) [MaxSpellLevel]int
	PactSlots(level int) (slots, slotLevel int)
}

// SlotPool is a bounded (max, current) counter
type SlotPool struct {
	Max     int `json:"max"`
	Current int `json:"current"`
}

func (p *SlotPool) use(n int) bool {
	if n <= 0 || p.Current < n {
		return false
	}
	p.Current -= n
	return true
}

func (p *SlotPool) restore(n int) bool {
	if n <= 0 || p.Current >= p.Max {
		return false
	}
	p.Current = min(p.Current+n, p.Max)
	return true
}

func (p *SlotPool) refill() {
	p.Current = p.Max
}

func (p *SlotPool) set(maxValue int) {
	p.Max = maxValue
	p.Current = maxValue
}

// PactPool is the Warlock slot pool; every pact slot is cast at SlotLevel
type PactPool struct {
	SlotPool
	SlotLevel int `json:"slot_level"`
}

// SpellResourcePool tracks one combatant's spell slots, pact slots and
// sorcery points.
type SpellResourcePool struct {
	ID          string `json:"id"`
	CombatantID string `json:"combatant_id"`
	EncounterID string `json:"encounter_id"`
	ClassName   string `json:"class_name"`
	ClassLevel  int    `json:"class_level"`

	Slots         [MaxSpellLevel]SlotPool `json:"slots"`
	Pact          PactPool                `json:"pact"`
	SorceryPoints SlotPool                `json:"sorcery_points"`
}

// NewSpellResourcePool returns an empty pool owned by a combatant
func NewSpellResourcePool(combatantID, encounterID string) *SpellResourcePool {
	return &SpellResourcePool{
		CombatantID: combatantID,
		EncounterID: encounterID,
	}
}

// InitializeForClassLevel resets every pool to the class progression at
// level with max = current.
func (p *SpellResourcePool) InitializeForClassLevel(table SlotTable, className string, level int) error {
	if table == nil {
		return errors.InvalidArgument("slot table is required")
	}
	if level < 1 || level > MaxClassLevel {
		return errors.InvalidArgumentf("class level must be between 1 and %d, got %d", MaxClassLevel, level)
	}

	class := ParseCasterClass(className)
	p.reset()
	p.ClassName = strings.TrimSpace(className)
	p.ClassLevel = level

	var maxima [MaxSpellLevel]int
	switch class.Progression() {
	case ProgressionFull:
		maxima = table.FullCasterSlots(level)
	case ProgressionHalf:
		maxima = table.HalfCasterSlots(level)
	case ProgressionPact:
		slots, slotLevel := table.PactSlots(level)
		p.Pact.set(slots)
		p.Pact.SlotLevel = slotLevel
	case ProgressionNone:
	}
	for i, m := range maxima {
		p.Slots[i].set(m)
	}

	if class == ClassSorcerer && level >= 2 {
		p.SorceryPoints.set(level)
	}
	return nil
}

// InitializeCustom sets caller-supplied maxima for a non-standard class,
// bypassing the progression table.
func (p *SpellResourcePool) InitializeCustom(className string, maxima [MaxSpellLevel]int) error {
	for i, m := range maxima {
		if m < 0 {
			return errors.InvalidArgumentf("level %d slot maximum must not be negative, got %d", i+1, m)
		}
	}
	p.reset()
	p.ClassName = strings.TrimSpace(className)
	for i, m := range maxima {
		p.Slots[i].set(m)
	}
	return nil
}

func (p *SpellResourcePool) reset() {
	p.Slots = [MaxSpellLevel]SlotPool{}
	p.Pact = PactPool{}
	p.SorceryPoints = SlotPool{}
	p.ClassLevel = 0
}

// UseSlot spends a slot of level. Out-of-range levels and empty pools are
// no-ops and return false.
func (p *SpellResourcePool) UseSlot(level int) bool {
	if !ValidSpellLevel(level) {
		return false
	}
	return p.Slots[level-1].use(1)
}

// RestoreSlot gives back one slot of level, never above max
func (p *SpellResourcePool) RestoreSlot(level int) bool {
	if !ValidSpellLevel(level) {
		return false
	}
	return p.Slots[level-1].restore(1)
}

// UsePactSlot spends one pact slot
func (p *SpellResourcePool) UsePactSlot() bool {
	return p.Pact.use(1)
}

// RestorePactSlot gives back one pact slot
func (p *SpellResourcePool) RestorePactSlot() bool {
	return p.Pact.restore(1)
}

// ShortRest refills pact slots only
func (p *SpellResourcePool) ShortRest() {
	p.Pact.refill()
}

// LongRest refills every pool
func (p *SpellResourcePool) LongRest() {
	for i := range p.Slots {
		p.Slots[i].refill()
	}
	p.Pact.refill()
	p.SorceryPoints.refill()
}

// SlotMaxima returns the nine standard maxima
func (p *SpellResourcePool) SlotMaxima() [MaxSpellLevel]int {
	var out [MaxSpellLevel]int
	for i, s := range p.Slots {
		out[i] = s.Max
	}
	return out
}

// SlotsRemaining returns the nine standard current values
func (p *SpellResourcePool) SlotsRemaining() [MaxSpellLevel]int {
	var out [MaxSpellLevel]int
	for i, s := range p.Slots {
		out[i] = s.Current
	}
	return out
}

// Available returns the current slots of level, 0 when out of range
func (p *SpellResourcePool) Available(level int) int {
	if !ValidSpellLevel(level) {
		return 0
	}
	return p.Slots[level-1].Current
}

// Clone returns a copy safe to hand to persistence
func (p *SpellResourcePool) Clone() SpellResourcePool {
	return *p
}
