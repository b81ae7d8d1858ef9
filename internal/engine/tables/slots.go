// Package tables holds the read-only rule tables the combat engine looks up:
// spell slot progressions, the Warlock pact table and encounter XP thresholds.
package tables

import (
	"strings"
	"sync"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
)

const levels = combat.MaxClassLevel

type slotRow = [combat.MaxSpellLevel]int

// fullCaster is the Bard/Cleric/Druid/Sorcerer/Wizard progression
var fullCaster = [levels]slotRow{
	{2},
	{3},
	{4, 2},
	{4, 3},
	{4, 3, 2},
	{4, 3, 3},
	{4, 3, 3, 1},
	{4, 3, 3, 2},
	{4, 3, 3, 3, 1},
	{4, 3, 3, 3, 2},
	{4, 3, 3, 3, 2, 1},
	{4, 3, 3, 3, 2, 1},
	{4, 3, 3, 3, 2, 1, 1},
	{4, 3, 3, 3, 2, 1, 1},
	{4, 3, 3, 3, 2, 1, 1, 1},
	{4, 3, 3, 3, 2, 1, 1, 1},
	{4, 3, 3, 3, 2, 1, 1, 1, 1},
	{4, 3, 3, 3, 3, 1, 1, 1, 1},
	{4, 3, 3, 3, 3, 2, 1, 1, 1},
	{4, 3, 3, 3, 3, 2, 2, 1, 1},
}

// halfCaster is the Paladin/Ranger progression; slots begin at level 2
var halfCaster = [levels]slotRow{
	{},
	{2},
	{3},
	{3},
	{4, 2},
	{4, 2},
	{4, 3},
	{4, 3},
	{4, 3, 2},
	{4, 3, 2},
	{4, 3, 3},
	{4, 3, 3},
	{4, 3, 3, 1},
	{4, 3, 3, 1},
	{4, 3, 3, 2},
	{4, 3, 3, 2},
	{4, 3, 3, 3, 1},
	{4, 3, 3, 3, 1},
	{4, 3, 3, 3, 2},
	{4, 3, 3, 3, 2},
}

type pactRow struct {
	slots     int
	slotLevel int
}

var pact = [levels]pactRow{
	{1, 1},
	{2, 1},
	{2, 2},
	{2, 2},
	{2, 3},
	{2, 3},
	{2, 4},
	{2, 4},
	{2, 5},
	{2, 5},
	{3, 5},
	{3, 5},
	{3, 5},
	{3, 5},
	{3, 5},
	{3, 5},
	{4, 5},
	{4, 5},
	{4, 5},
	{4, 5},
}

// Slots is the standard slot table, optionally extended with custom class
// progressions. It satisfies combat.SlotTable.
type Slots struct {
	mu     sync.RWMutex
	custom map[string]*CustomProgression
}

var _ combat.SlotTable = (*Slots)(nil)

// NewSlots returns the standard table with no custom classes
func NewSlots() *Slots {
	return &Slots{custom: make(map[string]*CustomProgression)}
}

// FullCasterSlots returns the full-caster maxima for level, zero when out of range
func (s *Slots) FullCasterSlots(level int) slotRow {
	if !inRange(level) {
		return slotRow{}
	}
	return fullCaster[level-1]
}

// HalfCasterSlots returns the half-caster maxima for level
func (s *Slots) HalfCasterSlots(level int) slotRow {
	if !inRange(level) {
		return slotRow{}
	}
	return halfCaster[level-1]
}

// PactSlots returns the pact slot count and slot level for a Warlock level
func (s *Slots) PactSlots(level int) (int, int) {
	if !inRange(level) {
		return 0, 0
	}
	row := pact[level-1]
	return row.slots, row.slotLevel
}

func inRange(level int) bool {
	return level >= 1 && level <= levels
}

// CustomSlots returns the maxima of a registered custom class. ok is false
// when the class has no custom progression.
func (s *Slots) CustomSlots(className string, level int) (slotRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	prog, ok := s.custom[customKey(className)]
	if !ok {
		return slotRow{}, false
	}
	return prog.At(level), true
}

// CustomClasses lists the registered custom class names
func (s *Slots) CustomClasses() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.custom))
	for _, prog := range s.custom {
		names = append(names, prog.Name)
	}
	return names
}

// Register adds or replaces a custom class progression
func (s *Slots) Register(prog *CustomProgression) error {
	if err := prog.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom[customKey(prog.Name)] = prog
	return nil
}

func customKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
