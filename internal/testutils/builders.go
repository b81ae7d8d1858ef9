package testutils

import (
	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
)

// CombatantBuilder provides a fluent interface for building combatant configs
type CombatantBuilder struct {
	cfg *combat.CombatantConfig
}

// NewCombatantBuilder starts a monster with 10 HP and AC 10
func NewCombatantBuilder(name string) *CombatantBuilder {
	return &CombatantBuilder{
		cfg: &combat.CombatantConfig{
			Kind:       combat.KindMonster,
			Name:       name,
			MaxHP:      10,
			ArmorClass: 10,
		},
	}
}

// AsPlayer makes the combatant a player character
func (b *CombatantBuilder) AsPlayer() *CombatantBuilder {
	b.cfg.Kind = combat.KindPlayer
	return b
}

// AsNPC makes the combatant an NPC
func (b *CombatantBuilder) AsNPC() *CombatantBuilder {
	b.cfg.Kind = combat.KindNPC
	return b
}

// WithHP sets max HP and leaves current HP at max
func (b *CombatantBuilder) WithHP(maxHP int) *CombatantBuilder {
	b.cfg.MaxHP = maxHP
	return b
}

// WithCurrentHP sets current HP below max
func (b *CombatantBuilder) WithCurrentHP(hp int) *CombatantBuilder {
	b.cfg.CurrentHP = &hp
	return b
}

// WithAC sets armor class
func (b *CombatantBuilder) WithAC(ac int) *CombatantBuilder {
	b.cfg.ArmorClass = ac
	return b
}

// WithInitiativeBonus sets the initiative bonus
func (b *CombatantBuilder) WithInitiativeBonus(bonus int) *CombatantBuilder {
	b.cfg.InitiativeBonus = bonus
	return b
}

// WithTempHP sets starting temp HP
func (b *CombatantBuilder) WithTempHP(temp int) *CombatantBuilder {
	b.cfg.TempHP = temp
	return b
}

// WithReferenceID links the combatant to source content
func (b *CombatantBuilder) WithReferenceID(id string) *CombatantBuilder {
	b.cfg.ReferenceID = id
	return b
}

// Build returns the config
func (b *CombatantBuilder) Build() *combat.CombatantConfig {
	return b.cfg
}
