package combat

import (
	"fmt"
	"strings"
	"time"
)

// LogKind is the tagged variant of a log entry
type LogKind string

// Log kinds
const (
	LogAttack           LogKind = "attack"
	LogDamage           LogKind = "damage"
	LogHeal             LogKind = "heal"
	LogKill             LogKind = "kill"
	LogDeath            LogKind = "death"
	LogConditionApplied LogKind = "condition_applied"
	LogConditionRemoved LogKind = "condition_removed"
	LogTurnStart        LogKind = "turn_start"
	LogRoundStart       LogKind = "round_start"
	LogCombatStart      LogKind = "combat_start"
	LogCombatEnd        LogKind = "combat_end"
	LogInitiativeRoll   LogKind = "initiative_roll"
	LogSavingThrow      LogKind = "saving_throw"
	LogSpellCast        LogKind = "spell_cast"
	LogConcentration    LogKind = "concentration"
	LogDeathSave        LogKind = "death_save"
	LogCustom           LogKind = "custom"
)

// LogKinds lists every kind in declaration order
func LogKinds() []LogKind {
	return []LogKind{
		LogAttack, LogDamage, LogHeal, LogKill, LogDeath,
		LogConditionApplied, LogConditionRemoved, LogTurnStart, LogRoundStart,
		LogCombatStart, LogCombatEnd, LogInitiativeRoll, LogSavingThrow,
		LogSpellCast, LogConcentration, LogDeathSave, LogCustom,
	}
}

// Valid reports whether k is a known kind
func (k LogKind) Valid() bool {
	for _, known := range LogKinds() {
		if k == known {
			return true
		}
	}
	return false
}

// LogPayload holds the optional fields of an entry. Which fields matter
// depends on the kind.
type LogPayload struct {
	Damage           int     `json:"damage,omitempty"`
	Healing          int     `json:"healing,omitempty"`
	Roll             int     `json:"roll,omitempty"`
	Total            int     `json:"total,omitempty"`
	DC               int     `json:"dc,omitempty"`
	Ability          Ability `json:"ability,omitempty"`
	SpellLevel       int     `json:"spell_level,omitempty"`
	Spell            string  `json:"spell,omitempty"`
	Hit              bool    `json:"hit,omitempty"`
	Broken           bool    `json:"broken,omitempty"`
	Successes        int     `json:"successes,omitempty"`
	Failures         int     `json:"failures,omitempty"`
	ConditionApplied string  `json:"condition_applied,omitempty"`
	ConditionRemoved string  `json:"condition_removed,omitempty"`
	Text             string  `json:"text,omitempty"`
}

// LogEntry is one immutable line of the encounter log
type LogEntry struct {
	ID          string    `json:"id"`
	EncounterID string    `json:"encounter_id"`
	Sequence    int64     `json:"sequence"`
	Round       int       `json:"round"`
	Timestamp   time.Time `json:"timestamp"`
	Kind        LogKind   `json:"kind"`
	ActorName   string    `json:"actor_name,omitempty"`
	TargetName  string    `json:"target_name,omitempty"`
	Description string    `json:"description"`
	LogPayload
}

// LogRecord is what a component hands to the log
type LogRecord struct {
	Kind    LogKind
	Round   int
	Actor   string
	Target  string
	Payload LogPayload
}

// NewLogEntry formats a record into an entry stamped at now
func NewLogEntry(encounterID string, rec LogRecord, now time.Time) LogEntry {
	return LogEntry{
		EncounterID: encounterID,
		Round:       rec.Round,
		Timestamp:   now,
		Kind:        rec.Kind,
		ActorName:   rec.Actor,
		TargetName:  rec.Target,
		Description: FormatLogEntry(rec),
		LogPayload:  rec.Payload,
	}
}

// SaveSucceeded compares a saving throw total to its DC
func SaveSucceeded(total, dc int) bool {
	return total >= dc
}

// FormatLogEntry renders a record. The result depends only on the record.
func FormatLogEntry(rec LogRecord) string {
	p := rec.Payload
	actor, target := rec.Actor, rec.Target

	var line string
	switch rec.Kind {
	case LogAttack:
		outcome := "misses"
		if p.Hit {
			outcome = "hits"
		}
		line = fmt.Sprintf("%s attacks %s with %d and %s", actor, target, p.Total, outcome)
		if p.Roll == 20 && p.Hit {
			line += " (critical)"
		}
	case LogDamage:
		if actor == "" {
			line = fmt.Sprintf("%s takes %d damage", target, p.Damage)
		} else {
			line = fmt.Sprintf("%s deals %d damage to %s", actor, p.Damage, target)
		}
	case LogHeal:
		if actor == "" || sameName(actor, target) {
			line = fmt.Sprintf("%s regains %d HP", target, p.Healing)
		} else {
			line = fmt.Sprintf("%s heals %s for %d HP", actor, target, p.Healing)
		}
	case LogKill:
		if actor == "" {
			line = fmt.Sprintf("%s is defeated", target)
		} else {
			line = fmt.Sprintf("%s defeats %s", actor, target)
		}
	case LogDeath:
		line = fmt.Sprintf("%s has died", orActor(target, actor))
	case LogConditionApplied:
		line = fmt.Sprintf("%s is now %s", orActor(target, actor), p.ConditionApplied)
		if actor != "" && target != "" {
			line += " (from " + actor + ")"
		}
	case LogConditionRemoved:
		line = fmt.Sprintf("%s is no longer %s", orActor(target, actor), p.ConditionRemoved)
	case LogTurnStart:
		line = fmt.Sprintf("%s's turn", actor)
	case LogRoundStart:
		line = fmt.Sprintf("Round %d begins", rec.Round)
	case LogCombatStart:
		line = "Combat started"
		if p.Text != "" {
			line += ": " + p.Text
		}
		return line
	case LogCombatEnd:
		line = fmt.Sprintf("Combat ended after %s", plural(rec.Round, "round"))
	case LogInitiativeRoll:
		line = fmt.Sprintf("%s rolls %d for initiative", actor, p.Total)
		if p.Roll > 0 {
			line += fmt.Sprintf(" (d20: %d)", p.Roll)
		}
	case LogSavingThrow:
		outcome := "fails"
		if SaveSucceeded(p.Total, p.DC) {
			outcome = "succeeds"
		}
		save := "saving throw"
		if p.Ability != "" {
			save = string(p.Ability) + " " + save
		}
		line = fmt.Sprintf("%s %s on a DC %d %s with %d", actor, outcome, p.DC, save, p.Total)
	case LogSpellCast:
		line = fmt.Sprintf("%s casts %s", actor, p.Spell)
		if target != "" {
			line += " on " + target
		}
		if p.SpellLevel > 0 {
			line += fmt.Sprintf(" at level %d", p.SpellLevel)
		}
	case LogConcentration:
		switch {
		case p.Broken:
			line = fmt.Sprintf("%s loses concentration on %s", actor, p.Spell)
		case p.DC > 0:
			line = fmt.Sprintf("%s must make a DC %d CON save to keep concentrating on %s", actor, p.DC, p.Spell)
		default:
			line = fmt.Sprintf("%s is concentrating on %s", actor, p.Spell)
		}
	case LogDeathSave:
		switch {
		case p.Failures >= MaxDeathSaves:
			line = fmt.Sprintf("%s fails their last death save", actor)
		case p.Successes >= MaxDeathSaves:
			line = fmt.Sprintf("%s is stable", actor)
		default:
			line = fmt.Sprintf("%s death saves: %d successes, %d failures", actor, p.Successes, p.Failures)
		}
		if p.Roll > 0 {
			line += fmt.Sprintf(" (rolled %d)", p.Roll)
		}
	case LogCustom:
		return strings.TrimSpace(p.Text)
	default:
		line = strings.TrimSpace(p.Text)
		return line
	}

	if p.Text != "" {
		line += " - " + p.Text
	}
	return line
}

func orActor(target, actor string) string {
	if target != "" {
		return target
	}
	return actor
}
