package combat

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
)

// DurationKind names a Duration variant
type DurationKind string

// Duration kinds
const (
	DurationInstantaneous      DurationKind = "instantaneous"
	DurationRounds             DurationKind = "rounds"
	DurationMinutes            DurationKind = "minutes"
	DurationHours              DurationKind = "hours"
	DurationUntilDispelled     DurationKind = "until_dispelled"
	DurationUntilEndOfTurnOf   DurationKind = "until_end_of_turn_of"
	DurationUntilStartOfTurnOf DurationKind = "until_start_of_turn_of"
	DurationSaveEnds           DurationKind = "save_ends"
	DurationPermanent          DurationKind = "permanent"
)

// Duration is how long a status effect lasts. The set of implementations is
// closed; switches over it list every variant.
type Duration interface {
	Kind() DurationKind
	sealed()
}

// Instantaneous effects resolve immediately and are removed by the caller
type Instantaneous struct{}

// Rounds lasts N round starts
type Rounds struct{ N int }

// Minutes lasts N minutes of game time; tracked by the caller
type Minutes struct{ N int }

// Hours lasts N hours of game time; tracked by the caller
type Hours struct{ N int }

// UntilDispelled lasts until explicitly removed
type UntilDispelled struct{}

// UntilEndOfTurnOf expires when the named creature's turn ends
type UntilEndOfTurnOf struct{ Creature string }

// UntilStartOfTurnOf expires when the named creature's turn starts
type UntilStartOfTurnOf struct{ Creature string }

// SaveEnds lasts until the target succeeds on a saving throw
type SaveEnds struct {
	DC      int
	Ability Ability
}

// Permanent never expires on its own
type Permanent struct{}

func (Instantaneous) Kind() DurationKind      { return DurationInstantaneous }
func (Rounds) Kind() DurationKind             { return DurationRounds }
func (Minutes) Kind() DurationKind            { return DurationMinutes }
func (Hours) Kind() DurationKind              { return DurationHours }
func (UntilDispelled) Kind() DurationKind     { return DurationUntilDispelled }
func (UntilEndOfTurnOf) Kind() DurationKind   { return DurationUntilEndOfTurnOf }
func (UntilStartOfTurnOf) Kind() DurationKind { return DurationUntilStartOfTurnOf }
func (SaveEnds) Kind() DurationKind           { return DurationSaveEnds }
func (Permanent) Kind() DurationKind          { return DurationPermanent }

func (Instantaneous) sealed()      {}
func (Rounds) sealed()             {}
func (Minutes) sealed()            {}
func (Hours) sealed()              {}
func (UntilDispelled) sealed()     {}
func (UntilEndOfTurnOf) sealed()   {}
func (UntilStartOfTurnOf) sealed() {}
func (SaveEnds) sealed()           {}
func (Permanent) sealed()          {}

// ValidateDuration rejects variants whose fields cannot describe a real duration
func ValidateDuration(d Duration) error {
	switch v := d.(type) {
	case nil:
		return errors.InvalidArgument("duration is required")
	case Instantaneous, UntilDispelled, Permanent:
		return nil
	case Rounds:
		return positiveCount(v.Kind(), v.N)
	case Minutes:
		return positiveCount(v.Kind(), v.N)
	case Hours:
		return positiveCount(v.Kind(), v.N)
	case UntilEndOfTurnOf:
		return requireCreature(v.Kind(), v.Creature)
	case UntilStartOfTurnOf:
		return requireCreature(v.Kind(), v.Creature)
	case SaveEnds:
		if v.DC < 1 {
			return errors.InvalidArgumentf("save_ends duration needs a positive DC, got %d", v.DC)
		}
		if !v.Ability.Valid() {
			return errors.InvalidArgumentf("save_ends duration has unknown ability %q", v.Ability)
		}
		return nil
	default:
		return errors.InvalidArgumentf("unknown duration %T", d)
	}
}

func positiveCount(kind DurationKind, n int) error {
	if n < 1 {
		return errors.InvalidArgumentf("%s duration needs a positive count, got %d", kind, n)
	}
	return nil
}

func requireCreature(kind DurationKind, creature string) error {
	if strings.TrimSpace(creature) == "" {
		return errors.InvalidArgumentf("%s duration needs a creature name", kind)
	}
	return nil
}

// DescribeDuration renders a duration for display
func DescribeDuration(d Duration) string {
	switch v := d.(type) {
	case Instantaneous:
		return "instantaneous"
	case Rounds:
		return plural(v.N, "round")
	case Minutes:
		return plural(v.N, "minute")
	case Hours:
		return plural(v.N, "hour")
	case UntilDispelled:
		return "until dispelled"
	case UntilEndOfTurnOf:
		return fmt.Sprintf("until the end of %s's turn", v.Creature)
	case UntilStartOfTurnOf:
		return fmt.Sprintf("until the start of %s's turn", v.Creature)
	case SaveEnds:
		return fmt.Sprintf("until a DC %d %s save succeeds", v.DC, v.Ability)
	case Permanent:
		return "permanent"
	default:
		return "unknown"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

// durationJSON is the persisted shape of a Duration
type durationJSON struct {
	Kind     DurationKind `json:"kind"`
	N        int          `json:"n,omitempty"`
	Creature string       `json:"creature,omitempty"`
	DC       int          `json:"dc,omitempty"`
	Ability  Ability      `json:"ability,omitempty"`
}

func encodeDuration(d Duration) durationJSON {
	switch v := d.(type) {
	case Rounds:
		return durationJSON{Kind: v.Kind(), N: v.N}
	case Minutes:
		return durationJSON{Kind: v.Kind(), N: v.N}
	case Hours:
		return durationJSON{Kind: v.Kind(), N: v.N}
	case UntilEndOfTurnOf:
		return durationJSON{Kind: v.Kind(), Creature: v.Creature}
	case UntilStartOfTurnOf:
		return durationJSON{Kind: v.Kind(), Creature: v.Creature}
	case SaveEnds:
		return durationJSON{Kind: v.Kind(), DC: v.DC, Ability: v.Ability}
	case Instantaneous, UntilDispelled, Permanent:
		return durationJSON{Kind: v.Kind()}
	default:
		return durationJSON{}
	}
}

func decodeDuration(raw durationJSON) (Duration, error) {
	switch raw.Kind {
	case DurationInstantaneous:
		return Instantaneous{}, nil
	case DurationRounds:
		return Rounds{N: raw.N}, nil
	case DurationMinutes:
		return Minutes{N: raw.N}, nil
	case DurationHours:
		return Hours{N: raw.N}, nil
	case DurationUntilDispelled:
		return UntilDispelled{}, nil
	case DurationUntilEndOfTurnOf:
		return UntilEndOfTurnOf{Creature: raw.Creature}, nil
	case DurationUntilStartOfTurnOf:
		return UntilStartOfTurnOf{Creature: raw.Creature}, nil
	case DurationSaveEnds:
		return SaveEnds{DC: raw.DC, Ability: raw.Ability}, nil
	case DurationPermanent:
		return Permanent{}, nil
	case "":
		return nil, nil
	default:
		return nil, errors.InvalidArgumentf("unknown duration kind %q", raw.Kind)
	}
}

// ParseDuration builds a Duration from its kind and the fields that kind uses
func ParseDuration(kind string, n int, creature string, dc int, ability string) (Duration, error) {
	d, err := decodeDuration(durationJSON{
		Kind:     DurationKind(strings.ToLower(strings.TrimSpace(kind))),
		N:        n,
		Creature: strings.TrimSpace(creature),
		DC:       dc,
		Ability:  Ability(strings.ToUpper(strings.TrimSpace(ability))),
	})
	if err != nil {
		return nil, err
	}
	if err := ValidateDuration(d); err != nil {
		return nil, err
	}
	return d, nil
}

// MarshalJSON implements json.Marshaler for the persisted duration shape
func (e StatusEffect) MarshalJSON() ([]byte, error) {
	type alias StatusEffect
	return json.Marshal(struct {
		alias
		Duration durationJSON `json:"duration"`
	}{
		alias:    alias(e),
		Duration: encodeDuration(e.Duration),
	})
}

// UnmarshalJSON implements json.Unmarshaler
func (e *StatusEffect) UnmarshalJSON(data []byte) error {
	type alias StatusEffect
	var raw struct {
		alias
		Duration durationJSON `json:"duration"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := decodeDuration(raw.Duration)
	if err != nil {
		return err
	}
	*e = StatusEffect(raw.alias)
	e.Duration = d
	return nil
}
