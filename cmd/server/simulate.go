package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KirkDiggler/rpg-toolkit/dice"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/KirkDiggler/rpg-tracker/internal/config"
	"github.com/KirkDiggler/rpg-tracker/internal/engine/notation"
	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/metrics"
	"github.com/KirkDiggler/rpg-tracker/internal/orchestrators/encounter"
)

const defaultMaxRounds = 20

var simulateCmd = &cobra.Command{
	Use:   "simulate [roster.yaml]",
	Short: "Run a roster through an in-memory encounter",
	Long: `Simulate reads a YAML roster, rolls initiative and plays every turn with
a basic attack against the first standing enemy until one side is down,
then prints the combat log.

  name: Goblin ambush
  max_rounds: 10
  combatants:
    - {name: Aria, kind: player, hp: 20, ac: 15, initiative_bonus: 2, attack_bonus: 5, damage: 1d8+3, level: 3}
    - {name: Goblin, hp: 7, ac: 13, initiative_bonus: 2, attack_bonus: 4, damage: 1d6+2, xp: 50}`,
	Args: cobra.ExactArgs(1),
	RunE: runSimulate,
}

type rosterEntry struct {
	Name            string `yaml:"name"`
	Kind            string `yaml:"kind"`
	HP              int    `yaml:"hp"`
	AC              int    `yaml:"ac"`
	InitiativeBonus int    `yaml:"initiative_bonus"`
	AttackBonus     int    `yaml:"attack_bonus"`
	Damage          string `yaml:"damage"`
	// Level feeds the difficulty rating for players, XP for everyone else
	Level int `yaml:"level"`
	XP    int `yaml:"xp"`

	// damage is Damage parsed while decoding
	damage notation.Expression
}

type roster struct {
	Name       string        `yaml:"name"`
	MaxRounds  int           `yaml:"max_rounds"`
	Combatants []rosterEntry `yaml:"combatants"`
}

func decodeRoster(r io.Reader) (*roster, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	out := &roster{}
	if err := dec.Decode(out); err != nil {
		return nil, errors.WrapWithCode(err, errors.CodeInvalidArgument, "failed to decode roster")
	}
	if out.Name == "" {
		out.Name = "Simulation"
	}
	if out.MaxRounds <= 0 {
		out.MaxRounds = defaultMaxRounds
	}

	vb := errors.NewValidationBuilder()
	var players, enemies int
	for i := range out.Combatants {
		c := &out.Combatants[i]
		if c.Kind == "" {
			c.Kind = string(combat.KindMonster)
		}
		field := fmt.Sprintf("combatants[%d]", i)
		errors.ValidateEnum(field+".kind", c.Kind,
			[]string{string(combat.KindMonster), string(combat.KindNPC), string(combat.KindPlayer)}, vb)
		expr, err := notation.Parse(c.Damage)
		if err != nil {
			vb.Field(field+".damage", errors.GetMessage(err))
		}
		c.damage = expr
		if combat.CombatantKind(c.Kind) == combat.KindPlayer {
			players++
		} else {
			enemies++
		}
	}
	if players == 0 || enemies == 0 {
		vb.Field("combatants", "need at least one player and one enemy")
	}
	if err := vb.Build(); err != nil {
		return nil, err
	}
	return out, nil
}

func runSimulate(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open roster: %w", err)
	}
	defer func() { _ = f.Close() }()

	r, err := decodeRoster(f)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := buildStack(ctx, &stackOptions{
		cfg:     &config.Config{Store: config.StoreMemory},
		metrics: metrics.Noop(),
		offline: true,
	})
	if err != nil {
		return err
	}
	defer st.Close()

	sim := &simulator{
		svc:    st.service,
		roller: dice.DefaultRoller,
		out:    cmd.OutOrStdout(),
	}
	return sim.run(ctx, r)
}

type fighter struct {
	attackBonus int
	damage      notation.Expression
}

// simulator plays a roster through the encounter service
type simulator struct {
	svc    encounter.Service
	roller dice.Roller
	out    io.Writer

	encounterID string
	view        *encounter.EncounterView
	fighters    map[string]fighter
}

func (s *simulator) track(res encounter.Result) {
	if res.Encounter != nil {
		s.view = res.Encounter
	}
}

func (s *simulator) run(ctx context.Context, r *roster) error {
	s.fighters = make(map[string]fighter, len(r.Combatants))

	fmt.Fprintf(s.out, "Simulating %s: %s\n", r.Name, describeRoster(r))
	s.rate(ctx, r)

	created, err := s.svc.CreateEncounter(ctx, &encounter.CreateEncounterInput{Name: r.Name})
	if err != nil {
		return err
	}
	s.encounterID = created.Encounter.Encounter.ID
	started, err := s.svc.StartEncounter(ctx, &encounter.StartEncounterInput{EncounterID: s.encounterID})
	if err != nil {
		return err
	}
	s.track(started.Result)

	for _, entry := range r.Combatants {
		added, err := s.svc.AddCombatant(ctx, &encounter.AddCombatantInput{
			EncounterID: s.encounterID,
			Combatant: &combat.CombatantConfig{
				Kind:            combat.CombatantKind(entry.Kind),
				Name:            entry.Name,
				MaxHP:           entry.HP,
				ArmorClass:      entry.AC,
				InitiativeBonus: entry.InitiativeBonus,
			},
			RollInitiative: true,
		})
		if err != nil {
			return err
		}
		s.track(added.Result)
		s.fighters[added.Combatant.ID] = fighter{attackBonus: entry.AttackBonus, damage: entry.damage}
	}

	sorted, err := s.svc.SortByInitiative(ctx, &encounter.SortByInitiativeInput{EncounterID: s.encounterID})
	if err != nil {
		return err
	}
	s.track(sorted.Result)

	outcome := "stalemate"
	for s.view.Encounter.CurrentRound <= r.MaxRounds {
		if current := s.view.Current(); current != nil {
			if err := s.act(ctx, current); err != nil {
				return err
			}
		}
		if winner := s.winner(); winner != "" {
			outcome = winner + " win"
			break
		}
		turn, err := s.svc.NextTurn(ctx, &encounter.TurnInput{EncounterID: s.encounterID})
		if err != nil {
			return err
		}
		s.track(turn.Result)
	}

	ended, err := s.svc.EndEncounter(ctx, &encounter.EndEncounterInput{EncounterID: s.encounterID})
	if err != nil {
		return err
	}
	s.track(ended.Result)

	log, err := s.svc.GetLog(ctx, &encounter.GetLogInput{EncounterID: s.encounterID})
	if err != nil {
		return err
	}
	for _, entry := range log.Entries {
		fmt.Fprintf(s.out, "%4d  R%-2d %s\n", entry.Sequence, entry.Round, entry.Description)
	}
	fmt.Fprintf(s.out, "\nResult: %s after %d round(s)\n", outcome, s.view.Encounter.CurrentRound)
	return nil
}

// rate prints the difficulty rating when the roster carries levels and XP
func (s *simulator) rate(ctx context.Context, r *roster) {
	var levels, xp []int
	for _, c := range r.Combatants {
		if combat.CombatantKind(c.Kind) == combat.KindPlayer {
			if c.Level > 0 {
				levels = append(levels, c.Level)
			}
		} else if c.XP > 0 {
			xp = append(xp, c.XP)
		}
	}
	if len(levels) == 0 || len(xp) == 0 {
		return
	}
	rated, err := s.svc.RateEncounter(ctx, &encounter.RateEncounterInput{PartyLevels: levels, MonsterXP: xp})
	if err != nil {
		fmt.Fprintf(s.out, "Difficulty: unavailable (%s)\n\n", errors.GetMessage(err))
		return
	}
	fmt.Fprintf(s.out, "Difficulty: %s (%d adjusted XP)\n\n", rated.Rating.Difficulty, rated.Rating.AdjustedXP)
}

func standing(c *combat.Combatant) bool {
	return !c.IsDefeated && c.CurrentHP > 0
}

func (s *simulator) winner() string {
	var players, enemies int
	for i := range s.view.Combatants {
		c := &s.view.Combatants[i]
		if !standing(c) {
			continue
		}
		if c.Kind == combat.KindPlayer {
			players++
		} else {
			enemies++
		}
	}
	switch {
	case enemies == 0:
		return "players"
	case players == 0:
		return "enemies"
	}
	return ""
}

func (s *simulator) act(ctx context.Context, current *combat.Combatant) error {
	if current.IsDying() {
		out, err := s.svc.RollDeathSave(ctx, &encounter.RollDeathSaveInput{
			EncounterID: s.encounterID,
			CombatantID: current.ID,
		})
		if err != nil {
			return err
		}
		s.track(out.Result)
		return nil
	}
	if !standing(current) {
		return nil
	}

	var target *combat.Combatant
	for i := range s.view.Combatants {
		c := &s.view.Combatants[i]
		if standing(c) && (c.Kind == combat.KindPlayer) != (current.Kind == combat.KindPlayer) {
			target = c
			break
		}
	}
	if target == nil {
		return nil
	}

	stats := s.fighters[current.ID]
	roll, err := s.roller.Roll(20)
	if err != nil {
		return errors.Wrapf(err, "failed to roll attack for %s", current.Name)
	}
	attack, err := s.svc.RecordAttack(ctx, &encounter.RecordAttackInput{
		EncounterID: s.encounterID,
		AttackerID:  current.ID,
		TargetID:    target.ID,
		Roll:        roll,
		Total:       roll + stats.attackBonus,
	})
	if err != nil {
		return err
	}
	s.track(attack.Result)
	if !attack.Attack.Hit {
		return nil
	}

	expr := stats.damage
	if attack.Attack.Critical {
		expr = expr.Critical()
	}
	dmg, err := expr.Roll(s.roller)
	if err != nil {
		return err
	}
	damaged, err := s.svc.ApplyDamage(ctx, &encounter.ApplyDamageInput{
		EncounterID: s.encounterID,
		TargetID:    target.ID,
		Amount:      dmg.Total,
		Source:      current.Name,
	})
	if err != nil {
		return err
	}
	s.track(damaged.Result)
	return nil
}

func describeRoster(r *roster) string {
	names := make([]string, 0, len(r.Combatants))
	for _, c := range r.Combatants {
		names = append(names, c.Name)
	}
	return strings.Join(names, ", ")
}
