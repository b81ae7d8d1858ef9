package combatlog_test

import (
	"context"
	"testing"
	"time"

	"github.com/KirkDiggler/rpg-toolkit/events"
	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-tracker/internal/combatlog"
	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/clock"
	"github.com/KirkDiggler/rpg-tracker/internal/pkg/idgen"
)

type LogTestSuite struct {
	suite.Suite
	clock *clock.Fixed
	log   *combatlog.Log
}

func TestLogSuite(t *testing.T) {
	suite.Run(t, new(LogTestSuite))
}

func (s *LogTestSuite) SetupTest() {
	s.clock = clock.NewFixed(time.Date(2025, 7, 1, 19, 0, 0, 0, time.UTC))
	log, err := combatlog.New(&combatlog.Config{
		IDs:   idgen.NewSequential("log"),
		Clock: s.clock,
	})
	s.Require().NoError(err)
	s.log = log
}

func (s *LogTestSuite) turn(name string) combat.LogRecord {
	return combat.LogRecord{Kind: combat.LogTurnStart, Round: 1, Actor: name}
}

func (s *LogTestSuite) TestNewRequiresCollaborators() {
	_, err := combatlog.New(&combatlog.Config{})
	s.True(errors.IsInvalidArgument(err))
	_, err = combatlog.New(nil)
	s.True(errors.IsInvalidArgument(err))
}

func (s *LogTestSuite) TestAppendStampsEntries() {
	first, err := s.log.Append("enc_1", s.turn("Aria"))
	s.Require().NoError(err)
	s.clock.Advance(time.Second)
	second, err := s.log.Append("enc_1", s.turn("Goblin"))
	s.Require().NoError(err)
	other, err := s.log.Append("enc_2", s.turn("Orc"))
	s.Require().NoError(err)

	s.Equal(int64(1), first.Sequence)
	s.Equal(int64(2), second.Sequence)
	s.Equal(int64(1), other.Sequence, "sequences are per encounter")
	s.NotEqual(first.ID, second.ID)
	s.True(second.Timestamp.After(first.Timestamp))
	s.Equal("Goblin's turn", second.Description)

	entries := s.log.Entries("enc_1")
	s.Require().Len(entries, 2)
	s.Equal(first, entries[0])
	s.Equal(second, entries[1])
	s.Empty(s.log.Entries("enc_3"))
}

func (s *LogTestSuite) TestAppendRejectsBadInput() {
	_, err := s.log.Append("", s.turn("Aria"))
	s.True(errors.IsInvalidArgument(err))

	_, err = s.log.Append("enc_1", combat.LogRecord{Kind: "fumble"})
	s.True(errors.IsInvalidArgument(err))
	s.Empty(s.log.Entries("enc_1"))
}

func (s *LogTestSuite) TestEntriesAreCopies() {
	_, err := s.log.Append("enc_1", s.turn("Aria"))
	s.Require().NoError(err)

	entries := s.log.Entries("enc_1")
	entries[0].Description = "changed"
	s.Equal("Aria's turn", s.log.Entries("enc_1")[0].Description)
}

func (s *LogTestSuite) TestSubscribersSeeAppendOrder() {
	var seen []int64
	var all []string
	_, err := s.log.Subscribe("enc_1", func(entry combat.LogEntry) {
		seen = append(seen, entry.Sequence)
	})
	s.Require().NoError(err)
	_, err = s.log.Subscribe("", func(entry combat.LogEntry) {
		all = append(all, entry.EncounterID)
	})
	s.Require().NoError(err)

	_, err = s.log.AppendAll("enc_1", []combat.LogRecord{s.turn("A"), s.turn("B"), s.turn("C")})
	s.Require().NoError(err)
	_, err = s.log.Append("enc_2", s.turn("D"))
	s.Require().NoError(err)

	s.Equal([]int64{1, 2, 3}, seen)
	s.Equal([]string{"enc_1", "enc_1", "enc_1", "enc_2"}, all)
}

func (s *LogTestSuite) TestUnsubscribe() {
	count := 0
	id, err := s.log.Subscribe("enc_1", func(combat.LogEntry) { count++ })
	s.Require().NoError(err)

	_, err = s.log.Append("enc_1", s.turn("A"))
	s.Require().NoError(err)
	s.Require().NoError(s.log.Unsubscribe(id))
	_, err = s.log.Append("enc_1", s.turn("B"))
	s.Require().NoError(err)

	s.Equal(1, count)
	s.Zero(s.log.Subscribers())
	s.True(errors.IsNotFound(s.log.Unsubscribe(id)))

	_, err = s.log.Subscribe("enc_1", nil)
	s.True(errors.IsInvalidArgument(err))
}

func (s *LogTestSuite) TestRestoreContinuesSequence() {
	s.log.Restore("enc_1", []combat.LogEntry{
		{ID: "b", EncounterID: "enc_1", Sequence: 7, Kind: combat.LogRoundStart},
		{ID: "a", EncounterID: "enc_1", Sequence: 3, Kind: combat.LogCombatStart},
	})

	entries := s.log.Entries("enc_1")
	s.Require().Len(entries, 2)
	s.Equal("a", entries[0].ID)

	next, err := s.log.Append("enc_1", s.turn("Aria"))
	s.Require().NoError(err)
	s.Equal(int64(8), next.Sequence)
	s.Len(s.log.EntriesSince("enc_1", 7), 1)

	s.log.Forget("enc_1")
	s.Empty(s.log.Entries("enc_1"))
}

func (s *LogTestSuite) TestBusBridge() {
	bus := events.NewBus()
	bridge, err := combatlog.NewBusBridge(bus)
	s.Require().NoError(err)

	var got []combat.LogEntry
	bus.SubscribeFunc(combatlog.EventType(combat.LogDamage), 0, func(_ context.Context, event events.Event) error {
		entry, ok := combatlog.EntryFromEvent(event)
		s.True(ok)
		got = append(got, entry)
		return nil
	})

	_, err = s.log.Subscribe("", bridge.Handle)
	s.Require().NoError(err)

	_, err = s.log.Append("enc_1", s.turn("Aria"))
	s.Require().NoError(err)
	dmg, err := s.log.Append("enc_1", combat.LogRecord{
		Kind:    combat.LogDamage,
		Actor:   "Aria",
		Target:  "Goblin",
		Payload: combat.LogPayload{Damage: 6},
	})
	s.Require().NoError(err)

	s.Require().Len(got, 1)
	s.Equal(dmg, got[0])
	s.Equal("combat.log.damage", combatlog.EventType(combat.LogDamage))

	_, err = combatlog.NewBusBridge(nil)
	s.True(errors.IsInvalidArgument(err))
}
