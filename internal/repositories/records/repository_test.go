package records_test

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/KirkDiggler/rpg-tracker/internal/entities/combat"
	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	"github.com/KirkDiggler/rpg-tracker/internal/repositories/records"
	"github.com/KirkDiggler/rpg-tracker/internal/testutils"
)

// RepositoryContractSuite runs the same behavior checks against every backend
type RepositoryContractSuite struct {
	suite.Suite
	newRepo func() (records.Repository, func())
	repo    records.Repository
	cleanup func()
	ctx     context.Context
}

func (s *RepositoryContractSuite) SetupTest() {
	s.ctx = context.Background()
	s.repo, s.cleanup = s.newRepo()
}

func (s *RepositoryContractSuite) TearDownTest() {
	if s.cleanup != nil {
		s.cleanup()
	}
}

func TestMemoryRepository(t *testing.T) {
	suite.Run(t, &RepositoryContractSuite{
		newRepo: func() (records.Repository, func()) {
			return records.NewMemory(), func() {}
		},
	})
}

func TestRedisRepository(t *testing.T) {
	suite.Run(t, &RepositoryContractSuite{
		newRepo: func() (records.Repository, func()) {
			client, cleanup := testutils.CreateTestRedisClient(t)
			repo, err := records.NewRedis(&records.RedisConfig{Client: client})
			if err != nil {
				t.Fatal(err)
			}
			return repo, cleanup
		},
	})
}

func TestSQLiteRepository(t *testing.T) {
	suite.Run(t, &RepositoryContractSuite{
		newRepo: func() (records.Repository, func()) {
			repo, err := records.OpenSQLite(&records.SQLiteConfig{
				Path: filepath.Join(t.TempDir(), "records.db"),
			})
			if err != nil {
				t.Fatal(err)
			}
			return repo, func() { _ = repo.Close() }
		},
	})
}

func (s *RepositoryContractSuite) record(kind records.Kind, id, encounterID string, seq int64, data string) *records.Record {
	return &records.Record{
		Kind:        kind,
		ID:          id,
		EncounterID: encounterID,
		Sequence:    seq,
		Data:        json.RawMessage(data),
	}
}

func (s *RepositoryContractSuite) save(rec *records.Record) {
	_, err := s.repo.Save(s.ctx, &records.SaveInput{Record: rec})
	s.Require().NoError(err)
}

func (s *RepositoryContractSuite) listIDs(kind records.Kind, encounterID string) []string {
	out, err := s.repo.ListByEncounter(s.ctx, &records.ListByEncounterInput{Kind: kind, EncounterID: encounterID})
	s.Require().NoError(err)
	ids := make([]string, 0, len(out.Records))
	for _, rec := range out.Records {
		ids = append(ids, rec.ID)
	}
	return ids
}

func (s *RepositoryContractSuite) TestSaveAndGet() {
	s.save(s.record(records.KindCombatant, "c_1", "enc_1", 0, `{"name":"Aria"}`))

	out, err := s.repo.Get(s.ctx, &records.GetInput{Kind: records.KindCombatant, ID: "c_1"})
	s.Require().NoError(err)
	s.Equal("enc_1", out.Record.EncounterID)
	s.JSONEq(`{"name":"Aria"}`, string(out.Record.Data))

	s.save(s.record(records.KindCombatant, "c_1", "enc_1", 0, `{"name":"Aria","hp":3}`))
	out, err = s.repo.Get(s.ctx, &records.GetInput{Kind: records.KindCombatant, ID: "c_1"})
	s.Require().NoError(err)
	s.JSONEq(`{"name":"Aria","hp":3}`, string(out.Record.Data))
}

func (s *RepositoryContractSuite) TestKindsAreSeparate() {
	s.save(s.record(records.KindCombatant, "x", "enc_1", 0, `{}`))
	_, err := s.repo.Get(s.ctx, &records.GetInput{Kind: records.KindEffect, ID: "x"})
	s.True(errors.IsNotFound(err))
}

func (s *RepositoryContractSuite) TestNotFound() {
	_, err := s.repo.Get(s.ctx, &records.GetInput{Kind: records.KindEffect, ID: "missing"})
	s.True(errors.IsNotFound(err))

	_, err = s.repo.Delete(s.ctx, &records.DeleteInput{Kind: records.KindEffect, ID: "missing"})
	s.True(errors.IsNotFound(err))
}

func (s *RepositoryContractSuite) TestValidation() {
	_, err := s.repo.Save(s.ctx, &records.SaveInput{})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Save(s.ctx, &records.SaveInput{Record: s.record(records.KindEffect, "e_1", "", 0, `{}`)})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.Get(s.ctx, &records.GetInput{Kind: records.KindEffect})
	s.True(errors.IsInvalidArgument(err))

	_, err = s.repo.ListByEncounter(s.ctx, &records.ListByEncounterInput{Kind: records.KindEffect})
	s.True(errors.IsInvalidArgument(err))
}

func (s *RepositoryContractSuite) TestListKeepsInsertionOrder() {
	s.save(s.record(records.KindCombatant, "c_b", "enc_1", 0, `{}`))
	s.save(s.record(records.KindCombatant, "c_a", "enc_1", 0, `{}`))
	s.save(s.record(records.KindCombatant, "c_z", "enc_2", 0, `{}`))
	s.save(s.record(records.KindCombatant, "c_c", "enc_1", 0, `{}`))
	// updates keep the original position
	s.save(s.record(records.KindCombatant, "c_b", "enc_1", 0, `{"hp":1}`))

	s.Equal([]string{"c_b", "c_a", "c_c"}, s.listIDs(records.KindCombatant, "enc_1"))
	s.Equal([]string{"c_z"}, s.listIDs(records.KindCombatant, "enc_2"))
	s.Empty(s.listIDs(records.KindCombatant, "enc_3"))
}

func (s *RepositoryContractSuite) TestListOrdersBySequence() {
	s.save(s.record(records.KindLogEntry, "l_3", "enc_1", 3, `{}`))
	s.save(s.record(records.KindLogEntry, "l_1", "enc_1", 1, `{}`))
	s.save(s.record(records.KindLogEntry, "l_2", "enc_1", 2, `{}`))

	s.Equal([]string{"l_1", "l_2", "l_3"}, s.listIDs(records.KindLogEntry, "enc_1"))
}

func (s *RepositoryContractSuite) TestDeleteRemovesFromList() {
	s.save(s.record(records.KindEffect, "e_1", "enc_1", 0, `{}`))
	s.save(s.record(records.KindEffect, "e_2", "enc_1", 0, `{}`))

	_, err := s.repo.Delete(s.ctx, &records.DeleteInput{Kind: records.KindEffect, ID: "e_1"})
	s.Require().NoError(err)

	s.Equal([]string{"e_2"}, s.listIDs(records.KindEffect, "enc_1"))
	_, err = s.repo.Get(s.ctx, &records.GetInput{Kind: records.KindEffect, ID: "e_1"})
	s.True(errors.IsNotFound(err))
}

func (s *RepositoryContractSuite) TestTypedStores() {
	stores := records.NewStores(s.repo)

	eff, err := combat.NewStatusEffect(&combat.StatusEffectConfig{
		Name:     "Frightened",
		Duration: combat.SaveEnds{DC: 13, Ability: combat.AbilityWisdom},
	})
	s.Require().NoError(err)
	eff.ID = "eff_1"
	eff.EncounterID = "enc_1"
	eff.CombatantID = "c_1"
	s.Require().NoError(stores.Effects.Save(s.ctx, eff))

	loaded, err := stores.Effects.Get(s.ctx, "eff_1")
	s.Require().NoError(err)
	s.Equal(eff.Duration, loaded.Duration)

	listed, err := stores.Effects.ListByEncounter(s.ctx, "enc_1")
	s.Require().NoError(err)
	s.Require().Len(listed, 1)
	s.Equal("Frightened", listed[0].Name)

	pool := combat.NewSpellResourcePool("c_1", "enc_1")
	pool.ID = "pool_1"
	s.Require().NoError(pool.InitializeCustom("Mystic", [combat.MaxSpellLevel]int{2, 1}))
	s.Require().NoError(stores.Pools.Save(s.ctx, pool))
	loadedPool, err := stores.Pools.Get(s.ctx, "pool_1")
	s.Require().NoError(err)
	s.Equal(pool.SlotMaxima(), loadedPool.SlotMaxima())

	s.Require().NoError(stores.Effects.Delete(s.ctx, "eff_1"))
	s.True(errors.IsNotFound(stores.Effects.Delete(s.ctx, "eff_1")))
	s.True(errors.IsInvalidArgument(stores.Combatants.Save(s.ctx, nil)))
}
