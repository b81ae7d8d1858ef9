package records

import (
	"context"
	"encoding/json"
	"fmt"

	redis "github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/rpg-tracker/internal/errors"
	redisclient "github.com/KirkDiggler/rpg-tracker/internal/redis"
)

const (
	recordKeyPrefix  = "record:"
	indexKeyPrefix   = "record_index:"
	counterKeyPrefix = "record_position:"
)

func recordKey(kind Kind, id string) string {
	return fmt.Sprintf("%s%s:%s", recordKeyPrefix, kind, id)
}

func indexKey(kind Kind, encounterID string) string {
	return fmt.Sprintf("%s%s:%s", indexKeyPrefix, kind, encounterID)
}

func counterKey(kind Kind) string {
	return counterKeyPrefix + string(kind)
}

type redisRepository struct {
	client redisclient.Client
}

// RedisConfig contains configuration for the Redis records repository
type RedisConfig struct {
	Client redisclient.Client
}

// Validate validates the RedisConfig
func (cfg *RedisConfig) Validate() error {
	if cfg == nil {
		return errors.InvalidArgument("config cannot be nil")
	}
	if cfg.Client == nil {
		return errors.InvalidArgument("client cannot be nil")
	}
	return nil
}

// NewRedis creates a Redis-backed repository. Each record is a JSON string
// and each encounter has a sorted set per kind ordering its record ids.
func NewRedis(cfg *RedisConfig) (Repository, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &redisRepository{client: cfg.Client}, nil
}

func (r *redisRepository) Get(ctx context.Context, input *GetInput) (*GetOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if err := validateKey(input.Kind, input.ID); err != nil {
		return nil, err
	}

	rec, err := r.load(ctx, input.Kind, input.ID)
	if err != nil {
		return nil, err
	}
	return &GetOutput{Record: rec}, nil
}

func (r *redisRepository) load(ctx context.Context, kind Kind, id string) (*Record, error) {
	result, err := r.client.Get(ctx, recordKey(kind, id)).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, errors.NotFoundf("%s %s not found", kind, id)
		}
		return nil, errors.Wrapf(err, "failed to get %s", kind)
	}

	var rec Record
	if err := json.Unmarshal([]byte(result), &rec); err != nil {
		return nil, errors.Wrapf(err, "failed to unmarshal %s", kind)
	}
	return &rec, nil
}

func (r *redisRepository) Save(ctx context.Context, input *SaveInput) (*SaveOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	rec := input.Record
	if err := validateRecord(rec); err != nil {
		return nil, err
	}

	existing, err := r.load(ctx, rec.Kind, rec.ID)
	if err != nil && !errors.IsNotFound(err) {
		return nil, err
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to marshal %s", rec.Kind)
	}

	score := float64(rec.Sequence)
	if rec.Sequence == 0 && (existing == nil || existing.EncounterID != rec.EncounterID) {
		position, err := r.client.Incr(ctx, counterKey(rec.Kind)).Result()
		if err != nil {
			return nil, errors.Wrapf(err, "failed to allocate %s position", rec.Kind)
		}
		score = float64(position)
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, recordKey(rec.Kind, rec.ID), data, 0)
	if existing != nil && existing.EncounterID != rec.EncounterID {
		pipe.ZRem(ctx, indexKey(rec.Kind, existing.EncounterID), rec.ID)
	}
	member := redis.Z{Score: score, Member: rec.ID}
	switch {
	case rec.Sequence != 0:
		pipe.ZAdd(ctx, indexKey(rec.Kind, rec.EncounterID), member)
	default:
		// keep the first-save position on updates
		pipe.ZAddNX(ctx, indexKey(rec.Kind, rec.EncounterID), member)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to save %s", rec.Kind)
	}
	return &SaveOutput{}, nil
}

func (r *redisRepository) Delete(ctx context.Context, input *DeleteInput) (*DeleteOutput, error) {
	if input == nil {
		return nil, errors.InvalidArgument("input cannot be nil")
	}
	if err := validateKey(input.Kind, input.ID); err != nil {
		return nil, err
	}

	existing, err := r.load(ctx, input.Kind, input.ID)
	if err != nil {
		return nil, err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, recordKey(input.Kind, input.ID))
	pipe.ZRem(ctx, indexKey(input.Kind, existing.EncounterID), input.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, errors.Wrapf(err, "failed to delete %s", input.Kind)
	}
	return &DeleteOutput{}, nil
}

func (r *redisRepository) ListByEncounter(ctx context.Context, input *ListByEncounterInput) (*ListByEncounterOutput, error) {
	if err := validateList(input); err != nil {
		return nil, err
	}

	ids, err := r.client.ZRange(ctx, indexKey(input.Kind, input.EncounterID), 0, -1).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s ids", input.Kind)
	}
	if len(ids) == 0 {
		return &ListByEncounterOutput{Records: []*Record{}}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = recordKey(input.Kind, id)
	}
	values, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s records", input.Kind)
	}

	out := make([]*Record, 0, len(values))
	for i, value := range values {
		raw, ok := value.(string)
		if !ok {
			// index entry without a record; skip it
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, errors.Wrapf(err, "failed to unmarshal %s %s", input.Kind, ids[i])
		}
		out = append(out, &rec)
	}
	return &ListByEncounterOutput{Records: out}, nil
}
