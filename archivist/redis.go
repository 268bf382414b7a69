package archivist

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/samgozman/fin-buddy/pkg/errlvl"
)

// DefaultRedisKey is the hash holding one JSON record per symbol.
const DefaultRedisKey = "fin-buddy:snapshot"

// hashClient is the part of the redis client the store uses.
type hashClient interface {
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
	Close() error
}

// RedisStore keeps the snapshot in a single redis hash, field per symbol.
type RedisStore struct {
	client hashClient
	key    string
}

// NewRedisStore connects to the redis server at addr.
func NewRedisStore(ctx context.Context, addr string, log *slog.Logger) (*RedisStore, error) {
	client, err := connectToRedis(ctx, addr, log)
	if err != nil {
		return nil, newError(errlvl.ERROR, errFailedConnection, err)
	}

	return &RedisStore{client: client, key: DefaultRedisKey}, nil
}

func (s *RedisStore) Name() string {
	return "redis"
}

// Save overwrites the fields of the given symbols.
func (s *RedisStore) Save(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(records)*2)
	for _, r := range records {
		b, err := json.Marshal(r)
		if err != nil {
			return newError(errlvl.ERROR, errRecordEncode, err)
		}
		values = append(values, r.Symbol, string(b))
	}

	if err := s.client.HSet(ctx, s.key, values...).Err(); err != nil {
		return newError(errlvl.ERROR, errSnapshotSave, err)
	}

	return nil
}

// Load returns every stored record. Fields that cannot be decoded fail the whole load.
func (s *RedisStore) Load(ctx context.Context) ([]Record, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, newError(errlvl.ERROR, errSnapshotLoad, err)
	}

	records := make([]Record, 0, len(fields))
	for _, raw := range fields {
		var r Record
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, newError(errlvl.WARN, errRecordDecode, err)
		}
		records = append(records, r)
	}

	return records, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
