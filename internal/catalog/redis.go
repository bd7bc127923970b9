package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/conduit-lang/typesystem/internal/logging"
)

// DefaultRedisPrefix namespaces catalog keys
const DefaultRedisPrefix = "typesys:catalog:"

// RedisStore keeps each entry in a hash and the assembly names in a set
type RedisStore struct {
	client *redis.Client
	prefix string
	logger *zap.Logger
}

// OpenRedisStore connects to addr and checks the connection
func OpenRedisStore(ctx context.Context, addr string, logger *zap.Logger) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addr, err)
	}

	return NewRedisStore(client, DefaultRedisPrefix, logger), nil
}

// NewRedisStore creates a store with an existing client
func NewRedisStore(client *redis.Client, prefix string, logger *zap.Logger) *RedisStore {
	return &RedisStore{client: client, prefix: prefix, logger: logging.OrNop(logger)}
}

func (r *RedisStore) entryKey(assembly string) string { return r.prefix + "entry:" + assembly }

func (r *RedisStore) indexKey() string { return r.prefix + "assemblies" }

// Init verifies the server is reachable
func (r *RedisStore) Init(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Put stores the entry and indexes its assembly atomically
func (r *RedisStore) Put(ctx context.Context, e *Entry) error {
	key := r.entryKey(e.Assembly)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		pipe.HSet(ctx, key, map[string]any{
			"id":          e.ID.String(),
			"assembly":    e.Assembly,
			"source":      e.SourcePath,
			"fingerprint": formatFingerprint(e.Fingerprint),
			"payload":     e.Payload,
			"saved_at":    e.SavedAt.UTC().Format(time.RFC3339Nano),
		})
		pipe.SAdd(ctx, r.indexKey(), e.Assembly)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store catalog entry %s: %w", e.Assembly, err)
	}
	r.logger.Debug("catalog entry stored", zap.String("assembly", e.Assembly), zap.String("id", e.ID.String()))
	return nil
}

// Get returns the entry for assembly, or ErrNotFound
func (r *RedisStore) Get(ctx context.Context, assembly string) (*Entry, error) {
	fields, err := r.client.HGetAll(ctx, r.entryKey(assembly)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog entry %s: %w", assembly, err)
	}
	if len(fields) == 0 {
		return nil, ErrNotFound
	}
	return decodeHash(fields)
}

// List returns every entry ordered by assembly
func (r *RedisStore) List(ctx context.Context) ([]*Entry, error) {
	assemblies, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list catalog entries: %w", err)
	}
	sort.Strings(assemblies)

	entries := make([]*Entry, 0, len(assemblies))
	for _, a := range assemblies {
		e, err := r.Get(ctx, a)
		if errors.Is(err, ErrNotFound) {
			// Indexed but deleted by another writer.
			continue
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// Delete removes the entry for assembly, or returns ErrNotFound
func (r *RedisStore) Delete(ctx context.Context, assembly string) error {
	var del *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		del = pipe.Del(ctx, r.entryKey(assembly))
		pipe.SRem(ctx, r.indexKey(), assembly)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to delete catalog entry %s: %w", assembly, err)
	}
	if del.Val() == 0 {
		return ErrNotFound
	}
	return nil
}

// Reset removes every entry and the index
func (r *RedisStore) Reset(ctx context.Context) error {
	assemblies, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return fmt.Errorf("failed to reset catalog: %w", err)
	}
	keys := make([]string, 0, len(assemblies)+1)
	for _, a := range assemblies {
		keys = append(keys, r.entryKey(a))
	}
	keys = append(keys, r.indexKey())
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to reset catalog: %w", err)
	}
	r.logger.Info("catalog reset", zap.Int("entries", len(assemblies)))
	return nil
}

// Close closes the Redis connection
func (r *RedisStore) Close() error {
	return r.client.Close()
}

func decodeHash(fields map[string]string) (*Entry, error) {
	id, err := uuid.Parse(fields["id"])
	if err != nil {
		return nil, fmt.Errorf("invalid entry id %q: %w", fields["id"], err)
	}
	fp, err := strconv.ParseUint(fields["fingerprint"], 16, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid fingerprint %q: %w", fields["fingerprint"], err)
	}
	savedAt, err := time.Parse(time.RFC3339Nano, fields["saved_at"])
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp %q: %w", fields["saved_at"], err)
	}
	return &Entry{
		ID:          id,
		Assembly:    fields["assembly"],
		SourcePath:  fields["source"],
		Fingerprint: fp,
		Payload:     []byte(fields["payload"]),
		SavedAt:     savedAt,
	}, nil
}
