package redis

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

const scanBatch = 500

// ErrKeyGone reports a key that expired or was deleted after it was listed.
var ErrKeyGone = errors.New("key no longer exists")

// isKeyGone matches ErrKeyGone and the client's nil reply.
func isKeyGone(err error) bool {
	return errors.Is(err, ErrKeyGone) || errors.Is(err, goredis.Nil)
}

// Member is one scored member of a sorted set.
type Member struct {
	Member string  `json:"member"`
	Score  float64 `json:"score"`
}

// KeyValueStore is the subset of one logical redis database the driver reads.
type KeyValueStore interface {
	Keys(ctx context.Context) ([]string, error)
	Type(ctx context.Context, key string) (string, error)
	// TTL returns the remaining time to live, or a negative duration when
	// the key has no expiry. TTL and Value return ErrKeyGone for a key that
	// no longer exists.
	TTL(ctx context.Context, key string) (time.Duration, error)
	// Value reads a key according to its type: string, map[string]string,
	// []string or []Member.
	Value(ctx context.Context, key, typ string) (any, error)
	Keyspace(ctx context.Context) (string, error)
	Close() error
}

type clientStore struct {
	client *goredis.Client
}

// NewStore wraps a go-redis client bound to one database index.
func NewStore(client *goredis.Client) KeyValueStore {
	return &clientStore{client: client}
}

func (s *clientStore) Keys(ctx context.Context) ([]string, error) {
	var (
		out    []string
		cursor uint64
	)
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "*", scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to scan keys: %w", err)
		}
		out = append(out, keys...)
		if next == 0 {
			break
		}
		cursor = next
	}
	slices.Sort(out)
	return slices.Compact(out), nil
}

func (s *clientStore) Type(ctx context.Context, key string) (string, error) {
	return s.client.Type(ctx, key).Result()
}

func (s *clientStore) TTL(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := s.client.TTL(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// -2 is the server reply for a missing key
	if ttl == -2 {
		return 0, ErrKeyGone
	}
	return ttl, nil
}

func (s *clientStore) Value(ctx context.Context, key, typ string) (any, error) {
	switch typ {
	case "string":
		v, err := s.client.Get(ctx, key).Result()
		if errors.Is(err, goredis.Nil) {
			return nil, ErrKeyGone
		}
		return v, err
	case "hash":
		return s.client.HGetAll(ctx, key).Result()
	case "list":
		return s.client.LRange(ctx, key, 0, -1).Result()
	case "set":
		members, err := s.client.SMembers(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		slices.Sort(members)
		return members, nil
	case "zset":
		zs, err := s.client.ZRangeWithScores(ctx, key, 0, -1).Result()
		if err != nil {
			return nil, err
		}
		out := make([]Member, len(zs))
		for i, z := range zs {
			out[i] = Member{Member: fmt.Sprint(z.Member), Score: z.Score}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported redis type %q", typ)
	}
}

func (s *clientStore) Keyspace(ctx context.Context) (string, error) {
	return s.client.Info(ctx, "keyspace").Result()
}

func (s *clientStore) Close() error {
	return s.client.Close()
}
