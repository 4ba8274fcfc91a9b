package fraud

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/skillrise/payment-security/internal/models"
)

const velocityKeyPrefix = "velocity:"

// RedisVelocityStore keeps each user's window in a sorted set scored by
// millisecond timestamp. Prune, read and append run in one MULTI/EXEC so
// concurrent calls for a user are applied one after another.
type RedisVelocityStore struct {
	rdb       *redis.Client
	retention time.Duration
}

func NewRedisVelocityStore(rdb *redis.Client, retention time.Duration) *RedisVelocityStore {
	return &RedisVelocityStore{rdb: rdb, retention: retention}
}

func (s *RedisVelocityStore) Record(ctx context.Context, userID string, entry models.VelocityEntry) ([]models.VelocityEntry, error) {
	key := velocityKeyPrefix + userID
	cutoff := entry.Timestamp.Add(-s.retention).UnixMilli()

	var existing *redis.StringSliceCmd
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRemRangeByScore(ctx, key, "-inf", "("+strconv.FormatInt(cutoff, 10))
		existing = pipe.ZRange(ctx, key, 0, -1)
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(entry.Timestamp.UnixMilli()),
			Member: encodeVelocityMember(entry),
		})
		pipe.Expire(ctx, key, s.retention)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record velocity for %s: %w", userID, err)
	}

	members := existing.Val()
	history := make([]models.VelocityEntry, 0, len(members))
	for _, m := range members {
		e, err := decodeVelocityMember(m)
		if err != nil {
			return nil, err
		}
		history = append(history, e)
	}
	return history, nil
}

// encodeVelocityMember builds "<unix nanos>:<amount>:<uuid>". The uuid keeps
// two entries with equal time and amount from collapsing into one member.
func encodeVelocityMember(e models.VelocityEntry) string {
	return fmt.Sprintf("%d:%s:%s", e.Timestamp.UnixNano(), e.Amount.String(), uuid.NewString())
}

func decodeVelocityMember(member string) (models.VelocityEntry, error) {
	parts := strings.SplitN(member, ":", 3)
	if len(parts) != 3 {
		return models.VelocityEntry{}, fmt.Errorf("malformed velocity entry %q", member)
	}
	nanos, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return models.VelocityEntry{}, fmt.Errorf("velocity entry timestamp: %w", err)
	}
	amount, err := decimal.NewFromString(parts[1])
	if err != nil {
		return models.VelocityEntry{}, fmt.Errorf("velocity entry amount: %w", err)
	}
	return models.VelocityEntry{Amount: amount, Timestamp: time.Unix(0, nanos)}, nil
}
