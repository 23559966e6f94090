package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	redisapp "portfolio/internal/storage/redis"
)

// RedisAccessGrantRepo keeps client-gallery access grants in redis with the
// token lifetime as TTL.
type RedisAccessGrantRepo struct {
	Client *redisapp.Client
}

func NewRedisAccessGrantRepo(client *redisapp.Client) *RedisAccessGrantRepo {
	return &RedisAccessGrantRepo{Client: client}
}

func (r *RedisAccessGrantRepo) SaveGrant(ctx context.Context, collectionID int64, grantID string, exp time.Duration) error {
	return r.Client.Set(ctx, grantKey(collectionID, grantID), "1", exp).Err()
}

func (r *RedisAccessGrantRepo) HasGrant(ctx context.Context, collectionID int64, grantID string) (bool, error) {
	val, err := r.Client.Get(ctx, grantKey(collectionID, grantID)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("repository.RedisAccessGrantRepo.HasGrant: %w", err)
	}
	return val == "1", nil
}

func (r *RedisAccessGrantRepo) RevokeGrant(ctx context.Context, collectionID int64, grantID string) error {
	return r.Client.Del(ctx, grantKey(collectionID, grantID)).Err()
}

func (r *RedisAccessGrantRepo) RevokeAllGrants(ctx context.Context, collectionID int64) error {
	keys, err := r.Client.Keys(ctx, grantKey(collectionID, "*")).Result()
	if err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return r.Client.Del(ctx, keys...).Err()
}

func grantKey(collectionID int64, grantID string) string {
	return "gallery_access:" + strconv.FormatInt(collectionID, 10) + ":" + grantID
}
