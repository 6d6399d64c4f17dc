package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

type Redis struct {
	Client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{Client: client}
}

const lockTTL = 30 * time.Second

// AcquirePaymentLock serializes payment writes against one booking. The token
// identifies the holder so only the acquiring request can release.
func (r *Redis) AcquirePaymentLock(ctx context.Context, bookingID, token string) (bool, error) {
	key := "payment_lock:" + bookingID
	ok, err := r.Client.SetNX(ctx, key, token, lockTTL).Result()
	return ok, err
}

func (r *Redis) ReleasePaymentLock(ctx context.Context, bookingID, token string) error {
	key := fmt.Sprintf("payment_lock:%s", bookingID)
	val, err := r.Client.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil // already released or expired
	}
	if err != nil {
		return err
	}
	if val == token {
		_, err := r.Client.Del(ctx, key).Result()
		return err
	}
	return nil // do not release a lock held by someone else
}
