package infra_redis_code_set

import (
	"context"

	"github.com/go-redis/redis"
)

// Driver keeps the set of room codes in use across instances.
type Driver struct {
	client *redis.Client
	key    string
}

func New(
	client *redis.Client,
	key string,
) *Driver {
	return &Driver{
		client: client,
		key:    key,
	}
}

// Reserve claims the code. False means another instance already holds it.
func (d *Driver) Reserve(ctx context.Context, code string) (bool, error) {
	added, err := d.client.SAdd(d.key, code).Result()
	if err != nil {
		return false, err
	}
	return added == 1, nil
}

func (d *Driver) Release(ctx context.Context, code string) error {
	if code == "" {
		return nil
	}

	if err := d.client.SRem(d.key, code).Err(); err != nil {
		return err
	}
	return nil
}
