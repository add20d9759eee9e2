package infra_redis_init

import (
	"fmt"
	"log"

	"github.com/coderacer/core/internal/config"
	"github.com/go-redis/redis"
)

const logtag = "[redis]"

func Addr(cfg config.RedisCache) string {
	return fmt.Sprintf("%s:%s", cfg.Host, cfg.Port)
}

// MustEstablishConn connects to the instance shared by every coordinator
// process. It exits when the server does not answer a ping.
func MustEstablishConn(cfg config.RedisCache) *redis.Client {
	addr := Addr(cfg)
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       0,
	})

	if err := client.Ping().Err(); err != nil {
		log.Fatalf("%s ping %s failed: %v", logtag, addr, err)
	}
	log.Printf("%s connected to %s", logtag, addr)

	return client
}
