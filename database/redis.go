package database

import (
	"fmt"
	"log"

	config "github.com/inkpress/blog_platform/configs"
	"github.com/redis/go-redis/v9"
)

var Redis *redis.Client

func ConnectRedis() {
	Redis = redis.NewClient(&redis.Options{
		Addr: fmt.Sprintf(
			"%s:%s",
			config.Config("REDIS_HOST"),
			config.Config("REDIS_PORT"),
		),
		Password: config.Config("REDIS_PASSWORD"),
	})

	log.Println("✅ Connection opened to Redis")
}
