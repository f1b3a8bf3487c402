package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"
)

var (
	// Nil key 不存在
	Nil = redis.Nil

	ErrInvalidConfig  = errors.New("redis: invalid configuration")
	ErrEmptyAddrs     = errors.New("redis: addrs cannot be empty")
	ErrInvalidTimeout = errors.New("redis: invalid timeout value")
	ErrUnhealthy      = errors.New("redis: health check failed")
)
